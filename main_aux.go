//go:build aux

package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/datawire/verbump/pkg/cliutil"
)

// Builds with the "aux" tag also offer shell completion and generate the man pages and markdown
// reference that ship with releases.
func init() {
	argparser.CompletionOptions.DisableDefaultCmd = false
	argparser.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setVerbosity(cmd, args)
		if completion, _, err := cmd.Root().Find([]string{"completion"}); err == nil {
			completion.Hidden = true
		}
	}

	argparser.AddCommand(docCommand("man", "Generate man pages", func(root *cobra.Command, dir string) error {
		return doc.GenManTree(root, &doc.GenManHeader{
			Title:   "VERBUMP",
			Section: "1",
			Source:  "verbump",
			Manual:  "verbump manual",
		}, dir)
	}))
	argparser.AddCommand(docCommand("mddoc", "Generate markdown documentation", doc.GenMarkdownTree))
}

// docCommand returns a hidden command that writes generated documentation into a fresh
// OUT_DIRECTORY.
func docCommand(name, short string, gen func(root *cobra.Command, dir string) error) *cobra.Command {
	return &cobra.Command{
		Hidden: true,
		Use:    name + " OUT_DIRECTORY",
		Short:  short,
		Args:   cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if err := os.RemoveAll(dir); err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o777); err != nil {
				return err
			}
			root := cmd.Root()
			root.DisableAutoGenTag = true
			appendFooters(root)
			return gen(root, dir)
		},
	}
}

// appendFooters copies each command's help footer (the table of version pattern parts) into its
// long description, since the doc generators do not use the help template.
func appendFooters(cmd *cobra.Command) {
	if footer := cmd.Annotations[cliutil.FooterAnnotation]; footer != "" {
		cmd.Long += "\n\n" + footer
		delete(cmd.Annotations, cliutil.FooterAnnotation)
	}
	for _, sub := range cmd.Commands() {
		appendFooters(sub)
	}
}

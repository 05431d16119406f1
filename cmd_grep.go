package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/datawire/verbump/pkg/cliutil"
	"github.com/datawire/verbump/pkg/config"
	"github.com/datawire/verbump/pkg/pattern"
)

// grepFile writes the lines of content that tmpl matches to w, with one line of context on
// either side.  It returns the number of matches.
func grepFile(w io.Writer, tmpl *pattern.Pattern, content string, color bool) int {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	printLine := func(i int, line string) {
		fmt.Fprintf(w, "%4d: %s\n", i+1, line)
	}
	printed, lastMatch := -1, -2
	count := 0
	for i, line := range lines {
		matches := tmpl.FindAll(line)
		if len(matches) == 0 {
			if i == lastMatch+1 && line != "" {
				printLine(i, line)
				printed = i
			}
			continue
		}
		count += len(matches)
		if prev := i - 1; prev > printed && prev >= 0 {
			if printed >= 0 && prev > printed+1 {
				fmt.Fprintln(w, "    ...")
			}
			printLine(prev, lines[prev])
		}
		if color {
			for k := len(matches) - 1; k >= 0; k-- {
				line = cliutil.Highlight(line, matches[k].Start, matches[k].End)
			}
		}
		printLine(i, line)
		printed, lastMatch = i, i
	}
	return count
}

func init() {
	var flags struct {
		VersionPattern string
	}
	cmd := &cobra.Command{
		Use:   "grep [flags] PATTERN FILES...",
		Short: "Search files for a version pattern",
		Long: "Search FILES for the search PATTERN, as it would be written in the " +
			"file_patterns of the configuration; {version} and {pep440_version} stand for " +
			"the version pattern.  This is useful for checking that a file pattern matches " +
			"what it should." +
			"\n\n" +
			"The version pattern is taken from --version-pattern, or else from the " +
			"configuration in the current directory.",
		Example: "  $ verbump grep --version-pattern='MAJOR.MINOR.PATCH' '__version__ = \"{version}\"' setup.py",
		Args:    cliutil.WrapPositionalArgs(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rawTemplate, files := args[0], args[1:]

			var versionPattern *pattern.Pattern
			if flags.VersionPattern != "" {
				var err error
				if versionPattern, err = pattern.Compile(flags.VersionPattern); err != nil {
					return err
				}
			} else if cfg, err := config.Load(ctx, "."); err == nil {
				versionPattern = cfg.VersionPattern
			} else {
				dlog.Debugf(ctx, "no version pattern from the configuration: %v", err)
			}
			tmpl, err := pattern.CompileTemplate(versionPattern, rawTemplate)
			if err != nil {
				return err
			}

			color := cliutil.IsTerminal(os.Stdout)
			total := 0
			for _, file := range files {
				content, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				if len(files) > 1 {
					fmt.Println(file)
				}
				total += grepFile(os.Stdout, tmpl, string(content), color)
				if len(files) > 1 {
					fmt.Println()
				}
			}

			if total == 0 || verbosity > 0 {
				fmt.Printf("# %s\n", tmpl.Regex101URL())
				fmt.Print(tmpl.FormatRegexp())
			}
			if total == 0 {
				return errors.New("pattern not found")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.VersionPattern, "version-pattern", "",
		"The version pattern to substitute for {version} in PATTERN")

	cmd.Annotations = map[string]string{cliutil.FooterAnnotation: partsHelp()}

	argparser.AddCommand(cmd)
}

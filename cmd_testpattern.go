package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datawire/verbump/pkg/cliutil"
	"github.com/datawire/verbump/pkg/pattern"
	"github.com/datawire/verbump/pkg/reproducible"
	"github.com/datawire/verbump/pkg/version"
)

func init() {
	var flags versionFlags
	cmd := &cobra.Command{
		Use:   "test [flags] OLD_VERSION PATTERN",
		Short: "Show the version that would follow OLD_VERSION",
		Long: "Increment OLD_VERSION according to PATTERN, without touching any files.  This " +
			"is useful for trying out a pattern before putting it in the configuration.",
		Example: "  $ verbump test 'v2020.1041-beta' 'vYYYY.BUILD[-TAG]' --tag=final\n" +
			"  $ verbump test '1.2.3' 'MAJOR.MINOR.PATCH[PYTAGNUM]' --minor --tag=beta",
		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			oldVersion, rawPattern := args[0], args[1]

			dir, err := flags.Directive(cmd, reproducible.Today())
			if err != nil {
				return err
			}
			pat, err := pattern.Compile(rawPattern)
			if err != nil {
				return err
			}
			old, err := version.Parse(pat, oldVersion)
			if err != nil {
				return err
			}
			next, err := version.Increment(ctx, pat, old, dir)
			if err != nil {
				return err
			}
			if err := version.CheckGreater(pat, old, next); err != nil {
				return err
			}
			newVersion, err := version.Render(pat, next)
			if err != nil {
				return err
			}
			pep440, err := version.RenderPEP440(pat, next)
			if err != nil {
				return err
			}

			fmt.Printf("New Version: %s\n", newVersion)
			if pep440 != newVersion {
				fmt.Printf("PEP440     : %s\n", pep440)
			}
			return nil
		},
	}
	flags.AddFlags(cmd.Flags())

	cmd.Annotations = map[string]string{cliutil.FooterAnnotation: partsHelp()}

	argparser.AddCommand(cmd)
}

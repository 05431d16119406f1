package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datawire/verbump/pkg/cliutil"
	"github.com/datawire/verbump/pkg/config"
	"github.com/datawire/verbump/pkg/reproducible"
)

func init() {
	var flags struct {
		DryRun bool
	}
	cmd := &cobra.Command{
		Use:   "init [flags]",
		Short: "Write an initial configuration",
		Long: "Add a [verbump] section to the project's configuration file (verbump.toml, " +
			"unless there already is a pyproject.toml, setup.cfg or verbump.yaml).  The " +
			"initial version is \"YYYY.1001-alpha\" for the current year, and setup.py, " +
			"README.rst and README.md are listed as file_patterns if they exist.",
		Args: cliutil.WrapPositionalArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			proj := config.Discover(".")
			if proj.Exists() {
				if _, err := proj.Load(ctx); !errors.Is(err, config.ErrNotInitialized) {
					return fmt.Errorf("configuration already initialized in %s", proj.ConfigFile)
				}
			}

			today := reproducible.Today()
			if flags.DryRun {
				content, err := proj.DefaultConfig(today)
				if err != nil {
					return err
				}
				fmt.Printf("Exiting because of '--dry'. Would have written to %s:\n\n", proj.ConfigFile)
				fmt.Print(indent(content, "    "))
				return nil
			}
			return proj.WriteDefault(ctx, today)
		},
	}
	cmd.Flags().BoolVarP(&flags.DryRun, "dry", "d", false,
		"Print the configuration rather than writing it")

	argparser.AddCommand(cmd)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/datawire/verbump/pkg/bump"
	"github.com/datawire/verbump/pkg/cliutil"
	"github.com/datawire/verbump/pkg/config"
	"github.com/datawire/verbump/pkg/reproducible"
)

func init() {
	var flags struct {
		versionFlags
		DryRun        bool
		AllowDirty    bool
		SetVersion    string
		CommitMessage string
	}
	cmd := &cobra.Command{
		Use:   "update [flags]",
		Short: "Update the version of the project",
		Long: "Compute the next version of the project, rewrite the version strings in " +
			"every file listed in the configuration's file_patterns, and (as configured) " +
			"commit, tag and push the result." +
			"\n\n" +
			"Calendar parts of the version are taken from today's date (or from " +
			"$SOURCE_DATE_EPOCH, or from --date).  BUILD, INC0 and INC1 advance on every " +
			"update; MAJOR, MINOR, PATCH and the release tag only change when asked to." +
			"\n\n" +
			"In the --commit-message template, {old_version}, {new_version}, " +
			"{old_version_pep440} and {new_version_pep440} are replaced, as are the bare " +
			"words OLD and NEW.",
		Args: cliutil.WrapPositionalArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			dir, err := flags.Directive(cmd, reproducible.Today())
			if err != nil {
				return err
			}
			dir.SetVersion = flags.SetVersion

			commit := cliutil.GetBoolPair(cmd, "commit")
			tag := cliutil.GetBoolPair(cmd, "tag-commit")
			push := cliutil.GetBoolPair(cmd, "push")

			cfg, err := config.Load(ctx, ".")
			if err != nil {
				return err
			}
			if err := cfg.SetVCSOptions(commit, tag, push); err != nil {
				return err
			}

			fetch := cliutil.GetBoolPair(cmd, "fetch")

			sess, err := bump.NewSession(ctx, cfg)
			if err != nil {
				return err
			}
			res, err := sess.Update(ctx, bump.Options{
				Directive:     dir,
				Fetch:         fetch == nil || *fetch,
				DryRun:        flags.DryRun,
				AllowDirty:    flags.AllowDirty,
				CommitMessage: flags.CommitMessage,
			})
			if err != nil {
				return err
			}

			if flags.DryRun || verbosity >= 2 {
				diff := res.Report.Diff()
				if cliutil.IsTerminal(os.Stdout) {
					diff = cliutil.ColorDiff(diff)
				}
				if _, err := fmt.Fprint(os.Stdout, diff); err != nil {
					return err
				}
			}
			return nil
		},
	}
	flags.AddFlags(cmd.Flags())
	cmd.Flags().StringVar(&flags.SetVersion, "set-version", "",
		"Use this exact version rather than computing it")
	cmd.Flags().BoolVarP(&flags.DryRun, "dry", "d", false,
		"Show the changes that would be made, without making them")
	cmd.Flags().BoolVar(&flags.AllowDirty, "allow-dirty", false,
		"Update even if there are uncommitted changes (except to the files being updated)")
	cmd.Flags().StringVarP(&flags.CommitMessage, "commit-message", "c", "",
		"Override the configured commit_message template")
	cliutil.AddBoolPair(cmd.Flags(), "commit", "Commit the updated files")
	cliutil.AddBoolPair(cmd.Flags(), "tag-commit", "Tag the commit with the new version")
	cliutil.AddBoolPair(cmd.Flags(), "push", "Push the commit and tag")
	cliutil.AddBoolPair(cmd.Flags(), "fetch", "Fetch tags from the remote before working out the current version")

	cmd.Annotations = map[string]string{cliutil.FooterAnnotation: partsHelp()}

	argparser.AddCommand(cmd)
}

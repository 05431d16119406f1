// Command verbump updates the version strings of a project according to a version pattern.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/datawire/dlib/dlog"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/datawire/verbump/pkg/cliutil"
	"github.com/datawire/verbump/pkg/pattern"
)

var argparser = &cobra.Command{
	Use:   "verbump {[flags]|SUBCOMMAND...}",
	Short: "Update version strings in a project's files",
	Long: "verbump finds the version strings of a project (as described by a version " +
		"pattern such as \"YYYY.BUILD[-TAG]\" or \"MAJOR.MINOR.PATCH\"), computes the next " +
		"version, and rewrites, commits, tags and pushes the result.",

	Args: cliutil.OnlySubcommands,
	RunE: cliutil.RunSubcommands,

	SilenceErrors: true, // main() will handle this after .ExecuteContext() returns
	SilenceUsage:  true, // our FlagErrorFunc will handle it
}

var (
	verbosity int
	logger    = newLogger()
)

func init() {
	argparser.SetFlagErrorFunc(cliutil.FlagErrorFunc)
	argparser.SetHelpTemplate(cliutil.HelpTemplate)

	argparser.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"Print more information; may be given twice")
	argparser.PersistentPreRun = setVerbosity
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	logger.SetLevel(logrus.InfoLevel)
	return logger
}

func setVerbosity(_ *cobra.Command, _ []string) {
	if verbosity >= 2 {
		logger.SetLevel(logrus.DebugLevel)
	}
}

// printError prints the extra diagnostics for errors that carry a version pattern.
func printError(err error) {
	var parseErr *pattern.ParseError
	if errors.As(err, &parseErr) {
		fmt.Fprintf(argparser.ErrOrStderr(), "    pattern: %s\n", parseErr.Pattern)
		if parseErr.MatchedPrefix != "" {
			fmt.Fprintf(argparser.ErrOrStderr(), "    matched: %q\n", parseErr.MatchedPrefix)
		}
		if pat, compileErr := pattern.Compile(parseErr.Pattern); compileErr == nil {
			fmt.Fprintf(argparser.ErrOrStderr(), "    regexp:\n%s", indent(pat.FormatRegexp(), "        "))
		}
	}
}

func main() {
	ctx := dlog.WithLogger(context.Background(), dlog.WrapLogrus(logger))

	if err := argparser.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(argparser.ErrOrStderr(), "%s: error: %v\n", argparser.CommandPath(), err)
		printError(err)
		os.Exit(1)
	}
}

// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0
//
// OnlySubcommands, RunSubcommands and FlagErrorFunc are based on
// https://github.com/telepresenceio/telepresence/blob/3b63073ceafae6b548c664a83f7ac90497eab2ae/pkg/client/cli/command.go

package cliutil

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// OnlySubcommands is a cobra.PositionalArgs that is similar to cobra.NoArgs, but suggests the
// subcommand that the user probably meant.
func OnlySubcommands(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	err := fmt.Errorf("invalid subcommand %q", args[0])
	if cmd.SuggestionsMinimumDistance <= 0 {
		cmd.SuggestionsMinimumDistance = 2
	}
	if suggestions := cmd.SuggestionsFor(args[0]); len(suggestions) > 0 {
		err = fmt.Errorf("%w\nDid you mean one of these?\n\t%s", err, strings.Join(suggestions, "\n\t"))
	}
	return cmd.FlagErrorFunc()(cmd, err)
}

// WrapPositionalArgs wraps a cobra.PositionalArgs so that its errors are reported by
// FlagErrorFunc, like every other usage error.
func WrapPositionalArgs(inner cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return FlagErrorFunc(cmd, inner(cmd, args))
	}
}

// RunSubcommands is the RunE of a command that only has subcommands.  It prints the help and
// exits with status 2, so that a mistyped subcommand is not treated as success.
func RunSubcommands(cmd *cobra.Command, args []string) error {
	cmd.SetOutput(cmd.ErrOrStderr())
	cmd.HelpFunc()(cmd, args)
	os.Exit(2)
	return nil
}

// FlagErrorFunc is a function to be passed to (*cobra.Command).SetFlagErrorFunc that establishes
// GNU-ish behavior for invalid usage: the error and a pointer to --help go to stderr, and the
// program exits with status 2.
//
// If err is non-nil, FlagErrorFunc calls os.Exit; it does NOT return.  This means that all
// errors returned from (*cobra.Command).Execute are execution errors, not usage errors.
func FlagErrorFunc(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}

	// If the error is multiple lines, include an extra blank line before the "See --help" line.
	errStr := strings.TrimRight(err.Error(), "\n")
	if strings.Contains(errStr, "\n") {
		errStr += "\n"
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\nSee '%s --help' for more information.\n",
		cmd.CommandPath(), errStr, cmd.CommandPath())
	os.Exit(2)
	return nil
}

// AddBoolPair registers the flags --NAME and --no-NAME.
func AddBoolPair(flags *pflag.FlagSet, name, usage string) {
	flags.Bool(name, false, usage)
	flags.Bool("no-"+name, false, "Inverse of --"+name)
}

// GetBoolPair returns the value of a pair of flags registered with AddBoolPair, or nil if neither
// was given.  Giving both is a usage error (see FlagErrorFunc).
func GetBoolPair(cmd *cobra.Command, name string) *bool {
	flags := cmd.Flags()
	yes, no := flags.Changed(name), flags.Changed("no-"+name)
	if yes && no {
		_ = FlagErrorFunc(cmd, fmt.Errorf("--%s and --no-%s are mutually exclusive", name, name))
	}
	var val bool
	switch {
	case yes:
		val, _ = flags.GetBool(name)
	case no:
		val, _ = flags.GetBool("no-" + name)
		val = !val
	default:
		return nil
	}
	return &val
}

// ExclusiveFlags reports a usage error (see FlagErrorFunc) if more than one of the named flags
// was given.
func ExclusiveFlags(cmd *cobra.Command, names ...string) error {
	var given []string
	for _, name := range names {
		if cmd.Flags().Changed(name) {
			given = append(given, "--"+name)
		}
	}
	if len(given) > 1 {
		return FlagErrorFunc(cmd, fmt.Errorf("%s are mutually exclusive", strings.Join(given, " and ")))
	}
	return nil
}

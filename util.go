package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/datawire/verbump/pkg/cliutil"
	"github.com/datawire/verbump/pkg/pattern"
	"github.com/datawire/verbump/pkg/version"
)

func indent(text, prefix string) string {
	lines := strings.SplitAfter(text, "\n")
	for i, line := range lines {
		if line != "" && line != "\n" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "")
}

// versionFlags are the flags that say how to compute the next version; they are shared by
// `update` and `test`.
type versionFlags struct {
	Major         bool
	Minor         bool
	Patch         bool
	Tag           string
	TagNum        bool
	PinIncrements bool
	PinDate       bool
	Date          cliutil.DateFlag
}

func (vf *versionFlags) AddFlags(flags *pflag.FlagSet) {
	flags.BoolVar(&vf.Major, "major", false,
		"Increment the MAJOR part")
	flags.BoolVarP(&vf.Minor, "minor", "m", false,
		"Increment the MINOR part")
	flags.BoolVarP(&vf.Patch, "patch", "p", false,
		"Increment the PATCH part")
	flags.StringVarP(&vf.Tag, "tag", "t", "",
		fmt.Sprintf("Set the release tag; one of %s (\"final\" removes the tag)",
			strings.Join(version.ValidTags(), ", ")))
	flags.BoolVar(&vf.TagNum, "tag-num", false,
		"Increment the NUM part of the release tag")
	flags.BoolVar(&vf.PinIncrements, "pin-increments", false,
		"Do not advance the INC0 and INC1 parts")
	flags.BoolVar(&vf.PinDate, "pin-date", false,
		"Keep the calendar parts of the current version")
	flags.Var(&vf.Date, "date",
		"Use this release date rather than today")
}

// Directive validates the flags and turns them in to a version.Directive.  Usage errors do not
// return.
func (vf *versionFlags) Directive(cmd *cobra.Command, today time.Time) (version.Directive, error) {
	if err := cliutil.ExclusiveFlags(cmd, "date", "pin-date"); err != nil {
		return version.Directive{}, err
	}
	if vf.Tag != "" && !version.ValidTag(vf.Tag) {
		return version.Directive{}, cliutil.FlagErrorFunc(cmd,
			fmt.Errorf("invalid argument %q for \"--tag\" flag: must be one of %s",
				vf.Tag, strings.Join(version.ValidTags(), ", ")))
	}
	dir := version.Directive{
		Major:         vf.Major,
		Minor:         vf.Minor,
		Patch:         vf.Patch,
		Tag:           vf.Tag,
		TagNum:        vf.TagNum,
		PinIncrements: vf.PinIncrements,
		PinDate:       vf.PinDate,
		Date:          vf.Date.Time,
	}
	if dir.Date.IsZero() && !dir.PinDate {
		dir.Date = today
	}
	return dir, nil
}

// partsHelp lists the parts that may be used in a version pattern, for the help text.
func partsHelp() string {
	var ret strings.Builder
	ret.WriteString("Version pattern parts:\n")
	var kinds []pattern.Kind
	byKind := make(map[pattern.Kind][]string)
	for _, part := range pattern.Parts() {
		if _, ok := byKind[part.Kind]; !ok {
			kinds = append(kinds, part.Kind)
		}
		byKind[part.Kind] = append(byKind[part.Kind], part.Name)
	}
	for _, kind := range kinds {
		fmt.Fprintf(&ret, "  %-20s %s\n", kind, strings.Join(byKind[kind], " "))
	}
	ret.WriteString("\nA part inside of [brackets] is optional; the bracketed text is left out " +
		"while the part has its zero value (MAJOR=0, TAG=final, ...).")
	return ret.String()
}

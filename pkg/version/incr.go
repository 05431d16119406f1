// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/datawire/dlib/dlog"

	"github.com/datawire/verbump/pkg/lexid"
	"github.com/datawire/verbump/pkg/pattern"
)

// Directive describes how to compute the next version.
type Directive struct {
	Major  bool
	Minor  bool
	Patch  bool
	TagNum bool
	// Tag, if non-empty, replaces the release tag; "final" removes it.
	Tag string

	// Date is the release date; it is ignored if PinDate is set.
	Date          time.Time
	PinDate       bool
	PinIncrements bool

	// SetVersion, if non-empty, is used as the next version verbatim (it must still match the
	// pattern).
	SetVersion string
}

type IncrementErrorReason int

const (
	NoChange IncrementErrorReason = iota
	InvalidFlagForPattern
	NotGreater
)

func (r IncrementErrorReason) String() string {
	switch r {
	case NoChange:
		return "version did not change"
	case InvalidFlagForPattern:
		return "invalid flag for pattern"
	case NotGreater:
		return "new version is not greater than the old version"
	default:
		return "invalid increment"
	}
}

type IncrementError struct {
	Reason  IncrementErrorReason
	Pattern string
	Detail  string
}

func (e *IncrementError) Error() string {
	msg := e.Reason.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return fmt.Sprintf("%s (pattern %q)", msg, e.Pattern)
}

// fieldOrder returns the distinct fields used by the pattern, left to right.
func fieldOrder(pat *pattern.Pattern) []*pattern.Part {
	var ret []*pattern.Part
	seen := make(map[pattern.Field]bool)
	for _, part := range pat.Parts() {
		if seen[part.Field] {
			continue
		}
		seen[part.Field] = true
		ret = append(ret, part)
	}
	return ret
}

func checkDirective(pat *pattern.Pattern, old Info, dir Directive) error {
	invalid := func(format string, args ...interface{}) error {
		return &IncrementError{
			Reason:  InvalidFlagForPattern,
			Pattern: pat.String(),
			Detail:  fmt.Sprintf(format, args...),
		}
	}
	for _, flag := range []struct {
		Set   bool
		Name  string
		Field pattern.Field
	}{
		{dir.Major, "--major", pattern.FieldMajor},
		{dir.Minor, "--minor", pattern.FieldMinor},
		{dir.Patch, "--patch", pattern.FieldPatch},
	} {
		if flag.Set && !pat.Has(flag.Field) {
			return invalid("%s requires %s in the pattern", flag.Name, strings.ToUpper(string(flag.Field)))
		}
	}
	if dir.Tag != "" {
		if !ValidTag(dir.Tag) {
			return invalid("--tag=%q is not one of %s", dir.Tag, strings.Join(validTags, ", "))
		}
		if !pat.Has(pattern.FieldTag) {
			return invalid("--tag requires TAG or PYTAG in the pattern")
		}
	}
	if dir.TagNum {
		if !pat.Has(pattern.FieldTagNum) {
			return invalid("--tag-num requires NUM in the pattern")
		}
		tag := old.Tag
		if dir.Tag != "" {
			tag = dir.Tag
		}
		if tag == tagFinal {
			return invalid("--tag-num requires a non-final --tag=<tag>")
		}
	}
	if !dir.PinDate && dir.Date.IsZero() {
		for _, part := range pat.Parts() {
			if part.Kind == pattern.KindCalendar {
				return fmt.Errorf("no release date given for calendar part %s", part.Name)
			}
		}
	}
	return nil
}

// resetFrom resets the fields after position idx of order to their baselines.  Fields that are
// not Counters or tag numbers are only reset if includeBuild is set and they are BUILD.  It
// returns the set of fields that were reset.
func resetFrom(info *Info, order []*pattern.Part, idx int, includeBuild bool) map[pattern.Field]bool {
	base := baseline()
	reset := make(map[pattern.Field]bool)
	for _, part := range order[idx+1:] {
		switch {
		case part.Kind == pattern.KindCounter, part.Kind == pattern.KindTagNumber:
		case part.Kind == pattern.KindPersistentCounter && includeBuild:
		default:
			continue
		}
		switch part.Field {
		case pattern.FieldMajor:
			info.Major = base.Major
		case pattern.FieldMinor:
			info.Minor = base.Minor
		case pattern.FieldPatch:
			info.Patch = base.Patch
		case pattern.FieldInc0:
			info.Inc0 = base.Inc0
		case pattern.FieldInc1:
			info.Inc1 = base.Inc1
		case pattern.FieldTagNum:
			info.Num = base.Num
		case pattern.FieldBuild:
			info.Build = base.Build
		}
		reset[part.Field] = true
	}
	return reset
}

// firstChanged returns the position in order of the left-most part whose rendering differs
// between a and b, or -1.
func firstChanged(order []*pattern.Part, a, b Info) int {
	for i, part := range order {
		if a.Format(part) != b.Format(part) {
			return i
		}
	}
	return -1
}

// Increment computes the version that follows old.
//
// The steps are applied in order:
//
//  1. Calendar parts are set from the release date, unless the date is pinned.  If the old
//     version is dated later than the release date, its calendar parts are kept.
//  2. If a calendar part changed, every counter, tag number and BUILD to its right is reset to
//     its baseline.
//  3. --major, --minor and --patch add one to the (possibly just reset) value, --tag replaces
//     the tag (resetting NUM if the tag changed), and --tag-num adds one to NUM.  Counters and
//     tag numbers to the right of the left-most part changed by this step are reset.
//  4. BUILD, INC0 and INC1 advance, unless they were reset above (or, for INC0 and INC1, the
//     increments are pinned).
//
// A part that was written out in old with its zero value keeps its optional group, unless the
// part was reset or, for the tag, set explicitly.
//
// It is an error if the result renders identically to the old version.
func Increment(ctx context.Context, pat *pattern.Pattern, old Info, dir Directive) (Info, error) {
	if dir.SetVersion != "" {
		next, err := Parse(pat, dir.SetVersion)
		if err != nil {
			return Info{}, fmt.Errorf("--set-version: %w", err)
		}
		return next, checkChanged(pat, old, next)
	}
	if err := checkDirective(pat, old, dir); err != nil {
		return Info{}, err
	}
	order := fieldOrder(pat)
	cur := old

	// 1. calendar
	if !dir.PinDate {
		cal := CalendarOf(dir.Date)
		if old.Calendar.after(cal, pat) {
			oldStr, _ := Render(pat, old)
			dlog.Warnf(ctx, "version %q appears to be from the future (release date %s); keeping its date",
				oldStr, dir.Date.Format("2006-01-02"))
		} else {
			cur.Calendar = cal
		}
	}

	// 2. rollover
	reset := make(map[pattern.Field]bool)
	if idx := firstChanged(order, old, cur); idx >= 0 {
		reset = resetFrom(&cur, order, idx, true)
	}

	// 3. explicit increments
	rolled := cur
	if dir.Major {
		cur.Major++
	}
	if dir.Minor {
		cur.Minor++
	}
	if dir.Patch {
		cur.Patch++
	}
	if dir.Tag != "" {
		// an explicit tag is only written out if it is not "final"
		cur.present.remove(pattern.FieldTag)
		if dir.Tag != cur.Tag {
			cur.Tag = dir.Tag
			cur.Num = 0
			reset[pattern.FieldTagNum] = true
		}
	}
	if dir.TagNum {
		cur.Num++
	}
	if idx := firstChanged(order, rolled, cur); idx >= 0 {
		for field := range resetFrom(&cur, order, idx, false) {
			reset[field] = true
		}
	}

	// 4. automatic increments
	if pat.Has(pattern.FieldBuild) && !reset[pattern.FieldBuild] {
		build, err := nextBuild(cur.Build)
		if err != nil {
			return Info{}, err
		}
		cur.Build = build
	}
	if !dir.PinIncrements {
		if !reset[pattern.FieldInc0] {
			cur.Inc0++
		}
		if !reset[pattern.FieldInc1] {
			cur.Inc1++
		}
	}

	for field := range reset {
		cur.present.remove(field)
	}

	return cur, checkChanged(pat, old, cur)
}

// nextBuild advances a build id.  Ids below 1000 are first lifted by 1000, so that rendering them
// with BLD (which drops leading zeros) stays ordered.
func nextBuild(build string) (string, error) {
	if n, err := strconv.ParseUint(build, 10, 64); err == nil && n < 1000 {
		build = strconv.FormatUint(n+1000, 10)
	}
	next, err := lexid.Next(build)
	if err != nil {
		return "", fmt.Errorf("build id: %w", err)
	}
	return next, nil
}

func checkChanged(pat *pattern.Pattern, old, next Info) error {
	oldStr, err := Render(pat, old)
	if err != nil {
		return err
	}
	nextStr, err := Render(pat, next)
	if err != nil {
		return err
	}
	if oldStr == nextStr {
		return &IncrementError{
			Reason:  NoChange,
			Pattern: pat.String(),
			Detail:  fmt.Sprintf("%q; a flag such as --patch or --tag-num may be missing", oldStr),
		}
	}
	return nil
}

// Incr is a convenience wrapper around Increment for version strings.
func Incr(ctx context.Context, pat *pattern.Pattern, oldVersion string, dir Directive) (string, error) {
	old, err := Parse(pat, oldVersion)
	if err != nil {
		return "", err
	}
	next, err := Increment(ctx, pat, old, dir)
	if err != nil {
		return "", err
	}
	return Render(pat, next)
}

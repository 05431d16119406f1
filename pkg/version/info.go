// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package version implements the semantics of version parts: converting between parsed pattern
// fields and version information, and computing the next version.
package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/datawire/verbump/pkg/pattern"
)

// Info is the semantic content of a version string, independent of the pattern it is rendered
// with.
type Info struct {
	Calendar

	Major int
	Minor int
	Patch int
	// Build is kept as a string so that its zero-padding survives; see pkg/lexid.
	Build string
	// Tag is the long form of the release tag ("alpha", "beta", "rc", "final", ...).
	Tag  string
	Num  int
	Inc0 int
	Inc1 int

	// present is the set of fields that were written out in the parsed version string.  A
	// present part keeps its optional group when rendered, even with its zero value.
	present fieldSet
}

// fieldSet is a set of pattern fields, as a bitmask indexed by fieldBits.
type fieldSet uint32

var fieldBits = func() map[pattern.Field]fieldSet {
	ret := make(map[pattern.Field]fieldSet)
	for _, part := range pattern.Parts() {
		if _, ok := ret[part.Field]; !ok {
			ret[part.Field] = 1 << len(ret)
		}
	}
	return ret
}()

func (s fieldSet) has(field pattern.Field) bool {
	return s&fieldBits[field] != 0
}

func (s *fieldSet) add(field pattern.Field) {
	*s |= fieldBits[field]
}

func (s *fieldSet) remove(field pattern.Field) {
	*s &^= fieldBits[field]
}

const (
	defaultBuild = "1000"
	tagFinal     = "final"
)

// baseline returns the values that fields take when absent from a version or reset on rollover.
func baseline() Info {
	return Info{
		Build: defaultBuild,
		Tag:   tagFinal,
		Inc1:  1,
	}
}

// FromFields interprets the parts parsed from a version string.  Fields that the pattern does not
// have get their baseline value.
func FromFields(fields pattern.Fields) (Info, error) {
	info := baseline()
	for name, val := range fields {
		part, ok := pattern.LookupPart(name)
		if !ok {
			return Info{}, fmt.Errorf("version.FromFields: unknown part %q", name)
		}
		if err := info.set(part, val); err != nil {
			return Info{}, fmt.Errorf("version.FromFields: %s=%q: %w", name, val, err)
		}
		info.present.add(part.Field)
	}
	info.Calendar = info.Calendar.fill()
	return info, nil
}

func (info *Info) set(part *pattern.Part, val string) error {
	switch part.Field {
	case pattern.FieldBuild:
		info.Build = val
		return nil
	case pattern.FieldTag:
		if part.Short {
			tag, ok := tagByPEP440Tag[val]
			if !ok {
				return fmt.Errorf("invalid tag")
			}
			info.Tag = tag
		} else {
			info.Tag = val
		}
		return nil
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return err
	}
	switch part.Field {
	case pattern.FieldYear, pattern.FieldISOYear:
		if n < 1000 {
			n += 2000
		}
		if part.Field == pattern.FieldYear {
			info.Year = n
		} else {
			info.ISOYear = n
		}
	case pattern.FieldQuarter:
		info.Quarter = n
	case pattern.FieldMonth:
		info.Month = n
	case pattern.FieldDayOfMonth:
		info.DayOfMonth = n
	case pattern.FieldDayOfYear:
		info.DayOfYear = n
	case pattern.FieldWeekMonday:
		info.WeekMonday = n
	case pattern.FieldWeekSunday:
		info.WeekSunday = n
	case pattern.FieldISOWeek:
		info.ISOWeek = n
	case pattern.FieldMajor:
		info.Major = n
	case pattern.FieldMinor:
		info.Minor = n
	case pattern.FieldPatch:
		info.Patch = n
	case pattern.FieldTagNum:
		info.Num = n
	case pattern.FieldInc0:
		info.Inc0 = n
	case pattern.FieldInc1:
		info.Inc1 = n
	default:
		return fmt.Errorf("unhandled field %q", part.Field)
	}
	return nil
}

// Format renders a single part of the version.
func (info Info) Format(part *pattern.Part) string {
	switch part.Field {
	case pattern.FieldYear:
		return formatYear(info.Year, part)
	case pattern.FieldISOYear:
		return formatYear(info.ISOYear, part)
	case pattern.FieldQuarter:
		return formatInt(info.Quarter, part)
	case pattern.FieldMonth:
		return formatInt(info.Month, part)
	case pattern.FieldDayOfMonth:
		return formatInt(info.DayOfMonth, part)
	case pattern.FieldDayOfYear:
		return formatInt(info.DayOfYear, part)
	case pattern.FieldWeekMonday:
		return formatInt(info.WeekMonday, part)
	case pattern.FieldWeekSunday:
		return formatInt(info.WeekSunday, part)
	case pattern.FieldISOWeek:
		return formatInt(info.ISOWeek, part)
	case pattern.FieldMajor:
		return formatInt(info.Major, part)
	case pattern.FieldMinor:
		return formatInt(info.Minor, part)
	case pattern.FieldPatch:
		return formatInt(info.Patch, part)
	case pattern.FieldInc0:
		return formatInt(info.Inc0, part)
	case pattern.FieldInc1:
		return formatInt(info.Inc1, part)
	case pattern.FieldTagNum:
		return formatInt(info.Num, part)
	case pattern.FieldBuild:
		if !part.Short {
			return info.Build
		}
		n, err := strconv.ParseUint(info.Build, 10, 64)
		if err != nil {
			if trimmed := strings.TrimLeft(info.Build, "0"); trimmed != "" {
				return trimmed
			}
			return info.Build
		}
		return strconv.FormatUint(n, 10)
	case pattern.FieldTag:
		if part.Short {
			return PEP440Tag(info.Tag)
		}
		return info.Tag
	}
	panic(fmt.Errorf("version.Info.Format: unhandled field %q of part %s", part.Field, part.Name))
}

func formatInt(n int, part *pattern.Part) string {
	if part.Pad > 0 {
		return fmt.Sprintf("%0*d", part.Pad, n)
	}
	return strconv.Itoa(n)
}

func formatYear(year int, part *pattern.Part) string {
	if part.Short {
		year %= 100
	}
	return formatInt(year, part)
}

// ToFields returns the value of every part that the pattern uses.
func ToFields(pat *pattern.Pattern, info Info) pattern.Fields {
	fields := make(pattern.Fields)
	for _, part := range pat.Parts() {
		fields[part.Name] = info.Format(part)
	}
	return fields
}

// Parse parses a version string.
func Parse(pat *pattern.Pattern, str string) (Info, error) {
	fields, err := pat.Parse(str)
	if err != nil {
		return Info{}, err
	}
	return FromFields(fields)
}

// Render formats version information according to a pattern.  Optional groups are kept for the
// parts that were written out in the parsed version, so re-rendering a parsed version reproduces
// it.  Patterns that spell the tag as PYTAG follow PEP 440 instead: a "final" tag and its number
// are never written out.
func Render(pat *pattern.Pattern, info Info) (string, error) {
	pyTag := false
	for _, part := range pat.Parts() {
		if part.Field == pattern.FieldTag && part.Short {
			pyTag = true
		}
	}
	if pyTag && info.Tag == tagFinal {
		info.Num = 0
	}
	return pat.RenderKeeping(ToFields(pat, info), func(part *pattern.Part) bool {
		if pyTag && (part.Field == pattern.FieldTag || part.Field == pattern.FieldTagNum) {
			return false
		}
		return info.present.has(part.Field)
	})
}

// RenderPEP440 formats version information in the PEP 440 normalized form of a pattern.
func RenderPEP440(pat *pattern.Pattern, info Info) (string, error) {
	return Render(pat.PEP440(), info)
}

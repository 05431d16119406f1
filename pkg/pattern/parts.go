// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pattern

import (
	"sort"
)

// Kind classifies how the increment engine treats a part.
type Kind int

const (
	// KindCalendar parts are derived from the release date.
	KindCalendar Kind = iota
	// KindCounter parts reset to their baseline when a part to their left rolls over.
	KindCounter
	// KindTag parts hold a release tag ("alpha", "beta", "rc", "final", ...).
	KindTag
	// KindTagNumber parts number the releases within a tag.
	KindTagNumber
	// KindPersistentCounter parts advance on every release, and are lexically ordered.
	KindPersistentCounter
)

func (k Kind) String() string {
	switch k {
	case KindCalendar:
		return "calendar"
	case KindCounter:
		return "counter"
	case KindTag:
		return "tag"
	case KindTagNumber:
		return "tag-number"
	case KindPersistentCounter:
		return "persistent-counter"
	default:
		return "invalid"
	}
}

// Field names the piece of version information that a part reads and writes.  Several parts may
// share a field (YYYY, YY and 0Y are all renderings of the year).
type Field string

const (
	FieldYear       Field = "year_y"
	FieldISOYear    Field = "year_g"
	FieldQuarter    Field = "quarter"
	FieldMonth      Field = "month"
	FieldDayOfMonth Field = "dom"
	FieldDayOfYear  Field = "doy"
	FieldWeekMonday Field = "week_w"
	FieldWeekSunday Field = "week_u"
	FieldISOWeek    Field = "week_v"
	FieldMajor      Field = "major"
	FieldMinor      Field = "minor"
	FieldPatch      Field = "patch"
	FieldBuild      Field = "bid"
	FieldTag        Field = "tag"
	FieldTagNum     Field = "num"
	FieldInc0       Field = "inc0"
	FieldInc1       Field = "inc1"
)

// A Part is an entry in the closed catalog of placeholders that may appear in a pattern.
type Part struct {
	Name   string
	Field  Field
	Kind   Kind
	Regexp string

	// HasZero is set for parts whose Zero value lets an enclosing optional group be omitted.
	HasZero bool
	Zero    string

	// PEP440 is the name of the part that replaces this one in the derived PEP 440 pattern
	// when it starts a dot-separated segment.
	PEP440 string

	// Pad is the width that the value is zero-padded to, or 0.
	Pad int
	// Short is set for the abbreviated renderings of a field: two-digit years, BLD (a build id
	// without leading zeros) and PYTAG (the PEP 440 spelling of a tag).
	Short bool
}

// IsZero returns whether val is this part's zero value.
func (p *Part) IsZero(val string) bool {
	return p.HasZero && val == p.Zero
}

const (
	reYear4 = `[1-9][0-9]{3}`
	reYear2 = `[1-9][0-9]?`
	reYear0 = `[0-9]{2}`
	reWeek  = `5[0-2]|[1-4][0-9]|[0-9]`
	reWeek0 = `5[0-2]|[0-4][0-9]`
	reNum   = `[0-9]+`
	reNum1  = `[1-9][0-9]*`
	// an all-zero BUILD renders as BLD "0"
	reBuild = `0|[1-9][0-9]*`
)

var catalog = []*Part{
	{Name: "YYYY", Field: FieldYear, Kind: KindCalendar, Regexp: reYear4},
	{Name: "YY", Field: FieldYear, Kind: KindCalendar, Regexp: reYear2, Short: true},
	{Name: "0Y", Field: FieldYear, Kind: KindCalendar, Regexp: reYear0, Short: true, Pad: 2},
	{Name: "GGGG", Field: FieldISOYear, Kind: KindCalendar, Regexp: reYear4},
	{Name: "GG", Field: FieldISOYear, Kind: KindCalendar, Regexp: reYear2, Short: true},
	{Name: "0G", Field: FieldISOYear, Kind: KindCalendar, Regexp: reYear0, Short: true, Pad: 2},
	{Name: "Q", Field: FieldQuarter, Kind: KindCalendar, Regexp: `[1-4]`},
	{Name: "MM", Field: FieldMonth, Kind: KindCalendar, Regexp: `1[0-2]|[1-9]`},
	{Name: "0M", Field: FieldMonth, Kind: KindCalendar, Regexp: `1[0-2]|0[1-9]`, PEP440: "MM", Pad: 2},
	{Name: "DD", Field: FieldDayOfMonth, Kind: KindCalendar, Regexp: `3[0-1]|[1-2][0-9]|[1-9]`},
	{Name: "0D", Field: FieldDayOfMonth, Kind: KindCalendar, Regexp: `3[0-1]|[1-2][0-9]|0[1-9]`, PEP440: "DD", Pad: 2},
	{Name: "JJJ", Field: FieldDayOfYear, Kind: KindCalendar,
		Regexp: `36[0-6]|3[0-5][0-9]|[1-2][0-9][0-9]|[1-9][0-9]|[1-9]`},
	{Name: "00J", Field: FieldDayOfYear, Kind: KindCalendar,
		Regexp: `36[0-6]|3[0-5][0-9]|[1-2][0-9][0-9]|0[1-9][0-9]|00[1-9]`, PEP440: "JJJ", Pad: 3},
	{Name: "WW", Field: FieldWeekMonday, Kind: KindCalendar, Regexp: reWeek},
	{Name: "0W", Field: FieldWeekMonday, Kind: KindCalendar, Regexp: reWeek0, PEP440: "WW", Pad: 2},
	{Name: "UU", Field: FieldWeekSunday, Kind: KindCalendar, Regexp: reWeek},
	{Name: "0U", Field: FieldWeekSunday, Kind: KindCalendar, Regexp: reWeek0, PEP440: "UU", Pad: 2},
	{Name: "VV", Field: FieldISOWeek, Kind: KindCalendar, Regexp: `5[0-3]|[1-4][0-9]|[1-9]`},
	{Name: "0V", Field: FieldISOWeek, Kind: KindCalendar, Regexp: `5[0-3]|[1-4][0-9]|0[1-9]`, PEP440: "VV", Pad: 2},

	{Name: "MAJOR", Field: FieldMajor, Kind: KindCounter, Regexp: reNum, HasZero: true, Zero: "0"},
	{Name: "MINOR", Field: FieldMinor, Kind: KindCounter, Regexp: reNum, HasZero: true, Zero: "0"},
	{Name: "PATCH", Field: FieldPatch, Kind: KindCounter, Regexp: reNum, HasZero: true, Zero: "0"},
	{Name: "INC0", Field: FieldInc0, Kind: KindCounter, Regexp: reNum, HasZero: true, Zero: "0"},
	{Name: "INC1", Field: FieldInc1, Kind: KindCounter, Regexp: reNum1},

	{Name: "BUILD", Field: FieldBuild, Kind: KindPersistentCounter, Regexp: reNum, PEP440: "BLD"},
	{Name: "BLD", Field: FieldBuild, Kind: KindPersistentCounter, Regexp: reBuild, Short: true},

	{Name: "TAG", Field: FieldTag, Kind: KindTag,
		Regexp: `preview|final|dev|alpha|beta|post|rc`, HasZero: true, Zero: "final"},
	{Name: "PYTAG", Field: FieldTag, Kind: KindTag,
		Regexp: `dev|post|rc|a|b`, HasZero: true, Zero: "", Short: true},
	{Name: "NUM", Field: FieldTagNum, Kind: KindTagNumber, Regexp: reNum, HasZero: true, Zero: "0"},
}

var (
	partsByName = map[string]*Part{}
	// partNames is sorted longest-first, so that scanning for a part finds YYYY before YY.
	partNames []string
)

func init() {
	for _, part := range catalog {
		partsByName[part.Name] = part
		partNames = append(partNames, part.Name)
	}
	sort.SliceStable(partNames, func(i, j int) bool {
		return len(partNames[i]) > len(partNames[j])
	})
}

// LookupPart returns the catalog entry for a part name.
func LookupPart(name string) (*Part, bool) {
	part, ok := partsByName[name]
	return part, ok
}

// Parts returns every part in the catalog, in catalog order.
func Parts() []*Part {
	ret := make([]*Part, len(catalog))
	copy(ret, catalog)
	return ret
}

// weekYears names, for each week field, the only year field it may be combined with.  Week
// numbers that are not ISO weeks restart mid-week at the turn of the year, so they may not be
// combined with any year at all.
var weekYears = map[Field]Field{
	FieldISOWeek:    FieldISOYear,
	FieldWeekMonday: "",
	FieldWeekSunday: "",
}

var yearFields = []Field{FieldYear, FieldISOYear}

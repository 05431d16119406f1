// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"time"

	"github.com/datawire/verbump/pkg/pattern"
)

// Calendar holds the date-derived fields of a version.  A zero field is unknown, except for the
// week numbers, which are only meaningful when the pattern uses them.
type Calendar struct {
	Year       int
	ISOYear    int
	Quarter    int
	Month      int
	DayOfMonth int
	DayOfYear  int
	// WeekMonday is the week of the year with Monday as the first day of the week (strftime
	// %W); days before the first Monday are in week 0.
	WeekMonday int
	// WeekSunday is like WeekMonday, but weeks start on Sunday (strftime %U).
	WeekSunday int
	// ISOWeek is the ISO 8601 week (strftime %V), which belongs to ISOYear.
	ISOWeek int
}

// CalendarOf returns the calendar fields of a date.
func CalendarOf(date time.Time) Calendar {
	isoYear, isoWeek := date.ISOWeek()
	yday := date.YearDay() - 1
	weekdaySunday := int(date.Weekday())
	weekdayMonday := (weekdaySunday + 6) % 7
	return Calendar{
		Year:       date.Year(),
		ISOYear:    isoYear,
		Quarter:    quarterOf(int(date.Month())),
		Month:      int(date.Month()),
		DayOfMonth: date.Day(),
		DayOfYear:  date.YearDay(),
		WeekMonday: (yday + 7 - weekdayMonday) / 7,
		WeekSunday: (yday + 7 - weekdaySunday) / 7,
		ISOWeek:    isoWeek,
	}
}

func quarterOf(month int) int {
	return (month-1)/3 + 1
}

// calendarFields lists the calendar fields from most to least significant.
var calendarFields = []pattern.Field{
	pattern.FieldYear,
	pattern.FieldISOYear,
	pattern.FieldQuarter,
	pattern.FieldMonth,
	pattern.FieldDayOfMonth,
	pattern.FieldDayOfYear,
	pattern.FieldWeekMonday,
	pattern.FieldWeekSunday,
	pattern.FieldISOWeek,
}

func (c Calendar) get(field pattern.Field) (int, bool) {
	switch field {
	case pattern.FieldYear:
		return c.Year, true
	case pattern.FieldISOYear:
		return c.ISOYear, true
	case pattern.FieldQuarter:
		return c.Quarter, true
	case pattern.FieldMonth:
		return c.Month, true
	case pattern.FieldDayOfMonth:
		return c.DayOfMonth, true
	case pattern.FieldDayOfYear:
		return c.DayOfYear, true
	case pattern.FieldWeekMonday:
		return c.WeekMonday, true
	case pattern.FieldWeekSunday:
		return c.WeekSunday, true
	case pattern.FieldISOWeek:
		return c.ISOWeek, true
	default:
		return 0, false
	}
}

// after returns whether c is later than other, considering only the calendar fields that the
// pattern uses.
func (c Calendar) after(other Calendar, pat *pattern.Pattern) bool {
	for _, field := range calendarFields {
		if !pat.Has(field) {
			continue
		}
		a, _ := c.get(field)
		b, _ := other.get(field)
		if a != b {
			return a > b
		}
	}
	return false
}

// fill derives the remaining calendar fields if the known ones pin down a date.
func (c Calendar) fill() Calendar {
	switch {
	case c.Year != 0 && c.DayOfYear != 0:
		return CalendarOf(time.Date(c.Year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, c.DayOfYear-1))
	case c.Year != 0 && c.Month != 0 && c.DayOfMonth != 0:
		return CalendarOf(time.Date(c.Year, time.Month(c.Month), c.DayOfMonth, 0, 0, 0, 0, time.UTC))
	}
	if c.Quarter == 0 && c.Month != 0 {
		c.Quarter = quarterOf(c.Month)
	}
	return c
}

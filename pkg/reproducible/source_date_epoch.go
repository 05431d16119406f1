// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package reproducible provides the notion of "now" that a release uses; it may be pinned with
// the SOURCE_DATE_EPOCH environment variable (https://reproducible-builds.org/specs/source-date-epoch/).
package reproducible

import (
	"os"
	"strconv"
	"sync"
	"time"
)

var (
	nowOnce sync.Once
	now     time.Time
)

// Now returns the current time in UTC, or the time given by $SOURCE_DATE_EPOCH.  The value is
// computed once per process.
func Now() time.Time {
	nowOnce.Do(func() {
		now = nowFrom(os.Getenv("SOURCE_DATE_EPOCH"), time.Now)
	})
	return now
}

// Today returns midnight UTC of the day of Now.
func Today() time.Time {
	return Date(Now())
}

// Date truncates a time to midnight UTC of its UTC day.
func Date(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nowFrom(epoch string, clock func() time.Time) time.Time {
	if secs, err := strconv.ParseInt(epoch, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC()
	}
	return clock().UTC()
}

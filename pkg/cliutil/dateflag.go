// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package cliutil

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// DateLayout is the layout that date flags accept.
const DateLayout = "2006-01-02"

// DateFlag is a pflag.Value for an ISO 8601 calendar date (YYYY-MM-DD).  The zero value means
// that the flag was not given.
type DateFlag struct {
	time.Time
}

var _ pflag.Value = (*DateFlag)(nil)

func (d *DateFlag) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d *DateFlag) Set(str string) error {
	date, err := time.ParseInLocation(DateLayout, str, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid date %q: expected %s", str, "YYYY-MM-DD")
	}
	d.Time = date
	return nil
}

func (d *DateFlag) Type() string {
	return "YYYY-MM-DD"
}

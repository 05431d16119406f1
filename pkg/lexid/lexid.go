// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package lexid implements lexically ordered numerical identifiers.
//
// A lexical id is a string of decimal digits that, when incremented with Next, compares greater
// than its predecessor both numerically and lexicographically.  When the number of digits would
// have to grow, the leading digit is bumped as well, so that for example "0999" is followed by
// "11000" rather than by "1000".  This keeps identifiers such as build numbers sortable with a
// plain string sort.
package lexid

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrOverflow is returned when an identifier consisting only of the digit 9 is incremented.
var ErrOverflow = errors.New("overflow")

// Next returns the identifier that follows prev.
func Next(prev string) (string, error) {
	if prev == "" {
		return "", fmt.Errorf("lexid.Next: empty id")
	}
	for _, r := range prev {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("lexid.Next: invalid id %q: non-digit character %q", prev, r)
		}
	}
	if strings.Trim(prev, "9") == "" {
		return "", fmt.Errorf("lexid.Next: %q: %w", prev, ErrOverflow)
	}

	// ids are unbounded (BUILD is any run of digits), so they do not fit in a uint64
	num, ok := new(big.Int).SetString(prev, 10)
	if !ok {
		return "", fmt.Errorf("lexid.Next: invalid id %q", prev)
	}
	num.Add(num, big.NewInt(1))
	next := num.String()
	if pad := len(prev) - len(next); pad > 0 {
		next = strings.Repeat("0", pad) + next
	}
	if next[0] != prev[0] {
		// The leading digit changed, so the identifier has to get one digit longer to stay
		// lexically greater than everything before it.
		next = num.Mul(num, big.NewInt(11)).String()
	}
	return next, nil
}

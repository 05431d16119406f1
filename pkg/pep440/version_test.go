// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pep440_test

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/verbump/pkg/pep440"
	"github.com/datawire/verbump/pkg/testutil"
)

func mustParseVersion(t *testing.T, str string) pep440.Version {
	t.Helper()
	ver, err := pep440.ParseVersion(str)
	require.NoError(t, err)
	require.NotNil(t, ver)
	return *ver
}

func TestSort(t *testing.T) {
	t.Parallel()
	testcases := map[string][]string{
		"final-releases": {
			"0.9",
			"0.9.1",
			"0.9.10",
			"1.0",
			"1.0.1",
			"2.0",
		},
		"calendar-releases": {
			"2012.4",
			"2012.10",
			"2013.1",
			"201809.1051",
			"201810.1000",
		},
		"build-ids": {
			"2020.1998",
			"2020.1999",
			"2020.22000",
			"2020.22001",
		},
		"suffixes": {
			"4.3.dev1",
			"4.3a2",
			"4.3b0",
			"4.3b2",
			"4.3rc2",
			"4.3",
			"4.3.post1",
		},
		"epochs": {
			"2013.10",
			"2014.4",
			"1!1.0",
		},
		"local": {
			"1.0",
			"1.0+abc",
			"1.0+abc.5",
			"1.0+5",
		},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			shuffled := make([]pep440.Version, 0, len(tc))
			for _, str := range tc {
				shuffled = append(shuffled, mustParseVersion(t, str))
			}
			rnd := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // not crypto
			rnd.Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})
			sort.SliceStable(shuffled, func(i, j int) bool {
				return shuffled[i].Cmp(shuffled[j]) < 0
			})
			actual := make([]string, 0, len(shuffled))
			for _, ver := range shuffled {
				actual = append(actual, ver.String())
			}
			expected := make([]string, 0, len(tc))
			for _, str := range tc {
				expected = append(expected, mustParseVersion(t, str).String())
			}
			assert.Equal(t, expected, actual)
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()
	testcases := map[string]string{
		"v1.0":              "1.0",
		"201811.0007-beta":  "201811.7b0",
		"v201811.1051-beta": "201811.1051b0",
		"1.0-alpha1":        "1.0a1",
		"1.0.PREVIEW":       "1.0rc0",
		"1.0c3":             "1.0rc3",
		"1.0-1":             "1.0.post1",
		"1.0.rev2":          "1.0.post2",
		"1.0-dev":           "1.0.dev0",
		"1!2.0+Ubuntu-1":    "1!2.0+ubuntu.1",
	}
	for input, expected := range testcases {
		input, expected := input, expected
		t.Run(input, func(t *testing.T) {
			t.Parallel()
			actual, err := pep440.Normalize(input)
			require.NoError(t, err)
			assert.Equal(t, expected, actual)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()
	for _, input := range []string{"", "v", "1.0-final", "2020w05", "abc"} {
		_, err := pep440.ParseVersion(input)
		assert.Error(t, err, input)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	testutil.QuickCheck(t, func(ver pep440.Version) bool {
		parsed, err := pep440.ParseVersion(ver.String())
		if err != nil {
			return false
		}
		return parsed.String() == ver.String() && parsed.Cmp(ver) == 0
	}, testutil.QuickConfig{MaxCount: 2000})
}

func TestCmpAntisymmetric(t *testing.T) {
	t.Parallel()
	testutil.QuickCheck(t, func(a, b pep440.Version) bool {
		ab, ba := a.Cmp(b), b.Cmp(a)
		switch {
		case ab < 0:
			return ba > 0
		case ab > 0:
			return ba < 0
		default:
			return ba == 0
		}
	}, testutil.QuickConfig{MaxCount: 2000})
}

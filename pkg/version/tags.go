// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"sort"
)

var pep440TagByTag = map[string]string{
	"a":       "a",
	"alpha":   "a",
	"b":       "b",
	"beta":    "b",
	"dev":     "dev",
	"c":       "rc",
	"pre":     "rc",
	"preview": "rc",
	"rc":      "rc",
	"final":   "",
	"post":    "post",
	"r":       "post",
	"rev":     "post",
}

var tagByPEP440Tag = map[string]string{
	"a":    "alpha",
	"b":    "beta",
	"":     "final",
	"rc":   "rc",
	"dev":  "dev",
	"post": "post",
}

// PEP440Tag returns the PEP 440 spelling of a release tag; "final" is the empty string.
func PEP440Tag(tag string) string {
	return pep440TagByTag[tag]
}

// validTags are the values that a TAG part may take.
var validTags = []string{"alpha", "beta", "dev", "final", "post", "preview", "rc"}

// ValidTag returns whether tag may be used as the release tag of a version.
func ValidTag(tag string) bool {
	i := sort.SearchStrings(validTags, tag)
	return i < len(validTags) && validTags[i] == tag
}

// ValidTags returns the values that a release tag may take.
func ValidTags() []string {
	return append([]string(nil), validTags...)
}

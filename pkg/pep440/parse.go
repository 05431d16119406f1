// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pep440

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/util/intstr"
)

// reVersion is the permissive regular expression from Appendix B of PEP 440; it accepts anything
// that can be normalized.
var reVersion = regexp.MustCompile(`(?i)^\s*` + regexp.MustCompile(`(?:\s+|#.*)`).ReplaceAllString(`
		v?
		(?:
		    (?:(?P<epoch>[0-9]+)!)?                           # epoch
		    (?P<release>[0-9]+(?:\.[0-9]+)*)                  # release segment
		    (?P<pre>                                          # pre-release
		        [-_\.]?
		        (?P<pre_l>(a|b|c|rc|alpha|beta|pre|preview))
		        [-_\.]?
		        (?P<pre_n>[0-9]+)?
		    )?
		    (?P<post>                                         # post release
		        (?:-(?P<post_n1>[0-9]+))
		        |
		        (?:
		            [-_\.]?
		            (?P<post_l>post|rev|r)
		            [-_\.]?
		            (?P<post_n2>[0-9]+)?
		        )
		    )?
		    (?P<dev>                                          # dev release
		        [-_\.]?
		        (?P<dev_l>dev)
		        [-_\.]?
		        (?P<dev_n>[0-9]+)?
		    )?
		)
		(?:\+(?P<local>[a-z0-9]+(?:[-_\.][a-z0-9]+)*))?       # local version
	`, ``) + `\s*$`)

// preReleaseSpellings maps every accepted pre-release spelling to its normalized form.
var preReleaseSpellings = map[string]string{
	"a":       "a",
	"alpha":   "a",
	"b":       "b",
	"beta":    "b",
	"rc":      "rc",
	"c":       "rc",
	"pre":     "rc",
	"preview": "rc",
}

// ParseVersion parses a string to a Version object, performing normalization.
func ParseVersion(str string) (*Version, error) {
	ver, err := parseVersion(str)
	if err != nil {
		return nil, fmt.Errorf("pep440.ParseVersion: %w", err)
	}
	return ver, nil
}

func parseVersion(str string) (*Version, error) {
	match := reVersion.FindStringSubmatch(str)
	if match == nil {
		return nil, fmt.Errorf("invalid version: %q", str)
	}
	group := func(name string) string {
		return match[reVersion.SubexpIndex(name)]
	}
	atoi := func(s string) (int, error) {
		if s == "" {
			return 0, nil
		}
		return strconv.Atoi(s)
	}

	var ver Version
	var err error

	if ver.Epoch, err = atoi(group("epoch")); err != nil {
		return nil, fmt.Errorf("epoch: %w", err)
	}

	for _, segStr := range strings.Split(group("release"), ".") {
		segInt, err := strconv.Atoi(segStr)
		if err != nil {
			return nil, fmt.Errorf("release: %w", err)
		}
		ver.Release = append(ver.Release, segInt)
	}

	if l := strings.ToLower(group("pre_l")); l != "" {
		n, err := atoi(group("pre_n"))
		if err != nil {
			return nil, fmt.Errorf("pre-release: %w", err)
		}
		ver.Pre = &PreRelease{L: preReleaseSpellings[l], N: n}
	}

	if group("post") != "" {
		n, err := atoi(group("post_n1") + group("post_n2"))
		if err != nil {
			return nil, fmt.Errorf("post-release: %w", err)
		}
		ver.Post = &n
	}

	if group("dev") != "" {
		n, err := atoi(group("dev_n"))
		if err != nil {
			return nil, fmt.Errorf("dev: %w", err)
		}
		ver.Dev = &n
	}

	localParts := strings.FieldsFunc(group("local"), func(r rune) bool {
		return strings.ContainsRune("-_.", r)
	})
	for _, part := range localParts {
		ver.Local = append(ver.Local, intstr.Parse(strings.ToLower(part)))
	}

	return &ver, nil
}

// Normalize returns the normalized form of a version string.
func Normalize(str string) (string, error) {
	ver, err := ParseVersion(str)
	if err != nil {
		return "", err
	}
	return ver.String(), nil
}

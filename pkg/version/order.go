// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"sort"

	"github.com/datawire/verbump/pkg/pattern"
	"github.com/datawire/verbump/pkg/pep440"
)

// PEP440 returns the PEP 440 form of a version, parsed.
func PEP440(pat *pattern.Pattern, info Info) (*pep440.Version, error) {
	str, err := RenderPEP440(pat, info)
	if err != nil {
		return nil, err
	}
	return pep440.ParseVersion(str)
}

// Compare orders two versions of a pattern by their PEP 440 forms.
func Compare(pat *pattern.Pattern, a, b Info) (int, error) {
	aVer, err := PEP440(pat, a)
	if err != nil {
		return 0, err
	}
	bVer, err := PEP440(pat, b)
	if err != nil {
		return 0, err
	}
	return aVer.Cmp(*bVer), nil
}

// CheckGreater returns an *IncrementError with reason NotGreater unless next is greater than old.
func CheckGreater(pat *pattern.Pattern, old, next Info) error {
	cmp, err := Compare(pat, next, old)
	if err != nil {
		return err
	}
	if cmp <= 0 {
		oldStr, _ := Render(pat, old)
		nextStr, _ := Render(pat, next)
		return &IncrementError{
			Reason:  NotGreater,
			Pattern: pat.String(),
			Detail:  fmt.Sprintf("%q > %q does not hold", nextStr, oldStr),
		}
	}
	return nil
}

// Latest returns the greatest of the candidates that are versions of the pattern; ok is false if
// none of them are.
func Latest(pat *pattern.Pattern, candidates []string) (latest string, info Info, ok bool) {
	type parsed struct {
		str    string
		info   Info
		pep440 *pep440.Version
	}
	var versions []parsed
	for _, str := range candidates {
		info, err := Parse(pat, str)
		if err != nil {
			continue
		}
		ver, err := PEP440(pat, info)
		if err != nil {
			continue
		}
		versions = append(versions, parsed{str: str, info: info, pep440: ver})
	}
	if len(versions) == 0 {
		return "", Info{}, false
	}
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].pep440.Cmp(*versions[j].pep440) > 0
	})
	return versions[0].str, versions[0].info, true
}

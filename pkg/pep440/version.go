// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package pep440 implements the parts of PEP 440 "Version Identification and Dependency
// Specification" that are needed to order the normalized form of a version string.
//
// https://www.python.org/dev/peps/pep-0440/
package pep440

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/intstr"
)

// Version is a parsed PEP 440 version identifier:
//
//     [N!]N(.N)*[{a|b|rc}N][.postN][.devN][+local]
type Version struct {
	Epoch   int
	Release []int
	Pre     *PreRelease
	Post    *int
	Dev     *int
	Local   []intstr.IntOrString
}

type PreRelease struct {
	L string
	N int
}

// GoString implements fmt.GoStringer.
func (ver Version) GoString() string {
	pre := "nil"
	if ver.Pre != nil {
		pre = fmt.Sprintf("&%#v", *ver.Pre)
	}
	post := "nil"
	if ver.Post != nil {
		post = fmt.Sprintf("intPtr(%#v)", *ver.Post)
	}
	dev := "nil"
	if ver.Dev != nil {
		dev = fmt.Sprintf("intPtr(%#v)", *ver.Dev)
	}
	return fmt.Sprintf("pep440.Version{Epoch:%d, Release:%#v, Pre:%s, Post:%s, Dev:%s, Local:%#v}",
		ver.Epoch, ver.Release, pre, post, dev, ver.Local)
}

// String implements fmt.Stringer, returning the normalized form of the version.
func (ver Version) String() string {
	var ret strings.Builder
	if ver.Epoch > 0 {
		fmt.Fprintf(&ret, "%d!", ver.Epoch)
	}
	if len(ver.Release) == 0 {
		panic("invalid version: no release segments")
	}
	fmt.Fprintf(&ret, "%d", ver.Release[0])
	for _, segment := range ver.Release[1:] {
		fmt.Fprintf(&ret, ".%d", segment)
	}
	if ver.Pre != nil {
		fmt.Fprintf(&ret, "%s%d", ver.Pre.L, ver.Pre.N)
	}
	if ver.Post != nil {
		fmt.Fprintf(&ret, ".post%d", *ver.Post)
	}
	if ver.Dev != nil {
		fmt.Fprintf(&ret, ".dev%d", *ver.Dev)
	}
	sep := "+"
	for _, local := range ver.Local {
		ret.WriteString(sep)
		ret.WriteString(local.String())
		sep = "."
	}
	return ret.String()
}

// IsFinal returns whether the version consists solely of a release segment and optionally an
// epoch.
func (ver Version) IsFinal() bool {
	return ver.Pre == nil && ver.Post == nil && ver.Dev == nil && len(ver.Local) == 0
}

// Cmp returns a number < 0 if version 'a' is less than version 'b', > 0 if 'a' is greater than 'b',
// or 0 if they are equal.  Only the sign is defined; the magnitude may be anything.
//
// Within a release the suffixes are ordered as
//
//    .devN, aN, bN, rcN, <no suffix>, .postN
func (a Version) Cmp(b Version) int {
	for _, cmp := range []func(a, b Version) int{
		cmpEpoch,
		cmpRelease,
		cmpPreRelease,
		cmpPostRelease,
		cmpDevRelease,
		cmpLocal,
	} {
		if d := cmp(a, b); d != 0 {
			return d
		}
	}
	return 0
}

func cmpEpoch(a, b Version) int {
	return a.Epoch - b.Epoch
}

func (ver Version) releaseSegment(n int) int {
	if n < len(ver.Release) {
		return ver.Release[n]
	}
	return 0
}

// cmpRelease pads the shorter release segment out with zeros.
func cmpRelease(a, b Version) int {
	for i := 0; i < len(a.Release) || i < len(b.Release); i++ {
		if diff := a.releaseSegment(i) - b.releaseSegment(i); diff != 0 {
			return diff
		}
	}
	return 0
}

var preReleaseOrder = map[string]int{
	"a":  -3,
	"b":  -2,
	"rc": -1,
	// absent: 0,
}

func preReleaseKey(ver Version) (int, int) {
	switch {
	case ver.Pre != nil:
		order, ok := preReleaseOrder[ver.Pre.L]
		if !ok {
			panic(fmt.Errorf("invalid pre-release string: %q", ver.Pre.L))
		}
		return order, ver.Pre.N
	case ver.Dev != nil && ver.Post == nil:
		// X.Y.devN sorts before X.YaN
		return -4, 0
	default:
		return 0, 0
	}
}

func cmpPreRelease(a, b Version) int {
	aL, aN := preReleaseKey(a)
	bL, bN := preReleaseKey(b)
	if aL != bL {
		return aL - bL
	}
	return aN - bN
}

func cmpPostRelease(a, b Version) int {
	aPost := -1
	if a.Post != nil {
		aPost = *a.Post
	}
	bPost := -1
	if b.Post != nil {
		bPost = *b.Post
	}
	return aPost - bPost
}

func cmpDevRelease(a, b Version) int {
	switch {
	case a.Dev == nil && b.Dev == nil:
		return 0
	case a.Dev == nil && b.Dev != nil:
		return 1
	case a.Dev != nil && b.Dev == nil:
		return -1
	default:
		return (*a.Dev) - (*b.Dev)
	}
}

// cmpLocal compares numeric segments as integers and others case-insensitively as strings; numeric
// segments sort after string segments, and a longer label sorts after any prefix of it.
func cmpLocal(a, b Version) int {
	for i := 0; i < len(a.Local) || i < len(b.Local); i++ {
		switch {
		case i >= len(a.Local):
			return -1
		case i >= len(b.Local):
			return 1
		}
		if d := cmpLocalSegment(a.Local[i], b.Local[i]); d != 0 {
			return d
		}
	}
	return 0
}

func cmpLocalSegment(a, b intstr.IntOrString) int {
	switch {
	case a.Type == intstr.Int && b.Type == intstr.Int:
		return int(a.IntVal - b.IntVal)
	case a.Type == intstr.String && b.Type == intstr.String:
		return strings.Compare(a.StrVal, b.StrVal)
	case a.Type == intstr.Int:
		return 1
	default:
		return -1
	}
}

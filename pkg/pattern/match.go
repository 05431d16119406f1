// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// Fields maps part names to the literal text of that part in a version string.  Parts inside of
// an optional group that was left out are absent.
type Fields map[string]string

// Has returns whether the fields have a value for the part.
func (f Fields) Has(part *Part) bool {
	_, ok := f[part.Name]
	return ok
}

// ParseError is returned when a version string does not match a pattern.
type ParseError struct {
	Input   string
	Pattern string
	Regexp  string
	// MatchedPrefix is the longest prefix of Input that a prefix of the pattern accepts.
	MatchedPrefix string
	// Expected is the regexp of the rest of the pattern, which failed to match after
	// MatchedPrefix.
	Expected string
	Detail   string
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("invalid version string %q for pattern %q", e.Input, e.Pattern)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.MatchedPrefix != "" {
		if e.Expected == "" {
			msg += fmt.Sprintf(" (matched %q, expected nothing after it)", e.MatchedPrefix)
		} else {
			msg += fmt.Sprintf(" (matched %q, expected %s after it)", e.MatchedPrefix, e.Expected)
		}
	}
	return msg
}

// Parse matches a complete version string against the pattern.
func (pat *Pattern) Parse(version string) (Fields, error) {
	parseErr := func(detail string) error {
		prefix, expected := pat.matchedPrefix(version)
		return &ParseError{
			Input:         version,
			Pattern:       pat.raw,
			Regexp:        pat.anchored.String(),
			MatchedPrefix: prefix,
			Expected:      expected,
			Detail:        detail,
		}
	}
	if strings.ContainsAny(version, "\r\n") {
		return nil, parseErr("version strings are a single line")
	}
	loc := pat.anchored.FindStringSubmatchIndex(version)
	if loc == nil {
		return nil, parseErr("")
	}
	fields, err := pat.fields(version, loc)
	if err != nil {
		return nil, parseErr(err.Error())
	}
	return fields, nil
}

func (pat *Pattern) fields(str string, loc []int) (Fields, error) {
	fields := make(Fields)
	for i, part := range pat.parts {
		start, end := loc[2*(i+1)], loc[2*(i+1)+1]
		if start < 0 {
			continue
		}
		val := str[start:end]
		if prev, ok := fields[part.Name]; ok && prev != val {
			return nil, fmt.Errorf("%s is both %q and %q", part.Name, prev, val)
		}
		fields[part.Name] = val
	}
	return fields, nil
}

// matchedPrefix returns the longest prefix of str that is matched by a prefix of the top-level
// tokens of the pattern, and the regexp of the tokens after that prefix.
func (pat *Pattern) matchedPrefix(str string) (prefix, expected string) {
	tokenRegexp := func(tokens []Token) string {
		var body strings.Builder
		scratch := &Pattern{}
		scratch.writeRegexp(&body, tokens)
		return body.String()
	}
	matched := 0
	for n := 1; n <= len(pat.tokens); n++ {
		re, err := regexp.Compile(`^(?:` + tokenRegexp(pat.tokens[:n]) + `)`)
		if err != nil {
			continue
		}
		if m := re.FindString(str); len(m) > len(prefix) {
			prefix, matched = m, n
		}
	}
	if prefix == "" {
		return "", ""
	}
	return prefix, tokenRegexp(pat.tokens[matched:])
}

// Match is a version found inside of a larger text by FindAll.
type Match struct {
	// Start and End are byte offsets into the searched text.
	Start, End int
	Text       string
	Fields     Fields
}

// FindAll returns every non-overlapping occurrence of the pattern in text.
func (pat *Pattern) FindAll(text string) []Match {
	var ret []Match
	for _, loc := range pat.search.FindAllStringSubmatchIndex(text, -1) {
		fields, err := pat.fields(text, loc)
		if err != nil {
			continue
		}
		ret = append(ret, Match{
			Start:  loc[0],
			End:    loc[1],
			Text:   text[loc[0]:loc[1]],
			Fields: fields,
		})
	}
	return ret
}

// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package pattern compiles version patterns such as "vYYYY0M.BUILD[-TAG]" into matchers that
// parse version strings into their parts, and renders parts back into version strings.
//
// A pattern is made of parts (the closed set of names in the catalog, see LookupPart), literal
// text, and optional groups delimited by "[" and "]".  A literal bracket is written "\[" or "\]".
// When rendering, an optional group is left out if every part inside of it has its zero value.
package pattern

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// A Token is one element of a compiled pattern: a *Literal, a *PartRef or a *Group.
type Token interface {
	isToken()
}

type Literal struct {
	Text string
}

type PartRef struct {
	Part *Part
	// Optional is set if the reference is inside of an optional group.
	Optional bool
}

type Group struct {
	Tokens []Token
}

func (*Literal) isToken() {}
func (*PartRef) isToken() {}
func (*Group) isToken()   {}

// Pattern is a compiled version pattern.  It is immutable once compiled.
type Pattern struct {
	raw    string
	tokens []Token

	// parts[i] is the part captured by submatch i+1 of the regexps.
	parts    []*Part
	anchored *regexp.Regexp
	search   *regexp.Regexp

	pep440 *Pattern
}

// CompileErrorReason enumerates the ways a pattern can be invalid.
type CompileErrorReason int

const (
	UnbalancedBrackets CompileErrorReason = iota
	UnknownPart
	AmbiguousWeekYear
	DuplicateIncompatibleParts
	InvalidTemplate
	InvalidCharacter
)

func (r CompileErrorReason) String() string {
	switch r {
	case UnbalancedBrackets:
		return "unbalanced brackets"
	case UnknownPart:
		return "unknown part"
	case AmbiguousWeekYear:
		return "ambiguous week/year combination"
	case DuplicateIncompatibleParts:
		return "duplicate incompatible parts"
	case InvalidTemplate:
		return "invalid template"
	case InvalidCharacter:
		return "invalid character"
	default:
		return "invalid pattern"
	}
}

type CompileError struct {
	Pattern string
	Reason  CompileErrorReason
	Detail  string
}

func (e *CompileError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Reason)
	}
	return fmt.Sprintf("invalid pattern %q: %v: %s", e.Pattern, e.Reason, e.Detail)
}

// Compile compiles a version pattern.
func Compile(raw string) (*Pattern, error) {
	if i := strings.IndexFunc(raw, unicode.IsSpace); i >= 0 {
		return nil, fmt.Errorf("pattern.Compile: %w", &CompileError{
			Pattern: raw,
			Reason:  InvalidCharacter,
			Detail:  fmt.Sprintf("whitespace at offset %d", i),
		})
	}
	pat, err := compile(raw, true)
	if err != nil {
		return nil, fmt.Errorf("pattern.Compile: %w", err)
	}
	pep440, err := newPattern(derivePEP440(pat.tokens))
	if err != nil {
		return nil, fmt.Errorf("pattern.Compile: pep440: %w", err)
	}
	pep440.pep440 = pep440
	pat.pep440 = pep440
	return pat, nil
}

// MustCompile is like Compile but panics if the pattern is invalid.
func MustCompile(raw string) *Pattern {
	pat, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return pat
}

// CompileTemplate compiles a file-pattern template that locates a version inside of a file.  In
// the template, "{version}" stands for the version pattern itself, "{pep440_version}" for its
// PEP 440 form, and "{PART}" for a bare part name.  Unlike a version pattern, a template may use
// the same part more than once.  The version pattern may be nil if the template does not refer
// to it.
func CompileTemplate(version *Pattern, template string) (*Pattern, error) {
	if strings.HasPrefix(template, "[") {
		return nil, fmt.Errorf("pattern.CompileTemplate: %w", &CompileError{
			Pattern: template,
			Reason:  InvalidTemplate,
			Detail:  "a template may not start with an optional group",
		})
	}
	expanded := template
	if version != nil {
		expanded = strings.NewReplacer(
			"{version}", version.raw,
			"{pep440_version}", version.pep440.raw,
		).Replace(template)
	} else if strings.Contains(template, "{version}") || strings.Contains(template, "{pep440_version}") {
		return nil, fmt.Errorf("pattern.CompileTemplate: %w", &CompileError{
			Pattern: template,
			Reason:  InvalidTemplate,
			Detail:  "no version pattern to substitute for {version}",
		})
	}
	pat, err := compile(expanded, false)
	if err != nil {
		return nil, fmt.Errorf("pattern.CompileTemplate: %w", err)
	}
	pat.pep440 = pat
	return pat, nil
}

func compile(raw string, strict bool) (*Pattern, error) {
	tokens, err := tokenize(raw)
	if err != nil {
		return nil, err
	}
	if err := checkParts(raw, tokens, strict); err != nil {
		return nil, err
	}
	return newPattern(raw, tokens)
}

func tokenize(raw string) ([]Token, error) {
	type frame struct {
		tokens *[]Token
	}
	var root []Token
	stack := []frame{{tokens: &root}}
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			top := stack[len(stack)-1].tokens
			*top = append(*top, &Literal{Text: lit.String()})
			lit.Reset()
		}
	}
	emit := func(tok Token) {
		flush()
		top := stack[len(stack)-1].tokens
		*top = append(*top, tok)
	}

	for i := 0; i < len(raw); {
		rest := raw[i:]
		switch {
		case strings.HasPrefix(rest, `\[`), strings.HasPrefix(rest, `\]`):
			lit.WriteByte(rest[1])
			i += 2
		case rest[0] == '[':
			grp := &Group{}
			emit(grp)
			stack = append(stack, frame{tokens: &grp.Tokens})
			i++
		case rest[0] == ']':
			if len(stack) == 1 {
				return nil, &CompileError{
					Pattern: raw,
					Reason:  UnbalancedBrackets,
					Detail:  fmt.Sprintf("unexpected %q at offset %d", "]", i),
				}
			}
			flush()
			stack = stack[:len(stack)-1]
			i++
		case rest[0] == '{':
			end := strings.IndexByte(rest, '}')
			if end < 0 {
				lit.WriteByte('{')
				i++
				break
			}
			name := rest[1:end]
			if part, ok := LookupPart(name); ok {
				emit(&PartRef{Part: part, Optional: len(stack) > 1})
				i += end + 1
				break
			}
			if isPartLike(name) {
				return nil, &CompileError{
					Pattern: raw,
					Reason:  UnknownPart,
					Detail:  fmt.Sprintf("%q", name),
				}
			}
			lit.WriteByte('{')
			i++
		default:
			if name := partPrefix(rest); name != "" {
				part, _ := LookupPart(name)
				emit(&PartRef{Part: part, Optional: len(stack) > 1})
				i += len(name)
				break
			}
			lit.WriteByte(rest[0])
			i++
		}
	}
	flush()
	if len(stack) != 1 {
		return nil, &CompileError{
			Pattern: raw,
			Reason:  UnbalancedBrackets,
			Detail:  fmt.Sprintf("%d unclosed %q", len(stack)-1, "["),
		}
	}
	return root, nil
}

// partPrefix returns the longest part name that str starts with, or "".
func partPrefix(str string) string {
	for _, name := range partNames {
		if strings.HasPrefix(str, name) {
			return name
		}
	}
	return ""
}

func isPartLike(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !(('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')) {
			return false
		}
	}
	return true
}

// walkParts calls fn for every part reference in the token tree, left to right.
func walkParts(tokens []Token, fn func(*PartRef)) {
	for _, tok := range tokens {
		switch tok := tok.(type) {
		case *PartRef:
			fn(tok)
		case *Group:
			walkParts(tok.Tokens, fn)
		}
	}
}

func checkParts(raw string, tokens []Token, strict bool) error {
	byField := make(map[Field]*Part)
	var dupErr error
	walkParts(tokens, func(ref *PartRef) {
		prev, ok := byField[ref.Part.Field]
		if !ok {
			byField[ref.Part.Field] = ref.Part
			return
		}
		if strict && dupErr == nil {
			dupErr = &CompileError{
				Pattern: raw,
				Reason:  DuplicateIncompatibleParts,
				Detail:  fmt.Sprintf("%s and %s both set the %s", prev.Name, ref.Part.Name, ref.Part.Field),
			}
		}
	})
	if dupErr != nil {
		return dupErr
	}
	for _, weekField := range []Field{FieldISOWeek, FieldWeekMonday, FieldWeekSunday} {
		week, hasWeek := byField[weekField]
		if !hasWeek {
			continue
		}
		for _, yearField := range yearFields {
			year, hasYear := byField[yearField]
			if hasYear && yearField != weekYears[weekField] {
				return &CompileError{
					Pattern: raw,
					Reason:  AmbiguousWeekYear,
					Detail:  fmt.Sprintf("%s may not be combined with %s", week.Name, year.Name),
				}
			}
		}
	}
	return nil
}

func newPattern(raw string, tokens []Token) (*Pattern, error) {
	pat := &Pattern{
		raw:    raw,
		tokens: tokens,
	}
	var body strings.Builder
	pat.writeRegexp(&body, tokens)
	var err error
	if pat.anchored, err = regexp.Compile(`^` + body.String() + `$`); err != nil {
		return nil, err
	}
	search := body.String()
	if startsWithWord(tokens) {
		search = `\b` + search
	}
	if pat.search, err = regexp.Compile(search); err != nil {
		return nil, err
	}
	return pat, nil
}

// startsWithWord returns whether every match of the tokens begins with a word character, in which
// case a search for them must not begin in the middle of a word.
func startsWithWord(tokens []Token) bool {
	if len(tokens) == 0 {
		return false
	}
	switch tok := tokens[0].(type) {
	case *Literal:
		c := tok.Text[0]
		return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
	case *PartRef:
		return true
	default:
		return false
	}
}

func (pat *Pattern) writeRegexp(w *strings.Builder, tokens []Token) {
	for _, tok := range tokens {
		switch tok := tok.(type) {
		case *Literal:
			w.WriteString(regexp.QuoteMeta(tok.Text))
		case *PartRef:
			pat.parts = append(pat.parts, tok.Part)
			w.WriteString("(" + tok.Part.Regexp + ")")
		case *Group:
			w.WriteString("(?:")
			pat.writeRegexp(w, tok.Tokens)
			w.WriteString(")?")
		}
	}
}

// String returns the pattern as it was written.
func (pat *Pattern) String() string {
	return pat.raw
}

// Regexp returns the anchored regular expression that Parse matches against.
func (pat *Pattern) Regexp() *regexp.Regexp {
	return pat.anchored
}

// Tokens returns the parsed token tree.
func (pat *Pattern) Tokens() []Token {
	return pat.tokens
}

// PEP440 returns the pattern for the PEP 440 normalized form of versions of this pattern.
func (pat *Pattern) PEP440() *Pattern {
	return pat.pep440
}

// Parts returns the parts used by the pattern, left to right.  A part that appears more than
// once in a template is returned once per appearance.
func (pat *Pattern) Parts() []*Part {
	ret := make([]*Part, len(pat.parts))
	copy(ret, pat.parts)
	return ret
}

// Has returns whether the pattern contains a part writing the given field.
func (pat *Pattern) Has(field Field) bool {
	for _, part := range pat.parts {
		if part.Field == field {
			return true
		}
	}
	return false
}

// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pattern

import (
	"fmt"
	"strings"
)

// MissingPartError is returned by Render when a part that must be rendered has no value.
type MissingPartError struct {
	Pattern string
	Part    string
}

func (e *MissingPartError) Error() string {
	return fmt.Sprintf("pattern %q: no value for %s", e.Pattern, e.Part)
}

// Render formats fields according to the pattern.  An optional group is emitted only if it
// contains no parts at all, or if at least one of its parts (including parts in nested groups)
// has a non-zero value; a part without a value counts as zero inside of a group.
func (pat *Pattern) Render(fields Fields) (string, error) {
	return pat.RenderKeeping(fields, nil)
}

// RenderKeeping is like Render, but an optional group is also emitted if keep reports true for
// one of its parts, whatever that part's value.  Rendering parsed Fields with fields.Has as keep
// reproduces the parsed text.
func (pat *Pattern) RenderKeeping(fields Fields, keep func(*Part) bool) (string, error) {
	var ret strings.Builder
	if err := pat.render(&ret, pat.tokens, fields, keep); err != nil {
		return "", err
	}
	return ret.String(), nil
}

func (pat *Pattern) render(w *strings.Builder, tokens []Token, fields Fields, keep func(*Part) bool) error {
	for _, tok := range tokens {
		switch tok := tok.(type) {
		case *Literal:
			w.WriteString(tok.Text)
		case *PartRef:
			val, ok := fields[tok.Part.Name]
			if !ok {
				return &MissingPartError{Pattern: pat.raw, Part: tok.Part.Name}
			}
			w.WriteString(val)
		case *Group:
			if !groupIsSet(tok, fields, keep) {
				continue
			}
			if err := pat.render(w, tok.Tokens, fields, keep); err != nil {
				return err
			}
		}
	}
	return nil
}

func groupIsSet(grp *Group, fields Fields, keep func(*Part) bool) bool {
	hasParts := false
	for _, tok := range grp.Tokens {
		switch tok := tok.(type) {
		case *PartRef:
			hasParts = true
			val, ok := fields[tok.Part.Name]
			if ok && (!tok.Part.IsZero(val) || (keep != nil && keep(tok.Part))) {
				return true
			}
		case *Group:
			if groupHasParts(tok) {
				hasParts = true
				if groupIsSet(tok, fields, keep) {
					return true
				}
			}
		}
	}
	return !hasParts
}

func groupHasParts(grp *Group) bool {
	found := false
	walkParts(grp.Tokens, func(*PartRef) { found = true })
	return found
}

// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pattern

import (
	"strings"
)

// derivePEP440 derives the pattern of the PEP 440 normalized form from the tokens of a version
// pattern.  It returns the derived pattern's text and tokens.
//
// A leading "v" is dropped, as are literal characters other than letters, digits, "." and "!".
// A zero-padded part that starts a dot-separated segment is replaced with its unpadded
// equivalent, and TAG is replaced with PYTAG.  Unless the pattern already ends its tag with
// "PYTAGNUM", the tag parts are moved to a trailing "[PYTAGNUM]" group.
func derivePEP440(tokens []Token) (string, []Token) {
	d := &pep440Deriver{}
	out := d.convert(tokens, true)
	if !strings.Contains(tokensString(out), "PYTAGNUM") {
		out = stripTagParts(out)
		pytag, _ := LookupPart("PYTAG")
		num, _ := LookupPart("NUM")
		out = append(out, &Group{Tokens: []Token{
			&PartRef{Part: pytag, Optional: true},
			&PartRef{Part: num, Optional: true},
		}})
	}
	return tokensString(out), out
}

type pep440Deriver struct {
	// last is the most recently emitted character, or 0 at the start of the pattern.
	last byte
}

func keepPEP440Char(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') ||
		r == '.' || r == '!'
}

func (d *pep440Deriver) convert(tokens []Token, top bool) []Token {
	var out []Token
	for i, tok := range tokens {
		switch tok := tok.(type) {
		case *Literal:
			text := tok.Text
			if top && i == 0 {
				text = strings.TrimPrefix(text, "v")
			}
			text = strings.Map(func(r rune) rune {
				if keepPEP440Char(r) {
					return r
				}
				return -1
			}, text)
			if text == "" {
				continue
			}
			out = append(out, &Literal{Text: text})
			d.last = text[len(text)-1]
		case *PartRef:
			part := tok.Part
			switch {
			case part.Name == "TAG":
				part, _ = LookupPart("PYTAG")
			case part.PEP440 != "" && (d.last == 0 || d.last == '.'):
				part, _ = LookupPart(part.PEP440)
			}
			out = append(out, &PartRef{Part: part, Optional: tok.Optional})
			d.last = part.Name[len(part.Name)-1]
		case *Group:
			d.last = '['
			out = append(out, &Group{Tokens: d.convert(tok.Tokens, false)})
			d.last = ']'
		}
	}
	return out
}

func stripTagParts(tokens []Token) []Token {
	var out []Token
	for _, tok := range tokens {
		switch tok := tok.(type) {
		case *PartRef:
			if tok.Part.Field == FieldTag || tok.Part.Field == FieldTagNum {
				continue
			}
			out = append(out, tok)
		case *Group:
			children := stripTagParts(tok.Tokens)
			if len(children) == 0 {
				continue
			}
			out = append(out, &Group{Tokens: children})
		default:
			out = append(out, tok)
		}
	}
	return out
}

// tokensString writes tokens back out in pattern syntax.
func tokensString(tokens []Token) string {
	var ret strings.Builder
	writeTokens(&ret, tokens)
	return ret.String()
}

func writeTokens(w *strings.Builder, tokens []Token) {
	for _, tok := range tokens {
		switch tok := tok.(type) {
		case *Literal:
			w.WriteString(strings.NewReplacer("[", `\[`, "]", `\]`).Replace(tok.Text))
		case *PartRef:
			w.WriteString(tok.Part.Name)
		case *Group:
			w.WriteString("[")
			writeTokens(w, tok.Tokens)
			w.WriteString("]")
		}
	}
}

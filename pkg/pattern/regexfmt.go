// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pattern

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const regex101URL = "https://regex101.com/?flavor=golang&regex="

// FormatRegexp returns a multi-line, indented rendering of the pattern's regular expression with
// each part annotated, for use in diagnostics.
func (pat *Pattern) FormatRegexp() string {
	var ret strings.Builder
	ret.WriteString("^\n")
	formatTokens(&ret, pat.tokens, 0)
	ret.WriteString("$\n")
	return ret.String()
}

func formatTokens(w *strings.Builder, tokens []Token, depth int) {
	indent := strings.Repeat("    ", depth)
	for _, tok := range tokens {
		switch tok := tok.(type) {
		case *Literal:
			fmt.Fprintf(w, "%s%s\n", indent, regexp.QuoteMeta(tok.Text))
		case *PartRef:
			fmt.Fprintf(w, "%s(%s)    # %s\n", indent, tok.Part.Regexp, tok.Part.Name)
		case *Group:
			fmt.Fprintf(w, "%s(?:\n", indent)
			formatTokens(w, tok.Tokens, depth+1)
			fmt.Fprintf(w, "%s)?\n", indent)
		}
	}
}

// Regex101URL returns a link that opens the pattern's regular expression in an online regex
// debugger.
func (pat *Pattern) Regex101URL() string {
	return regex101URL + url.QueryEscape(pat.anchored.String())
}

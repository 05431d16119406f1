package cliutil

import (
	"strings"
)

// Wrap the string `s` to a maximum width `w`.  Pass `w` == 0 to do no wrapping.
//
// In order to have some room for slop to avoid things like a short word being on a line by itself,
// most lines are actually wrapped to `w - 5`.
func Wrap(w int, s string) string {
	return wrap(0, w, s)
}

// Wrap the string `s` to a maximum width `w` with leading indent `i`.  The first line is not
// indented (this is assumed to be done by caller).  Pass `w` == 0 to do no wrapping
//
// In order to have some room for slop to avoid things like a short word being on a line by itself,
// most lines are actually wrapped to `w - 5`.
func WrapIndent(i, w int, s string) string {
	return wrap(i, w, s)
}

// wrapN splits the string `s` on whitespace into an initial substring up to `i` bytes in length
// and the remainder.  It will go `slop` over `i` if that encompasses the entire string, so that
// the final line does not end up with a short orphan word.
func wrapN(i, slop int, s string) (string, string) {
	if i+slop > len(s) {
		return s, ""
	}

	w := strings.LastIndexAny(s[:i], " \t\n")
	if w <= 0 {
		return s, ""
	}
	nlPos := strings.LastIndex(s[:i], "\n")
	if nlPos > 0 && nlPos < w {
		return s[:nlPos], s[nlPos+1:]
	}
	return s[:w], s[w+1:]
}

func wrap(i, w int, s string) string {
	if w == 0 {
		return strings.ReplaceAll(s, "\n", "\n"+strings.Repeat(" ", i))
	}

	// space between indent i and end of line width w into which we should wrap the text
	width := w - i

	var r string

	// Not enough space for sensible wrapping; wrap as a block on the next line instead.
	if width < 24 {
		i = 16
		width = w - i
		r += "\n" + strings.Repeat(" ", i)
	}
	// If still not enough space then don't even try to wrap.
	if width < 24 {
		return strings.ReplaceAll(s, "\n", r)
	}

	const slop = 5
	width -= slop

	indent := "\n" + strings.Repeat(" ", i)

	l, s := wrapN(width, slop, s)
	r += strings.ReplaceAll(l, "\n", indent)
	for s != "" {
		var t string
		t, s = wrapN(width, slop, s)
		r += indent + strings.ReplaceAll(t, "\n", indent)
	}
	return r
}

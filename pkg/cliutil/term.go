// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0
//
// TerminalWidth is based on
// https://github.com/telepresenceio/telepresence/blob/b6dfa04ff014915b47386191cc3d8b1352522fea/pkg/client/cli/command_group.go#L35-L63

package cliutil

import (
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// TerminalWidth returns the width that text written to w should be wrapped to, or 0 if it should
// not be wrapped.  $COLUMNS takes precedence over the size of the terminal.
func TerminalWidth(w io.Writer) int {
	if cols, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil {
		return cols
	}
	fd, ok := fileDescriptor(w)
	if !ok || !term.IsTerminal(fd) {
		return 0
	}
	if cols, _, err := term.GetSize(fd); err == nil {
		return cols
	}
	return 80
}

// GetTerminalWidth returns the width that help text written to stdout should be wrapped to.
func GetTerminalWidth() int {
	return TerminalWidth(os.Stdout)
}

func fileDescriptor(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok {
		return 0, false
	}
	return int(f.Fd()), true
}

const (
	ansiReset  = "\x1b[0m"
	ansiBright = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
)

// IsTerminal returns whether w is a terminal that understands color escapes.  Setting $NO_COLOR
// turns color off.
func IsTerminal(w io.Writer) bool {
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return false
	}
	fd, ok := fileDescriptor(w)
	return ok && term.IsTerminal(fd)
}

// ColorDiff colors the added and removed lines of a unified diff.
func ColorDiff(diff string) string {
	lines := strings.SplitAfter(diff, "\n")
	for i, line := range lines {
		body := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			lines[i] = ansiGreen + body + ansiReset + line[len(body):]
		case strings.HasPrefix(line, "-"):
			lines[i] = ansiRed + body + ansiReset + line[len(body):]
		}
	}
	return strings.Join(lines, "")
}

// Highlight makes text[start:end] bright.
func Highlight(text string, start, end int) string {
	return text[:start] + ansiBright + text[start:end] + ansiReset + text[end:]
}

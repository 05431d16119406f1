// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package rewrite updates the version strings in project files.
package rewrite

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/datawire/dlib/derror"
	"github.com/datawire/dlib/dlog"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/datawire/verbump/pkg/pattern"
	"github.com/datawire/verbump/pkg/version"
)

// FilePattern is a file and the templates that locate the version strings in it.
type FilePattern struct {
	Path      string
	Templates []string
}

// NoMatchError is returned when a template does not match anything in its file.
type NoMatchError struct {
	Path     string
	Template string
	// Search is the template instantiated with the old version, which was searched for.
	Search string
	// Regexp is the compiled matcher of the template.
	Regexp string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("%s: pattern %q did not match (searched for %q; regexp %s)",
		e.Path, e.Template, e.Search, e.Regexp)
}

// FileReport is the result of rewriting one file.
type FileReport struct {
	Path string
	// Matches is the number of lines changed by each template.
	Matches map[string]int

	mode       os.FileMode
	oldContent string
	newContent string
}

// Changed returns whether the file's content changed.
func (r *FileReport) Changed() bool {
	return r.oldContent != r.newContent
}

// Diff returns a unified diff of the change to the file.
func (r *FileReport) Diff() string {
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(r.oldContent),
		B:        difflib.SplitLines(r.newContent),
		FromFile: r.Path,
		ToFile:   r.Path,
		Context:  3,
	})
	return diff
}

// Report is the result of a rewrite.
type Report struct {
	Files []*FileReport
}

// Diff returns the concatenated diffs of every changed file.
func (r *Report) Diff() string {
	var ret strings.Builder
	for _, file := range r.Files {
		ret.WriteString(file.Diff())
	}
	return ret.String()
}

// Paths returns the paths of the files that changed.
func (r *Report) Paths() []string {
	var ret []string
	for _, file := range r.Files {
		if file.Changed() {
			ret = append(ret, file.Path)
		}
	}
	return ret
}

// detectLineSep returns the line separator used by content; "\r\n" wins over "\r", which wins
// over "\n".
func detectLineSep(content string) string {
	switch {
	case strings.Contains(content, "\r\n"):
		return "\r\n"
	case strings.Contains(content, "\r"):
		return "\r"
	default:
		return "\n"
	}
}

// replaceLine replaces every occurrence of the template in line whose text is exactly search.
// Occurrences are found with the template's regexp, so search is never matched as part of a
// longer version or number.
func replaceLine(tmpl *pattern.Pattern, line, search, replace string) (string, bool) {
	var ret strings.Builder
	last, found := 0, false
	for _, match := range tmpl.FindAll(line) {
		if match.Text != search {
			continue
		}
		ret.WriteString(line[last:match.Start])
		ret.WriteString(replace)
		last, found = match.End, true
	}
	if !found {
		return line, false
	}
	ret.WriteString(line[last:])
	return ret.String(), true
}

// rewriteContent applies every template to content.  The old version's instantiation of each
// template is searched for line by line, and replaced by the new version's.
func rewriteContent(
	verPat *pattern.Pattern,
	path, content string,
	templates []string,
	oldInfo, newInfo version.Info,
) (string, map[string]int, error) {
	sep := detectLineSep(content)
	lines := strings.Split(content, sep)
	matches := make(map[string]int, len(templates))

	var errs derror.MultiError
	for _, template := range templates {
		tmpl, err := pattern.CompileTemplate(verPat, template)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		search, err := version.Render(tmpl, oldInfo)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		replace, err := version.Render(tmpl, newInfo)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		for i, line := range lines {
			if newLine, ok := replaceLine(tmpl, line, search, replace); ok {
				lines[i] = newLine
				matches[template]++
			}
		}
		if matches[template] == 0 {
			errs = append(errs, &NoMatchError{
				Path:     path,
				Template: template,
				Search:   search,
				Regexp:   tmpl.Regexp().String(),
			})
		}
	}
	if len(errs) > 0 {
		return "", nil, errs
	}
	return strings.Join(lines, sep), matches, nil
}

// Rewrite replaces the old version with the new version in every file.  Every template must
// match at least once; if any does not, no file is written and the error lists every template
// that failed.  In dry-run mode nothing is written, and the Report's Diff shows what would have
// changed.
func Rewrite(
	ctx context.Context,
	verPat *pattern.Pattern,
	files []FilePattern,
	oldInfo, newInfo version.Info,
	dryRun bool,
) (*Report, error) {
	sorted := append([]FilePattern(nil), files...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Path < sorted[j].Path
	})

	report := new(Report)
	var errs derror.MultiError
	for _, file := range sorted {
		stat, err := os.Stat(file.Path)
		if err != nil {
			errs = append(errs, fmt.Errorf("rewrite.Rewrite: %w", err))
			continue
		}
		content, err := os.ReadFile(file.Path)
		if err != nil {
			errs = append(errs, fmt.Errorf("rewrite.Rewrite: %w", err))
			continue
		}
		newContent, matches, err := rewriteContent(verPat, file.Path, string(content), file.Templates,
			oldInfo, newInfo)
		if err != nil {
			var multi derror.MultiError
			if errors.As(err, &multi) {
				errs = append(errs, multi...)
			} else {
				errs = append(errs, err)
			}
			continue
		}
		report.Files = append(report.Files, &FileReport{
			Path:       file.Path,
			Matches:    matches,
			mode:       stat.Mode().Perm(),
			oldContent: string(content),
			newContent: newContent,
		})
	}
	if len(errs) > 0 {
		return nil, errs
	}

	for _, file := range report.Files {
		if !file.Changed() {
			continue
		}
		if dryRun {
			dlog.Infof(ctx, "would update %s", file.Path)
			continue
		}
		dlog.Infof(ctx, "updating %s", file.Path)
		if err := writeFile(file.Path, []byte(file.newContent), file.mode); err != nil {
			return nil, fmt.Errorf("rewrite.Rewrite: %w", err)
		}
	}
	return report, nil
}

// writeFile replaces the content of a file by way of a temporary file in the same directory.
func writeFile(path string, content []byte, mode os.FileMode) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err := bytes.NewReader(content).WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/boyter/gocodewalker"
	"github.com/datawire/dlib/dlog"

	"github.com/datawire/verbump/pkg/rewrite"
)

// expandFilePatterns expands the globs of the file_patterns setting.  A glob that matches nothing
// is kept as a plain path (so that the rewrite reports the missing file).  Templates for the
// same file from several globs are merged.
func expandFilePatterns(ctx context.Context, dir string, raw map[string][]string) ([]rewrite.FilePattern, error) {
	byPath := make(map[string][]string)
	for _, glob := range sortedKeys(raw) {
		paths, err := expandGlob(ctx, dir, glob)
		if err != nil {
			return nil, fmt.Errorf("file_patterns[%q]: %w", glob, err)
		}
		if len(paths) == 0 {
			dlog.Warnf(ctx, "invalid config, no such file: %s", glob)
			paths = []string{filepath.FromSlash(glob)}
		}
		for _, path := range paths {
			byPath[path] = append(byPath[path], raw[glob]...)
		}
	}
	ret := make([]rewrite.FilePattern, 0, len(byPath))
	for _, path := range sortedKeys(byPath) {
		ret = append(ret, rewrite.FilePattern{
			Path:      filepath.Join(dir, path),
			Templates: dedup(byPath[path]),
		})
	}
	return ret, nil
}

func dedup(list []string) []string {
	seen := make(map[string]bool, len(list))
	ret := list[:0:0]
	for _, item := range list {
		if !seen[item] {
			seen[item] = true
			ret = append(ret, item)
		}
	}
	return ret
}

// expandGlob returns the files matching glob, relative to dir.  A "**" path element matches any
// number of directories; such globs are matched by walking the tree, skipping files that
// .gitignore or .ignore exclude.
func expandGlob(ctx context.Context, dir, glob string) ([]string, error) {
	if !strings.ContainsAny(glob, "*?[") {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(glob))); err != nil {
			return nil, nil
		}
		return []string{filepath.FromSlash(glob)}, nil
	}
	if !strings.Contains(glob, "**") {
		matches, err := filepath.Glob(filepath.Join(dir, filepath.FromSlash(glob)))
		if err != nil {
			return nil, err
		}
		return relPaths(dir, matches)
	}

	re, err := globRegexp(glob)
	if err != nil {
		return nil, err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	fileListQueue := make(chan *gocodewalker.File, 100)
	fileWalker := gocodewalker.NewFileWalker(absDir, fileListQueue)
	var walkErr error
	fileWalker.SetErrorHandler(func(err error) bool {
		dlog.Warnf(ctx, "walking %s: %v", dir, err)
		if walkErr == nil {
			walkErr = err
		}
		return true
	})
	done := make(chan error, 1)
	go func() {
		done <- fileWalker.Start()
	}()

	var matches []string
	for f := range fileListQueue {
		rel, err := filepath.Rel(absDir, f.Location)
		if err != nil {
			continue
		}
		if re.MatchString(filepath.ToSlash(rel)) {
			matches = append(matches, rel)
		}
	}
	if err := <-done; err != nil {
		return nil, err
	}
	if walkErr != nil {
		return nil, walkErr
	}
	sort.Strings(matches)
	return matches, nil
}

func relPaths(dir string, paths []string) ([]string, error) {
	ret := make([]string, 0, len(paths))
	for _, path := range paths {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil, err
		}
		ret = append(ret, rel)
	}
	sort.Strings(ret)
	return ret, nil
}

// globRegexp translates a slash-separated glob with "**" elements into a regexp.
func globRegexp(glob string) (*regexp.Regexp, error) {
	var re strings.Builder
	re.WriteString("^")
	for i := 0; i < len(glob); {
		switch {
		case strings.HasPrefix(glob[i:], "**/"):
			re.WriteString("(?:.*/)?")
			i += 3
		case strings.HasPrefix(glob[i:], "**"):
			re.WriteString(".*")
			i += 2
		case glob[i] == '*':
			re.WriteString("[^/]*")
			i++
		case glob[i] == '?':
			re.WriteString("[^/]")
			i++
		case glob[i] == '[':
			end := strings.IndexByte(glob[i:], ']')
			if end < 0 {
				return nil, filepath.ErrBadPattern
			}
			class := glob[i+1 : i+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			re.WriteString("[" + class + "]")
			i += end + 1
		default:
			re.WriteString(regexp.QuoteMeta(glob[i : i+1]))
			i++
		}
	}
	re.WriteString("$")
	return regexp.Compile(re.String())
}

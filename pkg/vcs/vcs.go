// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package vcs drives the version control system of a project (git or mercurial) by running its
// command-line tool.  Where the two differ in terminology, git's terms are used.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/datawire/dlib/dexec"
	"github.com/datawire/dlib/dlog"
)

// ErrNotFound is returned by Detect when the directory is not managed by a supported VCS.
var ErrNotFound = errors.New("no such directory .git/ or .hg/")

// TagScope selects which tags are candidates for the current version.
type TagScope string

const (
	// TagScopeDefault is the same as TagScopeGlobal.
	TagScopeDefault TagScope = "default"
	// TagScopeGlobal considers every tag in the repository.
	TagScopeGlobal TagScope = "global"
	// TagScopeBranch considers only tags reachable from the current commit.
	TagScopeBranch TagScope = "branch"
)

// ParseTagScope validates a tag_scope setting.
func ParseTagScope(str string) (TagScope, error) {
	switch scope := TagScope(str); scope {
	case TagScopeDefault, TagScopeGlobal, TagScopeBranch:
		return scope, nil
	case "":
		return TagScopeDefault, nil
	default:
		return "", fmt.Errorf("invalid tag_scope %q: must be one of %q, %q, or %q",
			str, TagScopeDefault, TagScopeGlobal, TagScopeBranch)
	}
}

// VCS is a version control system.
type VCS interface {
	Name() string
	// FetchTags pulls tags from the default remote, if there is one.
	FetchTags(ctx context.Context) error
	ListTags(ctx context.Context, scope TagScope) ([]string, error)
	// DirtyFiles returns the files with uncommitted changes.  Untracked files are only
	// included if they are among the required files.
	DirtyFiles(ctx context.Context, required []string) ([]string, error)
	// Commit adds the files and commits them.
	Commit(ctx context.Context, files []string, message string) error
	CreateTag(ctx context.Context, name, message string) error
	// Push pushes the current branch, and the tag if it is not empty, to the default remote.
	Push(ctx context.Context, tag string) error
}

type detectable interface {
	VCS
	usable(ctx context.Context) error
}

// Detect returns the VCS that manages dir.
func Detect(ctx context.Context, dir string) (VCS, error) {
	candidates := []struct {
		marker string
		vcs    detectable
	}{
		{".git", NewGit(dir)},
		{".hg", NewMercurial(dir)},
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(filepath.Join(dir, candidate.marker)); err != nil {
			continue
		}
		if err := candidate.vcs.usable(ctx); err != nil {
			dlog.Debugf(ctx, "%s: not usable: %v", candidate.vcs.Name(), err)
			continue
		}
		dlog.Debugf(ctx, "vcs found: %s", candidate.vcs.Name())
		return candidate.vcs, nil
	}
	return nil, ErrNotFound
}

// runner runs the commands of one VCS tool inside of the project directory.
type runner struct {
	exe string
	dir string
}

func (r runner) output(ctx context.Context, env []string, args ...string) (string, error) {
	cmd := dexec.CommandContext(ctx, r.exe, args...)
	cmd.Dir = r.dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	bs, err := cmd.Output()
	if err != nil {
		var exitErr *dexec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			err = fmt.Errorf("%w:\n > %s", err,
				strings.Join(strings.Split(strings.TrimRight(string(exitErr.Stderr), "\n"), "\n"), "\n > "))
		}
		return "", fmt.Errorf("%s %s: %w", r.exe, strings.Join(args, " "), err)
	}
	return string(bs), nil
}

func (r runner) run(ctx context.Context, args ...string) error {
	_, err := r.output(ctx, nil, args...)
	return err
}

func nonEmptyLines(str string) []string {
	var ret []string
	for _, line := range strings.Split(str, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			ret = append(ret, line)
		}
	}
	return ret
}

// filterStatus interprets the lines of a "status" command, each of which is a status code
// followed by a path.
func filterStatus(lines []string, untracked string, required []string) []string {
	isRequired := make(map[string]bool, len(required))
	for _, path := range required {
		isRequired[filepath.ToSlash(filepath.Clean(path))] = true
	}
	var ret []string
	for _, line := range lines {
		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			continue
		}
		status, path := fields[0], strings.TrimSpace(fields[1])
		if status == untracked && !isRequired[path] {
			continue
		}
		ret = append(ret, path)
	}
	return ret
}

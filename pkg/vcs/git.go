// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package vcs

import (
	"context"
	"strings"

	"github.com/datawire/dlib/dlog"
)

// Git drives git(1).
type Git struct {
	runner
}

// NewGit returns a Git for the repository that contains dir.
func NewGit(dir string) *Git {
	return &Git{runner{exe: "git", dir: dir}}
}

func (*Git) Name() string { return "git" }

func (g *Git) usable(ctx context.Context) error {
	return g.run(ctx, "rev-parse", "--git-dir")
}

func (g *Git) hasRemote(ctx context.Context) bool {
	out, err := g.output(ctx, nil, "config", "--get", "remote.origin.url")
	return err == nil && strings.TrimSpace(out) != ""
}

func (g *Git) FetchTags(ctx context.Context) error {
	if !g.hasRemote(ctx) {
		dlog.Debugln(ctx, "git: no remote, not fetching")
		return nil
	}
	return g.run(ctx, "fetch", "--tags")
}

func (g *Git) ListTags(ctx context.Context, scope TagScope) ([]string, error) {
	args := []string{"tag", "--list"}
	if scope == TagScopeBranch {
		args = append(args, "--merged", "HEAD")
	}
	out, err := g.output(ctx, nil, args...)
	if err != nil {
		return nil, err
	}
	return nonEmptyLines(out), nil
}

func (g *Git) DirtyFiles(ctx context.Context, required []string) ([]string, error) {
	out, err := g.output(ctx, nil, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	// Porcelain lines are "XY path"; fold the two status columns into one word.
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		lines = append(lines, strings.ReplaceAll(line[:2], " ", "")+" "+line[3:])
	}
	return filterStatus(lines, "??", required), nil
}

func (g *Git) Commit(ctx context.Context, files []string, message string) error {
	if len(files) > 0 {
		if err := g.run(ctx, append([]string{"add", "--"}, files...)...); err != nil {
			return err
		}
	}
	return g.run(ctx, "commit", "--message", message)
}

func (g *Git) CreateTag(ctx context.Context, name, message string) error {
	return g.run(ctx, "tag", "--annotate", name, "--message", message)
}

func (g *Git) Push(ctx context.Context, tag string) error {
	if !g.hasRemote(ctx) {
		dlog.Warnln(ctx, "git: no remote, not pushing")
		return nil
	}
	args := []string{"push", "origin", "--follow-tags"}
	if tag != "" {
		args = append(args, tag)
	}
	return g.run(ctx, append(args, "HEAD")...)
}

// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package vcs

import (
	"context"
	"os"
	"strings"

	"github.com/datawire/dlib/dlog"
)

// Mercurial drives hg(1).
type Mercurial struct {
	runner
}

// NewMercurial returns a Mercurial for the repository that contains dir.
func NewMercurial(dir string) *Mercurial {
	return &Mercurial{runner{exe: "hg", dir: dir}}
}

func (*Mercurial) Name() string { return "hg" }

func (h *Mercurial) usable(ctx context.Context) error {
	return h.run(ctx, "root")
}

func (h *Mercurial) hasRemote(ctx context.Context) bool {
	out, err := h.output(ctx, nil, "paths")
	return err == nil && strings.TrimSpace(out) != ""
}

func (h *Mercurial) FetchTags(ctx context.Context) error {
	if !h.hasRemote(ctx) {
		dlog.Debugln(ctx, "hg: no remote, not pulling")
		return nil
	}
	return h.run(ctx, "pull")
}

// ListTags lists the tags of the repository.  Mercurial tags are always global, so every scope
// lists the same tags.
func (h *Mercurial) ListTags(ctx context.Context, scope TagScope) ([]string, error) {
	if scope == TagScopeBranch {
		dlog.Debugln(ctx, "hg: tag_scope=branch is not supported, listing all tags")
	}
	out, err := h.output(ctx, nil, "tags")
	if err != nil {
		return nil, err
	}
	var tags []string
	for _, line := range nonEmptyLines(out) {
		name := strings.Fields(line)[0]
		if name == "tip" {
			continue
		}
		tags = append(tags, name)
	}
	return tags, nil
}

func (h *Mercurial) DirtyFiles(ctx context.Context, required []string) ([]string, error) {
	out, err := h.output(ctx, nil, "status", "-umard")
	if err != nil {
		return nil, err
	}
	return filterStatus(nonEmptyLines(out), "?", required), nil
}

func (h *Mercurial) Commit(ctx context.Context, files []string, message string) error {
	for _, file := range files {
		if _, err := h.output(ctx, nil, "add", file); err != nil && !strings.Contains(err.Error(), "already tracked") {
			return err
		}
	}

	logfile, err := os.CreateTemp("", "verbump-hg-commit.")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(logfile.Name()) }()
	if _, err := logfile.WriteString(message); err != nil {
		_ = logfile.Close()
		return err
	}
	if err := logfile.Close(); err != nil {
		return err
	}
	_, err = h.output(ctx, []string{"HGENCODING=utf-8"}, "commit", "--logfile", logfile.Name())
	return err
}

func (h *Mercurial) CreateTag(ctx context.Context, name, message string) error {
	return h.run(ctx, "tag", name, "--message", message)
}

func (h *Mercurial) Push(ctx context.Context, _ string) error {
	if !h.hasRemote(ctx) {
		dlog.Warnln(ctx, "hg: no remote, not pushing")
		return nil
	}
	return h.run(ctx, "push")
}

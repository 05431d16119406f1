// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package bump runs a release: it works out the current version, computes the next one,
// rewrites the project's files, and commits, tags and pushes the result.
package bump

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/datawire/dlib/dlog"

	"github.com/datawire/verbump/pkg/config"
	"github.com/datawire/verbump/pkg/hooks"
	"github.com/datawire/verbump/pkg/reproducible"
	"github.com/datawire/verbump/pkg/rewrite"
	"github.com/datawire/verbump/pkg/vcs"
	"github.com/datawire/verbump/pkg/version"
)

// ErrDirty is returned when the working tree has uncommitted changes.
var ErrDirty = errors.New("working directory is not clean")

// Session is one run of verbump against a project.
type Session struct {
	Config *config.Config
	// VCS is nil if the project is not under version control.
	VCS vcs.VCS

	// RunHook runs a hook script; it is hooks.Run unless replaced.
	RunHook func(ctx context.Context, path, oldVersion, newVersion string) error
}

// NewSession returns a Session for the configured project, detecting its VCS.
func NewSession(ctx context.Context, cfg *config.Config) (*Session, error) {
	sess := &Session{
		Config:  cfg,
		RunHook: hooks.Run,
	}
	repo, err := vcs.Detect(ctx, cfg.Project.Dir)
	switch {
	case err == nil:
		sess.VCS = repo
	case errors.Is(err, vcs.ErrNotFound):
		dlog.Debugln(ctx, "no vcs found")
	default:
		return nil, err
	}
	return sess, nil
}

// Current is the current version of a project.
type Current struct {
	Version string
	PEP440  string
	Info    version.Info
	// FromTag is set if the version came from a VCS tag that is newer than the configured
	// current_version.
	FromTag bool
	// Configured is the configured current_version, which is what the project's files hold.
	Configured version.Info
}

// Current works out the current version: the configured current_version, unless the VCS has a
// tag for a newer version.
func (s *Session) Current(ctx context.Context, fetch bool) (*Current, error) {
	pat := s.Config.VersionPattern
	info, err := version.Parse(pat, s.Config.CurrentVersion)
	if err != nil {
		return nil, err
	}
	cur := &Current{
		Version:    s.Config.CurrentVersion,
		PEP440:     s.Config.PEP440Version,
		Info:       info,
		Configured: info,
	}
	if s.VCS == nil {
		return cur, nil
	}

	if fetch {
		dlog.Infoln(ctx, "fetching tags from remote (to turn off use: --no-fetch)")
		if err := s.VCS.FetchTags(ctx); err != nil {
			return nil, err
		}
	}
	tags, err := s.VCS.ListTags(ctx, s.Config.TagScope)
	if err != nil {
		return nil, err
	}
	latest, latestInfo, ok := version.Latest(pat, tags)
	if !ok {
		dlog.Debugln(ctx, "no version tags found")
		return cur, nil
	}
	cmp, err := version.Compare(pat, latestInfo, info)
	if err != nil {
		return nil, err
	}
	if cmp <= 0 {
		return cur, nil
	}
	dlog.Infof(ctx, "working dir version        : %s", cur.Version)
	dlog.Infof(ctx, "latest version from VCS tag: %s", latest)
	pep440, err := version.RenderPEP440(pat, latestInfo)
	if err != nil {
		return nil, err
	}
	return &Current{
		Version:    latest,
		PEP440:     pep440,
		Info:       latestInfo,
		FromTag:    true,
		Configured: info,
	}, nil
}

// Options are the settings of an Update.
type Options struct {
	Directive version.Directive
	Fetch     bool
	DryRun    bool
	// AllowDirty permits uncommitted changes, except to the files being rewritten.
	AllowDirty bool
	// CommitMessage overrides the configured commit message template.  In it, the words OLD
	// and NEW stand for {OLD_VERSION} and {NEW_VERSION}.
	CommitMessage string
}

// Result is what an Update did (or, for a dry run, would have done).
type Result struct {
	OldVersion string
	NewVersion string
	OldPEP440  string
	NewPEP440  string

	CommitMessage string
	TagMessage    string

	Report *rewrite.Report
}

// Update releases the next version.  The steps, each of which aborts the update on error, are:
// fetch tags, list tags, compute the next version, check for uncommitted changes, rewrite the
// files, run the pre-commit hook, commit, tag, push, and run the post-commit hook.
func (s *Session) Update(ctx context.Context, opts Options) (*Result, error) {
	cfg := s.Config
	pat := cfg.VersionPattern

	cur, err := s.Current(ctx, opts.Fetch)
	if err != nil {
		return nil, err
	}

	dir := opts.Directive
	if dir.Date.IsZero() && !dir.PinDate {
		dir.Date = reproducible.Today()
	}
	next, err := version.Increment(ctx, pat, cur.Info, dir)
	if err != nil {
		return nil, err
	}
	if err := version.CheckGreater(pat, cur.Info, next); err != nil {
		return nil, err
	}

	res := &Result{
		OldVersion: cur.Version,
		OldPEP440:  cur.PEP440,
	}
	if res.NewVersion, err = version.Render(pat, next); err != nil {
		return nil, err
	}
	if res.NewPEP440, err = version.RenderPEP440(pat, next); err != nil {
		return nil, err
	}
	dlog.Infof(ctx, "old version: %s", res.OldVersion)
	dlog.Infof(ctx, "new version: %s", res.NewVersion)

	msgTemplate := cfg.CommitMessage
	if opts.CommitMessage != "" {
		msgTemplate = ExpandShorthand(opts.CommitMessage)
	}
	vars := res.vars()
	res.CommitMessage = FormatMessage(msgTemplate, vars)
	res.TagMessage = FormatMessage(cfg.TagMessage, vars)

	repo := s.VCS
	if repo == nil && cfg.Commit {
		dlog.Warnln(ctx, "version control system not found, skipping commit")
	}
	if !cfg.Commit {
		repo = nil
	}

	if !opts.DryRun && repo != nil {
		if err := s.checkDirty(ctx, repo, opts.AllowDirty); err != nil {
			return nil, err
		}
	}

	if res.Report, err = rewrite.Rewrite(ctx, pat, cfg.FilePatterns, cur.Configured, next, opts.DryRun); err != nil {
		return nil, err
	}
	if opts.DryRun {
		return res, nil
	}

	if err := s.runHook(ctx, cfg.PreCommitHook, res); err != nil {
		return nil, err
	}
	if repo != nil {
		files, err := s.relPaths(res.Report.Paths())
		if err != nil {
			return nil, err
		}
		if err := repo.Commit(ctx, files, res.CommitMessage); err != nil {
			return nil, err
		}
		tag := ""
		if cfg.Tag {
			tag = res.NewVersion
			if err := repo.CreateTag(ctx, tag, res.TagMessage); err != nil {
				return nil, err
			}
		}
		if cfg.Push {
			if err := repo.Push(ctx, tag); err != nil {
				return nil, err
			}
		}
	}
	if err := s.runHook(ctx, cfg.PostCommitHook, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Session) runHook(ctx context.Context, hook string, res *Result) error {
	if hook == "" {
		return nil
	}
	return s.RunHook(ctx, s.Config.HookPath(hook), res.OldVersion, res.NewVersion)
}

func (s *Session) relPaths(paths []string) ([]string, error) {
	ret := make([]string, 0, len(paths))
	for _, path := range paths {
		rel, err := filepath.Rel(s.Config.Project.Dir, path)
		if err != nil {
			return nil, err
		}
		ret = append(ret, filepath.ToSlash(rel))
	}
	return ret, nil
}

func (s *Session) checkDirty(ctx context.Context, repo vcs.VCS, allowDirty bool) error {
	targets, err := s.relPaths(s.Config.Paths())
	if err != nil {
		return err
	}
	dirty, err := repo.DirtyFiles(ctx, targets)
	if err != nil {
		return err
	}
	if len(dirty) == 0 {
		return nil
	}
	dlog.Warnf(ctx, "%s working directory is not clean; uncommitted file(s):", repo.Name())
	for _, file := range dirty {
		dlog.Warnf(ctx, "    %s", file)
	}
	if !allowDirty {
		return fmt.Errorf("%w (use --allow-dirty to override)", ErrDirty)
	}

	isTarget := make(map[string]bool, len(targets))
	for _, target := range targets {
		isTarget[target] = true
	}
	var dirtyTargets []string
	for _, file := range dirty {
		if isTarget[file] {
			dirtyTargets = append(dirtyTargets, file)
		}
	}
	if len(dirtyTargets) > 0 {
		return fmt.Errorf("%w: not committing when files with version strings are dirty: %s",
			ErrDirty, strings.Join(dirtyTargets, ", "))
	}
	return nil
}

func (res *Result) vars() map[string]string {
	return map[string]string{
		"new_version":        res.NewVersion,
		"old_version":        res.OldVersion,
		"NEW_VERSION":        res.NewVersion,
		"OLD_VERSION":        res.OldVersion,
		"new_version_pep440": res.NewPEP440,
		"old_version_pep440": res.OldPEP440,
	}
}

var reShorthand = regexp.MustCompile(`\b(OLD|NEW)\b`)

// ExpandShorthand replaces the words OLD and NEW in a commit message given on the command line
// with the {OLD_VERSION} and {NEW_VERSION} placeholders.
func ExpandShorthand(msg string) string {
	return reShorthand.ReplaceAllString(msg, "{${1}_VERSION}")
}

// FormatMessage substitutes "{name}" placeholders; "{{" and "}}" are literal braces.  Unknown
// placeholders are left alone.
func FormatMessage(tmpl string, vars map[string]string) string {
	oldnew := []string{"{{", "{", "}}", "}"}
	for name, val := range vars {
		oldnew = append(oldnew, "{"+name+"}", val)
	}
	return strings.NewReplacer(oldnew...).Replace(tmpl)
}

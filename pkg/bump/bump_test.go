// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package bump_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/datawire/dlib/dlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/verbump/pkg/bump"
	"github.com/datawire/verbump/pkg/config"
	"github.com/datawire/verbump/pkg/testutil"
	"github.com/datawire/verbump/pkg/vcs"
	"github.com/datawire/verbump/pkg/version"
)

// fakeVCS records the operations performed on it.
type fakeVCS struct {
	tags  []string
	dirty []string
	log   []string
}

func (f *fakeVCS) Name() string { return "fake" }

func (f *fakeVCS) FetchTags(_ context.Context) error {
	f.log = append(f.log, "fetch")
	return nil
}

func (f *fakeVCS) ListTags(_ context.Context, scope vcs.TagScope) ([]string, error) {
	f.log = append(f.log, "list "+string(scope))
	return f.tags, nil
}

func (f *fakeVCS) DirtyFiles(_ context.Context, required []string) ([]string, error) {
	f.log = append(f.log, "status "+strings.Join(required, ","))
	return f.dirty, nil
}

func (f *fakeVCS) Commit(_ context.Context, files []string, message string) error {
	f.log = append(f.log, fmt.Sprintf("commit %s %q", strings.Join(files, ","), message))
	return nil
}

func (f *fakeVCS) CreateTag(_ context.Context, name, message string) error {
	f.log = append(f.log, fmt.Sprintf("tag %s %q", name, message))
	f.tags = append(f.tags, name)
	return nil
}

func (f *fakeVCS) Push(_ context.Context, tag string) error {
	f.log = append(f.log, "push "+tag)
	return nil
}

const projectConfig = `[verbump]
current_version = "v2020.1001-alpha"
version_pattern = "vYYYY.BUILD[-TAG]"
commit_message = "bump {old_version} -> {new_version} ({new_version_pep440})"
tag_message = "release {new_version}"
commit = true
tag = true
push = true

[verbump.file_patterns]
"src/version.py" = ['__version__ = "{pep440_version}"']
"README.md" = ["{version}"]
`

func newProject(ctx context.Context, t *testing.T, cfgText string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"verbump.toml":   cfgText,
		"src/version.py": "__version__ = \"2020.1001a0\"\n",
		"README.md":      "# Example v2020.1001-alpha\n",
	} {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	cfg, err := config.Load(ctx, dir)
	require.NoError(t, err)
	return cfg
}

func readFile(t *testing.T, cfg *config.Config, name string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(cfg.Project.Dir, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(content)
}

var releaseDate = time.Date(2021, time.January, 15, 0, 0, 0, 0, time.UTC)

func TestUpdate(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, true)
	cfg := newProject(ctx, t, projectConfig)
	repo := &fakeVCS{tags: []string{"v2019.1000", "unrelated"}}
	var hookCalls []string
	sess := &bump.Session{
		Config: cfg,
		VCS:    repo,
		RunHook: func(_ context.Context, path, oldVersion, newVersion string) error {
			hookCalls = append(hookCalls, path+" "+oldVersion+" "+newVersion)
			return nil
		},
	}

	res, err := sess.Update(ctx, bump.Options{
		Directive: version.Directive{Tag: "final", Date: releaseDate},
		Fetch:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, "v2020.1001-alpha", res.OldVersion)
	assert.Equal(t, "v2021.1000", res.NewVersion)
	assert.Equal(t, "2020.1001a0", res.OldPEP440)
	assert.Equal(t, "2021.1000", res.NewPEP440)
	assert.Equal(t, "bump v2020.1001-alpha -> v2021.1000 (2021.1000)", res.CommitMessage)
	assert.Equal(t, "release v2021.1000", res.TagMessage)

	assert.Equal(t, "__version__ = \"2021.1000\"\n", readFile(t, cfg, "src/version.py"))
	assert.Equal(t, "# Example v2021.1000\n", readFile(t, cfg, "README.md"))
	assert.Contains(t, readFile(t, cfg, "verbump.toml"), `current_version = "v2021.1000"`)

	assert.Equal(t, []string{
		"fetch",
		"list default",
		"status README.md,src/version.py,verbump.toml",
		`commit README.md,src/version.py,verbump.toml "bump v2020.1001-alpha -> v2021.1000 (2021.1000)"`,
		`tag v2021.1000 "release v2021.1000"`,
		"push v2021.1000",
	}, repo.log)
	assert.Empty(t, hookCalls)
}

func TestUpdateDryRun(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, true)
	cfg := newProject(ctx, t, projectConfig)
	repo := &fakeVCS{dirty: []string{"README.md"}}
	sess := &bump.Session{Config: cfg, VCS: repo}

	res, err := sess.Update(ctx, bump.Options{
		Directive: version.Directive{Date: releaseDate},
		DryRun:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "v2021.1000-alpha", res.NewVersion)
	assert.Equal(t, []string{"list default"}, repo.log)

	assert.Equal(t, "# Example v2020.1001-alpha\n", readFile(t, cfg, "README.md"))
	diff := res.Report.Diff()
	assert.Contains(t, diff, "-# Example v2020.1001-alpha\n+# Example v2021.1000-alpha\n")
	assert.Contains(t, diff, "-__version__ = \"2020.1001a0\"\n+__version__ = \"2021.1000a0\"\n")
}

func TestUpdateFromTag(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, true)
	cfg := newProject(ctx, t, strings.Replace(projectConfig, "commit = true\ntag = true\npush = true\n", "", 1))
	require.False(t, cfg.Commit)
	// v2020.1002-beta was tagged elsewhere; the files still hold the configured v2020.1001-alpha
	repo := &fakeVCS{tags: []string{"v2020.1001-alpha", "v2020.1002-beta"}}
	sess := &bump.Session{Config: cfg, VCS: repo}

	cur, err := sess.Current(ctx, false)
	require.NoError(t, err)
	assert.True(t, cur.FromTag)
	assert.Equal(t, "v2020.1002-beta", cur.Version)
	assert.Equal(t, "2020.1002b0", cur.PEP440)

	res, err := sess.Update(ctx, bump.Options{
		Directive: version.Directive{PinDate: true, Tag: "rc"},
	})
	require.NoError(t, err)
	assert.Equal(t, "v2020.1002-beta", res.OldVersion)
	assert.Equal(t, "v2020.1003-rc", res.NewVersion)
	assert.Equal(t, "# Example v2020.1003-rc\n", readFile(t, cfg, "README.md"))
	assert.Equal(t, "__version__ = \"2020.1003rc0\"\n", readFile(t, cfg, "src/version.py"))
	assert.Contains(t, readFile(t, cfg, "verbump.toml"), `current_version = "v2020.1003-rc"`)
	// once for Current, once for Update; nothing is committed
	assert.Equal(t, []string{"list default", "list default"}, repo.log)
}

func TestUpdateHooks(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, true)
	cfgText := strings.Replace(projectConfig, "[verbump.file_patterns]",
		"pre_commit_hook = \"pre.sh\"\npost_commit_hook = \"post.sh\"\n\n[verbump.file_patterns]", 1)
	dir := t.TempDir()
	for _, name := range []string{"pre.sh", "post.sh"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), 0o755))
	}
	for name, content := range map[string]string{
		"verbump.toml":   cfgText,
		"src/version.py": "__version__ = \"2020.1001a0\"\n",
		"README.md":      "# Example v2020.1001-alpha\n",
	} {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	cfg, err := config.Load(ctx, dir)
	require.NoError(t, err)

	repo := &fakeVCS{}
	sess := &bump.Session{
		Config: cfg,
		VCS:    repo,
		RunHook: func(_ context.Context, path, oldVersion, newVersion string) error {
			repo.log = append(repo.log, "hook "+filepath.Base(path)+" "+oldVersion+" "+newVersion)
			return nil
		},
	}
	_, err = sess.Update(ctx, bump.Options{Directive: version.Directive{Date: releaseDate}})
	require.NoError(t, err)
	require.Len(t, repo.log, 7)
	assert.Equal(t, "hook pre.sh v2020.1001-alpha v2021.1000-alpha", repo.log[2])
	assert.True(t, strings.HasPrefix(repo.log[3], "commit "))
	assert.Equal(t, "push v2021.1000-alpha", repo.log[5])
	assert.Equal(t, "hook post.sh v2020.1001-alpha v2021.1000-alpha", repo.log[6])
}

func TestUpdateDirty(t *testing.T) {
	t.Parallel()
	testcases := map[string]struct {
		Dirty      []string
		AllowDirty bool
		Error      string
	}{
		"clean":             {nil, false, ""},
		"dirty":             {[]string{"notes.txt"}, false, "working directory is not clean (use --allow-dirty to override)"},
		"allowed":           {[]string{"notes.txt"}, true, ""},
		"dirty-target":      {[]string{"README.md"}, true, "working directory is not clean: not committing when files with version strings are dirty: README.md"},
		"dirty-target-deny": {[]string{"README.md"}, false, "working directory is not clean (use --allow-dirty to override)"},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			ctx := dlog.NewTestContext(t, true)
			cfg := newProject(ctx, t, projectConfig)
			repo := &fakeVCS{dirty: tc.Dirty}
			sess := &bump.Session{Config: cfg, VCS: repo}
			_, err := sess.Update(ctx, bump.Options{
				Directive:  version.Directive{Date: releaseDate},
				AllowDirty: tc.AllowDirty,
			})
			if tc.Error == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tc.Error)
			assert.ErrorIs(t, err, bump.ErrDirty)
			assert.Equal(t, "# Example v2020.1001-alpha\n", readFile(t, cfg, "README.md"))
		})
	}
}

func TestUpdateErrors(t *testing.T) {
	t.Parallel()
	testcases := map[string]struct {
		Directive version.Directive
		Reason    version.IncrementErrorReason
	}{
		"no-change":   {version.Directive{SetVersion: "v2020.1001-alpha"}, version.NoChange},
		"no-major":    {version.Directive{PinDate: true, Major: true}, version.InvalidFlagForPattern},
		"set-version": {version.Directive{SetVersion: "v2019.1005"}, version.NotGreater},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			ctx := dlog.NewTestContext(t, true)
			cfg := newProject(ctx, t, projectConfig)
			repo := &fakeVCS{}
			sess := &bump.Session{Config: cfg, VCS: repo}
			_, err := sess.Update(ctx, bump.Options{Directive: tc.Directive})
			var incrErr *version.IncrementError
			require.True(t, errors.As(err, &incrErr), "%v", err)
			assert.Equal(t, tc.Reason, incrErr.Reason)
			assert.Equal(t, []string{"list default"}, repo.log)
		})
	}
}

func TestUpdateNoMatch(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, true)
	cfg := newProject(ctx, t, projectConfig)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Project.Dir, "README.md"), []byte("# Example\n"), 0o644))
	repo := &fakeVCS{}
	sess := &bump.Session{Config: cfg, VCS: repo}
	_, err := sess.Update(ctx, bump.Options{Directive: version.Directive{Date: releaseDate}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not match")
	// nothing was written or committed
	assert.Equal(t, "__version__ = \"2020.1001a0\"\n", readFile(t, cfg, "src/version.py"))
	assert.Len(t, repo.log, 2)
}

func TestFormatMessage(t *testing.T) {
	t.Parallel()
	vars := map[string]string{
		"new_version":        "v2.0",
		"old_version":        "v1.0",
		"NEW_VERSION":        "v2.0",
		"OLD_VERSION":        "v1.0",
		"new_version_pep440": "2.0",
	}
	testcases := map[string]struct {
		Template string
		Output   string
	}{
		"basic":       {"bump version to {new_version}", "bump version to v2.0"},
		"both":        {"{old_version} -> {new_version_pep440}", "v1.0 -> 2.0"},
		"escaped":     {"{{new_version}} is {new_version}", "{new_version} is v2.0"},
		"unknown":     {"{unknown} {new_version}", "{unknown} v2.0"},
		"shorthand":   {bump.ExpandShorthand("release OLD -> NEW"), "release v1.0 -> v2.0"},
		"not-a-word":  {bump.ExpandShorthand("NEWS for OLDER"), "NEWS for OLDER"},
		"placeholder": {bump.ExpandShorthand("{NEW_VERSION}"), "v2.0"},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			testutil.AssertEqualText(t, tc.Output, bump.FormatMessage(tc.Template, vars))
		})
	}
}

// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package vcs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/datawire/dlib/dexec"
	"github.com/datawire/dlib/dlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTagScope(t *testing.T) {
	t.Parallel()
	testcases := map[string]struct {
		Input  string
		Output TagScope
		Error  bool
	}{
		"empty":   {"", TagScopeDefault, false},
		"default": {"default", TagScopeDefault, false},
		"global":  {"global", TagScopeGlobal, false},
		"branch":  {"branch", TagScopeBranch, false},
		"bogus":   {"local", "", true},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			scope, err := ParseTagScope(tc.Input)
			if tc.Error {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.Output, scope)
		})
	}
}

func TestFilterStatus(t *testing.T) {
	t.Parallel()
	lines := []string{
		"M setup.cfg",
		"?? notes.txt",
		"?? src/version.py",
		"A README.md",
	}
	assert.Equal(t,
		[]string{"setup.cfg", "src/version.py", "README.md"},
		filterStatus(lines, "??", []string{"./src/version.py"}))
	assert.Equal(t,
		[]string{"setup.cfg", "README.md"},
		filterStatus(lines, "??", nil))
}

func TestDetectNone(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, true)
	_, err := Detect(ctx, t.TempDir())
	assert.ErrorIs(t, err, ErrNotFound)
}

func gitRepo(ctx context.Context, t *testing.T) string {
	t.Helper()
	if _, err := dexec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}
	dir := t.TempDir()
	for _, args := range [][]string{
		{"init", "--quiet"},
		{"config", "user.email", "release@example.com"},
		{"config", "user.name", "Release Bot"},
		{"config", "commit.gpgsign", "false"},
		{"config", "tag.gpgsign", "false"},
	} {
		cmd := dexec.CommandContext(ctx, "git", args...)
		cmd.Dir = dir
		require.NoError(t, cmd.Run())
	}
	return dir
}

func TestGit(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, true)
	dir := gitRepo(ctx, t)

	vcs, err := Detect(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, "git", vcs.Name())

	tags, err := vcs.ListTags(ctx, TagScopeGlobal)
	require.NoError(t, err)
	assert.Empty(t, tags)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "setup.cfg"), []byte("version = 1.0.0\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("scratch\n"), 0o644))

	dirty, err := vcs.DirtyFiles(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, dirty)
	dirty, err = vcs.DirtyFiles(ctx, []string{"setup.cfg"})
	require.NoError(t, err)
	assert.Equal(t, []string{"setup.cfg"}, dirty)

	require.NoError(t, vcs.Commit(ctx, []string{"setup.cfg"}, "bump version to 1.0.0"))
	require.NoError(t, vcs.CreateTag(ctx, "1.0.0", "1.0.0"))
	require.NoError(t, vcs.FetchTags(ctx))
	require.NoError(t, vcs.Push(ctx, "1.0.0"))

	for _, scope := range []TagScope{TagScopeDefault, TagScopeGlobal, TagScopeBranch} {
		tags, err := vcs.ListTags(ctx, scope)
		require.NoError(t, err)
		assert.Equal(t, []string{"1.0.0"}, tags, scope)
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "setup.cfg"), []byte("version = 1.0.1\n"), 0o644))
	dirty, err = vcs.DirtyFiles(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"setup.cfg"}, dirty)
}

func TestGitError(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, true)
	dir := gitRepo(ctx, t)

	err := NewGit(dir).CreateTag(ctx, "1.0.0", "1.0.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "git tag --annotate 1.0.0 --message 1.0.0: ")
	assert.Contains(t, err.Error(), "\n > ")
}

// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package rewrite_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/datawire/dlib/derror"
	"github.com/datawire/dlib/dlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/verbump/pkg/pattern"
	"github.com/datawire/verbump/pkg/rewrite"
	"github.com/datawire/verbump/pkg/testutil"
	"github.com/datawire/verbump/pkg/version"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func infos(t *testing.T, pat *pattern.Pattern, oldVer, newVer string) (version.Info, version.Info) {
	t.Helper()
	oldInfo, err := version.Parse(pat, oldVer)
	require.NoError(t, err)
	newInfo, err := version.Parse(pat, newVer)
	require.NoError(t, err)
	return oldInfo, newInfo
}

func TestRewrite(t *testing.T) {
	t.Parallel()
	type testcase struct {
		Pattern   string
		Old       string
		New       string
		Input     string
		Templates []string
		Output    string
		Matches   map[string]int
	}
	testcases := map[string]testcase{
		"semver": {
			Pattern:   "MAJOR.MINOR.PATCH",
			Old:       "1.2.3",
			New:       "1.3.0",
			Input:     "[metadata]\nversion = 1.2.3\nother = 1.2.3\n",
			Templates: []string{"version = {version}"},
			Output:    "[metadata]\nversion = 1.3.0\nother = 1.2.3\n",
			Matches:   map[string]int{"version = {version}": 1},
		},
		"crlf": {
			Pattern:   "MAJOR.MINOR.PATCH",
			Old:       "1.2.3",
			New:       "2.0.0",
			Input:     "a\r\n__version__ = \"1.2.3\"\r\nb\r\n",
			Templates: []string{`__version__ = "{version}"`},
			Output:    "a\r\n__version__ = \"2.0.0\"\r\nb\r\n",
			Matches:   map[string]int{`__version__ = "{version}"`: 1},
		},
		"cr": {
			Pattern:   "MAJOR.MINOR.PATCH",
			Old:       "1.2.3",
			New:       "2.0.0",
			Input:     "a\rv1.2.3\rb",
			Templates: []string{"v{version}"},
			Output:    "a\rv2.0.0\rb",
			Matches:   map[string]int{"v{version}": 1},
		},
		"pep440": {
			Pattern:   "vYYYY0M.BUILD[-TAG]",
			Old:       "v202009.1001-beta",
			New:       "v202010.1000",
			Input:     "VERSION = \"v202009.1001-beta\"\nversion = \"202009.1001b0\"\n",
			Templates: []string{`VERSION = "{version}"`, `version = "{pep440_version}"`},
			Output:    "VERSION = \"v202010.1000\"\nversion = \"202010.1000\"\n",
			Matches: map[string]int{
				`VERSION = "{version}"`:        1,
				`version = "{pep440_version}"`: 1,
			},
		},
		"bare-parts": {
			Pattern:   "YYYY.MINOR",
			Old:       "2020.4",
			New:       "2021.0",
			Input:     "Copyright 2020, release 2020.4\nsince 2020.4\n",
			Templates: []string{"Copyright YYYY", "{version}"},
			Output:    "Copyright 2021, release 2021.0\nsince 2021.0\n",
			Matches: map[string]int{
				"Copyright YYYY": 1,
				"{version}":      2,
			},
		},
		"metacharacters": {
			Pattern:   "MAJOR.MINOR",
			Old:       "1.2",
			New:       "1.3",
			Input:     "badge: (v1.2)*\nv1x2\n",
			Templates: []string{"(v{version})*"},
			Output:    "badge: (v1.3)*\nv1x2\n",
			Matches:   map[string]int{"(v{version})*": 1},
		},
		"longer-number": {
			Pattern:   "MAJOR.MINOR.PATCH",
			Old:       "1.2.3",
			New:       "1.2.4",
			Input:     "version = 1.2.3\nrequires lib >= 11.2.34\n",
			Templates: []string{"{version}"},
			Output:    "version = 1.2.4\nrequires lib >= 11.2.34\n",
			Matches:   map[string]int{"{version}": 1},
		},
		"longer-version": {
			Pattern:   "vYYYY.BUILD[-TAG]",
			Old:       "v2020.1001",
			New:       "v2020.1002",
			Input:     "current v2020.1001\nprevious v2020.1001-beta\n",
			Templates: []string{"{version}"},
			Output:    "current v2020.1002\nprevious v2020.1001-beta\n",
			Matches:   map[string]int{"{version}": 1},
		},
		"zero-patch": {
			Pattern:   "MAJOR.MINOR[.PATCH]",
			Old:       "1.2.0",
			New:       "1.2.1",
			Input:     "__version__ = \"1.2.0\"\n",
			Templates: []string{`__version__ = "{version}"`},
			Output:    "__version__ = \"1.2.1\"\n",
			Matches:   map[string]int{`__version__ = "{version}"`: 1},
		},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			ctx := dlog.NewTestContext(t, true)
			pat, err := pattern.Compile(tc.Pattern)
			require.NoError(t, err)
			oldInfo, newInfo := infos(t, pat, tc.Old, tc.New)

			dir := writeFiles(t, map[string]string{"file": tc.Input})
			path := filepath.Join(dir, "file")
			files := []rewrite.FilePattern{{Path: path, Templates: tc.Templates}}

			// dry run first: nothing is written
			report, err := rewrite.Rewrite(ctx, pat, files, oldInfo, newInfo, true)
			require.NoError(t, err)
			assert.Equal(t, tc.Input, readFile(t, path))
			assert.Equal(t, []string{path}, report.Paths())
			assert.NotEmpty(t, report.Diff())

			report, err = rewrite.Rewrite(ctx, pat, files, oldInfo, newInfo, false)
			require.NoError(t, err)
			testutil.AssertEqualText(t, tc.Output, readFile(t, path))
			require.Len(t, report.Files, 1)
			assert.Equal(t, tc.Matches, report.Files[0].Matches)
		})
	}
}

func TestRewriteDiff(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, true)
	pat := pattern.MustCompile("MAJOR.MINOR.PATCH")
	oldInfo, newInfo := infos(t, pat, "1.2.3", "1.2.4")

	dir := writeFiles(t, map[string]string{"setup.cfg": "[metadata]\nversion = 1.2.3\n"})
	path := filepath.Join(dir, "setup.cfg")
	report, err := rewrite.Rewrite(ctx, pat,
		[]rewrite.FilePattern{{Path: path, Templates: []string{"version = {version}"}}},
		oldInfo, newInfo, true)
	require.NoError(t, err)

	diff := report.Diff()
	assert.Contains(t, diff, "--- "+path+"\n")
	assert.Contains(t, diff, "+++ "+path+"\n")
	assert.Contains(t, diff, "-version = 1.2.3\n+version = 1.2.4\n")
}

func TestRewriteNoMatch(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, true)
	pat := pattern.MustCompile("MAJOR.MINOR.PATCH")
	oldInfo, newInfo := infos(t, pat, "1.2.3", "1.2.4")

	dir := writeFiles(t, map[string]string{
		"good": "version = 1.2.3\n",
		"bad":  "version: 1.2.3\n",
	})
	good := filepath.Join(dir, "good")
	bad := filepath.Join(dir, "bad")
	files := []rewrite.FilePattern{
		{Path: good, Templates: []string{"version = {version}"}},
		{Path: bad, Templates: []string{"version = {version}", "v{version}"}},
	}

	report, err := rewrite.Rewrite(ctx, pat, files, oldInfo, newInfo, false)
	require.Error(t, err)
	assert.Nil(t, report)

	var multi derror.MultiError
	require.True(t, errors.As(err, &multi))
	require.Len(t, multi, 2)
	for _, err := range multi {
		var noMatch *rewrite.NoMatchError
		require.True(t, errors.As(err, &noMatch))
		assert.Equal(t, bad, noMatch.Path)
		assert.Equal(t, "1.2.3", noMatch.Search[len(noMatch.Search)-5:])
		assert.NotEmpty(t, noMatch.Regexp)
	}

	// nothing is written when any template fails
	assert.Equal(t, "version = 1.2.3\n", readFile(t, good))
	assert.Equal(t, "version: 1.2.3\n", readFile(t, bad))
}

func TestRewriteMissingFile(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, true)
	pat := pattern.MustCompile("MAJOR.MINOR.PATCH")
	oldInfo, newInfo := infos(t, pat, "1.2.3", "1.2.4")

	_, err := rewrite.Rewrite(ctx, pat,
		[]rewrite.FilePattern{{Path: filepath.Join(t.TempDir(), "missing"), Templates: []string{"{version}"}}},
		oldInfo, newInfo, false)
	var multi derror.MultiError
	require.True(t, errors.As(err, &multi))
	require.Len(t, multi, 1)
	assert.ErrorIs(t, multi[0], os.ErrNotExist)
}

func TestRewriteKeepsMode(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, true)
	pat := pattern.MustCompile("MAJOR.MINOR.PATCH")
	oldInfo, newInfo := infos(t, pat, "1.2.3", "1.2.4")

	dir := t.TempDir()
	path := filepath.Join(dir, "release.sh")
	require.NoError(t, os.WriteFile(path, []byte("VERSION=1.2.3\n"), 0o755))
	require.NoError(t, os.Chmod(path, 0o755))

	_, err := rewrite.Rewrite(ctx, pat,
		[]rewrite.FilePattern{{Path: path, Templates: []string{"VERSION={version}"}}},
		oldInfo, newInfo, false)
	require.NoError(t, err)
	assert.Equal(t, "VERSION=1.2.4\n", readFile(t, path))
	stat, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), stat.Mode().Perm())
}

func TestRewriteIncremented(t *testing.T) {
	t.Parallel()
	type testcase struct {
		Pattern   string
		Old       string
		Directive version.Directive
		Input     string
		Template  string
		Output    string
	}
	testcases := map[string]testcase{
		"zero-patch": {
			Pattern:   "MAJOR.MINOR[.PATCH]",
			Old:       "1.2.0",
			Directive: version.Directive{Patch: true},
			Input:     "__version__ = \"1.2.0\"\n",
			Template:  `__version__ = "{version}"`,
			Output:    "__version__ = \"1.2.1\"\n",
		},
		"calver-month": {
			Pattern:   "YYYY.MM.PATCH",
			Old:       "2020.9.0",
			Directive: version.Directive{Date: time.Date(2020, 10, 15, 0, 0, 0, 0, time.UTC)},
			Input:     "# 2020.9.0\n__version__ = \"2020.9.0\"\n",
			Template:  `__version__ = "{version}"`,
			Output:    "# 2020.9.0\n__version__ = \"2020.10.0\"\n",
		},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			ctx := dlog.NewTestContext(t, true)
			pat := pattern.MustCompile(tc.Pattern)
			oldInfo, err := version.Parse(pat, tc.Old)
			require.NoError(t, err)
			newInfo, err := version.Increment(ctx, pat, oldInfo, tc.Directive)
			require.NoError(t, err)

			dir := writeFiles(t, map[string]string{
				"__init__.py": tc.Input,
				"other.py":    "VERSION = " + tc.Old + "\n",
			})
			path := filepath.Join(dir, "__init__.py")
			report, err := rewrite.Rewrite(ctx, pat,
				[]rewrite.FilePattern{{Path: path, Templates: []string{tc.Template}}},
				oldInfo, newInfo, false)
			require.NoError(t, err)
			testutil.AssertEqualText(t, tc.Output, readFile(t, path))
			require.Len(t, report.Files, 1)
			assert.Equal(t, map[string]int{tc.Template: 1}, report.Files[0].Matches)

			other := filepath.Join(dir, "other.py")
			_, err = rewrite.Rewrite(ctx, pat,
				[]rewrite.FilePattern{{Path: other, Templates: []string{tc.Template}}},
				oldInfo, newInfo, false)
			var multi derror.MultiError
			require.True(t, errors.As(err, &multi))
			require.Len(t, multi, 1)
			var noMatch *rewrite.NoMatchError
			require.True(t, errors.As(multi[0], &noMatch))
			assert.Equal(t, other, noMatch.Path)
		})
	}
}

// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package configparser_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/verbump/pkg/configparser"
)

const setupCfg = `[metadata]
name = example
Version = 2020.1001-alpha

# comment
[verbump]
current_version = 2020.1001-alpha
version_pattern = YYYY.BUILD[-TAG]
commit = True
tag = no

[verbump:file_patterns]
setup.cfg =
    current_version = {version}
README.md =
    {version}

    {pep440_version}
`

func TestParse(t *testing.T) {
	t.Parallel()
	parser := configparser.NewParser()
	parser.OptionTransform = func(section, option string) string {
		if section == "verbump:file_patterns" {
			return option
		}
		return strings.ToLower(option)
	}
	cfg, err := parser.Parse(strings.NewReader(setupCfg))
	require.NoError(t, err)

	assert.Equal(t, []string{"metadata", "verbump", "verbump:file_patterns"}, cfg.Sections())
	assert.False(t, cfg.Has("tool:verbump"))

	meta := cfg.Section("metadata")
	assert.Equal(t, []string{"name", "version"}, meta.Keys())

	sect := cfg.Section("verbump")
	val, ok := sect.Get("version_pattern")
	assert.True(t, ok)
	assert.Equal(t, "YYYY.BUILD[-TAG]", val)
	commit, err := sect.GetBool("commit")
	require.NoError(t, err)
	assert.True(t, commit)
	tag, err := sect.GetBool("tag")
	require.NoError(t, err)
	assert.False(t, tag)
	push, err := sect.GetBool("push")
	require.NoError(t, err)
	assert.False(t, push)

	patterns := cfg.Section("verbump:file_patterns")
	assert.Equal(t, []string{"setup.cfg", "README.md"}, patterns.Keys())
	assert.Equal(t, []string{"current_version = {version}"}, patterns.Lines("setup.cfg"))
	assert.Equal(t, []string{"{version}", "{pep440_version}"}, patterns.Lines("README.md"))

	var missing *configparser.Section
	assert.Nil(t, cfg.Section("missing"))
	assert.Nil(t, missing.Keys())
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	testcases := map[string]struct {
		Input string
		Error string
	}{
		"no-section":    {"a = b\n", "configparser.Parse: line 1: no section header"},
		"dup-section":   {"[a]\n[a]\n", `configparser.Parse: line 2: duplicate section name "a"`},
		"dup-option":    {"[a]\nx = 1\nX = 2\n", `configparser.Parse: line 3: duplicate option name "x"`},
		"invalid-line":  {"[a]\nnonsense\n", `configparser.Parse: line 2: invalid line: "nonsense"`},
		"bad-bool-type": {"[a]\nx = maybe\n", `option "x": not a boolean: "maybe"`},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			cfg, err := configparser.NewParser().Parse(strings.NewReader(tc.Input))
			if err == nil {
				_, err = cfg.Section("a").GetBool("x")
			}
			assert.EqualError(t, err, tc.Error)
		})
	}
}

func TestParseCRLF(t *testing.T) {
	t.Parallel()
	cfg, err := configparser.NewParser().Parse(strings.NewReader("[a]\r\nx = 1\r\ny =\r\n  2\r\n  3"))
	require.NoError(t, err)
	x, _ := cfg.Section("a").Get("x")
	assert.Equal(t, "1", x)
	y, _ := cfg.Section("a").Get("y")
	assert.Equal(t, "\n2\n3", y)
}

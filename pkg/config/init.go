// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/datawire/dlib/dlog"
)

const defaultPattern = "YYYY.BUILD[-TAG]"

// initialSettings returns the string settings of a new configuration, in the order that they
// are written.  The boolean settings commit, tag, and push all start out true.
func initialSettings(initialVersion string) [][2]string {
	return [][2]string{
		{"current_version", initialVersion},
		{"version_pattern", defaultPattern},
		{"commit_message", "bump version {old_version} -> {new_version}"},
		{"tag_message", DefaultTagMessage},
		{"tag_scope", "default"},
		{"pre_commit_hook", ""},
		{"post_commit_hook", ""},
	}
}

var initialBools = []string{"commit", "tag", "push"}

// defaultFilePatterns are the templates for files that are commonly found in a project; each is
// included in the initial configuration if the file exists.
var defaultFilePatterns = []struct {
	file      string
	templates []string
}{
	{"setup.py", []string{`"{version}"`, `"{pep440_version}"`}},
	{"README.rst", []string{"{version}", "{pep440_version}"}},
	{"README.md", []string{"{version}", "{pep440_version}"}},
}

// InitialVersion is the version that a new configuration starts at.
func InitialVersion(today time.Time) string {
	return today.Format("2006") + ".1001-alpha"
}

// DefaultConfig returns the text of an initial configuration for the project, in the format of
// the project's configuration file.
func (p *Project) DefaultConfig(today time.Time) (string, error) {
	initialVersion := InitialVersion(today)

	selfTemplate := `current_version = "{version}"`
	if p.Format == FormatYAML {
		selfTemplate = `current_version: "{version}"`
	}
	files := []string{p.ConfigFile}
	fileTemplates := [][]string{{selfTemplate}}
	for _, def := range defaultFilePatterns {
		if _, err := os.Stat(filepath.Join(p.Dir, def.file)); err == nil {
			files = append(files, def.file)
			fileTemplates = append(fileTemplates, def.templates)
		}
	}

	var ret strings.Builder
	switch p.Format {
	case FormatINI:
		ret.WriteString("[verbump]\n")
		for _, setting := range initialSettings(initialVersion) {
			fmt.Fprintf(&ret, "%s = %q\n", setting[0], setting[1])
		}
		for _, key := range initialBools {
			fmt.Fprintf(&ret, "%s = True\n", key)
		}
		ret.WriteString("\n[verbump:file_patterns]\n")
		for i, file := range files {
			fmt.Fprintf(&ret, "%s =\n", file)
			for _, tmpl := range fileTemplates[i] {
				fmt.Fprintf(&ret, "    %s\n", tmpl)
			}
		}
	case FormatTOML:
		section := "verbump"
		if p.ConfigFile == "pyproject.toml" {
			section = "tool.verbump"
		}
		fmt.Fprintf(&ret, "[%s]\n", section)
		for _, setting := range initialSettings(initialVersion) {
			fmt.Fprintf(&ret, "%s = %q\n", setting[0], setting[1])
		}
		for _, key := range initialBools {
			fmt.Fprintf(&ret, "%s = true\n", key)
		}
		fmt.Fprintf(&ret, "\n[%s.file_patterns]\n", section)
		for i, file := range files {
			fmt.Fprintf(&ret, "%q = [\n", file)
			for _, tmpl := range fileTemplates[i] {
				fmt.Fprintf(&ret, "    %s,\n", tomlString(tmpl))
			}
			ret.WriteString("]\n")
		}
	case FormatYAML:
		ret.WriteString("verbump:\n")
		for _, setting := range initialSettings(initialVersion) {
			fmt.Fprintf(&ret, "  %s: %q\n", setting[0], setting[1])
		}
		for _, key := range initialBools {
			fmt.Fprintf(&ret, "  %s: true\n", key)
		}
		ret.WriteString("  file_patterns:\n")
		for i, file := range files {
			fmt.Fprintf(&ret, "    %q:\n", file)
			for _, tmpl := range fileTemplates[i] {
				fmt.Fprintf(&ret, "      - %s\n", tomlString(tmpl))
			}
		}
	default:
		return "", fmt.Errorf("config.DefaultConfig: unsupported config format %q", p.Format)
	}
	return ret.String(), nil
}

// tomlString quotes a string for TOML (or YAML); a literal string is used if it contains double
// quotes.
func tomlString(str string) string {
	if strings.Contains(str, `"`) && !strings.Contains(str, "'") {
		return "'" + str + "'"
	}
	return fmt.Sprintf("%q", str)
}

// WriteDefault appends the initial configuration to the project's configuration file, creating
// it if need be.
func (p *Project) WriteDefault(ctx context.Context, today time.Time) error {
	content, err := p.DefaultConfig(today)
	if err != nil {
		return err
	}
	if p.Exists() {
		content = "\n" + content
	}
	fh, err := os.OpenFile(p.ConfigPath(), os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o666)
	if err != nil {
		return fmt.Errorf("config.WriteDefault: %w", err)
	}
	if _, err := fh.WriteString(content); err != nil {
		_ = fh.Close()
		return fmt.Errorf("config.WriteDefault: %w", err)
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("config.WriteDefault: %w", err)
	}
	dlog.Infof(ctx, "updated %s", p.ConfigFile)
	return nil
}

// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"sigs.k8s.io/yaml"

	"github.com/datawire/verbump/pkg/configparser"
)

// Raw is the verbump section of a configuration file, as written.
type Raw struct {
	CurrentVersion string  `toml:"current_version" json:"current_version"`
	VersionPattern string  `toml:"version_pattern" json:"version_pattern"`
	CommitMessage  *string `toml:"commit_message" json:"commit_message,omitempty"`
	TagMessage     *string `toml:"tag_message" json:"tag_message,omitempty"`
	TagScope       string  `toml:"tag_scope" json:"tag_scope,omitempty"`
	PreCommitHook  string  `toml:"pre_commit_hook" json:"pre_commit_hook,omitempty"`
	PostCommitHook string  `toml:"post_commit_hook" json:"post_commit_hook,omitempty"`
	Commit         *bool   `toml:"commit" json:"commit,omitempty"`
	Tag            *bool   `toml:"tag" json:"tag,omitempty"`
	Push           *bool   `toml:"push" json:"push,omitempty"`

	FilePatterns map[string][]string `toml:"file_patterns" json:"file_patterns,omitempty"`
}

// unquote strips the quotes that people tend to put around values in INI files.
func unquote(str string) string {
	return strings.Trim(str, `'" `)
}

func (raw *Raw) normalize() {
	raw.CurrentVersion = unquote(raw.CurrentVersion)
	raw.VersionPattern = unquote(raw.VersionPattern)
	raw.TagScope = unquote(raw.TagScope)
	raw.PreCommitHook = unquote(raw.PreCommitHook)
	raw.PostCommitHook = unquote(raw.PostCommitHook)
	for _, str := range []*string{raw.CommitMessage, raw.TagMessage} {
		if str != nil {
			*str = unquote(*str)
		}
	}
}

func decodeTOML(content []byte) (*Raw, error) {
	var doc struct {
		Tool struct {
			Verbump *Raw `toml:"verbump"`
		} `toml:"tool"`
		Verbump *Raw `toml:"verbump"`
	}
	if _, err := toml.Decode(string(content), &doc); err != nil {
		return nil, err
	}
	if doc.Tool.Verbump != nil {
		return doc.Tool.Verbump, nil
	}
	return doc.Verbump, nil
}

func decodeYAML(content []byte) (*Raw, error) {
	var doc struct {
		Verbump *Raw `json:"verbump"`
	}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, err
	}
	return doc.Verbump, nil
}

const (
	iniSection             = "verbump"
	iniFilePatternsSection = "verbump:file_patterns"
)

func decodeINI(content []byte) (*Raw, error) {
	parser := configparser.NewParser()
	parser.OptionTransform = func(section, option string) string {
		if section == iniFilePatternsSection {
			// option names are file names
			return option
		}
		return strings.ToLower(option)
	}
	cfg, err := parser.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	sect := cfg.Section(iniSection)
	if sect == nil {
		return nil, nil
	}

	raw := new(Raw)
	for key, dst := range map[string]*string{
		"current_version":  &raw.CurrentVersion,
		"version_pattern":  &raw.VersionPattern,
		"tag_scope":        &raw.TagScope,
		"pre_commit_hook":  &raw.PreCommitHook,
		"post_commit_hook": &raw.PostCommitHook,
	} {
		*dst, _ = sect.Get(key)
	}
	for key, dst := range map[string]**string{
		"commit_message": &raw.CommitMessage,
		"tag_message":    &raw.TagMessage,
	} {
		if val, ok := sect.Get(key); ok {
			*dst = &val
		}
	}
	for key, dst := range map[string]**bool{
		"commit": &raw.Commit,
		"tag":    &raw.Tag,
		"push":   &raw.Push,
	} {
		if _, ok := sect.Get(key); !ok {
			continue
		}
		val, err := sect.GetBool(key)
		if err != nil {
			return nil, fmt.Errorf("[%s]: %w", iniSection, err)
		}
		*dst = &val
	}

	if patterns := cfg.Section(iniFilePatternsSection); patterns != nil {
		raw.FilePatterns = make(map[string][]string)
		for _, path := range patterns.Keys() {
			raw.FilePatterns[path] = patterns.Lines(path)
		}
	}
	return raw, nil
}

// implicitTemplate returns the template that finds the current_version setting in the
// configuration file itself: its current_version line, with the version replaced by the
// pattern.
func implicitTemplate(format Format, text, currentVersion, versionPattern string) (string, error) {
	inSection := false
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		switch format {
		case FormatYAML:
			if inSection && strings.HasPrefix(trimmed, "current_version") {
				return strings.Replace(trimmed, currentVersion, versionPattern, 1), nil
			}
			switch {
			case strings.TrimRight(line, " ") == "verbump:":
				inSection = true
			case line != "" && line[0] != ' ' && line[0] != '#':
				inSection = false
			}
		default:
			if inSection && strings.HasPrefix(line, "current_version") {
				return strings.Replace(line, currentVersion, versionPattern, 1), nil
			}
			switch trimmed {
			case "[verbump]", "[tool.verbump]":
				inSection = true
			default:
				if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
					inSection = false
				}
			}
		}
	}
	return "", fmt.Errorf("could not find the current_version line")
}

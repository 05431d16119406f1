// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package config finds and parses a project's verbump configuration.  The configuration may live
// in verbump.toml, .verbump.toml, pyproject.toml ([tool.verbump]), setup.cfg ([verbump]), or
// verbump.yaml.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/datawire/dlib/derror"
	"github.com/datawire/dlib/dlog"

	"github.com/datawire/verbump/pkg/pattern"
	"github.com/datawire/verbump/pkg/rewrite"
	"github.com/datawire/verbump/pkg/vcs"
	"github.com/datawire/verbump/pkg/version"
)

// Format is the syntax of a configuration file.
type Format string

const (
	FormatTOML Format = "toml"
	FormatINI  Format = "cfg"
	FormatYAML Format = "yaml"
)

// Defaults for the optional settings.
const (
	DefaultCommitMessage = "bump version to {new_version}"
	DefaultTagMessage    = "{new_version}"
)

// ErrNotInitialized is returned by Load when the configuration file has no verbump section.
var ErrNotInitialized = errors.New("missing [verbump] section; perhaps try 'verbump init'")

type candidate struct {
	name   string
	format Format
}

// candidates are the configuration files, in order of preference.
var candidates = []candidate{
	{"verbump.toml", FormatTOML},
	{".verbump.toml", FormatTOML},
	{"pyproject.toml", FormatTOML},
	{"setup.cfg", FormatINI},
	{"verbump.yaml", FormatYAML},
}

// Project is a project directory and the configuration file chosen for it.
type Project struct {
	Dir string
	// ConfigFile is the configuration file, relative to Dir.  It might not exist yet.
	ConfigFile string
	Format     Format
}

// ConfigPath returns the path of the configuration file.
func (p *Project) ConfigPath() string {
	return filepath.Join(p.Dir, p.ConfigFile)
}

// Exists returns whether the configuration file exists.
func (p *Project) Exists() bool {
	_, err := os.Stat(p.ConfigPath())
	return err == nil
}

// Discover picks the configuration file of the project in dir.  A file that has a verbump
// section with a current_version is preferred; failing that, the first file that exists is
// picked (it does not have a verbump section yet); failing that, verbump.toml.
func Discover(dir string) *Project {
	var firstExisting *candidate
	for i := range candidates {
		content, err := os.ReadFile(filepath.Join(dir, candidates[i].name))
		if err != nil {
			continue
		}
		if firstExisting == nil {
			firstExisting = &candidates[i]
		}
		if bytes.Contains(content, []byte("verbump")) && bytes.Contains(content, []byte("current_version")) {
			return &Project{Dir: dir, ConfigFile: candidates[i].name, Format: candidates[i].format}
		}
	}
	if firstExisting != nil {
		return &Project{Dir: dir, ConfigFile: firstExisting.name, Format: firstExisting.format}
	}
	return &Project{Dir: dir, ConfigFile: candidates[0].name, Format: candidates[0].format}
}

// Config is a parsed and validated configuration.
type Config struct {
	Project *Project

	CurrentVersion string
	VersionPattern *pattern.Pattern
	PEP440Version  string

	CommitMessage string
	TagMessage    string
	TagScope      vcs.TagScope

	PreCommitHook  string
	PostCommitHook string

	Commit bool
	Tag    bool
	Push   bool

	// FilePatterns have glob-expanded paths, joined to the project directory, in sorted order.
	FilePatterns []rewrite.FilePattern
}

// Load discovers and parses the configuration of the project in dir.
func Load(ctx context.Context, dir string) (*Config, error) {
	return Discover(dir).Load(ctx)
}

// Load parses the project's configuration file.
func (p *Project) Load(ctx context.Context) (*Config, error) {
	content, err := os.ReadFile(p.ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	var raw *Raw
	switch p.Format {
	case FormatTOML:
		raw, err = decodeTOML(content)
	case FormatINI:
		raw, err = decodeINI(content)
	case FormatYAML:
		raw, err = decodeYAML(content)
	default:
		err = fmt.Errorf("unsupported config format %q", p.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("config.Load: %s: %w", p.ConfigFile, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("config.Load: %s: %w", p.ConfigFile, ErrNotInitialized)
	}
	raw.normalize()

	if _, ok := raw.FilePatterns[p.ConfigFile]; !ok && raw.CurrentVersion != "" && raw.VersionPattern != "" {
		tmpl, err := implicitTemplate(p.Format, string(content), raw.CurrentVersion, raw.VersionPattern)
		if err != nil {
			return nil, fmt.Errorf("config.Load: %s: %w", p.ConfigFile, err)
		}
		if raw.FilePatterns == nil {
			raw.FilePatterns = make(map[string][]string)
		}
		raw.FilePatterns[p.ConfigFile] = []string{tmpl}
	}

	cfg, err := p.validate(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %s: %w", p.ConfigFile, err)
	}
	dlog.Debugf(ctx, "config parsed from %s: %s", p.ConfigFile, cfg)
	return cfg, nil
}

func (p *Project) validate(ctx context.Context, raw *Raw) (*Config, error) {
	var errs derror.MultiError

	cfg := &Config{
		Project:        p,
		CurrentVersion: raw.CurrentVersion,
		CommitMessage:  DefaultCommitMessage,
		TagMessage:     DefaultTagMessage,
		PreCommitHook:  raw.PreCommitHook,
		PostCommitHook: raw.PostCommitHook,
	}
	if raw.CommitMessage != nil {
		cfg.CommitMessage = *raw.CommitMessage
	}
	if raw.TagMessage != nil {
		cfg.TagMessage = *raw.TagMessage
	}
	if raw.Commit != nil {
		cfg.Commit = *raw.Commit
	}
	if raw.Tag != nil {
		cfg.Tag = *raw.Tag
	}
	if raw.Push != nil {
		cfg.Push = *raw.Push
	}

	switch {
	case raw.VersionPattern == "":
		errs = append(errs, errors.New("missing version_pattern"))
	case raw.CurrentVersion == "":
		errs = append(errs, errors.New("missing current_version"))
	default:
		pat, err := pattern.Compile(raw.VersionPattern)
		if err != nil {
			errs = append(errs, err)
			break
		}
		cfg.VersionPattern = pat
		info, err := version.Parse(pat, raw.CurrentVersion)
		if err != nil {
			errs = append(errs, fmt.Errorf("current_version=%q is invalid for version_pattern=%q: %w",
				raw.CurrentVersion, raw.VersionPattern, err))
			break
		}
		if cfg.PEP440Version, err = version.RenderPEP440(pat, info); err != nil {
			errs = append(errs, err)
		}
		filePatterns, err := expandFilePatterns(ctx, p.Dir, raw.FilePatterns)
		if err != nil {
			errs = append(errs, err)
		}
		for _, file := range filePatterns {
			for _, tmpl := range file.Templates {
				if _, err := pattern.CompileTemplate(pat, tmpl); err != nil {
					errs = append(errs, fmt.Errorf("file_patterns[%q]: %w", file.Path, err))
				}
			}
		}
		cfg.FilePatterns = filePatterns
	}

	scope, err := vcs.ParseTagScope(raw.TagScope)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.TagScope = scope

	if err := cfg.checkVCSOptions(); err != nil {
		errs = append(errs, err)
	}
	for _, hook := range []struct{ name, path string }{
		{"pre_commit_hook", cfg.PreCommitHook},
		{"post_commit_hook", cfg.PostCommitHook},
	} {
		if hook.path == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(p.Dir, hook.path)); err != nil {
			errs = append(errs, fmt.Errorf("invalid value for %s: %w", hook.name, err))
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return cfg, nil
}

func (cfg *Config) checkVCSOptions() error {
	if cfg.Tag && !cfg.Commit {
		return errors.New("commit=true required if tag=true")
	}
	if cfg.Push && !cfg.Commit {
		return errors.New("commit=true required if push=true")
	}
	return nil
}

// SetVCSOptions applies the --[no-]commit, --[no-]tag-commit, and --[no-]push flags; nil means
// that the flag was not given.
func (cfg *Config) SetVCSOptions(commit, tag, push *bool) error {
	if commit != nil && !*commit {
		if tag != nil && *tag {
			return errors.New("--no-commit and --tag-commit cannot be used at the same time")
		}
		if push != nil && *push {
			return errors.New("--no-commit and --push cannot be used at the same time")
		}
	}
	if commit != nil {
		cfg.Commit = *commit
	}
	if !cfg.Commit {
		if tag != nil && *tag {
			return errors.New("--tag-commit requires either --commit or commit=true in the config")
		}
		if push != nil && *push {
			return errors.New("--push requires either --commit or commit=true in the config")
		}
	}
	if tag != nil {
		cfg.Tag = *tag
	}
	if push != nil {
		cfg.Push = *push
	}
	if !cfg.Commit {
		cfg.Tag = false
		cfg.Push = false
	}
	return nil
}

// HookPath returns the path of a hook script relative to the working directory, or "".
func (cfg *Config) HookPath(hook string) string {
	if hook == "" {
		return ""
	}
	return filepath.Join(cfg.Project.Dir, hook)
}

// Paths returns the paths of the files to rewrite.
func (cfg *Config) Paths() []string {
	ret := make([]string, 0, len(cfg.FilePatterns))
	for _, file := range cfg.FilePatterns {
		ret = append(ret, file.Path)
	}
	return ret
}

func (cfg *Config) String() string {
	var ret strings.Builder
	fmt.Fprintf(&ret, "Config(\n")
	fmt.Fprintf(&ret, "    current_version=%q,\n", cfg.CurrentVersion)
	fmt.Fprintf(&ret, "    version_pattern=%q,\n", cfg.VersionPattern)
	fmt.Fprintf(&ret, "    pep440_version=%q,\n", cfg.PEP440Version)
	fmt.Fprintf(&ret, "    commit_message=%q,\n", cfg.CommitMessage)
	fmt.Fprintf(&ret, "    tag_message=%q,\n", cfg.TagMessage)
	fmt.Fprintf(&ret, "    tag_scope=%q,\n", cfg.TagScope)
	fmt.Fprintf(&ret, "    pre_commit_hook=%q,\n", cfg.PreCommitHook)
	fmt.Fprintf(&ret, "    post_commit_hook=%q,\n", cfg.PostCommitHook)
	fmt.Fprintf(&ret, "    commit=%t,\n", cfg.Commit)
	fmt.Fprintf(&ret, "    tag=%t,\n", cfg.Tag)
	fmt.Fprintf(&ret, "    push=%t,\n", cfg.Push)
	fmt.Fprintf(&ret, "    file_patterns={\n")
	for _, file := range cfg.FilePatterns {
		for _, tmpl := range file.Templates {
			fmt.Fprintf(&ret, "        %q: %q,\n", file.Path, tmpl)
		}
	}
	fmt.Fprintf(&ret, "    }\n)")
	return ret.String()
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package configparser reads INI-style files (such as setup.cfg) the way Python's
// `configparser` module does.
package configparser

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Config is a parsed file; sections and options remember the order they were read in.
type Config struct {
	order    []string
	sections map[string]*Section
}

// Section is one "[name]" section of a Config.
type Section struct {
	Name   string
	order  []string
	values map[string]string
}

// Sections returns the names of the sections in file order.
func (c *Config) Sections() []string {
	return append([]string(nil), c.order...)
}

// Section returns the named section, or nil.
func (c *Config) Section(name string) *Section {
	return c.sections[name]
}

// Has returns whether the named section exists.
func (c *Config) Has(name string) bool {
	_, ok := c.sections[name]
	return ok
}

func (c *Config) add(name string) *Section {
	sect := &Section{
		Name:   name,
		values: make(map[string]string),
	}
	c.order = append(c.order, name)
	c.sections[name] = sect
	return sect
}

// Keys returns the option names in file order.
func (s *Section) Keys() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// Get returns the value of an option.
func (s *Section) Get(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	val, ok := s.values[key]
	return val, ok
}

// GetBool returns the value of an option interpreted the way configparser's getboolean()
// does.  A missing option is false.
func (s *Section) GetBool(key string) (bool, error) {
	val, ok := s.Get(key)
	if !ok {
		return false, nil
	}
	switch strings.ToLower(val) {
	case "1", "yes", "true", "on":
		return true, nil
	case "0", "no", "false", "off", "":
		return false, nil
	default:
		return false, fmt.Errorf("option %q: not a boolean: %q", key, val)
	}
}

// Lines returns the non-empty lines of a multi-line option.
func (s *Section) Lines(key string) []string {
	val, _ := s.Get(key)
	var ret []string
	for _, line := range strings.Split(val, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			ret = append(ret, line)
		}
	}
	return ret
}

func (s *Section) set(key, val string) {
	if _, exists := s.values[key]; !exists {
		s.order = append(s.order, key)
	}
	s.values[key] = val
}

// Parser holds the dialect settings.
type Parser struct {
	Delimiters            []string
	CommentPrefixes       []string
	InlineCommentPrefixes []string

	Strict             bool
	EmptyLinesInValues bool

	// OptionTransform is applied to option names; configparser lower-cases them by default,
	// which is wrong for sections keyed by file name.
	OptionTransform func(section, option string) string
}

// NewParser returns a Parser with configparser's defaults.
func NewParser() *Parser {
	return &Parser{
		Delimiters:            []string{"=", ":"},
		CommentPrefixes:       []string{"#", ";"},
		InlineCommentPrefixes: []string{},

		Strict:             true,
		EmptyLinesInValues: true,

		OptionTransform: func(_, option string) string { return strings.ToLower(option) },
	}
}

// Parse reads a file.
func (p *Parser) Parse(fp io.Reader) (*Config, error) {
	config := &Config{
		sections: make(map[string]*Section),
	}

	var (
		curIndentLevel int
		curSection     *Section
		curKey         string
		curVal         []string
	)

	flushKV := func() {
		if curVal != nil {
			curSection.set(curKey, strings.TrimRight(strings.Join(curVal, "\n"), "\n"))
			curKey = ""
			curVal = nil
		}
	}

	fpLines := bufio.NewReader(fp)
	lineno := 0
	for keepGoing := true; keepGoing; {
		line, err := fpLines.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				return nil, fmt.Errorf("configparser.Parse: %w", err)
			}
			keepGoing = false
			if line == "" {
				break
			}
		}
		lineno++
		line = strings.TrimRight(line, "\r\n")

		commentStart := len(line)
		for _, commentPrefix := range p.InlineCommentPrefixes {
			index := strings.Index(line, commentPrefix)
			if index > 0 && index < commentStart {
				commentStart = index
			}
		}
		for _, commentPrefix := range p.CommentPrefixes {
			if strings.HasPrefix(strings.TrimSpace(line), commentPrefix) {
				commentStart = 0
				break
			}
		}
		value := strings.TrimSpace(line[:commentStart])
		if value == "" {
			if p.EmptyLinesInValues {
				if curVal != nil && commentStart == len(line) {
					curVal = append(curVal, value)
				}
			} else {
				curIndentLevel = 0
			}
			continue
		}

		lineIndentLevel := strings.IndexFunc(line, func(r rune) bool { return !unicode.IsSpace(r) })
		switch {
		case curVal != nil && lineIndentLevel > 0 && lineIndentLevel > curIndentLevel:
			// continuation line
			curVal = append(curVal, value)
		case strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]"):
			flushKV()
			curIndentLevel = lineIndentLevel
			sectName := strings.TrimSuffix(strings.TrimPrefix(value, "["), "]")
			if sect, exists := config.sections[sectName]; !exists {
				curSection = config.add(sectName)
			} else if p.Strict {
				return nil, fmt.Errorf("configparser.Parse: line %d: duplicate section name %q", lineno, sectName)
			} else {
				curSection = sect
			}
		default:
			flushKV()
			curIndentLevel = lineIndentLevel
			if curSection == nil {
				return nil, fmt.Errorf("configparser.Parse: line %d: no section header", lineno)
			}
			sepPos := len(value)
			sepLen := 0
			for _, sep := range p.Delimiters {
				if index := strings.Index(value, sep); index >= 0 && index < sepPos {
					sepPos = index
					sepLen = len(sep)
				}
			}
			if sepPos == len(value) {
				return nil, fmt.Errorf("configparser.Parse: line %d: invalid line: %q", lineno, value)
			}
			curKey = p.OptionTransform(curSection.Name, strings.TrimSpace(value[:sepPos]))
			curVal = []string{
				strings.TrimSpace(value[sepPos+sepLen:]),
			}
			if _, exists := curSection.values[curKey]; p.Strict && exists {
				return nil, fmt.Errorf("configparser.Parse: line %d: duplicate option name %q", lineno, curKey)
			}
		}
	}
	flushKV()

	return config, nil
}

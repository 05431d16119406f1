// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package hooks runs the user's pre-commit and post-commit scripts.
package hooks

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/datawire/dlib/dexec"
	"github.com/datawire/dlib/dlog"
)

// Environment variables that a hook script receives.
const (
	EnvOldVersion = "VERBUMP_OLD_VERSION"
	EnvNewVersion = "VERBUMP_NEW_VERSION"
)

// Run executes the hook script at path.  Its stdout is logged at info level and its stderr at
// error level; a non-zero exit is an error.
func Run(ctx context.Context, path, oldVersion, newVersion string) (err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("hooks.Run: %w", err)
	}
	dlog.Infof(ctx, "running hook %s", path)

	cmd := dexec.CommandContext(ctx, abs)
	cmd.DisableLogging = true
	cmd.Env = append(os.Environ(),
		EnvOldVersion+"="+oldVersion,
		EnvNewVersion+"="+newVersion)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("hooks.Run: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("hooks.Run: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("hooks.Run: %s: %w", path, err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		logLines(stdout, func(line string) { dlog.Infof(ctx, "\t%s", line) })
	}()
	go func() {
		defer wg.Done()
		logLines(stderr, func(line string) { dlog.Errorf(ctx, "\t%s", line) })
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("hooks.Run: script %s exited with an error: %w", path, err)
	}
	return nil
}

func logLines(r io.Reader, fn func(string)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fn(scanner.Text())
	}
}

//go:build aux

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/verbump/pkg/cliutil"
)

func TestAppendFooters(t *testing.T) {
	t.Parallel()
	root := &cobra.Command{Use: "root", Long: "Root."}
	sub := &cobra.Command{
		Use:         "sub",
		Long:        "Sub.",
		Annotations: map[string]string{cliutil.FooterAnnotation: "Parts:\n  MAJOR"},
		Run:         func(*cobra.Command, []string) {},
	}
	root.AddCommand(sub)

	appendFooters(root)
	assert.Equal(t, "Root.", root.Long)
	assert.Equal(t, "Sub.\n\nParts:\n  MAJOR", sub.Long)
	assert.NotContains(t, sub.Annotations, cliutil.FooterAnnotation)
}

func TestDocCommand(t *testing.T) {
	t.Parallel()
	root := &cobra.Command{Use: "root"}
	var got string
	root.AddCommand(docCommand("gen", "Generate", func(_ *cobra.Command, dir string) error {
		got = dir
		return os.WriteFile(filepath.Join(dir, "out"), nil, 0o644)
	}))
	dir := filepath.Join(t.TempDir(), "docs")
	require.NoError(t, os.MkdirAll(dir, 0o777))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale"), nil, 0o644))

	root.SetArgs([]string{"gen", dir})
	require.NoError(t, root.Execute())
	assert.Equal(t, dir, got)
	assert.NoFileExists(t, filepath.Join(dir, "stale"))
	assert.FileExists(t, filepath.Join(dir, "out"))
	assert.True(t, root.DisableAutoGenTag)
}

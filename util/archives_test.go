package util

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, content := range files {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func TestExtractZip(t *testing.T) {
	archive := writeZip(t, map[string]string{
		"a.dat":        "alpha",
		"nested/b.dat": "beta",
	})
	dest := filepath.Join(t.TempDir(), "out")

	require.NoError(t, ExtractZip(archive, dest))

	body, err := os.ReadFile(filepath.Join(dest, "a.dat"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(body))

	body, err = os.ReadFile(filepath.Join(dest, "nested", "b.dat"))
	require.NoError(t, err)
	assert.Equal(t, "beta", string(body))
}

func TestExtractZip_MissingArchive(t *testing.T) {
	err := ExtractZip(filepath.Join(t.TempDir(), "nope.zip"), t.TempDir())
	assert.ErrorContains(t, err, "cannot open archive")
}

func TestExtractZip_RejectsEscapingEntries(t *testing.T) {
	archive := writeZip(t, map[string]string{
		"../escape.dat": "nope",
	})
	dest := filepath.Join(t.TempDir(), "out")

	// Rejected either by zip.OpenReader (ErrInsecurePath) or by our own
	// path guard, depending on GODEBUG settings
	err := ExtractZip(archive, dest)
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(filepath.Dir(dest), "escape.dat"))
	assert.True(t, os.IsNotExist(statErr))
}

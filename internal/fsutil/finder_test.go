package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.hcl"))
	touch(t, filepath.Join(root, "nested", "b.yaml"))
	touch(t, filepath.Join(root, "nested", "deeper", "c.yml"))
	touch(t, filepath.Join(root, "notes.txt"))

	files, err := FindFilesByExtension(root, ".hcl", ".yaml", ".yml")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.hcl"),
		filepath.Join(root, "nested", "b.yaml"),
		filepath.Join(root, "nested", "deeper", "c.yml"),
	}, files)

	files, err = FindFilesByExtension(root, ".txt")
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestFindFilesByExtension_SingleFileAndMissingPath(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "one.hcl")
	touch(t, file)

	files, err := FindFilesByExtension(file, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{file}, files)

	files, err = FindFilesByExtension(file, ".yaml")
	require.NoError(t, err)
	assert.Empty(t, files)

	files, err = FindFilesByExtension(filepath.Join(root, "missing"), ".hcl")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFindFilesByExtension_PanicsWithoutExtension(t *testing.T) {
	assert.Panics(t, func() { _, _ = FindFilesByExtension(t.TempDir()) })
}

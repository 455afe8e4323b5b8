package filesystem_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jakoblorz/express-ts-generator/internal/filesystem"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_WriteFileIsAtomicAndKeepsMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "www")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0755))
	require.NoError(t, os.Chmod(path, 0755))

	osfs := filesystem.NewOSFileSystem()
	require.NoError(t, osfs.WriteFile(path, []byte("new"), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "new", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0755), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file left behind")
}

func TestOSFileSystem_RenameAndExists(t *testing.T) {
	dir := t.TempDir()
	osfs := filesystem.NewOSFileSystem()

	from := filepath.Join(dir, "app.js")
	to := filepath.Join(dir, "app.ts")
	require.NoError(t, osfs.WriteFile(from, []byte("x"), 0644))
	require.NoError(t, osfs.Rename(from, to))

	require.False(t, osfs.Exists(from))
	require.True(t, osfs.Exists(to))
}

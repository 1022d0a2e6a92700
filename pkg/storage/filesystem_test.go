package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageCleanupSkipsForeignFiles(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStorage(root)
	require.NoError(t, err)

	_, err = store.Save("old.pdf", []byte("%PDF"))
	require.NoError(t, err)
	_, err = store.Save("fresh.csv", []byte("a\n"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "README"), []byte("keep"), 0o644))

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "old.pdf"), past, past))
	require.NoError(t, os.Chtimes(filepath.Join(root, "README"), past, past))

	removed, err := store.CleanupOlderThan(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.pdf"}, removed)
	assert.FileExists(t, filepath.Join(root, "README"))
	assert.FileExists(t, filepath.Join(root, "fresh.csv"))
}

func TestLocalStorageSaveLeavesNoPartials(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStorage(root)
	require.NoError(t, err)

	_, err = store.Save("week.csv", []byte("one"))
	require.NoError(t, err)
	_, err = store.Save("week.csv", []byte("two"))
	require.NoError(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	data, err := os.ReadFile(filepath.Join(root, "week.csv"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestLocalStorageDeleteMissingIsNoop(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, store.Delete("gone.csv"))
	assert.Error(t, store.Delete("/etc/passwd"))
}

package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveSaveReplaces(t *testing.T) {
	archive, err := NewArchive(filepath.Join(t.TempDir(), "sheets"))
	require.NoError(t, err)

	path, err := archive.Save("delivery-day-2024-03-04.csv", []byte("one"))
	require.NoError(t, err)
	_, err = archive.Save("delivery-day-2024-03-04.csv", []byte("two"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestArchiveRejectsPaths(t *testing.T) {
	archive, err := NewArchive(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../escape.csv", "nested/sheet.csv", ".hidden", ""} {
		_, err := archive.Save(name, []byte("x"))
		assert.Error(t, err, name)
	}
}

func TestArchivePrune(t *testing.T) {
	dir := t.TempDir()
	archive, err := NewArchive(dir)
	require.NoError(t, err)

	oldPath, err := archive.Save("old.pdf", []byte("x"))
	require.NoError(t, err)
	_, err = archive.Save("new.pdf", []byte("x"))
	require.NoError(t, err)
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))

	deleted, err := archive.Prune(time.Now(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.pdf"}, deleted)

	deleted, err = archive.Prune(time.Now(), 0)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}

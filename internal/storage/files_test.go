package storage

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirebot/internal/common/logger"
)

func TestStorageNameKeepsExtension(t *testing.T) {
	name := StorageName("My Resume.PDF")
	assert.True(t, strings.HasSuffix(name, ".pdf"), "got %q", name)
	assert.NotEqual(t, StorageName("a.pdf"), StorageName("a.pdf"))
}

func TestFileStore_SaveReadRemove(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewFileStore(fs, "uploads", logger.NewNoOpLogger())

	path, err := store.Save("abc.pdf", strings.NewReader("%PDF-1.4 test"))
	require.NoError(t, err)

	exists, err := store.Exists(path)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := store.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test", string(data))

	require.NoError(t, store.Remove(path))
	exists, err = store.Exists(path)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileStore_RemoveMissingIsNoop(t *testing.T) {
	store := NewFileStore(afero.NewMemMapFs(), "uploads", logger.NewNoOpLogger())
	assert.NoError(t, store.Remove("uploads/never-there.pdf"))
	assert.NoError(t, store.Remove(""))
}

package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())

	rows := []map[string]interface{}{
		{"id": "w1", "name": "Acme", "archived_at": nil},
		{"id": "w2", "name": "Globex", "archived_at": "2025-01-02T03:04:05Z"},
	}
	require.NoError(t, store.Write("workspaces", rows))
	require.True(t, store.Exists("workspaces"))

	got, err := store.Read("workspaces")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "w1", got[0]["id"])
	assert.Equal(t, "Acme", got[0]["name"])
	// Nulls survive the round trip explicitly.
	val, present := got[0]["archived_at"]
	assert.True(t, present)
	assert.Nil(t, val)
	assert.Equal(t, "2025-01-02T03:04:05Z", got[1]["archived_at"])
}

func TestFileStoreWriteReplacesPriorSnapshot(t *testing.T) {
	store := NewFileStore(t.TempDir())

	require.NoError(t, store.Write("projects", []map[string]interface{}{
		{"id": "p1"}, {"id": "p2"}, {"id": "p3"},
	}))
	require.NoError(t, store.Write("projects", []map[string]interface{}{
		{"id": "p9"},
	}))

	got, err := store.Read("projects")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p9", got[0]["id"])
}

func TestFileStoreReadMissing(t *testing.T) {
	store := NewFileStore(t.TempDir())

	_, err := store.Read("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, store.Exists("nope"))
}

func TestFileStoreEmptySnapshot(t *testing.T) {
	store := NewFileStore(t.TempDir())

	require.NoError(t, store.Write("empty", nil))
	got, err := store.Read("empty")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.True(t, store.Exists("empty"))
}

func TestFileStoreTables(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	require.NoError(t, store.Write("b", nil))
	require.NoError(t, store.Write("a", nil))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	tables, err := store.Tables()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tables)
}

func TestMemStore(t *testing.T) {
	store := NewMemStore()

	_, err := store.Read("missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	rows := []map[string]interface{}{{"id": 1}}
	require.NoError(t, store.Write("t", rows))
	assert.True(t, store.Exists("t"))

	got, err := store.Read("t")
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	// Reads return an independent slice header.
	got[0] = map[string]interface{}{"id": 2}
	again, err := store.Read("t")
	require.NoError(t, err)
	assert.Equal(t, 1, again[0]["id"])
}

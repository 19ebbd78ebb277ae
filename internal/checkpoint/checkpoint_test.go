package checkpoint

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "processing_checkpoint.json")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStore(path, logger)
}

func TestStore_SaveAndLoad(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	processed := map[int]bool{3: true, 1: true, 7: true}

	require.NoError(t, s.Save(processed, 10))
	require.True(t, s.Exists())

	loaded, total := s.Load()
	assert.Equal(t, processed, loaded)
	assert.Equal(t, 10, total)
}

func TestStore_LoadMissingFile(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	loaded, total := s.Load()
	assert.Empty(t, loaded)
	assert.Equal(t, 0, total)
}

func TestStore_LoadCorruptFile(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.path, []byte("{not json"), 0o644))

	loaded, total := s.Load()
	assert.Empty(t, loaded)
	assert.Equal(t, 0, total)
}

func TestStore_SaveOverwrites(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.Save(map[int]bool{1: true}, 5))
	require.NoError(t, s.Save(map[int]bool{1: true, 2: true, 3: true}, 5))

	loaded, total := s.Load()
	assert.Len(t, loaded, 3)
	assert.Equal(t, 5, total)
}

func TestStore_Clear(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.Save(map[int]bool{1: true}, 3))
	require.True(t, s.Exists())

	require.NoError(t, s.Clear())
	assert.False(t, s.Exists())

	// Clearing an absent checkpoint is not an error.
	assert.NoError(t, s.Clear())
}

func TestStore_NoTempFilesLeftBehind(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.Save(map[int]bool{1: true, 2: true}, 4))

	entries, err := os.ReadDir(filepath.Dir(s.path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(s.path), entries[0].Name())
}

package kvstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"file":   NewFile(filepath.Join(t.TempDir(), "nested", "state.json")),
		"memory": NewMemory(),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Get(ctx, "fav/a")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, "fav/a", "1"))
			require.NoError(t, s.Set(ctx, "fav/b", "1"))
			require.NoError(t, s.Set(ctx, "use/a", `{"use_count":2}`))

			got, err := s.Get(ctx, "use/a")
			require.NoError(t, err)
			assert.Equal(t, `{"use_count":2}`, got)

			keys, err := s.Keys(ctx, "fav/")
			require.NoError(t, err)
			assert.Equal(t, []string{"fav/a", "fav/b"}, keys)

			require.NoError(t, s.Delete(ctx, "fav/a"))
			require.NoError(t, s.Delete(ctx, "fav/a"))

			keys, err = s.Keys(ctx, "fav/")
			require.NoError(t, err)
			assert.Equal(t, []string{"fav/b"}, keys)
		})
	}
}

func TestStoreRejectsEmptyKey(t *testing.T) {
	t.Parallel()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			err := s.Set(context.Background(), "  ", "v")
			assert.ErrorContains(t, err, "key is empty")
		})
	}
}

func TestStoreHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, s.Set(ctx, "k", "v"), context.Canceled)
			_, err := s.Keys(ctx, "")
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}

func TestFilePersistsAcrossInstances(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	ctx := context.Background()

	require.NoError(t, NewFile(path).Set(ctx, "k", "v"))

	got, err := NewFile(path).Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(fileMode), info.Mode().Perm())
}

func TestFileRejectsCorruptState(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFile(path).Get(context.Background(), "k")
	assert.ErrorContains(t, err, "kvstore: parsing")
}

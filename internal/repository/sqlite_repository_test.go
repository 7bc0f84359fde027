package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_GetMissing(t *testing.T) {
	repo := newTestRepo(t)

	_, ok, err := repo.Get(context.Background(), "nope")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteRepository_SetOverwrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, KeyQueue, "[]"))
	require.NoError(t, repo.Set(ctx, KeyQueue, `[{"id":"1"}]`))

	got, ok, err := repo.Get(ctx, KeyQueue)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, got)
}

func TestJSONSnapshots(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	type item struct {
		Name string `json:"name"`
	}

	var empty []item
	found, err := LoadJSON(ctx, repo, KeyRuns, &empty)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SaveJSON(ctx, repo, KeyRuns, []item{{Name: "a"}, {Name: "b"}}))

	var got []item
	found, err = LoadJSON(ctx, repo, KeyRuns, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []item{{Name: "a"}, {Name: "b"}}, got)
}

func TestLoadJSON_Corrupt(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Set(ctx, KeyQueue, "{not json"))

	var v []string
	_, err := LoadJSON(ctx, repo, KeyQueue, &v)

	assert.ErrorIs(t, err, ErrCorruptSnapshot)
}

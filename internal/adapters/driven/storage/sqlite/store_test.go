package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/retrieva/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStore_CreatesDatabaseFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "corpus.db"), store.Path())
	assert.FileExists(t, store.Path())
}

func TestStore_AddGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := domain.Document{
		ID:       "login-form",
		Text:     "<form><button>Sign in</button></form>",
		Metadata: map[string]string{"source": "websight", "page": "1"},
	}
	require.NoError(t, store.Add(ctx, doc))

	got, err := store.Get(ctx, "login-form")
	require.NoError(t, err)
	assert.Equal(t, doc, *got)
}

func TestStore_AddDuplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, domain.Document{ID: "d1", Text: "a"}))

	err := store.Add(ctx, domain.Document{ID: "d1", Text: "b"})
	assert.True(t, errors.Is(err, domain.ErrDuplicateID))
}

func TestStore_AddEmptyID(t *testing.T) {
	store := newTestStore(t)

	err := store.Add(context.Background(), domain.Document{Text: "body"})
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "ghost")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestStore_ListPreservesInsertionOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ids := []string{"zeta", "alpha", "mid"}
	for _, id := range ids {
		require.NoError(t, store.Add(ctx, domain.Document{ID: id, Text: id}))
	}

	docs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	for i, id := range ids {
		assert.Equal(t, id, docs[i].ID)
	}
}

func TestStore_ChunkRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, domain.Document{ID: "d1", Text: "one two three"}))

	chunks := []domain.Chunk{
		{ID: domain.ChunkID("d1", 0), DocumentID: "d1", Text: "one two", TokenCount: 2, Position: 0},
		{ID: domain.ChunkID("d1", 1), DocumentID: "d1", Text: "two three", TokenCount: 2, Position: 1},
	}
	require.NoError(t, store.SaveChunks(ctx, chunks))

	got, err := store.GetChunk(ctx, "d1::chunk_1")
	require.NoError(t, err)
	assert.Equal(t, chunks[1], *got)

	all, err := store.GetChunks(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, chunks, all)
}

func TestStore_SaveChunksReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, domain.Document{ID: "d1", Text: "text"}))

	first := []domain.Chunk{
		{ID: domain.ChunkID("d1", 0), DocumentID: "d1", Text: "old", TokenCount: 1, Position: 0},
		{ID: domain.ChunkID("d1", 1), DocumentID: "d1", Text: "old tail", TokenCount: 2, Position: 1},
	}
	require.NoError(t, store.SaveChunks(ctx, first))

	second := []domain.Chunk{
		{ID: domain.ChunkID("d1", 0), DocumentID: "d1", Text: "new", TokenCount: 1, Position: 0},
	}
	require.NoError(t, store.SaveChunks(ctx, second))

	all, err := store.GetChunks(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "new", all[0].Text)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, domain.Document{ID: "d1", Text: "persisted"}))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Text)
}

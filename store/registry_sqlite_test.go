package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/graphrag"
)

func newTestRegistry(t *testing.T) *SQLiteRegistry {
	t.Helper()
	r, err := NewSQLiteRegistry(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRegistryLifecycle(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	doc := graphrag.Document{
		StorageKey: "documents/alice@x.com/abc123_notes.pdf",
		OwnerID:    "alice@x.com",
		Filename:   "notes.pdf",
		Status:     graphrag.StatusUploaded,
	}
	require.NoError(t, r.Register(ctx, doc))

	got, err := r.Get(ctx, doc.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, graphrag.StatusUploaded, got.Status)
	assert.Equal(t, "notes.pdf", got.Filename)

	require.NoError(t, r.SetStatus(ctx, doc.StorageKey, graphrag.StatusIndexing))
	require.NoError(t, r.SetStatus(ctx, doc.StorageKey, graphrag.StatusReady))
	require.NoError(t, r.SetChunkCount(ctx, doc.StorageKey, 12))

	got, err = r.Get(ctx, doc.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, graphrag.StatusReady, got.Status)
	assert.Equal(t, 12, got.ChunkCount)
}

func TestSQLiteRegistrySetStatusUnknownKeyRegisters(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	key := "documents/bob@y.org/xyz_report.pdf"
	require.NoError(t, r.SetStatus(ctx, key, graphrag.StatusIndexing))

	got, err := r.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, graphrag.StatusIndexing, got.Status)
	assert.Equal(t, "bob@y.org", got.OwnerID)
}

func TestSQLiteRegistryListByOwner(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	for _, key := range []string{
		"documents/alice@x.com/a_one.pdf",
		"documents/alice@x.com/b_two.pdf",
		"documents/bob@y.org/c_three.pdf",
	} {
		require.NoError(t, r.Register(ctx, graphrag.Document{
			StorageKey: key,
			OwnerID:    graphrag.OwnerFromKey(key),
			Filename:   key,
			Status:     graphrag.StatusUploaded,
		}))
	}

	docs, err := r.ListByOwner(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = r.ListByOwner(ctx, "nobody@z.net")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSQLiteRegistryGetMissing(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Get(context.Background(), "documents/alice@x.com/missing.pdf")
	assert.ErrorIs(t, err, graphrag.ErrNotFound)
}

func TestSQLiteRegistryDelete(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	key := "documents/alice@x.com/abc_notes.pdf"
	require.NoError(t, r.Register(ctx, graphrag.Document{
		StorageKey: key, OwnerID: "alice@x.com", Filename: "notes.pdf",
	}))
	require.NoError(t, r.Delete(ctx, key))

	_, err := r.Get(ctx, key)
	assert.ErrorIs(t, err, graphrag.ErrNotFound)
}

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/graphrag"
)

func chunkRecord(id, text, source string, embedder *MockEmbedder) graphrag.VectorRecord {
	vector, _ := embedder.EmbedDocument(context.Background(), text)
	return graphrag.VectorRecord{
		ID:     id,
		Vector: vector,
		Metadata: map[string]any{
			"text":   text,
			"source": source,
		},
	}
}

func TestMemoryVectorStoreUpsertIdempotent(t *testing.T) {
	s := NewMemoryVectorStore()
	e := NewMockEmbedder(16)
	ctx := context.Background()

	records := []graphrag.VectorRecord{
		chunkRecord("doc_0", "first chunk", "doc", e),
		chunkRecord("doc_1", "second chunk", "doc", e),
	}

	require.NoError(t, s.Upsert(ctx, "alice@x.com", records))
	require.NoError(t, s.Upsert(ctx, "alice@x.com", records))

	assert.Equal(t, 2, s.Count("alice@x.com"), "re-upsert must overwrite, not duplicate")
}

func TestMemoryVectorStoreQueryRanking(t *testing.T) {
	s := NewMemoryVectorStore()
	e := NewMockEmbedder(16)
	ctx := context.Background()

	texts := []string{
		"Ada Lovelace wrote the first algorithm.",
		"The Analytical Engine was designed by Babbage.",
		"Completely unrelated cooking recipe.",
	}
	for i, text := range texts {
		rec := chunkRecord(graphrag.ChunkRecordID("doc", i), text, "doc", e)
		require.NoError(t, s.Upsert(ctx, "alice@x.com", []graphrag.VectorRecord{rec}))
	}

	query, _ := e.EmbedQuery(ctx, "Ada Lovelace wrote the first algorithm.")
	matches, err := s.Query(ctx, "alice@x.com", query, 2, graphrag.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// The identical text embeds identically, so it ranks first with
	// score 1.
	assert.Equal(t, "doc_0", matches[0].ID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-5)
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
}

func TestMemoryVectorStoreOwnerIsolation(t *testing.T) {
	s := NewMemoryVectorStore()
	e := NewMockEmbedder(16)
	ctx := context.Background()

	// Identical content under two owners.
	rec := chunkRecord("doc_0", "shared secret text", "doc", e)
	require.NoError(t, s.Upsert(ctx, "alice@x.com", []graphrag.VectorRecord{rec}))
	require.NoError(t, s.Upsert(ctx, "bob@y.org", []graphrag.VectorRecord{rec}))

	query, _ := e.EmbedQuery(ctx, "shared secret text")
	matches, err := s.Query(ctx, "alice@x.com", query, 10, graphrag.QueryFilter{})
	require.NoError(t, err)

	assert.Len(t, matches, 1, "a search under one owner must never see another owner's records")
}

func TestMemoryVectorStoreSourceFilter(t *testing.T) {
	s := NewMemoryVectorStore()
	e := NewMockEmbedder(16)
	ctx := context.Background()

	withSource := chunkRecord("a_0", "has a source", "doc-a", e)
	noSource := graphrag.VectorRecord{
		ID:       "b_0",
		Vector:   withSource.Vector,
		Metadata: map[string]any{"text": "malformed, no source"},
	}
	require.NoError(t, s.Upsert(ctx, "alice@x.com", []graphrag.VectorRecord{withSource, noSource}))

	query, _ := e.EmbedQuery(ctx, "has a source")

	matches, err := s.Query(ctx, "alice@x.com", query, 10, graphrag.QueryFilter{HasSource: true})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a_0", matches[0].ID)

	matches, err = s.Query(ctx, "alice@x.com", query, 10, graphrag.QueryFilter{Source: "doc-a"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a_0", matches[0].ID)
}

func TestMemoryVectorStoreDeleteBySource(t *testing.T) {
	s := NewMemoryVectorStore()
	e := NewMockEmbedder(16)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "alice@x.com", []graphrag.VectorRecord{
		chunkRecord("a_0", "chunk from a", "doc-a", e),
		chunkRecord("a_1", "more from a", "doc-a", e),
		chunkRecord("b_0", "chunk from b", "doc-b", e),
	}))

	require.NoError(t, s.DeleteBySource(ctx, "alice@x.com", "doc-a"))

	assert.Equal(t, 1, s.Count("alice@x.com"))
	query, _ := e.EmbedQuery(ctx, "chunk from b")
	matches, err := s.Query(ctx, "alice@x.com", query, 10, graphrag.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "b_0", matches[0].ID)
}

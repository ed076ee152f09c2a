package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smallnest/graphrag"
	"github.com/smallnest/graphrag/log"
)

const cacheKeyPrefix = "graphrag:emb:"

// CachedEmbedder caches document embeddings in Redis, keyed by the
// SHA-256 of the chunk text. Re-ingesting unchanged documents then skips
// the embedding API entirely. Cache failures degrade to a direct
// embedding call; they never fail the request. Query embeddings are not
// cached: questions rarely repeat verbatim.
type CachedEmbedder struct {
	inner  graphrag.Embedder
	client redis.UniversalClient
	ttl    time.Duration
	logger log.Logger
}

var _ graphrag.Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder wraps inner with a Redis cache. A zero ttl keeps
// entries forever.
func NewCachedEmbedder(inner graphrag.Embedder, client redis.UniversalClient, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: log.GetDefaultLogger(),
	}
}

// EmbedDocument returns the cached vector for text, or embeds and caches it.
func (c *CachedEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	if vector, ok := c.lookup(ctx, text); ok {
		return vector, nil
	}

	vector, err := c.inner.EmbedDocument(ctx, text)
	if err != nil {
		return nil, err
	}
	c.store(ctx, text, vector)
	return vector, nil
}

// EmbedDocuments serves cached vectors where possible and embeds only the
// misses, in one inner batch call.
func (c *CachedEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		if vector, ok := c.lookup(ctx, text); ok {
			vectors[i] = vector
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) > 0 {
		fresh, err := c.inner.EmbedDocuments(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		for j, vector := range fresh {
			vectors[missIdx[j]] = vector
			c.store(ctx, missTexts[j], vector)
		}
	}

	return vectors, nil
}

// EmbedQuery passes through to the inner embedder.
func (c *CachedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return c.inner.EmbedQuery(ctx, text)
}

func (c *CachedEmbedder) lookup(ctx context.Context, text string) ([]float32, bool) {
	raw, err := c.client.Get(ctx, cacheKey(text)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("embedding cache get failed: %v", err)
		}
		return nil, false
	}

	var vector []float32
	if err := json.Unmarshal(raw, &vector); err != nil {
		c.logger.Debug("embedding cache entry corrupt, ignoring: %v", err)
		return nil, false
	}
	return vector, true
}

func (c *CachedEmbedder) store(ctx context.Context, text string, vector []float32) {
	raw, err := json.Marshal(vector)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(text), raw, c.ttl).Err(); err != nil {
		c.logger.Debug("embedding cache set failed: %v", err)
	}
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

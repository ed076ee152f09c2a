package retriever

import (
	"context"

	"github.com/smallnest/graphrag"
	"github.com/smallnest/graphrag/log"
)

const defaultTopK = 4

// VectorLeg retrieves chunks by embedding similarity. The namespace is
// the owner, so a user only ever sees their own documents.
type VectorLeg struct {
	store    graphrag.VectorStore
	embedder graphrag.Embedder
	topK     int
	logger   log.Logger
}

// VectorOption configures a VectorLeg.
type VectorOption func(*VectorLeg)

// WithTopK sets how many chunks a retrieval returns.
func WithTopK(k int) VectorOption {
	return func(v *VectorLeg) {
		if k > 0 {
			v.topK = k
		}
	}
}

// WithVectorLogger sets the leg's logger.
func WithVectorLogger(logger log.Logger) VectorOption {
	return func(v *VectorLeg) {
		v.logger = logger
	}
}

// NewVectorLeg creates a VectorLeg over the given store and embedder.
func NewVectorLeg(store graphrag.VectorStore, embedder graphrag.Embedder, opts ...VectorOption) *VectorLeg {
	v := &VectorLeg{
		store:    store,
		embedder: embedder,
		topK:     defaultTopK,
		logger:   log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Retrieve embeds the question and returns the nearest chunks in the
// owner's namespace. Failures are logged and yield an empty result set.
func (v *VectorLeg) Retrieve(ctx context.Context, question, ownerID string) []graphrag.RetrievalResult {
	vector, err := v.embedder.EmbedQuery(ctx, question)
	if err != nil {
		v.logger.Warn("vector retrieval: query embedding failed: %v", err)
		return nil
	}

	matches, err := v.store.Query(ctx, ownerID, vector, v.topK, graphrag.QueryFilter{HasSource: true})
	if err != nil {
		v.logger.Warn("vector retrieval: store query failed: %v", err)
		return nil
	}

	results := make([]graphrag.RetrievalResult, 0, len(matches))
	for _, m := range matches {
		text, _ := m.Metadata["text"].(string)
		source, _ := m.Metadata["source"].(string)
		if text == "" {
			continue
		}
		results = append(results, graphrag.RetrievalResult{
			Type:    graphrag.ResultTypeVector,
			Content: text,
			Score:   m.Score,
			Source:  source,
		})
	}
	return results
}

package store

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/smallnest/graphrag"
)

// MemoryVectorStore is an in-memory vector store partitioned by
// namespace. Records are keyed by id, so upserting the same id replaces
// the record instead of appending a duplicate.
type MemoryVectorStore struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]graphrag.VectorRecord
}

var _ graphrag.VectorStore = (*MemoryVectorStore)(nil)

// NewMemoryVectorStore creates an empty MemoryVectorStore.
func NewMemoryVectorStore() *MemoryVectorStore {
	return &MemoryVectorStore{
		namespaces: make(map[string]map[string]graphrag.VectorRecord),
	}
}

// Upsert inserts or replaces records in the namespace.
func (s *MemoryVectorStore) Upsert(ctx context.Context, namespace string, records []graphrag.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.namespaces[namespace]
	if !ok {
		ns = make(map[string]graphrag.VectorRecord)
		s.namespaces[namespace] = ns
	}
	for _, r := range records {
		ns[r.ID] = r
	}
	return nil
}

// Query returns the topK most similar records in the namespace, ranked
// by cosine similarity.
func (s *MemoryVectorStore) Query(ctx context.Context, namespace string, vector []float32, topK int, filter graphrag.QueryFilter) ([]graphrag.VectorMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []graphrag.VectorMatch
	for _, r := range s.namespaces[namespace] {
		if !matchesFilter(r.Metadata, filter) {
			continue
		}
		matches = append(matches, graphrag.VectorMatch{
			ID:       r.ID,
			Score:    cosineSimilarity(vector, r.Vector),
			Metadata: r.Metadata,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// DeleteBySource removes every record in the namespace whose source
// metadata equals sourceKey.
func (s *MemoryVectorStore) DeleteBySource(ctx context.Context, namespace, sourceKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range s.namespaces[namespace] {
		if src, ok := r.Metadata["source"].(string); ok && src == sourceKey {
			delete(s.namespaces[namespace], id)
		}
	}
	return nil
}

// Count reports the number of records held in a namespace.
func (s *MemoryVectorStore) Count(namespace string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.namespaces[namespace])
}

func matchesFilter(metadata map[string]any, filter graphrag.QueryFilter) bool {
	src, hasSrc := metadata["source"].(string)
	if filter.HasSource && !hasSrc {
		return false
	}
	if filter.Source != "" && src != filter.Source {
		return false
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

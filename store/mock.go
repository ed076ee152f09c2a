package store

import (
	"context"
	"math"

	"github.com/smallnest/graphrag"
)

// MockEmbedder is a deterministic embedder for tests. Similar texts do
// not get similar vectors; identical texts get identical vectors, which
// is enough for idempotency and isolation tests.
type MockEmbedder struct {
	Dimension int
}

var _ graphrag.Embedder = (*MockEmbedder)(nil)

// NewMockEmbedder creates a MockEmbedder with the given dimension.
func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{Dimension: dimension}
}

// EmbedDocument generates a deterministic embedding for a document.
func (e *MockEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return e.generate(text), nil
}

// EmbedDocuments generates deterministic embeddings for documents.
func (e *MockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.generate(text)
	}
	return vectors, nil
}

// EmbedQuery generates a deterministic embedding for a query.
func (e *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.generate(text), nil
}

func (e *MockEmbedder) generate(text string) []float32 {
	vector := make([]float32, e.Dimension)
	for i := 0; i < e.Dimension; i++ {
		var sum float64
		for j, char := range text {
			sum += float64(char) * float64(i+j+1)
		}
		vector[i] = float32(math.Sin(sum / 1000.0))
	}

	var norm float32
	for _, v := range vector {
		norm += v * v
	}
	norm = float32(math.Sqrt(float64(norm)))
	if norm > 0 {
		for i := range vector {
			vector[i] /= norm
		}
	}
	return vector
}

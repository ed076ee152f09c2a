package retriever

import (
	"context"
	"strings"

	"github.com/smallnest/graphrag"
)

// NoContextFound is the context string handed to the answer model when
// neither leg returned anything.
const NoContextFound = "No specific data found."

// Hybrid runs both retrieval legs and concatenates their results,
// vector matches first.
type Hybrid struct {
	vector *VectorLeg
	graph  *GraphLeg
}

// NewHybrid creates a Hybrid over the two legs.
func NewHybrid(vector *VectorLeg, graph *GraphLeg) *Hybrid {
	return &Hybrid{vector: vector, graph: graph}
}

// Retrieve returns the combined results of both legs for the owner's
// corpus.
func (h *Hybrid) Retrieve(ctx context.Context, question, ownerID string) []graphrag.RetrievalResult {
	results := h.vector.Retrieve(ctx, question, ownerID)
	return append(results, h.graph.Retrieve(ctx, question)...)
}

// BuildContext joins result contents into the context block for answer
// generation.
func BuildContext(results []graphrag.RetrievalResult) string {
	if len(results) == 0 {
		return NoContextFound
	}
	contents := make([]string, 0, len(results))
	for _, r := range results {
		contents = append(contents, r.Content)
	}
	return strings.Join(contents, "\n")
}

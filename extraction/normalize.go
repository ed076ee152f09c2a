// Package extraction turns document text into knowledge-graph triples
// using an LLM, with two interchangeable strategies: a single-pass global
// extraction and a summarize-then-extract variant for very long
// documents. Which one runs is a deployment decision, not a per-document
// one.
package extraction

import (
	"regexp"
	"strings"

	"github.com/smallnest/graphrag"
)

var relationJunk = regexp.MustCompile(`[^A-Z0-9_]`)

// NormalizeRelation turns a free-form relation phrase into a graph edge
// label: upper case, spaces to underscores, everything outside
// [A-Z0-9_] stripped. An empty result means the relation is unusable and
// the triple carrying it must be dropped.
func NormalizeRelation(relation string) string {
	r := strings.ToUpper(strings.TrimSpace(relation))
	r = strings.ReplaceAll(r, " ", "_")
	return relationJunk.ReplaceAllString(r, "")
}

// NormalizeTriples normalizes relations and drops triples that are
// unusable: empty head or tail, or a relation that normalizes to the
// empty string.
func NormalizeTriples(triples []graphrag.Triple) []graphrag.Triple {
	out := make([]graphrag.Triple, 0, len(triples))
	for _, t := range triples {
		head := strings.TrimSpace(t.Head)
		tail := strings.TrimSpace(t.Tail)
		relation := NormalizeRelation(t.Relation)
		if head == "" || tail == "" || relation == "" {
			continue
		}
		out = append(out, graphrag.Triple{Head: head, Relation: relation, Tail: tail})
	}
	return out
}

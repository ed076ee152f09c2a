package store

import (
	"context"
	"errors"
	"sync"

	"github.com/smallnest/graphrag"
)

// ErrRawQueryUnsupported is returned by MemoryGraph.QueryRaw. The hybrid
// retriever treats it like any other graph failure: the graph leg comes
// back empty and the query proceeds on vector results.
var ErrRawQueryUnsupported = errors.New("raw graph queries are not supported by the in-memory graph")

type nodeKey struct {
	id    string
	owner string
}

type graphNode struct {
	ID      string
	OwnerID string
	Source  string
}

type graphEdge struct {
	Head     nodeKey
	Relation string
	Tail     nodeKey
}

// MemoryGraph is an in-memory graph store. Nodes merge on (id, ownerID)
// and keep the source of their first observation; edges deduplicate on
// (head, relation, tail), so re-ingesting a document never duplicates
// graph data.
type MemoryGraph struct {
	mu    sync.RWMutex
	nodes map[nodeKey]*graphNode
	edges map[graphEdge]struct{}
}

var _ graphrag.GraphStore = (*MemoryGraph)(nil)

// NewMemoryGraph creates an empty MemoryGraph.
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{
		nodes: make(map[nodeKey]*graphNode),
		edges: make(map[graphEdge]struct{}),
	}
}

// UpsertTriples merges the triples into the owner's partition.
func (g *MemoryGraph) UpsertTriples(ctx context.Context, triples []graphrag.Triple, ownerID, sourceKey string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, t := range triples {
		head := g.mergeNode(t.Head, ownerID, sourceKey)
		tail := g.mergeNode(t.Tail, ownerID, sourceKey)
		g.edges[graphEdge{Head: head, Relation: t.Relation, Tail: tail}] = struct{}{}
	}
	return nil
}

func (g *MemoryGraph) mergeNode(id, ownerID, sourceKey string) nodeKey {
	key := nodeKey{id: id, owner: ownerID}
	if _, ok := g.nodes[key]; !ok {
		g.nodes[key] = &graphNode{ID: id, OwnerID: ownerID, Source: sourceKey}
	}
	return key
}

// QueryRaw is unsupported in memory; see ErrRawQueryUnsupported.
func (g *MemoryGraph) QueryRaw(ctx context.Context, query string) ([][]graphrag.GraphValue, error) {
	return nil, ErrRawQueryUnsupported
}

// DeleteBySource detach-deletes every node first observed in sourceKey,
// removing edges touching those nodes.
func (g *MemoryGraph) DeleteBySource(ctx context.Context, sourceKey string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	doomed := make(map[nodeKey]struct{})
	for key, node := range g.nodes {
		if node.Source == sourceKey {
			doomed[key] = struct{}{}
			delete(g.nodes, key)
		}
	}
	for edge := range g.edges {
		if _, dead := doomed[edge.Head]; dead {
			delete(g.edges, edge)
			continue
		}
		if _, dead := doomed[edge.Tail]; dead {
			delete(g.edges, edge)
		}
	}
	return nil
}

// Triples returns the owner's edges as triples. Test helper.
func (g *MemoryGraph) Triples(ownerID string) []graphrag.Triple {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var triples []graphrag.Triple
	for edge := range g.edges {
		if edge.Head.owner != ownerID {
			continue
		}
		triples = append(triples, graphrag.Triple{
			Head:     edge.Head.id,
			Relation: edge.Relation,
			Tail:     edge.Tail.id,
		})
	}
	return triples
}

// NodeCount reports the number of nodes in the owner's partition. Test
// helper.
func (g *MemoryGraph) NodeCount(ownerID string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := 0
	for key := range g.nodes {
		if key.owner == ownerID {
			n++
		}
	}
	return n
}

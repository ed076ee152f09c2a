package retriever

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/graphrag"
	"github.com/smallnest/graphrag/log"
)

const graphSourceName = "Knowledge Graph"

const cypherPrompt = `You are a Cypher query generator for a knowledge graph.
The graph contains (:Entity {id, owner, source}) nodes connected by
relationships whose type names the relation, e.g. (:Entity)-[:WROTE]->(:Entity).

Extract the core entity from the user's question and generate a Cypher
query that finds it and its direct relationships. Match case-insensitively
on the id property, like this:

MATCH (n)-[r]->(m) WHERE toLower(n.id) CONTAINS toLower('entity name') RETURN n, r, m LIMIT 15

Respond with ONLY the raw Cypher query, no markdown, no explanation.

Question: %s`

// GraphLeg retrieves knowledge-graph facts by asking an LLM to
// translate the question into a read-only Cypher query. Generated
// queries pass through guardCypher before they reach the store.
type GraphLeg struct {
	store  graphrag.GraphStore
	model  llms.Model
	logger log.Logger
}

// GraphOption configures a GraphLeg.
type GraphOption func(*GraphLeg)

// WithGraphLogger sets the leg's logger.
func WithGraphLogger(logger log.Logger) GraphOption {
	return func(g *GraphLeg) {
		g.logger = logger
	}
}

// NewGraphLeg creates a GraphLeg over the given store and model.
func NewGraphLeg(store graphrag.GraphStore, model llms.Model, opts ...GraphOption) *GraphLeg {
	g := &GraphLeg{
		store:  store,
		model:  model,
		logger: log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Retrieve translates the question into Cypher and renders the matching
// subgraph as text facts. Failures at any stage are logged and yield an
// empty result set.
func (g *GraphLeg) Retrieve(ctx context.Context, question string) []graphrag.RetrievalResult {
	query, err := g.translate(ctx, question)
	if err != nil {
		g.logger.Warn("graph retrieval: query generation failed: %v", err)
		return nil
	}

	if err := guardCypher(query); err != nil {
		g.logger.Warn("graph retrieval: rejected generated query %q: %v", query, err)
		return nil
	}

	rows, err := g.store.QueryRaw(ctx, query)
	if err != nil {
		g.logger.Warn("graph retrieval: graph query failed: %v", err)
		return nil
	}

	results := make([]graphrag.RetrievalResult, 0, len(rows))
	for _, row := range rows {
		content := renderRow(row)
		if content == "" {
			continue
		}
		results = append(results, graphrag.RetrievalResult{
			Type:    graphrag.ResultTypeGraph,
			Content: content,
			Score:   1.0,
			Source:  graphSourceName,
		})
	}
	return results
}

func (g *GraphLeg) translate(ctx context.Context, question string) (string, error) {
	resp, err := g.model.GenerateContent(ctx,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf(cypherPrompt, question))},
		llms.WithTemperature(0),
	)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return stripCypherFence(resp.Choices[0].Content), nil
}

// renderRow flattens one result row into a fact string. Relationships
// render as arrows between their neighbors, so a (n, r, m) row reads
// like "Ada Lovelace -[WROTE]-> First Algorithm".
func renderRow(row []graphrag.GraphValue) string {
	parts := make([]string, 0, len(row))
	for _, v := range row {
		switch v.Kind {
		case graphrag.GraphValueNode:
			parts = append(parts, v.Text)
		case graphrag.GraphValueRelationship:
			parts = append(parts, fmt.Sprintf("-[%s]->", v.Label))
		default:
			if v.Text != "" {
				parts = append(parts, v.Text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func stripCypherFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```cypher")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

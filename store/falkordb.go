package store

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/smallnest/graphrag"
	"github.com/smallnest/graphrag/log"
)

// FalkorDBGraph implements graphrag.GraphStore on FalkorDB, a graph
// database speaking the Redis protocol (GRAPH.QUERY).
//
// Entity nodes are merged on {id, owner}, so the same entity mentioned in
// two documents of one owner collapses into a single node carrying the
// source of its first observation. Edge labels come from LLM output and
// are structural in Cypher; they pass through sanitizeLabel before being
// embedded in any query, and entity text is escaped as a quoted literal.
type FalkorDBGraph struct {
	client    redis.UniversalClient
	graphName string
	logger    log.Logger
}

var _ graphrag.GraphStore = (*FalkorDBGraph)(nil)

// NewFalkorDBGraph connects using a falkordb://host:port/graph_name URL.
func NewFalkorDBGraph(connectionString string) (*FalkorDBGraph, error) {
	u, err := url.Parse(connectionString)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid connection string: missing host")
	}

	graphName := strings.TrimPrefix(u.Path, "/")
	if graphName == "" {
		graphName = "graphrag"
	}

	client := redis.NewClient(&redis.Options{Addr: u.Host})
	return NewFalkorDBGraphWithClient(client, graphName), nil
}

// NewFalkorDBGraphWithClient wraps an existing Redis client.
func NewFalkorDBGraphWithClient(client redis.UniversalClient, graphName string) *FalkorDBGraph {
	return &FalkorDBGraph{
		client:    client,
		graphName: graphName,
		logger:    log.GetDefaultLogger(),
	}
}

// UpsertTriples merges the triples into the owner's partition, batched as
// one UNWIND query per relation type. A failed relation group is logged
// and skipped; the remaining groups are still written.
func (f *FalkorDBGraph) UpsertTriples(ctx context.Context, triples []graphrag.Triple, ownerID, sourceKey string) error {
	for label, query := range buildUpsertQueries(triples, ownerID, sourceKey) {
		if _, err := f.run(ctx, query); err != nil {
			f.logger.Warn("graph write for relation %s failed, skipping batch: %v", label, err)
		}
	}
	return nil
}

// buildUpsertQueries groups triples by relation and renders one UNWIND
// MERGE query per group, keyed by the sanitized relation label.
func buildUpsertQueries(triples []graphrag.Triple, ownerID, sourceKey string) map[string]string {
	groups := make(map[string][]graphrag.Triple)
	for _, t := range triples {
		groups[sanitizeLabel(t.Relation)] = append(groups[sanitizeLabel(t.Relation)], t)
	}

	owner := escapeString(ownerID)
	source := escapeString(sourceKey)

	queries := make(map[string]string, len(groups))
	for label, group := range groups {
		entries := make([]string, len(group))
		for i, t := range group {
			entries[i] = fmt.Sprintf("{head: '%s', tail: '%s'}",
				escapeString(t.Head), escapeString(t.Tail))
		}

		queries[label] = fmt.Sprintf(
			"UNWIND [%s] AS t "+
				"MERGE (h:Entity {id: t.head, owner: '%s'}) ON CREATE SET h.source = '%s' "+
				"MERGE (m:Entity {id: t.tail, owner: '%s'}) ON CREATE SET m.source = '%s' "+
				"MERGE (h)-[r:%s {owner: '%s'}]->(m)",
			strings.Join(entries, ", "), owner, source, owner, source, label, owner)
	}
	return queries
}

// QueryRaw executes a Cypher query and decodes the result rows into the
// GraphValue tagged union.
func (f *FalkorDBGraph) QueryRaw(ctx context.Context, query string) ([][]graphrag.GraphValue, error) {
	raw, err := f.run(ctx, query)
	if err != nil {
		return nil, err
	}

	// Reply shape: [header, rows, statistics].
	reply, ok := raw.([]any)
	if !ok || len(reply) < 2 {
		return nil, nil
	}
	rawRows, ok := reply[1].([]any)
	if !ok {
		return nil, nil
	}

	rows := make([][]graphrag.GraphValue, 0, len(rawRows))
	for _, rawRow := range rawRows {
		cells, ok := rawRow.([]any)
		if !ok {
			continue
		}
		row := make([]graphrag.GraphValue, len(cells))
		for i, cell := range cells {
			row[i] = decodeGraphValue(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// DeleteBySource detach-deletes every node tagged with sourceKey.
func (f *FalkorDBGraph) DeleteBySource(ctx context.Context, sourceKey string) error {
	query := fmt.Sprintf("MATCH (n {source: '%s'}) DETACH DELETE n", escapeString(sourceKey))
	_, err := f.run(ctx, query)
	return err
}

// Close closes the underlying Redis client.
func (f *FalkorDBGraph) Close() error {
	return f.client.Close()
}

func (f *FalkorDBGraph) run(ctx context.Context, query string) (any, error) {
	res, err := f.client.Do(ctx, "GRAPH.QUERY", f.graphName, query).Result()
	if err != nil {
		return nil, fmt.Errorf("graph query failed: %w", err)
	}
	return res, nil
}

var labelRegex = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// sanitizeLabel restricts a relation label to word characters. Relations
// arrive already normalized by the extraction layer; this is the last
// line of defense before a label lands in a Cypher string.
func sanitizeLabel(l string) string {
	clean := labelRegex.ReplaceAllString(l, "_")
	if clean == "" {
		return "RELATED_TO"
	}
	return clean
}

func escapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// decodeGraphValue classifies one result cell. FalkorDB encodes nodes as
// [id, labels, properties] and relationships as [id, type, src, dst,
// properties]; anything else is a scalar.
func decodeGraphValue(cell any) graphrag.GraphValue {
	vals, ok := cell.([]any)
	if !ok {
		return graphrag.GraphValue{Kind: graphrag.GraphValueScalar, Text: asString(cell)}
	}

	switch {
	case len(vals) >= 4:
		return graphrag.GraphValue{
			Kind:  graphrag.GraphValueRelationship,
			Label: asString(vals[1]),
		}
	case len(vals) == 3:
		label := "Node"
		if labels, ok := vals[1].([]any); ok && len(labels) > 0 {
			label = asString(labels[0])
		}
		return graphrag.GraphValue{
			Kind:  graphrag.GraphValueNode,
			Label: label,
			Text:  nodeDisplayText(decodeProperties(vals[2])),
		}
	default:
		return graphrag.GraphValue{Kind: graphrag.GraphValueScalar, Text: asString(cell)}
	}
}

func decodeProperties(raw any) map[string]string {
	props := make(map[string]string)
	pairs, ok := raw.([]any)
	if !ok {
		return props
	}
	for _, p := range pairs {
		pair, ok := p.([]any)
		if !ok || len(pair) < 2 {
			continue
		}
		props[asString(pair[0])] = asString(pair[1])
	}
	return props
}

// nodeDisplayText picks the most human-readable property of a node:
// id, then name, then title, then a truncated text preview.
func nodeDisplayText(props map[string]string) string {
	for _, key := range []string{"id", "name", "title"} {
		if v := props[key]; v != "" {
			return v
		}
	}
	if text := props["text"]; text != "" {
		if len(text) > 30 {
			return text[:30] + "..."
		}
		return text
	}
	return "Unknown"
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

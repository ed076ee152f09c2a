package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/graphrag"
)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"LOCATED_IN", "LOCATED_IN"},
		{"located in", "located_in"},
		{"WROTE'}) DETACH DELETE (n) //", "WROTE____DETACH_DELETE__n____"},
		{"", "RELATED_TO"},
		{"!!!", "___"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeLabel(tt.input), "input %q", tt.input)
	}
}

func TestEscapeString(t *testing.T) {
	assert.Equal(t, `O\'Brien`, escapeString("O'Brien"))
	assert.Equal(t, `back\\slash`, escapeString(`back\slash`))
	assert.Equal(t, "plain", escapeString("plain"))
}

func TestBuildUpsertQueries(t *testing.T) {
	triples := []graphrag.Triple{
		{Head: "Ada Lovelace", Relation: "WROTE", Tail: "First Algorithm"},
		{Head: "Ada Lovelace", Relation: "WROTE", Tail: "Note G"},
		{Head: "Charles Babbage", Relation: "DESIGNED", Tail: "Analytical Engine"},
	}

	queries := buildUpsertQueries(triples, "alice@x.com", "documents/alice@x.com/abc_notes.pdf")
	require.Len(t, queries, 2, "one query per relation group")

	wrote := queries["WROTE"]
	assert.Contains(t, wrote, "{head: 'Ada Lovelace', tail: 'First Algorithm'}")
	assert.Contains(t, wrote, "{head: 'Ada Lovelace', tail: 'Note G'}")
	assert.Contains(t, wrote, "[r:WROTE {owner: 'alice@x.com'}]")
	assert.Contains(t, wrote, "MERGE (h:Entity {id: t.head, owner: 'alice@x.com'})")
	assert.Contains(t, wrote, "ON CREATE SET h.source = 'documents/alice@x.com/abc_notes.pdf'")

	designed := queries["DESIGNED"]
	assert.Contains(t, designed, "{head: 'Charles Babbage', tail: 'Analytical Engine'}")
}

func TestBuildUpsertQueriesEscapesEntityText(t *testing.T) {
	triples := []graphrag.Triple{
		{Head: "O'Brien", Relation: "WROTE'}) DETACH DELETE (n) //", Tail: "x"},
	}

	queries := buildUpsertQueries(triples, "alice@x.com", "doc")
	require.Len(t, queries, 1)
	for label, q := range queries {
		// The raw LLM relation never reaches the query; only its
		// sanitized form does, and quotes in entity text are escaped.
		assert.NotContains(t, q, "DETACH DELETE (n)")
		assert.Contains(t, q, `O\'Brien`)
		assert.NotContains(t, label, "'")
	}
}

func TestDecodeGraphValueNode(t *testing.T) {
	// FalkorDB node reply: [id, labels, properties].
	cell := []any{
		int64(7),
		[]any{"Entity"},
		[]any{
			[]any{"id", "Ada Lovelace"},
			[]any{"owner", "alice@x.com"},
		},
	}

	v := decodeGraphValue(cell)
	assert.Equal(t, graphrag.GraphValueNode, v.Kind)
	assert.Equal(t, "Entity", v.Label)
	assert.Equal(t, "Ada Lovelace", v.Text)
}

func TestDecodeGraphValueNodeDisplayFallbacks(t *testing.T) {
	node := func(props ...[2]string) []any {
		raw := make([]any, len(props))
		for i, p := range props {
			raw[i] = []any{p[0], p[1]}
		}
		return []any{int64(1), []any{"Entity"}, raw}
	}

	v := decodeGraphValue(node([2]string{"name", "Babbage"}))
	assert.Equal(t, "Babbage", v.Text)

	v = decodeGraphValue(node([2]string{"title", "Note G"}))
	assert.Equal(t, "Note G", v.Text)

	long := "a very long stored text property that should be truncated"
	v = decodeGraphValue(node([2]string{"text", long}))
	assert.Equal(t, long[:30]+"...", v.Text)

	v = decodeGraphValue(node())
	assert.Equal(t, "Unknown", v.Text)
}

func TestDecodeGraphValueRelationship(t *testing.T) {
	// FalkorDB edge reply: [id, type, src, dst, properties].
	cell := []any{int64(3), "WROTE", int64(1), int64(2), []any{}}

	v := decodeGraphValue(cell)
	assert.Equal(t, graphrag.GraphValueRelationship, v.Kind)
	assert.Equal(t, "WROTE", v.Label)
}

func TestDecodeGraphValueScalar(t *testing.T) {
	v := decodeGraphValue("a bare string")
	assert.Equal(t, graphrag.GraphValueScalar, v.Kind)
	assert.Equal(t, "a bare string", v.Text)

	v = decodeGraphValue([]byte("bytes"))
	assert.Equal(t, graphrag.GraphValueScalar, v.Kind)
	assert.Equal(t, "bytes", v.Text)

	v = decodeGraphValue(int64(42))
	assert.Equal(t, graphrag.GraphValueScalar, v.Kind)
	assert.Equal(t, "42", v.Text)
}

func TestNewFalkorDBGraphConnectionString(t *testing.T) {
	g, err := NewFalkorDBGraph("falkordb://localhost:6379/facts")
	require.NoError(t, err)
	assert.Equal(t, "facts", g.graphName)

	g, err = NewFalkorDBGraph("falkordb://localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, "graphrag", g.graphName)

	_, err = NewFalkorDBGraph("falkordb://")
	assert.Error(t, err)
}

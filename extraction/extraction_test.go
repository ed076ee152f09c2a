package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/graphrag"
)

// scriptedModel replays canned responses and records the prompts it saw.
type scriptedModel struct {
	responses []string
	prompts   []string
	err       error
}

func (m *scriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var prompt strings.Builder
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				prompt.WriteString(text.Text)
			}
		}
	}
	m.prompts = append(m.prompts, prompt.String())

	if m.err != nil {
		return nil, m.err
	}
	idx := len(m.prompts) - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.responses[idx]}},
	}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := m.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func TestNormalizeRelation(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"located in", "LOCATED_IN"},
		{"founded by!!", "FOUNDED_BY"},
		{"wrote", "WROTE"},
		{"WORKS-FOR", "WORKSFOR"},
		{"  participated in  ", "PARTICIPATED_IN"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeRelation(tt.input), "input %q", tt.input)
	}
}

func TestNormalizeTriplesDropsUnusable(t *testing.T) {
	triples := []graphrag.Triple{
		{Head: "Ada Lovelace", Relation: "wrote", Tail: "First Algorithm"},
		{Head: "Ada Lovelace", Relation: "!!!", Tail: "Nothing"},
		{Head: "", Relation: "wrote", Tail: "Something"},
		{Head: "Someone", Relation: "wrote", Tail: "  "},
	}

	out := NormalizeTriples(triples)
	require.Len(t, out, 1)
	assert.Equal(t, graphrag.Triple{Head: "Ada Lovelace", Relation: "WROTE", Tail: "First Algorithm"}, out[0])
}

func TestNormalizeTriplesAllDropped(t *testing.T) {
	out := NormalizeTriples([]graphrag.Triple{{Head: "a", Relation: "!!", Tail: "b"}})
	assert.Empty(t, out)
}

func TestGlobalStrategyExtract(t *testing.T) {
	model := &scriptedModel{responses: []string{
		`[{"head": "Ada Lovelace", "relationship": "wrote", "tail": "First Algorithm"}]`,
	}}
	s := NewGlobalStrategy(model)

	triples, err := s.ExtractTriples(context.Background(), "Ada Lovelace wrote the first algorithm.")
	require.NoError(t, err)
	require.Len(t, triples, 1)
	assert.Equal(t, "WROTE", triples[0].Relation)
	assert.Contains(t, model.prompts[0], "Ada Lovelace wrote the first algorithm.")
}

func TestGlobalStrategyStripsCodeFence(t *testing.T) {
	model := &scriptedModel{responses: []string{
		"```json\n[{\"head\": \"A\", \"relationship\": \"knows\", \"tail\": \"B\"}]\n```",
	}}
	s := NewGlobalStrategy(model)

	triples, err := s.ExtractTriples(context.Background(), "A knows B.")
	require.NoError(t, err)
	require.Len(t, triples, 1)
	assert.Equal(t, "KNOWS", triples[0].Relation)
}

func TestGlobalStrategyZeroTriplesIsNotAnError(t *testing.T) {
	model := &scriptedModel{responses: []string{`[]`}}
	s := NewGlobalStrategy(model)

	triples, err := s.ExtractTriples(context.Background(), "Nothing factual here.")
	require.NoError(t, err)
	assert.Empty(t, triples)
}

func TestGlobalStrategyMalformedResponse(t *testing.T) {
	model := &scriptedModel{responses: []string{`I could not find any triples, sorry!`}}
	s := NewGlobalStrategy(model)

	_, err := s.ExtractTriples(context.Background(), "some text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a triple array")
}

func TestGlobalStrategyModelError(t *testing.T) {
	model := &scriptedModel{err: errors.New("rate limited")}
	s := NewGlobalStrategy(model)

	_, err := s.ExtractTriples(context.Background(), "some text")
	assert.Error(t, err)
}

func TestGlobalStrategyTruncates(t *testing.T) {
	model := &scriptedModel{responses: []string{`[]`}}
	s := NewGlobalStrategy(model, WithTextLimit(100))

	_, err := s.ExtractTriples(context.Background(), strings.Repeat("x", 5000))
	require.NoError(t, err)

	require.Len(t, model.prompts, 1)
	assert.Less(t, len(model.prompts[0]), len(extractionPrompt)+200)
}

func TestSummaryStrategyShortTextSkipsSampling(t *testing.T) {
	model := &scriptedModel{responses: []string{
		"Ada Lovelace wrote the first algorithm for the Analytical Engine.",
		`[{"head": "Ada Lovelace", "relationship": "wrote", "tail": "First Algorithm"}]`,
	}}
	s := NewSummaryStrategy(model)

	triples, err := s.ExtractTriples(context.Background(), "A short document about Ada.")
	require.NoError(t, err)
	require.Len(t, triples, 1)

	// Two calls: summarize, then extract against the summary.
	require.Len(t, model.prompts, 2)
	assert.Contains(t, model.prompts[0], "A short document about Ada.")
	assert.Contains(t, model.prompts[1], "Ada Lovelace wrote the first algorithm")
}

func TestSummaryStrategySamplesLongText(t *testing.T) {
	model := &scriptedModel{responses: []string{"summary", `[]`}}
	s := NewSummaryStrategy(model, WithSummaryThreshold(100), WithSampleSize(10))

	head := strings.Repeat("H", 10)
	middle := strings.Repeat("M", 200)
	tail := strings.Repeat("T", 10)

	_, err := s.ExtractTriples(context.Background(), head+middle+tail)
	require.NoError(t, err)

	require.Len(t, model.prompts, 2)
	assert.Contains(t, model.prompts[0], head)
	assert.Contains(t, model.prompts[0], tail)
	assert.NotContains(t, model.prompts[0], strings.Repeat("M", 50))
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `[1]`, stripFences("```json\n[1]\n```", "json"))
	assert.Equal(t, `[1]`, stripFences("```\n[1]\n```", "json"))
	assert.Equal(t, `[1]`, stripFences("[1]", "json"))
	assert.Equal(t, "MATCH (n) RETURN n", stripFences("```cypher\nMATCH (n) RETURN n\n```", "cypher"))
}

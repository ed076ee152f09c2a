package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/graphrag"
	"github.com/smallnest/graphrag/log"
)

const extractionPrompt = `You are a knowledge graph extraction system.
Extract factual (head, relationship, tail) triples from the text below.

Rules:
1. "head" and "tail" are short entity names: people, places, organizations, works, concepts.
2. "relationship" is a short connecting phrase, e.g. "wrote" or "located in".
3. Respond with ONLY a JSON array, no markdown, of the form:
   [{"head": "...", "relationship": "...", "tail": "..."}]
4. Respond with [] if the text contains no extractable facts.

Text:
%s`

// extractFromText runs one structured-output extraction call and returns
// normalized triples. Zero extracted triples is a valid outcome, not an
// error; a response that fails to parse is an error.
func extractFromText(ctx context.Context, model llms.Model, text string, logger log.Logger) ([]graphrag.Triple, error) {
	raw, err := generate(ctx, model, fmt.Sprintf(extractionPrompt, text))
	if err != nil {
		return nil, fmt.Errorf("extraction call failed: %w", err)
	}

	var parsed []graphrag.Triple
	if err := json.Unmarshal([]byte(stripFences(raw, "json")), &parsed); err != nil {
		return nil, fmt.Errorf("extraction response is not a triple array: %w", err)
	}

	triples := NormalizeTriples(parsed)
	if dropped := len(parsed) - len(triples); dropped > 0 {
		logger.Debug("dropped %d unusable triples after normalization", dropped)
	}
	if len(triples) == 0 {
		logger.Info("no triples extracted")
	}
	return triples, nil
}

// generate sends a single human turn at temperature zero and returns the
// first choice.
func generate(ctx context.Context, model llms.Model, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)},
		llms.WithTemperature(0),
	)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}

// stripFences removes a markdown code fence around a model response.
func stripFences(s, lang string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```"+lang)
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

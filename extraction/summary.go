package extraction

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/graphrag"
	"github.com/smallnest/graphrag/log"
)

const (
	defaultSummaryThreshold  = 50000
	defaultSummarySampleSize = 20000
)

const summaryPrompt = `Condense the following document into a dense factual summary.
Name every person, place, organization and work that appears, and state
how they relate to each other in plain sentences. Do not editorialize.

Document:
%s`

// SummaryStrategy extracts triples in two stages: summarize the
// document, then run triple extraction against the summary. For text
// longer than the threshold only the head and tail are summarized, which
// trades middle-of-document detail for token cost on very long inputs.
type SummaryStrategy struct {
	model      llms.Model
	threshold  int
	sampleSize int
	logger     log.Logger
}

var _ graphrag.TripleExtractor = (*SummaryStrategy)(nil)

// SummaryOption configures a SummaryStrategy.
type SummaryOption func(*SummaryStrategy)

// WithSummaryThreshold sets the text length above which only the head
// and tail samples are summarized.
func WithSummaryThreshold(threshold int) SummaryOption {
	return func(s *SummaryStrategy) {
		if threshold > 0 {
			s.threshold = threshold
		}
	}
}

// WithSampleSize sets how many bytes of head and of tail survive the
// sampling cut.
func WithSampleSize(size int) SummaryOption {
	return func(s *SummaryStrategy) {
		if size > 0 {
			s.sampleSize = size
		}
	}
}

// WithSummaryLogger sets the strategy's logger.
func WithSummaryLogger(logger log.Logger) SummaryOption {
	return func(s *SummaryStrategy) {
		s.logger = logger
	}
}

// NewSummaryStrategy creates a SummaryStrategy over the given model.
func NewSummaryStrategy(model llms.Model, opts ...SummaryOption) *SummaryStrategy {
	s := &SummaryStrategy{
		model:      model,
		threshold:  defaultSummaryThreshold,
		sampleSize: defaultSummarySampleSize,
		logger:     log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExtractTriples summarizes text and extracts normalized triples from
// the summary.
func (s *SummaryStrategy) ExtractTriples(ctx context.Context, text string) ([]graphrag.Triple, error) {
	sample := s.sample(text)

	summary, err := generate(ctx, s.model, fmt.Sprintf(summaryPrompt, sample))
	if err != nil {
		return nil, fmt.Errorf("summarization call failed: %w", err)
	}

	return extractFromText(ctx, s.model, summary, s.logger)
}

// sample returns text unchanged below the threshold, otherwise the first
// and last sampleSize bytes joined with an ellipsis marker.
func (s *SummaryStrategy) sample(text string) string {
	if len(text) <= s.threshold {
		return text
	}
	s.logger.Debug("sampling head and tail (%d bytes each) of %d byte document",
		s.sampleSize, len(text))

	head := text[:s.sampleSize]
	tail := text[len(text)-s.sampleSize:]
	return head + "\n...\n" + tail
}

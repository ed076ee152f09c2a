package extraction

import (
	"context"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/graphrag"
	"github.com/smallnest/graphrag/log"
)

const defaultTextLimit = 100000

// GlobalStrategy extracts triples from the whole document in one LLM
// call. Best context fidelity, bounded by the model's context window:
// text beyond the limit is truncated, not split.
type GlobalStrategy struct {
	model     llms.Model
	textLimit int
	logger    log.Logger
}

var _ graphrag.TripleExtractor = (*GlobalStrategy)(nil)

// GlobalOption configures a GlobalStrategy.
type GlobalOption func(*GlobalStrategy)

// WithTextLimit caps how many bytes of document text are sent to the
// model.
func WithTextLimit(limit int) GlobalOption {
	return func(s *GlobalStrategy) {
		if limit > 0 {
			s.textLimit = limit
		}
	}
}

// WithGlobalLogger sets the strategy's logger.
func WithGlobalLogger(logger log.Logger) GlobalOption {
	return func(s *GlobalStrategy) {
		s.logger = logger
	}
}

// NewGlobalStrategy creates a GlobalStrategy over the given model.
func NewGlobalStrategy(model llms.Model, opts ...GlobalOption) *GlobalStrategy {
	s := &GlobalStrategy{
		model:     model,
		textLimit: defaultTextLimit,
		logger:    log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExtractTriples extracts normalized triples from text.
func (s *GlobalStrategy) ExtractTriples(ctx context.Context, text string) ([]graphrag.Triple, error) {
	if len(text) > s.textLimit {
		s.logger.Warn("document text truncated from %d to %d bytes for extraction",
			len(text), s.textLimit)
		text = text[:s.textLimit]
	}
	return extractFromText(ctx, s.model, text, s.logger)
}

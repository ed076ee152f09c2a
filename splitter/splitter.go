// Package splitter cuts cleaned document text into bounded, overlapping
// chunks for embedding.
package splitter

import (
	"strings"

	"github.com/smallnest/graphrag"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 100
)

// TextSplitter splits text at sentence or word boundaries close to the
// chunk size, with a fixed overlap between consecutive chunks. Split is a
// pure function of its input: the same text always yields the same chunks.
type TextSplitter struct {
	chunkSize    int
	chunkOverlap int
}

// Option configures a TextSplitter.
type Option func(*TextSplitter)

// WithChunkSize sets the maximum chunk length in bytes.
func WithChunkSize(size int) Option {
	return func(s *TextSplitter) {
		s.chunkSize = size
	}
}

// WithChunkOverlap sets how many bytes consecutive chunks share.
func WithChunkOverlap(overlap int) Option {
	return func(s *TextSplitter) {
		s.chunkOverlap = overlap
	}
}

// NewTextSplitter creates a TextSplitter. Invalid combinations fall back
// to defaults so a splitter can never loop or emit empty progress.
func NewTextSplitter(opts ...Option) *TextSplitter {
	s := &TextSplitter{
		chunkSize:    defaultChunkSize,
		chunkOverlap: defaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.chunkSize <= 0 {
		s.chunkSize = defaultChunkSize
	}
	if s.chunkOverlap < 0 || s.chunkOverlap >= s.chunkSize {
		s.chunkOverlap = s.chunkSize / 10
	}
	return s
}

// Split cuts text into chunks of at most the configured size.
//
// Each round takes a window of chunkSize bytes, then searches backward for
// the last sentence boundary (". "), falling back to the last space. The
// boundary is accepted only when it lies strictly past the overlap, which
// keeps the next cursor position ahead of the current one. When even the
// forced boundary would stall the cursor, it advances by
// max(1, chunkSize-overlap), so the loop always terminates.
func (s *TextSplitter) Split(text string) []string {
	var chunks []string

	start := 0
	for start < len(text) {
		end := start + s.chunkSize
		if end > len(text) {
			end = len(text)
		}

		if end < len(text) {
			window := text[start:end]
			cut := strings.LastIndex(window, ". ")
			if cut == -1 {
				cut = strings.LastIndex(window, " ")
			}
			if cut > s.chunkOverlap {
				end = start + cut + 1
			}
		}

		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := end - s.chunkOverlap
		if next <= start {
			advance := s.chunkSize - s.chunkOverlap
			if advance < 1 {
				advance = 1
			}
			next = start + advance
		}
		start = next
	}

	return chunks
}

// SplitDocument splits text and wraps the chunks with their stable
// sequence indices and owning metadata.
func (s *TextSplitter) SplitDocument(text, sourceKey, ownerID string) []graphrag.Chunk {
	parts := s.Split(text)
	chunks := make([]graphrag.Chunk, len(parts))
	for i, part := range parts {
		chunks[i] = graphrag.Chunk{
			Text:          part,
			SequenceIndex: i,
			SourceKey:     sourceKey,
			OwnerID:       ownerID,
		}
	}
	return chunks
}

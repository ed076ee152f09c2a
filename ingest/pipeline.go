// Package ingest drives the indexing pipeline: blob to text to chunks
// to vectors, with knowledge-graph extraction on the side. Each
// document moves through the registry status lifecycle
// uploaded -> indexing -> ready or failed, and one failing document
// never stops the rest of a batch.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/smallnest/graphrag"
	"github.com/smallnest/graphrag/extract"
	"github.com/smallnest/graphrag/log"
	"github.com/smallnest/graphrag/splitter"
)

const defaultEmbedBatchSize = 50

// Deps are the storage and model backends a Pipeline writes to.
type Deps struct {
	Blobs     graphrag.BlobStore
	Registry  graphrag.DocumentRegistry
	Vectors   graphrag.VectorStore
	Graph     graphrag.GraphStore
	Embedder  graphrag.Embedder
	Extractor graphrag.TripleExtractor
}

// Pipeline indexes uploaded documents into the vector and graph stores.
type Pipeline struct {
	deps           Deps
	splitter       *splitter.TextSplitter
	embedBatchSize int
	logger         log.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSplitter replaces the default text splitter.
func WithSplitter(s *splitter.TextSplitter) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.splitter = s
		}
	}
}

// WithEmbedBatchSize sets how many chunks are embedded per model call.
func WithEmbedBatchSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.embedBatchSize = n
		}
	}
}

// WithLogger sets the pipeline's logger.
func WithLogger(logger log.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline creates a Pipeline over the given backends.
func NewPipeline(deps Deps, opts ...Option) *Pipeline {
	p := &Pipeline{
		deps:           deps,
		splitter:       splitter.NewTextSplitter(),
		embedBatchSize: defaultEmbedBatchSize,
		logger:         log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Upload stores raw document bytes and registers the document as
// uploaded. It returns the storage key later passed to ProcessBatch.
func (p *Pipeline) Upload(ctx context.Context, ownerID, filename string, data []byte) (string, error) {
	if ownerID == "" {
		ownerID = graphrag.DefaultOwner
	}
	key := graphrag.MakeStorageKey(ownerID, filename)

	if err := p.deps.Blobs.Put(ctx, key, data); err != nil {
		return "", fmt.Errorf("storing blob %s: %w", key, err)
	}
	if err := p.deps.Registry.Register(ctx, graphrag.Document{
		StorageKey: key,
		OwnerID:    ownerID,
		Filename:   filename,
		Status:     graphrag.StatusUploaded,
		UpdatedAt:  time.Now(),
	}); err != nil {
		return "", fmt.Errorf("registering document %s: %w", key, err)
	}

	p.logger.Info("uploaded %s (%d bytes) as %s", filename, len(data), key)
	return key, nil
}

// BatchResult reports the outcome of one ProcessBatch call.
type BatchResult struct {
	Status         string   `json:"status"`
	FilesProcessed []string `json:"filesProcessed"`
}

// BatchStatus values reported by ProcessBatch.
const (
	BatchSuccess = "success"
	BatchPartial = "partial"
)

// ProcessBatch indexes each storage key in turn. A document that fails
// is marked failed and the batch moves on; the result lists the keys
// that reached ready.
func (p *Pipeline) ProcessBatch(ctx context.Context, keys []string) BatchResult {
	result := BatchResult{Status: BatchSuccess, FilesProcessed: []string{}}
	for _, key := range keys {
		if err := p.processOne(ctx, key); err != nil {
			p.logger.Error("indexing %s failed: %v", key, err)
			p.setStatus(ctx, key, graphrag.StatusFailed)
			result.Status = BatchPartial
			continue
		}
		result.FilesProcessed = append(result.FilesProcessed, key)
	}
	return result
}

func (p *Pipeline) processOne(ctx context.Context, key string) error {
	ownerID := graphrag.OwnerFromKey(key)
	p.setStatus(ctx, key, graphrag.StatusIndexing)

	data, err := p.deps.Blobs.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("loading blob: %w", err)
	}

	text, err := extract.ByExtension(path.Base(key), data)
	if errors.Is(err, graphrag.ErrEmptyDocument) {
		p.logger.Warn("document %s has no extractable text, nothing to index", key)
		p.setChunkCount(ctx, key, 0)
		p.setStatus(ctx, key, graphrag.StatusReady)
		return nil
	}
	if err != nil {
		return fmt.Errorf("extracting text: %w", err)
	}
	text = extract.Clean(text)

	// Graph extraction failures degrade to a vector-only document.
	if triples, err := p.deps.Extractor.ExtractTriples(ctx, text); err != nil {
		p.logger.Warn("triple extraction for %s failed, skipping graph: %v", key, err)
	} else if len(triples) > 0 {
		if err := p.deps.Graph.UpsertTriples(ctx, triples, ownerID, key); err != nil {
			p.logger.Warn("graph upsert for %s failed, skipping graph: %v", key, err)
		} else {
			p.logger.Info("stored %d triples for %s", len(triples), key)
		}
	}

	chunks := p.splitter.SplitDocument(text, key, ownerID)
	stored, err := p.embedAndStore(ctx, ownerID, chunks)
	if err != nil {
		return err
	}

	p.setChunkCount(ctx, key, stored)
	p.setStatus(ctx, key, graphrag.StatusReady)
	p.logger.Info("indexed %s: %d of %d chunks stored", key, stored, len(chunks))
	return nil
}

// embedAndStore embeds chunks in batches and upserts them. A failing
// batch is logged and skipped; the document only fails when every
// batch fails.
func (p *Pipeline) embedAndStore(ctx context.Context, ownerID string, chunks []graphrag.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	stored := 0
	failures := 0
	for start := 0; start < len(chunks); start += p.embedBatchSize {
		end := start + p.embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		vectors, err := p.deps.Embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			p.logger.Warn("embedding batch at chunk %d failed: %v", start, err)
			failures++
			continue
		}

		records := make([]graphrag.VectorRecord, len(batch))
		for i, c := range batch {
			records[i] = graphrag.VectorRecord{
				ID:     graphrag.ChunkRecordID(c.SourceKey, c.SequenceIndex),
				Vector: vectors[i],
				Metadata: map[string]any{
					"text":       c.Text,
					"source":     c.SourceKey,
					"user_email": c.OwnerID,
				},
			}
		}
		if err := p.deps.Vectors.Upsert(ctx, ownerID, records); err != nil {
			p.logger.Warn("vector upsert at chunk %d failed: %v", start, err)
			failures++
			continue
		}
		stored += len(batch)
	}

	if stored == 0 && failures > 0 {
		return 0, fmt.Errorf("no chunks could be stored")
	}
	return stored, nil
}

// DeleteResult reports which backends a delete reached.
type DeleteResult struct {
	Key            string `json:"key"`
	VectorsDeleted bool   `json:"vectorsDeleted"`
	GraphDeleted   bool   `json:"graphDeleted"`
}

// Complete reports whether every backend confirmed the delete.
func (r DeleteResult) Complete() bool {
	return r.VectorsDeleted && r.GraphDeleted
}

// Delete removes a document everywhere it was indexed. The blob delete
// is authoritative and aborts on failure; vector and graph cleanup are
// best effort, with the result reporting what succeeded. There is no
// transaction across the three stores.
func (p *Pipeline) Delete(ctx context.Context, key string) (DeleteResult, error) {
	result := DeleteResult{Key: key}
	ownerID := graphrag.OwnerFromKey(key)

	if err := p.deps.Blobs.Delete(ctx, key); err != nil {
		return result, fmt.Errorf("deleting blob %s: %w", key, err)
	}

	if err := p.deps.Vectors.DeleteBySource(ctx, ownerID, key); err != nil {
		p.logger.Warn("vector cleanup for %s failed: %v", key, err)
	} else {
		result.VectorsDeleted = true
	}

	if err := p.deps.Graph.DeleteBySource(ctx, key); err != nil {
		p.logger.Warn("graph cleanup for %s failed: %v", key, err)
	} else {
		result.GraphDeleted = true
	}

	if err := p.deps.Registry.Delete(ctx, key); err != nil && !errors.Is(err, graphrag.ErrNotFound) {
		p.logger.Warn("registry cleanup for %s failed: %v", key, err)
	}

	return result, nil
}

func (p *Pipeline) setStatus(ctx context.Context, key string, status graphrag.Status) {
	if err := p.deps.Registry.SetStatus(ctx, key, status); err != nil {
		p.logger.Warn("setting status %s on %s failed: %v", status, key, err)
	}
}

func (p *Pipeline) setChunkCount(ctx context.Context, key string, n int) {
	if err := p.deps.Registry.SetChunkCount(ctx, key, n); err != nil {
		p.logger.Warn("recording chunk count on %s failed: %v", key, err)
	}
}

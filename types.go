package graphrag

import (
	"context"
	"errors"
	"time"
)

// Status is the externally visible lifecycle state of a stored document.
// It is written by the ingestion pipeline and polled by UI clients.
type Status string

const (
	StatusUploaded Status = "uploaded"
	StatusIndexing Status = "indexing"
	StatusReady    Status = "ready"
	StatusFailed   Status = "failed"
)

// Sentinel errors callers are expected to branch on.
var (
	// ErrEmptyDocument marks a document whose pages yielded no text at
	// all. It is distinct from an extraction failure: empty documents are
	// skipped, not marked failed.
	ErrEmptyDocument = errors.New("document contains no extractable text")

	// ErrMissingField marks a request missing a required field. Handlers
	// map it to a client error before any store is touched.
	ErrMissingField = errors.New("missing required field")

	// ErrNotFound marks a lookup for a key that was never registered.
	ErrNotFound = errors.New("not found")
)

// Document describes one stored file and its indexing state.
type Document struct {
	StorageKey string    `json:"storage_key"`
	OwnerID    string    `json:"owner_id"`
	Filename   string    `json:"filename"`
	Status     Status    `json:"status"`
	ChunkCount int       `json:"chunk_count"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Chunk is one bounded, overlapping segment of a document's cleaned text.
// Chunks are ephemeral: they exist between splitting and vector upsert.
type Chunk struct {
	Text          string
	SequenceIndex int
	SourceKey     string
	OwnerID       string
}

// VectorRecord is the unit of storage in a vector store namespace. The ID
// is derived from the source key and chunk index, so re-ingesting the same
// document overwrites records instead of duplicating them.
type VectorRecord struct {
	ID       string
	Vector   []float32
	Metadata map[string]any
}

// VectorMatch is one ranked similarity hit.
type VectorMatch struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// QueryFilter restricts a vector search. HasSource drops records that do
// not carry a source metadata field; Source additionally requires an exact
// match when non-empty.
type QueryFilter struct {
	HasSource bool
	Source    string
}

// Triple is one (head, relation, tail) fact extracted from text. Relation
// is stored already normalized (upper case, underscores, alphanumeric only).
type Triple struct {
	Head     string `json:"head"`
	Relation string `json:"relationship"`
	Tail     string `json:"tail"`
}

// ResultType tags the origin of a retrieval result.
type ResultType string

const (
	ResultTypeVector ResultType = "vector"
	ResultTypeGraph  ResultType = "graph"
)

// RetrievalResult is the unified shape both retrieval legs produce. Graph
// facts carry a fixed score of 1.0; vector hits carry the similarity score.
type RetrievalResult struct {
	Type    ResultType `json:"type"`
	Content string     `json:"content"`
	Score   float64    `json:"score"`
	Source  string     `json:"source"`
}

// GraphValueKind classifies one cell of a graph query row.
type GraphValueKind int

const (
	GraphValueNode GraphValueKind = iota
	GraphValueRelationship
	GraphValueScalar
)

// GraphValue is the tagged union a graph store decodes query rows into:
// a node (Label + display text), a relationship (Label = edge type), or a
// bare scalar.
type GraphValue struct {
	Kind  GraphValueKind
	Label string
	Text  string
}

// Embedder converts text into fixed-length vectors. Document and query
// embeddings are separate calls because some backing models condition on
// the usage role.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore wraps a vector index. Every call is scoped to a namespace,
// which equals the owner id so users never share a similarity search.
type VectorStore interface {
	Upsert(ctx context.Context, namespace string, records []VectorRecord) error
	Query(ctx context.Context, namespace string, vector []float32, topK int, filter QueryFilter) ([]VectorMatch, error)
	DeleteBySource(ctx context.Context, namespace, sourceKey string) error
}

// GraphStore wraps a graph database. Nodes are merged on (id, ownerID) and
// tagged with the first source document they were observed in.
type GraphStore interface {
	UpsertTriples(ctx context.Context, triples []Triple, ownerID, sourceKey string) error
	QueryRaw(ctx context.Context, query string) ([][]GraphValue, error)
	DeleteBySource(ctx context.Context, sourceKey string) error
}

// BlobStore stages uploaded document bytes.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// DocumentRegistry tracks documents and their status tags. SetStatus is
// called best-effort by the ingestion pipeline: a failed write is logged
// by the caller, never escalated.
type DocumentRegistry interface {
	Register(ctx context.Context, doc Document) error
	SetStatus(ctx context.Context, storageKey string, status Status) error
	SetChunkCount(ctx context.Context, storageKey string, n int) error
	Get(ctx context.Context, storageKey string) (Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Document, error)
	Delete(ctx context.Context, storageKey string) error
}

// TripleExtractor turns raw document text into normalized triples. The two
// implementations (global and summary-first) are selected by configuration.
type TripleExtractor interface {
	ExtractTriples(ctx context.Context, text string) ([]Triple, error)
}

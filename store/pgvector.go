package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smallnest/graphrag"
)

// DBPool is the subset of pgxpool.Pool the vector store needs. Tests
// substitute a pgxmock pool.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PgVectorStore implements graphrag.VectorStore on PostgreSQL with the
// pgvector extension. Records live in one table with a (namespace, id)
// primary key; upserts overwrite on conflict, which keeps re-ingestion
// idempotent per chunk slot.
type PgVectorStore struct {
	pool      DBPool
	tableName string
}

var _ graphrag.VectorStore = (*PgVectorStore)(nil)

// PgVectorOptions configures the PostgreSQL connection.
type PgVectorOptions struct {
	ConnString string
	TableName  string // default "chunks"
}

// NewPgVectorStore connects to PostgreSQL and returns the store.
func NewPgVectorStore(ctx context.Context, opts PgVectorOptions) (*PgVectorStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return NewPgVectorStoreWithPool(pool, opts.TableName), nil
}

// NewPgVectorStoreWithPool wraps an existing pool. Useful for testing
// with mocks.
func NewPgVectorStoreWithPool(pool DBPool, tableName string) *PgVectorStore {
	if tableName == "" {
		tableName = "chunks"
	}
	return &PgVectorStore{pool: pool, tableName: tableName}
}

// InitSchema creates the extension and table if they do not exist.
// dimension fixes the vector column width and must match the embedder.
func (s *PgVectorStore) InitSchema(ctx context.Context, dimension int) error {
	query := fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS %s (
			namespace TEXT NOT NULL,
			id TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			metadata JSONB NOT NULL,
			PRIMARY KEY (namespace, id)
		);
		CREATE INDEX IF NOT EXISTS idx_%s_source ON %s ((metadata->>'source'));
	`, s.tableName, dimension, s.tableName, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PgVectorStore) Close() {
	s.pool.Close()
}

// Upsert writes records into the namespace, overwriting on (namespace, id).
func (s *PgVectorStore) Upsert(ctx context.Context, namespace string, records []graphrag.VectorRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (namespace, id, embedding, metadata)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (namespace, id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata
	`, s.tableName)

	for _, r := range records {
		metadataJSON, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for %s: %w", r.ID, err)
		}
		if _, err := s.pool.Exec(ctx, query, namespace, r.ID, vectorLiteral(r.Vector), metadataJSON); err != nil {
			return fmt.Errorf("failed to upsert record %s: %w", r.ID, err)
		}
	}
	return nil
}

// Query returns the topK nearest records by cosine distance.
func (s *PgVectorStore) Query(ctx context.Context, namespace string, vector []float32, topK int, filter graphrag.QueryFilter) ([]graphrag.VectorMatch, error) {
	var conditions []string
	args := []any{vectorLiteral(vector), namespace}

	if filter.HasSource {
		conditions = append(conditions, "metadata ? 'source'")
	}
	if filter.Source != "" {
		args = append(args, filter.Source)
		conditions = append(conditions, fmt.Sprintf("metadata->>'source' = $%d", len(args)))
	}

	where := "namespace = $2"
	if len(conditions) > 0 {
		where += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT id, metadata, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE %s
		ORDER BY embedding <=> $1
		LIMIT %d
	`, s.tableName, where, topK)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}
	defer rows.Close()

	var matches []graphrag.VectorMatch
	for rows.Next() {
		var m graphrag.VectorMatch
		var metadataJSON []byte
		if err := rows.Scan(&m.ID, &metadataJSON, &m.Score); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		if err := json.Unmarshal(metadataJSON, &m.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", m.ID, err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match rows: %w", err)
	}
	return matches, nil
}

// DeleteBySource removes all records of one source document from the
// namespace.
func (s *PgVectorStore) DeleteBySource(ctx context.Context, namespace, sourceKey string) error {
	query := fmt.Sprintf(
		"DELETE FROM %s WHERE namespace = $1 AND metadata->>'source' = $2", s.tableName)
	if _, err := s.pool.Exec(ctx, query, namespace, sourceKey); err != nil {
		return fmt.Errorf("failed to delete by source: %w", err)
	}
	return nil
}

// vectorLiteral renders a vector in pgvector's text input format.
func vectorLiteral(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(float64(f), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

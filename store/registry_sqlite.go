package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/smallnest/graphrag"
)

// SQLiteRegistry tracks documents and their status tags in a sqlite
// database. It is the side-channel UI clients poll for ingestion
// progress.
type SQLiteRegistry struct {
	db *sql.DB
}

var _ graphrag.DocumentRegistry = (*SQLiteRegistry)(nil)

// NewSQLiteRegistry opens (or creates) the registry database. Use
// ":memory:" for an ephemeral registry.
func NewSQLiteRegistry(path string) (*SQLiteRegistry, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			storage_key TEXT PRIMARY KEY,
			owner_id    TEXT NOT NULL,
			filename    TEXT NOT NULL,
			status      TEXT NOT NULL,
			chunk_count INTEGER NOT NULL DEFAULT 0,
			updated_at  TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents (owner_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create registry schema: %w", err)
	}
	return &SQLiteRegistry{db: db}, nil
}

// Close closes the database.
func (r *SQLiteRegistry) Close() error {
	return r.db.Close()
}

// Register inserts or replaces a document row.
func (r *SQLiteRegistry) Register(ctx context.Context, doc graphrag.Document) error {
	if doc.Status == "" {
		doc.Status = graphrag.StatusUploaded
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (storage_key, owner_id, filename, status, chunk_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (storage_key) DO UPDATE SET
			owner_id = excluded.owner_id,
			filename = excluded.filename,
			status = excluded.status,
			chunk_count = excluded.chunk_count,
			updated_at = excluded.updated_at
	`, doc.StorageKey, doc.OwnerID, doc.Filename, string(doc.Status), doc.ChunkCount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("register document: %w", err)
	}
	return nil
}

// SetStatus updates the status tag. Unknown keys are registered on the
// fly so status writes stay best-effort even when upload bookkeeping was
// bypassed.
func (r *SQLiteRegistry) SetStatus(ctx context.Context, storageKey string, status graphrag.Status) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE documents SET status = ?, updated_at = ? WHERE storage_key = ?",
		string(status), time.Now().UTC(), storageKey)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return r.Register(ctx, graphrag.Document{
			StorageKey: storageKey,
			OwnerID:    graphrag.OwnerFromKey(storageKey),
			Filename:   storageKey,
			Status:     status,
		})
	}
	return nil
}

// SetChunkCount records how many chunks the last ingestion produced.
// A drop in this number across re-ingestions means stale higher-index
// vector records may remain in the namespace.
func (r *SQLiteRegistry) SetChunkCount(ctx context.Context, storageKey string, n int) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE documents SET chunk_count = ?, updated_at = ? WHERE storage_key = ?",
		n, time.Now().UTC(), storageKey)
	if err != nil {
		return fmt.Errorf("set chunk count: %w", err)
	}
	return nil
}

// Get looks up one document.
func (r *SQLiteRegistry) Get(ctx context.Context, storageKey string) (graphrag.Document, error) {
	var doc graphrag.Document
	var status string
	err := r.db.QueryRowContext(ctx, `
		SELECT storage_key, owner_id, filename, status, chunk_count, updated_at
		FROM documents WHERE storage_key = ?
	`, storageKey).Scan(&doc.StorageKey, &doc.OwnerID, &doc.Filename, &status, &doc.ChunkCount, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return graphrag.Document{}, fmt.Errorf("document %s: %w", storageKey, graphrag.ErrNotFound)
		}
		return graphrag.Document{}, fmt.Errorf("get document: %w", err)
	}
	doc.Status = graphrag.Status(status)
	return doc, nil
}

// ListByOwner returns the owner's documents, most recently updated first.
func (r *SQLiteRegistry) ListByOwner(ctx context.Context, ownerID string) ([]graphrag.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT storage_key, owner_id, filename, status, chunk_count, updated_at
		FROM documents WHERE owner_id = ?
		ORDER BY updated_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []graphrag.Document
	for rows.Next() {
		var doc graphrag.Document
		var status string
		if err := rows.Scan(&doc.StorageKey, &doc.OwnerID, &doc.Filename, &status, &doc.ChunkCount, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		doc.Status = graphrag.Status(status)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document rows: %w", err)
	}
	return docs, nil
}

// Delete removes a document row.
func (r *SQLiteRegistry) Delete(ctx context.Context, storageKey string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE storage_key = ?", storageKey)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

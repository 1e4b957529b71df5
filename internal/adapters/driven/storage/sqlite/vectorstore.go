package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
)

// Ensure VectorStore implements the interfaces.
var (
	_ driven.VectorStore    = (*VectorStore)(nil)
	_ driven.VectorSearcher = (*VectorStore)(nil)
)

// VectorStore keeps pack chunks in the chunks table. Scans follow the
// primary key, so pages are ordered by document id.
type VectorStore struct {
	store *Store
}

// Upsert inserts or overwrites chunks in a single transaction.
func (s *VectorStore) Upsert(ctx context.Context, collection string, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("beginning upsert", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := formatTime(time.Now())
	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO collections (name, created_at) VALUES (?, ?)", collection, now); err != nil {
		return storeError("creating collection", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (collection, document_id, text, metadata, embedding, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, document_id) DO UPDATE SET
			text = excluded.text,
			metadata = excluded.metadata,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return storeError("preparing upsert", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		meta, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata for %s: %w", c.DocumentID, err)
		}
		if _, err := stmt.ExecContext(ctx, collection, c.DocumentID, c.Text, string(meta),
			float32SliceToBytes(c.Embedding), now); err != nil {
			return storeError("upserting chunk "+c.DocumentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeError("committing upsert", err)
	}
	return nil
}

// Scan returns up to limit chunks with ids strictly greater than cursor.
func (s *VectorStore) Scan(ctx context.Context, collection, cursor string, limit int) ([]domain.Chunk, string, error) {
	if err := s.requireCollection(ctx, collection); err != nil {
		return nil, "", err
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_id, text, metadata, embedding
		FROM chunks
		WHERE collection = ? AND document_id > ?
		ORDER BY document_id
		LIMIT ?
	`, collection, cursor, limit)
	if err != nil {
		return nil, "", storeError("scanning chunks", err)
	}
	defer rows.Close()

	page := make([]domain.Chunk, 0, limit)
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, "", err
		}
		page = append(page, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, "", storeError("iterating chunks", err)
	}

	next := ""
	if len(page) == limit && limit > 0 {
		next = page[len(page)-1].DocumentID
	}
	return page, next, nil
}

// Search ranks every chunk in the collection by cosine similarity.
func (s *VectorStore) Search(ctx context.Context, collection string, query []float32, k int) ([]driven.VectorHit, error) {
	if err := s.requireCollection(ctx, collection); err != nil {
		return nil, err
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_id, text, metadata, embedding
		FROM chunks
		WHERE collection = ?
	`, collection)
	if err != nil {
		return nil, storeError("querying chunks", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		hits = append(hits, driven.VectorHit{Chunk: *c, Score: domain.CosineSimilarity(query, c.Embedding)})
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterating chunks", err)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.DocumentID < hits[j].Chunk.DocumentID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// DeleteCollection removes a collection and all of its chunks.
func (s *VectorStore) DeleteCollection(ctx context.Context, collection string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("beginning delete", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE collection = ?", collection); err != nil {
		return storeError("deleting chunks", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", collection); err != nil {
		return storeError("deleting collection", err)
	}
	if err := tx.Commit(); err != nil {
		return storeError("committing delete", err)
	}
	return nil
}

// Count returns the number of chunks in a collection.
func (s *VectorStore) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE collection = ?", collection).Scan(&n)
	if err != nil {
		return 0, storeError("counting chunks", err)
	}
	return n, nil
}

// Close is a no-op. The owning Store closes the database.
func (s *VectorStore) Close() error {
	return nil
}

func (s *VectorStore) requireCollection(ctx context.Context, collection string) error {
	var name string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT name FROM collections WHERE name = ?", collection).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("collection %s: %w", collection, domain.ErrNotFound)
	}
	if err != nil {
		return storeError("looking up collection", err)
	}
	return nil
}

// scanChunk scans a chunk from *sql.Rows.
func scanChunk(rows *sql.Rows) (*domain.Chunk, error) {
	var c domain.Chunk
	var meta string
	var embedding []byte
	if err := rows.Scan(&c.DocumentID, &c.Text, &meta, &embedding); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	if err := json.Unmarshal([]byte(meta), &c.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata for %s: %w", c.DocumentID, err)
	}
	if c.Metadata == nil {
		c.Metadata = make(map[string]any)
	}
	c.Embedding = bytesToFloat32Slice(embedding)
	return &c, nil
}

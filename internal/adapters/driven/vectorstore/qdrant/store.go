package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
)

// Ensure VectorStore implements the interfaces.
var (
	_ driven.VectorStore    = (*VectorStore)(nil)
	_ driven.VectorSearcher = (*VectorStore)(nil)
)

// Payload keys.
const (
	payloadDocumentID = "document_id"
	payloadText       = "text"
	payloadMetadata   = "metadata"
)

// VectorStore keeps pack chunks in Qdrant collections.
type VectorStore struct {
	client *client

	mu    sync.Mutex
	known map[string]bool
}

// NewVectorStore creates a Qdrant-backed vector store.
func NewVectorStore(cfg Config) *VectorStore {
	return &VectorStore{
		client: newClient(cfg),
		known:  make(map[string]bool),
	}
}

// Upsert writes chunks as points, creating the collection on first use.
// The collection's vector size is taken from the first chunk.
func (s *VectorStore) Upsert(ctx context.Context, collection string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := s.ensure(ctx, collection, len(chunks[0].Embedding)); err != nil {
		return err
	}

	points := make([]point, len(chunks))
	for i, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding: %w", c.DocumentID, domain.ErrInvalidInput)
		}
		meta := c.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		points[i] = point{
			ID:     pointID(c.DocumentID),
			Vector: c.Embedding,
			Payload: map[string]any{
				payloadDocumentID: c.DocumentID,
				payloadText:       c.Text,
				payloadMetadata:   meta,
			},
		}
	}
	return s.client.upsertPoints(ctx, collection, points)
}

// Scan returns up to limit chunks whose point ids follow cursor.
// Qdrant's scroll offset is inclusive, so one extra point is requested and
// the cursor point itself is dropped. Cursors are point ids, so anything
// other than a UUID is rejected before a request is made.
func (s *VectorStore) Scan(ctx context.Context, collection, cursor string, limit int) ([]domain.Chunk, string, error) {
	if cursor != "" {
		if err := uuid.Validate(cursor); err != nil {
			return nil, "", fmt.Errorf("%w: cursor %q is not a point id", domain.ErrInvalidInput, cursor)
		}
	}
	result, err := s.client.scroll(ctx, collection, cursor, limit+1, true)
	if err != nil {
		return nil, "", err
	}

	pts := result.Points
	if cursor != "" && len(pts) > 0 && pts[0].ID == cursor {
		pts = pts[1:]
	}
	if len(pts) > limit {
		pts = pts[:limit]
	}

	page := make([]domain.Chunk, len(pts))
	for i, p := range pts {
		page[i] = chunkFromPoint(p)
	}
	next := ""
	if len(pts) == limit && limit > 0 {
		next = pts[len(pts)-1].ID
	}
	return page, next, nil
}

// Search runs a cosine similarity query against the collection.
func (s *VectorStore) Search(ctx context.Context, collection string, query []float32, k int) ([]driven.VectorHit, error) {
	body := map[string]any{
		"vector":       query,
		"limit":        k,
		"with_payload": true,
	}
	var result []point
	if err := s.client.do(ctx, http.MethodPost, collectionPath(collection)+"/points/search", body, &result); err != nil {
		return nil, err
	}

	hits := make([]driven.VectorHit, len(result))
	for i, p := range result {
		hits[i] = driven.VectorHit{Chunk: chunkFromPoint(p), Score: p.Score}
	}
	return hits, nil
}

// DeleteCollection drops the collection. A missing collection is not an error.
func (s *VectorStore) DeleteCollection(ctx context.Context, collection string) error {
	s.mu.Lock()
	delete(s.known, collection)
	s.mu.Unlock()

	err := s.client.do(ctx, http.MethodDelete, collectionPath(collection), nil, nil)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

// Close releases idle connections.
func (s *VectorStore) Close() error {
	s.client.http.CloseIdleConnections()
	return nil
}

func (s *VectorStore) ensure(ctx context.Context, collection string, size int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.known[collection] {
		return nil
	}
	if err := s.client.ensureCollection(ctx, collection, size); err != nil {
		return err
	}
	s.known[collection] = true
	return nil
}

func chunkFromPoint(p point) domain.Chunk {
	c := domain.Chunk{
		Embedding: p.Vector,
		Metadata:  map[string]any{},
	}
	if id, ok := p.Payload[payloadDocumentID].(string); ok {
		c.DocumentID = id
	}
	if text, ok := p.Payload[payloadText].(string); ok {
		c.Text = text
	}
	if meta, ok := p.Payload[payloadMetadata].(map[string]any); ok {
		c.Metadata = meta
	}
	return c
}

package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
)

// Ensure VectorStore implements the interfaces.
var (
	_ driven.VectorStore    = (*VectorStore)(nil)
	_ driven.VectorSearcher = (*VectorStore)(nil)
)

// VectorStore is an in-memory implementation of driven.VectorStore.
// Scans are ordered lexicographically by document id.
type VectorStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]domain.Chunk
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		collections: make(map[string]map[string]domain.Chunk),
	}
}

// Upsert inserts or overwrites chunks keyed by document id.
func (s *VectorStore) Upsert(ctx context.Context, collection string, chunks []domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]domain.Chunk)
		s.collections[collection] = docs
	}
	for _, c := range chunks {
		c.Metadata = maps.Clone(c.Metadata)
		c.Embedding = slices.Clone(c.Embedding)
		docs[c.DocumentID] = c
	}
	return nil
}

// Scan returns up to limit chunks with ids strictly greater than cursor.
func (s *VectorStore) Scan(ctx context.Context, collection, cursor string, limit int) ([]domain.Chunk, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs, ok := s.collections[collection]
	if !ok {
		return nil, "", domain.ErrNotFound
	}

	ids := make([]string, 0, len(docs))
	for id := range docs {
		if id > cursor {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}

	page := make([]domain.Chunk, len(ids))
	for i, id := range ids {
		page[i] = docs[id]
	}
	next := ""
	if len(page) == limit && limit > 0 {
		next = ids[len(ids)-1]
	}
	return page, next, nil
}

// Search ranks every chunk in the collection by cosine similarity.
func (s *VectorStore) Search(ctx context.Context, collection string, query []float32, k int) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs, ok := s.collections[collection]
	if !ok {
		return nil, domain.ErrNotFound
	}

	hits := make([]driven.VectorHit, 0, len(docs))
	for _, c := range docs {
		hits = append(hits, driven.VectorHit{Chunk: c, Score: domain.CosineSimilarity(query, c.Embedding)})
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

// DeleteCollection removes a collection and everything in it.
func (s *VectorStore) DeleteCollection(_ context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, collection)
	return nil
}

// Count returns the number of chunks in a collection.
func (s *VectorStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

// Close is a no-op for the memory store.
func (s *VectorStore) Close() error {
	return nil
}

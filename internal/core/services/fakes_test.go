package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driven/storage/memory"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
)

// --- Test doubles shared by the service tests ---

// fakeEmbedder returns a two-dimensional vector derived from the text.
type fakeEmbedder struct {
	calls atomic.Int32
	// failFor makes EmbedBatch fail while it returns true.
	failFor func(texts []string) bool
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

func (e *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	if e.failFor != nil && e.failFor(texts) {
		return nil, fmt.Errorf("%w: injected", domain.ErrEmbeddingFailure)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.Embed(ctx, t)
	}
	return out, nil
}

func (e *fakeEmbedder) Dimensions() int              { return 2 }
func (e *fakeEmbedder) ModelName() string            { return "fake" }
func (e *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (e *fakeEmbedder) Close() error                 { return nil }

// fakeFetcher serves fixed documents by URL.
type fakeFetcher struct {
	docs  map[string]domain.SourceDocument
	calls atomic.Int32
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*domain.SourceDocument, error) {
	f.calls.Add(1)
	doc, ok := f.docs[url]
	if !ok {
		return nil, fmt.Errorf("fetch %s: %w", url, domain.ErrNotFound)
	}
	return &doc, nil
}

// countingStore wraps the memory store, counts calls and injects failures.
type countingStore struct {
	*memory.VectorStore

	upserts atomic.Int32
	scans   atomic.Int32
	deletes atomic.Int32

	mu        sync.Mutex
	upsertErr func(chunks []domain.Chunk) error
	scanErr   error
}

func newCountingStore() *countingStore {
	return &countingStore{VectorStore: memory.NewVectorStore()}
}

func (s *countingStore) Upsert(ctx context.Context, collection string, chunks []domain.Chunk) error {
	s.upserts.Add(1)
	s.mu.Lock()
	fn := s.upsertErr
	s.mu.Unlock()
	if fn != nil {
		if err := fn(chunks); err != nil {
			return err
		}
	}
	return s.VectorStore.Upsert(ctx, collection, chunks)
}

func (s *countingStore) Scan(ctx context.Context, collection, cursor string, limit int) ([]domain.Chunk, string, error) {
	s.scans.Add(1)
	s.mu.Lock()
	err := s.scanErr
	s.mu.Unlock()
	if err != nil {
		return nil, "", err
	}
	return s.VectorStore.Scan(ctx, collection, cursor, limit)
}

func (s *countingStore) DeleteCollection(ctx context.Context, collection string) error {
	s.deletes.Add(1)
	return s.VectorStore.DeleteCollection(ctx, collection)
}

func (s *countingStore) calls() int32 {
	return s.upserts.Load() + s.scans.Load() + s.deletes.Load()
}

// failingRegistryStore fails every Save.
type failingRegistryStore struct {
	*memory.RegistryStore
	saves atomic.Int32
}

func (s *failingRegistryStore) Save(_ context.Context, _ domain.RegistryEntry) error {
	s.saves.Add(1)
	return fmt.Errorf("%w: registry down", domain.ErrStoreUnavailable)
}

// stubLoader returns a fixed pack definition.
type stubLoader struct {
	pack *domain.PackConfig
	err  error
}

func (l *stubLoader) Load(_ string) (*domain.PackConfig, error) {
	if l.err != nil {
		return nil, l.err
	}
	p := *l.pack
	return &p, nil
}

var _ driven.PackLoader = (*stubLoader)(nil)

// serviceClient adapts a DownloadService to driven.PackClient.
type serviceClient struct {
	downloads *DownloadService
	registry  *RegistryService

	mu      sync.Mutex
	pages   int
	failAt  int
	failErr error
}

func (c *serviceClient) Download(ctx context.Context, packID, cursor string, limit int) (*domain.DownloadPage, error) {
	c.mu.Lock()
	c.pages++
	fail := c.failAt > 0 && c.pages == c.failAt
	c.mu.Unlock()
	if fail {
		return nil, c.failErr
	}
	var cur *string
	if cursor != "" {
		cur = &cursor
	}
	return c.downloads.Download(ctx, packID, cur, limit)
}

func (c *serviceClient) GetPack(ctx context.Context, packID string) (*domain.RegistryEntry, error) {
	return c.registry.Get(ctx, packID)
}

// words returns n characters of space-separated filler text.
func words(n int) string {
	var b strings.Builder
	for b.Len() < n {
		b.WriteString("lorem ")
	}
	return b.String()[:n]
}

// prefixSummariser prepends "summary: " and reports a fixed model.
type prefixSummariser struct{ model string }

func (s prefixSummariser) Summarise(_ context.Context, text string, _ driven.SummariseOptions) (string, error) {
	return "summary: " + text, nil
}
func (s prefixSummariser) ModelName() string            { return s.model }
func (s prefixSummariser) Ping(_ context.Context) error { return nil }
func (s prefixSummariser) Close() error                 { return nil }

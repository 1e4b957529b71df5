package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

func newSearchFixture(t *testing.T) *SearchService {
	t.Helper()
	store := newCountingStore()
	// The fake embedder maps text to [len(text), 1].
	require.NoError(t, store.VectorStore.Upsert(context.Background(), domain.CollectionName("", "water"), []domain.Chunk{
		{DocumentID: "short", Text: "boil", Embedding: []float32{4, 1}},
		{DocumentID: "long", Text: "purification tablets", Embedding: []float32{20, 1}},
		{DocumentID: "mid", Text: "filter water", Metadata: map[string]any{"topic": "water"}, Embedding: []float32{12, 1}},
	}))
	return NewSearchService(store, &fakeEmbedder{}, "", 0, time.Second)
}

func TestSearchService_Search(t *testing.T) {
	svc := newSearchFixture(t)

	results, err := svc.Search(context.Background(), "water", "filter water", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "mid", results[0].DocumentID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, "water", results[0].Metadata["topic"])
	assert.NotNil(t, results[1].Metadata)
}

func TestSearchService_DefaultTopK(t *testing.T) {
	svc := newSearchFixture(t)

	results, err := svc.Search(context.Background(), "water", "boil", 0)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, domain.DefaultTopK, svc.defaultTopK)
}

func TestSearchService_Validation(t *testing.T) {
	svc := newSearchFixture(t)
	ctx := context.Background()

	_, err := svc.Search(ctx, "water", "q", domain.MaxTopK+1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.Search(ctx, "water", "q", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.Search(ctx, "water", "   ", 3)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchService_UnknownPack(t *testing.T) {
	svc := newSearchFixture(t)
	_, err := svc.Search(context.Background(), "fire", "q", 3)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearchService_Unavailable(t *testing.T) {
	svc := NewSearchService(nil, &fakeEmbedder{}, "", 5, time.Second)
	_, err := svc.Search(context.Background(), "water", "q", 3)
	assert.ErrorIs(t, err, domain.ErrSearchUnavailable)

	svc = NewSearchService(newCountingStore(), nil, "", 5, time.Second)
	_, err = svc.Search(context.Background(), "water", "q", 3)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

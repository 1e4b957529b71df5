package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

const testCollection = "context_pack_demo"

func seedChunks(n int) []domain.Chunk {
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			DocumentID: domain.MakeDocumentID("demo", i/10, i%10),
			Text:       fmt.Sprintf("chunk %d", i),
			Metadata:   map[string]any{domain.MetaTopic: "water"},
			Embedding:  []float32{float32(i), 1},
		}
	}
	return chunks
}

func scanAll(t *testing.T, s *VectorStore, limit int) []string {
	t.Helper()
	var ids []string
	cursor := ""
	for {
		page, next, err := s.Scan(context.Background(), testCollection, cursor, limit)
		require.NoError(t, err)
		for _, c := range page {
			ids = append(ids, c.DocumentID)
		}
		if next == "" {
			return ids
		}
		cursor = next
	}
}

func TestVectorStore_Scan_MissingCollection(t *testing.T) {
	s := NewVectorStore()
	_, _, err := s.Scan(context.Background(), "nope", "", 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVectorStore_Scan_PaginationCompleteness(t *testing.T) {
	s := NewVectorStore()
	const n = 23
	require.NoError(t, s.Upsert(context.Background(), testCollection, seedChunks(n)))

	for _, limit := range []int{1, 5, n, n + 5} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			ids := scanAll(t, s, limit)
			assert.Len(t, ids, n)
			assert.IsIncreasing(t, ids)
		})
	}
}

func TestVectorStore_Scan_NextCursor(t *testing.T) {
	s := NewVectorStore()
	require.NoError(t, s.Upsert(context.Background(), testCollection, seedChunks(4)))

	page, next, err := s.Scan(context.Background(), testCollection, "", 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, page[1].DocumentID, next)

	page, next, err = s.Scan(context.Background(), testCollection, next, 3)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.Empty(t, next)
}

func TestVectorStore_Upsert_Idempotent(t *testing.T) {
	s := NewVectorStore()
	ctx := context.Background()
	chunks := seedChunks(5)

	require.NoError(t, s.Upsert(ctx, testCollection, chunks))
	chunks[0].Text = "updated"
	require.NoError(t, s.Upsert(ctx, testCollection, chunks))

	assert.Equal(t, 5, s.Count(testCollection))
	page, _, err := s.Scan(ctx, testCollection, "", 1)
	require.NoError(t, err)
	assert.Equal(t, "updated", page[0].Text)
}

func TestVectorStore_Upsert_CopiesInput(t *testing.T) {
	s := NewVectorStore()
	ctx := context.Background()
	chunks := seedChunks(1)
	require.NoError(t, s.Upsert(ctx, testCollection, chunks))

	chunks[0].Metadata[domain.MetaTopic] = "changed"
	chunks[0].Embedding[0] = 99

	page, _, err := s.Scan(ctx, testCollection, "", 1)
	require.NoError(t, err)
	assert.Equal(t, "water", page[0].Metadata[domain.MetaTopic])
	assert.Equal(t, float32(0), page[0].Embedding[0])
}

func TestVectorStore_Scan_StableUnderConcurrentInserts(t *testing.T) {
	s := NewVectorStore()
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, testCollection, seedChunks(30)))
	before := scanAll(t, s, 7)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range 20 {
			_ = s.Upsert(ctx, testCollection, []domain.Chunk{{DocumentID: fmt.Sprintf("zz-%02d", i), Text: "late"}})
		}
	}()

	var seen []string
	cursor := ""
	for {
		page, next, err := s.Scan(ctx, testCollection, cursor, 7)
		require.NoError(t, err)
		for _, c := range page {
			seen = append(seen, c.DocumentID)
		}
		if next == "" {
			break
		}
		cursor = next
	}
	wg.Wait()

	// Every pre-existing chunk appears exactly once.
	counts := map[string]int{}
	for _, id := range seen {
		counts[id]++
	}
	for _, id := range before {
		assert.Equal(t, 1, counts[id], id)
	}
}

func TestVectorStore_Search(t *testing.T) {
	s := NewVectorStore()
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, testCollection, []domain.Chunk{
		{DocumentID: "a", Embedding: []float32{1, 0}},
		{DocumentID: "b", Embedding: []float32{0, 1}},
		{DocumentID: "c", Embedding: []float32{1, 1}},
	}))

	hits, err := s.Search(ctx, testCollection, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].Chunk.DocumentID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, "c", hits[1].Chunk.DocumentID)

	_, err = s.Search(ctx, "missing", []float32{1, 0}, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVectorStore_DeleteCollection(t *testing.T) {
	s := NewVectorStore()
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, testCollection, seedChunks(3)))

	require.NoError(t, s.DeleteCollection(ctx, testCollection))
	require.NoError(t, s.DeleteCollection(ctx, testCollection))

	_, _, err := s.Scan(ctx, testCollection, "", 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVectorStore_CancelledContext(t *testing.T) {
	s := NewVectorStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Upsert(ctx, testCollection, seedChunks(1)), context.Canceled)
	assert.Equal(t, 0, s.Count(testCollection))
}

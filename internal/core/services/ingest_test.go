package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driven/storage/memory"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driving"
)

func TestIngestor_Demo(t *testing.T) {
	f := newIngestFixture(nil)
	f.addSource("https://example.org/water", "Water", words(12000))
	ctx := context.Background()

	report, err := f.ingestor.Ingest(ctx, demoPack(5000, 400), domain.IngestOptions{})
	require.NoError(t, err)

	require.Len(t, report.Chunks, 3)
	assert.Equal(t, "demo-00-0000", report.Chunks[0].DocumentID)
	assert.Equal(t, "demo-00-0002", report.Chunks[2].DocumentID)
	assert.Equal(t, domain.IngestStatusSucceeded, report.Run.Status)
	assert.Equal(t, 3, report.Run.Stored)

	require.NotNil(t, report.Registry)
	assert.Equal(t, 3, report.Registry.TotalDocuments)
	require.Len(t, report.Registry.Topics, 1)
	assert.Equal(t, "water", report.Registry.Topics[0].Name)
	assert.Equal(t, 3, report.Registry.Topics[0].DocumentCount)
	assert.Equal(t, []string{"https://example.org/water"}, report.Registry.SourceURLs)

	entry, err := f.catalog.Get(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, 3, entry.TotalDocuments)
	assert.Nil(t, entry.Metadata["summary_model"])
	assert.Equal(t, 5000, entry.Metadata["chunk_size"])

	chunk := report.Chunks[1]
	assert.Equal(t, "Water", chunk.Metadata[domain.MetaSourceTitle])
	assert.Equal(t, 1, chunk.Metadata[domain.MetaChunkIndex])
	assert.Equal(t, "water", chunk.Metadata["topic"])
}

func TestIngestor_Idempotent(t *testing.T) {
	f := newIngestFixture(nil)
	f.addSource("https://example.org/water", "Water", words(12000))
	ctx := context.Background()
	pack := demoPack(5000, 400)

	first, err := f.ingestor.Ingest(ctx, pack, domain.IngestOptions{})
	require.NoError(t, err)
	second, err := f.ingestor.Ingest(ctx, pack, domain.IngestOptions{})
	require.NoError(t, err)

	assert.Equal(t, first.Registry.TotalDocuments, second.Registry.TotalDocuments)
	assert.Equal(t, 3, f.store.Count(domain.CollectionName("", "demo")))
}

func TestIngestor_ConfigErrorMakesNoStoreCalls(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *domain.PackConfig)
	}{
		{"overlap equals size", func(p *domain.PackConfig) { p.ChunkOverlap = p.ChunkSize }},
		{"no sources", func(p *domain.PackConfig) { p.Sources = nil }},
		{"empty pack id", func(p *domain.PackConfig) { p.PackID = " " }},
		{"batch too large", func(p *domain.PackConfig) { p.BatchSize = domain.MaxBatchSize + 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIngestFixture(nil)
			pack := demoPack(500, 50)
			tt.mutate(&pack)

			_, err := f.ingestor.Ingest(context.Background(), pack, domain.IngestOptions{})

			require.ErrorIs(t, err, domain.ErrConfig)
			assert.Zero(t, f.store.calls())
			assert.Zero(t, f.fetcher.calls.Load())
			assert.Zero(t, f.embedder.calls.Load())
		})
	}
}

func TestIngestor_DryRun(t *testing.T) {
	f := newIngestFixture(nil)
	f.addSource("https://example.org/water", "Water", words(3000))
	out := filepath.Join(t.TempDir(), "out", "chunks.json")

	report, err := f.ingestor.Ingest(context.Background(), demoPack(1000, 100),
		domain.IngestOptions{DryRun: true, Clean: true, OutputPath: out})
	require.NoError(t, err)

	assert.Equal(t, domain.IngestStatusDryRun, report.Run.Status)
	assert.NotEmpty(t, report.Chunks)
	assert.Zero(t, f.store.calls())
	assert.Zero(t, f.embedder.calls.Load())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var written []map[string]any
	require.NoError(t, json.Unmarshal(data, &written))
	require.Len(t, written, len(report.Chunks))
	assert.Equal(t, "demo-00-0000", written[0]["document_id"])
	assert.Contains(t, written[0], "original_char_count")
}

func TestIngestor_OverridePackIDAndClean(t *testing.T) {
	f := newIngestFixture(nil)
	f.addSource("https://example.org/water", "Water", words(800))
	ctx := context.Background()
	collection := domain.CollectionName("", "renamed")
	require.NoError(t, f.store.VectorStore.Upsert(ctx, collection, []domain.Chunk{{DocumentID: "stale"}}))

	report, err := f.ingestor.Ingest(ctx, demoPack(500, 50),
		domain.IngestOptions{OverridePackID: "renamed", Clean: true})
	require.NoError(t, err)

	assert.Equal(t, "renamed", report.Run.PackID)
	assert.True(t, strings.HasPrefix(report.Chunks[0].DocumentID, "renamed-00-"))
	assert.Equal(t, int32(1), f.store.deletes.Load())
	assert.Equal(t, len(report.Chunks), report.Registry.TotalDocuments)
}

func TestIngestor_PartialFailureDoesNotAdvanceRegistry(t *testing.T) {
	f := newIngestFixture(nil)
	f.addSource("https://example.org/water", "Water", words(2000))
	ctx := context.Background()
	pack := demoPack(100, 0)
	pack.BatchSize = 4

	f.store.upsertErr = func(chunks []domain.Chunk) error {
		for _, c := range chunks {
			if c.DocumentID == "demo-00-0005" {
				return errors.New("permanent failure")
			}
		}
		return nil
	}

	report, err := f.ingestor.Ingest(ctx, pack, domain.IngestOptions{})
	require.ErrorIs(t, err, domain.ErrPartialIngest)
	require.NotNil(t, report)
	assert.Equal(t, domain.IngestStatusPartial, report.Run.Status)
	assert.Equal(t, 1, report.Run.FailedBatches)
	assert.Equal(t, 16, report.Run.Stored)
	assert.Nil(t, report.Registry)

	_, err = f.catalog.Get(ctx, "demo")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 16, f.store.Count(domain.CollectionName("", "demo")))
}

func TestIngestor_RetriesTransientFailures(t *testing.T) {
	f := newIngestFixture(nil)
	f.addSource("https://example.org/water", "Water", words(1000))
	var mu sync.Mutex
	attempts := 0
	f.store.upsertErr = func(_ []domain.Chunk) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts <= 2 {
			return domain.ErrStoreUnavailable
		}
		return nil
	}
	pack := demoPack(2000, 0)

	report, err := f.ingestor.Ingest(context.Background(), pack, domain.IngestOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 1, report.Registry.TotalDocuments)
}

func TestIngestor_AuthErrorNotRetried(t *testing.T) {
	f := newIngestFixture(nil)
	f.addSource("https://example.org/water", "Water", words(100))
	f.store.upsertErr = func(_ []domain.Chunk) error { return domain.ErrStoreAuth }

	_, err := f.ingestor.Ingest(context.Background(), demoPack(500, 0), domain.IngestOptions{})
	require.ErrorIs(t, err, domain.ErrPartialIngest)
	assert.ErrorIs(t, err, domain.ErrStoreAuth)
	assert.Equal(t, int32(1), f.store.upserts.Load())
}

func TestIngestor_RegistryFailureKeepsChunks(t *testing.T) {
	failing := &failingRegistryStore{RegistryStore: memory.NewRegistryStore()}
	f := newIngestFixture(failing)
	f.addSource("https://example.org/water", "Water", words(1000))

	report, err := f.ingestor.Ingest(context.Background(), demoPack(500, 0), domain.IngestOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, domain.IngestStatusRegistryFailed, report.Run.Status)
	assert.Equal(t, int32(testIngestConfig().RegistryRetries+1), failing.saves.Load())
	assert.Equal(t, 2, f.store.Count(domain.CollectionName("", "demo")))
}

func TestIngestor_FetchFailure(t *testing.T) {
	f := newIngestFixture(nil)

	report, err := f.ingestor.Ingest(context.Background(), demoPack(500, 0), domain.IngestOptions{})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, domain.IngestStatusFailed, report.Run.Status)
	assert.Zero(t, f.store.upserts.Load())
}

func TestIngestor_RecordsRuns(t *testing.T) {
	f := newIngestFixture(nil)
	f.addSource("https://example.org/water", "Water", words(1000))
	ctx := context.Background()

	_, err := f.ingestor.Ingest(ctx, demoPack(500, 0), domain.IngestOptions{})
	require.NoError(t, err)

	runs, err := f.ingestor.Runs(ctx, "demo", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.IngestStatusSucceeded, runs[0].Status)
	assert.False(t, runs[0].FinishedAt.IsZero())

	status, err := f.ingestor.Status(ctx, "demo")
	require.NoError(t, err)
	assert.False(t, status.Running)
	assert.Equal(t, 2, status.ChunksStored)
}

func TestIngestor_IngestInProgress(t *testing.T) {
	f := newIngestFixture(nil)
	f.addSource("https://example.org/water", "Water", words(1000))

	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	f.store.upsertErr = func(_ []domain.Chunk) error {
		once.Do(func() { close(started) })
		<-release
		return nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.ingestor.Ingest(context.Background(), demoPack(500, 0), domain.IngestOptions{})
		done <- err
	}()
	<-started

	status, err := f.ingestor.Status(context.Background(), "demo")
	require.NoError(t, err)
	assert.True(t, status.Running)

	_, err = f.ingestor.Ingest(context.Background(), demoPack(500, 0), domain.IngestOptions{})
	assert.ErrorIs(t, err, domain.ErrIngestInProgress)

	close(release)
	require.NoError(t, <-done)
}

func TestIngestor_StoreDocuments(t *testing.T) {
	f := newIngestFixture(nil)
	ctx := context.Background()

	n, err := f.ingestor.StoreDocuments(ctx, "manual", []domain.DocumentInput{
		{DocumentID: "manual-1", Text: "boil water", Metadata: map[string]any{"topic": "water"}},
		{DocumentID: "manual-2", Text: "purify water"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, f.store.Count(domain.CollectionName("", "manual")))

	_, err = f.catalog.Get(ctx, "manual")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngestor_StoreDocuments_Validation(t *testing.T) {
	tests := []struct {
		name string
		docs []domain.DocumentInput
	}{
		{"empty list", nil},
		{"blank text", []domain.DocumentInput{{DocumentID: "a", Text: "  "}}},
		{"missing id", []domain.DocumentInput{{Text: "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIngestFixture(nil)
			_, err := f.ingestor.StoreDocuments(context.Background(), "p", tt.docs)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Zero(t, f.store.calls())
		})
	}
}

func TestIngestor_MissingDependencies(t *testing.T) {
	ing := NewIngestor(nil, nil, nil, &fakeFetcher{}, newIngestFixture(nil).ingestor.pipelines, nil, testIngestConfig())
	_, err := ing.Ingest(context.Background(), demoPack(500, 0), domain.IngestOptions{})
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestIngestor_ImplementsPort(t *testing.T) {
	var _ driving.Ingestor = newIngestFixture(nil).ingestor
}

func TestIngestor_EchoesSummaryModelUsed(t *testing.T) {
	tests := []struct {
		name      string
		packModel string
		noSummary bool
		want      any
	}{
		{"provider model when the pack sets none", "", false, "llama3.2"},
		{"pack override", "gpt-4.1-mini", false, "gpt-4.1-mini"},
		{"no-summary flag", "", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIngestFixture(nil)
			f.withSummariser(prefixSummariser{model: "llama3.2"})
			f.addSource("https://example.org/water", "Water", words(300))

			pack := demoPack(5000, 400)
			pack.SummarisationEnabled = true
			pack.SummaryModel = tt.packModel

			report, err := f.ingestor.Ingest(context.Background(), pack, domain.IngestOptions{NoSummary: tt.noSummary})
			require.NoError(t, err)
			require.NotNil(t, report.Registry)

			assert.Equal(t, tt.want, report.Registry.Metadata["summary_model"])
			assert.Equal(t, !tt.noSummary, strings.HasPrefix(report.Chunks[0].Text, "summary: "))
		})
	}
}

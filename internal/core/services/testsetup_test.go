package services

import (
	"time"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driven/storage/memory"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/postprocessors"
)

type ingestFixture struct {
	store    *countingStore
	registry driven.RegistryStore
	catalog  *RegistryService
	embedder *fakeEmbedder
	fetcher  *fakeFetcher
	runs     *memory.IngestRunStore
	ingestor *Ingestor
}

func testIngestConfig() IngestConfig {
	return IngestConfig{
		Workers:          3,
		MaxRetries:       2,
		RegistryRetries:  2,
		RetryBackoff:     time.Millisecond,
		StoreTimeout:     time.Second,
		CollectionPrefix: domain.DefaultCollectionPrefix,
	}
}

func newIngestFixture(registry driven.RegistryStore) *ingestFixture {
	if registry == nil {
		registry = memory.NewRegistryStore()
	}
	f := &ingestFixture{
		store:    newCountingStore(),
		registry: registry,
		embedder: &fakeEmbedder{},
		fetcher:  &fakeFetcher{docs: map[string]domain.SourceDocument{}},
		runs:     memory.NewIngestRunStore(),
	}
	cfg := testIngestConfig()
	f.catalog = NewRegistryService(f.store, registry, cfg.CollectionPrefix, cfg.StoreTimeout)
	f.ingestor = NewIngestor(
		f.store, f.catalog, f.embedder, f.fetcher,
		postprocessors.DefaultRegistry(nil), f.runs, cfg,
	)
	return f
}

// withSummariser rebuilds the ingestor with a summary stage available.
func (f *ingestFixture) withSummariser(s driven.Summariser) {
	f.ingestor = NewIngestor(
		f.store, f.catalog, f.embedder, f.fetcher,
		postprocessors.DefaultRegistry(s), f.runs, testIngestConfig(),
	)
}

func (f *ingestFixture) addSource(url, title, text string) {
	f.fetcher.docs[url] = domain.SourceDocument{URL: url, Title: title, Text: text}
}

// demoPack is a single-source pack with summarisation off.
func demoPack(size, overlap int) domain.PackConfig {
	p := domain.DefaultPackConfig()
	p.PackID = "demo"
	p.Sources = []domain.SourceConfig{{URL: "https://example.org/water"}}
	p.ChunkSize = size
	p.ChunkOverlap = overlap
	p.SummarisationEnabled = false
	p.DefaultMetadata = map[string]any{"topic": "water"}
	return p
}

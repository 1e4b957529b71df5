package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driving"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/logger"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/postprocessors/chunker"
)

// Ensure Ingestor implements the interface.
var _ driving.Ingestor = (*Ingestor)(nil)

// IngestConfig tunes ingestion.
type IngestConfig struct {
	// Workers bounds concurrent batch upserts.
	Workers int

	// MaxRetries is the number of extra attempts per failed batch.
	MaxRetries int

	// RegistryRetries is the number of extra attempts for the registry write.
	// Once spent, the run is reported as registry_failed and stored chunks stay.
	RegistryRetries int

	// RetryBackoff is the initial delay between attempts.
	RetryBackoff time.Duration

	// StoreTimeout bounds every store and embedding call.
	StoreTimeout time.Duration

	// CollectionPrefix is prepended to sanitised pack ids.
	CollectionPrefix string
}

// IngestConfigFromSettings maps application settings to an IngestConfig.
func IngestConfigFromSettings(s domain.AppSettings) IngestConfig {
	return IngestConfig{
		Workers:          s.Ingest.Workers,
		MaxRetries:       s.Ingest.MaxRetries,
		RegistryRetries:  s.Ingest.RegistryRetries,
		RetryBackoff:     s.Ingest.RetryBackoff,
		StoreTimeout:     s.Store.Timeout,
		CollectionPrefix: s.Store.CollectionPrefix,
	}
}

// Ingestor builds packs: fetch, chunk, summarise, embed, upsert, then
// recompute the registry entry from the store.
type Ingestor struct {
	store     driven.VectorStore
	registry  *RegistryService
	embedder  driven.EmbeddingService
	fetcher   driven.SourceFetcher
	pipelines driven.PipelineFactory
	runs      driven.IngestRunStore
	cfg       IngestConfig
	now       func() time.Time

	// Status tracking
	mu     sync.RWMutex
	active map[string]*driving.IngestStatus
}

// NewIngestor creates a new ingestor. runs is optional - if nil, ingest
// history is not recorded.
func NewIngestor(
	store driven.VectorStore,
	registry *RegistryService,
	embedder driven.EmbeddingService,
	fetcher driven.SourceFetcher,
	pipelines driven.PipelineFactory,
	runs driven.IngestRunStore,
	cfg IngestConfig,
) *Ingestor {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Ingestor{
		store:     store,
		registry:  registry,
		embedder:  embedder,
		fetcher:   fetcher,
		pipelines: pipelines,
		runs:      runs,
		cfg:       cfg,
		now:       time.Now,
		active:    make(map[string]*driving.IngestStatus),
	}
}

// Ingest runs a full ingestion of the pack definition.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (i *Ingestor) Ingest(ctx context.Context, pack domain.PackConfig, opts domain.IngestOptions) (*domain.IngestReport, error) {
	// 1. Resolve and validate before any I/O
	if opts.OverridePackID != "" {
		pack.PackID = opts.OverridePackID
	}
	if err := pack.Validate(); err != nil {
		return nil, err
	}
	summarise := pack.SummarisationEnabled && !opts.NoSummary
	pipeline, err := i.pipelines.Pipeline(&pack, summarise)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	if !opts.DryRun && (i.store == nil || i.embedder == nil) {
		return nil, fmt.Errorf("%w: ingest needs a vector store and an embedding service", domain.ErrConfig)
	}

	// 2. Claim the pack
	if err := i.begin(pack.PackID); err != nil {
		return nil, err
	}
	defer i.end(pack.PackID)

	run := domain.IngestRun{
		ID:        uuid.NewString(),
		PackID:    pack.PackID,
		StartedAt: i.now().UTC(),
		Status:    domain.IngestStatusRunning,
	}
	i.saveRun(ctx, run)
	report := &domain.IngestReport{}

	finish := func(st domain.IngestStatus, runErr error) (*domain.IngestReport, error) {
		run.Status = st
		run.FinishedAt = i.now().UTC()
		if runErr != nil {
			run.Error = runErr.Error()
		}
		i.saveRun(context.WithoutCancel(ctx), run)
		report.Run = run
		return report, runErr
	}

	logger.Section("Ingest " + pack.PackID)
	collection := domain.CollectionName(i.cfg.CollectionPrefix, pack.PackID)

	// 3. Optionally start from an empty collection
	if opts.Clean && !opts.DryRun {
		logger.Info("clean: deleting collection %s", collection)
		err := withTimeout(ctx, i.cfg.StoreTimeout, func(ctx context.Context) error {
			return i.store.DeleteCollection(ctx, collection)
		})
		if err != nil {
			return finish(domain.IngestStatusFailed, fmt.Errorf("delete collection: %w", err))
		}
	}

	// 4. Fetch and process every source
	chunks, err := i.processSources(ctx, &pack, pipeline)
	if err != nil {
		return finish(domain.IngestStatusFailed, err)
	}
	report.Chunks = chunks
	run.Chunks = len(chunks)
	i.updateStatus(pack.PackID, func(s *driving.IngestStatus) { s.ChunksProduced = len(chunks) })

	if opts.OutputPath != "" {
		if err := writeChunks(opts.OutputPath, chunks); err != nil {
			return finish(domain.IngestStatusFailed, fmt.Errorf("write output: %w", err))
		}
		logger.Info("wrote %d chunks to %s", len(chunks), opts.OutputPath)
	}

	if opts.DryRun {
		logger.Info("dry run enabled; skipping upload")
		return finish(domain.IngestStatusDryRun, nil)
	}

	// 5. Upload in batches; Wait is the barrier before the registry write
	stored, failed, uploadErr := i.upload(ctx, pack.PackID, collection, chunks, pack.BatchSize)
	run.Stored = stored
	run.Batches = batchCount(len(chunks), pack.BatchSize)
	run.FailedBatches = failed
	if failed > 0 {
		logger.Warn("%d of %d batches failed for %s; registry not advanced", failed, run.Batches, pack.PackID)
		return finish(domain.IngestStatusPartial, fmt.Errorf("%w: %d of %d batches failed: %w",
			domain.ErrPartialIngest, failed, run.Batches, uploadErr))
	}
	if ctx.Err() != nil {
		return finish(domain.IngestStatusFailed, ctx.Err())
	}

	// 6. Recompute the registry from what the store now holds
	var entry *domain.RegistryEntry
	echo := pack.MetadataEcho(pipeline.SummaryModel())
	err = withRetry(ctx, i.cfg.RegistryRetries, i.cfg.RetryBackoff, func(ctx context.Context) error {
		var rerr error
		entry, rerr = i.registry.Recompute(ctx, pack.PackID, echo, i.now())
		return rerr
	})
	if err != nil {
		logger.Warn("registry update for %s failed; %d stored chunks kept: %v", pack.PackID, stored, err)
		return finish(domain.IngestStatusRegistryFailed, fmt.Errorf("update registry: %w", err))
	}
	report.Registry = entry

	logger.Info("ingest complete: %d chunks stored, registry total %d", stored, entry.TotalDocuments)
	return finish(domain.IngestStatusSucceeded, nil)
}

// processSources fetches each source in order and runs it through the pipeline.
func (i *Ingestor) processSources(
	ctx context.Context,
	pack *domain.PackConfig,
	pipeline driven.PostProcessorPipeline,
) ([]domain.Chunk, error) {
	var all []domain.Chunk
	for idx, source := range pack.Sources {
		var doc *domain.SourceDocument
		err := withTimeout(ctx, pack.RequestTimeout, func(ctx context.Context) error {
			var ferr error
			doc, ferr = i.fetcher.Fetch(ctx, source.URL)
			return ferr
		})
		if err != nil {
			return nil, fmt.Errorf("fetch source %d (%s): %w", idx, source.URL, err)
		}

		doc.Index = idx
		doc.Text = chunker.Normalise(doc.Text)
		doc.Metadata = source.Metadata
		if source.Title != "" {
			doc.Title = source.Title
		}

		chunks, err := pipeline.Process(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("process source %d (%s): %w", idx, source.URL, err)
		}
		logger.Info("split %s into %d chunks", doc.URL, len(chunks))
		all = append(all, chunks...)
	}
	return all, nil
}

// upload embeds and upserts chunks in batches on a bounded worker pool.
// A failed batch never cancels the others.
func (i *Ingestor) upload(
	ctx context.Context,
	packID, collection string,
	chunks []domain.Chunk,
	batchSize int,
) (stored, failed int, err error) {
	var (
		mu   sync.Mutex
		errs []error
	)

	g := new(errgroup.Group)
	g.SetLimit(i.cfg.Workers)

	for n, start := 0, 0; start < len(chunks); n, start = n+1, start+batchSize {
		if ctx.Err() != nil {
			break
		}
		end := min(start+batchSize, len(chunks))
		batch := make([]domain.Chunk, end-start)
		copy(batch, chunks[start:end])
		batchNum := n

		g.Go(func() error {
			berr := withRetry(ctx, i.cfg.MaxRetries, i.cfg.RetryBackoff, func(ctx context.Context) error {
				return i.storeBatch(ctx, collection, batch)
			})

			mu.Lock()
			defer mu.Unlock()
			if berr != nil {
				logger.Error("batch %d (%s..%s) failed: %v", batchNum, batch[0].DocumentID, batch[len(batch)-1].DocumentID, berr)
				failed++
				errs = append(errs, fmt.Errorf("batch %d: %w", batchNum, berr))
				i.updateStatus(packID, func(s *driving.IngestStatus) { s.ErrorCount++ })
				return nil
			}
			stored += len(batch)
			i.updateStatus(packID, func(s *driving.IngestStatus) { s.ChunksStored += len(batch) })
			logger.Debug("batch %d stored %d chunks", batchNum, len(batch))
			return nil
		})
	}

	_ = g.Wait()
	return stored, failed, errors.Join(errs...)
}

// storeBatch embeds a batch and upserts it.
func (i *Ingestor) storeBatch(ctx context.Context, collection string, batch []domain.Chunk) error {
	texts := make([]string, len(batch))
	for n := range batch {
		texts[n] = batch[n].Text
	}

	var vectors [][]float32
	err := withTimeout(ctx, i.cfg.StoreTimeout, func(ctx context.Context) error {
		var eerr error
		vectors, eerr = i.embedder.EmbedBatch(ctx, texts)
		return eerr
	})
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbeddingFailure, len(vectors), len(batch))
	}
	for n := range batch {
		batch[n].Embedding = vectors[n]
	}

	return withTimeout(ctx, i.cfg.StoreTimeout, func(ctx context.Context) error {
		return i.store.Upsert(ctx, collection, batch)
	})
}

// StoreDocuments embeds and upserts pre-chunked documents.
func (i *Ingestor) StoreDocuments(ctx context.Context, packID string, docs []domain.DocumentInput) (int, error) {
	if strings.TrimSpace(packID) == "" {
		return 0, fmt.Errorf("%w: pack id is required", domain.ErrInvalidInput)
	}
	if len(docs) == 0 {
		return 0, fmt.Errorf("%w: provide at least one document", domain.ErrInvalidInput)
	}
	chunks := make([]domain.Chunk, len(docs))
	for n, d := range docs {
		if strings.TrimSpace(d.DocumentID) == "" {
			return 0, fmt.Errorf("%w: documents[%d].document_id is required", domain.ErrInvalidInput, n)
		}
		if strings.TrimSpace(d.Text) == "" {
			return 0, fmt.Errorf("%w: documents[%d].text cannot be empty", domain.ErrInvalidInput, n)
		}
		chunks[n] = domain.Chunk{DocumentID: d.DocumentID, Text: d.Text, Metadata: domain.MergeMetadata(d.Metadata)}
	}
	if i.store == nil || i.embedder == nil {
		return 0, fmt.Errorf("%w: storing documents needs a vector store and an embedding service", domain.ErrConfig)
	}

	collection := domain.CollectionName(i.cfg.CollectionPrefix, packID)
	if err := i.storeBatch(ctx, collection, chunks); err != nil {
		return 0, err
	}
	logger.Info("stored %d documents in %s", len(chunks), collection)
	return len(chunks), nil
}

// Status returns the status of the pack's current or most recent run.
func (i *Ingestor) Status(ctx context.Context, packID string) (*driving.IngestStatus, error) {
	i.mu.RLock()
	if s, ok := i.active[packID]; ok {
		// Return a copy to avoid race conditions
		cp := *s
		i.mu.RUnlock()
		return &cp, nil
	}
	i.mu.RUnlock()

	st := &driving.IngestStatus{PackID: packID}
	if i.runs == nil {
		return st, nil
	}
	runs, err := i.runs.ListRuns(ctx, packID, 1)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	if len(runs) > 0 {
		st.ChunksProduced = runs[0].Chunks
		st.ChunksStored = runs[0].Stored
		st.ErrorCount = runs[0].FailedBatches
	}
	return st, nil
}

// Runs returns recent runs for a pack, most recent first.
func (i *Ingestor) Runs(ctx context.Context, packID string, limit int) ([]domain.IngestRun, error) {
	if i.runs == nil {
		return nil, nil
	}
	return i.runs.ListRuns(ctx, packID, limit)
}

func (i *Ingestor) begin(packID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.active[packID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrIngestInProgress, packID)
	}
	i.active[packID] = &driving.IngestStatus{PackID: packID, Running: true}
	return nil
}

func (i *Ingestor) end(packID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.active, packID)
}

func (i *Ingestor) updateStatus(packID string, fn func(s *driving.IngestStatus)) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if s, ok := i.active[packID]; ok {
		fn(s)
	}
}

func (i *Ingestor) saveRun(ctx context.Context, run domain.IngestRun) {
	if i.runs == nil {
		return
	}
	if err := i.runs.SaveRun(ctx, run); err != nil {
		logger.Warn("save ingest run %s: %v", run.ID, err)
	}
}

func batchCount(n, size int) int {
	if n == 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

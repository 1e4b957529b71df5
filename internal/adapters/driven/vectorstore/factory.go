// Package vectorstore selects the configured store backend.
//
// Chunks and the pack registry live in the selected backend. Ingest history,
// pull cursors and schedules are local bookkeeping and always live in the
// embedded SQLite database, except for the memory backend which keeps
// everything in process.
package vectorstore

import (
	"errors"
	"fmt"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driven/storage/memory"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driven/storage/sqlite"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driven/vectorstore/qdrant"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driven/vectorstore/redis"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
)

// Stores bundles every driven store the application needs.
type Stores struct {
	Vectors   driven.VectorStore
	Searcher  driven.VectorSearcher // Nil when the backend cannot search.
	Registry  driven.RegistryStore
	Runs      driven.IngestRunStore
	Syncs     driven.SyncStateStore
	Scheduler driven.SchedulerStore

	closers []func() error
}

// Close releases every backend connection.
func (s *Stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Open creates the stores for settings. dataDir locates the SQLite database;
// empty uses the default under the home directory.
func Open(settings domain.StoreSettings, dataDir string) (*Stores, error) {
	if settings.Backend == domain.StoreBackendMemory {
		vectors := memory.NewVectorStore()
		return &Stores{
			Vectors:   vectors,
			Searcher:  vectors,
			Registry:  memory.NewRegistryStore(),
			Runs:      memory.NewIngestRunStore(),
			Syncs:     memory.NewSyncStateStore(),
			Scheduler: memory.NewSchedulerStore(),
		}, nil
	}

	local, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}
	stores := &Stores{
		Runs:      local.IngestRunStore(),
		Syncs:     local.SyncStateStore(),
		Scheduler: local.SchedulerStore(),
		closers:   []func() error{local.Close},
	}

	switch settings.Backend {
	case domain.StoreBackendSQLite, "":
		vectors := local.VectorStore()
		stores.Vectors = vectors
		stores.Searcher = vectors
		stores.Registry = local.RegistryStore()

	case domain.StoreBackendQdrant:
		cfg := qdrant.Config{
			URL:     settings.QdrantURL,
			APIKey:  settings.QdrantAPIKey,
			Timeout: settings.Timeout,
		}
		vectors := qdrant.NewVectorStore(cfg)
		stores.Vectors = vectors
		stores.Searcher = vectors
		stores.Registry = qdrant.NewRegistryStore(cfg, settings.RegistryCollection)
		stores.closers = append(stores.closers, vectors.Close)

	case domain.StoreBackendRedis:
		client, err := redis.NewClient(redis.Config{URL: settings.RedisURL})
		if err != nil {
			_ = stores.Close()
			return nil, err
		}
		vectors := redis.NewVectorStore(client, redis.DefaultKeyPrefix)
		stores.Vectors = vectors
		stores.Searcher = vectors
		stores.Registry = redis.NewRegistryStore(client, redis.DefaultKeyPrefix)
		// Closing the vector store closes the shared client
		stores.closers = append(stores.closers, vectors.Close)

	default:
		_ = stores.Close()
		return nil, fmt.Errorf("%w: unsupported store backend: %s", domain.ErrConfig, settings.Backend)
	}

	return stores, nil
}

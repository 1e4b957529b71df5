package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driving"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/logger"
)

// Ensure RegistryService implements the interface.
var _ driving.CatalogService = (*RegistryService)(nil)

// registryPageSize is the scan page size used when recomputing an entry.
const registryPageSize = 256

// RegistryService owns pack registry entries. Entries are always recomputed
// by paging the pack's collection, so they never claim chunks the download
// API cannot return.
type RegistryService struct {
	store    driven.VectorStore
	registry driven.RegistryStore
	prefix   string
	timeout  time.Duration
	now      func() time.Time
}

// NewRegistryService creates a registry service.
func NewRegistryService(
	store driven.VectorStore,
	registry driven.RegistryStore,
	collectionPrefix string,
	timeout time.Duration,
) *RegistryService {
	return &RegistryService{
		store:    store,
		registry: registry,
		prefix:   collectionPrefix,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Recompute pages the pack's collection, rebuilds its entry and saves it.
// A missing collection yields an entry with zero documents.
func (s *RegistryService) Recompute(
	ctx context.Context,
	packID string,
	metadata map[string]any,
	ingestedAt time.Time,
) (*domain.RegistryEntry, error) {
	collection := domain.CollectionName(s.prefix, packID)
	b := domain.NewRegistryBuilder(packID)

	cursor := ""
	for {
		var page []domain.Chunk
		var next string
		err := withTimeout(ctx, s.timeout, func(ctx context.Context) error {
			var serr error
			page, next, serr = s.store.Scan(ctx, collection, cursor, registryPageSize)
			return serr
		})
		if errors.Is(err, domain.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		for n := range page {
			b.Add(&page[n])
		}
		if next == "" {
			break
		}
		cursor = next
	}

	entry := b.Build(metadata, ingestedAt)
	err := withTimeout(ctx, s.timeout, func(ctx context.Context) error {
		return s.registry.Save(ctx, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("save registry entry: %w", err)
	}
	logger.Debug("registry %s: %d documents, %d topics", packID, entry.TotalDocuments, len(entry.Topics))
	return &entry, nil
}

// List returns registry entries for every pack.
func (s *RegistryService) List(ctx context.Context) ([]domain.RegistryEntry, error) {
	entries, err := s.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list registry: %w", err)
	}
	if entries == nil {
		entries = []domain.RegistryEntry{}
	}
	return entries, nil
}

// Get returns the entry for one pack.
func (s *RegistryService) Get(ctx context.Context, packID string) (*domain.RegistryEntry, error) {
	if strings.TrimSpace(packID) == "" {
		return nil, fmt.Errorf("%w: pack id is required", domain.ErrInvalidInput)
	}
	return s.registry.Get(ctx, packID)
}

// Refresh recomputes the entry from the stored chunks. The existing metadata
// echo and ingest timestamp are kept because no ingestion took place. A pack
// with neither an entry nor a collection is ErrNotFound.
func (s *RegistryService) Refresh(ctx context.Context, packID string) (*domain.RegistryEntry, error) {
	if strings.TrimSpace(packID) == "" {
		return nil, fmt.Errorf("%w: pack id is required", domain.ErrInvalidInput)
	}

	existing, err := s.registry.Get(ctx, packID)
	switch {
	case err == nil:
		return s.Recompute(ctx, packID, existing.Metadata, existing.LastIngestedAt)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("get registry entry: %w", err)
	}

	collection := domain.CollectionName(s.prefix, packID)
	err = withTimeout(ctx, s.timeout, func(ctx context.Context) error {
		_, _, serr := s.store.Scan(ctx, collection, "", 1)
		return serr
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("pack %s: %w", packID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", collection, err)
	}
	return s.Recompute(ctx, packID, nil, s.now())
}

// Remove deletes the pack's collection and its registry entry.
func (s *RegistryService) Remove(ctx context.Context, packID string) error {
	if strings.TrimSpace(packID) == "" {
		return fmt.Errorf("%w: pack id is required", domain.ErrInvalidInput)
	}
	collection := domain.CollectionName(s.prefix, packID)

	var errs []error
	if err := s.store.DeleteCollection(ctx, collection); err != nil {
		errs = append(errs, fmt.Errorf("delete collection %s: %w", collection, err))
	}
	if err := s.registry.Delete(ctx, packID); err != nil {
		errs = append(errs, fmt.Errorf("delete registry entry: %w", err))
	}
	return errors.Join(errs...)
}

package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
)

// DefaultRegistryCollection holds one point per pack.
const DefaultRegistryCollection = "pack_registry"

// Ensure RegistryStore implements the interface.
var _ driven.RegistryStore = (*RegistryStore)(nil)

// registryPageSize is the scroll page used when listing entries.
const registryPageSize = 100

// RegistryStore keeps registry entries as payloads in a dedicated collection.
// Points carry a single-dimension placeholder vector.
type RegistryStore struct {
	client     *client
	collection string

	mu      sync.Mutex
	created bool
}

// NewRegistryStore creates a registry store. An empty collection name uses
// DefaultRegistryCollection.
func NewRegistryStore(cfg Config, collection string) *RegistryStore {
	if collection == "" {
		collection = DefaultRegistryCollection
	}
	return &RegistryStore{client: newClient(cfg), collection: collection}
}

// Save stores or replaces an entry.
func (r *RegistryStore) Save(ctx context.Context, entry domain.RegistryEntry) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}
	payload, err := entryPayload(entry)
	if err != nil {
		return err
	}
	return r.client.upsertPoints(ctx, r.collection, []point{{
		ID:      pointID(entry.PackID),
		Vector:  []float32{0},
		Payload: payload,
	}})
}

// Get retrieves the entry for a pack.
func (r *RegistryStore) Get(ctx context.Context, packID string) (*domain.RegistryEntry, error) {
	var result point
	err := r.client.do(ctx, http.MethodGet, collectionPath(r.collection)+"/points/"+pointID(packID), nil, &result)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("pack %s: %w", packID, domain.ErrNotFound)
		}
		return nil, err
	}
	return entryFromPayload(result.Payload)
}

// List returns every entry ordered by pack id.
func (r *RegistryStore) List(ctx context.Context) ([]domain.RegistryEntry, error) {
	entries := make([]domain.RegistryEntry, 0)
	offset := ""
	for {
		result, err := r.client.scroll(ctx, r.collection, offset, registryPageSize, false)
		if errors.Is(err, domain.ErrNotFound) {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		for _, p := range result.Points {
			entry, err := entryFromPayload(p.Payload)
			if err != nil {
				return nil, err
			}
			entries = append(entries, *entry)
		}
		next, ok := result.NextPageOffset.(string)
		if !ok || next == "" {
			break
		}
		offset = next
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].PackID < entries[j].PackID })
	return entries, nil
}

// Delete removes the entry for a pack.
func (r *RegistryStore) Delete(ctx context.Context, packID string) error {
	body := map[string]any{"points": []string{pointID(packID)}}
	err := r.client.do(ctx, http.MethodPost, collectionPath(r.collection)+"/points/delete?wait=true", body, nil)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

func (r *RegistryStore) ensure(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.created {
		return nil
	}
	if err := r.client.ensureCollection(ctx, r.collection, 1); err != nil {
		return err
	}
	r.created = true
	return nil
}

// entryPayload converts an entry to a generic JSON object.
func entryPayload(entry domain.RegistryEntry) (map[string]any, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal registry entry: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal registry payload: %w", err)
	}
	return payload, nil
}

func entryFromPayload(payload map[string]any) (*domain.RegistryEntry, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal registry payload: %w", err)
	}
	var entry domain.RegistryEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decode registry entry: %w", err)
	}
	return &entry, nil
}

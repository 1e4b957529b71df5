package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
)

// Ensure RegistryStore implements the interface.
var _ driven.RegistryStore = (*RegistryStore)(nil)

// RegistryStore keeps registry entries as JSON values in a single hash.
type RegistryStore struct {
	client *redis.Client
	key    string
}

// NewRegistryStore creates a registry store over an existing client.
func NewRegistryStore(client *redis.Client, keyPrefix string) *RegistryStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RegistryStore{client: client, key: keyPrefix + "registry"}
}

// Save stores or replaces an entry.
func (r *RegistryStore) Save(ctx context.Context, entry domain.RegistryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshalling registry entry: %w", err)
	}
	if err := r.client.HSet(ctx, r.key, entry.PackID, data).Err(); err != nil {
		return storeError("saving registry entry", err)
	}
	return nil
}

// Get retrieves the entry for a pack.
func (r *RegistryStore) Get(ctx context.Context, packID string) (*domain.RegistryEntry, error) {
	data, err := r.client.HGet(ctx, r.key, packID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("pack %s: %w", packID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, storeError("reading registry entry", err)
	}
	var entry domain.RegistryEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("unmarshalling registry entry: %w", err)
	}
	return &entry, nil
}

// List returns every entry ordered by pack id.
func (r *RegistryStore) List(ctx context.Context) ([]domain.RegistryEntry, error) {
	all, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, storeError("listing registry", err)
	}
	entries := make([]domain.RegistryEntry, 0, len(all))
	for packID, data := range all {
		var entry domain.RegistryEntry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			return nil, fmt.Errorf("unmarshalling registry entry %s: %w", packID, err)
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].PackID < entries[j].PackID })
	return entries, nil
}

// Delete removes the entry for a pack.
func (r *RegistryStore) Delete(ctx context.Context, packID string) error {
	if err := r.client.HDel(ctx, r.key, packID).Err(); err != nil {
		return storeError("deleting registry entry", err)
	}
	return nil
}

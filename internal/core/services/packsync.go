package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driving"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/logger"
)

// Ensure PackSync implements the interface.
var _ driving.PackSync = (*PackSync)(nil)

// PackSyncConfig tunes pulls.
type PackSyncConfig struct {
	// Server is the base URL of the remote server, used to key saved state.
	Server string

	// CollectionPrefix is prepended to sanitised pack ids locally.
	CollectionPrefix string

	// MaxRetries is the number of extra attempts per page.
	MaxRetries int

	// RetryBackoff is the initial delay between attempts.
	RetryBackoff time.Duration

	// Timeout bounds every local store call.
	Timeout time.Duration
}

// PackSync pulls packs from a remote server page by page. The cursor is
// saved after every stored page, so an interrupted pull resumes where the
// last acknowledged page ended.
type PackSync struct {
	client   driven.PackClient
	states   driven.SyncStateStore
	store    driven.VectorStore
	registry driven.RegistryStore
	cfg      PackSyncConfig
	now      func() time.Time
}

// NewPackSync creates a pack sync. registry is optional - if nil, the remote
// registry entry is not mirrored locally.
func NewPackSync(
	client driven.PackClient,
	states driven.SyncStateStore,
	store driven.VectorStore,
	registry driven.RegistryStore,
	cfg PackSyncConfig,
) *PackSync {
	return &PackSync{
		client:   client,
		states:   states,
		store:    store,
		registry: registry,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Pull pages the remote pack into the local store.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (p *PackSync) Pull(ctx context.Context, packID string, limit int) (*driving.PullResult, error) {
	if strings.TrimSpace(packID) == "" {
		return nil, fmt.Errorf("%w: pack id is required", domain.ErrInvalidInput)
	}
	if limit == 0 {
		limit = domain.DefaultDownloadLimit
	}
	if err := domain.ValidateDownloadLimit(limit); err != nil {
		return nil, err
	}

	// 1. Load saved progress
	state, err := p.states.Get(ctx, domain.SyncKey(p.cfg.Server, packID))
	if err != nil {
		return nil, fmt.Errorf("load sync state: %w", err)
	}
	if state == nil {
		state = &domain.SyncState{PackID: packID, Server: p.cfg.Server}
	}
	result := &driving.PullResult{PackID: packID, Resumed: state.Cursor != ""}
	if result.Resumed {
		logger.Info("resuming pull of %s after %s", packID, state.Cursor)
	}

	collection := domain.CollectionName(p.cfg.CollectionPrefix, packID)

	// 2. Page until the server reports the end
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		var page *domain.DownloadPage
		err := withRetry(ctx, p.cfg.MaxRetries, p.cfg.RetryBackoff, func(ctx context.Context) error {
			var derr error
			page, derr = p.client.Download(ctx, packID, state.Cursor, limit)
			return derr
		})
		if err != nil {
			return result, fmt.Errorf("download page %d: %w", result.Pages+1, err)
		}
		result.Pages++

		if len(page.Items) > 0 {
			chunks := make([]domain.Chunk, len(page.Items))
			for n, item := range page.Items {
				chunks[n] = domain.Chunk{
					DocumentID: item.DocumentID,
					Text:       item.Text,
					Metadata:   item.Metadata,
					Embedding:  item.Embedding,
				}
			}
			err := withTimeout(ctx, p.cfg.Timeout, func(ctx context.Context) error {
				return p.store.Upsert(ctx, collection, chunks)
			})
			if err != nil {
				return result, fmt.Errorf("store page %d: %w", result.Pages, err)
			}
			result.Stored += len(chunks)
			state.Pulled += len(chunks)
		}

		if page.Done() {
			break
		}

		// 3. Acknowledge the page
		state.Cursor = *page.NextOffset
		if err := p.states.Save(ctx, *state); err != nil {
			return result, fmt.Errorf("save sync state: %w", err)
		}
		logger.Debug("pulled page %d of %s (%d chunks so far)", result.Pages, packID, state.Pulled)
	}

	// 4. Session complete; the next pull starts over
	result.Complete = true
	state.Cursor = ""
	state.Pulled = 0
	state.LastSync = p.now().UTC()
	if err := p.states.Save(ctx, *state); err != nil {
		return result, fmt.Errorf("save sync state: %w", err)
	}

	if p.registry != nil {
		entry, err := p.client.GetPack(ctx, packID)
		if err != nil {
			logger.Warn("pulled %s but could not fetch its registry entry: %v", packID, err)
		} else if err := p.registry.Save(ctx, *entry); err != nil {
			logger.Warn("save registry entry for %s: %v", packID, err)
		}
	}

	logger.Info("pulled %d chunks of %s in %d pages", result.Stored, packID, result.Pages)
	return result, nil
}

// State returns the saved pull state, or nil when none exists.
func (p *PackSync) State(ctx context.Context, packID string) (*domain.SyncState, error) {
	return p.states.Get(ctx, domain.SyncKey(p.cfg.Server, packID))
}

// Reset discards saved pull state.
func (p *PackSync) Reset(ctx context.Context, packID string) error {
	return p.states.Delete(ctx, domain.SyncKey(p.cfg.Server, packID))
}

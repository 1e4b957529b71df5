package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driving"
)

// Ensure DownloadService implements the interface.
var _ driving.DownloadService = (*DownloadService)(nil)

// DownloadService serves cursor-ordered pages of a pack.
// It holds no per-session state and is safe for any number of concurrent readers.
type DownloadService struct {
	store   driven.VectorStore
	prefix  string
	timeout time.Duration
}

// NewDownloadService creates a download service.
func NewDownloadService(store driven.VectorStore, collectionPrefix string, timeout time.Duration) *DownloadService {
	return &DownloadService{
		store:   store,
		prefix:  collectionPrefix,
		timeout: timeout,
	}
}

// Download returns one page strictly after cursor.
func (s *DownloadService) Download(
	ctx context.Context,
	packID string,
	cursor *string,
	limit int,
) (*domain.DownloadPage, error) {
	if err := domain.ValidateDownloadLimit(limit); err != nil {
		return nil, err
	}
	if strings.TrimSpace(packID) == "" {
		return nil, fmt.Errorf("%w: pack id is required", domain.ErrInvalidInput)
	}

	after := ""
	if cursor != nil {
		after = *cursor
	}

	var chunks []domain.Chunk
	var next string
	err := withTimeout(ctx, s.timeout, func(ctx context.Context) error {
		var serr error
		chunks, next, serr = s.store.Scan(ctx, domain.CollectionName(s.prefix, packID), after, limit)
		return serr
	})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", packID, err)
	}

	page := &domain.DownloadPage{
		PackID: packID,
		Limit:  limit,
		Offset: cursor,
		Items:  make([]domain.DownloadItem, len(chunks)),
	}
	for n, c := range chunks {
		page.Items[n] = domain.ItemFromChunk(c)
	}
	if next != "" {
		page.NextOffset = &next
	}
	return page, nil
}

// Package packclient reads packs from a remote zerosignal server.
package packclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.PackClient = (*Client)(nil)

// DefaultTimeout bounds each request.
const DefaultTimeout = 60 * time.Second

// Config holds configuration for the pack client.
type Config struct {
	// BaseURL is the remote server, e.g. https://packs.example.org (required).
	BaseURL string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// Client calls the download and registry endpoints of a remote server.
type Client struct {
	http    *http.Client
	baseURL string
}

// errorResponse is the error body returned by the server.
type errorResponse struct {
	Detail string `json:"detail"`
}

// New creates a pack client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid server url %q", domain.ErrConfig, cfg.BaseURL)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: base,
	}, nil
}

// BaseURL returns the server URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Download fetches one page strictly after cursor.
func (c *Client) Download(ctx context.Context, packID, cursor string, limit int) (*domain.DownloadPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		q.Set("offset", cursor)
	}

	var page domain.DownloadPage
	if err := c.get(ctx, "/packs/"+url.PathEscape(packID)+"/download?"+q.Encode(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPack fetches the registry entry for a pack.
func (c *Client) GetPack(ctx context.Context, packID string) (*domain.RegistryEntry, error) {
	var entry domain.RegistryEntry
	if err := c.get(ctx, "/packs/"+url.PathEscape(packID), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListPacks fetches every registry entry.
func (c *Client) ListPacks(ctx context.Context) ([]domain.RegistryEntry, error) {
	var entries []domain.RegistryEntry
	if err := c.get(ctx, "/packs", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", domain.ErrStoreUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError maps a server status onto domain errors.
func statusError(status int, body []byte) error {
	var er errorResponse
	detail := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &er) == nil && er.Detail != "" {
		detail = er.Detail
	}
	if len(detail) > 200 {
		detail = detail[:200] + "..."
	}

	var kind error
	switch {
	case status == http.StatusNotFound:
		kind = domain.ErrNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		kind = domain.ErrInvalidInput
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = domain.ErrStoreAuth
	case status == http.StatusTooManyRequests || status >= 500:
		kind = domain.ErrStoreUnavailable
	default:
		kind = errors.New("unexpected response")
	}
	return fmt.Errorf("server returned %d: %w: %s", status, kind, detail)
}

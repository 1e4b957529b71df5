// Package qdrant stores pack chunks and registry entries in Qdrant over its REST API.
//
// Each chunk becomes a point whose id is a name-based UUID derived from the
// document id, with payload {document_id, text, metadata}. Scans walk the
// collection in point id order, so the download cursor is a point id.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// Default configuration values.
const (
	DefaultURL     = "http://localhost:6333"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the Qdrant client.
type Config struct {
	// URL is the Qdrant REST endpoint (default: http://localhost:6333).
	URL string

	// APIKey is sent as the api-key header when set.
	APIKey string

	// Timeout bounds each HTTP request (default: 30s).
	Timeout time.Duration
}

// client is a thin JSON client for the Qdrant REST API.
type client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

func newClient(cfg Config) *client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
	}
}

// envelope is the common Qdrant response wrapper.
type envelope struct {
	Result json.RawMessage `json:"result"`
	Status any             `json:"status"`
}

// do sends a request and decodes the result field into out when out is non-nil.
func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("qdrant %s %s: %w", method, path, ctxErr)
		}
		return fmt.Errorf("qdrant %s %s: %w: %w", method, path, domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("qdrant %s %s: read response: %w: %w", method, path, domain.ErrStoreUnavailable, err)
	}
	if err := statusError(resp.StatusCode, data); err != nil {
		return fmt.Errorf("qdrant %s %s: %w", method, path, err)
	}

	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// statusError maps an HTTP status to a domain error.
func statusError(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return fmt.Errorf("%w (status %d)", domain.ErrStoreAuth, status)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w (status %d)", domain.ErrNotFound, status)
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w (status %d): %s", domain.ErrInvalidInput, status, truncate(body))
	case status == http.StatusTooManyRequests, status >= 500:
		return fmt.Errorf("%w (status %d): %s", domain.ErrStoreUnavailable, status, truncate(body))
	default:
		return fmt.Errorf("unexpected status %d: %s", status, truncate(body))
	}
}

func truncate(body []byte) string {
	const maxBody = 200
	if len(body) > maxBody {
		return string(body[:maxBody]) + "..."
	}
	return string(body)
}

// ensureCollection creates the collection with the given vector size if missing.
func (c *client) ensureCollection(ctx context.Context, name string, size int) error {
	err := c.do(ctx, http.MethodGet, collectionPath(name), nil, nil)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	body := map[string]any{
		"vectors": map[string]any{"size": size, "distance": "Cosine"},
	}
	return c.do(ctx, http.MethodPut, collectionPath(name), body, nil)
}

func collectionPath(name string) string {
	return "/collections/" + url.PathEscape(name)
}

// pointID derives a stable point id from a key.
func pointID(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

// point is the wire form of a Qdrant point.
type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
	Score   float64        `json:"score,omitempty"`
}

type scrollResult struct {
	Points         []point `json:"points"`
	NextPageOffset any     `json:"next_page_offset"`
}

// scroll returns up to limit points starting at offset (inclusive).
func (c *client) scroll(ctx context.Context, collection, offset string, limit int, withVector bool) (*scrollResult, error) {
	body := map[string]any{
		"limit":        limit,
		"with_payload": true,
		"with_vector":  withVector,
	}
	if offset != "" {
		body["offset"] = offset
	}
	var result scrollResult
	if err := c.do(ctx, http.MethodPost, collectionPath(collection)+"/points/scroll", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *client) upsertPoints(ctx context.Context, collection string, points []point) error {
	body := map[string]any{"points": points}
	return c.do(ctx, http.MethodPut, collectionPath(collection)+"/points?wait=true", body, nil)
}

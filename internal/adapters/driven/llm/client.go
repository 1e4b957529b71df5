package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// Client is the JSON transport the providers share. Header is sent on every
// request and carries the provider's credentials.
type Client struct {
	provider string
	baseURL  string
	header   http.Header
	http     *http.Client
}

func NewClient(provider, baseURL string, timeout time.Duration, header http.Header) *Client {
	if header == nil {
		header = http.Header{}
	}
	return &Client{
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		header:   header,
		http:     &http.Client{Timeout: timeout},
	}
}

// PostJSON sends payload to path and decodes a 200 reply into out. Every
// failure wraps domain.ErrSummarisationFailure.
func (c *Client) PostJSON(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return Failure(c.provider, fmt.Errorf("marshal request: %w", err))
	}

	req, err := c.request(ctx, http.MethodPost, path, bytes.NewReader(data))
	if err != nil {
		return Failure(c.provider, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Failure(c.provider, fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Failure(c.provider, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return StatusFailure(c.provider, resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return Failure(c.provider, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// Ping issues a GET that costs no tokens. Any failure wraps
// domain.ErrLLMUnavailable.
func (c *Client) Ping(ctx context.Context, path string) error {
	req, err := c.request(ctx, http.MethodGet, path, http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", c.provider, domain.ErrLLMUnavailable, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", c.provider, domain.ErrLLMUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: %w: status %d: %s", c.provider, domain.ErrLLMUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func (c *Client) request(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	return req, nil
}

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

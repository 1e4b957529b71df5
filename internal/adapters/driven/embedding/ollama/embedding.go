// Package ollama embeds chunk text with a local Ollama server.
package ollama

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
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultModel      = "nomic-embed-text"
	DefaultTimeout    = 60 * time.Second
	DefaultDimensions = 768

	// MaxInputsPerRequest keeps one /api/embed call inside the default
	// request timeout on CPU-only hosts.
	MaxInputsPerRequest = 64
)

type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions is the vector size the model must return. Responses of
	// another size fail with domain.ErrConfig so a mismatched model never
	// writes into an existing collection.
	Dimensions int

	// KeepAlive is how long Ollama keeps the model loaded after a request,
	// in its duration syntax ("5m", "-1"). Empty uses the server default.
	KeepAlive string
}

// EmbeddingService implements driven.EmbeddingService over /api/embed.
type EmbeddingService struct {
	client     *http.Client
	baseURL    string
	model      string
	dimensions int
	keepAlive  string
}

type embedRequest struct {
	Model     string   `json:"model"`
	Input     []string `json:"input"`
	Truncate  bool     `json:"truncate"`
	KeepAlive string   `json:"keep_alive,omitempty"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}

	return &EmbeddingService{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		keepAlive:  cfg.KeepAlive,
	}
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns one vector per text in input order, splitting large
// batches into several requests.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("ollama: %w: input %d is empty", domain.ErrInvalidInput, i)
		}
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += MaxInputsPerRequest {
		vecs, err := s.embed(ctx, texts[start:min(start+MaxInputsPerRequest, len(texts))])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (s *EmbeddingService) embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := s.do(ctx, http.MethodPost, "/api/embed", embedRequest{
		Model:     s.model,
		Input:     texts,
		Truncate:  true,
		KeepAlive: s.keepAlive,
	})
	if err != nil {
		return nil, err
	}

	var resp embedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ollama: %w: decode response: %w", domain.ErrEmbeddingFailure, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("ollama: %w: %s", domain.ErrEmbeddingFailure, resp.Error)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama: %w: got %d embeddings for %d inputs",
			domain.ErrEmbeddingFailure, len(resp.Embeddings), len(texts))
	}

	vecs := make([][]float32, len(texts))
	for i, raw := range resp.Embeddings {
		if len(raw) != s.dimensions {
			return nil, fmt.Errorf("ollama: %w: model %s returned %d dimensions, expected %d",
				domain.ErrConfig, s.model, len(raw), s.dimensions)
		}
		v := make([]float32, len(raw))
		for j, f := range raw {
			v[j] = float32(f)
		}
		vecs[i] = v
	}
	return vecs, nil
}

func (s *EmbeddingService) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reader io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("ollama: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("ollama: build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ollama: %w", ctx.Err())
		}
		return nil, fmt.Errorf("ollama: %w: %w", domain.ErrEmbeddingFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w: read response: %w", domain.ErrEmbeddingFailure, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, body)
	}
	return body, nil
}

// statusError maps a failed response onto domain errors. 4xx other than 429
// means the request itself is wrong, usually an unknown model.
func statusError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
		return fmt.Errorf("ollama: status %d: %w: %w: %s", status, domain.ErrEmbeddingFailure, domain.ErrInvalidInput, msg)
	}
	return fmt.Errorf("ollama: status %d: %w: %s", status, domain.ErrEmbeddingFailure, msg)
}

func (s *EmbeddingService) Dimensions() int   { return s.dimensions }
func (s *EmbeddingService) ModelName() string { return s.model }

// Ping lists local models and fails with domain.ErrConfig when the
// configured one has not been pulled.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	body, err := s.do(ctx, http.MethodGet, "/api/tags", nil)
	if err != nil {
		return err
	}
	var tags tagsResponse
	if err := json.Unmarshal(body, &tags); err != nil {
		return fmt.Errorf("ollama: decode model list: %w", err)
	}
	for _, m := range tags.Models {
		if m.Name == s.model || m.Name == s.model+":latest" {
			return nil
		}
	}
	return fmt.Errorf("ollama: %w: model %s is not pulled (run: ollama pull %s)", domain.ErrConfig, s.model, s.model)
}

func (s *EmbeddingService) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// Package anthropic summarises chunks with the Anthropic Messages API.
package anthropic

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driven/llm"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/logger"
)

var _ driven.Summariser = (*Summariser)(nil)

const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-haiku-latest"
	DefaultTimeout = 120 * time.Second

	anthropicVersion = "2023-06-01"
)

// Config configures the adapter. Only APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type Summariser struct {
	client  *llm.Client
	model   string
	prompts driven.PromptStore
}

type messagesRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewSummariser(cfg Config) (*Summariser, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: %w: API key is required", domain.ErrConfig)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	header := http.Header{}
	header.Set("x-api-key", cfg.APIKey)
	header.Set("anthropic-version", anthropicVersion)

	return &Summariser{
		client: llm.NewClient("anthropic", cfg.BaseURL, cfg.Timeout, header),
		model:  cfg.Model,
	}, nil
}

func (s *Summariser) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Summarise joins the text blocks of the reply; tool_use and thinking
// blocks are skipped.
func (s *Summariser) Summarise(ctx context.Context, text string, opts driven.SummariseOptions) (string, error) {
	system, user := llm.Messages(s.prompts, text, opts.MaxWords)

	var resp messagesResponse
	err := s.client.PostJSON(ctx, "/v1/messages", messagesRequest{
		Model:       cmp.Or(opts.Model, s.model),
		System:      system,
		Messages:    []message{{Role: "user", Content: user}},
		MaxTokens:   llm.MaxTokens,
		Temperature: opts.Temperature,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("anthropic: %w: %s", domain.ErrSummarisationFailure, resp.Error.Message)
	}
	if resp.StopReason == "max_tokens" {
		logger.Debug("anthropic: summary hit the %d token cap", llm.MaxTokens)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return llm.Result("anthropic", sb.String())
}

func (s *Summariser) ModelName() string { return s.model }

// Ping lists models, which checks the key without running inference.
func (s *Summariser) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, "/v1/models")
}

func (s *Summariser) Close() error { return s.client.Close() }

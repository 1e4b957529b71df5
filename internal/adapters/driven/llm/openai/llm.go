// Package openai summarises chunks with the OpenAI chat completions API or
// any server that speaks it.
package openai

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driven/llm"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/logger"
)

var _ driven.Summariser = (*Summariser)(nil)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 120 * time.Second
)

// Config configures the adapter. Only APIKey is required; BaseURL points it
// at Azure or another compatible server.
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

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewSummariser(cfg Config) (*Summariser, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: %w: API key is required", domain.ErrConfig)
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
	header.Set("Authorization", "Bearer "+cfg.APIKey)

	return &Summariser{
		client: llm.NewClient("openai", cfg.BaseURL, cfg.Timeout, header),
		model:  cfg.Model,
	}, nil
}

// SetPromptStore replaces the built-in prompts with user-editable ones.
func (s *Summariser) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

func (s *Summariser) Summarise(ctx context.Context, text string, opts driven.SummariseOptions) (string, error) {
	system, user := llm.Messages(s.prompts, text, opts.MaxWords)

	var resp chatResponse
	err := s.client.PostJSON(ctx, "/chat/completions", chatRequest{
		Model: cmp.Or(opts.Model, s.model),
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   llm.MaxTokens,
		Temperature: opts.Temperature,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("openai: %w: %s", domain.ErrSummarisationFailure, resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w: no choices returned", domain.ErrSummarisationFailure)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "length" {
		logger.Debug("openai: summary hit the %d token cap", llm.MaxTokens)
	}
	return llm.Result("openai", choice.Message.Content)
}

func (s *Summariser) ModelName() string { return s.model }

// Ping lists models, which checks the key without running inference.
func (s *Summariser) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, "/models")
}

func (s *Summariser) Close() error { return s.client.Close() }

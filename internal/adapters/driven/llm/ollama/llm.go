// Package ollama summarises chunks with a local Ollama server.
package ollama

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driven/llm"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
)

var _ driven.Summariser = (*Summariser)(nil)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"

	// DefaultTimeout allows for the model being loaded on first use.
	DefaultTimeout = 120 * time.Second
)

type Config struct {
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
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  options       `json:"options"`
}

// options always carries temperature so a zero value is not replaced by the
// model default.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message    chatMessage `json:"message"`
	Done       bool        `json:"done"`
	DoneReason string      `json:"done_reason"`
	Error      string      `json:"error,omitempty"`
}

func NewSummariser(cfg Config) *Summariser {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Summariser{
		client: llm.NewClient("ollama", cfg.BaseURL, cfg.Timeout, nil),
		model:  cfg.Model,
	}
}

func (s *Summariser) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Summarise runs one non-streaming chat turn.
func (s *Summariser) Summarise(ctx context.Context, text string, opts driven.SummariseOptions) (string, error) {
	system, user := llm.Messages(s.prompts, text, opts.MaxWords)

	var resp chatResponse
	err := s.client.PostJSON(ctx, "/api/chat", chatRequest{
		Model: cmp.Or(opts.Model, s.model),
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Options: options{NumPredict: llm.MaxTokens, Temperature: opts.Temperature},
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama: %w: %s", domain.ErrSummarisationFailure, resp.Error)
	}
	return llm.Result("ollama", resp.Message.Content)
}

func (s *Summariser) ModelName() string { return s.model }

// Ping lists local models; it does not load one.
func (s *Summariser) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, "/api/tags")
}

func (s *Summariser) Close() error { return s.client.Close() }

// Package llm holds the prompt handling shared by the summariser adapters.
// Provider packages (openai, anthropic, ollama) only differ in transport.
package llm

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
)

// Summary request limits.
const (
	// MaxInputChars is the longest chunk prefix sent to the model.
	MaxInputChars = 6000

	// MaxTokens caps the model's reply.
	MaxTokens = 800

	// DefaultMaxWords is used when the caller does not set a target.
	DefaultMaxWords = 180
)

// defaultSystemPrompt and defaultUserPrompt are used without a prompt store.
const (
	defaultSystemPrompt = "You are a technical editor for emergency field manuals. " +
		"Condense the provided passages into precise, factually grounded instructions. " +
		"Do not invent new information and always keep the response under the requested length."

	defaultUserPrompt = "Summarize the following text so it fits within %d words. " +
		"Use short sentences or bullet points and preserve critical cautions.\n\n%s"
)

// Messages builds the system and user messages for one summary.
// Text longer than MaxInputChars is cut at a rune boundary.
func Messages(prompts driven.PromptStore, text string, maxWords int) (system, user string) {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	system = load(prompts, driven.PromptSummariseSystem, defaultSystemPrompt)
	user = fmt.Sprintf(load(prompts, driven.PromptSummarise, defaultUserPrompt), maxWords, Truncate(text, MaxInputChars))
	return system, user
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func load(prompts driven.PromptStore, name, fallback string) string {
	if prompts == nil {
		return fallback
	}
	p, err := prompts.Load(name)
	if err != nil || p == "" {
		return fallback
	}
	return p
}

// Result validates a model reply. An empty reply is a failure so the caller
// falls back to the raw text.
func Result(provider, reply string) (string, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("%s: %w: empty response", provider, domain.ErrSummarisationFailure)
	}
	return reply, nil
}

// Failure wraps a transport or decode error.
func Failure(provider string, err error) error {
	return fmt.Errorf("%s: %w: %w", provider, domain.ErrSummarisationFailure, err)
}

// StatusFailure wraps a non-200 response.
func StatusFailure(provider string, status int, body []byte) error {
	msg := string(body)
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return fmt.Errorf("%s (status %d): %w: credentials rejected", provider, status, domain.ErrSummarisationFailure)
	}
	return fmt.Errorf("%s (status %d): %w: %s", provider, status, domain.ErrSummarisationFailure, msg)
}

package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed defaults/*.txt
var defaultFS embed.FS

// requiredVerbs lists the fmt verbs each template must keep, in order.
var requiredVerbs = map[string][]string{
	driven.PromptSummarise: {"%d", "%s"},
}

var errUnknownPrompt = errors.New("unknown prompt")

// DefaultPrompt returns the built-in template for name.
func DefaultPrompt(name string) (string, bool) {
	data, err := fs.ReadFile(defaultFS, "defaults/"+name+".txt")
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

// PromptStore serves summary prompts from <dir>/<name>.txt. The defaults
// are written out on first use so users have something to edit. Edited
// files are picked up on the next Load; an unreadable, empty or
// placeholder-less file falls back to the default.
type PromptStore struct {
	dir      string
	initOnce sync.Once
	initErr  error

	mu    sync.Mutex
	cache map[string]cachedPrompt
}

// cachedPrompt remembers which version of the file produced text.
type cachedPrompt struct {
	text    string
	modTime time.Time
	size    int64
}

// NewPromptStore uses ~/.zerosignal/prompts when dir is empty.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".zerosignal", "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]cachedPrompt)}, nil
}

func (s *PromptStore) Dir() string { return s.dir }

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

// Load returns the template for name. Only unknown names are errors.
func (s *PromptStore) Load(name string) (string, error) {
	fallback, known := DefaultPrompt(name)
	if !known {
		return "", fmt.Errorf("prompt %q: %w", name, errUnknownPrompt)
	}

	s.initOnce.Do(s.writeDefaults)
	if s.initErr != nil {
		return fallback, nil
	}

	info, err := os.Stat(s.path(name))
	if err != nil {
		logger.Debug("prompt %s: %v, using default", name, err)
		return fallback, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.cache[name]; ok && c.modTime.Equal(info.ModTime()) && c.size == info.Size() {
		return c.text, nil
	}

	text, err := s.read(name)
	if err != nil {
		logger.Warn("prompt %s: %v, using default", name, err)
		text = fallback
	}
	s.cache[name] = cachedPrompt{text: text, modTime: info.ModTime(), size: info.Size()}
	return text, nil
}

// Reload drops every cached template.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]cachedPrompt)
	s.mu.Unlock()
}

func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", errors.New("empty file")
	}
	if err := checkVerbs(name, text); err != nil {
		return "", err
	}
	return text, nil
}

// checkVerbs verifies a custom template still carries its placeholders.
func checkVerbs(name, prompt string) error {
	rest := prompt
	for _, verb := range requiredVerbs[name] {
		i := strings.Index(rest, verb)
		if i < 0 {
			return fmt.Errorf("missing placeholder %s", verb)
		}
		rest = rest[i+len(verb):]
	}
	return nil
}

// writeDefaults creates the directory and any prompt file that is missing.
// Existing files are never overwritten.
func (s *PromptStore) writeDefaults() {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		logger.Warn("%v", s.initErr)
		return
	}

	entries, err := fs.ReadDir(defaultFS, "defaults")
	if err != nil {
		s.initErr = err
		return
	}
	for _, e := range entries {
		dst := filepath.Join(s.dir, e.Name())
		if _, err := os.Stat(dst); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		data, err := fs.ReadFile(defaultFS, "defaults/"+e.Name())
		if err == nil {
			err = os.WriteFile(dst, data, 0o600)
		}
		if err != nil {
			s.initErr = fmt.Errorf("write default prompt %s: %w", e.Name(), err)
			logger.Warn("%v", s.initErr)
			return
		}
	}
}

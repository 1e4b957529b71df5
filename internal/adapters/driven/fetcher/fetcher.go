// Package fetcher reads pack sources from the web or the local filesystem
// and reduces them to plain text.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/logger"
)

// Ensure Fetcher implements the interface.
var _ driven.SourceFetcher = (*Fetcher)(nil)

// Default configuration values.
const (
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerSecond = 2.0

	// maxBodySize caps how much of a page is read.
	maxBodySize = 10 << 20
)

// Config holds fetcher configuration.
type Config struct {
	// UserAgent is sent with every request and matched against robots.txt.
	UserAgent string

	// RequestsPerSecond caps requests per host (default: 2).
	RequestsPerSecond float64

	// IgnoreRobots disables robots.txt checks.
	IgnoreRobots bool

	// Timeout bounds each HTTP request (default: 30s).
	Timeout time.Duration
}

// Fetcher retrieves sources over http(s), file:// or plain paths.
type Fetcher struct {
	client    *http.Client
	userAgent string
	robots    *robotsPolicy
	rps       float64

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a fetcher.
func New(cfg Config) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = domain.DefaultUserAgent
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := &http.Client{Timeout: cfg.Timeout}
	f := &Fetcher{
		client:    client,
		userAgent: cfg.UserAgent,
		rps:       cfg.RequestsPerSecond,
		limiters:  make(map[string]*rate.Limiter),
	}
	if !cfg.IgnoreRobots {
		f.robots = newRobotsPolicy(client, cfg.UserAgent)
	}
	return f
}

// Fetch retrieves the source at rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*domain.SourceDocument, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("%w: source url is empty", domain.ErrInvalidInput)
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || isWindowsDrive(u.Scheme) {
		return f.fetchFile(rawURL)
	}

	switch u.Scheme {
	case "http", "https":
		return f.fetchHTTP(ctx, u)
	case "file":
		return f.fetchFile(u.Path)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", domain.ErrInvalidInput, u.Scheme)
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, u *url.URL) (*domain.SourceDocument, error) {
	if f.robots != nil {
		allowed, err := f.robots.allowed(ctx, u)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s is disallowed by robots.txt", domain.ErrInvalidInput, u)
		}
	}

	if err := f.limiter(u.Host).Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	logger.Debug("fetching %s", u)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, fmt.Errorf("fetch %s: %w: status %d", u, domain.ErrNotFound, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d", u, resp.StatusCode)
	}

	// Final URL after redirects
	finalURL := resp.Request.URL.String()

	body := io.LimitReader(resp.Body, maxBodySize)
	if !isHTML(resp.Header.Get("Content-Type")) {
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", u, err)
		}
		return &domain.SourceDocument{URL: finalURL, Title: finalURL, Text: string(data)}, nil
	}

	title, text, err := extractHTML(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", u, err)
	}
	if title == "" {
		title = finalURL
	}
	return &domain.SourceDocument{URL: finalURL, Title: title, Text: text}, nil
}

func (f *Fetcher) fetchFile(path string) (*domain.SourceDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	title, text, err := extractFile(path, data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if title == "" {
		title = filepath.Base(path)
	}
	return &domain.SourceDocument{
		URL:   (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(),
		Title: title,
		Text:  text,
	}, nil
}

// limiter returns the per-host limiter, creating it on first use.
func (f *Fetcher) limiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, ok := f.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(f.rps), 1)
		f.limiters[host] = l
	}
	return l
}

func isHTML(contentType string) bool {
	return contentType == "" || strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "application/xhtml")
}

// isWindowsDrive reports whether a parsed scheme is really a drive letter.
func isWindowsDrive(scheme string) bool {
	return len(scheme) == 1
}

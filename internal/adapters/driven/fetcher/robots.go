package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/logger"
)

// robotsTTL is how long a host's robots.txt is trusted.
const robotsTTL = 24 * time.Hour

// robotsPolicy answers whether a URL may be fetched. Missing or unreadable
// robots files allow everything.
type robotsPolicy struct {
	client    *http.Client
	userAgent string
	cache     *cache.Cache
}

func newRobotsPolicy(client *http.Client, userAgent string) *robotsPolicy {
	return &robotsPolicy{
		client:    client,
		userAgent: userAgent,
		cache:     cache.New(robotsTTL, time.Hour),
	}
}

func (p *robotsPolicy) allowed(ctx context.Context, u *url.URL) (bool, error) {
	origin := u.Scheme + "://" + u.Host

	if cached, ok := p.cache.Get(origin); ok {
		return p.test(cached.(*robotstxt.RobotsData), u), nil
	}

	data, err := p.load(ctx, origin)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		logger.Debug("robots.txt for %s unavailable, allowing: %v", origin, err)
		data = allowAll()
	}
	p.cache.Set(origin, data, cache.DefaultExpiration)
	return p.test(data, u), nil
}

func (p *robotsPolicy) test(data *robotstxt.RobotsData, u *url.URL) bool {
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return data.TestAgent(path, p.userAgent)
}

func (p *robotsPolicy) load(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	// FromStatusAndBytes treats 4xx as allow-all and 5xx as disallow-all
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return data, nil
}

func allowAll() *robotstxt.RobotsData {
	data, _ := robotstxt.FromStatusAndBytes(http.StatusNotFound, nil)
	return data
}

package engine

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// DefaultRobotsTTL is how long fetched robots.txt rules stay cached before
// the gate refetches them.
const DefaultRobotsTTL = 30 * time.Minute

// Gate evaluates robots.txt rules with a per-host cache.
//
// The gate fails open: when robots.txt cannot be fetched or parsed, the URL
// is allowed. An unreachable robots.txt must not stall a crawl the user
// asked for.
type Gate struct {
	client    *http.Client
	userAgent string
	ttl       time.Duration

	mu    sync.RWMutex
	cache map[string]robotsEntry
}

type robotsEntry struct {
	fetched time.Time
	rules   *robotstxt.RobotsData
}

// NewGate constructs a robots gate. A nil client gets a plain ten second
// client of its own; a non-positive ttl means DefaultRobotsTTL.
func NewGate(client *http.Client, userAgent string, ttl time.Duration) *Gate {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if ttl <= 0 {
		ttl = DefaultRobotsTTL
	}
	return &Gate{
		client:    client,
		userAgent: userAgent,
		ttl:       ttl,
		cache:     make(map[string]robotsEntry),
	}
}

// Allowed reports whether the target URL may be fetched.
func (g *Gate) Allowed(ctx context.Context, target *url.URL) bool {
	if target == nil || !target.IsAbs() {
		return false
	}
	rules, err := g.rules(ctx, target)
	if err != nil {
		return true
	}
	return rules.TestAgent(target.Path, g.userAgent)
}

func (g *Gate) rules(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	host := strings.ToLower(target.Host)

	g.mu.RLock()
	entry, ok := g.cache[host]
	g.mu.RUnlock()
	if ok && time.Since(entry.fetched) < g.ttl {
		return entry.rules, nil
	}

	robotsURL := target.Scheme + "://" + target.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build robots request: %w", err)
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("robots.txt returned status %d", resp.StatusCode)
	}

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	g.mu.Lock()
	g.cache[host] = robotsEntry{fetched: time.Now(), rules: data}
	g.mu.Unlock()

	return data, nil
}

// Purge evicts the cached rules for a host, forcing a refetch on the next
// check.
func (g *Gate) Purge(host string) {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return
	}
	g.mu.Lock()
	delete(g.cache, host)
	g.mu.Unlock()
}

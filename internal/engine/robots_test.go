package engine

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewGate(t *testing.T) {
	t.Parallel()

	t.Run("nil client gets a default", func(t *testing.T) {
		t.Parallel()

		g := NewGate(nil, "docshound/1.0", 0)
		if g.client == nil {
			t.Fatal("gate client should not be nil")
		}
		if g.client.Timeout != 10*time.Second {
			t.Errorf("client timeout = %v, want %v", g.client.Timeout, 10*time.Second)
		}
		if g.ttl != DefaultRobotsTTL {
			t.Errorf("ttl = %v, want %v", g.ttl, DefaultRobotsTTL)
		}
	})

	t.Run("custom ttl is kept", func(t *testing.T) {
		t.Parallel()

		g := NewGate(nil, "docshound/1.0", time.Minute)
		if g.ttl != time.Minute {
			t.Errorf("ttl = %v, want %v", g.ttl, time.Minute)
		}
	})
}

func TestGateAllowed(t *testing.T) {
	t.Parallel()

	t.Run("disallowed path is blocked", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "User-agent: *\nDisallow: /admin/\n")
		}))
		defer srv.Close()

		g := NewGate(nil, "docshound/1.0", 0)
		if g.Allowed(context.Background(), mustParse(t, srv.URL+"/admin/users")) {
			t.Error("path under /admin/ should be disallowed")
		}
		if !g.Allowed(context.Background(), mustParse(t, srv.URL+"/docs/index.html")) {
			t.Error("path outside /admin/ should be allowed")
		}
	})

	t.Run("agent specific group wins", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "User-agent: *\nDisallow:\n\nUser-agent: docshound\nDisallow: /beta/\n")
		}))
		defer srv.Close()

		target := srv.URL + "/beta/feature"
		ours := NewGate(nil, "docshound/1.0", 0)
		if ours.Allowed(context.Background(), mustParse(t, target)) {
			t.Error("path disallowed for our agent should be blocked")
		}
		other := NewGate(nil, "otherbot/3.1", 0)
		if !other.Allowed(context.Background(), mustParse(t, target)) {
			t.Error("path allowed for other agents should pass")
		}
	})

	t.Run("fails open on server error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		g := NewGate(nil, "docshound/1.0", 0)
		if !g.Allowed(context.Background(), mustParse(t, srv.URL+"/anything")) {
			t.Error("unreadable robots.txt should fail open")
		}
	})

	t.Run("fails open when host is unreachable", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		target := mustParse(t, srv.URL+"/page")
		srv.Close()

		g := NewGate(nil, "docshound/1.0", 0)
		if !g.Allowed(context.Background(), target) {
			t.Error("unreachable robots.txt should fail open")
		}
	})

	t.Run("nil target is blocked", func(t *testing.T) {
		t.Parallel()

		g := NewGate(nil, "docshound/1.0", 0)
		if g.Allowed(context.Background(), nil) {
			t.Error("nil target should not be allowed")
		}
	})

	t.Run("relative target is blocked", func(t *testing.T) {
		t.Parallel()

		g := NewGate(nil, "docshound/1.0", 0)
		if g.Allowed(context.Background(), mustParse(t, "/just/a/path")) {
			t.Error("relative target should not be allowed")
		}
	})
}

func TestGateCache(t *testing.T) {
	t.Parallel()

	t.Run("rules are fetched once per host", func(t *testing.T) {
		t.Parallel()

		var fetches atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fetches.Add(1)
			fmt.Fprint(w, "User-agent: *\nDisallow:\n")
		}))
		defer srv.Close()

		g := NewGate(nil, "docshound/1.0", 0)
		for i := 0; i < 3; i++ {
			if !g.Allowed(context.Background(), mustParse(t, fmt.Sprintf("%s/page/%d", srv.URL, i))) {
				t.Fatalf("page %d should be allowed", i)
			}
		}
		if got := fetches.Load(); got != 1 {
			t.Errorf("robots.txt fetched %d times, want 1", got)
		}
	})

	t.Run("purge forces a refetch", func(t *testing.T) {
		t.Parallel()

		var fetches atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fetches.Add(1)
			fmt.Fprint(w, "User-agent: *\nDisallow:\n")
		}))
		defer srv.Close()

		target := mustParse(t, srv.URL+"/page")
		g := NewGate(nil, "docshound/1.0", 0)
		g.Allowed(context.Background(), target)
		g.Purge(target.Host)
		g.Allowed(context.Background(), target)

		if got := fetches.Load(); got != 2 {
			t.Errorf("robots.txt fetched %d times after purge, want 2", got)
		}
	})

	t.Run("expired entries are refetched", func(t *testing.T) {
		t.Parallel()

		var fetches atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fetches.Add(1)
			fmt.Fprint(w, "User-agent: *\nDisallow:\n")
		}))
		defer srv.Close()

		target := mustParse(t, srv.URL+"/page")
		g := NewGate(nil, "docshound/1.0", time.Nanosecond)
		g.Allowed(context.Background(), target)
		time.Sleep(time.Millisecond)
		g.Allowed(context.Background(), target)

		if got := fetches.Load(); got != 2 {
			t.Errorf("robots.txt fetched %d times after expiry, want 2", got)
		}
	})
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

package engine

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/time/rate"

	"github.com/docshound/docshound/internal/config"
	"github.com/docshound/docshound/internal/model"
)

// Options configures an HTTPEngine.
type Options struct {
	// UserAgent is sent with every request. Empty means config.DefaultUserAgent.
	UserAgent string

	// Headers are extra headers set on every request, after the defaults.
	Headers map[string]string

	// Cookie is sent verbatim as the Cookie header when non-empty.
	Cookie string

	// Timeout bounds one request. Zero means config.DefaultTimeout.
	Timeout time.Duration

	// Delay spaces successive requests. Zero disables the wait.
	Delay time.Duration

	// MaxBodySize caps how many body bytes are read; larger responses are
	// truncated. Zero means config.DefaultMaxBodySize.
	MaxBodySize int64

	// ProxyURL routes requests through a proxy when non-empty.
	ProxyURL string

	// Robots, when non-nil, is consulted before every fetch.
	Robots *Gate

	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// HTTPEngine retrieves pages over plain HTTP. One instance serves one
// crawl: the politeness limiter and per-site headers are engine state, not
// per-request arguments, so every worker sharing the engine shares them.
type HTTPEngine struct {
	client       *http.Client
	userAgent    string
	extraHeaders map[string]string
	cookie       string
	maxBodySize  int64
	limiter      *rate.Limiter
	robots       *Gate
	logger       *slog.Logger
}

// NewHTTPEngine constructs an engine with a tuned transport. It fails only
// when the proxy URL does not parse.
func NewHTTPEngine(opts Options) (*HTTPEngine, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = config.DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultTimeout
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = config.DefaultMaxBodySize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if opts.ProxyURL != "" {
		proxyURL, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	var limiter *rate.Limiter
	if opts.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Delay), 1)
	}

	return &HTTPEngine{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		userAgent:    opts.UserAgent,
		extraHeaders: opts.Headers,
		cookie:       opts.Cookie,
		maxBodySize:  opts.MaxBodySize,
		limiter:      limiter,
		robots:       opts.Robots,
		logger:       logger,
	}, nil
}

// Fetch retrieves one page and renders it to markdown.
//
// A transport error or a non-2xx status is a fetch failure and comes back
// as an error. A page that is not HTML, or that robots rules forbid, is not
// an error: the result reports Success false and the crawl moves on.
func (e *HTTPEngine) Fetch(ctx context.Context, pageURL string) (*model.FetchResult, error) {
	target, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	if e.robots != nil && !e.robots.Allowed(ctx, target) {
		e.logger.Debug("blocked by robots.txt", "url", pageURL)
		return &model.FetchResult{Success: false}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	if e.cookie != "" {
		req.Header.Set("Cookie", e.cookie)
	}
	for key, value := range e.extraHeaders {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http fetch failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTMLContent(contentType) {
		_ = resp.Body.Close()
		e.logger.Debug("skipping non-html content",
			"url", pageURL,
			"content_type", contentType,
		)
		return &model.FetchResult{Success: false}, nil
	}

	body, err := e.readBody(resp)
	if err != nil {
		return nil, err
	}

	markup := decodeToUTF8(body, contentType)
	text, err := RenderMarkdown(markup)
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}

	e.logger.Debug("fetched page",
		"url", pageURL,
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	return &model.FetchResult{
		Success: true,
		Text:    text,
		HTML:    markup,
	}, nil
}

// readBody decompresses the response body according to Content-Encoding and
// reads at most maxBodySize bytes of it.
func (e *HTTPEngine) readBody(resp *http.Response) ([]byte, error) {
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()
	closers = append(closers, resp.Body)

	var reader io.Reader = resp.Body
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		closers = append(closers, gz)
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		closers = append(closers, fl)
		reader = fl
	}

	body, err := io.ReadAll(io.LimitReader(reader, e.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

// isHTMLContent reports whether a Content-Type names an HTML document. An
// absent header counts as HTML; small documentation servers often omit it.
func isHTMLContent(contentType string) bool {
	if strings.TrimSpace(contentType) == "" {
		return true
	}
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// decodeToUTF8 converts a response body to UTF-8. The charset parameter of
// the Content-Type header wins when present; otherwise the body is sniffed
// for meta tags and byte order marks. Either way a failure returns the body
// unchanged: a garbled page is more useful than no page.
func decodeToUTF8(body []byte, contentType string) string {
	if name := charsetFromContentType(contentType); name != "" {
		enc, err := htmlindex.Get(name)
		if err == nil && enc != nil {
			decoded, err := enc.NewDecoder().Bytes(body)
			if err == nil {
				return string(decoded)
			}
		}
		return string(body)
	}

	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return string(body)
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}

// charsetFromContentType extracts the charset parameter from a Content-Type
// header, or returns the empty string.
func charsetFromContentType(contentType string) string {
	for _, part := range strings.Split(contentType, ";")[1:] {
		part = strings.TrimSpace(part)
		if rest, ok := strings.CutPrefix(strings.ToLower(part), "charset="); ok {
			return strings.Trim(strings.TrimSpace(rest), `"'`)
		}
	}
	return ""
}

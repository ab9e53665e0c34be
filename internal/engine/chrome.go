package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"

	"github.com/docshound/docshound/internal/config"
	"github.com/docshound/docshound/internal/crawler"
	"github.com/docshound/docshound/internal/model"
)

// DefaultRenderTimeout bounds one headless Chrome session. Rendering is
// slower than plain fetching: Chrome has to start, load subresources, and
// run scripts before the DOM settles.
const DefaultRenderTimeout = 60 * time.Second

// ChromeOptions configures a ChromeEngine.
type ChromeOptions struct {
	// UserAgent overrides Chrome's own User-Agent when non-empty.
	UserAgent string

	// Timeout bounds one render session. Zero means DefaultRenderTimeout.
	Timeout time.Duration

	// MaxBodySize caps the captured DOM snapshot. Zero means
	// config.DefaultMaxBodySize.
	MaxBodySize int64

	// Sessions is how many Chrome sessions may run at once. Zero means one.
	Sessions int

	// Delay spaces successive renders. Zero disables the wait.
	Delay time.Duration

	// Robots, when non-nil, is consulted before every render.
	Robots *Gate

	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// ChromeEngine renders pages in headless Chrome before converting them to
// markdown. Documentation sites built as single page apps assemble their
// content with JavaScript; the plain HTTP engine sees only an empty shell
// for those.
type ChromeEngine struct {
	userAgent   string
	timeout     time.Duration
	maxBodySize int64
	sessions    chan struct{}
	limiter     *rate.Limiter
	robots      *Gate
	fallback    crawler.FetchEngine
	logger      *slog.Logger
}

// NewChromeEngine constructs a renderer with bounded concurrency. fallback,
// when non-nil, handles pages Chrome cannot render; it only sees URLs that
// already passed the politeness delay and the robots gate here, so it is
// normally built without either.
func NewChromeEngine(opts ChromeOptions, fallback crawler.FetchEngine) *ChromeEngine {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultRenderTimeout
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = config.DefaultMaxBodySize
	}
	if opts.Sessions <= 0 {
		opts.Sessions = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var limiter *rate.Limiter
	if opts.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Delay), 1)
	}
	return &ChromeEngine{
		userAgent:   opts.UserAgent,
		timeout:     opts.Timeout,
		maxBodySize: opts.MaxBodySize,
		sessions:    make(chan struct{}, opts.Sessions),
		limiter:     limiter,
		robots:      opts.Robots,
		fallback:    fallback,
		logger:      logger,
	}
}

// Fetch renders one page in Chrome, delegating to the fallback engine when
// the render fails for any reason other than cancellation.
func (e *ChromeEngine) Fetch(ctx context.Context, pageURL string) (*model.FetchResult, error) {
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

	result, err := e.render(ctx, pageURL)
	if err == nil {
		return result, nil
	}
	if e.fallback != nil && ctx.Err() == nil {
		e.logger.Warn("chrome render failed, falling back to http",
			"url", pageURL,
			"error", err,
		)
		return e.fallback.Fetch(ctx, pageURL)
	}
	return nil, err
}

func (e *ChromeEngine) render(ctx context.Context, pageURL string) (*model.FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case e.sessions <- struct{}{}:
		defer func() { <-e.sessions }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	renderCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	execOpts := []chromedp.ExecAllocatorOption{
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
	}
	if ua := strings.TrimSpace(e.userAgent); ua != "" {
		execOpts = append(execOpts, chromedp.UserAgent(ua))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(renderCtx, execOpts...)
	defer allocCancel()

	chromeCtx, chromeCancel := chromedp.NewContext(allocCtx)
	defer chromeCancel()

	start := time.Now()
	var markup string
	err := chromedp.Run(chromeCtx,
		chromedp.Navigate(pageURL),
		waitForDocumentReady(),
		chromedp.Sleep(250*time.Millisecond),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp run: %w", err)
	}

	if int64(len(markup)) > e.maxBodySize {
		markup = markup[:e.maxBodySize]
	}

	text, err := RenderMarkdown(markup)
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}

	e.logger.Debug("chrome render complete",
		"url", pageURL,
		"elapsed", time.Since(start).Round(time.Millisecond),
		"markup_bytes", len(markup),
	)

	return &model.FetchResult{
		Success: true,
		Text:    text,
		HTML:    markup,
	}, nil
}

// waitForDocumentReady polls document.readyState until the page reports
// complete. The extra Sleep after it gives client side routers a beat to
// mount their content.
func waitForDocumentReady() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			var readyState string
			if err := chromedp.Evaluate(`document.readyState`, &readyState).Do(ctx); err != nil {
				return err
			}
			if readyState == "complete" {
				return nil
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
}

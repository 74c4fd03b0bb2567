package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// BrowserFetcher renders article pages in headless Chromium via Rod.
// Used for publishers that build the article body client-side.
type BrowserFetcher struct {
	browser *rod.Browser
	cfg     *config.Config
	logger  *slog.Logger
	slots   chan struct{}
}

// NewBrowserFetcher launches a browser and connects to it.
func NewBrowserFetcher(cfg *config.Config, logger *slog.Logger) (*BrowserFetcher, error) {
	bf := &BrowserFetcher{
		cfg:    cfg,
		logger: logger.With("component", "browser_fetcher"),
		slots:  make(chan struct{}, max(cfg.Extract.MaxWorkers, 1)),
	}

	launchURL, err := bf.launchBrowser()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	bf.browser = browser

	bf.logger.Info("browser fetcher ready",
		"max_pages", cap(bf.slots),
		"stealth", cfg.Fetcher.Stealth,
	)
	return bf, nil
}

func (bf *BrowserFetcher) launchBrowser() (string, error) {
	l := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled")

	if bf.cfg.Fetcher.BrowserPath != "" {
		l = l.Bin(bf.cfg.Fetcher.BrowserPath)
	}
	if bf.cfg.Proxy.Enabled && len(bf.cfg.Proxy.URLs) > 0 {
		l = l.Proxy(bf.cfg.Proxy.URLs[0])
	}

	return l.Launch()
}

// Fetch navigates to a URL and returns the rendered document.
func (bf *BrowserFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	select {
	case bf.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, bf.fetchError(req, 0, ctx.Err())
	}
	defer func() { <-bf.slots }()

	timeout := bf.cfg.Extract.Timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	page, err := bf.newPage()
	if err != nil {
		return nil, bf.fetchError(req, 0, err)
	}
	defer func() { _ = page.Close() }()

	ua := req.Headers.Get("User-Agent")
	if ua == "" && len(bf.cfg.Fetcher.UserAgents) > 0 {
		ua = bf.cfg.Fetcher.UserAgents[0]
	}
	if ua != "" {
		err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      ua,
			AcceptLanguage: bf.cfg.Fetcher.AcceptLanguage,
		})
		if err != nil {
			bf.logger.Warn("failed to set user agent", "error", err)
		}
	}

	p := page.Context(ctx)

	// the document response carries the status the HTTP fetcher would see
	status := 0
	waitStatus := p.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type == proto.NetworkResourceTypeDocument {
			status = e.Response.Status
			return true
		}
		return false
	})

	if err := p.Navigate(req.URLString()); err != nil {
		return nil, bf.fetchError(req, 0, err)
	}
	waitStatus()
	if err := p.WaitLoad(); err != nil {
		return nil, bf.fetchError(req, status, err)
	}

	if status != 0 && (status < 200 || status >= 300) {
		return nil, &types.FetchError{
			URL:        req.URLString(),
			StatusCode: status,
			Err:        fmt.Errorf("unexpected status %d", status),
		}
	}
	if status == 0 {
		status = 200
	}

	html, err := p.HTML()
	if err != nil {
		return nil, bf.fetchError(req, status, err)
	}

	finalURL := req.URLString()
	if info, err := p.Info(); err == nil && info != nil {
		finalURL = info.URL
	}

	duration := time.Since(start)
	bf.logger.Debug("browser fetch complete",
		"url", req.URLString(),
		"final_url", finalURL,
		"size", len(html),
		"duration", duration,
	)

	return types.NewBrowserResponse(req, status, []byte(html), finalURL, duration), nil
}

func (bf *BrowserFetcher) newPage() (*rod.Page, error) {
	if bf.cfg.Fetcher.Stealth {
		return stealth.Page(bf.browser)
	}
	return bf.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
}

func (bf *BrowserFetcher) fetchError(req *types.Request, status int, err error) *types.FetchError {
	return &types.FetchError{
		URL:        req.URLString(),
		StatusCode: status,
		Err:        err,
		Timeout:    errors.Is(err, context.DeadlineExceeded),
	}
}

// Close shuts down the browser.
func (bf *BrowserFetcher) Close() error {
	if bf.browser != nil {
		return bf.browser.Close()
	}
	return nil
}

// Type returns the fetcher type identifier.
func (bf *BrowserFetcher) Type() string {
	return "browser"
}

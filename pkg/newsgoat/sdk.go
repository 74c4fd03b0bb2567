// Package newsgoat provides a public SDK for embedding NewsGoat as a library.
//
// Example usage:
//
//	client, err := newsgoat.New(
//	    newsgoat.WithWorkers(5),
//	    newsgoat.WithTimeout(8*time.Second),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	for _, ex := range client.ExtractAll(ctx, urls) {
//	    fmt.Println(ex.Target.URL, ex.Result.Status)
//	}
package newsgoat

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/engine"
	"github.com/IshaanNene/NewsGoat/internal/extract"
	"github.com/IshaanNene/NewsGoat/internal/fetcher"
	"github.com/IshaanNene/NewsGoat/internal/pipeline"
	"github.com/IshaanNene/NewsGoat/internal/source"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

type (
	// Result is the content extracted from one page.
	Result = types.ExtractionResult
	// Extraction pairs an input URL and its position with a Result.
	Extraction = types.Extraction
	// Article is one news record found by Search.
	Article = types.Article
	// Status is success, timeout or error:<reason>.
	Status = types.Status
)

// Option configures a Client.
type Option func(*config.Config)

// WithWorkers sets the number of concurrent extraction workers.
func WithWorkers(n int) Option {
	return func(c *config.Config) { c.Extract.MaxWorkers = n }
}

// WithTimeout sets the per-page fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config.Config) { c.Extract.Timeout = d }
}

// WithUserAgent sets a custom User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *config.Config) { c.Fetcher.UserAgents = []string{ua} }
}

// WithExcludedDomains replaces the list of domains that are never fetched.
func WithExcludedDomains(domains ...string) Option {
	return func(c *config.Config) { c.Extract.ExcludedDomains = domains }
}

// WithBodySelectors replaces the ordered article body selectors.
func WithBodySelectors(selectors ...string) Option {
	return func(c *config.Config) { c.Extract.BodySelectors = selectors }
}

// WithProxy enables proxy rotation with the given proxy URLs.
func WithProxy(urls ...string) Option {
	return func(c *config.Config) {
		c.Proxy.Enabled = true
		c.Proxy.URLs = urls
	}
}

// WithBrowser renders article pages in headless Chromium.
func WithBrowser() Option {
	return func(c *config.Config) { c.Fetcher.Type = "browser" }
}

// WithGoogleNews sets the feed endpoint and search period (e.g. "7d").
func WithGoogleNews(baseURL, period string) Option {
	return func(c *config.Config) {
		if baseURL != "" {
			c.Source.GoogleNews.BaseURL = baseURL
		}
		if period != "" {
			c.Source.GoogleNews.Period = period
		}
	}
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *config.Config) { c.Logging.Level = "debug" }
}

// Client extracts article content and searches news feeds.
type Client struct {
	cfg         *config.Config
	logger      *slog.Logger
	fetcher     fetcher.Fetcher
	feedFetcher *fetcher.HTTPFetcher
	extractor   *extract.Extractor
	batch       *engine.Batch
}

// New creates a Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := config.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	level := slog.LevelWarn
	if cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}
	feeds, err := fetcher.NewHTTPFetcher(cfg, logger)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create feed fetcher: %w", err)
	}

	ex := extract.New(f, cfg.Extract, logger)
	return &Client{
		cfg:         cfg,
		logger:      logger,
		fetcher:     f,
		feedFetcher: feeds,
		extractor:   ex,
		batch:       engine.NewBatch(ex, cfg.Extract, logger),
	}, nil
}

// Extract fetches and extracts a single page. It never returns an error;
// failures are reported in Result.Status.
func (c *Client) Extract(ctx context.Context, rawURL string) Result {
	return c.extractor.Extract(ctx, rawURL)
}

// ExtractAll extracts every URL concurrently and returns one Extraction per
// URL in input order.
func (c *Client) ExtractAll(ctx context.Context, urls []string) []Extraction {
	return c.batch.Run(ctx, engine.Targets(urls))
}

// Search queries Google News for every term, drops duplicates and excluded
// publishers, and extracts the content of each remaining article.
func (c *Client) Search(ctx context.Context, terms ...string) ([]*Article, error) {
	sources := source.New(c.cfg, c.feedFetcher, c.logger)
	articles, err := sources.FetchAll(ctx, terms)
	if err != nil && len(articles) == 0 {
		return nil, err
	}

	articles = pipeline.Default(c.cfg, c.logger).ProcessAll(articles)
	c.batch.Enrich(ctx, articles)
	return articles, err
}

// Stats returns the counters of the most recent batch.
func (c *Client) Stats() map[string]any {
	return c.batch.Stats().Snapshot()
}

// Close releases the fetchers.
func (c *Client) Close() error {
	c.feedFetcher.Close()
	return c.fetcher.Close()
}

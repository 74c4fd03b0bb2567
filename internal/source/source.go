package source

import (
	"context"
	"log/slog"
	"time"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/fetcher"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// Source acquires article records for a search term.
type Source interface {
	Name() string
	Fetch(ctx context.Context, term string) ([]*types.Article, error)
}

// Manager runs every configured source for every term.
type Manager struct {
	sources []Source
	delay   time.Duration
	logger  *slog.Logger
}

// NewManager creates a Manager over sources, pausing delay between terms.
func NewManager(delay time.Duration, logger *slog.Logger, sources ...Source) *Manager {
	return &Manager{
		sources: sources,
		delay:   delay,
		logger:  logger.With("component", "source_manager"),
	}
}

// New builds a Manager from the enabled sources in cfg.
func New(cfg *config.Config, f fetcher.Fetcher, logger *slog.Logger) *Manager {
	var sources []Source
	if cfg.Source.GoogleNews.Enabled {
		sources = append(sources, NewGoogleNews(f, cfg.Source.GoogleNews, cfg.Extract.ExcludedDomains, logger))
	}
	return NewManager(cfg.Source.RequestDelay, logger, sources...)
}

// Sources returns the names of the configured sources.
func (m *Manager) Sources() []string {
	names := make([]string, len(m.sources))
	for i, s := range m.sources {
		names[i] = s.Name()
	}
	return names
}

// FetchAll queries every source for every term. A failing source is logged
// and skipped; only cancellation aborts the run.
func (m *Manager) FetchAll(ctx context.Context, terms []string) ([]*types.Article, error) {
	var all []*types.Article

	for i, term := range terms {
		if i > 0 && m.delay > 0 {
			select {
			case <-ctx.Done():
				return all, ctx.Err()
			case <-time.After(m.delay):
			}
		}

		for _, src := range m.sources {
			if err := ctx.Err(); err != nil {
				return all, err
			}
			articles, err := src.Fetch(ctx, term)
			if err != nil {
				m.logger.Warn("source failed", "error", &types.SourceError{Source: src.Name(), Term: term, Err: err})
				continue
			}
			m.logger.Info("term fetched", "source", src.Name(), "term", term, "articles", len(articles))
			all = append(all, articles...)
		}
	}

	return all, nil
}

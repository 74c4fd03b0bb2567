package source

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/rss"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/extract"
	"github.com/IshaanNene/NewsGoat/internal/fetcher"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// GoogleNews searches the Google News RSS endpoint.
type GoogleNews struct {
	fetcher  fetcher.Fetcher
	cfg      config.GoogleNewsConfig
	excluded []string
	logger   *slog.Logger
}

// NewGoogleNews creates a Google News source.
func NewGoogleNews(f fetcher.Fetcher, cfg config.GoogleNewsConfig, excluded []string, logger *slog.Logger) *GoogleNews {
	return &GoogleNews{
		fetcher:  f,
		cfg:      cfg,
		excluded: excluded,
		logger:   logger.With("component", "google_news"),
	}
}

// Name implements Source.
func (g *GoogleNews) Name() string { return "google_news" }

// SearchURL builds the RSS search URL for term.
func (g *GoogleNews) SearchURL(term string) string {
	q := term
	if g.cfg.Period != "" {
		q += " when:" + g.cfg.Period
	}
	lang := g.cfg.Language
	if g.cfg.Country != "" {
		lang = g.cfg.Language + "-" + g.cfg.Country
	}

	v := url.Values{}
	v.Set("q", q)
	v.Set("hl", lang)
	v.Set("gl", g.cfg.Country)
	v.Set("ceid", g.cfg.Country+":"+g.cfg.Language)
	return g.cfg.BaseURL + "?" + v.Encode()
}

// Fetch implements Source.
func (g *GoogleNews) Fetch(ctx context.Context, term string) ([]*types.Article, error) {
	req, err := types.NewRequest(g.SearchURL(term))
	if err != nil {
		return nil, err
	}
	req.Headers.Set("Accept", "application/rss+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := g.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil, types.ErrEmptyResponse
	}

	feed, err := (&rss.Parser{}).Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, &types.ParseError{URL: req.URLString(), Err: fmt.Errorf("parse rss: %w", err)}
	}

	now := time.Now()
	articles := make([]*types.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if g.cfg.MaxResults > 0 && len(articles) >= g.cfg.MaxResults {
			break
		}
		a := g.toArticle(item, term, now)
		if a.URL == "" {
			continue
		}
		if domain := publisherDomain(item); domain != "" && extract.IsExcluded(domain, g.excluded) {
			g.logger.Debug("dropping excluded publisher", "domain", domain, "title", a.Title)
			continue
		}
		articles = append(articles, a)
	}
	return articles, nil
}

func (g *GoogleNews) toArticle(item *rss.Item, term string, now time.Time) *types.Article {
	a := types.NewArticle(strings.TrimSpace(item.Link))
	a.SourceName = g.Name()
	a.SearchTerm = term
	a.Title = strings.TrimSpace(item.Title)
	a.Snippet = item.Description
	a.PublishedDate = item.PubDate
	a.FetchedAt = now

	if item.GUID != nil {
		a.SourceID = item.GUID.Value
	}
	if item.Source != nil {
		a.Publisher = strings.TrimSpace(item.Source.Title)
		a.Metadata["publisher_url"] = item.Source.URL
	}

	// titles come as "Headline - Publisher"
	if i := strings.LastIndex(a.Title, " - "); i > 0 {
		suffix := strings.TrimSpace(a.Title[i+3:])
		if a.Publisher == "" {
			a.Publisher = suffix
		}
		if suffix == a.Publisher {
			a.Title = strings.TrimSpace(a.Title[:i])
		}
	}
	return a
}

func publisherDomain(item *rss.Item) string {
	if item.Source == nil || item.Source.URL == "" {
		return ""
	}
	u, err := url.Parse(item.Source.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/fetcher"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// Extractor pulls the readable content out of a single article page.
type Extractor struct {
	fetcher fetcher.Fetcher
	cfg     config.ExtractConfig
	logger  *slog.Logger
}

// New creates an Extractor that fetches pages through f.
func New(f fetcher.Fetcher, cfg config.ExtractConfig, logger *slog.Logger) *Extractor {
	return &Extractor{
		fetcher: f,
		cfg:     cfg,
		logger:  logger.With("component", "extractor"),
	}
}

// Extract fetches rawURL and returns its content. It never returns an error
// or panics: every failure is folded into the result status.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (result types.ExtractionResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("extraction panicked", "url", rawURL, "panic", r)
			result = types.FailedResult(e.errorStatus(fmt.Sprint(r)))
		}
	}()

	req, err := types.NewRequest(rawURL)
	if err != nil {
		return types.FailedResult(types.StatusFromError(err, e.cfg.MaxReasonChars))
	}
	if IsExcluded(req.Domain(), e.cfg.ExcludedDomains) {
		e.logger.Debug("skipping excluded domain", "url", rawURL)
		return types.FailedResult(e.errorStatus(types.ErrExcludedDomain.Error()))
	}
	if e.cfg.Timeout > 0 {
		req.Timeout = e.cfg.Timeout
	}

	start := time.Now()
	resp, err := e.fetcher.Fetch(ctx, req)
	if err != nil {
		status := types.StatusFromError(err, e.cfg.MaxReasonChars)
		e.logger.Debug("fetch failed", "url", rawURL, "status", status, "error", err)
		return types.FailedResult(status)
	}

	result, err = e.ExtractDocument(resp.Body, resp.ContentType)
	if err != nil {
		e.logger.Debug("parse failed", "error", &types.ParseError{URL: rawURL, Err: err})
		return types.FailedResult(types.StatusFromError(err, e.cfg.MaxReasonChars))
	}

	e.logger.Debug("extracted",
		"url", rawURL,
		"full_text_chars", runeLen(result.FullText),
		"duration", time.Since(start),
	)
	return result
}

// ExtractDocument parses an already fetched page. The same body always yields
// the same result.
func (e *Extractor) ExtractDocument(body []byte, contentType string) (types.ExtractionResult, error) {
	doc, err := types.ParseDocument(body, contentType)
	if err != nil {
		return types.ExtractionResult{}, err
	}

	meta := metaDescription(doc)

	if len(e.cfg.StripTags) > 0 {
		doc.Find(strings.Join(e.cfg.StripTags, ", ")).Remove()
	}

	text := e.bodyText(doc)
	fullText := types.Truncate(text, e.cfg.MaxFullTextChars)

	abstract := types.Truncate(meta, e.cfg.MaxAbstractChars)
	if abstract == "" {
		abstract = buildAbstract(fullText, e.cfg.AbstractParagraphs, e.cfg.MaxAbstractChars)
	}

	return types.ExtractionResult{
		Abstract:        abstract,
		FullText:        fullText,
		MetaDescription: meta,
		Status:          types.StatusSuccess,
	}, nil
}

// bodyText returns the text of the first body selector that clears the
// min_body_chars threshold, or every long-enough paragraph otherwise.
func (e *Extractor) bodyText(doc *goquery.Document) string {
	for _, selector := range e.cfg.BodySelectors {
		container := e.firstMatch(doc, selector)
		if container == nil || container.Length() == 0 {
			continue
		}

		var parts []string
		container.Find("p, h1, h2, h3").Each(func(_ int, s *goquery.Selection) {
			parts = append(parts, s.Text())
		})
		if text := joinParagraphs(parts); runeLen(text) > e.cfg.MinBodyChars {
			return text
		}
	}

	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		// measured before inner whitespace is collapsed
		if text := strings.TrimSpace(s.Text()); runeLen(text) > e.cfg.MinParagraphChars {
			parts = append(parts, normalizeSpace(text))
		}
	})
	return joinParagraphs(parts)
}

// firstMatch resolves a CSS selector, or an XPath expression when the
// selector starts with "/" or "(".
func (e *Extractor) firstMatch(doc *goquery.Document, selector string) *goquery.Selection {
	if !isXPath(selector) {
		return doc.Find(selector).First()
	}
	if len(doc.Nodes) == 0 {
		return nil
	}
	node, err := htmlquery.Query(doc.Nodes[0], selector)
	if err != nil {
		e.logger.Warn("invalid xpath body selector", "selector", selector, "error", err)
		return nil
	}
	if node == nil {
		return nil
	}
	return doc.FindNodes(node)
}

func (e *Extractor) errorStatus(reason string) types.Status {
	return types.ErrorStatus(types.Truncate(reason, e.cfg.MaxReasonChars))
}

func isXPath(selector string) bool {
	return strings.HasPrefix(selector, "/") || strings.HasPrefix(selector, "(")
}

// metaDescription reads <meta name="description">, falling back to
// og:description.
func metaDescription(doc *goquery.Document) string {
	for _, sel := range []string{`meta[name="description"]`, `meta[property="og:description"]`} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if content = strings.TrimSpace(content); content != "" {
				return content
			}
		}
	}
	return ""
}

// IsExcluded reports whether host is one of domains or a subdomain of one.
func IsExcluded(host string, domains []string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	for _, d := range domains {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "www.")
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

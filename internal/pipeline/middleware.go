package pipeline

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/NewsGoat/internal/engine"
	"github.com/IshaanNene/NewsGoat/internal/extract"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// field returns a named string field of an article.
func field(a *types.Article, name string) (string, bool) {
	switch name {
	case "title":
		return a.Title, true
	case "url":
		return a.URL, true
	case "publisher":
		return a.Publisher, true
	case "snippet":
		return a.Snippet, true
	case "published_date":
		return a.PublishedDate, true
	case "search_term":
		return a.SearchTerm, true
	case "source_id":
		return a.SourceID, true
	default:
		return "", false
	}
}

// TrimMiddleware trims whitespace from the text fields.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(a *types.Article) (*types.Article, error) {
	for _, s := range []*string{&a.Title, &a.URL, &a.Publisher, &a.Snippet, &a.PublishedDate, &a.SearchTerm, &a.SourceID} {
		*s = strings.TrimSpace(*s)
	}
	return a, nil
}

// RequiredFieldsMiddleware drops articles missing required fields.
type RequiredFieldsMiddleware struct {
	Fields []string
}

func (m *RequiredFieldsMiddleware) Name() string { return "required_fields" }

func (m *RequiredFieldsMiddleware) Process(a *types.Article) (*types.Article, error) {
	for _, name := range m.Fields {
		val, ok := field(a, name)
		if !ok {
			return nil, fmt.Errorf("unknown article field %q", name)
		}
		if val == "" {
			return nil, nil
		}
	}
	return a, nil
}

// DedupMiddleware drops articles whose canonical URL was already seen.
type DedupMiddleware struct {
	seen *engine.Deduplicator
}

func NewDedupMiddleware() *DedupMiddleware {
	return &DedupMiddleware{seen: engine.NewDeduplicator(256)}
}

func (m *DedupMiddleware) Name() string { return "dedup" }

func (m *DedupMiddleware) Process(a *types.Article) (*types.Article, error) {
	if !m.seen.Add(a.URL) {
		return nil, nil
	}
	return a, nil
}

// ExcludedDomainMiddleware drops articles whose link or publisher belongs to
// an excluded domain.
type ExcludedDomainMiddleware struct {
	domains []string
}

func NewExcludedDomainMiddleware(domains []string) *ExcludedDomainMiddleware {
	return &ExcludedDomainMiddleware{domains: domains}
}

func (m *ExcludedDomainMiddleware) Name() string { return "excluded_domain" }

func (m *ExcludedDomainMiddleware) Process(a *types.Article) (*types.Article, error) {
	candidates := []string{a.URL}
	if pub, ok := a.Metadata["publisher_url"].(string); ok {
		candidates = append(candidates, pub)
	}
	for _, raw := range candidates {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		if extract.IsExcluded(u.Hostname(), m.domains) {
			return nil, nil
		}
	}
	return a, nil
}

// HTMLSanitizeMiddleware reduces the snippet to plain text.
type HTMLSanitizeMiddleware struct{}

func NewHTMLSanitizeMiddleware() *HTMLSanitizeMiddleware {
	return &HTMLSanitizeMiddleware{}
}

func (m *HTMLSanitizeMiddleware) Name() string { return "html_sanitize" }

func (m *HTMLSanitizeMiddleware) Process(a *types.Article) (*types.Article, error) {
	if !strings.ContainsAny(a.Snippet, "<&") {
		return a, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(a.Snippet))
	if err != nil {
		return nil, err
	}
	a.Snippet = strings.Join(strings.Fields(doc.Text()), " ")
	return a, nil
}

// DateNormalizeMiddleware rewrites the published date in a single layout.
// Unparseable dates are left untouched.
type DateNormalizeMiddleware struct {
	outFormat string
	inFormats []string
}

func NewDateNormalizeMiddleware(outFormat string) *DateNormalizeMiddleware {
	if outFormat == "" {
		outFormat = time.RFC3339
	}
	return &DateNormalizeMiddleware{
		outFormat: outFormat,
		inFormats: []string{
			time.RFC1123,
			time.RFC1123Z,
			time.RFC3339,
			time.RFC822,
			time.RFC822Z,
			"2006-01-02",
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05",
			"01/02/2006",
			"January 2, 2006",
			"Jan 2, 2006",
			"2 January 2006",
			"2 Jan 2006",
			"Mon, 2 Jan 2006 15:04:05 MST",
			"Mon, 02 Jan 2006",
		},
	}
}

func (m *DateNormalizeMiddleware) Name() string { return "date_normalize" }

func (m *DateNormalizeMiddleware) Process(a *types.Article) (*types.Article, error) {
	s := strings.TrimSpace(a.PublishedDate)
	if s == "" {
		return a, nil
	}
	for _, format := range m.inFormats {
		if t, err := time.Parse(format, s); err == nil {
			a.PublishedDate = t.UTC().Format(m.outFormat)
			break
		}
	}
	return a, nil
}

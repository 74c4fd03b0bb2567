package newsgoat

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const articlePage = `<html><head>
<meta name="description" content="A short summary of the story.">
</head><body>
<nav>Home | World | Business</nav>
<article>
<p>%s opened with a long first paragraph that easily clears every minimum length used by the extractor.</p>
<p>A second paragraph adds more detail so the article body comfortably exceeds two hundred characters in total.</p>
<p>A third paragraph closes the story with quotes from analysts and a look at what comes next for the sector.</p>
</article>
</body></html>`

func newsServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var base string
	mux.HandleFunc("/rss/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0"?><rss version="2.0"><channel>
<item><title>Story one - Wire</title><link>%[1]s/article/1</link><guid>g1</guid><source url="https://wire.example">Wire</source></item>
<item><title>Story one again - Wire</title><link>%[1]s/article/1#dup</link><guid>g2</guid><source url="https://wire.example">Wire</source></item>
<item><title>Story two - Daily</title><link>%[1]s/article/2</link><guid>g3</guid></item>
<item><title>Clip - YouTube</title><link>https://www.youtube.com/watch?v=1</link><guid>g4</guid><source url="https://www.youtube.com">YouTube</source></item>
</channel></rss>`, base)
	})
	mux.HandleFunc("/article/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, articlePage, strings.TrimPrefix(r.URL.Path, "/article/"))
	})
	ts := httptest.NewServer(mux)
	base = ts.URL
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T, ts *httptest.Server) *Client {
	t.Helper()
	c, err := New(WithWorkers(2), WithGoogleNews(ts.URL+"/rss/search", "1d"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClientExtract(t *testing.T) {
	ts := newsServer(t)
	c := newClient(t, ts)

	res := c.Extract(context.Background(), ts.URL+"/article/7")
	if !res.Status.IsSuccess() {
		t.Fatalf("expected success, got %q", res.Status)
	}
	if res.MetaDescription != "A short summary of the story." || res.Abstract != res.MetaDescription {
		t.Errorf("unexpected abstract/meta: %+v", res)
	}
	if !strings.HasPrefix(res.FullText, "7 opened with") || strings.Contains(res.FullText, "Business") {
		t.Errorf("unexpected full text %q", res.FullText)
	}
}

func TestClientExtractAllKeepsOrder(t *testing.T) {
	ts := newsServer(t)
	c := newClient(t, ts)

	urls := []string{ts.URL + "/article/1", "https://www.facebook.com/post", ts.URL + "/article/3"}
	out := c.ExtractAll(context.Background(), urls)
	if len(out) != 3 {
		t.Fatalf("expected 3 results, got %d", len(out))
	}
	if out[1].Result.Status != "error:excluded domain" {
		t.Errorf("unexpected status for excluded url %q", out[1].Result.Status)
	}
	if !out[0].Result.Status.IsSuccess() || !out[2].Result.Status.IsSuccess() {
		t.Errorf("expected successes around the excluded url: %+v", out)
	}
	if c.Stats()["total"] != int64(3) {
		t.Errorf("unexpected stats %v", c.Stats())
	}
}

func TestClientSearch(t *testing.T) {
	ts := newsServer(t)
	c := newClient(t, ts)

	articles, err := c.Search(context.Background(), "markets")
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles after dedup and exclusion, got %d", len(articles))
	}
	for _, a := range articles {
		if a.SearchTerm != "markets" || !a.Extracted() || a.FullText == "" {
			t.Errorf("article not enriched: %+v", a)
		}
	}
	if articles[1].Publisher != "Daily" {
		t.Errorf("expected publisher from title suffix, got %q", articles[1].Publisher)
	}
}

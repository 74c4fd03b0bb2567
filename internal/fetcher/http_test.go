package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func newTestFetcher(t *testing.T, mutate func(*config.Config)) *HTTPFetcher {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	f, err := NewHTTPFetcher(cfg, testLogger)
	if err != nil {
		t.Fatalf("NewHTTPFetcher: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func mustRequest(t *testing.T, raw string) *types.Request {
	t.Helper()
	req, err := types.NewRequest(raw)
	if err != nil {
		t.Fatalf("NewRequest(%q): %v", raw, err)
	}
	return req
}

func TestHTTPFetcherSendsBrowserHeaders(t *testing.T) {
	var got http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer ts.Close()

	f := newTestFetcher(t, nil)
	resp, err := f.Fetch(context.Background(), mustRequest(t, ts.URL))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if resp.StatusCode != 200 || !bytes.Contains(resp.Body, []byte("ok")) {
		t.Errorf("unexpected response: %d %q", resp.StatusCode, resp.Body)
	}
	if ua := got.Get("User-Agent"); !strings.HasPrefix(ua, "Mozilla/5.0") {
		t.Errorf("expected browser User-Agent, got %q", ua)
	}
	if got.Get("Accept") != defaultAccept {
		t.Errorf("unexpected Accept header %q", got.Get("Accept"))
	}
	if got.Get("Accept-Language") != "en-US,en;q=0.5" {
		t.Errorf("unexpected Accept-Language %q", got.Get("Accept-Language"))
	}
}

func TestHTTPFetcherFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("moved here"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	f := newTestFetcher(t, nil)
	resp, err := f.Fetch(context.Background(), mustRequest(t, ts.URL+"/old"))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if resp.FinalURL != ts.URL+"/new" {
		t.Errorf("expected final URL /new, got %q", resp.FinalURL)
	}
}

func TestHTTPFetcherNon2xxIsFetchError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	f := newTestFetcher(t, nil)
	_, err := f.Fetch(context.Background(), mustRequest(t, ts.URL))

	var fetchErr *types.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.StatusCode != 404 || fetchErr.Timeout {
		t.Errorf("unexpected error fields: %+v", fetchErr)
	}
	if fetchErr.Reason() != "HTTP 404 Not Found" {
		t.Errorf("unexpected reason %q", fetchErr.Reason())
	}
}

func TestHTTPFetcherTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()

	f := newTestFetcher(t, func(c *config.Config) { c.Extract.Timeout = 50 * time.Millisecond })
	_, err := f.Fetch(context.Background(), mustRequest(t, ts.URL))
	if !types.IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestHTTPFetcherDecodesCompressedBodies(t *testing.T) {
	const page = "<html><body><p>compressed body</p></body></html>"

	var gz, br bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write([]byte(page))
	_ = gw.Close()
	bw := brotli.NewWriter(&br)
	_, _ = bw.Write([]byte(page))
	_ = bw.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/gzip", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(gz.Bytes())
	})
	mux.HandleFunc("/br", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		_, _ = w.Write(br.Bytes())
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	f := newTestFetcher(t, nil)
	for _, path := range []string{"/gzip", "/br"} {
		resp, err := f.Fetch(context.Background(), mustRequest(t, ts.URL+path))
		if err != nil {
			t.Fatalf("Fetch %s: %v", path, err)
		}
		if string(resp.Body) != page {
			t.Errorf("%s: body not decoded: %q", path, resp.Body)
		}
	}
}

func TestHTTPFetcherLimitsDecodedBody(t *testing.T) {
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write([]byte(strings.Repeat("a", 256*1024)))
	_ = gw.Close()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(gz.Bytes())
	}))
	defer ts.Close()

	f := newTestFetcher(t, func(c *config.Config) { c.Fetcher.MaxBodySize = 4096 })
	resp, err := f.Fetch(context.Background(), mustRequest(t, ts.URL))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gz.Len() >= 4096 {
		t.Fatalf("compressed body should fit under the limit, got %d bytes", gz.Len())
	}
	if len(resp.Body) != 4096 {
		t.Errorf("expected decoded body capped at 4096 bytes, got %d", len(resp.Body))
	}
}

func TestNewRejectsUnknownFetcher(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Fetcher.Type = "carrier-pigeon"
	if _, err := New(cfg, testLogger); !errors.Is(err, types.ErrNoFetcher) {
		t.Errorf("expected ErrNoFetcher, got %v", err)
	}
}

func TestProxyManagerRotation(t *testing.T) {
	pm := NewProxyManager(&config.ProxyConfig{
		Rotation: "round_robin",
		URLs:     []string{"http://p1:8080", "http://p2:8080", "::bad"},
	}, testLogger)

	if pm.Count() != 2 {
		t.Fatalf("expected 2 valid proxies, got %d", pm.Count())
	}
	first, second := pm.Next(), pm.Next()
	if first.Host == second.Host {
		t.Errorf("round robin should alternate, got %s twice", first.Host)
	}

	pm.MarkFailed(first, errors.New("refused"))
	if pm.HealthyCount() != 1 {
		t.Errorf("expected 1 healthy proxy, got %d", pm.HealthyCount())
	}
	pm.MarkFailed(second, errors.New("refused"))
	if pm.Next() != nil {
		t.Error("expected nil when all proxies are unhealthy")
	}
	pm.MarkHealthy(&url.URL{Scheme: "http", Host: "p1:8080"})
	if pm.Next() == nil {
		t.Error("expected a proxy after MarkHealthy")
	}
}

func TestProxyManagerCooldownReadmits(t *testing.T) {
	pm := NewProxyManager(&config.ProxyConfig{
		URLs:     []string{"http://p1:8080"},
		Cooldown: 20 * time.Millisecond,
	}, testLogger)

	pm.MarkFailed(pm.Next(), errors.New("refused"))
	if pm.HealthyCount() != 0 {
		t.Fatalf("expected failed proxy out of rotation")
	}
	time.Sleep(30 * time.Millisecond)
	if pm.HealthyCount() != 1 || pm.Next() == nil {
		t.Error("expected proxy back in rotation after cooldown")
	}
}

// forwardProxy serves plain-HTTP forwarding and rejects every CONNECT tunnel.
func forwardProxy(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodConnect {
			http.Error(w, "upstream unreachable", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>via proxy " + r.URL.Host + "</body></html>"))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTPFetcherKeepsProxyOnTargetFailure(t *testing.T) {
	proxy := forwardProxy(t)
	f := newTestFetcher(t, func(c *config.Config) {
		c.Proxy.Enabled = true
		c.Proxy.URLs = []string{proxy.URL}
	})

	if _, err := f.Fetch(context.Background(), mustRequest(t, "https://dead-article.example/x")); err == nil {
		t.Fatal("expected the tunnel to the dead host to fail")
	}
	if f.proxyMgr.HealthyCount() != 1 {
		t.Fatalf("target-side failure must not take the proxy out of rotation")
	}

	resp, err := f.Fetch(context.Background(), mustRequest(t, "http://healthy.example/y"))
	if err != nil {
		t.Fatalf("second fetch through the same proxy: %v", err)
	}
	if !strings.Contains(string(resp.Body), "via proxy healthy.example") {
		t.Errorf("expected response forwarded by the proxy, got %q", resp.Body)
	}
}

func TestHTTPFetcherDropsDeadProxyAndConnectsDirectly(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	deadProxy := "http://" + ln.Addr().String()
	_ = ln.Close()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>direct</body></html>"))
	}))
	defer ts.Close()

	f := newTestFetcher(t, func(c *config.Config) {
		c.Proxy.Enabled = true
		c.Proxy.URLs = []string{deadProxy}
	})

	if _, err := f.Fetch(context.Background(), mustRequest(t, ts.URL)); err == nil {
		t.Fatal("expected the dead proxy to fail the first fetch")
	}
	if f.proxyMgr.HealthyCount() != 0 {
		t.Fatalf("expected dead proxy out of rotation")
	}

	resp, err := f.Fetch(context.Background(), mustRequest(t, ts.URL))
	if err != nil {
		t.Fatalf("expected direct connection without healthy proxies: %v", err)
	}
	if string(resp.Body) != "<html><body>direct</body></html>" {
		t.Errorf("unexpected body %q", resp.Body)
	}
}

func TestHTTPFetcherMarksProxyOnAuthRequired(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusProxyAuthRequired)
	}))
	defer proxy.Close()

	f := newTestFetcher(t, func(c *config.Config) {
		c.Proxy.Enabled = true
		c.Proxy.URLs = []string{proxy.URL}
	})

	_, err := f.Fetch(context.Background(), mustRequest(t, "http://news.example/a"))
	var fetchErr *types.FetchError
	if !errors.As(err, &fetchErr) || fetchErr.StatusCode != http.StatusProxyAuthRequired {
		t.Fatalf("expected 407 FetchError, got %v", err)
	}
	if f.proxyMgr.HealthyCount() != 0 {
		t.Error("expected proxy demanding credentials out of rotation")
	}
}

package observability

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/IshaanNene/NewsGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestMetricsRecordExtractions(t *testing.T) {
	m := NewMetrics(testLogger)

	m.ExtractionStarted()
	m.ExtractionStarted()
	m.ExtractionStarted()
	if got := testutil.ToFloat64(m.InFlight); got != 3 {
		t.Errorf("expected 3 in flight, got %v", got)
	}

	m.ExtractionFinished(types.StatusSuccess, 120*time.Millisecond)
	m.ExtractionFinished(types.StatusTimeout, 10*time.Second)
	m.ExtractionFinished(types.ErrorStatus("HTTP 404 Not Found"), 50*time.Millisecond)

	if got := testutil.ToFloat64(m.InFlight); got != 0 {
		t.Errorf("expected 0 in flight, got %v", got)
	}
	for _, kind := range []string{"success", "timeout", "error"} {
		if got := testutil.ToFloat64(m.ExtractionsTotal.WithLabelValues(kind)); got != 1 {
			t.Errorf("expected 1 %s, got %v", kind, got)
		}
	}
	if n := testutil.CollectAndCount(m.ExtractionDuration); n != 1 {
		t.Errorf("expected one histogram series, got %d", n)
	}
}

func TestMetricsArticlesStored(t *testing.T) {
	m := NewMetrics(testLogger)
	m.ArticlesStored("csv", 12)
	m.ArticlesStored("csv", 3)
	m.ArticlesStored("mongo", 15)

	if got := testutil.ToFloat64(m.StoredTotal.WithLabelValues("csv")); got != 15 {
		t.Errorf("expected 15 csv articles, got %v", got)
	}
	if got := testutil.ToFloat64(m.StoredTotal.WithLabelValues("mongo")); got != 15 {
		t.Errorf("expected 15 mongo articles, got %v", got)
	}
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics(testLogger)
	m.ExtractionFinished(types.StatusSuccess, time.Second)

	ts := httptest.NewServer(m.Handler("/metrics"))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `newsgoat_extractions_total{status="success"} 1`) {
		t.Errorf("metrics output missing extraction counter:\n%s", body)
	}

	resp, err = http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from /health, got %d", resp.StatusCode)
	}
}

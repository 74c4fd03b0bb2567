package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/IshaanNene/NewsGoat/internal/types"
)

// Metrics holds the Prometheus collectors for extraction runs.
type Metrics struct {
	ExtractionsTotal   *prometheus.CounterVec
	ExtractionDuration prometheus.Histogram
	InFlight           prometheus.Gauge
	StoredTotal        *prometheus.CounterVec

	registry *prometheus.Registry
	server   *http.Server
	logger   *slog.Logger
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics(logger *slog.Logger) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		ExtractionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "newsgoat_extractions_total",
			Help: "Extractions finished, by status kind",
		}, []string{"status"}), // success, timeout, error
		ExtractionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "newsgoat_extraction_duration_seconds",
			Help:    "Wall time of a single page extraction",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		}),
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "newsgoat_extractions_in_flight",
			Help: "Extractions currently running",
		}),
		StoredTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "newsgoat_articles_stored_total",
			Help: "Articles written, by storage backend",
		}, []string{"backend"}),
		registry: reg,
		logger:   logger.With("component", "metrics"),
	}
}

// ExtractionStarted marks one extraction as in flight.
func (m *Metrics) ExtractionStarted() {
	m.InFlight.Inc()
}

// ExtractionFinished records the outcome of one extraction.
func (m *Metrics) ExtractionFinished(status types.Status, elapsed time.Duration) {
	m.InFlight.Dec()
	m.ExtractionsTotal.WithLabelValues(status.Kind()).Inc()
	m.ExtractionDuration.Observe(elapsed.Seconds())
}

// ArticlesStored records n articles written to backend.
func (m *Metrics) ArticlesStored(backend string, n int) {
	m.StoredTotal.WithLabelValues(backend).Add(float64(n))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns a mux serving path and /health.
func (m *Metrics) Handler(path string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})
	return mux
}

// StartServer starts the metrics HTTP server in the background.
func (m *Metrics) StartServer(port int, path string) error {
	addr := fmt.Sprintf(":%d", port)
	m.server = &http.Server{
		Addr:              addr,
		Handler:           m.Handler(path),
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Shutdown stops the metrics server if it was started.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// Extractor produces one result for one URL and never fails past its boundary.
type Extractor interface {
	Extract(ctx context.Context, rawURL string) types.ExtractionResult
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, rawURL string) types.ExtractionResult

// Extract implements Extractor.
func (f ExtractorFunc) Extract(ctx context.Context, rawURL string) types.ExtractionResult {
	return f(ctx, rawURL)
}

// Recorder receives per-extraction events, typically for metrics.
type Recorder interface {
	ExtractionStarted()
	ExtractionFinished(status types.Status, elapsed time.Duration)
}

// Stats tracks extraction counters, either for one run or for the lifetime
// of a Batch.
type Stats struct {
	Total        atomic.Int64
	Completed    atomic.Int64
	Succeeded    atomic.Int64
	TimedOut     atomic.Int64
	Failed       atomic.Int64
	InFlight     atomic.Int64
	PeakInFlight atomic.Int64
	StartTime    time.Time
}

func (s *Stats) enter() {
	n := s.InFlight.Add(1)
	for {
		peak := s.PeakInFlight.Load()
		if n <= peak || s.PeakInFlight.CompareAndSwap(peak, n) {
			return
		}
	}
}

func (s *Stats) leave(status types.Status) int64 {
	s.InFlight.Add(-1)
	return s.record(status)
}

func (s *Stats) record(status types.Status) int64 {
	switch status.Kind() {
	case "success":
		s.Succeeded.Add(1)
	case "timeout":
		s.TimedOut.Add(1)
	default:
		s.Failed.Add(1)
	}
	return s.Completed.Add(1)
}

// SuccessRate returns the share of successful extractions in percent.
func (s *Stats) SuccessRate() float64 {
	total := s.Total.Load()
	if total == 0 {
		return 0
	}
	return float64(s.Succeeded.Load()) * 100 / float64(total)
}

// Snapshot returns a copy of stats safe for reading.
func (s *Stats) Snapshot() map[string]any {
	return map[string]any{
		"total":          s.Total.Load(),
		"completed":      s.Completed.Load(),
		"succeeded":      s.Succeeded.Load(),
		"timed_out":      s.TimedOut.Load(),
		"failed":         s.Failed.Load(),
		"in_flight":      s.InFlight.Load(),
		"peak_in_flight": s.PeakInFlight.Load(),
		"success_rate":   fmt.Sprintf("%.1f%%", s.SuccessRate()),
		"elapsed":        time.Since(s.StartTime).String(),
	}
}

// Batch runs an Extractor over many targets with a fixed pool of workers.
// Concurrent runs on one Batch share its worker slots, so at most the
// configured number of extractions are in flight across all of them.
type Batch struct {
	extractor     Extractor
	workers       int
	progressEvery int
	maxReason     int
	recorder      Recorder
	logger        *slog.Logger
	slots         chan struct{}
	last          atomic.Pointer[Stats]
	total         *Stats
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithRecorder reports every extraction to r.
func WithRecorder(r Recorder) BatchOption {
	return func(b *Batch) { b.recorder = r }
}

// WithWorkers overrides extract.max_workers.
func WithWorkers(n int) BatchOption {
	return func(b *Batch) {
		if n > 0 {
			b.workers = n
		}
	}
}

// NewBatch creates a Batch over ex.
func NewBatch(ex Extractor, cfg config.ExtractConfig, logger *slog.Logger, opts ...BatchOption) *Batch {
	b := &Batch{
		extractor:     ex,
		workers:       max(cfg.MaxWorkers, 1),
		progressEvery: max(cfg.ProgressEvery, 1),
		maxReason:     cfg.MaxReasonChars,
		logger:        logger.With("component", "batch"),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.slots = make(chan struct{}, b.workers)
	b.total = &Stats{StartTime: time.Now()}
	b.last.Store(&Stats{StartTime: b.total.StartTime})
	return b
}

// Targets tags each URL with its input position.
func Targets(urls []string) []types.FetchTarget {
	targets := make([]types.FetchTarget, len(urls))
	for i, u := range urls {
		targets[i] = types.FetchTarget{Index: i, URL: u}
	}
	return targets
}

// Run extracts every target and returns one Extraction per target in input
// order. At most the configured number of extractions are in flight at once.
// Once ctx is done the remaining targets resolve without being fetched.
func (b *Batch) Run(ctx context.Context, targets []types.FetchTarget) []types.Extraction {
	stats := &Stats{StartTime: time.Now()}
	stats.Total.Store(int64(len(targets)))
	b.total.Total.Add(int64(len(targets)))
	b.last.Store(stats)

	results := make([]types.Extraction, len(targets))
	if len(targets) == 0 {
		return results
	}

	workers := min(b.workers, len(targets))
	b.logger.Info("starting batch extraction", "targets", len(targets), "workers", workers)

	jobs := make(chan int, len(targets))
	for i := range targets {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = types.Extraction{
					Target: targets[i],
					Result: b.extractOne(ctx, stats, targets[i]),
				}
			}
		}()
	}
	wg.Wait()

	b.logger.Info("batch extraction complete",
		"targets", len(targets),
		"succeeded", stats.Succeeded.Load(),
		"timed_out", stats.TimedOut.Load(),
		"failed", stats.Failed.Load(),
		"success_rate", fmt.Sprintf("%.1f%%", stats.SuccessRate()),
		"elapsed", time.Since(stats.StartTime),
	)
	return results
}

// extractOne waits for a shared slot, then extracts target. A target whose
// context ends while waiting resolves without taking a slot.
func (b *Batch) extractOne(ctx context.Context, stats *Stats, target types.FetchTarget) types.ExtractionResult {
	select {
	case b.slots <- struct{}{}:
	case <-ctx.Done():
		result := types.FailedResult(types.StatusFromError(ctx.Err(), b.maxReason))
		if b.recorder != nil {
			b.recorder.ExtractionStarted()
			b.recorder.ExtractionFinished(result.Status, 0)
		}
		b.total.record(result.Status)
		b.progress(stats.record(result.Status), stats.Total.Load())
		return result
	}
	defer func() { <-b.slots }()
	return b.runOne(ctx, stats, target)
}

func (b *Batch) runOne(ctx context.Context, stats *Stats, target types.FetchTarget) (result types.ExtractionResult) {
	start := time.Now()
	stats.enter()
	b.total.enter()
	if b.recorder != nil {
		b.recorder.ExtractionStarted()
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("extraction panicked", "url", target.URL, "index", target.Index, "panic", r)
			result = types.FailedResult(types.ErrorStatus(types.Truncate(fmt.Sprint(r), b.maxReason)))
		}
		if b.recorder != nil {
			b.recorder.ExtractionFinished(result.Status, time.Since(start))
		}
		b.total.leave(result.Status)
		b.progress(stats.leave(result.Status), stats.Total.Load())
	}()

	if err := ctx.Err(); err != nil {
		return types.FailedResult(types.StatusFromError(err, b.maxReason))
	}
	return b.extractor.Extract(ctx, target.URL)
}

func (b *Batch) progress(completed, total int64) {
	if completed%int64(b.progressEvery) != 0 && completed != total {
		return
	}
	b.logger.Info("extraction progress",
		"completed", completed,
		"total", total,
		"percent", fmt.Sprintf("%.1f", float64(completed)/float64(total)*100),
	)
}

// Stats returns the counters of the most recent run.
func (b *Batch) Stats() *Stats {
	return b.last.Load()
}

// TotalStats returns counters accumulated over every run since NewBatch.
func (b *Batch) TotalStats() *Stats {
	return b.total
}

// Enrich extracts every article URL and writes the results back onto the
// articles. Articles sharing a canonical URL are fetched once.
func (b *Batch) Enrich(ctx context.Context, articles []*types.Article) {
	dedup := NewDeduplicator(len(articles))
	var urls []string
	owners := make(map[string][]*types.Article, len(articles))
	for _, a := range articles {
		key := HashURL(CanonicalizeURL(a.URL))
		if dedup.Add(a.URL) {
			urls = append(urls, a.URL)
		}
		owners[key] = append(owners[key], a)
	}

	for _, ex := range b.Run(ctx, Targets(urls)) {
		for _, a := range owners[HashURL(CanonicalizeURL(ex.Target.URL))] {
			a.ApplyExtraction(ex.Result)
		}
	}
}

package cache

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/engine"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeRedis struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	readErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return redis.NewStringResult("", f.readErr)
	}
	val, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Close() error { return nil }

func countingExtractor(status types.Status, calls *int) engine.ExtractorFunc {
	return func(_ context.Context, rawURL string) types.ExtractionResult {
		*calls++
		return types.ExtractionResult{FullText: "text of " + rawURL, Status: status}
	}
}

func TestCachedExtractorServesRepeats(t *testing.T) {
	calls := 0
	store := newFakeRedis()
	cfg := config.DefaultConfig().Cache
	c := NewCachedExtractor(countingExtractor(types.StatusSuccess, &calls), store, cfg, testLogger)

	first := c.Extract(context.Background(), "https://example.com/a")
	second := c.Extract(context.Background(), "https://EXAMPLE.com/a#comments")

	if calls != 1 {
		t.Errorf("expected one live extraction, got %d", calls)
	}
	if first != second {
		t.Errorf("cached result differs:\n%+v\n%+v", first, second)
	}
	key := c.Key("https://example.com/a")
	if store.ttls[key] != cfg.TTL {
		t.Errorf("expected ttl %v, got %v", cfg.TTL, store.ttls[key])
	}
}

func TestCachedExtractorSkipsFailures(t *testing.T) {
	calls := 0
	store := newFakeRedis()
	c := NewCachedExtractor(countingExtractor(types.StatusTimeout, &calls), store, config.DefaultConfig().Cache, testLogger)

	c.Extract(context.Background(), "https://example.com/slow")
	c.Extract(context.Background(), "https://example.com/slow")

	if calls != 2 {
		t.Errorf("failed results must not be cached, got %d live calls", calls)
	}
	if len(store.data) != 0 {
		t.Errorf("expected empty cache, got %d entries", len(store.data))
	}
}

func TestCachedExtractorFallsThroughOnRedisError(t *testing.T) {
	calls := 0
	store := newFakeRedis()
	store.readErr = errors.New("connection refused")
	c := NewCachedExtractor(countingExtractor(types.StatusSuccess, &calls), store, config.DefaultConfig().Cache, testLogger)

	res := c.Extract(context.Background(), "https://example.com/a")
	if !res.Status.IsSuccess() || calls != 1 {
		t.Errorf("expected live extraction when redis fails, got %+v after %d calls", res, calls)
	}
}

func TestCachedExtractorIgnoresCorruptEntries(t *testing.T) {
	calls := 0
	store := newFakeRedis()
	c := NewCachedExtractor(countingExtractor(types.StatusSuccess, &calls), store, config.DefaultConfig().Cache, testLogger)
	store.data[c.Key("https://example.com/a")] = "{not json"

	res := c.Extract(context.Background(), "https://example.com/a")
	if calls != 1 || !res.Status.IsSuccess() {
		t.Errorf("expected corrupt entry to be replaced by a live result")
	}
}

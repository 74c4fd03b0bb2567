package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/engine"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// Client is the subset of *redis.Client the cache uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// NewClient connects to the Redis server named in cfg.
func NewClient(cfg config.CacheConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// CachedExtractor serves repeated URLs from Redis and falls through to the
// wrapped extractor on a miss. Only successful results are stored.
type CachedExtractor struct {
	inner  engine.Extractor
	client Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedExtractor wraps inner with a Redis lookup.
func NewCachedExtractor(inner engine.Extractor, client Client, cfg config.CacheConfig, logger *slog.Logger) *CachedExtractor {
	return &CachedExtractor{
		inner:  inner,
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
		logger: logger.With("component", "extract_cache"),
	}
}

// Key returns the Redis key for rawURL.
func (c *CachedExtractor) Key(rawURL string) string {
	return c.prefix + engine.HashURL(engine.CanonicalizeURL(rawURL))
}

// Extract implements engine.Extractor.
func (c *CachedExtractor) Extract(ctx context.Context, rawURL string) types.ExtractionResult {
	key := c.Key(rawURL)

	if res, ok := c.lookup(ctx, key); ok {
		c.logger.Debug("cache hit", "url", rawURL)
		return res
	}

	res := c.inner.Extract(ctx, rawURL)
	if !res.Status.IsSuccess() {
		return res
	}

	payload, err := json.Marshal(res)
	if err != nil {
		c.logger.Warn("cache encode failed", "url", rawURL, "error", err)
		return res
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", "url", rawURL, "error", err)
	}
	return res
}

func (c *CachedExtractor) lookup(ctx context.Context, key string) (types.ExtractionResult, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", "key", key, "error", err)
		}
		return types.ExtractionResult{}, false
	}

	var res types.ExtractionResult
	if err := json.Unmarshal([]byte(val), &res); err != nil {
		c.logger.Warn("cache entry corrupt", "key", key, "error", err)
		return types.ExtractionResult{}, false
	}
	return res, res.Status.IsSuccess()
}

// Close closes the Redis client.
func (c *CachedExtractor) Close() error {
	return c.client.Close()
}

package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	ex := cfg.Extract
	if ex.Timeout <= 0 {
		return fmt.Errorf("extract.timeout must be > 0")
	}
	if ex.MaxWorkers < 1 {
		return fmt.Errorf("extract.max_workers must be >= 1, got %d", ex.MaxWorkers)
	}
	if ex.MaxWorkers > 1000 {
		return fmt.Errorf("extract.max_workers must be <= 1000, got %d", ex.MaxWorkers)
	}
	if len(ex.BodySelectors) == 0 {
		return fmt.Errorf("extract.body_selectors must not be empty")
	}
	if ex.MinBodyChars < 0 || ex.MinParagraphChars < 0 {
		return fmt.Errorf("extract thresholds must be >= 0")
	}
	if ex.MaxFullTextChars <= 0 {
		return fmt.Errorf("extract.max_full_text_chars must be > 0, got %d", ex.MaxFullTextChars)
	}
	if ex.MaxAbstractChars <= 0 {
		return fmt.Errorf("extract.max_abstract_chars must be > 0, got %d", ex.MaxAbstractChars)
	}
	if ex.AbstractParagraphs < 1 {
		return fmt.Errorf("extract.abstract_paragraphs must be >= 1, got %d", ex.AbstractParagraphs)
	}
	if ex.MaxReasonChars < 1 {
		return fmt.Errorf("extract.max_reason_chars must be >= 1, got %d", ex.MaxReasonChars)
	}
	if ex.ProgressEvery < 1 {
		return fmt.Errorf("extract.progress_every must be >= 1, got %d", ex.ProgressEvery)
	}

	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}
	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}

	if cfg.Proxy.Enabled {
		if cfg.Proxy.Rotation != "round_robin" && cfg.Proxy.Rotation != "random" {
			return fmt.Errorf("proxy.rotation must be 'round_robin' or 'random', got %q", cfg.Proxy.Rotation)
		}
		if cfg.Proxy.Cooldown < 0 {
			return fmt.Errorf("proxy.cooldown must be >= 0, got %s", cfg.Proxy.Cooldown)
		}
		for _, proxyURL := range cfg.Proxy.URLs {
			if _, err := url.Parse(proxyURL); err != nil {
				return fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
			}
		}
	}

	gn := cfg.Source.GoogleNews
	if gn.Enabled {
		if err := ValidateURL(gn.BaseURL); err != nil {
			return fmt.Errorf("source.google_news.base_url: %w", err)
		}
		if gn.MaxResults < 1 {
			return fmt.Errorf("source.google_news.max_results must be >= 1, got %d", gn.MaxResults)
		}
	}
	if cfg.Source.RequestDelay < 0 {
		return fmt.Errorf("source.request_delay must be >= 0")
	}

	validBackends := map[string]bool{
		"json": true, "jsonl": true, "csv": true, "mongo": true, "neo4j": true,
	}
	if len(cfg.Storage.Backends) == 0 {
		return fmt.Errorf("storage.backends must not be empty")
	}
	for _, b := range cfg.Storage.Backends {
		if !validBackends[b] {
			return fmt.Errorf("storage backend %q is not supported (valid: json, jsonl, csv, mongo, neo4j)", b)
		}
	}

	if cfg.Cache.Enabled {
		if cfg.Cache.Addr == "" {
			return fmt.Errorf("cache.addr is required when cache is enabled")
		}
		if cfg.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be > 0")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is valid for fetching.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

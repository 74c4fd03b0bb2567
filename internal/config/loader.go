package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and CLI flags.
// Priority (highest to lowest): CLI flags > env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	// NEWSGOAT_EXTRACT_MAX_WORKERS -> extract.max_workers
	v.SetEnvPrefix("NEWSGOAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("newsgoat")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".newsgoat"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env overrides resolve.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("extract.timeout", cfg.Extract.Timeout)
	v.SetDefault("extract.max_workers", cfg.Extract.MaxWorkers)
	v.SetDefault("extract.excluded_domains", cfg.Extract.ExcludedDomains)
	v.SetDefault("extract.body_selectors", cfg.Extract.BodySelectors)
	v.SetDefault("extract.strip_tags", cfg.Extract.StripTags)
	v.SetDefault("extract.min_body_chars", cfg.Extract.MinBodyChars)
	v.SetDefault("extract.min_paragraph_chars", cfg.Extract.MinParagraphChars)
	v.SetDefault("extract.max_full_text_chars", cfg.Extract.MaxFullTextChars)
	v.SetDefault("extract.max_abstract_chars", cfg.Extract.MaxAbstractChars)
	v.SetDefault("extract.abstract_paragraphs", cfg.Extract.AbstractParagraphs)
	v.SetDefault("extract.max_reason_chars", cfg.Extract.MaxReasonChars)
	v.SetDefault("extract.progress_every", cfg.Extract.ProgressEvery)

	v.SetDefault("fetcher.type", cfg.Fetcher.Type)
	v.SetDefault("fetcher.user_agents", cfg.Fetcher.UserAgents)
	v.SetDefault("fetcher.accept_language", cfg.Fetcher.AcceptLanguage)
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.tls_insecure", cfg.Fetcher.TLSInsecure)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.stealth", cfg.Fetcher.Stealth)
	v.SetDefault("fetcher.browser_path", cfg.Fetcher.BrowserPath)

	v.SetDefault("proxy.enabled", cfg.Proxy.Enabled)
	v.SetDefault("proxy.rotation", cfg.Proxy.Rotation)
	v.SetDefault("proxy.urls", cfg.Proxy.URLs)
	v.SetDefault("proxy.rotate_on_fail", cfg.Proxy.RotateOnFail)
	v.SetDefault("proxy.cooldown", cfg.Proxy.Cooldown)

	v.SetDefault("source.google_news.enabled", cfg.Source.GoogleNews.Enabled)
	v.SetDefault("source.google_news.base_url", cfg.Source.GoogleNews.BaseURL)
	v.SetDefault("source.google_news.language", cfg.Source.GoogleNews.Language)
	v.SetDefault("source.google_news.country", cfg.Source.GoogleNews.Country)
	v.SetDefault("source.google_news.period", cfg.Source.GoogleNews.Period)
	v.SetDefault("source.google_news.max_results", cfg.Source.GoogleNews.MaxResults)
	v.SetDefault("source.terms", cfg.Source.Terms)
	v.SetDefault("source.request_delay", cfg.Source.RequestDelay)

	v.SetDefault("storage.backends", cfg.Storage.Backends)
	v.SetDefault("storage.output_path", cfg.Storage.OutputPath)
	v.SetDefault("storage.batch_size", cfg.Storage.BatchSize)
	v.SetDefault("storage.mongo.uri", cfg.Storage.Mongo.URI)
	v.SetDefault("storage.mongo.database", cfg.Storage.Mongo.Database)
	v.SetDefault("storage.mongo.collection", cfg.Storage.Mongo.Collection)
	v.SetDefault("storage.neo4j.uri", cfg.Storage.Neo4j.URI)
	v.SetDefault("storage.neo4j.username", cfg.Storage.Neo4j.Username)
	v.SetDefault("storage.neo4j.password", cfg.Storage.Neo4j.Password)
	v.SetDefault("storage.neo4j.database", cfg.Storage.Neo4j.Database)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.addr", cfg.Cache.Addr)
	v.SetDefault("cache.password", cfg.Cache.Password)
	v.SetDefault("cache.db", cfg.Cache.DB)
	v.SetDefault("cache.prefix", cfg.Cache.Prefix)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}

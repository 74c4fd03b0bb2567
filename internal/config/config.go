package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for NewsGoat.
type Config struct {
	Extract ExtractConfig `mapstructure:"extract" yaml:"extract"`
	Fetcher FetcherConfig `mapstructure:"fetcher" yaml:"fetcher"`
	Proxy   ProxyConfig   `mapstructure:"proxy"   yaml:"proxy"`
	Source  SourceConfig  `mapstructure:"source"  yaml:"source"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Cache   CacheConfig   `mapstructure:"cache"   yaml:"cache"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// ExtractConfig controls single-page extraction and the batch worker pool.
type ExtractConfig struct {
	Timeout            time.Duration `mapstructure:"timeout"             yaml:"timeout"`
	MaxWorkers         int           `mapstructure:"max_workers"         yaml:"max_workers"`
	ExcludedDomains    []string      `mapstructure:"excluded_domains"    yaml:"excluded_domains"`
	BodySelectors      []string      `mapstructure:"body_selectors"      yaml:"body_selectors"`
	StripTags          []string      `mapstructure:"strip_tags"          yaml:"strip_tags"`
	MinBodyChars       int           `mapstructure:"min_body_chars"      yaml:"min_body_chars"`
	MinParagraphChars  int           `mapstructure:"min_paragraph_chars" yaml:"min_paragraph_chars"`
	MaxFullTextChars   int           `mapstructure:"max_full_text_chars" yaml:"max_full_text_chars"`
	MaxAbstractChars   int           `mapstructure:"max_abstract_chars"  yaml:"max_abstract_chars"`
	AbstractParagraphs int           `mapstructure:"abstract_paragraphs" yaml:"abstract_paragraphs"`
	MaxReasonChars     int           `mapstructure:"max_reason_chars"    yaml:"max_reason_chars"`
	ProgressEvery      int           `mapstructure:"progress_every"      yaml:"progress_every"`
}

// FetcherConfig controls the page fetcher.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"`
	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
	AcceptLanguage  string        `mapstructure:"accept_language"   yaml:"accept_language"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	Stealth         bool          `mapstructure:"stealth"           yaml:"stealth"`
	BrowserPath     string        `mapstructure:"browser_path"      yaml:"browser_path"`
}

// ProxyConfig controls proxy rotation.
type ProxyConfig struct {
	Enabled      bool          `mapstructure:"enabled"        yaml:"enabled"`
	Rotation     string        `mapstructure:"rotation"       yaml:"rotation"`
	URLs         []string      `mapstructure:"urls"           yaml:"urls"`
	RotateOnFail bool          `mapstructure:"rotate_on_fail" yaml:"rotate_on_fail"`
	Cooldown     time.Duration `mapstructure:"cooldown"       yaml:"cooldown"`
}

// SourceConfig controls news acquisition.
type SourceConfig struct {
	GoogleNews   GoogleNewsConfig `mapstructure:"google_news"   yaml:"google_news"`
	Terms        []string         `mapstructure:"terms"         yaml:"terms"`
	RequestDelay time.Duration    `mapstructure:"request_delay" yaml:"request_delay"`
}

// GoogleNewsConfig controls the Google News RSS source.
type GoogleNewsConfig struct {
	Enabled    bool   `mapstructure:"enabled"     yaml:"enabled"`
	BaseURL    string `mapstructure:"base_url"    yaml:"base_url"`
	Language   string `mapstructure:"language"    yaml:"language"`
	Country    string `mapstructure:"country"     yaml:"country"`
	Period     string `mapstructure:"period"      yaml:"period"`
	MaxResults int    `mapstructure:"max_results" yaml:"max_results"`
}

// StorageConfig controls output/storage.
type StorageConfig struct {
	Backends   []string    `mapstructure:"backends"    yaml:"backends"`
	OutputPath string      `mapstructure:"output_path" yaml:"output_path"`
	BatchSize  int         `mapstructure:"batch_size"  yaml:"batch_size"`
	Mongo      MongoConfig `mapstructure:"mongo"       yaml:"mongo"`
	Neo4j      Neo4jConfig `mapstructure:"neo4j"       yaml:"neo4j"`
}

// MongoConfig controls the MongoDB backend.
type MongoConfig struct {
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// Neo4jConfig controls the Neo4j backend.
type Neo4jConfig struct {
	URI      string `mapstructure:"uri"      yaml:"uri"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	Database string `mapstructure:"database" yaml:"database"`
}

// CacheConfig controls the Redis extraction cache.
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"   yaml:"enabled"`
	Addr     string        `mapstructure:"addr"      yaml:"addr"`
	Password string        `mapstructure:"password"  yaml:"password"`
	DB       int           `mapstructure:"db"        yaml:"db"`
	Prefix   string        `mapstructure:"prefix"    yaml:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"       yaml:"ttl"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultBodySelectors is the ordered list of article body candidates.
var DefaultBodySelectors = []string{
	"article",
	`[role="main"]`,
	".article-content",
	".article-body",
	".post-content",
	".entry-content",
	".content-body",
	".story-body",
	"#article-body",
	".article__body",
	".ArticleBody",
	"main",
	".main-content",
}

// DefaultStripTags are removed from a page before body text is collected.
var DefaultStripTags = []string{
	"script", "style", "nav", "header", "footer", "aside", "form", "iframe", "noscript",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Extract: ExtractConfig{
			Timeout:            10 * time.Second,
			MaxWorkers:         10,
			ExcludedDomains:    []string{"youtube.com", "facebook.com", "twitter.com"},
			BodySelectors:      append([]string(nil), DefaultBodySelectors...),
			StripTags:          append([]string(nil), DefaultStripTags...),
			MinBodyChars:       200,
			MinParagraphChars:  50,
			MaxFullTextChars:   10000,
			MaxAbstractChars:   800,
			AbstractParagraphs: 3,
			MaxReasonChars:     50,
			ProgressEvery:      50,
		},
		Fetcher: FetcherConfig{
			Type: "http",
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
			AcceptLanguage:  "en-US,en;q=0.5",
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
			Stealth:         true,
		},
		Proxy: ProxyConfig{
			Enabled:      false,
			Rotation:     "round_robin",
			RotateOnFail: true,
			Cooldown:     time.Minute,
		},
		Source: SourceConfig{
			GoogleNews: GoogleNewsConfig{
				Enabled:    true,
				BaseURL:    "https://news.google.com/rss/search",
				Language:   "en",
				Country:    "US",
				Period:     "7d",
				MaxResults: 100,
			},
			RequestDelay: 2 * time.Second,
		},
		Storage: StorageConfig{
			Backends:   []string{"json"},
			OutputPath: "./output",
			BatchSize:  100,
			Mongo: MongoConfig{
				URI:        "mongodb://localhost:27017",
				Database:   "newsgoat",
				Collection: "articles",
			},
			Neo4j: Neo4jConfig{
				URI:      "bolt://localhost:7687",
				Username: "neo4j",
				Database: "neo4j",
			},
		},
		Cache: CacheConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			Prefix:  "newsgoat:extract:",
			TTL:     24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

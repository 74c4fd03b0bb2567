package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/NewsGoat/internal/config"
)

var (
	cfgFile    string
	verbose    bool
	outputPath string
	outputType string
	workers    int
	timeout    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "newsgoat",
		Short: "News acquisition and article content extraction",
		Long: `NewsGoat searches news feeds, extracts the readable content of every
article page with a bounded pool of workers, and stores the enriched records.

Features:
  • Google News RSS acquisition per search term
  • Abstract, full text and meta description per article
  • Per-URL status: success, timeout or error:<reason>
  • JSON, JSONL, CSV, MongoDB and Neo4j output
  • Optional Redis cache of extraction results
  • Prometheus metrics endpoint`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(newsCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addOutputFlags registers the flags shared by extract and news.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output directory")
	cmd.Flags().StringVarP(&outputType, "format", "f", "", "comma-separated backends: json, jsonl, csv, mongo, neo4j")
	cmd.Flags().IntVarP(&workers, "workers", "n", 0, "number of concurrent extraction workers")
	cmd.Flags().StringVar(&timeout, "timeout", "", "per-page fetch timeout (e.g. 10s)")
}

// loadConfig loads, overrides and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := applyCLIOverrides(cfg); err != nil {
		return nil, err
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down...", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("NewsGoat %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			printConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
	return cmd
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "Extract:\n")
	fmt.Fprintf(w, "  Timeout:           %s\n", cfg.Extract.Timeout)
	fmt.Fprintf(w, "  Max Workers:       %d\n", cfg.Extract.MaxWorkers)
	fmt.Fprintf(w, "  Excluded Domains:  %s\n", strings.Join(cfg.Extract.ExcludedDomains, ", "))
	fmt.Fprintf(w, "  Body Selectors:    %d configured\n", len(cfg.Extract.BodySelectors))
	fmt.Fprintf(w, "  Full Text Limit:   %d chars\n", cfg.Extract.MaxFullTextChars)
	fmt.Fprintf(w, "  Abstract Limit:    %d chars\n", cfg.Extract.MaxAbstractChars)
	fmt.Fprintf(w, "\nFetcher:\n")
	fmt.Fprintf(w, "  Type:              %s\n", cfg.Fetcher.Type)
	fmt.Fprintf(w, "  Follow Redirects:  %v\n", cfg.Fetcher.FollowRedirects)
	fmt.Fprintf(w, "  Max Body Size:     %d bytes\n", cfg.Fetcher.MaxBodySize)
	fmt.Fprintf(w, "  User Agents:       %d configured\n", len(cfg.Fetcher.UserAgents))
	fmt.Fprintf(w, "\nProxy:\n")
	fmt.Fprintf(w, "  Enabled:           %v\n", cfg.Proxy.Enabled)
	fmt.Fprintf(w, "  Rotation:          %s\n", cfg.Proxy.Rotation)
	fmt.Fprintf(w, "  Count:             %d\n", len(cfg.Proxy.URLs))
	fmt.Fprintf(w, "\nSource:\n")
	fmt.Fprintf(w, "  Google News:       %v\n", cfg.Source.GoogleNews.Enabled)
	fmt.Fprintf(w, "  Period:            %s\n", cfg.Source.GoogleNews.Period)
	fmt.Fprintf(w, "  Terms:             %s\n", strings.Join(cfg.Source.Terms, ", "))
	fmt.Fprintf(w, "  Request Delay:     %s\n", cfg.Source.RequestDelay)
	fmt.Fprintf(w, "\nStorage:\n")
	fmt.Fprintf(w, "  Backends:          %s\n", strings.Join(cfg.Storage.Backends, ", "))
	fmt.Fprintf(w, "  Output Path:       %s\n", cfg.Storage.OutputPath)
	fmt.Fprintf(w, "\nCache:\n")
	fmt.Fprintf(w, "  Enabled:           %v\n", cfg.Cache.Enabled)
	fmt.Fprintf(w, "  Addr:              %s\n", cfg.Cache.Addr)
	fmt.Fprintf(w, "  TTL:               %s\n", cfg.Cache.TTL)
	fmt.Fprintf(w, "\nMetrics:\n")
	fmt.Fprintf(w, "  Enabled:           %v\n", cfg.Metrics.Enabled)
	fmt.Fprintf(w, "  Port:              %d\n", cfg.Metrics.Port)
}

// setupLogger creates a structured logger from the logging config.
func setupLogger(cfg config.LoggingConfig) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	var (
		out     io.Writer = os.Stderr
		cleanup           = func() {}
	)
	switch cfg.Output {
	case "", "stderr":
	case "stdout":
		out = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		cleanup = func() { f.Close() }
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler), cleanup, nil
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) error {
	if workers > 0 {
		cfg.Extract.MaxWorkers = workers
	}
	if timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid --timeout %q: %w", timeout, err)
		}
		cfg.Extract.Timeout = d
	}
	if outputPath != "" {
		cfg.Storage.OutputPath = outputPath
	}
	if outputType != "" {
		var backends []string
		for _, b := range strings.Split(outputType, ",") {
			if b = strings.ToLower(strings.TrimSpace(b)); b != "" {
				backends = append(backends, b)
			}
		}
		cfg.Storage.Backends = backends
	}
	return nil
}

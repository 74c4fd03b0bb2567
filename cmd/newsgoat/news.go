package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/NewsGoat/internal/fetcher"
	"github.com/IshaanNene/NewsGoat/internal/pipeline"
	"github.com/IshaanNene/NewsGoat/internal/source"
	"github.com/IshaanNene/NewsGoat/internal/storage"
)

var (
	noExtract bool
	sample    int
)

// newsCmd creates the "news" subcommand.
func newsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "news [term...]",
		Short: "Search news for terms and extract every article",
		Long: `Query every enabled news source for each term, clean and de-duplicate the
results, extract article content and store the enriched records.
Terms default to source.terms from the config file.`,
		RunE: runNews,
	}

	cmd.Flags().BoolVar(&noExtract, "no-extract", false, "store search results without extracting content")
	cmd.Flags().IntVar(&sample, "sample", 0, "only keep the first N articles (0 = all)")
	addOutputFlags(cmd)

	return cmd
}

// runNews executes the news command.
func runNews(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closeLog, err := setupLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()

	terms := args
	if len(terms) == 0 {
		terms = cfg.Source.Terms
	}
	if len(terms) == 0 {
		return fmt.Errorf("no search terms: pass them as arguments or set source.terms")
	}

	a, err := newApp(cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	// feeds are plain XML; a headless browser would wrap them in a viewer page
	feedFetcher, err := fetcher.NewHTTPFetcher(cfg, logger)
	if err != nil {
		return fmt.Errorf("create feed fetcher: %w", err)
	}
	defer feedFetcher.Close()

	ctx, cancel := signalContext(logger)
	defer cancel()

	start := time.Now()
	sources := source.New(cfg, feedFetcher, logger)
	logger.Info("starting news run", "terms", terms, "sources", sources.Sources())

	articles, err := sources.FetchAll(ctx, terms)
	if err != nil {
		if len(articles) == 0 {
			return fmt.Errorf("acquire articles: %w", err)
		}
		logger.Warn("acquisition interrupted", "error", err, "articles", len(articles))
	}

	articles = pipeline.Default(cfg, logger).ProcessAll(articles)
	if sample > 0 && len(articles) > sample {
		articles = articles[:sample]
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n📰 Found %d unique articles for %d terms\n", len(articles), len(terms))

	if !noExtract && len(articles) > 0 {
		batch := a.batch()
		batch.Enrich(ctx, articles)
		stats := batch.Stats()
		fmt.Fprintf(out, "   Extracted: %d succeeded, %d timed out, %d failed (%.1f%% success rate)\n",
			stats.Succeeded.Load(), stats.TimedOut.Load(), stats.Failed.Load(), stats.SuccessRate())
	}

	if err := storage.StoreInBatches(context.WithoutCancel(ctx), a.store, articles, cfg.Storage.BatchSize); err != nil {
		logger.Error("store failed", "error", err)
	}

	printNewsSummary(out, articles, terms)
	fmt.Fprintf(out, "\n✅ Done in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(out, "   Output:    %s (%s)\n", cfg.Storage.OutputPath, strings.Join(a.store.Backends(), ", "))
	return nil
}

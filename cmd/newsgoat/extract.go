package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/NewsGoat/internal/engine"
	"github.com/IshaanNene/NewsGoat/internal/storage"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

var inputFile string

// extractCmd creates the "extract" subcommand.
func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [url...]",
		Short: "Extract article content from URLs",
		Long: `Fetch every URL with a bounded pool of workers and extract its abstract,
full text and meta description. Every URL gets a result, in input order.`,
		RunE: runExtract,
	}

	cmd.Flags().StringVar(&inputFile, "input", "", "file with one URL per line (# starts a comment)")
	addOutputFlags(cmd)

	return cmd
}

// runExtract executes the extract command.
func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closeLog, err := setupLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()

	urls := args
	if inputFile != "" {
		fromFile, err := readURLFile(inputFile)
		if err != nil {
			return err
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs given: pass them as arguments or with --input")
	}

	a, err := newApp(cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext(logger)
	defer cancel()

	logger.Info("starting extraction",
		"urls", len(urls),
		"workers", cfg.Extract.MaxWorkers,
		"timeout", cfg.Extract.Timeout,
		"backends", cfg.Storage.Backends,
	)

	start := time.Now()
	batch := a.batch()
	results := batch.Run(ctx, engine.Targets(urls))

	articles := make([]*types.Article, len(results))
	for i, ex := range results {
		articles[i] = types.NewArticle(ex.Target.URL)
		articles[i].ApplyExtraction(ex.Result)
	}
	if err := storage.StoreInBatches(context.WithoutCancel(ctx), a.store, articles, cfg.Storage.BatchSize); err != nil {
		logger.Error("store failed", "error", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n✅ Extraction complete in %s\n", time.Since(start).Round(time.Millisecond))
	printStatusSummary(out, results, batch.Stats())
	fmt.Fprintf(out, "   Output:    %s (%s)\n", cfg.Storage.OutputPath, strings.Join(a.store.Backends(), ", "))
	return nil
}

// readURLFile reads one URL per line, skipping blanks and # comments.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return urls, nil
}

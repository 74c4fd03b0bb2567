package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/NewsGoat/internal/api"
)

var (
	apiPort int
	maxURLs int
)

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve batch extraction over HTTP",
		Long: `Start the extraction API:

  POST /api/extract   {"urls": [...]}  extract and return results
  POST /api/jobs      {"urls": [...]}  start an asynchronous job
  GET  /api/jobs/{id}                  job status and results
  GET  /api/stats                      counters of the latest batch`,
		RunE: runServe,
	}

	cmd.Flags().IntVarP(&apiPort, "port", "p", 8080, "API listen port")
	cmd.Flags().IntVar(&maxURLs, "max-urls", 500, "maximum URLs per request (0 = unlimited)")
	cmd.Flags().IntVarP(&workers, "workers", "n", 0, "number of concurrent extraction workers")
	cmd.Flags().StringVar(&timeout, "timeout", "", "per-page fetch timeout (e.g. 10s)")

	return cmd
}

// runServe executes the serve command.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closeLog, err := setupLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()

	a, err := newApp(cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext(logger)
	defer cancel()

	srv := api.NewServer(apiPort, a.batch(), maxURLs, logger)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start API: %w", err)
	}

	<-ctx.Done()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
	defer stop()
	return srv.Shutdown(shutdownCtx)
}

package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/engine"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestReadURLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := "# seed list\nhttps://example.com/a\n\n  https://example.com/b  \n#https://skipped.com\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	urls, err := readURLFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(urls) != 2 || urls[0] != "https://example.com/a" || urls[1] != "https://example.com/b" {
		t.Errorf("unexpected urls %v", urls)
	}

	if _, err := readURLFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyCLIOverrides(t *testing.T) {
	t.Cleanup(func() { workers, timeout, outputPath, outputType = 0, "", "", "" })

	workers, timeout, outputPath, outputType = 4, "3s", "/tmp/out", "CSV, mongo"
	cfg := config.DefaultConfig()
	if err := applyCLIOverrides(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Extract.MaxWorkers != 4 || cfg.Extract.Timeout != 3*time.Second {
		t.Errorf("extract overrides not applied: %+v", cfg.Extract)
	}
	if cfg.Storage.OutputPath != "/tmp/out" || strings.Join(cfg.Storage.Backends, ",") != "csv,mongo" {
		t.Errorf("storage overrides not applied: %+v", cfg.Storage)
	}

	timeout = "soon"
	if err := applyCLIOverrides(config.DefaultConfig()); err == nil {
		t.Error("expected error for bad timeout")
	}
}

func TestSortedCounts(t *testing.T) {
	got := sortedCounts(map[string]int{"b": 2, "a": 2, "c": 5})
	want := []string{"c", "a", "b"}
	for i, w := range want {
		if got[i].Key != w {
			t.Errorf("index %d: got %q, want %q", i, got[i].Key, w)
		}
	}
}

func TestPrintStatusSummary(t *testing.T) {
	ex := engine.ExtractorFunc(func(_ context.Context, rawURL string) types.ExtractionResult {
		if strings.HasSuffix(rawURL, "/b") {
			return types.FailedResult(types.ErrorStatus("HTTP 404 Not Found"))
		}
		return types.ExtractionResult{Status: types.StatusSuccess}
	})
	batch := engine.NewBatch(ex, config.DefaultConfig().Extract, testLogger)
	results := batch.Run(context.Background(), engine.Targets([]string{"https://x.com/a", "https://x.com/b"}))

	var buf bytes.Buffer
	printStatusSummary(&buf, results, batch.Stats())
	out := buf.String()
	for _, want := range []string{"1 success, 0 timeout, 1 error", "50.0%", "HTTP 404 Not Found"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestPrintNewsSummary(t *testing.T) {
	var articles []*types.Article
	for i := 0; i < 25; i++ {
		a := types.NewArticle("https://example.com/" + string(rune('a'+i)))
		a.SearchTerm = "ai"
		a.Publisher = "Publisher " + string(rune('A'+i))
		articles = append(articles, a)
	}

	var buf bytes.Buffer
	printNewsSummary(&buf, articles, []string{"ai", "climate"})
	out := buf.String()

	if !strings.Contains(out, "  25  ai") || !strings.Contains(out, "   0  climate") {
		t.Errorf("missing per-term counts:\n%s", out)
	}
	if strings.Count(out, "Publisher ") != topSources {
		t.Errorf("expected %d sources listed:\n%s", topSources, out)
	}
}

func TestSetupLoggerFormats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newsgoat.log")
	logger, closeLog, err := setupLogger(config.LoggingConfig{Level: "info", Format: "json", Output: path})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hello", "k", "v")
	closeLog()

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Errorf("expected JSON log line, got %q", data)
	}
}

package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// Storage is the interface for all storage backends.
type Storage interface {
	// Store persists a batch of articles.
	Store(ctx context.Context, articles []*types.Article) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// Recorder receives per-backend write counts.
type Recorder interface {
	ArticlesStored(backend string, n int)
}

// New builds the backends listed in cfg.Storage.Backends behind a single
// MultiStorage. Backends opened before a failure are closed again.
func New(cfg *config.Config, logger *slog.Logger) (*MultiStorage, error) {
	backends := make([]Storage, 0, len(cfg.Storage.Backends))

	for _, name := range cfg.Storage.Backends {
		var (
			s   Storage
			err error
		)
		switch name {
		case "json", "jsonl", "csv":
			s, err = NewFileStorage(name, cfg.Storage.OutputPath, logger)
		case "mongo":
			s, err = NewMongoStorage(cfg.Storage.Mongo, logger)
		case "neo4j":
			s, err = NewNeo4jStorage(cfg.Storage.Neo4j, logger)
		default:
			err = fmt.Errorf("unsupported storage backend: %s", name)
		}
		if err != nil {
			for _, b := range backends {
				_ = b.Close()
			}
			return nil, &types.StorageError{Backend: name, Err: err}
		}
		backends = append(backends, s)
	}

	return NewMultiStorage(backends, logger), nil
}

// OutputFile returns the file path used by a file backend.
func OutputFile(outputDir, format string) string {
	return filepath.Join(outputDir, "articles."+format)
}

// --- Multi-Storage Fan-Out ---

// MultiStorage writes articles to multiple backends.
type MultiStorage struct {
	backends []Storage
	recorder Recorder
	logger   *slog.Logger
}

// NewMultiStorage creates a storage that fans out to multiple backends.
func NewMultiStorage(backends []Storage, logger *slog.Logger) *MultiStorage {
	return &MultiStorage{
		backends: backends,
		logger:   logger.With("component", "multi_storage"),
	}
}

// SetRecorder attaches a recorder notified after each successful write.
func (s *MultiStorage) SetRecorder(r Recorder) { s.recorder = r }

func (s *MultiStorage) Name() string { return "multi" }

// Backends returns the names of the wrapped backends.
func (s *MultiStorage) Backends() []string {
	names := make([]string, len(s.backends))
	for i, b := range s.backends {
		names[i] = b.Name()
	}
	return names
}

// Store writes to every backend. A failing backend does not stop the others;
// the first error is returned.
func (s *MultiStorage) Store(ctx context.Context, articles []*types.Article) error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Store(ctx, articles); err != nil {
			s.logger.Error("backend store failed", "backend", backend.Name(), "error", err)
			if firstErr == nil {
				firstErr = &types.StorageError{Backend: backend.Name(), Err: err}
			}
			continue
		}
		if s.recorder != nil {
			s.recorder.ArticlesStored(backend.Name(), len(articles))
		}
	}
	return firstErr
}

func (s *MultiStorage) Close() error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Close(); err != nil {
			s.logger.Error("backend close failed", "backend", backend.Name(), "error", err)
			if firstErr == nil {
				firstErr = &types.StorageError{Backend: backend.Name(), Err: err}
			}
		}
	}
	return firstErr
}

// StoreInBatches writes articles to s in chunks of at most size articles.
// size <= 0 writes everything in one call. Every chunk is attempted; the
// first error is returned.
func StoreInBatches(ctx context.Context, s Storage, articles []*types.Article, size int) error {
	if size <= 0 {
		size = len(articles)
	}
	var firstErr error
	for start := 0; start < len(articles); start += size {
		end := min(start+size, len(articles))
		if err := s.Store(ctx, articles[start:end]); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// SessionRunner abstracts neo4j.SessionWithContext.
type SessionRunner interface {
	ExecuteWrite(ctx context.Context, work neo4j.ManagedTransactionWork, configurers ...func(*neo4j.TransactionConfig)) (any, error)
	Close(ctx context.Context) error
}

// DriverSessioner abstracts neo4j.DriverWithContext.
type DriverSessioner interface {
	NewSession(ctx context.Context, config neo4j.SessionConfig) SessionRunner
	Close(ctx context.Context) error
}

type neo4jDriver struct {
	driver neo4j.DriverWithContext
}

func (d *neo4jDriver) NewSession(ctx context.Context, config neo4j.SessionConfig) SessionRunner {
	return d.driver.NewSession(ctx, config)
}

func (d *neo4jDriver) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

// Neo4jStorage writes articles as a graph:
// (:SearchTerm)-[:MATCHED]->(:Article)-[:PUBLISHED_BY]->(:Source).
type Neo4jStorage struct {
	driver   DriverSessioner
	database string
	mu       sync.Mutex
	count    int
	logger   *slog.Logger
}

// NewNeo4jStorage connects to Neo4j and verifies connectivity.
func NewNeo4jStorage(cfg config.Neo4jConfig, logger *slog.Logger) (*Neo4jStorage, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}

	return NewNeo4jStorageWithDriver(&neo4jDriver{driver: driver}, cfg.Database, logger), nil
}

// NewNeo4jStorageWithDriver wraps an existing driver.
func NewNeo4jStorageWithDriver(driver DriverSessioner, database string, logger *slog.Logger) *Neo4jStorage {
	return &Neo4jStorage{
		driver:   driver,
		database: database,
		logger:   logger.With("component", "neo4j_storage"),
	}
}

func (s *Neo4jStorage) Name() string { return "neo4j" }

func (s *Neo4jStorage) Store(ctx context.Context, articles []*types.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range articles {
		if a.URL == "" {
			continue
		}
		query, params := buildArticleQuery(a)
		if err := s.runWrite(ctx, query, params); err != nil {
			return fmt.Errorf("neo4j write %s: %w", a.URL, err)
		}
		s.count++
	}
	s.logger.Debug("articles stored in neo4j", "count", len(articles), "total", s.count)
	return nil
}

func (s *Neo4jStorage) runWrite(ctx context.Context, query string, params map[string]any) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer func() {
		if err := session.Close(ctx); err != nil {
			s.logger.Warn("neo4j session close error", "error", err)
		}
	}()

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, params)
		return nil, err
	})
	return err
}

func (s *Neo4jStorage) Close() error {
	s.logger.Info("neo4j storage closing", "total_articles", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.driver.Close(ctx)
}

func buildArticleQuery(a *types.Article) (string, map[string]any) {
	query := "MERGE (a:Article {url: $url}) " +
		"SET a.title = $title, " +
		"a.published_date = $published_date, " +
		"a.abstract = $abstract, " +
		"a.extraction_status = $extraction_status, " +
		"a.fetched_at = $fetched_at"

	params := map[string]any{
		"url":               a.URL,
		"title":             a.Title,
		"published_date":    a.PublishedDate,
		"abstract":          a.Abstract,
		"extraction_status": string(a.ExtractionStatus),
		"fetched_at":        a.FetchedAt.UTC().Format(time.RFC3339),
	}

	if a.Publisher != "" {
		query += " MERGE (s:Source {name: $publisher}) MERGE (a)-[:PUBLISHED_BY]->(s)"
		params["publisher"] = a.Publisher
	}
	if a.SearchTerm != "" {
		query += " MERGE (t:SearchTerm {term: $term}) MERGE (t)-[:MATCHED]->(a)"
		params["term"] = a.SearchTerm
	}
	return query, params
}

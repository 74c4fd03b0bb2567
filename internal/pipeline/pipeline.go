package pipeline

import (
	"log/slog"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// Middleware processes an article and returns the (possibly modified) article.
// Return nil to drop the article from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms an article. Return nil to drop it.
	Process(a *types.Article) (*types.Article, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Default returns the chain used for freshly acquired articles.
func Default(cfg *config.Config, logger *slog.Logger) *Pipeline {
	p := New(logger)
	p.Use(&TrimMiddleware{})
	p.Use(&RequiredFieldsMiddleware{Fields: []string{"title", "url"}})
	p.Use(NewExcludedDomainMiddleware(cfg.Extract.ExcludedDomains))
	p.Use(NewDedupMiddleware())
	p.Use(NewHTMLSanitizeMiddleware())
	p.Use(NewDateNormalizeMiddleware("2006-01-02"))
	return p
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the article through all middleware in order.
func (p *Pipeline) Process(a *types.Article) (*types.Article, error) {
	current := a

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, &types.PipelineError{
				Stage:   mw.Name(),
				Article: current,
				Err:     err,
			}
		}
		if result == nil {
			p.logger.Debug("article dropped", "stage", mw.Name(), "url", a.URL)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// ProcessAll runs every article through the chain and returns the survivors
// in input order. Articles that fail a stage are logged and dropped.
func (p *Pipeline) ProcessAll(articles []*types.Article) []*types.Article {
	out := make([]*types.Article, 0, len(articles))
	for _, a := range articles {
		processed, err := p.Process(a)
		if err != nil {
			p.logger.Warn("article rejected", "url", a.URL, "error", err)
			continue
		}
		if processed != nil {
			out = append(out, processed)
		}
	}
	p.logger.Info("pipeline complete", "in", len(articles), "out", len(out))
	return out
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}

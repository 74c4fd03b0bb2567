package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/engine"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// Runner is the part of engine.Batch the API drives.
type Runner interface {
	Run(ctx context.Context, targets []types.FetchTarget) []types.Extraction
	TotalStats() *engine.Stats
}

// defaultKeepJobs is how many finished jobs stay queryable.
const defaultKeepJobs = 100

// Job states.
const (
	JobRunning = "running"
	JobDone    = "done"
)

// Job tracks an asynchronous extraction batch.
type Job struct {
	ID         string             `json:"id"`
	Status     string             `json:"status"`
	URLs       []string           `json:"urls"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
	Results    []types.Extraction `json:"results,omitempty"`
}

// Server exposes batch extraction over HTTP.
type Server struct {
	mux     *http.ServeMux
	port    int
	runner  Runner
	maxURLs int
	server  *http.Server
	logger  *slog.Logger

	// async jobs run on ctx and stop on Shutdown
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	jobs     map[string]*Job
	jobsMu   sync.RWMutex
	seq      atomic.Int64
	keepJobs int
	closed   bool
}

// NewServer creates a new API server. maxURLs <= 0 means no limit per request.
func NewServer(port int, runner Runner, maxURLs int, logger *slog.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		mux:     http.NewServeMux(),
		port:    port,
		runner:  runner,
		maxURLs: maxURLs,
		logger:  logger.With("component", "api_server"),
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[string]*Job),

		keepJobs: defaultKeepJobs,
	}

	s.registerRoutes()
	return s
}

// Handler returns the API's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the API server in the background.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("API server starting", "addr", addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Shutdown stops accepting requests, cancels running jobs and waits for them.
func (s *Server) Shutdown(ctx context.Context) error {
	s.jobsMu.Lock()
	s.closed = true
	s.jobsMu.Unlock()

	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	s.cancel()
	s.wg.Wait()
	return err
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	// Synchronous extraction
	s.mux.HandleFunc("POST /api/extract", s.handleExtract)

	// Jobs
	s.mux.HandleFunc("POST /api/jobs", s.handleCreateJob)
	s.mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	s.mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)

	// Stats
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": config.Version,
	})
}

// decodeURLs reads {"urls": [...]} from the request body.
func (s *Server) decodeURLs(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var body struct {
		URLs []string `json:"urls"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return nil, false
	}
	if len(body.URLs) == 0 {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "urls must not be empty"})
		return nil, false
	}
	if s.maxURLs > 0 && len(body.URLs) > s.maxURLs {
		s.jsonResponse(w, http.StatusRequestEntityTooLarge, map[string]string{
			"error": fmt.Sprintf("at most %d urls per request", s.maxURLs),
		})
		return nil, false
	}
	return body.URLs, true
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	urls, ok := s.decodeURLs(w, r)
	if !ok {
		return
	}
	results := s.runner.Run(r.Context(), engine.Targets(urls))
	s.jsonResponse(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	urls, ok := s.decodeURLs(w, r)
	if !ok {
		return
	}

	job := &Job{
		ID:        fmt.Sprintf("job-%d-%d", time.Now().UnixMilli(), s.seq.Add(1)),
		Status:    JobRunning,
		URLs:      urls,
		StartedAt: time.Now(),
	}

	s.jobsMu.Lock()
	if s.closed {
		s.jobsMu.Unlock()
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"error": "server is shutting down"})
		return
	}
	s.jobs[job.ID] = job
	s.wg.Add(1)
	s.jobsMu.Unlock()

	go func() {
		defer s.wg.Done()
		results := s.runner.Run(s.ctx, engine.Targets(urls))
		finished := time.Now()

		s.jobsMu.Lock()
		job.Results = results
		job.FinishedAt = &finished
		job.Status = JobDone
		s.evictFinishedLocked()
		s.jobsMu.Unlock()
		s.logger.Info("job finished", "id", job.ID, "urls", len(urls), "elapsed", finished.Sub(job.StartedAt))
	}()

	s.jsonResponse(w, http.StatusAccepted, map[string]any{"id": job.ID, "status": JobRunning})
}

// evictFinishedLocked drops the oldest finished jobs beyond keepJobs.
// Running jobs are never evicted. Callers hold jobsMu.
func (s *Server) evictFinishedLocked() {
	var finished []*Job
	for _, j := range s.jobs {
		if j.Status == JobDone {
			finished = append(finished, j)
		}
	}
	if len(finished) <= s.keepJobs {
		return
	}
	sort.Slice(finished, func(i, k int) bool {
		return finished[i].FinishedAt.Before(*finished[k].FinishedAt)
	})
	for _, j := range finished[:len(finished)-s.keepJobs] {
		delete(s.jobs, j.ID)
	}
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	jobs := make([]map[string]any, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, map[string]any{
			"id":         j.ID,
			"status":     j.Status,
			"urls":       len(j.URLs),
			"started_at": j.StartedAt,
		})
	}
	sort.Slice(jobs, func(i, k int) bool {
		return jobs[i]["started_at"].(time.Time).Before(jobs[k]["started_at"].(time.Time))
	})
	s.jsonResponse(w, http.StatusOK, jobs)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		s.jsonResponse(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.runner.TotalStats().Snapshot())
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Debug("response encode failed", "error", err)
	}
}

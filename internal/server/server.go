// Package server exposes the lint engine's read-side over HTTP: tracked
// documents, their merged diagnostics, run history and activity
// counters. Lint rounds are driven by the CLI (or an editor embedding
// the engine), not over this API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/3leaps/lintkit/pkg/diag"
	"github.com/3leaps/lintkit/pkg/engine"
	"github.com/3leaps/lintkit/pkg/jobregistry"
	"github.com/3leaps/lintkit/pkg/linter"
)

// Engine is the read-side surface the server needs. *engine.Engine
// satisfies it; tests substitute a stub.
type Engine interface {
	Documents() []linter.Document
	Diagnostics(docID int) ([]diag.Diagnostic, bool)
	History(docID int) []jobregistry.RunRecord
	Stats() engine.Stats
}

// Server is the HTTP API server.
type Server struct {
	host    string
	port    int
	eng     Engine
	log     *zap.Logger
	version string
	router  chi.Router
}

// New creates a Server bound to host:port, serving the given engine.
func New(host string, port int, eng Engine) *Server {
	s := &Server{
		host:    host,
		port:    port,
		eng:     eng,
		log:     zap.NewNop(),
		version: "dev",
	}
	s.router = s.buildRouter()
	return s
}

// SetLogger replaces the server's logger. Call before Start.
func (s *Server) SetLogger(log *zap.Logger) {
	if log != nil {
		s.log = log
	}
}

// SetVersion sets the version string reported by /version.
func (s *Server) SetVersion(v string) {
	if v != "" {
		s.version = v
	}
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Handler returns the server's HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Timeouts configures the underlying http.Server.
type Timeouts struct {
	Read     time.Duration
	Write    time.Duration
	Idle     time.Duration
	Shutdown time.Duration
}

// Start serves until ctx is cancelled, then shuts down gracefully
// within the shutdown timeout.
func (s *Server) Start(ctx context.Context, t Timeouts) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:      s.router,
		ReadTimeout:  t.Read,
		WriteTimeout: t.Write,
		IdleTimeout:  t.Idle,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownTimeout := t.Shutdown
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/documents", s.handleDocuments)
		r.Get("/documents/{id}/diagnostics", s.handleDiagnostics)
		r.Get("/documents/{id}/history", s.handleHistory)
		r.Get("/stats", s.handleStats)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    "lintkit",
		"version": s.version,
	})
}

type documentSummary struct {
	ID    int    `json:"id"`
	Path  string `json:"path"`
	Lines int    `json:"lines"`
}

func (s *Server) handleDocuments(w http.ResponseWriter, _ *http.Request) {
	docs := s.eng.Documents()
	out := make([]documentSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentSummary{ID: d.ID, Path: d.Path, Lines: d.LineCount()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	id, ok := docID(w, r)
	if !ok {
		return
	}
	diags, found := s.eng.Diagnostics(id)
	if !found {
		writeError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("document %d is not tracked", id))
		return
	}
	if diags == nil {
		diags = []diag.Diagnostic{}
	}
	writeJSON(w, http.StatusOK, diags)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := docID(w, r)
	if !ok {
		return
	}
	records := s.eng.History(id)
	if records == nil {
		records = []jobregistry.RunRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.Stats())
}

func docID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", fmt.Sprintf("invalid document id %q", raw))
		return 0, false
	}
	return id, true
}

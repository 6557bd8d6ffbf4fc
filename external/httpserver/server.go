// Package httpserver exposes the caller-facing operations over HTTP. It is
// view plumbing: every route delegates to the identity manager or the job
// orchestrator and renders their results as JSON.
package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/scribeflow/scribeflow/internal/config"
	"github.com/scribeflow/scribeflow/internal/identity"
	"github.com/scribeflow/scribeflow/internal/transcript"
)

type Server struct {
	cfg      *config.Config
	identity *identity.Manager
	jobs     *transcript.Orchestrator
	httpSrv  *http.Server
}

func NewServer(cfg *config.Config, idm *identity.Manager, jobs *transcript.Orchestrator) *Server {
	s := &Server{
		cfg:      cfg,
		identity: idm,
		jobs:     jobs,
	}
	limiter := newClientRateLimiter(cfg.RateLimitWindow, cfg.RateLimitMaxRequests)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.HandleFunc("GET /api/auth/session", s.handleSession)
	mux.HandleFunc("PATCH /api/profile", s.handleUpdateProfile)
	mux.HandleFunc("POST /api/transcribe", s.handleTranscribe)
	mux.HandleFunc("GET /api/transcripts", s.handleListTranscripts)
	mux.HandleFunc("GET /api/transcripts/{id}", s.handleGetTranscript)
	mux.HandleFunc("PATCH /api/transcripts/{id}", s.handleEditTranscript)
	mux.HandleFunc("DELETE /api/transcripts/{id}", s.handleDeleteTranscript)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	s.httpSrv = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           limiter.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the full middleware-wrapped handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

func (s *Server) ListenAndServe() error {
	slog.Info("http server listening", "addr", s.cfg.HTTPAddr)
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

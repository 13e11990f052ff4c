// Package server exposes the tracker over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"StockTracker/internal/scheduler"
	"StockTracker/internal/tracker"
)

// AccessCodeHeader carries the shared access code on mutating requests.
const AccessCodeHeader = "X-Access-Code"

// Options configures the HTTP surface.
type Options struct {
	// StaticDir serves the browser UI at / when non-empty.
	StaticDir string
	// MaxUploadBytes caps multipart uploads. Defaults to 10 MiB.
	MaxUploadBytes int64
}

// Server routes API requests to the tracker service.
type Server struct {
	svc       *tracker.Service
	refresher *scheduler.Refresher
	opts      Options

	// base outlives requests; background refresh runs derive from it.
	base context.Context
}

// New creates a server. refresher may be nil, which disables /api/refresh-prices.
func New(ctx context.Context, svc *tracker.Service, refresher *scheduler.Refresher, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	return &Server{svc: svc, refresher: refresher, opts: opts, base: ctx}
}

// RegisterRoutes adds all routes to mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/stocks", s.handleStocks)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("POST /api/add-stock", s.handleAdd)
	mux.HandleFunc("POST /api/edit-stock", s.handleEdit)
	mux.HandleFunc("POST /api/update-exit", s.handleExit)
	mux.HandleFunc("POST /api/delete-stock", s.handleDelete)
	mux.HandleFunc("POST /api/preview-return", s.handlePreview)
	mux.HandleFunc("POST /api/refresh-prices", s.handleRefresh)
	mux.HandleFunc("GET /api/stock-price/{ticker}", s.handleQuote)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	if s.opts.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.opts.StaticDir)))
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return requestLogger(corsMiddleware(withCredential(mux)))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if s.refresher != nil {
		s.refresher.Stop()
	}
	log.Info().Msg("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encoding JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Package server provides the HTTP surface of the interaction engine: the
// published state as JSON and over a WebSocket, the annotated and painted
// video streams, response images and the snapshot ledger.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ayusman/mudra/internal/arbiter"
	"github.com/ayusman/mudra/internal/frame"
	"github.com/ayusman/mudra/internal/store"
)

// shutdownTimeout bounds graceful shutdown in Run.
const shutdownTimeout = 5 * time.Second

// Toggle switches side-effecting actions (snapshots and hooks) on or off.
type Toggle interface {
	Enabled() bool
	SetEnabled(on bool) error
}

// Config holds the server configuration. Every dependency is optional; the
// routes backed by a missing dependency are not registered.
type Config struct {
	StaticDir string
	ImagesDir string
	Store     *store.Store
	State     *arbiter.Publisher
	Annotated *frame.Buffer
	Painted   *frame.Buffer
	Actions   Toggle
}

// Server represents the HTTP server for the mudra engine.
type Server struct {
	config Config
	router chi.Router
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(slog.Default().Handler(), slog.LevelDebug),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		if s.config.State != nil {
			r.Get("/status", s.handleStatus)
			r.Handle("/ws", NewStateHandler(s.config.State))
		}
		if s.config.Annotated != nil {
			r.Handle("/stream", NewStreamHandler(s.config.Annotated))
		}
		if s.config.Painted != nil {
			r.Handle("/paint/stream", NewStreamHandler(s.config.Painted))
		}
		if s.config.ImagesDir != "" {
			r.Get("/images/{key}", s.handleImage)
		}
		if s.config.Store != nil {
			r.Get("/snapshots", s.handleListSnapshots)
			r.Get("/snapshots/{id}", s.handleGetSnapshot)
			r.Get("/snapshots/{id}/image", s.handleSnapshotImage)
		}
		if s.config.Actions != nil {
			r.Get("/actions", s.handleGetActions)
			r.Put("/actions", s.handleSetActions)
		}
	})

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

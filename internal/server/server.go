// Package server exposes the flowchart pipeline and document store over
// HTTP.
//
// Every handler answers JSON except the export routes, which return the
// rendered bytes with the format's content type. Failures use a single
// envelope:
//
//	{"error": {"code": "INVALID_SCHEMA", "message": "...", "details": ["..."]}}
//
// with the status taken from [errors.HTTPStatus].
package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/flowsketch/pkg/pipeline"
	"github.com/matzehuels/flowsketch/pkg/store"
)

// Server limits.
const (
	// MaxBodyBytes bounds request bodies.
	MaxBodyBytes = 1 << 20

	shutdownTimeout = 10 * time.Second
)

// Config holds the server's collaborators.
type Config struct {
	Runner *pipeline.Runner
	Store  store.Store
	Logger *log.Logger
}

// Server serves the HTTP API.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger

	// editMu serializes read-modify-write edits of stored documents.
	editMu sync.Mutex
}

// New creates a server. A nil runner gets pipeline defaults with no
// completion provider, a nil store keeps documents in memory and a nil
// logger discards output.
func New(cfg Config) *Server {
	s := &Server{runner: cfg.Runner, store: cfg.Store, logger: cfg.Logger}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, nil, nil, s.logger)
	}
	if s.store == nil {
		s.store = store.NewMemoryStore()
	}
	return s
}

// Serve listens on addr and blocks until ctx is cancelled, then shuts the
// listener down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on an existing listener until ctx is cancelled.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("serving", "addr", ln.Addr().String())

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/possync/internal/logging"
)

// Server runs an http.Server until its context is cancelled, then shuts it
// down gracefully.
type Server struct {
	srv             *http.Server
	logger          logging.Logger
	shutdownTimeout time.Duration
}

func NewServer(addr string, h http.Handler, l logging.Logger, shutdownTimeout time.Duration) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger:          l.With("module", "http_server"),
		shutdownTimeout: shutdownTimeout,
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run with a caller-provided listener.
func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())
		errCh <- s.srv.Serve(listen)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Package serve implements the serve command.
package serve

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/jeffthecoder/gitview/pkg/config"
	"github.com/jeffthecoder/gitview/pkg/web"
	"golang.org/x/sync/errgroup"
)

// Server is the gitview server.
type Server struct {
	HTTPServer *web.HTTPServer
	Config     *config.Config

	logger *log.Logger
	ctx    context.Context
}

// NewServer returns a new *Server configured to serve gitview. It expects a
// context with *config.Config, *backend.Backend, an object store, an
// authenticator, and *log.Logger attached.
func NewServer(ctx context.Context) (*Server, error) {
	var err error
	cfg := config.FromContext(ctx)
	srv := &Server{
		Config: cfg,
		logger: log.FromContext(ctx).WithPrefix("server"),
		ctx:    ctx,
	}

	srv.HTTPServer, err = web.NewHTTPServer(ctx)
	if err != nil {
		return nil, fmt.Errorf("create http server: %w", err)
	}

	if cfg.HTTP.TLSCertPath != "" && cfg.HTTP.TLSKeyPath != "" {
		cert, err := tls.LoadX509KeyPair(cfg.HTTP.TLSCertPath, cfg.HTTP.TLSKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load tls certificate: %w", err)
		}
		srv.HTTPServer.SetTLSConfig(&tls.Config{
			MinVersion:   tls.VersionTLS12,
			Certificates: []tls.Certificate{cert},
		})
	}

	return srv, nil
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	errg, _ := errgroup.WithContext(s.ctx)

	errg.Go(func() error {
		s.logger.Print("Starting HTTP server", "addr", s.Config.HTTP.ListenAddr)
		if err := s.HTTPServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	return errg.Wait()
}

// Shutdown lets the server gracefully shutdown.
func (s *Server) Shutdown(ctx context.Context) error {
	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		return s.HTTPServer.Shutdown(ctx)
	})
	return errg.Wait()
}

// Close closes the server.
func (s *Server) Close() error {
	var errg errgroup.Group
	errg.Go(s.HTTPServer.Close)
	return errg.Wait()
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the generation pipeline and the artifact store over
// HTTP. Streaming generations are delivered as server-sent events.
// Implements: docs/ARCHITECTURE § HTTP API.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Server is an HTTP server that also accepts cleartext HTTP/2.
type Server struct {
	httpServer *http.Server
	log        *log.Logger
}

// New returns a server for handler listening on addr. A nil logger uses
// log.Default().
func New(addr string, handler http.Handler, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           h2c.NewHandler(handler, &http2.Server{}),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: logger,
	}
}

// Handler returns the wrapped handler.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Printf("starting API server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

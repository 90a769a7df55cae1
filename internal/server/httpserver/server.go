package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"
)

// DefaultReadHeaderTimeout bounds how long a client may take to send
// request headers.
const DefaultReadHeaderTimeout = 10 * time.Second

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
}

// ServerOption configures a Server.
type ServerOption func(*http.Server)

// WithReadHeaderTimeout sets the request header read timeout.
func WithReadHeaderTimeout(d time.Duration) ServerOption {
	return func(s *http.Server) {
		s.ReadHeaderTimeout = d
	}
}

// New creates a new HTTP server.
func New(addr string, handler http.Handler, opts ...ServerOption) *Server {
	hs := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
	}
	for _, opt := range opts {
		opt(hs)
	}

	return &Server{
		httpServer: hs,
		handler:    handler,
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

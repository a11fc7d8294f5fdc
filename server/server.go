// Package server serves a data source over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Option configures a Server instance.
type Option func(*Server)

// WithLogger overrides the logger used by the server.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// WithReadTimeout sets the read timeout for client connections.
func WithReadTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.ReadTimeout = timeout
	}
}

// WithWriteTimeout sets the write timeout for client connections.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.WriteTimeout = timeout
	}
}

// WithStoreMiddleware guards the upload route, typically with
// auth.JWTMiddleware.
func WithStoreMiddleware(mw ...echo.MiddlewareFunc) Option {
	return func(s *Server) {
		s.storeMiddleware = append(s.storeMiddleware, mw...)
	}
}

// Server wires a Handler into an echo instance.
type Server struct {
	Handler      *Handler
	Logger       zerolog.Logger
	ReadTimeout  time.Duration // Read timeout for connections (default: 60s)
	WriteTimeout time.Duration // Write timeout for connections (default: 60s)

	storeMiddleware []echo.MiddlewareFunc
	echo            *echo.Echo
}

// New builds a Server around handler.
func New(handler *Handler, opts ...Option) *Server {
	srv := &Server{
		Handler:      handler,
		Logger:       zerolog.Nop(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(srv)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(Recovery(srv.Logger))
	e.Use(RequestID())
	e.Use(Logger(srv.Logger))

	e.GET("/health", Health)
	handler.RegisterRoutes(e.Group("/api/v1"), srv.storeMiddleware...)

	srv.echo = e
	return srv
}

// ServeHTTP makes the server usable with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Serve accepts connections from listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	if listener == nil {
		return errors.New("dicomjson: listener is required")
	}
	if s.Handler == nil {
		return errors.New("dicomjson: handler is required")
	}

	httpSrv := &http.Server{
		Handler:      s.echo,
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info().Str("addr", listener.Addr().String()).Msg("starting server")
		errCh <- httpSrv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.Logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

// ListenAndServe listens on address and serves until ctx is done.
func ListenAndServe(ctx context.Context, address string, handler *Handler, opts ...Option) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	defer listener.Close()

	return New(handler, opts...).Serve(ctx, listener)
}

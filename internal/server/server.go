package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scythe504/skribblr-teams/internal/game"
	"github.com/scythe504/skribblr-teams/internal/gateway"
)

// Checker verifies that an infrastructure dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

type Deps struct {
	Engine         *game.Engine
	Hub            *gateway.Hub
	WS             *gateway.Handler
	Checks         map[string]Checker
	AllowedOrigins []string
}

type Server struct {
	srv    *http.Server
	engine *game.Engine
	hub    *gateway.Hub
	ws     *gateway.Handler
	checks map[string]Checker

	allowedOrigins []string
}

func New(addr string, deps Deps) *Server {
	s := &Server{
		engine:         deps.Engine,
		hub:            deps.Hub,
		ws:             deps.WS,
		checks:         deps.Checks,
		allowedOrigins: deps.AllowedOrigins,
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.RegisterRoutes(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}
	log.Info().Str("addr", ln.Addr().String()).Msg("[Server] listening")

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections, then closes every room so no timer
// outlives the process.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := s.srv.Shutdown(ctx)
	if s.engine != nil {
		s.engine.Shutdown(ctx)
	}
	return err
}

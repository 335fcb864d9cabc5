// Package server exposes the relay over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"coderx/internal/config"
	"coderx/internal/orchestrator"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const (
	maxRequestBody  = 10 << 20
	shutdownTimeout = 10 * time.Second
)

// ChatHandler runs one chat exchange. *orchestrator.Orchestrator implements it.
type ChatHandler interface {
	Handle(ctx context.Context, req orchestrator.Request) (orchestrator.Reply, error)
}

// Server HTTP API 服务
// Server is the HTTP API server
type Server struct {
	cfg    config.ServerConfig
	chat   ChatHandler
	logger *zap.Logger
	router chi.Router
}

func New(cfg config.ServerConfig, chat ChatHandler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{cfg: cfg, chat: chat, logger: logger}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)
	if s.cfg.RequestTimeoutMS > 0 {
		r.Use(middleware.Timeout(time.Duration(s.cfg.RequestTimeoutMS) * time.Millisecond))
	}

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: false, // must stay false with "*"
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Post("/chat", s.handleChat)

	s.router = r
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动 HTTP 服务，ctx 取消时优雅退出
// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 30 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("HTTP server shutdown", zap.Error(err))
		}
	}()

	s.logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-done
		return nil
	}
	return err
}

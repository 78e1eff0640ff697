// Package server exposes the verification pipeline over HTTP. One endpoint
// runs a verification synchronously and returns the ranked records; the rest
// read run history from the store. Runs started here are persisted, so a
// client that times out can still poll GET /api/v1/runs/{id}.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/kulmaganbetov/china-factories-bot/internal/config"
	"github.com/kulmaganbetov/china-factories-bot/internal/model"
	"github.com/kulmaganbetov/china-factories-bot/internal/store"
)

// Runner executes a verification run end to end. *pipeline.Pipeline
// satisfies it.
type Runner interface {
	Run(ctx context.Context, req model.ProductRequest) (*model.Run, error)
}

// Server serves the HTTP API.
type Server struct {
	cfg    config.ServerConfig
	store  store.Store
	runner Runner
}

// New builds a Server around an opened store and a ready pipeline.
func New(cfg config.ServerConfig, st store.Store, runner Runner) *Server {
	return &Server{cfg: cfg, store: st, runner: runner}
}

// Handler returns the routed API. Exposed separately from Start so tests can
// drive it with httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/verifications", s.handleCreateVerification)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})
	return r
}

// Start listens until ctx is cancelled, then shuts down gracefully. Callers
// typically pass a signal.NotifyContext context.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port()),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("server: shutdown", zap.Error(err))
		}
	}()

	zap.L().Info("server: listening", zap.Int("port", s.port()))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server: listen")
	}
	zap.L().Info("server: stopped")
	return nil
}

func (s *Server) port() int {
	if s.cfg.Port > 0 {
		return s.cfg.Port
	}
	return 8080
}

func (s *Server) runTimeout() time.Duration {
	if s.cfg.RunTimeoutSecs > 0 {
		return time.Duration(s.cfg.RunTimeoutSecs) * time.Second
	}
	return 5 * time.Minute
}

// requestLogger logs one line per request through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

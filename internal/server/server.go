// Package server exposes the scoring, analytics, and advisor components
// over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/consultai/internal/advisor"
	"github.com/sells-group/consultai/internal/config"
	"github.com/sells-group/consultai/internal/insights"
	"github.com/sells-group/consultai/internal/market"
)

// Server wires the request-scoped components behind the HTTP surface.
// Each request is handled synchronously; the only shared state is the
// read-only country table inside the scorer.
type Server struct {
	cfg       config.Config
	scorer    *market.Scorer
	analyzer  *insights.Analyzer
	generator *advisor.Generator
	limiter   *rate.Limiter
}

// New assembles a server from its components.
func New(cfg config.Config, scorer *market.Scorer, analyzer *insights.Analyzer, generator *advisor.Generator) *Server {
	rps := cfg.Advisor.RateLimitRPS
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Advisor.RateLimitBurst
	if burst <= 0 {
		burst = 5
	}

	return &Server{
		cfg:       cfg,
		scorer:    scorer,
		analyzer:  analyzer,
		generator: generator,
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(logRequests)
	r.Use(recoverPanics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Accept"},
		AllowCredentials: false,
	}))

	r.Get("/api/health", s.handleHealth)
	r.Post("/api/market-entry", s.handleMarketEntry)
	r.Post("/api/business-insights", s.handleBusinessInsights)
	r.Post("/api/advisor", s.handleAdvisor)

	return r
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler: s.Router(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zap.L().Info("server: listening", zap.Int("port", s.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server: listen")
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		zap.L().Info("server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return eris.Wrap(err, "server: shutdown")
		}
		return nil
	})

	return g.Wait()
}

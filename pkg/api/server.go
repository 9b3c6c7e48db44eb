package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/logbarn/logbarn/pkg/auth"
	"github.com/logbarn/logbarn/pkg/config"
	"github.com/logbarn/logbarn/pkg/ingest"
	"github.com/logbarn/logbarn/pkg/log"
	"github.com/logbarn/logbarn/pkg/metrics"
	"github.com/logbarn/logbarn/pkg/ratelimit"
	"github.com/logbarn/logbarn/pkg/store"
)

// Server is the HTTP surface of the service: ingestion, website
// administration, and the public health endpoints
type Server struct {
	cfg        config.Server
	store      store.Store
	ingest     *ingest.Service
	auth       *auth.Authenticator
	limiter    *ratelimit.Limiter
	logger     zerolog.Logger
	httpServer *http.Server
	started    time.Time
}

// NewServer wires the handlers onto a router and prepares the listener
func NewServer(cfg config.Server, st store.Store, ing *ingest.Service, authn *auth.Authenticator, limiter *ratelimit.Limiter) *Server {
	s := &Server{
		cfg:     cfg,
		store:   st,
		ingest:  ing,
		auth:    authn,
		limiter: limiter,
		logger:  log.WithComponent("api"),
		started: time.Now(),
	}
	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routing tree; exposed for httptest use
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(metricsMiddleware)

	// Public surface
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", metrics.Handler())

	// Authenticated surface; the limiter runs first so unauthenticated
	// floods are shed before any bcrypt work
	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware)
		r.Use(s.auth.Middleware)

		r.Post("/logs", s.handleIngest)
		r.Post("/logs/batch", s.handleIngestBatch)

		r.Get("/websites", s.handleListWebsites)
		r.Get("/websites/{domain}", s.handleGetWebsite)
		r.Put("/websites/{domain}", s.handleUpdateWebsite)
		r.Delete("/websites/{domain}", s.handleDeleteWebsite)
	})

	return r
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("HTTP API listening")
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and drains in-flight requests
// until the context expires
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Draining HTTP connections")
	return s.httpServer.Shutdown(ctx)
}

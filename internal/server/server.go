// Package server assembles the console's HTTP surface: the record and
// analytics API, cross-kind search, and the websocket wire endpoint.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pantrylabs/console/internal/config"
	"github.com/pantrylabs/console/internal/funnel"
	"github.com/pantrylabs/console/internal/schema"
	"github.com/pantrylabs/console/internal/searchcache"
	"github.com/pantrylabs/console/internal/server/wire"
	"github.com/pantrylabs/console/internal/storage"
)

// Server holds the shared collaborators behind every route.
type Server struct {
	store  storage.Store
	reg    *schema.Registry
	cache  *searchcache.Cache
	funnel funnel.Source
	logger *zap.Logger
	now    func() time.Time
}

// New wires a server around a record store, the schema catalog, and a
// funnel source.
func New(store storage.Store, reg *schema.Registry, src funnel.Source, logger *zap.Logger) *Server {
	return &Server{
		store:  store,
		reg:    reg,
		cache:  searchcache.New(reg.Kinds()),
		funnel: src,
		logger: logger,
		now:    time.Now,
	}
}

// Routes builds the full router with middleware applied.
func (s *Server) Routes(cfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(Recovery(s.logger))
	r.Use(Logging(s.logger))
	if cfg.RateLimitPerSec > 0 {
		r.Use(RateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/kinds", s.handleKinds)
		r.Get("/search", s.handleSearch)
		r.Handle("/console/wire", wire.NewHandler(s.store, s.reg, s.cache, s.funnel, s.logger, s.now))
		r.Route("/{kind}", func(r chi.Router) {
			r.Get("/records", s.handleListRecords)
			r.Get("/records/{id}/detail", s.handleDetail)
			r.Patch("/records/{id}", s.handlePatchRecord)
			r.Delete("/records/{id}", s.handleDeleteRecord)
			r.Get("/analytics", s.handleAnalytics)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured timeout.
func (s *Server) Run(ctx context.Context, cfg *config.Config) error {
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: s.Routes(cfg.Server),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("listening", zap.String("addr", cfg.Addr()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

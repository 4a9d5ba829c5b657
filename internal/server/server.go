// Package server exposes the HTTP API: the four stateless listing
// endpoints, the workflow session surface and static serving of uploads.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"snapsell/internal/config"
	"snapsell/internal/llm"
	"snapsell/internal/marketplace"
	"snapsell/internal/media"
	"snapsell/internal/pricing"
	"snapsell/internal/storage"
	"snapsell/internal/workflow"
)

// Deps are the server's collaborators, wired in main.
type Deps struct {
	Processor *media.Processor
	Generator llm.Generator
	Estimator *pricing.Estimator
	Poster    *marketplace.Poster
	Store     storage.Store // optional
	Sessions  *workflow.Manager
}

// Server holds the handlers and their dependencies.
type Server struct {
	cfg  config.Config
	deps Deps
}

// New creates a Server.
func New(cfg config.Config, deps Deps) *Server {
	return &Server{cfg: cfg, deps: deps}
}

// Routes builds the full handler chain.
func (s *Server) Routes() http.Handler {
	standard := alice.New(s.recoverPanic, s.logRequest, makeResponseJSON)

	mux := pat.New()

	mux.Post("/api/process-image", standard.ThenFunc(s.handleProcessImage))
	mux.Post("/api/generate-listing", standard.ThenFunc(s.handleGenerateListing))
	mux.Post("/api/pricing-data", standard.ThenFunc(s.handlePricingData))
	mux.Post("/api/post-listing", standard.ThenFunc(s.handlePostListing))

	mux.Post("/api/session", standard.ThenFunc(s.handleCreateSession))
	mux.Get("/api/session/:id", standard.ThenFunc(s.handleGetSession))
	mux.Post("/api/session/:id/photos", standard.ThenFunc(s.handleSessionPhotos))
	mux.Post("/api/session/:id/edit", standard.ThenFunc(s.handleSessionEdit))
	mux.Post("/api/session/:id/next", standard.ThenFunc(s.handleSessionNext))
	mux.Post("/api/session/:id/back", standard.ThenFunc(s.handleSessionBack))
	mux.Post("/api/session/:id/publish", standard.ThenFunc(s.handleSessionPublish))

	mux.Get("/api/history", standard.ThenFunc(s.handleHistory))

	uploads := http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.deps.Processor.Dir())))
	mux.Get("/uploads/", uploads)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowCredentials: true,
	})
	return c.Handler(mux)
}

// Run serves HTTP until the context is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

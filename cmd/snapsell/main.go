package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"snapsell/internal/config"
	"snapsell/internal/listing"
	"snapsell/internal/llm"
	"snapsell/internal/marketplace"
	"snapsell/internal/media"
	"snapsell/internal/pricing"
	"snapsell/internal/server"
	"snapsell/internal/storage"
	"snapsell/internal/workflow"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config.LoadEnvFile()
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	processor, err := media.NewProcessor(cfg.UploadsDir, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize uploads directory")
	}

	var store storage.Store
	sqlStore, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Warn().Err(err).Str("dbPath", cfg.DBPath).Msg("failed to open store, continuing without persistence")
	} else {
		store = sqlStore
		defer sqlStore.Close()
		log.Info().Str("dbPath", cfg.DBPath).Msg("store initialized")
	}

	synth := listing.NewSynthesizer(nil)
	estimator := pricing.NewEstimator(nil)
	poster := marketplace.NewPoster(nil, nil)

	var generator llm.Generator = llm.NewMockGenerator(synth)
	if cfg.UseGemini {
		if cfg.GeminiAPIKey == "" {
			log.Fatal().Msg("SNAPSELL_USE_GEMINI is set but GEMINI_API_KEY is not")
		}
		gemini, err := llm.NewGeminiGenerator(ctx, cfg.GeminiAPIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize gemini listing generator")
		}
		generator = gemini
		log.Info().Msg("gemini listing generator initialized")
	}
	if store != nil {
		generator = llm.NewCachedGenerator(generator, store)
		log.Info().Msg("listing generation caching enabled")
	}

	deps := workflow.Deps{
		Processor:    processor,
		Generator:    generator,
		Estimator:    workflow.LocalEstimator{Estimator: estimator},
		Poster:       poster,
		StageTimeout: cfg.StageTimeout,
	}
	if store != nil {
		deps.Recorder = store
	}
	sessions := workflow.NewManager(deps, cfg.SessionIdleTimeout)

	srv := server.New(cfg, server.Deps{
		Processor: processor,
		Generator: generator,
		Estimator: estimator,
		Poster:    poster,
		Store:     store,
		Sessions:  sessions,
	})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(ctx)
	})

	g.Go(func() error {
		sessions.Run(ctx)
		return nil
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/janhq/deck-server/internal/config"
	"github.com/janhq/deck-server/internal/infrastructure/janitor"
	"github.com/janhq/deck-server/internal/infrastructure/logger"
	"github.com/janhq/deck-server/internal/infrastructure/metrics"
	"github.com/janhq/deck-server/internal/infrastructure/observability"
	"github.com/janhq/deck-server/internal/interfaces/httpserver"
	"github.com/janhq/deck-server/internal/worker"
)

// @title Deck API
// @version 1.0
// @description Turns supplier records into presentation decks through a staged generation pipeline, a layout engine and a PDF renderer or a remote generation service.
// @contact.name Jan Server Team
// @contact.url https://github.com/janhq/deck-server
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
type Application struct {
	httpServer *httpserver.HttpServer
	workerPool *worker.Pool
	janitor    *janitor.Janitor
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, workerPool *worker.Pool, sweeper *janitor.Janitor, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		workerPool: workerPool,
		janitor:    sweeper,
		log:        log,
	}
}

// Start runs the HTTP server, the worker pool and the janitor until ctx is
// cancelled or one of them fails.
func (a *Application) Start(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return a.httpServer.Run(ctx)
	})
	eg.Go(func() error {
		return a.workerPool.Run(ctx)
	})
	if a.janitor != nil {
		eg.Go(func() error {
			return a.janitor.Run(ctx)
		})
	}
	return eg.Wait()
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := newGormDB(ctx, newDatabaseConfig(cfg), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	authValidator, err := newAuthValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	themes, err := newThemeRegistry(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("load themes")
	}
	jobService := newJobService(newJobRepository(db), themes)

	completer, err := newCompleter(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize llm provider")
	}
	if completer == nil {
		log.Warn().Msg("no LLM provider configured, decks use the deterministic outline only")
	}

	recorder := metrics.Recorder{}
	deckPipeline, err := newPipeline(completer, cfg, recorder, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize pipeline")
	}

	backend, err := newPDFBackend(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize pdf backend")
	}
	store, err := newStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize storage")
	}

	generator, err := newGenerator(
		deckPipeline,
		themes,
		backend,
		newImageFetcher(cfg, recorder),
		store,
		newPoller(cfg, log),
		recorder,
		cfg,
		log,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize deck generator")
	}

	handlerProvider := newHandlerProvider(jobService, generator, store, themes, backend, log)
	httpServer := httpserver.New(cfg, log, handlerProvider, authValidator, newReadinessCheck(db, store))

	app := NewApplication(httpServer, newWorkerPool(jobService, generator, cfg, log), newJanitor(jobService, cfg, log), log)
	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}

package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/janhq/deck-server/internal/config"
	"github.com/janhq/deck-server/internal/domain/deck"
	"github.com/janhq/deck-server/internal/domain/job"
	"github.com/janhq/deck-server/internal/domain/llm"
	"github.com/janhq/deck-server/internal/domain/pipeline"
	"github.com/janhq/deck-server/internal/domain/remote"
	"github.com/janhq/deck-server/internal/domain/retry"
	"github.com/janhq/deck-server/internal/domain/theme"
	"github.com/janhq/deck-server/internal/infrastructure/auth"
	"github.com/janhq/deck-server/internal/infrastructure/database"
	"github.com/janhq/deck-server/internal/infrastructure/deckpdf"
	"github.com/janhq/deck-server/internal/infrastructure/genservice"
	"github.com/janhq/deck-server/internal/infrastructure/imagefetch"
	"github.com/janhq/deck-server/internal/infrastructure/janitor"
	"github.com/janhq/deck-server/internal/infrastructure/llmprovider"
	"github.com/janhq/deck-server/internal/infrastructure/metrics"
	"github.com/janhq/deck-server/internal/infrastructure/repository/jobrepo"
	"github.com/janhq/deck-server/internal/infrastructure/storage"
	"github.com/janhq/deck-server/internal/interfaces/httpserver"
	"github.com/janhq/deck-server/internal/interfaces/httpserver/handlers"
	"github.com/janhq/deck-server/internal/worker"
)

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, dbCfg database.Config, cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(dbCfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db, log); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func newThemeRegistry(cfg *config.Config) (*theme.Registry, error) {
	return theme.NewRegistry(cfg.ThemesDir, cfg.DefaultTheme)
}

func newJobService(repo job.Repository, themes *theme.Registry) *job.Service {
	return job.NewService(repo, func(name string) bool {
		_, ok := themes.Get(name)
		return ok
	})
}

// newCompleter returns nil when LLM_PROVIDER=none; the pipeline then runs
// every generative stage on its deterministic fallback.
func newCompleter(ctx context.Context, cfg *config.Config) (llm.Completer, error) {
	provider, err := llmprovider.New(ctx, cfg)
	if err != nil || provider == nil {
		return nil, err
	}
	policy := retry.DefaultPolicy()
	policy.MaxRetries = cfg.LLMMaxRetries
	return llm.NewJSONCompleter(provider, cfg.LLMModel, policy, cfg.LLMMaxTokens), nil
}

func newPipeline(completer llm.Completer, cfg *config.Config, recorder metrics.Recorder, log zerolog.Logger) (*pipeline.Pipeline, error) {
	pcfg := pipeline.DefaultConfig()
	pcfg.Budget = pipeline.BudgetConfig{
		Total:    cfg.AgentBudget,
		MinStage: cfg.StageMin,
		MaxStage: cfg.StageMax,
		Reserve:  cfg.StageReserve,
	}
	pcfg.MaxCriticRounds = cfg.MaxCritic
	return pipeline.New(completer, pcfg, log, pipeline.WithObserver(recorder))
}

// newPoller returns nil when no generation service is configured, which
// makes remote jobs fail with deck.ErrRemoteUnavailable.
func newPoller(cfg *config.Config, log zerolog.Logger) *remote.Poller {
	if !cfg.RemoteEnabled() {
		return nil
	}
	client := genservice.NewClient(cfg.GenServiceURL, cfg.GenServiceKey, 30*time.Second)
	return remote.NewPoller(client, remote.PollerConfig{
		Interval: cfg.GenPollEvery,
		Timeout:  cfg.GenTimeout,
	}, log)
}

func newPDFBackend(cfg *config.Config) (*deckpdf.Backend, error) {
	return deckpdf.NewBackend(cfg.FontPath)
}

func newImageFetcher(cfg *config.Config, recorder metrics.Recorder) *imagefetch.Fetcher {
	return imagefetch.New(cfg.ImageTimeout, cfg.ImageMaxBytes, recorder)
}

func newStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage.Store, error) {
	return storage.New(ctx, cfg, log)
}

func newGenerator(
	p *pipeline.Pipeline,
	themes *theme.Registry,
	backend *deckpdf.Backend,
	images *imagefetch.Fetcher,
	store storage.Store,
	poller *remote.Poller,
	recorder metrics.Recorder,
	cfg *config.Config,
	log zerolog.Logger,
) (*deck.Generator, error) {
	return deck.NewGenerator(deck.Dependencies{
		Pipeline: p,
		Themes:   themes,
		Backend:  backend,
		Images:   images,
		Store:    store,
		Poller:   poller,
		Observer: recorder,
	}, deck.Config{
		Strict:         cfg.StrictFacts,
		NotesPages:     cfg.NotesPages,
		ImageCacheSize: cfg.ImageCacheSize,
		ExportAs:       cfg.GenExportAs,
	}, log)
}

func newWorkerPool(jobs *job.Service, generator *deck.Generator, cfg *config.Config, log zerolog.Logger) *worker.Pool {
	runner := worker.NewRunner(jobs, generator, log)
	return worker.NewPool(jobs, runner, worker.Config{
		WorkerCount:  cfg.WorkerCount,
		PollInterval: cfg.WorkerPoll,
		TaskTimeout:  cfg.TaskTimeout,
	}, log)
}

// newJanitor returns nil when JANITOR_ENABLED=false.
func newJanitor(jobs *job.Service, cfg *config.Config, log zerolog.Logger) *janitor.Janitor {
	if !cfg.JanitorEnabled {
		return nil
	}
	return janitor.New(jobs, cfg.JanitorCron, cfg.StaleJobAfter, metrics.RecordStaleJobs, log)
}

func newAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

func newHandlerProvider(jobs *job.Service, generator *deck.Generator, store storage.Store, themes *theme.Registry, backend *deckpdf.Backend, log zerolog.Logger) *handlers.Provider {
	return handlers.NewProvider(jobs, generator, store, themes, handlers.Config{
		ArtifactContentType: backend.ContentType(),
	}, log)
}

func newReadinessCheck(db *gorm.DB, store storage.Store) httpserver.ReadinessCheck {
	return func(ctx context.Context) error {
		if err := database.Ping(db); err != nil {
			return err
		}
		return store.Health(ctx)
	}
}

func newJobRepository(db *gorm.DB) *jobrepo.PostgresRepository {
	return jobrepo.NewPostgresRepository(db)
}

//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/janhq/deck-server/internal/config"
	"github.com/janhq/deck-server/internal/domain/job"
	"github.com/janhq/deck-server/internal/infrastructure/logger"
	"github.com/janhq/deck-server/internal/infrastructure/metrics"
	"github.com/janhq/deck-server/internal/infrastructure/repository/jobrepo"
	"github.com/janhq/deck-server/internal/interfaces/httpserver"
)

var deckSet = wire.NewSet(
	newJobRepository,
	wire.Bind(new(job.Repository), new(*jobrepo.PostgresRepository)),
	newThemeRegistry,
	newJobService,
	newCompleter,
	wire.Value(metrics.Recorder{}),
	newPipeline,
	newPoller,
	newPDFBackend,
	newImageFetcher,
	newStore,
	newGenerator,
	newWorkerPool,
	newJanitor,
	newHandlerProvider,
	newReadinessCheck,
)

// BuildApplication assembles the deck service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		newAuthValidator,
		deckSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

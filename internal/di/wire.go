//go:build wireinject
// +build wireinject

package di

import (
	"SignalGuard/pkg/config"
	"SignalGuard/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisClient,
		ProvideCacheService,

		// Repositories and state
		ProvideCandleStore,
		ProvideTrackerStore,
		ProvideSampleStore,
		ProvideVerdictPublisher,

		// Signal sources
		ProvidePeerBook,
		ProvideSiblingSource,
		ProvideIndicatorSource,
		ProvidePeerStream,

		// Validation pipeline
		ProvideOrchestrator,

		// Use cases
		ProvideVerdictProcessor,
		ProvideRetryQueue,
		ProvideKafkaSignalsHandler,
		ProvideKafkaOutcomesHandler,
		ProvideSignalCollector,
		ProvideCandlesUseCase,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}

//go:build wireinject
// +build wireinject

package di

import (
	"NeuroFeat/pkg/config"
	"NeuroFeat/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
    wire.Build(
        // Logging and metrics
        ProvideLogger,
        ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisClient,
		ProvideTaskQueue,

		// Repositories (with business logic)
		ProvideSegmentStorage,
		ProvideSegmentPublisher,
		ProvideCorpusStore,
		ProvideDeviceStream,

        // Featurization
        ProvideCache,
        ProvideResponseCache,
        ProvideExecBackends,
        ProvideFeaturizer,
        ProvideTrainer,
        ProvideCorpusFeaturizer,

        // Use cases
        ProvideSegmentProcessor,
        ProvideSegmentCollector,
        ProvideKafkaSegmentsHandler,

        // HTTP
        ProvideAPIHandler,

        // Application server
        ProvideApp,
    )
    return &server.App{}, nil
}

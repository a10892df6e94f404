//go:build wireinject
// +build wireinject

package di

import (
	"QuantPull/pkg/config"
	"QuantPull/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideRateLimiter,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideRedisClient,
		ProvideCacheService,
		ProvideResponseCache,

		// Repositories
		ProvideStorage,
		ProvideFeatureStore,
		ProvidePublisher,
		ProvideExporter,

		// Providers
		ProvideAlphaVantage,
		ProvideBarSource,
		ProvideProfileSource,
		ProvideEconSource,
		ProvideNewsSources,
		ProvideArticleStream,

		// Domain services
		ProvideFeatureEngine,
		ProvideSentimentAnalyzer,

		// Use cases
		ProvideTableProcessor,
		ProvideMarketPipeline,
		ProvideEconPipeline,
		ProvideNewsPipeline,
		ProvideJobQueue,
		ProvideCollector,
		ProvideScheduler,
		ProvideArticleIntake,
		ProvideArticlePipeline,
		ProvideKafkaConsumer,
		ProvideKafkaArticlesHandler,
		ProvideFeaturesUseCase,
		ProvideSentimentUseCase,
		ProvideIndicatorsUseCase,

		// HTTP and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}

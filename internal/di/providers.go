package di

import (
	"fmt"

	"QuantPull/internal/domain/repository"
	domsvc "QuantPull/internal/domain/service"
	"QuantPull/internal/handler/api"
	mid "QuantPull/internal/middleware"
	internalrepo "QuantPull/internal/repository"
	"QuantPull/internal/service/alphavantage"
	icache "QuantPull/internal/service/cache"
	"QuantPull/internal/service/fred"
	"QuantPull/internal/service/newsapi"
	"QuantPull/internal/service/newswire"
	"QuantPull/internal/service/ratelimit"
	"QuantPull/internal/services/features"
	"QuantPull/internal/services/sentiment"
	"QuantPull/internal/usecase"
	pkgcache "QuantPull/pkg/cache"
	pkgch "QuantPull/pkg/clickhouse"
	"QuantPull/pkg/config"
	xhttp "QuantPull/pkg/http"
	pkgkafka "QuantPull/pkg/kafka"
	applogger "QuantPull/pkg/logger"
	"QuantPull/pkg/metrics"
	"QuantPull/pkg/queue"
	"QuantPull/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRateLimiter creates the token-bucket limiter shared by all
// outbound provider clients.
func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideClickHouseClient creates a ClickHouse client when the clickhouse
// backend is configured. Schema setup happens through Storage.Init at
// startup, not here.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !hasBackend(cfg, "clickhouse") {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer when anything publishes:
// the kafka backend or the log collector.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !hasBackend(cfg, "kafka") && !cfg.Logger.Collector.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideRedisClient creates the Redis client shared by the collect queue,
// collection locks, the profile cache and the response cache.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideCacheService creates the layered cache used for company profiles
// and collection locks.
func ProvideCacheService(client *redis.Client) pkgcache.Service {
	return pkgcache.NewLayeredCache(pkgcache.NewRedisCacheFromClient(client, "quantpull"))
}

// ProvideResponseCache creates the rendered-response cache for the API.
func ProvideResponseCache(client *redis.Client) icache.BytesCache {
	return icache.NewRedisCache(client)
}

// ProvideStorage creates the ClickHouse storage repository.
func ProvideStorage(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.Storage {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewClickHouseStorage(chClient, cfg.ClickHouse.Database, cfg.Storage.BatchSize, l)
}

// ProvideFeatureStore creates the read-side store the query API serves from.
func ProvideFeatureStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.FeatureStore {
	if chClient == nil {
		return nil
	}
	store := internalrepo.NewCHFeatureStore(chClient, cfg.ClickHouse.Database)
	store.SetLogger(l)
	return store
}

// ProvidePublisher creates the Kafka publisher repository.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil || !hasBackend(cfg, "kafka") {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topics.Features, cfg.Kafka.Topics.Sentiment)
}

// ProvideExporter creates the CSV exporter repository.
func ProvideExporter(cfg *config.Config, l *applogger.Logger) repository.Exporter {
	if !hasBackend(cfg, "csv") {
		return nil
	}
	return internalrepo.NewCSVExporter(cfg.Storage.CSVDir, l)
}

// ProvideTableProcessor creates the backend fan-out processor. Sinks for
// backends that are not configured stay nil and are never dispatched.
func ProvideTableProcessor(
	pub repository.Publisher,
	store repository.Storage,
	exporter repository.Exporter,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.TableProcessor {
	return usecase.NewTableProcessor(pub, store, exporter, m, cfg.Storage.Backends)
}

// ProvideFeatureEngine creates the feature derivation engine.
func ProvideFeatureEngine(cfg *config.Config, l *applogger.Logger) domsvc.FeatureEngine {
	return features.NewEngine(features.Config{
		OutlierThreshold: cfg.Features.OutlierThreshold,
		MAWindows:        cfg.Features.MAWindows,
	}, l)
}

// ProvideSentimentAnalyzer creates the article scorer and aggregator.
func ProvideSentimentAnalyzer(cfg *config.Config, l *applogger.Logger) domsvc.SentimentAnalyzer {
	return sentiment.NewAnalyzer(sentiment.Config{
		ArticleNorm: cfg.Sentiment.ArticleNorm,
		StdPenalty:  cfg.Sentiment.StdPenalty,
		Blockwords:  cfg.Sentiment.Blockwords,
	}, l)
}

// ProvideAlphaVantage creates the Alpha Vantage client. One client serves
// bars, company profiles and provider-scored news.
func ProvideAlphaVantage(cfg *config.Config, limiter *ratelimit.Limiter, l *applogger.Logger) *alphavantage.Client {
	return alphavantage.NewClient(cfg, limiter, l)
}

// ProvideBarSource exposes Alpha Vantage as the OHLCV source.
func ProvideBarSource(av *alphavantage.Client) repository.BarSource { return av }

// ProvideProfileSource exposes Alpha Vantage as the company profile source.
func ProvideProfileSource(av *alphavantage.Client) repository.ProfileSource { return av }

// ProvideEconSource creates the FRED client for economic series.
func ProvideEconSource(cfg *config.Config, limiter *ratelimit.Limiter, l *applogger.Logger) repository.EconSource {
	return fred.NewClient(cfg, limiter, l)
}

// ProvideNewsSources assembles the article sources news collection fans
// out to. NewsAPI joins only when its key is configured.
func ProvideNewsSources(av *alphavantage.Client, cfg *config.Config, limiter *ratelimit.Limiter, l *applogger.Logger) []repository.NewsSource {
	sources := []repository.NewsSource{av}
	if cfg.Providers.NewsAPI.APIKey != "" {
		sources = append(sources, newsapi.NewClient(cfg, limiter, l))
	}
	return sources
}

// ProvideArticleStream creates the newswire WebSocket stream when enabled.
func ProvideArticleStream(cfg *config.Config, l *applogger.Logger) repository.ArticleStream {
	nw := cfg.Providers.Newswire
	if !nw.Enabled {
		return nil
	}
	return newswire.New(nw.APIKey, nw.WebSocketURL, cfg.Collection.Symbols, nw.ReconnectDelay, nw.PingInterval, l)
}

// ProvideJobQueue creates the Redis collect queue. Queue.Enabled decides
// whether this process also runs workers or only enqueues.
func ProvideJobQueue(cfg *config.Config, l *applogger.Logger, client *redis.Client) *queue.RedisQueue {
	mode := queue.ModeProducerOnly
	if cfg.Queue.Enabled {
		mode = queue.ModeProducerConsumer
	}
	return queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:      cfg.Queue.Workers,
		RetryLimit:   cfg.Queue.MaxRetries,
		RetryDelay:   cfg.Queue.RetryBackoff,
		PollInterval: cfg.Queue.PollInterval,
	}, client, mode, queue.WithKeyPrefix(cfg.Queue.Prefix))
}

// ProvideMarketPipeline creates the OHLCV collection pipeline.
func ProvideMarketPipeline(
	source repository.BarSource,
	engine domsvc.FeatureEngine,
	proc *usecase.TableProcessor,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.MarketPipeline {
	return usecase.NewMarketPipeline(source, engine, proc, m, l)
}

// ProvideEconPipeline creates the economic series collection pipeline.
func ProvideEconPipeline(
	source repository.EconSource,
	engine domsvc.FeatureEngine,
	proc *usecase.TableProcessor,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.EconPipeline {
	return usecase.NewEconPipeline(source, engine, proc, m, l)
}

// ProvideNewsPipeline creates the batch news collection pipeline.
func ProvideNewsPipeline(
	sources []repository.NewsSource,
	profiles repository.ProfileSource,
	analyzer domsvc.SentimentAnalyzer,
	proc *usecase.TableProcessor,
	cacheSvc pkgcache.Service,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.NewsPipeline {
	return usecase.NewNewsPipeline(sources, profiles, analyzer, proc, cacheSvc, m, l)
}

// ProvideCollector creates the job-dispatching collector.
func ProvideCollector(
	market *usecase.MarketPipeline,
	econ *usecase.EconPipeline,
	news *usecase.NewsPipeline,
	jobQueue *queue.RedisQueue,
	locks pkgcache.Service,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.Collector {
	return usecase.NewCollector(
		market, econ, news,
		jobQueue, locks,
		cfg.Collection.Symbols,
		cfg.Collection.Intervals,
		cfg.Collection.EconSeries,
		l,
	)
}

// ProvideScheduler creates the periodic collection scheduler.
func ProvideScheduler(collector *usecase.Collector, cfg *config.Config, l *applogger.Logger) *usecase.CollectScheduler {
	return usecase.NewCollectScheduler(collector, cfg.Collection.Schedule, l)
}

// ProvideArticleIntake creates the streaming sentiment intake when either
// live article path (newswire or the Kafka articles topic) is enabled.
func ProvideArticleIntake(
	stream repository.ArticleStream,
	analyzer domsvc.SentimentAnalyzer,
	proc *usecase.TableProcessor,
	news *usecase.NewsPipeline,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.ArticleIntake {
	if stream == nil && !cfg.Kafka.Consumer.Enabled {
		return nil
	}
	return usecase.NewArticleIntake(stream, analyzer, proc, news.Keywords, m, l, cfg.Sentiment.FlushEvery)
}

// ProvideArticlePipeline wraps the intake in the validation/throttle
// pipeline both article paths go through.
func ProvideArticlePipeline(intake *usecase.ArticleIntake, m repository.Metrics) *mid.ArticlePipeline {
	if intake == nil {
		return nil
	}
	pipe := mid.NewArticlePipeline(intake, m,
		mid.WithMaxRPS(5),
		mid.WithBufferSize(1000),
	)
	intake.SetPipeline(pipe)
	return pipe
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaArticlesHandler registers the handler for the articles topic.
func ProvideKafkaArticlesHandler(
	pipe *mid.ArticlePipeline,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.KafkaArticlesHandler {
	if !cfg.Kafka.Consumer.Enabled || pipe == nil {
		return nil
	}
	return usecase.NewKafkaArticlesHandler(cfg.Kafka.Topics.Articles, pipe, m, l)
}

// ProvideFeaturesUseCase creates the feature query usecase.
func ProvideFeaturesUseCase(store repository.FeatureStore, cfg *config.Config) *usecase.FeaturesUseCase {
	if store == nil {
		return nil
	}
	return usecase.NewFeaturesUseCase(store, cfg.API.MaxQueryLimit)
}

// ProvideSentimentUseCase creates the sentiment query usecase.
func ProvideSentimentUseCase(store repository.FeatureStore) *usecase.SentimentUseCase {
	if store == nil {
		return nil
	}
	return usecase.NewSentimentUseCase(store)
}

// ProvideIndicatorsUseCase creates the economic indicator query usecase.
func ProvideIndicatorsUseCase(store repository.FeatureStore, cfg *config.Config) *usecase.IndicatorsUseCase {
	if store == nil {
		return nil
	}
	return usecase.NewIndicatorsUseCase(store, cfg.API.MaxQueryLimit)
}

// ProvideHTTPHandler assembles the query API handler.
func ProvideHTTPHandler(
	l *applogger.Logger,
	featuresUC *usecase.FeaturesUseCase,
	sentimentUC *usecase.SentimentUseCase,
	indicatorsUC *usecase.IndicatorsUseCase,
	collector *usecase.Collector,
	respCache icache.BytesCache,
	storage repository.Storage,
	cfg *config.Config,
) xhttp.Handler {
	h := api.NewFeaturesHandler(l, featuresUC, sentimentUC, indicatorsUC, collector)
	h.SetCache(respCache, cfg.API.CacheTTL)
	h.SetRateLimit(float64(cfg.API.RatePerMinute))
	if storage != nil {
		h.SetHealthProbe(storage.Health)
	}
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	proc *usecase.TableProcessor,
	storage repository.Storage,
	jobQueue *queue.RedisQueue,
	collector *usecase.Collector,
	scheduler *usecase.CollectScheduler,
	intake *usecase.ArticleIntake,
	consumer *pkgkafka.Consumer,
	ah *usecase.KafkaArticlesHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	httpHandler xhttp.Handler,
) *server.App {
	// Jobs run only where workers run; producer-only processes skip this.
	if cfg.Queue.Enabled {
		jobQueue.RegisterJobs([]queue.Job{
			usecase.MarketJob{C: collector},
			usecase.EconJob{C: collector},
			usecase.NewsJob{C: collector},
		})
	}

	// A nil *KafkaArticlesHandler must stay a nil interface.
	var kh pkgkafka.MessageHandler
	if ah != nil {
		kh = ah
	}
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.TracingHook{}))
	}

	app := server.New(cfg, l, proc, storage, jobQueue, scheduler, intake, consumer, kh, producer, chClient)
	app.SetHTTPHandler(httpHandler)
	return app
}

func hasBackend(cfg *config.Config, name string) bool {
	for _, b := range cfg.Storage.Backends {
		if b == name {
			return true
		}
	}
	return false
}

package di

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"time"

	"SignalGuard/internal/domain/repository"
	domsvc "SignalGuard/internal/domain/service"
	mid "SignalGuard/internal/middleware"
	internalrepo "SignalGuard/internal/repository"
	"SignalGuard/internal/service/peerfeed"
	"SignalGuard/internal/services/indicators"
	"SignalGuard/internal/sources"
	"SignalGuard/internal/state"
	"SignalGuard/internal/usecase"
	"SignalGuard/internal/validation"
	pkgcache "SignalGuard/pkg/cache"
	pkgch "SignalGuard/pkg/clickhouse"
	"SignalGuard/pkg/config"
	pkgkafka "SignalGuard/pkg/kafka"
	"SignalGuard/pkg/logger"
	"SignalGuard/pkg/metrics"
	"SignalGuard/pkg/queue"
	"SignalGuard/pkg/server"

	goredis "github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger. When a logs topic is
// configured, repeated log lines are aggregated and shipped to Kafka.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*logger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	log, err := logger.New(&logger.Config{Level: "info", Format: format, Output: "stdout"})
	if err != nil {
		return nil, err
	}
	if cfg.Kafka.LogsTopic != "" {
		log.AddCollector(&logger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      kafkaLogSink{producer},
		})
	}
	return log, nil
}

// kafkaLogSink adapts the Kafka producer to the log collector's publisher.
type kafkaLogSink struct {
	producer *pkgkafka.Producer
}

func (s kafkaLogSink) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return s.producer.Publish(ctx, topic, nil, payload)
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
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

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS signalguard",
		"CREATE TABLE IF NOT EXISTS signalguard.candles_1m (bucket DateTime, symbol String, open Float64, high Float64, low Float64, close Float64, vol Float64) ENGINE=MergeTree ORDER BY (symbol, bucket)",
		"CREATE TABLE IF NOT EXISTS signalguard.candles_5m (bucket DateTime, symbol String, open Float64, high Float64, low Float64, close Float64, vol Float64) ENGINE=MergeTree ORDER BY (symbol, bucket)",
		"CREATE TABLE IF NOT EXISTS signalguard.candles_15m (bucket DateTime, symbol String, open Float64, high Float64, low Float64, close Float64, vol Float64) ENGINE=MergeTree ORDER BY (symbol, bucket)",
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
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

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
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

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisClient creates a go-redis client, or nil when disabled.
func ProvideRedisClient(cfg *config.Config) *goredis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideCacheService creates the shared cache: a memory+Redis layered
// cache when Redis is enabled, in-process LRU otherwise.
func ProvideCacheService(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port: %w", err)
	}
	c, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix("signalguard"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(c), nil
}

// ProvideCandleStore creates the ClickHouse candle repository.
func ProvideCandleStore(chClient *pkgch.Client, log *logger.Logger) repository.CandleStore {
	store := internalrepo.NewCHCandleStore(chClient)
	store.SetLogger(log)
	return store
}

// ProvideTrackerStore selects the performance tracker backend.
func ProvideTrackerStore(cfg *config.Config, rdb *goredis.Client) repository.TrackerStore {
	if cfg.Validation.StateBackend == "redis" && rdb != nil {
		return internalrepo.NewRedisTrackerStore(rdb, "signalguard")
	}
	return state.NewMemoryTrackerStore()
}

// ProvideSampleStore selects the accuracy sample backend. Both backends
// seed unseen model keys with simulated history so the statistical
// stage has something to test against before real outcomes arrive.
func ProvideSampleStore(cfg *config.Config, rdb *goredis.Client) repository.SampleStore {
	seed := state.SimulatedSeed(rand.New(rand.NewSource(time.Now().UnixNano())))
	if cfg.Validation.StateBackend == "redis" && rdb != nil {
		return internalrepo.NewRedisSampleStore(rdb, "signalguard", seed)
	}
	return state.NewMemorySampleStore(seed)
}

// ProvidePeerBook creates the live peer-signal book.
func ProvidePeerBook(cfg *config.Config) *sources.PeerBook {
	opts := []sources.PeerBookOption{}
	if cfg.Validation.PeerTTL > 0 {
		opts = append(opts, sources.WithPeerTTL(cfg.Validation.PeerTTL))
	}
	return sources.NewPeerBook(opts...)
}

// ProvideSiblingSource selects the ensemble peer source.
func ProvideSiblingSource(cfg *config.Config, book *sources.PeerBook) repository.SiblingSignalSource {
	if cfg.Validation.PeerSource == "peerbook" {
		return book
	}
	return sources.NewSyntheticSiblingSource()
}

// ProvideIndicatorSource selects the market indicator source.
func ProvideIndicatorSource(cfg *config.Config, candles repository.CandleStore, c pkgcache.Service, log *logger.Logger) repository.MarketIndicatorSource {
	switch cfg.Validation.IndicatorSource {
	case "candles":
		return sources.NewCandleIndicatorSource(candles, c, log)
	case "http":
		return indicators.NewHTTPIndicatorSource(cfg)
	default:
		return sources.NewSyntheticMarketSource()
	}
}

// ProvideOrchestrator builds the five stage validators and the pipeline.
func ProvideOrchestrator(
	cfg *config.Config,
	siblings repository.SiblingSignalSource,
	indicatorSrc repository.MarketIndicatorSource,
	trackers repository.TrackerStore,
	samples repository.SampleStore,
	m repository.Metrics,
	log *logger.Logger,
) domsvc.Orchestrator {
	quality := validation.NewBasicQualityValidator(log)
	statistical := validation.NewStatisticalValidator(log, samples)
	ensemble := validation.NewEnsembleValidator(log, siblings)
	contextV := validation.NewMarketContextValidator(log, indicatorSrc)
	performance := validation.NewPerformanceValidator(log, trackers)

	opts := []validation.OrchestratorOption{}
	if len(cfg.Validation.FailsafeStages) > 0 {
		opts = append(opts, validation.WithFailsafeStages(cfg.Validation.FailsafeStages))
	}
	return validation.NewPipelineOrchestrator(quality, statistical, ensemble, contextV, performance, m, log, opts...)
}

// ProvideVerdictPublisher creates the Kafka verdict publisher.
func ProvideVerdictPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.VerdictPublisher {
	return internalrepo.NewKafkaVerdictPublisher(producer, cfg.Kafka.VerdictsTopic)
}

// ProvideVerdictProcessor creates the verdict processing use case.
func ProvideVerdictProcessor(pub repository.VerdictPublisher, m repository.Metrics) *usecase.VerdictProcessor {
	return usecase.NewVerdictProcessor(pub, m)
}

// ProvideRetryQueue creates the Redis-backed revalidation queue, or nil
// when Redis is disabled.
func ProvideRetryQueue(cfg *config.Config, rdb *goredis.Client, log *logger.Logger, orch domsvc.Orchestrator, proc *usecase.VerdictProcessor) *queue.RedisQueue {
	if rdb == nil {
		return nil
	}
	q := queue.NewRedisQueue(log, &queue.QueueConfig{
		Workers:    2,
		RetryLimit: 3,
		RetryDelay: 10 * time.Second,
	}, rdb, queue.ModeProducerConsumer, queue.WithKeyPrefix("signalguard:queue"))
	q.RegisterJob(usecase.NewRevalidateJob(orch, proc))
	return q
}

// ProvideKafkaSignalsHandler registers the handler for the signals topic.
func ProvideKafkaSignalsHandler(cfg *config.Config, orch domsvc.Orchestrator, proc *usecase.VerdictProcessor, retry *queue.RedisQueue, m repository.Metrics) *usecase.KafkaSignalsHandler {
	var q queue.QueueService
	if retry != nil {
		q = retry
	}
	return usecase.NewKafkaSignalsHandler(cfg.Kafka.SignalsTopic, orch, proc, q, m, cfg.Validation.DegradedMode)
}

// ProvideKafkaOutcomesHandler registers the handler for the outcomes topic.
func ProvideKafkaOutcomesHandler(cfg *config.Config, trackers repository.TrackerStore, samples repository.SampleStore, m repository.Metrics) *usecase.KafkaOutcomesHandler {
	return usecase.NewKafkaOutcomesHandler(cfg.Kafka.OutcomesTopic, trackers, samples, m)
}

// ProvidePeerStream creates the peer-signal WebSocket stream.
func ProvidePeerStream(cfg *config.Config, log *logger.Logger) repository.SignalStream {
	return peerfeed.New(
		cfg.PeerFeed.APIKey,
		cfg.PeerFeed.WebSocketURL,
		cfg.PeerFeed.Symbols,
		cfg.PeerFeed.ReconnectDelay,
		cfg.PeerFeed.PingInterval,
		log,
	)
}

// ProvideSignalCollector creates the peer-signal collector, or nil when
// the ensemble runs on synthetic peers.
func ProvideSignalCollector(cfg *config.Config, stream repository.SignalStream, book *sources.PeerBook, m repository.Metrics) *usecase.SignalCollector {
	if cfg.Validation.PeerSource != "peerbook" {
		return nil
	}
	ingest := usecase.NewPeerIngestor(book)
	// Throttle and buffer between the WebSocket and the peer book
	pipe := mid.NewSignalPipeline(ingest, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewSignalCollector(stream, ingest, m, pipe)
}

// ProvideCandlesUseCase creates the candle query use case.
func ProvideCandlesUseCase(store repository.CandleStore) *usecase.CandlesUseCase {
	return usecase.NewCandlesUseCase(store)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	collector *usecase.SignalCollector,
	consumer *pkgkafka.Consumer,
	sh *usecase.KafkaSignalsHandler,
	oh *usecase.KafkaOutcomesHandler,
	retry *queue.RedisQueue,
	orch domsvc.Orchestrator,
	candles *usecase.CandlesUseCase,
	proc *usecase.VerdictProcessor,
	chClient *pkgch.Client,
) *server.App {
	// Attach hook to consumer: example NoopHook for now; can be replaced via config
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	return server.New(cfg, log, collector, consumer, sh, oh, retry, orch, candles, proc, chClient)
}

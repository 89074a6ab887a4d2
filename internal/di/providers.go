package di

import (
    "context"
    "fmt"
    "net"
    "strconv"
    "time"

    "NeuroFeat/internal/domain/repository"
    "NeuroFeat/internal/handler/api"
    mid "NeuroFeat/internal/middleware"
    internalrepo "NeuroFeat/internal/repository"
    icache "NeuroFeat/internal/service/cache"
    "NeuroFeat/internal/service/eegstream"
    "NeuroFeat/internal/service/exec"
    "NeuroFeat/internal/usecase"
    pkgcache "NeuroFeat/pkg/cache"
    pkgch "NeuroFeat/pkg/clickhouse"
    "NeuroFeat/pkg/config"
    pkgkafka "NeuroFeat/pkg/kafka"
    applogger "NeuroFeat/pkg/logger"
    "NeuroFeat/pkg/metrics"
    "NeuroFeat/pkg/queue"
    "NeuroFeat/pkg/server"

    goredis "github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
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

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		"CREATE TABLE IF NOT EXISTS " + db + ".raw_segments (ts DateTime, session String, channel Int32, samples Array(Float64), label String, source String, event_id String, seq UInt64) ENGINE=MergeTree ORDER BY (session, channel, ts)",
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

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisClient creates the shared Redis client.
func ProvideRedisClient(cfg *config.Config) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideTaskQueue creates the Redis task queue for distributed featurization.
func ProvideTaskQueue(lgr *applogger.Logger, client *goredis.Client, cfg *config.Config) *queue.RedisQueue {
	workers := cfg.Exec.Workers
	if workers <= 0 {
		workers = 4
	}
	opts := []queue.RedisQueueOption{}
	if cfg.Redis.KeyPrefix != "" {
		opts = append(opts, queue.WithKeyPrefix(cfg.Redis.KeyPrefix))
	}
	return queue.NewRedisQueue(lgr, &queue.QueueConfig{
		Workers:    workers,
		QueueSize:  1024,
		RetryLimit: 1,
	}, client, queue.ModeProducerConsumer, opts...)
}

// ProvideExecBackends creates the execution backends available to the scheduler.
// The redis backend is only built when configured, the in-process ones always are.
func ProvideExecBackends(lgr *applogger.Logger, cfg *config.Config, q *queue.RedisQueue, client *goredis.Client) []exec.Backend {
	backends := []exec.Backend{
		exec.NewSequentialBackend(),
		exec.NewParallelBackend(cfg.Exec.Workers),
	}
	if cfg.Redis.Addr != "" {
		opts := []exec.RedisBackendOption{}
		if cfg.Exec.ResultTimeout > 0 {
			opts = append(opts, exec.WithResultTimeout(cfg.Exec.ResultTimeout))
		}
		backends = append(backends, exec.NewRedisBackend(lgr, q, client, opts...))
	}
	return backends
}

// ProvideFeaturizer creates the batch scheduler.
func ProvideFeaturizer(backends []exec.Backend, m repository.Metrics, cfg *config.Config) (*usecase.Featurizer, error) {
	return usecase.NewFeaturizer(backends, cfg.Exec.Backend, m)
}

// ProvideTrainer creates the classifier trainer with an in-memory model store.
func ProvideTrainer(m repository.Metrics, cfg *config.Config) *usecase.Trainer {
	ttl := cfg.Classify.ModelTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return usecase.NewTrainer(icache.NewTTLCache(), m, cfg.Classify.K, cfg.Classify.TestSplit, ttl)
}

// ProvideSegmentStorage creates ClickHouse storage repository.
func ProvideSegmentStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	return internalrepo.NewClickHouseStorage(chClient.DB(), cfg.ClickHouse.Database+".raw_segments")
}

// ProvideCorpusStore creates the corpus reader over stored segments.
func ProvideCorpusStore(chClient *pkgch.Client, lgr *applogger.Logger, cfg *config.Config) repository.CorpusStore {
	store := internalrepo.NewCHCorpusStore(chClient, cfg.ClickHouse.Database+".raw_segments")
	store.SetLogger(lgr)
	return store
}

// ProvideCache creates the cache used for corpus lookups: layered over Redis
// when Redis is configured, plain in-memory otherwise.
func ProvideCache(cfg *config.Config) pkgcache.Service {
	if cfg.Redis.Addr != "" {
		host, port := cfg.Redis.Addr, 6379
		if h, p, err := net.SplitHostPort(cfg.Redis.Addr); err == nil {
			host = h
			if n, err := strconv.Atoi(p); err == nil {
				port = n
			}
		}
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(host),
			pkgcache.WithRedisPort(port),
			pkgcache.WithRedisPassword(cfg.Redis.Password),
			pkgcache.WithRedisDB(cfg.Redis.DB),
		)
		if err == nil {
			return pkgcache.NewLayeredCache(rc, pkgcache.WithLayeredMemorySize(1024))
		}
	}
	return pkgcache.NewMemoryCache(
		pkgcache.WithMemoryMaxSize(1024),
		pkgcache.WithMemoryCleanup(time.Minute),
	)
}

// ProvideResponseCache creates the byte-level cache for corpus responses.
func ProvideResponseCache(cfg *config.Config) icache.BytesCache {
	if cfg.Redis.Addr != "" {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideCorpusFeaturizer creates the corpus featurization use case.
func ProvideCorpusFeaturizer(store repository.CorpusStore, feat *usecase.Featurizer, m repository.Metrics, cache pkgcache.Service) *usecase.CorpusFeaturizer {
	return usecase.NewCorpusFeaturizer(store, feat, m, cache)
}

// ProvideSegmentPublisher creates Kafka publisher repository.
func ProvideSegmentPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
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

// ProvideKafkaSegmentsHandler registers the handler for the segments topic.
func ProvideKafkaSegmentsHandler(store repository.Storage, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaSegmentsHandler {
	return usecase.NewKafkaSegmentsHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideDeviceStream creates the EEG gateway WebSocket stream.
func ProvideDeviceStream(cfg *config.Config) repository.DeviceStream {
	return eegstream.New(
		cfg.Stream.APIKey,
		cfg.Stream.URL,
		cfg.Stream.SessionID,
		cfg.Stream.Channels,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
	)
}

// ProvideSegmentProcessor creates the segment routing use case.
func ProvideSegmentProcessor(
	pub repository.Publisher,
	store repository.Storage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.SegmentProcessor {
	return usecase.NewSegmentProcessor(
		pub,
		store,
		metrics,
		cfg.Ingest.Backend,
		cfg.Ingest.BatchSize,
		cfg.Ingest.BatchTimeout,
	)
}

// ProvideSegmentCollector creates the stream collector use case.
func ProvideSegmentCollector(
    stream repository.DeviceStream,
    processor *usecase.SegmentProcessor,
    metrics repository.Metrics,
    cfg *config.Config,
) *usecase.SegmentCollector {
    // Build middleware pipeline between WebSocket and the ingest backend
    opts := []mid.PipelineOption{}
    if cfg.Ingest.MaxRPS > 0 {
        opts = append(opts, mid.WithMaxRPS(cfg.Ingest.MaxRPS))
    }
    if cfg.Ingest.BufferSize > 0 {
        opts = append(opts, mid.WithBufferSize(cfg.Ingest.BufferSize))
    }
    pipe := mid.NewIngestPipeline(processor, metrics, opts...)
    return usecase.NewSegmentCollector(stream, processor, metrics, pipe)
}

// ProvideAPIHandler creates the Echo HTTP handler.
func ProvideAPIHandler(lgr *applogger.Logger, feat *usecase.Featurizer, corpus *usecase.CorpusFeaturizer, trainer *usecase.Trainer, respCache icache.BytesCache) *api.FeaturizeEchoHandler {
	return api.NewFeaturizeEchoHandler(lgr, feat, corpus, trainer, respCache)
}

// ProvideApp creates the application server.
func ProvideApp(
    cfg *config.Config,
    lgr *applogger.Logger,
    collector *usecase.SegmentCollector,
    consumer *pkgkafka.Consumer,
    kh *usecase.KafkaSegmentsHandler,
    chClient *pkgch.Client,
    q *queue.RedisQueue,
    handler *api.FeaturizeEchoHandler,
) *server.App {
    // Attach hook to consumer: example NoopHook for now; can be replaced via config
    if consumer != nil {
        consumer.WithConsumerHook(pkgkafka.NoopHook{})
    }
    app := server.New(cfg, lgr, collector, consumer, kh, chClient, q)
    app.SetHTTPHandler(handler)
    if collector != nil {
        app.SegmentProc = collector.Processor()
    }
    return app
}

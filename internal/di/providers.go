package di

import (
	"context"
	"fmt"

	"UpliftAPI/internal/domain/repository"
	"UpliftAPI/internal/handler/api"
	internalrepo "UpliftAPI/internal/repository"
	"UpliftAPI/internal/services/model"
	"UpliftAPI/internal/usecase"
	pkgcache "UpliftAPI/pkg/cache"
	"UpliftAPI/pkg/config"
	xhttp "UpliftAPI/pkg/http"
	pkgkafka "UpliftAPI/pkg/kafka"
	applogger "UpliftAPI/pkg/logger"
	"UpliftAPI/pkg/metrics"
	"UpliftAPI/pkg/server"
)

const serviceName = "uplift-api"

// ProvideKafkaProducer creates a Kafka producer for log shipping. It returns nil
// when the log collector is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Logging.Collector.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithClientID(serviceName),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideLogger creates the application logger and attaches the Kafka log
// collector when a producer is available.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	l = l.With(applogger.String("service", serviceName), applogger.String("env", cfg.Environment))

	if producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Logging.Collector.Interval,
			CountThreshold: cfg.Logging.Collector.CountThreshold,
			Topic:          cfg.Logging.Collector.Topic,
			Publisher:      internalrepo.NewKafkaLogPublisher(producer, serviceName),
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New(nil)
}

// ProvideHTTPClient creates the outbound client shared by artifact downloads and remote models.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(cfg.Models.Timeout))
}

// ProvideArtifactStore selects the artifact source.
func ProvideArtifactStore(cfg *config.Config, client *xhttp.Client, l *applogger.Logger) (repository.ArtifactStore, error) {
	switch cfg.Models.Source {
	case "file":
		return internalrepo.NewFileArtifactStore(cfg.Models.Dir, l), nil
	case "http":
		return internalrepo.NewHTTPArtifactStore(cfg.Models.BaseURL, client, l), nil
	default:
		return nil, fmt.Errorf("unknown models.source %q", cfg.Models.Source)
	}
}

// ProvideModelHost creates the model host. Loading happens in App.Run or on first use.
func ProvideModelHost(cfg *config.Config, store repository.ArtifactStore, client *xhttp.Client, l *applogger.Logger) *usecase.ModelHost {
	return usecase.NewModelHost(store, usecase.ModelHostConfig{
		Discount: cfg.Models.Discount,
		Bogo:     cfg.Models.Bogo,
		Timeout:  cfg.Models.Timeout,
	}, l, model.WithHTTPClient(client))
}

// ProvideCacheBackend creates the decision cache backend, or nil when caching is off.
func ProvideCacheBackend(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}

	switch cfg.Cache.Backend {
	case "memory":
		return pkgcache.NewMemoryCache(
			pkgcache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize),
			pkgcache.WithMemoryDefaultTTL(cfg.Cache.TTL),
			pkgcache.WithMemoryCleanup(cfg.Cache.MemoryCleanupInterval),
		), nil
	case "redis", "layered":
		rc, err := pkgcache.NewRedisCache(context.Background(),
			pkgcache.WithRedisAddr(cfg.Cache.Redis.Addr),
			pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
			pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
			pkgcache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
			pkgcache.WithRedisPool(cfg.Cache.Redis.PoolSize, cfg.Cache.Redis.MinIdleConns, cfg.Cache.Redis.PoolTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		if cfg.Cache.Backend == "redis" {
			return rc, nil
		}
		return pkgcache.NewLayeredCache(rc,
			pkgcache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize),
			pkgcache.WithLayeredMemoryTTL(cfg.Cache.TTL),
		), nil
	default:
		return nil, fmt.Errorf("unknown cache.backend %q", cfg.Cache.Backend)
	}
}

// ProvideOfferRecommender creates the scoring use case.
func ProvideOfferRecommender(
	cfg *config.Config,
	host *usecase.ModelHost,
	backend pkgcache.Service,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.OfferRecommender {
	var opts []usecase.RecommenderOption
	if backend != nil {
		opts = append(opts, usecase.WithDecisionCache(internalrepo.NewDecisionCache(backend), cfg.Cache.TTL))
	}
	return usecase.NewOfferRecommender(host, m, l, opts...)
}

// ProvideHTTPHandler creates the API handler.
func ProvideHTTPHandler(cfg *config.Config, rec *usecase.OfferRecommender, host *usecase.ModelHost, l *applogger.Logger) xhttp.Handler {
	return api.NewPredictEchoHandler(l, rec, host, cfg.Models.Lazy)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	handler xhttp.Handler,
	host *usecase.ModelHost,
	backend pkgcache.Service,
	producer *pkgkafka.Producer,
	l *applogger.Logger,
) *server.App {
	return server.New(cfg, handler, host, l,
		server.WithCloser("decision cache", backend),
		server.WithCloser("kafka producer", producer),
	)
}

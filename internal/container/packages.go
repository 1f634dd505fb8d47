package container

import (
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/lleria/internal/events"
	"github.com/serroba/lleria/internal/handlers"
	"github.com/serroba/lleria/internal/health"
	"github.com/serroba/lleria/internal/messaging"
	"github.com/serroba/lleria/internal/metrics"
	"github.com/serroba/lleria/internal/middleware"
	"github.com/serroba/lleria/internal/shortener"
	"github.com/serroba/lleria/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const negativeCacheTTL = 5 * time.Second

// LoggerPackage provides *zap.Logger in the format selected by Options.LogFormat.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		return NewLogger(opts.LogFormat)
	})
}

// NewLogger builds a production JSON logger or a development console logger.
func NewLogger(format string) (*zap.Logger, error) {
	switch format {
	case "json":
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

		return cfg.Build()
	case "console", "":
		return zap.NewDevelopment()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// RedisPackage provides *Redis, disabled when no address is configured.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*Redis, error) {
		opts := do.MustInvoke[*Options](i)
		if opts.RedisAddr == "" {
			return &Redis{}, nil
		}

		return &Redis{Client: redis.NewClient(&redis.Options{Addr: opts.RedisAddr})}, nil
	})
}

// StorePackage provides the raw *Backend, the *store.LocalCacheRepository and the fully
// decorated shortener.Store: backend, Redis cache, local cache, event publishing.
func StorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*Backend, error) {
		opts := do.MustInvoke[*Options](i)

		backend, err := NewBackend(opts)
		if err != nil {
			return nil, err
		}

		return &Backend{Store: backend}, nil
	})

	do.Provide(injector, func(i *do.Injector) (*store.LocalCacheRepository, error) {
		opts := do.MustInvoke[*Options](i)
		backend := do.MustInvoke[*Backend](i)
		rdb := do.MustInvoke[*Redis](i)
		ttl := time.Duration(opts.CacheTTL) * time.Second

		var inner shortener.Store = backend.Store
		if rdb.Enabled() {
			inner = store.NewRedisCacheRepository(inner, rdb.Client, ttl)
		}

		return store.NewLocalCacheRepository(inner, int64(opts.LocalCacheSize), ttl, negativeCacheTTL)
	})

	do.Provide(injector, func(i *do.Injector) (shortener.Store, error) {
		local := do.MustInvoke[*store.LocalCacheRepository](i)
		publishers := do.MustInvoke[*messaging.PublisherGroup](i)
		logger := do.MustInvoke[*zap.Logger](i)

		publish := messaging.NewPublishFunc[events.ShortURLCreated](publishers.Publisher(), events.TopicShortURLCreated)

		return events.NewPublishingRepository(local, publish, logger), nil
	})
}

// NewBackend creates the store named by opts.Store. It is not connected yet.
func NewBackend(opts *Options) (shortener.Store, error) {
	switch opts.Store {
	case "memory", "":
		return store.NewMemoryStore(), nil
	case "postgres":
		return store.NewPostgresStore(opts.DatabaseURL), nil
	case "mongo":
		return store.NewMongoStore(store.MongoConfig{
			URI:        opts.MongoURI,
			Database:   opts.MongoDatabase,
			Collection: opts.MongoCollection,
		}), nil
	default:
		return nil, fmt.Errorf("unknown store %q", opts.Store)
	}
}

// MessagingPackage provides the event transport, the publisher group and the consumer group
// running cache invalidation. Redis Streams is used when Redis is enabled.
func MessagingPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PubSub, error) {
		rdb := do.MustInvoke[*Redis](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if rdb.Enabled() {
			return messaging.NewRedisStreamPubSub(rdb.Client, logger)
		}

		return messaging.NewInMemoryPubSub(logger), nil
	})

	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		ps := do.MustInvoke[*messaging.PubSub](i)

		return messaging.NewPublisherGroup(ps.Publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		ps := do.MustInvoke[*messaging.PubSub](i)
		local := do.MustInvoke[*store.LocalCacheRepository](i)
		logger := do.MustInvoke[*zap.Logger](i)

		group := messaging.NewConsumerGroup(ps.Subscriber, logger)
		group.Add(events.NewInvalidationConsumer(ps, local, logger))

		return group, nil
	})
}

// EnginePackage provides the *shortener.Engine. Outcomes are recorded when metrics are registered.
func EnginePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*shortener.Engine, error) {
		opts := do.MustInvoke[*Options](i)
		urlStore := do.MustInvoke[shortener.Store](i)
		logger := do.MustInvoke[*zap.Logger](i)

		engineOpts := []shortener.Option{
			shortener.WithCodePrefix(opts.CodePrefix),
			shortener.WithLogger(logger),
		}

		if m, err := do.Invoke[*metrics.Metrics](i); err == nil {
			engineOpts = append(engineOpts, shortener.WithRecorder(m))
		}

		return shortener.NewEngine(urlStore, engineOpts...), nil
	})
}

// MetricsPackage provides the Prometheus collectors.
func MetricsPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*metrics.Metrics, error) {
		return metrics.New(), nil
	})
}

// HTTPPackage provides the router and the huma API with every route registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*chi.Mux, error) {
		m := do.MustInvoke[*metrics.Metrics](i)

		router := chi.NewMux()
		router.Handle("/metrics", m.Handler())

		return router, nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		router := do.MustInvoke[*chi.Mux](i)
		engine := do.MustInvoke[*shortener.Engine](i)
		backend := do.MustInvoke[*Backend](i)
		rdb := do.MustInvoke[*Redis](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		logger := do.MustInvoke[*zap.Logger](i)

		api := humachi.New(router, huma.DefaultConfig("lleria", "1.0.0"))
		api.UseMiddleware(
			middleware.RequestMetaMiddleware(api),
			middleware.AccessLog(logger),
			m.Middleware,
		)

		checks := map[string]health.Checker{
			"store": health.NewStoreChecker(backend.Store),
		}
		if rdb.Enabled() {
			checks["redis"] = health.NewRedisChecker(rdb.Client)
		}

		health.RegisterRoutes(api, health.NewHandler(checks))
		handlers.RegisterRoutes(api, handlers.NewURLHandler(engine, opts.PublicBaseURL(), logger))

		return api, nil
	})
}

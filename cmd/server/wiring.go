package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"certledger/internal/callertoken"
	"certledger/internal/eventlog/publisher"
	"certledger/internal/issuance"
	"certledger/internal/metadata"
	"certledger/internal/platform/config"
	"certledger/internal/platform/database"
	"certledger/internal/platform/health"
	platformkafka "certledger/internal/platform/kafka"
	"certledger/internal/platform/kafka/producer"
	"certledger/internal/platform/metrics"
	platformredis "certledger/internal/platform/redis"
	"certledger/internal/platform/tracer"
	"certledger/internal/registry/handler"
	registrymetrics "certledger/internal/registry/metrics"
	"certledger/internal/registry/service"
	"certledger/internal/registry/store"
	"certledger/internal/seeder"
	httptransport "certledger/internal/transport/http"
	"certledger/migrations"
	"certledger/pkg/platform/circuit"
	request "certledger/pkg/platform/middleware/request"
)

// app holds what run needs after wiring, plus the resources to release.
type app struct {
	router    http.Handler
	publisher *publisher.Worker
	redis     *platformredis.Client
	closers   []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func build(ctx context.Context, cfg config.Server, log *slog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	owner, err := cfg.Owner()
	if err != nil {
		return nil, err
	}
	tr := tracer.NewOTel()
	regMetrics := registrymetrics.New()
	collaborators := metrics.New()
	checks := health.New(cfg.Environment)

	backend, err := buildBackend(ctx, a, cfg, log, regMetrics, checks)
	if err != nil {
		return nil, err
	}

	registry := service.New(backend.Stores, append(backend.ServiceOptions(),
		service.WithLogger(log),
		service.WithMetrics(regMetrics),
		service.WithTracer(tr),
	)...)
	if err := registry.EnsureOwner(ctx, owner); err != nil {
		return nil, fmt.Errorf("initialize registry owner: %w", err)
	}

	blobs, err := buildMetadataStore(ctx, a, cfg, log, collaborators, checks)
	if err != nil {
		return nil, err
	}
	iss := issuance.New(registry, blobs, issuance.WithLogger(log), issuance.WithTracer(tr))

	if cfg.SeedFile != "" {
		seed, err := seeder.Load(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		if _, err := seeder.New(registry, iss, log).Apply(ctx, owner, seed); err != nil {
			return nil, err
		}
	}

	if cfg.Kafka.Brokers != "" {
		if err := startPublisher(ctx, a, cfg, log, backend, tr, checks); err != nil {
			return nil, err
		}
	}

	checks.SetInfo(func(ctx context.Context) map[string]any {
		total, err := registry.GetTotalCertificates(ctx)
		if err != nil {
			return nil
		}
		return map[string]any{"owner": owner.String(), "certificates": total}
	})

	tokens := callertoken.NewService(cfg.Token.SigningKey, cfg.Token.Issuer, cfg.Token.Audience, cfg.Token.TTL)
	a.router = httptransport.NewRouter(httptransport.Deps{
		Registry:       handler.New(registry, iss, log),
		Health:         checks,
		Tokens:         tokens,
		Metrics:        request.NewMetrics(),
		MetricsHandler: promhttp.Handler(),
		RequestTimeout: cfg.RequestTimeout,
		Logger:         log,
	})
	return a, nil
}

// buildBackend picks Postgres when a database URL is configured and the
// in-memory stores otherwise.
func buildBackend(ctx context.Context, a *app, cfg config.Server, log *slog.Logger, m *registrymetrics.Metrics, checks *health.Handler) (*store.Backend, error) {
	pool, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		log.Warn("no database configured, registry state is kept in memory")
		return store.NewInMemory(), nil
	}
	a.closers = append(a.closers, func() { _ = pool.Close() })

	if err := migrations.Apply(ctx, pool.DB()); err != nil {
		return nil, err
	}
	if err := pool.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		return nil, fmt.Errorf("register database metrics: %w", err)
	}
	checks.RegisterCheck("database", pool.Health)
	return store.NewPostgres(pool.DB(), m), nil
}

// buildMetadataStore pins to Pinata when credentials are configured and keeps
// documents in memory otherwise. Redis, when configured, fronts either one.
func buildMetadataStore(ctx context.Context, a *app, cfg config.Server, log *slog.Logger, m *metrics.Metrics, checks *health.Handler) (metadata.Store, error) {
	var blobs metadata.Store = metadata.NewMemoryStore()
	if cfg.Metadata.PinningEnabled() {
		blobs = metadata.NewPinningClient(cfg.Metadata,
			metadata.WithBreaker(circuit.New("pinata")),
			metadata.WithMetrics(m),
		)
	} else {
		log.Warn("no pinning credentials configured, metadata is kept in memory")
	}

	rc, err := platformredis.New(ctx, cfg.Redis, platformredis.NewPoolMetrics(prometheus.DefaultRegisterer))
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return blobs, nil
	}
	a.redis = rc
	a.closers = append(a.closers, func() { _ = rc.Close() })
	checks.RegisterCheck("redis", rc.Health)
	return metadata.NewCachedStore(blobs, rc, cfg.Redis.CacheTTL, log, m), nil
}

func startPublisher(ctx context.Context, a *app, cfg config.Server, log *slog.Logger, backend *store.Backend, tr tracer.Tracer, checks *health.Handler) error {
	admin, err := platformkafka.NewAdmin(cfg.Kafka.Brokers)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, admin.Close)
	if err := admin.EnsureTopic(ctx, cfg.Kafka.Topic, 1, 1); err != nil {
		return err
	}
	checks.RegisterCheck("kafka", admin.Health)

	prod, err := producer.New(cfg.Kafka, log)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() { _ = prod.Close() })

	a.publisher = publisher.New(backend.Outbox, prod,
		publisher.WithTopic(cfg.Kafka.Topic),
		publisher.WithBatchSize(cfg.Kafka.BatchSize),
		publisher.WithPollInterval(cfg.Kafka.PollInterval),
		publisher.WithMetrics(publisher.NewMetrics()),
		publisher.WithLogger(log),
		publisher.WithTracer(tr),
	)
	a.publisher.Start()
	return nil
}

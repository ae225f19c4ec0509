package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"crpstore/internal/crp/service"
	"crpstore/internal/crp/store"
	"crpstore/internal/platform/config"
	"crpstore/internal/platform/database"
	"crpstore/internal/platform/database/migrate"
	"crpstore/internal/platform/kafka/producer"
	"crpstore/internal/platform/redis"
	"crpstore/pkg/platform/audit/publisher"
	"crpstore/pkg/platform/audit/sink"
)

// auditBufferSize bounds events queued for the audit sink.
const auditBufferSize = 1024

type healthyStore interface {
	service.Store
	Health(ctx context.Context) error
}

type storeBackend struct {
	store healthyStore
	close func()
}

// openStore builds the backend selected by the DATABASE_URL scheme.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger, reg prometheus.Registerer) (*storeBackend, error) {
	sub, err := cfg.Substrate()
	if err != nil {
		return nil, err
	}

	switch sub {
	case config.SubstrateSQLite, config.SubstratePostgres:
		if cfg.MigrateOnStart {
			if err := migrate.Run(cfg.DatabaseURL, migrate.Up); err != nil {
				return nil, err
			}
			log.Info("schema migrated", "substrate", string(sub))
		}
		pool, err := database.New(ctx, database.Config{
			URL:             cfg.DatabaseURL,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		return &storeBackend{
			store: store.NewSQL(pool),
			close: func() {
				if err := pool.Close(); err != nil {
					log.Warn("closing database pool", "error", err)
				}
			},
		}, nil

	case config.SubstrateRedis:
		client, err := redis.New(ctx, redis.Config{URL: cfg.DatabaseURL, PoolSize: cfg.RedisPoolSize})
		if err != nil {
			return nil, err
		}
		if err := client.RegisterPoolMetrics(reg); err != nil {
			_ = client.Close()
			return nil, err
		}
		return &storeBackend{
			store: store.NewRedis(client.Client),
			close: func() {
				if err := client.Close(); err != nil {
					log.Warn("closing redis client", "error", err)
				}
			},
		}, nil

	case config.SubstrateMemory:
		log.Warn("using in-memory store; records are lost on restart")
		return &storeBackend{store: store.NewMemory(), close: func() {}}, nil
	}
	return nil, fmt.Errorf("unsupported substrate %q", sub)
}

type auditBackend struct {
	publisher *publisher.Publisher
	health    func(ctx context.Context) error
	close     func()
}

// openAudit sends audit events to Kafka when brokers are configured and to the
// log otherwise.
func openAudit(cfg *config.Config, log *slog.Logger) (*auditBackend, error) {
	if len(cfg.KafkaBrokersList()) == 0 {
		pub := publisher.NewPublisher(sink.NewLog(log), publisher.WithPublisherLogger(log))
		return &auditBackend{publisher: pub, close: pub.Close}, nil
	}

	prod, err := producer.New(producer.Config{Brokers: cfg.KafkaBrokers, Acks: "all", Retries: 3}, log)
	if err != nil {
		return nil, err
	}
	pub := publisher.NewPublisher(sink.NewKafka(prod, cfg.AuditKafkaTopic),
		publisher.WithAsyncBuffer(auditBufferSize),
		publisher.WithPublisherLogger(log),
	)
	log.Info("audit events routed to kafka", "topic", cfg.AuditKafkaTopic)
	return &auditBackend{
		publisher: pub,
		health:    prod.Health,
		close: func() {
			pub.Close()
			_ = prod.Close()
		},
	}, nil
}

package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mrops-br/catalog-api/internal/domain"
	"github.com/mrops-br/catalog-api/internal/infrastructure/config"
	"github.com/mrops-br/catalog-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/catalog-api/internal/infrastructure/repository/postgres"
	"github.com/mrops-br/catalog-api/internal/infrastructure/repository/redis"
	"go.opentelemetry.io/otel/trace"
)

// Store is an opened product repository and the function that releases it
type Store struct {
	Products domain.ProductRepository
	Close    func()
}

// Open connects the product repository selected by cfg.Storage.Driver
func Open(ctx context.Context, cfg *config.Config, tracer trace.Tracer, logger *slog.Logger) (*Store, error) {
	logger = logger.With(slog.String("storage.driver", cfg.Storage.Driver))

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		logger.Info("Using in-memory product repository")
		return &Store{
			Products: memory.NewProductRepository(tracer, logger),
			Close:    func() {},
		}, nil

	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("Connected to PostgreSQL")
		return &Store{
			Products: postgres.NewProductRepository(pool, tracer, logger),
			Close:    pool.Close,
		}, nil

	case config.DriverRedis:
		client, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, err
		}
		logger.Info("Connected to Redis", slog.String("addr", cfg.Redis.Addr))
		return &Store{
			Products: redis.NewProductRepository(client, cfg.Redis.KeyPrefix, tracer, logger),
			Close: func() {
				if err := client.Close(); err != nil {
					logger.Warn("Failed to close Redis client", slog.String("error", err.Error()))
				}
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

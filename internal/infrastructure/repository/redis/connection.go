package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/mrops-br/catalog-api/internal/infrastructure/config"
	goredis "github.com/redis/go-redis/v9"
)

// NewClient creates a Redis client and verifies it with a ping.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	return client, nil
}

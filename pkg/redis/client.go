package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Fosho-App/fosho-v1/pkg/logger"
)

// Client wraps the go-redis client.
type Client struct {
	*redis.Client
	log *logger.Logger
}

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// NewClient creates a Redis client and verifies connectivity.
func NewClient(ctx context.Context, cfg *Config, log *logger.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Info("redis client connected", zap.String("addr", cfg.Addr))
	return &Client{Client: rdb, log: log}, nil
}

// Healthy reports whether the connection still answers pings.
func (c *Client) Healthy(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

package redis

import (
	"context"
	"fmt"
	"time"

	goRedis "github.com/redis/go-redis/v9"

	"github.com/idforge/backend/internal/config"
)

const pingTimeout = 5 * time.Second

// NewClient connects to Redis from the configured URL, letting the explicit
// password and DB settings override whatever the URL encodes. The connection
// is verified with a ping before the client is handed out; session mirroring
// and the stats projector both ride on this one client.
func NewClient(cfg config.RedisConfig) (*goRedis.Client, error) {
	opts, err := goRedis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	opts.DialTimeout = pingTimeout
	opts.MinIdleConns = 2
	opts.MaxRetries = 3

	client := goRedis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

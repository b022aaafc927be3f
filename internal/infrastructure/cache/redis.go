package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/taskmaster/tasksync/internal/infrastructure/config"
	"github.com/taskmaster/tasksync/internal/infrastructure/logger"
)

// Redis wraps the go-redis client used by the event relay.
type Redis struct {
	*redis.Client
	addr string
}

const (
	maxConnectAttempts = 5
	initialRetryDelay  = 2 * time.Second
)

// NewRedis connects with exponential backoff between attempts.
func NewRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*Redis, error) {
	retryDelay := initialRetryDelay

	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.GetAddr(),
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 3,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			log.Infow("Redis connected", "addr", cfg.GetAddr(), "attempt", attempt)
			return &Redis{Client: client, addr: cfg.GetAddr()}, nil
		}
		_ = client.Close()

		log.Warnw("Redis connection failed", "addr", cfg.GetAddr(), "attempt", attempt, "error", err)
		if attempt == maxConnectAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
		retryDelay *= 2
	}

	return nil, fmt.Errorf("failed to connect to Redis at %s after %d attempts", cfg.GetAddr(), maxConnectAttempts)
}

// HealthCheck pings the server.
func (r *Redis) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := r.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

func (r *Redis) Addr() string {
	return r.addr
}

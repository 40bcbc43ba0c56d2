package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Options struct {
	Addr       string
	Username   string
	Password   string
	DB         int
	MaxRetries int           // connection attempts at startup, at least 1
	RetryDelay time.Duration // pause between attempts
}

// NewRedisClient connects and pings, retrying while Redis comes up.
func NewRedisClient(ctx context.Context, opts Options, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.Username,
		Password:     opts.Password,
		DB:           opts.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 1,
	})

	attempts := max(opts.MaxRetries, 1)

	var err error
	for i := 1; i <= attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = rdb.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			return rdb, nil
		}

		logger.Warn("redis ping failed",
			zap.String("addr", opts.Addr),
			zap.Int("attempt", i),
			zap.Int("max_attempts", attempts),
			zap.Error(err),
		)

		if i < attempts {
			select {
			case <-ctx.Done():
				_ = rdb.Close()
				return nil, ctx.Err()
			case <-time.After(opts.RetryDelay):
			}
		}
	}

	_ = rdb.Close()
	return nil, fmt.Errorf("ping redis: %w", err)
}

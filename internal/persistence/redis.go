package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/counselor-presence/internal/config"
)

const activityWindowPrefix = "presence:activity-window:"

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration. An empty
// address disables Redis and activity windows fall back to process memory.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Warn("REDIS_ADDR not provided; activity write windows are per-process")
		return &Redis{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Enabled reports whether a client is configured.
func (r *Redis) Enabled() bool {
	return r != nil && r.Client != nil
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity; a disabled client is always ready.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil {
		return errors.New("redis client not configured")
	}
	if r.Client == nil {
		return nil
	}
	return r.Client.Ping(ctx).Err()
}

// AcquireWindow claims the write window for key. It returns true for the first
// caller within window and false for every later caller until the window expires.
func (r *Redis) AcquireWindow(ctx context.Context, key string, window time.Duration) (bool, error) {
	if !r.Enabled() {
		return false, errors.New("redis client not configured")
	}
	return r.Client.SetNX(ctx, activityWindowPrefix+key, time.Now().UnixMilli(), window).Result()
}

// ReleaseWindow drops a claimed window so the next signal retries the write.
func (r *Redis) ReleaseWindow(ctx context.Context, key string) error {
	if !r.Enabled() {
		return nil
	}
	return r.Client.Del(ctx, activityWindowPrefix+key).Err()
}

package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/hms-service/internal/config"
)

// Redis wraps one long-lived go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis opens the command client used for cache, list and publish operations.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	return newRedis(cfg, logger, "command")
}

// NewRedisSubscriber opens the client reserved for receiving pushed pub/sub messages.
// It must not be used for request/response commands.
func NewRedisSubscriber(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	return newRedis(cfg, logger, "subscriber")
}

func newRedis(cfg config.RedisConfig, logger *zap.Logger, role string) *Redis {
	client := redis.NewClient(Options(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), dialBound(cfg))
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.String("client", role), zap.String("addr", cfg.Addr()), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("client", role), zap.String("addr", cfg.Addr()))
	}

	return &Redis{Client: client}
}

// Options translates configuration into go-redis options. Reconnects back off
// exponentially from MinRetryBackoff up to MaxRetryBackoff.
func Options(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:            cfg.Addr(),
		Password:        cfg.Password,
		DB:              cfg.DB,
		DialTimeout:     cfg.DialTimeout(),
		ReadTimeout:     cfg.IOTimeout(),
		WriteTimeout:    cfg.IOTimeout(),
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: cfg.MinRetryBackoff(),
		MaxRetryBackoff: cfg.MaxRetryBackoff(),
	}
}

func dialBound(cfg config.RedisConfig) time.Duration {
	if d := cfg.DialTimeout(); d > 0 {
		return d
	}
	return 5 * time.Second
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

package database

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pocketledger/backend/internal/config"
	"github.com/rs/zerolog"
)

// InitRedis returns a connected client, or nil when Redis is disabled or unreachable.
// Callers treat a nil client as "no token blacklist and no login throttling".
func InitRedis(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) *redis.Client {
	if !cfg.Enabled {
		logger.Info().Str("event", "redis_disabled").Msg("Redis disabled by configuration")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("event", "redis_unavailable").Msg("Redis connection failed, continuing without Redis")
		rdb.Close()
		return nil
	}

	logger.Info().Str("event", "redis_connected").Str("addr", cfg.Addr()).Msg("Redis connection established")
	return rdb
}

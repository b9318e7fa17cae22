package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// InitRedis conecta y hace ping. Si addr está vacío devuelve nil, nil: los
// componentes que usan Redis tienen alternativa en memoria.
func InitRedis(addr, password string, logger *zap.Logger) (*redis.Client, error) {
	if addr == "" {
		logger.Warn("REDIS_ADDR not set, running without redis")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established", zap.String("addr", addr))
	return rdb, nil
}

package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type RedisStore struct {
	rdb     RedisClient
	ttl     time.Duration
	nowFunc func() time.Time
}

func NewRedisStore(rdb RedisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, nowFunc: time.Now}
}

func redisKey(key string) string {
	return "checkout:idempotency:" + key
}

func (s *RedisStore) CreateIfNotExists(ctx context.Context, key string) (bool, error) {
	now := s.nowFunc().UTC()
	data, err := json.Marshal(Record{Key: key, Status: StatusInProgress, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		return false, fmt.Errorf("marshal record: %w", err)
	}

	ok, err := s.rdb.SetNX(ctx, redisKey(key), data, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	return ok, nil
}

// Get devuelve nil, nil si la clave no existe (o expiró).
func (s *RedisStore) Get(ctx context.Context, key string) (*Record, error) {
	data, err := s.rdb.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}

func (s *RedisStore) MarkDone(ctx context.Context, key, orderID string) error {
	rec, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	now := s.nowFunc().UTC()
	if rec == nil {
		rec = &Record{Key: key, CreatedAt: now}
	}
	rec.Status = StatusDone
	rec.OrderID = orderID
	rec.UpdatedAt = now

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKey(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set (mark done): %w", err)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("del: %w", err)
	}
	return nil
}

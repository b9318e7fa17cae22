package geo

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"restaurant-order-service/internal/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisClient es el subconjunto de *redis.Client que usa el cache.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedGeocoder guarda en Redis las direcciones ya resueltas. Solo se
// cachean resultados positivos; si Redis falla se consulta directo.
type CachedGeocoder struct {
	next Geocoder
	rdb  RedisClient
	ttl  time.Duration
	log  *zap.Logger
}

func NewCachedGeocoder(next Geocoder, rdb RedisClient, ttl time.Duration, log *zap.Logger) *CachedGeocoder {
	return &CachedGeocoder{next: next, rdb: rdb, ttl: ttl, log: log}
}

func cacheKey(address string) string {
	return "geocode:" + strings.ToLower(strings.Join(strings.Fields(address), " "))
}

func (c *CachedGeocoder) Geocode(ctx context.Context, address string) (*Point, error) {
	key := cacheKey(address)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p Point
		if err := json.Unmarshal(data, &p); err == nil {
			metrics.RecordGeocode("hit")
			return &p, nil
		}
		c.log.Warn("corrupt geocode cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.log.Warn("geocode cache read failed", zap.Error(err))
	}
	metrics.RecordGeocode("miss")

	p, err := c.next.Geocode(ctx, address)
	if err != nil || p == nil {
		return p, err
	}

	data, err = json.Marshal(p)
	if err == nil {
		err = c.rdb.Set(ctx, key, data, c.ttl).Err()
	}
	if err != nil {
		c.log.Warn("geocode cache write failed", zap.Error(err))
	}
	return p, nil
}

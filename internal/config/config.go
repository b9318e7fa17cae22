// config.go
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Env         string
	Port        string
	MongoURI    string
	MongoDBName string
	RabbitURL   string
	AuthURL     string
	JWTSecret   string

	RedisAddr     string
	RedisPassword string

	GoogleMapsKey string
	StripeKey     string

	DeliveryCenterLat    float64
	DeliveryCenterLng    float64
	DeliveryRadiusMeters float64
	DeliveryFee          float64

	FeedPollInterval time.Duration
	IdempotencyTTL   time.Duration
}

// Load lee .env (si existe) y después las variables de entorno.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Env:         getEnv("APP_ENV", "production"),
		Port:        getEnv("PORT", "8080"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://host.docker.internal:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "restaurant_orders"),
		RabbitURL:   getEnv("RABBIT_URL", "amqp://host.docker.internal"),
		AuthURL:     getEnv("AUTH_URL", "http://host.docker.internal:3000"),
		JWTSecret:   getEnv("AUTH_JWT_SECRET", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		GoogleMapsKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
		StripeKey:     getEnv("STRIPE_SECRET_KEY", ""),

		DeliveryCenterLat:    getFloat("DELIVERY_CENTER_LAT", -23.675536),
		DeliveryCenterLng:    getFloat("DELIVERY_CENTER_LNG", -46.643402),
		DeliveryRadiusMeters: getFloat("DELIVERY_RADIUS_METERS", 10000),
		DeliveryFee:          getFloat("DELIVERY_FEE", 10),

		FeedPollInterval: getDuration("FEED_POLL_INTERVAL", 3*time.Second),
		IdempotencyTTL:   getDuration("IDEMPOTENCY_TTL", 24*time.Hour),
	}
}

// Logger arma el logger según el entorno.
func (c *Config) Logger() (*zap.Logger, error) {
	if c.Env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

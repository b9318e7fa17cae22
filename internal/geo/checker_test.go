package geo

import (
	"context"
	"errors"
	"testing"
	"time"

	"restaurant-order-service/internal/circuitbreaker"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Geocode(ctx context.Context, address string) (*Point, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Point), args.Error(1)
}

type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.StringCmd)
}

func (m *MockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return args.Get(0).(*redis.StatusCmd)
}

func TestChecker_Check(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(*MockGeocoder)
		want       bool
	}{
		{
			name: "inside radius",
			setupMocks: func(g *MockGeocoder) {
				g.On("Geocode", mock.Anything, "Rua A, 10").Return(&Point{Lat: -23.68, Lng: -46.65}, nil)
			},
			want: true,
		},
		{
			name: "outside radius",
			setupMocks: func(g *MockGeocoder) {
				g.On("Geocode", mock.Anything, "Rua A, 10").Return(&Point{Lat: -23.5505, Lng: -46.6333}, nil)
			},
			want: false,
		},
		{
			name: "no candidates",
			setupMocks: func(g *MockGeocoder) {
				g.On("Geocode", mock.Anything, "Rua A, 10").Return(nil, nil)
			},
			want: false,
		},
		{
			name: "geocoder error fails closed",
			setupMocks: func(g *MockGeocoder) {
				g.On("Geocode", mock.Anything, "Rua A, 10").Return(nil, ErrGeocoderUnavailable)
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &MockGeocoder{}
			tt.setupMocks(g)
			c := NewChecker(g, storeCenter, 10000, zaptest.NewLogger(t))

			assert.Equal(t, tt.want, c.Check(context.Background(), "Rua A, 10"))
			g.AssertExpectations(t)
		})
	}
}

func TestChecker_WithoutGeocoder(t *testing.T) {
	c := NewChecker(nil, storeCenter, 10000, zaptest.NewLogger(t))
	assert.False(t, c.Check(context.Background(), "Rua A, 10"))
}

func TestCachedGeocoder_MissThenStore(t *testing.T) {
	g := &MockGeocoder{}
	rdb := &MockRedisClient{}
	key := "geocode:rua a, 10"

	rdb.On("Get", mock.Anything, key).Return(redis.NewStringResult("", redis.Nil))
	g.On("Geocode", mock.Anything, "  Rua A,   10 ").Return(&Point{Lat: -23.68, Lng: -46.65}, nil)
	rdb.On("Set", mock.Anything, key, mock.Anything, time.Hour).Return(redis.NewStatusResult("OK", nil))

	c := NewCachedGeocoder(g, rdb, time.Hour, zaptest.NewLogger(t))
	p, err := c.Geocode(context.Background(), "  Rua A,   10 ")

	require.NoError(t, err)
	assert.Equal(t, -23.68, p.Lat)
	g.AssertExpectations(t)
	rdb.AssertExpectations(t)
}

func TestCachedGeocoder_Hit(t *testing.T) {
	g := &MockGeocoder{}
	rdb := &MockRedisClient{}
	rdb.On("Get", mock.Anything, "geocode:rua a, 10").Return(redis.NewStringResult(`{"lat":-23.68,"lng":-46.65}`, nil))

	c := NewCachedGeocoder(g, rdb, time.Hour, zaptest.NewLogger(t))
	p, err := c.Geocode(context.Background(), "Rua A, 10")

	require.NoError(t, err)
	assert.Equal(t, Point{Lat: -23.68, Lng: -46.65}, *p)
	g.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything)
}

func TestCachedGeocoder_RedisDownFallsThrough(t *testing.T) {
	g := &MockGeocoder{}
	rdb := &MockRedisClient{}
	rdb.On("Get", mock.Anything, mock.Anything).Return(redis.NewStringResult("", errors.New("connection refused")))
	rdb.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(redis.NewStatusResult("", errors.New("connection refused")))
	g.On("Geocode", mock.Anything, "Rua A, 10").Return(&Point{Lat: 1, Lng: 2}, nil)

	c := NewCachedGeocoder(g, rdb, time.Hour, zaptest.NewLogger(t))
	p, err := c.Geocode(context.Background(), "Rua A, 10")

	require.NoError(t, err)
	assert.Equal(t, 1.0, p.Lat)
}

func TestCachedGeocoder_NotFoundIsNotCached(t *testing.T) {
	g := &MockGeocoder{}
	rdb := &MockRedisClient{}
	rdb.On("Get", mock.Anything, mock.Anything).Return(redis.NewStringResult("", redis.Nil))
	g.On("Geocode", mock.Anything, "nowhere").Return(nil, nil)

	c := NewCachedGeocoder(g, rdb, time.Hour, zaptest.NewLogger(t))
	p, err := c.Geocode(context.Background(), "nowhere")

	require.NoError(t, err)
	assert.Nil(t, p)
	rdb.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBreakerGeocoder_OpensAfterFailures(t *testing.T) {
	g := &MockGeocoder{}
	g.On("Geocode", mock.Anything, "Rua A, 10").Return(nil, ErrGeocoderUnavailable).Times(2)

	b := NewBreakerGeocoder(g, circuitbreaker.NewCircuitBreaker(2, time.Minute))
	for i := 0; i < 2; i++ {
		_, err := b.Geocode(context.Background(), "Rua A, 10")
		assert.ErrorIs(t, err, ErrGeocoderUnavailable)
	}

	_, err := b.Geocode(context.Background(), "Rua A, 10")
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	g.AssertExpectations(t)
}

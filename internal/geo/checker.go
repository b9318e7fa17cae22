package geo

import (
	"context"

	"restaurant-order-service/internal/metrics"

	"go.uber.org/zap"
)

// Checker responde si una dirección está dentro del área de entrega.
// Ante cualquier duda (geocoder caído, sin resultados) responde false.
type Checker struct {
	geocoder Geocoder
	center   Point
	radius   float64
	log      *zap.Logger
}

func NewChecker(g Geocoder, center Point, radiusMeters float64, log *zap.Logger) *Checker {
	return &Checker{geocoder: g, center: center, radius: radiusMeters, log: log}
}

func (c *Checker) Check(ctx context.Context, address string) bool {
	if c.geocoder == nil || address == "" {
		return false
	}

	p, err := c.geocoder.Geocode(ctx, address)
	if err != nil {
		metrics.RecordGeocode("error")
		c.log.Warn("geocoding failed, treating address as out of range", zap.Error(err))
		return false
	}
	if p == nil {
		metrics.RecordGeocode("not_found")
		return false
	}

	return IsWithinDeliveryRadius(c.center, *p, c.radius)
}

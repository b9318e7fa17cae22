package geo

import (
	"context"
	"errors"
	"fmt"

	"restaurant-order-service/internal/circuitbreaker"

	"googlemaps.github.io/maps"
)

var ErrGeocoderUnavailable = errors.New("geocoder no disponible")

// Geocoder resuelve una dirección. Sin candidatos devuelve nil, nil.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Point, error)
}

type GoogleGeocoder struct {
	client *maps.Client
	region string
}

func NewGoogleGeocoder(apiKey string) (*GoogleGeocoder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: falta GOOGLE_MAPS_API_KEY", ErrGeocoderUnavailable)
	}
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeocoderUnavailable, err)
	}
	return &GoogleGeocoder{client: c, region: "br"}, nil
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (*Point, error) {
	res, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
		Address: address,
		Region:  g.region,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeocoderUnavailable, err)
	}
	// ZERO_RESULTS llega como lista vacía
	if len(res) == 0 {
		return nil, nil
	}
	loc := res[0].Geometry.Location
	return &Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// BreakerGeocoder corta las llamadas mientras el proveedor viene fallando.
type BreakerGeocoder struct {
	next Geocoder
	cb   *circuitbreaker.CircuitBreaker
}

func NewBreakerGeocoder(next Geocoder, cb *circuitbreaker.CircuitBreaker) *BreakerGeocoder {
	return &BreakerGeocoder{next: next, cb: cb}
}

func (b *BreakerGeocoder) Geocode(ctx context.Context, address string) (*Point, error) {
	var p *Point
	err := b.cb.Execute(ctx, func() error {
		var err error
		p, err = b.next.Geocode(ctx, address)
		return err
	})
	return p, err
}

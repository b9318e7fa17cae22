// Package geo decide si una dirección está dentro del radio de entrega.
package geo

import "math"

const earthRadiusMeters = 6371e3

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HaversineMeters devuelve la distancia sobre la esfera, en metros.
func HaversineMeters(a, b Point) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	dPhi := (b.Lat - a.Lat) * math.Pi / 180
	dLambda := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// IsWithinDeliveryRadius: el borde cuenta como adentro.
func IsWithinDeliveryRadius(a, b Point, radiusMeters float64) bool {
	return HaversineMeters(a, b) <= radiusMeters
}

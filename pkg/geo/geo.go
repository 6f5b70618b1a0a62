// Package geo holds the coordinate helpers used to rank catalog entries by proximity.
package geo

import (
	"fmt"
	"math"
)

const (
	// EarthRadiusKm is the mean Earth radius used by the haversine formula.
	EarthRadiusKm = 6371.0
	// DeliveryKmPerDay is the distance covered per estimated delivery day.
	DeliveryKmPerDay = 300.0
)

// Point is a latitude/longitude pair expressed in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewPoint returns a point when both coordinates are present and within range, nil
// otherwise. Out-of-range coordinates are treated as unknown.
func NewPoint(lat, lng *float64) *Point {
	if lat == nil || lng == nil {
		return nil
	}
	p := Point{Lat: *lat, Lng: *lng}
	if !p.Valid() {
		return nil
	}
	return &p
}

// Valid reports whether the point lies within the WGS84 coordinate ranges.
func (p Point) Valid() bool {
	return finite(p.Lat) && finite(p.Lng) &&
		p.Lat >= -90 && p.Lat <= 90 &&
		p.Lng >= -180 && p.Lng <= 180
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// Equal compares two optional points; two nil points are equal.
func Equal(a, b *Point) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Lat == b.Lat && a.Lng == b.Lng
}

// Distance returns the great-circle distance in kilometers between a and b.
// It returns nil when either point is unknown or carries a non-finite coordinate;
// callers must not read nil as near or far.
func Distance(a, b *Point) *float64 {
	if a == nil || b == nil {
		return nil
	}
	if !finite(a.Lat) || !finite(a.Lng) || !finite(b.Lat) || !finite(b.Lng) {
		return nil
	}

	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	km := EarthRadiusKm * c
	return &km
}

// EstimateDeliveryDays maps a distance to a whole-day delivery estimate: one day per
// DeliveryKmPerDay, never less than one. Unknown distance estimates one day.
func EstimateDeliveryDays(distanceKm *float64) int {
	if distanceKm == nil || !finite(*distanceKm) {
		return 1
	}
	days := int(math.Ceil(*distanceKm / DeliveryKmPerDay))
	if days < 1 {
		return 1
	}
	return days
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

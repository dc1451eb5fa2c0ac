package geo

import "math"

const earthRadiusMeters = 6371000

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Valid reports whether p lies within latitude [-90, 90] and longitude [-180, 180].
func (p Point) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// Distance returns the great-circle distance between a and b in meters (haversine).
func Distance(a, b Point) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)

	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Fence is a circle around Center. A zero Radius means no fence.
type Fence struct {
	Center Point
	Radius float64 // meters
}

func (f Fence) Enabled() bool {
	return f.Radius > 0
}

// Contains reports whether p is within the fence. A disabled fence contains everything.
func (f Fence) Contains(p Point) bool {
	if !f.Enabled() {
		return true
	}
	return Distance(f.Center, p) <= f.Radius
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Package geo provides great-circle distance calculations for proximity
// search. Haversine is accurate to well under 0.5% at the city-scale radii
// used by the marketplace.
package geo

import "math"

// EarthRadiusKm is the mean earth radius.
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometers between two
// (latitude, longitude) points given in degrees.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// ValidCoordinates reports whether the pair is a plausible WGS84 position.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

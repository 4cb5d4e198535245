package geo

import (
	"math"

	"tracking-service/internal/model"
)

const earthRadiusM = 6371000.0

// IsValid reports whether a GPS fix can be trusted for rendering or
// map-centering. It rejects non-finite values, out-of-range values and the
// exact (0,0) sentinel that misbehaving hardware sends for "no fix".
func IsValid(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return false
	}
	if lat == 0 && lng == 0 {
		return false
	}
	return true
}

// FilterValid drops every invalid point, preserving order. One bad fix
// never discards the rest of the series.
func FilterValid(points []model.LocationPoint) []model.LocationPoint {
	valid := make([]model.LocationPoint, 0, len(points))
	for _, p := range points {
		if IsValid(p.Lat, p.Lng) {
			valid = append(valid, p)
		}
	}
	return valid
}

// Distance returns the haversine distance in meters between two fixes.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * c
}

// PathDistance sums segment distances over an ordered point series.
func PathDistance(points []model.LocationPoint) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1].Lat, points[i-1].Lng, points[i].Lat, points[i].Lng)
	}
	return total
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

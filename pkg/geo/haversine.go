package geo

import (
	"errors"
	"math"
)

const earthRadiusMeters = 6_371_000.0

// ErrInvalidCoordinate is returned for NaN, infinite or out-of-range coordinates.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// LatLng represents a geographic coordinate in degrees.
type LatLng struct {
	Lat float64
	Lng float64
}

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Distance is Haversine over two LatLng values.
func Distance(a, b LatLng) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

// Validate reports whether ll is a finite coordinate inside the valid
// latitude/longitude ranges.
func Validate(ll LatLng) error {
	if math.IsNaN(ll.Lat) || math.IsNaN(ll.Lng) || math.IsInf(ll.Lat, 0) || math.IsInf(ll.Lng, 0) {
		return ErrInvalidCoordinate
	}
	if ll.Lat < -90 || ll.Lat > 90 || ll.Lng < -180 || ll.Lng > 180 {
		return ErrInvalidCoordinate
	}
	return nil
}

// boxSlackDegrees widens search boxes to absorb floating-point error at the edges.
const boxSlackDegrees = 1e-9

// SearchBox returns a [lng, lat] bounding box containing every point whose
// great-circle distance to center is at most radiusMeters.
// ok is false when the spherical cap reaches a pole or wraps across the
// antimeridian; no single box describes it then.
func SearchBox(center LatLng, radiusMeters float64) (min, max [2]float64, ok bool) {
	if radiusMeters < 0 || math.IsNaN(radiusMeters) {
		return min, max, false
	}
	angular := radiusMeters / earthRadiusMeters
	if angular >= math.Pi/2 {
		return min, max, false
	}

	dLat := angular * 180 / math.Pi
	if center.Lat+dLat >= 90 || center.Lat-dLat <= -90 {
		return min, max, false
	}

	// Maximum longitude offset of a cap that does not contain a pole.
	s := math.Sin(angular) / math.Cos(center.Lat*math.Pi/180)
	if s >= 1 {
		return min, max, false
	}
	dLon := math.Asin(s) * 180 / math.Pi
	if center.Lng-dLon < -180 || center.Lng+dLon > 180 {
		return min, max, false
	}

	min = [2]float64{center.Lng - dLon - boxSlackDegrees, center.Lat - dLat - boxSlackDegrees}
	max = [2]float64{center.Lng + dLon + boxSlackDegrees, center.Lat + dLat + boxSlackDegrees}
	return min, max, true
}

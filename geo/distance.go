package geo

import "math"

// earthRadiusM is Earth's mean radius in meters.
const earthRadiusM = 6371000.0

// metersPerDegree is the approximate length of one degree of latitude.
const metersPerDegree = 111320.0

// Haversine returns the great-circle distance in meters between two
// coordinates.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := lat1 * math.Pi / 180
	p2 := lat2 * math.Pi / 180
	dLat := p2 - p1
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(p1)*math.Cos(p2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// OffsetPoint returns a point displaced from the center by up to
// radiusM meters on each axis, using the equirectangular
// approximation: one degree of latitude is ~111,320 m and longitude
// shrinks with cos(latitude).
func OffsetPoint(centerLat, centerLon, radiusM float64, rnd func() float64) (lat, lon float64) {
	dLat := uniform(rnd, -radiusM, radiusM) / metersPerDegree
	dLon := uniform(rnd, -radiusM, radiusM) /
		(metersPerDegree * math.Max(0.0001, math.Cos(centerLat*math.Pi/180)))
	return centerLat + dLat, centerLon + dLon
}

func uniform(rnd func() float64, lo, hi float64) float64 {
	return lo + rnd()*(hi-lo)
}

package grid

import "math"

// EarthRadius is the sphere radius, in metres, used for great-circle distances.
const EarthRadius = 6367000.0

// GeodesicDistance returns the haversine distance in metres between two
// points given in degrees.
func GeodesicDistance(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1, rlat2 := lat1*math.Pi/180, lat2*math.Pi/180
	dlat := rlat2 - rlat1
	dlon := (lon2 - lon1) * math.Pi / 180
	a := math.Pow(math.Sin(dlat/2), 2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Pow(math.Sin(dlon/2), 2)
	return 2 * EarthRadius * math.Asin(math.Min(1, math.Sqrt(a)))
}

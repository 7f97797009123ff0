package astro

import "math"

// AngularDistance returns the great-circle distance in radians between two
// points given as (latitude-like, longitude-like) degree pairs.
//
// The cosine argument is clamped to [-1, 1] so that identical or antipodal
// points yield exactly 0 or π instead of NaN from rounding.
func AngularDistance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := degToRad(lat1)
	phi2 := degToRad(lat2)
	dLon := degToRad(lon2 - lon1)

	cosD := math.Sin(phi1)*math.Sin(phi2) + math.Cos(phi1)*math.Cos(phi2)*math.Cos(dLon)
	return math.Acos(clampUnit(cosD))
}

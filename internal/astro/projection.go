package astro

import "math"

// Offset is a star's render displacement from the anchor, in degrees.
type Offset struct {
	Index int // Position of the star in the input slice
	North float64
	East  float64
}

// Apply returns the map coordinate of the offset around the anchor.
func (o Offset) Apply(anchor Anchor) Point {
	return Point{Lat: anchor.LatDeg + o.North, Lon: anchor.LonDeg + o.East}
}

// ProjectOffsets places stars around their mean RA/Dec.
//
// The north offset is the declination difference; the east offset is the RA
// difference in degrees compressed by cos(anchor.RefLatDeg). This is a flat
// approximation that ignores RA wrap-around at 0h/24h. Stars missing either
// coordinate produce no offset and do not contribute to the means. The input
// is not modified.
func ProjectOffsets(stars []Star, anchor Anchor) []Offset {
	var sumRA, sumDec float64
	n := 0
	for _, s := range stars {
		if !s.HasPosition() {
			continue
		}
		sumRA += *s.RAHours
		sumDec += *s.DecDeg
		n++
	}
	if n == 0 {
		return nil
	}
	meanRA := sumRA / float64(n)
	meanDec := sumDec / float64(n)
	compress := math.Cos(degToRad(anchor.RefLatDeg))

	offsets := make([]Offset, 0, n)
	for i, s := range stars {
		if !s.HasPosition() {
			continue
		}
		offsets = append(offsets, Offset{
			Index: i,
			North: *s.DecDeg - meanDec,
			East:  (*s.RAHours - meanRA) * 15 * compress,
		})
	}
	return offsets
}

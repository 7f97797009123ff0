package astro

// ResolveZenith returns the star closest to the observer's zenith.
//
// The observer's longitude is used directly as the hour angle, so the star's
// equatorial position (Dec, RA*15) is compared against (lat, lon) without any
// sidereal-time correction. See TrueZenith for the corrected position.
// Stars without RA or Dec are skipped and ties keep the earlier star.
func ResolveZenith(obs Observer, stars []Star) (Star, bool) {
	i := ResolveZenithIndex(obs, stars)
	if i < 0 {
		return Star{}, false
	}
	return stars[i], true
}

// ResolveZenithIndex is ResolveZenith returning the index into stars, or -1.
func ResolveZenithIndex(obs Observer, stars []Star) int {
	best := -1
	bestDist := 0.0
	for i, s := range stars {
		if !s.HasPosition() {
			continue
		}
		d := AngularDistance(obs.LatDeg, obs.LonDeg, *s.DecDeg, *s.RAHours*15)
		if best < 0 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

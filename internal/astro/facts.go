package astro

import (
	"fmt"
	"math"
)

// LightYearsPerParsec converts parsecs to light years.
const LightYearsPerParsec = 3.26156

// DistanceParsecs returns the distance implied by a parallax in milliarcseconds.
// ok is false when the parallax is missing or not positive.
func DistanceParsecs(parallaxMas *float64) (pc float64, ok bool) {
	if parallaxMas == nil || *parallaxMas <= 0 {
		return 0, false
	}
	return 1000 / *parallaxMas, true
}

// DistanceLightYears is DistanceParsecs in light years.
func DistanceLightYears(parallaxMas *float64) (float64, bool) {
	pc, ok := DistanceParsecs(parallaxMas)
	if !ok {
		return 0, false
	}
	return pc * LightYearsPerParsec, true
}

// AbsoluteMagnitude derives the absolute magnitude from apparent magnitude
// and parallax in milliarcseconds.
func AbsoluteMagnitude(gMag, parallaxMas float64) (float64, bool) {
	if parallaxMas <= 0 {
		return 0, false
	}
	return gMag + 5*math.Log10(parallaxMas) - 10, true
}

// ProperMotionTotal combines the RA and Dec proper motion components (mas/yr).
func ProperMotionTotal(pmRA, pmDec float64) float64 {
	return math.Hypot(pmRA, pmDec)
}

type spectralBand struct {
	class     string
	low, high float64
}

// Upper bounds are exclusive; O is open below and M open above.
var spectralBands = []spectralBand{
	{"O", -1.0, -0.3},
	{"B", -0.3, 0.0},
	{"A", 0.0, 0.3},
	{"F", 0.3, 0.7},
	{"G", 0.7, 1.1},
	{"K", 1.1, 1.8},
	{"M", 1.8, 3.0},
}

// SpectralType estimates an MK-style type such as "G2 V" from the BP-RP
// colour index and absolute magnitude.
func SpectralType(colorIndex, absMag float64) string {
	band := spectralBands[len(spectralBands)-1]
	for _, b := range spectralBands {
		if colorIndex < b.high {
			band = b
			break
		}
	}

	frac := (colorIndex - band.low) / (band.high - band.low)
	sub := int(frac * 10)
	if sub < 0 {
		sub = 0
	}
	if sub > 9 {
		sub = 9
	}

	lum := "III"
	if absMag > 2 {
		lum = "V"
	}
	return fmt.Sprintf("%s%d %s", band.class, sub, lum)
}

// Facts are derived quantities shown in reports and popups.
type Facts struct {
	DistancePc   *float64
	DistanceLy   *float64
	AbsMag       *float64
	ProperMotion *float64
	SpectralType string
}

// FactsFor derives whatever facts the star's measurements allow.
func FactsFor(s Star) Facts {
	var f Facts
	if pc, ok := DistanceParsecs(s.Parallax); ok {
		f.DistancePc = Float(pc)
		f.DistanceLy = Float(pc * LightYearsPerParsec)
	}
	if s.GMag != nil && s.Parallax != nil {
		if m, ok := AbsoluteMagnitude(*s.GMag, *s.Parallax); ok {
			f.AbsMag = Float(m)
		}
	}
	if s.PMRA != nil && s.PMDec != nil {
		f.ProperMotion = Float(ProperMotionTotal(*s.PMRA, *s.PMDec))
	}
	if s.BPRP != nil && f.AbsMag != nil {
		f.SpectralType = SpectralType(*s.BPRP, *f.AbsMag)
	}
	return f
}

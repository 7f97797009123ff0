// Package astro provides the celestial geometry behind the star map: angular
// distances, RA/Dec offset projection, zenith star resolution and the visual
// attributes used to draw each star.
package astro

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
)

// ErrInvalidObserver is returned when an observer location is out of range.
var ErrInvalidObserver = errors.New("invalid observer location")

// Observer is a location on Earth's surface asking "what star is directly overhead".
type Observer struct {
	LatDeg float64 // Latitude in degrees (north positive)
	LonDeg float64 // Longitude in degrees (east positive)
}

// Validate checks that the observer lies within geographic bounds.
func (o Observer) Validate() error {
	if math.IsNaN(o.LatDeg) || math.IsInf(o.LatDeg, 0) || math.IsNaN(o.LonDeg) || math.IsInf(o.LonDeg, 0) {
		return fmt.Errorf("%w: non-finite coordinate", ErrInvalidObserver)
	}
	if o.LatDeg < -90 || o.LatDeg > 90 {
		return fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidObserver, o.LatDeg)
	}
	if o.LonDeg < -180 || o.LonDeg > 180 {
		return fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrInvalidObserver, o.LonDeg)
	}
	return nil
}

// Anchor is the map coordinate all render offsets are computed against.
// RefLatDeg drives the longitude-compression factor of the projection.
type Anchor struct {
	LatDeg    float64
	LonDeg    float64
	RefLatDeg float64
}

// LiveAnchor anchors a live query at the observer, compressing by its latitude.
func LiveAnchor(obs Observer) Anchor {
	return Anchor{LatDeg: obs.LatDeg, LonDeg: obs.LonDeg, RefLatDeg: obs.LatDeg}
}

// Horizontal is an observer-relative position.
type Horizontal struct {
	AzDeg float64 // Azimuth in degrees (0=N, 90=E, 180=S, 270=W)
	ElDeg float64 // Elevation in degrees (0=horizon, 90=zenith)
}

// EquatorialToHorizontal converts RA (hours) and Dec (degrees) to azimuth and
// elevation for the observer at time t, using true local sidereal time.
func EquatorialToHorizontal(raHours, decDeg float64, obs Observer, t time.Time) Horizontal {
	lat := degToRad(obs.LatDeg)
	ra := degToRad(raHours * 15)
	dec := degToRad(decDeg)

	ha := degToRad(LocalSiderealTime(t, obs.LonDeg)) - ra

	sinAlt := math.Sin(dec)*math.Sin(lat) + math.Cos(dec)*math.Cos(lat)*math.Cos(ha)
	alt := math.Asin(clampUnit(sinAlt))

	cosAz := (math.Sin(dec) - math.Sin(alt)*math.Sin(lat)) / (math.Cos(alt) * math.Cos(lat))
	az := math.Acos(clampUnit(cosAz))

	// Positive hour angle puts the object west of the meridian.
	if math.Sin(ha) > 0 {
		az = 2*math.Pi - az
	}
	if math.IsNaN(az) {
		az = 0
	}

	return Horizontal{AzDeg: radToDeg(az), ElDeg: radToDeg(alt)}
}

// HorizontalFor is EquatorialToHorizontal for a catalogue star. ok is false
// when the star has no position.
func HorizontalFor(s Star, obs Observer, t time.Time) (h Horizontal, ok bool) {
	if !s.HasPosition() {
		return Horizontal{}, false
	}
	return EquatorialToHorizontal(*s.RAHours, *s.DecDeg, obs, t), true
}

// LocalSiderealTime returns the local mean sidereal time in degrees [0, 360)
// for a UTC instant and an east-positive longitude.
func LocalSiderealTime(t time.Time, lonDeg float64) float64 {
	return normalizeAngle360(greenwichMeanSiderealTime(t) + lonDeg)
}

// greenwichMeanSiderealTime returns GMST in degrees.
func greenwichMeanSiderealTime(t time.Time) float64 {
	st := sidereal.Mean(julianDate(t))
	// sidereal.Mean reports seconds of sidereal day.
	return normalizeAngle360(float64(st) / 86400 * 360)
}

func julianDate(t time.Time) float64 {
	return julian.TimeToJD(t.UTC())
}

// TrueZenith returns the sidereal-correct equatorial position of the zenith
// (RA in hours, Dec in degrees). It is informational only: zenith star
// resolution keeps treating longitude as hour angle.
func TrueZenith(obs Observer, t time.Time) (raHours, decDeg float64) {
	return LocalSiderealTime(t, obs.LonDeg) / 15, obs.LatDeg
}

// degToRad converts degrees to radians.
func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// radToDeg converts radians to degrees.
func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// normalizeAngle360 normalizes an angle to 0-360 degrees.
func normalizeAngle360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

func clampUnit(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

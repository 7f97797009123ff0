package astro

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Defaults applied when a star lacks photometry.
const (
	DefaultColorIndex = 1.0
	DefaultMagnitude  = 20.0
)

// Magnitude window over which marker size scales linearly.
const (
	brightMagLimit = 12.0
	faintMagLimit  = 19.5
)

// RGB is a display colour with each channel in [0, 255].
type RGB struct {
	R, G, B float64
}

// Hex formats the colour as #rrggbb.
func (c RGB) Hex() string {
	return colorful.Color{R: c.R / 255, G: c.G / 255, B: c.B / 255}.Clamped().Hex()
}

// Bytes returns the channels rounded to the nearest integer.
func (c RGB) Bytes() (r, g, b uint8) {
	return uint8(math.Round(c.R)), uint8(math.Round(c.G)), uint8(math.Round(c.B))
}

// ColorIndexToTemperature converts a BP-RP colour index to an effective
// temperature in kelvin.
func ColorIndexToTemperature(bpRp float64) float64 {
	return 4600 * (1/(0.92*bpRp+1.7) + 1/(0.92*bpRp+0.62))
}

// TemperatureToRGB approximates the blackbody colour of a temperature in kelvin.
func TemperatureToRGB(kelvin float64) RGB {
	t := kelvin / 100
	var c RGB

	if t <= 66 {
		c.R = 255
	} else {
		c.R = 329.698727446 * math.Pow(t-60, -0.1332047592)
	}

	if t <= 66 {
		c.G = 99.4708025861*math.Log(t) - 161.1195681661
	} else {
		c.G = 288.1221695283 * math.Pow(t-60, -0.0755148492)
	}

	switch {
	case t >= 66:
		c.B = 255
	case t <= 19:
		c.B = 0
	default:
		c.B = 138.5177312231*math.Log(t-10) - 305.0447927307
	}

	c.R = clampChannel(c.R)
	c.G = clampChannel(c.G)
	c.B = clampChannel(c.B)
	return c
}

func clampChannel(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// SizeMapper maps apparent magnitude to a marker size.
type SizeMapper struct {
	MinSize float64
	MaxSize float64
}

// DefaultSizeMapper returns the 4..12 size range.
func DefaultSizeMapper() SizeMapper {
	return SizeMapper{MinSize: 4, MaxSize: 12}
}

// Size returns MaxSize for stars brighter than magnitude 12, MinSize for
// stars fainter than 19.5, and interpolates linearly in between.
func (m SizeMapper) Size(mag float64) float64 {
	if mag < brightMagLimit {
		return m.MaxSize
	}
	if mag > faintMagLimit {
		return m.MinSize
	}
	return m.MaxSize - (mag-brightMagLimit)*(m.MaxSize-m.MinSize)/(faintMagLimit-brightMagLimit)
}

// Visual is how a star is drawn.
type Visual struct {
	Color        RGB
	Temperature  float64 // kelvin
	Size         float64
	Radius       float64 // visible marker radius
	HitboxRadius float64 // click target radius
}

// VisualFor derives a star's colour and size, substituting defaults for
// missing colour index or magnitude.
func VisualFor(s Star, sizes SizeMapper) Visual {
	ci := DefaultColorIndex
	if s.BPRP != nil {
		ci = *s.BPRP
	}
	mag := DefaultMagnitude
	if s.GMag != nil {
		mag = *s.GMag
	}

	temp := ColorIndexToTemperature(ci)
	size := sizes.Size(mag)
	return Visual{
		Color:        TemperatureToRGB(temp),
		Temperature:  temp,
		Size:         size,
		Radius:       size * 1.5,
		HitboxRadius: size * 2.5,
	}
}

package astro

import (
	"math"
	"regexp"
	"testing"
)

func TestColorIndexToTemperature(t *testing.T) {
	tests := []struct {
		ci   float64
		want float64
	}{
		{0.0, 4600 * (1/1.7 + 1/0.62)},
		{0.82, 5221},
	}
	for _, tt := range tests {
		got := ColorIndexToTemperature(tt.ci)
		if math.Abs(got-tt.want) > 100 {
			t.Errorf("ColorIndexToTemperature(%v) = %v, want ~%v", tt.ci, got, tt.want)
		}
	}

	if ColorIndexToTemperature(0.0) <= ColorIndexToTemperature(1.5) {
		t.Error("bluer star should be hotter")
	}
}

func TestTemperatureToRGB_Ranges(t *testing.T) {
	for k := 500.0; k <= 40000; k += 250 {
		c := TemperatureToRGB(k)
		for _, ch := range []float64{c.R, c.G, c.B} {
			if math.IsNaN(ch) || ch < 0 || ch > 255 {
				t.Fatalf("TemperatureToRGB(%v) = %+v out of range", k, c)
			}
		}
	}
}

func TestTemperatureToRGB_Breakpoints(t *testing.T) {
	cool := TemperatureToRGB(1500) // t=15, below blue cut-off
	if cool.R != 255 || cool.B != 0 {
		t.Errorf("1500K = %+v, want R=255 B=0", cool)
	}

	hot := TemperatureToRGB(10000) // t=100
	if hot.B != 255 {
		t.Errorf("10000K blue = %v, want 255", hot.B)
	}
	if hot.R >= 255 {
		t.Errorf("10000K red = %v, want < 255", hot.R)
	}

	// t=66 belongs to the low branch for red/green and the high branch for blue.
	edge := TemperatureToRGB(6600)
	if edge.R != 255 || edge.B != 255 {
		t.Errorf("6600K = %+v, want R=255 B=255", edge)
	}
	wantG := clampChannel(99.4708025861*math.Log(66) - 161.1195681661)
	if math.Abs(edge.G-wantG) > 1e-9 {
		t.Errorf("6600K green = %v, want %v", edge.G, wantG)
	}
}

func TestTemperatureToRGB_Channels(t *testing.T) {
	tests := []struct {
		kelvin float64
		want   RGB
	}{
		{3000, RGB{R: 255, G: 177.2002651415765, B: 109.91724515381793}},
		{4000, RGB{R: 255, G: 205.8162317779877, B: 166.08135201908988}},
		{10000, RGB{R: 201.70434586975458, G: 218.07072008591913, B: 255}},
		{20000, RGB{R: 170.7036481677874, G: 198.38651178718055, B: 255}},
	}
	for _, tt := range tests {
		got := TemperatureToRGB(tt.kelvin)
		if math.Abs(got.R-tt.want.R) > 1e-6 || math.Abs(got.G-tt.want.G) > 1e-6 || math.Abs(got.B-tt.want.B) > 1e-6 {
			t.Errorf("TemperatureToRGB(%v) = %+v, want %+v", tt.kelvin, got, tt.want)
		}
	}
}

func TestColorIndex_BlueToRedOrdering(t *testing.T) {
	blue := TemperatureToRGB(ColorIndexToTemperature(0.0))
	red := TemperatureToRGB(ColorIndexToTemperature(1.5))

	if blue.B/blue.R <= red.B/red.R {
		t.Errorf("BP-RP 0.0 B/R = %v, BP-RP 1.5 B/R = %v, want the bluer star higher",
			blue.B/blue.R, red.B/red.R)
	}
	if blue.B < red.B || blue.R > red.R {
		t.Errorf("BP-RP 0.0 = %+v, BP-RP 1.5 = %+v", blue, red)
	}
}

func TestTemperatureToRGB_Degenerate(t *testing.T) {
	for _, k := range []float64{0, -100, math.Inf(1), math.Inf(-1)} {
		c := TemperatureToRGB(k)
		for _, ch := range []float64{c.R, c.G, c.B} {
			if math.IsNaN(ch) || ch < 0 || ch > 255 {
				t.Errorf("TemperatureToRGB(%v) = %+v out of range", k, c)
			}
		}
	}
}

func TestRGBHex(t *testing.T) {
	hexRe := regexp.MustCompile(`^#[0-9a-f]{6}$`)
	tests := []struct {
		c    RGB
		want string
	}{
		{RGB{255, 255, 255}, "#ffffff"},
		{RGB{0, 0, 0}, "#000000"},
		{RGB{255, 128, 0}, "#ff8000"},
	}
	for _, tt := range tests {
		got := tt.c.Hex()
		if got != tt.want {
			t.Errorf("Hex(%+v) = %q, want %q", tt.c, got, tt.want)
		}
		if !hexRe.MatchString(got) {
			t.Errorf("Hex(%+v) = %q is not #rrggbb", tt.c, got)
		}
	}
}

func TestRGBBytes(t *testing.T) {
	r, g, b := RGB{254.6, 0.4, 127.5}.Bytes()
	if r != 255 || g != 0 || b != 128 {
		t.Errorf("Bytes() = %d,%d,%d, want 255,0,128", r, g, b)
	}
}

func TestSizeMapper(t *testing.T) {
	m := DefaultSizeMapper()
	tests := []struct {
		mag  float64
		want float64
	}{
		{10, 12},
		{11.99, 12},
		{12, 12},
		{15.75, 8},
		{19.5, 4},
		{25, 4},
	}
	for _, tt := range tests {
		if got := m.Size(tt.mag); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Size(%v) = %v, want %v", tt.mag, got, tt.want)
		}
	}
}

func TestSizeMapper_Monotonic(t *testing.T) {
	m := DefaultSizeMapper()
	prev := m.Size(0)
	for mag := 0.0; mag <= 25; mag += 0.1 {
		s := m.Size(mag)
		if s > prev+1e-12 {
			t.Fatalf("size grew with magnitude at %v: %v > %v", mag, s, prev)
		}
		if s < m.MinSize || s > m.MaxSize {
			t.Fatalf("size %v outside [%v, %v]", s, m.MinSize, m.MaxSize)
		}
		prev = s
	}
}

func TestVisualFor(t *testing.T) {
	m := DefaultSizeMapper()

	bright := VisualFor(Star{GMag: Float(2), BPRP: Float(0.1)}, m)
	if bright.Size != 12 || bright.Radius != 18 || bright.HitboxRadius != 30 {
		t.Errorf("bright visual = %+v", bright)
	}

	// Missing photometry falls back to BP-RP 1.0 and magnitude 20.
	bare := VisualFor(Star{}, m)
	want := TemperatureToRGB(ColorIndexToTemperature(1.0))
	if bare.Color != want {
		t.Errorf("default colour = %+v, want %+v", bare.Color, want)
	}
	if bare.Size != 4 {
		t.Errorf("default size = %v, want 4", bare.Size)
	}
}

package astro

import (
	"testing"
)

func TestDefaultStarCatalog_BigDipper(t *testing.T) {
	cat := DefaultStarCatalog()

	if len(cat.Stars) != 7 {
		t.Fatalf("expected 7 stars, got %d", len(cat.Stars))
	}
	if cat.Anchor != DefaultAnchor {
		t.Errorf("anchor = %+v, want %+v", cat.Anchor, DefaultAnchor)
	}
	if cat.Asterism == nil || cat.Asterism.Name != "Big Dipper" {
		t.Errorf("missing Big Dipper asterism")
	}
}

func TestDefaultStarCatalog_KnownStars(t *testing.T) {
	cat := DefaultStarCatalog()

	knownStars := map[string]struct {
		minRA, maxRA   float64
		minDec, maxDec float64
	}{
		"Dubhe":  {11.0, 11.1, 61.7, 61.8},
		"Megrez": {12.2, 12.3, 57.0, 57.1},
		"Alkaid": {13.7, 13.8, 49.3, 49.4},
	}

	starMap := make(map[string]Star)
	for _, s := range cat.Stars {
		starMap[s.Name] = s
	}

	for name, expected := range knownStars {
		star, found := starMap[name]
		if !found {
			t.Errorf("Expected star %s not in catalog", name)
			continue
		}
		if *star.RAHours < expected.minRA || *star.RAHours > expected.maxRA {
			t.Errorf("%s RA=%v, expected %v-%v", name, *star.RAHours, expected.minRA, expected.maxRA)
		}
		if *star.DecDeg < expected.minDec || *star.DecDeg > expected.maxDec {
			t.Errorf("%s Dec=%v, expected %v-%v", name, *star.DecDeg, expected.minDec, expected.maxDec)
		}
	}
}

func TestDefaultStarCatalog_ValidFields(t *testing.T) {
	for _, star := range DefaultStarCatalog().Stars {
		if !star.HasPosition() {
			t.Errorf("Star %s has no position", star.Name)
			continue
		}
		if *star.RAHours < 0 || *star.RAHours >= 24 {
			t.Errorf("Star %s has invalid RA: %v", star.Name, *star.RAHours)
		}
		if *star.DecDeg < -90 || *star.DecDeg > 90 {
			t.Errorf("Star %s has invalid Dec: %v", star.Name, *star.DecDeg)
		}
		if star.GMag == nil || star.BPRP == nil {
			t.Errorf("Star %s missing photometry", star.Name)
		}
		if star.Designation == "" {
			t.Errorf("Star %s missing designation", star.Name)
		}
	}
}

func TestDefaultStarCatalog_ReturnsCopy(t *testing.T) {
	cat1 := DefaultStarCatalog()
	wantRA := *cat1.Stars[0].RAHours
	cat1.Stars[0].Name = "mutated"
	*cat1.Stars[0].RAHours = 0
	*cat1.Stars[0].GMag = 99

	cat2 := DefaultStarCatalog()
	if cat2.Stars[0].Name != "Dubhe" {
		t.Errorf("catalog shares backing array: first star = %q", cat2.Stars[0].Name)
	}
	if got := *cat2.Stars[0].RAHours; got != wantRA {
		t.Errorf("catalog shares RA storage: RA = %v, want %v", got, wantRA)
	}
	if got := *cat2.Stars[0].GMag; got == 99 {
		t.Error("catalog shares magnitude storage")
	}
}

func TestStarClone(t *testing.T) {
	orig := Star{
		Name:     "Vega",
		RAHours:  Float(18.6),
		Parallax: Float(130),
		Extra:    map[string]any{"ruwe": 1.1},
	}
	c := orig.Clone()
	*c.RAHours = 1
	*c.Parallax = 2
	c.Extra["ruwe"] = 9.0

	if *orig.RAHours != 18.6 || *orig.Parallax != 130 {
		t.Errorf("clone aliases pointer fields: %+v", orig)
	}
	if orig.Extra["ruwe"] != 1.1 {
		t.Errorf("clone aliases Extra: %v", orig.Extra)
	}
	if c.DecDeg != nil {
		t.Error("nil field should stay nil")
	}
}

func TestStarLabel(t *testing.T) {
	tests := []struct {
		star Star
		want string
	}{
		{Star{Name: "Vega", Designation: "α Lyr", SourceID: "1"}, "Vega"},
		{Star{Designation: "α Lyr", SourceID: "1"}, "α Lyr"},
		{Star{SourceID: "4295806720"}, "4295806720"},
		{Star{}, "unnamed"},
	}
	for _, tt := range tests {
		if got := tt.star.Label(); got != tt.want {
			t.Errorf("Label() = %q, want %q", got, tt.want)
		}
	}
}

func TestHasPosition(t *testing.T) {
	if (Star{RAHours: Float(1)}).HasPosition() {
		t.Error("star without dec reported a position")
	}
	if (Star{DecDeg: Float(1)}).HasPosition() {
		t.Error("star without ra reported a position")
	}
	if !(Star{RAHours: Float(0), DecDeg: Float(0)}).HasPosition() {
		t.Error("zero coordinates must still count as present")
	}
}

func bigDipperPositions() map[string]Point {
	positions := make(map[string]Point)
	for i, s := range DefaultStarCatalog().Stars {
		positions[s.Name] = Point{Lat: float64(i), Lon: float64(-i)}
	}
	return positions
}

func TestAsterismLines_AllPresent(t *testing.T) {
	lines := BigDipper().Lines(bigDipperPositions())

	// Dubhe-Merak, Dubhe-Megrez, Merak-Phecda, Phecda-Megrez, Megrez-Alioth, Alioth-Mizar, Mizar-Alkaid
	if len(lines) != 7 {
		t.Fatalf("expected 7 unique segments, got %d", len(lines))
	}

	seen := make(map[Segment]bool)
	for _, l := range lines {
		rev := Segment{From: l.To, To: l.From}
		if seen[l] || seen[rev] {
			t.Errorf("segment drawn twice: %+v", l)
		}
		seen[l] = true
	}
}

func TestAsterismLines_MissingMember(t *testing.T) {
	positions := bigDipperPositions()
	delete(positions, "Mizar")

	if lines := BigDipper().Lines(positions); lines != nil {
		t.Errorf("expected no lines with a missing member, got %d", len(lines))
	}
}

func TestAsterismLines_Deterministic(t *testing.T) {
	a := BigDipper().Lines(bigDipperPositions())
	b := BigDipper().Lines(bigDipperPositions())
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("segment %d differs between calls", i)
		}
	}
}

func TestAsterismLines_Nil(t *testing.T) {
	var a *Asterism
	if a.Lines(bigDipperPositions()) != nil {
		t.Error("nil asterism should draw nothing")
	}
}

package astro

import "sort"

// Star is one catalogue entry or curated reference star.
// Optional measurements are pointers so that "absent" differs from zero.
type Star struct {
	SourceID    string // Catalogue identifier (string or numeric in the source)
	Name        string // Common name, if any
	Designation string // Bayer designation, if any (e.g. "α UMa")

	RAHours *float64 // Right ascension in hours (0-24)
	DecDeg  *float64 // Declination in degrees (-90 to +90)

	GMag     *float64 // Apparent G magnitude (lower = brighter)
	BPRP     *float64 // BP-RP colour index
	Parallax *float64 // Parallax in milliarcseconds

	PMRA           *float64 // Proper motion in RA, mas/yr
	PMDec          *float64 // Proper motion in Dec, mas/yr
	RadialVelocity *float64 // km/s

	// Extra carries catalogue columns this package does not interpret.
	Extra map[string]any
}

// Float returns a pointer to v, for populating optional Star fields.
func Float(v float64) *float64 {
	return &v
}

// Clone returns a deep copy of s. Optional fields and Extra are re-allocated.
func (s Star) Clone() Star {
	c := s
	for _, f := range []**float64{
		&c.RAHours, &c.DecDeg, &c.GMag, &c.BPRP, &c.Parallax,
		&c.PMRA, &c.PMDec, &c.RadialVelocity,
	} {
		if *f != nil {
			*f = Float(**f)
		}
	}
	if s.Extra != nil {
		c.Extra = make(map[string]any, len(s.Extra))
		for k, v := range s.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

// HasPosition reports whether both right ascension and declination are present.
func (s Star) HasPosition() bool {
	return s.RAHours != nil && s.DecDeg != nil
}

// Label returns the most human-friendly identifier available.
func (s Star) Label() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Designation != "":
		return s.Designation
	case s.SourceID != "":
		return s.SourceID
	default:
		return "unnamed"
	}
}

// StarCatalog is a fixed star set rendered around its own anchor.
type StarCatalog struct {
	Name     string
	Anchor   Anchor
	Stars    []Star
	Asterism *Asterism
}

// DefaultAnchor is where the reference set is drawn before any query is made.
var DefaultAnchor = Anchor{
	LatDeg:    41.35168556332073,
	LonDeg:    2.1116924285888676,
	RefLatDeg: 41.35168556332073,
}

// DefaultStarCatalog returns the Big Dipper, anchored at DefaultAnchor.
func DefaultStarCatalog() StarCatalog {
	stars := make([]Star, len(bigDipperStars))
	for i, st := range bigDipperStars {
		stars[i] = st.Clone()
	}
	return StarCatalog{
		Name:     "Big Dipper",
		Anchor:   DefaultAnchor,
		Stars:    stars,
		Asterism: BigDipper(),
	}
}

// hms converts sexagesimal hours to decimal hours.
func hms(h, m, s float64) *float64 {
	return Float(h + m/60 + s/3600)
}

// dms converts sexagesimal degrees to decimal degrees.
func dms(d, m, s float64) *float64 {
	return Float(d + m/60 + s/3600)
}

func refStar(name, designation string, ra, dec *float64, g, bpRp float64) Star {
	return Star{
		SourceID:    name,
		Name:        name,
		Designation: designation,
		RAHours:     ra,
		DecDeg:      dec,
		GMag:        Float(g),
		BPRP:        Float(bpRp),
	}
}

var bigDipperStars = []Star{
	refStar("Dubhe", "α UMa", hms(11, 3, 43), dms(61, 45, 3), 1.79, 0.84),
	refStar("Merak", "β UMa", hms(11, 1, 50), dms(56, 22, 0), 2.37, 0.38),
	refStar("Phecda", "γ UMa", hms(11, 53, 0), dms(53, 42, 0), 2.42, 0.35),
	refStar("Megrez", "δ UMa", hms(12, 15, 25.6), dms(57, 1, 57), 3.32, 0.22),
	refStar("Alioth", "ε UMa", hms(12, 54, 0), dms(55, 57, 0), 1.76, 0.10),
	refStar("Mizar", "ζ UMa", hms(13, 23, 0), dms(54, 56, 0), 2.23, 0.15),
	refStar("Alkaid", "η UMa", hms(13, 47, 0), dms(49, 19, 0), 1.84, -0.03),
}

// Asterism is a named stick figure joining stars by name.
type Asterism struct {
	Name        string
	Connections map[string][]string
}

// BigDipper returns the stick figure of the Big Dipper.
func BigDipper() *Asterism {
	return &Asterism{
		Name: "Big Dipper",
		Connections: map[string][]string{
			"Dubhe":  {"Merak", "Megrez"},
			"Merak":  {"Dubhe", "Phecda"},
			"Phecda": {"Merak", "Megrez"},
			"Megrez": {"Phecda", "Dubhe", "Alioth"},
			"Alioth": {"Megrez", "Mizar"},
			"Mizar":  {"Alioth", "Alkaid"},
			"Alkaid": {"Mizar"},
		},
	}
}

// Point is a map coordinate in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Segment joins two map points.
type Segment struct {
	From, To Point
}

// Lines returns the asterism's segments given each star's map position.
// Nothing is drawn unless every member star is present. Each undirected
// edge appears once; output order follows the sorted member names.
func (a *Asterism) Lines(positions map[string]Point) []Segment {
	if a == nil {
		return nil
	}
	names := make([]string, 0, len(a.Connections))
	for name := range a.Connections {
		if _, ok := positions[name]; !ok {
			return nil
		}
		names = append(names, name)
	}
	sort.Strings(names)

	drawn := make(map[[2]string]bool)
	var lines []Segment
	for _, from := range names {
		for _, to := range a.Connections[from] {
			key := [2]string{from, to}
			if to < from {
				key = [2]string{to, from}
			}
			if drawn[key] {
				continue
			}
			dst, ok := positions[to]
			if !ok {
				continue
			}
			drawn[key] = true
			lines = append(lines, Segment{From: positions[from], To: dst})
		}
	}
	return lines
}

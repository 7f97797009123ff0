// Package skymap turns a star list into a render plan: map positions,
// display attributes, the zenith marker and asterism lines.
package skymap

import (
	"math"

	"github.com/litescript/gaiamaps/internal/astro"
)

// Options tunes how a plan is built.
type Options struct {
	Sizes astro.SizeMapper

	// Asterism is drawn when every member star is in the plan.
	Asterism *astro.Asterism

	// Supplied offsets override the projector for the stars they index,
	// e.g. the alt/az differences returned by the catalogue service.
	Supplied []astro.Offset
}

// DefaultOptions draws with the default size range and the Big Dipper figure.
func DefaultOptions() Options {
	return Options{
		Sizes:    astro.DefaultSizeMapper(),
		Asterism: astro.BigDipper(),
	}
}

// Marker is one drawable star.
type Marker struct {
	Index    int // Position in the input star list
	Star     astro.Star
	Offset   astro.Offset
	Position astro.Point
	Visual   astro.Visual
	IsZenith bool
}

// Plan is everything a renderer needs to draw one star field.
type Plan struct {
	Anchor      astro.Anchor
	Observer    *astro.Observer
	Markers     []Marker
	ZenithIndex int // Index into the input star list, -1 if none
	Lines       []astro.Segment
}

// Zenith returns the zenith marker, if any.
func (p *Plan) Zenith() (Marker, bool) {
	for _, m := range p.Markers {
		if m.IsZenith {
			return m, true
		}
	}
	return Marker{}, false
}

// Build lays out stars around the anchor. With a nil observer no zenith star
// is resolved, as for the reference set shown before any query.
func Build(stars []astro.Star, anchor astro.Anchor, obs *astro.Observer, opts Options) *Plan {
	if opts.Sizes == (astro.SizeMapper{}) {
		opts.Sizes = astro.DefaultSizeMapper()
	}

	offsets := make(map[int]astro.Offset, len(stars))
	for _, o := range astro.ProjectOffsets(stars, anchor) {
		offsets[o.Index] = o
	}
	for _, o := range opts.Supplied {
		if o.Index >= 0 && o.Index < len(stars) {
			offsets[o.Index] = o
		}
	}

	plan := &Plan{Anchor: anchor, ZenithIndex: -1}
	if obs != nil {
		o := *obs
		plan.Observer = &o
		plan.ZenithIndex = astro.ResolveZenithIndex(o, stars)
	}

	positions := make(map[string]astro.Point)
	for i, s := range stars {
		off, ok := offsets[i]
		if !ok {
			continue
		}
		m := Marker{
			Index:    i,
			Star:     s,
			Offset:   off,
			Position: off.Apply(anchor),
			Visual:   astro.VisualFor(s, opts.Sizes),
			IsZenith: i == plan.ZenithIndex,
		}
		plan.Markers = append(plan.Markers, m)
		if s.Name != "" {
			positions[s.Name] = m.Position
		}
	}

	plan.Lines = opts.Asterism.Lines(positions)
	return plan
}

// MarkerAt returns the marker whose click hitbox contains p. scale is the
// number of degrees covered by one unit of marker radius at the current zoom.
// When hitboxes overlap the nearest marker wins.
func (p *Plan) MarkerAt(pt astro.Point, scale float64) (Marker, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, m := range p.Markers {
		d := math.Hypot(m.Position.Lat-pt.Lat, m.Position.Lon-pt.Lon)
		if d > m.Visual.HitboxRadius*scale {
			continue
		}
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	if best < 0 {
		return Marker{}, false
	}
	return p.Markers[best], true
}

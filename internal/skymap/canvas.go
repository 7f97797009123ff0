package skymap

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/litescript/gaiamaps/internal/astro"
)

const (
	// Terminal cells are roughly twice as tall as they are wide.
	cellAspect = 2.0

	minSpanDeg     = 1.0
	defaultSpanDeg = 10.0
	fitMargin      = 1.25
)

// Glyphs used on the map canvas.
const (
	GlyphStarBright = '✶'
	GlyphStarMedium = '✸'
	GlyphStarDim    = '·'
	GlyphZenith     = '◆'
	GlyphLine       = '∙'
	GlyphCursor     = '+'
	GlyphObserver   = '▲'
)

// CellKind tells a renderer what occupies a canvas cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellLine
	CellStar
	CellZenith
	CellObserver
	CellCursor
)

// Cell is one character of the canvas.
type Cell struct {
	Glyph rune
	Kind  CellKind
	Color string // "#rrggbb" for stars, empty otherwise
}

// Viewport maps degrees of latitude/longitude onto a character grid.
type Viewport struct {
	CenterLat float64
	CenterLon float64
	SpanLat   float64 // degrees covered by the full height
	Width     int
	Height    int
}

// NewViewport centres a viewport at c showing spanLat degrees vertically.
func NewViewport(c astro.Point, spanLat float64, width, height int) Viewport {
	if spanLat < minSpanDeg {
		spanLat = minSpanDeg
	}
	return Viewport{CenterLat: c.Lat, CenterLon: c.Lon, SpanLat: spanLat, Width: width, Height: height}
}

// SpanLon is the longitude range covered by the full width.
func (v Viewport) SpanLon() float64 {
	if v.Height <= 0 {
		return v.SpanLat
	}
	return v.SpanLat * float64(v.Width) / float64(v.Height) / cellAspect
}

// Center returns the viewport centre.
func (v Viewport) Center() astro.Point {
	return astro.Point{Lat: v.CenterLat, Lon: v.CenterLon}
}

// DegreesPerCell is the longitude covered by one column.
func (v Viewport) DegreesPerCell() float64 {
	if v.Width <= 0 {
		return 0
	}
	return v.SpanLon() / float64(v.Width)
}

// Cell returns the grid position of p, or ok=false when p is off screen.
func (v Viewport) Cell(p astro.Point) (x, y int, ok bool) {
	if v.Width <= 0 || v.Height <= 0 {
		return 0, 0, false
	}
	fx := (p.Lon-v.CenterLon)/v.SpanLon()*float64(v.Width) + float64(v.Width)/2
	fy := (v.CenterLat-p.Lat)/v.SpanLat*float64(v.Height) + float64(v.Height)/2
	x = int(math.Floor(fx))
	y = int(math.Floor(fy))
	if x < 0 || x >= v.Width || y < 0 || y >= v.Height {
		return x, y, false
	}
	return x, y, true
}

// PointAt returns the map coordinate at the centre of cell (x, y).
func (v Viewport) PointAt(x, y int) astro.Point {
	return astro.Point{
		Lat: v.CenterLat - (float64(y)+0.5-float64(v.Height)/2)/float64(v.Height)*v.SpanLat,
		Lon: v.CenterLon + (float64(x)+0.5-float64(v.Width)/2)/float64(v.Width)*v.SpanLon(),
	}
}

// Contains reports whether p falls on screen.
func (v Viewport) Contains(p astro.Point) bool {
	_, _, ok := v.Cell(p)
	return ok
}

// Zoom scales the span by factor, keeping the centre.
func (v Viewport) Zoom(factor float64) Viewport {
	v.SpanLat *= factor
	if v.SpanLat < minSpanDeg {
		v.SpanLat = minSpanDeg
	}
	if v.SpanLat > 180 {
		v.SpanLat = 180
	}
	return v
}

// FitViewport frames every marker of the plan with a small margin.
// An empty plan is framed around its anchor.
func FitViewport(p *Plan, width, height int) Viewport {
	if p == nil || len(p.Markers) == 0 {
		var c astro.Point
		if p != nil {
			c = astro.Point{Lat: p.Anchor.LatDeg, Lon: p.Anchor.LonDeg}
		}
		return NewViewport(c, defaultSpanDeg, width, height)
	}

	minLat, maxLat := math.Inf(1), math.Inf(-1)
	minLon, maxLon := math.Inf(1), math.Inf(-1)
	for _, m := range p.Markers {
		minLat = math.Min(minLat, m.Position.Lat)
		maxLat = math.Max(maxLat, m.Position.Lat)
		minLon = math.Min(minLon, m.Position.Lon)
		maxLon = math.Max(maxLon, m.Position.Lon)
	}

	v := NewViewport(astro.Point{Lat: (minLat + maxLat) / 2, Lon: (minLon + maxLon) / 2}, 0, width, height)
	v.SpanLat = (maxLat - minLat) * fitMargin
	if lonSpan := (maxLon - minLon) * fitMargin; lonSpan > v.SpanLon() && v.Width > 0 {
		v.SpanLat = lonSpan * float64(v.Height) * cellAspect / float64(v.Width)
	}
	if v.SpanLat < minSpanDeg {
		v.SpanLat = minSpanDeg
	}
	return v
}

// StarGlyph picks a glyph from a star's display size.
func StarGlyph(v astro.Visual) rune {
	switch {
	case v.Size >= 10:
		return GlyphStarBright
	case v.Size >= 7:
		return GlyphStarMedium
	default:
		return GlyphStarDim
	}
}

// Canvas is a rasterised plan.
type Canvas struct {
	Width  int
	Height int
	Cells  [][]Cell
}

// NewCanvas returns an empty width×height canvas.
func NewCanvas(width, height int) *Canvas {
	c := &Canvas{Width: width, Height: height, Cells: make([][]Cell, height)}
	for y := range c.Cells {
		c.Cells[y] = make([]Cell, width)
		for x := range c.Cells[y] {
			c.Cells[y][x] = Cell{Glyph: ' '}
		}
	}
	return c
}

// Set writes a cell, ignoring out-of-range positions.
func (c *Canvas) Set(x, y int, cell Cell) {
	if x < 0 || x >= c.Width || y < 0 || y >= c.Height {
		return
	}
	c.Cells[y][x] = cell
}

// At returns the cell at (x, y).
func (c *Canvas) At(x, y int) Cell {
	if x < 0 || x >= c.Width || y < 0 || y >= c.Height {
		return Cell{Glyph: ' '}
	}
	return c.Cells[y][x]
}

// Rasterize draws asterism lines first, then stars from faintest to
// brightest, then the zenith star on top of everything.
func Rasterize(p *Plan, v Viewport) *Canvas {
	c := NewCanvas(v.Width, v.Height)
	if p == nil {
		return c
	}

	for _, seg := range p.Lines {
		c.drawLine(v, seg)
	}

	markers := make([]Marker, len(p.Markers))
	copy(markers, p.Markers)
	sort.SliceStable(markers, func(i, j int) bool {
		if markers[i].IsZenith != markers[j].IsZenith {
			return !markers[i].IsZenith
		}
		return markers[i].Visual.Size < markers[j].Visual.Size
	})

	for _, m := range markers {
		x, y, ok := v.Cell(m.Position)
		if !ok {
			continue
		}
		cell := Cell{Glyph: StarGlyph(m.Visual), Kind: CellStar, Color: m.Visual.Color.Hex()}
		if m.IsZenith {
			cell.Glyph = GlyphZenith
			cell.Kind = CellZenith
		}
		c.Set(x, y, cell)
	}
	return c
}

func (c *Canvas) drawLine(v Viewport, seg astro.Segment) {
	x0, y0, _ := v.Cell(seg.From)
	x1, y1, _ := v.Cell(seg.To)
	steps := max(abs(x1-x0), abs(y1-y0))
	for i := 0; i <= steps; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}
		x := int(math.Round(float64(x0) + t*float64(x1-x0)))
		y := int(math.Round(float64(y0) + t*float64(y1-y0)))
		if c.At(x, y).Kind == CellEmpty {
			c.Set(x, y, Cell{Glyph: GlyphLine, Kind: CellLine})
		}
	}
}

// String renders the canvas as plain text.
func (c *Canvas) String() string {
	var b strings.Builder
	for y, row := range c.Cells {
		for _, cell := range row {
			b.WriteRune(cell.Glyph)
		}
		if y < len(c.Cells)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// WriteMiniMap writes a plain-text map of the plan framed to fit.
func WriteMiniMap(w io.Writer, p *Plan, width, height int) {
	v := FitViewport(p, width, height)
	c := Rasterize(p, v)
	if p != nil && p.Observer != nil {
		if x, y, ok := v.Cell(astro.Point{Lat: p.Observer.LatDeg, Lon: p.Observer.LonDeg}); ok && c.At(x, y).Kind == CellEmpty {
			c.Set(x, y, Cell{Glyph: GlyphObserver, Kind: CellObserver})
		}
	}

	border := "+" + strings.Repeat("-", width) + "+"
	fmt.Fprintln(w, border)
	for _, line := range strings.Split(c.String(), "\n") {
		fmt.Fprintf(w, "|%s|\n", line)
	}
	fmt.Fprintln(w, border)
	fmt.Fprintf(w, "%c zenith  %c bright  %c medium  %c faint  %c observer\n",
		GlyphZenith, GlyphStarBright, GlyphStarMedium, GlyphStarDim, GlyphObserver)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/gaiamaps/internal/astro"
	"github.com/litescript/gaiamaps/internal/skymap"
	"github.com/litescript/gaiamaps/internal/state"
)

const (
	// Animation
	animDuration  = 400 * time.Millisecond
	animFrameRate = 30 * time.Millisecond

	zoomStep = 1.25

	// Marker sizes are in screen pixels; a terminal column is about this wide.
	pixelsPerCell = 8.0

	colorBackground = "236" // very dark background
	colorLine       = "60"  // muted purple
	colorZenith     = "229" // bright gold
	colorCursor     = "213"
	colorObserver   = "46"
)

// MapViewModel renders the star field on a latitude/longitude canvas with a
// movable location cursor.
type MapViewModel struct {
	width  int
	height int

	view   skymap.Viewport
	cursor astro.Point

	// Animation state
	animating    bool
	animStartLat float64
	animStartLon float64
	animTargLat  float64
	animTargLon  float64
	animStart    time.Time

	plan     *skymap.Plan
	observer *astro.Observer

	styles map[string]lipgloss.Style
}

// NewMapViewModel creates a map view framed on the reference stars.
func NewMapViewModel() MapViewModel {
	cat := astro.DefaultStarCatalog()
	center := astro.Point{Lat: cat.Anchor.LatDeg, Lon: cat.Anchor.LonDeg}
	return MapViewModel{
		view:   skymap.NewViewport(center, 40, 0, 0),
		cursor: center,
		styles: make(map[string]lipgloss.Style),
	}
}

// SetSize updates the canvas size. The first sizing frames the current plan.
func (m MapViewModel) SetSize(width, height int) MapViewModel {
	unsized := m.width == 0
	m.width = width
	m.height = height
	m.view.Width = width
	m.view.Height = height
	if unsized && m.plan != nil {
		m.view = skymap.FitViewport(m.plan, width, height)
	}
	return m
}

// Cursor returns the location under the cursor.
func (m MapViewModel) Cursor() astro.Point {
	return m.cursor
}

// Viewport returns the visible region.
func (m MapViewModel) Viewport() skymap.Viewport {
	return m.view
}

// StarAtCursor returns the star whose hitbox contains the cursor.
func (m MapViewModel) StarAtCursor() (skymap.Marker, bool) {
	if m.plan == nil {
		return skymap.Marker{}, false
	}
	scale := m.view.DegreesPerCell() / pixelsPerCell
	if scale == 0 {
		scale = m.view.SpanLat / pixelsPerCell
	}
	return m.plan.MarkerAt(m.cursor, scale)
}

// UpdateData takes a new snapshot. A freshly loaded star field pans the
// camera to its anchor and reframes the zoom.
func (m MapViewModel) UpdateData(snap state.Snapshot) (MapViewModel, tea.Cmd) {
	m.observer = snap.Observer
	if snap.Plan == m.plan {
		return m, nil
	}
	first := m.plan == nil
	m.plan = snap.Plan
	if m.plan == nil {
		return m, nil
	}

	fit := skymap.FitViewport(m.plan, m.width, m.height)
	m.view.SpanLat = fit.SpanLat
	if first || !snap.Live() {
		m.view.CenterLat = fit.CenterLat
		m.view.CenterLon = fit.CenterLon
		return m, nil
	}
	return m.startAnimation(fit.Center())
}

// animTickMsg is sent during animation
type animTickMsg time.Time

func animTick() tea.Cmd {
	return tea.Tick(animFrameRate, func(t time.Time) tea.Msg {
		return animTickMsg(t)
	})
}

// Update handles messages.
func (m MapViewModel) Update(msg tea.Msg) (MapViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			m = m.moveCursor(0, -1)
		case "down", "j":
			m = m.moveCursor(0, 1)
		case "left", "h":
			m = m.moveCursor(-1, 0)
		case "right", "l":
			m = m.moveCursor(1, 0)
		case "]":
			m.view = m.view.Zoom(1 / zoomStep)
		case "[":
			m.view = m.view.Zoom(zoomStep)
		case "c":
			return m.startAnimation(m.cursor)
		}

	case animTickMsg:
		if m.animating {
			return m.updateAnimation()
		}
	}

	return m, nil
}

// moveCursor steps the cursor by whole cells and pans to keep it visible.
func (m MapViewModel) moveCursor(dx, dy int) MapViewModel {
	latStep := m.view.SpanLat / float64(max(m.view.Height, 1))
	lonStep := m.view.DegreesPerCell()
	if lonStep == 0 {
		lonStep = latStep
	}

	m.cursor.Lat = math.Max(-90, math.Min(90, m.cursor.Lat-float64(dy)*latStep))
	m.cursor.Lon = normalizeAngle(m.cursor.Lon + float64(dx)*lonStep)

	if m.view.Width > 0 && !m.view.Contains(m.cursor) {
		m.animating = false
		m.view.CenterLat = m.cursor.Lat
		m.view.CenterLon = m.cursor.Lon
	}
	return m
}

func (m MapViewModel) startAnimation(target astro.Point) (MapViewModel, tea.Cmd) {
	m.animating = true
	m.animStartLat = m.view.CenterLat
	m.animStartLon = m.view.CenterLon
	m.animTargLat = target.Lat
	m.animTargLon = target.Lon
	m.animStart = time.Now()

	return m, animTick()
}

func (m MapViewModel) updateAnimation() (MapViewModel, tea.Cmd) {
	elapsed := time.Since(m.animStart)
	t := float64(elapsed) / float64(animDuration)

	if t >= 1.0 {
		m.animating = false
		m.view.CenterLat = m.animTargLat
		m.view.CenterLon = m.animTargLon
		return m, nil
	}

	// Ease-out cubic
	t = 1 - math.Pow(1-t, 3)

	m.view.CenterLat = lerp(m.animStartLat, m.animTargLat, t)
	m.view.CenterLon = lerpAngle(m.animStartLon, m.animTargLon, t)

	return m, animTick()
}

// View renders the map canvas.
func (m MapViewModel) View() string {
	if m.width < 20 || m.height < 5 {
		return "Map requires larger terminal"
	}
	return m.render(m.canvas())
}

// canvas rasterises the plan and overlays the observer and cursor.
func (m MapViewModel) canvas() *skymap.Canvas {
	c := skymap.Rasterize(m.plan, m.view)
	if m.observer != nil {
		pt := astro.Point{Lat: m.observer.LatDeg, Lon: m.observer.LonDeg}
		if x, y, ok := m.view.Cell(pt); ok && c.At(x, y).Kind <= skymap.CellLine {
			c.Set(x, y, skymap.Cell{Glyph: skymap.GlyphObserver, Kind: skymap.CellObserver})
		}
	}
	if x, y, ok := m.view.Cell(m.cursor); ok {
		if c.At(x, y).Kind <= skymap.CellLine {
			c.Set(x, y, skymap.Cell{Glyph: skymap.GlyphCursor, Kind: skymap.CellCursor})
		}
	}
	return c
}

func (m MapViewModel) render(c *skymap.Canvas) string {
	var b strings.Builder
	for y, row := range c.Cells {
		for _, cell := range row {
			b.WriteString(m.style(cell).Render(string(cell.Glyph)))
		}
		if y < len(c.Cells)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m MapViewModel) style(cell skymap.Cell) lipgloss.Style {
	color := colorBackground
	bold := false
	switch cell.Kind {
	case skymap.CellLine:
		color = colorLine
	case skymap.CellStar:
		color = cell.Color
	case skymap.CellZenith:
		color = colorZenith
		bold = true
	case skymap.CellCursor:
		color = colorCursor
		bold = true
	case skymap.CellObserver:
		color = colorObserver
	}

	key := fmt.Sprintf("%s/%t", color, bold)
	if st, ok := m.styles[key]; ok {
		return st
	}
	st := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(bold)
	if m.styles != nil {
		m.styles[key] = st
	}
	return st
}

// normalizeAngle wraps angle to -180..+180 range
func normalizeAngle(a float64) float64 {
	for a > 180 {
		a -= 360
	}
	for a < -180 {
		a += 360
	}
	return a
}

// lerpAngle interpolates between angles, taking shortest path
func lerpAngle(a, b, t float64) float64 {
	diff := normalizeAngle(b - a)
	return a + diff*t
}

// lerp linear interpolation
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Init returns nil cmd
func (m MapViewModel) Init() tea.Cmd {
	return nil
}

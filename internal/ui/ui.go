// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/gaiamaps/internal/astro"
	"github.com/litescript/gaiamaps/internal/catalogue"
	"github.com/litescript/gaiamaps/internal/journal"
	"github.com/litescript/gaiamaps/internal/logging"
	"github.com/litescript/gaiamaps/internal/metrics"
	"github.com/litescript/gaiamaps/internal/report"
	"github.com/litescript/gaiamaps/internal/skymap"
	"github.com/litescript/gaiamaps/internal/state"
	"github.com/litescript/gaiamaps/internal/version"
)

// Msg types for Bubble Tea
type (
	// TickMsg triggers periodic UI updates.
	TickMsg time.Time

	// AnimTickMsg triggers fast animation updates.
	AnimTickMsg time.Time

	// starsLoadedMsg carries a successful catalogue query.
	starsLoadedMsg struct {
		result catalogue.FetchResult
	}

	// fetchFailedMsg signals a failed catalogue query.
	fetchFailedMsg struct {
		err error
	}

	// reportDoneMsg is the outcome of a report download.
	reportDoneMsg struct {
		star   astro.Star
		result report.Result
		err    error
	}
)

// Deps are the collaborators of the UI. Journal and Reporter.Geocoder may be nil.
type Deps struct {
	Context   context.Context
	State     *state.Manager
	Catalogue *catalogue.Client
	Reporter  report.Reporter
	Journal   *journal.Journal
	Logger    *slog.Logger
	ReportDir string
}

// Model is the root Bubble Tea model.
type Model struct {
	// Dependencies
	ctx       context.Context
	state     *state.Manager
	catalogue *catalogue.Client
	reporter  report.Reporter
	journal   *journal.Journal
	logger    *slog.Logger
	reportDir string

	// UI state
	width     int
	height    int
	ready     bool
	statusMsg string
	animTick  int
	reporting bool

	// Temperature of the star being reported on, tints the progress text.
	reportKelvin float64

	mapView MapViewModel

	// Data snapshot (refreshed after every state change)
	snapshot state.Snapshot
}

// New creates the root UI model. The observation moment starts at the
// current hour when none has been chosen.
func New(deps Deps) Model {
	ctx := deps.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	if deps.State.Snapshot().Moment == nil {
		_ = deps.State.SetMoment(time.Now().Truncate(time.Hour))
	}

	m := Model{
		ctx:       ctx,
		state:     deps.State,
		catalogue: deps.Catalogue,
		reporter:  deps.Reporter,
		journal:   deps.Journal,
		logger:    logger,
		reportDir: deps.ReportDir,
		mapView:   NewMapViewModel(),
	}
	m.snapshot = m.state.Snapshot()
	m.mapView, _ = m.mapView.UpdateData(m.snapshot)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		animTickCmd(),
		m.mapView.Init(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "enter":
			m.selectLocation()
		case "+", "=":
			m.shiftMoment(time.Hour)
		case "-", "_":
			m.shiftMoment(-time.Hour)
		case "g":
			cmds = append(cmds, m.startQuery())
		case "b":
			s := m.state.Settings()
			s.BrightnessMode = s.BrightnessMode.Next()
			m.state.SetSettings(s)
			m.statusMsg = "Brightness: " + s.BrightnessMode.Description()
		case "v":
			s := m.state.Settings()
			s.IncludeVelocity = !s.IncludeVelocity
			m.state.SetSettings(s)
		case "x":
			s := m.state.Settings()
			s.IncludeDistance = !s.IncludeDistance
			m.state.SetSettings(s)
		case "p":
			cmds = append(cmds, m.startReport())
		case "s":
			m.selectStar()
		case "z":
			m.state.SetPopup(!m.snapshot.Popup)
		case "esc":
			m.state.ClearSelection()
			m.state.SetPopup(false)

		default:
			var cmd tea.Cmd
			m.mapView, cmd = m.mapView.Update(msg)
			cmds = append(cmds, cmd)
		}
		cmds = append(cmds, m.refresh())

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.mapView = m.mapView.SetSize(m.mapWidth(), m.mapHeight())

	case TickMsg:
		cmds = append(cmds, tickCmd(), m.refresh())

	case AnimTickMsg:
		cmds = append(cmds, animTickCmd())
		m.animTick++

	case starsLoadedMsg:
		zenith, ok := m.state.CompleteQuery(msg.result)
		m.logger.Info("stars loaded",
			"count", len(msg.result.Stars),
			"duration", msg.result.Duration,
			"zenith", zenith.Label())
		var zp *astro.Star
		if ok {
			metrics.IncZenithResolved()
			zp = &zenith
			m.statusMsg = ""
		} else {
			m.statusMsg = "No star with a position in this field."
		}
		if q := m.state.Snapshot().LastQuery; q != nil {
			cmds = append(cmds, m.recordCmd(journal.NewEntry(
				q.Observer, q.Moment, string(q.Settings.BrightnessMode), len(msg.result.Stars), zp)))
		}
		cmds = append(cmds, m.refresh())

	case fetchFailedMsg:
		m.state.FailQuery(msg.err)
		m.logger.Error("star query failed", "error", msg.err)
		m.statusMsg = ""
		cmds = append(cmds, m.refresh())

	case reportDoneMsg:
		m.reporting = false
		if msg.err != nil {
			m.logger.Error("report failed", "error", msg.err)
			m.statusMsg = "Report failed: " + reportFailure(msg.err)
		} else {
			m.state.RecordReport(msg.star, msg.result.Path)
			m.statusMsg = fmt.Sprintf("Report saved to %s", msg.result.Path)
		}
		cmds = append(cmds, m.refresh())

	default:
		var cmd tea.Cmd
		m.mapView, cmd = m.mapView.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// refresh re-reads session state and pushes it to the map.
func (m *Model) refresh() tea.Cmd {
	m.snapshot = m.state.Snapshot()
	if m.ready {
		m.mapView = m.mapView.SetSize(m.mapWidth(), m.mapHeight())
	}
	var cmd tea.Cmd
	m.mapView, cmd = m.mapView.UpdateData(m.snapshot)
	return cmd
}

func reportFailure(err error) string {
	if errors.Is(err, catalogue.ErrCatalogueUnavailable) {
		return state.MsgCatalogueUnavailable
	}
	return err.Error()
}

func (m *Model) selectLocation() {
	c := m.mapView.Cursor()
	err := m.state.SelectLocation(astro.Observer{LatDeg: c.Lat, LonDeg: c.Lon})
	switch {
	case errors.Is(err, state.ErrQueryInFlight):
		m.statusMsg = "A query is in progress."
	case err != nil:
		m.statusMsg = "Invalid location."
	default:
		m.statusMsg = fmt.Sprintf("Location set to %s. Press g to get stars.", formatLatLon(c.Lat, c.Lon))
	}
}

// selectStar picks the star under the cursor for the popup and reports.
func (m *Model) selectStar() {
	mk, ok := m.mapView.StarAtCursor()
	if !ok {
		m.statusMsg = "No star under the cursor."
		return
	}
	m.state.SelectStar(mk.Star)
	m.statusMsg = "Selected " + mk.Star.Label() + ". Press p for its report."
}

func (m *Model) shiftMoment(d time.Duration) {
	base := time.Now().Truncate(time.Hour)
	if m.snapshot.Moment != nil {
		base = *m.snapshot.Moment
	}
	if err := m.state.SetMoment(base.Add(d)); err != nil {
		m.statusMsg = "A query is in progress."
	}
}

func (m *Model) startQuery() tea.Cmd {
	q, err := m.state.BeginQuery()
	if err != nil {
		if errors.Is(err, state.ErrQueryInFlight) {
			m.statusMsg = "A query is in progress."
		}
		return nil
	}
	m.statusMsg = ""
	m.logger.Info("querying stars",
		"lat", q.Observer.LatDeg,
		"lon", q.Observer.LonDeg,
		"moment", q.Moment,
		"mode", q.Settings.BrightnessMode)
	return fetchStarsCmd(m.ctx, m.catalogue, q)
}

func (m *Model) startReport() tea.Cmd {
	snap := m.snapshot
	if m.reporting {
		return nil
	}
	if snap.Selected == nil {
		m.statusMsg = "No star selected. Get stars or press s on a star."
		return nil
	}
	obs, at, ok := m.viewingContext()
	if !ok {
		m.statusMsg = "Select a location first."
		return nil
	}
	star := *snap.Selected
	m.reporting = true
	m.reportKelvin = astro.VisualFor(star, astro.DefaultSizeMapper()).Temperature
	m.statusMsg = "Downloading report for " + star.Label() + "..."

	reporter := m.reporter
	ctx := m.ctx
	req := report.Request{
		Star:     &star,
		Observer: obs,
		Moment:   at,
		Dir:      m.reportDir,
	}
	return func() tea.Msg {
		res, err := reporter.Save(ctx, req)
		return reportDoneMsg{star: star, result: res, err: err}
	}
}

// viewingContext is the observer and moment the shown stars belong to: the
// last query, or the current selection before any query has run.
func (m Model) viewingContext() (astro.Observer, time.Time, bool) {
	snap := m.snapshot
	if q := snap.LastQuery; q != nil {
		return q.Observer, q.Moment, true
	}
	if snap.Observer != nil && snap.Moment != nil {
		return *snap.Observer, *snap.Moment, true
	}
	return astro.Observer{}, time.Time{}, false
}

func fetchStarsCmd(ctx context.Context, client *catalogue.Client, q state.Query) tea.Cmd {
	return func() tea.Msg {
		res, err := client.FetchStars(ctx, q.Observer, q.Moment, q.Settings)
		if err != nil {
			return fetchFailedMsg{err: err}
		}
		return starsLoadedMsg{result: res}
	}
}

func (m Model) recordCmd(e journal.Entry) tea.Cmd {
	if m.journal == nil {
		return nil
	}
	j, ctx, logger := m.journal, m.ctx, m.logger
	return func() tea.Msg {
		if _, err := j.Record(ctx, e); err != nil {
			logger.Warn("journal write failed", "error", err)
		}
		return nil
	}
}

// Layout
const (
	headerLines = 4
	footerLines = 4
	popupWidth  = 36
)

func (m Model) mapWidth() int {
	w := m.width
	if m.snapshot.Popup && w > popupWidth+40 {
		w -= popupWidth + 1
	}
	return w
}

func (m Model) mapHeight() int {
	return max(m.height-headerLines-footerLines, 0)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	content := m.mapView.View()
	if m.snapshot.Popup && m.width > popupWidth+40 {
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, " ", m.renderStarPopup())
	}

	return m.renderHeader() + "\n" + content + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	accent := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)

	var b strings.Builder
	b.WriteString("  " + m.renderTitle("✦ gaiamaps"))
	b.WriteString(muted.Render(fmt.Sprintf("  · the star overhead · v%s", version.Version)))
	b.WriteString("\n")

	snap := m.snapshot
	loc := "not selected"
	if snap.Observer != nil {
		loc = formatLatLon(snap.Observer.LatDeg, snap.Observer.LonDeg)
	}
	when := "not set"
	if snap.Moment != nil {
		when = snap.Moment.Format("2006-01-02 15:04 UTC")
	}
	cursor := m.mapView.Cursor()

	b.WriteString("  " + muted.Render("Location ") + accent.Render(loc))
	b.WriteString(muted.Render("  Time ") + accent.Render(when))
	b.WriteString(muted.Render("  Cursor ") + formatLatLon(cursor.Lat, cursor.Lon))
	b.WriteString("\n")

	s := snap.Settings
	b.WriteString("  " + muted.Render("Mode ") + accent.Render(string(s.BrightnessMode)))
	b.WriteString(muted.Render(" (" + s.BrightnessMode.Description() + ")"))
	b.WriteString(muted.Render("  Velocity ") + onOff(s.IncludeVelocity))
	b.WriteString(muted.Render("  Distance ") + onOff(s.IncludeDistance))
	b.WriteString("\n")
	b.WriteString("  " + muted.Render(m.fieldDescription()))
	return b.String()
}

func (m Model) fieldDescription() string {
	snap := m.snapshot
	if !snap.Live() {
		return "Showing the Big Dipper. Pick a location with the arrows and enter, then press g."
	}
	q := snap.LastQuery
	return fmt.Sprintf("%d stars above %s at %s (%s)",
		len(snap.Stars),
		formatLatLon(q.Observer.LatDeg, q.Observer.LonDeg),
		q.Moment.Format("2006-01-02 15:04 UTC"),
		q.Settings.BrightnessMode)
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))
	goldStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorZenith))

	// Animated spinner frames
	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinner := spinnerFrames[m.animTick%len(spinnerFrames)]

	snap := m.snapshot
	latest := m.state.RecentEvents(1)
	var status string
	switch {
	case snap.Loading:
		status = accentStyle.Render(spinner) + " " + m.renderTwinkle("Fetching stars...", fetchKelvin)
	case snap.ErrorMessage != "":
		status = errorStyle.Render(snap.ErrorMessage)
	case m.reporting:
		status = accentStyle.Render(spinner) + " " + m.renderTwinkle(m.statusMsg, m.reportKelvin)
	case m.statusMsg != "":
		status = dimStyle.Render(m.statusMsg)
	case len(latest) == 1:
		line := describeEvent(latest[0])
		if !snap.LastFetch.IsZero() {
			line += fmt.Sprintf("  · fetched in %s", snap.FetchDuration.Round(time.Millisecond))
		}
		status = dimStyle.Render(line)
	}

	zenith := dimStyle.Render("No zenith star")
	if snap.Zenith != nil {
		zenith = goldStyle.Render(string(skymap.GlyphZenith)+" "+zenithSummary(*snap.Zenith)) +
			dimStyle.Render("  true zenith RA "+m.trueZenithRA())
	}

	help := dimStyle.Render("arrows: cursor | enter: location | +/-: hour | g: get stars | s: select star | b: brightness | v/x: velocity/distance | p: report | z: popup | [/]: zoom | c: centre | q: quit")

	return "  " + zenith + "\n  " + status + "\n  " + help
}

// zenithSummary is the one-line status of the zenith star.
func zenithSummary(s astro.Star) string {
	facts := astro.FactsFor(s)
	return fmt.Sprintf("%s | G %s | BP−RP %s | %s pc",
		s.Label(),
		formatOpt(s.GMag, "%.2f"),
		formatOpt(s.BPRP, "%.2f"),
		formatOpt(facts.DistancePc, "%.1f"))
}

func (m Model) trueZenithRA() string {
	q := m.snapshot.LastQuery
	if q == nil {
		return "-"
	}
	ra, _ := astro.TrueZenith(q.Observer, q.Moment)
	return formatRA(ra)
}

// renderStarPopup shows the details of the selected star, which is the
// zenith star unless another one was picked on the map.
func (m Model) renderStarPopup() string {
	st := m.snapshot.Selected
	if st == nil {
		return ""
	}
	facts := astro.FactsFor(*st)
	vis := astro.VisualFor(*st, astro.DefaultSizeMapper())

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorZenith))
	swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(vis.Color.Hex()))
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	row := func(k, v string) string {
		return label.Render(fmt.Sprintf("%-13s", k)) + v
	}

	heading := "Selected star"
	if z := m.snapshot.Zenith; z != nil && z.Label() == st.Label() {
		heading = "Star at the zenith"
	}
	alt, az := "-", "-"
	if obs, at, ok := m.viewingContext(); ok {
		if h, ok := astro.HorizontalFor(*st, obs, at); ok {
			alt = fmt.Sprintf("%+.1f°", h.ElDeg)
			az = fmt.Sprintf("%.1f°", h.AzDeg)
		}
	}

	lines := []string{
		title.Render(heading),
		swatch.Render("● ") + st.Label(),
		"",
		row("Source ID", orDash(st.SourceID)),
		row("Designation", orDash(st.Designation)),
		row("RA", raOpt(st.RAHours)),
		row("Dec", formatOpt(st.DecDeg, "%+.4f°")),
		row("Altitude", alt),
		row("Azimuth", az),
		row("G mag", formatOpt(st.GMag, "%.2f")),
		row("BP−RP", formatOpt(st.BPRP, "%.2f")),
		row("Temperature", fmt.Sprintf("%.0f K", vis.Temperature)),
		row("Parallax", formatOpt(st.Parallax, "%.3f mas")),
		row("Distance", distance(facts)),
		row("Abs. mag", formatOpt(facts.AbsMag, "%.2f")),
		row("Spectral", orDash(facts.SpectralType)),
		row("Proper mot.", formatOpt(facts.ProperMotion, "%.2f mas/yr")),
		row("Radial vel.", formatOpt(st.RadialVelocity, "%.1f km/s")),
		"",
		label.Render("p: report  z: close  esc: zenith"),
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#7B2CBF")).
		Padding(0, 1).
		Width(popupWidth - 2)
	return box.Render(strings.Join(lines, "\n"))
}

// describeEvent is the one-line footer text for a session event.
func describeEvent(e state.Event) string {
	var what string
	switch e.Type {
	case state.EventLocationSelected:
		what = "location selected"
	case state.EventMomentSet:
		what = "time set to " + e.Message
	case state.EventQueryStarted:
		what = "query started"
	case state.EventStarsLoaded:
		what = fmt.Sprintf("%d stars loaded", e.StarCount)
		if e.Zenith != "" {
			what += ", zenith " + e.Zenith
		}
	case state.EventFetchFailed:
		what = "query failed: " + e.Message
	case state.EventStarSelected:
		what = "selected " + e.Message
	case state.EventReportSaved:
		what = "report for " + e.Zenith + " saved to " + e.Message
	default:
		what = string(e.Type)
	}
	return e.Timestamp.Local().Format("15:04:05") + " " + what
}

func distance(f astro.Facts) string {
	if f.DistancePc == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f pc / %.1f ly", *f.DistancePc, *f.DistanceLy)
}

func formatOpt(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func raOpt(h *float64) string {
	if h == nil {
		return "-"
	}
	return formatRA(*h)
}

// formatRA formats decimal hours as 11h03m43s.
func formatRA(hours float64) string {
	total := int(math.Round(math.Mod(hours, 24) * 3600))
	if total < 0 {
		total += 24 * 3600
	}
	total %= 24 * 3600
	return fmt.Sprintf("%02dh%02dm%02ds", total/3600, total/60%60, total%60)
}

func formatLatLon(lat, lon float64) string {
	ns, ew := 'N', 'E'
	if lat < 0 {
		ns = 'S'
	}
	if lon < 0 {
		ew = 'W'
	}
	return fmt.Sprintf("%.2f°%c %.2f°%c", math.Abs(lat), ns, math.Abs(lon), ew)
}

func onOff(b bool) string {
	if b {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorObserver)).Render("on")
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("60")).Render("off")
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func animTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}

// renderTitle renders text with the horizontal nebula gradient.
func (m Model) renderTitle(text string) string {
	runes := []rune(text)
	var b strings.Builder
	for col, r := range runes {
		style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(gradientColor(col, 0, len(runes), 1)))
		b.WriteString(style.Render(string(r)))
	}
	return b.String()
}

// gradientColor returns a hex color for a position in the title gradient.
// Blue -> purple -> magenta -> pink, darker toward the bottom.
func gradientColor(col, row, width, height int) string {
	xRatio := float64(col) / float64(width)
	yRatio := float64(row) / float64(height)

	var r, g, b float64

	if xRatio < 0.33 {
		// Blue to Purple
		t := xRatio / 0.33
		r = 59 + t*(139-59)
		g = 130 + t*(92-130)
		b = 246
	} else if xRatio < 0.66 {
		// Purple to Magenta
		t := (xRatio - 0.33) / 0.33
		r = 139 + t*(217-139)
		g = 92 + t*(70-92)
		b = 246 + t*(239-246)
	} else {
		// Magenta to Pink
		t := (xRatio - 0.66) / 0.34
		r = 217 + t*(236-217)
		g = 70 + t*(72-70)
		b = 239 + t*(153-239)
	}

	brightnessFactor := 1.0 - (yRatio * 0.5)
	return astro.RGB{R: r * brightnessFactor, G: g * brightnessFactor, B: b * brightnessFactor}.Hex()
}

// Twinkle colours: text rests at twinkleBase and a highlight in the colour
// of a star of the given temperature sweeps across it.
const (
	twinkleBase  = "#504678"
	twinkleWidth = 4.0
	fetchKelvin  = 10000
)

// renderTwinkle sweeps a star-coloured highlight across text, one rune per
// animation tick.
func (m Model) renderTwinkle(text string, kelvin float64) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}
	base, _ := colorful.Hex(twinkleBase)
	peak, err := colorful.Hex(astro.TemperatureToRGB(kelvin).Hex())
	if err != nil {
		peak = base
	}

	pos := m.animTick % (len(runes) + 2*int(twinkleWidth))

	var b strings.Builder
	for i, r := range runes {
		d := math.Abs(float64(i - pos + int(twinkleWidth)))
		t := math.Max(0, 1-d/twinkleWidth)
		c := base.BlendLab(peak, t).Clamped()
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render(string(r)))
	}
	return b.String()
}

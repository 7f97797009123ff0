package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/litescript/gaiamaps/internal/astro"
	"github.com/litescript/gaiamaps/internal/catalogue"
	"github.com/litescript/gaiamaps/internal/journal"
	"github.com/litescript/gaiamaps/internal/metrics"
	"github.com/litescript/gaiamaps/internal/report"
	"github.com/litescript/gaiamaps/internal/skymap"
	"github.com/litescript/gaiamaps/internal/state"
	"github.com/litescript/gaiamaps/internal/version"
)

const (
	miniMapWidth  = 72
	miniMapHeight = 20
)

// queryFlags are shared by the commands that query the catalogue.
type queryFlags struct {
	lat, lon float64
	at       string
	mode     string
	velocity bool
	distance bool
	limit    int
}

func addQueryFlags(cmd *cobra.Command, f *queryFlags) {
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "Observer latitude in degrees (north positive)")
	cmd.Flags().Float64Var(&f.lon, "lon", 0, "Observer longitude in degrees (east positive)")
	cmd.Flags().StringVar(&f.at, "at", "", "Observation time, RFC 3339 or \"2006-01-02 15:04\" UTC (default now)")
	cmd.Flags().StringVar(&f.mode, "mode", "", "Brightness mode: naked-eye, bright, faint, all")
	cmd.Flags().BoolVar(&f.velocity, "velocity", false, "Include proper motion and radial velocity")
	cmd.Flags().BoolVar(&f.distance, "distance", false, "Include parallax-derived distance")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Maximum number of stars (0 lets the service choose)")
	cmd.MarkFlagRequired("lat")
	cmd.MarkFlagRequired("lon")
}

// settings overlays the flags the user actually set on the configured defaults.
func (f queryFlags) settings(cmd *cobra.Command, base catalogue.Settings) (catalogue.Settings, error) {
	s := base
	if cmd.Flags().Changed("mode") {
		mode, err := catalogue.ParseBrightnessMode(f.mode)
		if err != nil {
			return s, err
		}
		s.BrightnessMode = mode
	}
	if cmd.Flags().Changed("velocity") {
		s.IncludeVelocity = f.velocity
	}
	if cmd.Flags().Changed("distance") {
		s.IncludeDistance = f.distance
	}
	if f.limit > 0 {
		s.Limit = f.limit
	}
	return s, nil
}

func parseMoment(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use RFC 3339 or \"2006-01-02 15:04\"", s)
}

// runQuery drives one query through the session controller, the same way
// the interactive map does, and records the outcome in the journal.
func (a *app) runQuery(cmd *cobra.Command, f queryFlags) (state.Snapshot, error) {
	ctx := cmd.Context()

	moment, err := parseMoment(f.at)
	if err != nil {
		return state.Snapshot{}, err
	}
	settings, err := f.settings(cmd, a.cfg.Query.Settings())
	if err != nil {
		return state.Snapshot{}, err
	}

	mgr := state.NewManager(a.stateConfig())
	if err := mgr.SelectLocation(astro.Observer{LatDeg: f.lat, LonDeg: f.lon}); err != nil {
		return state.Snapshot{}, err
	}
	if err := mgr.SetMoment(moment); err != nil {
		return state.Snapshot{}, err
	}
	mgr.SetSettings(settings)

	q, err := mgr.BeginQuery()
	if err != nil {
		return state.Snapshot{}, err
	}
	a.logger.Info("querying stars", "lat", q.Observer.LatDeg, "lon", q.Observer.LonDeg,
		"moment", q.Moment, "mode", q.Settings.BrightnessMode)

	res, err := a.catalogue.FetchStars(ctx, q.Observer, q.Moment, q.Settings)
	if err != nil {
		mgr.FailQuery(err)
		return mgr.Snapshot(), fmt.Errorf("%s: %w", strings.TrimSuffix(state.FailureMessage(err), "."), err)
	}

	zenith, ok := mgr.CompleteQuery(res)
	var zp *astro.Star
	if ok {
		metrics.IncZenithResolved()
		zp = &zenith
	}
	a.logger.Info("stars loaded", "count", len(res.Stars), "duration", res.Duration, "zenith_found", ok)

	if err := a.record(ctx, journal.NewEntry(q.Observer, q.Moment, string(q.Settings.BrightnessMode), len(res.Stars), zp)); err != nil {
		a.logger.Warn("journal write failed", "error", err)
	}
	return mgr.Snapshot(), nil
}

func (a *app) record(ctx context.Context, e journal.Entry) error {
	j, err := a.openJournal(ctx)
	if err != nil || j == nil {
		return err
	}
	_, err = j.Record(ctx, e)
	return err
}

var (
	starsFlags   queryFlags
	starsJSON    bool
	starsMiniMap bool
)

var starsCmd = &cobra.Command{
	Use:   "stars",
	Short: "Query the stars above a place and time",
	Long: `Query the catalogue for the stars above a place and time and print them,
zenith star first, as a table or as a JSON render plan.`,
	Example: `  gaiamaps stars --lat 41.39 --lon 2.17
  gaiamaps stars --lat -33.87 --lon 151.21 --at 2024-06-15T12:00:00Z --mode bright --json`,
	Args: cobra.NoArgs,
	RunE: runStars,
}

func init() {
	addQueryFlags(starsCmd, &starsFlags)
	starsCmd.Flags().BoolVar(&starsJSON, "json", false, "Print the render plan as JSON")
	starsCmd.Flags().BoolVar(&starsMiniMap, "mini-map", false, "Also draw a text map")
}

func runStars(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.runQuery(cmd, starsFlags)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	moment := snap.LastQuery.Moment
	if starsJSON {
		return skymap.ExportPlan(snap.Plan, &moment, time.Now()).WriteJSON(out)
	}

	skymap.WriteSummaryTable(out, snap.Plan, moment)
	if starsMiniMap {
		fmt.Fprintln(out)
		skymap.WriteMiniMap(out, snap.Plan, miniMapWidth, miniMapHeight)
	}
	if snap.Zenith != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, highlight(fmt.Sprintf("%c Zenith star: %s", skymap.GlyphZenith, snap.Zenith.Label())))
	}
	return nil
}

var (
	reportFlags queryFlags
	reportOut   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Download the PDF report for the zenith star",
	Long: `Query the stars above a place and time, resolve the zenith star and
download its report. The subtitle names the place when reverse geocoding
is enabled.`,
	Example: `  gaiamaps report --lat 41.39 --lon 2.17 --out reports/`,
	Args:    cobra.NoArgs,
	RunE:    runReport,
}

func init() {
	addQueryFlags(reportCmd, &reportFlags)
	reportCmd.Flags().StringVar(&reportOut, "out", "", "Directory for "+catalogue.DefaultReportFilename)
}

func runReport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.runQuery(cmd, reportFlags)
	if err != nil {
		return err
	}
	if snap.Zenith == nil {
		return report.ErrNoStar
	}

	res, err := a.reporter.Save(cmd.Context(), report.Request{
		Star:     snap.Zenith,
		Observer: snap.LastQuery.Observer,
		Moment:   snap.LastQuery.Moment,
		Dir:      reportOut,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, highlight(fmt.Sprintf("%c %s", skymap.GlyphZenith, snap.Zenith.Label())))
	fmt.Fprintf(out, "%s\nSaved %d bytes to %s\n", res.Subtitle, res.Bytes, res.Path)
	return nil
}

var (
	demoJSON    bool
	demoMiniMap bool
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Show the Big Dipper reference set",
	Long:  `Lay out the built-in Big Dipper stars without contacting the catalogue.`,
	Args:  cobra.NoArgs,
	RunE:  runDemo,
}

func init() {
	demoCmd.Flags().BoolVar(&demoJSON, "json", false, "Print the render plan as JSON")
	demoCmd.Flags().BoolVar(&demoMiniMap, "mini-map", true, "Also draw a text map")
}

func runDemo(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	cat := astro.DefaultStarCatalog()
	opts := skymap.DefaultOptions()
	opts.Sizes = a.cfg.Render.Sizes()
	opts.Asterism = cat.Asterism
	plan := skymap.Build(cat.Stars, cat.Anchor, nil, opts)

	out := cmd.OutOrStdout()
	if demoJSON {
		return skymap.ExportPlan(plan, nil, time.Now()).WriteJSON(out)
	}
	skymap.WriteSummaryTable(out, plan, time.Now())
	if demoMiniMap {
		fmt.Fprintln(out)
		skymap.WriteMiniMap(out, plan, miniMapWidth, miniMapHeight)
	}
	return nil
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent zenith stars from the journal",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	j, err := a.openJournal(ctx)
	if err != nil {
		return err
	}
	if j == nil {
		return fmt.Errorf("%w: set journal.path in the config file", journal.ErrDisabled)
	}

	entries, err := j.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}
	journal.WriteTable(cmd.OutOrStdout(), entries)
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

// highlight colours s gold when stdout is a terminal.
func highlight(s string) string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return s
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Render(s)
}

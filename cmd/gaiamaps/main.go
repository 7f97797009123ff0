// Command gaiamaps shows which Gaia catalogue star is overhead at a chosen
// place and time, as a terminal star map or as headless reports.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/litescript/gaiamaps/internal/catalogue"
	"github.com/litescript/gaiamaps/internal/config"
	"github.com/litescript/gaiamaps/internal/geocode"
	"github.com/litescript/gaiamaps/internal/journal"
	"github.com/litescript/gaiamaps/internal/logging"
	"github.com/litescript/gaiamaps/internal/metrics"
	"github.com/litescript/gaiamaps/internal/report"
	"github.com/litescript/gaiamaps/internal/state"
	"github.com/litescript/gaiamaps/internal/ui"
	"github.com/litescript/gaiamaps/internal/version"
)

// Global flags
var (
	configPath  string
	logLevel    string
	metricsAddr string
)

var rootCmd = &cobra.Command{
	Use:   "gaiamaps",
	Short: "Find the star at your zenith",
	Long: `gaiamaps draws the Gaia catalogue stars above a place and time on a
terminal map and highlights the one closest to the zenith.

Run without a subcommand for the interactive map, or use the headless
subcommands for scripts.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	rootCmd.AddCommand(starsCmd, reportCmd, demoCmd, historyCmd, versionCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds what every command shares.
type app struct {
	cfg       config.Config
	logger    *slog.Logger
	catalogue *catalogue.Client
	reporter  report.Reporter
	closers   []io.Closer
}

// newApp loads configuration and builds the clients. Log lines go to
// logOut unless the config names a log file.
func newApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		if _, ok := logging.LookupLevel(logLevel); !ok {
			return nil, fmt.Errorf("unknown log level %q", logLevel)
		}
		cfg.Log.Level = logLevel
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}

	a := &app{cfg: cfg}
	if cfg.Log.File != "" {
		f, err := logging.OpenFile(cfg.Log.File)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, f)
		logOut = f
	}
	if logOut == nil {
		a.logger = logging.Discard()
	} else {
		a.logger = logging.New(logging.ParseLevel(cfg.Log.Level), logOut)
	}

	opts := []catalogue.Option{
		catalogue.WithBaseURL(cfg.Catalogue.BaseURL),
		catalogue.WithTimeout(cfg.Catalogue.Timeout),
	}
	if cfg.Catalogue.UserAgent != "" {
		opts = append(opts, catalogue.WithUserAgent(cfg.Catalogue.UserAgent))
	}
	a.catalogue = catalogue.NewClient(opts...)
	a.reporter = report.Reporter{Catalogue: a.catalogue, Logger: a.logger}
	if cfg.Geocoder.Enabled() {
		a.reporter.Geocoder = geocode.NewClient(
			geocode.WithBaseURL(cfg.Geocoder.BaseURL),
			geocode.WithTimeout(cfg.Geocoder.Timeout),
			geocode.WithRate(cfg.Geocoder.Rate(), 1),
		)
	}

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, a.logger); err != nil {
				a.logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	a.logger.Debug("configured",
		"catalogue", a.catalogue.BaseURL(),
		"geocoder", cfg.Geocoder.Enabled(),
		"journal", cfg.Journal.Path,
		"metrics", cfg.Metrics.Addr)
	return a, nil
}

// openJournal returns nil when no journal path is configured.
func (a *app) openJournal(ctx context.Context) (*journal.Journal, error) {
	j, err := journal.Open(ctx, a.cfg.Journal.Path)
	if errors.Is(err, journal.ErrDisabled) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, j)
	return j, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i].Close()
	}
}

func (a *app) stateConfig() state.Config {
	cfg := state.DefaultConfig()
	cfg.Settings = a.cfg.Query.Settings()
	cfg.Sizes = a.cfg.Render.Sizes()
	return cfg
}

func runTUI(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the interactive map needs a terminal; try `gaiamaps stars` or `gaiamaps demo`")
	}
	ctx := cmd.Context()

	// stdout belongs to the UI, so logs only go to the configured file.
	a, err := newApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	j, err := a.openJournal(ctx)
	if err != nil {
		return err
	}

	model := ui.New(ui.Deps{
		Context:   ctx,
		State:     state.NewManager(a.stateConfig()),
		Catalogue: a.catalogue,
		Reporter:  a.reporter,
		Journal:   j,
		Logger:    a.logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	a.logger.Info("starting", "version", version.Version)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}

// Package report produces the downloadable document for a star: it names
// the observing place, asks the document service for the PDF and saves it.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/litescript/gaiamaps/internal/astro"
	"github.com/litescript/gaiamaps/internal/catalogue"
	"github.com/litescript/gaiamaps/internal/geocode"
	"github.com/litescript/gaiamaps/internal/logging"
)

// ErrNoStar is returned when there is no star to report on.
var ErrNoStar = errors.New("no star selected for the report")

// Reporter downloads star reports. Geocoder may be nil, in which case the
// subtitle carries the date only.
type Reporter struct {
	Catalogue *catalogue.Client
	Geocoder  *geocode.Client
	Logger    *slog.Logger
}

// Request describes one report.
type Request struct {
	Star     *astro.Star
	Observer astro.Observer
	Moment   time.Time
	Dir      string // output directory, "" for the working directory
}

// Result is a saved report.
type Result struct {
	Path     string
	Subtitle string
	Bytes    int
}

// Subtitle names the moment and, when the geocoder answers, the place.
// Geocoding failures only drop the place name.
func (r Reporter) Subtitle(ctx context.Context, obs astro.Observer, moment time.Time) string {
	place := ""
	if r.Geocoder != nil {
		name, err := r.Geocoder.Reverse(ctx, obs.LatDeg, obs.LonDeg)
		if err != nil {
			r.logger().Warn("reverse geocoding failed", "lat", obs.LatDeg, "lon", obs.LonDeg, "error", err)
		}
		place = name
	}
	return geocode.Subtitle(moment, place)
}

// Save downloads the report for req.Star and writes it to req.Dir.
func (r Reporter) Save(ctx context.Context, req Request) (Result, error) {
	if req.Star == nil {
		return Result{}, ErrNoStar
	}
	if r.Catalogue == nil {
		return Result{}, errors.New("report: no catalogue client")
	}

	subtitle := r.Subtitle(ctx, req.Observer, req.Moment)
	data, err := r.Catalogue.DownloadReport(ctx, *req.Star, subtitle)
	if err != nil {
		return Result{}, fmt.Errorf("download report for %s: %w", req.Star.Label(), err)
	}

	if req.Dir != "" {
		if err := os.MkdirAll(req.Dir, 0o755); err != nil {
			return Result{}, fmt.Errorf("create report dir: %w", err)
		}
	}
	path := filepath.Join(req.Dir, catalogue.DefaultReportFilename)
	if err := catalogue.SaveReport(path, data); err != nil {
		return Result{}, err
	}

	r.logger().Info("report saved", "star", req.Star.Label(), "path", path, "bytes", len(data))
	return Result{Path: path, Subtitle: subtitle, Bytes: len(data)}, nil
}

func (r Reporter) logger() *slog.Logger {
	if r.Logger == nil {
		return logging.Discard()
	}
	return r.Logger
}

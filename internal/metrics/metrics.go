// Package metrics exposes Prometheus collectors for catalogue traffic,
// geocoding and zenith resolution, and serves them over HTTP.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcomes used as label values.
const (
	OutcomeOK          = "ok"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

var (
	catalogueRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gaiamaps_catalogue_requests_total",
			Help: "Total number of catalogue requests by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	catalogueDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gaiamaps_catalogue_duration_seconds",
			Help:    "Catalogue request duration in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"endpoint"},
	)

	starsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gaiamaps_stars_returned",
			Help:    "Number of stars returned per catalogue query.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	geocodeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gaiamaps_geocode_requests_total",
			Help: "Total number of reverse geocoding requests by outcome.",
		},
		[]string{"outcome"},
	)

	zenithResolvedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gaiamaps_zenith_resolved_total",
			Help: "Total number of queries that resolved a zenith star.",
		},
	)
)

func init() {
	prometheus.MustRegister(catalogueRequestsTotal)
	prometheus.MustRegister(catalogueDurationSeconds)
	prometheus.MustRegister(starsReturned)
	prometheus.MustRegister(geocodeRequestsTotal)
	prometheus.MustRegister(zenithResolvedTotal)
}

// ObserveCatalogueRequest records one catalogue round trip.
func ObserveCatalogueRequest(endpoint, outcome string, d time.Duration) {
	catalogueRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	catalogueDurationSeconds.WithLabelValues(endpoint).Observe(d.Seconds())
}

// ObserveStarsReturned records the size of a star list.
func ObserveStarsReturned(n int) {
	starsReturned.Observe(float64(n))
}

// IncGeocode counts a reverse geocoding request.
func IncGeocode(outcome string) {
	geocodeRequestsTotal.WithLabelValues(outcome).Inc()
}

// IncZenithResolved counts a resolved zenith star.
func IncZenithResolved() {
	zenithResolvedTotal.Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// NewMux serves /metrics and a /healthz liveness probe.
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// Serve runs the metrics listener until ctx is cancelled.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting metrics server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("metrics server stopped")
	return nil
}

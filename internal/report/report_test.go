package report

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/litescript/gaiamaps/internal/astro"
	"github.com/litescript/gaiamaps/internal/catalogue"
	"github.com/litescript/gaiamaps/internal/geocode"
)

var moment = time.Date(2024, 6, 15, 22, 30, 0, 0, time.UTC)

func dubhe() *astro.Star {
	s := astro.DefaultStarCatalog().Stars[0]
	return &s
}

func newDocumentServer(t *testing.T, gotSubtitle *string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/star-pdf" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body struct {
			StarInfo map[string]any `json:"star_info"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if s, ok := body.StarInfo["subtitle"].(string); ok {
			*gotSubtitle = s
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 test"))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSave_WithPlace(t *testing.T) {
	var subtitle string
	docs := newDocumentServer(t, &subtitle)
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"address":{"city":"Barcelona"}}`))
	}))
	defer nominatim.Close()

	r := Reporter{
		Catalogue: catalogue.NewClient(catalogue.WithBaseURL(docs.URL)),
		Geocoder:  geocode.NewClient(geocode.WithBaseURL(nominatim.URL), geocode.WithRate(0, 0)),
	}
	dir := filepath.Join(t.TempDir(), "reports")

	res, err := r.Save(context.Background(), Request{
		Star:     dubhe(),
		Observer: astro.Observer{LatDeg: 41.39, LonDeg: 2.17},
		Moment:   moment,
		Dir:      dir,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if want := "June 15, 2024, 22:30 – Barcelona"; subtitle != want || res.Subtitle != want {
		t.Errorf("subtitle sent %q, returned %q, want %q", subtitle, res.Subtitle, want)
	}
	if res.Path != filepath.Join(dir, catalogue.DefaultReportFilename) {
		t.Errorf("path = %s", res.Path)
	}
	data, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatalf("read saved report: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") || res.Bytes != len(data) {
		t.Errorf("saved %d bytes %q", res.Bytes, data)
	}
}

func TestSave_GeocoderFailureKeepsDate(t *testing.T) {
	var subtitle string
	docs := newDocumentServer(t, &subtitle)
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer nominatim.Close()

	r := Reporter{
		Catalogue: catalogue.NewClient(catalogue.WithBaseURL(docs.URL)),
		Geocoder:  geocode.NewClient(geocode.WithBaseURL(nominatim.URL), geocode.WithRate(0, 0)),
	}
	if _, err := r.Save(context.Background(), Request{Star: dubhe(), Moment: moment, Dir: t.TempDir()}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if subtitle != "June 15, 2024, 22:30" {
		t.Errorf("subtitle = %q, want date only", subtitle)
	}
}

func TestSave_NoGeocoder(t *testing.T) {
	var subtitle string
	docs := newDocumentServer(t, &subtitle)

	r := Reporter{Catalogue: catalogue.NewClient(catalogue.WithBaseURL(docs.URL))}
	if _, err := r.Save(context.Background(), Request{Star: dubhe(), Moment: moment, Dir: t.TempDir()}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if subtitle != "June 15, 2024, 22:30" {
		t.Errorf("subtitle = %q", subtitle)
	}
}

func TestSave_NoStar(t *testing.T) {
	r := Reporter{Catalogue: catalogue.NewClient()}
	if _, err := r.Save(context.Background(), Request{}); !errors.Is(err, ErrNoStar) {
		t.Errorf("err = %v, want ErrNoStar", err)
	}
}

func TestSave_ServiceUnavailable(t *testing.T) {
	docs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer docs.Close()

	dir := t.TempDir()
	r := Reporter{Catalogue: catalogue.NewClient(catalogue.WithBaseURL(docs.URL))}
	_, err := r.Save(context.Background(), Request{Star: dubhe(), Moment: moment, Dir: dir})
	if !errors.Is(err, catalogue.ErrCatalogueUnavailable) {
		t.Fatalf("err = %v, want ErrCatalogueUnavailable", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, catalogue.DefaultReportFilename)); !os.IsNotExist(statErr) {
		t.Error("no file should be written on failure")
	}
}

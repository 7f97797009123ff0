package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/litescript/gaiamaps/internal/catalogue"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func requireErrEq(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", want)
	}
	if err.Error() != want {
		t.Fatalf("error=%q want %q", err.Error(), want)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvLogLevel, "")
}

func TestLoad_DefaultsApplied(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, "catalogue: {}\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Catalogue.BaseURL != catalogue.DefaultBaseURL {
		t.Fatalf("base_url=%q", cfg.Catalogue.BaseURL)
	}
	if cfg.Catalogue.Timeout != catalogue.DefaultTimeout {
		t.Fatalf("timeout=%s", cfg.Catalogue.Timeout)
	}
	if cfg.Query.BrightnessMode != "naked-eye" {
		t.Fatalf("brightness_mode=%q", cfg.Query.BrightnessMode)
	}
	if cfg.Render.MinSize != 4 || cfg.Render.MaxSize != 12 {
		t.Fatalf("render=%+v", cfg.Render)
	}
	if cfg.Geocoder.Rate() != 1 || !cfg.Geocoder.Enabled() {
		t.Fatalf("geocoder=%+v", cfg.Geocoder)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("log.level=%q", cfg.Log.Level)
	}
}

func TestLoad_ZeroRateDisablesThrottle(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, "geocoder:\n  rate_per_second: 0\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Geocoder.RatePerSecond == nil || cfg.Geocoder.Rate() != 0 {
		t.Fatalf("rate=%v, want explicit 0", cfg.Geocoder.Rate())
	}
}

func TestLoad_EmptyPathIsDefault(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("Load(\"\") = %+v, want Default()", cfg)
	}
}

func TestLoad_FullFile(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
catalogue:
  base_url: https://stars.example.org
  timeout: 90s
  user_agent: test-agent
geocoder:
  enable: false
  rate_per_second: 0.5
query:
  brightness_mode: faint
  include_velocity: true
  include_distance: true
  limit: 250
render:
  min_size: 2
  max_size: 8
journal:
  path: /tmp/history.db
metrics:
  addr: 127.0.0.1:9464
log:
  level: debug
  file: gaiamaps.log
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Catalogue.Timeout != 90*time.Second || cfg.Catalogue.UserAgent != "test-agent" {
		t.Fatalf("catalogue=%+v", cfg.Catalogue)
	}
	if cfg.Geocoder.Enabled() || cfg.Geocoder.Rate() != 0.5 {
		t.Fatalf("geocoder=%+v", cfg.Geocoder)
	}
	s := cfg.Query.Settings()
	if s.BrightnessMode != catalogue.Faint || !s.IncludeVelocity || !s.IncludeDistance || s.Limit != 250 {
		t.Fatalf("settings=%+v", s)
	}
	if sz := cfg.Render.Sizes(); sz.MinSize != 2 || sz.MaxSize != 8 {
		t.Fatalf("sizes=%+v", sz)
	}
	if cfg.Journal.Path != "/tmp/history.db" || cfg.Metrics.Addr != "127.0.0.1:9464" {
		t.Fatalf("journal/metrics=%+v %+v", cfg.Journal, cfg.Metrics)
	}
	if cfg.Log.Level != "debug" || cfg.Log.File != "gaiamaps.log" {
		t.Fatalf("log=%+v", cfg.Log)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIURL, "https://api.example.net")
	t.Setenv(EnvLogLevel, "warn")
	path := writeTempConfig(t, "catalogue:\n  base_url: http://localhost:9000\nlog:\n  level: debug\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Catalogue.BaseURL != "https://api.example.net" {
		t.Fatalf("base_url=%q", cfg.Catalogue.BaseURL)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("log.level=%q", cfg.Log.Level)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "BadURL",
			body: "catalogue:\n  base_url: ftp://stars\n",
			want: "catalogue.base_url must be an http(s) URL",
		},
		{
			name: "BadMode",
			body: "query:\n  brightness_mode: dazzling\n",
			want: "query.brightness_mode must be one of naked-eye, bright, faint, all",
		},
		{
			name: "NegativeLimit",
			body: "query:\n  limit: -1\n",
			want: "query.limit must be >= 0",
		},
		{
			name: "NegativeMinSize",
			body: "render:\n  min_size: -1\n",
			want: "render.min_size must be > 0",
		},
		{
			name: "InvertedSizes",
			body: "render:\n  min_size: 10\n  max_size: 5\n",
			want: "render.max_size must be >= render.min_size",
		},
		{
			name: "NegativeRate",
			body: "geocoder:\n  rate_per_second: -2\n",
			want: "geocoder.rate_per_second must be >= 0",
		},
		{
			name: "BadLogLevel",
			body: "log:\n  level: chatty\n",
			want: "log.level must be one of debug, info, warn, error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(writeTempConfig(t, tc.body))
			requireErrEq(t, err, tc.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	if _, err := Load(writeTempConfig(t, "catalogue: [\n")); err == nil {
		t.Fatal("expected parse error")
	}
}

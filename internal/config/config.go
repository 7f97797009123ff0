// Package config loads gaiamaps settings from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/litescript/gaiamaps/internal/astro"
	"github.com/litescript/gaiamaps/internal/catalogue"
	"github.com/litescript/gaiamaps/internal/geocode"
	"github.com/litescript/gaiamaps/internal/logging"
)

// Environment overrides.
const (
	EnvAPIURL   = "GAIAMAPS_API_URL"
	EnvLogLevel = "GAIAMAPS_LOG_LEVEL"
)

type Config struct {
	Catalogue CatalogueConfig `yaml:"catalogue"`
	Geocoder  GeocoderConfig  `yaml:"geocoder"`
	Query     QueryConfig     `yaml:"query"`
	Render    RenderConfig    `yaml:"render"`
	Journal   JournalConfig   `yaml:"journal"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
}

type CatalogueConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type GeocoderConfig struct {
	Enable        *bool         `yaml:"enable"`
	BaseURL       string        `yaml:"base_url"`
	RatePerSecond *float64      `yaml:"rate_per_second"`
	Timeout       time.Duration `yaml:"timeout"`
}

// Enabled reports whether report subtitles should include a place name.
func (g GeocoderConfig) Enabled() bool {
	return g.Enable == nil || *g.Enable
}

// Rate returns the lookup rate limit. Zero turns throttling off.
func (g GeocoderConfig) Rate() float64 {
	if g.RatePerSecond == nil {
		return geocode.DefaultRatePerSecond
	}
	return *g.RatePerSecond
}

type QueryConfig struct {
	BrightnessMode  string `yaml:"brightness_mode"`
	IncludeVelocity bool   `yaml:"include_velocity"`
	IncludeDistance bool   `yaml:"include_distance"`
	Limit           int    `yaml:"limit"`
}

// Settings converts the query section into catalogue settings.
// Load has already validated the brightness mode.
func (q QueryConfig) Settings() catalogue.Settings {
	mode, err := catalogue.ParseBrightnessMode(q.BrightnessMode)
	if err != nil {
		mode = catalogue.NakedEye
	}
	return catalogue.Settings{
		BrightnessMode:  mode,
		IncludeVelocity: q.IncludeVelocity,
		IncludeDistance: q.IncludeDistance,
		Limit:           q.Limit,
	}
}

type RenderConfig struct {
	MinSize float64 `yaml:"min_size"`
	MaxSize float64 `yaml:"max_size"`
}

// Sizes returns the marker size mapper.
func (r RenderConfig) Sizes() astro.SizeMapper {
	return astro.SizeMapper{MinSize: r.MinSize, MaxSize: r.MaxSize}
}

type JournalConfig struct {
	Path string `yaml:"path"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

// Load reads path, applies environment overrides and defaults, and validates
// the result. An empty path loads the defaults.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg, os.LookupEnv)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIURL); ok && strings.TrimSpace(v) != "" {
		cfg.Catalogue.BaseURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		cfg.Log.Level = strings.TrimSpace(v)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Catalogue.BaseURL == "" {
		cfg.Catalogue.BaseURL = catalogue.DefaultBaseURL
	}
	if cfg.Catalogue.Timeout <= 0 {
		cfg.Catalogue.Timeout = catalogue.DefaultTimeout
	}

	if cfg.Geocoder.BaseURL == "" {
		cfg.Geocoder.BaseURL = geocode.DefaultBaseURL
	}
	if cfg.Geocoder.Timeout <= 0 {
		cfg.Geocoder.Timeout = geocode.DefaultTimeout
	}

	if cfg.Query.BrightnessMode == "" {
		cfg.Query.BrightnessMode = string(catalogue.NakedEye)
	}

	defaults := astro.DefaultSizeMapper()
	if cfg.Render.MinSize == 0 {
		cfg.Render.MinSize = defaults.MinSize
	}
	if cfg.Render.MaxSize == 0 {
		cfg.Render.MaxSize = defaults.MaxSize
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate checks value ranges after defaults are applied.
func (c Config) Validate() error {
	if !strings.HasPrefix(c.Catalogue.BaseURL, "http://") && !strings.HasPrefix(c.Catalogue.BaseURL, "https://") {
		return fmt.Errorf("catalogue.base_url must be an http(s) URL")
	}
	if c.Geocoder.Rate() < 0 {
		return fmt.Errorf("geocoder.rate_per_second must be >= 0")
	}
	if _, err := catalogue.ParseBrightnessMode(c.Query.BrightnessMode); err != nil {
		return fmt.Errorf("query.brightness_mode must be one of naked-eye, bright, faint, all")
	}
	if c.Query.Limit < 0 {
		return fmt.Errorf("query.limit must be >= 0")
	}
	if c.Render.MinSize <= 0 {
		return fmt.Errorf("render.min_size must be > 0")
	}
	if c.Render.MaxSize < c.Render.MinSize {
		return fmt.Errorf("render.max_size must be >= render.min_size")
	}
	if _, ok := logging.LookupLevel(c.Log.Level); !ok {
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	return nil
}

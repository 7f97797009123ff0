// Package catalogue talks to the star catalogue service: star queries for an
// observer and moment, and star report documents.
package catalogue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/litescript/gaiamaps/internal/astro"
	"github.com/litescript/gaiamaps/internal/metrics"
)

const (
	// DefaultBaseURL is where the catalogue service listens during development.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeout for HTTP requests. Archive queries can be slow.
	DefaultTimeout = 60 * time.Second

	// DefaultReportFilename is the conventional name for a saved report.
	DefaultReportFilename = "star_report.pdf"

	starsEndpoint  = "/get-stars"
	reportEndpoint = "/star-pdf"

	defaultUserAgent = "gaiamaps/1.0 (Zenith Star Map)"
)

// ErrCatalogueUnavailable is returned when the service reports 503.
var ErrCatalogueUnavailable = errors.New("catalogue unavailable")

// StatusError is returned for any other non-200 response.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: unexpected status code %d: %s", e.Endpoint, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: unexpected status code: %d", e.Endpoint, e.StatusCode)
}

// Client handles HTTP calls to the catalogue service.
type Client struct {
	client    *http.Client
	baseURL   string
	timeout   time.Duration
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the service root URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a new catalogue client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		timeout:   DefaultTimeout,
		userAgent: defaultUserAgent,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		c.client = &http.Client{
			Timeout: c.timeout,
		}
	}

	return c
}

// BaseURL returns the configured service URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Center is the equatorial position the service searched around, in degrees.
type Center struct {
	RA  float64 `json:"ra"`
	Dec float64 `json:"dec"`
}

// FetchResult contains the result of a star query.
type FetchResult struct {
	Center    Center
	Stars     []astro.Star
	Offsets   []astro.Offset // Service-computed placements, by star index
	FetchedAt time.Time
	Duration  time.Duration
}

type starsRequest struct {
	Lat             float64 `json:"lat"`
	Lon             float64 `json:"lon"`
	DatetimeISO     string  `json:"datetime_iso"`
	BrightnessMode  string  `json:"brightness_mode"`
	IncludeVelocity bool    `json:"include_velocity"`
	IncludeDistance bool    `json:"include_distance"`
	Limit           *int    `json:"limit,omitempty"`
}

type starsResponse struct {
	Center Center                       `json:"center"`
	Stars  []map[string]json.RawMessage `json:"stars"`
}

// FetchStars asks the service for the stars around the observer's zenith at
// the given moment.
func (c *Client) FetchStars(ctx context.Context, obs astro.Observer, at time.Time, s Settings) (FetchResult, error) {
	if err := obs.Validate(); err != nil {
		return FetchResult{}, err
	}
	if s.BrightnessMode == "" {
		s.BrightnessMode = NakedEye
	}

	body := starsRequest{
		Lat:             obs.LatDeg,
		Lon:             obs.LonDeg,
		DatetimeISO:     at.UTC().Format("2006-01-02T15:04:05.000Z"),
		BrightnessMode:  string(s.BrightnessMode),
		IncludeVelocity: s.IncludeVelocity,
		IncludeDistance: s.IncludeDistance,
	}
	if s.Limit > 0 {
		limit := s.Limit
		body.Limit = &limit
	}

	start := time.Now()
	raw, err := c.post(ctx, starsEndpoint, body)
	result := FetchResult{FetchedAt: start, Duration: time.Since(start)}
	metrics.ObserveCatalogueRequest(starsEndpoint, outcome(err), result.Duration)
	if err != nil {
		return result, err
	}

	var resp starsResponse
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&resp); err != nil {
		return result, fmt.Errorf("decode stars response: %w", err)
	}

	result.Center = resp.Center
	result.Stars = make([]astro.Star, 0, len(resp.Stars))
	for _, row := range resp.Stars {
		star, off, err := decodeStar(row)
		if err != nil {
			return result, fmt.Errorf("decode star %d: %w", len(result.Stars), err)
		}
		if off != nil {
			off.Index = len(result.Stars)
			result.Offsets = append(result.Offsets, *off)
		}
		result.Stars = append(result.Stars, star)
	}
	metrics.ObserveStarsReturned(len(result.Stars))

	return result, nil
}

// DownloadReport requests the report document for a star.
func (c *Client) DownloadReport(ctx context.Context, star astro.Star, subtitle string) ([]byte, error) {
	body := map[string]any{"star_info": encodeStar(star, subtitle)}

	start := time.Now()
	data, err := c.post(ctx, reportEndpoint, body)
	metrics.ObserveCatalogueRequest(reportEndpoint, outcome(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: empty document", reportEndpoint)
	}
	return data, nil
}

// SaveReport writes a downloaded report to path.
func SaveReport(path string, data []byte) error {
	if path == "" {
		path = DefaultReportFilename
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, fmt.Errorf("%s: %w", endpoint, ErrCatalogueUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(resp.Body),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

// errorDetail extracts the "detail" field from an error body, if present.
func errorDetail(r io.Reader) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || json.Unmarshal(data, &payload) != nil || payload.Detail == nil {
		return ""
	}
	if s, ok := payload.Detail.(string); ok {
		return s
	}
	return fmt.Sprint(payload.Detail)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrCatalogueUnavailable):
		return metrics.OutcomeUnavailable
	default:
		return metrics.OutcomeError
	}
}

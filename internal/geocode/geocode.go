// Package geocode resolves a coordinate to a human-readable place name using
// a Nominatim-compatible reverse geocoding service.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/litescript/gaiamaps/internal/metrics"
)

const (
	// DefaultBaseURL is the public OpenStreetMap Nominatim instance.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// DefaultTimeout for HTTP requests.
	DefaultTimeout = 10 * time.Second

	// DefaultRatePerSecond follows the public instance's usage policy.
	DefaultRatePerSecond = 1.0

	defaultUserAgent = "gaiamaps/1.0 (Zenith Star Map)"
)

// Client performs throttled reverse geocoding lookups.
type Client struct {
	client    *http.Client
	baseURL   string
	timeout   time.Duration
	userAgent string
	limiter   *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the service root URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
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

// WithRate limits lookups to perSecond requests with the given burst.
// A non-positive rate disables throttling.
func WithRate(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient creates a new reverse geocoding client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		timeout:   DefaultTimeout,
		userAgent: defaultUserAgent,
		limiter:   rate.NewLimiter(rate.Limit(DefaultRatePerSecond), 1),
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

type reverseResponse struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
}

// placeKeys is the order in which address parts are preferred.
var placeKeys = []string{"city", "town", "village", "hamlet", "county", "state", "country"}

// Reverse returns the most specific place name for the coordinate.
// A non-200 response yields an empty name and no error.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("geocode rate limit: %w", err)
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.IncGeocode(metrics.OutcomeError)
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.IncGeocode(metrics.OutcomeUnavailable)
		return "", nil
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.IncGeocode(metrics.OutcomeError)
		return "", fmt.Errorf("decode reverse geocode: %w", err)
	}
	metrics.IncGeocode(metrics.OutcomeOK)

	return placeName(body), nil
}

func placeName(r reverseResponse) string {
	for _, k := range placeKeys {
		if v := strings.TrimSpace(r.Address[k]); v != "" {
			return v
		}
	}
	return strings.TrimSpace(r.DisplayName)
}

// Subtitle formats the report subtitle for a moment and place. The moment is
// shown in its own location.
func Subtitle(moment time.Time, place string) string {
	date := moment.Format("January 2, 2006, 15:04")
	if place == "" {
		return date
	}
	return date + " – " + place
}

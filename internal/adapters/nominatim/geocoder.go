// Package nominatim reverse-geocodes coordinates with an OpenStreetMap
// Nominatim server.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public OSM Nominatim instance.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// DefaultTimeout for HTTP requests.
	DefaultTimeout = 5 * time.Second
)

// Geocoder implements ports.Geocoder.
type Geocoder struct {
	client    *http.Client
	baseURL   string
	userAgent string
	zoom      int
	timeout   time.Duration
	limiter   *rate.Limiter
}

// Option configures a Geocoder.
type Option func(*Geocoder)

// WithBaseURL points the client at another Nominatim instance.
func WithBaseURL(u string) Option {
	return func(g *Geocoder) {
		if u != "" {
			g.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Geocoder) {
		g.client = c
	}
}

// WithTimeout sets the request timeout of the default HTTP client. It has no
// effect together with WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(g *Geocoder) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header; the public instance rejects
// requests without one.
func WithUserAgent(ua string) Option {
	return func(g *Geocoder) {
		if ua != "" {
			g.userAgent = ua
		}
	}
}

// WithZoom sets the address detail level (3 = country ... 18 = building).
func WithZoom(z int) Option {
	return func(g *Geocoder) {
		if z > 0 {
			g.zoom = z
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables the limit.
func WithRateLimit(perSecond float64) Option {
	return func(g *Geocoder) {
		if perSecond <= 0 {
			g.limiter = nil
			return
		}
		g.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// New creates a Nominatim client. The public instance allows one request per
// second, which is the default limit.
func New(opts ...Option) *Geocoder {
	g := &Geocoder{
		baseURL:   DefaultBaseURL,
		userAgent: "isstrack/1.0",
		zoom:      10,
		timeout:   DefaultTimeout,
		limiter:   rate.NewLimiter(rate.Limit(1), 1),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.client == nil {
		g.client = &http.Client{Timeout: g.timeout}
	}
	return g
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// ReverseGeocode returns the display name for a coordinate. Points without
// an address (open ocean) return "" and a nil error.
func (g *Geocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("geocode rate limit: %w", err)
		}
	}

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	q.Set("zoom", strconv.Itoa(g.zoom))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocode: unexpected status code %d", resp.StatusCode)
	}

	var out reverseResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode reverse geocode response: %w", err)
	}
	if out.Error != "" {
		return "", nil
	}
	return out.DisplayName, nil
}

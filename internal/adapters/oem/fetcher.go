// Package oem ingests the ISS Orbit Ephemeris Message feed.
package oem

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/samirrijal/isstrack/internal/core/domain"
)

const (
	// DefaultURL is NASA's public ISS trajectory feed (J2000 ephemeris, XML).
	DefaultURL = "https://nasa-public-data.s3.amazonaws.com/iss-coords/current/ISS_OEM/ISS.OEM_J2K_EPH.xml"

	// DefaultTimeout for HTTP requests.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodyBytes caps the response size. The real feed is a few MB.
	DefaultMaxBodyBytes = 50 << 20
)

// Fetcher retrieves and parses the OEM feed. It implements ports.FeedSource.
type Fetcher struct {
	client       *http.Client
	url          string
	timeout      time.Duration
	maxBodyBytes int64
	userAgent    string
	now          func() time.Time
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithURL sets a custom feed URL.
func WithURL(url string) FetcherOption {
	return func(f *Fetcher) {
		if url != "" {
			f.url = url
		}
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithMaxBodyBytes caps how much of the response is read.
func WithMaxBodyBytes(n int64) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodyBytes = n
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// NewFetcher creates a new OEM feed fetcher.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		url:          DefaultURL,
		timeout:      DefaultTimeout,
		maxBodyBytes: DefaultMaxBodyBytes,
		userAgent:    "isstrack/1.0",
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = &http.Client{
			Timeout: f.timeout,
		}
	}

	return f
}

// URL returns the configured feed URL.
func (f *Fetcher) URL() string {
	return f.url
}

// FetchRaw performs the HTTP GET and returns the body.
func (f *Fetcher) FetchRaw(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/xml, text/xml")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status code %d from %s", domain.ErrUpstreamFetch, resp.StatusCode, f.url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", domain.ErrUpstreamFetch, err)
	}
	if int64(len(body)) > f.maxBodyBytes {
		return nil, fmt.Errorf("%w: response exceeds %d byte limit", domain.ErrUpstreamFetch, f.maxBodyBytes)
	}

	return body, nil
}

// Fetch retrieves the feed and parses it into a snapshot.
func (f *Fetcher) Fetch(ctx context.Context) (*domain.Snapshot, error) {
	body, err := f.FetchRaw(ctx)
	if err != nil {
		return nil, err
	}

	snap, err := Parse(body)
	if err != nil {
		return nil, err
	}
	snap.FetchedAt = f.now().UTC()
	snap.Source = f.url
	return snap, nil
}

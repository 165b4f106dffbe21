package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pfrederiksen/xoso-draws/internal/draw"
	"github.com/pfrederiksen/xoso-draws/internal/region"
)

const (
	DefaultBaseURL = "https://xoso.com.vn"
	UserAgent      = "xoso-draws/1.0 (github.com/pfrederiksen/xoso-draws)"
	Timeout        = 30 * time.Second

	maxPageSize = 8 << 20
)

// Fetcher retrieves the raw result page of a region for one date.
type Fetcher interface {
	Fetch(ctx context.Context, r region.Region, d draw.Date) ([]byte, error)
}

// StatusError is returned when the server answers with a non-200 status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}

// Temporary reports whether retrying the request may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client fetches result pages over HTTP.
type Client struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// New creates a new Client instance
func New(opts ...Option) *Client {
	c := &Client{
		client: &http.Client{
			Timeout: Timeout,
		},
		baseURL:   DefaultBaseURL,
		userAgent: UserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the result page address of r for date d.
func (c *Client) URL(r region.Region, d draw.Date) string {
	return c.baseURL + "/" + r.Path(d)
}

// Fetch downloads the result page of r for date d. It makes exactly one request.
func (c *Client) Fetch(ctx context.Context, r region.Region, d draw.Date) ([]byte, error) {
	url := c.URL(r, d)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}
	return body, nil
}

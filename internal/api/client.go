// Package api is the HTTP client for the PropertyForge backend: address
// search, parcel resolution, processing status and the report resources.
//
// Calls return (value, error). Failures are classified with apperr so the
// caller can pick the right inline message; this package never retries.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/parcelscout/internal/apperr"
	"github.com/abelbrown/parcelscout/internal/logging"
)

// Endpoint paths.
const (
	PathAddressSearch = "/api/address"
	PathParcelID      = "/api/parcel-id-by-address"
	PathParcelStatus  = "/api/parcel-id-status"
	PathValuation     = "/api/property_valuation/"
	PathROIPotential  = "/api/property_roi_potential/"
	PathFloodRisk     = "/api/property_flood_risk/"
	PathDisasterRisk  = "/api/property_disasters_risks/"
)

// DefaultTimeout bounds each request.
const DefaultTimeout = 5 * time.Second

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// Options configures a Client.
type Options struct {
	BaseURL     string
	Timeout     time.Duration // DefaultTimeout when zero
	BearerToken string
	APIKey      string
	// RateLimit caps outbound requests per second. Zero means unlimited.
	RateLimit float64
	// Transport is the underlying RoundTripper; http.DefaultTransport when nil.
	Transport http.RoundTripper
}

// Client talks to the backend. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// New creates a Client.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	limit := rate.Inf
	burst := 1
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
		burst = int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: &headerTransport{Transport: base, Headers: defaultHeaders(opts)},
		},
		limiter: rate.NewLimiter(limit, burst),
	}
}

// BaseURL returns the backend root this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func defaultHeaders(opts Options) map[string]string {
	h := map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/json; charset=utf-8",
	}
	if opts.BearerToken != "" {
		h["Authorization"] = "Bearer " + opts.BearerToken
	}
	if opts.APIKey != "" {
		h["x-api-key"] = opts.APIKey
	}
	return h
}

// headerTransport sets fixed headers on every outgoing request.
type headerTransport struct {
	Transport http.RoundTripper
	Headers   map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}
	return t.Transport.RoundTrip(req)
}

// getJSON issues GET path?query and decodes a 2xx body into out.
func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return apperr.Canceled(ctx.Err()).WithOp(op)
		}
		return apperr.Transient(err, "").WithOp(op)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return apperr.Transient(err, "").WithOp(op)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return apperr.Canceled(ctx.Err()).WithOp(op)
		}
		logging.Debug("request failed", "op", op, "url", u, "err", err)
		return apperr.Transient(fmt.Errorf("request failed: %w", err), "").WithOp(op)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return apperr.Transient(fmt.Errorf("read response: %w", err), "").WithOp(op)
	}
	logging.Debug("api response", "op", op, "status", resp.StatusCode, "dur", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperr.Transient(fmt.Errorf("returned status %d: %s", resp.StatusCode, truncate(string(body), 200)), "").WithOp(op)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperr.Transient(fmt.Errorf("parse response: %w", err), "").WithOp(op)
	}
	return nil
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

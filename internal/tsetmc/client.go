// Package tsetmc fetches the industrial-group taxonomy and per-group
// company lists from the TSETMC content delivery API and maps the loosely
// typed responses onto a normalized schema.
//
// The API is reachable through scheme mirrors of the same host and any one
// of them may be transiently unavailable, so every logical request carries
// an ordered list of candidate URLs that are tried until one succeeds.
package tsetmc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"tsecli/internal/config"
)

// StaticDataURLs are the mirror endpoints for the static-data taxonomy.
var StaticDataURLs = []string{
	"https://cdn.tsetmc.com/api/StaticData/GetStaticData",
	"http://cdn.tsetmc.com/api/StaticData/GetStaticData",
}

// relatedCompanyURLs are the mirror endpoint templates for the per-industry
// company list; the industry code is the single path parameter.
var relatedCompanyURLs = []string{
	"https://cdn.tsetmc.com/api/ClosingPrice/GetRelatedCompany/%s",
	"http://cdn.tsetmc.com/api/ClosingPrice/GetRelatedCompany/%s",
}

// retryableStatus lists the HTTP statuses worth another attempt against the
// same URL. Anything else in the error range fails over to the next mirror
// immediately.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// requestHeaders mimic a desktop browser; the CDN rejects obviously
// programmatic clients.
var requestHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/122.0 Safari/537.36",
	"Accept":          "application/json,text/plain,*/*",
	"Accept-Language": "fa-IR,fa;q=0.9,en;q=0.8",
	"Connection":      "keep-alive",
}

// FetchError reports that every candidate URL for a request failed. It
// wraps the last underlying cause for diagnostics.
type FetchError struct {
	URLCount int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed on all %d candidate urls: %v", e.URLCount, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client issues GET requests against TSETMC mirrors with retry, backoff and
// request pacing. The underlying http.Client is shared for the lifetime of
// a run so connections are pooled across calls.
type Client struct {
	httpClient    *http.Client
	limiter       *rate.Limiter
	maxAttempts   int
	backoffFactor float64
	logger        *slog.Logger

	// sleep is swapped out in tests to avoid real backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient constructs a Client from the HTTP configuration section. A nil
// httpClient gets a default one with the configured timeout; a nil logger
// falls back to slog.Default.
func NewClient(cfg config.HTTPConfig, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient:    httpClient,
		limiter:       rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateBurst),
		maxAttempts:   cfg.MaxAttempts,
		backoffFactor: cfg.BackoffFactor,
		logger:        logger,
		sleep:         sleepContext,
	}
}

// Industries fetches the static-data taxonomy and extracts the industrial
// groups from it.
func (c *Client) Industries(ctx context.Context) ([]Industry, error) {
	doc, err := c.FetchJSON(ctx, StaticDataURLs)
	if err != nil {
		return nil, err
	}
	return ExtractIndustries(doc), nil
}

// RelatedCompanies fetches and extracts the company list for one industry
// code.
func (c *Client) RelatedCompanies(ctx context.Context, code string) ([]Company, error) {
	urls := make([]string, 0, len(relatedCompanyURLs))
	for _, tmpl := range relatedCompanyURLs {
		urls = append(urls, fmt.Sprintf(tmpl, url.PathEscape(code)))
	}
	doc, err := c.FetchJSON(ctx, urls)
	if err != nil {
		return nil, err
	}
	return ExtractCompanies(doc), nil
}

// FetchJSON tries each candidate URL in order and returns the first
// successfully fetched and decoded JSON document. A URL is abandoned after
// its retry budget is spent or on a non-retryable failure; when every URL
// is exhausted the call fails with a *FetchError wrapping the last cause.
func (c *Client) FetchJSON(ctx context.Context, urls []string) (map[string]any, error) {
	var lastErr error
	for _, u := range urls {
		doc, err := c.fetchOne(ctx, u)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		c.logger.WarnContext(ctx, "candidate url failed, trying next mirror",
			slog.String("url", u),
			slog.String("error", err.Error()))
	}
	return nil, &FetchError{URLCount: len(urls), Err: lastErr}
}

// fetchOne runs the retry loop for a single URL.
func (c *Client) fetchOne(ctx context.Context, u string) (map[string]any, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.backoffDelay(attempt - 1)
			c.logger.DebugContext(ctx, "retrying after backoff",
				slog.String("url", u),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		doc, retryable, err := c.do(ctx, u)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", c.maxAttempts, lastErr)
}

// do performs one GET and decodes the body. The second return value says
// whether the failure is worth another attempt against the same URL.
func (c *Client) do(ctx context.Context, u string) (map[string]any, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	for k, v := range requestHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport errors (refused, reset, timeout) are retryable.
		return nil, true, fmt.Errorf("get %s: %w", u, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read body from %s: %w", u, err)
	}

	if retryableStatus[resp.StatusCode] {
		return nil, true, fmt.Errorf("http %d from %s", resp.StatusCode, u)
	}
	if resp.StatusCode >= 400 {
		return nil, false, fmt.Errorf("http %d from %s", resp.StatusCode, u)
	}

	doc, err := decodeJSON(body)
	if err != nil {
		return nil, false, fmt.Errorf("decode json from %s: %w", u, err)
	}
	return doc, false, nil
}

// decodeJSON parses a response body, falling back to a cleaned re-parse
// when the raw bytes do not decode directly (stray BOM or padding around
// the payload). Numbers are kept as json.Number so long instrument codes
// survive without float rounding.
func decodeJSON(body []byte) (map[string]any, error) {
	doc, err := unmarshalUseNumber(body)
	if err == nil {
		return doc, nil
	}
	cleaned := bytes.TrimSpace(bytes.TrimPrefix(body, []byte{0xEF, 0xBB, 0xBF}))
	return unmarshalUseNumber(cleaned)
}

func unmarshalUseNumber(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// backoffDelay computes the exponential backoff before retry n (1-based):
// factor * 2^(n-1) seconds.
func (c *Client) backoffDelay(n int) time.Duration {
	seconds := c.backoffFactor * math.Pow(2, float64(n-1))
	return time.Duration(seconds * float64(time.Second))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

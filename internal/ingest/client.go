// Package ingest pulls raw case records into the resolution pipeline, from
// the provider API (backfill) and from the Kafka feed (steady state).
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"gavel/internal/ingest/metrics"
	matchmodels "gavel/internal/match/models"
	dErrors "gavel/pkg/domain-errors"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 4
	retryBaseDelay    = 250 * time.Millisecond
)

// Client talks to the upstream court-records provider. Every request passes
// the rate limiter first; transient failures retry with jittered exponential
// backoff up to a bound, then surface as CodeUnavailable.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int

	logger  *slog.Logger
	metrics *metrics.Metrics
}

type ClientOption func(*Client)

func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

func WithClientMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = h }
}

func WithMaxRetries(n int) ClientOption {
	return func(c *Client) { c.maxRetries = n }
}

func NewClient(baseURL string, rps float64, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("provider base URL is required")
	}
	if rps <= 0 {
		return nil, fmt.Errorf("provider rate must be positive")
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CasePage is one page of the provider's case listing.
type CasePage struct {
	Records []matchmodels.RawCaseRecord `json:"records"`
	Next    string                      `json:"next,omitempty"`
}

// FetchCases returns one page of raw case records. An empty cursor starts
// from the beginning; an empty Next on the result means the listing is
// exhausted.
func (c *Client) FetchCases(ctx context.Context, cursor string) (*CasePage, error) {
	u := c.baseURL + "/cases"
	if cursor != "" {
		u += "?cursor=" + url.QueryEscape(cursor)
	}

	var page CasePage
	if err := c.getJSON(ctx, u, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ProviderJudge is the provider's judge profile, used to enrich candidate
// judges created from unmatched records.
type ProviderJudge struct {
	ExternalID  string `json:"id"`
	Name        string `json:"name"`
	BirthYear   int    `json:"birth_year,omitempty"`
	AppointedAt string `json:"appointed_at,omitempty"`
}

// FetchJudge returns the provider's profile for a judge identifier.
func (c *Client) FetchJudge(ctx context.Context, externalID string) (*ProviderJudge, error) {
	if externalID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "external judge id is required")
	}
	var judge ProviderJudge
	u := c.baseURL + "/judges/" + url.PathEscape(externalID)
	if err := c.getJSON(ctx, u, &judge); err != nil {
		return nil, err
	}
	return &judge, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepBackoff(ctx, attempt); err != nil {
				return err
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		retryable, err := c.doOnce(ctx, url, out)
		if err == nil {
			c.observe("ok")
			return nil
		}
		lastErr = err
		if !retryable {
			c.observe("error")
			return err
		}
		c.observe("retry")
		if c.logger != nil {
			c.logger.WarnContext(ctx, "provider request failed, retrying",
				"url", url, "attempt", attempt+1, "error", err)
		}
	}
	c.observe("exhausted")
	return dErrors.Wrap(lastErr, dErrors.CodeUnavailable, "provider unavailable after retries")
}

// doOnce performs one request. The boolean reports whether the failure is
// worth retrying.
func (c *Client) doOnce(ctx context.Context, url string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, dErrors.Wrap(err, dErrors.CodeUpstreamData, "decode provider response")
		}
		return false, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, dErrors.New(dErrors.CodeNotFound, "provider resource not found")
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return true, fmt.Errorf("provider returned %d", resp.StatusCode)
	default:
		return false, dErrors.Newf(dErrors.CodeUpstreamData, "provider returned %d", resp.StatusCode)
	}
}

// sleepBackoff waits 250ms * 2^(attempt-1) plus up to 50% jitter.
func sleepBackoff(ctx context.Context, attempt int) error {
	delay := retryBaseDelay << (attempt - 1)
	delay += time.Duration(rand.Int63n(int64(delay)/2 + 1))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func (c *Client) observe(result string) {
	if c.metrics != nil {
		c.metrics.ProviderRequests.WithLabelValues(result).Inc()
	}
}

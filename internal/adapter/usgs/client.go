package usgs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/quakewatch/internal/domain"
	"github.com/couchcryptid/quakewatch/internal/observability"
)

const (
	summaryPath = "/earthquakes/feed/v1.0/summary/"
	queryPath   = "/fdsnws/event/1/query"

	// maxBodyBytes caps a single response; a full month of all events is ~20 MB.
	maxBodyBytes = 64 << 20
	// errorBodyBytes is how much of a non-200 body is kept for the error message.
	errorBodyBytes = 512
)

// Client implements domain.FeedSource against the USGS earthquake feeds.
// Each Fetch is a single attempt; there is no retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limit      int
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a feed client. minInterval spaces consecutive requests;
// zero disables the limiter.
func NewClient(baseURL string, timeout time.Duration, limit int, minInterval time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if minInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(minInterval), 1)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limit:   limit,
		limiter: limiter,
		metrics: metrics,
		logger:  logger,
	}
}

// URL builds the request URL for a selector.
func (c *Client) URL(sel domain.Selector) (string, error) {
	if err := sel.Validate(); err != nil {
		return "", fmt.Errorf("invalid selector: %w", err)
	}

	if sel.Mode == domain.ModeInterval {
		level := sel.Level
		if level == "" {
			level = domain.LevelAll
		}
		return fmt.Sprintf("%s%s%s_%s.geojson", c.baseURL, summaryPath, level, sel.Interval), nil
	}

	params := url.Values{
		"format":  {"geojson"},
		"orderby": {"time"},
	}
	if c.limit > 0 {
		params.Set("limit", strconv.Itoa(c.limit))
	}
	start, end := sel.DateBounds()
	if start != "" {
		params.Set("starttime", start)
	}
	if end != "" {
		params.Set("endtime", end)
	}
	return c.baseURL + queryPath + "?" + params.Encode(), nil
}

// Fetch downloads and parses the collection for sel. Request failures are
// returned as *FetchError.
func (c *Client) Fetch(ctx context.Context, sel domain.Selector) (domain.Collection, error) {
	u, err := c.URL(sel)
	if err != nil {
		return domain.Collection{}, err
	}

	mode := string(sel.Mode)
	start := time.Now()
	coll, err := c.doRequest(ctx, u)
	c.metrics.FetchDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.FetchRequests.WithLabelValues(mode, "error").Inc()
		if kind := KindOf(err); kind != "" {
			c.metrics.FetchErrors.WithLabelValues(string(kind)).Inc()
		}
		return domain.Collection{}, err
	}

	c.metrics.FetchRequests.WithLabelValues(mode, "success").Inc()
	c.logger.Debug("feed fetched", "selector", sel.Key(), "features", coll.Len(), "duration", time.Since(start))
	return coll, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.Collection, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Collection{}, &FetchError{Kind: KindTransport, URL: fullURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.Collection{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Collection{}, &FetchError{Kind: KindTransport, URL: fullURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyBytes))
		return domain.Collection{}, &FetchError{
			Kind:       KindStatus,
			URL:        fullURL,
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(body))),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.Collection{}, &FetchError{Kind: KindTransport, URL: fullURL, Err: fmt.Errorf("read body: %w", err)}
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return domain.Collection{}, &FetchError{Kind: KindMalformed, URL: fullURL, Err: fmt.Errorf("decode feature collection: %w", err)}
	}

	coll, skipped := domain.ParseCollection(fc)
	if skipped > 0 {
		c.metrics.SkippedFeatures.Add(float64(skipped))
		c.logger.Warn("skipped features without a usable point", "count", skipped, "url", fullURL)
	}
	return coll, nil
}

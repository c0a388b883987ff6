package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ppiankov/govsift/internal/cache"
	"github.com/ppiankov/govsift/internal/model"
	"github.com/ppiankov/govsift/internal/util"
	"go.uber.org/zap"
)

// Query configures one paginated fetch sequence against a remote surface
type Query struct {
	Endpoint string            // target API/search surface
	PageSize int               // requested batch size
	Filters  map[string]string // narrowing predicates, passed as query parameters
	MaxPages int               // optional page cap; 0 means unlimited
}

// ResultPage is one batch of raw payloads plus the opaque cursor needed to
// fetch the next batch. An empty NextCursor marks the end of the sequence.
type ResultPage struct {
	Items      []map[string]any `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
	FetchedAt  time.Time        `json:"fetched_at"`
}

// envelope tolerates the two wire shapes paginated survey endpoints use:
// {"items": [...], "next_cursor": "..."} and {"results": [...], "continue": "..."}
type envelope struct {
	Items      []map[string]any `json:"items"`
	Results    []map[string]any `json:"results"`
	NextCursor string           `json:"next_cursor"`
	Continue   string           `json:"continue"`
}

// Client issues rate-limited, retried HTTP requests against paginated
// API/search endpoints and hands back raw result pages.
type Client struct {
	httpClient  *http.Client
	userAgent   string
	maxBytes    int64
	throttle    *Throttle
	robots      *util.RobotsChecker // nil when robots checking is disabled
	pages       cache.Cache         // nil when page caching is disabled
	cacheTTL    time.Duration
	maxAttempts int
	backoffBase time.Duration
	log         *zap.Logger
}

// NewClient creates a client from the source and HTTP configuration
func NewClient(cfg *model.Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	var robots *util.RobotsChecker
	if cfg.Source.RespectRobots {
		robots = util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
	}

	var pages cache.Cache
	if cfg.Cache.Enabled {
		pages = cache.NewMemoryCache(cfg.Cache.TTL, 2*cfg.Cache.TTL)
	}

	attempts := cfg.Source.RetryMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := cfg.Source.RetryBackoffBase
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.HTTP.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy),
			},
		},
		userAgent:   cfg.HTTP.UserAgent,
		maxBytes:    cfg.HTTP.MaxBodyBytes,
		throttle:    NewThrottle(cfg.Source.MinRequestInterval),
		robots:      robots,
		pages:       pages,
		cacheTTL:    cfg.Cache.TTL,
		maxAttempts: attempts,
		backoffBase: backoff,
		log:         logger,
	}
}

// Fetch retrieves the page identified by (query, cursor). Re-issuing the
// same pair returns an equivalent page (the cache serves it within TTL;
// a live re-fetch may see legitimately appended items), which is what makes
// crash-restart cheap.
func (c *Client) Fetch(ctx context.Context, q Query, cursor string) (*ResultPage, error) {
	reqURL, err := c.buildURL(q, cursor)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}

	key := cache.PageKey(reqURL)
	if c.pages != nil {
		if raw, ok := c.pages.Get(key); ok {
			var page ResultPage
			if err := json.Unmarshal(raw, &page); err == nil {
				return &page, nil
			}
		}
	}

	if c.robots != nil {
		allowed, delay, rErr := c.robots.CanFetch(ctx, reqURL)
		if rErr == nil && !allowed {
			return nil, &SourceRejectedError{Endpoint: q.Endpoint, Reason: "disallowed by robots.txt"}
		}
		if delay > 0 {
			if host, hErr := hostOf(reqURL); hErr == nil {
				c.throttle.SetHostInterval(host, delay)
			}
		}
	}

	page, err := c.fetchWithRetry(ctx, q, reqURL)
	if err != nil {
		return nil, err
	}

	if c.pages != nil {
		if raw, mErr := json.Marshal(page); mErr == nil {
			_ = c.pages.Set(key, raw, c.cacheTTL)
		}
	}

	return page, nil
}

// fetchWithRetry runs the bounded retry loop with exponential backoff.
// Transient failures (timeout, rate-limit response, 5xx) are retried;
// any other 4xx fails immediately as SourceRejected.
func (c *Client) fetchWithRetry(ctx context.Context, q Query, reqURL string) (*ResultPage, error) {
	var last error

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.backoffBase << (attempt - 1)
			c.log.Debug("retrying page fetch",
				zap.String("endpoint", q.Endpoint),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", delay))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		release, err := c.throttle.Acquire(ctx, reqURL)
		if err != nil {
			// If the throttle machinery itself fails, the rate-limit
			// invariant can no longer be guaranteed. Fatal to the run.
			return nil, fmt.Errorf("throttle: %w", err)
		}
		page, status, err := c.doRequest(ctx, reqURL)
		release()

		switch {
		case err == nil && status >= 200 && status < 300:
			return page, nil
		case err == nil && !transientStatus(status):
			return nil, &SourceRejectedError{Endpoint: q.Endpoint, StatusCode: status}
		case err == nil:
			last = fmt.Errorf("status %d", status)
		default:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			last = err
		}
	}

	return nil, &RetryExhaustedError{Endpoint: q.Endpoint, Attempts: c.maxAttempts, Last: last}
}

// doRequest performs a single HTTP round trip and decodes the envelope
func (c *Client) doRequest(ctx context.Context, reqURL string) (*ResultPage, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, resp.StatusCode, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode page: %w", err)
	}

	items := env.Items
	if items == nil {
		items = env.Results
	}
	next := env.NextCursor
	if next == "" {
		next = env.Continue
	}

	return &ResultPage{
		Items:      items,
		NextCursor: next,
		FetchedAt:  time.Now().UTC(),
	}, resp.StatusCode, nil
}

// buildURL assembles the request URL from endpoint, filters, page size and
// cursor. The cursor is passed through verbatim; it is opaque to this core.
func (c *Client) buildURL(q Query, cursor string) (string, error) {
	parsed, err := url.Parse(q.Endpoint)
	if err != nil {
		return "", err
	}

	params := parsed.Query()
	for k, v := range q.Filters {
		params.Set(k, v)
	}
	if q.PageSize > 0 {
		params.Set("limit", strconv.Itoa(q.PageSize))
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	parsed.RawQuery = params.Encode()
	return parsed.String(), nil
}

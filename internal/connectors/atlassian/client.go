package atlassian

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

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/testbrief/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRate is the proactive throttle in requests per second.
	DefaultRate = 5.0

	// DefaultMaxRetries is the number of retries for transient errors.
	DefaultMaxRetries = 3

	// DefaultRetryInterval is the initial delay between retries.
	DefaultRetryInterval = 500 * time.Millisecond

	// MaxRetryAfter caps how long a Retry-After header can stall a request.
	MaxRetryAfter = time.Minute

	// HeaderRetryAfter is the retry-after header (seconds or HTTP date).
	HeaderRetryAfter = "Retry-After"

	maxBodyBytes  = 64 << 20
	maxErrorBytes = 512
)

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL is the site root, e.g. https://example.atlassian.net (required).
	BaseURL string

	// Username selects Basic auth. When empty, Token is sent as a Bearer PAT.
	Username string

	// Token is the API token or personal access token (required).
	Token string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// Rate is the proactive request rate per second (default: 5).
	Rate float64

	// MaxRetries bounds retries on 429, 5xx and transport errors (default: 3).
	MaxRetries int

	// RetryInterval is the initial backoff interval (default: 500ms).
	RetryInterval time.Duration
}

// Client is an authenticated, rate-limited HTTP client shared by the Jira
// and Confluence adapters.
type Client struct {
	baseURL       string
	username      string
	token         string
	http          *http.Client
	limiter       *rate.Limiter
	maxRetries    int
	retryInterval time.Duration
}

// NewClient creates a client from cfg.
func NewClient(cfg ClientConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("atlassian: base URL is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("atlassian: invalid base URL %q: %w", base, err)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("atlassian: API token is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRate
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}

	c := &Client{
		baseURL:       base,
		username:      cfg.Username,
		token:         cfg.Token,
		limiter:       rate.NewLimiter(rate.Limit(cfg.Rate), 1),
		maxRetries:    cfg.MaxRetries,
		retryInterval: cfg.RetryInterval,
	}

	if cfg.Username != "" {
		c.http = &http.Client{Timeout: cfg.Timeout}
	} else {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		c.http = oauth2.NewClient(context.Background(), ts)
		c.http.Timeout = cfg.Timeout
	}
	return c, nil
}

// BaseURL returns the site root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// resolve turns an API path into an absolute URL. Absolute URLs pass through.
func (c *Client) resolve(pathOrURL string, query url.Values) string {
	u := pathOrURL
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = c.baseURL + "/" + strings.TrimLeft(u, "/")
	}
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + query.Encode()
	}
	return u
}

// getJSON fetches path and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	data, err := c.get(ctx, c.resolve(path, query), "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// get performs a GET with throttling and retries, returning the body.
func (c *Client) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	var body []byte

	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limit wait: %w", err))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		if accept != "" {
			req.Header.Set("Accept", accept)
		}
		if c.username != "" {
			req.SetBasicAuth(c.username, c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("request %s: %w", rawURL, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			if err != nil {
				return fmt.Errorf("read response: %w", err)
			}
			body = data
			return nil
		}

		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(msg)),
			URL:        rawURL,
		}
		if !apiErr.retryable() {
			return backoff.Permanent(apiErr)
		}
		if wait := retryAfter(resp, time.Now()); wait > 0 {
			select {
			case <-ctx.Done():
				return backoff.Permanent(ctx.Err())
			case <-time.After(wait):
			}
		}
		return apiErr
	}

	notify := func(err error, wait time.Duration) {
		logger.Debug("atlassian: retrying in %s: %v", wait, err)
	}

	if err := backoff.RetryNotify(op, c.newBackoff(ctx), notify); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) newBackoff(ctx context.Context) backoff.BackOff {
	// BackOff implementations are stateful; build one per request.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInterval
	bo.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.maxRetries)), ctx)
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP date.
func retryAfter(resp *http.Response, now time.Time) time.Duration {
	v := strings.TrimSpace(resp.Header.Get(HeaderRetryAfter))
	if v == "" {
		return 0
	}
	var wait time.Duration
	if secs, err := strconv.Atoi(v); err == nil {
		wait = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(v); err == nil {
		wait = at.Sub(now)
	}
	if wait < 0 {
		return 0
	}
	if wait > MaxRetryAfter {
		return MaxRetryAfter
	}
	return wait
}

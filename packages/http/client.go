package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds every call made by a test case
	DefaultTimeout      = 10 * time.Second
	DefaultMaxRedirects = 10
	// DefaultRetryDelay is the pause between transport-level retries
	DefaultRetryDelay = time.Second
)

// ErrNoResponse marks a call that never produced an HTTP response
// (timeout, refused connection, DNS failure, cancelled context).
var ErrNoResponse = errors.New("no response")

// NoResponseError wraps the underlying transport error. It matches
// ErrNoResponse with errors.Is and unwraps to the cause.
type NoResponseError struct {
	Err error
}

func (e *NoResponseError) Error() string {
	return "no response: " + e.Err.Error()
}

func (e *NoResponseError) Unwrap() error {
	return e.Err
}

func (e *NoResponseError) Is(target error) bool {
	return target == ErrNoResponse
}

// LogFunc receives one line per attempted call when verbose logging is on.
type LogFunc func(format string, args ...any)

type Client struct {
	httpClient     *http.Client
	timeout        time.Duration
	followRedirect bool
	maxRedirects   int
	validateSSL    bool
	proxyURL       string
	defaultHeaders http.Header
	limiter        *rate.Limiter
	retries        int
	retryDelay     time.Duration
	logf           LogFunc
}

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:        DefaultTimeout,
		followRedirect: true,
		maxRedirects:   DefaultMaxRedirects,
		validateSSL:    true,
		defaultHeaders: make(http.Header),
		retryDelay:     DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.httpClient = &http.Client{
		Transport:     c.transport(),
		Timeout:       c.timeout,
		CheckRedirect: c.checkRedirect,
	}
	return c
}

// transport builds the connection pool. A suite run talks to one host, so
// the pool is kept small.
func (c *Client) transport() *http.Transport {
	t := &http.Transport{
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
	}
	if !c.validateSSL {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if c.proxyURL != "" {
		if u, err := neturl.Parse(c.proxyURL); err == nil {
			t.Proxy = http.ProxyURL(u)
		}
	}
	return t
}

func (c *Client) checkRedirect(_ *http.Request, via []*http.Request) error {
	if !c.followRedirect || len(via) >= c.maxRedirects {
		return http.ErrUseLastResponse
	}
	return nil
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithFollowRedirects(follow bool) ClientOption {
	return func(c *Client) {
		c.followRedirect = follow
	}
}

func WithMaxRedirects(max int) ClientOption {
	return func(c *Client) {
		c.maxRedirects = max
	}
}

// WithDefaultHeader adds a header sent on every call; request headers win
func WithDefaultHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.defaultHeaders.Set(key, value)
	}
}

// WithDefaultHeaders is WithDefaultHeader for each entry of headers
func WithDefaultHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.defaultHeaders.Set(k, v)
		}
	}
}

// WithValidateSSL(false) accepts any server certificate
func WithValidateSSL(validate bool) ClientOption {
	return func(c *Client) {
		c.validateSSL = validate
	}
}

func WithProxy(proxyURL string) ClientOption {
	return func(c *Client) {
		c.proxyURL = proxyURL
	}
}

// WithRateLimit paces calls to at most rps requests per second.
// Zero or negative disables pacing.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			c.limiter = nil
		}
	}
}

// WithRetries retries transport failures up to n extra times. Responses are
// never retried, whatever their status code.
func WithRetries(n int, delay time.Duration) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
		if delay > 0 {
			c.retryDelay = delay
		}
	}
}

// WithLogger installs a per-call log hook
func WithLogger(fn LogFunc) ClientOption {
	return func(c *Client) {
		c.logf = fn
	}
}

func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if err := ValidateURL(req.URL); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, &NoResponseError{Err: ctx.Err()}
			case <-time.After(c.retryDelay):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, &NoResponseError{Err: err}
			}
		}

		resp, err := c.doRequest(ctx, req)
		if err == nil {
			c.log("%s %s -> %s", req.Method, req.FullURL(), resp)
			return resp, nil
		}

		c.log("%s %s -> error: %v", req.Method, req.URL, err)
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	return nil, &NoResponseError{Err: lastErr}
}

func (c *Client) doRequest(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.FullURL(), body)
	if err != nil {
		return nil, err
	}

	httpReq.Header = c.defaultHeaders.Clone()
	for k, vs := range req.Header {
		httpReq.Header[k] = vs
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
		Duration:   duration,
	}, nil
}

func (c *Client) log(format string, args ...any) {
	if c.logf != nil {
		c.logf(format, args...)
	}
}

// ValidateURL accepts absolute http and https URLs only
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	switch {
	case err != nil:
		return fmt.Errorf("invalid URL: %w", err)
	case u.Scheme != "http" && u.Scheme != "https":
		return fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	case u.Host == "":
		return fmt.Errorf("URL %q has no host", rawURL)
	}
	return nil
}

// ValidateProxyURL checks a proxy URL the transport can dial
func ValidateProxyURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	switch {
	case err != nil:
		return fmt.Errorf("invalid URL: %w", err)
	case u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "socks5":
		return fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	case u.Host == "":
		return fmt.Errorf("URL %q has no host", rawURL)
	}
	return nil
}

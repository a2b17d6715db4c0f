package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout applies to every request. There is no retry on timeout.
const DefaultTimeout = 30 * time.Second

const bodyPreviewLimit = 1000

// EndpointSource yields the configured base URL. It is consulted on every
// request build, so a changed endpoint applies to the next call.
type EndpointSource interface {
	BaseURL() string
}

// TokenSource yields the current bearer token, "" when none is stored. It is
// consulted on every request build.
type TokenSource interface {
	Token() (string, error)
}

// EndpointFunc adapts a function to EndpointSource.
type EndpointFunc func() string

func (f EndpointFunc) BaseURL() string { return f() }

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() (string, error)

func (f TokenFunc) Token() (string, error) { return f() }

// Config holds the transport settings.
type Config struct {
	Endpoint   EndpointSource
	Tokens     TokenSource
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
}

// Metrics counts calls made through a Client.
type Metrics struct {
	CallsSuccess int64     `json:"calls_success"`
	CallsError   int64     `json:"calls_error"`
	LastActivity time.Time `json:"last_activity"`
}

// Client builds authenticated requests against the backend and classifies
// responses into the error taxonomy of this package.
type Client struct {
	endpoint   EndpointSource
	tokens     TokenSource
	userAgent  string
	httpClient *http.Client
	logger     *log.Logger

	mu      sync.RWMutex
	metrics Metrics
}

// New creates a Client. A nil logger discards output.
func New(cfg Config, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "inkasso-console/dev"
	}
	var httpClient *http.Client
	if cfg.HTTPClient != nil {
		// The caller's client is shared; the timeout goes on a copy.
		c := *cfg.HTTPClient
		httpClient = &c
	} else {
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
			},
		}
	}
	httpClient.Timeout = cfg.Timeout
	return &Client{
		endpoint:   cfg.Endpoint,
		tokens:     cfg.Tokens,
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Metrics returns a snapshot of the call counters.
func (c *Client) Metrics() Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.metrics
}

// BaseURL returns the endpoint as currently configured.
func (c *Client) BaseURL() string {
	if c.endpoint == nil {
		return ""
	}
	return strings.TrimSpace(c.endpoint.BaseURL())
}

// BuildRequest composes an authenticated JSON request for path relative to the
// base endpoint. body is serialized for non-GET methods only.
func (c *Client) BuildRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	if method == "" {
		method = http.MethodGet
	}
	base := c.BaseURL()
	if base == "" {
		return nil, &ConfigurationError{Reason: "no base endpoint set"}
	}
	target, err := resolve(base, path, query)
	if err != nil {
		return nil, err
	}

	token, err := c.currentToken()
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if body != nil && method != http.MethodGet {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &EncodingError{Err: err}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, &InvalidURLError{URL: target, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	c.logger.Printf("[%s] %s (token %s, request %s)", method, target, maskToken(token), req.Header.Get("X-Request-ID"))
	return req, nil
}

func (c *Client) currentToken() (string, error) {
	if c.tokens == nil {
		return "", &AuthenticationError{}
	}
	token, err := c.tokens.Token()
	if err != nil {
		return "", &AuthenticationError{Err: err}
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", &AuthenticationError{}
	}
	return token, nil
}

// Perform executes req and classifies the response. A nil dec means the caller
// expects no content; any success body is then ignored.
func (c *Client) Perform(req *http.Request, dec Decoder) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(false)
		c.logger.Printf("[%s] %s failed after %v: %v", req.Method, req.URL, time.Since(start), err)
		return &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record(false)
		return &TransportError{Method: req.Method, URL: req.URL.String(), Err: fmt.Errorf("read response body: %w", err)}
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
	c.record(ok)
	if ok {
		c.logger.Printf("[%d] %s OK in %v: %s", resp.StatusCode, req.URL.Path, time.Since(start), preview(body))
	} else {
		c.logger.Printf("[%d] %s ERROR: %s", resp.StatusCode, req.URL.Path, preview(body))
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return &AuthenticationError{StatusCode: resp.StatusCode}
	}
	if !ok {
		return &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
		if dec == nil {
			return nil
		}
		return &DecodingError{Failure: NoContent, Detail: "received no content, expected data"}
	}
	if dec == nil {
		return nil
	}
	if err := dec(body); err != nil {
		c.logger.Printf("decode %s failed: %v; raw body: %s", req.URL.Path, err, preview(body))
		return err
	}
	return nil
}

// Do builds and performs a request in one step.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any, dec Decoder) error {
	req, err := c.BuildRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	return c.Perform(req, dec)
}

func (c *Client) record(success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if success {
		c.metrics.CallsSuccess++
	} else {
		c.metrics.CallsError++
	}
	c.metrics.LastActivity = time.Now()
}

func resolve(base, path string, query url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", &InvalidURLError{URL: base, Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return "", &InvalidURLError{URL: base}
	}
	rel, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", &InvalidURLError{URL: path, Err: err}
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	target := u.ResolveReference(rel)
	if len(query) > 0 {
		q := target.Query()
		for key, values := range query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		target.RawQuery = q.Encode()
	}
	return target.String(), nil
}

// errorMessage extracts {"error": "..."} or falls back to the raw text.
func errorMessage(body []byte) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		return envelope.Error
	}
	return strings.TrimSpace(string(body))
}

func preview(body []byte) string {
	if len(body) > bodyPreviewLimit {
		return string(body[:bodyPreviewLimit]) + "..."
	}
	return string(body)
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

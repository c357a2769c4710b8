package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/insightgen-cli/internal/core/domain"
	"github.com/custodia-labs/insightgen-cli/internal/core/ports/driven"
	"github.com/custodia-labs/insightgen-cli/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.RemoteAPI = (*Client)(nil)

// Default configuration values.
const (
	DefaultTimeout           = domain.DefaultAPITimeout
	DefaultRequestsPerSecond = domain.DefaultRequestsPerSecond
	DefaultUserAgent         = "insightgen-cli/dev"

	// HeaderRequestID correlates client and server logs.
	HeaderRequestID = "X-Request-ID"

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 64 << 10
)

// Config holds configuration for the API client.
type Config struct {
	// BaseURL is the API root, e.g. http://localhost:8080 (required).
	BaseURL string

	// Timeout bounds a single request (default: 30s). Downloads are bounded
	// by their context only.
	Timeout time.Duration

	// RequestsPerSecond throttles outgoing requests (default: 5).
	RequestsPerSecond float64

	// UserAgent is sent with every request.
	UserAgent string

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client talks to the remote analysis API.
type Client struct {
	client    *http.Client
	baseURL   *url.URL
	timeout   time.Duration
	limiter   *rate.Limiter
	userAgent string
}

// NewClient creates a new API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: api base url is required", domain.ErrInvalidInput)
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid api base url %q", domain.ErrInvalidInput, cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	burst := int(cfg.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}

	return &Client{
		client:    cfg.HTTPClient,
		baseURL:   base,
		timeout:   cfg.Timeout,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		userAgent: cfg.UserAgent,
	}, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// request describes one API call.
type request struct {
	method      string
	path        string
	creds       domain.Credentials
	body        io.Reader
	contentType string
	// stream skips the per-request timeout; the caller's context bounds it.
	stream bool
}

// do sends req and returns the response for a 2xx status. Any other status
// is returned as *domain.APIError with the body consumed. The caller closes
// the body of a successful response.
func (c *Client) do(ctx context.Context, req request) (*http.Response, context.CancelFunc, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("%w: %s %s: rate limit wait: %w", domain.ErrConnection, req.method, req.path, err)
	}

	cancel := context.CancelFunc(func() {})
	if !req.stream {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}

	// path is already escaped; JoinPath keeps its trailing slash.
	endpoint := c.baseURL.JoinPath(req.path)

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint.String(), req.body)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.New().String()
	httpReq.Header.Set(HeaderRequestID, requestID)
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if !req.creds.IsZero() {
		(&oauth2.Token{AccessToken: req.creds.Token, TokenType: "Bearer"}).SetAuthHeader(httpReq)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		cancel()
		logger.Debug("%s %s [%s] failed: %v", req.method, req.path, requestID, err)
		return nil, nil, fmt.Errorf("%w: %s %s: %w", domain.ErrConnection, req.method, req.path, err)
	}

	logger.Debug("%s %s [%s] %d in %s", req.method, req.path, requestID, resp.StatusCode,
		time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer cancel()
		defer resp.Body.Close()
		return nil, nil, decodeAPIError(resp)
	}

	return resp, cancel, nil
}

// doJSON sends req and decodes a 2xx JSON body into out. out may be nil.
func (c *Client) doJSON(ctx context.Context, req request, out any) error {
	resp, cancel, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer cancel()
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %v", domain.ErrUnexpectedResponse, req.method, req.path, err)
	}
	return nil
}

// jsonBody encodes v as a request body.
func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return bytes.NewReader(data), nil
}

// Health calls the service root and reports its version.
func (c *Client) Health(ctx context.Context) (*driven.ServiceInfo, error) {
	var resp healthResponse
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: "/"}, &resp); err != nil {
		return nil, err
	}
	return &driven.ServiceInfo{Version: resp.Version}, nil
}

package awhere

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultBaseURL is the production aWhere API host.
	DefaultBaseURL = "https://api.awhere.com"

	tokenPath = "/oauth/token"

	defaultTimeout        = 30 * time.Second
	defaultMaxAuthRetries = 3
)

// Client is an authenticated session against the aWhere API. It holds one
// credential pair and at most one access token, replaced in place whenever
// the platform reports it expired. A Client is safe for concurrent use.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	timeout        time.Duration
	logger         *slog.Logger
	maxAuthRetries int

	mu     sync.Mutex
	key    string
	secret string
	token  string

	// Endpoint groups.
	Fields     *FieldsService
	Plantings  *PlantingsService
	Weather    *WeatherService
	Agronomics *AgronomicsService
	Jobs       *JobsService
}

type service struct {
	client *Client
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithBaseURL points the client at a different API host, such as a test
// server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithTimeout sets the request timeout on the default HTTP client. It has
// no effect when WithHTTPClient supplies one.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger attaches a structured logger. The client logs token refreshes
// and replays at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMaxAuthRetries bounds how many times a single call may refresh the
// token after an expired-token response before giving up.
func WithMaxAuthRetries(n int) Option {
	return func(c *Client) { c.maxAuthRetries = n }
}

// NewClient builds a Client around an API key and secret.
func NewClient(key, secret string, opts ...Option) (*Client, error) {
	if key == "" {
		return nil, &ValidationError{Param: "key", Reason: "must not be empty"}
	}
	if secret == "" {
		return nil, &ValidationError{Param: "secret", Reason: "must not be empty"}
	}

	c := &Client{
		baseURL:        DefaultBaseURL,
		timeout:        defaultTimeout,
		logger:         slog.New(slog.DiscardHandler),
		maxAuthRetries: defaultMaxAuthRetries,
		key:            key,
		secret:         secret,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	if c.maxAuthRetries < 0 {
		c.maxAuthRetries = 0
	}

	c.Fields = &FieldsService{client: c}
	c.Plantings = &PlantingsService{client: c}
	c.Weather = &WeatherService{client: c}
	c.Agronomics = &AgronomicsService{client: c}
	c.Jobs = &JobsService{client: c}
	return c, nil
}

// SetCredentials replaces the key and secret and drops the cached token, so
// the next request authenticates with the new pair. Intended for credential
// rotation on a live client.
func (c *Client) SetCredentials(key, secret string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = key
	c.secret = secret
	c.token = ""
}

// Request describes one API call. Service methods build descriptors; the
// executor replays the same descriptor unchanged when a token refresh
// happens mid-call.
type Request struct {
	Method string
	Path   string // below the API host, e.g. "/v2/fields"
	Query  url.Values
	Body   any // marshaled to JSON when non-nil
}

// tokenResponse represents the OAuth token response from the platform.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Authenticate exchanges the client credentials for a fresh access token and
// caches it on the session. Calling it is optional; requests authenticate
// lazily on first use.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx)
}

// currentToken returns the cached token, authenticating first if the
// session has none yet.
func (c *Client) currentToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}
	return c.refreshLocked(ctx)
}

// refreshAfter replaces the token unless another goroutine already did: a
// caller that lost the refresh race reuses the winner's token instead of
// burning a second exchange.
func (c *Client) refreshAfter(ctx context.Context, stale string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.token != stale {
		return c.token, nil
	}
	return c.refreshLocked(ctx)
}

// refreshLocked performs the credential exchange. Callers hold c.mu, which
// serializes refreshes across goroutines.
func (c *Client) refreshLocked(ctx context.Context) (string, error) {
	data := url.Values{}
	data.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.key+":"+c.secret)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer c.closeBody(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &AuthError{StatusCode: resp.StatusCode, Body: snippet(body)}
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", &ResponseError{Reason: "parsing token response", Err: err}
	}
	if tok.AccessToken == "" {
		return "", &ResponseError{Reason: "token response carries no access_token"}
	}

	c.token = tok.AccessToken
	c.logger.Debug("access token refreshed", "expires_in", tok.ExpiresIn)
	return c.token, nil
}

// Do executes a request descriptor and returns the raw response body.
// Expired-token responses are absorbed: the client refreshes its token and
// replays the same descriptor, up to the configured bound. Any other non-2xx
// response surfaces as *APIError.
func (c *Client) Do(ctx context.Context, req *Request) ([]byte, error) {
	token, err := c.currentToken(ctx)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		status, body, err := c.send(ctx, req, token)
		if err != nil {
			return nil, err
		}

		if isExpiredToken(body) {
			if attempt >= c.maxAuthRetries {
				return nil, fmt.Errorf("token still rejected after %d refreshes: %w",
					c.maxAuthRetries, &AuthError{StatusCode: status, Body: snippet(body)})
			}
			c.logger.Debug("access token expired, refreshing", "path", req.Path, "attempt", attempt+1)
			token, err = c.refreshAfter(ctx, token)
			if err != nil {
				return nil, err
			}
			continue
		}

		if status < 200 || status > 299 {
			return nil, &APIError{StatusCode: status, Body: snippet(body)}
		}
		return body, nil
	}
}

// send issues one HTTP exchange for a descriptor under a given token.
func (c *Client) send(ctx context.Context, req *Request, token string) (int, []byte, error) {
	u := c.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var payload io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s failed: %w", req.Method, req.Path, err)
	}
	defer c.closeBody(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// get is the common GET path used by the endpoint services.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, v any) error {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}
	return decode(body, v)
}

func (c *Client) closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		c.logger.Error("failed to close response body", "error", err)
	}
}

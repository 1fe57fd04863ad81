// Package rest sends JSON requests to the BagelDB HTTP API and decodes its
// responses and errors. It performs no retries.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bageldb/bagel-go/internal/domain"
	"github.com/bageldb/bagel-go/internal/metrics"
)

// APIPath is the versioned prefix of every data endpoint.
const APIPath = "/api/v1"

const maxErrorBody = 64 << 10

// Config holds the caller settings.
type Config struct {
	// BaseURL is the service root, e.g. https://api.bageldb.ai. The /api/v1
	// prefix is appended when missing.
	BaseURL     string
	APIKey      string
	BearerToken string
	UserAgent   string
	HTTPClient  *http.Client
	Limiter     *rate.Limiter
	Metrics     *metrics.REST
	Logger      *zap.Logger
}

// Client is safe for concurrent use.
type Client struct {
	root    string // scheme://host[:port]
	apiURL  string // root + /api/v1
	cfg     Config
	http    *http.Client
	logger  *zap.Logger
	metrics *metrics.REST
}

// New validates the base URL and creates a Client.
func New(cfg Config) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", cfg.BaseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q: host is required", cfg.BaseURL)
	}

	path := strings.TrimSuffix(u.Path, APIPath)
	root := u.Scheme + "://" + u.Host + path

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		root:    root,
		apiURL:  root + APIPath,
		cfg:     cfg,
		http:    httpClient,
		logger:  logger,
		metrics: cfg.Metrics,
	}, nil
}

// APIURL returns the versioned API root.
func (c *Client) APIURL() string { return c.apiURL }

// RootURL returns the service root without the API prefix.
func (c *Client) RootURL() string { return c.root }

// Do sends a JSON request to an API path (relative to /api/v1) and decodes
// the JSON response into out when out is non-nil. op labels logs and metrics.
func (c *Client) Do(ctx context.Context, op, method, path string, in, out any) error {
	return c.DoURL(ctx, op, method, c.apiURL+path, in, out)
}

// DoURL is Do with an absolute URL.
func (c *Client) DoURL(ctx context.Context, op, method, rawURL string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}
	return c.send(ctx, op, method, rawURL, body, "application/json", out)
}

// DoRaw sends a pre-encoded body with the given content type, such as a
// multipart form.
func (c *Client) DoRaw(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	return c.send(ctx, op, method, c.apiURL+path, body, contentType, out)
}

func (c *Client) send(
	ctx context.Context, op, method, rawURL string, body io.Reader, contentType string, out any,
) error {
	if c.cfg.Limiter != nil {
		if err := c.cfg.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: rate limit: %w", op, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	c.setHeaders(req, body != nil, contentType)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.Observe(op, method, 0, time.Since(start))
		c.logger.Warn("BagelDB request failed",
			zap.String("op", op),
			zap.String("method", method),
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	dur := time.Since(start)
	c.metrics.Observe(op, method, resp.StatusCode, dur)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp)
		c.logger.Warn("BagelDB returned an error",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.Duration("latency", dur),
			zap.Error(apiErr),
		)
		return fmt.Errorf("%s: %w", op, apiErr)
	}

	c.logger.Debug("BagelDB request completed",
		zap.String("op", op),
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", dur),
	)

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: empty response body: %w", op, domain.ErrServer)
		}
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, hasBody bool, contentType string) {
	req.Header.Set("Accept", "application/json")
	if hasBody && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", c.cfg.APIKey)
	}
	if c.cfg.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
}

// decodeError reads an error body of the form {"error": name, "message": msg}
// and maps it onto a typed error. Other bodies become *domain.APIError.
func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  any    `json:"detail"`
	}
	if json.Unmarshal(data, &parsed) == nil {
		if parsed.Error != "" {
			return domain.ErrorFromResponse(resp.StatusCode, parsed.Error, parsed.Message)
		}
		if parsed.Detail != nil {
			return &domain.APIError{StatusCode: resp.StatusCode, Message: fmt.Sprint(parsed.Detail)}
		}
	}
	return &domain.APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
}

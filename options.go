package bagel

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// DefaultHost is the hosted BagelDB API.
const DefaultHost = "api.bageldb.ai"

const defaultTimeout = 60 * time.Second

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	host    string
	port    int
	ssl     bool
	baseURL string

	apiKey      string
	bearerToken string
	userID      string

	httpClient *http.Client
	timeout    time.Duration
	rateLimit  float64
	rateBurst  int

	embedder Embedder

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		host:    DefaultHost,
		ssl:     true,
		userID:  DefaultTenant,
		timeout: defaultTimeout,
	}
}

// WithHost sets the server host. Defaults to api.bageldb.ai.
func WithHost(host string) Option {
	return optionFunc(func(c *clientConfig) {
		c.host = host
	})
}

// WithPort sets the server port. Zero (default) omits it from the URL.
func WithPort(port int) Option {
	return optionFunc(func(c *clientConfig) {
		c.port = port
	})
}

// WithSSL selects https (default) or http.
func WithSSL(enabled bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.ssl = enabled
	})
}

// WithBaseURL sets the full service URL, e.g. http://localhost:8088.
// It overrides WithHost, WithPort and WithSSL.
func WithBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = url
	})
}

// WithAPIKey sends the key in the X-API-Key header.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = key
	})
}

// WithBearerToken sends the token in the Authorization header.
func WithBearerToken(token string) Option {
	return optionFunc(func(c *clientConfig) {
		c.bearerToken = token
	})
}

// WithUserID sets the tenant sent when creating collections.
// Defaults to DefaultTenant.
func WithUserID(id string) Option {
	return optionFunc(func(c *clientConfig) {
		c.userID = id
	})
}

// WithHTTPClient replaces the HTTP client. WithTimeout is ignored when set.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithTimeout sets the per-request timeout. Default: 60s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithRateLimit caps outgoing requests to rps per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return optionFunc(func(c *clientConfig) {
		c.rateLimit = rps
		c.rateBurst = burst
	})
}

// WithEmbedder sets the provider used to embed documents and query texts
// client-side. Without it, texts are sent to the service as is.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithLogger enables structured logging of API calls.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers request metrics on the given registerer.
// Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

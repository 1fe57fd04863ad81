package bagel

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bageldb/bagel-go/internal/domain"
	"github.com/bageldb/bagel-go/internal/domain/validate"
	"github.com/bageldb/bagel-go/internal/metrics"
	"github.com/bageldb/bagel-go/internal/transport/rest"
	"github.com/bageldb/bagel-go/internal/version"
)

// Client is the BagelDB SDK entry point. It is safe for concurrent use.
type Client struct {
	rest     *rest.Client
	embedder Embedder
	userID   string
	logger   *zap.Logger
}

// New creates a Client. No request is sent until the first call.
func New(opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	baseURL := cfg.baseURL
	if baseURL == "" {
		if cfg.host == "" {
			return nil, fmt.Errorf("bagel: host is required: %w", ErrInvalidArgument)
		}
		baseURL = buildBaseURL(cfg.host, cfg.port, cfg.ssl)
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.timeout}
	}

	var limiter *rate.Limiter
	if cfg.rateLimit > 0 {
		burst := max(cfg.rateBurst, 1)
		limiter = rate.NewLimiter(rate.Limit(cfg.rateLimit), burst)
	}

	var m *metrics.REST
	if cfg.metricsReg != nil {
		var err error
		if m, err = metrics.NewREST(cfg.metricsReg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rc, err := rest.New(rest.Config{
		BaseURL:     baseURL,
		APIKey:      cfg.apiKey,
		BearerToken: cfg.bearerToken,
		UserAgent:   "bagel-go/" + version.Version,
		HTTPClient:  httpClient,
		Limiter:     limiter,
		Metrics:     m,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("bagel: %w", err)
	}

	return &Client{
		rest:     rc,
		embedder: cfg.embedder,
		userID:   cfg.userID,
		logger:   logger,
	}, nil
}

func buildBaseURL(host string, port int, ssl bool) string {
	scheme := "http"
	if ssl {
		scheme = "https"
	}
	if port > 0 {
		return scheme + "://" + host + ":" + strconv.Itoa(port)
	}
	return scheme + "://" + host
}

// APIURL returns the versioned API root requests are sent to.
func (c *Client) APIURL() string { return c.rest.APIURL() }

// Ping returns the server heartbeat in nanoseconds.
func (c *Client) Ping(ctx context.Context) (int64, error) {
	var out struct {
		Heartbeat int64 `json:"nanosecond heartbeat"`
	}
	if err := c.rest.Do(ctx, "ping", http.MethodGet, "", nil, &out); err != nil {
		return 0, err
	}
	return out.Heartbeat, nil
}

// Version returns the server version.
func (c *Client) Version(ctx context.Context) (string, error) {
	var v string
	if err := c.rest.Do(ctx, "version", http.MethodGet, "/version", nil, &v); err != nil {
		return "", err
	}
	return v, nil
}

// Reset deletes all data on the server.
func (c *Client) Reset(ctx context.Context) error {
	return c.rest.Do(ctx, "reset", http.MethodPost, "/reset", nil, nil)
}

// Persist flushes server state to disk and reports whether it succeeded.
func (c *Client) Persist(ctx context.Context) (bool, error) {
	var ok bool
	if err := c.rest.Do(ctx, "persist", http.MethodPost, "/persist", nil, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

// JoinWaitlist registers an email address on the service waitlist.
func (c *Client) JoinWaitlist(ctx context.Context, email string) (map[string]any, error) {
	if email == "" {
		return nil, domain.InvalidArgumentf("expected email to be non-empty")
	}
	var out map[string]any
	u := c.rest.RootURL() + "/join_waitlist/" + url.PathEscape(email)
	if err := c.rest.DoURL(ctx, "join_waitlist", http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Collections lists all collections.
func (c *Client) Collections(ctx context.Context) ([]*Collection, error) {
	var clusters []domain.Cluster
	if err := c.rest.Do(ctx, "list_clusters", http.MethodGet, "/clusters", nil, &clusters); err != nil {
		return nil, err
	}
	out := make([]*Collection, len(clusters))
	for i, cl := range clusters {
		out[i] = c.collection(cl)
	}
	return out, nil
}

// CreateCollection creates a collection. It fails if the name is taken.
func (c *Client) CreateCollection(ctx context.Context, name string, opts ...CollectionOption) (*Collection, error) {
	return c.createCollection(ctx, "create_cluster", name, false, opts)
}

// GetOrCreateCollection returns the named collection, creating it when missing.
func (c *Client) GetOrCreateCollection(ctx context.Context, name string, opts ...CollectionOption) (*Collection, error) {
	return c.createCollection(ctx, "get_or_create_cluster", name, true, opts)
}

type createClusterBody struct {
	Name           string         `json:"name"`
	Metadata       map[string]any `json:"metadata"`
	GetOrCreate    bool           `json:"get_or_create"`
	UserID         string         `json:"user_id"`
	EmbeddingModel *string        `json:"embedding_model"`
}

func (c *Client) createCollection(
	ctx context.Context, op, name string, getOrCreate bool, opts []CollectionOption,
) (*Collection, error) {
	if name == "" {
		return nil, domain.InvalidArgumentf("expected collection name to be non-empty")
	}
	cc := collectionConfig{userID: c.userID}
	for _, o := range opts {
		o(&cc)
	}
	if cc.metadata != nil {
		if _, err := validate.Metadata(cc.metadata); err != nil {
			return nil, err
		}
	}

	body := createClusterBody{
		Name:        name,
		Metadata:    cc.metadata,
		GetOrCreate: getOrCreate,
		UserID:      cc.userID,
	}
	if cc.embeddingModel != "" {
		body.EmbeddingModel = &cc.embeddingModel
	}

	var cl domain.Cluster
	if err := c.rest.Do(ctx, op, http.MethodPost, "/clusters", body, &cl); err != nil {
		return nil, err
	}
	return c.collection(cl), nil
}

// GetCollection returns the named collection or an error matching ErrNotFound.
func (c *Client) GetCollection(ctx context.Context, name string) (*Collection, error) {
	if name == "" {
		return nil, domain.InvalidArgumentf("expected collection name to be non-empty")
	}
	var cl domain.Cluster
	if err := c.rest.Do(ctx, "get_cluster", http.MethodGet, "/clusters/"+url.PathEscape(name), nil, &cl); err != nil {
		return nil, err
	}
	return c.collection(cl), nil
}

// DeleteCollection deletes the named collection and its records.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	if name == "" {
		return domain.InvalidArgumentf("expected collection name to be non-empty")
	}
	return c.rest.Do(ctx, "delete_cluster", http.MethodDelete, "/clusters/"+url.PathEscape(name), nil, nil)
}

// Embed vectorizes texts with the configured embedder.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if c.embedder == nil {
		return nil, ErrEmbedderNotConfigured
	}
	if len(texts) == 0 {
		return nil, domain.InvalidArgumentf("expected texts to be a non-empty list")
	}
	res, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if err := domain.CheckEmbeddingCount(res, len(texts)); err != nil {
		return nil, err
	}
	c.logger.Debug("Embedded texts",
		zap.Int("count", len(texts)),
		zap.Int("total_tokens", res.TotalTokens),
	)
	return res.Embeddings, nil
}

func (c *Client) collection(cl domain.Cluster) *Collection {
	return &Collection{client: c, ID: cl.ID, Name: cl.Name, Metadata: cl.Metadata}
}

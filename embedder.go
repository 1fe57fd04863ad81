package bagel

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/bageldb/bagel-go/internal/db"
	"github.com/bageldb/bagel-go/internal/db/valkey"
	"github.com/bageldb/bagel-go/internal/domain"
	"github.com/bageldb/bagel-go/internal/embcache"
	"github.com/bageldb/bagel-go/internal/metrics"
	"github.com/bageldb/bagel-go/internal/transport/openai"
)

// Embedder converts texts to vectors, one per text, in input order.
type Embedder = domain.Embedder

// EmbeddingResult carries vectors and token usage.
type EmbeddingResult = domain.EmbeddingResult

// DefaultEmbeddingModel is used when OpenAIConfig.Model is empty.
const DefaultEmbeddingModel = domain.DefaultEmbeddingModel

// OpenAIConfig configures an OpenAI-compatible embeddings provider.
type OpenAIConfig struct {
	APIKey string
	// BaseURL defaults to the OpenAI API.
	BaseURL    string
	Model      string
	Dimensions int
	// BatchSize caps texts per request (max 2048). Larger inputs are split
	// and fetched with up to Concurrency requests in flight.
	BatchSize   int
	Concurrency int
	Logger      *zap.Logger
	// Registerer, when set, receives embedding metrics.
	Registerer prometheus.Registerer
}

// NewOpenAIEmbedder creates an embeddings provider for the OpenAI API or a
// compatible service.
func NewOpenAIEmbedder(cfg OpenAIConfig) (Embedder, error) {
	m, err := embeddingMetrics(cfg.Registerer)
	if err != nil {
		return nil, err
	}
	return openai.NewEmbedder(&openai.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Dimensions:  cfg.Dimensions,
		Provider:    "openai",
		BatchSize:   cfg.BatchSize,
		Concurrency: cfg.Concurrency,
		Logger:      cfg.Logger,
		Metrics:     m,
	}), nil
}

// CacheStore is the key-value store behind a cached embedder.
// Get must return ErrCacheMiss for unknown keys.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ErrCacheMiss is returned by CacheStore.Get for unknown keys.
var ErrCacheMiss = db.ErrKeyNotFound

// CacheConfig configures NewCachedEmbedder.
type CacheConfig struct {
	// Model namespaces cache keys; use the inner embedder's model name.
	Model string
	// TTL of zero keeps entries forever.
	TTL        time.Duration
	Logger     *zap.Logger
	Registerer prometheus.Registerer
}

// NewCachedEmbedder wraps inner with a cache. Only uncached texts reach inner.
func NewCachedEmbedder(inner Embedder, store CacheStore, cfg CacheConfig) (Embedder, error) {
	if inner == nil || store == nil {
		return nil, fmt.Errorf("bagel: cached embedder needs an inner embedder and a store: %w",
			ErrInvalidArgument)
	}
	m, err := embeddingMetrics(cfg.Registerer)
	if err != nil {
		return nil, err
	}
	return embcache.New(inner, store, embcache.Config{
		Model:   cfg.Model,
		TTL:     cfg.TTL,
		Metrics: m,
		Logger:  cfg.Logger,
	}), nil
}

// ValkeyCache is a CacheStore on Valkey or Redis.
type ValkeyCache = valkey.Store

// NewValkeyCache connects to Valkey or Redis at addrs.
func NewValkeyCache(addrs []string, password string) (*ValkeyCache, error) {
	s, err := valkey.NewStore(valkey.Config{Addrs: addrs, Password: password})
	if err != nil {
		return nil, fmt.Errorf("bagel: create valkey cache: %w", err)
	}
	return s, nil
}

func embeddingMetrics(reg prometheus.Registerer) (*metrics.Embedding, error) {
	if reg == nil {
		return nil, nil
	}
	m, err := metrics.NewEmbedding(reg)
	if err != nil {
		return nil, fmt.Errorf("bagel: embedding metrics: %w", err)
	}
	return m, nil
}

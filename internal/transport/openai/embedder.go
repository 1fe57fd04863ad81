package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bageldb/bagel-go/internal/domain"
	"github.com/bageldb/bagel-go/internal/metrics"
)

// MaxBatchSize is the largest number of inputs sent in one embeddings request.
const MaxBatchSize = 2048

const defaultConcurrency = 4

// Embedder is an embedding provider using the OpenAI-compatible API.
type Embedder struct {
	client      *openai.Client
	model       openai.EmbeddingModel
	dimensions  int
	user        string
	provider    string
	batchSize   int
	concurrency int
	logger      *zap.Logger
	metrics     *metrics.Embedding
}

// Config holds the embedding provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	User       string
	Provider   string
	// BatchSize caps inputs per request; values outside (0, MaxBatchSize] use MaxBatchSize.
	BatchSize int
	// Concurrency caps in-flight requests for one Embed call.
	Concurrency int
	Logger      *zap.Logger
	Metrics     *metrics.Embedding
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = domain.DefaultEmbeddingModel
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}
	batch := cfg.BatchSize
	if batch <= 0 || batch > MaxBatchSize {
		batch = MaxBatchSize
	}
	conc := cfg.Concurrency
	if conc <= 0 {
		conc = defaultConcurrency
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       openai.EmbeddingModel(model),
		dimensions:  cfg.Dimensions,
		user:        cfg.User,
		provider:    provider,
		batchSize:   batch,
		concurrency: conc,
		logger:      logger,
		metrics:     cfg.Metrics,
	}
}

// Embed implements domain.Embedder. Newlines are replaced with spaces and
// inputs are split into chunks fetched concurrently; vectors come back in
// input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) (domain.EmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.EmbeddingResult{}, nil
	}

	inputs := make([]string, len(texts))
	for i, t := range texts {
		inputs[i] = strings.ReplaceAll(t, "\n", " ")
	}

	out := make([][]float32, len(inputs))
	usage := make([]domain.EmbeddingResult, (len(inputs)+e.batchSize-1)/e.batchSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for chunk := range usage {
		start := chunk * e.batchSize
		end := min(start+e.batchSize, len(inputs))
		g.Go(func() error {
			res, err := e.embedChunk(gctx, inputs[start:end])
			if err != nil {
				return err
			}
			copy(out[start:end], res.Embeddings)
			usage[chunk] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.EmbeddingResult{}, err
	}

	result := domain.EmbeddingResult{Embeddings: out}
	for _, u := range usage {
		result.PromptTokens += u.PromptTokens
		result.TotalTokens += u.TotalTokens
	}
	return result, nil
}

func (e *Embedder) embedChunk(ctx context.Context, inputs []string) (domain.EmbeddingResult, error) {
	req := openai.EmbeddingRequest{
		Input:          inputs,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	model := string(e.model)
	start := time.Now()

	resp, err := e.client.CreateEmbeddings(ctx, req)

	duration := time.Since(start)

	if err != nil {
		e.metrics.Request(e.provider, model, "error")
		e.metrics.Error(e.provider, model, "api_error")
		e.logger.Warn("Embedding request failed",
			zap.String("provider", e.provider),
			zap.String("model", model),
			zap.Int("inputs", len(inputs)),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, parseAPIError(err)
	}

	if len(resp.Data) != len(inputs) {
		e.metrics.Request(e.provider, model, "error")
		e.metrics.Error(e.provider, model, "count_mismatch")
		return domain.EmbeddingResult{}, fmt.Errorf("expected %d embeddings, got %d: %w",
			len(inputs), len(resp.Data), domain.ErrEmbeddingProvider)
	}

	e.metrics.Request(e.provider, model, "success")
	e.metrics.Duration(e.provider, model, duration.Seconds())
	e.metrics.Tokens(e.provider, model, "prompt", resp.Usage.PromptTokens)
	e.metrics.Tokens(e.provider, model, "total", resp.Usage.TotalTokens)

	data := resp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vecs := make([][]float32, len(data))
	for i, d := range data {
		vecs[i] = d.Embedding
	}

	e.logger.Debug("Embedding request completed",
		zap.String("model", model),
		zap.Int("inputs", len(inputs)),
		zap.Duration("latency", duration),
	)

	return domain.EmbeddingResult{
		Embeddings:   vecs,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrEmbeddingProvider.
func parseAPIError(err error) error {
	wrap := domain.ErrEmbeddingProvider

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("embedding request: %w", err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("embedding API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("embedding API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("embedding request failed: %v: %w", err, wrap)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}

package embcache

import (
	"context"
	"testing"
	"time"

	"github.com/bageldb/bagel-go/internal/db"
	"github.com/bageldb/bagel-go/internal/domain"
)

// mockEmbedder returns vec for every input and records the batches it saw.
type mockEmbedder struct {
	vec     []float32
	tokens  int
	err     error
	calls   [][]string
	respLen int // overrides the number of returned vectors when > 0
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) (domain.EmbeddingResult, error) {
	m.calls = append(m.calls, texts)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	n := len(texts)
	if m.respLen > 0 {
		n = m.respLen
	}
	embeddings := make([][]float32, n)
	for i := range embeddings {
		embeddings[i] = m.vec
	}
	return domain.EmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: m.tokens * len(texts),
		TotalTokens:  m.tokens * len(texts),
	}, nil
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedEmbedder(t *testing.T, inner *mockEmbedder, cfg Config) (*CachedEmbedder, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	return New(inner, ms, cfg), ms
}

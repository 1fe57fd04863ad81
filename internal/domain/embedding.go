package domain

import (
	"context"
	"fmt"
)

// DefaultEmbeddingModel is the model used when none is configured.
const DefaultEmbeddingModel = "text-embedding-ada-002"

// Embedder is the shared text vectorization contract between layers.
// Embeddings are returned in the order of the input texts.
type Embedder interface {
	Embed(ctx context.Context, texts []string) (EmbeddingResult, error)
}

// EmbeddingResult carries embedding vectors and token usage through the decorator chain.
type EmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// CheckEmbeddingCount verifies that a provider returned one vector per text.
func CheckEmbeddingCount(res EmbeddingResult, want int) error {
	if len(res.Embeddings) != want {
		return fmt.Errorf("expected %d embeddings, got %d: %w",
			want, len(res.Embeddings), ErrEmbeddingProvider)
	}
	return nil
}

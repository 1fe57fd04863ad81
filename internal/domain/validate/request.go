package validate

import (
	"fmt"
	"strings"

	"github.com/bageldb/bagel-go/internal/domain"
	"github.com/bageldb/bagel-go/internal/domain/scalar"
)

var baseInclude = []domain.Include{
	domain.IncludeDocuments,
	domain.IncludeEmbeddings,
	domain.IncludeMetadatas,
}

// Include checks requested result fields. Distances are only allowed for
// similarity queries.
func Include(fields []domain.Include, allowDistances bool) ([]domain.Include, error) {
	allowed := baseInclude
	if allowDistances {
		allowed = append(allowed[:len(allowed):len(allowed)], domain.IncludeDistances)
	}
	for _, f := range fields {
		ok := false
		for _, a := range allowed {
			if f == a {
				ok = true
				break
			}
		}
		if !ok {
			names := make([]string, len(allowed))
			for i, a := range allowed {
				names[i] = string(a)
			}
			return nil, domain.InvalidArgumentf("expected include item to be one of %s, got %q",
				strings.Join(names, ", "), f)
		}
	}
	return fields, nil
}

// NResults requires a positive number of requested results.
func NResults(n int) (int, error) {
	if n <= 0 {
		return 0, domain.InvalidArgumentf("number of requested results cannot be negative or zero, got %d", n)
	}
	return n, nil
}

// Embeddings requires a non-empty batch of non-empty vectors.
func Embeddings(batch [][]float32) ([][]float32, error) {
	if len(batch) == 0 {
		return nil, domain.InvalidArgumentf("expected embeddings to be a non-empty list")
	}
	for i, vec := range batch {
		if len(vec) == 0 {
			return nil, domain.InvalidArgumentf("expected embedding %d to be a non-empty list of numbers", i)
		}
	}
	return batch, nil
}

// EmbeddingsAny validates an untyped batch of vectors and converts it to float32.
func EmbeddingsAny(v any) ([][]float32, error) {
	switch t := v.(type) {
	case [][]float32:
		return Embeddings(t)
	case [][]float64:
		out := make([][]float32, len(t))
		for i, vec := range t {
			out[i] = make([]float32, len(vec))
			for j, f := range vec {
				out[i][j] = float32(f)
			}
		}
		return Embeddings(out)
	case []any:
		out := make([][]float32, len(t))
		for i, e := range t {
			vec, err := vectorAny(e)
			if err != nil {
				return nil, fmt.Errorf("embedding %d: %w", i, err)
			}
			out[i] = vec
		}
		return Embeddings(out)
	default:
		return nil, domain.InvalidArgumentf("expected embeddings to be a list, got %T", v)
	}
}

func vectorAny(v any) ([]float32, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, domain.InvalidArgumentf("expected each embedding to be a list of numbers, got %T", v)
	}
	vec := make([]float32, len(items))
	for i, item := range items {
		f, ok := scalar.Float(item)
		if !ok {
			return nil, domain.InvalidArgumentf("expected each embedding to be a list of numbers, got %T at %d", item, i)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}

// ToMany wraps a single id, document, vector or metadata record into a one
// element batch and returns anything else unchanged. For []any the first
// element decides: a number means a single vector, anything else means the
// value is already a batch. An empty []any is returned as is.
func ToMany(v any) any {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []float32:
		return [][]float32{t}
	case []float64:
		return [][]float64{t}
	case map[string]any:
		return []map[string]any{t}
	case []any:
		if len(t) > 0 && scalar.IsNumber(t[0]) {
			return []any{t}
		}
		return t
	default:
		return v
	}
}

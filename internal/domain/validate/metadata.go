package validate

import (
	"fmt"
	"maps"
	"slices"

	"github.com/bageldb/bagel-go/internal/domain"
	"github.com/bageldb/bagel-go/internal/domain/scalar"
)

// Metadata requires every value to be a string or a number.
// A nil record is rejected; an empty one is accepted.
func Metadata(m map[string]any) (map[string]any, error) {
	if m == nil {
		return nil, domain.InvalidArgumentf("expected metadata to be an object, got nil")
	}
	for _, k := range slices.Sorted(maps.Keys(m)) {
		v := m[k]
		if !scalar.IsScalar(v) {
			return nil, domain.InvalidArgumentf(
				"expected metadata value for key %q to be a string or number, got %T (%v)", k, v, v)
		}
	}
	return m, nil
}

// Metadatas validates each record of a batch.
func Metadatas(ms []map[string]any) ([]map[string]any, error) {
	for i, m := range ms {
		if _, err := Metadata(m); err != nil {
			return nil, fmt.Errorf("metadata %d: %w", i, err)
		}
	}
	return ms, nil
}

// MetadataAny validates an untyped record. Maps with non-string keys,
// as produced by some YAML decoders, are rejected.
func MetadataAny(v any) (map[string]any, error) {
	switch t := v.(type) {
	case map[string]any:
		return Metadata(t)
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			ks, ok := k.(string)
			if !ok {
				return nil, domain.InvalidArgumentf("expected metadata key to be a string, got %T (%v)", k, k)
			}
			out[ks] = val
		}
		return Metadata(out)
	default:
		return nil, domain.InvalidArgumentf("expected metadata to be an object, got %T", v)
	}
}

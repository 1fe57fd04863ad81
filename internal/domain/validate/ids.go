// Package validate checks caller-supplied request payloads before they are sent.
// Every function is pure and returns its input unchanged on success.
package validate

import (
	"github.com/bageldb/bagel-go/internal/domain"
)

// IDs requires a non-empty list of unique identifiers.
// Duplicates are collected over the whole list and reported once each,
// in the order their first repeat was seen.
func IDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, domain.InvalidArgumentf("expected ids to be a non-empty list, got %v", ids)
	}

	seen := make(map[string]int, len(ids))
	var dups []string
	for _, id := range ids {
		seen[id]++
		if seen[id] == 2 {
			dups = append(dups, id)
		}
	}
	if len(dups) > 0 {
		return nil, domain.NewDuplicateIDError(dups)
	}
	return ids, nil
}

// IDsAny validates an untyped id list, such as one decoded from JSON.
func IDsAny(v any) ([]string, error) {
	switch t := v.(type) {
	case []string:
		return IDs(t)
	case []any:
		ids := make([]string, len(t))
		for i, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, domain.InvalidArgumentf("expected id %d to be a string, got %T (%v)", i, e, e)
			}
			ids[i] = s
		}
		return IDs(ids)
	default:
		return nil, domain.InvalidArgumentf("expected ids to be a list, got %T", v)
	}
}

package validate

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/bageldb/bagel-go/internal/domain"
)

// --- IDs ---

func TestIDs_Unique(t *testing.T) {
	in := []string{"b", "a", "c"}
	got, err := IDs(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, in) {
		t.Errorf("got %v, want %v (order preserved)", got, in)
	}
}

func TestIDs_Empty(t *testing.T) {
	for _, in := range [][]string{nil, {}} {
		_, err := IDs(in)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("IDs(%v): expected ErrInvalidArgument, got %v", in, err)
		}
	}
}

func TestIDs_Duplicates(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"one pair", []string{"a", "b", "a"}, []string{"a"}},
		{"triple reported once", []string{"x", "x", "x"}, []string{"x"}},
		{"two values", []string{"a", "b", "b", "a", "c"}, []string{"b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := IDs(tt.in)
			var dupErr *domain.DuplicateIDError
			if !errors.As(err, &dupErr) {
				t.Fatalf("expected DuplicateIDError, got %v", err)
			}
			if !reflect.DeepEqual(dupErr.IDs, tt.want) {
				t.Errorf("duplicates = %v, want %v", dupErr.IDs, tt.want)
			}
			if !errors.Is(err, domain.ErrDuplicateID) {
				t.Error("expected errors.Is(err, ErrDuplicateID)")
			}
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Error("expected duplicate id error to also be an invalid argument")
			}
		})
	}
}

func TestIDsAny(t *testing.T) {
	if _, err := IDsAny([]any{"a", "b"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := IDsAny("a"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("non-list: expected ErrInvalidArgument, got %v", err)
	}
	_, err := IDsAny([]any{"a", 1})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("non-string element: expected ErrInvalidArgument, got %v", err)
	}
	if !strings.Contains(err.Error(), "id 1") {
		t.Errorf("error = %q, want position of offending id", err)
	}
	if _, err := IDsAny([]any{}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("empty: expected ErrInvalidArgument, got %v", err)
	}
}

// --- Metadata ---

func TestMetadata_Valid(t *testing.T) {
	in := map[string]any{"title": "doc", "page": 3, "score": 0.25, "n": int64(9)}
	got, err := Metadata(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, in) {
		t.Errorf("metadata changed: %v", got)
	}
	if _, err := Metadata(map[string]any{}); err != nil {
		t.Errorf("empty metadata: unexpected error %v", err)
	}
}

func TestMetadata_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"bool", true},
		{"nil", nil},
		{"array", []any{1, 2}},
		{"nested", map[string]any{"a": 1}},
		{"struct", struct{}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Metadata(map[string]any{"ok": "x", "bad": tt.value})
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
			if !strings.Contains(err.Error(), `"bad"`) {
				t.Errorf("error = %q, want offending key", err)
			}
		})
	}
}

func TestMetadata_Nil(t *testing.T) {
	if _, err := Metadata(nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestMetadatas_ReportsIndex(t *testing.T) {
	_, err := Metadatas([]map[string]any{{"a": 1}, {"b": false}})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "metadata 1:") {
		t.Errorf("error = %q", err)
	}
}

func TestMetadataAny(t *testing.T) {
	if _, err := MetadataAny(map[any]any{"a": 1}); err != nil {
		t.Errorf("string keys: unexpected error %v", err)
	}
	if _, err := MetadataAny(map[any]any{1: "a"}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("int key: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := MetadataAny("nope"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("non-object: expected ErrInvalidArgument, got %v", err)
	}
}

// --- Include ---

func TestInclude(t *testing.T) {
	fields := []domain.Include{domain.IncludeMetadatas, domain.IncludeDistances}

	if _, err := Include(fields, false); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("distances without allowDistances: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := Include(fields, true); err != nil {
		t.Errorf("distances with allowDistances: unexpected error %v", err)
	}
	if _, err := Include([]domain.Include{"vectors"}, true); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("unknown field: expected ErrInvalidArgument, got %v", err)
	}
	all := []domain.Include{domain.IncludeDocuments, domain.IncludeEmbeddings, domain.IncludeMetadatas}
	if _, err := Include(all, false); err != nil {
		t.Errorf("base fields: unexpected error %v", err)
	}
}

func TestInclude_DoesNotLeakDistances(t *testing.T) {
	_, _ = Include(nil, true)
	if _, err := Include([]domain.Include{domain.IncludeDistances}, false); err == nil {
		t.Fatal("distances accepted after a previous call allowed them")
	}
}

// --- NResults ---

func TestNResults(t *testing.T) {
	if n, err := NResults(5); err != nil || n != 5 {
		t.Errorf("NResults(5) = %d, %v", n, err)
	}
	for _, n := range []int{0, -1} {
		if _, err := NResults(n); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("NResults(%d): expected ErrInvalidArgument, got %v", n, err)
		}
	}
}

// --- Embeddings ---

func TestEmbeddings(t *testing.T) {
	if _, err := Embeddings([][]float32{{1, 2}, {3}}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := Embeddings(nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("empty batch: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := Embeddings([][]float32{{1}, {}}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("empty vector: expected ErrInvalidArgument, got %v", err)
	}
}

func TestEmbeddingsAny(t *testing.T) {
	got, err := EmbeddingsAny([]any{[]any{1.0, 2}, []any{0.5}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]float32{{1, 2}, {0.5}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	bad := []any{
		[]any{},
		[]any{[]any{1, "x"}},
		[]any{"not a vector"},
		"nope",
	}
	for _, b := range bad {
		if _, err := EmbeddingsAny(b); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("EmbeddingsAny(%v): expected ErrInvalidArgument, got %v", b, err)
		}
	}
}

// --- ToMany ---

func TestToMany(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"single id", "abc", []string{"abc"}},
		{"single vector", []any{1, 2, 3}, []any{[]any{1, 2, 3}}},
		{"already batched ids", []any{"a", "b"}, []any{"a", "b"}},
		{"typed vector", []float32{1, 2}, [][]float32{{1, 2}}},
		{"typed ids", []string{"a"}, []string{"a"}},
		{"metadata record", map[string]any{"a": 1}, []map[string]any{{"a": 1}}},
		{"batch of vectors", []any{[]any{1}}, []any{[]any{1}}},
		{"empty", []any{}, []any{}},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToMany(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ToMany(%v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

package bagel

import (
	"testing"

	"github.com/bageldb/bagel-go/internal/domain/where"
)

func TestInputMany(t *testing.T) {
	if got := SingleID("a").Many(); len(got) != 1 || got[0] != "a" {
		t.Errorf("SingleID.Many = %v", got)
	}
	if got := (IDBatch{"a", "b"}).Many(); len(got) != 2 {
		t.Errorf("IDBatch.Many = %v", got)
	}
	if got := (SingleVector{1, 2}).Many(); len(got) != 1 || len(got[0]) != 2 {
		t.Errorf("SingleVector.Many = %v", got)
	}
	if got := (VectorBatch{{1}, {2}}).Many(); len(got) != 2 {
		t.Errorf("VectorBatch.Many = %v", got)
	}
	if got := (SingleMetadata{"k": "v"}).Many(); len(got) != 1 || got[0]["k"] != "v" {
		t.Errorf("SingleMetadata.Many = %v", got)
	}
	if got := SingleDocument("doc").Many(); len(got) != 1 || got[0] != "doc" {
		t.Errorf("SingleDocument.Many = %v", got)
	}
	if got := DocumentBatch(nil).Many(); got != nil {
		t.Errorf("nil DocumentBatch.Many = %v", got)
	}
}

func TestParseWhere(t *testing.T) {
	w, err := ParseWhere(map[string]any{
		"$and": []any{
			map[string]any{"year": map[string]any{"$gte": 2020}},
			map[string]any{"kind": "post"},
		},
	})
	if err != nil {
		t.Fatalf("ParseWhere: %v", err)
	}
	and, ok := w.(where.And)
	if !ok || len(and) != 2 {
		t.Fatalf("unexpected expression %T (%v)", w, w)
	}

	if w, err := ParseWhere(map[string]any{}); err != nil || w != nil {
		t.Errorf("empty where = %v, %v", w, err)
	}
	if _, err := ParseWhere(map[string]any{"$gt": 1}); err == nil {
		t.Error("expected error for top-level operator")
	}
	if _, err := ParseWhereDocument(map[string]any{"$contains": 3}); err == nil {
		t.Error("expected error for non-string $contains")
	}
}

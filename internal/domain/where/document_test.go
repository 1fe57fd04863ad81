package where

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/bageldb/bagel-go/internal/domain"
)

func TestParseDocument_Valid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want DocExpr
	}{
		{"contains", `{"$contains": "hello"}`, Contains{Text: "hello"}},
		{"field contains", `{"text": {"$contains": "hello"}}`, Contains{Field: "text", Text: "hello"}},
		{
			"or",
			`{"$or": [{"$contains": "a"}, {"$contains": "b"}]}`,
			DocOr{Contains{Text: "a"}, Contains{Text: "b"}},
		},
		{
			"nested and",
			`{"$and": [{"$contains": "a"}, {"$or": [{"$contains": "b"}, {"$contains": "c"}]}]}`,
			DocAnd{Contains{Text: "a"}, DocOr{Contains{Text: "b"}, Contains{Text: "c"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDocument(decode(t, tt.in))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseDocument = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseDocument_Empty(t *testing.T) {
	e, err := ParseDocument(map[string]any{})
	if err != nil || e != nil {
		t.Errorf("got %v, %v; want nil, nil", e, err)
	}
}

func TestParseDocument_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		msg  string
	}{
		{"non-string operand", `{"text": {"$contains": 5}}`, "to be a string"},
		{"top-level non-string", `{"$contains": ["a"]}`, "to be a string"},
		{"unknown operator", `{"$regex": "a.*"}`, "$contains, $and, $or"},
		{"field with other operator", `{"text": {"$eq": "a"}}`, "to be $contains"},
		{"field with scalar", `{"text": "a"}`, `{"$contains": string}`},
		{"two keys", `{"$contains": "a", "$and": []}`, "exactly one key"},
		{"single-element or", `{"$or": [{"$contains": "a"}]}`, "at least two"},
		{"or not a list", `{"$or": "a"}`, "list of where document expressions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument(decode(t, tt.in))
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error = %q, want it to mention %q", err, tt.msg)
			}
		})
	}
}

func TestValidateDocument(t *testing.T) {
	if err := ValidateDocument(DocOr{Contains{Text: "a"}, Contains{Text: "b"}}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateDocument(DocAnd{Contains{Text: "a"}}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if err := ValidateDocument(nil); err != nil {
		t.Errorf("nil: unexpected error %v", err)
	}
}

func TestDocument_MarshalJSON(t *testing.T) {
	e := DocAnd{Contains{Text: "a"}, Contains{Field: "text", Text: "b"}}
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"$and":[{"$contains":"a"},{"text":{"$contains":"b"}}]}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

func TestMatchDocument(t *testing.T) {
	doc := "the quick brown fox"
	tests := []struct {
		e    DocExpr
		want bool
	}{
		{nil, true},
		{Contains{Text: "quick"}, true},
		{Contains{Text: "slow"}, false},
		{DocAnd{Contains{Text: "quick"}, Contains{Text: "fox"}}, true},
		{DocAnd{Contains{Text: "quick"}, Contains{Text: "dog"}}, false},
		{DocOr{Contains{Text: "dog"}, Contains{Text: "fox"}}, true},
	}
	for _, tc := range tests {
		if got := MatchDocument(tc.e, doc); got != tc.want {
			t.Errorf("MatchDocument(%#v) = %v, want %v", tc.e, got, tc.want)
		}
	}
}

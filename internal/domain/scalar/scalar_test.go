package scalar

import (
	"encoding/json"
	"testing"
)

func TestIsScalar(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"string", "a", true},
		{"empty string", "", true},
		{"int", 1, true},
		{"int64", int64(-3), true},
		{"uint8", uint8(7), true},
		{"float32", float32(0.5), true},
		{"float64", 2.5, true},
		{"json number", json.Number("12.5"), true},
		{"bad json number", json.Number("x"), false},
		{"bool", true, false},
		{"nil", nil, false},
		{"slice", []any{1}, false},
		{"map", map[string]any{"a": 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsScalar(tt.v); got != tt.want {
				t.Errorf("IsScalar(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b any
		want bool
	}{
		{1, 1.0, true},
		{int64(2), float32(2), true},
		{json.Number("3"), 3, true},
		{"x", "x", true},
		{"1", 1, false},
		{1, "1", false},
		{1, 2, false},
		{true, true, false},
	}
	for _, tc := range tests {
		if got := Equal(tc.a, tc.b); got != tc.want {
			t.Errorf("Equal(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

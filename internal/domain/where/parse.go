package where

import (
	"fmt"

	"github.com/bageldb/bagel-go/internal/domain"
	"github.com/bageldb/bagel-go/internal/domain/scalar"
)

// Parse converts an untyped filter object (for example decoded JSON) into an
// Expr, validating it on the way. An empty or nil object yields a nil Expr.
func Parse(raw map[string]any) (Expr, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return parse(raw, "where")
}

func parse(raw map[string]any, path string) (Expr, error) {
	key, value, err := single(raw, path, "where")
	if err != nil {
		return nil, err
	}

	switch Op(key) {
	case OpAnd, OpOr:
		subs, err := parseList(Op(key), value, path)
		if err != nil {
			return nil, err
		}
		if Op(key) == OpAnd {
			return And(subs), nil
		}
		return Or(subs), nil
	}

	if err := checkField(key, path); err != nil {
		return nil, err
	}
	if opExpr, ok := asObject(value); ok {
		op, operand, err := single(opExpr, path+"."+key, "operator expression")
		if err != nil {
			return nil, err
		}
		if err := checkOperand(Op(op), operand, path+"."+key); err != nil {
			return nil, err
		}
		return Cmp{Field: key, Op: Op(op), Value: operand}, nil
	}
	if !scalar.IsScalar(value) {
		return nil, domain.InvalidArgumentf(
			"%s: expected where value for %q to be a string, number, or operator expression, got %T (%v)",
			path, key, value, value)
	}
	return Eq{Field: key, Value: value}, nil
}

func parseList(op Op, value any, path string) ([]Expr, error) {
	items, ok := asList(value)
	if !ok {
		return nil, domain.InvalidArgumentf(
			"%s: expected where value for %s to be a list of where expressions, got %T", path, op, value)
	}
	if len(items) < 2 {
		return nil, domain.InvalidArgumentf(
			"%s: expected %s to hold at least two where expressions, got %d", path, op, len(items))
	}
	subs := make([]Expr, len(items))
	for i, item := range items {
		p := fmt.Sprintf("%s.%s[%d]", path, op, i)
		obj, ok := asObject(item)
		if !ok {
			return nil, domain.InvalidArgumentf("%s: expected a where expression object, got %T", p, item)
		}
		sub, err := parse(obj, p)
		if err != nil {
			return nil, err
		}
		subs[i] = sub
	}
	return subs, nil
}

// single enforces the one-key-per-object rule.
func single(obj map[string]any, path, what string) (string, any, error) {
	if len(obj) != 1 {
		return "", nil, domain.InvalidArgumentf(
			"%s: expected %s to have exactly one key, got %d", path, what, len(obj))
	}
	for k, v := range obj {
		return k, v, nil
	}
	return "", nil, nil
}

func asObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}

func asList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out, true
	}
	return nil, false
}

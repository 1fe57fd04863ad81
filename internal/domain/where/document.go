package where

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bageldb/bagel-go/internal/domain"
)

// DocExpr is a document content filter: Contains, DocAnd or DocOr.
type DocExpr interface {
	json.Marshaler
	isDocExpr()
}

// Contains matches documents holding Text as a substring.
// Field is optional; when set the expression encodes as {field: {"$contains": text}}.
type Contains struct {
	Field string
	Text  string
}

// DocAnd matches when every sub-expression matches.
type DocAnd []DocExpr

// DocOr matches when any sub-expression matches.
type DocOr []DocExpr

func (Contains) isDocExpr() {}
func (DocAnd) isDocExpr()   {}
func (DocOr) isDocExpr()    {}

// MarshalJSON encodes {"$contains": text} or {field: {"$contains": text}}.
func (c Contains) MarshalJSON() ([]byte, error) {
	leaf := map[string]any{string(OpContains): c.Text}
	if c.Field == "" {
		return json.Marshal(leaf)
	}
	return json.Marshal(map[string]any{c.Field: leaf})
}

// MarshalJSON encodes {"$and": [...]}.
func (a DocAnd) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]DocExpr{string(OpAnd): a})
}

// MarshalJSON encodes {"$or": [...]}.
func (o DocOr) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]DocExpr{string(OpOr): o})
}

// ValidateDocument checks a document filter tree. A nil expression means no constraint.
func ValidateDocument(e DocExpr) error {
	return validateDoc(e, "where_document")
}

func validateDoc(e DocExpr, path string) error {
	switch t := e.(type) {
	case nil, Contains:
		return nil
	case DocAnd:
		return validateDocLogical(OpAnd, t, path)
	case DocOr:
		return validateDocLogical(OpOr, t, path)
	default:
		return domain.InvalidArgumentf("%s: unsupported expression %T", path, e)
	}
}

func validateDocLogical(op Op, subs []DocExpr, path string) error {
	if len(subs) < 2 {
		return domain.InvalidArgumentf(
			"%s: expected %s to hold at least two where document expressions, got %d", path, op, len(subs))
	}
	for i, sub := range subs {
		p := fmt.Sprintf("%s.%s[%d]", path, op, i)
		if sub == nil {
			return domain.InvalidArgumentf("%s: expected a where document expression, got nil", p)
		}
		if err := validateDoc(sub, p); err != nil {
			return err
		}
	}
	return nil
}

// ParseDocument converts an untyped document filter object into a DocExpr.
// An empty or nil object yields a nil DocExpr.
func ParseDocument(raw map[string]any) (DocExpr, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return parseDoc(raw, "where_document")
}

func parseDoc(raw map[string]any, path string) (DocExpr, error) {
	key, value, err := single(raw, path, "where document")
	if err != nil {
		return nil, err
	}

	switch Op(key) {
	case OpContains:
		return parseContains("", value, path)
	case OpAnd, OpOr:
		items, ok := asList(value)
		if !ok {
			return nil, domain.InvalidArgumentf(
				"%s: expected document value for %s to be a list of where document expressions, got %T",
				path, key, value)
		}
		if len(items) < 2 {
			return nil, domain.InvalidArgumentf(
				"%s: expected %s to hold at least two where document expressions, got %d", path, key, len(items))
		}
		subs := make([]DocExpr, len(items))
		for i, item := range items {
			p := fmt.Sprintf("%s.%s[%d]", path, key, i)
			obj, ok := asObject(item)
			if !ok {
				return nil, domain.InvalidArgumentf("%s: expected a where document object, got %T", p, item)
			}
			if subs[i], err = parseDoc(obj, p); err != nil {
				return nil, err
			}
		}
		if Op(key) == OpAnd {
			return DocAnd(subs), nil
		}
		return DocOr(subs), nil
	}

	if strings.HasPrefix(key, "$") {
		return nil, domain.InvalidArgumentf(
			"%s: expected where document operator to be one of $contains, $and, $or, got %s", path, key)
	}
	obj, ok := asObject(value)
	if !ok {
		return nil, domain.InvalidArgumentf(
			"%s: expected value for %q to be a {\"$contains\": string} expression, got %T", path, key, value)
	}
	op, operand, err := single(obj, path+"."+key, "where document")
	if err != nil {
		return nil, err
	}
	if Op(op) != OpContains {
		return nil, domain.InvalidArgumentf(
			"%s.%s: expected where document operator to be $contains, got %s", path, key, op)
	}
	return parseContains(key, operand, path+"."+key)
}

func parseContains(field string, v any, path string) (DocExpr, error) {
	s, ok := v.(string)
	if !ok {
		return nil, domain.InvalidArgumentf(
			"%s: expected where document operand value for operator $contains to be a string, got %T (%v)",
			path, v, v)
	}
	return Contains{Field: field, Text: s}, nil
}

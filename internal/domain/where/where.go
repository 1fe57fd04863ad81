// Package where models metadata ("where") and document ("where_document")
// filter expressions as closed sets of variants.
//
// Every expression encodes to a JSON object with exactly one top-level key:
//
//	{"color": "red"}                              Eq
//	{"price": {"$gt": 10}}                        Cmp
//	{"$and": [{"a": 1}, {"b": {"$ne": "x"}}]}     And
//	{"$contains": "hello"}                        Contains
//	{"text": {"$contains": "hello"}}              Contains with Field
package where

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bageldb/bagel-go/internal/domain"
	"github.com/bageldb/bagel-go/internal/domain/scalar"
)

// Op is a filter operator.
type Op string

// Operators understood by the service.
const (
	OpGT       Op = "$gt"
	OpGTE      Op = "$gte"
	OpLT       Op = "$lt"
	OpLTE      Op = "$lte"
	OpNE       Op = "$ne"
	OpEQ       Op = "$eq"
	OpAnd      Op = "$and"
	OpOr       Op = "$or"
	OpContains Op = "$contains"
)

// IsRange reports whether op requires a numeric operand.
func (op Op) IsRange() bool {
	switch op {
	case OpGT, OpGTE, OpLT, OpLTE:
		return true
	}
	return false
}

// IsComparison reports whether op may appear inside a field's operator expression.
func (op Op) IsComparison() bool {
	return op.IsRange() || op == OpEQ || op == OpNE
}

// Expr is a metadata filter expression: Eq, Cmp, And or Or.
type Expr interface {
	json.Marshaler
	isExpr()
}

// Eq matches records whose field equals a scalar.
type Eq struct {
	Field string
	Value any
}

// Cmp compares a field against a scalar operand.
type Cmp struct {
	Field string
	Op    Op
	Value any
}

// And matches when every sub-expression matches.
type And []Expr

// Or matches when any sub-expression matches.
type Or []Expr

func (Eq) isExpr()  {}
func (Cmp) isExpr() {}
func (And) isExpr() {}
func (Or) isExpr()  {}

// MarshalJSON encodes {field: value}.
func (e Eq) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{e.Field: e.Value})
}

// MarshalJSON encodes {field: {op: value}}.
func (c Cmp) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{c.Field: map[string]any{string(c.Op): c.Value}})
}

// MarshalJSON encodes {"$and": [...]}.
func (a And) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]Expr{string(OpAnd): a})
}

// MarshalJSON encodes {"$or": [...]}.
func (o Or) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]Expr{string(OpOr): o})
}

// Validate checks an expression tree. A nil expression means no constraint.
func Validate(e Expr) error {
	return validate(e, "where")
}

func validate(e Expr, path string) error {
	switch t := e.(type) {
	case nil:
		return nil
	case Eq:
		if err := checkField(t.Field, path); err != nil {
			return err
		}
		if !scalar.IsScalar(t.Value) {
			return domain.InvalidArgumentf(
				"%s: expected value for %q to be a string or number, got %T (%v)", path, t.Field, t.Value, t.Value)
		}
	case Cmp:
		if err := checkField(t.Field, path); err != nil {
			return err
		}
		return checkOperand(t.Op, t.Value, path+"."+t.Field)
	case And:
		return validateLogical(OpAnd, t, path)
	case Or:
		return validateLogical(OpOr, t, path)
	default:
		return domain.InvalidArgumentf("%s: unsupported expression %T", path, e)
	}
	return nil
}

func validateLogical(op Op, subs []Expr, path string) error {
	if len(subs) < 2 {
		return domain.InvalidArgumentf(
			"%s: expected %s to hold at least two where expressions, got %d", path, op, len(subs))
	}
	for i, sub := range subs {
		p := fmt.Sprintf("%s.%s[%d]", path, op, i)
		if sub == nil {
			return domain.InvalidArgumentf("%s: expected a where expression, got nil", p)
		}
		if err := validate(sub, p); err != nil {
			return err
		}
	}
	return nil
}

func checkField(field, path string) error {
	if field == "" {
		return domain.InvalidArgumentf("%s: field name is required", path)
	}
	if strings.HasPrefix(field, "$") {
		return domain.InvalidArgumentf(
			"%s: expected where operator to be one of $and, $or, got %s", path, field)
	}
	return nil
}

func checkOperand(op Op, v any, path string) error {
	if !op.IsComparison() {
		return domain.InvalidArgumentf(
			"%s: expected where operator to be one of $gt, $gte, $lt, $lte, $ne, $eq, got %s", path, op)
	}
	if op.IsRange() && !scalar.IsNumber(v) {
		return domain.InvalidArgumentf(
			"%s: expected operand value to be a number for operator %s, got %T (%v)", path, op, v, v)
	}
	if !scalar.IsScalar(v) {
		return domain.InvalidArgumentf(
			"%s: expected operand value to be a string or number, got %T (%v)", path, v, v)
	}
	return nil
}

package where

import (
	"strings"

	"github.com/bageldb/bagel-go/internal/domain/scalar"
)

// Match evaluates e against a metadata record. A nil expression matches
// everything; a missing field never matches.
func Match(e Expr, md map[string]any) bool {
	switch t := e.(type) {
	case nil:
		return true
	case Eq:
		v, ok := md[t.Field]
		return ok && scalar.Equal(v, t.Value)
	case Cmp:
		v, ok := md[t.Field]
		return ok && compare(t.Op, v, t.Value)
	case And:
		for _, sub := range t {
			if !Match(sub, md) {
				return false
			}
		}
		return true
	case Or:
		for _, sub := range t {
			if Match(sub, md) {
				return true
			}
		}
		return false
	}
	return false
}

func compare(op Op, v, operand any) bool {
	switch op {
	case OpEQ:
		return scalar.Equal(v, operand)
	case OpNE:
		return !scalar.Equal(v, operand)
	}
	a, aok := scalar.Float(v)
	b, bok := scalar.Float(operand)
	if !aok || !bok {
		return false
	}
	switch op {
	case OpGT:
		return a > b
	case OpGTE:
		return a >= b
	case OpLT:
		return a < b
	case OpLTE:
		return a <= b
	}
	return false
}

// MatchDocument evaluates e against document text.
func MatchDocument(e DocExpr, doc string) bool {
	switch t := e.(type) {
	case nil:
		return true
	case Contains:
		return strings.Contains(doc, t.Text)
	case DocAnd:
		for _, sub := range t {
			if !MatchDocument(sub, doc) {
				return false
			}
		}
		return true
	case DocOr:
		for _, sub := range t {
			if MatchDocument(sub, doc) {
				return true
			}
		}
		return false
	}
	return false
}

package bagel

import (
	"github.com/bageldb/bagel-go/internal/domain"
	"github.com/bageldb/bagel-go/internal/domain/where"
)

// Metadata is a record of string or numeric values attached to an item.
type Metadata = map[string]any

// Include names a field returned by Get, Peek and Query.
type Include = domain.Include

// Include values.
const (
	IncludeDocuments  = domain.IncludeDocuments
	IncludeEmbeddings = domain.IncludeEmbeddings
	IncludeMetadatas  = domain.IncludeMetadatas
	IncludeDistances  = domain.IncludeDistances
)

// DefaultTenant is the user id sent when WithUserID is not used.
const DefaultTenant = domain.DefaultTenant

// GetResult holds records returned by Get and Peek.
type GetResult = domain.GetResult

// QueryResult holds nearest neighbours, one inner slice per query.
type QueryResult = domain.QueryResult

// Where is a metadata filter. Build one with Eq, Cmp, And and Or, or
// decode it with ParseWhere.
type Where = where.Expr

// WhereDocument is a document content filter. Build one with Contains,
// DocAnd and DocOr, or decode it with ParseWhereDocument.
type WhereDocument = where.DocExpr

// Op is a comparison operator.
type Op = where.Op

// Comparison operators.
const (
	OpGt  = where.OpGT
	OpGte = where.OpGTE
	OpLt  = where.OpLT
	OpLte = where.OpLTE
	OpNe  = where.OpNE
	OpEq  = where.OpEQ
)

// Eq matches records whose field equals value.
func Eq(field string, value any) Where { return where.Eq{Field: field, Value: value} }

// Cmp matches records whose field compares to value with op.
func Cmp(field string, op Op, value any) Where {
	return where.Cmp{Field: field, Op: op, Value: value}
}

// And matches when every expression matches. At least two are required.
func And(exprs ...Where) Where { return where.And(exprs) }

// Or matches when any expression matches. At least two are required.
func Or(exprs ...Where) Where { return where.Or(exprs) }

// Contains matches documents containing text.
func Contains(text string) WhereDocument { return where.Contains{Text: text} }

// FieldContains is Contains scoped to a named document field.
func FieldContains(field, text string) WhereDocument {
	return where.Contains{Field: field, Text: text}
}

// DocAnd matches when every document expression matches.
func DocAnd(exprs ...WhereDocument) WhereDocument { return where.DocAnd(exprs) }

// DocOr matches when any document expression matches.
func DocOr(exprs ...WhereDocument) WhereDocument { return where.DocOr(exprs) }

// ParseWhere decodes and validates a where object, e.g. one read from JSON.
// An empty object yields a nil filter.
func ParseWhere(raw map[string]any) (Where, error) { return where.Parse(raw) }

// ParseWhereDocument decodes and validates a where_document object.
func ParseWhereDocument(raw map[string]any) (WhereDocument, error) {
	return where.ParseDocument(raw)
}

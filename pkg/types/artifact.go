package types

import "strings"

// ExprKind classifies an expression by the role it plays in a tag table.
// The kind decides the generated function's signature and how literals are
// wrapped in the emitted code.
type ExprKind string

const (
	// KindValueConv converts a raw extracted value into a logical value.
	// Conversions may legitimately fail, so the generated function returns
	// (TagValue, error).
	KindValueConv ExprKind = "ValueConv"
	// KindPrintConv renders a logical value for human display; infallible.
	KindPrintConv ExprKind = "PrintConv"
	// KindCondition is a boolean guard selecting between tag variants.
	KindCondition ExprKind = "Condition"
)

// KindFromField infers the expression kind from the table field name the
// expression was extracted from. Unknown contexts default to ValueConv.
func KindFromField(field string) ExprKind {
	switch {
	case strings.Contains(field, "Condition"):
		return KindCondition
	case strings.Contains(field, "PrintConv"):
		return KindPrintConv
	default:
		return KindValueConv
	}
}

// Artifact is one generated native function. The production runtime looks
// functions up by Name, which is derived from a content hash of the canonical
// AST, so identical expressions collapse to a single artifact.
type Artifact struct {
	// Name is the stable hash-derived function identifier,
	// e.g. "ConvertValue_a1b2c3d4".
	Name string
	// Hash is the full content hash the name derives from.
	Hash string
	// Kind selects the function signature.
	Kind ExprKind
	// Expr is the original source expression.
	Expr string
	// Source is the complete generated Go function, including its doc
	// comment but excluding package and import clauses.
	Source string
}

// Bucket returns the two-character hash prefix used to shard emitted source
// files into subdirectories, keeping any single directory from accumulating
// tens of thousands of entries.
func (a *Artifact) Bucket() string {
	if len(a.Hash) < 2 {
		return a.Hash
	}
	return a.Hash[:2]
}

// Package types defines the core type system for convgen.
//
// This package contains type definitions for:
//   - Node: parse-tree nodes, both raw (adapter wire format) and canonical
//   - Artifact: a generated native function with its stable identifier
//   - ExprKind: the three expression categories (value/print/condition)
//   - Error types: structured errors with codes
package types

import "encoding/json"

// Raw node classes as emitted by the external parse adapter. The adapter
// serializes the third-party parser's token hierarchy verbatim, so the class
// vocabulary is the parser's own. Classes not listed here may still appear in
// a document; they are carried through as opaque leaves, never rejected.
const (
	ClassDocument   = "PPI::Document"
	ClassStatement  = "PPI::Statement"
	ClassExpression = "PPI::Statement::Expression"
	ClassSymbol     = "PPI::Token::Symbol"
	ClassNumber     = "PPI::Token::Number"
	ClassFloat      = "PPI::Token::Number::Float"
	ClassHex        = "PPI::Token::Number::Hex"
	ClassOperator   = "PPI::Token::Operator"
	ClassSingle     = "PPI::Token::Quote::Single"
	ClassDouble     = "PPI::Token::Quote::Double"
	ClassWord       = "PPI::Token::Word"
	ClassCast       = "PPI::Token::Cast"
	ClassWhitespace = "PPI::Token::Whitespace"
	ClassComment    = "PPI::Token::Comment"
	ClassList       = "PPI::Structure::List"
	ClassSubscript  = "PPI::Structure::Subscript"
)

// Canonical node classes produced by the normalizer. This vocabulary is
// closed: the code generator dispatches over it exhaustively and treats any
// other class as an unsupported-token error.
const (
	ClassBinaryOp     = "BinaryOperation"
	ClassUnaryOp      = "UnaryOperation"
	ClassTernaryOp    = "TernaryOp"
	ClassFunctionCall = "FunctionCall"
	ClassStringRepeat = "StringRepeat"
	ClassLiteral      = "Literal"
	ClassVariableRef  = "VariableRef"
)

// Node is one parse-tree node. The same struct carries both raw adapter
// output and canonical normalizer output; Class distinguishes the two
// vocabularies. Normalization is deliberately partial, so a subtree the
// normalizer does not recognize keeps its raw classes and is rejected later
// by the code generator with an explicit error.
type Node struct {
	Class           string   `json:"class"`
	Content         string   `json:"content,omitempty"`
	Children        []*Node  `json:"children,omitempty"`
	SymbolType      string   `json:"symbol_type,omitempty"`
	NumericValue    *float64 `json:"numeric_value,omitempty"`
	StringValue     *string  `json:"string_value,omitempty"`
	StructureBounds string   `json:"structure_bounds,omitempty"`
}

// ParseDocument decodes one raw parse-tree document from the adapter.
func ParseDocument(data []byte) (*Node, error) {
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, NewError(ErrDocumentDecode, err.Error()).WithCause(err)
	}
	return &n, nil
}

// IsCanonical reports whether the class belongs to the canonical vocabulary.
func (n *Node) IsCanonical() bool {
	switch n.Class {
	case ClassBinaryOp, ClassUnaryOp, ClassTernaryOp, ClassFunctionCall,
		ClassStringRepeat, ClassLiteral, ClassVariableRef:
		return true
	}
	return false
}

// IsOperator reports whether this is a raw operator token.
func (n *Node) IsOperator() bool {
	return n.Class == ClassOperator
}

// Op returns the operator symbol, or "" for non-operator nodes.
func (n *Node) Op() string {
	if n.IsOperator() {
		return n.Content
	}
	return ""
}

// IsSkippable reports whether the node is whitespace or a comment, which
// every pass ignores.
func (n *Node) IsSkippable() bool {
	return n.Class == ClassWhitespace || n.Class == ClassComment
}

// IsSelfRef reports whether this symbol is a $$self{Field} context read.
func (n *Node) IsSelfRef() bool {
	return n.Class == ClassSymbol && len(n.Content) > 6 && n.Content[:6] == "$$self"
}

// SelfField extracts the field name from a $$self{Field} symbol, or "".
func (n *Node) SelfField() string {
	if !n.IsSelfRef() {
		return ""
	}
	start := -1
	for i, r := range n.Content {
		if r == '{' {
			start = i + 1
		} else if r == '}' && start > 0 && i > start {
			return n.Content[start:i]
		}
	}
	return ""
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.NumericValue != nil {
		v := *n.NumericValue
		c.NumericValue = &v
	}
	if n.StringValue != nil {
		v := *n.StringValue
		c.StringValue = &v
	}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return &c
}

// String returns the node class, for debug output.
func (n *Node) String() string {
	return n.Class
}

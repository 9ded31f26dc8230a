package normalizer

import (
	"github.com/photostructure/convgen/pkg/types"
)

// SafeDivisionPass rewrites the guarded-division idiom
//
//	$x ? N / $x : 0
//
// into a call to the runtime's safe-division primitive, so the generated
// code cannot fault on an integer zero divisor. N == 1 uses the reciprocal
// form. The rewrite fires only when the guard and the divisor are
// structurally identical; a ternary whose guard differs from its divisor is
// a plain conditional and keeps its lazy-branch lowering.
type SafeDivisionPass struct{}

// Name implements Pass.
func (*SafeDivisionPass) Name() string { return "safe-division" }

// Transform implements Pass.
func (*SafeDivisionPass) Transform(node *types.Node) *types.Node {
	if node.Class != types.ClassTernaryOp || len(node.Children) != 3 {
		return node
	}
	cond, trueBranch, falseBranch := node.Children[0], node.Children[1], node.Children[2]
	if trueBranch.Class != types.ClassBinaryOp || trueBranch.Content != "/" || len(trueBranch.Children) != 2 {
		return node
	}
	if !isZeroLiteral(falseBranch) {
		return node
	}
	num, denom := trueBranch.Children[0], trueBranch.Children[1]
	if !nodesEqual(cond, denom) {
		return node
	}
	if isOneLiteral(num) {
		return &types.Node{
			Class:    types.ClassFunctionCall,
			Content:  "safe_reciprocal",
			Children: []*types.Node{denom},
		}
	}
	return &types.Node{
		Class:    types.ClassFunctionCall,
		Content:  "safe_division",
		Children: []*types.Node{num, denom},
	}
}

func isZeroLiteral(n *types.Node) bool {
	if n.Class != types.ClassLiteral {
		return false
	}
	if n.NumericValue != nil {
		return *n.NumericValue == 0
	}
	return n.Content == "0"
}

func isOneLiteral(n *types.Node) bool {
	if n.Class != types.ClassLiteral {
		return false
	}
	if n.NumericValue != nil {
		return *n.NumericValue == 1
	}
	return n.Content == "1"
}

// nodesEqual reports structural equality over class, content and children.
// Symbol-type and literal annotations are compared too; two nodes that
// render differently must not be treated as the same guard.
func nodesEqual(a, b *types.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Class != b.Class || a.Content != b.Content || a.SymbolType != b.SymbolType {
		return false
	}
	if (a.NumericValue == nil) != (b.NumericValue == nil) {
		return false
	}
	if a.NumericValue != nil && *a.NumericValue != *b.NumericValue {
		return false
	}
	if (a.StringValue == nil) != (b.StringValue == nil) {
		return false
	}
	if a.StringValue != nil && *a.StringValue != *b.StringValue {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !nodesEqual(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

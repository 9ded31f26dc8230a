package normalizer

import (
	"github.com/photostructure/convgen/pkg/types"
)

// StringRepeatPass rewrites binary `x` operations into a dedicated
// StringRepeat node. The operator resolution pass builds `x` as an ordinary
// BinaryOperation because precedence handling does not care about its
// semantics; giving repetition its own class afterwards lets the generator
// dispatch on structure instead of re-inspecting operator symbols.
type StringRepeatPass struct{}

// Name implements Pass.
func (*StringRepeatPass) Name() string { return "string-repeat" }

// Transform implements Pass.
func (*StringRepeatPass) Transform(node *types.Node) *types.Node {
	if node.Class != types.ClassBinaryOp || node.Content != "x" || len(node.Children) != 2 {
		return node
	}
	return &types.Node{
		Class:    types.ClassStringRepeat,
		Content:  "x",
		Children: node.Children,
	}
}

// Package normalizer rewrites raw parse trees into canonical trees whose
// structure directly encodes evaluation order.
//
// The rewriter applies an ordered list of passes using post-order traversal,
// so children are canonical before their parent is examined. Each pass
// recognizes one raw pattern and replaces the matched span with a single
// canonical node; a pass that finds no match returns its input untouched.
// Passes re-run until a full sweep changes nothing.
//
// Normalization is deliberately partial: an unrecognized shape is left raw
// and surfaces later as an explicit generation error, never as a guess.
package normalizer

import (
	"github.com/photostructure/convgen/pkg/types"
)

// Pass transforms a single node whose children are already normalized.
// Implementations must return the input node unchanged (same pointer) when
// no pattern matches; the rewriter uses that to detect a fixed point.
type Pass interface {
	// Name identifies the pass in debug output.
	Name() string
	// Transform rewrites the node or declines by returning it unchanged.
	Transform(node *types.Node) *types.Node
}

// Rewriter applies passes in declared order. Order is the only sequencing
// mechanism; there are no precedence levels between passes.
type Rewriter struct {
	passes []Pass
}

// maxSweeps bounds the fixed-point loop. Real expressions stabilize in one
// or two sweeps; the bound only guards against a misbehaving pass.
const maxSweeps = 8

// New creates a rewriter with no passes.
func New() *Rewriter {
	return &Rewriter{}
}

// WithStandardPasses creates the full pipeline:
//
//  1. expression resolution (unary preprocessing, precedence climbing,
//     ternary grouping, call-form recognition)
//  2. string repetition (binary x into StringRepeat)
//  3. guarded division (matching ternaries into safe-division primitives)
//
// Operator resolution must run first; the later passes match on its output
// and are order-insensitive relative to each other.
func WithStandardPasses() *Rewriter {
	r := New()
	r.Add(&ExpressionPass{})
	r.Add(&StringRepeatPass{})
	r.Add(&SafeDivisionPass{})
	return r
}

// Add appends a pass to the pipeline.
func (r *Rewriter) Add(p Pass) {
	r.passes = append(r.passes, p)
}

// Normalize rewrites the tree bottom-up and returns the canonical result.
// The input is not modified.
func (r *Rewriter) Normalize(root *types.Node) *types.Node {
	node := root.Clone()
	for i := 0; i < maxSweeps; i++ {
		next, changed := r.sweep(node)
		node = next
		if !changed {
			break
		}
	}
	return node
}

// sweep runs one post-order traversal, applying every pass to every node.
func (r *Rewriter) sweep(node *types.Node) (*types.Node, bool) {
	changed := false
	for i, child := range node.Children {
		next, c := r.sweep(child)
		node.Children[i] = next
		changed = changed || c
	}
	for _, p := range r.passes {
		next := p.Transform(node)
		if next != node {
			node = next
			changed = true
		}
	}
	return node, changed
}

// Normalize is the package-level entry point using the standard pipeline.
func Normalize(root *types.Node) *types.Node {
	return WithStandardPasses().Normalize(root)
}

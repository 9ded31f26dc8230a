// Package codegen lowers canonical expression trees to Go source.
//
// Each expression becomes one function with a fixed signature over the
// tagged dynamic value type. The generator walks the tree bottom-up,
// emitting one fragment per node; the closed canonical vocabulary is
// matched exhaustively, so an unrecognized node kind is always an explicit
// error identifying either a missing normalizer pass or a genuinely
// unsupported idiom.
package codegen

import (
	"log/slog"
	"strings"

	"github.com/photostructure/convgen/pkg/types"
)

// Generator lowers canonical trees to function artifacts.
type Generator struct {
	log *slog.Logger
}

// New creates a generator logging through the default handler.
func New() *Generator {
	return &Generator{log: slog.Default()}
}

// NewWithLogger creates a generator with an explicit logger.
func NewWithLogger(log *slog.Logger) *Generator {
	return &Generator{log: log}
}

// Generate lowers one canonical tree to a complete function artifact. expr
// is the original expression text; it seeds the content hash and appears in
// the generated doc comment so failures can be traced back to their source.
func (g *Generator) Generate(expr string, kind types.ExprKind, root *types.Node) (*types.Artifact, error) {
	for root.Class == types.ClassDocument && len(root.Children) == 1 {
		root = root.Children[0]
	}
	if !root.IsCanonical() {
		return nil, types.Errorf(types.ErrUnsupportedToken,
			"expression did not normalize, stuck at %s", root.Class).
			WithToken(root.Class).WithExpr(expr)
	}

	frag, err := visit(root)
	if err != nil {
		if ce, ok := err.(*types.Error); ok {
			return nil, ce.WithExpr(expr)
		}
		return nil, err
	}

	hash := HashExpr(kind, expr)
	name := FunctionName(kind, hash)
	source := assemble(name, kind, expr, frag)

	g.log.Debug("generated function",
		slog.String("name", name),
		slog.String("kind", string(kind)))

	return &types.Artifact{
		Name:   name,
		Hash:   hash,
		Kind:   kind,
		Expr:   expr,
		Source: source,
	}, nil
}

// assemble wraps the body fragment in a function of the kind's signature.
// Value conversions are fallible; display conversions and conditions are
// not.
func assemble(name string, kind types.ExprKind, expr string, frag fragment) string {
	var b strings.Builder
	b.WriteString("// " + name + " implements the conversion expression:\n")
	b.WriteString("//\n")
	for _, line := range strings.Split(expr, "\n") {
		b.WriteString("//\t" + line + "\n")
	}
	switch kind {
	case types.KindCondition:
		b.WriteString("func " + name + "(val tagvalue.TagValue, ctx *runtime.Context) bool {\n")
		b.WriteString("\treturn " + frag.cond() + "\n")
	case types.KindPrintConv:
		b.WriteString("func " + name + "(val tagvalue.TagValue, ctx *runtime.Context) tagvalue.TagValue {\n")
		b.WriteString("\treturn " + frag.value() + "\n")
	default:
		b.WriteString("func " + name + "(val tagvalue.TagValue, ctx *runtime.Context) (tagvalue.TagValue, error) {\n")
		b.WriteString("\treturn " + frag.value() + ", nil\n")
	}
	b.WriteString("}\n")
	return b.String()
}

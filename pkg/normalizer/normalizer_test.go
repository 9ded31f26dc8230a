package normalizer

import (
	"strings"
	"testing"

	"github.com/photostructure/convgen/pkg/types"
)

// Node constructors for building raw adapter trees in tests.

func stmt(children ...*types.Node) *types.Node {
	return &types.Node{Class: types.ClassStatement, Children: children}
}

func expr(children ...*types.Node) *types.Node {
	return &types.Node{Class: types.ClassExpression, Children: children}
}

func op(s string) *types.Node {
	return &types.Node{Class: types.ClassOperator, Content: s}
}

func sym(s string) *types.Node {
	return &types.Node{Class: types.ClassSymbol, Content: s, SymbolType: "scalar"}
}

func num(s string, v float64) *types.Node {
	return &types.Node{Class: types.ClassNumber, Content: s, NumericValue: &v}
}

func word(s string) *types.Node {
	return &types.Node{Class: types.ClassWord, Content: s}
}

func dquote(s string) *types.Node {
	return &types.Node{Class: types.ClassDouble, Content: `"` + s + `"`, StringValue: &s}
}

func list(children ...*types.Node) *types.Node {
	return &types.Node{Class: types.ClassList, Children: children, StructureBounds: "( ... )"}
}

func subscript(children ...*types.Node) *types.Node {
	return &types.Node{Class: types.ClassSubscript, Children: children, StructureBounds: "[ ... ]"}
}

func ws() *types.Node {
	return &types.Node{Class: types.ClassWhitespace, Content: " "}
}

// render flattens a tree into an s-expression for shape assertions.
func render(n *types.Node) string {
	switch n.Class {
	case types.ClassBinaryOp, types.ClassUnaryOp, types.ClassStringRepeat:
		parts := make([]string, 0, len(n.Children)+1)
		parts = append(parts, n.Content)
		for _, c := range n.Children {
			parts = append(parts, render(c))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case types.ClassTernaryOp:
		return "(if " + render(n.Children[0]) + " " + render(n.Children[1]) + " " + render(n.Children[2]) + ")"
	case types.ClassFunctionCall:
		parts := []string{"call", n.Content}
		for _, c := range n.Children {
			parts = append(parts, render(c))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case types.ClassLiteral:
		if n.StringValue != nil {
			return "\"" + *n.StringValue + "\""
		}
		return n.Content
	case types.ClassVariableRef:
		return n.Content
	default:
		parts := []string{"raw:" + n.Class}
		if n.Content != "" {
			parts[0] += ":" + n.Content
		}
		for _, c := range n.Children {
			parts = append(parts, render(c))
		}
		if len(parts) == 1 {
			return parts[0]
		}
		return "(" + strings.Join(parts, " ") + ")"
	}
}

func TestNormalizeShapes(t *testing.T) {
	tests := []struct {
		name string
		in   *types.Node
		want string
	}{
		{
			// $val * 2
			name: "simple product",
			in:   stmt(sym("$val"), ws(), op("*"), ws(), num("2", 2)),
			want: "(* $val 2)",
		},
		{
			// $val + 3 * 2: multiplication binds tighter
			name: "precedence",
			in:   stmt(sym("$val"), op("+"), num("3", 3), op("*"), num("2", 2)),
			want: "(+ $val (* 3 2))",
		},
		{
			// 10 - 4 - 3: left associative
			name: "left associativity",
			in:   stmt(num("10", 10), op("-"), num("4", 4), op("-"), num("3", 3)),
			want: "(- (- 10 4) 3)",
		},
		{
			// 2 ** 3 ** 2: exponentiation nests right
			name: "right associativity",
			in:   stmt(num("2", 2), op("**"), num("3", 3), op("**"), num("2", 2)),
			want: "(** 2 (** 3 2))",
		},
		{
			// -$val / 256: leading minus is unary, never a malformed binary
			name: "leading unary minus",
			in:   stmt(op("-"), sym("$val"), op("/"), num("256", 256)),
			want: "(/ (- $val) 256)",
		},
		{
			// $val * -1: minus after an operator is unary
			name: "unary after operator",
			in:   stmt(sym("$val"), op("*"), op("-"), num("1", 1)),
			want: "(* $val (- 1))",
		},
		{
			// $val . " mm": string concatenation stays a binary operation
			name: "concatenation",
			in:   stmt(sym("$val"), op("."), dquote(" mm")),
			want: "(. $val \" mm\")",
		},
		{
			// "0" x 8: repetition gets its own node class
			name: "string repetition",
			in:   stmt(dquote("0"), op("x"), num("8", 8)),
			want: "(x \"0\" 8)",
		},
		{
			// sprintf("%.1f mm", $val)
			name: "parenthesized call",
			in: stmt(word("sprintf"), list(expr(
				dquote("%.1f mm"), op(","), ws(), sym("$val"),
			))),
			want: "(call sprintf \"%.1f mm\" $val)",
		},
		{
			// length $val: call form without parentheses
			name: "bare call",
			in:   stmt(word("length"), ws(), sym("$val")),
			want: "(call length $val)",
		},
		{
			// $val[0]: array access becomes an explicit subscript call
			name: "subscript access",
			in:   stmt(sym("$val"), subscript(expr(num("0", 0)))),
			want: "(call subscript $val 0)",
		},
		{
			// join " ", unpack "H2H2", $val
			name: "join unpack combo",
			in: stmt(
				word("join"), ws(), dquote(" "), op(","), ws(),
				word("unpack"), ws(), dquote("H2H2"), op(","), ws(), sym("$val"),
			),
			want: "(call join \" \" (call unpack \"H2H2\" $val))",
		},
		{
			// $val ? 1 / $val : 0 collapses into the reciprocal primitive
			name: "guarded reciprocal",
			in: stmt(
				sym("$val"), op("?"),
				num("1", 1), op("/"), sym("$val"),
				op(":"), num("0", 0),
			),
			want: "(call safe_reciprocal $val)",
		},
		{
			// $val ? 100 / $val : 0 uses the general safe-division form
			name: "guarded division",
			in: stmt(
				sym("$val"), op("?"),
				num("100", 100), op("/"), sym("$val"),
				op(":"), num("0", 0),
			),
			want: "(call safe_division 100 $val)",
		},
		{
			// $a ? 1 / $b : 0: guard differs from divisor, stays a ternary
			name: "guard differs from divisor",
			in: stmt(
				sym("$a"), op("?"),
				num("1", 1), op("/"), sym("$b"),
				op(":"), num("0", 0),
			),
			want: "(if $a (/ 1 $b) 0)",
		},
		{
			// $val > 655.345 ? "inf" : $val: plain conditional
			name: "general ternary",
			in: stmt(
				sym("$val"), op(">"), num("655.345", 655.345), op("?"),
				dquote("inf"), op(":"), sym("$val"),
			),
			want: "(if (> $val 655.345) \"inf\" $val)",
		},
		{
			// 2 ** (-$val): unary inside a parenthesized group
			name: "unary in parens",
			in: stmt(num("2", 2), op("**"), list(expr(
				op("-"), sym("$val"),
			))),
			want: "(** 2 (- $val))",
		},
		{
			// $val statement wrapping a single operand unwraps to a leaf
			name: "single operand",
			in:   stmt(sym("$val")),
			want: "$val",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := render(Normalize(tt.in))
			if got != tt.want {
				t.Errorf("normalize mismatch\n got: %s\nwant: %s", got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	in := stmt(op("-"), sym("$val"), op("/"), num("256", 256))
	once := Normalize(in)
	twice := Normalize(once)
	if render(once) != render(twice) {
		t.Errorf("second pass changed the tree\nonce:  %s\ntwice: %s", render(once), render(twice))
	}
}

func TestNormalizeLeavesUnknownShapesRaw(t *testing.T) {
	// A binding operator against a token class the pipeline does not model
	// must be left untouched so generation can reject it explicitly.
	regex := &types.Node{Class: "PPI::Token::Regexp::Match", Content: "/Canon/"}
	in := stmt(sym("$val"), op("=~"), regex)
	out := Normalize(in)
	if out.Class != types.ClassStatement {
		t.Fatalf("unknown shape was rewritten to %s", out.Class)
	}
}

func TestNormalizeDoesNotModifyInput(t *testing.T) {
	in := stmt(sym("$val"), op("*"), num("2", 2))
	before := render(in)
	Normalize(in)
	if render(in) != before {
		t.Errorf("input tree was mutated")
	}
}

func TestNormalizeDocumentRoot(t *testing.T) {
	doc := &types.Node{
		Class:    types.ClassDocument,
		Children: []*types.Node{stmt(sym("$val"), op("+"), num("1", 1))},
	}
	out := Normalize(doc)
	if out.Class != types.ClassDocument || len(out.Children) != 1 {
		t.Fatalf("document wrapper not preserved: %s", render(out))
	}
	if got := render(out.Children[0]); got != "(+ $val 1)" {
		t.Errorf("statement under document not normalized: %s", got)
	}
}

func TestSelfReferenceAccess(t *testing.T) {
	// $$self{Model} eq "X": context reads climb like any operand
	in := stmt(
		&types.Node{Class: types.ClassSymbol, Content: "$$self{Model}", SymbolType: "scalar"},
		op("eq"), dquote("X"),
	)
	got := render(Normalize(in))
	want := "(eq $$self{Model} \"X\")"
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

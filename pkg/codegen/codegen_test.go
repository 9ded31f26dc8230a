package codegen

import (
	"strings"
	"testing"

	"github.com/photostructure/convgen/pkg/types"
)

// Canonical-node constructors for building generator input directly.

func bin(op string, a, b *types.Node) *types.Node {
	return &types.Node{Class: types.ClassBinaryOp, Content: op, Children: []*types.Node{a, b}}
}

func un(op string, x *types.Node) *types.Node {
	return &types.Node{Class: types.ClassUnaryOp, Content: op, Children: []*types.Node{x}}
}

func tern(cond, t, f *types.Node) *types.Node {
	return &types.Node{Class: types.ClassTernaryOp, Content: "?:", Children: []*types.Node{cond, t, f}}
}

func call(name string, args ...*types.Node) *types.Node {
	return &types.Node{Class: types.ClassFunctionCall, Content: name, Children: args}
}

func intLit(s string) *types.Node {
	return &types.Node{Class: types.ClassLiteral, Content: s}
}

func strLit(s string) *types.Node {
	return &types.Node{Class: types.ClassLiteral, Content: `"` + s + `"`, StringValue: &s}
}

func vref(name string) *types.Node {
	return &types.Node{Class: types.ClassVariableRef, Content: name, SymbolType: "scalar"}
}

func mustGenerate(t *testing.T, expr string, kind types.ExprKind, root *types.Node) *types.Artifact {
	t.Helper()
	art, err := New().Generate(expr, kind, root)
	if err != nil {
		t.Fatalf("Generate(%q): %v", expr, err)
	}
	return art
}

func TestGenerateArithmetic(t *testing.T) {
	art := mustGenerate(t, "$val * 2", types.KindValueConv,
		bin("*", vref("$val"), intLit("2")))
	if !strings.Contains(art.Source, "val.Mul(tagvalue.Int(2))") {
		t.Errorf("missing product lowering:\n%s", art.Source)
	}
	if !strings.Contains(art.Source, "(tagvalue.TagValue, error)") {
		t.Errorf("value conversion must be fallible:\n%s", art.Source)
	}
	if !strings.HasPrefix(art.Name, "ConvertValue_") {
		t.Errorf("unexpected name %q", art.Name)
	}
}

func TestGenerateUnaryMinus(t *testing.T) {
	// negation lowers through subtraction from a fixed zero
	art := mustGenerate(t, "-$val/256", types.KindValueConv,
		bin("/", un("-", vref("$val")), intLit("256")))
	if !strings.Contains(art.Source, "tagvalue.Int(0).Sub(val).Div(tagvalue.Int(256))") {
		t.Errorf("unary lowering wrong:\n%s", art.Source)
	}
}

func TestGenerateTernaryIsLazy(t *testing.T) {
	art := mustGenerate(t, `$val > 655 ? "inf" : $val`, types.KindPrintConv,
		tern(bin(">", vref("$val"), intLit("655")), strLit("inf"), vref("$val")))
	if !strings.Contains(art.Source, "func() tagvalue.TagValue { if val.NumGt(tagvalue.Int(655))") {
		t.Errorf("ternary must defer its branches:\n%s", art.Source)
	}
}

func TestGenerateSafeReciprocal(t *testing.T) {
	art := mustGenerate(t, "$val ? 1/$val : 0", types.KindValueConv,
		call("safe_reciprocal", vref("$val")))
	if !strings.Contains(art.Source, "runtime.SafeReciprocal(val)") {
		t.Errorf("safe reciprocal lowering wrong:\n%s", art.Source)
	}
}

func TestGenerateCondition(t *testing.T) {
	art := mustGenerate(t, `$$self{Model} eq "K-1"`, types.KindCondition,
		bin("eq", vref("$$self{Model}"), strLit("K-1")))
	if !strings.Contains(art.Source, ") bool {") {
		t.Errorf("condition must return bool:\n%s", art.Source)
	}
	if !strings.Contains(art.Source, `ctx.Get("Model").StrEq(tagvalue.Str("K-1"))`) {
		t.Errorf("context read lowering wrong:\n%s", art.Source)
	}
	if !strings.HasPrefix(art.Name, "CheckCondition_") {
		t.Errorf("unexpected name %q", art.Name)
	}
}

func TestGenerateSprintfInterpolation(t *testing.T) {
	fmtStr := "%.1f mm"
	art := mustGenerate(t, `sprintf("%.1f mm", $val)`, types.KindPrintConv,
		call("sprintf",
			&types.Node{Class: types.ClassLiteral, Content: `"%.1f mm"`, StringValue: &fmtStr},
			vref("$val")))
	if !strings.Contains(art.Source, `runtime.Sprintf(tagvalue.Str("%.1f mm"), val)`) {
		t.Errorf("sprintf lowering wrong:\n%s", art.Source)
	}
}

func TestGenerateStringInterpolation(t *testing.T) {
	s := "$val mm"
	art := mustGenerate(t, `"$val mm"`, types.KindPrintConv,
		&types.Node{Class: types.ClassLiteral, Content: `"$val mm"`, StringValue: &s})
	if !strings.Contains(art.Source, `.Concat(val).Concat(tagvalue.Str(" mm"))`) {
		t.Errorf("interpolation lowering wrong:\n%s", art.Source)
	}
}

func TestGenerateJoinUnpack(t *testing.T) {
	sep := " "
	format := "H2H2"
	art := mustGenerate(t, `join " ", unpack "H2H2", $val`, types.KindPrintConv,
		call("join",
			&types.Node{Class: types.ClassLiteral, Content: `" "`, StringValue: &sep},
			call("unpack",
				&types.Node{Class: types.ClassLiteral, Content: `"H2H2"`, StringValue: &format},
				vref("$val"))))
	if !strings.Contains(art.Source, `runtime.Join(tagvalue.Str(" "), runtime.Unpack(tagvalue.Str("H2H2"), val))`) {
		t.Errorf("join/unpack lowering wrong:\n%s", art.Source)
	}
}

func TestGenerateSubstr(t *testing.T) {
	art := mustGenerate(t, "substr($val, 0, 3)", types.KindPrintConv,
		call("substr", vref("$val"), intLit("0"), intLit("3")))
	if !strings.Contains(art.Source, "runtime.Substr(val, tagvalue.Int(0), tagvalue.Int(3))") {
		t.Errorf("three-argument substr lowering wrong:\n%s", art.Source)
	}

	// the two-argument form runs to the end of the string, never through a
	// length sentinel a real negative length could collide with
	art = mustGenerate(t, "substr($val, 2)", types.KindPrintConv,
		call("substr", vref("$val"), intLit("2")))
	if !strings.Contains(art.Source, "runtime.SubstrFrom(val, tagvalue.Int(2))") {
		t.Errorf("two-argument substr lowering wrong:\n%s", art.Source)
	}
}

func TestGenerateUnhandledCallForm(t *testing.T) {
	_, err := New().Generate(`split " ", $val`, types.KindValueConv,
		call("split", strLit(" "), vref("$val")))
	if !types.IsCode(err, types.ErrUnsupportedStructure) {
		t.Fatalf("want unsupported-structure error, got %v", err)
	}
}

func TestGenerateRejectsRawTree(t *testing.T) {
	raw := &types.Node{Class: types.ClassStatement, Children: []*types.Node{
		{Class: types.ClassSymbol, Content: "$val"},
	}}
	_, err := New().Generate("$val =~ /x/", types.KindValueConv, raw)
	if !types.IsCode(err, types.ErrUnsupportedToken) {
		t.Fatalf("want unsupported-token error, got %v", err)
	}
}

func TestGenerateWrongArity(t *testing.T) {
	_, err := New().Generate("bad", types.KindValueConv,
		&types.Node{Class: types.ClassBinaryOp, Content: "+", Children: []*types.Node{vref("$val")}})
	if !types.IsCode(err, types.ErrWrongArity) {
		t.Fatalf("want wrong-arity error, got %v", err)
	}
}

func TestNamesAreStable(t *testing.T) {
	root := bin("*", vref("$val"), intLit("2"))
	a := mustGenerate(t, "$val * 2", types.KindValueConv, root)
	b := mustGenerate(t, "$val * 2", types.KindValueConv, root)
	if a.Name != b.Name || a.Hash != b.Hash {
		t.Errorf("same expression produced different identities: %q vs %q", a.Name, b.Name)
	}
	c := mustGenerate(t, "$val * 3", types.KindValueConv, bin("*", vref("$val"), intLit("3")))
	if c.Name == a.Name {
		t.Errorf("different expressions collided on %q", a.Name)
	}
}

func TestNamesSeparateKinds(t *testing.T) {
	// the same text as a display conversion and as a condition compiles to
	// two signatures, so the identities must not collide
	root := bin("*", vref("$val"), intLit("2"))
	p := mustGenerate(t, "$val * 2", types.KindPrintConv, root)
	c := mustGenerate(t, "$val * 2", types.KindCondition, root)
	if p.Hash == c.Hash {
		t.Errorf("kinds share hash %q", p.Hash)
	}
	if p.Name == c.Name {
		t.Errorf("kinds share name %q", p.Name)
	}
}

func TestRegistryDeduplicates(t *testing.T) {
	r := NewRegistry()
	art := mustGenerate(t, "$val * 2", types.KindValueConv, bin("*", vref("$val"), intLit("2")))

	first := r.Register(art, "FocalLength.ValueConv")
	dup := &types.Artifact{Name: art.Name, Hash: art.Hash, Kind: art.Kind, Expr: art.Expr, Source: art.Source}
	second := r.Register(dup, "LensInfo.ValueConv")

	if first != second {
		t.Error("duplicate hash did not collapse to one artifact")
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
	uses := r.Uses(art.Hash)
	if len(uses) != 2 || uses[0] != "FocalLength.ValueConv" || uses[1] != "LensInfo.ValueConv" {
		t.Errorf("uses = %v", uses)
	}
	if got, ok := r.Lookup(art.Name); !ok || got != first {
		t.Errorf("Lookup(%q) = %v, %v", art.Name, got, ok)
	}
}

package codegen

import (
	"strconv"
	"strings"

	"github.com/photostructure/convgen/pkg/types"
)

// fragment is one emitted source expression. Comparison and logic nodes
// produce native booleans; everything else produces a TagValue. The two
// worlds convert explicitly at the point of use, never implicitly.
type fragment struct {
	code   string
	isBool bool
}

// value renders the fragment as a TagValue expression. Booleans take the
// source language's canonical truth values: 1 and the empty string.
func (f fragment) value() string {
	if !f.isBool {
		return f.code
	}
	return "func() tagvalue.TagValue { if " + f.code + " { return tagvalue.Int(1) }; return tagvalue.Str(\"\") }()"
}

// cond renders the fragment as a native boolean expression.
func (f fragment) cond() string {
	if f.isBool {
		return f.code
	}
	return f.code + ".Truthy()"
}

// binaryMethods maps operators that lower directly onto TagValue methods.
var binaryMethods = map[string]string{
	"+":  "Add",
	"-":  "Sub",
	"*":  "Mul",
	"/":  "Div",
	"%":  "Mod",
	"**": "Pow",
	".":  "Concat",
	"x":  "Repeat",
	"&":  "BitAnd",
	"|":  "BitOr",
	"^":  "BitXor",
	"<<": "Shl",
	">>": "Shr",
}

// comparisonMethods maps comparison operators onto the TagValue predicates,
// numeric and string families separately.
var comparisonMethods = map[string]string{
	"==": "NumEq",
	"!=": "NumNe",
	"<":  "NumLt",
	"<=": "NumLe",
	">":  "NumGt",
	">=": "NumGe",
	"eq": "StrEq",
	"ne": "StrNe",
	"lt": "StrLt",
	"le": "StrLe",
	"gt": "StrGt",
	"ge": "StrGe",
}

// visit lowers one canonical node to a source fragment. Dispatch is an
// explicit switch over the closed canonical vocabulary; any other class is a
// hard error that names the offending token.
func visit(n *types.Node) (fragment, error) {
	switch n.Class {
	case types.ClassLiteral:
		return visitLiteral(n)
	case types.ClassVariableRef:
		return visitVariable(n)
	case types.ClassUnaryOp:
		return visitUnary(n)
	case types.ClassBinaryOp:
		return visitBinary(n)
	case types.ClassTernaryOp:
		return visitTernary(n)
	case types.ClassStringRepeat:
		return visitRepeat(n)
	case types.ClassFunctionCall:
		return visitCall(n)
	}
	return fragment{}, types.Errorf(types.ErrUnsupportedToken,
		"no lowering for node class %s", n.Class).WithToken(n.Class)
}

func visitLiteral(n *types.Node) (fragment, error) {
	if n.StringValue != nil {
		// double-quoted strings interpolate $val
		if strings.HasPrefix(n.Content, `"`) {
			return fragment{code: interpolate(*n.StringValue)}, nil
		}
		return fragment{code: "tagvalue.Str(" + strconv.Quote(*n.StringValue) + ")"}, nil
	}
	if n.Content == "undef" {
		return fragment{code: "tagvalue.Empty()"}, nil
	}
	if n.Content == "" {
		return fragment{}, types.NewError(types.ErrMissingContent, "literal without content")
	}
	return numericLiteral(n.Content)
}

func numericLiteral(text string) (fragment, error) {
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		if _, err := strconv.ParseInt(text, 0, 64); err != nil {
			return fragment{}, types.Errorf(types.ErrInvalidNumber, "bad hex literal %q", text)
		}
		return fragment{code: "tagvalue.Int(" + text + ")"}, nil
	}
	if strings.ContainsAny(text, ".eE") {
		if _, err := strconv.ParseFloat(text, 64); err != nil {
			return fragment{}, types.Errorf(types.ErrInvalidNumber, "bad float literal %q", text)
		}
		return fragment{code: "tagvalue.Float(" + text + ")"}, nil
	}
	if _, err := strconv.ParseInt(text, 10, 64); err != nil {
		return fragment{}, types.Errorf(types.ErrInvalidNumber, "bad integer literal %q", text)
	}
	return fragment{code: "tagvalue.Int(" + text + ")"}, nil
}

// interpolate lowers a double-quoted string containing $val references to a
// concatenation chain over the input value.
func interpolate(s string) string {
	parts := strings.Split(s, "$val")
	if len(parts) == 1 {
		return "tagvalue.Str(" + strconv.Quote(s) + ")"
	}
	var b strings.Builder
	b.WriteString("tagvalue.Str(" + strconv.Quote(parts[0]) + ")")
	for _, p := range parts[1:] {
		b.WriteString(".Concat(val)")
		if p != "" {
			b.WriteString(".Concat(tagvalue.Str(" + strconv.Quote(p) + "))")
		}
	}
	return b.String()
}

func visitVariable(n *types.Node) (fragment, error) {
	if n.Content == "$val" {
		return fragment{code: "val"}, nil
	}
	if field, ok := selfField(n.Content); ok {
		return fragment{code: "ctx.Get(" + strconv.Quote(field) + ")"}, nil
	}
	return fragment{}, types.Errorf(types.ErrUnsupportedToken,
		"unsupported variable %q", n.Content).WithToken(n.Content)
}

func selfField(content string) (string, bool) {
	if strings.HasPrefix(content, "$$self{") && strings.HasSuffix(content, "}") {
		return content[len("$$self{") : len(content)-1], true
	}
	return "", false
}

func visitUnary(n *types.Node) (fragment, error) {
	if len(n.Children) != 1 {
		return fragment{}, types.Errorf(types.ErrWrongArity,
			"unary operation with %d operands", len(n.Children))
	}
	if n.Content == "" {
		return fragment{}, types.NewError(types.ErrMissingContent, "unary operation without operator")
	}
	x, err := visit(n.Children[0])
	if err != nil {
		return fragment{}, err
	}
	switch n.Content {
	case "-":
		// the value type defines subtraction but not negation
		return fragment{code: "tagvalue.Int(0).Sub(" + x.value() + ")"}, nil
	case "+":
		return x, nil
	case "!":
		return fragment{code: "!(" + x.cond() + ")", isBool: true}, nil
	case "~":
		return fragment{code: x.value() + ".BitNot()"}, nil
	}
	return fragment{}, types.Errorf(types.ErrUnsupportedOperator,
		"unsupported unary operator %q", n.Content).WithToken(n.Content)
}

func visitBinary(n *types.Node) (fragment, error) {
	if len(n.Children) != 2 {
		return fragment{}, types.Errorf(types.ErrWrongArity,
			"binary operation with %d operands", len(n.Children))
	}
	if n.Content == "" {
		return fragment{}, types.NewError(types.ErrMissingContent, "binary operation without operator")
	}
	a, err := visit(n.Children[0])
	if err != nil {
		return fragment{}, err
	}
	b, err := visit(n.Children[1])
	if err != nil {
		return fragment{}, err
	}
	if m, ok := binaryMethods[n.Content]; ok {
		return fragment{code: a.value() + "." + m + "(" + b.value() + ")"}, nil
	}
	if m, ok := comparisonMethods[n.Content]; ok {
		return fragment{code: a.value() + "." + m + "(" + b.value() + ")", isBool: true}, nil
	}
	switch n.Content {
	case "&&", "and":
		return fragment{code: "(" + a.cond() + " && " + b.cond() + ")", isBool: true}, nil
	case "||", "or":
		return fragment{code: "(" + a.cond() + " || " + b.cond() + ")", isBool: true}, nil
	}
	return fragment{}, types.Errorf(types.ErrUnsupportedOperator,
		"unsupported binary operator %q", n.Content).WithToken(n.Content)
}

func visitTernary(n *types.Node) (fragment, error) {
	if len(n.Children) != 3 {
		return fragment{}, types.Errorf(types.ErrWrongArity,
			"ternary with %d operands", len(n.Children))
	}
	cond, err := visit(n.Children[0])
	if err != nil {
		return fragment{}, err
	}
	t, err := visit(n.Children[1])
	if err != nil {
		return fragment{}, err
	}
	f, err := visit(n.Children[2])
	if err != nil {
		return fragment{}, err
	}
	// a deferred literal keeps both branches lazy
	code := "func() tagvalue.TagValue { if " + cond.cond() + " { return " +
		t.value() + " }; return " + f.value() + " }()"
	return fragment{code: code}, nil
}

func visitRepeat(n *types.Node) (fragment, error) {
	if len(n.Children) != 2 {
		return fragment{}, types.Errorf(types.ErrWrongArity,
			"string repetition with %d operands", len(n.Children))
	}
	a, err := visit(n.Children[0])
	if err != nil {
		return fragment{}, err
	}
	b, err := visit(n.Children[1])
	if err != nil {
		return fragment{}, err
	}
	return fragment{code: a.value() + ".Repeat(" + b.value() + ")"}, nil
}

// unaryCalls lower to a one-argument runtime helper.
var unaryCalls = map[string]string{
	"safe_reciprocal": "runtime.SafeReciprocal",
	"length":          "runtime.Length",
	"int":             "runtime.Int",
	"abs":             "runtime.Abs",
	"sqrt":            "runtime.Sqrt",
	"exp":             "runtime.Exp",
	"log":             "runtime.Log",
	"sin":             "runtime.Sin",
	"cos":             "runtime.Cos",
	"uc":              "runtime.Uc",
	"lc":              "runtime.Lc",
	"ord":             "runtime.Ord",
	"chr":             "runtime.Chr",
	"hex":             "runtime.Hex",
	"oct":             "runtime.Oct",
}

// binaryCalls lower to a two-argument runtime helper.
var binaryCalls = map[string]string{
	"safe_division": "runtime.SafeDivision",
	"subscript":     "runtime.Subscript",
	"atan2":         "runtime.Atan2",
	"index":         "runtime.IndexOf",
}

func visitCall(n *types.Node) (fragment, error) {
	args := make([]fragment, len(n.Children))
	for i, c := range n.Children {
		// join owns its unpack child; visiting it here would reject it
		if n.Content == "join" && c.Class == types.ClassFunctionCall && c.Content == "unpack" {
			continue
		}
		a, err := visit(c)
		if err != nil {
			return fragment{}, err
		}
		args[i] = a
	}

	if helper, ok := unaryCalls[n.Content]; ok {
		if len(args) != 1 {
			return fragment{}, arityError(n, 1)
		}
		return fragment{code: helper + "(" + args[0].value() + ")"}, nil
	}
	if helper, ok := binaryCalls[n.Content]; ok {
		if len(args) != 2 {
			return fragment{}, arityError(n, 2)
		}
		return fragment{code: helper + "(" + args[0].value() + ", " + args[1].value() + ")"}, nil
	}

	switch n.Content {
	case "sprintf":
		if len(args) < 1 {
			return fragment{}, arityError(n, 1)
		}
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.value()
		}
		return fragment{code: "runtime.Sprintf(" + strings.Join(parts, ", ") + ")"}, nil
	case "join":
		if len(n.Children) != 2 {
			return fragment{}, arityError(n, 2)
		}
		inner := n.Children[1]
		if inner.Class != types.ClassFunctionCall || inner.Content != "unpack" || len(inner.Children) != 2 {
			return fragment{}, types.NewError(types.ErrUnsupportedStructure,
				"join is only supported over unpack")
		}
		format, err := visit(inner.Children[0])
		if err != nil {
			return fragment{}, err
		}
		data, err := visit(inner.Children[1])
		if err != nil {
			return fragment{}, err
		}
		code := "runtime.Join(" + args[0].value() + ", runtime.Unpack(" +
			format.value() + ", " + data.value() + "))"
		return fragment{code: code}, nil
	case "unpack":
		return fragment{}, types.NewError(types.ErrUnsupportedStructure,
			"unpack outside a join context yields a list, which has no value form")
	case "substr":
		switch len(args) {
		case 2:
			return fragment{code: "runtime.SubstrFrom(" + args[0].value() + ", " +
				args[1].value() + ")"}, nil
		case 3:
			return fragment{code: "runtime.Substr(" + args[0].value() + ", " +
				args[1].value() + ", " + args[2].value() + ")"}, nil
		}
		return fragment{}, arityError(n, 3)
	case "defined":
		if len(args) != 1 {
			return fragment{}, arityError(n, 1)
		}
		return fragment{code: "runtime.Defined(" + args[0].value() + ")", isBool: true}, nil
	}

	return fragment{}, types.Errorf(types.ErrUnsupportedStructure,
		"unhandled call form %q", n.Content).WithToken(n.Content)
}

func arityError(n *types.Node, want int) error {
	return types.Errorf(types.ErrWrongArity,
		"%s expects %d arguments, got %d", n.Content, want, len(n.Children))
}

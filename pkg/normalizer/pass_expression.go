package normalizer

import (
	"github.com/photostructure/convgen/pkg/types"
)

// ExpressionPass resolves flat operator/operand sequences into explicit
// trees. It consolidates operator precedence, ternary grouping and
// call-form recognition because those patterns compete for the same token
// spans and must be ranked, not ordered across passes.
//
// Unary operators are collapsed in a separate linear scan that runs
// strictly before precedence climbing. Handling them inside the recursive
// climb would force the recursion to report consumed-token counts for
// operand-less leading operators; keeping the scan linear removes that
// failure mode and is the template for any future operator category.
type ExpressionPass struct{}

// Name implements Pass.
func (*ExpressionPass) Name() string { return "expression" }

// Transform implements Pass.
func (p *ExpressionPass) Transform(node *types.Node) *types.Node {
	if node.Class != types.ClassStatement && node.Class != types.ClassExpression {
		return node
	}
	kids := meaningful(node.Children)
	if len(kids) == 1 {
		// statement wrapping a single operand: unwrap to the canonical leaf
		if kids[0].IsCanonical() {
			return kids[0]
		}
		if leaf, ok := canonicalLeaf(kids[0]); ok {
			return leaf
		}
		return node
	}
	if len(kids) < 2 {
		return node
	}
	if !hasExpressionTokens(kids) {
		return node
	}

	if result := p.tryJoinUnpack(kids); result != nil {
		return result
	}
	if result := p.tryTernary(kids); result != nil {
		return result
	}
	if result := p.tryBareCall(kids); result != nil {
		return result
	}
	// Remaining comma-separated spans are argument lists owned by the
	// surrounding call; resolving them here would swallow the separators.
	if hasComma(kids) {
		return node
	}
	if result := p.climbAll(preprocessUnary(kids)); result != nil {
		return result
	}
	return node
}

// meaningful drops whitespace and comment tokens.
func meaningful(nodes []*types.Node) []*types.Node {
	out := make([]*types.Node, 0, len(nodes))
	for _, n := range nodes {
		if !n.IsSkippable() {
			out = append(out, n)
		}
	}
	return out
}

func hasComma(nodes []*types.Node) bool {
	for _, n := range nodes {
		if n.Op() == "," {
			return true
		}
	}
	return false
}

// hasExpressionTokens reports whether the span contains anything the pass
// could resolve: a table operator, a recognized function word, a call or
// subscript structure, or a dereferencing cast.
func hasExpressionTokens(nodes []*types.Node) bool {
	for _, n := range nodes {
		if op := n.Op(); op != "" {
			if _, ok := opPrecedence(op); ok {
				return true
			}
		}
		switch n.Class {
		case types.ClassList, types.ClassSubscript, types.ClassCast:
			return true
		case types.ClassWord:
			if knownFunctions[n.Content] {
				return true
			}
		}
	}
	return false
}

// ── unary preprocessing ────────────────────────────────────────────────────

func isUnaryPrefix(n *types.Node) bool {
	switch n.Op() {
	case "-", "+", "!", "~":
		return true
	}
	return false
}

// preprocessUnary collapses prefix operators into UnaryOperation nodes.
// An operator is unary only when nothing, or another operator, precedes it;
// preceded by an operand it is ordinary binary subtraction (or addition).
func preprocessUnary(toks []*types.Node) []*types.Node {
	out := make([]*types.Node, 0, len(toks))
	for i := 0; i < len(toks); {
		t := toks[i]
		if !isUnaryPrefix(t) || i+1 >= len(toks) || !unaryPosition(out) {
			out = append(out, t)
			i++
			continue
		}
		operand, consumed, ok := unaryOperand(toks[i+1:])
		if !ok {
			out = append(out, t)
			i++
			continue
		}
		out = append(out, &types.Node{
			Class:    types.ClassUnaryOp,
			Content:  t.Content,
			Children: []*types.Node{operand},
		})
		i += 1 + consumed
	}
	return out
}

// unaryPosition reports whether a prefix operator at the current point has
// no left operand: start of the span, or directly after another raw
// operator.
func unaryPosition(emitted []*types.Node) bool {
	if len(emitted) == 0 {
		return true
	}
	return emitted[len(emitted)-1].IsOperator()
}

// unaryOperand resolves the operand following a prefix operator: a single
// leaf (with an optional subscript), an already-canonical node, or a
// parenthesized group.
func unaryOperand(rest []*types.Node) (*types.Node, int, bool) {
	first := rest[0]
	if first.Class == types.ClassSymbol && len(rest) > 1 && rest[1].Class == types.ClassSubscript {
		sub, ok := subscriptAccess(first, rest[1])
		if !ok {
			return nil, 0, false
		}
		return sub, 2, true
	}
	if first.Class == types.ClassList {
		inner, ok := unwrapList(first)
		if !ok {
			return nil, 0, false
		}
		return inner, 1, true
	}
	if leaf, ok := canonicalLeaf(first); ok {
		return leaf, 1, true
	}
	return nil, 0, false
}

// ── precedence climbing ────────────────────────────────────────────────────

// climbAll parses the entire token span as one expression; any leftover
// token means the shape is unrecognized and the pass declines.
func (p *ExpressionPass) climbAll(toks []*types.Node) *types.Node {
	if len(toks) == 0 {
		return nil
	}
	node, pos, ok := p.climb(toks, 0, 0)
	if !ok || pos != len(toks) {
		return nil
	}
	return node
}

// climb parses one expression starting at pos with the given minimum
// precedence, returning the node and the position after the last consumed
// token. Equal-precedence left-associative operators bind left to right;
// right-associative operators recurse at their own precedence to force
// right-nesting.
func (p *ExpressionPass) climb(toks []*types.Node, pos, min int) (*types.Node, int, bool) {
	left, pos, ok := p.primary(toks, pos)
	if !ok {
		return nil, pos, false
	}
	for pos < len(toks) {
		t := toks[pos]
		op := t.Op()
		// ternary punctuation and list separators are structural, not binary
		if op == "" || op == "?" || op == ":" || op == "," || op == "=>" {
			break
		}
		prec, known := opPrecedence(op)
		if !known || prec < min {
			break
		}
		nextMin := prec + 1
		if rightAssociative(op) {
			nextMin = prec
		}
		right, next, ok := p.climb(toks, pos+1, nextMin)
		if !ok {
			return nil, next, false
		}
		pos = next
		left = &types.Node{
			Class:    types.ClassBinaryOp,
			Content:  op,
			Children: []*types.Node{left, right},
		}
	}
	return left, pos, true
}

// primary parses one operand: a call, a subscripted symbol, a parenthesized
// group, or a single leaf.
func (p *ExpressionPass) primary(toks []*types.Node, pos int) (*types.Node, int, bool) {
	if pos >= len(toks) {
		return nil, pos, false
	}
	t := toks[pos]

	// word followed by parentheses is always a call, known word or not
	if t.Class == types.ClassWord && pos+1 < len(toks) && toks[pos+1].Class == types.ClassList {
		args, ok := extractCallArgs(toks[pos+1])
		if !ok {
			return nil, pos, false
		}
		return &types.Node{
			Class:    types.ClassFunctionCall,
			Content:  t.Content,
			Children: args,
		}, pos + 2, true
	}
	if t.Class == types.ClassSymbol && pos+1 < len(toks) && toks[pos+1].Class == types.ClassSubscript {
		sub, ok := subscriptAccess(t, toks[pos+1])
		if !ok {
			return nil, pos, false
		}
		return sub, pos + 2, true
	}
	// $$self{Field} arriving split as cast + symbol + subscript
	if t.Class == types.ClassCast && t.Content == "$" &&
		pos+2 < len(toks) &&
		toks[pos+1].Class == types.ClassSymbol && toks[pos+1].Content == "$self" &&
		toks[pos+2].Class == types.ClassSubscript {
		key, ok := subscriptKey(toks[pos+2])
		if !ok {
			return nil, pos, false
		}
		return &types.Node{
			Class:      types.ClassVariableRef,
			Content:    "$$self{" + key + "}",
			SymbolType: "scalar",
		}, pos + 3, true
	}
	if t.Class == types.ClassList {
		inner, ok := unwrapList(t)
		if !ok {
			return nil, pos, false
		}
		return inner, pos + 1, true
	}
	leaf, ok := canonicalLeaf(t)
	if !ok {
		return nil, pos, false
	}
	return leaf, pos + 1, true
}

// ── ternary ────────────────────────────────────────────────────────────────

// tryTernary recognizes cond ? a : b, matching the colon at the same
// nesting depth as the question mark. All three spans are unary-preprocessed
// and climbed; failure in any span declines the whole pattern.
func (p *ExpressionPass) tryTernary(kids []*types.Node) *types.Node {
	q, c := -1, -1
	depth := 0
	for i, t := range kids {
		switch t.Op() {
		case "?":
			if q == -1 {
				q = i
			} else {
				depth++
			}
		case ":":
			if depth > 0 {
				depth--
			} else if q != -1 {
				c = i
			}
		}
		if c != -1 {
			break
		}
	}
	if q <= 0 || c <= q+1 || c >= len(kids)-1 {
		return nil
	}
	cond := p.climbAll(preprocessUnary(kids[:q]))
	trueBranch := p.resolveSpan(kids[q+1 : c])
	falseBranch := p.resolveSpan(kids[c+1:])
	if cond == nil || trueBranch == nil || falseBranch == nil {
		return nil
	}
	return &types.Node{
		Class:    types.ClassTernaryOp,
		Content:  "?:",
		Children: []*types.Node{cond, trueBranch, falseBranch},
	}
}

// resolveSpan resolves a branch span that may itself be a chained ternary,
// the common shape of multi-way display conversions.
func (p *ExpressionPass) resolveSpan(toks []*types.Node) *types.Node {
	if t := p.tryTernary(toks); t != nil {
		return t
	}
	return p.climbAll(preprocessUnary(toks))
}

// ── call forms ─────────────────────────────────────────────────────────────

// tryJoinUnpack recognizes the composite list form
//
//	join SEP, unpack FMT, DATA
//
// and rewrites it as join(SEP, unpack(FMT, DATA)).
func (p *ExpressionPass) tryJoinUnpack(kids []*types.Node) *types.Node {
	joinIdx, unpackIdx := -1, -1
	for i, n := range kids {
		if n.Class == types.ClassWord {
			switch n.Content {
			case "join":
				if joinIdx == -1 {
					joinIdx = i
				}
			case "unpack":
				unpackIdx = i
			}
		}
	}
	if joinIdx == -1 || unpackIdx <= joinIdx {
		return nil
	}
	sep := firstOperand(kids[joinIdx+1 : unpackIdx])
	fmtArg := firstOperand(kids[unpackIdx+1:])
	if sep == nil || fmtArg == nil {
		return nil
	}
	// data is the operand after the format and its comma
	rest := kids[unpackIdx+1:]
	dataStart := -1
	seen := 0
	for i, n := range rest {
		if n.Op() == "," {
			continue
		}
		seen++
		if seen == 2 {
			dataStart = i
			break
		}
	}
	if dataStart == -1 {
		return nil
	}
	data := p.climbAll(preprocessUnary(stripCommas(rest[dataStart:])))
	if data == nil {
		return nil
	}
	unpackCall := &types.Node{
		Class:    types.ClassFunctionCall,
		Content:  "unpack",
		Children: []*types.Node{fmtArg, data},
	}
	return &types.Node{
		Class:    types.ClassFunctionCall,
		Content:  "join",
		Children: []*types.Node{sep, unpackCall},
	}
}

// tryBareCall recognizes a known function word applied to arguments without
// parentheses, e.g. `length $val` or `sprintf "%x", $val`.
func (p *ExpressionPass) tryBareCall(kids []*types.Node) *types.Node {
	first := kids[0]
	if first.Class != types.ClassWord || !knownFunctions[first.Content] {
		return nil
	}
	// a parenthesized call is an ordinary primary; climbing handles it
	if kids[1].Class == types.ClassList {
		return nil
	}
	args, ok := splitArgs(kids[1:], p)
	if !ok || len(args) == 0 {
		return nil
	}
	return &types.Node{
		Class:    types.ClassFunctionCall,
		Content:  first.Content,
		Children: args,
	}
}

// firstOperand canonicalizes the first non-comma token of a span.
func firstOperand(span []*types.Node) *types.Node {
	for _, n := range span {
		if n.Op() == "," {
			continue
		}
		if leaf, ok := canonicalLeaf(n); ok {
			return leaf
		}
		return nil
	}
	return nil
}

func stripCommas(span []*types.Node) []*types.Node {
	out := make([]*types.Node, 0, len(span))
	for _, n := range span {
		if n.Op() != "," {
			out = append(out, n)
		}
	}
	return out
}

// extractCallArgs resolves the contents of a parenthesized list into
// canonical argument nodes, splitting on commas and climbing each segment.
func extractCallArgs(list *types.Node) ([]*types.Node, bool) {
	var args []*types.Node
	p := &ExpressionPass{}
	for _, child := range meaningful(list.Children) {
		if child.IsCanonical() {
			args = append(args, child)
			continue
		}
		if child.Class == types.ClassExpression || child.Class == types.ClassStatement {
			segArgs, ok := splitArgs(meaningful(child.Children), p)
			if !ok {
				return nil, false
			}
			args = append(args, segArgs...)
			continue
		}
		leaf, ok := canonicalLeaf(child)
		if !ok {
			return nil, false
		}
		args = append(args, leaf)
	}
	return args, true
}

// splitArgs divides a token span on top-level commas and climbs each
// segment into one canonical argument.
func splitArgs(toks []*types.Node, p *ExpressionPass) ([]*types.Node, bool) {
	var args []*types.Node
	start := 0
	flush := func(end int) bool {
		seg := toks[start:end]
		if len(seg) == 0 {
			return false
		}
		node := p.climbAll(preprocessUnary(seg))
		if node == nil {
			return false
		}
		args = append(args, node)
		return true
	}
	for i, t := range toks {
		if t.Op() == "," {
			if !flush(i) {
				return nil, false
			}
			start = i + 1
		}
	}
	if start < len(toks) {
		if !flush(len(toks)) {
			return nil, false
		}
	}
	return args, true
}

// ── leaves ─────────────────────────────────────────────────────────────────

// canonicalLeaf converts a single raw token into its canonical leaf form.
// Already-canonical nodes pass through. Tokens with no canonical leaf form
// (bare words, operators, unrecognized classes) decline.
func canonicalLeaf(n *types.Node) (*types.Node, bool) {
	if n.IsCanonical() {
		return n, true
	}
	switch n.Class {
	case types.ClassSymbol:
		return &types.Node{
			Class:      types.ClassVariableRef,
			Content:    n.Content,
			SymbolType: n.SymbolType,
		}, true
	case types.ClassNumber, types.ClassFloat, types.ClassHex:
		return &types.Node{
			Class:        types.ClassLiteral,
			Content:      n.Content,
			NumericValue: n.NumericValue,
		}, true
	case types.ClassSingle, types.ClassDouble:
		sv := n.StringValue
		if sv == nil {
			s := stripQuotes(n.Content)
			sv = &s
		}
		return &types.Node{
			Class:       types.ClassLiteral,
			Content:     n.Content,
			StringValue: sv,
		}, true
	case types.ClassWord:
		if n.Content == "undef" {
			return &types.Node{Class: types.ClassLiteral, Content: "undef"}, true
		}
	}
	return nil, false
}

func stripQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// unwrapList resolves a parenthesized group to its single canonical child.
func unwrapList(list *types.Node) (*types.Node, bool) {
	kids := meaningful(list.Children)
	if len(kids) != 1 {
		return nil, false
	}
	child := kids[0]
	if child.IsCanonical() {
		return child, true
	}
	if child.Class == types.ClassExpression || child.Class == types.ClassStatement {
		p := &ExpressionPass{}
		inner := meaningful(child.Children)
		if len(inner) == 1 {
			return canonicalLeaf(inner[0])
		}
		if node := p.climbAll(preprocessUnary(inner)); node != nil {
			return node, true
		}
		return nil, false
	}
	return canonicalLeaf(child)
}

// subscriptAccess canonicalizes `$val[N]` into the subscript call form.
func subscriptAccess(sym, sub *types.Node) (*types.Node, bool) {
	kids := meaningful(sub.Children)
	var index *types.Node
	if len(kids) == 1 {
		inner := kids[0]
		if inner.Class == types.ClassExpression || inner.Class == types.ClassStatement {
			ik := meaningful(inner.Children)
			if len(ik) != 1 {
				return nil, false
			}
			inner = ik[0]
		}
		leaf, ok := canonicalLeaf(inner)
		if !ok {
			return nil, false
		}
		index = leaf
	} else {
		return nil, false
	}
	base, ok := canonicalLeaf(sym)
	if !ok {
		return nil, false
	}
	return &types.Node{
		Class:    types.ClassFunctionCall,
		Content:  "subscript",
		Children: []*types.Node{base, index},
	}, true
}

// subscriptKey extracts the bare word key of a {Field} subscript.
func subscriptKey(sub *types.Node) (string, bool) {
	kids := meaningful(sub.Children)
	if len(kids) != 1 {
		return "", false
	}
	inner := kids[0]
	if inner.Class == types.ClassExpression || inner.Class == types.ClassStatement {
		ik := meaningful(inner.Children)
		if len(ik) != 1 {
			return "", false
		}
		inner = ik[0]
	}
	if inner.Class == types.ClassWord && inner.Content != "" {
		return inner.Content, true
	}
	if inner.Class == types.ClassSingle || inner.Class == types.ClassDouble {
		return stripQuotes(inner.Content), true
	}
	return "", false
}

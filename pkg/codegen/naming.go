package codegen

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/photostructure/convgen/pkg/types"
)

// HashExpr returns the stable content hash identifying an expression of a
// given kind. The kind participates in the hash because one expression text
// can serve as both a display conversion and a condition, and those compile
// to functions with different signatures. Eight hex digits of SHA-256 keep
// generated names short while making a collision across the expression
// corpus (tens of thousands of entries) implausible.
func HashExpr(kind types.ExprKind, expr string) string {
	sum := sha256.Sum256([]byte(string(kind) + "\x00" + expr))
	return hex.EncodeToString(sum[:4])
}

// FunctionName derives the exported function name for an expression of the
// given kind. The hash suffix keeps entry-point names unique across every
// generated module loaded into one process.
func FunctionName(kind types.ExprKind, hash string) string {
	switch kind {
	case types.KindPrintConv:
		return "FormatValue_" + hash
	case types.KindCondition:
		return "CheckCondition_" + hash
	default:
		return "ConvertValue_" + hash
	}
}

package tagvalue

import "math"

// Arithmetic follows the source language's coercion rules:
//   - two integers stay integral (division truncates toward zero)
//   - any float operand promotes the result to float
//   - strings and byte sequences coerce through their leading numeric prefix
//
// The guarded-division primitives in pkg/runtime exist precisely because
// integer division by zero faults; generated code reaches them through the
// normalizer's safe-division rewrite.

func bothInt(a, b TagValue) bool {
	return a.kind == KindInt && b.kind == KindInt
}

// Add returns a + b.
func (v TagValue) Add(o TagValue) TagValue {
	if bothInt(v, o) {
		return Int(v.i + o.i)
	}
	return Float(v.Numeric() + o.Numeric())
}

// Sub returns a - b.
func (v TagValue) Sub(o TagValue) TagValue {
	if bothInt(v, o) {
		return Int(v.i - o.i)
	}
	return Float(v.Numeric() - o.Numeric())
}

// Mul returns a * b.
func (v TagValue) Mul(o TagValue) TagValue {
	if bothInt(v, o) {
		return Int(v.i * o.i)
	}
	return Float(v.Numeric() * o.Numeric())
}

// Div returns a / b. Integer pairs divide integrally and fault on a zero
// divisor, matching the reference semantics the guarded-division rewrite
// protects against.
func (v TagValue) Div(o TagValue) TagValue {
	if bothInt(v, o) {
		return Int(v.i / o.i)
	}
	return Float(v.Numeric() / o.Numeric())
}

// Mod returns a % b.
func (v TagValue) Mod(o TagValue) TagValue {
	if bothInt(v, o) {
		return Int(v.i % o.i)
	}
	return Float(math.Mod(v.Numeric(), o.Numeric()))
}

// Pow returns a ** b, always as a float.
func (v TagValue) Pow(o TagValue) TagValue {
	return Float(math.Pow(v.Numeric(), o.Numeric()))
}

// Concat returns the string concatenation a . b.
func (v TagValue) Concat(o TagValue) TagValue {
	return Str(v.String() + o.String())
}

// Repeat returns the string a repeated n times (the x operator). A negative
// or zero count yields the empty string.
func (v TagValue) Repeat(o TagValue) TagValue {
	n := o.Int64()
	if n <= 0 {
		return Str("")
	}
	s := v.String()
	out := make([]byte, 0, len(s)*int(n))
	for i := int64(0); i < n; i++ {
		out = append(out, s...)
	}
	return Str(string(out))
}

// Bitwise and shift operators coerce both operands to integers.

// BitAnd returns a & b.
func (v TagValue) BitAnd(o TagValue) TagValue { return Int(v.Int64() & o.Int64()) }

// BitOr returns a | b.
func (v TagValue) BitOr(o TagValue) TagValue { return Int(v.Int64() | o.Int64()) }

// BitXor returns a ^ b.
func (v TagValue) BitXor(o TagValue) TagValue { return Int(v.Int64() ^ o.Int64()) }

// Shl returns a << b.
func (v TagValue) Shl(o TagValue) TagValue { return Int(v.Int64() << uint(o.Int64())) }

// Shr returns a >> b.
func (v TagValue) Shr(o TagValue) TagValue { return Int(v.Int64() >> uint(o.Int64())) }

// BitNot returns ~a.
func (v TagValue) BitNot() TagValue { return Int(^v.Int64()) }

// Numeric comparisons (==, !=, <, <=, >, >=).

// NumEq reports a == b numerically.
func (v TagValue) NumEq(o TagValue) bool { return v.Numeric() == o.Numeric() }

// NumNe reports a != b numerically.
func (v TagValue) NumNe(o TagValue) bool { return v.Numeric() != o.Numeric() }

// NumLt reports a < b numerically.
func (v TagValue) NumLt(o TagValue) bool { return v.Numeric() < o.Numeric() }

// NumLe reports a <= b numerically.
func (v TagValue) NumLe(o TagValue) bool { return v.Numeric() <= o.Numeric() }

// NumGt reports a > b numerically.
func (v TagValue) NumGt(o TagValue) bool { return v.Numeric() > o.Numeric() }

// NumGe reports a >= b numerically.
func (v TagValue) NumGe(o TagValue) bool { return v.Numeric() >= o.Numeric() }

// String comparisons (eq, ne, lt, le, gt, ge).

// StrEq reports a eq b.
func (v TagValue) StrEq(o TagValue) bool { return v.String() == o.String() }

// StrNe reports a ne b.
func (v TagValue) StrNe(o TagValue) bool { return v.String() != o.String() }

// StrLt reports a lt b.
func (v TagValue) StrLt(o TagValue) bool { return v.String() < o.String() }

// StrLe reports a le b.
func (v TagValue) StrLe(o TagValue) bool { return v.String() <= o.String() }

// StrGt reports a gt b.
func (v TagValue) StrGt(o TagValue) bool { return v.String() > o.String() }

// StrGe reports a ge b.
func (v TagValue) StrGe(o TagValue) bool { return v.String() >= o.String() }

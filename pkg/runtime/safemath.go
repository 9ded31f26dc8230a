package runtime

import (
	"math"

	"github.com/photostructure/convgen/pkg/tagvalue"
)

// Guarded division primitives. The normalizer rewrites the idiom
// `$x ? N/$x : 0` into these calls so generated code can never fault on an
// integer zero divisor. Both return floats on the division path, matching
// the reference semantics where a guarded reciprocal of 4 is 0.25, not 0.

// SafeReciprocal returns 1/v as a float, or integer zero when v is falsy.
func SafeReciprocal(v tagvalue.TagValue) tagvalue.TagValue {
	if !v.Truthy() {
		return tagvalue.Int(0)
	}
	return tagvalue.Float(1 / v.Numeric())
}

// SafeDivision returns num/denom as a float, or integer zero when denom is
// falsy.
func SafeDivision(num, denom tagvalue.TagValue) tagvalue.TagValue {
	if !denom.Truthy() {
		return tagvalue.Int(0)
	}
	return tagvalue.Float(num.Numeric() / denom.Numeric())
}

// Math builtins. Each coerces through the numeric view of its operand and
// returns a float, except Int and Abs which preserve integral inputs.

// Int truncates toward zero.
func Int(v tagvalue.TagValue) tagvalue.TagValue {
	return tagvalue.Int(v.Int64())
}

// Abs returns the absolute value, staying integral for integer input.
func Abs(v tagvalue.TagValue) tagvalue.TagValue {
	if v.Kind() == tagvalue.KindInt {
		n := v.Int64()
		if n < 0 {
			n = -n
		}
		return tagvalue.Int(n)
	}
	return tagvalue.Float(math.Abs(v.Numeric()))
}

// Sqrt returns the square root.
func Sqrt(v tagvalue.TagValue) tagvalue.TagValue {
	return tagvalue.Float(math.Sqrt(v.Numeric()))
}

// Exp returns e**v.
func Exp(v tagvalue.TagValue) tagvalue.TagValue {
	return tagvalue.Float(math.Exp(v.Numeric()))
}

// Log returns the natural logarithm.
func Log(v tagvalue.TagValue) tagvalue.TagValue {
	return tagvalue.Float(math.Log(v.Numeric()))
}

// Sin returns the sine of v radians.
func Sin(v tagvalue.TagValue) tagvalue.TagValue {
	return tagvalue.Float(math.Sin(v.Numeric()))
}

// Cos returns the cosine of v radians.
func Cos(v tagvalue.TagValue) tagvalue.TagValue {
	return tagvalue.Float(math.Cos(v.Numeric()))
}

// Atan2 returns the arc tangent of y/x.
func Atan2(y, x tagvalue.TagValue) tagvalue.TagValue {
	return tagvalue.Float(math.Atan2(y.Numeric(), x.Numeric()))
}

// Package tagvalue implements the dynamic value type that generated
// conversion functions operate on.
//
// A TagValue is a tagged union over the four shapes metadata values take on
// the wire: text, integers, floating point numbers, and raw byte sequences.
// Arithmetic and comparison are defined for every variant pairing using the
// source language's coercion rules (strings coerce numerically, integer
// pairs stay integral, any float operand makes the result a float). An
// operation the generator emits is by construction defined for every pairing
// it can receive; a missing pairing is a generator bug and surfaces as a
// validation failure, never as a silent coercion.
package tagvalue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the variant a TagValue holds.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindString
	KindInt
	KindFloat
	KindBytes
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBytes:
		return "bytes"
	default:
		return "empty"
	}
}

// TagValue is a dynamically typed metadata value. The zero value is Empty.
type TagValue struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    []byte
}

// Empty returns the empty value.
func Empty() TagValue { return TagValue{} }

// Str wraps a string.
func Str(s string) TagValue { return TagValue{kind: KindString, s: s} }

// Int wraps an integer.
func Int(i int64) TagValue { return TagValue{kind: KindInt, i: i} }

// Float wraps a float.
func Float(f float64) TagValue { return TagValue{kind: KindFloat, f: f} }

// Bytes wraps a byte sequence. The slice is not copied.
func Bytes(b []byte) TagValue { return TagValue{kind: KindBytes, b: b} }

// Kind returns the variant tag.
func (v TagValue) Kind() Kind { return v.kind }

// IsEmpty reports whether the value is the empty variant.
func (v TagValue) IsEmpty() bool { return v.kind == KindEmpty }

// String renders the value the way the source language stringifies it.
// Integers and floats render without an exponent where possible; bytes
// render as raw text.
func (v TagValue) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBytes:
		return string(v.b)
	default:
		return ""
	}
}

// RawBytes returns the byte sequence for the bytes variant; other variants
// return their textual rendering as bytes.
func (v TagValue) RawBytes() []byte {
	if v.kind == KindBytes {
		return v.b
	}
	return []byte(v.String())
}

// Int64 returns the value coerced to an integer (floats and numeric strings
// truncate toward zero).
func (v TagValue) Int64() int64 {
	if v.kind == KindInt {
		return v.i
	}
	return int64(v.Numeric())
}

// Numeric returns the value coerced to a float using the source language's
// rules: strings (and byte sequences) parse their leading numeric prefix and
// otherwise count as zero.
func (v TagValue) Numeric() float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindFloat:
		return v.f
	case KindString:
		return leadingNumber(v.s)
	case KindBytes:
		return leadingNumber(string(v.b))
	default:
		return 0
	}
}

// leadingNumber parses the longest numeric prefix of s, including sign,
// decimal point and exponent. Non-numeric text yields 0.
func leadingNumber(s string) float64 {
	s = strings.TrimLeft(s, " \t")
	end := 0
	seenDigit := false
	for end < len(s) {
		c := s[end]
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
		case c == '-' || c == '+':
			if end != 0 {
				goto done
			}
		case c == '.':
			if strings.ContainsRune(s[:end], '.') {
				goto done
			}
		case c == 'e' || c == 'E':
			if !seenDigit || end+1 >= len(s) {
				goto done
			}
			// allow a sign right after the exponent marker
			if s[end+1] == '+' || s[end+1] == '-' {
				end++
			}
		default:
			goto done
		}
		end++
	}
done:
	f, err := strconv.ParseFloat(strings.TrimRight(s[:end], "eE+-."), 64)
	if err != nil {
		return 0
	}
	return f
}

// Truthy implements the source language's truth test: zero numbers, the
// empty string, the literal "0" and the empty value are false.
func (v TagValue) Truthy() bool {
	switch v.kind {
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.s != "" && v.s != "0"
	case KindBytes:
		return len(v.b) != 0
	default:
		return false
	}
}

// Equal reports strict equality: same variant, same value. Fixture
// assertions use this, so a conversion that produces Float(1) does not pass
// against an expected Int(1).
func (v TagValue) Equal(o TagValue) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindBytes:
		return bytes.Equal(v.b, o.b)
	default:
		return true
	}
}

// GoString renders the value with its variant tag, used in diagnostics.
func (v TagValue) GoString() string {
	switch v.kind {
	case KindString:
		return fmt.Sprintf("String(%q)", v.s)
	case KindInt:
		return fmt.Sprintf("Int(%d)", v.i)
	case KindFloat:
		return fmt.Sprintf("Float(%v)", v.f)
	case KindBytes:
		return fmt.Sprintf("Bytes(% x)", v.b)
	default:
		return "Empty"
	}
}

// encoded is the JSON wire form used by the validator envelope.
type encoded struct {
	Kind  string  `json:"kind"`
	Str   string  `json:"str,omitempty"`
	Int   int64   `json:"int,omitempty"`
	Float float64 `json:"float,omitempty"`
	Bytes []byte  `json:"bytes,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (v TagValue) MarshalJSON() ([]byte, error) {
	e := encoded{Kind: v.kind.String()}
	switch v.kind {
	case KindString:
		e.Str = v.s
	case KindInt:
		e.Int = v.i
	case KindFloat:
		e.Float = v.f
	case KindBytes:
		e.Bytes = v.b
	}
	return json.Marshal(e)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *TagValue) UnmarshalJSON(data []byte) error {
	var e encoded
	if err := json.Unmarshal(data, &e); err != nil {
		return err
	}
	switch e.Kind {
	case "string":
		*v = Str(e.Str)
	case "int":
		*v = Int(e.Int)
	case "float":
		*v = Float(e.Float)
	case "bytes":
		*v = Bytes(e.Bytes)
	case "empty", "":
		*v = Empty()
	default:
		return fmt.Errorf("unknown tag value kind %q", e.Kind)
	}
	return nil
}

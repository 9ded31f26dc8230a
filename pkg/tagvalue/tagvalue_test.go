package tagvalue

import (
	"encoding/json"
	"testing"
)

func TestNumericCoercion(t *testing.T) {
	tests := []struct {
		name string
		v    TagValue
		want float64
	}{
		{"int", Int(-7), -7},
		{"float", Float(2.5), 2.5},
		{"plain numeric string", Str("12.5"), 12.5},
		{"leading numeric prefix", Str("35 mm"), 35},
		{"signed prefix", Str("-4 EV"), -4},
		{"exponent", Str("1e3"), 1000},
		{"non-numeric text", Str("Canon"), 0},
		{"empty", Empty(), 0},
		{"bytes prefix", Bytes([]byte("88 api")), 88},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Numeric(); got != tt.want {
				t.Errorf("Numeric() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestArithmeticPromotion(t *testing.T) {
	// integer pairs stay integral, division truncates
	if got := Int(7).Div(Int(2)); !got.Equal(Int(3)) {
		t.Errorf("7/2 = %#v, want Int(3)", got)
	}
	if got := Int(-256).Div(Int(256)); !got.Equal(Int(-1)) {
		t.Errorf("-256/256 = %#v", got)
	}
	// any float operand promotes
	if got := Int(7).Div(Float(2)); !got.Equal(Float(3.5)) {
		t.Errorf("7/2.0 = %#v, want Float(3.5)", got)
	}
	if got := Str("3").Add(Int(4)); !got.Equal(Float(7)) {
		t.Errorf("\"3\"+4 = %#v, want Float(7)", got)
	}
	// exponentiation is always floating point
	if got := Int(2).Pow(Int(10)); !got.Equal(Float(1024)) {
		t.Errorf("2**10 = %#v", got)
	}
}

func TestStringOps(t *testing.T) {
	if got := Str("24").Concat(Str(" mm")); got.String() != "24 mm" {
		t.Errorf("concat = %q", got.String())
	}
	if got := Int(5).Concat(Str("x")); got.String() != "5x" {
		t.Errorf("int concat = %q", got.String())
	}
	if got := Str("ab").Repeat(Int(3)); got.String() != "ababab" {
		t.Errorf("repeat = %q", got.String())
	}
	if got := Str("ab").Repeat(Int(-1)); got.String() != "" {
		t.Errorf("negative repeat = %q", got.String())
	}
}

func TestTruthy(t *testing.T) {
	truthy := []TagValue{Int(1), Int(-1), Float(0.5), Str("a"), Str("00"), Bytes([]byte{0})}
	for _, v := range truthy {
		if !v.Truthy() {
			t.Errorf("%#v should be truthy", v)
		}
	}
	falsy := []TagValue{Int(0), Float(0), Str(""), Str("0"), Bytes(nil), Empty()}
	for _, v := range falsy {
		if v.Truthy() {
			t.Errorf("%#v should be falsy", v)
		}
	}
}

func TestEqualIsStrict(t *testing.T) {
	if Int(1).Equal(Float(1)) {
		t.Error("Int(1) must not equal Float(1)")
	}
	if Str("1").Equal(Int(1)) {
		t.Error("Str must not equal Int")
	}
	if !Float(0.25).Equal(Float(0.25)) {
		t.Error("identical floats must be equal")
	}
	if !Bytes([]byte{1, 2}).Equal(Bytes([]byte{1, 2})) {
		t.Error("identical bytes must be equal")
	}
}

func TestComparisons(t *testing.T) {
	if !Str("10 mm").NumEq(Int(10)) {
		t.Error("numeric comparison must coerce string operands")
	}
	if !Str("abc").StrLt(Str("abd")) {
		t.Error("string comparison must be lexical")
	}
	if Str("10").StrEq(Str("10.0")) {
		t.Error("string equality must not coerce")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	// the validator envelope depends on the wire form preserving variants
	for _, v := range []TagValue{Int(-3), Float(0.25), Str("24 mm"), Bytes([]byte{0xab}), Empty()} {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal %#v: %v", v, err)
		}
		var back TagValue
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if !v.Equal(back) {
			t.Errorf("round trip changed %#v to %#v", v, back)
		}
	}
}

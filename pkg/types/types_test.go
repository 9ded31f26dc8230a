package types

import (
	"errors"
	"testing"
)

func TestParseDocument(t *testing.T) {
	doc := `{"class":"PPI::Document","children":[
		{"class":"PPI::Statement","children":[
			{"class":"PPI::Token::Symbol","content":"$val","symbol_type":"scalar"},
			{"class":"PPI::Token::Operator","content":"*"},
			{"class":"PPI::Token::Number","content":"2","numeric_value":2}]}]}`
	n, err := ParseDocument([]byte(doc))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if n.Class != ClassDocument || len(n.Children) != 1 {
		t.Fatalf("root = %s with %d children", n.Class, len(n.Children))
	}
	stmt := n.Children[0]
	if len(stmt.Children) != 3 {
		t.Fatalf("statement children = %d", len(stmt.Children))
	}
	if num := stmt.Children[2]; num.NumericValue == nil || *num.NumericValue != 2 {
		t.Errorf("numeric value not decoded: %+v", num)
	}

	if _, err := ParseDocument([]byte("{")); !IsCode(err, ErrDocumentDecode) {
		t.Errorf("bad JSON error = %v", err)
	}
}

func TestSelfField(t *testing.T) {
	n := &Node{Class: ClassSymbol, Content: "$$self{FocalLength}"}
	if !n.IsSelfRef() || n.SelfField() != "FocalLength" {
		t.Errorf("SelfField = %q", n.SelfField())
	}
	plain := &Node{Class: ClassSymbol, Content: "$val"}
	if plain.IsSelfRef() {
		t.Error("$val is not a self reference")
	}
}

func TestCloneIsDeep(t *testing.T) {
	v := 2.0
	n := &Node{Class: ClassStatement, Children: []*Node{
		{Class: ClassNumber, Content: "2", NumericValue: &v},
	}}
	c := n.Clone()
	c.Children[0].Content = "3"
	*c.Children[0].NumericValue = 3
	if n.Children[0].Content != "2" || *n.Children[0].NumericValue != 2 {
		t.Error("clone shares state with original")
	}
}

func TestKindFromField(t *testing.T) {
	tests := []struct {
		field string
		want  ExprKind
	}{
		{"ValueConv", KindValueConv},
		{"PrintConv", KindPrintConv},
		{"RawConv", KindValueConv},
		{"Condition", KindCondition},
		{"SubDirectory.Condition", KindCondition},
	}
	for _, tt := range tests {
		if got := KindFromField(tt.field); got != tt.want {
			t.Errorf("KindFromField(%q) = %s, want %s", tt.field, got, tt.want)
		}
	}
}

func TestArtifactBucket(t *testing.T) {
	a := &Artifact{Hash: "a1b2c3d4"}
	if got := a.Bucket(); got != "a1" {
		t.Errorf("Bucket() = %q, want %q", got, "a1")
	}
}

func TestErrorChaining(t *testing.T) {
	cause := errors.New("boom")
	err := Errorf(ErrCompileFailed, "build failed").WithExpr("$val * 2").WithCause(cause)
	if !IsCode(err, ErrCompileFailed) {
		t.Error("IsCode failed")
	}
	if !errors.Is(err, cause) {
		t.Error("cause not unwrapped")
	}
	if got := err.Error(); got != `C0101: build failed (in "$val * 2")` {
		t.Errorf("Error() = %q", got)
	}
}

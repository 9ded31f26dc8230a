package convgen

import (
	"strings"
	"testing"

	"github.com/photostructure/convgen/pkg/types"
)

var doublingDoc = []byte(`{"class":"PPI::Document","children":[
	{"class":"PPI::Statement","children":[
		{"class":"PPI::Token::Symbol","content":"$val","symbol_type":"scalar"},
		{"class":"PPI::Token::Operator","content":"*"},
		{"class":"PPI::Token::Number","content":"2","numeric_value":2}]}]}`)

func TestTranslate(t *testing.T) {
	art, err := Translate(doublingDoc, "$val * 2", types.KindValueConv)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !strings.Contains(art.Source, "val.Mul(tagvalue.Int(2))") {
		t.Errorf("unexpected source:\n%s", art.Source)
	}
	if !strings.HasPrefix(art.Name, "ConvertValue_") {
		t.Errorf("unexpected name %q", art.Name)
	}
	if art.Expr != "$val * 2" {
		t.Errorf("expression not carried: %q", art.Expr)
	}
}

func TestTranslateFieldDeduplicates(t *testing.T) {
	tr := NewTranslator()
	a, err := tr.TranslateField(doublingDoc, "$val * 2", "FocalLength.ValueConv")
	if err != nil {
		t.Fatal(err)
	}
	b, err := tr.TranslateField(doublingDoc, "$val * 2", "LensInfo.ValueConv")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("identical expressions must collapse to one artifact")
	}
	if tr.Registry().Len() != 1 {
		t.Errorf("registry has %d artifacts, want 1", tr.Registry().Len())
	}
	if uses := tr.Registry().Uses(a.Hash); len(uses) != 2 {
		t.Errorf("uses = %v", uses)
	}
}

func TestTranslateFieldKeepsKindsApart(t *testing.T) {
	// one expression text reused by a display field and a condition field
	// must yield two artifacts with the matching signatures
	tr := NewTranslator()
	p, err := tr.TranslateField(doublingDoc, "$val * 2", "Foo.PrintConv")
	if err != nil {
		t.Fatal(err)
	}
	c, err := tr.TranslateField(doublingDoc, "$val * 2", "Bar.Condition")
	if err != nil {
		t.Fatal(err)
	}
	if c.Kind != types.KindCondition {
		t.Errorf("condition field got kind %s", c.Kind)
	}
	if !strings.HasPrefix(c.Name, "CheckCondition_") {
		t.Errorf("condition field got function %q", c.Name)
	}
	if p.Hash == c.Hash {
		t.Errorf("kinds share hash %q", p.Hash)
	}
	if tr.Registry().Len() != 2 {
		t.Errorf("registry has %d artifacts, want 2", tr.Registry().Len())
	}
}

func TestTranslateCaching(t *testing.T) {
	tr := NewTranslator(WithCaching(16))
	a, err := tr.Translate(doublingDoc, "$val * 2", types.KindValueConv)
	if err != nil {
		t.Fatal(err)
	}
	b, err := tr.Translate(doublingDoc, "$val * 2", types.KindValueConv)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("cached translation must return the same artifact")
	}
}

func TestTranslateUnsupportedIdiom(t *testing.T) {
	doc := []byte(`{"class":"PPI::Document","children":[
		{"class":"PPI::Statement","children":[
			{"class":"PPI::Token::Symbol","content":"$val","symbol_type":"scalar"},
			{"class":"PPI::Token::Operator","content":"=~"},
			{"class":"PPI::Token::Regexp::Match","content":"/Canon/"}]}]}`)
	_, err := Translate(doc, "$val =~ /Canon/", types.KindCondition)
	if !types.IsCode(err, types.ErrUnsupportedToken) {
		t.Fatalf("want unsupported-token error, got %v", err)
	}
}

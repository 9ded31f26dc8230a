// Package validator proves generated functions semantically correct.
//
// Generated source is never inspected for expected substrings; each function
// is compiled into a loadable wasm module and executed against literal
// fixtures, comparing results with the dynamic value type's own equality.
package validator

import (
	"encoding/hex"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/photostructure/convgen/pkg/tagvalue"
	"github.com/photostructure/convgen/pkg/types"
)

// Value is the YAML form of a tagged dynamic value. Exactly the field named
// by Kind is read; bytes are hex-encoded for fixture readability.
type Value struct {
	Kind  string  `yaml:"kind"`
	Str   string  `yaml:"str,omitempty"`
	Int   int64   `yaml:"int,omitempty"`
	Float float64 `yaml:"float,omitempty"`
	Bytes string  `yaml:"bytes,omitempty"`
}

// TagValue converts the YAML form to a runtime value.
func (v Value) TagValue() (tagvalue.TagValue, error) {
	switch v.Kind {
	case "string":
		return tagvalue.Str(v.Str), nil
	case "int":
		return tagvalue.Int(v.Int), nil
	case "float":
		return tagvalue.Float(v.Float), nil
	case "bytes":
		b, err := hex.DecodeString(v.Bytes)
		if err != nil {
			return tagvalue.Empty(), types.Errorf(types.ErrFixtureField,
				"bad hex bytes %q", v.Bytes).WithCause(err)
		}
		return tagvalue.Bytes(b), nil
	case "empty", "":
		return tagvalue.Empty(), nil
	}
	return tagvalue.Empty(), types.Errorf(types.ErrFixtureField,
		"unknown value kind %q", v.Kind)
}

// Case is one literal input/expected-output pair. Fields supplies the
// evaluation context for expressions reading sibling values.
type Case struct {
	Description string           `yaml:"description,omitempty"`
	Input       Value            `yaml:"input"`
	Expected    Value            `yaml:"expected"`
	Fields      map[string]Value `yaml:"fields,omitempty"`
}

// Fixture binds one expression to its cases. Document carries the raw parse
// tree from the external adapter as inline JSON; Expression is the original
// source text, kept for provenance and the generated doc comment.
type Fixture struct {
	Description string         `yaml:"description,omitempty"`
	Expression  string         `yaml:"expression"`
	Type        types.ExprKind `yaml:"type,omitempty"`
	Reference   string         `yaml:"reference,omitempty"`
	Document    string         `yaml:"document"`
	Cases       []Case         `yaml:"cases"`
}

// ParseTree decodes the fixture's raw parse document.
func (f *Fixture) ParseTree() (*types.Node, error) {
	return types.ParseDocument([]byte(f.Document))
}

type fixtureFile struct {
	Fixtures []Fixture `yaml:"fixtures"`
}

// LoadFixtures reads one fixture file. Every fixture must name an
// expression and at least one case; structural problems are reported with
// the file path, not deferred to execution time.
func LoadFixtures(path string) ([]Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.Errorf(types.ErrFixtureDecode, "read %s", path).WithCause(err)
	}
	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, types.Errorf(types.ErrFixtureDecode, "decode %s", path).WithCause(err)
	}
	for i := range file.Fixtures {
		f := &file.Fixtures[i]
		if f.Expression == "" {
			return nil, types.Errorf(types.ErrFixtureField,
				"%s: fixture %d has no expression", path, i)
		}
		if f.Document == "" {
			return nil, types.Errorf(types.ErrFixtureField,
				"%s: fixture %q has no parse document", path, f.Expression)
		}
		if len(f.Cases) == 0 {
			return nil, types.Errorf(types.ErrFixtureField,
				"%s: fixture %q has no cases", path, f.Expression)
		}
		if f.Type == "" {
			f.Type = types.KindValueConv
		}
	}
	return file.Fixtures, nil
}

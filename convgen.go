// Package convgen compiles dynamically-typed metadata conversion
// expressions into statically-typed Go functions.
//
// Conversion expressions (value conversions, display conversions, boolean
// conditions) arrive as raw parse trees serialized by an external adapter.
// The pipeline runs strictly forward:
//
//	raw tree → canonical tree → generated Go source → validated artifact
//
// # Quick Start
//
//	// Translate one expression document
//	art, err := convgen.Translate(doc, "$val / 256", types.KindValueConv)
//
//	// Translate many, with caching and deduplication
//	tr := convgen.NewTranslator(convgen.WithCaching(1024))
//	art1, _ := tr.TranslateField(doc1, "$val / 256", "FocalLength.ValueConv")
//	art2, _ := tr.TranslateField(doc2, "$val / 256", "LensInfo.ValueConv")
//	// art1 == art2: identical expressions collapse to one function
//
// Generated functions are proven correct by the validator, which compiles
// them into sandboxed wasm modules and executes them against literal
// fixtures; see github.com/photostructure/convgen/pkg/validator.
//
// Normalization is deliberately partial: an expression idiom the pipeline
// does not model surfaces as an explicit generation error carrying the
// offending token, never as a miscompiled function.
package convgen

import (
	"log/slog"

	"github.com/photostructure/convgen/pkg/cache"
	"github.com/photostructure/convgen/pkg/codegen"
	"github.com/photostructure/convgen/pkg/normalizer"
	"github.com/photostructure/convgen/pkg/types"
)

// Version returns the current version of convgen.
func Version() string {
	return "v0.1.0-dev"
}

// Translator runs the translation pipeline. It is safe for concurrent use:
// normalization and generation are pure tree transformations, and the cache
// and registry lock internally.
type Translator struct {
	rewriter *normalizer.Rewriter
	gen      *codegen.Generator
	cache    *cache.Cache
	registry *codegen.Registry
}

// Option configures a Translator.
type Option func(*Translator)

// WithCaching enables the LRU translation cache with the given capacity.
// The same expression text recurs across many tag tables; caching skips the
// pipeline for repeats.
func WithCaching(capacity int) Option {
	return func(t *Translator) { t.cache = cache.New(capacity) }
}

// WithLogger routes generation logging to an explicit logger.
func WithLogger(log *slog.Logger) Option {
	return func(t *Translator) { t.gen = codegen.NewWithLogger(log) }
}

// NewTranslator creates a Translator with the standard normalization
// pipeline.
func NewTranslator(opts ...Option) *Translator {
	t := &Translator{
		rewriter: normalizer.WithStandardPasses(),
		gen:      codegen.New(),
		registry: codegen.NewRegistry(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate compiles one expression. document is the adapter's JSON parse
// tree; expr is the original expression text, which seeds the artifact's
// content hash and doc comment.
func (t *Translator) Translate(document []byte, expr string, kind types.ExprKind) (*types.Artifact, error) {
	translate := func() (*types.Artifact, error) {
		tree, err := types.ParseDocument(document)
		if err != nil {
			return nil, err
		}
		return t.gen.Generate(expr, kind, t.rewriter.Normalize(tree))
	}
	if t.cache != nil {
		return t.cache.GetOrTranslate(string(kind)+"\x00"+expr, translate)
	}
	return translate()
}

// TranslateField compiles an expression found in the named tag-table field,
// inferring its kind from the field name and recording the usage in the
// registry. Identical expressions return the already-registered artifact.
func (t *Translator) TranslateField(document []byte, expr, field string) (*types.Artifact, error) {
	art, err := t.Translate(document, expr, types.KindFromField(field))
	if err != nil {
		return nil, err
	}
	return t.registry.Register(art, field), nil
}

// Registry returns the artifact registry accumulated by TranslateField.
func (t *Translator) Registry() *codegen.Registry {
	return t.registry
}

// Translate is a convenience function compiling a single expression with a
// throwaway Translator.
//
// For batches, create a Translator so caching and deduplication apply.
func Translate(document []byte, expr string, kind types.ExprKind) (*types.Artifact, error) {
	return NewTranslator().Translate(document, expr, kind)
}

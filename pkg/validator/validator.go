package validator

import (
	"context"
	"log/slog"

	"github.com/photostructure/convgen/pkg/codegen"
	"github.com/photostructure/convgen/pkg/normalizer"
	"github.com/photostructure/convgen/pkg/tagvalue"
	"github.com/photostructure/convgen/pkg/types"
)

// Runner drives the full pipeline for a fixture batch: parse document,
// normalize, generate, compile, execute each case, compare by the value
// type's own equality.
type Runner struct {
	harness  *Harness
	rewriter *normalizer.Rewriter
	gen      *codegen.Generator
	log      *slog.Logger
}

// NewRunner creates a runner over the given harness.
func NewRunner(h *Harness) *Runner {
	return &Runner{
		harness:  h,
		rewriter: normalizer.WithStandardPasses(),
		gen:      codegen.New(),
		log:      slog.Default(),
	}
}

// Run validates every fixture and returns the aggregated report. A failure
// in one fixture, whether at generation, compilation or execution, never
// aborts the rest of the batch.
func (r *Runner) Run(ctx context.Context, fixtures []Fixture) *Report {
	report := &Report{Results: make([]FixtureResult, 0, len(fixtures))}
	for i := range fixtures {
		report.Results = append(report.Results, r.runFixture(ctx, &fixtures[i]))
	}
	r.log.Info("validation batch complete",
		slog.Int("passed", report.Passed()),
		slog.Int("failed", report.Failed()))
	return report
}

func (r *Runner) runFixture(ctx context.Context, fx *Fixture) FixtureResult {
	result := FixtureResult{Expression: fx.Expression, Reference: fx.Reference}

	tree, err := fx.ParseTree()
	if err != nil {
		result.Err = err
		return result
	}
	canonical := r.rewriter.Normalize(tree)

	art, err := r.gen.Generate(fx.Expression, fx.Type, canonical)
	if err != nil {
		result.Err = err
		return result
	}
	result.Artifact = art

	wasm, err := r.harness.Compile(ctx, art)
	if err != nil {
		result.Err = err
		return result
	}

	for _, c := range fx.Cases {
		result.Cases = append(result.Cases, r.runCase(ctx, art, wasm, c))
	}
	return result
}

func (r *Runner) runCase(ctx context.Context, art *types.Artifact, wasm []byte, c Case) CaseResult {
	cr := CaseResult{Description: c.Description}

	input, err := c.Input.TagValue()
	if err != nil {
		cr.Err = err
		return cr
	}
	cr.Input = input
	expected, err := c.Expected.TagValue()
	if err != nil {
		cr.Err = err
		return cr
	}
	cr.Expected = expected

	fields, err := contextFields(c.Fields)
	if err != nil {
		cr.Err = err
		return cr
	}

	actual, err := r.harness.Execute(ctx, art, wasm, input, fields)
	if err != nil {
		cr.Err = err
		return cr
	}
	cr.Actual = actual
	cr.Pass = expected.Equal(actual)
	return cr
}

func contextFields(vals map[string]Value) (map[string]tagvalue.TagValue, error) {
	if len(vals) == 0 {
		return nil, nil
	}
	out := make(map[string]tagvalue.TagValue, len(vals))
	for k, v := range vals {
		tv, err := v.TagValue()
		if err != nil {
			return nil, err
		}
		out[k] = tv
	}
	return out, nil
}

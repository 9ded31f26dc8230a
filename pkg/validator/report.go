package validator

import (
	"fmt"
	"strings"

	"github.com/photostructure/convgen/pkg/tagvalue"
	"github.com/photostructure/convgen/pkg/types"
)

// CaseResult records one fixture case execution.
type CaseResult struct {
	Description string
	Input       tagvalue.TagValue
	Expected    tagvalue.TagValue
	Actual      tagvalue.TagValue
	Pass        bool
	// Err is set when the case could not be executed at all, as opposed to
	// executing and producing the wrong value.
	Err error
}

// FixtureResult records one fixture's full validation: the artifact that
// was generated for it and every case outcome. Err is set when the fixture
// failed before execution (parse, normalize, generate or compile), in which
// case Cases is empty and the generated source, when present, is carried on
// the artifact for reproduction.
type FixtureResult struct {
	Expression string
	Reference  string
	Artifact   *types.Artifact
	Cases      []CaseResult
	Err        error
}

// Passed reports whether the fixture validated cleanly.
func (r *FixtureResult) Passed() bool {
	if r.Err != nil {
		return false
	}
	for _, c := range r.Cases {
		if !c.Pass {
			return false
		}
	}
	return true
}

// Report aggregates a batch run. One failing fixture never stops the batch;
// the report surfaces the full extent of a regression in one pass.
type Report struct {
	Results []FixtureResult
}

// Passed counts fixtures that validated cleanly.
func (r *Report) Passed() int {
	n := 0
	for i := range r.Results {
		if r.Results[i].Passed() {
			n++
		}
	}
	return n
}

// Failed counts fixtures with any failure.
func (r *Report) Failed() int {
	return len(r.Results) - r.Passed()
}

// Summary renders the batch outcome with one block per failing fixture,
// carrying everything needed to reproduce without rerunning the pipeline:
// expression, generated source, input, expected and actual values.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d fixtures passed\n", r.Passed(), len(r.Results))
	for i := range r.Results {
		res := &r.Results[i]
		if res.Passed() {
			continue
		}
		fmt.Fprintf(&b, "\nFAIL %s\n", res.Expression)
		if res.Reference != "" {
			fmt.Fprintf(&b, "  reference: %s\n", res.Reference)
		}
		if res.Err != nil {
			fmt.Fprintf(&b, "  error: %v\n", res.Err)
		}
		for _, c := range res.Cases {
			if c.Pass {
				continue
			}
			if c.Err != nil {
				fmt.Fprintf(&b, "  case %q: %v\n", c.Description, c.Err)
				continue
			}
			fmt.Fprintf(&b, "  case %q: input %#v, expected %#v, got %#v\n",
				c.Description, c.Input, c.Expected, c.Actual)
		}
		if res.Artifact != nil {
			b.WriteString("  generated source:\n")
			for _, line := range strings.Split(strings.TrimRight(res.Artifact.Source, "\n"), "\n") {
				b.WriteString("    " + line + "\n")
			}
		}
	}
	return b.String()
}

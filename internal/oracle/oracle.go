// Package oracle wraps the search's three external collaborators (the audit
// generator, the scorer, and the prompt mutator) behind stable interfaces
// that own the retry and timeout policy.
//
// Failure policy: a single flaky invocation degrades one data point, never
// the whole run. Generator and scorer failures surface as typed failures the
// evaluator converts to worst-case scores; a mutator failure just means that
// variant is absent from its generation.
package oracle

import (
	"context"
	"fmt"

	"promptsmith/internal/corpus"
	"promptsmith/internal/prompt"
	"promptsmith/internal/score"
)

// Generator produces an audit for a case document under a candidate prompt.
type Generator interface {
	Generate(ctx context.Context, p prompt.Prompt, caseInput string) (string, error)
}

// Scorer scores generated audit output against a reference answer.
type Scorer interface {
	Score(ctx context.Context, output string, ref *corpus.ReferenceAnswer) (score.Result, error)
}

// Mutator produces a new candidate prompt from the incumbent and a failure
// digest. The variant index selects a diversification strategy so siblings in
// one generation do not converge on the same fix.
type Mutator interface {
	Mutate(ctx context.Context, p prompt.Prompt, digest string, variantIndex int) (prompt.Prompt, error)
}

// GenerationFailure is a non-fatal generator error (timeout, transport
// failure, empty output). The affected case scores zero.
type GenerationFailure struct {
	Reason string
	Err    error
}

func (f *GenerationFailure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("generation failed: %s: %v", f.Reason, f.Err)
	}
	return "generation failed: " + f.Reason
}

func (f *GenerationFailure) Unwrap() error { return f.Err }

// ScoringFailure is a non-fatal scorer error (malformed output). The affected
// case scores zero with the reason attached to its breakdown.
type ScoringFailure struct {
	Reason string
	Err    error
}

func (f *ScoringFailure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("scoring failed: %s: %v", f.Reason, f.Err)
	}
	return "scoring failed: " + f.Reason
}

func (f *ScoringFailure) Unwrap() error { return f.Err }

// MutationFailure is a non-fatal mutator error. The variant is simply not
// added to the generation's candidate pool.
type MutationFailure struct {
	VariantIndex int
	Reason       string
	Err          error
}

func (f *MutationFailure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("mutation of variant %d failed: %s: %v", f.VariantIndex, f.Reason, f.Err)
	}
	return fmt.Sprintf("mutation of variant %d failed: %s", f.VariantIndex, f.Reason)
}

func (f *MutationFailure) Unwrap() error { return f.Err }

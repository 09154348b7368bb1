package oracle

import (
	"context"

	"promptsmith/internal/corpus"
	"promptsmith/internal/metrics"
	"promptsmith/internal/score"
)

// RubricScorer scores audit output locally against the answer-key rubric.
type RubricScorer struct{}

func NewRubricScorer() *RubricScorer {
	return &RubricScorer{}
}

// Score evaluates generator output against a reference answer. Output that
// contains no audit table at all is a *ScoringFailure: the caller degrades
// the case to zero with the reason attached, rather than treating a formless
// blob as a legitimate all-miss audit.
func (s *RubricScorer) Score(ctx context.Context, output string, ref *corpus.ReferenceAnswer) (score.Result, error) {
	if ref == nil {
		metrics.OracleCallsTotal.WithLabelValues("scorer", "error").Inc()
		return score.Result{}, &ScoringFailure{Reason: "no reference answer"}
	}
	if len(score.ParseAuditTable(output)) == 0 {
		metrics.OracleCallsTotal.WithLabelValues("scorer", "malformed").Inc()
		return score.Result{}, &ScoringFailure{Reason: "no audit table found in output"}
	}

	metrics.OracleCallsTotal.WithLabelValues("scorer", "ok").Inc()
	return score.Evaluate(output, ref), nil
}

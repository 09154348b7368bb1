// Package evaluate runs one prompt candidate against the full corpus.
package evaluate

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"promptsmith/internal/corpus"
	"promptsmith/internal/metrics"
	"promptsmith/internal/oracle"
	"promptsmith/internal/prompt"
	"promptsmith/internal/score"
)

var tracer = otel.GetTracerProvider().Tracer("promptsmith/evaluate")

// WarningNoCasesEvaluated flags an evaluation over a corpus with zero
// scorable cases: the aggregate is defined as 0 and the run continues.
const WarningNoCasesEvaluated = "no cases evaluated"

// Outcome is one candidate's evaluation over the corpus. Results are in
// corpus order regardless of completion order, for reproducible reporting.
type Outcome struct {
	Prompt  prompt.Prompt
	Results []score.Result
	Average float64
	Warning string
}

// Evaluator runs candidate prompts case by case through the generator and
// scorer oracles. It is a pure function over its inputs: no state is retained
// across calls.
type Evaluator struct {
	generator oracle.Generator
	scorer    oracle.Scorer
	// maxConcurrent bounds per-case fan-out to respect generator rate limits.
	maxConcurrent int
}

func NewEvaluator(generator oracle.Generator, scorer oracle.Scorer, maxConcurrent int) *Evaluator {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Evaluator{
		generator:     generator,
		scorer:        scorer,
		maxConcurrent: maxConcurrent,
	}
}

// Evaluate scores the prompt against every scorable case. Cases without a
// reference answer are skipped and excluded from the denominator. Oracle
// failures degrade the affected case to a zero-score result; only context
// cancellation propagates as an error.
func (e *Evaluator) Evaluate(ctx context.Context, p prompt.Prompt, crp corpus.Corpus) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "evaluate.candidate")
	defer span.End()
	span.SetAttributes(
		attribute.String("prompt_id", p.ID()),
		attribute.Int("cases", len(crp)),
	)

	outcome := Outcome{Prompt: p}
	start := time.Now()

	// index into crp -> result slot; nil slots are skipped cases
	slots := make([]*score.Result, len(crp))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrent)

	for i := range crp {
		if crp[i].Reference == nil {
			continue
		}
		i := i
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			r := e.evaluateCase(gCtx, p, crp[i])
			slots[i] = &r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Outcome{}, err
	}

	// Re-sort to corpus order (slots are already positional; this also keeps
	// any future non-positional collection honest).
	outcome.Results = make([]score.Result, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			outcome.Results = append(outcome.Results, *r)
		}
	}
	sort.SliceStable(outcome.Results, func(i, j int) bool {
		return caseIndex(crp, outcome.Results[i].CaseID) < caseIndex(crp, outcome.Results[j].CaseID)
	})

	if len(outcome.Results) == 0 {
		outcome.Warning = WarningNoCasesEvaluated
		slog.WarnContext(ctx, "candidate evaluated over zero scorable cases", "prompt_id", p.ID())
		span.SetAttributes(attribute.Bool("no_cases_evaluated", true))
		return outcome, nil
	}

	var sum float64
	for _, r := range outcome.Results {
		sum += r.Score
	}
	outcome.Average = sum / float64(len(outcome.Results))

	span.SetAttributes(
		attribute.Float64("average_score", outcome.Average),
		attribute.Int("results", len(outcome.Results)),
	)
	slog.InfoContext(ctx, "candidate evaluated",
		"prompt_id", p.ID(),
		"average_score", outcome.Average,
		"cases", len(outcome.Results),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return outcome, nil
}

// evaluateCase runs generator then scorer for one case, absorbing oracle
// failures into a degraded zero-score result.
func (e *Evaluator) evaluateCase(ctx context.Context, p prompt.Prompt, c corpus.Case) score.Result {
	output, err := e.generator.Generate(ctx, p, c.Input)
	if err != nil {
		slog.WarnContext(ctx, "generator failed, scoring case as zero",
			"case_id", c.ID, "prompt_id", p.ID(), "error", err)
		metrics.CasesDegradedTotal.WithLabelValues("generator").Inc()
		return score.Degraded(c.ID, err.Error())
	}

	result, err := e.scorer.Score(ctx, output, c.Reference)
	if err != nil {
		slog.WarnContext(ctx, "scorer failed, scoring case as zero",
			"case_id", c.ID, "prompt_id", p.ID(), "error", err)
		metrics.CasesDegradedTotal.WithLabelValues("scorer").Inc()
		return score.Degraded(c.ID, err.Error())
	}

	result.CaseID = c.ID
	return result
}

func caseIndex(crp corpus.Corpus, caseID string) int {
	for i := range crp {
		if crp[i].ID == caseID {
			return i
		}
	}
	return len(crp)
}

// Package search runs the prompt optimization loop: evaluate the seed, then
// per generation mutate the incumbent into variants, evaluate them, and keep
// the best strictly-improving candidate.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"promptsmith/internal/artifact"
	"promptsmith/internal/config"
	"promptsmith/internal/corpus"
	"promptsmith/internal/digest"
	"promptsmith/internal/evaluate"
	"promptsmith/internal/id"
	"promptsmith/internal/metrics"
	"promptsmith/internal/oracle"
	"promptsmith/internal/prompt"
	"promptsmith/internal/score"
)

var tracer = otel.GetTracerProvider().Tracer("promptsmith/search")

// State is the driver's lifecycle phase. A run moves SEEDING ->
// GENERATION_LOOP -> one of the three terminal states.
type State string

const (
	StateSeeding        State = "SEEDING"
	StateGenerationLoop State = "GENERATION_LOOP"
	StateConverged      State = "CONVERGED"
	StateExhausted      State = "EXHAUSTED"
	StateAborted        State = "ABORTED"
)

// ErrNoEvaluations means the incumbent's evaluation produced not a single
// real data point, so there is no signal to steer mutation with.
var ErrNoEvaluations = errors.New("no cases produced a real evaluation")

// Driver owns the search state. The incumbent prompt and score are written
// only here; evaluator and mutator see candidates but never the selection.
type Driver struct {
	cfg       config.SearchConfig
	evaluator *evaluate.Evaluator
	mutator   oracle.Mutator
	store     *artifact.Store
}

func NewDriver(cfg config.SearchConfig, evaluator *evaluate.Evaluator, mutator oracle.Mutator, store *artifact.Store) *Driver {
	return &Driver{
		cfg:       cfg,
		evaluator: evaluator,
		mutator:   mutator,
		store:     store,
	}
}

// variantOutcome carries one evaluated variant out of the fan-out. Index is
// the variant's position in its generation; selection replays outcomes in
// index order, so the incumbent update is deterministic per generation.
type variantOutcome struct {
	Index   int
	Outcome evaluate.Outcome
	Err     error
}

// Run drives the full search. The returned Report is valid in every terminal
// state; err is non-nil only when the run aborted.
func (d *Driver) Run(ctx context.Context, seed prompt.Prompt, crp corpus.Corpus) (Report, error) {
	runID := id.NewRun()
	ctx, span := tracer.Start(ctx, "search.run",
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.String("seed_id", seed.ID()),
			attribute.Int("max_generations", d.cfg.Generations),
			attribute.Int("variants_per_generation", d.cfg.Variants),
		))
	defer span.End()

	report := Report{
		RunID:      runID,
		State:      StateSeeding,
		Seed:       seed,
		BestPrompt: seed,
	}
	start := time.Now()

	slog.InfoContext(ctx, "search started",
		"run_id", runID, "seed_id", seed.ID(),
		"max_generations", d.cfg.Generations, "variants_per_generation", d.cfg.Variants,
		"cases", len(crp), "scorable_cases", crp.Scorable())

	// Generation 0 is the seed alone.
	best, err := d.evaluateCandidate(ctx, 0, -1, seed, crp)
	if err != nil {
		report.State = StateAborted
		span.SetStatus(codes.Error, "seed evaluation aborted")
		span.RecordError(err)
		d.finish(ctx, span, &report, start)
		return report, fmt.Errorf("evaluating seed: %w", err)
	}
	report.BestScore = best.Average
	report.BestGeneration = 0
	report.SeedScore = best.Average
	metrics.BestScore.Set(best.Average)

	failures := digest.Extract(best.Results)
	if failures == digest.NoEvaluations {
		report.State = StateAborted
		span.SetStatus(codes.Error, "no evaluations")
		span.RecordError(ErrNoEvaluations)
		d.finish(ctx, span, &report, start)
		return report, ErrNoEvaluations
	}
	if failures == "" {
		report.State = StateConverged
		d.finish(ctx, span, &report, start)
		return report, nil
	}

	report.State = StateGenerationLoop

	for gen := 1; gen <= d.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			report.State = StateAborted
			span.SetStatus(codes.Error, "canceled")
			d.finish(ctx, span, &report, start)
			return report, fmt.Errorf("generation %d: %w", gen, err)
		}

		report.GenerationsRun = gen
		metrics.GenerationsTotal.Inc()

		candidates := d.mutateGeneration(ctx, gen, best.Prompt, failures)
		if len(candidates) == 0 {
			slog.WarnContext(ctx, "generation produced no viable variants", "generation", gen)
			continue
		}

		outcomes, err := d.evaluateGeneration(ctx, gen, candidates, crp)
		if err != nil {
			report.State = StateAborted
			span.SetStatus(codes.Error, "generation evaluation aborted")
			span.RecordError(err)
			d.finish(ctx, span, &report, start)
			return report, fmt.Errorf("generation %d: %w", gen, err)
		}

		// Selection replays in variant order against the running incumbent.
		// Only a strict improvement replaces it; equal scores keep the
		// earlier prompt.
		for _, vo := range outcomes {
			metrics.VariantsEvaluatedTotal.Inc()
			if vo.Outcome.Average > best.Average {
				slog.InfoContext(ctx, "incumbent replaced",
					"generation", gen, "variant", vo.Index,
					"prompt_id", vo.Outcome.Prompt.ID(),
					"score", vo.Outcome.Average, "previous_best", best.Average)
				best = vo.Outcome
				report.BestPrompt = best.Prompt
				report.BestScore = best.Average
				report.BestGeneration = gen
				metrics.BestScore.Set(best.Average)
			}
		}

		failures = digest.Extract(best.Results)
		if failures == digest.NoEvaluations {
			report.State = StateAborted
			span.SetStatus(codes.Error, "no evaluations")
			span.RecordError(ErrNoEvaluations)
			d.finish(ctx, span, &report, start)
			return report, ErrNoEvaluations
		}
		if failures == "" {
			report.State = StateConverged
			d.finish(ctx, span, &report, start)
			return report, nil
		}
	}

	report.State = StateExhausted
	d.finish(ctx, span, &report, start)
	return report, nil
}

// candidate pairs a mutated prompt with the variant index it was requested
// as. The index survives dropped siblings, so artifacts and selection order
// always name the variant the mutator actually produced.
type candidate struct {
	Variant int
	Prompt  prompt.Prompt
}

// mutateGeneration asks the mutator for up to cfg.Variants new candidates.
// Mutation failures and sibling duplicates shrink the pool rather than
// failing the generation.
func (d *Driver) mutateGeneration(ctx context.Context, gen int, parent prompt.Prompt, failures string) []candidate {
	candidates := make([]candidate, 0, d.cfg.Variants)
	seen := map[string]struct{}{parent.ID(): {}}

	for v := 1; v <= d.cfg.Variants; v++ {
		mutated, err := d.mutator.Mutate(ctx, parent, failures, v)
		if err != nil {
			slog.WarnContext(ctx, "variant mutation failed",
				"generation", gen, "variant", v, "error", err)
			continue
		}
		if _, dup := seen[mutated.ID()]; dup {
			slog.DebugContext(ctx, "variant duplicates an existing prompt, dropped",
				"generation", gen, "variant", v, "prompt_id", mutated.ID())
			continue
		}
		seen[mutated.ID()] = struct{}{}
		candidates = append(candidates, candidate{Variant: v, Prompt: mutated})
	}
	return candidates
}

// evaluateGeneration fans the variants out, one goroutine each, and collects
// outcomes back into variant order. Any real error (cancellation) wins over
// partial results.
func (d *Driver) evaluateGeneration(ctx context.Context, gen int, candidates []candidate, crp corpus.Corpus) ([]variantOutcome, error) {
	ctx, span := tracer.Start(ctx, "search.generation",
		trace.WithAttributes(
			attribute.Int("generation", gen),
			attribute.Int("candidates", len(candidates)),
		))
	defer span.End()

	var wg sync.WaitGroup
	results := make(chan variantOutcome, len(candidates))

	for _, c := range candidates {
		wg.Add(1)
		go func(c candidate) {
			defer wg.Done()
			outcome, err := d.evaluateCandidate(ctx, gen, c.Variant, c.Prompt, crp)
			results <- variantOutcome{Index: c.Variant, Outcome: outcome, Err: err}
		}(c)
	}
	wg.Wait()
	close(results)

	outcomes := make([]variantOutcome, 0, len(candidates))
	for vo := range results {
		if vo.Err != nil {
			return nil, vo.Err
		}
		outcomes = append(outcomes, vo)
	}
	sortByIndex(outcomes)
	return outcomes, nil
}

// evaluateCandidate evaluates one prompt and persists its artifacts. Variant
// -1 marks the seed.
func (d *Driver) evaluateCandidate(ctx context.Context, gen, variant int, p prompt.Prompt, crp corpus.Corpus) (evaluate.Outcome, error) {
	ctx, span := tracer.Start(ctx, "search.candidate",
		trace.WithAttributes(
			attribute.String("prompt_id", p.ID()),
			attribute.Int("generation", gen),
			attribute.Int("variant", variant),
		))
	defer span.End()

	outcome, err := d.evaluator.Evaluate(ctx, p, crp)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation failed")
		return evaluate.Outcome{}, err
	}
	span.SetAttributes(attribute.Float64("average_score", outcome.Average))

	if d.store != nil {
		if err := d.store.WritePrompt(gen, variant, p.Text()); err != nil {
			slog.WarnContext(ctx, "prompt artifact write failed", "error", err)
		}
		if err := d.store.WriteEvaluation(gen, variant, evaluationArtifact(outcome)); err != nil {
			slog.WarnContext(ctx, "evaluation artifact write failed", "error", err)
		}
	}
	return outcome, nil
}

func (d *Driver) finish(ctx context.Context, span trace.Span, report *Report, start time.Time) {
	report.Duration = time.Since(start)
	span.SetAttributes(
		attribute.String("state", string(report.State)),
		attribute.Float64("best_score", report.BestScore),
		attribute.Int("best_generation", report.BestGeneration),
	)
	slog.InfoContext(ctx, "search finished",
		"run_id", report.RunID,
		"state", string(report.State),
		"best_score", report.BestScore,
		"best_generation", report.BestGeneration,
		"generations_run", report.GenerationsRun,
		"duration_ms", report.Duration.Milliseconds())

	if d.store != nil {
		if err := d.store.WriteReport(report.Render()); err != nil {
			slog.WarnContext(ctx, "report artifact write failed", "error", err)
		}
	}
}

type candidateArtifact struct {
	PromptID string         `json:"prompt_id"`
	Average  float64        `json:"average"`
	Warning  string         `json:"warning,omitempty"`
	Results  []score.Result `json:"results"`
}

func evaluationArtifact(o evaluate.Outcome) candidateArtifact {
	return candidateArtifact{
		PromptID: o.Prompt.ID(),
		Average:  o.Average,
		Warning:  o.Warning,
		Results:  o.Results,
	}
}

func sortByIndex(outcomes []variantOutcome) {
	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].Index < outcomes[j].Index
	})
}

package oracle

import (
	"context"
	"strconv"
	"strings"
	"time"

	"promptsmith/internal/metrics"
	"promptsmith/internal/prompt"
	"promptsmith/internal/retry"
)

// mutationStrategies diversify sibling variants within one generation: each
// variant index gets a different rewrite angle, so two variants never chase
// the identical fix.
var mutationStrategies = []string{
	"Make the smallest targeted edit that addresses the failures. Change only the rules or examples the failures implicate; leave everything else untouched.",
	"Restructure the instructions around the failure pattern. Reorder, merge, or split rules so the failing distinctions are stated first and unambiguously.",
	"Add concrete worked examples for each failing distinction, showing the expected verdict and the reasoning that justifies it.",
	"Tighten the vocabulary: define each verdict explicitly and enumerate the conditions under which it applies, removing hedged or overlapping language.",
}

const mutationRequestTemplate = `You are improving an audit instruction prompt. The current prompt produced wrong verdicts on a labeled test corpus.

CURRENT PROMPT:
<<<
{{prompt}}
>>>

FAILURES (verdict mismatches, grouped by test case):
{{failures}}

REWRITE STRATEGY FOR THIS ATTEMPT (variant {{variant}}):
{{strategy}}

Rewrite the prompt to fix these failures. Keep everything that already works. Respond with ONLY the full revised prompt text, no commentary, no code fences.`

// LLMMutator asks an OpenAI-compatible backend for a revised prompt.
type LLMMutator struct {
	llm     Completer
	timeout time.Duration
	backoff retry.BackoffConfig
}

func NewLLMMutator(llm Completer, timeout time.Duration) *LLMMutator {
	return &LLMMutator{
		llm:     llm,
		timeout: timeout,
		backoff: retry.OracleConfig(),
	}
}

// Mutate returns a new candidate prompt, or a *MutationFailure when the
// backend errors, returns nothing usable, or reproduces the parent verbatim
// (a no-op variant would waste an evaluation on a known score).
func (m *LLMMutator) Mutate(ctx context.Context, p prompt.Prompt, digest string, variantIndex int) (prompt.Prompt, error) {
	strategy := mutationStrategies[(variantIndex-1)%len(mutationStrategies)]

	request := prompt.CompileTemplate(mutationRequestTemplate, map[string]string{
		"prompt":   p.Text(),
		"failures": digest,
		"variant":  strconv.Itoa(variantIndex),
		"strategy": strategy,
	})

	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	var output string
	err := retry.WithBackoff(callCtx, m.backoff, func() error {
		var callErr error
		output, callErr = m.llm.Complete(callCtx, request)
		return callErr
	})
	metrics.OracleCallDuration.WithLabelValues("mutator").Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.OracleCallsTotal.WithLabelValues("mutator", "error").Inc()
		return prompt.Prompt{}, &MutationFailure{VariantIndex: variantIndex, Reason: "llm call failed", Err: err}
	}

	text := strings.TrimSpace(stripCodeFence(output))
	if text == "" {
		metrics.OracleCallsTotal.WithLabelValues("mutator", "empty").Inc()
		return prompt.Prompt{}, &MutationFailure{VariantIndex: variantIndex, Reason: "empty output"}
	}

	mutated := prompt.New(text)
	if mutated.Equal(p) {
		metrics.OracleCallsTotal.WithLabelValues("mutator", "noop").Inc()
		return prompt.Prompt{}, &MutationFailure{VariantIndex: variantIndex, Reason: "mutation reproduced the parent prompt"}
	}

	metrics.OracleCallsTotal.WithLabelValues("mutator", "ok").Inc()
	return mutated, nil
}

// stripCodeFence removes a wrapping markdown fence some backends insist on.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return s
	}
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		return strings.Join(lines[1:len(lines)-1], "\n")
	}
	return s
}

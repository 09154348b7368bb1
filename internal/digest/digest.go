// Package digest distills an evaluation's failing sections into the textual
// feedback handed to the mutator.
package digest

import (
	"fmt"
	"strings"

	"promptsmith/internal/score"
)

// NoEvaluations is the sentinel digest produced when not a single case was
// actually evaluated (every result was degraded by an oracle failure, or no
// results exist at all). The driver treats it as a fatal signal: mutating on
// it would steer the search with pure noise.
const NoEvaluations = "NO_EVALUATIONS"

// Extract builds the failure digest from a candidate's results. It is a pure
// function of its input: same results, same digest, byte for byte.
//
// A section counts as failing when its item score falls below the rubric's
// failure threshold. Degraded cases contribute their oracle failure line, so
// a flaky generator cannot look like convergence. An empty digest with real
// evaluations present means genuinely no failures.
func Extract(results []score.Result) string {
	evaluated := 0
	for _, r := range results {
		if r.FailureReason == "" {
			evaluated++
		}
	}
	if evaluated == 0 {
		return NoEvaluations
	}

	var b strings.Builder
	for _, r := range results {
		var lines []string
		for _, s := range r.Sections {
			if s.ItemScore() >= score.FailureThreshold {
				continue
			}
			lines = append(lines, fmt.Sprintf("- %s: expected %s, got %s", s.Section, s.Expected, s.Actual))
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "Case %s (score %.1f):\n", r.CaseID, r.Score)
		for _, l := range lines {
			b.WriteString(l)
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

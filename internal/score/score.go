// Package score implements the audit rubric: parsing the generator's audit
// table and scoring it against a reference answer.
//
// Per expected section: verdict exact match earns 2 points, a near-miss in
// the same verdict group earns 1, plus a 1 point bonus when the reasoning
// mentions a key concept from the answer key. The case score is the point
// total normalized to 0-100.
package score

import (
	"math"
	"strings"

	"promptsmith/internal/corpus"
)

const (
	pointsPerSection = 3 // 2 verdict + 1 reasoning bonus

	// FailureThreshold classifies a section as a failure for mutation
	// feedback: anything below an exact verdict match (item score < 2 on the
	// 0-3 scale) means the verdict was materially wrong, not just worded off.
	FailureThreshold = 2
)

// SectionResult is the per-section breakdown of a case score.
type SectionResult struct {
	Section        string `json:"section"`
	Expected       string `json:"expected"`
	Actual         string `json:"actual"`
	VerdictScore   int    `json:"verdict_score"`
	ReasoningScore int    `json:"reasoning_score"`
}

// ItemScore is the combined section score on the 0-3 scale.
func (s SectionResult) ItemScore() int {
	return s.VerdictScore + s.ReasoningScore
}

// Result is the evaluation of one (prompt, case) pair. Produced once, never
// mutated.
type Result struct {
	CaseID      string          `json:"case_id"`
	Score       float64         `json:"score"` // normalized to [0,100]
	TotalPoints int             `json:"total_points"`
	MaxPoints   int             `json:"max_points"`
	Sections    []SectionResult `json:"sections"`

	// FailureReason is set when an oracle failure degraded this case to a
	// zero score instead of a real evaluation.
	FailureReason string `json:"failure_reason,omitempty"`
}

// Evaluate scores generator output against the answer key.
func Evaluate(auditOutput string, ref *corpus.ReferenceAnswer) Result {
	actual := ParseAuditTable(auditOutput)

	result := Result{
		CaseID:    ref.CaseID,
		MaxPoints: len(ref.Sections) * pointsPerSection,
		Sections:  make([]SectionResult, 0, len(ref.Sections)),
	}

	for _, exp := range ref.Sections {
		matched := matchSection(exp.Name, actual)
		if matched == nil {
			result.Sections = append(result.Sections, SectionResult{
				Section:  exp.Name,
				Expected: exp.Verdict,
				Actual:   VerdictMissing,
			})
			continue
		}

		result.Sections = append(result.Sections, SectionResult{
			Section:        exp.Name,
			Expected:       exp.Verdict,
			Actual:         NormalizeVerdict(matched.Verdict),
			VerdictScore:   ScoreVerdict(matched.Verdict, exp.Verdict),
			ReasoningScore: ScoreReasoning(matched.Reason, exp.Concepts),
		})
	}

	for _, s := range result.Sections {
		result.TotalPoints += s.ItemScore()
	}
	if result.MaxPoints > 0 {
		result.Score = math.Round(float64(result.TotalPoints)/float64(result.MaxPoints)*1000) / 10
	}

	return result
}

// Degraded builds the zero-score result used when a generator or scorer call
// failed for a case. The failure reason lands in the breakdown, so it stays
// visible in the report and counts as a failing item for mutation feedback.
func Degraded(caseID, reason string) Result {
	return Result{
		CaseID:        caseID,
		Score:         0,
		FailureReason: reason,
		Sections: []SectionResult{{
			Section:  "evaluation",
			Expected: "audit output",
			Actual:   reason,
		}},
	}
}

// matchSection finds the audit row for an expected section using the fuzzy
// substring match the rubric tolerates (either name containing the other,
// case-insensitive).
func matchSection(expected string, rows []AuditRow) *AuditRow {
	expLower := strings.ToLower(expected)
	for i := range rows {
		nameLower := strings.ToLower(rows[i].Name)
		if strings.Contains(nameLower, expLower) || strings.Contains(expLower, nameLower) {
			return &rows[i]
		}
	}
	return nil
}

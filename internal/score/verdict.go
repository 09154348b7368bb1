package score

import "strings"

// Canonical verdicts an audit may assign to a prompt section.
const (
	VerdictKeep       = "KEEP"
	VerdictRemove     = "REMOVE"
	VerdictTrim       = "TRIM"
	VerdictMoveNested = "MOVE_NESTED"
	VerdictMoveHook   = "MOVE_HOOK"

	// VerdictMissing marks an expected section absent from the audit output.
	VerdictMissing = "MISSING"
)

// verdictGroups drives near-miss scoring: verdicts in the same group earn a
// partial point (MOVE_HOOK vs MOVE_NESTED are both "move").
var verdictGroups = map[string]string{
	VerdictKeep:       "keep",
	VerdictRemove:     "remove",
	VerdictTrim:       "trim",
	VerdictMoveNested: "move",
	VerdictMoveHook:   "move",
}

// verdictAliases maps common output variations onto canonical verdicts.
var verdictAliases = map[string]string{
	"MOVE":           VerdictMoveNested,
	"MOVE_TO_NESTED": VerdictMoveNested,
	"MOVE_TO_HOOK":   VerdictMoveHook,
	"HOOK":           VerdictMoveHook,
	"DELETE":         VerdictRemove,
	"DROP":           VerdictRemove,
}

// NormalizeVerdict maps a raw verdict token to its canonical form. Tokens
// outside the closed enumeration pass through unchanged and simply score as
// mismatches.
func NormalizeVerdict(raw string) string {
	v := strings.ToUpper(strings.TrimSpace(raw))
	v = strings.ReplaceAll(v, " ", "_")
	v = strings.ReplaceAll(v, "→", "")
	v = strings.ReplaceAll(v, "->", "")
	if canonical, ok := verdictAliases[v]; ok {
		return canonical
	}
	return v
}

// ScoreVerdict scores a single verdict: 2 exact, 1 near-miss, 0 wrong.
func ScoreVerdict(actual, expected string) int {
	a := NormalizeVerdict(actual)
	e := NormalizeVerdict(expected)
	if a == e {
		return 2
	}
	ga, okA := verdictGroups[a]
	ge, okE := verdictGroups[e]
	if okA && okE && ga == ge {
		return 1
	}
	return 0
}

// ScoreReasoning awards the bonus point when the reasoning mentions any of
// the reference's key concepts. No concepts means no bonus is available.
func ScoreReasoning(reason string, concepts []string) int {
	if len(concepts) == 0 {
		return 0
	}
	lower := strings.ToLower(reason)
	for _, c := range concepts {
		if strings.Contains(lower, strings.ToLower(c)) {
			return 1
		}
	}
	return 0
}

package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"promptsmith/internal/prompt"
)

// Report is the terminal summary of a run. It is valid in every terminal
// state; on ABORTED the best fields describe the last known incumbent.
type Report struct {
	RunID          string
	State          State
	Seed           prompt.Prompt
	SeedScore      float64
	BestPrompt     prompt.Prompt
	BestScore      float64
	BestGeneration int
	GenerationsRun int
	Duration       time.Duration
}

// Improved reports whether the search found anything better than the seed.
func (r Report) Improved() bool {
	return !r.BestPrompt.Equal(r.Seed)
}

// Render formats the report as markdown, including a line diff from the seed
// prompt to the winning prompt when they differ.
func (r Report) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Prompt optimization report\n\n")
	fmt.Fprintf(&b, "- Run: %s\n", r.RunID)
	fmt.Fprintf(&b, "- State: %s\n", r.State)
	fmt.Fprintf(&b, "- Seed score: %.1f\n", r.SeedScore)
	fmt.Fprintf(&b, "- Best score: %.1f (generation %d, prompt %s)\n", r.BestScore, r.BestGeneration, r.BestPrompt.ID())
	fmt.Fprintf(&b, "- Generations run: %d\n", r.GenerationsRun)
	fmt.Fprintf(&b, "- Duration: %s\n", r.Duration.Round(time.Millisecond))

	if !r.Improved() {
		b.WriteString("\nThe seed prompt was not improved upon.\n")
		return b.String()
	}

	b.WriteString("\n## Seed -> best diff\n\n```diff\n")
	b.WriteString(lineDiff(r.Seed.Text(), r.BestPrompt.Text()))
	b.WriteString("```\n")
	return b.String()
}

// lineDiff renders a unified-style line diff using diffmatchpatch's
// line-mode pipeline.
func lineDiff(old, new string) string {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(old, new)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		}
		for _, line := range splitKeepNonEmpty(d.Text) {
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func splitKeepNonEmpty(text string) []string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	return lines
}

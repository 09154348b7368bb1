package score

import "strings"

// AuditRow is one parsed row of the audit output table.
type AuditRow struct {
	Name    string
	Lines   string
	Verdict string
	Reason  string
}

// ParseAuditTable extracts the audit rows from free-form generator output.
// The expected shape is a markdown table:
//
//	| Section | Lines | Verdict | Reason |
//
// Header and separator rows are skipped; anything that is not a table row is
// ignored, so surrounding prose does not break parsing.
func ParseAuditTable(text string) []AuditRow {
	var rows []AuditRow

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) < 3 {
			continue
		}
		cells := make([]string, 0, len(parts)-2)
		for _, c := range parts[1 : len(parts)-1] {
			cells = append(cells, strings.TrimSpace(c))
		}
		if len(cells) < 3 {
			continue
		}

		// Header and separator rows
		if cells[0] == "Section" || cells[0] == "---" || cells[0] == "" || strings.HasPrefix(cells[0], "-") {
			continue
		}
		allDashes := true
		for _, c := range cells {
			if c != "" && !strings.HasPrefix(c, "-") {
				allDashes = false
				break
			}
		}
		if allDashes {
			continue
		}

		row := AuditRow{
			Name:    cells[0],
			Lines:   cells[1],
			Verdict: cells[2],
		}
		if len(cells) >= 4 {
			row.Reason = cells[3]
		}
		rows = append(rows, row)
	}

	return rows
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"promptsmith/internal/corpus"
	"promptsmith/internal/score"
)

// scoreCmd scores a single audit output against an answer key, outside of any
// search run. Useful for checking an answer key or a hand-written prompt.
func scoreCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "score <audit-output.md> <answer-key.json>",
		Short: "Score one audit output against an answer key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read audit output: %w", err)
			}

			keyData, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read answer key: %w", err)
			}
			var ref corpus.ReferenceAnswer
			if err := json.Unmarshal(keyData, &ref); err != nil {
				return fmt.Errorf("parse answer key: %w", err)
			}
			if len(ref.Sections) == 0 {
				return fmt.Errorf("answer key %s has no sections", args[1])
			}

			result := score.Evaluate(string(output), &ref)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SECTION\tEXPECTED\tACTUAL\tVERDICT\tREASONING")
			for _, s := range result.Sections {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
					s.Section, s.Expected, s.Actual, s.VerdictScore, s.ReasoningScore)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\nScore: %.1f (%d/%d points)\n",
				result.Score, result.TotalPoints, result.MaxPoints)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the full result as JSON")
	return cmd
}

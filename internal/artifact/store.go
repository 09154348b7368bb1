// Package artifact persists run outputs: candidate prompts, per-candidate
// evaluation breakdowns, and the final report. Artifacts are write-once.
package artifact

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Store writes run artifacts under a single directory. Each key may be
// written exactly once; a second write to the same key is a programming
// error and fails loudly instead of silently clobbering history.
type Store struct {
	dir string

	mu      sync.Mutex
	written map[string]struct{}
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact directory %s: %w", dir, err)
	}
	return &Store{
		dir:     dir,
		written: make(map[string]struct{}),
	}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// WritePrompt persists a candidate's prompt text. Variant -1 means the
// generation's incumbent (generation 0 is the seed).
func (s *Store) WritePrompt(generation, variant int, text string) error {
	return s.write(promptName(generation, variant), []byte(text))
}

// WriteEvaluation persists a candidate's evaluation breakdown as JSON.
func (s *Store) WriteEvaluation(generation, variant int, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding evaluation artifact: %w", err)
	}
	return s.write(evalName(generation, variant), data)
}

// WriteReport persists the final run report.
func (s *Store) WriteReport(text string) error {
	return s.write("report.md", []byte(text))
}

func (s *Store) write(name string, data []byte) error {
	s.mu.Lock()
	if _, dup := s.written[name]; dup {
		s.mu.Unlock()
		return fmt.Errorf("artifact %s already written", name)
	}
	s.written[name] = struct{}{}
	s.mu.Unlock()

	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact %s: %w", name, err)
	}
	slog.Debug("artifact written", "path", path, "bytes", len(data))
	return nil
}

func promptName(generation, variant int) string {
	if variant < 0 {
		return fmt.Sprintf("gen%02d_prompt.md", generation)
	}
	return fmt.Sprintf("gen%02d_var%02d_prompt.md", generation, variant)
}

func evalName(generation, variant int) string {
	if variant < 0 {
		return fmt.Sprintf("gen%02d_eval.json", generation)
	}
	return fmt.Sprintf("gen%02d_var%02d_eval.json", generation, variant)
}

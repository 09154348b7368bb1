// Package corpus loads the labeled test corpus the search optimizes against.
package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrEmptyCorpus means the corpus has zero scorable cases. The search has
// nothing to optimize against, so this is fatal.
var ErrEmptyCorpus = errors.New("corpus has no cases with a reference answer")

// ExpectedSection is one expected row of the audit table: the section label,
// the verdict the auditor should reach, and the key concepts a good reasoning
// should mention. The optimizer passes verdict values through without
// interpreting them.
type ExpectedSection struct {
	Name     string   `json:"name"`
	Verdict  string   `json:"verdict"`
	Concepts []string `json:"concepts,omitempty"`
}

// ReferenceAnswer is the answer key for one case.
type ReferenceAnswer struct {
	CaseID   string            `json:"case_id"`
	Sections []ExpectedSection `json:"sections"`
}

// Case pairs an input document with its reference answer. Reference is nil
// when the answer key is missing; such cases are carried but never scored.
type Case struct {
	ID        string
	Input     string
	Reference *ReferenceAnswer
}

// Corpus is the ordered collection of cases. Order is the sorted case file
// order and is preserved through evaluation for reproducible reporting.
type Corpus []Case

// Scorable returns the number of cases that have a reference answer.
func (c Corpus) Scorable() int {
	n := 0
	for _, cs := range c {
		if cs.Reference != nil {
			n++
		}
	}
	return n
}

// Repository loads the corpus from a directory of case documents
// (<case-id>.md) with sibling answer keys (<case-id>.answer.json).
type Repository struct {
	dir string
}

func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// Load reads every case document in the directory, attaching answer keys
// where present. A case missing its answer key is kept with a nil Reference
// and logged; it is not an error. Returns ErrEmptyCorpus when no case has a
// reference answer.
func (r *Repository) Load(ctx context.Context) (Corpus, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus dir %s: %w", r.dir, err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".md") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".md"))
	}
	sort.Strings(ids)

	seen := make(map[string]bool, len(ids))
	corpus := make(Corpus, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, fmt.Errorf("duplicate case id %q in corpus", id)
		}
		seen[id] = true

		input, err := os.ReadFile(filepath.Join(r.dir, id+".md"))
		if err != nil {
			return nil, fmt.Errorf("read case %s: %w", id, err)
		}

		c := Case{ID: id, Input: string(input)}

		ref, err := r.loadReference(id)
		if err != nil {
			return nil, err
		}
		if ref == nil {
			slog.DebugContext(ctx, "case has no answer key, excluded from scoring", "case_id", id)
		}
		c.Reference = ref

		corpus = append(corpus, c)
	}

	if corpus.Scorable() == 0 {
		return nil, ErrEmptyCorpus
	}

	slog.InfoContext(ctx, "corpus loaded", "cases", len(corpus), "scorable", corpus.Scorable())
	return corpus, nil
}

func (r *Repository) loadReference(id string) (*ReferenceAnswer, error) {
	path := filepath.Join(r.dir, id+".answer.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read answer key %s: %w", path, err)
	}

	var ref ReferenceAnswer
	if err := json.Unmarshal(data, &ref); err != nil {
		return nil, fmt.Errorf("parse answer key %s: %w", path, err)
	}
	if ref.CaseID == "" {
		ref.CaseID = id
	}
	return &ref, nil
}

// Package prompt defines the immutable prompt value the search operates on.
package prompt

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
)

// Prompt is an opaque text blob with a content-derived identity. The identity
// is used for deduplication (a mutation that reproduces its parent is a no-op
// variant) and for artifact and report naming. Prompts are immutable once
// created.
type Prompt struct {
	id   string
	text string
}

// New creates a Prompt from raw text.
func New(text string) Prompt {
	sum := sha256.Sum256([]byte(text))
	return Prompt{
		id:   hex.EncodeToString(sum[:])[:12],
		text: text,
	}
}

// FromFile loads a Prompt from disk.
func FromFile(path string) (Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Prompt{}, err
	}
	return New(string(data)), nil
}

// ID returns the content hash identity.
func (p Prompt) ID() string { return p.id }

// Text returns the full prompt text.
func (p Prompt) Text() string { return p.text }

// IsZero reports whether the prompt is the zero value.
func (p Prompt) IsZero() bool { return p.id == "" }

// Equal compares prompts by content identity.
func (p Prompt) Equal(other Prompt) bool { return p.id == other.id }

// CompileTemplate substitutes {{var}} placeholders in a template. Unknown
// placeholders are left in place.
func CompileTemplate(template string, vars map[string]string) string {
	out := template
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	return out
}

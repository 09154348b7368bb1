package oracle

import (
	"context"
	"strings"
	"time"

	"promptsmith/internal/metrics"
	"promptsmith/internal/prompt"
	"promptsmith/internal/retry"
)

// Completer is the single-call LLM surface the oracles need. Satisfied by
// *llm.Client; tests supply deterministic fakes.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// auditRequestTemplate joins the candidate prompt and the case document the
// same way for every generator call, so prompt variants are the only thing
// that changes between evaluations.
const auditRequestTemplate = `{{prompt}}

---

# Document under audit

{{document}}`

// LLMGenerator runs audits through an OpenAI-compatible backend.
type LLMGenerator struct {
	llm     Completer
	timeout time.Duration
	backoff retry.BackoffConfig
}

func NewLLMGenerator(llm Completer, timeout time.Duration) *LLMGenerator {
	return &LLMGenerator{
		llm:     llm,
		timeout: timeout,
		backoff: retry.OracleConfig(),
	}
}

// Generate returns the raw audit text, or a *GenerationFailure on timeout,
// transport failure, or empty output. Never fatal to the run.
func (g *LLMGenerator) Generate(ctx context.Context, p prompt.Prompt, caseInput string) (string, error) {
	request := prompt.CompileTemplate(auditRequestTemplate, map[string]string{
		"prompt":   p.Text(),
		"document": caseInput,
	})

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	var output string
	err := retry.WithBackoff(callCtx, g.backoff, func() error {
		var callErr error
		output, callErr = g.llm.Complete(callCtx, request)
		return callErr
	})
	metrics.OracleCallDuration.WithLabelValues("generator").Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.OracleCallsTotal.WithLabelValues("generator", "error").Inc()
		reason := "llm call failed"
		if callCtx.Err() == context.DeadlineExceeded {
			reason = "timeout"
		}
		return "", &GenerationFailure{Reason: reason, Err: err}
	}
	if strings.TrimSpace(output) == "" {
		metrics.OracleCallsTotal.WithLabelValues("generator", "empty").Inc()
		return "", &GenerationFailure{Reason: "empty output"}
	}

	metrics.OracleCallsTotal.WithLabelValues("generator", "ok").Inc()
	return output, nil
}

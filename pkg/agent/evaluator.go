package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"docuchat-be/pkg/llm"
)

// Verdict is the evaluator's classification of a candidate answer.
type Verdict string

const (
	VerdictGood Verdict = "GOOD"
	VerdictBad  Verdict = "BAD"
)

// Evaluator is the response-quality gate: it asks the reasoning model to
// judge a candidate answer against the query. A BAD verdict tells the caller
// to substitute one direct unscoped completion; there is no further chain of
// fallbacks.
type Evaluator struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewEvaluator(llmProvider llm.LLMProvider, logger *log.Logger) *Evaluator {
	return &Evaluator{llmProvider: llmProvider, logger: logger}
}

// Evaluate classifies the candidate. Any output other than the two tokens —
// including a provider error — is coerced to GOOD: the fallback completion
// costs a model call, so ambiguity never triggers it. Documented policy.
func (e *Evaluator) Evaluate(ctx context.Context, query, candidate string) Verdict {
	prompt := fmt.Sprintf(
		"Judge whether the answer below is a relevant, clear response to the question.\n\n"+
			"Question: %s\n\nAnswer: %s\n\n"+
			"Reply with exactly one word: GOOD if the answer addresses the question clearly, BAD if it does not.",
		query, candidate,
	)

	raw, err := e.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		e.logger.Printf("[WARN] Evaluation failed (%v), defaulting to GOOD", err)
		return VerdictGood
	}

	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(VerdictGood):
		return VerdictGood
	case string(VerdictBad):
		return VerdictBad
	default:
		e.logger.Printf("[WARN] Ambiguous evaluator output %q, defaulting to GOOD", raw)
		return VerdictGood
	}
}

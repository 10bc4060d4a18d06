package agent

import (
	"context"
	"log"

	"docuchat-be/pkg/llm"
	"docuchat-be/pkg/store"
)

// Tool is a named, described, callable unit the reasoning loop can invoke.
// Invoke never fails hard: collaborator errors are absorbed into a degraded
// textual result so a failing tool cannot abort the whole run.
type Tool interface {
	Name() string
	Description() string
	Invoke(ctx context.Context, query string) store.ToolResult
}

// FallbackToolName is the general-purpose tool present in every run.
const FallbackToolName = "general_knowledge"

// fallbackTool answers from model knowledge alone, with no retrieval and no
// sources. It is the tool of last resort when no document is relevant.
type fallbackTool struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func newFallbackTool(llmProvider llm.LLMProvider, logger *log.Logger) Tool {
	return &fallbackTool{llmProvider: llmProvider, logger: logger}
}

func (t *fallbackTool) Name() string {
	return FallbackToolName
}

func (t *fallbackTool) Description() string {
	return "Answers general questions from the model's own knowledge. Use this when none of the uploaded documents is relevant to the question."
}

func (t *fallbackTool) Invoke(ctx context.Context, query string) store.ToolResult {
	answer, err := t.llmProvider.Generate(ctx, query)
	if err != nil {
		t.logger.Printf("[WARN] Fallback tool failed: %v", err)
		return store.ToolResult{
			AnswerText: "Error answering from general knowledge: " + err.Error(),
			Sources:    []store.Source{},
		}
	}
	return store.ToolResult{
		AnswerText: answer,
		Sources:    []store.Source{},
	}
}

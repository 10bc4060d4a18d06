package agent

import (
	"context"
	"testing"

	"docuchat-be/pkg/store"
)

func TestRunGeneralKnowledgeOnlyTerminatesInTwoIterations(t *testing.T) {
	fake := &fakeLLM{
		chatReplies: []string{
			`{"action":"tool","tool":"general_knowledge","input":"capital of France"}`,
			`{"action":"finish","answer":"The capital of France is Paris."}`,
		},
		generateReplies: []string{"The capital of France is Paris."},
	}

	orch := NewOrchestrator(fake, 0, testLogger())
	tools := AssembleTools(fake, testLogger())

	result := orch.Run(context.Background(), "What is the capital of France?", nil, tools)

	if result.ResponseText != "The capital of France is Paris." {
		t.Errorf("ResponseText = %q", result.ResponseText)
	}
	if fake.chatCalls > 2 {
		t.Errorf("chat calls = %d, want <= 2", fake.chatCalls)
	}
	if len(result.Sources) != 0 {
		t.Errorf("Sources = %v, want none from fallback tool", result.Sources)
	}
}

func TestRunParseFailureRecoveredByOneRetry(t *testing.T) {
	fake := &fakeLLM{
		chatReplies: []string{
			"hmm, I should probably search something",
			`{"action":"finish","answer":"done"}`,
		},
	}

	orch := NewOrchestrator(fake, 5, testLogger())
	result := orch.Run(context.Background(), "q", nil, AssembleTools(fake, testLogger()))

	if result.ResponseText != "done" {
		t.Errorf("ResponseText = %q, want recovered answer", result.ResponseText)
	}
	if fake.chatCalls != 2 {
		t.Errorf("chat calls = %d, want 2 (original + retry)", fake.chatCalls)
	}
}

func TestRunParseFailureTwiceEndsRun(t *testing.T) {
	fake := &fakeLLM{
		chatReplies: []string{"garbage one", "garbage two"},
	}

	orch := NewOrchestrator(fake, 5, testLogger())
	result := orch.Run(context.Background(), "q", nil, AssembleTools(fake, testLogger()))

	if result.ResponseText == "" {
		t.Fatal("ResponseText is empty, must always carry text")
	}
	if result.ResponseText != exhaustedAnswer {
		t.Errorf("ResponseText = %q, want exhausted answer (no observations)", result.ResponseText)
	}
}

func TestRunUnknownToolTreatedAsDecodeFailure(t *testing.T) {
	fake := &fakeLLM{
		chatReplies: []string{
			`{"action":"tool","tool":"no_such_tool","input":"x"}`,
			`{"action":"finish","answer":"recovered"}`,
		},
	}

	orch := NewOrchestrator(fake, 5, testLogger())
	result := orch.Run(context.Background(), "q", nil, AssembleTools(fake, testLogger()))

	if result.ResponseText != "recovered" {
		t.Errorf("ResponseText = %q, want %q", result.ResponseText, "recovered")
	}
}

func TestRunIterationCeilingReturnsBestPartial(t *testing.T) {
	doc := &stubTool{
		name:        "search_doc1",
		description: "search doc1",
		result: store.ToolResult{
			AnswerText: "partial finding",
			Sources:    []store.Source{{Snippet: "snip", DocumentName: "doc1.pdf"}},
		},
	}

	fake := &fakeLLM{
		chatReplies: []string{
			`{"action":"tool","tool":"search_doc1","input":"a"}`,
			`{"action":"tool","tool":"search_doc1","input":"b"}`,
			`{"action":"tool","tool":"search_doc1","input":"c"}`,
		},
	}

	orch := NewOrchestrator(fake, 3, testLogger())
	result := orch.Run(context.Background(), "q", nil, AssembleTools(fake, testLogger(), doc))

	if doc.invocations != 3 {
		t.Errorf("tool invocations = %d, want 3 (ceiling)", doc.invocations)
	}
	if result.ResponseText != "partial finding" {
		t.Errorf("ResponseText = %q, want last tool answer", result.ResponseText)
	}
	if len(result.Sources) != 3 {
		t.Errorf("Sources = %d, want 3 (concatenated, not deduplicated)", len(result.Sources))
	}
}

func TestRunSourcesConcatenatedInInvocationOrder(t *testing.T) {
	first := &stubTool{
		name: "search_a", description: "a",
		result: store.ToolResult{
			AnswerText: "from a",
			Sources:    []store.Source{{Snippet: "A1", DocumentName: "a.pdf"}},
		},
	}
	second := &stubTool{
		name: "search_b", description: "b",
		result: store.ToolResult{
			AnswerText: "from b",
			Sources:    []store.Source{{Snippet: "B1", DocumentName: "b.pdf"}},
		},
	}

	fake := &fakeLLM{
		chatReplies: []string{
			`{"action":"tool","tool":"search_a","input":"x"}`,
			`{"action":"tool","tool":"search_b","input":"y"}`,
			`{"action":"finish","answer":"combined"}`,
		},
	}

	orch := NewOrchestrator(fake, 10, testLogger())
	result := orch.Run(context.Background(), "q", nil, AssembleTools(fake, testLogger(), first, second))

	if len(result.Sources) != 2 {
		t.Fatalf("Sources = %d, want 2", len(result.Sources))
	}
	if result.Sources[0].Snippet != "A1" || result.Sources[1].Snippet != "B1" {
		t.Errorf("Sources out of invocation order: %+v", result.Sources)
	}
}

func TestRunFailingToolDoesNotAbortLoop(t *testing.T) {
	broken := &stubTool{
		name: "search_broken", description: "broken",
		result: store.ToolResult{
			AnswerText: "Error querying document: connection refused",
			Sources:    []store.Source{},
		},
	}

	fake := &fakeLLM{
		chatReplies: []string{
			`{"action":"tool","tool":"search_broken","input":"x"}`,
			`{"action":"finish","answer":"answered despite the failure"}`,
		},
	}

	orch := NewOrchestrator(fake, 10, testLogger())
	result := orch.Run(context.Background(), "q", nil, AssembleTools(fake, testLogger(), broken))

	if result.ResponseText != "answered despite the failure" {
		t.Errorf("ResponseText = %q", result.ResponseText)
	}
	if broken.invocations != 1 {
		t.Errorf("invocations = %d, want 1", broken.invocations)
	}
}

func TestRunLLMErrorYieldsReadableFailure(t *testing.T) {
	fake := &fakeLLM{chatErr: context.DeadlineExceeded}

	orch := NewOrchestrator(fake, 5, testLogger())
	result := orch.Run(context.Background(), "q", nil, AssembleTools(fake, testLogger()))

	if result.ResponseText == "" {
		t.Fatal("ResponseText must never be empty")
	}
	if len(result.Sources) != 0 {
		t.Errorf("Sources = %v, want empty on total failure", result.Sources)
	}
}

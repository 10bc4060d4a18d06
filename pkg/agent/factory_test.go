package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docuchat-be/pkg/rag"
	"docuchat-be/pkg/store"
)

func docScope() store.TenantScope {
	return store.TenantScope{UserId: "u1", ChatId: "c1", DocumentId: "doc-1234-5678"}
}

func TestBuildToolsRejectsIncompleteScope(t *testing.T) {
	factory := NewToolFactory(&fakeRetriever{}, testLogger())

	incomplete := []store.TenantScope{
		{},
		{UserId: "u1"},
		{UserId: "u1", ChatId: "c1"}, // no document id
		{ChatId: "c1", DocumentId: "d1"},
	}

	for _, scope := range incomplete {
		if _, _, err := factory.BuildTools(scope, "report.pdf"); !errors.Is(err, store.ErrScopeViolation) {
			t.Errorf("BuildTools(%+v) error = %v, want ErrScopeViolation", scope, err)
		}
	}
}

func TestVectorToolEmptyQueryNeverHitsStore(t *testing.T) {
	retriever := &fakeRetriever{}
	factory := NewToolFactory(retriever, testLogger())

	vector, _, err := factory.BuildTools(docScope(), "report.pdf")
	if err != nil {
		t.Fatalf("BuildTools: %v", err)
	}

	for _, query := range []string{"", "   ", "\n\t"} {
		result := vector.Invoke(context.Background(), query)
		if !strings.Contains(result.AnswerText, "invalid query") {
			t.Errorf("Invoke(%q) = %q, want invalid-query result", query, result.AnswerText)
		}
		if result.Sources == nil || len(result.Sources) != 0 {
			t.Errorf("Invoke(%q) sources = %v, want empty non-nil", query, result.Sources)
		}
	}

	if retriever.calls != 0 {
		t.Errorf("retriever called %d times, want 0", retriever.calls)
	}
}

func TestVectorToolCarriesExactScope(t *testing.T) {
	retriever := &fakeRetriever{result: &rag.Result{
		AnswerText: "grounded answer",
		Sources:    []store.Source{{Snippet: "s", PageLabel: "2", DocumentName: "report.pdf"}},
	}}
	factory := NewToolFactory(retriever, testLogger())

	scope := docScope()
	vector, _, err := factory.BuildTools(scope, "report.pdf")
	if err != nil {
		t.Fatalf("BuildTools: %v", err)
	}

	result := vector.Invoke(context.Background(), "what is the revenue?")
	if result.AnswerText != "grounded answer" {
		t.Errorf("AnswerText = %q", result.AnswerText)
	}
	if retriever.lastScope != scope {
		t.Errorf("retriever scope = %+v, want %+v", retriever.lastScope, scope)
	}
	if retriever.lastMode != rag.ModeCompact {
		t.Errorf("mode = %q, want compact", retriever.lastMode)
	}
}

func TestVectorToolZeroHits(t *testing.T) {
	factory := NewToolFactory(&fakeRetriever{}, testLogger())

	vector, _, _ := factory.BuildTools(docScope(), "report.pdf")
	result := vector.Invoke(context.Background(), "anything at all")

	if result.AnswerText != "no relevant information found" {
		t.Errorf("AnswerText = %q", result.AnswerText)
	}
	if len(result.Sources) != 0 {
		t.Errorf("Sources = %v, want empty", result.Sources)
	}
}

func TestToolErrorIsAbsorbed(t *testing.T) {
	retriever := &fakeRetriever{err: errors.New("connection refused")}
	factory := NewToolFactory(retriever, testLogger())

	vector, summary, _ := factory.BuildTools(docScope(), "report.pdf")

	for _, tool := range []Tool{vector, summary} {
		result := tool.Invoke(context.Background(), "some query")
		if !strings.HasPrefix(result.AnswerText, "Error querying document:") {
			t.Errorf("%s result = %q, want error-text result", tool.Name(), result.AnswerText)
		}
		if result.Sources == nil || len(result.Sources) != 0 {
			t.Errorf("%s sources = %v, want empty non-nil", tool.Name(), result.Sources)
		}
	}
}

func TestSummaryToolDefaultQueryAndMode(t *testing.T) {
	retriever := &fakeRetriever{result: &rag.Result{
		AnswerText: "the whole story",
		Sources:    []store.Source{{Snippet: "s", DocumentName: "report.pdf"}},
	}}
	factory := NewToolFactory(retriever, testLogger())

	_, summary, _ := factory.BuildTools(docScope(), "report.pdf")
	summary.Invoke(context.Background(), "  ")

	if retriever.lastQuery != DefaultSummaryQuery {
		t.Errorf("query = %q, want default summary query", retriever.lastQuery)
	}
	if retriever.lastMode != rag.ModeTreeSummarize {
		t.Errorf("mode = %q, want tree_summarize", retriever.lastMode)
	}
}

func TestToolDescriptionsEmbedDocumentName(t *testing.T) {
	factory := NewToolFactory(&fakeRetriever{}, testLogger())

	vector, summary, _ := factory.BuildTools(docScope(), "quarterly-report.pdf")
	if !strings.Contains(vector.Description(), "quarterly-report.pdf") {
		t.Errorf("vector description %q does not mention the document", vector.Description())
	}
	if !strings.Contains(summary.Description(), "quarterly-report.pdf") {
		t.Errorf("summary description %q does not mention the document", summary.Description())
	}
	if vector.Name() == summary.Name() {
		t.Errorf("tool names collide: %q", vector.Name())
	}
}

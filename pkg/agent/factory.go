package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"docuchat-be/pkg/rag"
	"docuchat-be/pkg/store"
)

// DefaultSummaryQuery is used when the summary tool is invoked with no input.
const DefaultSummaryQuery = "Provide a comprehensive summary of this document, covering all of its main topics and conclusions."

// Retriever is the slice of the retrieval layer the tools need.
type Retriever interface {
	Retrieve(ctx context.Context, scope store.TenantScope, query string, mode rag.Mode) (*rag.Result, error)
}

// ToolFactory builds the per-document tool pair. Tools are constructed fresh
// for every query request and discarded afterwards; the tenant scope and the
// chat's document set can change between calls, so nothing is cached.
type ToolFactory struct {
	retriever Retriever
	logger    *log.Logger
}

func NewToolFactory(retriever Retriever, logger *log.Logger) *ToolFactory {
	return &ToolFactory{retriever: retriever, logger: logger}
}

// BuildTools returns the targeted-search tool and the summarization tool for
// one document. The scope must be document-complete; both tools filter every
// retrieval by exact equality on all scope fields.
func (f *ToolFactory) BuildTools(scope store.TenantScope, documentName string) (Tool, Tool, error) {
	if err := scope.ValidateDocument(); err != nil {
		return nil, nil, err
	}

	shortId := scope.DocumentId
	if len(shortId) > 8 {
		shortId = shortId[:8]
	}

	vector := &documentTool{
		name: fmt.Sprintf("search_%s", shortId),
		description: fmt.Sprintf(
			"Searches the document %q for passages relevant to a specific question. Use this for targeted questions about %q.",
			documentName, documentName,
		),
		mode:         rag.ModeCompact,
		scope:        scope,
		documentName: documentName,
		retriever:    f.retriever,
		logger:       f.logger,
	}

	summary := &documentTool{
		name: fmt.Sprintf("summarize_%s", shortId),
		description: fmt.Sprintf(
			"Produces a broad summary or synthesis of the document %q. Use this when the question asks about %q as a whole.",
			documentName, documentName,
		),
		mode:         rag.ModeTreeSummarize,
		scope:        scope,
		documentName: documentName,
		retriever:    f.retriever,
		defaultQuery: DefaultSummaryQuery,
		logger:       f.logger,
	}

	return vector, summary, nil
}

// documentTool performs scope-filtered retrieval against one document.
// Errors from the retrieval collaborator are converted into textual results.
type documentTool struct {
	name         string
	description  string
	mode         rag.Mode
	scope        store.TenantScope
	documentName string
	defaultQuery string
	retriever    Retriever
	logger       *log.Logger
}

func (t *documentTool) Name() string        { return t.name }
func (t *documentTool) Description() string { return t.description }

func (t *documentTool) Invoke(ctx context.Context, query string) store.ToolResult {
	query = strings.TrimSpace(query)
	if query == "" {
		if t.defaultQuery == "" {
			// Vector tool: an empty query never reaches the chunk store.
			return store.ToolResult{
				AnswerText: "invalid query: a non-empty search query is required",
				Sources:    []store.Source{},
			}
		}
		query = t.defaultQuery
	}

	result, err := t.retriever.Retrieve(ctx, t.scope, query, t.mode)
	if err != nil {
		t.logger.Printf("[WARN] Tool %s failed: %v", t.name, err)
		return store.ToolResult{
			AnswerText: fmt.Sprintf("Error querying document: %v", err),
			Sources:    []store.Source{},
		}
	}

	if len(result.Sources) == 0 {
		return store.ToolResult{
			AnswerText: "no relevant information found",
			Sources:    []store.Source{},
		}
	}

	return store.ToolResult{
		AnswerText: result.AnswerText,
		Sources:    result.Sources,
	}
}

package rag

import (
	"context"
	"fmt"
	"log"
	"strings"

	"docuchat-be/pkg/embedding"
	"docuchat-be/pkg/llm"
	"docuchat-be/pkg/store"
)

// Mode selects how retrieved chunks are synthesized into an answer.
type Mode string

const (
	// ModeCompact stuffs the top-k chunks into a single answer prompt.
	ModeCompact Mode = "compact"
	// ModeTreeSummarize retrieves broadly, summarizes chunk groups, then
	// reduces the group summaries into one answer.
	ModeTreeSummarize Mode = "tree_summarize"
)

// ChunkSearcher is the narrow contract the retriever needs from the chunk
// store. The scope filter is applied by the implementation with exact
// equality on every scope field.
type ChunkSearcher interface {
	SearchSimilar(ctx context.Context, queryEmbedding []float32, scope store.TenantScope, limit int) ([]store.ScoredChunk, error)
}

// Config encapsulates retrieval parameters
type Config struct {
	TopK        int // compact mode
	SummaryTopK int // tree_summarize mode, broad retrieval
	GroupSize   int // chunks per intermediate summary
	SnippetLen  int // source snippet length in runes
}

// DefaultConfig returns default retrieval configuration
func DefaultConfig() Config {
	return Config{
		TopK:        5,
		SummaryTopK: 50,
		GroupSize:   10,
		SnippetLen:  200,
	}
}

// Result is a synthesized answer plus the chunks that grounded it, in the
// order the search returned them.
type Result struct {
	AnswerText string
	Sources    []store.Source
}

// Retriever runs scope-filtered similarity search and answer synthesis.
type Retriever struct {
	embeddingProvider embedding.EmbeddingProvider
	searcher          ChunkSearcher
	llmProvider       llm.LLMProvider
	config            Config
	logger            *log.Logger
}

// NewRetriever creates a new scoped retriever
func NewRetriever(
	embeddingProvider embedding.EmbeddingProvider,
	searcher ChunkSearcher,
	llmProvider llm.LLMProvider,
	config Config,
	logger *log.Logger,
) *Retriever {
	return &Retriever{
		embeddingProvider: embeddingProvider,
		searcher:          searcher,
		llmProvider:       llmProvider,
		config:            config,
		logger:            logger,
	}
}

// Retrieve searches the chunk store under the given document scope and
// synthesizes an answer. A scope missing any field is rejected before any
// store call. Zero hits produce an empty-source result with no answer text;
// the caller decides how to phrase that.
func (r *Retriever) Retrieve(ctx context.Context, scope store.TenantScope, query string, mode Mode) (*Result, error) {
	if err := scope.ValidateDocument(); err != nil {
		return nil, err
	}

	embeddingRes, err := r.embeddingProvider.Generate(query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	limit := r.config.TopK
	if mode == ModeTreeSummarize {
		limit = r.config.SummaryTopK
	}

	chunks, err := r.searcher.SearchSimilar(ctx, embeddingRes.Embedding.Values, scope, limit)
	if err != nil {
		r.logger.Printf("[ERROR] Vector search failed: %v", err)
		return nil, err
	}

	r.logger.Printf("[DEBUG] Retrieved %d chunks (mode=%s, doc=%s)", len(chunks), mode, scope.DocumentId)

	if len(chunks) == 0 {
		return &Result{Sources: []store.Source{}}, nil
	}

	var answer string
	switch mode {
	case ModeTreeSummarize:
		answer, err = r.synthesizeTree(ctx, query, chunks)
	default:
		answer, err = r.synthesizeCompact(ctx, query, chunks)
	}
	if err != nil {
		return nil, err
	}

	return &Result{
		AnswerText: answer,
		Sources:    r.buildSources(chunks),
	}, nil
}

// synthesizeCompact answers the query from all chunks stuffed into a single
// grounded prompt.
func (r *Retriever) synthesizeCompact(ctx context.Context, query string, chunks []store.ScoredChunk) (string, error) {
	var prompt strings.Builder

	prompt.WriteString("<grounded_reference_material>\n")
	prompt.WriteString("CRITICAL: This is the ONLY data source. Do NOT use outside knowledge.\n\n")
	for i, c := range chunks {
		prompt.WriteString(fmt.Sprintf("--- EXCERPT %d (page %s of %s) ---\n", i+1, c.PageLabel, c.DocumentName))
		prompt.WriteString(c.Text)
		prompt.WriteString("\n")
	}
	prompt.WriteString("</grounded_reference_material>\n\n")
	prompt.WriteString("Answer the question using ONLY the material above. ")
	prompt.WriteString("If the material does not contain the answer, say so plainly.\n\n")
	prompt.WriteString("Question: " + query)

	answer, err := r.llmProvider.Generate(ctx, prompt.String(), llm.WithTemperature(0.1))
	if err != nil {
		return "", fmt.Errorf("answer synthesis failed: %w", err)
	}
	return answer, nil
}

// synthesizeTree summarizes chunk groups first, then reduces the summaries.
func (r *Retriever) synthesizeTree(ctx context.Context, query string, chunks []store.ScoredChunk) (string, error) {
	groupSize := r.config.GroupSize
	if groupSize <= 0 {
		groupSize = 10
	}

	var summaries []string
	for start := 0; start < len(chunks); start += groupSize {
		end := start + groupSize
		if end > len(chunks) {
			end = len(chunks)
		}

		var sb strings.Builder
		for _, c := range chunks[start:end] {
			sb.WriteString(c.Text)
			sb.WriteString("\n\n")
		}

		prompt := fmt.Sprintf(
			"Summarize the following document excerpts, keeping every detail relevant to: %s\n\n%s",
			query, sb.String(),
		)
		summary, err := r.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.1))
		if err != nil {
			return "", fmt.Errorf("group summarization failed: %w", err)
		}
		summaries = append(summaries, summary)
	}

	if len(summaries) == 1 {
		return summaries[0], nil
	}

	reducePrompt := fmt.Sprintf(
		"The following are partial summaries of one document. Combine them into a single coherent answer to: %s\n\n%s",
		query, strings.Join(summaries, "\n---\n"),
	)
	answer, err := r.llmProvider.Generate(ctx, reducePrompt, llm.WithTemperature(0.1))
	if err != nil {
		return "", fmt.Errorf("summary reduction failed: %w", err)
	}
	return answer, nil
}

func (r *Retriever) buildSources(chunks []store.ScoredChunk) []store.Source {
	sources := make([]store.Source, 0, len(chunks))
	for _, c := range chunks {
		sources = append(sources, store.Source{
			Snippet:      snippet(c.Text, r.config.SnippetLen),
			PageLabel:    c.PageLabel,
			DocumentName: c.DocumentName,
		})
	}
	return sources
}

func snippet(text string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 200
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "..."
}

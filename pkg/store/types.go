package store

import (
	"errors"
	"strings"
)

// ErrScopeViolation is returned when an operation is attempted with an
// incomplete tenant scope. It is rejected before any store call is made.
var ErrScopeViolation = errors.New("malformed tenant scope")

// TenantScope is the tenant-isolation key. Every chunk written or read
// carries a user and chat id; document-level operations also carry the
// document id. The scope is used as an exact-match filter, never interpreted.
type TenantScope struct {
	UserId     string `json:"user_id"`
	ChatId     string `json:"chat_id"`
	DocumentId string `json:"document_id,omitempty"`
}

// Validate checks the chat-wide invariant: user and chat must be present.
func (s TenantScope) Validate() error {
	if strings.TrimSpace(s.UserId) == "" || strings.TrimSpace(s.ChatId) == "" {
		return ErrScopeViolation
	}
	return nil
}

// ValidateDocument checks the document-scoped invariant.
func (s TenantScope) ValidateDocument() error {
	if err := s.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(s.DocumentId) == "" {
		return ErrScopeViolation
	}
	return nil
}

// WithDocument returns a copy of the scope narrowed to one document.
func (s TenantScope) WithDocument(documentId string) TenantScope {
	s.DocumentId = documentId
	return s
}

// Chunk is the atom of retrieval: a unit of ingested text plus the scope
// metadata it was indexed under.
type Chunk struct {
	Text         string      `json:"text"`
	Scope        TenantScope `json:"scope"`
	PageLabel    string      `json:"page_label"`
	DocumentName string      `json:"document_name"`
}

// ScoredChunk is a chunk with the similarity score the search returned.
// Ranking order is whatever the search collaborator produced.
type ScoredChunk struct {
	Chunk
	Similarity float64 `json:"similarity"`
}

// Source points back at the retrieved material that grounded an answer.
type Source struct {
	Snippet      string `json:"snippet"`
	PageLabel    string `json:"page_label"`
	DocumentName string `json:"document_name"`
}

// ToolResult is what every tool invocation produces. Sources may be empty
// but is never nil.
type ToolResult struct {
	AnswerText string   `json:"answer_text"`
	Sources    []Source `json:"sources"`
}

// ChatTurn is one query/response pair in a chat's history. Append-only,
// read back in insertion order.
type ChatTurn struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

// Document ingestion statuses.
const (
	DocumentStatusProcessing = "processing"
	DocumentStatusReady      = "ready"
	DocumentStatusFailed     = "failed"
)

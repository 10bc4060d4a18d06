package events

import "time"

// Event type codes emitted by the document-chat pipeline.
const (
	TypeDocumentIngested  = "DOCUMENT_INGESTED"
	TypeDocumentFailed    = "DOCUMENT_INGESTION_FAILED"
	TypeChatTurnAppended  = "CHAT_TURN_APPENDED"
)

// NewDocumentIngested signals that a document's chunks are indexed and the
// document is queryable within its chat.
func NewDocumentIngested(userId, chatId, documentId string, chunkCount int) Event {
	return BaseEvent{
		Type: TypeDocumentIngested,
		Data: map[string]interface{}{
			"user_id":     userId,
			"chat_id":     chatId,
			"document_id": documentId,
			"chunk_count": chunkCount,
		},
		OccurredAt: time.Now(),
	}
}

// NewDocumentFailed signals that ingestion gave up on a document.
func NewDocumentFailed(userId, chatId, documentId, reason string) Event {
	return BaseEvent{
		Type: TypeDocumentFailed,
		Data: map[string]interface{}{
			"user_id":     userId,
			"chat_id":     chatId,
			"document_id": documentId,
			"reason":      reason,
		},
		OccurredAt: time.Now(),
	}
}

// NewChatTurnAppended signals that a query/response pair was persisted.
func NewChatTurnAppended(userId, chatId string) Event {
	return BaseEvent{
		Type: TypeChatTurnAppended,
		Data: map[string]interface{}{
			"user_id": userId,
			"chat_id": chatId,
		},
		OccurredAt: time.Now(),
	}
}

package sessionstore

import (
	"context"

	"docuchat-be/pkg/store"
)

// SessionStore holds the conversational state of a chat: the user's active
// chat pointer, the set of documents attached to each chat, and the ordered
// query/response history. The Redis implementation is the primary store; the
// in-memory one serves as a degraded fallback when Redis is unreachable.
type SessionStore interface {
	ActiveChat(ctx context.Context, userId string) (string, error)
	SetActiveChat(ctx context.Context, userId, chatId string) error

	RegisterDocument(ctx context.Context, userId, chatId, documentId string) error
	DocumentIds(ctx context.Context, userId, chatId string) ([]string, error)

	AppendTurn(ctx context.Context, userId, chatId string, turn store.ChatTurn) error
	History(ctx context.Context, userId, chatId string) ([]store.ChatTurn, error)
}

package sessionstore

import (
	"context"
	"fmt"
	"testing"

	"docuchat-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionStore_ActiveChat(t *testing.T) {
	s := NewMemorySessionStore()
	ctx := context.Background()

	chatId, err := s.ActiveChat(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, chatId, "no active chat before SetActiveChat")

	require.NoError(t, s.SetActiveChat(ctx, "user-1", "chat-1"))

	chatId, err = s.ActiveChat(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "chat-1", chatId)

	// Other users are unaffected
	chatId, err = s.ActiveChat(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, chatId)
}

func TestMemorySessionStore_DocumentIds(t *testing.T) {
	s := NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, s.RegisterDocument(ctx, "u", "c", "doc-a"))
	require.NoError(t, s.RegisterDocument(ctx, "u", "c", "doc-b"))
	require.NoError(t, s.RegisterDocument(ctx, "u", "c", "doc-a")) // duplicate

	ids, err := s.DocumentIds(ctx, "u", "c")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"doc-a", "doc-b"}, ids)

	other, err := s.DocumentIds(ctx, "u", "other-chat")
	require.NoError(t, err)
	assert.Empty(t, other, "documents are scoped to their chat")
}

func TestMemorySessionStore_HistoryOrder(t *testing.T) {
	s := NewMemorySessionStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		turn := store.ChatTurn{
			Query:    fmt.Sprintf("q%d", i),
			Response: fmt.Sprintf("r%d", i),
		}
		require.NoError(t, s.AppendTurn(ctx, "u", "c", turn))
	}

	turns, err := s.History(ctx, "u", "c")
	require.NoError(t, err)
	require.Len(t, turns, 5)
	for i, turn := range turns {
		assert.Equal(t, fmt.Sprintf("q%d", i), turn.Query, "history keeps insertion order")
	}
}

func TestMemorySessionStore_HistoryReturnsCopy(t *testing.T) {
	s := NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, s.AppendTurn(ctx, "u", "c", store.ChatTurn{Query: "q", Response: "r"}))

	turns, err := s.History(ctx, "u", "c")
	require.NoError(t, err)
	turns[0].Response = "mutated"

	again, err := s.History(ctx, "u", "c")
	require.NoError(t, err)
	assert.Equal(t, "r", again[0].Response)
}

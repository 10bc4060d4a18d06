package service

import (
	"context"
	"strings"
	"testing"

	"docuchat-be/internal/repository/sessionstore"
	"docuchat-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionService_StartChatMintsGuestIdentity(t *testing.T) {
	svc := NewSessionService(sessionstore.NewMemorySessionStore())

	resp, err := svc.StartChat(context.Background(), "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.UserId, "guest-"), "anonymous callers get a guest identity")
	assert.NotEmpty(t, resp.ChatId)
}

func TestSessionService_StartChatIsIdempotent(t *testing.T) {
	svc := NewSessionService(sessionstore.NewMemorySessionStore())
	ctx := context.Background()

	first, err := svc.StartChat(ctx, "user-1")
	require.NoError(t, err)

	second, err := svc.StartChat(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, first.ChatId, second.ChatId, "repeated starts reuse the active chat")
	assert.Equal(t, "user-1", second.UserId)
}

func TestSessionService_StartChatIsolatesUsers(t *testing.T) {
	svc := NewSessionService(sessionstore.NewMemorySessionStore())
	ctx := context.Background()

	a, err := svc.StartChat(ctx, "user-a")
	require.NoError(t, err)
	b, err := svc.StartChat(ctx, "user-b")
	require.NoError(t, err)

	assert.NotEqual(t, a.ChatId, b.ChatId)
}

func TestSessionService_HistoryRoundTrip(t *testing.T) {
	svc := NewSessionService(sessionstore.NewMemorySessionStore())
	ctx := context.Background()

	started, err := svc.StartChat(ctx, "user-1")
	require.NoError(t, err)

	turns := []store.ChatTurn{
		{Query: "what is the report about?", Response: "Quarterly revenue."},
		{Query: "and the conclusion?", Response: "Growth of 12%."},
	}
	for _, turn := range turns {
		require.NoError(t, svc.AppendTurn(ctx, started.UserId, started.ChatId, turn))
	}

	resp, err := svc.GetHistory(ctx, started.UserId, started.ChatId)
	require.NoError(t, err)
	require.Len(t, resp.History, 2)
	assert.Equal(t, "what is the report about?", resp.History[0].Query)
	assert.Equal(t, "Growth of 12%.", resp.History[1].Response)
}

func TestSessionService_HistoryRejectsIncompleteScope(t *testing.T) {
	svc := NewSessionService(sessionstore.NewMemorySessionStore())

	_, err := svc.GetHistory(context.Background(), "user-1", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrScopeViolation)
}

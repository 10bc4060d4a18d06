package service

import (
	"context"

	"docuchat-be/internal/dto"
	"docuchat-be/internal/repository/sessionstore"
	"docuchat-be/pkg/store"

	"github.com/google/uuid"
)

type ISessionService interface {
	// StartChat returns the user's active chat, creating one (and a guest
	// identity when userId is empty). Calling it twice for the same user
	// yields the same chat id.
	StartChat(ctx context.Context, userId string) (*dto.StartChatResponse, error)
	GetHistory(ctx context.Context, userId, chatId string) (*dto.ChatHistoryResponse, error)
	AppendTurn(ctx context.Context, userId, chatId string, turn store.ChatTurn) error
}

type sessionService struct {
	sessions sessionstore.SessionStore
}

func NewSessionService(sessions sessionstore.SessionStore) ISessionService {
	return &sessionService{
		sessions: sessions,
	}
}

func (s *sessionService) StartChat(ctx context.Context, userId string) (*dto.StartChatResponse, error) {
	if userId == "" {
		userId = "guest-" + uuid.New().String()
	}

	chatId, err := s.sessions.ActiveChat(ctx, userId)
	if err != nil {
		return nil, err
	}

	if chatId == "" {
		chatId = uuid.New().String()
		if err := s.sessions.SetActiveChat(ctx, userId, chatId); err != nil {
			return nil, err
		}
	}

	return &dto.StartChatResponse{
		UserId: userId,
		ChatId: chatId,
	}, nil
}

func (s *sessionService) GetHistory(ctx context.Context, userId, chatId string) (*dto.ChatHistoryResponse, error) {
	scope := store.TenantScope{UserId: userId, ChatId: chatId}
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	turns, err := s.sessions.History(ctx, userId, chatId)
	if err != nil {
		return nil, err
	}

	history := make([]dto.ChatTurnResponse, len(turns))
	for i, turn := range turns {
		history[i] = dto.ChatTurnResponse{
			Query:    turn.Query,
			Response: turn.Response,
		}
	}

	return &dto.ChatHistoryResponse{History: history}, nil
}

func (s *sessionService) AppendTurn(ctx context.Context, userId, chatId string, turn store.ChatTurn) error {
	scope := store.TenantScope{UserId: userId, ChatId: chatId}
	if err := scope.Validate(); err != nil {
		return err
	}
	return s.sessions.AppendTurn(ctx, userId, chatId, turn)
}

package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"docuchat-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const (
	activeChatKeyPrefix = "active_chat:"
	chatDocsKeyPrefix   = "chat_docs:"
	historyKeyPrefix    = "chat_history:"
)

type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) ActiveChat(ctx context.Context, userId string) (string, error) {
	chatId, err := s.client.Get(ctx, activeChatKeyPrefix+userId).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read active chat: %w", err)
	}
	return chatId, nil
}

func (s *RedisSessionStore) SetActiveChat(ctx context.Context, userId, chatId string) error {
	if err := s.client.Set(ctx, activeChatKeyPrefix+userId, chatId, 0).Err(); err != nil {
		return fmt.Errorf("failed to set active chat: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) RegisterDocument(ctx context.Context, userId, chatId, documentId string) error {
	key := chatDocsKeyPrefix + userId + ":" + chatId
	if err := s.client.SAdd(ctx, key, documentId).Err(); err != nil {
		return fmt.Errorf("failed to register document: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) DocumentIds(ctx context.Context, userId, chatId string) ([]string, error) {
	key := chatDocsKeyPrefix + userId + ":" + chatId
	ids, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list chat documents: %w", err)
	}
	return ids, nil
}

func (s *RedisSessionStore) AppendTurn(ctx context.Context, userId, chatId string, turn store.ChatTurn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to marshal chat turn: %w", err)
	}
	key := historyKeyPrefix + userId + ":" + chatId
	if err := s.client.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("failed to append chat turn: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) History(ctx context.Context, userId, chatId string) ([]store.ChatTurn, error) {
	key := historyKeyPrefix + userId + ":" + chatId
	raw, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read chat history: %w", err)
	}

	turns := make([]store.ChatTurn, 0, len(raw))
	for _, item := range raw {
		var turn store.ChatTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			// Skip entries that fail to decode rather than losing the
			// whole history.
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

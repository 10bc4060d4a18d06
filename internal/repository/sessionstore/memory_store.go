package sessionstore

import (
	"context"
	"sync"
	"time"

	"docuchat-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// MemorySessionStore is the degraded-mode fallback. State lives in process
// memory only and does not survive a restart.
type MemorySessionStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewMemorySessionStore() *MemorySessionStore {
	// Sessions idle for 24 hours are dropped; expired items are purged hourly
	c := cache.New(24*time.Hour, 1*time.Hour)
	return &MemorySessionStore{
		cache: c,
	}
}

func (s *MemorySessionStore) ActiveChat(_ context.Context, userId string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if x, found := s.cache.Get(activeChatKeyPrefix + userId); found {
		return x.(string), nil
	}
	return "", nil
}

func (s *MemorySessionStore) SetActiveChat(_ context.Context, userId, chatId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Set(activeChatKeyPrefix+userId, chatId, cache.DefaultExpiration)
	return nil
}

func (s *MemorySessionStore) RegisterDocument(_ context.Context, userId, chatId, documentId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := chatDocsKeyPrefix + userId + ":" + chatId
	ids := map[string]struct{}{}
	if x, found := s.cache.Get(key); found {
		ids = x.(map[string]struct{})
	}
	ids[documentId] = struct{}{}
	s.cache.Set(key, ids, cache.DefaultExpiration)
	return nil
}

func (s *MemorySessionStore) DocumentIds(_ context.Context, userId, chatId string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := chatDocsKeyPrefix + userId + ":" + chatId
	x, found := s.cache.Get(key)
	if !found {
		return nil, nil
	}

	set := x.(map[string]struct{})
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *MemorySessionStore) AppendTurn(_ context.Context, userId, chatId string, turn store.ChatTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := historyKeyPrefix + userId + ":" + chatId
	var turns []store.ChatTurn
	if x, found := s.cache.Get(key); found {
		turns = x.([]store.ChatTurn)
	}
	turns = append(turns, turn)
	s.cache.Set(key, turns, cache.DefaultExpiration)
	return nil
}

func (s *MemorySessionStore) History(_ context.Context, userId, chatId string) ([]store.ChatTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := historyKeyPrefix + userId + ":" + chatId
	x, found := s.cache.Get(key)
	if !found {
		return nil, nil
	}

	stored := x.([]store.ChatTurn)
	turns := make([]store.ChatTurn, len(stored))
	copy(turns, stored)
	return turns, nil
}

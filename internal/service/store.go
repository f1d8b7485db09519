package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mealwheel/backend/internal/models"
)

// SuggestionStore keeps each user's current suggestion per meal slot. This is
// session-like state owned by the caller's presentation flow, kept outside the
// profile row so a cleared suggestion never touches refresh accounting.
type SuggestionStore interface {
	Get(ctx context.Context, userID uuid.UUID, slot models.MealType) (uuid.UUID, bool, error)
	Set(ctx context.Context, userID uuid.UUID, slot models.MealType, recipeID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID, slot models.MealType) error
	All(ctx context.Context, userID uuid.UUID) (map[models.MealType]uuid.UUID, error)
	ClearAll(ctx context.Context, userID uuid.UUID) error
}

// RedisSuggestionStore stores suggestions in a Redis hash per user.
type RedisSuggestionStore struct {
	client *redis.Client
}

// NewRedisSuggestionStore creates a new RedisSuggestionStore instance
func NewRedisSuggestionStore(client *redis.Client) *RedisSuggestionStore {
	return &RedisSuggestionStore{client: client}
}

var _ SuggestionStore = (*RedisSuggestionStore)(nil)

func suggestionKey(userID uuid.UUID) string {
	return fmt.Sprintf("mealplan:suggestions:%s", userID)
}

func (s *RedisSuggestionStore) Get(ctx context.Context, userID uuid.UUID, slot models.MealType) (uuid.UUID, bool, error) {
	val, err := s.client.HGet(ctx, suggestionKey(userID), string(slot)).Result()
	if err == redis.Nil {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupt suggestion entry for %s/%s: %w", userID, slot, err)
	}
	return id, true, nil
}

func (s *RedisSuggestionStore) Set(ctx context.Context, userID uuid.UUID, slot models.MealType, recipeID uuid.UUID) error {
	return s.client.HSet(ctx, suggestionKey(userID), string(slot), recipeID.String()).Err()
}

func (s *RedisSuggestionStore) Clear(ctx context.Context, userID uuid.UUID, slot models.MealType) error {
	return s.client.HDel(ctx, suggestionKey(userID), string(slot)).Err()
}

func (s *RedisSuggestionStore) All(ctx context.Context, userID uuid.UUID) (map[models.MealType]uuid.UUID, error) {
	entries, err := s.client.HGetAll(ctx, suggestionKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[models.MealType]uuid.UUID, len(entries))
	for slot, val := range entries {
		id, err := uuid.Parse(val)
		if err != nil {
			continue
		}
		out[models.MealType(slot)] = id
	}
	return out, nil
}

func (s *RedisSuggestionStore) ClearAll(ctx context.Context, userID uuid.UUID) error {
	return s.client.Del(ctx, suggestionKey(userID)).Err()
}

// MemorySuggestionStore is an in-process SuggestionStore used in tests and
// single-node setups without Redis.
type MemorySuggestionStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]map[models.MealType]uuid.UUID
}

// NewMemorySuggestionStore creates a new MemorySuggestionStore instance
func NewMemorySuggestionStore() *MemorySuggestionStore {
	return &MemorySuggestionStore{entries: make(map[uuid.UUID]map[models.MealType]uuid.UUID)}
}

var _ SuggestionStore = (*MemorySuggestionStore)(nil)

func (s *MemorySuggestionStore) Get(ctx context.Context, userID uuid.UUID, slot models.MealType) (uuid.UUID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.entries[userID][slot]
	return id, ok, nil
}

func (s *MemorySuggestionStore) Set(ctx context.Context, userID uuid.UUID, slot models.MealType, recipeID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[userID] == nil {
		s.entries[userID] = make(map[models.MealType]uuid.UUID)
	}
	s.entries[userID][slot] = recipeID
	return nil
}

func (s *MemorySuggestionStore) Clear(ctx context.Context, userID uuid.UUID, slot models.MealType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries[userID], slot)
	return nil
}

func (s *MemorySuggestionStore) All(ctx context.Context, userID uuid.UUID) (map[models.MealType]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[models.MealType]uuid.UUID, len(s.entries[userID]))
	for slot, id := range s.entries[userID] {
		out[slot] = id
	}
	return out, nil
}

func (s *MemorySuggestionStore) ClearAll(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
	return nil
}

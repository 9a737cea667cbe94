package inmemory

import (
	"context"
	"sync"

	repo "github.com/JohnSmith0828/task-manager/internal/repository"

	"github.com/google/uuid"
)

type TokenStorage struct {
	tokens map[string]uuid.UUID
	mtx    *sync.RWMutex
}

func NewTokenStorage() *TokenStorage {
	return &TokenStorage{
		tokens: make(map[string]uuid.UUID),
		mtx:    &sync.RWMutex{},
	}
}

func (s *TokenStorage) Save(ctx context.Context, token string, userID uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.tokens[token] = userID
	return nil
}

func (s *TokenStorage) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	userID, ok := s.tokens[token]
	if !ok {
		return uuid.Nil, repo.ErrNotFound
	}
	return userID, nil
}

// отзыв отсутствующего токена не ошибка
func (s *TokenStorage) Revoke(ctx context.Context, token string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	delete(s.tokens, token)
	return nil
}

package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/JohnSmith0828/task-manager/internal/models/user"
	repo "github.com/JohnSmith0828/task-manager/internal/repository"

	"github.com/google/uuid"
)

type UserStorage struct {
	byID       map[uuid.UUID]*user.User
	byUsername map[string]uuid.UUID
	byEmail    map[string]uuid.UUID
	mtx        *sync.RWMutex
}

func NewUserStorage() *UserStorage {
	return &UserStorage{
		byID:       make(map[uuid.UUID]*user.User),
		byUsername: make(map[string]uuid.UUID),
		byEmail:    make(map[string]uuid.UUID),
		mtx:        &sync.RWMutex{},
	}
}

func (s *UserStorage) Create(ctx context.Context, userToCreate *user.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.byUsername[userToCreate.Username]; ok {
		return repo.ErrDuplicate
	}
	if _, ok := s.byEmail[userToCreate.Email]; ok {
		return repo.ErrDuplicate
	}

	userToCreate.CreatedAt = time.Now()

	stored := *userToCreate
	s.byID[userToCreate.ID] = &stored
	s.byUsername[userToCreate.Username] = userToCreate.ID
	s.byEmail[userToCreate.Email] = userToCreate.ID
	return nil
}

func (s *UserStorage) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	existed, ok := s.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	found := *existed
	return &found, nil
}

func (s *UserStorage) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, repo.ErrNotFound
	}
	found := *s.byID[id]
	return &found, nil
}

func (s *UserStorage) Update(ctx context.Context, userToUpdate *user.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.byID[userToUpdate.ID]
	if !ok {
		return repo.ErrNotFound
	}

	// проверка уникальности при смене имени или почты
	if userToUpdate.Username != existed.Username {
		if _, taken := s.byUsername[userToUpdate.Username]; taken {
			return repo.ErrDuplicate
		}
		delete(s.byUsername, existed.Username)
		s.byUsername[userToUpdate.Username] = userToUpdate.ID
	}
	if userToUpdate.Email != existed.Email {
		if _, taken := s.byEmail[userToUpdate.Email]; taken {
			return repo.ErrDuplicate
		}
		delete(s.byEmail, existed.Email)
		s.byEmail[userToUpdate.Email] = userToUpdate.ID
	}

	stored := *userToUpdate
	stored.CreatedAt = existed.CreatedAt
	s.byID[userToUpdate.ID] = &stored
	return nil
}

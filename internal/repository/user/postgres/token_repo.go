package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/JohnSmith0828/task-manager/internal/logger"
	repo "github.com/JohnSmith0828/task-manager/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TokenStorage struct {
	pool *pgxpool.Pool
}

func NewTokenStorage(pool *pgxpool.Pool) *TokenStorage {
	return &TokenStorage{pool: pool}
}

func (s *TokenStorage) Save(ctx context.Context, token string, userID uuid.UUID) error {
	query := `INSERT INTO auth_tokens
				(token, user_id, created_at)
				VALUES ($1, $2, NOW())`

	_, err := s.pool.Exec(ctx, query, token, userID)
	if err != nil {
		logger.Error("Repository: Не удалось сохранить токен", err)
		return fmt.Errorf("сохранение токена: %w", err)
	}
	return nil
}

func (s *TokenStorage) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	query := `SELECT user_id
				FROM auth_tokens
				WHERE token = $1`

	var userID uuid.UUID
	err := s.pool.QueryRow(ctx, query, token).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось проверить токен", err)
		return uuid.Nil, fmt.Errorf("проверка токена: %w", err)
	}
	return userID, nil
}

// Revoke идемпотентен: отзыв уже отсутствующего токена не ошибка,
// наблюдаемое состояние одно и то же.
func (s *TokenStorage) Revoke(ctx context.Context, token string) error {
	query := `DELETE FROM auth_tokens
				WHERE token = $1`

	_, err := s.pool.Exec(ctx, query, token)
	if err != nil {
		logger.Error("Repository: Не удалось отозвать токен", err)
		return fmt.Errorf("отзыв токена: %w", err)
	}
	return nil
}

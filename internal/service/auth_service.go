package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/JohnSmith0828/task-manager/internal/logger"
	"github.com/JohnSmith0828/task-manager/internal/models/user"
	rep "github.com/JohnSmith0828/task-manager/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const minPasswordLen = 8

// bcrypt не учитывает байты после 72-го
const maxPasswordLen = 72

type AuthService struct {
	users  UserRepository
	tokens TokenRepository
	hasher *PasswordHasher
}

func NewAuthService(users UserRepository, tokens TokenRepository, hasher *PasswordHasher) AuthService {
	return AuthService{
		users:  users,
		tokens: tokens,
		hasher: hasher,
	}
}

// Register создаёт пользователя и сразу выдаёт bearer-токен.
// Вся валидация проходит до какой-либо записи.
func (s *AuthService) Register(ctx context.Context, username, email, password, passwordConfirm string) (*user.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, "", NewValidationError("username", "имя пользователя не может быть пустым")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", NewValidationError("email", "неверный формат адреса")
	}
	if len(password) < minPasswordLen {
		return nil, "", NewValidationError("password", "пароль короче 8 символов")
	}
	if len(password) > maxPasswordLen {
		return nil, "", NewValidationError("password", "пароль длиннее 72 символов")
	}
	if password != passwordConfirm {
		return nil, "", NewValidationError("password_confirm", "пароли не совпадают")
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", fmt.Errorf("регистрация: %w", err)
	}

	newUser := &user.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}

	if err := s.users.Create(ctx, newUser); err != nil {
		if errors.Is(err, rep.ErrDuplicate) {
			logger.Info("Service: Повторная регистрация", zap.String("username", username))
			return nil, "", NewConflict("username/email")
		}
		return nil, "", fmt.Errorf("создание пользователя: %w", err)
	}

	token, err := s.issueToken(ctx, newUser.ID)
	if err != nil {
		return nil, "", err
	}

	logger.Info("Service: Пользователь зарегистрирован", zap.String("user_id", newUser.ID.String()))
	return newUser, token, nil
}

// Login проверяет учётные данные. Неизвестный логин и неверный пароль
// дают одну и ту же ошибку.
func (s *AuthService) Login(ctx context.Context, username, password string) (*user.User, string, error) {
	existed, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, "", NewUnauthorized()
		}
		return nil, "", fmt.Errorf("поиск пользователя: %w", err)
	}

	if !s.hasher.Verify(password, existed.PasswordHash) {
		logger.Info("Service: Неудачный вход", zap.String("username", username))
		return nil, "", NewUnauthorized()
	}

	now := time.Now()
	existed.LastLoginAt = &now
	if err := s.users.Update(ctx, existed); err != nil {
		logger.Warn("Service: Не удалось обновить время входа", zap.Error(err))
	}

	token, err := s.issueToken(ctx, existed.ID)
	if err != nil {
		return nil, "", err
	}

	logger.Info("Service: Пользователь вошёл", zap.String("user_id", existed.ID.String()))
	return existed, token, nil
}

// Logout отзывает токен. Отзыв уже отсутствующего токена считается
// успехом: наблюдаемое состояние то же самое.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.tokens.Revoke(ctx, token); err != nil {
		logger.Warn("Service: Ошибка отзыва токена", zap.Error(err))
	}
	return nil
}

// Authenticate превращает bearer-токен в пользователя.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*user.User, error) {
	userID, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewUnauthorized()
		}
		return nil, fmt.Errorf("проверка токена: %w", err)
	}

	existed, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewUnauthorized()
		}
		return nil, fmt.Errorf("поиск пользователя: %w", err)
	}
	return existed, nil
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	existed, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("пользователь", userID.String())
		}
		return nil, fmt.Errorf("поиск пользователя: %w", err)
	}
	return existed, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, options ...user.UserOption) (*user.User, error) {
	existed, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("пользователь", userID.String())
		}
		return nil, fmt.Errorf("поиск пользователя: %w", err)
	}

	for _, opt := range options {
		opt(existed)
	}

	existed.Username = strings.TrimSpace(existed.Username)
	if existed.Username == "" {
		return nil, NewValidationError("username", "имя пользователя не может быть пустым")
	}
	if _, err := mail.ParseAddress(existed.Email); err != nil {
		return nil, NewValidationError("email", "неверный формат адреса")
	}

	if err := s.users.Update(ctx, existed); err != nil {
		if errors.Is(err, rep.ErrDuplicate) {
			return nil, NewConflict("username/email")
		}
		return nil, fmt.Errorf("обновление пользователя: %w", err)
	}
	return existed, nil
}

// issueToken выдаёт непрозрачный токен: 32 случайных байта в hex,
// никакой информации внутри токена нет.
func (s *AuthService) issueToken(ctx context.Context, userID uuid.UUID) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("генерация токена: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := s.tokens.Save(ctx, token, userID); err != nil {
		return "", fmt.Errorf("сохранение токена: %w", err)
	}
	return token, nil
}

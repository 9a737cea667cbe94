package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/JohnSmith0828/task-manager/internal/logger"
	"github.com/JohnSmith0828/task-manager/internal/models/user"

	"go.uber.org/zap"
)

const CurrentUserKey contextKey = "current_user"

// Authenticator превращает bearer-токен в пользователя.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*user.User, error)
}

// Auth требует заголовок Authorization: Bearer <token> и кладёт
// пользователя в контекст. Без валидного токена до сервисов задач
// запрос не доходит.
func Auth(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				logger.Warn("HTTP: Запрос без токена",
					zap.String("path", r.URL.Path),
					zap.String("client_ip", r.RemoteAddr))
				respondUnauthorized(w, "требуется токен авторизации")
				return
			}

			authedUser, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				logger.Warn("HTTP: Невалидный токен",
					zap.String("path", r.URL.Path),
					zap.String("client_ip", r.RemoteAddr))
				respondUnauthorized(w, "невалидный токен")
				return
			}

			ctx := context.WithValue(r.Context(), CurrentUserKey, authedUser)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser достаёт аутентифицированного пользователя из контекста.
func CurrentUser(ctx context.Context) *user.User {
	if u, ok := ctx.Value(CurrentUserKey).(*user.User); ok {
		return u
	}
	return nil
}

// BearerToken извлекает токен из заголовка Authorization.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return ""
	}
	return strings.TrimSpace(token)
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"error":   "UNAUTHORIZED",
		"message": message,
	})
}

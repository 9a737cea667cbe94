package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/JohnSmith0828/task-manager/internal/handlers/dto"
	"github.com/JohnSmith0828/task-manager/internal/logger"
	"github.com/JohnSmith0828/task-manager/internal/middleware"
	"github.com/JohnSmith0828/task-manager/internal/models/user"

	"go.uber.org/zap"
)

type AuthHandler struct {
	AuthService AuthService
}

func NewAuthHandler(authService AuthService) AuthHandler {
	return AuthHandler{
		AuthService: authService,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}
	defer r.Body.Close()

	registered, token, err := h.AuthService.Register(
		r.Context(),
		request.Username,
		request.Email,
		request.Password,
		request.PasswordConfirm,
	)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Пользователь зарегистрирован",
		zap.String("user_id", registered.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, dto.AuthResponse{
		User:    dto.FromUser(registered),
		Token:   token,
		Message: "Регистрация завершена.",
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}
	defer r.Body.Close()

	loggedIn, token, err := h.AuthService.Login(r.Context(), request.Username, request.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Пользователь вошёл",
		zap.String("user_id", loggedIn.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.AuthResponse{
		User:    dto.FromUser(loggedIn),
		Token:   token,
		Message: "Вход выполнен.",
	})
}

// Logout всегда отвечает успехом: после него токен недействителен
// независимо от того, существовал ли он.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	token := middleware.BearerToken(r)
	if err := h.AuthService.Logout(r.Context(), token); err != nil {
		logger.Warn("HTTP: Ошибка при выходе", zap.Error(err))
	}

	responseWithJSON(w, http.StatusOK, map[string]any{"message": "Выход выполнен."})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	current := middleware.CurrentUser(r.Context())

	profile, err := h.AuthService.Profile(r.Context(), current.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responseWithJSON(w, http.StatusOK, dto.FromUser(profile))
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}
	defer r.Body.Close()

	options := []user.UserOption{}
	if request.Username != nil {
		options = append(options, user.WithUsername(*request.Username))
	}
	if request.Email != nil {
		options = append(options, user.WithEmail(*request.Email))
	}

	current := middleware.CurrentUser(r.Context())

	updated, err := h.AuthService.UpdateProfile(r.Context(), current.ID, options...)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Профиль обновлён",
		zap.String("user_id", updated.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.FromUser(updated))
}

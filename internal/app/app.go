package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/JohnSmith0828/task-manager/internal/config"
	"github.com/JohnSmith0828/task-manager/internal/handlers"
	"github.com/JohnSmith0828/task-manager/internal/logger"
	"github.com/JohnSmith0828/task-manager/internal/middleware"
	"github.com/JohnSmith0828/task-manager/internal/migrations"
	"github.com/JohnSmith0828/task-manager/internal/repository"
	taskinmemory "github.com/JohnSmith0828/task-manager/internal/repository/task/inmemory"
	taskpostgres "github.com/JohnSmith0828/task-manager/internal/repository/task/postgres"
	userinmemory "github.com/JohnSmith0828/task-manager/internal/repository/user/inmemory"
	userpostgres "github.com/JohnSmith0828/task-manager/internal/repository/user/postgres"
	"github.com/JohnSmith0828/task-manager/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type App struct {
	config    *config.Config
	server    *http.Server
	shutdowns []func() // функции для graceful shutdown, в порядке добавления
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	var taskRepo service.TaskRepository
	var userRepo service.UserRepository
	var tokenRepo service.TokenRepository

	switch a.config.Repository.Type {
	case "postgres":
		if err := migrations.Up(a.config.Database.URL); err != nil {
			return fmt.Errorf("миграции: %w", err)
		}

		pool, err := repository.NewPool(ctx,
			a.config.Database.URL,
			a.config.Database.MaxConnections,
			a.config.Database.MinConnections,
			a.config.Database.IdleTimeout,
		)
		if err != nil {
			return fmt.Errorf("подключение к БД: %w", err)
		}

		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Закрытие соединений PostgreSQL...")
			pool.Close()
		})

		taskRepo = taskpostgres.New(pool)
		userRepo = userpostgres.NewUserStorage(pool)
		tokenRepo = userpostgres.NewTokenStorage(pool)

	case "inmemory":
		taskRepo = taskinmemory.NewTaskStorage()
		userRepo = userinmemory.NewUserStorage()
		tokenRepo = userinmemory.NewTokenStorage()

	default:
		return fmt.Errorf("неизвестный тип репозитория: %q", a.config.Repository.Type)
	}

	taskService := service.NewTaskService(taskRepo, a.config.API.PageSize)
	authService := service.NewAuthService(userRepo, tokenRepo, service.NewPasswordHasher(a.config.Auth.BcryptCost))

	taskHandler := handlers.NewTaskHandler(&taskService)
	authHandler := handlers.NewAuthHandler(&authService)

	a.server = &http.Server{
		Addr:    a.config.GetServerAddr(),
		Handler: a.router(&taskHandler, &authHandler, &authService),
	}

	return nil
}

func (a *App) router(taskHandler *handlers.TaskHandler, authHandler *handlers.AuthHandler, authService middleware.Authenticator) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
	}))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.RateLimit(a.config.API.RateLimitRPM))

	r.Get("/health", taskHandler.HealthCheck)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register) // POST /api/auth/register
		r.Post("/login", authHandler.Login)       // POST /api/auth/login

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authService))

			r.Post("/logout", authHandler.Logout)        // POST /api/auth/logout
			r.Get("/profile", authHandler.Profile)       // GET /api/auth/profile
			r.Put("/profile", authHandler.UpdateProfile) // PUT /api/auth/profile
		})
	})

	r.Route("/api/tasks", func(r chi.Router) {
		r.Use(middleware.Auth(authService))

		r.Get("/", taskHandler.ListTasks)            // GET /api/tasks
		r.Post("/", taskHandler.CreateTask)          // POST /api/tasks
		r.Get("/statistics", taskHandler.Statistics) // GET /api/tasks/statistics

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", taskHandler.GetTask)           // GET /api/tasks/{id}
			r.Put("/", taskHandler.UpdateTask)        // PUT /api/tasks/{id}
			r.Delete("/", taskHandler.DeleteTask)     // DELETE /api/tasks/{id}
			r.Post("/toggle", taskHandler.ToggleTask) // POST /api/tasks/{id}/toggle
		})
	})

	return r
}

// Run запускает сервер и ждёт отмены контекста для graceful shutdown.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		logger.Info("Server started")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.runShutdowns()
		return fmt.Errorf("запуск сервера: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Остановка сервера...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	a.runShutdowns()
	if err != nil {
		return fmt.Errorf("остановка сервера: %w", err)
	}
	return nil
}

// хуки выполняются в обратном порядке
func (a *App) runShutdowns() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
}

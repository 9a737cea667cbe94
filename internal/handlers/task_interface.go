package handlers

import (
	"context"
	"time"

	"github.com/JohnSmith0828/task-manager/internal/models/task"
	"github.com/JohnSmith0828/task-manager/internal/models/user"
	"github.com/JohnSmith0828/task-manager/internal/service"

	"github.com/google/uuid"
)

type TaskService interface {
	HealthCheck(ctx context.Context) error
	CreateTask(ctx context.Context, ownerID uuid.UUID, title, description string, priority task.Priority, dueDate *time.Time) (*task.Task, error)
	GetTask(ctx context.Context, ownerID, id uuid.UUID) (*task.Task, error)
	ListTasks(ctx context.Context, ownerID uuid.UUID, q task.ListQuery) ([]*task.Task, int, error)
	UpdateTask(ctx context.Context, ownerID, id uuid.UUID, options ...task.TaskOption) (*task.Task, error)
	ToggleTask(ctx context.Context, ownerID, id uuid.UUID) (*task.Task, error)
	DeleteTask(ctx context.Context, ownerID, id uuid.UUID) error
	Statistics(ctx context.Context, ownerID uuid.UUID) (*service.Statistics, error)
}

type AuthService interface {
	Register(ctx context.Context, username, email, password, passwordConfirm string) (*user.User, string, error)
	Login(ctx context.Context, username, password string) (*user.User, string, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*user.User, error)
	Profile(ctx context.Context, userID uuid.UUID) (*user.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, options ...user.UserOption) (*user.User, error)
}

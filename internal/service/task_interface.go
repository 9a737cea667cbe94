package service

import (
	"context"

	"github.com/JohnSmith0828/task-manager/internal/models/task"

	"github.com/google/uuid"
)

type TaskRepository interface {
	Create(ctx context.Context, t *task.Task) error
	GetByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*task.Task, error)
	Update(ctx context.Context, t *task.Task) error
	ToggleCompletion(ctx context.Context, id, ownerID uuid.UUID) (*task.Task, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, q task.ListQuery) ([]*task.Task, int, error)
	GetAllByOwner(ctx context.Context, ownerID uuid.UUID) ([]*task.Task, error)
	HealthCheck(ctx context.Context) error
}

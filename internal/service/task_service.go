package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JohnSmith0828/task-manager/internal/logger"
	"github.com/JohnSmith0828/task-manager/internal/models/task"
	rep "github.com/JohnSmith0828/task-manager/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultPageSize = 10

// Statistics — агрегаты по задачам одного владельца.
// PriorityStats всегда содержит все три приоритета, даже нулевые.
type Statistics struct {
	TotalTasks     int
	CompletedTasks int
	PendingTasks   int
	OverdueTasks   int
	PriorityStats  map[task.Priority]int
}

type TaskService struct {
	repo     TaskRepository
	pageSize int
}

func NewTaskService(repo TaskRepository, pageSize int) TaskService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return TaskService{
		repo:     repo,
		pageSize: pageSize,
	}
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

// CreateTask создаёт задачу. Владелец всегда берётся из аутентифицированного
// вызова, а не из тела запроса: подменить его нельзя.
func (s *TaskService) CreateTask(ctx context.Context, ownerID uuid.UUID, title, description string, priority task.Priority, dueDate *time.Time) (*task.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, NewValidationError("title", "название не может быть пустым")
	}
	if len([]rune(title)) > task.MaxTitleLen {
		return nil, NewValidationError("title", "название длиннее 200 символов")
	}

	if priority == "" {
		priority = task.PriorityMedium
	}
	if !priority.Valid() {
		return nil, NewValidationError("priority", fmt.Sprintf("допустимы low, medium, high, получено %q", priority))
	}

	newTask := &task.Task{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		IsCompleted: false,
		Priority:    priority,
		DueDate:     dueDate,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Create(ctx, newTask); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Задача создана",
		zap.String("task_id", newTask.ID.String()),
		zap.String("owner_id", ownerID.String()))
	return newTask, nil
}

func (s *TaskService) GetTask(ctx context.Context, ownerID, id uuid.UUID) (*task.Task, error) {
	found, err := s.repo.GetByIDForOwner(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return nil, NewNotFound("задача", id.String())
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return found, nil
}

// ListTasks отдаёт страницу задач владельца и общее число совпадений.
func (s *TaskService) ListTasks(ctx context.Context, ownerID uuid.UUID, q task.ListQuery) ([]*task.Task, int, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = s.pageSize
	}
	if q.Order.Field == "" {
		q.Order = task.DefaultOrdering()
	}

	tasks, total, err := s.repo.ListByOwner(ctx, ownerID, q)
	if err != nil {
		return nil, 0, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, total, nil
}

// UpdateTask применяет частичное обновление. Опций для owner_id и
// created_at не существует, так что сменить их нельзя в принципе.
func (s *TaskService) UpdateTask(ctx context.Context, ownerID, id uuid.UUID, options ...task.TaskOption) (*task.Task, error) {
	existed, err := s.repo.GetByIDForOwner(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return nil, NewNotFound("задача", id.String())
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	for _, opt := range options {
		opt(existed)
	}

	existed.Title = strings.TrimSpace(existed.Title)
	if existed.Title == "" {
		return nil, NewValidationError("title", "название не может быть пустым")
	}
	if len([]rune(existed.Title)) > task.MaxTitleLen {
		return nil, NewValidationError("title", "название длиннее 200 символов")
	}
	if !existed.Priority.Valid() {
		return nil, NewValidationError("priority", fmt.Sprintf("допустимы low, medium, high, получено %q", existed.Priority))
	}

	if err := s.repo.Update(ctx, existed); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("задача", id.String())
		}
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}
	return existed, nil
}

// ToggleTask переключает is_completed в обе стороны.
func (s *TaskService) ToggleTask(ctx context.Context, ownerID, id uuid.UUID) (*task.Task, error) {
	toggled, err := s.repo.ToggleCompletion(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return nil, NewNotFound("задача", id.String())
		}
		return nil, fmt.Errorf("переключение задачи: %w", err)
	}
	return toggled, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, ownerID); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return NewNotFound("задача", id.String())
		}
		return fmt.Errorf("удаление задачи: %w", err)
	}

	logger.Info("Service: Задача удалена", zap.String("task_id", id.String()))
	return nil
}

// Statistics считает агрегаты одним проходом по задачам владельца.
// Просроченность берётся из того же предиката, что и в выдаче задач.
func (s *TaskService) Statistics(ctx context.Context, ownerID uuid.UUID) (*Statistics, error) {
	tasks, err := s.repo.GetAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("получение задач для статистики: %w", err)
	}

	stats := &Statistics{
		PriorityStats: make(map[task.Priority]int, 3),
	}
	for _, p := range task.Priorities() {
		stats.PriorityStats[p] = 0
	}

	now := time.Now()
	for _, t := range tasks {
		stats.TotalTasks++
		if t.IsCompleted {
			stats.CompletedTasks++
		}
		if t.IsOverdue(now) {
			stats.OverdueTasks++
		}
		stats.PriorityStats[t.Priority]++
	}
	stats.PendingTasks = stats.TotalTasks - stats.CompletedTasks

	return stats, nil
}

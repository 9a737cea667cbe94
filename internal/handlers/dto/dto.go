package dto

import (
	"time"

	"github.com/JohnSmith0828/task-manager/internal/models/task"
	"github.com/JohnSmith0828/task-manager/internal/models/user"
	"github.com/JohnSmith0828/task-manager/internal/service"

	"github.com/google/uuid"
)

// Тело create/update нарочно не содержит owner_id, created_at и
// updated_at: эти поля клиент задать не может.
type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	IsCompleted *bool      `json:"is_completed,omitempty"`
}

type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	IsCompleted bool       `json:"is_completed"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	IsOverdue   bool       `json:"is_overdue"`
}

func FromTask(t *task.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		Title:       t.Title,
		Description: t.Description,
		IsCompleted: t.IsCompleted,
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		IsOverdue:   t.IsOverdue(time.Now()),
	}
}

type TaskListResponse struct {
	Count   int            `json:"count"`
	Results []TaskResponse `json:"results"`
}

func FromTaskList(tasks []*task.Task, total int) TaskListResponse {
	results := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		results[i] = FromTask(t)
	}
	return TaskListResponse{Count: total, Results: results}
}

type PriorityStats struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// StatisticsResponse всегда содержит все три приоритета,
// потребителю не нужны проверки на отсутствующие ключи.
type StatisticsResponse struct {
	TotalTasks     int           `json:"total_tasks"`
	CompletedTasks int           `json:"completed_tasks"`
	PendingTasks   int           `json:"pending_tasks"`
	OverdueTasks   int           `json:"overdue_tasks"`
	PriorityStats  PriorityStats `json:"priority_stats"`
}

func FromStatistics(stats *service.Statistics) StatisticsResponse {
	return StatisticsResponse{
		TotalTasks:     stats.TotalTasks,
		CompletedTasks: stats.CompletedTasks,
		PendingTasks:   stats.PendingTasks,
		OverdueTasks:   stats.OverdueTasks,
		PriorityStats: PriorityStats{
			Low:    stats.PriorityStats[task.PriorityLow],
			Medium: stats.PriorityStats[task.PriorityMedium],
			High:   stats.PriorityStats[task.PriorityHigh],
		},
	}
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

type UserResponse struct {
	ID         uuid.UUID  `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	DateJoined time.Time  `json:"date_joined"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
}

func FromUser(u *user.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		DateJoined: u.CreatedAt,
		LastLogin:  u.LastLoginAt,
	}
}

type AuthResponse struct {
	User    UserResponse `json:"user"`
	Token   string       `json:"token"`
	Message string       `json:"message"`
}

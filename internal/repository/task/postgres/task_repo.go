package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JohnSmith0828/task-manager/internal/logger"
	"github.com/JohnSmith0828/task-manager/internal/models/task"
	repo "github.com/JohnSmith0828/task-manager/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const taskColumns = `id,
				owner_id,
				title,
				description,
				is_completed,
				priority,
				due_date,
				created_at,
				updated_at`

// метасимволы LIKE в поисковой строке ищутся буквально
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type Storage struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	query := `INSERT INTO tasks
				(id, owner_id, title, description, is_completed, priority, due_date, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
				RETURNING created_at`

	err := s.pool.QueryRow(ctx, query,
		taskToCreate.ID,
		taskToCreate.OwnerID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.IsCompleted,
		taskToCreate.Priority,
		taskToCreate.DueDate,
	).Scan(&taskToCreate.CreatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// GetByIDForOwner ищет задачу по id И владельцу: чужая задача
// даёт тот же ErrNotFound, что и несуществующая.
func (s *Storage) GetByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + `
				FROM tasks
				WHERE id = $1 AND owner_id = $2`

	found := &task.Task{}
	err := s.pool.QueryRow(ctx, query, id, ownerID).Scan(
		&found.ID,
		&found.OwnerID,
		&found.Title,
		&found.Description,
		&found.IsCompleted,
		&found.Priority,
		&found.DueDate,
		&found.CreatedAt,
		&found.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return found, nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				is_completed = $3,
				priority = $4,
				due_date = $5,
				updated_at = NOW()
			WHERE id = $6 AND owner_id = $7
			RETURNING updated_at`

	err := s.pool.QueryRow(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.IsCompleted,
		taskToUpdate.Priority,
		taskToUpdate.DueDate,
		taskToUpdate.ID,
		taskToUpdate.OwnerID,
	).Scan(&taskToUpdate.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// ToggleCompletion переключает is_completed одним UPDATE:
// гонка двух переключений сериализуется на строке.
func (s *Storage) ToggleCompletion(ctx context.Context, id, ownerID uuid.UUID) (*task.Task, error) {
	start := time.Now()

	query := `UPDATE tasks
			SET is_completed = NOT is_completed,
				updated_at = NOW()
			WHERE id = $1 AND owner_id = $2
			RETURNING ` + taskColumns

	toggled := &task.Task{}
	err := s.pool.QueryRow(ctx, query, id, ownerID).Scan(
		&toggled.ID,
		&toggled.OwnerID,
		&toggled.Title,
		&toggled.Description,
		&toggled.IsCompleted,
		&toggled.Priority,
		&toggled.DueDate,
		&toggled.CreatedAt,
		&toggled.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось переключить задачу", err)
		return nil, fmt.Errorf("переключение задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return toggled, nil
}

func (s *Storage) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	start := time.Now()

	query := `DELETE FROM tasks
				WHERE id = $1 AND owner_id = $2`

	tag, err := s.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// ListByOwner собирает WHERE из опциональных фильтров и поиска,
// считает общее число строк и отдаёт страницу.
func (s *Storage) ListByOwner(ctx context.Context, ownerID uuid.UUID, q task.ListQuery) ([]*task.Task, int, error) {
	start := time.Now()

	where := []string{"owner_id = $1"}
	args := []any{ownerID}

	if q.IsCompleted != nil {
		args = append(args, *q.IsCompleted)
		where = append(where, fmt.Sprintf("is_completed = $%d", len(args)))
	}
	if q.Priority != nil {
		args = append(args, *q.Priority)
		where = append(where, fmt.Sprintf("priority = $%d", len(args)))
	}
	if q.Search != "" {
		args = append(args, "%"+likeEscaper.Replace(q.Search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", n, n))
	}

	condition := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM tasks WHERE ` + condition
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		logger.Error("Repository: Не удалось посчитать задачи", err)
		return nil, 0, fmt.Errorf("подсчёт задач: %w", err)
	}

	args = append(args, q.PageSize, (q.Page-1)*q.PageSize)
	listQuery := fmt.Sprintf(`SELECT %s
				FROM tasks
				WHERE %s
				ORDER BY %s
				LIMIT $%d OFFSET $%d`,
		taskColumns, condition, orderClause(q.Order), len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, listQuery, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, 0, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, 0, err
	}

	if time.Since(start) > time.Millisecond*50+time.Millisecond*10*time.Duration(q.PageSize) {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return tasks, total, nil
}

func (s *Storage) GetAllByOwner(ctx context.Context, ownerID uuid.UUID) ([]*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + `
				FROM tasks
				WHERE owner_id = $1
				ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, ownerID)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return tasks, nil
}

// сортировка по приоритету идёт по рангу, а не по алфавиту
func orderClause(order task.Ordering) string {
	var expr string
	switch order.Field {
	case task.OrderUpdatedAt:
		expr = "updated_at"
	case task.OrderDueDate:
		expr = "due_date"
	case task.OrderPriority:
		expr = "CASE priority WHEN 'low' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END"
	default:
		expr = "created_at"
	}

	direction := "ASC"
	if order.Desc {
		direction = "DESC"
	}
	if order.Field == task.OrderCreatedAt || expr == "created_at" {
		return expr + " " + direction
	}
	return expr + " " + direction + ", created_at DESC"
}

func scanTasks(rows pgx.Rows) ([]*task.Task, error) {
	tasks := []*task.Task{}

	for rows.Next() {
		t := &task.Task{}
		err := rows.Scan(
			&t.ID,
			&t.OwnerID,
			&t.Title,
			&t.Description,
			&t.IsCompleted,
			&t.Priority,
			&t.DueDate,
			&t.CreatedAt,
			&t.UpdatedAt,
		)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			continue
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return tasks, nil
}

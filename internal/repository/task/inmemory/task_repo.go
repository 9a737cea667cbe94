package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/JohnSmith0828/task-manager/internal/logger"
	"github.com/JohnSmith0828/task-manager/internal/models/task"
	repo "github.com/JohnSmith0828/task-manager/internal/repository"

	"github.com/google/uuid"
)

type TaskStorage struct {
	storage map[uuid.UUID]*task.Task
	mtx     *sync.RWMutex
	ids     []uuid.UUID
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[uuid.UUID]*task.Task),
		mtx:     &sync.RWMutex{},
		ids:     []uuid.UUID{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	taskToCreate.CreatedAt = time.Now()

	stored := *taskToCreate
	s.storage[taskToCreate.ID] = &stored
	s.ids = append(s.ids, taskToCreate.ID)
	return nil
}

// GetByIDForOwner отдаёт задачу только её владельцу,
// чужая задача неотличима от несуществующей.
func (s *TaskStorage) GetByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok || taskToGet.OwnerID != ownerID {
		return nil, repo.ErrNotFound
	}

	found := *taskToGet
	return &found, nil
}

func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.storage[taskToUpdate.ID]
	if !ok || existed.OwnerID != taskToUpdate.OwnerID {
		return repo.ErrNotFound
	}

	now := time.Now()
	taskToUpdate.UpdatedAt = &now
	taskToUpdate.CreatedAt = existed.CreatedAt

	stored := *taskToUpdate
	s.storage[taskToUpdate.ID] = &stored
	return nil
}

// ToggleCompletion атомарно переключает is_completed под общим локом.
func (s *TaskStorage) ToggleCompletion(ctx context.Context, id, ownerID uuid.UUID) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.storage[id]
	if !ok || existed.OwnerID != ownerID {
		return nil, repo.ErrNotFound
	}

	now := time.Now()
	existed.IsCompleted = !existed.IsCompleted
	existed.UpdatedAt = &now

	toggled := *existed
	return &toggled, nil
}

func (s *TaskStorage) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.storage[id]
	if !ok || existed.OwnerID != ownerID {
		return repo.ErrNotFound
	}

	delete(s.storage, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return nil
}

// ListByOwner применяет фильтры, поиск, сортировку и пагинацию
// поверх задач одного владельца. Возвращает страницу и общее число.
func (s *TaskStorage) ListByOwner(ctx context.Context, ownerID uuid.UUID, q task.ListQuery) ([]*task.Task, int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	matched := []*task.Task{}
	for _, id := range s.ids {
		t := s.storage[id]
		if t.OwnerID != ownerID {
			continue
		}
		if q.IsCompleted != nil && t.IsCompleted != *q.IsCompleted {
			continue
		}
		if q.Priority != nil && t.Priority != *q.Priority {
			continue
		}
		if q.Search != "" && !matchesSearch(t, q.Search) {
			continue
		}
		matched = append(matched, t)
	}

	sortTasks(matched, q.Order)

	total := len(matched)
	offset := (q.Page - 1) * q.PageSize
	if offset >= total {
		return []*task.Task{}, total, nil
	}

	end := offset + q.PageSize
	if end > total {
		end = total
	}

	page := make([]*task.Task, 0, end-offset)
	for _, t := range matched[offset:end] {
		found := *t
		page = append(page, &found)
	}
	return page, total, nil
}

func (s *TaskStorage) GetAllByOwner(ctx context.Context, ownerID uuid.UUID) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.ids {
		t := s.storage[id]
		if t.OwnerID != ownerID {
			continue
		}
		found := *t
		res = append(res, &found)
	}
	return res, nil
}

// регистронезависимый поиск по title или description
func matchesSearch(t *task.Task, search string) bool {
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(t.Title), needle) ||
		strings.Contains(strings.ToLower(t.Description), needle)
}

// при равенстве первичного ключа новые задачи идут первыми,
// как вторичный created_at DESC в SQL-сортировке
func sortTasks(tasks []*task.Task, order task.Ordering) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]

		less, equal := comparePrimary(a, b, order.Field)
		if equal {
			if order.Field == task.OrderCreatedAt {
				return false
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		if order.Desc {
			return !less
		}
		return less
	})
}

func comparePrimary(a, b *task.Task, field task.OrderField) (less, equal bool) {
	switch field {
	case task.OrderUpdatedAt:
		return timePtrCompare(a.UpdatedAt, b.UpdatedAt)
	case task.OrderDueDate:
		return timePtrCompare(a.DueDate, b.DueDate)
	case task.OrderPriority:
		return a.Priority.Rank() < b.Priority.Rank(), a.Priority.Rank() == b.Priority.Rank()
	default:
		return a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
	}
}

// nil-даты считаются самыми большими, как NULL в PostgreSQL
func timePtrCompare(a, b *time.Time) (less, equal bool) {
	if a == nil && b == nil {
		return false, true
	}
	if a == nil {
		return false, false
	}
	if b == nil {
		return true, false
	}
	return a.Before(*b), a.Equal(*b)
}

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/JohnSmith0828/task-manager/internal/logger"
	"github.com/JohnSmith0828/task-manager/internal/migrations"
	"github.com/JohnSmith0828/task-manager/internal/models/task"
	"github.com/JohnSmith0828/task-manager/internal/models/user"
	rep "github.com/JohnSmith0828/task-manager/internal/repository"
	taskpostgres "github.com/JohnSmith0828/task-manager/internal/repository/task/postgres"
	userpostgres "github.com/JohnSmith0828/task-manager/internal/repository/user/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestMain(m *testing.M) {
	logger.Init(false)
	os.Exit(m.Run())
}

// PostgresTestSuite — интеграционные тесты хранилищ на реальном PostgreSQL
type PostgresTestSuite struct {
	suite.Suite
	container testcontainers.Container
	pool      *pgxpool.Pool
	tasks     *taskpostgres.Storage
	users     *userpostgres.UserStorage
	tokens    *userpostgres.TokenStorage
	ctx       context.Context

	owner uuid.UUID
	other uuid.UUID
}

// SetupSuite запускается один раз перед всеми тестами
func (s *PostgresTestSuite) SetupSuite() {
	s.ctx = context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(s.ctx)
	require.NoError(s.T(), err)

	port, err := container.MappedPort(s.ctx, "5432")
	require.NoError(s.T(), err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	// схема создаётся теми же миграциями, что и в приложении
	require.NoError(s.T(), migrations.Up(connString))

	s.pool, err = rep.NewPool(s.ctx, connString, 5, 1, time.Minute)
	require.NoError(s.T(), err)

	s.tasks = taskpostgres.New(s.pool)
	s.users = userpostgres.NewUserStorage(s.pool)
	s.tokens = userpostgres.NewTokenStorage(s.pool)
}

// TearDownSuite очищает после всех тестов
func (s *PostgresTestSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		s.container.Terminate(s.ctx)
	}
}

// SetupTest очищает таблицы и создаёт двух пользователей
func (s *PostgresTestSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, "TRUNCATE auth_tokens, tasks, users")
	require.NoError(s.T(), err)

	s.owner = s.createUser("alice", "alice@example.com")
	s.other = s.createUser("bob", "bob@example.com")
}

func (s *PostgresTestSuite) createUser(username, email string) uuid.UUID {
	newUser := &user.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: "hash",
	}
	require.NoError(s.T(), s.users.Create(s.ctx, newUser))
	return newUser.ID
}

func (s *PostgresTestSuite) createTask(ownerID uuid.UUID, mutate func(*task.Task)) *task.Task {
	taskToCreate := &task.Task{
		ID:       uuid.New(),
		OwnerID:  ownerID,
		Title:    "Test Task",
		Priority: task.PriorityMedium,
	}
	if mutate != nil {
		mutate(taskToCreate)
	}
	require.NoError(s.T(), s.tasks.Create(s.ctx, taskToCreate))
	return taskToCreate
}

func (s *PostgresTestSuite) defaultQuery() task.ListQuery {
	return task.ListQuery{
		Order:    task.DefaultOrdering(),
		Page:     1,
		PageSize: 10,
	}
}

// TestPostgresTestSuite запускает suite
func TestPostgresTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционные тесты в коротком режиме")
	}
	suite.Run(t, new(PostgresTestSuite))
}

// TestTasks_CreateAndGet тестирует создание и чтение задачи
func (s *PostgresTestSuite) TestTasks_CreateAndGet() {
	due := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Microsecond)
	created := s.createTask(s.owner, func(t *task.Task) {
		t.Title = "Buy milk"
		t.Description = "2 liters"
		t.Priority = task.PriorityHigh
		t.DueDate = &due
	})
	assert.False(s.T(), created.CreatedAt.IsZero())

	retrieved, err := s.tasks.GetByIDForOwner(s.ctx, created.ID, s.owner)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Buy milk", retrieved.Title)
	assert.Equal(s.T(), "2 liters", retrieved.Description)
	assert.Equal(s.T(), task.PriorityHigh, retrieved.Priority)
	assert.False(s.T(), retrieved.IsCompleted)
	require.NotNil(s.T(), retrieved.DueDate)
	assert.WithinDuration(s.T(), due, *retrieved.DueDate, time.Second)
	assert.Nil(s.T(), retrieved.UpdatedAt)
}

// TestTasks_OwnerIsolation тестирует невидимость чужих задач
func (s *PostgresTestSuite) TestTasks_OwnerIsolation() {
	created := s.createTask(s.owner, nil)

	_, err := s.tasks.GetByIDForOwner(s.ctx, created.ID, s.other)
	assert.ErrorIs(s.T(), err, rep.ErrNotFound)

	_, err = s.tasks.ToggleCompletion(s.ctx, created.ID, s.other)
	assert.ErrorIs(s.T(), err, rep.ErrNotFound)

	err = s.tasks.Delete(s.ctx, created.ID, s.other)
	assert.ErrorIs(s.T(), err, rep.ErrNotFound)

	stolen := *created
	stolen.OwnerID = s.other
	stolen.Title = "Stolen"
	err = s.tasks.Update(s.ctx, &stolen)
	assert.ErrorIs(s.T(), err, rep.ErrNotFound)

	// задача осталась нетронутой
	retrieved, err := s.tasks.GetByIDForOwner(s.ctx, created.ID, s.owner)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Test Task", retrieved.Title)
}

// TestTasks_Update тестирует обновление
func (s *PostgresTestSuite) TestTasks_Update() {
	created := s.createTask(s.owner, nil)

	created.Title = "Updated Title"
	created.Description = "Updated Description"
	created.Priority = task.PriorityLow
	require.NoError(s.T(), s.tasks.Update(s.ctx, created))
	assert.NotNil(s.T(), created.UpdatedAt)

	retrieved, err := s.tasks.GetByIDForOwner(s.ctx, created.ID, s.owner)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Updated Title", retrieved.Title)
	assert.Equal(s.T(), "Updated Description", retrieved.Description)
	assert.Equal(s.T(), task.PriorityLow, retrieved.Priority)
	assert.NotNil(s.T(), retrieved.UpdatedAt)
}

// TestTasks_Toggle тестирует переключение в обе стороны
func (s *PostgresTestSuite) TestTasks_Toggle() {
	created := s.createTask(s.owner, nil)

	toggled, err := s.tasks.ToggleCompletion(s.ctx, created.ID, s.owner)
	require.NoError(s.T(), err)
	assert.True(s.T(), toggled.IsCompleted)
	assert.NotNil(s.T(), toggled.UpdatedAt)

	toggled, err = s.tasks.ToggleCompletion(s.ctx, created.ID, s.owner)
	require.NoError(s.T(), err)
	assert.False(s.T(), toggled.IsCompleted)
}

// TestTasks_Delete тестирует удаление
func (s *PostgresTestSuite) TestTasks_Delete() {
	created := s.createTask(s.owner, nil)

	require.NoError(s.T(), s.tasks.Delete(s.ctx, created.ID, s.owner))

	_, err := s.tasks.GetByIDForOwner(s.ctx, created.ID, s.owner)
	assert.ErrorIs(s.T(), err, rep.ErrNotFound)

	// повторное удаление — уже не найдено
	err = s.tasks.Delete(s.ctx, created.ID, s.owner)
	assert.ErrorIs(s.T(), err, rep.ErrNotFound)
}

// TestTasks_ListFilters тестирует фильтры и поиск
func (s *PostgresTestSuite) TestTasks_ListFilters() {
	s.createTask(s.owner, func(t *task.Task) {
		t.Title = "Buy milk"
		t.Priority = task.PriorityHigh
	})
	s.createTask(s.owner, func(t *task.Task) {
		t.Title = "Write report"
		t.Description = "quarterly MILK sales"
		t.Priority = task.PriorityHigh
		t.IsCompleted = true
	})
	s.createTask(s.owner, func(t *task.Task) {
		t.Title = "Cleanup"
		t.Priority = task.PriorityLow
	})
	s.createTask(s.other, func(t *task.Task) {
		t.Title = "Bob's milk"
	})

	s.T().Run("owner scope", func(t *testing.T) {
		_, total, err := s.tasks.ListByOwner(s.ctx, s.owner, s.defaultQuery())
		require.NoError(t, err)
		assert.Equal(t, 3, total)
	})

	s.T().Run("is_completed filter", func(t *testing.T) {
		completed := true
		q := s.defaultQuery()
		q.IsCompleted = &completed

		tasks, total, err := s.tasks.ListByOwner(s.ctx, s.owner, q)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Write report", tasks[0].Title)
	})

	s.T().Run("priority filter", func(t *testing.T) {
		low := task.PriorityLow
		q := s.defaultQuery()
		q.Priority = &low

		tasks, total, err := s.tasks.ListByOwner(s.ctx, s.owner, q)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Cleanup", tasks[0].Title)
	})

	s.T().Run("case-insensitive search over title and description", func(t *testing.T) {
		q := s.defaultQuery()
		q.Search = "mIlK"

		_, total, err := s.tasks.ListByOwner(s.ctx, s.owner, q)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
	})

	s.T().Run("filters combine as AND", func(t *testing.T) {
		notCompleted := false
		high := task.PriorityHigh
		q := s.defaultQuery()
		q.IsCompleted = &notCompleted
		q.Priority = &high
		q.Search = "milk"

		tasks, total, err := s.tasks.ListByOwner(s.ctx, s.owner, q)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Buy milk", tasks[0].Title)
	})
}

// TestTasks_SearchLiteral проверяет, что метасимволы LIKE в поиске
// экранируются и ищутся буквально
func (s *PostgresTestSuite) TestTasks_SearchLiteral() {
	s.createTask(s.owner, func(t *task.Task) { t.Title = "Save 50% on milk" })
	s.createTask(s.owner, func(t *task.Task) { t.Title = "note 50" })
	s.createTask(s.owner, func(t *task.Task) { t.Title = "rename snake_case field" })
	s.createTask(s.owner, func(t *task.Task) { t.Title = "rename snakecase field" })
	s.createTask(s.owner, func(t *task.Task) { t.Description = `C:\tasks\backlog` })

	search := func(t *testing.T, needle string) []string {
		t.Helper()
		q := s.defaultQuery()
		q.Search = needle

		tasks, total, err := s.tasks.ListByOwner(s.ctx, s.owner, q)
		require.NoError(t, err)
		assert.Equal(t, len(tasks), total)

		titles := make([]string, 0, len(tasks))
		for _, found := range tasks {
			titles = append(titles, found.Title)
		}
		return titles
	}

	s.T().Run("percent is not a wildcard", func(t *testing.T) {
		assert.Equal(t, []string{"Save 50% on milk"}, search(t, "50%"))
	})

	s.T().Run("underscore is not a wildcard", func(t *testing.T) {
		assert.Equal(t, []string{"rename snake_case field"}, search(t, "snake_"))
	})

	s.T().Run("backslash is not an escape", func(t *testing.T) {
		found := search(t, `C:\tasks`)
		require.Len(t, found, 1)
	})
}

// TestTasks_ListOrdering тестирует сортировку
func (s *PostgresTestSuite) TestTasks_ListOrdering() {
	soon := time.Now().Add(time.Hour)
	later := time.Now().Add(48 * time.Hour)

	s.createTask(s.owner, func(t *task.Task) {
		t.Title = "first"
		t.Priority = task.PriorityMedium
		t.DueDate = &later
	})
	time.Sleep(10 * time.Millisecond)
	s.createTask(s.owner, func(t *task.Task) {
		t.Title = "second"
		t.Priority = task.PriorityHigh
		t.DueDate = &soon
	})
	time.Sleep(10 * time.Millisecond)
	s.createTask(s.owner, func(t *task.Task) {
		t.Title = "third"
		t.Priority = task.PriorityLow
	})

	titles := func(t *testing.T, raw string) []string {
		t.Helper()
		q := s.defaultQuery()
		order, err := task.ParseOrdering(raw)
		require.NoError(t, err)
		q.Order = order

		tasks, _, err := s.tasks.ListByOwner(s.ctx, s.owner, q)
		require.NoError(t, err)

		res := make([]string, 0, len(tasks))
		for _, found := range tasks {
			res = append(res, found.Title)
		}
		return res
	}

	s.T().Run("default - newest first", func(t *testing.T) {
		tasks, _, err := s.tasks.ListByOwner(s.ctx, s.owner, s.defaultQuery())
		require.NoError(t, err)
		require.Len(t, tasks, 3)
		assert.Equal(t, "third", tasks[0].Title)
		assert.Equal(t, "first", tasks[2].Title)
	})

	s.T().Run("priority by rank", func(t *testing.T) {
		assert.Equal(t, []string{"third", "first", "second"}, titles(t, "priority"))
		assert.Equal(t, []string{"second", "first", "third"}, titles(t, "-priority"))
	})

	s.T().Run("due_date ascending, NULL dates last", func(t *testing.T) {
		assert.Equal(t, []string{"second", "first", "third"}, titles(t, "due_date"))
	})
}

// TestTasks_ListPagination тестирует пагинацию
func (s *PostgresTestSuite) TestTasks_ListPagination() {
	for i := 1; i <= 5; i++ {
		s.createTask(s.owner, func(t *task.Task) {
			t.Title = fmt.Sprintf("Task %d", i)
		})
	}

	q := s.defaultQuery()
	q.PageSize = 2

	q.Page = 1
	tasks, total, err := s.tasks.ListByOwner(s.ctx, s.owner, q)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 5, total)
	assert.Len(s.T(), tasks, 2)

	q.Page = 3
	tasks, total, err = s.tasks.ListByOwner(s.ctx, s.owner, q)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 5, total)
	assert.Len(s.T(), tasks, 1)

	q.Page = 10
	tasks, total, err = s.tasks.ListByOwner(s.ctx, s.owner, q)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 5, total)
	assert.Empty(s.T(), tasks)
}

// TestTasks_GetAllByOwner тестирует выборку для статистики
func (s *PostgresTestSuite) TestTasks_GetAllByOwner() {
	s.createTask(s.owner, nil)
	s.createTask(s.owner, func(t *task.Task) { t.IsCompleted = true })
	s.createTask(s.other, nil)

	tasks, err := s.tasks.GetAllByOwner(s.ctx, s.owner)
	require.NoError(s.T(), err)
	assert.Len(s.T(), tasks, 2)
	for _, found := range tasks {
		assert.Equal(s.T(), s.owner, found.OwnerID)
	}
}

// TestUsers_Duplicate тестирует уникальность имени и почты
func (s *PostgresTestSuite) TestUsers_Duplicate() {
	err := s.users.Create(s.ctx, &user.User{
		ID:           uuid.New(),
		Username:     "alice",
		Email:        "fresh@example.com",
		PasswordHash: "hash",
	})
	assert.ErrorIs(s.T(), err, rep.ErrDuplicate)

	err = s.users.Create(s.ctx, &user.User{
		ID:           uuid.New(),
		Username:     "fresh",
		Email:        "alice@example.com",
		PasswordHash: "hash",
	})
	assert.ErrorIs(s.T(), err, rep.ErrDuplicate)
}

// TestUsers_GetAndUpdate тестирует чтение и обновление пользователя
func (s *PostgresTestSuite) TestUsers_GetAndUpdate() {
	found, err := s.users.GetByUsername(s.ctx, "alice")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), s.owner, found.ID)
	assert.Nil(s.T(), found.LastLoginAt)

	now := time.Now()
	found.LastLoginAt = &now
	require.NoError(s.T(), s.users.Update(s.ctx, found))

	again, err := s.users.GetByID(s.ctx, s.owner)
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), again.LastLoginAt)

	_, err = s.users.GetByUsername(s.ctx, "nobody")
	assert.ErrorIs(s.T(), err, rep.ErrNotFound)

	// смена имени на занятое
	found.Username = "bob"
	err = s.users.Update(s.ctx, found)
	assert.ErrorIs(s.T(), err, rep.ErrDuplicate)
}

// TestTokens_Lifecycle тестирует сохранение, проверку и отзыв токена
func (s *PostgresTestSuite) TestTokens_Lifecycle() {
	token := "0123456789abcdef0123456789abcdef"

	require.NoError(s.T(), s.tokens.Save(s.ctx, token, s.owner))

	resolved, err := s.tokens.Resolve(s.ctx, token)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), s.owner, resolved)

	require.NoError(s.T(), s.tokens.Revoke(s.ctx, token))

	_, err = s.tokens.Resolve(s.ctx, token)
	assert.ErrorIs(s.T(), err, rep.ErrNotFound)

	// повторный отзыв не ошибка
	assert.NoError(s.T(), s.tokens.Revoke(s.ctx, token))
}

// TestTokens_CascadeOnUserDelete тестирует каскадное удаление токенов
func (s *PostgresTestSuite) TestTokens_CascadeOnUserDelete() {
	token := "feedfacefeedfacefeedfacefeedface"
	require.NoError(s.T(), s.tokens.Save(s.ctx, token, s.owner))

	_, err := s.pool.Exec(s.ctx, "DELETE FROM users WHERE id = $1", s.owner)
	require.NoError(s.T(), err)

	_, err = s.tokens.Resolve(s.ctx, token)
	assert.ErrorIs(s.T(), err, rep.ErrNotFound)
}

// TestTasks_HealthCheck тестирует проверку соединения
func (s *PostgresTestSuite) TestTasks_HealthCheck() {
	assert.NoError(s.T(), s.tasks.HealthCheck(s.ctx))
}

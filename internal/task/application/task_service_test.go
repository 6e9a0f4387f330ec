package application

import (
	"context"
	"testing"

	sharedQuery "github.com/davicafu/hrlab/internal/shared/infra/platform/query"
	taskDomain "github.com/davicafu/hrlab/internal/task/domain"
	"github.com/davicafu/hrlab/tests/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateTask_Success(t *testing.T) {
	repo := mocks.NewInMemoryTaskRepo()
	activities := mocks.NewInMemoryActivityRepo()
	actors := mocks.NewActorDirectory()
	assigner := actors.RegisterSelf(uuid.New())
	service := NewTaskService(repo, activities, actors, mocks.NewDummyCache(), zap.NewNop())

	task, err := service.CreateTask(context.Background(), assigner, taskDomain.NewTaskParams{
		Title:       "Preparar revisión salarial",
		Description: "Informe anual para dirección",
		Priority:    taskDomain.PriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, taskDomain.StatusDraft, task.Status)
	assert.Equal(t, assigner, task.AssignerID)

	// ✅ Verificar outbox y actividad de creación
	assert.Len(t, repo.Outbox, 1)
	assert.Equal(t, taskDomain.TaskCreated, repo.Outbox[0].EventType)
	assert.Equal(t, task.ID.String(), repo.Outbox[0].AggregateID)
	assert.Equal(t, []taskDomain.ActivityAction{taskDomain.ActivityCreated}, activities.Actions())
}

func TestCreateTask_WithAssigneeStartsAssigned(t *testing.T) {
	repo := mocks.NewInMemoryTaskRepo()
	actors := mocks.NewActorDirectory()
	assigner := actors.RegisterSelf(uuid.New())
	assignee := uuid.New()
	service := NewTaskService(repo, mocks.NewInMemoryActivityRepo(), actors, mocks.NewDummyCache(), zap.NewNop())

	task, err := service.CreateTask(context.Background(), assigner, taskDomain.NewTaskParams{
		Title:      "Alta en nómina",
		AssigneeID: &assignee,
	})
	require.NoError(t, err)
	assert.Equal(t, taskDomain.StatusAssigned, task.Status)
	assert.NotNil(t, task.AssignedAt)
}

func TestCreateTask_InvalidTitle(t *testing.T) {
	actors := mocks.NewActorDirectory()
	assigner := actors.RegisterSelf(uuid.New())
	service := NewTaskService(mocks.NewInMemoryTaskRepo(), mocks.NewInMemoryActivityRepo(), actors, mocks.NewDummyCache(), zap.NewNop())

	_, err := service.CreateTask(context.Background(), assigner, taskDomain.NewTaskParams{Title: "   "})
	assert.ErrorIs(t, err, taskDomain.ErrInvalidTask)
}

func TestGetTaskByID_NotFound(t *testing.T) {
	actors := mocks.NewActorDirectory()
	service := NewTaskService(mocks.NewInMemoryTaskRepo(), mocks.NewInMemoryActivityRepo(), actors, mocks.NewDummyCache(), zap.NewNop())

	_, err := service.GetTaskByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, taskDomain.ErrTaskNotFound)
}

// -------------------- GetTaskByID con Cache --------------------

func TestGetTaskByID_CacheHit(t *testing.T) {
	assigner := uuid.New()
	task, err := taskDomain.NewTask(taskDomain.NewTaskParams{Title: "Cacheada", AssignerID: assigner})
	require.NoError(t, err)

	cache := mocks.NewDummyCache()
	require.NoError(t, cache.Set(context.Background(), taskDomain.TaskCacheKeyByID(task.ID), task, 60))

	// El repo está vacío: si la lectura funciona, vino de la caché.
	service := NewTaskService(mocks.NewInMemoryTaskRepo(), mocks.NewInMemoryActivityRepo(), mocks.NewActorDirectory(), cache, zap.NewNop())

	got, err := service.GetTaskByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, "Cacheada", got.Title)
}

func TestGetTaskByID_CacheMissFallsBackToRepo(t *testing.T) {
	repo := mocks.NewInMemoryTaskRepo()
	actors := mocks.NewActorDirectory()
	assigner := actors.RegisterSelf(uuid.New())
	service := NewTaskService(repo, mocks.NewInMemoryActivityRepo(), actors, mocks.NewDummyCache(), zap.NewNop())

	task, err := service.CreateTask(context.Background(), assigner, taskDomain.NewTaskParams{Title: "Desde repo"})
	require.NoError(t, err)

	got, err := service.GetTaskByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
}

// -------------------- Listados --------------------

func TestListTasksByAssignee(t *testing.T) {
	repo := mocks.NewInMemoryTaskRepo()
	actors := mocks.NewActorDirectory()
	assigner := actors.RegisterSelf(uuid.New())
	assignee := uuid.New()
	other := uuid.New()
	service := NewTaskService(repo, mocks.NewInMemoryActivityRepo(), actors, mocks.NewDummyCache(), zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := service.CreateTask(context.Background(), assigner, taskDomain.NewTaskParams{
			Title:      "Tarea asignada",
			AssigneeID: &assignee,
		})
		require.NoError(t, err)
	}
	_, err := service.CreateTask(context.Background(), assigner, taskDomain.NewTaskParams{
		Title:      "De otro empleado",
		AssigneeID: &other,
	})
	require.NoError(t, err)

	list, err := service.ListTasksByAssignee(context.Background(), assignee, sharedQuery.OffsetPagination{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, list, 3)
	for _, task := range list {
		assert.Equal(t, assignee, *task.AssigneeID)
	}
}

func TestListTasks_ByStatusCriteria(t *testing.T) {
	repo := mocks.NewInMemoryTaskRepo()
	actors := mocks.NewActorDirectory()
	assigner := actors.RegisterSelf(uuid.New())
	assignee := uuid.New()
	service := NewTaskService(repo, mocks.NewInMemoryActivityRepo(), actors, mocks.NewDummyCache(), zap.NewNop())

	_, err := service.CreateTask(context.Background(), assigner, taskDomain.NewTaskParams{Title: "Borrador"})
	require.NoError(t, err)
	_, err = service.CreateTask(context.Background(), assigner, taskDomain.NewTaskParams{Title: "Asignada", AssigneeID: &assignee})
	require.NoError(t, err)

	list, err := service.ListTasks(context.Background(),
		taskDomain.StatusCriteria{Status: taskDomain.StatusAssigned},
		sharedQuery.OffsetPagination{Limit: 10},
		sharedQuery.Sort{Field: "created_at"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, "Asignada", list[0].Title)
}

func TestListTaskActivity_UnknownTask(t *testing.T) {
	service := NewTaskService(mocks.NewInMemoryTaskRepo(), mocks.NewInMemoryActivityRepo(), mocks.NewActorDirectory(), mocks.NewDummyCache(), zap.NewNop())

	_, err := service.ListTaskActivity(context.Background(), uuid.New())
	assert.ErrorIs(t, err, taskDomain.ErrTaskNotFound)
}

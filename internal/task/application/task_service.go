package application

import (
	"context"
	"time"

	sharedDomain "github.com/davicafu/hrlab/internal/shared/domain"
	sharedCache "github.com/davicafu/hrlab/internal/shared/infra/platform/cache"
	sharedQuery "github.com/davicafu/hrlab/internal/shared/infra/platform/query"
	"github.com/davicafu/hrlab/internal/shared/infra/utils"
	taskDomain "github.com/davicafu/hrlab/internal/task/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskService cubre el ciclo de vida no transicional: alta, lecturas y listados.
type TaskService struct {
	repo       taskDomain.TaskRepository
	activities taskDomain.TaskActivityRepository
	actors     ActorResolver
	cache      sharedCache.Cache
	log        *zap.Logger
}

func NewTaskService(
	repo taskDomain.TaskRepository,
	activities taskDomain.TaskActivityRepository,
	actors ActorResolver,
	cache sharedCache.Cache,
	log *zap.Logger,
) *TaskService {
	return &TaskService{
		repo:       repo,
		activities: activities,
		actors:     actors,
		cache:      cache,
		log:        log,
	}
}

// CreateTask da de alta una tarea. El actor autenticado pasa a ser el assigner.
func (s *TaskService) CreateTask(ctx context.Context, actorUserID uuid.UUID, p taskDomain.NewTaskParams) (*taskDomain.Task, error) {
	assignerID, err := s.actors.ResolveEmployeeID(ctx, actorUserID)
	if err != nil {
		return nil, err
	}
	p.AssignerID = assignerID

	task, err := taskDomain.NewTask(p)
	if err != nil {
		return nil, err
	}

	evt := sharedDomain.OutboxEvent{
		ID:            uuid.New(),
		AggregateType: "task",
		AggregateID:   task.ID.String(),
		EventType:     taskDomain.TaskCreated,
		Payload:       task,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, task, evt); err != nil {
		s.log.Error("Failed to create task",
			zap.String("task_id", task.ID.String()),
			zap.Error(err))
		return nil, err
	}

	activity := taskDomain.NewTaskActivity(task.ID, assignerID, taskDomain.ActivityCreated,
		nil, statusPtr(task.Status), nil)
	if err := s.activities.Append(ctx, activity); err != nil {
		s.log.Warn("⚠️ Failed to append task activity",
			zap.String("task_id", task.ID.String()),
			zap.Error(err))
	}

	sharedCache.AsyncCacheSet(ctx, s.cache, taskDomain.TaskCacheKeyByID(task.ID), task, 60, s.log)

	s.log.Info("✅ Task created",
		zap.String("task_id", task.ID.String()),
		zap.String("status", string(task.Status)))
	return task, nil
}

// GetTaskByID aplica cache-aside: primero caché, después repositorio con
// reintentos, y rellena la caché en background tras un miss.
func (s *TaskService) GetTaskByID(ctx context.Context, id uuid.UUID) (*taskDomain.Task, error) {
	cacheKey := taskDomain.TaskCacheKeyByID(id)

	if s.cache != nil {
		var cached taskDomain.Task
		found, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			s.log.Warn("Cache read failed", zap.String("key", cacheKey), zap.Error(err))
		} else if found {
			return &cached, nil
		}
	}

	var task *taskDomain.Task
	err := utils.Retry(ctx, 3, 100*time.Millisecond, func() error {
		var err error
		task, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	sharedCache.AsyncCacheSet(ctx, s.cache, cacheKey, task, 60, s.log)
	return task, nil
}

// ListTasks devuelve las tareas que cumplan los criterios dados.
func (s *TaskService) ListTasks(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]*taskDomain.Task, error) {
	return s.repo.ListByCriteria(ctx, criteria, pagination, sort)
}

// ListTasksByAssignee es el listado "mis tareas" del empleado.
func (s *TaskService) ListTasksByAssignee(ctx context.Context, assigneeID uuid.UUID, pagination sharedQuery.Pagination) ([]*taskDomain.Task, error) {
	criteria := taskDomain.AssigneeIDCriteria{ID: assigneeID}
	sort := sharedQuery.Sort{Field: "created_at", Desc: true}
	return s.repo.ListByCriteria(ctx, criteria, pagination, sort)
}

// ListTasksByAssigner lista las tareas creadas por un empleado.
func (s *TaskService) ListTasksByAssigner(ctx context.Context, assignerID uuid.UUID, pagination sharedQuery.Pagination) ([]*taskDomain.Task, error) {
	criteria := taskDomain.AssignerIDCriteria{ID: assignerID}
	sort := sharedQuery.Sort{Field: "created_at", Desc: true}
	return s.repo.ListByCriteria(ctx, criteria, pagination, sort)
}

// ListTaskActivity devuelve el historial completo de una tarea.
func (s *TaskService) ListTaskActivity(ctx context.Context, taskID uuid.UUID) ([]*taskDomain.TaskActivity, error) {
	if _, err := s.repo.GetByID(ctx, taskID); err != nil {
		return nil, err
	}
	return s.activities.ListByTask(ctx, taskID)
}

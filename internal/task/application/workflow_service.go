package application

import (
	"context"
	"time"

	sharedDomain "github.com/davicafu/hrlab/internal/shared/domain"
	sharedCache "github.com/davicafu/hrlab/internal/shared/infra/platform/cache"
	taskDomain "github.com/davicafu/hrlab/internal/task/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActorResolver traduce el user_id de la plataforma de autenticación al
// employee_id del dominio. Lo implementa el servicio de empleados.
type ActorResolver interface {
	ResolveEmployeeID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

// WorkflowService orquesta las transiciones de la tarea: resuelve el actor,
// comprueba la autorización, delega la transición en la entidad, persiste con
// su evento de outbox y añade el registro de actividad.
type WorkflowService struct {
	repo       taskDomain.TaskRepository
	activities taskDomain.TaskActivityRepository
	actors     ActorResolver
	cache      sharedCache.Cache
	log        *zap.Logger
}

func NewWorkflowService(
	repo taskDomain.TaskRepository,
	activities taskDomain.TaskActivityRepository,
	actors ActorResolver,
	cache sharedCache.Cache,
	log *zap.Logger,
) *WorkflowService {
	return &WorkflowService{
		repo:       repo,
		activities: activities,
		actors:     actors,
		cache:      cache,
		log:        log,
	}
}

// resolveActorAndTask es el preámbulo común de todas las operaciones.
func (s *WorkflowService) resolveActorAndTask(ctx context.Context, taskID, actorUserID uuid.UUID) (uuid.UUID, *taskDomain.Task, error) {
	actorID, err := s.actors.ResolveEmployeeID(ctx, actorUserID)
	if err != nil {
		return uuid.Nil, nil, err
	}

	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	return actorID, task, nil
}

// persistAndLog guarda la tarea con su evento de outbox y añade la actividad.
func (s *WorkflowService) persistAndLog(ctx context.Context, task *taskDomain.Task, eventType string, activities ...*taskDomain.TaskActivity) error {
	evt := sharedDomain.OutboxEvent{
		ID:            uuid.New(),
		AggregateType: "task",
		AggregateID:   task.ID.String(),
		EventType:     eventType,
		Payload:       task,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.Update(ctx, task, evt); err != nil {
		s.log.Error("Failed to persist task transition",
			zap.String("task_id", task.ID.String()),
			zap.String("event_type", eventType),
			zap.Error(err))
		return err
	}

	// El log de actividad es el rastro de auditoría: si falla no revertimos la
	// transición ya persistida, pero lo dejamos bien visible en los logs.
	for _, a := range activities {
		if err := s.activities.Append(ctx, a); err != nil {
			s.log.Warn("⚠️ Failed to append task activity",
				zap.String("task_id", task.ID.String()),
				zap.String("action", string(a.Action)),
				zap.Error(err))
		}
	}

	sharedCache.AsyncCacheSet(ctx, s.cache, taskDomain.TaskCacheKeyByID(task.ID), task, 60, s.log)
	return nil
}

func statusPtr(s taskDomain.TaskStatus) *taskDomain.TaskStatus { return &s }

// AssignTask asigna la tarea a un empleado. Solo el assigner puede hacerlo.
func (s *WorkflowService) AssignTask(ctx context.Context, taskID, actorUserID, assigneeID uuid.UUID) (*taskDomain.Task, error) {
	actorID, task, err := s.resolveActorAndTask(ctx, taskID, actorUserID)
	if err != nil {
		return nil, err
	}
	if !task.IsAssigner(actorID) {
		return nil, taskDomain.ErrNotAllowed
	}

	prev := task.Status
	if err := task.AssignTo(assigneeID); err != nil {
		return nil, err
	}

	activity := taskDomain.NewTaskActivity(task.ID, actorID, taskDomain.ActivityAssigned,
		statusPtr(prev), statusPtr(task.Status),
		map[string]interface{}{"assignee_id": assigneeID.String()})

	if err := s.persistAndLog(ctx, task, taskDomain.TaskAssigned, activity); err != nil {
		return nil, err
	}
	return task, nil
}

// StartTaskWork: solo el assignee puede empezar a trabajar.
func (s *WorkflowService) StartTaskWork(ctx context.Context, taskID, actorUserID uuid.UUID) (*taskDomain.Task, error) {
	actorID, task, err := s.resolveActorAndTask(ctx, taskID, actorUserID)
	if err != nil {
		return nil, err
	}
	if !task.IsAssignee(actorID) {
		return nil, taskDomain.ErrNotAllowed
	}

	prev := task.Status
	if err := task.StartWork(); err != nil {
		return nil, err
	}

	activity := taskDomain.NewTaskActivity(task.ID, actorID, taskDomain.ActivityStarted,
		statusPtr(prev), statusPtr(task.Status), nil)

	if err := s.persistAndLog(ctx, task, taskDomain.TaskStarted, activity); err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTaskProgress: solo el assignee reporta avance.
func (s *WorkflowService) UpdateTaskProgress(ctx context.Context, taskID, actorUserID uuid.UUID, pct int, actualHours *float64) (*taskDomain.Task, error) {
	actorID, task, err := s.resolveActorAndTask(ctx, taskID, actorUserID)
	if err != nil {
		return nil, err
	}
	if !task.IsAssignee(actorID) {
		return nil, taskDomain.ErrNotAllowed
	}

	if err := task.UpdateProgress(pct, actualHours); err != nil {
		return nil, err
	}

	details := map[string]interface{}{"progress_percentage": pct}
	if actualHours != nil {
		details["actual_hours"] = *actualHours
	}
	// Sin cambio de estado: previous/new se omiten.
	activity := taskDomain.NewTaskActivity(task.ID, actorID, taskDomain.ActivityProgressUpdated, nil, nil, details)

	if err := s.persistAndLog(ctx, task, taskDomain.TaskProgressUpdated, activity); err != nil {
		return nil, err
	}
	return task, nil
}

// SubmitTaskForReview: el assignee entrega el trabajo.
func (s *WorkflowService) SubmitTaskForReview(ctx context.Context, taskID, actorUserID uuid.UUID, notes string) (*taskDomain.Task, error) {
	actorID, task, err := s.resolveActorAndTask(ctx, taskID, actorUserID)
	if err != nil {
		return nil, err
	}
	if !task.IsAssignee(actorID) {
		return nil, taskDomain.ErrNotAllowed
	}

	prev := task.Status
	if err := task.SubmitForReview(notes); err != nil {
		return nil, err
	}

	activity := taskDomain.NewTaskActivity(task.ID, actorID, taskDomain.ActivitySubmitted,
		statusPtr(prev), statusPtr(task.Status),
		map[string]interface{}{"review_notes": notes})

	if err := s.persistAndLog(ctx, task, taskDomain.TaskSubmitted, activity); err != nil {
		return nil, err
	}
	return task, nil
}

// StartTaskReview: el assigner toma la entrega para revisarla.
func (s *WorkflowService) StartTaskReview(ctx context.Context, taskID, actorUserID uuid.UUID) (*taskDomain.Task, error) {
	actorID, task, err := s.resolveActorAndTask(ctx, taskID, actorUserID)
	if err != nil {
		return nil, err
	}
	if !task.IsAssigner(actorID) {
		return nil, taskDomain.ErrNotAllowed
	}

	prev := task.Status
	if err := task.StartReview(); err != nil {
		return nil, err
	}

	activity := taskDomain.NewTaskActivity(task.ID, actorID, taskDomain.ActivityReviewStarted,
		statusPtr(prev), statusPtr(task.Status), nil)

	if err := s.persistAndLog(ctx, task, taskDomain.TaskReviewStarted, activity); err != nil {
		return nil, err
	}
	return task, nil
}

// ApproveTask completa la tarea. Si sigue en submitted, el servicio hace primero
// el salto a in_review (registrando ese sub-paso) para que el revisor no tenga
// que llamar a StartTaskReview por separado.
func (s *WorkflowService) ApproveTask(ctx context.Context, taskID, actorUserID uuid.UUID, notes string) (*taskDomain.Task, error) {
	actorID, task, err := s.resolveActorAndTask(ctx, taskID, actorUserID)
	if err != nil {
		return nil, err
	}
	if !task.IsAssigner(actorID) {
		return nil, taskDomain.ErrNotAllowed
	}

	var activities []*taskDomain.TaskActivity

	if task.Status == taskDomain.StatusSubmitted {
		prev := task.Status
		if err := task.StartReview(); err != nil {
			return nil, err
		}
		activities = append(activities, taskDomain.NewTaskActivity(task.ID, actorID,
			taskDomain.ActivityReviewStarted, statusPtr(prev), statusPtr(task.Status), nil))
	}

	prev := task.Status
	if err := task.Approve(notes); err != nil {
		return nil, err
	}
	activities = append(activities, taskDomain.NewTaskActivity(task.ID, actorID,
		taskDomain.ActivityApproved, statusPtr(prev), statusPtr(task.Status),
		map[string]interface{}{"approval_notes": notes}))

	if err := s.persistAndLog(ctx, task, taskDomain.TaskApproved, activities...); err != nil {
		return nil, err
	}
	return task, nil
}

// RejectTask devuelve la tarea al assignee. Mismo doble salto que ApproveTask.
func (s *WorkflowService) RejectTask(ctx context.Context, taskID, actorUserID uuid.UUID, reason string) (*taskDomain.Task, error) {
	actorID, task, err := s.resolveActorAndTask(ctx, taskID, actorUserID)
	if err != nil {
		return nil, err
	}
	if !task.IsAssigner(actorID) {
		return nil, taskDomain.ErrNotAllowed
	}

	var activities []*taskDomain.TaskActivity

	if task.Status == taskDomain.StatusSubmitted {
		prev := task.Status
		if err := task.StartReview(); err != nil {
			return nil, err
		}
		activities = append(activities, taskDomain.NewTaskActivity(task.ID, actorID,
			taskDomain.ActivityReviewStarted, statusPtr(prev), statusPtr(task.Status), nil))
	}

	prev := task.Status
	if err := task.Reject(reason); err != nil {
		return nil, err
	}
	activities = append(activities, taskDomain.NewTaskActivity(task.ID, actorID,
		taskDomain.ActivityRejected, statusPtr(prev), statusPtr(task.Status),
		map[string]interface{}{"rejection_reason": reason, "progress_percentage": task.ProgressPercentage}))

	if err := s.persistAndLog(ctx, task, taskDomain.TaskRejected, activities...); err != nil {
		return nil, err
	}
	return task, nil
}

// CancelTask: solo el assigner, y solo antes de que la tarea entre en revisión.
func (s *WorkflowService) CancelTask(ctx context.Context, taskID, actorUserID uuid.UUID, reason string) (*taskDomain.Task, error) {
	actorID, task, err := s.resolveActorAndTask(ctx, taskID, actorUserID)
	if err != nil {
		return nil, err
	}
	if !task.IsAssigner(actorID) {
		return nil, taskDomain.ErrNotAllowed
	}

	prev := task.Status
	if err := task.Cancel(reason); err != nil {
		return nil, err
	}

	activity := taskDomain.NewTaskActivity(task.ID, actorID, taskDomain.ActivityCancelled,
		statusPtr(prev), statusPtr(task.Status),
		map[string]interface{}{"reason": reason})

	if err := s.persistAndLog(ctx, task, taskDomain.TaskCancelled, activity); err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTaskDetails: assigner, o assignee mientras la tarea sigue editable.
func (s *WorkflowService) UpdateTaskDetails(ctx context.Context, taskID, actorUserID uuid.UUID, p taskDomain.UpdateDetailsParams) (*taskDomain.Task, error) {
	actorID, task, err := s.resolveActorAndTask(ctx, taskID, actorUserID)
	if err != nil {
		return nil, err
	}
	if !task.CanPerform(actorID, taskDomain.ActionEdit) {
		return nil, taskDomain.ErrNotAllowed
	}

	if err := task.UpdateDetails(p); err != nil {
		return nil, err
	}

	activity := taskDomain.NewTaskActivity(task.ID, actorID, taskDomain.ActivityDetailsUpdated, nil, nil, nil)

	if err := s.persistAndLog(ctx, task, taskDomain.TaskUpdated, activity); err != nil {
		return nil, err
	}
	return task, nil
}

// ValidateTaskPermissions es el predicado puro expuesto a otros casos de uso.
func (s *WorkflowService) ValidateTaskPermissions(task *taskDomain.Task, actorEmployeeID uuid.UUID, action taskDomain.TaskAction) bool {
	return task.CanPerform(actorEmployeeID, action)
}

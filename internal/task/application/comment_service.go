package application

import (
	"context"

	taskDomain "github.com/davicafu/hrlab/internal/task/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CommentService gestiona el hilo de discusión de cada tarea.
type CommentService struct {
	tasks      taskDomain.TaskRepository
	comments   taskDomain.TaskCommentRepository
	activities taskDomain.TaskActivityRepository
	actors     ActorResolver
	log        *zap.Logger
}

func NewCommentService(
	tasks taskDomain.TaskRepository,
	comments taskDomain.TaskCommentRepository,
	activities taskDomain.TaskActivityRepository,
	actors ActorResolver,
	log *zap.Logger,
) *CommentService {
	return &CommentService{
		tasks:      tasks,
		comments:   comments,
		activities: activities,
		actors:     actors,
		log:        log,
	}
}

// AddComment añade un comentario. Comentar es permisivo: cualquier empleado
// autenticado puede hacerlo en cualquier estado de la tarea.
func (s *CommentService) AddComment(ctx context.Context, taskID, actorUserID uuid.UUID, body string, commentType taskDomain.CommentType) (*taskDomain.TaskComment, error) {
	actorID, err := s.actors.ResolveEmployeeID(ctx, actorUserID)
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	comment, err := taskDomain.NewTaskComment(task.ID, actorID, body, commentType)
	if err != nil {
		return nil, err
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		s.log.Error("Failed to create comment",
			zap.String("task_id", taskID.String()),
			zap.Error(err))
		return nil, err
	}

	activity := taskDomain.NewTaskActivity(task.ID, actorID, taskDomain.ActivityCommented,
		nil, nil, map[string]interface{}{"comment_id": comment.ID.String()})
	if err := s.activities.Append(ctx, activity); err != nil {
		s.log.Warn("⚠️ Failed to append task activity",
			zap.String("task_id", taskID.String()),
			zap.Error(err))
	}

	return comment, nil
}

// EditComment: solo el autor puede modificar su propio comentario.
func (s *CommentService) EditComment(ctx context.Context, commentID, actorUserID uuid.UUID, body string) (*taskDomain.TaskComment, error) {
	actorID, err := s.actors.ResolveEmployeeID(ctx, actorUserID)
	if err != nil {
		return nil, err
	}

	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}

	if err := comment.Edit(actorID, body); err != nil {
		return nil, err
	}

	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment: el autor, o el assigner de la tarea como moderador.
func (s *CommentService) DeleteComment(ctx context.Context, commentID, actorUserID uuid.UUID) error {
	actorID, err := s.actors.ResolveEmployeeID(ctx, actorUserID)
	if err != nil {
		return err
	}

	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}

	task, err := s.tasks.GetByID(ctx, comment.TaskID)
	if err != nil {
		return err
	}

	if !comment.CanDelete(actorID, task) {
		return taskDomain.ErrNotAllowed
	}

	return s.comments.DeleteByID(ctx, commentID)
}

// ListComments devuelve el hilo de la tarea en orden cronológico.
func (s *CommentService) ListComments(ctx context.Context, taskID uuid.UUID) ([]*taskDomain.TaskComment, error) {
	if _, err := s.tasks.GetByID(ctx, taskID); err != nil {
		return nil, err
	}
	return s.comments.ListByTask(ctx, taskID)
}

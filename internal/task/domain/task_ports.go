package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	sharedDomain "github.com/davicafu/hrlab/internal/shared/domain"
	sharedQuery "github.com/davicafu/hrlab/internal/shared/infra/platform/query"
	"github.com/google/uuid"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrTaskAlreadyExists = errors.New("task already exists")
	ErrInvalidTask       = errors.New("invalid task")
	ErrInvalidTransition = errors.New("invalid task transition")
	ErrCommentNotFound   = errors.New("comment not found")
	ErrInvalidComment    = errors.New("invalid comment")
	ErrNotAllowed        = errors.New("actor is not allowed to perform this action")
)

// --- Repositorio de Tasks ---
// Las tareas no se borran: la cancelación es el único final no-completado.
type TaskRepository interface {
	Create(ctx context.Context, t *Task, evt sharedDomain.OutboxEvent) error
	Update(ctx context.Context, t *Task, evt sharedDomain.OutboxEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]*Task, error)
}

// --- Repositorio de actividad (append-only) ---
type TaskActivityRepository interface {
	Append(ctx context.Context, a *TaskActivity) error
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*TaskActivity, error)
}

// --- Repositorio de comentarios ---
type TaskCommentRepository interface {
	Create(ctx context.Context, c *TaskComment) error
	GetByID(ctx context.Context, id uuid.UUID) (*TaskComment, error)
	Update(ctx context.Context, c *TaskComment) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*TaskComment, error)
}

// ActivityArchive guarda copias del log de actividad en un almacén documental,
// para retención a largo plazo fuera de la base transaccional.
type ActivityArchive interface {
	ArchiveBatch(ctx context.Context, activities []*TaskActivity) error
	FetchByTask(ctx context.Context, taskID uuid.UUID) ([]*TaskActivity, error)
}

// DTO para transportar los resultados de la consulta de tendencia.
type DailyActivityTrend struct {
	Day            time.Time
	SubmittedCount int
	CompletedCount int
	RejectedCount  int
}

type ActivityAnalyticsRepository interface {
	LogBatch(ctx context.Context, activities []*TaskActivity) error
	GetDailyTrend(ctx context.Context, start, end time.Time) ([]DailyActivityTrend, error)
	GetAverageCompletionTime(ctx context.Context, start, end time.Time) (time.Duration, error)
	ListRecentByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]*TaskActivity, error)
}

// ---------- Helpers comunes (cache keys, etc.) ----------

func TaskCacheKeyByID(id uuid.UUID) string {
	return fmt.Sprintf("task:id:%s", id.String())
}

package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActivityAction refleja las transiciones de la tarea, más "commented".
type ActivityAction string

const (
	ActivityCreated         ActivityAction = "created"
	ActivityAssigned        ActivityAction = "assigned"
	ActivityStarted         ActivityAction = "started"
	ActivityProgressUpdated ActivityAction = "progress_updated"
	ActivitySubmitted       ActivityAction = "submitted"
	ActivityReviewStarted   ActivityAction = "review_started"
	ActivityApproved        ActivityAction = "approved"
	ActivityRejected        ActivityAction = "rejected"
	ActivityCancelled       ActivityAction = "cancelled"
	ActivityDetailsUpdated  ActivityAction = "details_updated"
	ActivityCommented       ActivityAction = "commented"
)

// TaskActivity es el registro de auditoría de la tarea: append-only, nunca se
// edita ni se borra. Un registro por cada cambio de estado significativo.
type TaskActivity struct {
	ID             uuid.UUID              `json:"id"`
	TaskID         uuid.UUID              `json:"task_id"`
	PerformedBy    uuid.UUID              `json:"performed_by"`
	Action         ActivityAction         `json:"action"`
	PreviousStatus *TaskStatus            `json:"previous_status,omitempty"`
	NewStatus      *TaskStatus            `json:"new_status,omitempty"`
	Details        map[string]interface{} `json:"details,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

func NewTaskActivity(taskID, performedBy uuid.UUID, action ActivityAction, previous, next *TaskStatus, details map[string]interface{}) *TaskActivity {
	return &TaskActivity{
		ID:             uuid.New(),
		TaskID:         taskID,
		PerformedBy:    performedBy,
		Action:         action,
		PreviousStatus: previous,
		NewStatus:      next,
		Details:        details,
		CreatedAt:      time.Now().UTC(),
	}
}

// ---------------- Comentarios ----------------

type CommentType string

const (
	CommentPlain          CommentType = "comment"
	CommentStatusChange   CommentType = "status_change"
	CommentProgressUpdate CommentType = "progress_update"
	CommentReviewNote     CommentType = "review_note"
)

// TaskComment es una nota libre sobre la tarea. A diferencia de TaskActivity
// es mutable: el autor puede editarla, y el autor o el dueño de la tarea borrarla.
type TaskComment struct {
	ID        uuid.UUID   `json:"id"`
	TaskID    uuid.UUID   `json:"task_id"`
	AuthorID  uuid.UUID   `json:"author_id"`
	Comment   string      `json:"comment"`
	Type      CommentType `json:"comment_type"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func NewTaskComment(taskID, authorID uuid.UUID, body string, commentType CommentType) (*TaskComment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: comment must not be empty", ErrInvalidComment)
	}
	if commentType == "" {
		commentType = CommentPlain
	}

	now := time.Now().UTC()
	return &TaskComment{
		ID:        uuid.New(),
		TaskID:    taskID,
		AuthorID:  authorID,
		Comment:   body,
		Type:      commentType,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Edit permite al autor (y solo al autor) modificar el texto.
func (c *TaskComment) Edit(actorID uuid.UUID, body string) error {
	if actorID != c.AuthorID {
		return ErrNotAllowed
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return fmt.Errorf("%w: comment must not be empty", ErrInvalidComment)
	}

	c.Comment = body
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// CanDelete: el autor del comentario o el dueño de la tarea (assigner).
func (c *TaskComment) CanDelete(actorID uuid.UUID, task *Task) bool {
	return actorID == c.AuthorID || task.IsAssigner(actorID)
}

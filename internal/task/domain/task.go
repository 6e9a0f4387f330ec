package domain

import (
	"fmt"
	"strings"
	"time"

	sharedBus "github.com/davicafu/hrlab/internal/shared/infra/platform/bus"
	"github.com/google/uuid"
)

type TaskStatus string

const (
	StatusDraft      TaskStatus = "draft"
	StatusAssigned   TaskStatus = "assigned"
	StatusInProgress TaskStatus = "in_progress"
	StatusSubmitted  TaskStatus = "submitted"
	StatusInReview   TaskStatus = "in_review"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

// IsTerminal indica si desde este estado ya no hay transiciones posibles.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type TaskType string

const (
	TypeProject TaskType = "project"
	TypeTask    TaskType = "task"
	TypeSubtask TaskType = "subtask"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Attachment guarda los metadatos de un fichero adjunto a la tarea.
// El contenido vive fuera del sistema; aquí solo se referencia.
type Attachment struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedBy uuid.UUID `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Task es la unidad de trabajo que un manager (assigner) delega a un empleado (assignee).
// Todas las transiciones de estado pasan por los métodos de la entidad: ningún caller
// escribe Status ni los timestamps directamente, de modo que el estado nunca puede
// desincronizarse de las fechas que lo acompañan.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Type        TaskType   `json:"type"`
	Priority    Priority   `json:"priority"`
	Status      TaskStatus `json:"status"`

	AssignerID   uuid.UUID  `json:"assigner_id"`
	AssigneeID   *uuid.UUID `json:"assignee_id,omitempty"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
	ParentTaskID *uuid.UUID `json:"parent_task_id,omitempty"`

	ProgressPercentage int      `json:"progress_percentage"`
	EstimatedHours     *float64 `json:"estimated_hours,omitempty"`
	ActualHours        *float64 `json:"actual_hours,omitempty"`

	// Timestamps del ciclo de vida: cada uno se escribe exactamente una vez,
	// en la transición correspondiente.
	CreatedAt   time.Time  `json:"created_at"`
	AssignedAt  *time.Time `json:"assigned_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Tags            []string     `json:"tags,omitempty"`
	Attachments     []Attachment `json:"attachments,omitempty"`
	ReviewNotes     string       `json:"review_notes,omitempty"`
	RejectionReason string       `json:"rejection_reason,omitempty"`
	ApprovalNotes   string       `json:"approval_notes,omitempty"`

	// Version se incrementa en cada mutación. Marca de concurrencia optimista:
	// en este agregado no se compara antes de escribir (ver Employee, que sí lo hace).
	Version int `json:"version"`
}

func (t *Task) PartitionKey() string {
	return t.ID.String()
}

// Verificación estática para asegurar que Task implementa la interfaz
var _ sharedBus.Keyer = (*Task)(nil)

// NewTaskParams agrupa los campos de creación; los opcionales son punteros.
type NewTaskParams struct {
	Title       string
	Description string
	Type        TaskType
	Priority    Priority

	AssignerID   uuid.UUID
	AssigneeID   *uuid.UUID
	DepartmentID *uuid.UUID
	ParentTaskID *uuid.UUID

	DueDate        *time.Time
	EstimatedHours *float64
	Tags           []string
}

// NewTask construye una tarea en estado draft, o assigned si se indica assignee.
func NewTask(p NewTaskParams) (*Task, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrInvalidTask)
	}
	if p.AssignerID == uuid.Nil {
		return nil, fmt.Errorf("%w: assigner is required", ErrInvalidTask)
	}
	if p.EstimatedHours != nil && *p.EstimatedHours < 0 {
		return nil, fmt.Errorf("%w: estimated hours must not be negative", ErrInvalidTask)
	}

	now := time.Now().UTC()
	t := &Task{
		ID:             uuid.New(),
		Title:          title,
		Description:    p.Description,
		Type:           p.Type,
		Priority:       p.Priority,
		Status:         StatusDraft,
		AssignerID:     p.AssignerID,
		DepartmentID:   p.DepartmentID,
		ParentTaskID:   p.ParentTaskID,
		DueDate:        p.DueDate,
		EstimatedHours: p.EstimatedHours,
		Tags:           p.Tags,
		CreatedAt:      now,
		UpdatedAt:      now,
		Version:        1,
	}
	if t.Type == "" {
		t.Type = TypeTask
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}

	// Si llega assignee en la creación, la tarea nace ya asignada.
	if p.AssigneeID != nil {
		t.Status = StatusAssigned
		t.AssigneeID = p.AssigneeID
		t.AssignedAt = &now
	}

	return t, nil
}

// --- Métodos de dominio (máquina de estados) ---

// touch incrementa la versión y actualiza UpdatedAt. Se llama solo cuando la
// transición ya fue validada: un intento inválido no deja mutación parcial.
func (t *Task) touch() {
	t.Version++
	t.UpdatedAt = time.Now().UTC()
}

func (t *Task) invalidTransition(action string) error {
	return fmt.Errorf("%w: cannot %s a task in status %q", ErrInvalidTransition, action, t.Status)
}

// AssignTo asigna la tarea a un empleado. Solo legal desde draft.
func (t *Task) AssignTo(assigneeID uuid.UUID) error {
	if t.Status != StatusDraft {
		return t.invalidTransition("assign")
	}
	if assigneeID == uuid.Nil {
		return fmt.Errorf("%w: assignee is required", ErrInvalidTask)
	}

	now := time.Now().UTC()
	t.Status = StatusAssigned
	t.AssigneeID = &assigneeID
	t.AssignedAt = &now
	t.touch()
	return nil
}

// StartWork marca la tarea como en curso. Solo el assignee la llama (vía servicio).
func (t *Task) StartWork() error {
	if t.Status != StatusAssigned {
		return t.invalidTransition("start work on")
	}

	now := time.Now().UTC()
	t.Status = StatusInProgress
	t.StartedAt = &now
	t.touch()
	return nil
}

// UpdateProgress actualiza el porcentaje y, opcionalmente, las horas reales.
func (t *Task) UpdateProgress(pct int, actualHours *float64) error {
	if t.Status != StatusInProgress {
		return t.invalidTransition("update progress of")
	}
	if pct < 0 || pct > 100 {
		return fmt.Errorf("%w: progress must be between 0 and 100, got %d", ErrInvalidTask, pct)
	}
	if actualHours != nil && *actualHours < 0 {
		return fmt.Errorf("%w: actual hours must not be negative", ErrInvalidTask)
	}

	t.ProgressPercentage = pct
	if actualHours != nil {
		t.ActualHours = actualHours
	}
	t.touch()
	return nil
}

// SubmitForReview entrega la tarea para revisión. Fuerza el progreso al 100%.
func (t *Task) SubmitForReview(notes string) error {
	if t.Status != StatusInProgress {
		return t.invalidTransition("submit")
	}

	now := time.Now().UTC()
	t.Status = StatusSubmitted
	t.SubmittedAt = &now
	t.ProgressPercentage = 100
	if notes != "" {
		t.ReviewNotes = notes
	}
	t.touch()
	return nil
}

// StartReview marca la tarea como en revisión por el assigner.
func (t *Task) StartReview() error {
	if t.Status != StatusSubmitted {
		return t.invalidTransition("start review of")
	}

	now := time.Now().UTC()
	t.Status = StatusInReview
	t.ReviewedAt = &now
	t.touch()
	return nil
}

// Approve completa la tarea. Estado terminal.
func (t *Task) Approve(notes string) error {
	if t.Status != StatusInReview {
		return t.invalidTransition("approve")
	}

	now := time.Now().UTC()
	t.Status = StatusCompleted
	t.CompletedAt = &now
	t.ApprovalNotes = notes
	t.touch()
	return nil
}

// Reject devuelve la tarea a in_progress con una penalización fija de 10 puntos
// de progreso (con suelo en 0). La razón es obligatoria.
func (t *Task) Reject(reason string) error {
	if t.Status != StatusInReview {
		return t.invalidTransition("reject")
	}
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: rejection reason is required", ErrInvalidTask)
	}

	t.Status = StatusInProgress
	t.RejectionReason = reason
	t.ProgressPercentage -= 10
	if t.ProgressPercentage < 0 {
		t.ProgressPercentage = 0
	}
	t.touch()
	return nil
}

// Cancel es el único final irreversible distinto de completed. Solo es legal
// antes de que la tarea entre en revisión.
func (t *Task) Cancel(reason string) error {
	switch t.Status {
	case StatusDraft, StatusAssigned, StatusInProgress:
		// cancelable
	default:
		return t.invalidTransition("cancel")
	}

	t.Status = StatusCancelled
	if reason != "" {
		t.RejectionReason = reason
	}
	t.touch()
	return nil
}

// UpdateDetailsParams agrupa los campos editables; nil significa "sin cambios".
type UpdateDetailsParams struct {
	Title          *string
	Description    *string
	Priority       *Priority
	DueDate        *time.Time
	EstimatedHours *float64
	Tags           []string
}

// UpdateDetails edita los campos descriptivos mientras la tarea sigue editable.
func (t *Task) UpdateDetails(p UpdateDetailsParams) error {
	if !t.Editable() {
		return t.invalidTransition("edit")
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", ErrInvalidTask)
	}
	if p.EstimatedHours != nil && *p.EstimatedHours < 0 {
		return fmt.Errorf("%w: estimated hours must not be negative", ErrInvalidTask)
	}

	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.EstimatedHours != nil {
		t.EstimatedHours = p.EstimatedHours
	}
	if p.Tags != nil {
		t.Tags = p.Tags
	}
	t.touch()
	return nil
}

// AddAttachment registra los metadatos de un adjunto. No es una transición de estado.
func (t *Task) AddAttachment(a Attachment) error {
	if t.Status.IsTerminal() {
		return t.invalidTransition("attach files to")
	}
	t.Attachments = append(t.Attachments, a)
	t.touch()
	return nil
}

// --- Helpers de relación e inspección ---

// Editable indica si la tarea admite cambios de detalle o cancelación.
func (t *Task) Editable() bool {
	return t.Status == StatusDraft || t.Status == StatusAssigned || t.Status == StatusInProgress
}

func (t *Task) IsAssigner(employeeID uuid.UUID) bool {
	return t.AssignerID == employeeID
}

func (t *Task) IsAssignee(employeeID uuid.UUID) bool {
	return t.AssigneeID != nil && *t.AssigneeID == employeeID
}

package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDraftTask(t *testing.T) *Task {
	t.Helper()
	task, err := NewTask(NewTaskParams{
		Title:      "Preparar onboarding",
		Type:       TypeTask,
		Priority:   PriorityHigh,
		AssignerID: uuid.New(),
	})
	require.NoError(t, err)
	return task
}

// newTaskInProgress lleva una tarea hasta in_progress con un assignee conocido.
func newTaskInProgress(t *testing.T) (*Task, uuid.UUID) {
	t.Helper()
	task := newDraftTask(t)
	assignee := uuid.New()
	require.NoError(t, task.AssignTo(assignee))
	require.NoError(t, task.StartWork())
	return task, assignee
}

func TestNewTask_Validation(t *testing.T) {
	// El título no puede quedar vacío tras el trim.
	_, err := NewTask(NewTaskParams{Title: "   ", AssignerID: uuid.New()})
	assert.ErrorIs(t, err, ErrInvalidTask)

	// El assigner es obligatorio: una tarea siempre tiene dueño.
	_, err = NewTask(NewTaskParams{Title: "Algo"})
	assert.ErrorIs(t, err, ErrInvalidTask)

	// Horas estimadas negativas se rechazan.
	negative := -2.0
	_, err = NewTask(NewTaskParams{Title: "Algo", AssignerID: uuid.New(), EstimatedHours: &negative})
	assert.ErrorIs(t, err, ErrInvalidTask)
}

func TestNewTask_DefaultsToDraft(t *testing.T) {
	task := newDraftTask(t)

	assert.Equal(t, StatusDraft, task.Status)
	assert.Equal(t, 1, task.Version)
	assert.Nil(t, task.AssigneeID)
	assert.Nil(t, task.AssignedAt)
}

func TestNewTask_WithAssigneeStartsAssigned(t *testing.T) {
	assignee := uuid.New()
	task, err := NewTask(NewTaskParams{
		Title:      "Revisar nóminas",
		AssignerID: uuid.New(),
		AssigneeID: &assignee,
	})

	assert.NoError(t, err)
	assert.Equal(t, StatusAssigned, task.Status)
	require.NotNil(t, task.AssigneeID)
	assert.Equal(t, assignee, *task.AssigneeID)
	assert.NotNil(t, task.AssignedAt)
}

func TestTask_AssignTo_OnlyFromDraft(t *testing.T) {
	// Arrange
	task := newDraftTask(t)
	assignee := uuid.New()

	// Act: la primera asignación funciona...
	err := task.AssignTo(assignee)
	assert.NoError(t, err)
	assert.Equal(t, StatusAssigned, task.Status)

	// ...y la segunda falla: assign solo es legal desde draft.
	err = task.AssignTo(uuid.New())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, assignee, *task.AssigneeID, "el assignee no debería cambiar tras el fallo")
}

func TestTask_InvalidTransitionLeavesTaskUntouched(t *testing.T) {
	// Arrange: una tarea en draft no puede arrancarse directamente.
	task := newDraftTask(t)
	before := *task

	// Act
	err := task.StartWork()

	// Assert: sin mutación parcial de ningún campo.
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, before.Status, task.Status)
	assert.Equal(t, before.Version, task.Version)
	assert.Equal(t, before.UpdatedAt, task.UpdatedAt)
	assert.Nil(t, task.StartedAt)
}

func TestTask_UpdateProgress_Bounds(t *testing.T) {
	task, _ := newTaskInProgress(t)

	assert.NoError(t, task.UpdateProgress(30, nil))
	assert.Equal(t, 30, task.ProgressPercentage)

	// Fuera de rango: no debe tocar el valor anterior.
	assert.ErrorIs(t, task.UpdateProgress(120, nil), ErrInvalidTask)
	assert.ErrorIs(t, task.UpdateProgress(-1, nil), ErrInvalidTask)
	assert.Equal(t, 30, task.ProgressPercentage)

	// Horas reales negativas también se rechazan.
	negative := -1.5
	assert.ErrorIs(t, task.UpdateProgress(50, &negative), ErrInvalidTask)

	hours := 6.5
	assert.NoError(t, task.UpdateProgress(55, &hours))
	assert.Equal(t, 6.5, *task.ActualHours)
}

func TestTask_SubmitForReview_ForcesProgressTo100(t *testing.T) {
	task, _ := newTaskInProgress(t)
	assert.NoError(t, task.UpdateProgress(40, nil))

	err := task.SubmitForReview("lista para revisar")

	assert.NoError(t, err)
	assert.Equal(t, StatusSubmitted, task.Status)
	assert.Equal(t, 100, task.ProgressPercentage, "la entrega siempre fuerza el progreso al 100%")
	assert.Equal(t, "lista para revisar", task.ReviewNotes)
	assert.NotNil(t, task.SubmittedAt)
}

func TestTask_Reject_PenalizesProgress(t *testing.T) {
	task, _ := newTaskInProgress(t)
	require.NoError(t, task.SubmitForReview(""))
	require.NoError(t, task.StartReview())

	err := task.Reject("needs polish")

	// El rechazo vuelve a in_progress (nunca a draft/assigned) y resta 10 puntos.
	assert.NoError(t, err)
	assert.Equal(t, StatusInProgress, task.Status)
	assert.Equal(t, 90, task.ProgressPercentage)
	assert.Equal(t, "needs polish", task.RejectionReason)
}

func TestTask_Reject_ProgressFlooredAtZero(t *testing.T) {
	// Arrange: construimos directamente una tarea en revisión con poco progreso
	// para aislar la regla del suelo (la entrega normal fuerza el 100%).
	assignee := uuid.New()
	task := &Task{
		ID:                 uuid.New(),
		Title:              "Con poco progreso",
		Status:             StatusInReview,
		AssignerID:         uuid.New(),
		AssigneeID:         &assignee,
		ProgressPercentage: 5,
	}

	// Act
	err := task.Reject("floor")

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 0, task.ProgressPercentage, "la penalización nunca baja de 0")
	assert.Equal(t, StatusInProgress, task.Status)
}

func TestTask_Reject_RequiresReason(t *testing.T) {
	task, _ := newTaskInProgress(t)
	require.NoError(t, task.SubmitForReview(""))
	require.NoError(t, task.StartReview())

	err := task.Reject("   ")

	assert.ErrorIs(t, err, ErrInvalidTask)
	assert.Equal(t, StatusInReview, task.Status, "un rechazo sin razón no debe mover el estado")
}

func TestTask_Cancel_OnlyBeforeReview(t *testing.T) {
	// Cancelable desde draft, assigned e in_progress.
	task := newDraftTask(t)
	assert.NoError(t, task.Cancel("ya no hace falta"))
	assert.Equal(t, StatusCancelled, task.Status)
	assert.Equal(t, "ya no hace falta", task.RejectionReason)

	// Ilegal una vez entregada.
	task2, _ := newTaskInProgress(t)
	require.NoError(t, task2.SubmitForReview(""))
	assert.ErrorIs(t, task2.Cancel(""), ErrInvalidTransition)

	require.NoError(t, task2.StartReview())
	assert.ErrorIs(t, task2.Cancel(""), ErrInvalidTransition)

	require.NoError(t, task2.Approve(""))
	assert.ErrorIs(t, task2.Cancel(""), ErrInvalidTransition)

	// Y tampoco se cancela dos veces.
	assert.ErrorIs(t, task.Cancel(""), ErrInvalidTransition)
}

func TestTask_UpdateDetails(t *testing.T) {
	task := newDraftTask(t)
	newTitle := "Título nuevo"
	urgent := PriorityUrgent

	err := task.UpdateDetails(UpdateDetailsParams{Title: &newTitle, Priority: &urgent, Tags: []string{"hr", "onboarding"}})

	assert.NoError(t, err)
	assert.Equal(t, "Título nuevo", task.Title)
	assert.Equal(t, PriorityUrgent, task.Priority)
	assert.Equal(t, []string{"hr", "onboarding"}, task.Tags)

	// Título vacío: rechazado sin tocar nada.
	empty := "   "
	assert.ErrorIs(t, task.UpdateDetails(UpdateDetailsParams{Title: &empty}), ErrInvalidTask)
	assert.Equal(t, "Título nuevo", task.Title)

	// Tras la entrega la tarea deja de ser editable.
	task2, _ := newTaskInProgress(t)
	require.NoError(t, task2.SubmitForReview(""))
	other := "otro"
	assert.ErrorIs(t, task2.UpdateDetails(UpdateDetailsParams{Title: &other}), ErrInvalidTransition)
}

func TestTask_VersionBumpsOnEveryMutation(t *testing.T) {
	task := newDraftTask(t)
	assert.Equal(t, 1, task.Version)

	require.NoError(t, task.AssignTo(uuid.New()))
	assert.Equal(t, 2, task.Version)

	require.NoError(t, task.StartWork())
	assert.Equal(t, 3, task.Version)

	require.NoError(t, task.UpdateProgress(10, nil))
	assert.Equal(t, 4, task.Version)
}

// TestTask_FullLifecycle recorre assign→start→progress→submit→review→approve y
// comprueba que los seis timestamps quedan poblados y son monótonos.
func TestTask_FullLifecycle(t *testing.T) {
	task := newDraftTask(t)

	require.NoError(t, task.AssignTo(uuid.New()))
	require.NoError(t, task.StartWork())
	require.NoError(t, task.UpdateProgress(50, nil))
	require.NoError(t, task.SubmitForReview("done"))
	require.NoError(t, task.StartReview())
	require.NoError(t, task.Approve("buen trabajo"))

	assert.Equal(t, StatusCompleted, task.Status)
	assert.True(t, task.Status.IsTerminal())
	assert.Equal(t, 100, task.ProgressPercentage)
	assert.Equal(t, "buen trabajo", task.ApprovalNotes)

	stamps := []*time.Time{task.AssignedAt, task.StartedAt, task.SubmittedAt, task.ReviewedAt, task.CompletedAt}
	for i, ts := range stamps {
		require.NotNil(t, ts, "timestamp %d debería estar poblado", i)
	}
	require.False(t, task.AssignedAt.Before(task.CreatedAt))
	for i := 1; i < len(stamps); i++ {
		assert.False(t, stamps[i].Before(*stamps[i-1]), "los timestamps deben ser monótonos")
	}

	// Una tarea completada es inmutable: cualquier transición posterior falla.
	assert.ErrorIs(t, task.StartWork(), ErrInvalidTransition)
	assert.ErrorIs(t, task.SubmitForReview(""), ErrInvalidTransition)
	assert.ErrorIs(t, task.Approve(""), ErrInvalidTransition)
}

// TestTask_RejectAndResubmit reproduce el escenario del ciclo rechazo/reenvío.
func TestTask_RejectAndResubmit(t *testing.T) {
	task, _ := newTaskInProgress(t)

	require.NoError(t, task.UpdateProgress(30, nil))
	assert.ErrorIs(t, task.UpdateProgress(120, nil), ErrInvalidTask)

	require.NoError(t, task.SubmitForReview("done"))
	assert.Equal(t, 100, task.ProgressPercentage)

	require.NoError(t, task.StartReview())
	require.NoError(t, task.Reject("needs polish"))
	assert.Equal(t, StatusInProgress, task.Status)
	assert.Equal(t, 90, task.ProgressPercentage)

	// Reenvío tras el rechazo.
	require.NoError(t, task.SubmitForReview(""))
	assert.Equal(t, 100, task.ProgressPercentage)
	require.NoError(t, task.StartReview())
	require.NoError(t, task.Approve(""))
	assert.Equal(t, StatusCompleted, task.Status)

	assert.ErrorIs(t, task.StartWork(), ErrInvalidTransition)
}

func TestTask_AddAttachment(t *testing.T) {
	task := newDraftTask(t)

	err := task.AddAttachment(Attachment{Name: "contrato.pdf", URL: "s3://docs/contrato.pdf", SizeBytes: 2048, UploadedBy: task.AssignerID, UploadedAt: time.Now().UTC()})
	assert.NoError(t, err)
	assert.Len(t, task.Attachments, 1)

	require.NoError(t, task.Cancel(""))
	assert.ErrorIs(t, task.AddAttachment(Attachment{Name: "tarde.pdf"}), ErrInvalidTransition)
}

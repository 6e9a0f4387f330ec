package application

import (
	"context"
	"testing"
	"time"

	sharedDomain "github.com/davicafu/hrlab/internal/shared/domain"
	taskDomain "github.com/davicafu/hrlab/internal/task/domain"
	"github.com/davicafu/hrlab/tests/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// workflowFixture agrupa el servicio y sus dobles para no repetir el arranque.
type workflowFixture struct {
	repo       *mocks.InMemoryTaskRepo
	activities *mocks.InMemoryActivityRepo
	actors     *mocks.ActorDirectory
	service    *WorkflowService

	assigner uuid.UUID
	assignee uuid.UUID
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()

	repo := mocks.NewInMemoryTaskRepo()
	activities := mocks.NewInMemoryActivityRepo()
	actors := mocks.NewActorDirectory()

	f := &workflowFixture{
		repo:       repo,
		activities: activities,
		actors:     actors,
		service:    NewWorkflowService(repo, activities, actors, mocks.NewDummyCache(), zap.NewNop()),
		assigner:   actors.RegisterSelf(uuid.New()),
		assignee:   actors.RegisterSelf(uuid.New()),
	}
	return f
}

// seedTask inserta una tarea directamente en el repo, saltándose el servicio.
func (f *workflowFixture) seedTask(t *testing.T, withAssignee bool) *taskDomain.Task {
	t.Helper()

	p := taskDomain.NewTaskParams{Title: "Onboarding Q3", AssignerID: f.assigner}
	if withAssignee {
		p.AssigneeID = &f.assignee
	}
	task, err := taskDomain.NewTask(p)
	require.NoError(t, err)
	require.NoError(t, f.repo.Create(context.Background(), task, outboxEventForTest(task)))
	return task
}

func outboxEventForTest(task *taskDomain.Task) sharedDomain.OutboxEvent {
	return sharedDomain.OutboxEvent{
		ID:            uuid.New(),
		AggregateType: "task",
		AggregateID:   task.ID.String(),
		EventType:     taskDomain.TaskCreated,
		Payload:       task,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestAssignTask_Success(t *testing.T) {
	f := newWorkflowFixture(t)
	task := f.seedTask(t, false)

	updated, err := f.service.AssignTask(context.Background(), task.ID, f.assigner, f.assignee)
	require.NoError(t, err)

	assert.Equal(t, taskDomain.StatusAssigned, updated.Status)
	assert.Equal(t, f.assignee, *updated.AssigneeID)
	assert.NotNil(t, updated.AssignedAt)

	// ✅ Verificar outbox y actividad
	assert.Equal(t, taskDomain.TaskAssigned, f.repo.LastOutboxEventType())
	assert.Equal(t, []taskDomain.ActivityAction{taskDomain.ActivityAssigned}, f.activities.Actions())
}

func TestAssignTask_OnlyAssigner(t *testing.T) {
	f := newWorkflowFixture(t)
	task := f.seedTask(t, false)
	intruder := f.actors.RegisterSelf(uuid.New())

	_, err := f.service.AssignTask(context.Background(), task.ID, intruder, f.assignee)
	assert.ErrorIs(t, err, taskDomain.ErrNotAllowed)

	// La tarea no debe haber cambiado
	stored, _ := f.repo.GetByID(context.Background(), task.ID)
	assert.Equal(t, taskDomain.StatusDraft, stored.Status)
}

func TestStartTaskWork_OnlyAssignee(t *testing.T) {
	f := newWorkflowFixture(t)
	task := f.seedTask(t, true)

	_, err := f.service.StartTaskWork(context.Background(), task.ID, f.assigner)
	assert.ErrorIs(t, err, taskDomain.ErrNotAllowed)

	updated, err := f.service.StartTaskWork(context.Background(), task.ID, f.assignee)
	require.NoError(t, err)
	assert.Equal(t, taskDomain.StatusInProgress, updated.Status)
	assert.NotNil(t, updated.StartedAt)
}

func TestUpdateTaskProgress_PersistsAndLogs(t *testing.T) {
	f := newWorkflowFixture(t)
	task := f.seedTask(t, true)

	_, err := f.service.StartTaskWork(context.Background(), task.ID, f.assignee)
	require.NoError(t, err)

	hours := 4.5
	updated, err := f.service.UpdateTaskProgress(context.Background(), task.ID, f.assignee, 40, &hours)
	require.NoError(t, err)

	assert.Equal(t, 40, updated.ProgressPercentage)
	assert.Equal(t, 4.5, *updated.ActualHours)
	assert.Equal(t, taskDomain.TaskProgressUpdated, f.repo.LastOutboxEventType())

	// Fuera de rango: el repositorio no debe recibir nada nuevo
	outboxBefore := len(f.repo.Outbox)
	_, err = f.service.UpdateTaskProgress(context.Background(), task.ID, f.assignee, 150, nil)
	assert.ErrorIs(t, err, taskDomain.ErrInvalidTask)
	assert.Len(t, f.repo.Outbox, outboxBefore)
}

func TestSubmitAndApprove_HappyPath(t *testing.T) {
	f := newWorkflowFixture(t)
	task := f.seedTask(t, true)

	_, err := f.service.StartTaskWork(context.Background(), task.ID, f.assignee)
	require.NoError(t, err)

	_, err = f.service.SubmitTaskForReview(context.Background(), task.ID, f.assignee, "listo para revisar")
	require.NoError(t, err)

	// Aprobar directamente desde submitted: el servicio hace el salto a in_review
	updated, err := f.service.ApproveTask(context.Background(), task.ID, f.assigner, "buen trabajo")
	require.NoError(t, err)

	assert.Equal(t, taskDomain.StatusCompleted, updated.Status)
	assert.Equal(t, "buen trabajo", updated.ApprovalNotes)
	assert.NotNil(t, updated.CompletedAt)

	// El doble salto queda registrado como dos actividades
	assert.Equal(t, []taskDomain.ActivityAction{
		taskDomain.ActivityStarted,
		taskDomain.ActivitySubmitted,
		taskDomain.ActivityReviewStarted,
		taskDomain.ActivityApproved,
	}, f.activities.Actions())
	assert.Equal(t, taskDomain.TaskApproved, f.repo.LastOutboxEventType())
}

func TestRejectTask_ReturnsToInProgressWithPenalty(t *testing.T) {
	f := newWorkflowFixture(t)
	task := f.seedTask(t, true)

	_, err := f.service.StartTaskWork(context.Background(), task.ID, f.assignee)
	require.NoError(t, err)
	_, err = f.service.SubmitTaskForReview(context.Background(), task.ID, f.assignee, "")
	require.NoError(t, err)

	updated, err := f.service.RejectTask(context.Background(), task.ID, f.assigner, "faltan los anexos")
	require.NoError(t, err)

	assert.Equal(t, taskDomain.StatusInProgress, updated.Status)
	assert.Equal(t, 90, updated.ProgressPercentage) // 100 - 10 de penalización
	assert.Equal(t, "faltan los anexos", updated.RejectionReason)
	assert.Equal(t, taskDomain.TaskRejected, f.repo.LastOutboxEventType())

	// El assignee puede volver a entregar tras corregir
	_, err = f.service.SubmitTaskForReview(context.Background(), task.ID, f.assignee, "anexos incluidos")
	assert.NoError(t, err)
}

func TestRejectTask_RequiresReason(t *testing.T) {
	f := newWorkflowFixture(t)
	task := f.seedTask(t, true)

	_, err := f.service.StartTaskWork(context.Background(), task.ID, f.assignee)
	require.NoError(t, err)
	_, err = f.service.SubmitTaskForReview(context.Background(), task.ID, f.assignee, "")
	require.NoError(t, err)

	_, err = f.service.RejectTask(context.Background(), task.ID, f.assigner, "  ")
	assert.ErrorIs(t, err, taskDomain.ErrInvalidTask)
}

func TestCancelTask_OnlyBeforeReview(t *testing.T) {
	f := newWorkflowFixture(t)
	task := f.seedTask(t, true)

	_, err := f.service.StartTaskWork(context.Background(), task.ID, f.assignee)
	require.NoError(t, err)
	_, err = f.service.SubmitTaskForReview(context.Background(), task.ID, f.assignee, "")
	require.NoError(t, err)

	_, err = f.service.CancelTask(context.Background(), task.ID, f.assigner, "ya no hace falta")
	assert.ErrorIs(t, err, taskDomain.ErrInvalidTransition)
}

func TestCancelTask_Success(t *testing.T) {
	f := newWorkflowFixture(t)
	task := f.seedTask(t, true)

	updated, err := f.service.CancelTask(context.Background(), task.ID, f.assigner, "reorganización")
	require.NoError(t, err)

	assert.Equal(t, taskDomain.StatusCancelled, updated.Status)
	assert.True(t, updated.Status.IsTerminal())
	assert.Equal(t, taskDomain.TaskCancelled, f.repo.LastOutboxEventType())
}

func TestUpdateTaskDetails_AssigneeLosesEditAfterSubmit(t *testing.T) {
	f := newWorkflowFixture(t)
	task := f.seedTask(t, true)

	_, err := f.service.StartTaskWork(context.Background(), task.ID, f.assignee)
	require.NoError(t, err)

	newTitle := "Onboarding Q3 (revisado)"
	_, err = f.service.UpdateTaskDetails(context.Background(), task.ID, f.assignee, taskDomain.UpdateDetailsParams{Title: &newTitle})
	require.NoError(t, err)

	_, err = f.service.SubmitTaskForReview(context.Background(), task.ID, f.assignee, "")
	require.NoError(t, err)

	// Tras la entrega el assignee ya no puede editar...
	_, err = f.service.UpdateTaskDetails(context.Background(), task.ID, f.assignee, taskDomain.UpdateDetailsParams{Title: &newTitle})
	assert.ErrorIs(t, err, taskDomain.ErrNotAllowed)
}

func TestWorkflow_ActivityFailureDoesNotRevertTransition(t *testing.T) {
	f := newWorkflowFixture(t)
	task := f.seedTask(t, false)
	f.activities.FailAppend = true

	updated, err := f.service.AssignTask(context.Background(), task.ID, f.assigner, f.assignee)
	require.NoError(t, err)
	assert.Equal(t, taskDomain.StatusAssigned, updated.Status)

	// La transición quedó persistida aunque el log de actividad fallara
	stored, _ := f.repo.GetByID(context.Background(), task.ID)
	assert.Equal(t, taskDomain.StatusAssigned, stored.Status)
	assert.Empty(t, f.activities.Actions())
}

func TestValidateTaskPermissions_Delegates(t *testing.T) {
	f := newWorkflowFixture(t)
	task := f.seedTask(t, true)

	assert.True(t, f.service.ValidateTaskPermissions(task, f.assigner, taskDomain.ActionCancel))
	assert.False(t, f.service.ValidateTaskPermissions(task, f.assignee, taskDomain.ActionCancel))
	assert.True(t, f.service.ValidateTaskPermissions(task, uuid.New(), taskDomain.ActionView))
}

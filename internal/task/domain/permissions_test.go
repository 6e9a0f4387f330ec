package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_CanPerform(t *testing.T) {
	assigner := uuid.New()
	assignee := uuid.New()
	stranger := uuid.New()

	task, err := NewTask(NewTaskParams{Title: "Permisos", AssignerID: assigner})
	require.NoError(t, err)

	tests := []struct {
		name     string
		actor    uuid.UUID
		action   TaskAction
		prepare  func()
		expected bool
	}{
		{"ver es permisivo", stranger, ActionView, nil, true},
		{"comentar es permisivo", stranger, ActionComment, nil, true},
		{"assigner puede cancelar en draft", assigner, ActionCancel, nil, true},
		{"assignee no puede cancelar", assignee, ActionCancel, nil, false},
		{"assigner puede asignar en draft", assigner, ActionAssign, nil, true},
		{"nadie más puede asignar", stranger, ActionAssign, nil, false},
		{"assignee aún no puede empezar (draft)", assignee, ActionStart, nil, false},
		{
			"assignee puede empezar una vez asignada",
			assignee, ActionStart,
			func() { require.NoError(t, task.AssignTo(assignee)) },
			true,
		},
		{"assigner no puede empezar", assigner, ActionStart, nil, false},
		{"assignee no puede entregar antes de empezar", assignee, ActionSubmit, nil, false},
		{
			"assignee puede entregar en curso",
			assignee, ActionSubmit,
			func() { require.NoError(t, task.StartWork()) },
			true,
		},
		{"assignee puede editar mientras es editable", assignee, ActionEdit, nil, true},
		{"assigner siempre puede editar", assigner, ActionEdit, nil, true},
		{"un tercero no puede editar", stranger, ActionEdit, nil, false},
		{
			"assigner puede revisar tras la entrega",
			assigner, ActionReview,
			func() { require.NoError(t, task.SubmitForReview("")) },
			true,
		},
		{"assignee no puede revisar", assignee, ActionReview, nil, false},
		{"assignee ya no puede editar tras la entrega", assignee, ActionEdit, nil, false},
		{
			"cancelar deja de ser posible una vez completada",
			assigner, ActionCancel,
			func() {
				require.NoError(t, task.StartReview())
				require.NoError(t, task.Approve(""))
			},
			false,
		},
		{"acción desconocida se deniega", assigner, TaskAction("escalate"), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.prepare != nil {
				tt.prepare()
			}
			assert.Equal(t, tt.expected, task.CanPerform(tt.actor, tt.action))
		})
	}
}

func TestTaskComment_EditOnlyByAuthor(t *testing.T) {
	taskID := uuid.New()
	author := uuid.New()

	comment, err := NewTaskComment(taskID, author, "primer borrador", CommentPlain)
	require.NoError(t, err)

	// Otro actor no puede editar.
	assert.ErrorIs(t, comment.Edit(uuid.New(), "hackeado"), ErrNotAllowed)
	assert.Equal(t, "primer borrador", comment.Comment)

	// El autor sí, pero no a vacío.
	assert.ErrorIs(t, comment.Edit(author, "  "), ErrInvalidComment)
	assert.NoError(t, comment.Edit(author, "versión final"))
	assert.Equal(t, "versión final", comment.Comment)
}

func TestTaskComment_CanDelete(t *testing.T) {
	assigner := uuid.New()
	author := uuid.New()
	task, err := NewTask(NewTaskParams{Title: "Con comentarios", AssignerID: assigner})
	require.NoError(t, err)

	comment, err := NewTaskComment(task.ID, author, "nota", CommentReviewNote)
	require.NoError(t, err)

	assert.True(t, comment.CanDelete(author, task), "el autor puede borrar")
	assert.True(t, comment.CanDelete(assigner, task), "el dueño de la tarea puede borrar")
	assert.False(t, comment.CanDelete(uuid.New(), task), "un tercero no")
}

func TestNewTaskComment_RequiresBody(t *testing.T) {
	_, err := NewTaskComment(uuid.New(), uuid.New(), "   ", CommentPlain)
	assert.ErrorIs(t, err, ErrInvalidComment)
}

package application

import (
	"context"
	"testing"

	taskDomain "github.com/davicafu/hrlab/internal/task/domain"
	"github.com/davicafu/hrlab/tests/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type commentFixture struct {
	tasks      *mocks.InMemoryTaskRepo
	comments   *mocks.InMemoryCommentRepo
	activities *mocks.InMemoryActivityRepo
	actors     *mocks.ActorDirectory
	service    *CommentService

	assigner uuid.UUID
	assignee uuid.UUID
	task     *taskDomain.Task
}

func newCommentFixture(t *testing.T) *commentFixture {
	t.Helper()

	f := &commentFixture{
		tasks:      mocks.NewInMemoryTaskRepo(),
		comments:   mocks.NewInMemoryCommentRepo(),
		activities: mocks.NewInMemoryActivityRepo(),
		actors:     mocks.NewActorDirectory(),
	}
	f.service = NewCommentService(f.tasks, f.comments, f.activities, f.actors, zap.NewNop())
	f.assigner = f.actors.RegisterSelf(uuid.New())
	f.assignee = f.actors.RegisterSelf(uuid.New())

	task, err := taskDomain.NewTask(taskDomain.NewTaskParams{
		Title:      "Con hilo de comentarios",
		AssignerID: f.assigner,
		AssigneeID: &f.assignee,
	})
	require.NoError(t, err)
	require.NoError(t, f.tasks.Create(context.Background(), task, outboxEventForTest(task)))
	f.task = task
	return f
}

func TestAddComment_Success(t *testing.T) {
	f := newCommentFixture(t)

	comment, err := f.service.AddComment(context.Background(), f.task.ID, f.assignee, "¿Cuál es el plazo?", taskDomain.CommentPlain)
	require.NoError(t, err)

	assert.Equal(t, "¿Cuál es el plazo?", comment.Comment)
	assert.Equal(t, f.assignee, comment.AuthorID)
	assert.Equal(t, []taskDomain.ActivityAction{taskDomain.ActivityCommented}, f.activities.Actions())
}

func TestAddComment_AnyActorMayComment(t *testing.T) {
	f := newCommentFixture(t)
	stranger := f.actors.RegisterSelf(uuid.New())

	_, err := f.service.AddComment(context.Background(), f.task.ID, stranger, "me uno a la conversación", taskDomain.CommentPlain)
	assert.NoError(t, err)
}

func TestAddComment_EmptyBody(t *testing.T) {
	f := newCommentFixture(t)

	_, err := f.service.AddComment(context.Background(), f.task.ID, f.assignee, "   ", taskDomain.CommentPlain)
	assert.ErrorIs(t, err, taskDomain.ErrInvalidComment)
}

func TestAddComment_UnknownTask(t *testing.T) {
	f := newCommentFixture(t)

	_, err := f.service.AddComment(context.Background(), uuid.New(), f.assignee, "hola", taskDomain.CommentPlain)
	assert.ErrorIs(t, err, taskDomain.ErrTaskNotFound)
}

func TestEditComment_OnlyAuthor(t *testing.T) {
	f := newCommentFixture(t)

	comment, err := f.service.AddComment(context.Background(), f.task.ID, f.assignee, "versión inicial", taskDomain.CommentPlain)
	require.NoError(t, err)

	// El assigner no es el autor: no puede editar, ni siquiera siendo dueño de la tarea
	_, err = f.service.EditComment(context.Background(), comment.ID, f.assigner, "editado por otro")
	assert.ErrorIs(t, err, taskDomain.ErrNotAllowed)

	edited, err := f.service.EditComment(context.Background(), comment.ID, f.assignee, "versión corregida")
	require.NoError(t, err)
	assert.Equal(t, "versión corregida", edited.Comment)

	stored, _ := f.comments.GetByID(context.Background(), comment.ID)
	assert.Equal(t, "versión corregida", stored.Comment)
}

func TestDeleteComment_AuthorOrTaskOwner(t *testing.T) {
	f := newCommentFixture(t)
	stranger := f.actors.RegisterSelf(uuid.New())

	comment, err := f.service.AddComment(context.Background(), f.task.ID, f.assignee, "para borrar", taskDomain.CommentPlain)
	require.NoError(t, err)

	// Un tercero no puede borrar
	err = f.service.DeleteComment(context.Background(), comment.ID, stranger)
	assert.ErrorIs(t, err, taskDomain.ErrNotAllowed)

	// El assigner de la tarea sí (moderación)
	err = f.service.DeleteComment(context.Background(), comment.ID, f.assigner)
	require.NoError(t, err)

	_, err = f.comments.GetByID(context.Background(), comment.ID)
	assert.ErrorIs(t, err, taskDomain.ErrCommentNotFound)
}

func TestListComments_ChronologicalThread(t *testing.T) {
	f := newCommentFixture(t)

	_, err := f.service.AddComment(context.Background(), f.task.ID, f.assigner, "primero", taskDomain.CommentPlain)
	require.NoError(t, err)
	_, err = f.service.AddComment(context.Background(), f.task.ID, f.assignee, "segundo", taskDomain.CommentPlain)
	require.NoError(t, err)

	thread, err := f.service.ListComments(context.Background(), f.task.ID)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "primero", thread[0].Comment)
	assert.Equal(t, "segundo", thread[1].Comment)
}

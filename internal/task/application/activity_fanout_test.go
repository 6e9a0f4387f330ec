package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	taskDomain "github.com/davicafu/hrlab/internal/task/domain"
	"github.com/davicafu/hrlab/tests/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// recordingArchive captura los lotes replicados, con acceso seguro desde
// la goroutine de réplica del fanout.
type recordingArchive struct {
	mu      sync.Mutex
	batches [][]*taskDomain.TaskActivity
	err     error
}

func (r *recordingArchive) ArchiveBatch(ctx context.Context, activities []*taskDomain.TaskActivity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.batches = append(r.batches, activities)
	return nil
}

func (r *recordingArchive) FetchByTask(ctx context.Context, taskID uuid.UUID) ([]*taskDomain.TaskActivity, error) {
	return nil, nil
}

func (r *recordingArchive) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

type recordingAnalytics struct {
	mu      sync.Mutex
	batches [][]*taskDomain.TaskActivity
}

func (r *recordingAnalytics) LogBatch(ctx context.Context, activities []*taskDomain.TaskActivity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, activities)
	return nil
}

func (r *recordingAnalytics) GetDailyTrend(ctx context.Context, start, end time.Time) ([]taskDomain.DailyActivityTrend, error) {
	return nil, nil
}

func (r *recordingAnalytics) GetAverageCompletionTime(ctx context.Context, start, end time.Time) (time.Duration, error) {
	return 0, nil
}

func (r *recordingAnalytics) ListRecentByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]*taskDomain.TaskActivity, error) {
	return nil, nil
}

func (r *recordingAnalytics) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func TestActivityFanout_ReplicatesToArchiveAndAnalytics(t *testing.T) {
	// ARRANGE
	primary := mocks.NewInMemoryActivityRepo()
	archive := &recordingArchive{}
	analytics := &recordingAnalytics{}
	fanout := NewActivityFanout(primary, archive, analytics, zap.NewNop())

	activity := taskDomain.NewTaskActivity(uuid.New(), uuid.New(), taskDomain.ActivitySubmitted, nil, nil, nil)

	// ACT
	err := fanout.Append(context.Background(), activity)

	// ASSERT
	assert.NoError(t, err)

	listed, err := fanout.ListByTask(context.Background(), activity.TaskID)
	assert.NoError(t, err)
	assert.Len(t, listed, 1, "el registro debe quedar en el repositorio primario")

	// La réplica es asíncrona: esperamos a que llegue a ambos destinos.
	assert.Eventually(t, func() bool {
		return archive.Len() == 1 && analytics.Len() == 1
	}, time.Second, 10*time.Millisecond, "la réplica debe alcanzar archivo y analítica")
}

func TestActivityFanout_ReplicaFailureDoesNotAffectPrimary(t *testing.T) {
	// ARRANGE
	primary := mocks.NewInMemoryActivityRepo()
	archive := &recordingArchive{err: errors.New("mongo down")}
	fanout := NewActivityFanout(primary, archive, nil, zap.NewNop())

	activity := taskDomain.NewTaskActivity(uuid.New(), uuid.New(), taskDomain.ActivityApproved, nil, nil, nil)

	// ACT
	err := fanout.Append(context.Background(), activity)

	// ASSERT
	assert.NoError(t, err, "el fallo de la réplica no debe propagarse")

	listed, err := fanout.ListByTask(context.Background(), activity.TaskID)
	assert.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestActivityFanout_PrimaryFailurePropagates(t *testing.T) {
	// ARRANGE
	primary := mocks.NewInMemoryActivityRepo()
	primary.FailAppend = true
	archive := &recordingArchive{}
	fanout := NewActivityFanout(primary, archive, nil, zap.NewNop())

	activity := taskDomain.NewTaskActivity(uuid.New(), uuid.New(), taskDomain.ActivityCreated, nil, nil, nil)

	// ACT
	err := fanout.Append(context.Background(), activity)

	// ASSERT
	assert.Error(t, err)
	assert.Equal(t, 0, archive.Len(), "si el primario falla no debe haber réplica")
}

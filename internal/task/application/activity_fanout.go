package application

import (
	"context"
	"time"

	taskDomain "github.com/davicafu/hrlab/internal/task/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActivityFanout implementa TaskActivityRepository escribiendo primero en el
// repositorio transaccional y replicando después cada registro, en best-effort,
// hacia el archivo documental y el almacén analítico. Las réplicas nunca
// bloquean ni hacen fallar la operación principal.
type ActivityFanout struct {
	primary   taskDomain.TaskActivityRepository
	archive   taskDomain.ActivityArchive             // opcional, puede ser nil
	analytics taskDomain.ActivityAnalyticsRepository // opcional, puede ser nil
	log       *zap.Logger
}

var _ taskDomain.TaskActivityRepository = (*ActivityFanout)(nil)

func NewActivityFanout(
	primary taskDomain.TaskActivityRepository,
	archive taskDomain.ActivityArchive,
	analytics taskDomain.ActivityAnalyticsRepository,
	log *zap.Logger,
) *ActivityFanout {
	return &ActivityFanout{
		primary:   primary,
		archive:   archive,
		analytics: analytics,
		log:       log,
	}
}

func (f *ActivityFanout) Append(ctx context.Context, a *taskDomain.TaskActivity) error {
	if err := f.primary.Append(ctx, a); err != nil {
		return err
	}

	if f.archive == nil && f.analytics == nil {
		return nil
	}

	batch := []*taskDomain.TaskActivity{a}
	go func() {
		// Réplica desacoplada de la petición original.
		replicaCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if f.archive != nil {
			if err := f.archive.ArchiveBatch(replicaCtx, batch); err != nil {
				f.log.Warn("⚠️ Failed to archive task activity",
					zap.String("activity_id", a.ID.String()),
					zap.Error(err))
			}
		}
		if f.analytics != nil {
			if err := f.analytics.LogBatch(replicaCtx, batch); err != nil {
				f.log.Warn("⚠️ Failed to log task activity to analytics",
					zap.String("activity_id", a.ID.String()),
					zap.Error(err))
			}
		}
	}()

	return nil
}

func (f *ActivityFanout) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*taskDomain.TaskActivity, error) {
	return f.primary.ListByTask(ctx, taskID)
}

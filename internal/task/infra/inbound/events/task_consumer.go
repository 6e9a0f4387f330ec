package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedCache "github.com/davicafu/hrlab/internal/shared/infra/platform/cache"
	sharedUtils "github.com/davicafu/hrlab/internal/shared/infra/utils"
	taskDomain "github.com/davicafu/hrlab/internal/task/domain"
)

// TaskConsumer escucha los eventos del topic de tareas y mantiene la caché
// caliente: cada evento lleva el agregado completo, así que basta con volver
// a escribir la entrada. El relayer publica la tarea serializada tal cual.
type TaskConsumer struct {
	cache sharedCache.Cache
	log   *zap.Logger
}

func NewTaskConsumer(cache sharedCache.Cache, logger *zap.Logger) *TaskConsumer {
	return &TaskConsumer{
		cache: cache,
		log:   logger,
	}
}

func (c *TaskConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	sharedUtils.UnmarshalAndHandle[taskDomain.Task](c.log, payload, func(task taskDomain.Task) {
		if task.ID == uuid.Nil {
			c.log.Warn("Task event without id ignored", zap.String("key", key))
			return
		}

		cacheCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()

		cacheKey := taskDomain.TaskCacheKeyByID(task.ID)
		if err := c.cache.Set(cacheCtx, cacheKey, &task, 60); err != nil {
			c.log.Warn("⚠️ Failed to refresh task cache from event",
				zap.String("task_id", task.ID.String()),
				zap.Error(err))
			return
		}

		c.log.Debug("Task cache refreshed via event",
			zap.String("task_id", task.ID.String()),
			zap.String("status", string(task.Status)))
	})
}

// BackgroundConsumerChan conecta el consumidor a un canal del bus en memoria.
func BackgroundConsumerChan(ctx context.Context, ch <-chan interface{}, consumer *TaskConsumer) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				consumer.log.Info("TaskConsumer stopped")
				return
			case msg := <-ch:
				// El bus en memoria entrega los eventos ya serializados.
				if payload, ok := msg.([]byte); ok {
					consumer.HandleMessage(ctx, "", payload)
				}
			}
		}
	}()
}

package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	employeeDomain "github.com/davicafu/hrlab/internal/employee/domain"
	sharedCache "github.com/davicafu/hrlab/internal/shared/infra/platform/cache"
	sharedUtils "github.com/davicafu/hrlab/internal/shared/infra/utils"
)

// EmployeeConsumer escucha los eventos del topic de empleados y refresca las
// dos claves de caché del perfil (por id y por user_id).
type EmployeeConsumer struct {
	cache sharedCache.Cache
	log   *zap.Logger
}

func NewEmployeeConsumer(cache sharedCache.Cache, logger *zap.Logger) *EmployeeConsumer {
	return &EmployeeConsumer{
		cache: cache,
		log:   logger,
	}
}

func (c *EmployeeConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	sharedUtils.UnmarshalAndHandle[employeeDomain.Employee](c.log, payload, func(employee employeeDomain.Employee) {
		if employee.ID == uuid.Nil {
			c.log.Warn("Employee event without id ignored", zap.String("key", key))
			return
		}

		cacheCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()

		if err := c.cache.Set(cacheCtx, employeeDomain.EmployeeCacheKeyByID(employee.ID), &employee, 60); err != nil {
			c.log.Warn("⚠️ Failed to refresh employee cache from event",
				zap.String("employee_id", employee.ID.String()),
				zap.Error(err))
			return
		}
		if err := c.cache.Set(cacheCtx, employeeDomain.EmployeeCacheKeyByUserID(employee.UserID), &employee, 60); err != nil {
			c.log.Warn("⚠️ Failed to refresh employee cache from event",
				zap.String("employee_id", employee.ID.String()),
				zap.Error(err))
			return
		}

		c.log.Debug("Employee cache refreshed via event",
			zap.String("employee_id", employee.ID.String()),
			zap.String("status", string(employee.Status)))
	})
}

// BackgroundConsumerChan conecta el consumidor a un canal del bus en memoria.
func BackgroundConsumerChan(ctx context.Context, ch <-chan interface{}, consumer *EmployeeConsumer) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				consumer.log.Info("EmployeeConsumer stopped")
				return
			case msg := <-ch:
				if payload, ok := msg.([]byte); ok {
					consumer.HandleMessage(ctx, "", payload)
				}
			}
		}
	}()
}

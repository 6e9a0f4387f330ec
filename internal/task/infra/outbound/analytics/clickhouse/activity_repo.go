package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	taskDomain "github.com/davicafu/hrlab/internal/task/domain"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
)

// ActivityAnalyticsRepo implementa ActivityAnalyticsRepository sobre ClickHouse.
// Guarda el flujo de actividad en bruto y lo agrega en consulta.
type ActivityAnalyticsRepo struct {
	db *sql.DB
}

var _ taskDomain.ActivityAnalyticsRepository = (*ActivityAnalyticsRepo)(nil)

func NewActivityAnalyticsRepo(addr string, dbName string) (*ActivityAnalyticsRepo, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	return &ActivityAnalyticsRepo{db: conn}, nil
}

// LogBatch inserta un lote de registros de actividad. ClickHouse funciona
// mejor con inserciones en lotes.
func (r *ActivityAnalyticsRepo) LogBatch(ctx context.Context, activities []*taskDomain.TaskActivity) error {
	if len(activities) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO task_activity_log (id, task_id, performed_by, action, previous_status, new_status, created_at, event_time)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	eventTime := time.Now()
	for _, a := range activities {
		var prev, next string
		if a.PreviousStatus != nil {
			prev = string(*a.PreviousStatus)
		}
		if a.NewStatus != nil {
			next = string(*a.NewStatus)
		}

		if _, err := stmt.ExecContext(
			ctx,
			a.ID,
			a.TaskID,
			a.PerformedBy,
			string(a.Action),
			prev,
			next,
			a.CreatedAt,
			eventTime,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to exec statement for activity %s: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// GetDailyTrend agrega entregas, aprobaciones y rechazos por día.
func (r *ActivityAnalyticsRepo) GetDailyTrend(ctx context.Context, start, end time.Time) ([]taskDomain.DailyActivityTrend, error) {
	query := `
		SELECT
			toStartOfDay(created_at) AS day,
			countIf(action = 'submitted') AS submitted,
			countIf(action = 'approved') AS completed,
			countIf(action = 'rejected') AS rejected
		FROM task_activity_log
		WHERE created_at BETWEEN ? AND ?
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trends []taskDomain.DailyActivityTrend
	for rows.Next() {
		var trend taskDomain.DailyActivityTrend
		if err := rows.Scan(&trend.Day, &trend.SubmittedCount, &trend.CompletedCount, &trend.RejectedCount); err != nil {
			return nil, err
		}
		trends = append(trends, trend)
	}
	return trends, rows.Err()
}

// GetAverageCompletionTime calcula el tiempo medio entre la creación de la
// tarea y su aprobación, para las tareas aprobadas dentro del rango.
func (r *ActivityAnalyticsRepo) GetAverageCompletionTime(ctx context.Context, start, end time.Time) (time.Duration, error) {
	query := `
		SELECT
			avg(approval_time - creation_time) AS avg_completion_seconds
		FROM (
			SELECT
				task_id,
				minIf(created_at, action = 'created') AS creation_time,
				maxIf(created_at, action = 'approved') AS approval_time
			FROM task_activity_log
			WHERE task_id IN (
				SELECT DISTINCT task_id FROM task_activity_log
				WHERE action = 'approved' AND created_at BETWEEN ? AND ?
			)
			GROUP BY task_id
		)
		WHERE creation_time > 0 AND approval_time > 0
	`
	var avgSeconds sql.NullFloat64
	err := r.db.QueryRowContext(ctx, query, start, end).Scan(&avgSeconds)
	if err != nil {
		return 0, err
	}
	if !avgSeconds.Valid {
		return 0, nil // No hay datos para calcular
	}

	return time.Duration(avgSeconds.Float64 * float64(time.Second)), nil
}

// ListRecentByActor devuelve la actividad reciente de un empleado, útil para
// los paneles de carga de trabajo.
func (r *ActivityAnalyticsRepo) ListRecentByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]*taskDomain.TaskActivity, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, task_id, performed_by, action, previous_status, new_status, created_at
		FROM task_activity_log
		WHERE performed_by = ?
		ORDER BY created_at DESC
		LIMIT ?`, actorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*taskDomain.TaskActivity
	for rows.Next() {
		var a taskDomain.TaskActivity
		var action, prev, next string
		if err := rows.Scan(&a.ID, &a.TaskID, &a.PerformedBy, &action, &prev, &next, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Action = taskDomain.ActivityAction(action)
		if prev != "" {
			s := taskDomain.TaskStatus(prev)
			a.PreviousStatus = &s
		}
		if next != "" {
			s := taskDomain.TaskStatus(next)
			a.NewStatus = &s
		}
		activities = append(activities, &a)
	}
	return activities, rows.Err()
}

// InitSchema crea la tabla en ClickHouse si no existe.
func (r *ActivityAnalyticsRepo) InitSchema() error {
	// Particionada por mes y ordenada por los campos de consulta habituales.
	query := `
		CREATE TABLE IF NOT EXISTS task_activity_log (
			id              UUID,
			task_id         UUID,
			performed_by    UUID,
			action          String,
			previous_status String,
			new_status      String,
			created_at      DateTime64(3),
			event_time      DateTime64(3)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(event_time)
		ORDER BY (task_id, action, event_time);
	`
	_, err := r.db.Exec(query)
	return err
}

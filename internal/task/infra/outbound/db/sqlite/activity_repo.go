package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/davicafu/hrlab/internal/task/domain"
)

// ActivityRepoSQLite persiste el log de actividad. Append-only: no hay
// UPDATE ni DELETE sobre esta tabla.
type ActivityRepoSQLite struct {
	db *sql.DB
}

var _ domain.TaskActivityRepository = (*ActivityRepoSQLite)(nil)

func NewActivityRepoSQLite(db *sql.DB) *ActivityRepoSQLite {
	return &ActivityRepoSQLite{db: db}
}

func (r *ActivityRepoSQLite) Append(ctx context.Context, a *domain.TaskActivity) error {
	var detailsJSON sql.NullString
	if a.Details != nil {
		data, err := json.Marshal(a.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal activity details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(data), Valid: true}
	}

	var prev, next sql.NullString
	if a.PreviousStatus != nil {
		prev = sql.NullString{String: string(*a.PreviousStatus), Valid: true}
	}
	if a.NewStatus != nil {
		next = sql.NullString{String: string(*a.NewStatus), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO task_activities (id, task_id, performed_by, action, previous_status, new_status, details, created_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		a.ID.String(), a.TaskID.String(), a.PerformedBy.String(), string(a.Action), prev, next, detailsJSON, a.CreatedAt,
	)
	return err
}

func (r *ActivityRepoSQLite) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TaskActivity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, task_id, performed_by, action, previous_status, new_status, details, created_at
		 FROM task_activities
		 WHERE task_id = ?
		 ORDER BY created_at`, taskID.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*domain.TaskActivity
	for rows.Next() {
		var a domain.TaskActivity
		var idStr, taskStr, actorStr, action string
		var prev, next, details sql.NullString

		if err := rows.Scan(&idStr, &taskStr, &actorStr, &action, &prev, &next, &details, &a.CreatedAt); err != nil {
			return nil, err
		}

		if a.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("invalid UUID in DB: %w", err)
		}
		if a.TaskID, err = uuid.Parse(taskStr); err != nil {
			return nil, fmt.Errorf("invalid UUID in DB: %w", err)
		}
		if a.PerformedBy, err = uuid.Parse(actorStr); err != nil {
			return nil, fmt.Errorf("invalid UUID in DB: %w", err)
		}

		a.Action = domain.ActivityAction(action)
		if prev.Valid {
			s := domain.TaskStatus(prev.String)
			a.PreviousStatus = &s
		}
		if next.Valid {
			s := domain.TaskStatus(next.String)
			a.NewStatus = &s
		}
		if details.Valid {
			if err := json.Unmarshal([]byte(details.String), &a.Details); err != nil {
				return nil, fmt.Errorf("invalid details JSON in activity row %s: %w", a.ID, err)
			}
		}

		activities = append(activities, &a)
	}

	return activities, rows.Err()
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sharedDomain "github.com/davicafu/hrlab/internal/shared/domain"
	sharedQuery "github.com/davicafu/hrlab/internal/shared/infra/platform/query"
	"github.com/davicafu/hrlab/internal/shared/infra/utils"
	"github.com/davicafu/hrlab/internal/task/domain"
	"github.com/google/uuid"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type TaskRepoPostgres struct {
	db *sql.DB
}

var _ domain.TaskRepository = (*TaskRepoPostgres)(nil)

func NewTaskRepoPostgres(db *sql.DB) *TaskRepoPostgres {
	return &TaskRepoPostgres{db: db}
}

// ------------------ Helper DRY para insertar en outbox ------------------

func insertOutboxTx(ctx context.Context, tx *sql.Tx, evt sharedDomain.OutboxEvent) error {
	payloadBytes, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at, processed)
		 VALUES ($1, $2, $3, $4, $5, $6, false)`,
		evt.ID, evt.AggregateType, evt.AggregateID, evt.EventType, payloadBytes, evt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

const taskColumns = `id, title, description, task_type, priority, status,
	assigner_id, assignee_id, department_id, parent_task_id,
	progress_percentage, estimated_hours, actual_hours,
	created_at, assigned_at, started_at, due_date, submitted_at, reviewed_at, completed_at, updated_at,
	tags, attachments, review_notes, rejection_reason, approval_notes, version`

// ------------------ CRUD + Outbox ------------------

// Create inserta la tarea y su evento en transacción.
func (r *TaskRepoPostgres) Create(ctx context.Context, t *domain.Task, evt sharedDomain.OutboxEvent) error {
	tagsJSON, err := json.Marshal(t.Tags)
	if err != nil {
		return err
	}
	attachmentsJSON, err := json.Marshal(t.Attachments)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27)`,
		t.ID, t.Title, t.Description, string(t.Type), string(t.Priority), string(t.Status),
		t.AssignerID, t.AssigneeID, t.DepartmentID, t.ParentTaskID,
		t.ProgressPercentage, t.EstimatedHours, t.ActualHours,
		t.CreatedAt, t.AssignedAt, t.StartedAt, t.DueDate, t.SubmittedAt, t.ReviewedAt, t.CompletedAt, t.UpdatedAt,
		tagsJSON, attachmentsJSON, t.ReviewNotes, t.RejectionReason, t.ApprovalNotes, t.Version,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if err = insertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

// Update reescribe la tarea y encola el evento en transacción.
func (r *TaskRepoPostgres) Update(ctx context.Context, t *domain.Task, evt sharedDomain.OutboxEvent) error {
	tagsJSON, err := json.Marshal(t.Tags)
	if err != nil {
		return err
	}
	attachmentsJSON, err := json.Marshal(t.Attachments)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE tasks SET title=$1, description=$2, task_type=$3, priority=$4, status=$5,
			assignee_id=$6, department_id=$7, parent_task_id=$8,
			progress_percentage=$9, estimated_hours=$10, actual_hours=$11,
			assigned_at=$12, started_at=$13, due_date=$14, submitted_at=$15, reviewed_at=$16, completed_at=$17, updated_at=$18,
			tags=$19, attachments=$20, review_notes=$21, rejection_reason=$22, approval_notes=$23, version=$24
		 WHERE id=$25`,
		t.Title, t.Description, string(t.Type), string(t.Priority), string(t.Status),
		t.AssigneeID, t.DepartmentID, t.ParentTaskID,
		t.ProgressPercentage, t.EstimatedHours, t.ActualHours,
		t.AssignedAt, t.StartedAt, t.DueDate, t.SubmittedAt, t.ReviewedAt, t.CompletedAt, t.UpdatedAt,
		tagsJSON, attachmentsJSON, t.ReviewNotes, t.RejectionReason, t.ApprovalNotes, t.Version,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrTaskNotFound
	}

	if err = insertOutboxTx(ctx, tx, evt); err != nil {
		return fmt.Errorf("failed to insert outbox: %w", err)
	}

	return tx.Commit()
}

// ------------------ Lectura ------------------

func scanTask(scan func(dest ...interface{}) error) (*domain.Task, error) {
	var t domain.Task
	var taskType, priority, status string
	var tagsJSON, attachmentsJSON []byte

	if err := scan(
		&t.ID, &t.Title, &t.Description, &taskType, &priority, &status,
		&t.AssignerID, &t.AssigneeID, &t.DepartmentID, &t.ParentTaskID,
		&t.ProgressPercentage, &t.EstimatedHours, &t.ActualHours,
		&t.CreatedAt, &t.AssignedAt, &t.StartedAt, &t.DueDate, &t.SubmittedAt, &t.ReviewedAt, &t.CompletedAt, &t.UpdatedAt,
		&tagsJSON, &attachmentsJSON, &t.ReviewNotes, &t.RejectionReason, &t.ApprovalNotes, &t.Version,
	); err != nil {
		return nil, err
	}

	t.Type = domain.TaskType(taskType)
	t.Priority = domain.Priority(priority)
	t.Status = domain.TaskStatus(status)

	if err := json.Unmarshal(tagsJSON, &t.Tags); err != nil {
		return nil, fmt.Errorf("invalid tags JSON in DB: %w", err)
	}
	if err := json.Unmarshal(attachmentsJSON, &t.Attachments); err != nil {
		return nil, fmt.Errorf("invalid attachments JSON in DB: %w", err)
	}

	return &t, nil
}

func (r *TaskRepoPostgres) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id=$1`, id)

	t, err := scanTask(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

// Traduce criterios neutrales a SQL para Postgres ($1, $2...)
func applyCriteria(criteria sharedDomain.Criteria) (string, []interface{}) {
	if criteria == nil {
		return "", nil
	}
	var clauses []string
	var args []interface{}
	for i, c := range criteria.ToConditions() {
		clauses = append(clauses, fmt.Sprintf("%s %s $%d", c.Field, c.Op, i+1))
		args = append(args, c.Value)
	}
	return strings.Join(clauses, " AND "), args
}

func (r *TaskRepoPostgres) ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]*domain.Task, error) {
	whereSQL, args := applyCriteria(criteria)

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	orderField := sort.Field
	if orderField == "" {
		orderField = "created_at"
	}

	switch p := pagination.(type) {
	case sharedQuery.OffsetPagination:
		args = append(args, p.Limit, p.Offset)
		query += fmt.Sprintf(" ORDER BY %s %s LIMIT $%d OFFSET $%d",
			orderField, utils.Ternary(sort.Desc, "DESC", "ASC"), len(args)-1, len(args))
	case sharedQuery.CursorPagination:
		if p.Cursor != "" {
			parts := strings.SplitN(p.Cursor, "|", 2)
			cursorSort := parts[0]
			cursorID := parts[1]

			if whereSQL != "" {
				query += fmt.Sprintf(" AND (%s, id) > ($%d, $%d)", orderField, len(args)+1, len(args)+2)
			} else {
				query += fmt.Sprintf(" WHERE (%s, id) > ($%d, $%d)", orderField, len(args)+1, len(args)+2)
			}
			args = append(args, cursorSort, cursorID)
		}
		query += fmt.Sprintf(" ORDER BY %s %s, id %s LIMIT %d",
			orderField, utils.Ternary(sort.Desc, "DESC", "ASC"),
			utils.Ternary(sort.Desc, "DESC", "ASC"),
			p.Limit,
		)
	default:
		query += fmt.Sprintf(" ORDER BY %s %s", orderField, utils.Ternary(sort.Desc, "DESC", "ASC"))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

// ------------------ Inicialización ------------------

func InitPostgres(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id UUID PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			task_type TEXT NOT NULL,
			priority TEXT NOT NULL,
			status TEXT NOT NULL,
			assigner_id UUID NOT NULL,
			assignee_id UUID,
			department_id UUID,
			parent_task_id UUID,
			progress_percentage INT NOT NULL DEFAULT 0,
			estimated_hours DOUBLE PRECISION,
			actual_hours DOUBLE PRECISION,
			created_at TIMESTAMP NOT NULL,
			assigned_at TIMESTAMP,
			started_at TIMESTAMP,
			due_date TIMESTAMP,
			submitted_at TIMESTAMP,
			reviewed_at TIMESTAMP,
			completed_at TIMESTAMP,
			updated_at TIMESTAMP NOT NULL,
			tags JSONB NOT NULL DEFAULT '[]',
			attachments JSONB NOT NULL DEFAULT '[]',
			review_notes TEXT NOT NULL DEFAULT '',
			rejection_reason TEXT NOT NULL DEFAULT '',
			approval_notes TEXT NOT NULL DEFAULT '',
			version INT NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks (assignee_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks (status)`,
		`CREATE TABLE IF NOT EXISTS outbox (
			id UUID PRIMARY KEY,
			aggregate_type TEXT NOT NULL,
			aggregate_id UUID NOT NULL,
			event_type TEXT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMP NOT NULL,
			processed BOOLEAN NOT NULL DEFAULT FALSE
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ---------------- Patrón Outbox en Eventos-----------------

func (r *TaskRepoPostgres) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
		 FROM outbox
		 WHERE processed = false
		 ORDER BY created_at
		 LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []sharedDomain.OutboxEvent
	for rows.Next() {
		var evt sharedDomain.OutboxEvent
		var payloadBytes []byte
		var createdAt time.Time

		if err := rows.Scan(&evt.ID, &evt.AggregateType, &evt.AggregateID, &evt.EventType, &payloadBytes, &createdAt); err != nil {
			return nil, err
		}

		var payload map[string]interface{}
		if err := json.Unmarshal(payloadBytes, &payload); err != nil {
			return nil, fmt.Errorf("invalid JSON payload in outbox row %s: %w", evt.ID, err)
		}

		evt.Payload = payload
		evt.CreatedAt = createdAt
		events = append(events, evt)
	}

	return events, rows.Err()
}

func (r *TaskRepoPostgres) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE outbox SET processed = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event %s as processed: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get RowsAffected for outbox event %s: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("no outbox event found with id %s", id)
	}

	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	// _ "github.com/mattn/go-sqlite3" // better performance but requires gcc
	_ "modernc.org/sqlite"

	sharedDomain "github.com/davicafu/hrlab/internal/shared/domain"
	sharedQuery "github.com/davicafu/hrlab/internal/shared/infra/platform/query"
	"github.com/davicafu/hrlab/internal/shared/infra/utils"
	"github.com/davicafu/hrlab/internal/task/domain"
)

type TaskRepoSQLite struct {
	db *sql.DB
}

var _ domain.TaskRepository = (*TaskRepoSQLite)(nil)

func NewTaskRepoSQLite(db *sql.DB) *TaskRepoSQLite {
	return &TaskRepoSQLite{db: db}
}

// ------------------ Helper DRY para insertar en outbox ------------------

func insertOutboxTx(ctx context.Context, tx *sql.Tx, evt sharedDomain.OutboxEvent) error {
	payloadBytes, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox (id,aggregate_type,aggregate_id,event_type,payload,created_at,processed)
		 VALUES (?,?,?,?,?,?,0)`,
		evt.ID.String(), evt.AggregateType, evt.AggregateID, evt.EventType, string(payloadBytes), evt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	return nil
}

// ------------------ Helpers de serialización ------------------

// Tags y adjuntos se guardan como JSON en columnas de texto: SQLite no tiene
// tipo array y este contenido nunca se filtra en SQL.
func marshalJSONColumn(v interface{}) (string, error) {
	if v == nil {
		return "[]", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func uuidPtrToNull(id *uuid.UUID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

func nullToUUIDPtr(ns sql.NullString) (*uuid.UUID, error) {
	if !ns.Valid {
		return nil, nil
	}
	id, err := uuid.Parse(ns.String)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	return &id, nil
}

func timePtrToNull(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullToTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func floatPtrToNull(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullToFloatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

const taskColumns = `id, title, description, task_type, priority, status,
	assigner_id, assignee_id, department_id, parent_task_id,
	progress_percentage, estimated_hours, actual_hours,
	created_at, assigned_at, started_at, due_date, submitted_at, reviewed_at, completed_at, updated_at,
	tags, attachments, review_notes, rejection_reason, approval_notes, version`

// ------------------ Métodos ------------------

// Create inserta la tarea y su evento outbox en la misma transacción.
func (r *TaskRepoSQLite) Create(ctx context.Context, t *domain.Task, evt sharedDomain.OutboxEvent) error {
	tagsJSON, err := marshalJSONColumn(t.Tags)
	if err != nil {
		return err
	}
	attachmentsJSON, err := marshalJSONColumn(t.Attachments)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID.String(), t.Title, t.Description, string(t.Type), string(t.Priority), string(t.Status),
		t.AssignerID.String(), uuidPtrToNull(t.AssigneeID), uuidPtrToNull(t.DepartmentID), uuidPtrToNull(t.ParentTaskID),
		t.ProgressPercentage, floatPtrToNull(t.EstimatedHours), floatPtrToNull(t.ActualHours),
		t.CreatedAt, timePtrToNull(t.AssignedAt), timePtrToNull(t.StartedAt), timePtrToNull(t.DueDate),
		timePtrToNull(t.SubmittedAt), timePtrToNull(t.ReviewedAt), timePtrToNull(t.CompletedAt), t.UpdatedAt,
		tagsJSON, attachmentsJSON, t.ReviewNotes, t.RejectionReason, t.ApprovalNotes, t.Version,
	); err != nil {
		return err
	}

	if err = insertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

// Update reescribe la tarea completa y encola el evento en transacción.
func (r *TaskRepoSQLite) Update(ctx context.Context, t *domain.Task, evt sharedDomain.OutboxEvent) error {
	tagsJSON, err := marshalJSONColumn(t.Tags)
	if err != nil {
		return err
	}
	attachmentsJSON, err := marshalJSONColumn(t.Attachments)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE tasks SET title=?, description=?, task_type=?, priority=?, status=?,
			assignee_id=?, department_id=?, parent_task_id=?,
			progress_percentage=?, estimated_hours=?, actual_hours=?,
			assigned_at=?, started_at=?, due_date=?, submitted_at=?, reviewed_at=?, completed_at=?, updated_at=?,
			tags=?, attachments=?, review_notes=?, rejection_reason=?, approval_notes=?, version=?
		 WHERE id=?`,
		t.Title, t.Description, string(t.Type), string(t.Priority), string(t.Status),
		uuidPtrToNull(t.AssigneeID), uuidPtrToNull(t.DepartmentID), uuidPtrToNull(t.ParentTaskID),
		t.ProgressPercentage, floatPtrToNull(t.EstimatedHours), floatPtrToNull(t.ActualHours),
		timePtrToNull(t.AssignedAt), timePtrToNull(t.StartedAt), timePtrToNull(t.DueDate),
		timePtrToNull(t.SubmittedAt), timePtrToNull(t.ReviewedAt), timePtrToNull(t.CompletedAt), t.UpdatedAt,
		tagsJSON, attachmentsJSON, t.ReviewNotes, t.RejectionReason, t.ApprovalNotes, t.Version,
		t.ID.String(),
	)
	if err != nil {
		return err
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrTaskNotFound
	}

	if err = insertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

// scanTask reconstruye la entidad desde una fila.
func scanTask(scan func(dest ...interface{}) error) (*domain.Task, error) {
	var t domain.Task
	var idStr, assignerStr, taskType, priority, status string
	var assignee, department, parent sql.NullString
	var estimated, actual sql.NullFloat64
	var assignedAt, startedAt, dueDate, submittedAt, reviewedAt, completedAt sql.NullTime
	var tagsJSON, attachmentsJSON string

	if err := scan(
		&idStr, &t.Title, &t.Description, &taskType, &priority, &status,
		&assignerStr, &assignee, &department, &parent,
		&t.ProgressPercentage, &estimated, &actual,
		&t.CreatedAt, &assignedAt, &startedAt, &dueDate, &submittedAt, &reviewedAt, &completedAt, &t.UpdatedAt,
		&tagsJSON, &attachmentsJSON, &t.ReviewNotes, &t.RejectionReason, &t.ApprovalNotes, &t.Version,
	); err != nil {
		return nil, err
	}

	parsedID, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	t.ID = parsedID

	if t.AssignerID, err = uuid.Parse(assignerStr); err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	if t.AssigneeID, err = nullToUUIDPtr(assignee); err != nil {
		return nil, err
	}
	if t.DepartmentID, err = nullToUUIDPtr(department); err != nil {
		return nil, err
	}
	if t.ParentTaskID, err = nullToUUIDPtr(parent); err != nil {
		return nil, err
	}

	t.Type = domain.TaskType(taskType)
	t.Priority = domain.Priority(priority)
	t.Status = domain.TaskStatus(status)
	t.EstimatedHours = nullToFloatPtr(estimated)
	t.ActualHours = nullToFloatPtr(actual)
	t.AssignedAt = nullToTimePtr(assignedAt)
	t.StartedAt = nullToTimePtr(startedAt)
	t.DueDate = nullToTimePtr(dueDate)
	t.SubmittedAt = nullToTimePtr(submittedAt)
	t.ReviewedAt = nullToTimePtr(reviewedAt)
	t.CompletedAt = nullToTimePtr(completedAt)

	if err := json.Unmarshal([]byte(tagsJSON), &t.Tags); err != nil {
		return nil, fmt.Errorf("invalid tags JSON in DB: %w", err)
	}
	if err := json.Unmarshal([]byte(attachmentsJSON), &t.Attachments); err != nil {
		return nil, fmt.Errorf("invalid attachments JSON in DB: %w", err)
	}

	return &t, nil
}

func (r *TaskRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id.String())

	t, err := scanTask(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return t, nil
}

// Traduce criterios neutrales a SQL para SQLite (?). ILIKE no existe en
// SQLite; LIKE ya es insensible a mayúsculas para ASCII.
func applyCriteria(criteria sharedDomain.Criteria) (string, []interface{}) {
	if criteria == nil {
		return "", nil
	}
	var clauses []string
	var args []interface{}
	for _, c := range criteria.ToConditions() {
		op := c.Op
		if op == sharedDomain.OpILike {
			op = sharedDomain.OpLike
		}
		clauses = append(clauses, fmt.Sprintf("%s %s ?", c.Field, op))
		args = append(args, fmt.Sprintf("%v", c.Value))
	}
	return strings.Join(clauses, " AND "), args
}

func (r *TaskRepoSQLite) ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]*domain.Task, error) {
	whereSQL, args := applyCriteria(criteria)

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	orderField := sort.Field
	if orderField == "" {
		orderField = "created_at"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", orderField, utils.Ternary(sort.Desc, "DESC", "ASC"))

	if p, ok := pagination.(sharedQuery.OffsetPagination); ok {
		limit := p.Limit
		if limit <= 0 {
			limit = 50
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, p.Offset)
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

// ------------------ Inicialización de DB ------------------

// InitSQLite crea las tablas del contexto de tareas si no existen.
func InitSQLite(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			task_type TEXT NOT NULL,
			priority TEXT NOT NULL,
			status TEXT NOT NULL,
			assigner_id TEXT NOT NULL,
			assignee_id TEXT,
			department_id TEXT,
			parent_task_id TEXT,
			progress_percentage INTEGER NOT NULL DEFAULT 0,
			estimated_hours REAL,
			actual_hours REAL,
			created_at DATETIME NOT NULL,
			assigned_at DATETIME,
			started_at DATETIME,
			due_date DATETIME,
			submitted_at DATETIME,
			reviewed_at DATETIME,
			completed_at DATETIME,
			updated_at DATETIME NOT NULL,
			tags TEXT NOT NULL DEFAULT '[]',
			attachments TEXT NOT NULL DEFAULT '[]',
			review_notes TEXT NOT NULL DEFAULT '',
			rejection_reason TEXT NOT NULL DEFAULT '',
			approval_notes TEXT NOT NULL DEFAULT '',
			version INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks (assignee_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_assigner ON tasks (assigner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks (status)`,
		`CREATE TABLE IF NOT EXISTS task_activities (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL,
			performed_by TEXT NOT NULL,
			action TEXT NOT NULL,
			previous_status TEXT,
			new_status TEXT,
			details TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_task ON task_activities (task_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS task_comments (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL,
			author_id TEXT NOT NULL,
			comment TEXT NOT NULL,
			comment_type TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_task ON task_comments (task_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS outbox (
			id TEXT PRIMARY KEY,
			aggregate_type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			processed BOOLEAN NOT NULL DEFAULT 0
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

// FetchPendingOutbox obtiene eventos pendientes y maneja errores de UUID y JSON
func (r *TaskRepoSQLite) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
		 FROM outbox
		 WHERE processed = 0
		 ORDER BY created_at
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []sharedDomain.OutboxEvent
	for rows.Next() {
		var idStr, aggregateType, aggregateID, eventType, payloadStr string
		var createdAt time.Time

		if err := rows.Scan(&idStr, &aggregateType, &aggregateID, &eventType, &payloadStr, &createdAt); err != nil {
			return nil, err
		}

		parsedID, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid UUID in outbox row: %w", err)
		}

		var payload map[string]interface{}
		if err := json.Unmarshal([]byte(payloadStr), &payload); err != nil {
			return nil, fmt.Errorf("invalid JSON payload in outbox row %s: %w", parsedID, err)
		}

		events = append(events, sharedDomain.OutboxEvent{
			ID:            parsedID,
			AggregateType: aggregateType,
			AggregateID:   aggregateID,
			EventType:     eventType,
			Payload:       payload,
			CreatedAt:     createdAt,
			Processed:     false,
		})
	}

	return events, rows.Err()
}

// MarkOutboxProcessed marca un evento como procesado y devuelve error si falla
func (r *TaskRepoSQLite) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE outbox SET processed = 1 WHERE id = ?`,
		id.String(),
	)
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

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/davicafu/hrlab/internal/employee/domain"
	sharedDomain "github.com/davicafu/hrlab/internal/shared/domain"
	sharedQuery "github.com/davicafu/hrlab/internal/shared/infra/platform/query"
	"github.com/davicafu/hrlab/internal/shared/infra/utils"
)

type EmployeeRepoSQLite struct {
	db *sql.DB
}

var _ domain.EmployeeRepository = (*EmployeeRepoSQLite)(nil)

func NewEmployeeRepoSQLite(db *sql.DB) *EmployeeRepoSQLite {
	return &EmployeeRepoSQLite{db: db}
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

const employeeColumns = `id, user_id, email, name, role, department_id, manager,
	verification_status, rejection_reason, version, created_at, updated_at`

// ------------------ Métodos ------------------

func (r *EmployeeRepoSQLite) Create(ctx context.Context, e *domain.Employee, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var dept sql.NullString
	if e.DepartmentID != nil {
		dept = sql.NullString{String: e.DepartmentID.String(), Valid: true}
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO employees (`+employeeColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID.String(), e.UserID.String(), e.Email, e.Name, e.Role, dept, e.Manager,
		string(e.Status), e.RejectionReason, e.Version, e.CreatedAt, e.UpdatedAt,
	); err != nil {
		return err
	}

	if err = insertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

// Update reescribe el perfil. Si expectedVersion no es nil, la cláusula WHERE
// incluye la versión: cero filas afectadas con el perfil existente significa
// conflicto de versión, no ausencia.
func (r *EmployeeRepoSQLite) Update(ctx context.Context, e *domain.Employee, expectedVersion *int, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var dept sql.NullString
	if e.DepartmentID != nil {
		dept = sql.NullString{String: e.DepartmentID.String(), Valid: true}
	}

	query := `UPDATE employees SET email=?, name=?, role=?, department_id=?, manager=?,
		verification_status=?, rejection_reason=?, version=?, updated_at=?
		WHERE id=?`
	args := []interface{}{
		e.Email, e.Name, e.Role, dept, e.Manager,
		string(e.Status), e.RejectionReason, e.Version, e.UpdatedAt,
		e.ID.String(),
	}
	if expectedVersion != nil {
		query += ` AND version=?`
		args = append(args, *expectedVersion)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		// Distinguir "no existe" de "versión desfasada".
		var exists int
		if scanErr := tx.QueryRowContext(ctx,
			`SELECT 1 FROM employees WHERE id=?`, e.ID.String()).Scan(&exists); scanErr == sql.ErrNoRows {
			err = domain.ErrEmployeeNotFound
			return err
		}
		err = domain.ErrVersionConflict
		return err
	}

	if err = insertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *EmployeeRepoSQLite) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM employees WHERE id=?`, id.String())
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		err = domain.ErrEmployeeNotFound
		return err
	}

	if err = insertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

func scanEmployee(scan func(dest ...interface{}) error) (*domain.Employee, error) {
	var e domain.Employee
	var idStr, userStr, status string
	var dept sql.NullString

	if err := scan(&idStr, &userStr, &e.Email, &e.Name, &e.Role, &dept, &e.Manager,
		&status, &e.RejectionReason, &e.Version, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if e.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	if e.UserID, err = uuid.Parse(userStr); err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	if dept.Valid {
		deptID, err := uuid.Parse(dept.String)
		if err != nil {
			return nil, fmt.Errorf("invalid UUID in DB: %w", err)
		}
		e.DepartmentID = &deptID
	}
	e.Status = domain.VerificationStatus(status)

	return &e, nil
}

func (r *EmployeeRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*domain.Employee, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id.String())

	e, err := scanEmployee(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrEmployeeNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *EmployeeRepoSQLite) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Employee, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE user_id = ?`, userID.String())

	e, err := scanEmployee(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrEmployeeNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *EmployeeRepoSQLite) ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]*domain.Employee, error) {
	var clauses []string
	var args []interface{}
	if criteria != nil {
		for _, c := range criteria.ToConditions() {
			op := c.Op
			if op == sharedDomain.OpILike {
				op = sharedDomain.OpLike
			}
			clauses = append(clauses, fmt.Sprintf("%s %s ?", c.Field, op))
			args = append(args, fmt.Sprintf("%v", c.Value))
		}
	}

	query := `SELECT ` + employeeColumns + ` FROM employees`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
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

	var employees []*domain.Employee
	for rows.Next() {
		e, err := scanEmployee(rows.Scan)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}

	return employees, rows.Err()
}

// ------------------ Documentos ------------------

type DocumentRepoSQLite struct {
	db *sql.DB
}

var _ domain.DocumentRepository = (*DocumentRepoSQLite)(nil)

func NewDocumentRepoSQLite(db *sql.DB) *DocumentRepoSQLite {
	return &DocumentRepoSQLite{db: db}
}

// Save hace upsert: la revisión de un documento reutiliza la misma fila.
func (r *DocumentRepoSQLite) Save(ctx context.Context, d *domain.Document) error {
	var reviewedAt sql.NullTime
	if d.ReviewedAt != nil {
		reviewedAt = sql.NullTime{Time: *d.ReviewedAt, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO employee_documents (id, employee_id, doc_type, file_name, status, uploaded_at, reviewed_at)
		 VALUES (?,?,?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET status=excluded.status, reviewed_at=excluded.reviewed_at`,
		d.ID.String(), d.EmployeeID.String(), string(d.DocType), d.FileName, string(d.Status), d.UploadedAt, reviewedAt,
	)
	return err
}

func (r *DocumentRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, employee_id, doc_type, file_name, status, uploaded_at, reviewed_at
		 FROM employee_documents WHERE id = ?`, id.String())

	d, err := scanDocument(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrEmployeeNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *DocumentRepoSQLite) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*domain.Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, employee_id, doc_type, file_name, status, uploaded_at, reviewed_at
		 FROM employee_documents WHERE employee_id = ? ORDER BY uploaded_at`, employeeID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		d, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}

	return docs, rows.Err()
}

func scanDocument(scan func(dest ...interface{}) error) (*domain.Document, error) {
	var d domain.Document
	var idStr, employeeStr, docType, status string
	var reviewedAt sql.NullTime

	if err := scan(&idStr, &employeeStr, &docType, &d.FileName, &status, &d.UploadedAt, &reviewedAt); err != nil {
		return nil, err
	}

	var err error
	if d.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	if d.EmployeeID, err = uuid.Parse(employeeStr); err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	d.DocType = domain.DocumentType(docType)
	d.Status = domain.DocumentStatus(status)
	if reviewedAt.Valid {
		t := reviewedAt.Time
		d.ReviewedAt = &t
	}

	return &d, nil
}

// ------------------ Inicialización de DB ------------------

// InitSQLite crea las tablas del contexto de empleados si no existen.
func InitSQLite(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS employees (
			id TEXT PRIMARY KEY,
			user_id TEXT UNIQUE NOT NULL,
			email TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT '',
			department_id TEXT,
			manager BOOLEAN NOT NULL DEFAULT 0,
			verification_status TEXT NOT NULL,
			rejection_reason TEXT NOT NULL DEFAULT '',
			version INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_employees_status ON employees (verification_status)`,
		`CREATE TABLE IF NOT EXISTS employee_documents (
			id TEXT PRIMARY KEY,
			employee_id TEXT NOT NULL,
			doc_type TEXT NOT NULL,
			file_name TEXT NOT NULL,
			status TEXT NOT NULL,
			uploaded_at DATETIME NOT NULL,
			reviewed_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_employee ON employee_documents (employee_id)`,
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

func (r *EmployeeRepoSQLite) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
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

func (r *EmployeeRepoSQLite) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
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

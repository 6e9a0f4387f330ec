package domain

import (
	"context"
	"errors"
	"fmt"

	sharedDomain "github.com/davicafu/hrlab/internal/shared/domain"
	sharedQuery "github.com/davicafu/hrlab/internal/shared/infra/platform/query"
	"github.com/google/uuid"
)

var (
	ErrEmployeeNotFound         = errors.New("employee not found")
	ErrEmployeeAlreadyExists    = errors.New("employee already exists")
	ErrInvalidEmployee          = errors.New("invalid employee")
	ErrInvalidVerificationState = errors.New("invalid verification state")
	ErrVersionConflict          = errors.New("employee version conflict")
	ErrNotAllowed               = errors.New("actor is not allowed to perform this action")
	ErrDocumentsIncomplete      = errors.New("required documents are incomplete")
)

// --- Repositorio de Employees ---
// Update acepta un expectedVersion opcional: si se aporta y no coincide con la
// fila almacenada, el adaptador devuelve ErrVersionConflict sin escribir nada.
type EmployeeRepository interface {
	Create(ctx context.Context, e *Employee, evt sharedDomain.OutboxEvent) error
	Update(ctx context.Context, e *Employee, expectedVersion *int, evt sharedDomain.OutboxEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Employee, error)
	DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error
	ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]*Employee, error)
}

// --- Repositorio de documentos de verificación ---
type DocumentRepository interface {
	Save(ctx context.Context, d *Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)
	ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*Document, error)
}

// ---------- Helpers comunes (cache keys, etc.) ----------

func EmployeeCacheKeyByID(id uuid.UUID) string {
	return fmt.Sprintf("employee:id:%s", id.String())
}

func EmployeeCacheKeyByUserID(userID uuid.UUID) string {
	return fmt.Sprintf("employee:user:%s", userID.String())
}

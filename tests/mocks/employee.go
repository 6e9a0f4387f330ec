package mocks

import (
	"context"
	"fmt"
	"sync"

	employeeDomain "github.com/davicafu/hrlab/internal/employee/domain"
	sharedDomain "github.com/davicafu/hrlab/internal/shared/domain"
	sharedQuery "github.com/davicafu/hrlab/internal/shared/infra/platform/query"
	"github.com/google/uuid"
)

// InMemoryEmployeeRepo simula EmployeeRepository con outbox y control de versión.
type InMemoryEmployeeRepo struct {
	Employees map[uuid.UUID]*employeeDomain.Employee
	Outbox    []sharedDomain.OutboxEvent
	mu        sync.Mutex
}

var _ employeeDomain.EmployeeRepository = (*InMemoryEmployeeRepo)(nil)

func NewInMemoryEmployeeRepo() *InMemoryEmployeeRepo {
	return &InMemoryEmployeeRepo{
		Employees: make(map[uuid.UUID]*employeeDomain.Employee),
		Outbox:    []sharedDomain.OutboxEvent{},
	}
}

func (r *InMemoryEmployeeRepo) Create(ctx context.Context, e *employeeDomain.Employee, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Employees[e.ID]; ok {
		return employeeDomain.ErrEmployeeAlreadyExists
	}
	copied := *e
	r.Employees[e.ID] = &copied
	r.Outbox = append(r.Outbox, evt)
	return nil
}

// Update con comprobación de versión opcional, igual que el adaptador SQL:
// expectedVersion se compara con la fila almacenada, no con la entrante.
func (r *InMemoryEmployeeRepo) Update(ctx context.Context, e *employeeDomain.Employee, expectedVersion *int, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.Employees[e.ID]
	if !ok {
		return employeeDomain.ErrEmployeeNotFound
	}
	if expectedVersion != nil && stored.Version != *expectedVersion {
		return employeeDomain.ErrVersionConflict
	}
	copied := *e
	r.Employees[e.ID] = &copied
	r.Outbox = append(r.Outbox, evt)
	return nil
}

func (r *InMemoryEmployeeRepo) GetByID(ctx context.Context, id uuid.UUID) (*employeeDomain.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.Employees[id]
	if !ok {
		return nil, employeeDomain.ErrEmployeeNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *InMemoryEmployeeRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*employeeDomain.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.Employees {
		if e.UserID == userID {
			copied := *e
			return &copied, nil
		}
	}
	return nil, employeeDomain.ErrEmployeeNotFound
}

func (r *InMemoryEmployeeRepo) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Employees[id]; !ok {
		return employeeDomain.ErrEmployeeNotFound
	}
	delete(r.Employees, id)
	r.Outbox = append(r.Outbox, evt)
	return nil
}

func (r *InMemoryEmployeeRepo) ListByCriteria(
	ctx context.Context,
	criteria sharedDomain.Criteria,
	pagination sharedQuery.Pagination,
	s sharedQuery.Sort,
) ([]*employeeDomain.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var list []*employeeDomain.Employee
	for _, e := range r.Employees {
		if criteria == nil {
			list = append(list, e)
			continue
		}

		matchesAll := true
		for _, cond := range criteria.ToConditions() {
			if !matchEmployeeCriterion(e, cond) {
				matchesAll = false
				break
			}
		}
		if matchesAll {
			list = append(list, e)
		}
	}

	switch p := pagination.(type) {
	case sharedQuery.OffsetPagination:
		start := p.Offset
		if start > len(list) {
			return []*employeeDomain.Employee{}, nil
		}
		end := start + p.Limit
		if end > len(list) {
			end = len(list)
		}
		return list[start:end], nil
	default:
		return list, nil
	}
}

func matchEmployeeCriterion(e *employeeDomain.Employee, crit sharedDomain.Criterion) bool {
	switch crit.Field {
	case "verification_status":
		return string(e.Status) == fmt.Sprintf("%v", crit.Value)
	case "email":
		return e.Email == fmt.Sprintf("%v", crit.Value)
	case "manager":
		return fmt.Sprintf("%v", e.Manager) == fmt.Sprintf("%v", crit.Value)
	case "department_id":
		if e.DepartmentID == nil {
			return false
		}
		return e.DepartmentID.String() == fmt.Sprintf("%v", crit.Value)
	default:
		// criterio desconocido: no filtrar (mejor ser permisivo en mock)
		return true
	}
}

// ------------------- Outbox -------------------

func (r *InMemoryEmployeeRepo) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit > len(r.Outbox) {
		limit = len(r.Outbox)
	}
	pending := r.Outbox[:limit]
	return append([]sharedDomain.OutboxEvent(nil), pending...), nil
}

func (r *InMemoryEmployeeRepo) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, evt := range r.Outbox {
		if evt.ID == id {
			r.Outbox = append(r.Outbox[:i], r.Outbox[i+1:]...)
			return nil
		}
	}
	return employeeDomain.ErrEmployeeNotFound
}

// LastOutboxEventType devuelve el tipo del último evento encolado.
func (r *InMemoryEmployeeRepo) LastOutboxEventType() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Outbox) == 0 {
		return ""
	}
	return r.Outbox[len(r.Outbox)-1].EventType
}

// ------------------- Documentos -------------------

type InMemoryDocumentRepo struct {
	Documents map[uuid.UUID]*employeeDomain.Document
	mu        sync.Mutex
}

var _ employeeDomain.DocumentRepository = (*InMemoryDocumentRepo)(nil)

func NewInMemoryDocumentRepo() *InMemoryDocumentRepo {
	return &InMemoryDocumentRepo{Documents: make(map[uuid.UUID]*employeeDomain.Document)}
}

func (r *InMemoryDocumentRepo) Save(ctx context.Context, d *employeeDomain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *d
	r.Documents[d.ID] = &copied
	return nil
}

func (r *InMemoryDocumentRepo) GetByID(ctx context.Context, id uuid.UUID) (*employeeDomain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.Documents[id]
	if !ok {
		return nil, employeeDomain.ErrEmployeeNotFound
	}
	copied := *d
	return &copied, nil
}

func (r *InMemoryDocumentRepo) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*employeeDomain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*employeeDomain.Document
	for _, d := range r.Documents {
		if d.EmployeeID == employeeID {
			copied := *d
			out = append(out, &copied)
		}
	}
	return out, nil
}

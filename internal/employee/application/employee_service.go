package application

import (
	"context"
	"time"

	employeeDomain "github.com/davicafu/hrlab/internal/employee/domain"
	sharedDomain "github.com/davicafu/hrlab/internal/shared/domain"
	sharedCache "github.com/davicafu/hrlab/internal/shared/infra/platform/cache"
	sharedQuery "github.com/davicafu/hrlab/internal/shared/infra/platform/query"
	"github.com/davicafu/hrlab/internal/shared/infra/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EmployeeService cubre el ciclo de vida del perfil: alta, lecturas, edición
// de contacto, documentos y las acciones del propio empleado en el pipeline
// (enviar y reenviar su perfil).
type EmployeeService struct {
	repo      employeeDomain.EmployeeRepository
	documents employeeDomain.DocumentRepository
	cache     sharedCache.Cache
	log       *zap.Logger
}

func NewEmployeeService(
	repo employeeDomain.EmployeeRepository,
	documents employeeDomain.DocumentRepository,
	cache sharedCache.Cache,
	log *zap.Logger,
) *EmployeeService {
	return &EmployeeService{
		repo:      repo,
		documents: documents,
		cache:     cache,
		log:       log,
	}
}

func newEmployeeEvent(e *employeeDomain.Employee, eventType string) sharedDomain.OutboxEvent {
	return sharedDomain.OutboxEvent{
		ID:            uuid.New(),
		AggregateType: "employee",
		AggregateID:   e.ID.String(),
		EventType:     eventType,
		Payload:       e,
		CreatedAt:     time.Now().UTC(),
	}
}

// refreshCache actualiza las dos claves bajo las que se cachea el perfil.
func (s *EmployeeService) refreshCache(ctx context.Context, e *employeeDomain.Employee) {
	sharedCache.AsyncCacheSet(ctx, s.cache, employeeDomain.EmployeeCacheKeyByID(e.ID), e, 60, s.log)
	sharedCache.AsyncCacheSet(ctx, s.cache, employeeDomain.EmployeeCacheKeyByUserID(e.UserID), e, 60, s.log)
}

// CreateEmployee da de alta el perfil en estado not_submitted.
func (s *EmployeeService) CreateEmployee(ctx context.Context, userID uuid.UUID, email, name string) (*employeeDomain.Employee, error) {
	employee, err := employeeDomain.NewEmployee(userID, email, name)
	if err != nil {
		return nil, err
	}

	evt := newEmployeeEvent(employee, employeeDomain.EmployeeCreated)
	if err := s.repo.Create(ctx, employee, evt); err != nil {
		s.log.Error("Failed to create employee",
			zap.String("employee_id", employee.ID.String()),
			zap.Error(err))
		return nil, err
	}

	s.refreshCache(ctx, employee)
	s.log.Info("✅ Employee created",
		zap.String("employee_id", employee.ID.String()),
		zap.String("email", employee.Email))
	return employee, nil
}

// GetEmployeeByID aplica cache-aside con reintentos sobre el repositorio.
func (s *EmployeeService) GetEmployeeByID(ctx context.Context, id uuid.UUID) (*employeeDomain.Employee, error) {
	cacheKey := employeeDomain.EmployeeCacheKeyByID(id)

	if s.cache != nil {
		var cached employeeDomain.Employee
		found, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			s.log.Warn("Cache read failed", zap.String("key", cacheKey), zap.Error(err))
		} else if found {
			return &cached, nil
		}
	}

	var employee *employeeDomain.Employee
	err := utils.Retry(ctx, 3, 100*time.Millisecond, func() error {
		var err error
		employee, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.refreshCache(ctx, employee)
	return employee, nil
}

// GetEmployeeByUserID resuelve el perfil a partir de la identidad de autenticación.
func (s *EmployeeService) GetEmployeeByUserID(ctx context.Context, userID uuid.UUID) (*employeeDomain.Employee, error) {
	cacheKey := employeeDomain.EmployeeCacheKeyByUserID(userID)

	if s.cache != nil {
		var cached employeeDomain.Employee
		found, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			s.log.Warn("Cache read failed", zap.String("key", cacheKey), zap.Error(err))
		} else if found {
			return &cached, nil
		}
	}

	employee, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.refreshCache(ctx, employee)
	return employee, nil
}

// ResolveEmployeeID implementa la resolución de actores que consume el
// contexto de tareas (application.ActorResolver).
func (s *EmployeeService) ResolveEmployeeID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	employee, err := s.GetEmployeeByUserID(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	return employee.ID, nil
}

// UpdateEmployee edita los datos de contacto. expectedVersion es opcional: si
// se aporta, el repositorio la compara con la fila almacenada y devuelve
// ErrVersionConflict en caso de desfase.
func (s *EmployeeService) UpdateEmployee(ctx context.Context, id uuid.UUID, p employeeDomain.UpdateContactParams, expectedVersion *int) (*employeeDomain.Employee, error) {
	employee, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := employee.UpdateContact(p); err != nil {
		return nil, err
	}

	evt := newEmployeeEvent(employee, employeeDomain.EmployeeUpdated)
	if err := s.repo.Update(ctx, employee, expectedVersion, evt); err != nil {
		return nil, err
	}

	s.refreshCache(ctx, employee)
	return employee, nil
}

// DeleteEmployee elimina el perfil e invalida ambas claves de caché.
func (s *EmployeeService) DeleteEmployee(ctx context.Context, id uuid.UUID) error {
	employee, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	evt := newEmployeeEvent(employee, employeeDomain.EmployeeDeleted)
	if err := s.repo.DeleteByID(ctx, id, evt); err != nil {
		return err
	}

	sharedCache.AsyncCacheDelete(ctx, s.cache, employeeDomain.EmployeeCacheKeyByID(employee.ID), s.log)
	sharedCache.AsyncCacheDelete(ctx, s.cache, employeeDomain.EmployeeCacheKeyByUserID(employee.UserID), s.log)
	return nil
}

// ListEmployees devuelve perfiles según criterios arbitrarios.
func (s *EmployeeService) ListEmployees(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]*employeeDomain.Employee, error) {
	return s.repo.ListByCriteria(ctx, criteria, pagination, sort)
}

// ---------------- Acciones del propio empleado ----------------

// SubmitProfile arranca el pipeline de verificación.
func (s *EmployeeService) SubmitProfile(ctx context.Context, id uuid.UUID) (*employeeDomain.Employee, error) {
	employee, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := employee.SubmitProfile(); err != nil {
		return nil, err
	}

	evt := newEmployeeEvent(employee, employeeDomain.EmployeeProfileSubmitted)
	if err := s.repo.Update(ctx, employee, nil, evt); err != nil {
		return nil, err
	}

	s.refreshCache(ctx, employee)
	s.log.Info("Employee profile submitted", zap.String("employee_id", id.String()))
	return employee, nil
}

// ResubmitProfile reentra al pipeline tras un rechazo.
func (s *EmployeeService) ResubmitProfile(ctx context.Context, id uuid.UUID) (*employeeDomain.Employee, error) {
	employee, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := employee.Resubmit(); err != nil {
		return nil, err
	}

	evt := newEmployeeEvent(employee, employeeDomain.EmployeeProfileSubmitted)
	if err := s.repo.Update(ctx, employee, nil, evt); err != nil {
		return nil, err
	}

	s.refreshCache(ctx, employee)
	return employee, nil
}

// ---------------- Documentos ----------------

// UploadDocument registra un documento subido por el empleado.
func (s *EmployeeService) UploadDocument(ctx context.Context, employeeID uuid.UUID, docType employeeDomain.DocumentType, fileName string) (*employeeDomain.Document, error) {
	if _, err := s.repo.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}

	doc := employeeDomain.NewDocument(employeeID, docType, fileName)
	if err := s.documents.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments devuelve los documentos del empleado.
func (s *EmployeeService) ListDocuments(ctx context.Context, employeeID uuid.UUID) ([]*employeeDomain.Document, error) {
	if _, err := s.repo.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.documents.ListByEmployee(ctx, employeeID)
}

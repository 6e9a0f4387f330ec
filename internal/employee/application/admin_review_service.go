package application

import (
	"context"
	"fmt"

	employeeDomain "github.com/davicafu/hrlab/internal/employee/domain"
	sharedCache "github.com/davicafu/hrlab/internal/shared/infra/platform/cache"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdminReviewService agrupa las acciones de revisión del pipeline de
// verificación. Todas exigen que el actor sea un manager.
type AdminReviewService struct {
	repo      employeeDomain.EmployeeRepository
	documents employeeDomain.DocumentRepository
	cache     sharedCache.Cache
	log       *zap.Logger
}

func NewAdminReviewService(
	repo employeeDomain.EmployeeRepository,
	documents employeeDomain.DocumentRepository,
	cache sharedCache.Cache,
	log *zap.Logger,
) *AdminReviewService {
	return &AdminReviewService{
		repo:      repo,
		documents: documents,
		cache:     cache,
		log:       log,
	}
}

// requireManager resuelve al revisor y comprueba que tiene permisos de gestión.
func (s *AdminReviewService) requireManager(ctx context.Context, reviewerUserID uuid.UUID) (*employeeDomain.Employee, error) {
	reviewer, err := s.repo.GetByUserID(ctx, reviewerUserID)
	if err != nil {
		return nil, err
	}
	if !reviewer.Manager {
		return nil, employeeDomain.ErrNotAllowed
	}
	return reviewer, nil
}

// advance aplica una transición, persiste con su evento y refresca la caché.
func (s *AdminReviewService) advance(
	ctx context.Context,
	reviewerUserID, employeeID uuid.UUID,
	eventType string,
	step string,
	transition func(e *employeeDomain.Employee) error,
) (*employeeDomain.Employee, error) {
	reviewer, err := s.requireManager(ctx, reviewerUserID)
	if err != nil {
		return nil, err
	}

	employee, err := s.repo.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	if err := transition(employee); err != nil {
		return nil, err
	}

	evt := newEmployeeEvent(employee, eventType)
	if err := s.repo.Update(ctx, employee, nil, evt); err != nil {
		s.log.Error("Failed to persist verification step",
			zap.String("employee_id", employeeID.String()),
			zap.String("step", step),
			zap.Error(err))
		return nil, err
	}

	sharedCache.AsyncCacheSet(ctx, s.cache, employeeDomain.EmployeeCacheKeyByID(employee.ID), employee, 60, s.log)
	sharedCache.AsyncCacheSet(ctx, s.cache, employeeDomain.EmployeeCacheKeyByUserID(employee.UserID), employee, 60, s.log)

	s.log.Info("Verification step applied",
		zap.String("employee_id", employeeID.String()),
		zap.String("step", step),
		zap.String("new_status", string(employee.Status)),
		zap.String("reviewed_by", reviewer.ID.String()))
	return employee, nil
}

// ApproveDetailsReview valida los datos personales del perfil.
func (s *AdminReviewService) ApproveDetailsReview(ctx context.Context, reviewerUserID, employeeID uuid.UUID) (*employeeDomain.Employee, error) {
	return s.advance(ctx, reviewerUserID, employeeID,
		employeeDomain.EmployeeVerificationStepped, "details_review",
		func(e *employeeDomain.Employee) error { return e.ApproveDetailsReview() })
}

// ApproveDocumentsReview valida la documentación. Antes de avanzar comprueba
// que todos los tipos requeridos tienen un documento aprobado.
func (s *AdminReviewService) ApproveDocumentsReview(ctx context.Context, reviewerUserID, employeeID uuid.UUID) (*employeeDomain.Employee, error) {
	return s.advance(ctx, reviewerUserID, employeeID,
		employeeDomain.EmployeeVerificationStepped, "documents_review",
		func(e *employeeDomain.Employee) error {
			docs, err := s.documents.ListByEmployee(ctx, e.ID)
			if err != nil {
				return err
			}
			if missing := employeeDomain.MissingDocumentTypes(docs); len(missing) > 0 {
				return fmt.Errorf("%w: missing %v", employeeDomain.ErrDocumentsIncomplete, missing)
			}
			return e.ApproveDocumentsReview()
		})
}

// AssignRoleAndAdvance fija el puesto del empleado y avanza el pipeline.
func (s *AdminReviewService) AssignRoleAndAdvance(ctx context.Context, reviewerUserID, employeeID uuid.UUID, role string) (*employeeDomain.Employee, error) {
	return s.advance(ctx, reviewerUserID, employeeID,
		employeeDomain.EmployeeVerificationStepped, "role_assignment",
		func(e *employeeDomain.Employee) error { return e.AssignRoleAndAdvance(role) })
}

// FinalApproveEmployee deja el perfil verificado.
func (s *AdminReviewService) FinalApproveEmployee(ctx context.Context, reviewerUserID, employeeID uuid.UUID) (*employeeDomain.Employee, error) {
	return s.advance(ctx, reviewerUserID, employeeID,
		employeeDomain.EmployeeVerified, "final_approval",
		func(e *employeeDomain.Employee) error { return e.FinalApprove() })
}

// RejectEmployeeProfile rechaza el perfil desde cualquier paso pendiente.
func (s *AdminReviewService) RejectEmployeeProfile(ctx context.Context, reviewerUserID, employeeID uuid.UUID, reason string) (*employeeDomain.Employee, error) {
	return s.advance(ctx, reviewerUserID, employeeID,
		employeeDomain.EmployeeRejected, "rejection",
		func(e *employeeDomain.Employee) error { return e.RejectProfile(reason) })
}

// ReviewDocument aprueba o rechaza un documento concreto.
func (s *AdminReviewService) ReviewDocument(ctx context.Context, reviewerUserID, documentID uuid.UUID, approve bool) (*employeeDomain.Document, error) {
	if _, err := s.requireManager(ctx, reviewerUserID); err != nil {
		return nil, err
	}

	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if approve {
		doc.Approve()
	} else {
		doc.Reject()
	}

	if err := s.documents.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

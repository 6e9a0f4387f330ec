package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// VerificationStatus modela el pipeline lineal de verificación del perfil.
// A diferencia del workflow de tareas, aquí cada estado tiene un único sucesor.
type VerificationStatus string

const (
	VerificationNotSubmitted           VerificationStatus = "not_submitted"
	VerificationPendingDetailsReview   VerificationStatus = "pending_details_review"
	VerificationPendingDocumentsReview VerificationStatus = "pending_documents_review"
	VerificationPendingRoleAssignment  VerificationStatus = "pending_role_assignment"
	VerificationPendingFinalApproval   VerificationStatus = "pending_final_approval"
	VerificationVerified               VerificationStatus = "verified"
	VerificationRejected               VerificationStatus = "rejected"
)

// Pending indica si el perfil está en algún paso intermedio de revisión.
// El rechazo solo es alcanzable desde estos estados.
func (s VerificationStatus) Pending() bool {
	switch s {
	case VerificationPendingDetailsReview,
		VerificationPendingDocumentsReview,
		VerificationPendingRoleAssignment,
		VerificationPendingFinalApproval:
		return true
	}
	return false
}

// Employee es el perfil del empleado dentro de RRHH. UserID enlaza con la
// identidad de la plataforma de autenticación, externa a este contexto.
type Employee struct {
	ID              uuid.UUID          `json:"id"`
	UserID          uuid.UUID          `json:"user_id"`
	Email           string             `json:"email"`
	Name            string             `json:"name"`
	Role            string             `json:"role,omitempty"`
	DepartmentID    *uuid.UUID         `json:"department_id,omitempty"`
	Manager         bool               `json:"manager"`
	Status          VerificationStatus `json:"verification_status"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
	Version         int                `json:"version"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// PartitionKey agrupa los eventos del empleado en la misma partición de Kafka.
func (e *Employee) PartitionKey() string {
	return e.ID.String()
}

func NewEmployee(userID uuid.UUID, email, name string) (*Employee, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email %q", ErrInvalidEmployee, email)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidEmployee)
	}
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidEmployee)
	}

	now := time.Now().UTC()
	return &Employee{
		ID:        uuid.New(),
		UserID:    userID,
		Email:     email,
		Name:      name,
		Status:    VerificationNotSubmitted,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (e *Employee) touch() {
	e.Version++
	e.UpdatedAt = time.Now().UTC()
}

// require valida que el perfil está en el estado predecesor esperado.
func (e *Employee) require(expected VerificationStatus, step string) error {
	if e.Status != expected {
		return fmt.Errorf("%w: cannot %s while status is %q (expected %q)",
			ErrInvalidVerificationState, step, e.Status, expected)
	}
	return nil
}

// SubmitProfile lo invoca el propio empleado al completar sus datos.
func (e *Employee) SubmitProfile() error {
	if err := e.require(VerificationNotSubmitted, "submit profile"); err != nil {
		return err
	}
	e.Status = VerificationPendingDetailsReview
	e.touch()
	return nil
}

// ApproveDetailsReview: primer paso de revisión, datos personales.
func (e *Employee) ApproveDetailsReview() error {
	if err := e.require(VerificationPendingDetailsReview, "approve details review"); err != nil {
		return err
	}
	e.Status = VerificationPendingDocumentsReview
	e.touch()
	return nil
}

// ApproveDocumentsReview: segundo paso. El servicio comprueba antes que la
// documentación requerida está completa y aprobada.
func (e *Employee) ApproveDocumentsReview() error {
	if err := e.require(VerificationPendingDocumentsReview, "approve documents review"); err != nil {
		return err
	}
	e.Status = VerificationPendingRoleAssignment
	e.touch()
	return nil
}

// AssignRoleAndAdvance fija el puesto y avanza a la aprobación final.
func (e *Employee) AssignRoleAndAdvance(role string) error {
	if err := e.require(VerificationPendingRoleAssignment, "assign role"); err != nil {
		return err
	}
	role = strings.TrimSpace(role)
	if role == "" {
		return fmt.Errorf("%w: role must not be empty", ErrInvalidEmployee)
	}
	e.Role = role
	e.Status = VerificationPendingFinalApproval
	e.touch()
	return nil
}

// FinalApprove deja el perfil verificado. Estado final feliz.
func (e *Employee) FinalApprove() error {
	if err := e.require(VerificationPendingFinalApproval, "final approve"); err != nil {
		return err
	}
	e.Status = VerificationVerified
	e.touch()
	return nil
}

// RejectProfile es alcanzable desde cualquier estado pendiente.
func (e *Employee) RejectProfile(reason string) error {
	if !e.Status.Pending() {
		return fmt.Errorf("%w: cannot reject while status is %q", ErrInvalidVerificationState, e.Status)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Errorf("%w: rejection requires a reason", ErrInvalidEmployee)
	}
	e.Status = VerificationRejected
	e.RejectionReason = reason
	e.touch()
	return nil
}

// CanResubmit: solo un perfil rechazado puede volver a entrar al pipeline.
func (e *Employee) CanResubmit() bool {
	return e.Status == VerificationRejected
}

// Resubmit devuelve el perfil al primer paso de revisión y limpia el motivo
// del rechazo anterior.
func (e *Employee) Resubmit() error {
	if !e.CanResubmit() {
		return fmt.Errorf("%w: cannot resubmit while status is %q", ErrInvalidVerificationState, e.Status)
	}
	e.Status = VerificationPendingDetailsReview
	e.RejectionReason = ""
	e.touch()
	return nil
}

// UpdateContactParams agrupa los campos editables del perfil fuera del pipeline.
type UpdateContactParams struct {
	Name         *string
	Email        *string
	DepartmentID *uuid.UUID
}

// UpdateContact modifica los datos de contacto sin tocar el estado de verificación.
func (e *Employee) UpdateContact(p UpdateContactParams) error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return fmt.Errorf("%w: name must not be empty", ErrInvalidEmployee)
		}
		e.Name = name
	}
	if p.Email != nil {
		email := strings.TrimSpace(*p.Email)
		if email == "" || !strings.Contains(email, "@") {
			return fmt.Errorf("%w: invalid email %q", ErrInvalidEmployee, *p.Email)
		}
		e.Email = email
	}
	if p.DepartmentID != nil {
		e.DepartmentID = p.DepartmentID
	}
	e.touch()
	return nil
}

package domain

import (
	shared "github.com/davicafu/hrlab/internal/shared/domain"
	"github.com/google/uuid"
)

// --- Criterios Específicos para el Dominio Employee ---

// VerificationStatusCriteria filtra por el paso del pipeline de verificación.
type VerificationStatusCriteria struct {
	Status VerificationStatus
}

func (c VerificationStatusCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{
		{Field: "verification_status", Op: shared.OpEq, Value: c.Status},
	}
}

// -----------------------------------------------------------

// EmailCriteria busca por email exacto.
type EmailCriteria struct {
	Email string
}

func (c EmailCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{
		{Field: "email", Op: shared.OpEq, Value: c.Email},
	}
}

// -----------------------------------------------------------

// NameLikeCriteria busca empleados cuyo nombre contenga un texto.
type NameLikeCriteria struct {
	Name string
}

func (c NameLikeCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{
		{Field: "name", Op: shared.OpILike, Value: "%" + c.Name + "%"},
	}
}

// -----------------------------------------------------------

// DepartmentCriteria filtra por departamento.
type DepartmentCriteria struct {
	DepartmentID uuid.UUID
}

func (c DepartmentCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{
		{Field: "department_id", Op: shared.OpEq, Value: c.DepartmentID},
	}
}

// -----------------------------------------------------------

// ManagerCriteria filtra los perfiles con permisos de gestión.
type ManagerCriteria struct {
	Manager bool
}

func (c ManagerCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{
		{Field: "manager", Op: shared.OpEq, Value: c.Manager},
	}
}

package domain

import (
	"time"

	"github.com/google/uuid"
	// Importamos el "sistema" de Criterios genérico y le damos un alias
	shared "github.com/davicafu/hrlab/internal/shared/domain"
)

// --- Criterios Específicos para el Dominio Task ---

// StatusCriteria busca tareas por su estado (draft, in_progress, etc.).
type StatusCriteria struct {
	Status TaskStatus
}

func (c StatusCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{
		{Field: "status", Op: shared.OpEq, Value: c.Status},
	}
}

// -----------------------------------------------------------

// AssigneeIDCriteria busca tareas asignadas a un empleado concreto.
type AssigneeIDCriteria struct {
	ID uuid.UUID
}

func (c AssigneeIDCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{
		{Field: "assignee_id", Op: shared.OpEq, Value: c.ID},
	}
}

// -----------------------------------------------------------

// AssignerIDCriteria busca tareas creadas por un empleado concreto.
type AssignerIDCriteria struct {
	ID uuid.UUID
}

func (c AssignerIDCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{
		{Field: "assigner_id", Op: shared.OpEq, Value: c.ID},
	}
}

// -----------------------------------------------------------

// PriorityCriteria filtra por prioridad.
type PriorityCriteria struct {
	Priority Priority
}

func (c PriorityCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{
		{Field: "priority", Op: shared.OpEq, Value: c.Priority},
	}
}

// -----------------------------------------------------------

// TypeCriteria filtra por tipo de tarea (project, task, subtask).
type TypeCriteria struct {
	Type TaskType
}

func (c TypeCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{
		{Field: "task_type", Op: shared.OpEq, Value: c.Type},
	}
}

// -----------------------------------------------------------

// TitleLikeCriteria busca tareas cuyo título contenga un texto.
type TitleLikeCriteria struct {
	Title string
}

func (c TitleLikeCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{
		// Usamos ILIKE para búsquedas insensibles a mayúsculas/minúsculas
		{Field: "title", Op: shared.OpILike, Value: "%" + c.Title + "%"},
	}
}

// -----------------------------------------------------------

// CreatedAtRangeCriteria busca tareas creadas en un rango de fechas.
// Usamos punteros para que los filtros de fecha de inicio y fin sean opcionales.
type CreatedAtRangeCriteria struct {
	Start *time.Time
	End   *time.Time
}

func (c CreatedAtRangeCriteria) ToConditions() []shared.Criterion {
	var conds []shared.Criterion
	if c.Start != nil {
		conds = append(conds, shared.Criterion{Field: "created_at", Op: shared.OpGte, Value: *c.Start})
	}
	if c.End != nil {
		conds = append(conds, shared.Criterion{Field: "created_at", Op: shared.OpLte, Value: *c.End})
	}
	return conds
}

package events

import (
	"github.com/google/uuid"
)

// Estos son contratos de integración, NO entidades del dominio.
// Se definen planos para intercambio entre contextos.

type TaskCreated struct {
	ID         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	AssignerID uuid.UUID  `json:"assignerId"`
	AssigneeID *uuid.UUID `json:"assigneeId,omitempty"`
	Status     string     `json:"status"`
}

type TaskStatusChanged struct {
	ID             uuid.UUID  `json:"id"`
	PreviousStatus string     `json:"previousStatus"`
	NewStatus      string     `json:"newStatus"`
	PerformedBy    uuid.UUID  `json:"performedBy"`
	AssigneeID     *uuid.UUID `json:"assigneeId,omitempty"`
}

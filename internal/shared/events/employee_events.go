package events

import (
	"github.com/google/uuid"
)

type EmployeeCreated struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
}

type EmployeeVerificationChanged struct {
	ID             uuid.UUID `json:"id"`
	PreviousStatus string    `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
	Reason         string    `json:"reason,omitempty"`
}

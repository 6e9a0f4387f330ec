package domain

import (
	"reflect"

	sharedEvents "github.com/davicafu/hrlab/internal/shared/events"
)

// Las constantes de los tipos de evento se definen aquí, como valores string.
const (
	EmployeeCreated             = "employee.created"
	EmployeeUpdated             = "employee.updated"
	EmployeeDeleted             = "employee.deleted"
	EmployeeProfileSubmitted    = "employee.profile_submitted"
	EmployeeVerificationStepped = "employee.verification_stepped"
	EmployeeVerified            = "employee.verified"
	EmployeeRejected            = "employee.rejected"
)

const EmployeeTopic = "employee"

func NewEventRegistry() map[string]sharedEvents.EventMetadata {
	meta := sharedEvents.EventMetadata{
		Type:  reflect.TypeOf(Employee{}),
		Topic: EmployeeTopic,
	}
	return map[string]sharedEvents.EventMetadata{
		EmployeeCreated:             meta,
		EmployeeUpdated:             meta,
		EmployeeDeleted:             meta,
		EmployeeProfileSubmitted:    meta,
		EmployeeVerificationStepped: meta,
		EmployeeVerified:            meta,
		EmployeeRejected:            meta,
	}
}

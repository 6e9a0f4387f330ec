package domain

import (
	"github.com/google/uuid"
)

// TaskAction son las acciones sobre las que se consulta autorización.
type TaskAction string

const (
	ActionView    TaskAction = "view"
	ActionComment TaskAction = "comment"
	ActionEdit    TaskAction = "edit"
	ActionAssign  TaskAction = "assign"
	ActionCancel  TaskAction = "cancel"
	ActionReview  TaskAction = "review"
	ActionStart   TaskAction = "start"
	ActionSubmit  TaskAction = "submit"
)

type actorRelation int

const (
	anyActor actorRelation = iota
	assignerOnly
	assigneeOnly
	assignerOrEditingAssignee
)

type permissionRule struct {
	relation actorRelation
	// stateOK restringe la acción a ciertos estados; nil = cualquier estado.
	stateOK func(TaskStatus) bool
}

// taskPermissions es la tabla (acción -> relación requerida + estado) que
// sustituye a las cadenas de if/else por acción.
var taskPermissions = map[TaskAction]permissionRule{
	ActionView:    {relation: anyActor},
	ActionComment: {relation: anyActor},
	ActionEdit:    {relation: assignerOrEditingAssignee},
	ActionAssign: {
		relation: assignerOnly,
		stateOK:  func(s TaskStatus) bool { return s == StatusDraft },
	},
	ActionCancel: {
		relation: assignerOnly,
		stateOK:  func(s TaskStatus) bool { return s == StatusDraft || s == StatusAssigned || s == StatusInProgress },
	},
	ActionReview: {
		relation: assignerOnly,
		stateOK:  func(s TaskStatus) bool { return s == StatusSubmitted || s == StatusInReview },
	},
	ActionStart: {
		relation: assigneeOnly,
		stateOK:  func(s TaskStatus) bool { return s == StatusAssigned },
	},
	ActionSubmit: {
		relation: assigneeOnly,
		stateOK:  func(s TaskStatus) bool { return s == StatusInProgress },
	},
}

// CanPerform es el predicado puro de autorización: no muta nada.
// Una acción desconocida siempre se deniega.
func (t *Task) CanPerform(actorID uuid.UUID, action TaskAction) bool {
	rule, ok := taskPermissions[action]
	if !ok {
		return false
	}
	if rule.stateOK != nil && !rule.stateOK(t.Status) {
		return false
	}

	switch rule.relation {
	case anyActor:
		return true
	case assignerOnly:
		return t.IsAssigner(actorID)
	case assigneeOnly:
		return t.IsAssignee(actorID)
	case assignerOrEditingAssignee:
		return t.IsAssigner(actorID) || (t.IsAssignee(actorID) && t.Editable())
	}
	return false
}

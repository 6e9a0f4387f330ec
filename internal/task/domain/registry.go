package domain

import (
	"reflect"

	sharedEvents "github.com/davicafu/hrlab/internal/shared/events"
)

// Las constantes de los tipos de evento se definen aquí, como valores string.
const (
	TaskCreated         = "task.created"
	TaskAssigned        = "task.assigned"
	TaskStarted         = "task.started"
	TaskProgressUpdated = "task.progress_updated"
	TaskSubmitted       = "task.submitted"
	TaskReviewStarted   = "task.review_started"
	TaskApproved        = "task.approved"
	TaskRejected        = "task.rejected"
	TaskCancelled       = "task.cancelled"
	TaskUpdated         = "task.updated"
)

const TaskTopic = "task"

func NewEventRegistry() map[string]sharedEvents.EventMetadata {
	meta := sharedEvents.EventMetadata{
		Type:  reflect.TypeOf(Task{}),
		Topic: TaskTopic,
	}
	return map[string]sharedEvents.EventMetadata{
		TaskCreated:         meta,
		TaskAssigned:        meta,
		TaskStarted:         meta,
		TaskProgressUpdated: meta,
		TaskSubmitted:       meta,
		TaskReviewStarted:   meta,
		TaskApproved:        meta,
		TaskRejected:        meta,
		TaskCancelled:       meta,
		TaskUpdated:         meta,
	}
}

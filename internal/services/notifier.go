package services

import "github.com/yukikurage/project-tracker-api/internal/dto"

// Task event actions
const (
	TaskActionCreated = "created"
	TaskActionUpdated = "updated"
	TaskActionDeleted = "deleted"
)

// TaskEvent is published to a project's room after a task changes.
type TaskEvent struct {
	Action    string       `json:"action"`
	ProjectID uint64       `json:"projectId"`
	TaskID    uint64       `json:"taskId"`
	Task      *dto.TaskDTO `json:"task,omitempty"`
}

// Notifier relays task events to project subscribers. Publish must not
// block and has no way to fail the caller.
type Notifier interface {
	Publish(projectID uint64, payload any)
}

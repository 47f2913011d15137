package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "To Do"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusDone       TaskStatus = "Done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "Low"
	TaskPriorityMedium TaskPriority = "Medium"
	TaskPriorityHigh   TaskPriority = "High"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Task durations (TimeSpent, EstimatedTime) are in minutes.
type Task struct {
	ID            uint64         `gorm:"primarykey" json:"id"`
	Title         string         `gorm:"not null" json:"title"`
	Description   string         `gorm:"type:text" json:"description"`
	Status        TaskStatus     `gorm:"type:varchar(20);not null;default:'To Do'" json:"status"`
	Priority      TaskPriority   `gorm:"type:varchar(20);not null;default:'Medium'" json:"priority"`
	AssignedToID  *uint64        `json:"assignedToId"`
	ProjectID     uint64         `gorm:"not null" json:"projectId"`
	CreatedByID   uint64         `gorm:"not null" json:"createdById"`
	TimeSpent     int            `gorm:"not null;default:0" json:"timeSpent"`
	EstimatedTime *int           `json:"estimatedTime"`
	DueDate       *time.Time     `json:"dueDate"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	AssignedTo *User   `gorm:"foreignKey:AssignedToID" json:"assignedTo,omitempty"`
	Project    Project `gorm:"foreignKey:ProjectID" json:"-"`
	CreatedBy  User    `gorm:"foreignKey:CreatedByID" json:"createdBy,omitempty"`
}

// IsOverdue reports whether the task has a due date strictly before now and
// is not done yet.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != TaskStatusDone
}

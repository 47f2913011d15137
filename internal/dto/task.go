package dto

import (
	"time"

	"github.com/yukikurage/project-tracker-api/internal/models"
)

// UserRefDTO is a user embedded in another resource. Only the fields the
// caller is allowed to see are filled in.
type UserRefDTO struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// ProjectRefDTO is a project embedded in a task
type ProjectRefDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name,omitempty"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID            uint64              `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Status        models.TaskStatus   `json:"status"`
	Priority      models.TaskPriority `json:"priority"`
	AssignedTo    *UserRefDTO         `json:"assignedTo"`
	Project       ProjectRefDTO       `json:"project"`
	CreatedBy     *UserRefDTO         `json:"createdBy"`
	TimeSpent     int                 `json:"timeSpent"`
	EstimatedTime *int                `json:"estimatedTime"`
	DueDate       *time.Time          `json:"dueDate"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// Conversion functions

// ToUserRefDTO converts a User model to a name and email reference
func ToUserRefDTO(user models.User) UserRefDTO {
	return UserRefDTO{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}
}

// ToCreatorRefDTO converts a User model to a name-only reference
func ToCreatorRefDTO(user models.User) UserRefDTO {
	return UserRefDTO{
		ID:   user.ID,
		Name: user.Name,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:            task.ID,
		Title:         task.Title,
		Description:   task.Description,
		Status:        task.Status,
		Priority:      task.Priority,
		Project:       ProjectRefDTO{ID: task.ProjectID},
		TimeSpent:     task.TimeSpent,
		EstimatedTime: task.EstimatedTime,
		DueDate:       task.DueDate,
		CreatedAt:     task.CreatedAt,
		UpdatedAt:     task.UpdatedAt,
	}

	// Include assignee if preloaded
	if task.AssignedTo != nil && task.AssignedTo.ID != 0 {
		assignee := ToUserRefDTO(*task.AssignedTo)
		dto.AssignedTo = &assignee
	} else if task.AssignedToID != nil {
		dto.AssignedTo = &UserRefDTO{ID: *task.AssignedToID}
	}

	// Include creator if preloaded
	if task.CreatedBy.ID != 0 {
		creator := ToCreatorRefDTO(task.CreatedBy)
		dto.CreatedBy = &creator
	} else if task.CreatedByID != 0 {
		dto.CreatedBy = &UserRefDTO{ID: task.CreatedByID}
	}

	// Include project name if preloaded
	if task.Project.ID == task.ProjectID {
		dto.Project.Name = task.Project.Name
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return items
}

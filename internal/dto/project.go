package dto

import (
	"time"

	"github.com/yukikurage/project-tracker-api/internal/models"
)

// ProjectDTO represents a project with its owner and members expanded to
// name and email
type ProjectDTO struct {
	ID          uint64               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Status      models.ProjectStatus `json:"status"`
	Owner       UserRefDTO           `json:"owner"`
	Members     []UserRefDTO         `json:"members"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	owner := UserRefDTO{ID: project.OwnerID}
	if project.Owner.ID != 0 {
		owner = ToUserRefDTO(project.Owner)
	}

	members := make([]UserRefDTO, len(project.Members))
	for i, member := range project.Members {
		members[i] = ToUserRefDTO(member)
	}

	return ProjectDTO{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		Status:      project.Status,
		Owner:       owner,
		Members:     members,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}

// ToProjectDTOs converts a slice of projects
func ToProjectDTOs(projects []models.Project) []ProjectDTO {
	items := make([]ProjectDTO, len(projects))
	for i, project := range projects {
		items[i] = ToProjectDTO(project)
	}
	return items
}

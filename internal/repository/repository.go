package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/utils"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a unique index. It
	// needs a connection opened with gorm.Config.TranslateError.
	ErrDuplicate = errors.New("duplicate record")
)

// translate maps driver level errors to the repository sentinels.
func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks matching filter, newest first
	List(ctx context.Context, filter TaskFilter) ([]models.Task, error)

	// Update saves every column of task
	Update(ctx context.Context, task *models.Task) error

	// Delete soft deletes a task
	Delete(ctx context.Context, id uint64) error
}

// TaskFilter holds filtering options for listing tasks.
// ProjectIDs restricts the result when non-nil; an empty, non-nil slice
// matches nothing.
type TaskFilter struct {
	ProjectIDs   []uint64
	AssignedToID *uint64
	Preload      []string
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a project and its member links
	Create(ctx context.Context, project *models.Project) error

	// FindByID finds a project by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Project, error)

	// ListAccessible lists the projects a user owns or is a member of
	ListAccessible(ctx context.Context, userID uint64) ([]models.Project, error)

	// AccessibleIDs returns the IDs of the projects a user owns or is a member of
	AccessibleIDs(ctx context.Context, userID uint64) ([]uint64, error)

	// Update saves the project's own columns; members are left alone
	Update(ctx context.Context, project *models.Project) error

	// ReplaceMembers sets the member list of a project
	ReplaceMembers(ctx context.Context, project *models.Project, members []models.User) error

	// Delete soft deletes a project and drops its member links. Tasks are kept.
	Delete(ctx context.Context, id uint64) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByIDs returns the users that exist among ids
	FindByIDs(ctx context.Context, ids []uint64) ([]models.User, error)

	// List returns one page of users and the total count
	List(ctx context.Context, page utils.Page) ([]models.User, int64, error)

	// Update saves a user
	Update(ctx context.Context, user *models.User) error

	// Delete soft deletes a user
	Delete(ctx context.Context, id uint64) error
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/project-tracker-api/internal/authz"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/optional"
	"github.com/yukikurage/project-tracker-api/internal/repository"
)

var (
	ErrProjectNotFound     = apierrors.NewNotFoundError("Project not found")
	ErrAccessDenied        = apierrors.NewForbiddenError("Access denied")
	ErrProjectNameRequired = apierrors.NewValidationError("Project name is required")
	ErrInvalidProjectState = apierrors.NewValidationError("Invalid project status")
	ErrUnknownMembers      = apierrors.NewValidationError("One or more members do not exist")
)

// ProjectService provides business logic for project operations.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository, userRepo repository.UserRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
	}
}

// CreateProjectInput represents parameters to create a new project.
type CreateProjectInput struct {
	Name        string
	Description string
	MemberIDs   []uint64
}

// UpdateProjectInput carries the fields present in an update payload.
type UpdateProjectInput struct {
	Name        optional.Value[string]               `json:"name"`
	Description optional.Value[string]               `json:"description"`
	Status      optional.Value[models.ProjectStatus] `json:"status"`
	Members     optional.Value[[]uint64]             `json:"members"`
}

// List returns the projects the identity owns or is a member of.
func (s *ProjectService) List(ctx context.Context, id authz.Identity) ([]models.Project, error) {
	projects, err := s.projectRepo.ListAccessible(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// Get returns a project the identity has access to.
func (s *ProjectService) Get(ctx context.Context, id authz.Identity, projectID uint64) (*models.Project, error) {
	project, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if !authz.CanAccessProject(id, project) {
		return nil, ErrAccessDenied
	}

	return project, nil
}

// Create creates a project owned by the identity.
func (s *ProjectService) Create(ctx context.Context, id authz.Identity, input CreateProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrProjectNameRequired
	}

	members, err := s.resolveMembers(ctx, input.MemberIDs)
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		Name:        name,
		Description: input.Description,
		OwnerID:     id.UserID,
		Status:      models.ProjectStatusActive,
		Members:     members,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return s.load(ctx, project.ID)
}

// Update overwrites every field present in input. Only the owner may update.
func (s *ProjectService) Update(ctx context.Context, id authz.Identity, projectID uint64, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if !authz.CanManageProject(id, project) {
		return nil, ErrAccessDenied
	}

	if input.Name.Set {
		name := strings.TrimSpace(input.Name.Val)
		if name == "" {
			return nil, ErrProjectNameRequired
		}
		project.Name = name
	}
	input.Description.Apply(&project.Description)
	if input.Status.Set {
		if !input.Status.Val.Valid() {
			return nil, ErrInvalidProjectState
		}
		project.Status = input.Status.Val
	}

	var members []models.User
	if input.Members.Set {
		if members, err = s.resolveMembers(ctx, input.Members.Val); err != nil {
			return nil, err
		}
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	if input.Members.Set {
		if err := s.projectRepo.ReplaceMembers(ctx, project, members); err != nil {
			return nil, fmt.Errorf("failed to update project members: %w", err)
		}
	}

	return s.load(ctx, project.ID)
}

// Remove deletes a project. The owner or an Admin may delete; tasks of the
// project are kept.
func (s *ProjectService) Remove(ctx context.Context, id authz.Identity, projectID uint64) error {
	project, err := s.load(ctx, projectID)
	if err != nil {
		return err
	}

	if !authz.CanDeleteProject(id, project) {
		return ErrAccessDenied
	}

	if err := s.projectRepo.Delete(ctx, project.ID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}

// load fetches a project with owner and members.
func (s *ProjectService) load(ctx context.Context, projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID, "Owner", "Members")
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

// resolveMembers loads the users behind ids and fails if any is missing.
func (s *ProjectService) resolveMembers(ctx context.Context, ids []uint64) ([]models.User, error) {
	ids = uniqueUint64(ids)
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to verify members: %w", err)
	}
	if len(users) != len(ids) {
		return nil, ErrUnknownMembers
	}

	return users, nil
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}

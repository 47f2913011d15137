package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/project-tracker-api/internal/analytics"
	"github.com/yukikurage/project-tracker-api/internal/authz"
	"github.com/yukikurage/project-tracker-api/internal/repository"
)

// AnalyticsService loads task sets under the access rules and hands them to
// the analytics package.
type AnalyticsService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	now         func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository) *AnalyticsService {
	return &AnalyticsService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		now:         time.Now,
	}
}

// ProjectStats summarizes every task of a project the identity can access.
func (s *AnalyticsService) ProjectStats(ctx context.Context, id authz.Identity, projectID uint64) (analytics.ProjectStats, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID, "Members")
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return analytics.ProjectStats{}, ErrProjectNotFound
		}
		return analytics.ProjectStats{}, fmt.Errorf("failed to find project: %w", err)
	}

	if !authz.CanAccessProject(id, project) {
		return analytics.ProjectStats{}, ErrAccessDenied
	}

	tasks, err := s.taskRepo.List(ctx, repository.TaskFilter{ProjectIDs: []uint64{project.ID}})
	if err != nil {
		return analytics.ProjectStats{}, fmt.Errorf("failed to load tasks: %w", err)
	}

	return analytics.ComputeProjectStats(tasks, s.now()), nil
}

// UserStats summarizes the tasks assigned to userID. Only the user
// themselves or an Admin may read them.
func (s *AnalyticsService) UserStats(ctx context.Context, id authz.Identity, userID uint64) (analytics.UserStats, error) {
	if !authz.CanViewUser(id, userID) {
		return analytics.UserStats{}, ErrAccessDenied
	}

	tasks, err := s.taskRepo.List(ctx, repository.TaskFilter{AssignedToID: &userID})
	if err != nil {
		return analytics.UserStats{}, fmt.Errorf("failed to load tasks: %w", err)
	}

	return analytics.ComputeUserStats(tasks), nil
}

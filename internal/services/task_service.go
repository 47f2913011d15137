package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/project-tracker-api/internal/authz"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/optional"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrTaskNotFound           = apierrors.NewNotFoundError("Task not found")
	ErrTitleRequired          = apierrors.NewValidationError("Title is required")
	ErrProjectRequired        = apierrors.NewValidationError("Project is required")
	ErrInvalidTaskStatus      = apierrors.NewValidationError("Invalid task status")
	ErrInvalidTaskPriority    = apierrors.NewValidationError("Invalid task priority")
	ErrNegativeTime           = apierrors.NewValidationError("Time values cannot be negative")
	ErrTimeSpentNull          = apierrors.NewValidationError("Time spent cannot be null")
	ErrUnknownAssignee        = apierrors.NewValidationError("Assigned user does not exist")
	ErrSuggestionTextRequired = apierrors.NewValidationError("Text is required")
	ErrAIServiceNotConfigured = apierrors.NewUnavailableError("AI service is not configured. Please set OPENAI_API_KEY environment variable.")
	ErrAINoValidTasks         = apierrors.NewUnavailableError("No valid tasks could be generated")
)

// taskPreloads are the relations every task response needs
var taskPreloads = []string{"AssignedTo", "CreatedBy", "Project"}

// TaskService handles task business logic
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	notifier    Notifier
	aiService   *AIService
	logger      *zap.Logger
	now         func() time.Time
}

// NewTaskService creates a new TaskService. notifier and aiService may be nil.
func NewTaskService(
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
	aiService *AIService,
	logger *zap.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		aiService:   aiService,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title         string
	Description   string
	Status        models.TaskStatus
	Priority      models.TaskPriority
	AssignedTo    *uint64
	ProjectID     uint64
	TimeSpent     int
	EstimatedTime *int
	DueDate       *time.Time
}

// UpdateTaskInput carries the fields present in an update payload. For the
// nullable fields an explicit null clears the value.
type UpdateTaskInput struct {
	Title         optional.Value[string]              `json:"title"`
	Description   optional.Value[string]              `json:"description"`
	Status        optional.Value[models.TaskStatus]   `json:"status"`
	Priority      optional.Value[models.TaskPriority] `json:"priority"`
	AssignedTo    optional.Value[*uint64]             `json:"assignedTo"`
	TimeSpent     optional.Value[int]                 `json:"timeSpent"`
	EstimatedTime optional.Value[*int]                `json:"estimatedTime"`
	DueDate       optional.Value[*time.Time]          `json:"dueDate"`
}

// ListForUser returns every task of every project the identity can access
func (s *TaskService) ListForUser(ctx context.Context, id authz.Identity) ([]models.Task, error) {
	projectIDs, err := s.projectRepo.AccessibleIDs(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve accessible projects: %w", err)
	}
	if len(projectIDs) == 0 {
		return []models.Task{}, nil
	}

	tasks, err := s.taskRepo.List(ctx, repository.TaskFilter{
		ProjectIDs: projectIDs,
		Preload:    []string{"AssignedTo", "CreatedBy"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

// ListForProject returns the tasks of one project
func (s *TaskService) ListForProject(ctx context.Context, id authz.Identity, projectID uint64) ([]models.Task, error) {
	if _, err := s.accessibleProject(ctx, id, projectID); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.List(ctx, repository.TaskFilter{
		ProjectIDs: []uint64{projectID},
		Preload:    []string{"AssignedTo", "CreatedBy"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

// Get returns a task with related data
func (s *TaskService) Get(ctx context.Context, id authz.Identity, taskID uint64) (*models.Task, error) {
	task, err := s.accessibleTask(ctx, id, taskID, taskPreloads...)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Create creates a task in a project the identity can access
func (s *TaskService) Create(ctx context.Context, id authz.Identity, input CreateTaskInput) (*models.Task, error) {
	if input.ProjectID == 0 {
		return nil, ErrProjectRequired
	}
	if _, err := s.accessibleProject(ctx, id, input.ProjectID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidTaskStatus
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, ErrInvalidTaskPriority
	}
	if input.TimeSpent < 0 || (input.EstimatedTime != nil && *input.EstimatedTime < 0) {
		return nil, ErrNegativeTime
	}
	if err := s.ensureUserExists(ctx, input.AssignedTo); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:         title,
		Description:   input.Description,
		Status:        input.Status,
		Priority:      input.Priority,
		AssignedToID:  input.AssignedTo,
		ProjectID:     input.ProjectID,
		CreatedByID:   id.UserID,
		TimeSpent:     input.TimeSpent,
		EstimatedTime: input.EstimatedTime,
		DueDate:       input.DueDate,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	created, err := s.taskRepo.FindByID(ctx, task.ID, taskPreloads...)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}

	s.publish(TaskActionCreated, created)
	return created, nil
}

// Update overwrites every field present in input, including explicit zero
// values, and stamps updatedAt
func (s *TaskService) Update(ctx context.Context, id authz.Identity, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.accessibleTask(ctx, id, taskID)
	if err != nil {
		return nil, err
	}

	if input.Title.Set {
		title := strings.TrimSpace(input.Title.Val)
		if title == "" {
			return nil, ErrTitleRequired
		}
		task.Title = title
	}
	input.Description.Apply(&task.Description)
	if input.Status.Set {
		if !input.Status.Val.Valid() {
			return nil, ErrInvalidTaskStatus
		}
		task.Status = input.Status.Val
	}
	if input.Priority.Set {
		if !input.Priority.Val.Valid() {
			return nil, ErrInvalidTaskPriority
		}
		task.Priority = input.Priority.Val
	}
	if input.AssignedTo.Set {
		if err := s.ensureUserExists(ctx, input.AssignedTo.Val); err != nil {
			return nil, err
		}
		task.AssignedToID = input.AssignedTo.Val
	}
	if input.TimeSpent.Set {
		if input.TimeSpent.Null {
			return nil, ErrTimeSpentNull
		}
		if input.TimeSpent.Val < 0 {
			return nil, ErrNegativeTime
		}
		task.TimeSpent = input.TimeSpent.Val
	}
	if input.EstimatedTime.Set {
		if input.EstimatedTime.Val != nil && *input.EstimatedTime.Val < 0 {
			return nil, ErrNegativeTime
		}
		task.EstimatedTime = input.EstimatedTime.Val
	}
	input.DueDate.Apply(&task.DueDate)

	task.UpdatedAt = s.now()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	updated, err := s.taskRepo.FindByID(ctx, task.ID, taskPreloads...)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}

	s.publish(TaskActionUpdated, updated)
	return updated, nil
}

// Remove deletes a task. Any user with access to the project may delete it.
func (s *TaskService) Remove(ctx context.Context, id authz.Identity, taskID uint64) error {
	task, err := s.accessibleTask(ctx, id, taskID)
	if err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if s.notifier != nil {
		s.notifier.Publish(task.ProjectID, TaskEvent{
			Action:    TaskActionDeleted,
			ProjectID: task.ProjectID,
			TaskID:    task.ID,
		})
	}
	return nil
}

// SuggestInput represents input for AI task suggestions
type SuggestInput struct {
	ProjectID uint64
	Text      string
}

// Suggest drafts tasks for a project from free text. Nothing is persisted.
func (s *TaskService) Suggest(ctx context.Context, id authz.Identity, input SuggestInput) ([]SuggestedTask, error) {
	project, err := s.accessibleProject(ctx, id, input.ProjectID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Text) == "" {
		return nil, ErrSuggestionTextRequired
	}

	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}

	drafts, err := s.aiService.SuggestTasks(ctx, project.Name, input.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}
	if len(drafts) > constants.MaxAISuggestions {
		drafts = drafts[:constants.MaxAISuggestions]
	}

	valid := make([]SuggestedTask, 0, len(drafts))
	cutoff := s.now().Add(-24 * time.Hour)
	for _, draft := range drafts {
		if strings.TrimSpace(draft.Title) == "" {
			continue
		}
		if !draft.Priority.Valid() {
			draft.Priority = models.TaskPriorityMedium
		}
		if draft.EstimatedTime != nil && *draft.EstimatedTime < 0 {
			draft.EstimatedTime = nil
		}
		if draft.DueDate != nil && draft.DueDate.Before(cutoff) {
			draft.DueDate = nil
		}
		valid = append(valid, draft)
	}

	if len(valid) == 0 {
		return nil, ErrAINoValidTasks
	}

	return valid, nil
}

// accessibleProject loads a project and checks the identity may access it
func (s *TaskService) accessibleProject(ctx context.Context, id authz.Identity, projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID, "Members")
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if !authz.CanAccessProject(id, project) {
		return nil, ErrAccessDenied
	}

	return project, nil
}

// accessibleTask loads a task and checks access through its parent project.
// Tasks left behind by a deleted project are not accessible to anyone.
func (s *TaskService) accessibleTask(ctx context.Context, id authz.Identity, taskID uint64, preload ...string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID, preload...)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	project, err := s.projectRepo.FindByID(ctx, task.ProjectID, "Members")
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if !authz.CanAccessTask(id, task, project) {
		return nil, ErrAccessDenied
	}

	return task, nil
}

// ensureUserExists checks an optional user reference
func (s *TaskService) ensureUserExists(ctx context.Context, userID *uint64) error {
	if userID == nil {
		return nil
	}
	if _, err := s.userRepo.FindByID(ctx, *userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnknownAssignee
		}
		return fmt.Errorf("failed to verify assignee: %w", err)
	}
	return nil
}

// publish sends a task event to the project's room. It never fails the
// request.
func (s *TaskService) publish(action string, task *models.Task) {
	if s.notifier == nil {
		return
	}

	taskDTO := dto.ToTaskDTO(*task)
	s.notifier.Publish(task.ProjectID, TaskEvent{
		Action:    action,
		ProjectID: task.ProjectID,
		TaskID:    task.ID,
		Task:      &taskDTO,
	})
	s.logger.Debug("Published task event",
		zap.String("action", action),
		zap.Uint64("project_id", task.ProjectID),
		zap.Uint64("task_id", task.ID),
	)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"go.uber.org/zap"
)

type TaskHandler struct {
	taskService *services.TaskService
	logger      *zap.Logger
}

func NewTaskHandler(taskService *services.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

type createTaskRequest struct {
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Status        models.TaskStatus   `json:"status" binding:"omitempty,task_status"`
	Priority      models.TaskPriority `json:"priority" binding:"omitempty,task_priority"`
	AssignedTo    *uint64             `json:"assignedTo"`
	Project       uint64              `json:"project"`
	TimeSpent     int                 `json:"timeSpent" binding:"min=0"`
	EstimatedTime *int                `json:"estimatedTime" binding:"omitempty,min=0"`
	DueDate       *time.Time          `json:"dueDate"`
}

type suggestTasksRequest struct {
	Text      string `json:"text" binding:"required"`
	ProjectID uint64 `json:"projectId" binding:"required"`
}

// ListTasks returns the tasks of every project the current user can access
func (h *TaskHandler) ListTasks(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListForUser(c.Request.Context(), identity)
	if err != nil {
		apierrors.Respond(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTOs(tasks))
}

// ListProjectTasks returns the tasks of one project
func (h *TaskHandler) ListProjectTasks(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "projectId")
	if !ok {
		return
	}

	tasks, err := h.taskService.ListForProject(c.Request.Context(), identity, projectID)
	if err != nil {
		apierrors.Respond(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTOs(tasks))
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), identity, taskID)
	if err != nil {
		apierrors.Respond(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req createTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), identity, services.CreateTaskInput{
		Title:         req.Title,
		Description:   req.Description,
		Status:        req.Status,
		Priority:      req.Priority,
		AssignedTo:    req.AssignedTo,
		ProjectID:     req.Project,
		TimeSpent:     req.TimeSpent,
		EstimatedTime: req.EstimatedTime,
		DueDate:       req.DueDate,
	})
	if err != nil {
		apierrors.Respond(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTask overwrites the fields present in the body
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateTaskInput
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), identity, taskID, req)
	if err != nil {
		apierrors.Respond(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.taskService.Remove(c.Request.Context(), identity, taskID); err != nil {
		apierrors.Respond(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Task removed"})
}

// SuggestTasks drafts tasks for a project from free text using AI
func (h *TaskHandler) SuggestTasks(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req suggestTasksRequest
	if !bindJSON(c, &req) {
		return
	}

	suggestions, err := h.taskService.Suggest(c.Request.Context(), identity, services.SuggestInput{
		ProjectID: req.ProjectID,
		Text:      req.Text,
	})
	if err != nil {
		apierrors.Respond(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": suggestions,
	})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"go.uber.org/zap"
)

type ProjectHandler struct {
	projectService *services.ProjectService
	logger         *zap.Logger
}

func NewProjectHandler(projectService *services.ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		logger:         logger,
	}
}

type createProjectRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Members     []uint64 `json:"members"`
}

// ListProjects returns the projects the current user owns or is a member of
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	projects, err := h.projectService.List(c.Request.Context(), identity)
	if err != nil {
		apierrors.Respond(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTOs(projects))
}

// GetProject returns a single project
func (h *ProjectHandler) GetProject(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	project, err := h.projectService.Get(c.Request.Context(), identity, projectID)
	if err != nil {
		apierrors.Respond(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// CreateProject creates a project owned by the current user
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req createProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), identity, services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		MemberIDs:   req.Members,
	})
	if err != nil {
		apierrors.Respond(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// UpdateProject overwrites the fields present in the body. Owner only.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateProjectInput
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), identity, projectID, req)
	if err != nil {
		apierrors.Respond(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// DeleteProject removes a project. Tasks of the project are kept.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.projectService.Remove(c.Request.Context(), identity, projectID); err != nil {
		apierrors.Respond(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Project removed"})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"go.uber.org/zap"
)

type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
	logger           *zap.Logger
}

func NewAnalyticsHandler(analyticsService *services.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		logger:           logger,
	}
}

// ProjectStats returns task statistics for a project
func (h *AnalyticsHandler) ProjectStats(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "projectId")
	if !ok {
		return
	}

	stats, err := h.analyticsService.ProjectStats(c.Request.Context(), identity, projectID)
	if err != nil {
		apierrors.Respond(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// UserStats returns statistics over the tasks assigned to a user
func (h *AnalyticsHandler) UserStats(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}

	stats, err := h.analyticsService.UserStats(c.Request.Context(), identity, userID)
	if err != nil {
		apierrors.Respond(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

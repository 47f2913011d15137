package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"github.com/yukikurage/project-tracker-api/internal/utils"
	"go.uber.org/zap"
)

// HeaderTotalCount carries the total number of rows behind a paginated list.
const HeaderTotalCount = "X-Total-Count"

type UserHandler struct {
	userService *services.UserService
	logger      *zap.Logger
}

func NewUserHandler(userService *services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// ListUsers returns one page of users. Admin only.
func (h *UserHandler) ListUsers(c *gin.Context) {
	page := utils.PageFromQuery(c)

	users, total, err := h.userService.List(c.Request.Context(), page)
	if err != nil {
		apierrors.Respond(c, h.logger, err)
		return
	}

	c.Header(HeaderTotalCount, strconv.FormatInt(total, 10))
	c.JSON(http.StatusOK, dto.ToUserDTOs(users))
}

// GetUser returns a user profile. Users see themselves, Admins see everyone.
func (h *UserHandler) GetUser(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), identity, userID)
	if err != nil {
		apierrors.Respond(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// UpdateUser overwrites the profile fields present in the body
func (h *UserHandler) UpdateUser(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateUserInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Update(c.Request.Context(), identity, userID, req)
	if err != nil {
		apierrors.Respond(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserSummaryDTO(*user))
}

// DeleteUser removes a user. Admin only.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.userService.Remove(c.Request.Context(), userID); err != nil {
		apierrors.Respond(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "User removed"})
}

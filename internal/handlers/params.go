package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/project-tracker-api/internal/authz"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
)

// MessageResponse is the body of routes that return no entity
type MessageResponse struct {
	Message string `json:"message"`
}

// requireIdentity reads the identity set by RequireAuth and answers 401 when
// it is missing
func requireIdentity(c *gin.Context) (authz.Identity, bool) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apierrors.Abort(c, apierrors.KindUnauthorized, "Not authenticated")
	}
	return identity, ok
}

// parseIDParam parses a positive numeric path parameter and answers 400 when
// it is malformed
func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.Abort(c, apierrors.KindValidation, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// bindJSON decodes the request body into req. Validation failures are
// reported per field.
func bindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		apierrors.AbortWithDetails(c, apierrors.KindValidation, "Invalid request body", fields)
		return false
	}

	apierrors.Abort(c, apierrors.KindValidation, "Invalid request body")
	return false
}

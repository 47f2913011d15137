package errors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error codes
const (
	// Authentication errors
	ErrCodeUnauthorized = "UNAUTHORIZED"

	// Authorization errors
	ErrCodeForbidden = "FORBIDDEN"

	// Validation errors
	ErrCodeInvalidInput = "INVALID_INPUT"

	// Resource errors
	ErrCodeNotFound = "NOT_FOUND"
	ErrCodeConflict = "CONFLICT"

	// Service errors
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError is the JSON body of every error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Kind classifies a service failure. The HTTP boundary maps it to a status
// code; services never pick status codes themselves.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindUnauthorized
	KindConflict
	KindUnavailable
)

// ServiceError is a typed failure raised by the service layer. Its message is
// safe to show to clients.
type ServiceError struct {
	Kind    Kind
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func NewValidationError(message string) *ServiceError {
	return &ServiceError{Kind: KindValidation, Message: message}
}

func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Message: message}
}

func NewForbiddenError(message string) *ServiceError {
	return &ServiceError{Kind: KindForbidden, Message: message}
}

func NewUnauthorizedError(message string) *ServiceError {
	return &ServiceError{Kind: KindUnauthorized, Message: message}
}

func NewConflictError(message string) *ServiceError {
	return &ServiceError{Kind: KindConflict, Message: message}
}

func NewUnavailableError(message string) *ServiceError {
	return &ServiceError{Kind: KindUnavailable, Message: message}
}

// KindOf returns the kind of the first ServiceError in err's chain, or
// KindInternal.
func KindOf(err error) Kind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

type kindInfo struct {
	status   int
	code     string
	fallback string
}

var kinds = map[Kind]kindInfo{
	KindValidation:   {http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request"},
	KindNotFound:     {http.StatusNotFound, ErrCodeNotFound, "Resource not found"},
	KindForbidden:    {http.StatusForbidden, ErrCodeForbidden, "Access denied"},
	KindUnauthorized: {http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required"},
	KindConflict:     {http.StatusConflict, ErrCodeConflict, "Resource conflict"},
	KindUnavailable:  {http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service temporarily unavailable"},
	KindInternal:     {http.StatusInternalServerError, ErrCodeInternalError, "Internal server error"},
}

// Abort writes an error body for kind and stops the handler chain. An empty
// message is replaced by the kind's default text.
func Abort(c *gin.Context, kind Kind, message string) {
	AbortWithDetails(c, kind, message, nil)
}

// AbortWithDetails is Abort with a details payload, e.g. per-field
// validation failures.
func AbortWithDetails(c *gin.Context, kind Kind, message string, details any) {
	info, ok := kinds[kind]
	if !ok {
		info = kinds[KindInternal]
	}
	if message == "" {
		message = info.fallback
	}
	c.AbortWithStatusJSON(info.status, &APIError{Code: info.code, Message: message, Details: details})
}

// Respond writes the response for a service error. Anything that is not a
// ServiceError, or carries an unknown kind, is logged in full and reported as
// a generic 500.
func Respond(c *gin.Context, logger *zap.Logger, err error) {
	var se *ServiceError
	if !errors.As(err, &se) || se.Kind == KindInternal {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		Abort(c, KindInternal, "")
		return
	}
	if _, known := kinds[se.Kind]; !known {
		logger.Error("unknown error kind", zap.Int("kind", int(se.Kind)), zap.Error(err))
		Abort(c, KindInternal, "")
		return
	}

	Abort(c, se.Kind, se.Message)
}

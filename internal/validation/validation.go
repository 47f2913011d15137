// Package validation registers the enum tags used in request bindings on
// gin's validator.
package validation

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/project-tracker-api/internal/models"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// Register adds task_status, task_priority, project_status and user_role.
// It is safe to call more than once.
func Register() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		registerErr = RegisterOn(v)
	})
	return registerErr
}

// RegisterOn adds the enum tags to v.
func RegisterOn(v *validator.Validate) error {
	tags := map[string]validator.Func{
		"task_status": func(fl validator.FieldLevel) bool {
			return models.TaskStatus(fl.Field().String()).Valid()
		},
		"task_priority": func(fl validator.FieldLevel) bool {
			return models.TaskPriority(fl.Field().String()).Valid()
		},
		"project_status": func(fl validator.FieldLevel) bool {
			return models.ProjectStatus(fl.Field().String()).Valid()
		},
		"user_role": func(fl validator.FieldLevel) bool {
			return models.UserRole(fl.Field().String()).Valid()
		},
	}

	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s: %w", tag, err)
		}
	}
	return nil
}

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
	"github.com/yukikurage/project-tracker-api/internal/utils"
)

var (
	ErrNameRequired = apierrors.NewValidationError("Name is required")
	ErrInvalidRole  = apierrors.NewValidationError("Invalid role")
)

// UserService handles user administration and profile updates.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

// UpdateUserInput carries the fields present in a profile update.
type UpdateUserInput struct {
	Name  optional.Value[string]          `json:"name"`
	Email optional.Value[string]          `json:"email"`
	Role  optional.Value[models.UserRole] `json:"role"`
}

// List returns one page of users. Callers gate this to Admins.
func (s *UserService) List(ctx context.Context, page utils.Page) ([]models.User, int64, error) {
	users, total, err := s.userRepo.List(ctx, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// Get returns a user the identity may view.
func (s *UserService) Get(ctx context.Context, id authz.Identity, userID uint64) (*models.User, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !authz.CanViewUser(id, userID) {
		return nil, ErrAccessDenied
	}

	return user, nil
}

// Update overwrites the present fields of a profile. A role change is only
// applied when the identity may change roles; otherwise it is ignored.
func (s *UserService) Update(ctx context.Context, id authz.Identity, userID uint64, input UpdateUserInput) (*models.User, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !authz.CanViewUser(id, userID) {
		return nil, ErrAccessDenied
	}

	if input.Name.Set {
		name := strings.TrimSpace(input.Name.Val)
		if name == "" {
			return nil, ErrNameRequired
		}
		user.Name = name
	}

	if input.Email.Set {
		email, err := normalizeEmail(input.Email.Val)
		if err != nil {
			return nil, err
		}
		if email != user.Email {
			existing, err := s.userRepo.FindByEmail(ctx, email)
			switch {
			case err == nil && existing.ID != user.ID:
				return nil, ErrEmailTaken
			case err != nil && !errors.Is(err, repository.ErrNotFound):
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
		}
		user.Email = email
	}

	if input.Role.Set && authz.CanChangeRole(id) {
		if !input.Role.Val.Valid() {
			return nil, ErrInvalidRole
		}
		user.Role = input.Role.Val
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// Remove deletes a user. Callers gate this to Admins.
func (s *UserService) Remove(ctx context.Context, userID uint64) error {
	if _, err := s.load(ctx, userID); err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *UserService) load(ctx context.Context, userID uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

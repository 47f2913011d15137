package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/optional"
)

func TestProjectService_CreateDeduplicatesMembers(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner", models.RoleMember)
	member := env.user(t, "member", models.RoleMember)

	project := env.project(t, owner, member.UserID, member.UserID)

	assert.Equal(t, owner.UserID, project.OwnerID)
	assert.Equal(t, models.ProjectStatusActive, project.Status)
	require.Len(t, project.Members, 1)
	assert.Equal(t, member.UserID, project.Members[0].ID)
	assert.Equal(t, "owner", project.Owner.Name)
}

func TestProjectService_UpdateAndRemove(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewProjectService(env.projects, env.users)

	owner := env.user(t, "owner", models.RoleMember)
	manager := env.user(t, "manager", models.RoleManager)
	admin := env.user(t, "admin", models.RoleAdmin)
	project := env.project(t, owner, manager.UserID)

	_, err := svc.Update(ctx, manager, project.ID, UpdateProjectInput{Name: optional.Of("Renamed")})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.Update(ctx, owner, project.ID, UpdateProjectInput{Members: optional.Of([]uint64{424242})})
	assert.ErrorIs(t, err, ErrUnknownMembers)

	updated, err := svc.Update(ctx, owner, project.ID, UpdateProjectInput{
		Name:        optional.Of("Renamed"),
		Description: optional.Of(""),
		Status:      optional.Of(models.ProjectStatusCompleted),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, models.ProjectStatusCompleted, updated.Status)
	assert.Len(t, updated.Members, 1, "members are untouched when absent")

	// Managers get no delete rights from their role alone.
	err = svc.Remove(ctx, manager, project.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Equal(t, apierrors.KindForbidden, apierrors.KindOf(err))

	require.NoError(t, svc.Remove(ctx, admin, project.ID))

	_, err = svc.Get(ctx, owner, project.ID)
	assert.ErrorIs(t, err, ErrProjectNotFound)

	err = svc.Remove(ctx, owner, project.ID)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

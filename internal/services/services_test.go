package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-tracker-api/internal/authz"
	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db       *gorm.DB
	users    repository.UserRepository
	projects repository.ProjectRepository
	tasks    repository.TaskRepository
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db, zap.NewNop()))

	return testEnv{
		db:       db,
		users:    repository.NewUserRepository(db),
		projects: repository.NewProjectRepository(db),
		tasks:    repository.NewTaskRepository(db),
	}
}

func (e testEnv) user(t *testing.T, name string, role models.UserRole) authz.Identity {
	t.Helper()
	user := &models.User{Name: name, Email: name + "@example.com", PasswordHash: "x", Role: role}
	require.NoError(t, e.users.Create(context.Background(), user))
	return authz.Identity{UserID: user.ID, Role: user.Role}
}

func (e testEnv) project(t *testing.T, owner authz.Identity, members ...uint64) *models.Project {
	t.Helper()
	project, err := NewProjectService(e.projects, e.users).Create(context.Background(), owner, CreateProjectInput{
		Name:      "Sprint1",
		MemberIDs: members,
	})
	require.NoError(t, err)
	return project
}

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
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
	return db
}

func openMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func seedUser(t *testing.T, repo UserRepository, name string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: name + "@example.com", PasswordHash: "x", Role: models.RoleMember}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestProjectRepository_Accessible(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	users := NewUserRepository(db)
	projects := NewProjectRepository(db)

	owner := seedUser(t, users, "owner")
	member := seedUser(t, users, "member")
	stranger := seedUser(t, users, "stranger")

	owned := &models.Project{Name: "Owned", OwnerID: owner.ID, Status: models.ProjectStatusActive}
	require.NoError(t, projects.Create(ctx, owned))
	shared := &models.Project{Name: "Shared", OwnerID: stranger.ID, Status: models.ProjectStatusActive, Members: []models.User{*owner, *member}}
	require.NoError(t, projects.Create(ctx, shared))

	list, err := projects.ListAccessible(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, p := range list {
		assert.NotZero(t, p.Owner.ID, "owner is preloaded")
	}

	ids, err := projects.AccessibleIDs(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{shared.ID}, ids)

	ids, err = projects.AccessibleIDs(ctx, 9999)
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)

	// Creating a project with members must not rewrite the users.
	reloaded, err := users.FindByID(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, "member", reloaded.Name)
}

func TestProjectRepository_ReplaceMembersAndDelete(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	users := NewUserRepository(db)
	projects := NewProjectRepository(db)
	tasks := NewTaskRepository(db)

	owner := seedUser(t, users, "owner")
	a := seedUser(t, users, "a")
	b := seedUser(t, users, "b")

	project := &models.Project{Name: "P", OwnerID: owner.ID, Status: models.ProjectStatusActive, Members: []models.User{*a}}
	require.NoError(t, projects.Create(ctx, project))

	require.NoError(t, projects.ReplaceMembers(ctx, project, []models.User{*b}))
	loaded, err := projects.FindByID(ctx, project.ID, "Members")
	require.NoError(t, err)
	require.Len(t, loaded.Members, 1)
	assert.Equal(t, b.ID, loaded.Members[0].ID)

	require.NoError(t, projects.ReplaceMembers(ctx, loaded, []models.User{}))
	loaded, err = projects.FindByID(ctx, project.ID, "Members")
	require.NoError(t, err)
	assert.Empty(t, loaded.Members)

	task := &models.Task{Title: "T", ProjectID: project.ID, CreatedByID: owner.ID, Status: models.TaskStatusTodo, Priority: models.TaskPriorityLow}
	require.NoError(t, tasks.Create(ctx, task))

	require.NoError(t, projects.ReplaceMembers(ctx, loaded, []models.User{*a}))
	require.NoError(t, projects.Delete(ctx, project.ID))

	_, err = projects.FindByID(ctx, project.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var links int64
	require.NoError(t, db.Table("project_members").Where("project_id = ?", project.ID).Count(&links).Error)
	assert.Zero(t, links)

	kept, err := tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, kept.ProjectID)
}

func TestTaskRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	users := NewUserRepository(db)
	projects := NewProjectRepository(db)
	tasks := NewTaskRepository(db)

	owner := seedUser(t, users, "owner")
	assignee := seedUser(t, users, "assignee")

	p1 := &models.Project{Name: "P1", OwnerID: owner.ID, Status: models.ProjectStatusActive}
	p2 := &models.Project{Name: "P2", OwnerID: owner.ID, Status: models.ProjectStatusActive}
	require.NoError(t, projects.Create(ctx, p1))
	require.NoError(t, projects.Create(ctx, p2))

	base := time.Now().Add(-time.Hour)
	create := func(title string, projectID uint64, assigned *uint64, offset time.Duration) *models.Task {
		task := &models.Task{
			Title:        title,
			ProjectID:    projectID,
			CreatedByID:  owner.ID,
			AssignedToID: assigned,
			Status:       models.TaskStatusTodo,
			Priority:     models.TaskPriorityMedium,
			CreatedAt:    base.Add(offset),
		}
		require.NoError(t, tasks.Create(ctx, task))
		return task
	}

	first := create("first", p1.ID, nil, 0)
	second := create("second", p1.ID, &assignee.ID, time.Minute)
	third := create("third", p2.ID, &assignee.ID, 2*time.Minute)

	all, err := tasks.List(ctx, TaskFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uint64{third.ID, second.ID, first.ID}, []uint64{all[0].ID, all[1].ID, all[2].ID})

	inP1, err := tasks.List(ctx, TaskFilter{ProjectIDs: []uint64{p1.ID}, Preload: []string{"AssignedTo", "CreatedBy"}})
	require.NoError(t, err)
	require.Len(t, inP1, 2)
	assert.Equal(t, "owner", inP1[0].CreatedBy.Name)
	require.NotNil(t, inP1[0].AssignedTo)
	assert.Equal(t, "assignee", inP1[0].AssignedTo.Name)

	none, err := tasks.List(ctx, TaskFilter{ProjectIDs: []uint64{}})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	assigned, err := tasks.List(ctx, TaskFilter{AssignedToID: &assignee.ID})
	require.NoError(t, err)
	assert.Len(t, assigned, 2)

	require.NoError(t, tasks.Delete(ctx, first.ID))
	_, err = tasks.FindByID(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskRepository_UpdatePersistsZeroValues(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	users := NewUserRepository(db)
	projects := NewProjectRepository(db)
	tasks := NewTaskRepository(db)

	owner := seedUser(t, users, "owner")
	project := &models.Project{Name: "P", OwnerID: owner.ID, Status: models.ProjectStatusActive}
	require.NoError(t, projects.Create(ctx, project))

	estimate := 90
	task := &models.Task{
		Title:         "T",
		Description:   "D",
		ProjectID:     project.ID,
		CreatedByID:   owner.ID,
		AssignedToID:  &owner.ID,
		Status:        models.TaskStatusInProgress,
		Priority:      models.TaskPriorityHigh,
		TimeSpent:     45,
		EstimatedTime: &estimate,
	}
	require.NoError(t, tasks.Create(ctx, task))

	loaded, err := tasks.FindByID(ctx, task.ID, "AssignedTo", "CreatedBy", "Project")
	require.NoError(t, err)

	loaded.TimeSpent = 0
	loaded.Description = ""
	loaded.AssignedToID = nil
	loaded.EstimatedTime = nil
	require.NoError(t, tasks.Update(ctx, loaded))

	reloaded, err := tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.TimeSpent)
	assert.Equal(t, "", reloaded.Description)
	assert.Nil(t, reloaded.AssignedToID)
	assert.Nil(t, reloaded.EstimatedTime)
}

func TestUserRepository_ListAndLookup(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	users := NewUserRepository(db)

	for _, name := range []string{"u1", "u2", "u3"} {
		seedUser(t, users, name)
	}

	page, total, err := users.List(ctx, utils.Page{Number: 2, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	assert.Equal(t, "u3", page[0].Name)

	found, err := users.FindByEmail(ctx, "u2@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u2", found.Name)

	_, err = users.FindByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	existing, err := users.FindByIDs(ctx, []uint64{found.ID, 9999})
	require.NoError(t, err)
	assert.Len(t, existing, 1)

	empty, err := users.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository(openSQLite(t))

	first := seedUser(t, users, "dup")

	err := users.Create(ctx, &models.User{Name: "other", Email: "dup@example.com", PasswordHash: "x", Role: models.RoleMember})
	assert.ErrorIs(t, err, ErrDuplicate)

	second := seedUser(t, users, "second")
	second.Email = first.Email
	assert.ErrorIs(t, users.Update(ctx, second), ErrDuplicate)
}

func TestUserRepository_DeleteReleasesEmail(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository(openSQLite(t))

	gone := seedUser(t, users, "gone")
	require.NoError(t, users.Delete(ctx, gone.ID))

	_, err := users.FindByID(ctx, gone.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	again := seedUser(t, users, "gone")
	assert.NotEqual(t, gone.ID, again.ID)

	found, err := users.FindByEmail(ctx, "gone@example.com")
	require.NoError(t, err)
	assert.Equal(t, again.ID, found.ID)
}

func TestUserRepository_DeleteRewritesEmailBeforeSoftDelete(t *testing.T) {
	db, mock := openMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `users` SET `email`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `users` SET `deleted_at`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewUserRepository(db).Delete(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_TranslatesNotFound(t *testing.T) {
	db, mock := openMock(t)

	mock.ExpectQuery("SELECT \\* FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := NewUserRepository(db).FindByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_PropagatesDriverErrors(t *testing.T) {
	db, mock := openMock(t)

	boom := errors.New("connection reset")
	mock.ExpectQuery("SELECT \\* FROM `tasks`").WillReturnError(boom)

	_, err := NewTaskRepository(db).FindByID(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_DeleteRollsBack(t *testing.T) {
	db, mock := openMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM project_members").
		WithArgs(7).
		WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	err := NewProjectRepository(db).Delete(context.Background(), 7)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_DeleteCommits(t *testing.T) {
	db, mock := openMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM project_members").
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE `projects` SET `deleted_at`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewProjectRepository(db).Delete(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

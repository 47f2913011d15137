package repository

import (
	"context"

	"github.com/yukikurage/project-tracker-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a project. Members must be existing users; only the join
// rows are written for them.
func (r *GormProjectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit("Owner", "Members.*").Create(project).Error
}

// FindByID finds a project by ID with optional preloading
func (r *GormProjectRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Project, error) {
	var project models.Project
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&project, id).Error; err != nil {
		return nil, translate(err)
	}

	return &project, nil
}

// accessible scopes a project query to the rows userID owns or is a member of
func (r *GormProjectRepository) accessible(ctx context.Context, userID uint64) *gorm.DB {
	memberOf := r.db.WithContext(ctx).
		Table("project_members").
		Select("project_id").
		Where("user_id = ?", userID)

	return r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("projects.owner_id = ? OR projects.id IN (?)", userID, memberOf)
}

// ListAccessible lists the projects a user owns or is a member of, newest first
func (r *GormProjectRepository) ListAccessible(ctx context.Context, userID uint64) ([]models.Project, error) {
	projects := []models.Project{}
	if err := r.accessible(ctx, userID).
		Preload("Owner").
		Preload("Members").
		Order("projects.created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// AccessibleIDs returns the IDs of the projects a user owns or is a member of
func (r *GormProjectRepository) AccessibleIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	ids := []uint64{}
	if err := r.accessible(ctx, userID).Pluck("projects.id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Update saves the project's own columns
func (r *GormProjectRepository) Update(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(project).Error
}

// ReplaceMembers sets the member list of a project
func (r *GormProjectRepository) ReplaceMembers(ctx context.Context, project *models.Project, members []models.User) error {
	return r.db.WithContext(ctx).
		Model(project).
		Omit("Members.*").
		Association("Members").
		Replace(members)
}

// Delete soft deletes a project and drops its member links in a transaction.
// Tasks of the project are not touched.
func (r *GormProjectRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM project_members WHERE project_id = ?", id).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Project{}, id).Error
	})
}

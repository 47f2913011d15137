package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AddIndexes adds the indexes used by the listing and analytics queries.
// It only goes through the GORM migrator, so it works on every driver.
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Task listings are filtered by project and sorted by creation time
		{"tasks", "idx_tasks_project_created", "project_id, created_at"},
		// User analytics
		{"tasks", "idx_tasks_assigned_to_id", "assigned_to_id"},
		{"tasks", "idx_tasks_created_by_id", "created_by_id"},

		// Reverse lookup of the projects a user belongs to
		{"project_members", "idx_project_members_user_id", "user_id"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.Debug("Index already exists, skipping", zap.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("Created index",
			zap.String("index", idx.name),
			zap.String("table", idx.table),
			zap.String("columns", idx.columns),
		)
	}

	return nil
}

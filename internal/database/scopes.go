package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/project-tracker-api/internal/utils"
)

// PageScope restricts a query to one page, ordered by primary key so that
// consecutive pages never overlap.
func PageScope(page utils.Page) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC").Offset(page.Offset()).Limit(page.Size)
	}
}

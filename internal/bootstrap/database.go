package bootstrap

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/models"
)

// Migrate ensures the tables this service owns exist. The projects table is
// shared with the CRUD layer; AutoMigrate only adds the enrichment columns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

func allModels() []interface{} {
	return []interface{}{
		&models.Project{},
		&models.ScrapeJob{},
		&models.ScamReport{},
	}
}

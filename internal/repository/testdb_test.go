package repository

import (
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/models"
)

// setupDB opens a throwaway sqlite database with the service schema.
// TranslateError is on, same as production, so duplicate-key detection
// behaves the same way.
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(&models.Project{}, &models.ScrapeJob{}, &models.ScamReport{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func seedProject(t *testing.T, db *gorm.DB, slug string) *models.Project {
	t.Helper()
	project := &models.Project{
		Slug:      slug,
		Name:      "Test Project " + slug,
		GithubURL: "https://github.com/example/" + slug,
		Active:    true,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return project
}

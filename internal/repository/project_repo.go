package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/models"
)

// ProjectRepository handles project reads plus the enrichment-field writes
// this service owns. All other project columns belong to the CRUD layer.
type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// ListEligible returns projects the dispatcher may enrich: active listings
// with a GitHub URL to point the actor at.
func (r *ProjectRepository) ListEligible() ([]models.Project, error) {
	var projects []models.Project
	err := r.db.
		Where("active = ? AND github_url <> ''", true).
		Order("id ASC").
		Find(&projects).Error
	return projects, err
}

func (r *ProjectRepository) FindByID(id uint) (*models.Project, error) {
	var project models.Project
	if err := r.db.First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// ApplyScrapeResult merges the recognized metric fields into the project and
// stamps the scrape as completed. Only enrichment-owned columns are touched.
func (r *ProjectRepository) ApplyScrapeResult(id uint, m models.GithubMetrics, scrapedAt time.Time) error {
	res := r.db.Model(&models.Project{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"scrape_status":   models.ScrapeStatusCompleted,
			"last_scraped_at": scrapedAt,
			"stars":           m.Stars,
			"forks":           m.Forks,
			"watchers":        m.Watchers,
			"open_issues":     m.OpenIssues,
			"last_commit_at":  m.LastCommitAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClaimScamAlert marks the project as alerted, but only once: the conditional
// update succeeds for exactly one caller per project, which is what makes the
// fan-out fire once per threshold crossing.
func (r *ProjectRepository) ClaimScamAlert(id uint, at time.Time) (bool, error) {
	res := r.db.Model(&models.Project{}).
		Where("id = ? AND scam_alerted_at IS NULL", id).
		Update("scam_alerted_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

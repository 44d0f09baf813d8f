package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/models"
)

// ScamReportRepository handles scam report inserts and counts.
type ScamReportRepository struct {
	db *gorm.DB
}

func NewScamReportRepository(db *gorm.DB) *ScamReportRepository {
	return &ScamReportRepository{db: db}
}

// Create inserts a report. The (project_id, reporter) unique index is the
// authoritative duplicate guard; a losing insert returns ErrDuplicateReport.
func (r *ScamReportRepository) Create(report *models.ScamReport) error {
	if err := r.db.Create(report).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateReport
		}
		return err
	}
	return nil
}

// CountByProject recomputes the project's total report count from the store.
func (r *ScamReportRepository) CountByProject(projectID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ScamReport{}).
		Where("project_id = ?", projectID).
		Count(&count).Error
	return count, err
}

// RecentReasons returns the newest report reasons for the alert payload.
func (r *ScamReportRepository) RecentReasons(projectID uint, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 3
	}
	var reasons []string
	err := r.db.Model(&models.ScamReport{}).
		Where("project_id = ?", projectID).
		Order("id DESC").
		Limit(limit).
		Pluck("reason", &reasons).Error
	return reasons, err
}

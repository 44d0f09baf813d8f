package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/models"
)

// ScrapeJobRepository handles the durable scrape-job queue. Jobs are never
// deleted; terminal rows remain as the audit trail.
type ScrapeJobRepository struct {
	db *gorm.DB
}

func NewScrapeJobRepository(db *gorm.DB) *ScrapeJobRepository {
	return &ScrapeJobRepository{db: db}
}

// CreateActive inserts a pending job for the project. The (project_id,
// active) unique index rejects the insert when a live job already exists, so
// concurrent dispatchers cannot double-queue; the loser gets
// ErrJobAlreadyQueued. Requires TranslateError on the gorm config.
func (r *ScrapeJobRepository) CreateActive(projectID uint, priority int) (*models.ScrapeJob, error) {
	active := true
	job := &models.ScrapeJob{
		ProjectID: projectID,
		Active:    &active,
		Status:    models.JobPending,
		Priority:  priority,
		Metadata:  "{}",
	}
	if err := r.db.Create(job).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrJobAlreadyQueued
		}
		return nil, err
	}
	return job, nil
}

// MarkProcessing confirms the external invocation: pending → processing,
// storing the actor run id in metadata. A no-op when the job already left
// pending (a fast callback may have completed it first).
func (r *ScrapeJobRepository) MarkProcessing(jobID uint, runID string) error {
	meta, _ := json.Marshal(map[string]string{"run_id": runID})
	return r.db.Model(&models.ScrapeJob{}).
		Where("id = ? AND status = ?", jobID, models.JobPending).
		Updates(map[string]interface{}{
			"status":   models.JobProcessing,
			"metadata": string(meta),
		}).Error
}

// FindActiveByProject returns the project's live job, if any.
func (r *ScrapeJobRepository) FindActiveByProject(projectID uint) (*models.ScrapeJob, error) {
	var job models.ScrapeJob
	err := r.db.
		Where("project_id = ? AND status IN ?", projectID, models.LiveStatuses()).
		Order("id DESC").
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// FindLatestByProject returns the newest job for the project regardless of
// status. Used by the callback receiver to recognize idempotent replays.
func (r *ScrapeJobRepository) FindLatestByProject(projectID uint) (*models.ScrapeJob, error) {
	var job models.ScrapeJob
	err := r.db.
		Where("project_id = ?", projectID).
		Order("id DESC").
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// Complete transitions a live job to completed, stamps completed_at, and
// frees the project's active slot (active → NULL).
func (r *ScrapeJobRepository) Complete(jobID uint) error {
	return r.finalize(jobID, models.JobCompleted, "")
}

// Fail transitions a live job to failed with last_error as the durable trace
// of what went wrong.
func (r *ScrapeJobRepository) Fail(jobID uint, lastError string) error {
	return r.finalize(jobID, models.JobFailed, lastError)
}

func (r *ScrapeJobRepository) finalize(jobID uint, status models.JobStatus, lastError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":       status,
		"active":       nil,
		"completed_at": now,
	}
	if lastError != "" {
		updates["last_error"] = trimError(lastError)
	}
	res := r.db.Model(&models.ScrapeJob{}).
		Where("id = ? AND status IN ?", jobID, models.LiveStatuses()).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("job %d is not live, refusing %s transition", jobID, status)
	}
	return nil
}

// List returns jobs newest-first with optional status filter and pagination.
func (r *ScrapeJobRepository) List(status models.JobStatus, limit, page int) ([]models.ScrapeJob, int64, error) {
	var jobs []models.ScrapeJob
	var total int64

	db := r.db.Model(&models.ScrapeJob{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if page <= 0 {
		page = 1
	}
	if err := db.Limit(limit).Offset((page - 1) * limit).Order("id DESC").Find(&jobs).Error; err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// ListStaleProcessing returns processing jobs whose callback is overdue.
// Detection only; expiring them is the sweep's explicit, separate decision.
func (r *ScrapeJobRepository) ListStaleProcessing(olderThan time.Time) ([]models.ScrapeJob, error) {
	var jobs []models.ScrapeJob
	err := r.db.
		Where("status = ? AND updated_at < ?", models.JobProcessing, olderThan).
		Order("id ASC").
		Find(&jobs).Error
	return jobs, err
}

// FailStale marks overdue processing jobs failed. This is the operator
// sweep, not part of the callback contract.
func (r *ScrapeJobRepository) FailStale(olderThan time.Time, reason string) (int64, error) {
	res := r.db.Model(&models.ScrapeJob{}).
		Where("status = ? AND updated_at < ?", models.JobProcessing, olderThan).
		Updates(map[string]interface{}{
			"status":       models.JobFailed,
			"active":       nil,
			"completed_at": time.Now(),
			"last_error":   trimError(reason),
		})
	return res.RowsAffected, res.Error
}

func trimError(msg string) string {
	if len(msg) > 900 {
		return msg[:900]
	}
	return msg
}

package models

import "time"

// JobStatus is the lifecycle state of a scrape job.
//
//	pending ──► processing ──► completed
//	    │            │
//	    └────────────┴──────── failed
//
// completed and failed are terminal. pending → completed covers the callback
// that arrives before the dispatcher's processing write is durable, a race
// inherent to fire-and-forget invocation.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

var jobTransitions = map[JobStatus][]JobStatus{
	JobPending:    {JobProcessing, JobCompleted, JobFailed},
	JobProcessing: {JobCompleted, JobFailed},
}

// CanTransition reports whether from → to is a legal job transition.
func CanTransition(from, to JobStatus) bool {
	for _, s := range jobTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a status has no outgoing transitions.
func (s JobStatus) Terminal() bool {
	return len(jobTransitions[s]) == 0
}

// LiveStatuses are the non-terminal states counted toward the one-live-job
// invariant.
func LiveStatuses() []JobStatus {
	return []JobStatus{JobPending, JobProcessing}
}

// ScrapeJob maps to the `scrape_jobs` table. Rows are never deleted; the
// table doubles as the enrichment audit trail.
type ScrapeJob struct {
	ID        uint `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ProjectID uint `gorm:"column:project_id;uniqueIndex:idx_scrape_jobs_project_active" json:"project_id"`

	// Active is true while the job is pending/processing and NULL once
	// terminal. The composite unique index (project_id, active) makes a
	// second live job for the same project a duplicate-key error, closing
	// the concurrent-dispatch race at the store instead of with a
	// read-then-write check.
	Active *bool `gorm:"column:active;uniqueIndex:idx_scrape_jobs_project_active" json:"-"`

	Status      JobStatus  `gorm:"column:status;size:30;index:idx_scrape_jobs_status" json:"status"`
	Priority    int        `gorm:"column:priority;default:0" json:"priority"`
	Metadata    string     `gorm:"column:metadata;type:text" json:"metadata"`
	LastError   string     `gorm:"column:last_error;type:text" json:"last_error"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at"`
}

func (ScrapeJob) TableName() string {
	return "scrape_jobs"
}

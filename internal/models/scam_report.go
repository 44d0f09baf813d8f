package models

import "time"

// ScamReport maps to the `scam_reports` table. A report is immutable once
// created and never deleted by this service. The composite unique index on
// (project_id, reporter) is the authoritative one-report-per-reporter
// constraint; duplicates are rejected, not merged.
type ScamReport struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ProjectID   uint      `gorm:"column:project_id;uniqueIndex:idx_scam_reports_project_reporter" json:"project_id"`
	Reporter    string    `gorm:"column:reporter;size:120;uniqueIndex:idx_scam_reports_project_reporter" json:"reporter"`
	Reason      string    `gorm:"column:reason;size:2000" json:"reason"`
	EvidenceURL string    `gorm:"column:evidence_url;size:500" json:"evidence_url"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ScamReport) TableName() string {
	return "scam_reports"
}

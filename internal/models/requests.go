package models

// ReportRequest is the body of POST /api/reports. The reporter is the
// submitter's wallet address, used as a stable pseudonymous key.
type ReportRequest struct {
	ProjectID   uint   `json:"project_id" validate:"required"`
	Reporter    string `json:"reporter" validate:"required,kaspaaddr"`
	Reason      string `json:"reason" validate:"required,min=10,max=2000"`
	EvidenceURL string `json:"evidence_url" validate:"omitempty,url,startswith=http,max=500"`
}

// ReportResponse is returned on successful report submission.
type ReportResponse struct {
	ReportID       uint  `json:"report_id"`
	TotalReports   int64 `json:"total_reports"`
	AlertTriggered bool  `json:"alert_triggered"`
}

// CallbackRequest is the body posted by the external scraping actor.
type CallbackRequest struct {
	ProjectID uint                   `json:"project_id"`
	Result    map[string]interface{} `json:"result"`
}

// Dispatch outcome status values, one per project in the batch.
const (
	DispatchTriggered     = "triggered"
	DispatchAlreadyQueued = "already_queued"
	DispatchError         = "error"
)

// DispatchOutcome is one entry of the dispatch trigger response.
type DispatchOutcome struct {
	ProjectID uint   `json:"project_id"`
	Status    string `json:"status"`
	RunID     string `json:"run_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ErrorResponse is the structured rejection body used by every endpoint.
// Code is machine-distinguishable; RetryAfterSeconds is set only on
// rate-limit rejections.
type ErrorResponse struct {
	Code              string `json:"code"`
	Message           string `json:"message"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}

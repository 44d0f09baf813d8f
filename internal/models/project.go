package models

import "time"

// Scrape status values stored on projects.scrape_status.
const (
	ScrapeStatusNone      = ""
	ScrapeStatusCompleted = "completed"
)

// Project maps to the `projects` table. Most columns belong to the CRUD
// layer; this service owns only the enrichment fields (scrape status, GitHub
// metrics) and the scam-alert marker.
type Project struct {
	ID         uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Slug       string `gorm:"column:slug;size:200;uniqueIndex" json:"slug"`
	Name       string `gorm:"column:name;size:500" json:"name"`
	GithubURL  string `gorm:"column:github_url;size:500" json:"github_url"`
	WebsiteURL string `gorm:"column:website_url;size:500" json:"website_url"`
	Active     bool   `gorm:"column:active;default:true" json:"active"`

	// Enrichment fields, written only by the callback receiver.
	ScrapeStatus  string     `gorm:"column:scrape_status;size:30" json:"scrape_status"`
	LastScrapedAt *time.Time `gorm:"column:last_scraped_at" json:"last_scraped_at"`
	Stars         int        `gorm:"column:stars;default:0" json:"stars"`
	Forks         int        `gorm:"column:forks;default:0" json:"forks"`
	Watchers      int        `gorm:"column:watchers;default:0" json:"watchers"`
	OpenIssues    int        `gorm:"column:open_issues;default:0" json:"open_issues"`
	LastCommitAt  string     `gorm:"column:last_commit_at;size:64" json:"last_commit_at"`

	// Set once, when the scam-report count first reaches the alert threshold.
	ScamAlertedAt *time.Time `gorm:"column:scam_alerted_at" json:"scam_alerted_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

// GithubMetrics is the recognized subset of a scrape result payload.
type GithubMetrics struct {
	Stars        int
	Forks        int
	Watchers     int
	OpenIssues   int
	LastCommitAt string
}

// GithubMetricsFromResult extracts the recognized provider fields from a raw
// callback result body. Unrecognized keys are dropped, never stored.
func GithubMetricsFromResult(result map[string]interface{}) GithubMetrics {
	m := GithubMetrics{
		Stars:      intField(result, "stars"),
		Forks:      intField(result, "forks"),
		Watchers:   intField(result, "watchers"),
		OpenIssues: intField(result, "open_issues"),
	}
	if v, ok := result["last_commit_at"].(string); ok {
		m.LastCommitAt = v
	}
	return m
}

func intField(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

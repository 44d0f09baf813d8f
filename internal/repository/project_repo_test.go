package repository

import (
	"testing"
	"time"

	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/models"
)

func TestListEligibleSkipsInactiveAndURLLess(t *testing.T) {
	db := setupDB(t)
	repo := NewProjectRepository(db)

	eligible := seedProject(t, db, "eligible")
	inactive := seedProject(t, db, "inactive")
	if err := db.Model(&models.Project{}).Where("id = ?", inactive.ID).
		Update("active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	noURL := seedProject(t, db, "no-url")
	if err := db.Model(&models.Project{}).Where("id = ?", noURL.ID).
		Update("github_url", "").Error; err != nil {
		t.Fatalf("clear url: %v", err)
	}

	got, err := repo.ListEligible()
	if err != nil {
		t.Fatalf("list eligible: %v", err)
	}
	if len(got) != 1 || got[0].ID != eligible.ID {
		t.Errorf("eligible = %d projects, want exactly the active one with a URL", len(got))
	}
}

func TestApplyScrapeResult(t *testing.T) {
	db := setupDB(t)
	repo := NewProjectRepository(db)
	project := seedProject(t, db, "kas-wallet")

	scrapedAt := time.Now()
	metrics := models.GithubMetrics{
		Stars:        100,
		Forks:        20,
		Watchers:     35,
		OpenIssues:   4,
		LastCommitAt: "2026-08-29T12:00:00Z",
	}
	if err := repo.ApplyScrapeResult(project.ID, metrics, scrapedAt); err != nil {
		t.Fatalf("apply: %v", err)
	}

	got, err := repo.FindByID(project.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Stars != 100 || got.Forks != 20 || got.Watchers != 35 || got.OpenIssues != 4 {
		t.Errorf("metrics not applied: %+v", got)
	}
	if got.ScrapeStatus != models.ScrapeStatusCompleted {
		t.Errorf("scrape_status = %q", got.ScrapeStatus)
	}
	if got.LastScrapedAt == nil {
		t.Error("last_scraped_at must be stamped")
	}
	// Columns outside the enrichment set stay untouched.
	if got.Name != project.Name || got.GithubURL != project.GithubURL {
		t.Error("non-enrichment columns were modified")
	}
}

func TestApplyScrapeResultUnknownProject(t *testing.T) {
	db := setupDB(t)
	repo := NewProjectRepository(db)

	if err := repo.ApplyScrapeResult(9999, models.GithubMetrics{}, time.Now()); err == nil {
		t.Fatal("applying to a missing project must error")
	}
}

func TestClaimScamAlertOnlyOnce(t *testing.T) {
	db := setupDB(t)
	repo := NewProjectRepository(db)
	project := seedProject(t, db, "sus-project")

	claimed, err := repo.ClaimScamAlert(project.ID, time.Now())
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if !claimed {
		t.Fatal("first claim must succeed")
	}

	claimed, err = repo.ClaimScamAlert(project.ID, time.Now())
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if claimed {
		t.Fatal("second claim must be refused")
	}

	got, err := repo.FindByID(project.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ScamAlertedAt == nil {
		t.Error("scam_alerted_at must be set")
	}
}

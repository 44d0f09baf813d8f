package repository

import (
	"errors"
	"testing"

	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/models"
)

func TestCreateRejectsDuplicateReporter(t *testing.T) {
	db := setupDB(t)
	repo := NewScamReportRepository(db)
	project := seedProject(t, db, "sus-project")

	report := &models.ScamReport{
		ProjectID: project.ID,
		Reporter:  "kaspa:qqreporterone0001",
		Reason:    "fake team, stolen whitepaper",
	}
	if err := repo.Create(report); err != nil {
		t.Fatalf("first report: %v", err)
	}

	dup := &models.ScamReport{
		ProjectID: project.ID,
		Reporter:  "kaspa:qqreporterone0001",
		Reason:    "trying to report again",
	}
	if err := repo.Create(dup); !errors.Is(err, ErrDuplicateReport) {
		t.Fatalf("duplicate: got %v, want ErrDuplicateReport", err)
	}

	// Same reporter may report a different project.
	other := seedProject(t, db, "other-project")
	if err := repo.Create(&models.ScamReport{
		ProjectID: other.ID,
		Reporter:  "kaspa:qqreporterone0001",
		Reason:    "this one is shady too",
	}); err != nil {
		t.Fatalf("report on other project: %v", err)
	}
}

func TestCountByProject(t *testing.T) {
	db := setupDB(t)
	repo := NewScamReportRepository(db)
	project := seedProject(t, db, "sus-project")
	other := seedProject(t, db, "clean-project")

	for _, reporter := range []string{"kaspa:qqaaaaaaaa", "kaspa:qqbbbbbbbb", "kaspa:qqcccccccc"} {
		if err := repo.Create(&models.ScamReport{
			ProjectID: project.ID,
			Reporter:  reporter,
			Reason:    "rug pull in progress",
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	count, err := repo.CountByProject(project.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	count, err = repo.CountByProject(other.ID)
	if err != nil {
		t.Fatalf("count other: %v", err)
	}
	if count != 0 {
		t.Errorf("count for clean project = %d, want 0", count)
	}
}

func TestRecentReasonsNewestFirst(t *testing.T) {
	db := setupDB(t)
	repo := NewScamReportRepository(db)
	project := seedProject(t, db, "sus-project")

	reasons := []string{"first reason here", "second reason here", "third reason here", "fourth reason here"}
	for i, reason := range reasons {
		if err := repo.Create(&models.ScamReport{
			ProjectID: project.ID,
			Reporter:  "kaspa:qqreporter" + string(rune('a'+i)) + "0000",
			Reason:    reason,
		}); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	got, err := repo.RecentReasons(project.ID, 3)
	if err != nil {
		t.Fatalf("recent reasons: %v", err)
	}
	want := []string{"fourth reason here", "third reason here", "second reason here"}
	if len(got) != len(want) {
		t.Fatalf("got %d reasons, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("reasons[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/models"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/repository"
)

func setupCallback(t *testing.T, secret string) (*ScrapeCallbackHandler, *gorm.DB) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "callback.sqlite")
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
	if err := db.AutoMigrate(&models.Project{}, &models.ScrapeJob{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	h := NewScrapeCallbackHandler(&CallbackRepos{
		Project: repository.NewProjectRepository(db),
		Job:     repository.NewScrapeJobRepository(db),
	}, secret, zap.NewNop())
	return h, db
}

func seedProjectWithJob(t *testing.T, db *gorm.DB) (*models.Project, *models.ScrapeJob) {
	t.Helper()
	project := &models.Project{
		Slug:      "kas-wallet",
		Name:      "Kas Wallet",
		GithubURL: "https://github.com/example/kas-wallet",
		Active:    true,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	jobs := repository.NewScrapeJobRepository(db)
	job, err := jobs.CreateActive(project.ID, 0)
	if err != nil {
		t.Fatalf("seed job: %v", err)
	}
	if err := jobs.MarkProcessing(job.ID, "run-1"); err != nil {
		t.Fatalf("mark processing: %v", err)
	}
	return project, job
}

func postCallback(t *testing.T, h *ScrapeCallbackHandler, body, secret string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/scrape/callback", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if secret != "" {
		req.Header.Set(callbackSecretHeader, secret)
	}
	rec := httptest.NewRecorder()
	if err := h.Handle(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	return rec
}

func TestCallbackAppliesResultAndCompletesJob(t *testing.T) {
	h, db := setupCallback(t, "")
	project, job := seedProjectWithJob(t, db)

	body := `{"project_id":` + jsonUint(project.ID) + `,"result":{"stars":42,"forks":7,"watchers":11,"open_issues":2,"last_commit_at":"2026-08-30T10:00:00Z","malicious_key":"dropped"}}`
	rec := postCallback(t, h, body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var got models.Project
	if err := db.First(&got, project.ID).Error; err != nil {
		t.Fatalf("reload project: %v", err)
	}
	if got.Stars != 42 || got.Forks != 7 || got.Watchers != 11 || got.OpenIssues != 2 {
		t.Errorf("metrics not merged: %+v", got)
	}
	if got.ScrapeStatus != models.ScrapeStatusCompleted || got.LastScrapedAt == nil {
		t.Errorf("scrape status = %q, scraped_at = %v", got.ScrapeStatus, got.LastScrapedAt)
	}

	var gotJob models.ScrapeJob
	if err := db.First(&gotJob, job.ID).Error; err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if gotJob.Status != models.JobCompleted {
		t.Errorf("job status = %q, want completed", gotJob.Status)
	}
	if gotJob.Active != nil {
		t.Error("active slot must be freed")
	}
}

func TestCallbackReplayIsIdempotent(t *testing.T) {
	h, db := setupCallback(t, "")
	project, _ := seedProjectWithJob(t, db)

	body := `{"project_id":` + jsonUint(project.ID) + `,"result":{"stars":42}}`
	if rec := postCallback(t, h, body, ""); rec.Code != http.StatusOK {
		t.Fatalf("first delivery: %d", rec.Code)
	}

	// Same delivery again: accepted, merge reapplied, no new side effects.
	rec := postCallback(t, h, `{"project_id":`+jsonUint(project.ID)+`,"result":{"stars":43}}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("replay: %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "already_completed" {
		t.Errorf("replay status = %q", resp["status"])
	}

	var got models.Project
	if err := db.First(&got, project.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Stars != 43 {
		t.Errorf("replay merge not applied: stars = %d", got.Stars)
	}
}

func TestCallbackCompletesPendingJob(t *testing.T) {
	// Callback arrives before the dispatcher's processing write.
	h, db := setupCallback(t, "")
	project := &models.Project{Slug: "fast", Name: "Fast", Active: true}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	job, err := repository.NewScrapeJobRepository(db).CreateActive(project.ID, 0)
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	rec := postCallback(t, h, `{"project_id":`+jsonUint(project.ID)+`,"result":{"stars":1}}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var gotJob models.ScrapeJob
	if err := db.First(&gotJob, job.ID).Error; err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if gotJob.Status != models.JobCompleted {
		t.Errorf("pending job must complete directly, got %q", gotJob.Status)
	}
}

func TestCallbackRejectsBadSecret(t *testing.T) {
	h, db := setupCallback(t, "topsecret")
	project, job := seedProjectWithJob(t, db)

	body := `{"project_id":` + jsonUint(project.ID) + `,"result":{"stars":42}}`
	rec := postCallback(t, h, body, "wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	var gotJob models.ScrapeJob
	if err := db.First(&gotJob, job.ID).Error; err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if gotJob.Status != models.JobProcessing {
		t.Errorf("rejected callback must not touch the job, got %q", gotJob.Status)
	}

	if rec := postCallback(t, h, body, "topsecret"); rec.Code != http.StatusOK {
		t.Fatalf("correct secret: %d", rec.Code)
	}
}

func TestCallbackNoMatchingJob(t *testing.T) {
	h, db := setupCallback(t, "")
	project := &models.Project{Slug: "no-job", Name: "No Job", Active: true}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := postCallback(t, h, `{"project_id":`+jsonUint(project.ID)+`,"result":{"stars":1}}`, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var resp models.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != "job_not_found" {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestCallbackStructuralValidation(t *testing.T) {
	h, _ := setupCallback(t, "")

	cases := []struct {
		name string
		body string
	}{
		{"missing project_id", `{"result":{"stars":1}}`},
		{"missing result", `{"project_id":1}`},
		{"empty result", `{"project_id":1,"result":{}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postCallback(t, h, tc.body, "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func jsonUint(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

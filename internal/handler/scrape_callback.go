package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/models"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/repository"
)

const callbackSecretHeader = "X-Callback-Secret"

// CallbackRepos bundles repositories for the scrape callback.
type CallbackRepos struct {
	Project *repository.ProjectRepository
	Job     *repository.ScrapeJobRepository
}

// ScrapeCallbackHandler ingests the scraping actor's asynchronous result:
// it authenticates the caller, merges the recognized metric fields into the
// project, and closes the matching job. The actor does not retry on
// failure, so a 5xx from here means an operator must re-dispatch.
type ScrapeCallbackHandler struct {
	repos  *CallbackRepos
	secret string
	logger *zap.Logger
}

func NewScrapeCallbackHandler(repos *CallbackRepos, secret string, logger *zap.Logger) *ScrapeCallbackHandler {
	return &ScrapeCallbackHandler{repos: repos, secret: secret, logger: logger}
}

func (h *ScrapeCallbackHandler) Handle(c echo.Context) error {
	// No configured secret skips the check. Accepted tradeoff, not an
	// accident: deployments without a secret run open.
	if h.secret != "" {
		got := c.Request().Header.Get(callbackSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			h.logger.Warn("callback rejected: bad shared secret",
				zap.String("remote_ip", c.RealIP()))
			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Code:    "unauthorized",
				Message: "invalid callback secret",
			})
		}
	}

	var req models.CallbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    "validation_error",
			Message: "malformed callback body",
		})
	}
	if req.ProjectID == 0 || len(req.Result) == 0 {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    "validation_error",
			Message: "project_id and result are required",
		})
	}

	job, err := h.repos.Job.FindActiveByProject(req.ProjectID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return h.handleNoLiveJob(c, req)
	}
	if err != nil {
		h.logger.Error("job lookup failed", zap.Uint("project_id", req.ProjectID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    "store_error",
			Message: err.Error(),
		})
	}

	metrics := models.GithubMetricsFromResult(req.Result)
	if err := h.repos.Project.ApplyScrapeResult(req.ProjectID, metrics, time.Now()); err != nil {
		return h.failJob(c, job.ID, req.ProjectID, err)
	}
	if err := h.repos.Job.Complete(job.ID); err != nil {
		return h.failJob(c, job.ID, req.ProjectID, err)
	}

	h.logger.Info("scrape result applied",
		zap.Uint("project_id", req.ProjectID),
		zap.Uint("job_id", job.ID),
		zap.Int("stars", metrics.Stars))
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleNoLiveJob covers two distinct cases: an idempotent replay for a job
// that already completed (accepted, merge reapplied), and a callback with no
// matching record at all (reported, never a crash).
func (h *ScrapeCallbackHandler) handleNoLiveJob(c echo.Context, req models.CallbackRequest) error {
	last, err := h.repos.Job.FindLatestByProject(req.ProjectID)
	if err == nil && last.Status == models.JobCompleted {
		metrics := models.GithubMetricsFromResult(req.Result)
		if applyErr := h.repos.Project.ApplyScrapeResult(req.ProjectID, metrics, time.Now()); applyErr != nil {
			h.logger.Error("replay merge failed",
				zap.Uint("project_id", req.ProjectID),
				zap.Error(applyErr))
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Code:    "store_error",
				Message: applyErr.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "already_completed"})
	}

	h.logger.Warn("callback with no live job",
		zap.Uint("project_id", req.ProjectID),
		zap.String("remote_ip", c.RealIP()))
	return c.JSON(http.StatusNotFound, models.ErrorResponse{
		Code:    "job_not_found",
		Message: "no live scrape job for this project",
	})
}

// failJob records the persistence failure on the job and surfaces it as
// retryable. With fire-and-forget actor semantics this result is data-loss
// risk until someone re-dispatches, so last_error is the durable trace.
func (h *ScrapeCallbackHandler) failJob(c echo.Context, jobID, projectID uint, cause error) error {
	h.logger.Error("callback processing failed",
		zap.Uint("project_id", projectID),
		zap.Uint("job_id", jobID),
		zap.Error(cause))
	if err := h.repos.Job.Fail(jobID, cause.Error()); err != nil {
		h.logger.Error("failed to mark job failed",
			zap.Uint("job_id", jobID),
			zap.Error(err))
	}
	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Code:    "persistence_error",
		Message: cause.Error(),
	})
}

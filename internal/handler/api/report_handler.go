package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/alert"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/middleware"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/models"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/repository"
)

// ReportHandler is the scam-report submission gate: structural validation,
// per-reporter rate limit, (project, reporter) uniqueness, insert, then the
// threshold check. Every rejection carries a machine-readable code.
type ReportHandler struct {
	repos   *Repos
	limiter middleware.ReporterLimiter
	alerter *alert.Alerter
	logger  *zap.Logger
}

func NewReportHandler(repos *Repos, limiter middleware.ReporterLimiter, alerter *alert.Alerter, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{repos: repos, limiter: limiter, alerter: alerter, logger: logger}
}

func (h *ReportHandler) Handle(c echo.Context) error {
	var req models.ReportRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "validation_error", "malformed request body")
	}
	if err := c.Validate(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "validation_error", err.Error())
	}
	if req.EvidenceURL != "" && !isHTTPURL(req.EvidenceURL) {
		return errorJSON(c, http.StatusBadRequest, "validation_error", "evidence_url must be an http(s) URL")
	}

	ctx := c.Request().Context()

	allowed, retryAfter, err := h.limiter.Allow(ctx, req.Reporter)
	if err != nil {
		// The limiter is best-effort; the uniqueness constraint below stays
		// authoritative, so a limiter backend error fails open.
		h.logger.Warn("rate limiter error", zap.Error(err))
	}
	if !allowed {
		seconds := int(retryAfter.Round(time.Second).Seconds())
		c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
		return c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
			Code:              "rate_limited",
			Message:           "too many reports from this reporter, retry later",
			RetryAfterSeconds: seconds,
		})
	}

	project, err := h.repos.Project.FindByID(req.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "project_not_found", "unknown project")
		}
		h.logger.Error("project lookup failed", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "store_error", err.Error())
	}

	report := &models.ScamReport{
		ProjectID:   req.ProjectID,
		Reporter:    req.Reporter,
		Reason:      req.Reason,
		EvidenceURL: req.EvidenceURL,
	}
	if err := h.repos.Report.Create(report); err != nil {
		if errors.Is(err, repository.ErrDuplicateReport) {
			return errorJSON(c, http.StatusConflict, "duplicate_report",
				"this reporter already filed a report for this project")
		}
		h.logger.Error("report insert failed", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "store_error", err.Error())
	}

	total, err := h.repos.Report.CountByProject(req.ProjectID)
	if err != nil {
		h.logger.Error("report count failed", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "store_error", err.Error())
	}

	triggered := h.alerter.Evaluate(ctx, project, total)

	return c.JSON(http.StatusOK, models.ReportResponse{
		ReportID:       report.ID,
		TotalReports:   total,
		AlertTriggered: triggered,
	})
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/models"
)

// JobHandler is the operator view over the scrape-job audit trail. The
// stale filter surfaces processing jobs whose callback is overdue, the
// anomaly an operator re-dispatches by hand.
type JobHandler struct {
	repos        *Repos
	staleTimeout time.Duration
	logger       *zap.Logger
}

func NewJobHandler(repos *Repos, staleTimeout time.Duration, logger *zap.Logger) *JobHandler {
	if staleTimeout <= 0 {
		staleTimeout = time.Hour
	}
	return &JobHandler{repos: repos, staleTimeout: staleTimeout, logger: logger}
}

func (h *JobHandler) List(c echo.Context) error {
	if c.QueryParam("stale") == "1" {
		jobs, err := h.repos.Job.ListStaleProcessing(time.Now().Add(-h.staleTimeout))
		if err != nil {
			h.logger.Error("failed to list stale jobs", zap.Error(err))
			return errorJSON(c, http.StatusInternalServerError, "store_error", err.Error())
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"jobs": jobs})
	}

	status := models.JobStatus(c.QueryParam("status"))
	if status != "" && !validStatusFilter(status) {
		return errorJSON(c, http.StatusBadRequest, "validation_error", "unknown status filter")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	page, _ := strconv.Atoi(c.QueryParam("page"))

	jobs, total, err := h.repos.Job.List(status, limit, page)
	if err != nil {
		h.logger.Error("failed to list jobs", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "store_error", err.Error())
	}
	if page <= 0 {
		page = 1
	}
	return c.JSON(http.StatusOK, paginatedResponse("jobs", jobs, total, page, limit))
}

func validStatusFilter(s models.JobStatus) bool {
	switch s {
	case models.JobPending, models.JobProcessing, models.JobCompleted, models.JobFailed:
		return true
	}
	return false
}

package api

import (
	"github.com/labstack/echo/v4"

	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/models"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/repository"
)

// Repos bundles the repositories the API handlers need.
type Repos struct {
	Project *repository.ProjectRepository
	Job     *repository.ScrapeJobRepository
	Report  *repository.ScamReportRepository
}

func errorJSON(c echo.Context, status int, code, message string) error {
	return c.JSON(status, models.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func paginatedResponse(key string, data interface{}, total int64, page, limit int) map[string]interface{} {
	if limit <= 0 {
		limit = 50
	}
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	if pages == 0 {
		pages = 1
	}
	return map[string]interface{}{
		key: data,
		"pagination": map[string]interface{}{
			"total_records": total,
			"total_pages":   pages,
			"current_page":  page,
			"per_page":      limit,
		},
	}
}

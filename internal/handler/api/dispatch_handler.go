package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/scraper"
)

// DispatchHandler exposes the scrape dispatch trigger. The endpoint takes no
// body: it operates over every eligible project known to the store and
// returns a per-project outcome list so callers can retry only the failed
// subset.
type DispatchHandler struct {
	dispatcher *scraper.Dispatcher
	logger     *zap.Logger
}

func NewDispatchHandler(dispatcher *scraper.Dispatcher, logger *zap.Logger) *DispatchHandler {
	return &DispatchHandler{dispatcher: dispatcher, logger: logger}
}

func (h *DispatchHandler) Handle(c echo.Context) error {
	outcomes, err := h.dispatcher.Run(c.Request().Context())
	if err != nil {
		if errors.Is(err, scraper.ErrNotConfigured) {
			return errorJSON(c, http.StatusServiceUnavailable, "scraper_not_configured",
				"scraping actor endpoint or token is not configured")
		}
		h.logger.Error("dispatch batch failed", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "dispatch_failed", err.Error())
	}
	return c.JSON(http.StatusOK, outcomes)
}

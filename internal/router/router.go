package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/alert"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/config"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/handler"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/handler/api"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/middleware"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/repository"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/scraper"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/validation"
)

// Setup configures all routes for the Echo server.
func Setup(
	e *echo.Echo,
	db *gorm.DB,
	cfg *config.Config,
	dispatcher *scraper.Dispatcher,
	alerter *alert.Alerter,
	limiter middleware.ReporterLimiter,
	logger *zap.Logger,
) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.CORS())
	e.Validator = validation.New()

	// Repositories
	repos := &api.Repos{
		Project: repository.NewProjectRepository(db),
		Job:     repository.NewScrapeJobRepository(db),
		Report:  repository.NewScamReportRepository(db),
	}

	// Handlers
	dispatchHandler := api.NewDispatchHandler(dispatcher, logger)
	jobHandler := api.NewJobHandler(repos, cfg.Scraper.StaleTimeout, logger)
	reportHandler := api.NewReportHandler(repos, limiter, alerter, logger)

	callbackHandler := handler.NewScrapeCallbackHandler(&handler.CallbackRepos{
		Project: repos.Project,
		Job:     repos.Job,
	}, cfg.Scraper.CallbackSecret, logger)

	apiGroup := e.Group("/api")

	// Operator surface, bearer-credential protected.
	scrapeGroup := apiGroup.Group("/scrape")
	scrapeGroup.POST("/dispatch", dispatchHandler.Handle, middleware.BearerAuth(cfg.Scraper.DispatchAPIKey))
	apiGroup.GET("/jobs", jobHandler.List, middleware.BearerAuth(cfg.Scraper.DispatchAPIKey))

	// Actor callback, shared-secret checked in the handler.
	scrapeGroup.POST("/callback", callbackHandler.Handle)

	// End-user surface.
	apiGroup.POST("/reports", reportHandler.Handle)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
}

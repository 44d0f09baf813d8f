package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/alert"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/bootstrap"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/config"
	cronpkg "github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/cron"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/middleware"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/repository"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/router"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/scraper"
)

func main() {
	// --- Logger ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if hasArg("--bootstrap-db") {
		if err := runDBBootstrap(logger); err != nil {
			logger.Fatal("Database bootstrap failed", zap.Error(err))
		}
		logger.Info("Database bootstrap completed")
		return
	}

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// --- Database ---
	db, err := config.NewDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := bootstrap.Migrate(db); err != nil {
		logger.Fatal("Failed to bootstrap database schema", zap.Error(err))
	}

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true

	// --- Reporter rate limiter (Redis with in-memory fallback) ---
	limiter, limiterErr := middleware.NewReporterLimiter(
		cfg.Redis.Addr,
		cfg.Redis.Pass,
		cfg.Redis.DB,
		cfg.Reports.RateLimitMax,
		cfg.Reports.RateLimitWindow,
	)
	if limiterErr != nil {
		logger.Warn("Redis unavailable for rate limiting, using in-memory fallback", zap.Error(limiterErr))
	}

	// --- Repositories ---
	projectRepo := repository.NewProjectRepository(db)
	jobRepo := repository.NewScrapeJobRepository(db)
	reportRepo := repository.NewScamReportRepository(db)

	// --- Alerting ---
	sinks := alert.SinksFromConfig(cfg.Alerts, logger)
	if len(sinks) == 0 {
		logger.Warn("No alert sinks configured, threshold crossings will only be logged")
	}
	alerter := alert.New(cfg.Reports.Threshold, sinks, projectRepo, reportRepo, logger)

	// --- Scraper dispatch ---
	scraperClient := scraper.NewClient(cfg.Scraper)
	if !scraperClient.Configured() {
		logger.Warn("Scraper endpoint not configured, dispatch endpoint will refuse")
	}
	dispatcher := scraper.NewDispatcher(cfg.Scraper, scraperClient, projectRepo, jobRepo, logger)

	// --- Routes ---
	router.Setup(e, db, cfg, dispatcher, alerter, limiter, logger)

	// --- Cron Scheduler ---
	scheduler := cronpkg.New(cfg, dispatcher, jobRepo, logger)
	scheduler.Start()

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	// Stop cron
	ctx := scheduler.Stop()
	<-ctx.Done()

	// Stop HTTP server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func hasArg(name string) bool {
	for _, arg := range os.Args[1:] {
		if arg == name {
			return true
		}
	}
	return false
}

func runDBBootstrap(logger *zap.Logger) error {
	dbCfg, err := config.LoadDatabaseOnly()
	if err != nil {
		return err
	}
	db, err := config.NewDatabase(dbCfg)
	if err != nil {
		return err
	}
	if err := bootstrap.Migrate(db); err != nil {
		return err
	}
	logger.Info("Schema migrated")
	return nil
}

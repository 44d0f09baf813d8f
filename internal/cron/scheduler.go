package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/config"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/repository"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/scraper"
)

// Scheduler runs the periodic enrichment sweep and the optional stale-job
// sweep.
type Scheduler struct {
	cron       *cron.Cron
	cfg        *config.Config
	dispatcher *scraper.Dispatcher
	jobs       *repository.ScrapeJobRepository
	logger     *zap.Logger
}

// New creates a new cron scheduler.
func New(cfg *config.Config, dispatcher *scraper.Dispatcher, jobs *repository.ScrapeJobRepository, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		cfg:        cfg,
		dispatcher: dispatcher,
		jobs:       jobs,
		logger:     logger,
	}
}

// Start registers and starts the scheduled jobs. Both are opt-in: no
// DISPATCH_CRON means dispatch is trigger-only, no STALE_JOB_TIMEOUT means
// stuck processing jobs are only reported, never expired.
func (s *Scheduler) Start() {
	registered := false

	if spec := s.cfg.Scraper.DispatchCron; spec != "" {
		if _, err := s.cron.AddFunc(spec, s.runDispatch); err != nil {
			s.logger.Error("invalid DISPATCH_CRON expression", zap.String("spec", spec), zap.Error(err))
		} else {
			s.logger.Info("scheduled dispatch enabled", zap.String("spec", spec))
			registered = true
		}
	}

	if s.cfg.Scraper.StaleTimeout > 0 {
		// Every 5 minutes
		if _, err := s.cron.AddFunc("0 */5 * * * *", s.sweepStaleJobs); err != nil {
			s.logger.Error("failed to register stale sweep", zap.Error(err))
		} else {
			s.logger.Info("stale job sweep enabled",
				zap.Duration("timeout", s.cfg.Scraper.StaleTimeout))
			registered = true
		}
	}

	if registered {
		s.cron.Start()
	}
}

// Stop stops the scheduler and returns a context that is done once running
// jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runDispatch() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if _, err := s.dispatcher.Run(ctx); err != nil {
		s.logger.Error("scheduled dispatch failed", zap.Error(err))
	}
}

// sweepStaleJobs is the explicit operator sweep over processing jobs whose
// callback never arrived. It is separate from the callback contract: the
// receiver itself never expires anything.
func (s *Scheduler) sweepStaleJobs() {
	cutoff := time.Now().Add(-s.cfg.Scraper.StaleTimeout)
	n, err := s.jobs.FailStale(cutoff, "callback timeout")
	if err != nil {
		s.logger.Error("stale job sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Warn("expired stale scrape jobs", zap.Int64("count", n))
	}
}

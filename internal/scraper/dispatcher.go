package scraper

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/config"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/models"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/repository"
)

// Dispatcher enqueues a scrape job per eligible project and starts an actor
// run for each. Projects are independent: one failure never aborts the
// batch, and the caller gets a per-project outcome list to retry from.
type Dispatcher struct {
	client      *Client
	projects    *repository.ProjectRepository
	jobs        *repository.ScrapeJobRepository
	callbackURL string
	maxInFlight int
	timeout     time.Duration
	logger      *zap.Logger
}

func NewDispatcher(
	cfg config.ScraperConfig,
	client *Client,
	projects *repository.ProjectRepository,
	jobs *repository.ScrapeJobRepository,
	logger *zap.Logger,
) *Dispatcher {
	maxInFlight := cfg.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 4
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		client:      client,
		projects:    projects,
		jobs:        jobs,
		callbackURL: strings.TrimRight(cfg.CallbackBaseURL, "/") + "/api/scrape/callback",
		maxInFlight: maxInFlight,
		timeout:     timeout,
		logger:      logger,
	}
}

// Run dispatches over all eligible projects. The in-flight actor calls are
// capped so a large batch cannot overwhelm the actor endpoint.
func (d *Dispatcher) Run(ctx context.Context) ([]models.DispatchOutcome, error) {
	if !d.client.Configured() {
		return nil, ErrNotConfigured
	}

	projects, err := d.projects.ListEligible()
	if err != nil {
		return nil, err
	}

	batchID := uuid.NewString()
	d.logger.Info("dispatching scrape batch",
		zap.String("batch_id", batchID),
		zap.Int("projects", len(projects)))

	outcomes := make([]models.DispatchOutcome, len(projects))
	sem := make(chan struct{}, d.maxInFlight)
	var wg sync.WaitGroup
	for i := range projects {
		wg.Add(1)
		go func(i int, project models.Project) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = d.dispatchOne(ctx, &project)
		}(i, projects[i])
	}
	wg.Wait()

	d.logger.Info("scrape batch done",
		zap.String("batch_id", batchID),
		zap.Int("triggered", countStatus(outcomes, models.DispatchTriggered)),
		zap.Int("already_queued", countStatus(outcomes, models.DispatchAlreadyQueued)),
		zap.Int("errors", countStatus(outcomes, models.DispatchError)))

	return outcomes, nil
}

func (d *Dispatcher) dispatchOne(ctx context.Context, project *models.Project) models.DispatchOutcome {
	outcome := models.DispatchOutcome{ProjectID: project.ID}

	job, err := d.jobs.CreateActive(project.ID, 0)
	if errors.Is(err, repository.ErrJobAlreadyQueued) {
		outcome.Status = models.DispatchAlreadyQueued
		return outcome
	}
	if err != nil {
		outcome.Status = models.DispatchError
		outcome.Error = err.Error()
		return outcome
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	runID, err := d.client.Trigger(callCtx, project, d.callbackURL)
	if err != nil {
		// The job stays pending: the durable trace that this project still
		// needs a run, visible to the operator job listing.
		d.logger.Warn("actor invocation failed",
			zap.Uint("project_id", project.ID),
			zap.Error(err))
		outcome.Status = models.DispatchError
		outcome.Error = err.Error()
		return outcome
	}

	if err := d.jobs.MarkProcessing(job.ID, runID); err != nil {
		d.logger.Error("failed to confirm invocation",
			zap.Uint("project_id", project.ID),
			zap.Uint("job_id", job.ID),
			zap.Error(err))
		outcome.Status = models.DispatchError
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Status = models.DispatchTriggered
	outcome.RunID = runID
	return outcome
}

func countStatus(outcomes []models.DispatchOutcome, status string) int {
	n := 0
	for _, o := range outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

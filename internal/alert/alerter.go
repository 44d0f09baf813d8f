package alert

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/config"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/models"
	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/repository"
)

const recentReasonSample = 3

// Alerter fires the notification fan-out when a project's scam-report count
// reaches the threshold. The crossing is claimed with a conditional write on
// the project row, so the fan-out runs once per crossing even when reports
// land concurrently.
type Alerter struct {
	threshold int
	sinks     []Sink
	projects  *repository.ProjectRepository
	reports   *repository.ScamReportRepository
	logger    *zap.Logger
}

func New(
	threshold int,
	sinks []Sink,
	projects *repository.ProjectRepository,
	reports *repository.ScamReportRepository,
	logger *zap.Logger,
) *Alerter {
	return &Alerter{
		threshold: threshold,
		sinks:     sinks,
		projects:  projects,
		reports:   reports,
		logger:    logger,
	}
}

// Evaluate checks the count against the threshold and, on the crossing,
// fans out to every configured sink. Returns whether this call triggered
// the alert.
func (a *Alerter) Evaluate(ctx context.Context, project *models.Project, total int64) bool {
	if a.threshold <= 0 || total < int64(a.threshold) {
		return false
	}

	claimed, err := a.projects.ClaimScamAlert(project.ID, time.Now())
	if err != nil {
		a.logger.Error("failed to claim scam alert",
			zap.Uint("project_id", project.ID),
			zap.Error(err))
		return false
	}
	if !claimed {
		// Already alerted for this project; reports above the threshold do
		// not re-fire.
		return false
	}

	reasons, err := a.reports.RecentReasons(project.ID, recentReasonSample)
	if err != nil {
		a.logger.Warn("failed to load recent reasons",
			zap.Uint("project_id", project.ID),
			zap.Error(err))
	}

	alert := Alert{
		ProjectID:     project.ID,
		ProjectName:   project.Name,
		Slug:          project.Slug,
		TotalReports:  total,
		Threshold:     a.threshold,
		RecentReasons: reasons,
	}

	a.fanOut(ctx, alert)
	return true
}

// fanOut delivers to every sink independently: one sink failing or hanging
// never blocks the others, and failures are logged per sink.
func (a *Alerter) fanOut(ctx context.Context, alert Alert) {
	var wg sync.WaitGroup
	for _, sink := range a.sinks {
		wg.Add(1)
		go func(sink Sink) {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			defer cancel()
			if err := sink.Send(sendCtx, alert); err != nil {
				a.logger.Error("alert delivery failed",
					zap.String("sink", sink.Name()),
					zap.Uint("project_id", alert.ProjectID),
					zap.Error(err))
				return
			}
			a.logger.Info("alert delivered",
				zap.String("sink", sink.Name()),
				zap.Uint("project_id", alert.ProjectID),
				zap.Int64("total_reports", alert.TotalReports))
		}(sink)
	}
	wg.Wait()
}

// SinksFromConfig builds the configured sinks. A sink that fails to
// initialize is skipped with a warning rather than taking the service down.
func SinksFromConfig(cfg config.AlertsConfig, logger *zap.Logger) []Sink {
	var sinks []Sink
	for _, url := range cfg.DiscordWebhookURLs {
		sinks = append(sinks, NewDiscordSink(url))
	}
	if cfg.SlackWebhookURL != "" {
		sinks = append(sinks, NewSlackSink(cfg.SlackWebhookURL))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		tg, err := NewTelegramSink(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			logger.Warn("telegram sink disabled", zap.Error(err))
		} else {
			sinks = append(sinks, tg)
		}
	}
	return sinks
}

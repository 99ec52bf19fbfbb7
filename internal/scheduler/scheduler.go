package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/logidash/internal/config"
	"github.com/mamadbah2/logidash/internal/domain/models"
)

const reportTimeout = 2 * time.Minute

// ReportGenerator produces the daily operations report.
type ReportGenerator interface {
	GenerateDailyReport(ctx context.Context, at time.Time) (models.OperationsReport, error)
}

// Scheduler runs the daily report on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	reporting ReportGenerator
	schedule  string
	location  *time.Location
	logger    *zap.Logger
}

// NewScheduler builds a scheduler evaluating cfg.CronSchedule in cfg.Timezone.
func NewScheduler(cfg config.ReportingConfig, reporting ReportGenerator, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	// Standard 5-field cron expressions (min, hour, dom, month, dow).
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:      c,
		reporting: reporting,
		schedule:  cfg.CronSchedule,
		location:  loc,
		logger:    logger.Named("scheduler"),
	}, nil
}

// Start registers the report job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runDailyReport); err != nil {
		return fmt.Errorf("schedule daily report %q: %w", s.schedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule), zap.String("timezone", s.location.String()))
	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDailyReport() {
	s.logger.Info("generating daily report")
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	if _, err := s.reporting.GenerateDailyReport(ctx, time.Now().In(s.location)); err != nil {
		s.logger.Error("failed to generate daily report", zap.Error(err))
		return
	}
	s.logger.Info("daily report completed")
}

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/amuvet/internal/config"
	"github.com/mamadbah2/amuvet/internal/service/reporting"
	"github.com/mamadbah2/amuvet/internal/service/treatments"
	"github.com/mamadbah2/amuvet/internal/session"
)

// Scheduler manages the periodic jobs: treatment inbox polling and the
// weekly AMU report export.
type Scheduler struct {
	cron         *cron.Cron
	store        *treatments.Store
	reportingSvc *reporting.Service
	sessions     *session.Manager
	cfg          config.PollingConfig
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.PollingConfig, store *treatments.Store, reportingSvc *reporting.Service, sessions *session.Manager, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, falling back to local", zap.String("timezone", cfg.Timezone))
		location = time.Local
	}

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(location)),
		store:        store,
		reportingSvc: reportingSvc,
		sessions:     sessions,
		cfg:          cfg,
		logger:       logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler",
		zap.Duration("refresh_interval", s.cfg.RefreshInterval),
		zap.String("report_cron", s.cfg.ReportCron))

	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.cfg.RefreshInterval), s.refreshInbox); err != nil {
		s.logger.Error("failed to schedule inbox refresh", zap.Error(err))
	}

	if _, err := s.cron.AddFunc(s.cfg.ReportCron, s.exportWeeklyReport); err != nil {
		s.logger.Error("failed to schedule weekly report", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

// refreshInbox keeps the pending/history partitions current while a session
// is active. Overlap with explicit refreshes is resolved inside the store.
func (s *Scheduler) refreshInbox() {
	if _, err := s.sessions.Current(); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.store.Refresh(ctx); err != nil {
		s.logger.Warn("scheduled inbox refresh failed", zap.Error(err))
	}
}

func (s *Scheduler) exportWeeklyReport() {
	s.logger.Info("generating weekly AMU report")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	summary, err := s.reportingSvc.GenerateWeeklyAMUReport(ctx, time.Now())
	if err != nil {
		s.logger.Error("failed to generate weekly AMU report", zap.Error(err))
		return
	}

	s.logger.Info("weekly AMU report generated", zap.String("summary", summary))
}

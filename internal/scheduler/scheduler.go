package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/barberia/internal/config"
	"github.com/mamadbah2/barberia/internal/domain/models"
	"github.com/mamadbah2/barberia/internal/service/reporting"
)

// Notifier pushes a message to an operator.
type Notifier interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron         *cron.Cron
	reportingSvc *reporting.Service
	notifier     Notifier
	cfg          config.DigestConfig
	now          func() time.Time
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler instance. Jobs run in the shop timezone.
func NewScheduler(cfg config.DigestConfig, loc *time.Location, reportingSvc *reporting.Service, notifier Notifier, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(loc)),
		reportingSvc: reportingSvc,
		notifier:     notifier,
		cfg:          cfg,
		now:          time.Now,
		logger:       logger,
	}
}

// Start registers the daily digest and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.sendDailyDigest); err != nil {
		return fmt.Errorf("schedule daily digest %q: %w", s.cfg.CronSchedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("digest_schedule", s.cfg.CronSchedule))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendDailyDigest() {
	s.logger.Info("generating daily digest")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	digest, err := s.reportingSvc.GenerateDailyDigest(ctx, s.now())
	if err != nil {
		s.logger.Error("failed to generate daily digest", zap.Error(err))
		return
	}

	req := models.OutboundMessageRequest{
		To:      s.cfg.OwnerPhone,
		Message: digest,
	}

	if err := s.notifier.SendOutbound(ctx, req); err != nil {
		s.logger.Error("failed to send daily digest", zap.Error(err))
	} else {
		s.logger.Info("daily digest sent successfully")
	}
}

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/service/reporting"
)

const jobTimeout = 2 * time.Minute

// LoanRefresher persists the late statut of overdue loans.
type LoanRefresher interface {
	RefreshLate(ctx context.Context) (int64, error)
}

// Reporter supplies the figures of the digest.
type Reporter interface {
	KPIs(ctx context.Context) reporting.KPIs
	Alerts(ctx context.Context) reporting.Alerts
}

// DigestSender delivers the daily digest.
type DigestSender interface {
	Enabled() bool
	SendDigest(ctx context.Context, k reporting.KPIs, a reporting.Alerts, at time.Time) error
}

// RowAppender stores one KPI snapshot row.
type RowAppender interface {
	AppendRow(ctx context.Context, values []any) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	loans    LoanRefresher
	reports  Reporter
	digest   DigestSender
	sheet    RowAppender
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler creates a scheduler running the daily job on schedule (five
// field cron expression, evaluated in loc). digest and sheet may be nil.
func NewScheduler(schedule string, loc *time.Location, loans LoanRefresher, reports Reporter, digest DigestSender, sheet RowAppender, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		schedule: schedule,
		loans:    loans,
		reports:  reports,
		digest:   digest,
		sheet:    sheet,
		logger:   logger,
		now:      func() time.Time { return time.Now().In(loc) },
	}
}

// Start registers the daily job and starts the scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runDaily); err != nil {
		return fmt.Errorf("schedule daily job %q: %w", s.schedule, err)
	}
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDaily() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	s.RunDaily(ctx)
}

// RunDaily refreshes late loans, then sends the digest and the snapshot row.
// Each step runs even when a previous one failed.
func (s *Scheduler) RunDaily(ctx context.Context) {
	s.logger.Info("running daily job")
	now := s.now()

	if n, err := s.loans.RefreshLate(ctx); err != nil {
		s.logger.Error("failed to refresh late loans", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("loans marked late", zap.Int64("count", n))
	}

	kpis := s.reports.KPIs(ctx)

	if s.digest != nil && s.digest.Enabled() {
		alerts := s.reports.Alerts(ctx)
		if err := s.digest.SendDigest(ctx, kpis, alerts, now); err != nil {
			s.logger.Error("failed to send daily digest", zap.Error(err))
		} else {
			s.logger.Info("daily digest sent", zap.Int("alerts", alerts.Count()))
		}
	}

	if s.sheet != nil {
		if err := s.sheet.AppendRow(ctx, reporting.SnapshotRow(kpis, now)); err != nil {
			s.logger.Error("failed to export kpi snapshot", zap.Error(err))
		}
	}
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/garyjia/meal-voucher/internal/domain/entity"
	"github.com/garyjia/meal-voucher/pkg/utils"
)

// ReportJob produces and delivers the report for one calendar date (YYYY-MM-DD)
type ReportJob func(ctx context.Context, reportDate string) error

// ReportSchedulerConfig holds the daily fire time
type ReportSchedulerConfig struct {
	Hour     int
	Minute   int
	Location *time.Location
	// Timeout bounds one run, mail delivery included
	Timeout  time.Duration
	Disabled bool
}

// SchedulerStatus is a snapshot of the scheduler state
type SchedulerStatus struct {
	Enabled   bool      `json:"enabled"`
	Running   bool      `json:"running"`
	Schedule  string    `json:"schedule"`
	NextRun   time.Time `json:"next_run,omitempty"`
	LastRun   time.Time `json:"last_run,omitempty"`
	RunCount  int       `json:"run_count"`
	FailCount int       `json:"fail_count"`
	LastError string    `json:"last_error,omitempty"`
}

// ReportScheduler fires the daily report job once a day at a fixed local time.
// Failures are logged and dropped; the next day's run is unaffected.
type ReportScheduler struct {
	config ReportSchedulerConfig
	job    ReportJob
	logger *zap.Logger

	mu        sync.Mutex
	cron      *cron.Cron
	entryID   cron.EntryID
	ctx       context.Context
	isRunning bool
	lastRun   time.Time
	runCount  int
	failCount int
	lastError error
}

// NewReportScheduler creates a scheduler; the schedule cannot change after creation
func NewReportScheduler(config ReportSchedulerConfig, job ReportJob, logger *zap.Logger) *ReportScheduler {
	if config.Location == nil {
		config.Location = time.Local
	}
	return &ReportScheduler{
		config: config,
		job:    job,
		logger: logger,
	}
}

func (s *ReportScheduler) Name() string { return "report-scheduler" }

// Spec returns the cron expression for the daily fire time
func (s *ReportScheduler) Spec() string {
	return fmt.Sprintf("%d %d * * *", s.config.Minute, s.config.Hour)
}

// Start registers the daily job. It is a no-op when the scheduler is disabled.
func (s *ReportScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.Disabled {
		s.logger.Info("Report scheduler disabled")
		return nil
	}
	if s.isRunning {
		return fmt.Errorf("report scheduler already running")
	}

	cronLog := newCronLogger(s.logger)
	c := cron.New(
		cron.WithLocation(s.config.Location),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	id, err := c.AddFunc(s.Spec(), func() { s.run() })
	if err != nil {
		return fmt.Errorf("failed to schedule report job: %w", err)
	}

	s.cron = c
	s.entryID = id
	s.ctx = ctx
	s.isRunning = true
	c.Start()

	s.logger.Info("Report scheduler started",
		zap.String("schedule", s.Spec()),
		zap.String("timezone", s.config.Location.String()),
		zap.Time("next_run", c.Entry(id).Next))
	return nil
}

// Stop halts the scheduler and waits for a running job to return
func (s *ReportScheduler) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	c := s.cron
	s.mu.Unlock()

	<-c.Stop().Done()
	return nil
}

// RunNow runs the job for today's date immediately and returns its error
func (s *ReportScheduler) RunNow(ctx context.Context) error {
	return s.execute(ctx)
}

// Status returns a snapshot of the scheduler state
func (s *ReportScheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := SchedulerStatus{
		Enabled:   !s.config.Disabled,
		Running:   s.isRunning,
		Schedule:  s.Spec(),
		LastRun:   s.lastRun,
		RunCount:  s.runCount,
		FailCount: s.failCount,
	}
	if s.isRunning {
		st.NextRun = s.cron.Entry(s.entryID).Next
	}
	if s.lastError != nil {
		st.LastError = s.lastError.Error()
	}
	return st
}

func (s *ReportScheduler) run() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	_ = s.execute(ctx)
}

func (s *ReportScheduler) execute(ctx context.Context) error {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	now := time.Now().In(s.config.Location)
	reportDate := utils.CalendarDate(now)

	s.logger.Info("Running daily report job", zap.String("report_date", reportDate))
	err := s.job(ctx, reportDate)

	s.mu.Lock()
	s.lastRun = now
	s.runCount++
	s.lastError = nil
	if err != nil && !errors.Is(err, entity.ErrNoData) {
		s.lastError = err
		s.failCount++
	}
	s.mu.Unlock()

	switch {
	case err == nil:
		s.logger.Info("Daily report job finished", zap.String("report_date", reportDate))
	case errors.Is(err, entity.ErrNoData):
		s.logger.Info("No vouchers today, report skipped", zap.String("report_date", reportDate))
	default:
		s.logger.Error("Daily report job failed", zap.String("report_date", reportDate), zap.Error(err))
	}
	return err
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func newCronLogger(logger *zap.Logger) cron.Logger {
	return &cronLogger{sugar: logger.Named("cron").Sugar()}
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}

var _ Worker = (*ReportScheduler)(nil)

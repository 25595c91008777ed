package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"legalizador/internal/config"
	"legalizador/internal/models"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	SummaryJob = "pending-summary-refresh"
	ExpiryJob  = "overdue-expiry"

	jobTimeout = 2 * time.Minute
)

// InvoiceMaintainer is the part of the invoice service the jobs drive.
type InvoiceMaintainer interface {
	RefreshSummary(ctx context.Context) (*models.Summary, error)
	ExpireOverdue(ctx context.Context, afterDays int) (int64, error)
}

// Scheduler runs the background maintenance jobs. Each job runs in
// singleton mode so a slow run is never overlapped by the next tick.
type Scheduler struct {
	scheduler gocron.Scheduler
	invoices  InvoiceMaintainer
	cfg       config.JobsConfig
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.RWMutex
	jobs map[string]gocron.Job
}

// NewScheduler creates the scheduler and registers the configured jobs.
func NewScheduler(invoices InvoiceMaintainer, cfg config.JobsConfig, logger *zap.Logger) (*Scheduler, error) {
	logger = logger.Named("jobs")
	s, err := gocron.NewScheduler(
		gocron.WithLogger(gocronLogger{logger.Sugar()}),
		gocron.WithGlobalJobOptions(
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithError(func(jobID uuid.UUID, jobName string, err error) {
					logger.Error("Background job failed",
						zap.String("job", jobName),
						zap.String("job_id", jobID.String()),
						zap.Error(err))
				}),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	js := &Scheduler{
		scheduler: s,
		invoices:  invoices,
		cfg:       cfg,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		jobs:      make(map[string]gocron.Job),
	}

	if err := js.registerJobs(); err != nil {
		cancel()
		_ = s.Shutdown()
		return nil, err
	}
	return js, nil
}

func (js *Scheduler) registerJobs() error {
	interval := js.cfg.SummaryInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if err := js.add(SummaryJob, interval, js.refreshSummary); err != nil {
		return err
	}

	if js.cfg.ExpireOverdue {
		if err := js.add(ExpiryJob, 24*time.Hour, js.expireOverdue); err != nil {
			return err
		}
	}

	js.logger.Info("Registered background jobs", zap.Strings("jobs", js.JobNames()))
	return nil
}

func (js *Scheduler) add(name string, interval time.Duration, task func() error) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("register job %s: %w", name, err)
	}
	js.jobs[name] = job
	return nil
}

// Start starts the job scheduler
func (js *Scheduler) Start() {
	js.logger.Info("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop cancels running jobs and waits for them to return.
func (js *Scheduler) Stop() error {
	js.logger.Info("Stopping background job scheduler")
	js.cancel()
	return js.scheduler.Shutdown()
}

// JobNames lists the registered jobs.
func (js *Scheduler) JobNames() []string {
	js.mu.RLock()
	defer js.mu.RUnlock()

	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}
	return names
}

// RunNow triggers a registered job outside its schedule.
func (js *Scheduler) RunNow(name string) error {
	js.mu.RLock()
	job, ok := js.jobs[name]
	js.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job %s is not registered", name)
	}
	return job.RunNow()
}

func (js *Scheduler) refreshSummary() error {
	ctx, cancel := context.WithTimeout(js.ctx, jobTimeout)
	defer cancel()

	summary, err := js.invoices.RefreshSummary(ctx)
	if err != nil {
		return fmt.Errorf("refresh summary: %w", err)
	}
	js.logger.Debug("Refreshed pending summary",
		zap.Int("total", summary.Total),
		zap.Int("critical_pending", summary.CriticalPending))
	return nil
}

func (js *Scheduler) expireOverdue() error {
	ctx, cancel := context.WithTimeout(js.ctx, jobTimeout)
	defer cancel()

	n, err := js.invoices.ExpireOverdue(ctx, js.cfg.ExpireAfterDays)
	if err != nil {
		return fmt.Errorf("expire overdue invoices: %w", err)
	}
	if n > 0 {
		js.logger.Info("Expired overdue invoices",
			zap.Int64("count", n),
			zap.Int("after_days", js.cfg.ExpireAfterDays))
	}
	return nil
}

// gocronLogger routes scheduler logs through zap.
type gocronLogger struct {
	log *zap.SugaredLogger
}

func (l gocronLogger) Debug(msg string, args ...any) { l.log.Debugw(msg, args...) }
func (l gocronLogger) Info(msg string, args ...any)  { l.log.Infow(msg, args...) }
func (l gocronLogger) Warn(msg string, args ...any)  { l.log.Warnw(msg, args...) }
func (l gocronLogger) Error(msg string, args ...any) { l.log.Errorw(msg, args...) }

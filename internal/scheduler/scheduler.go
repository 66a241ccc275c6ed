// Package scheduler runs the status sweep and payment reminders on a cron schedule,
// so statuses advance even when nobody lists payments.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/payments-tracker/internal/models"
	"github.com/Dan9191/payments-tracker/internal/service"
)

// Lifecycle is the part of the service the scheduler drives
type Lifecycle interface {
	Today() models.Date
	SweepStatuses(ctx context.Context, today models.Date) (service.SweepResult, error)
	SendReminders(ctx context.Context, today models.Date) (int, error)
}

// Scheduler wraps a cron runner with a single daily job
type Scheduler struct {
	cron    *cron.Cron
	svc     Lifecycle
	log     *logrus.Logger
	timeout time.Duration
}

// New validates the schedule and registers the job; it does not start it
func New(schedule string, svc Lifecycle, log *logrus.Logger) (*Scheduler, error) {
	cronLog := cron.PrintfLogger(log)
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		svc:     svc,
		log:     log,
		timeout: 5 * time.Minute,
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("failed to parse schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.log.WithField("next_run", e.Next.Format(time.RFC3339)).Info("Scheduler started")
	}
}

// Stop stops scheduling and waits for a running job or ctx, whichever ends first
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("Scheduler stopped before the running job finished")
	}
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.RunOnce(ctx); err != nil {
		s.log.Errorf("Scheduled run failed: %v", err)
	}
}

// RunOnce sweeps statuses for today and then sends reminders
func (s *Scheduler) RunOnce(ctx context.Context) error {
	today := s.svc.Today()
	res, err := s.svc.SweepStatuses(ctx, today)
	if err != nil {
		return fmt.Errorf("failed to sweep statuses: %w", err)
	}
	sent, err := s.svc.SendReminders(ctx, today)
	if err != nil {
		return fmt.Errorf("failed to send reminders: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"date":      today.String(),
		"due_now":   res.DueNow,
		"overdue":   res.Overdue,
		"reminders": sent,
	}).Info("Scheduled run completed")
	return nil
}

// Package scheduler runs the periodic jobs of the worker process.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"pobrify/internal/core"
)

// Jobs are the actions the scheduler triggers.
type Jobs interface {
	NotifyDailyPlan(ctx context.Context) error
	ExportWeek(ctx context.Context, weekKey core.Date, credited core.Money) error
}

// Specs are six-field cron expressions (seconds first).
type Specs struct {
	DailyPlan  string
	WeeklySync string
}

type Scheduler struct {
	cron *cron.Cron
	jobs Jobs
	ctx  context.Context
	now  func() time.Time
}

func New(ctx context.Context, jobs Jobs, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		jobs: jobs,
		ctx:  ctx,
		now:  func() time.Time { return time.Now().In(loc) },
	}
}

// Register adds the daily digest and the weekly export. An empty spec
// disables that job.
func (s *Scheduler) Register(specs Specs) error {
	if specs.DailyPlan != "" {
		if _, err := s.cron.AddFunc(specs.DailyPlan, s.dailyPlan); err != nil {
			return fmt.Errorf("register daily plan job: %w", err)
		}
	}
	if specs.WeeklySync != "" {
		if _, err := s.cron.AddFunc(specs.WeeklySync, s.weeklyExport); err != nil {
			return fmt.Errorf("register weekly export job: %w", err)
		}
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("Scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("Scheduler stopped")
}

func (s *Scheduler) dailyPlan() {
	slog.InfoContext(s.ctx, "Running daily plan job")
	if err := s.jobs.NotifyDailyPlan(s.ctx); err != nil {
		slog.ErrorContext(s.ctx, "Daily plan job failed", "error", err)
	}
}

// weeklyExport exports the week that ended before today.
func (s *Scheduler) weeklyExport() {
	week := PreviousWeek(core.DateOf(s.now()))
	slog.InfoContext(s.ctx, "Running weekly export job", "week", week)
	if err := s.jobs.ExportWeek(s.ctx, week, 0); err != nil {
		slog.ErrorContext(s.ctx, "Weekly export job failed", "week", week, "error", err)
	}
}

// PreviousWeek returns the Monday of the week before the one containing d.
func PreviousWeek(d core.Date) core.Date {
	return d.WeekStart().AddDays(-7)
}

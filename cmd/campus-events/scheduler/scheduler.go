package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/robfig/cron/v3"
)

const jobTimeout = 5 * time.Minute

type Dispatcher interface {
	DispatchDue(ctx context.Context) (int, error)
}

type Reminder interface {
	SendDueReminders(ctx context.Context) (int, error)
}

type Cleaner interface {
	Cleanup(ctx context.Context) (int64, error)
}

type Config struct {
	DispatchSchedule string
	ReminderSchedule string
	CleanupSchedule  string
}

type job struct {
	name     string
	schedule string
	run      func(ctx context.Context) (int64, error)
}

// Scheduler runs the outbox dispatcher, event reminders and the expired
// notification sweep on cron schedules. A job that is still running when
// its next tick arrives is skipped.
type Scheduler struct {
	cron   *cron.Cron
	jobs   map[string]job
	logger *log.Logger
}

func New(cfg Config, dispatcher Dispatcher, reminder Reminder, cleaner Cleaner, logger *log.Logger) (*Scheduler, error) {
	cronLogger := cron.PrintfLogger(logger)
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		jobs:   map[string]job{},
		logger: logger,
	}

	jobs := []job{
		{
			name:     "dispatch",
			schedule: cfg.DispatchSchedule,
			run: func(ctx context.Context) (int64, error) {
				n, err := dispatcher.DispatchDue(ctx)
				return int64(n), err
			},
		},
		{
			name:     "reminders",
			schedule: cfg.ReminderSchedule,
			run: func(ctx context.Context) (int64, error) {
				n, err := reminder.SendDueReminders(ctx)
				return int64(n), err
			},
		},
		{
			name:     "cleanup",
			schedule: cfg.CleanupSchedule,
			run:      cleaner.Cleanup,
		},
	}

	for _, j := range jobs {
		if j.schedule == "" {
			continue
		}
		if _, err := s.cron.AddFunc(j.schedule, s.wrap(j)); err != nil {
			return nil, fmt.Errorf("invalid %s schedule %q: %w", j.name, j.schedule, err)
		}
		s.jobs[j.name] = j
	}

	return s, nil
}

func (s *Scheduler) wrap(j job) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		s.execute(ctx, j)
	}
}

func (s *Scheduler) execute(ctx context.Context, j job) {
	start := time.Now()
	n, err := j.run(ctx)
	if err != nil {
		s.logger.Errorj(log.JSON{
			"message": "scheduled job failed",
			"job":     j.name,
			"error":   err.Error(),
		})
		return
	}
	if n > 0 {
		s.logger.Infoj(log.JSON{
			"message":  "scheduled job finished",
			"job":      j.name,
			"count":    n,
			"duration": time.Since(start).String(),
		})
	}
}

// Jobs returns the names of the scheduled jobs.
func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.jobs))
	for _, name := range []string{"dispatch", "reminders", "cleanup"} {
		if _, ok := s.jobs[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// RunNow runs a job once in the caller's goroutine.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	j, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	s.execute(ctx, j)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Infoj(log.JSON{
		"message": "scheduler started",
		"jobs":    s.Jobs(),
	})
}

// Stop stops scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

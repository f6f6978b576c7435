package schedule

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// RunFunc is the work a scheduler triggers. Errors are logged; a failed run
// never stops the schedule.
type RunFunc func(ctx context.Context) error

// Scheduler triggers pipeline runs on a 5-field cron expression
// (minute hour day-of-month month day-of-week).
type Scheduler struct {
	sched cron.Schedule
	spec  string
	run   RunFunc
}

// New parses the cron expression and builds a scheduler.
func New(spec string, run RunFunc) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return &Scheduler{sched: sched, spec: spec, run: run}, nil
}

// Next returns the first trigger time after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.sched.Next(t)
}

// Start blocks, running the pipeline at each trigger time until the context
// is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	log.Printf("Scheduled runs enabled (cron: %s)", s.spec)

	for {
		now := time.Now()
		next := s.sched.Next(now)
		log.Printf("Next run at %s (in %s)", next.Format("Mon Jan 2 15:04"), next.Sub(now).Round(time.Minute))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if err := s.run(ctx); err != nil {
			log.Printf("Scheduled run error: %v", err)
		}
	}
}

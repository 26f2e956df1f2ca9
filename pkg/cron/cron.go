// Package cron schedules the periodic jobs of the server.
package cron

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
)

// Scheduler runs jobs on cron schedules. A job that is still running when
// its next run is due is skipped, and a panicking job is logged and
// recovered.
type Scheduler struct {
	*cron.Cron
}

// logAdapter lets robfig/cron log through charmbracelet/log.
type logAdapter struct {
	logger *log.Logger
}

var _ cron.Logger = logAdapter{}

// Info logs routine messages about cron's operation at debug level.
func (l logAdapter) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

// Error logs an error condition.
func (l logAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "err", err)...)
}

// NewScheduler returns a stopped Scheduler logging to the logger of ctx.
func NewScheduler(ctx context.Context) *Scheduler {
	logger := logAdapter{log.FromContext(ctx).WithPrefix("cron")}
	return &Scheduler{
		Cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(
				cron.SkipIfStillRunning(logger),
				cron.Recover(logger),
			),
		),
	}
}

// Shutdown stops the Scheduler and waits up to 30 seconds for running jobs.
func (s *Scheduler) Shutdown() {
	ctx, cancel := context.WithTimeout(s.Cron.Stop(), 30*time.Second)
	defer cancel()
	<-ctx.Done()
}

// AddFunc schedules fn and returns its entry ID.
func (s *Scheduler) AddFunc(spec string, fn func()) (int, error) {
	id, err := s.Cron.AddFunc(spec, fn)
	return int(id), err
}

// Remove unschedules the entry id.
func (s *Scheduler) Remove(id int) {
	s.Cron.Remove(cron.EntryID(id))
}

// Next returns the next run time of the entry id, or the zero time when the
// scheduler is stopped or the entry is unknown.
func (s *Scheduler) Next(id int) time.Time {
	return s.Cron.Entry(cron.EntryID(id)).Next
}

// Package scheduler drives the simulation clocks. The district tick and the
// ticker tape run as independent jobs; the work each job does is a plain
// function that can be called directly in tests.
package scheduler

import (
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	zerrors "zonix/internal/errors"
	"zonix/internal/market"
	"zonix/internal/stream"
	"zonix/internal/tape"
)

// Default intervals.
const (
	DefaultTickInterval = time.Second
	DefaultTapeInterval = 2 * time.Second
)

// Job is one recurring unit of work.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func() error
}

// Scheduler wraps a gocron scheduler. Jobs run in singleton mode so a slow
// run is never overlapped by the next one.
type Scheduler struct {
	cron    gocron.Scheduler
	logger  zerolog.Logger
	started atomic.Bool
	stopped atomic.Bool
}

// New creates a scheduler with the given jobs registered but not started.
func New(logger zerolog.Logger, jobs ...Job) (*Scheduler, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, zerrors.Wrap(err, "create scheduler")
	}

	s := &Scheduler{
		cron:   cron,
		logger: logger.With().Str("component", "scheduler").Logger(),
	}
	for _, j := range jobs {
		if err := s.Add(j); err != nil {
			_ = cron.Shutdown()
			return nil, err
		}
	}
	return s, nil
}

// Add registers a job.
func (s *Scheduler) Add(j Job) error {
	if j.Interval <= 0 {
		return zerrors.NewValidationErrorFor(zerrors.ErrConfigInvalid, j.Name+".interval", j.Interval, "must be positive")
	}

	log := s.logger.With().Str("job", j.Name).Logger()
	_, err := s.cron.NewJob(
		gocron.DurationJob(j.Interval),
		gocron.NewTask(func() {
			if err := j.Run(); err != nil {
				log.Error().Err(err).Msg("Job failed")
			}
		}),
		gocron.WithName(j.Name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return zerrors.Wrapf(err, "schedule %s", j.Name)
	}
	log.Debug().Dur("interval", j.Interval).Msg("Job scheduled")
	return nil
}

// Start begins running jobs.
func (s *Scheduler) Start() {
	if s.started.Swap(true) {
		return
	}
	s.cron.Start()
	s.logger.Info().Int("jobs", len(s.cron.Jobs())).Msg("Scheduler started")
}

// Shutdown stops every job and waits for running ones to finish. No job runs
// after it returns.
func (s *Scheduler) Shutdown() error {
	if s.stopped.Swap(true) {
		return nil
	}
	if err := s.cron.Shutdown(); err != nil {
		return zerrors.Wrap(err, "shutdown scheduler")
	}
	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// EngineJob advances the engine once per interval.
func EngineJob(e *market.Engine, interval time.Duration) Job {
	return Job{
		Name:     "district-tick",
		Interval: interval,
		Run: func() error {
			_, err := e.Step()
			return err
		},
	}
}

// TapeJob updates the ticker tape and publishes it.
func TapeJob(t *tape.Tape, hub *stream.Hub, interval time.Duration) Job {
	return Job{
		Name:     "ticker-tape",
		Interval: interval,
		Run: func() error {
			ticks := t.Update()
			if hub != nil {
				hub.PublishBatch(ticks)
			}
			return nil
		},
	}
}

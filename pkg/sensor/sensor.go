// Package sensor implements scheduled value sources backed by an observable cell.
//
// A sensor is driven by repeated calls to Tick. On each call it checks whether
// its sampling interval has elapsed since the last sample and, if so, takes a
// new sample and publishes it to its subscribers. Tick never fails: sampling
// problems are logged and treated as "no sample this tick".
package sensor

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/telemetry-agent/pkg/observable"
)

// Sensor is the capability the application drives on every scheduling step.
type Sensor interface {
	Tick()
}

// Attachable is a sensor that hands out subscribers to its current value.
type Attachable[T any] interface {
	Sensor
	Attach() *observable.Subscriber[T]
	Path() string
}

// SampleFunc produces a new value for a TimedSensor.
type SampleFunc[T any] func() (T, error)

// Clock supplies the current time to a sensor schedule.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// ClockError reports that the clock moved backwards past the last sample.
type ClockError struct {
	Last time.Time
	Now  time.Time
}

func (e *ClockError) Error() string {
	return fmt.Sprintf("clock moved backwards: now %s is before last measurement %s",
		e.Now.Format(time.RFC3339Nano), e.Last.Format(time.RFC3339Nano))
}

// Option customizes a sensor.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clock Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: SystemClock()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// schedule tracks when a sensor last sampled.
type schedule struct {
	interval        time.Duration
	lastMeasurement time.Time
	clock           Clock
	logger          zerolog.Logger
}

func newSchedule(interval time.Duration, clock Clock, logger zerolog.Logger) schedule {
	return schedule{
		interval: interval,
		// Start one interval in the past so the first tick samples immediately.
		lastMeasurement: clock.Now().Add(-interval),
		clock:           clock,
		logger:          logger,
	}
}

// due reports whether a sample should be taken now. Elapsed time equal to the
// interval counts as due.
func (s *schedule) due() (time.Time, bool) {
	now := s.clock.Now()
	if now.Before(s.lastMeasurement) {
		err := &ClockError{Last: s.lastMeasurement, Now: now}
		s.logger.Error().Err(err).Msg("Skipping tick")
		return now, false
	}
	return now, now.Sub(s.lastMeasurement) >= s.interval
}

// sampled records a successful sample taken at now.
func (s *schedule) sampled(now time.Time) {
	s.lastMeasurement = now
}

package sensor

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/telemetry-agent/pkg/observable"
)

// TimedSensor samples a function every interval and publishes its result.
type TimedSensor[T any] struct {
	path     string
	sample   SampleFunc[T]
	cell     *observable.Cell[T]
	schedule schedule
	logger   zerolog.Logger
}

// NewTimedSensor calls sample once to seed the initial value. The first tick
// after construction samples again; later ticks wait a full interval.
func NewTimedSensor[T any](path string, sample SampleFunc[T], interval time.Duration, logger zerolog.Logger, opts ...Option) *TimedSensor[T] {
	o := buildOptions(opts)
	logger = logger.With().Str("sensor", path).Logger()

	t := &TimedSensor[T]{
		path:   path,
		sample: sample,
		logger: logger,
	}

	seed, err := t.safeSample()
	if err != nil {
		t.logger.Error().Err(err).Msg("Failed to take initial sample")
	}
	t.cell = observable.New(seed)
	t.schedule = newSchedule(interval, o.clock, logger)
	return t
}

// Tick samples and publishes if the interval has elapsed. A failed sample is
// logged and leaves the last measurement time unchanged.
func (t *TimedSensor[T]) Tick() {
	now, due := t.schedule.due()
	if !due {
		return
	}

	value, err := t.safeSample()
	if err != nil {
		t.logger.Error().Err(err).Msg("Sampling failed, no sample this tick")
		return
	}
	t.cell.Set(value)
	t.schedule.sampled(now)
}

// safeSample runs the sample function, turning a panic into an error.
func (t *TimedSensor[T]) safeSample() (value T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("sample function panicked: %v", rec)
		}
	}()
	return t.sample()
}

// Attach returns a new independent subscriber.
func (t *TimedSensor[T]) Attach() *observable.Subscriber[T] {
	return t.cell.Subscribe()
}

// Path returns the Signal K path of the sensor.
func (t *TimedSensor[T]) Path() string {
	return t.path
}

// Close makes all subscribers inert.
func (t *TimedSensor[T]) Close() {
	t.cell.Close()
}

package sensor

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/telemetry-agent/pkg/observable"
)

// ConstantSensor republishes the same value on every due tick. It is useful as
// a liveness signal for downstream consumers.
type ConstantSensor[T any] struct {
	path     string
	value    T
	cell     *observable.Cell[T]
	schedule schedule
}

// NewConstantSensor creates a sensor that publishes value every interval,
// starting with the first tick.
func NewConstantSensor[T any](path string, value T, interval time.Duration, logger zerolog.Logger, opts ...Option) *ConstantSensor[T] {
	o := buildOptions(opts)
	return &ConstantSensor[T]{
		path:     path,
		value:    value,
		cell:     observable.New(value),
		schedule: newSchedule(interval, o.clock, logger.With().Str("sensor", path).Logger()),
	}
}

// Tick republishes the fixed value if the interval has elapsed.
func (c *ConstantSensor[T]) Tick() {
	now, due := c.schedule.due()
	if !due {
		return
	}
	c.cell.Set(c.value)
	c.schedule.sampled(now)
}

// Attach returns a new independent subscriber.
func (c *ConstantSensor[T]) Attach() *observable.Subscriber[T] {
	return c.cell.Subscribe()
}

// Path returns the Signal K path of the sensor.
func (c *ConstantSensor[T]) Path() string {
	return c.path
}

// Close makes all subscribers inert.
func (c *ConstantSensor[T]) Close() {
	c.cell.Close()
}

package sensors

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/telemetry-agent/internal/constants"
	"github.com/benmeehan/telemetry-agent/internal/utils"
	"github.com/benmeehan/telemetry-agent/pkg/location"
	"github.com/benmeehan/telemetry-agent/pkg/sensor"
)

// Registry holds the sensors built from configuration, in registration
// order, together with one feed per sensor for the consumer.
type Registry struct {
	sensors []sensor.Sensor
	feeds   []sensor.Feed
	closers []func()
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Sensors returns the registered sensors in registration order.
func (r *Registry) Sensors() []sensor.Sensor {
	return r.sensors
}

// Feeds returns the consumer feeds in registration order.
func (r *Registry) Feeds() []sensor.Feed {
	return r.feeds
}

// Close releases every sensor and provider, making all feeds report Closed.
func (r *Registry) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

// Add registers a sensor and watches it through a new feed.
func Add[T any, S interface {
	sensor.Attachable[T]
	Close()
}](r *Registry, s S) {
	r.sensors = append(r.sensors, s)
	r.feeds = append(r.feeds, sensor.Watch[T](s))
	r.closers = append(r.closers, s.Close)
}

// AddCollector wraps c in a TimedSensor and registers it.
func AddCollector[T any](r *Registry, c Collector[T], path string, interval time.Duration, logger zerolog.Logger, opts ...sensor.Option) {
	s := sensor.NewTimedSensor[T](path, c.Sample, interval, logger, opts...)
	Add[T](r, s)
	logger.Info().Str("sensor", c.Name()).Str("path", path).Str("unit", c.Unit()).Dur("interval", interval).
		Msg(c.Description())
}

// Build creates the sensors enabled in cfg.
func Build(cfg *utils.Config, logger zerolog.Logger) (*Registry, error) {
	r := NewRegistry()
	sc := cfg.Sensors

	if sc.Heartbeat.Enabled {
		Add[string](r, sensor.NewConstantSensor(sc.Heartbeat.Path, sc.Heartbeat.Value, sc.Heartbeat.Interval, logger))
	}
	if sc.CPU.Enabled {
		AddCollector[float64](r, &CPUCollector{Logger: logger}, sc.CPU.Path, sc.CPU.Interval, logger)
	}
	if sc.Memory.Enabled {
		AddCollector[float64](r, &MemoryCollector{Logger: logger}, sc.Memory.Path, sc.Memory.Interval, logger)
	}
	if sc.Uptime.Enabled {
		AddCollector[float64](r, &UptimeCollector{}, sc.Uptime.Path, sc.Uptime.Interval, logger)
	}
	if sc.Disk.Enabled {
		AddCollector[float64](r, &DiskCollector{Logger: logger, Mount: sc.Disk.Mount}, sc.Disk.Path, sc.Disk.Interval, logger)
	}
	if sc.Network.Enabled {
		AddCollector[NetworkRate](r, &NetworkCollector{Logger: logger}, sc.Network.Path, sc.Network.Interval, logger)
	}
	if sc.Processes.Enabled {
		collector := &ProcessCollector{Logger: logger, Names: sc.Processes.Names}
		AddCollector[float64](r, collector, sc.Processes.Path, sc.Processes.Interval, logger)
	}
	if sc.Position.Enabled {
		provider, err := newProvider(cfg)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.closers = append(r.closers, func() {
			if err := provider.Close(); err != nil {
				logger.Warn().Err(err).Msg("Failed to close position provider")
			}
		})
		collector := &PositionCollector{Provider: provider, Timeout: sc.Position.Interval}
		AddCollector[location.Position](r, collector, sc.Position.Path, sc.Position.Interval, logger)
	}

	return r, nil
}

func newProvider(cfg *utils.Config) (location.Provider, error) {
	pc := cfg.Sensors.Position
	switch pc.Provider {
	case constants.ProviderSerial:
		return location.NewSerialProvider(pc.GPSDevicePort, pc.GPSDeviceBaudRate), nil
	case constants.ProviderGoogle:
		provider, err := location.NewGoogleProvider(pc.MapsAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create google position provider: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unknown position provider %q", pc.Provider)
	}
}

package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/benmeehan/telemetry-agent/internal/constants"
	"github.com/benmeehan/telemetry-agent/pkg/file"
)

// SensorConfig configures one periodically sampled sensor.
type SensorConfig struct {
	Enabled  bool          `yaml:"enabled"`  // Enable/disable the sensor
	Path     string        `yaml:"path"`     // Signal K path the value is published under
	Interval time.Duration `yaml:"interval"` // Minimum time between two samples
}

// Config represents the structure of the configuration file.
type Config struct {
	SignalK struct {
		ServerRoot       string        `yaml:"server_root"`        // host:port or URL of the Signal K server
		ClientID         string        `yaml:"client_id"`          // Device client ID, generated when empty
		Description      string        `yaml:"description"`        // Shown to the operator approving access
		ValidateToken    bool          `yaml:"validate_token"`     // Validate a persisted token before use
		PollInterval     time.Duration `yaml:"poll_interval"`      // Wait between access request polls
		RequestTimeout   time.Duration `yaml:"request_timeout"`    // Timeout of a single HTTP request
		MinServerVersion string        `yaml:"min_server_version"` // Lowest accepted v1 API version
		StreamEnabled    bool          `yaml:"stream_enabled"`     // Send readings over the delta stream
	} `yaml:"signalk"`

	Store struct {
		Dir        string `yaml:"dir"`          // Directory holding persisted blobs
		AESKeyFile string `yaml:"aes_key_file"` // Path to the AES key file, blobs are encrypted when set
	} `yaml:"store"`

	Scheduler struct {
		TickInterval time.Duration `yaml:"tick_interval"` // Period of the producer loop
	} `yaml:"scheduler"`

	Consumer struct {
		PollInterval time.Duration `yaml:"poll_interval"` // Period of the consumer loop
	} `yaml:"consumer"`

	Sensors struct {
		Heartbeat struct {
			SensorConfig `yaml:",inline"`
			Value        string `yaml:"value"` // Constant value republished every interval
		} `yaml:"heartbeat"`
		CPU    SensorConfig `yaml:"cpu"`
		Memory SensorConfig `yaml:"memory"`
		Uptime SensorConfig `yaml:"uptime"`
		Disk   struct {
			SensorConfig `yaml:",inline"`
			Mount        string `yaml:"mount"` // Filesystem mount point to monitor
		} `yaml:"disk"`
		Network   SensorConfig `yaml:"network"`
		Processes struct {
			SensorConfig `yaml:",inline"`
			Names        []string `yaml:"names"` // Process names to count, all processes when empty
		} `yaml:"processes"`
		Position struct {
			SensorConfig      `yaml:",inline"`
			Provider          string `yaml:"provider"`        // serial or google
			GPSDevicePort     string `yaml:"gps_device_port"` // UNIX Port where the GPS sensor is mounted
			GPSDeviceBaudRate int    `yaml:"gps_baud_rate"`   // The Baud rate for GPS sensor
			MapsAPIKey        string `yaml:"maps_api_key"`    // Google maps API Key
		} `yaml:"position"`
	} `yaml:"sensors"`

	MQTT struct {
		Enabled       bool   `yaml:"enabled"`        // Mirror readings to an MQTT broker
		Broker        string `yaml:"broker"`         // MQTT broker address
		ClientID      string `yaml:"client_id"`      // MQTT client ID
		Topic         string `yaml:"topic"`          // Topic prefix, the sensor path is appended
		QOS           int    `yaml:"qos"`            // MQTT QoS level for readings
		CACertificate string `yaml:"ca_certificate"` // Path to the CA certificate, plain TCP when empty
	} `yaml:"mqtt"`
}

// DefaultConfig returns a configuration with every optional setting filled in.
func DefaultConfig() *Config {
	c := &Config{}

	c.SignalK.Description = constants.DefaultDescription
	c.SignalK.PollInterval = constants.DefaultAuthPollInterval
	c.SignalK.RequestTimeout = constants.DefaultRequestTimeout
	c.SignalK.StreamEnabled = true

	c.Store.Dir = constants.DefaultStoreDir

	c.Scheduler.TickInterval = constants.DefaultTickInterval
	c.Consumer.PollInterval = constants.DefaultConsumerPollInterval

	c.Sensors.Heartbeat.Path = constants.PathHeartbeat
	c.Sensors.Heartbeat.Value = constants.StatusAlive
	c.Sensors.Heartbeat.Interval = 30 * time.Second
	c.Sensors.CPU.Path = constants.PathCPUUsage
	c.Sensors.CPU.Interval = 5 * time.Second
	c.Sensors.Memory.Path = constants.PathMemoryUsage
	c.Sensors.Memory.Interval = 5 * time.Second
	c.Sensors.Uptime.Path = constants.PathUptime
	c.Sensors.Uptime.Interval = time.Minute
	c.Sensors.Disk.Path = constants.PathDiskUsage
	c.Sensors.Disk.Interval = time.Minute
	c.Sensors.Disk.Mount = "/"
	c.Sensors.Network.Path = constants.PathNetworkRate
	c.Sensors.Network.Interval = 5 * time.Second
	c.Sensors.Processes.Path = constants.PathProcesses
	c.Sensors.Processes.Interval = 30 * time.Second
	c.Sensors.Position.Path = constants.PathPosition
	c.Sensors.Position.Interval = 10 * time.Second
	c.Sensors.Position.Provider = constants.ProviderSerial
	c.Sensors.Position.GPSDeviceBaudRate = 9600

	c.MQTT.ClientID = "telemetry-agent"
	c.MQTT.Topic = "telemetry"
	return c
}

// LoadConfig loads the YAML configuration from the specified file on top of
// DefaultConfig and validates the result.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	config := DefaultConfig()
	if err := fileClient.ReadYamlFile(filename, config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", filename, err)
	}
	return config, nil
}

// Validate checks settings that would otherwise fail at runtime.
func (c *Config) Validate() error {
	var errs []error

	if c.SignalK.ServerRoot == "" {
		errs = append(errs, errors.New("signalk.server_root is required"))
	}
	if c.SignalK.PollInterval <= 0 {
		errs = append(errs, errors.New("signalk.poll_interval must be positive"))
	}
	if c.Store.Dir == "" {
		errs = append(errs, errors.New("store.dir is required"))
	}
	if c.Scheduler.TickInterval <= 0 {
		errs = append(errs, errors.New("scheduler.tick_interval must be positive"))
	}
	if c.Consumer.PollInterval <= 0 {
		errs = append(errs, errors.New("consumer.poll_interval must be positive"))
	}

	sensors := map[string]SensorConfig{
		"heartbeat": c.Sensors.Heartbeat.SensorConfig,
		"cpu":       c.Sensors.CPU,
		"memory":    c.Sensors.Memory,
		"uptime":    c.Sensors.Uptime,
		"disk":      c.Sensors.Disk.SensorConfig,
		"network":   c.Sensors.Network,
		"processes": c.Sensors.Processes.SensorConfig,
		"position":  c.Sensors.Position.SensorConfig,
	}
	for name, s := range sensors {
		if !s.Enabled {
			continue
		}
		if s.Interval <= 0 {
			errs = append(errs, fmt.Errorf("sensors.%s.interval must be positive", name))
		}
		if s.Path == "" {
			errs = append(errs, fmt.Errorf("sensors.%s.path is required", name))
		}
	}

	if c.Sensors.Position.Enabled {
		switch c.Sensors.Position.Provider {
		case constants.ProviderSerial:
			if c.Sensors.Position.GPSDevicePort == "" {
				errs = append(errs, errors.New("sensors.position.gps_device_port is required for the serial provider"))
			}
		case constants.ProviderGoogle:
			if c.Sensors.Position.MapsAPIKey == "" {
				errs = append(errs, errors.New("sensors.position.maps_api_key is required for the google provider"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown sensors.position.provider %q", c.Sensors.Position.Provider))
		}
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			errs = append(errs, errors.New("mqtt.broker is required when mqtt is enabled"))
		}
		if c.MQTT.QOS < 0 || c.MQTT.QOS > 2 {
			errs = append(errs, fmt.Errorf("mqtt.qos %d is out of range", c.MQTT.QOS))
		}
	}

	return errors.Join(errs...)
}

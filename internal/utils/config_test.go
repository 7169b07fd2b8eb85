package utils_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/telemetry-agent/internal/constants"
	"github.com/benmeehan/telemetry-agent/internal/utils"
	"github.com/benmeehan/telemetry-agent/pkg/file"
)

const sampleConfig = `
signalk:
  server_root: "sk.local:3000"
  description: "Engine room sensors"
  validate_token: true
  min_server_version: "1.0.0"
store:
  dir: "/tmp/telemetry-agent"
sensors:
  cpu:
    enabled: true
    interval: 2s
  processes:
    enabled: true
    names: ["signalk-server"]
  position:
    enabled: true
    provider: google
    maps_api_key: "key"
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  qos: 1
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	cfg, err := utils.LoadConfig(writeConfig(t, sampleConfig), file.NewFileService())
	require.NoError(t, err)

	assert.Equal(t, "sk.local:3000", cfg.SignalK.ServerRoot)
	assert.True(t, cfg.SignalK.ValidateToken)
	assert.Equal(t, constants.DefaultAuthPollInterval, cfg.SignalK.PollInterval)
	assert.Equal(t, constants.DefaultTickInterval, cfg.Scheduler.TickInterval)
	assert.Equal(t, constants.DefaultConsumerPollInterval, cfg.Consumer.PollInterval)

	assert.True(t, cfg.Sensors.CPU.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Sensors.CPU.Interval)
	assert.Equal(t, constants.PathCPUUsage, cfg.Sensors.CPU.Path)
	assert.False(t, cfg.Sensors.Memory.Enabled)
	assert.True(t, cfg.Sensors.Processes.Enabled)
	assert.Equal(t, []string{"signalk-server"}, cfg.Sensors.Processes.Names)
	assert.Equal(t, constants.PathProcesses, cfg.Sensors.Processes.Path)
	assert.Equal(t, "/", cfg.Sensors.Disk.Mount)

	assert.Equal(t, constants.ProviderGoogle, cfg.Sensors.Position.Provider)
	assert.Equal(t, constants.PathPosition, cfg.Sensors.Position.Path)
	assert.Equal(t, 1, cfg.MQTT.QOS)
	assert.Equal(t, "telemetry", cfg.MQTT.Topic)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := utils.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), file.NewFileService())
	assert.Error(t, err)
}

func TestLoadConfig_RejectsInvalid(t *testing.T) {
	_, err := utils.LoadConfig(writeConfig(t, "signalk:\n  description: x\n"), file.NewFileService())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signalk.server_root")
}

func TestValidate(t *testing.T) {
	valid := func() *utils.Config {
		cfg := utils.DefaultConfig()
		cfg.SignalK.ServerRoot = "sk.local:3000"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*utils.Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*utils.Config) {}},
		{
			name:    "zero tick interval",
			mutate:  func(c *utils.Config) { c.Scheduler.TickInterval = 0 },
			wantErr: "scheduler.tick_interval",
		},
		{
			name: "enabled sensor without interval",
			mutate: func(c *utils.Config) {
				c.Sensors.Uptime.Enabled = true
				c.Sensors.Uptime.Interval = 0
			},
			wantErr: "sensors.uptime.interval",
		},
		{
			name: "enabled disk sensor without path",
			mutate: func(c *utils.Config) {
				c.Sensors.Disk.Enabled = true
				c.Sensors.Disk.Path = ""
			},
			wantErr: "sensors.disk.path",
		},
		{
			name: "serial position without port",
			mutate: func(c *utils.Config) {
				c.Sensors.Position.Enabled = true
			},
			wantErr: "gps_device_port",
		},
		{
			name: "unknown provider",
			mutate: func(c *utils.Config) {
				c.Sensors.Position.Enabled = true
				c.Sensors.Position.Provider = "sextant"
			},
			wantErr: "sextant",
		},
		{
			name: "mqtt qos out of range",
			mutate: func(c *utils.Config) {
				c.MQTT.Enabled = true
				c.MQTT.Broker = "tcp://localhost:1883"
				c.MQTT.QOS = 3
			},
			wantErr: "mqtt.qos",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

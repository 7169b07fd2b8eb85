package constants

import "time"

const (
	DefaultTickInterval         = 10 * time.Millisecond
	DefaultConsumerPollInterval = 100 * time.Millisecond
	DefaultAuthPollInterval     = 5 * time.Second
	DefaultRequestTimeout       = 10 * time.Second
	DefaultStoreDir             = "/var/lib/telemetry-agent"
	DefaultDescription          = "Telemetry agent"
)

// Signal K paths published by the built-in sensors
const (
	PathHeartbeat   = "notifications.agent.heartbeat"
	PathCPUUsage    = "environment.inside.cpu.usage"
	PathMemoryUsage = "environment.inside.memory.usage"
	PathUptime      = "environment.inside.uptime"
	PathDiskUsage   = "environment.inside.disk.usage"
	PathNetworkRate = "environment.inside.network.rate"
	PathProcesses   = "environment.inside.processes"
	PathPosition    = "navigation.position"
)

// Position providers
const (
	ProviderSerial = "serial"
	ProviderGoogle = "google"
)

// StatusAlive is the value published by the heartbeat sensor.
const StatusAlive = "alive"

// SourceLabel identifies the agent as the source of Signal K updates.
const SourceLabel = "telemetry-agent"

package sensors

import (
	"fmt"

	"github.com/shirou/gopsutil/host"
)

// UptimeCollector samples the time since the host booted.
type UptimeCollector struct{}

func (u *UptimeCollector) Name() string {
	return "uptime"
}

// Sample returns the host uptime in seconds.
func (u *UptimeCollector) Sample() (float64, error) {
	uptime, err := host.Uptime()
	if err != nil {
		return 0, fmt.Errorf("failed to get host uptime: %w", err)
	}
	return float64(uptime), nil
}

func (u *UptimeCollector) Unit() string {
	return "s"
}

func (u *UptimeCollector) Description() string {
	return "Seconds since the host booted."
}

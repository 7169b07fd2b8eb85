package sensors

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/cpu"
)

// CPUCollector samples CPU utilization across all cores.
type CPUCollector struct {
	Logger zerolog.Logger
}

func (c *CPUCollector) Name() string {
	return "cpu"
}

// Sample returns utilization since the previous call as a ratio between 0 and 1.
func (c *CPUCollector) Sample() (float64, error) {
	cpuPercentages, err := cpu.Percent(0, false)
	if err != nil {
		return 0, fmt.Errorf("failed to get CPU usage: %w", err)
	}
	if len(cpuPercentages) == 0 {
		return 0, errors.New("CPU usage data is empty")
	}

	c.Logger.Debug().Float64("cpu_usage", cpuPercentages[0]).Msg("CPU usage collected successfully")
	return cpuPercentages[0] / 100, nil
}

func (c *CPUCollector) Unit() string {
	return "ratio"
}

func (c *CPUCollector) Description() string {
	return "Ratio of CPU utilization across all cores."
}

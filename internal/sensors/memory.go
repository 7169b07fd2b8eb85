package sensors

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/mem"
)

// MemoryCollector samples the share of used virtual memory.
type MemoryCollector struct {
	Logger zerolog.Logger
}

// Name returns the identifier for the memory collector.
func (m *MemoryCollector) Name() string {
	return "memory"
}

// Sample retrieves used virtual memory as a ratio between 0 and 1.
func (m *MemoryCollector) Sample() (float64, error) {
	memStats, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("failed to retrieve memory statistics: %w", err)
	}

	m.Logger.Debug().
		Float64("memory_usage_percent", memStats.UsedPercent).
		Msg("Memory usage collected successfully")

	return memStats.UsedPercent / 100, nil
}

// Unit specifies the unit for memory usage.
func (m *MemoryCollector) Unit() string {
	return "ratio"
}

// Description provides details of the memory usage collected.
func (m *MemoryCollector) Description() string {
	return "Ratio of used virtual memory."
}

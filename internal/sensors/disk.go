package sensors

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/disk"
)

// DiskCollector samples the used share of one filesystem.
type DiskCollector struct {
	Logger zerolog.Logger
	Mount  string // Mount point, "/" when empty
}

func (d *DiskCollector) Name() string {
	return "disk"
}

// Sample returns used space on the mount point as a ratio between 0 and 1.
func (d *DiskCollector) Sample() (float64, error) {
	mount := d.Mount
	if mount == "" {
		mount = "/"
	}
	diskStats, err := disk.Usage(mount)
	if err != nil {
		return 0, fmt.Errorf("failed to get disk usage of %s: %w", mount, err)
	}

	d.Logger.Debug().Str("mount", mount).Float64("disk_usage_percent", diskStats.UsedPercent).Msg("Disk usage collected")
	return diskStats.UsedPercent / 100, nil
}

func (d *DiskCollector) Unit() string {
	return "ratio"
}

func (d *DiskCollector) Description() string {
	return "Ratio of used space on the monitored filesystem."
}

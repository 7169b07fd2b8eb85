package sensors

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/process"
)

// ProcessCollector counts running processes. With Names set only processes
// with one of those names (case-insensitive) are counted.
type ProcessCollector struct {
	Logger zerolog.Logger
	Names  []string

	// ListNames defaults to the names of all processes reported by gopsutil.
	ListNames func() ([]string, error)
}

func (p *ProcessCollector) Name() string {
	return "process"
}

// Sample returns the number of matching processes.
func (p *ProcessCollector) Sample() (float64, error) {
	list := p.ListNames
	if list == nil {
		list = p.processNames
	}
	names, err := list()
	if err != nil {
		return 0, fmt.Errorf("failed to retrieve process list: %w", err)
	}
	if len(p.Names) == 0 {
		return float64(len(names)), nil
	}

	wanted := make(map[string]struct{}, len(p.Names))
	for _, name := range p.Names {
		wanted[strings.ToLower(name)] = struct{}{}
	}
	count := 0
	for _, name := range names {
		if _, ok := wanted[strings.ToLower(name)]; ok {
			count++
		}
	}
	return float64(count), nil
}

func (p *ProcessCollector) processNames() ([]string, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(procs))
	for _, proc := range procs {
		name, err := proc.Name()
		if err != nil {
			// Processes may exit between listing and inspection.
			p.Logger.Debug().Err(err).Int32("pid", proc.Pid).Msg("Failed to get process name")
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func (p *ProcessCollector) Unit() string {
	return "count"
}

func (p *ProcessCollector) Description() string {
	return "Number of running processes, optionally limited to the configured names."
}

package sensors

import (
	"context"
	"time"

	"github.com/benmeehan/telemetry-agent/pkg/location"
)

// PositionCollector samples the device position from a location provider.
type PositionCollector struct {
	Provider location.Provider
	Timeout  time.Duration
}

func (p *PositionCollector) Name() string {
	return "position"
}

// Sample asks the provider for a fix, giving up after Timeout.
func (p *PositionCollector) Sample() (location.Position, error) {
	ctx := context.Background()
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	return p.Provider.GetPosition(ctx)
}

func (p *PositionCollector) Unit() string {
	return "deg"
}

func (p *PositionCollector) Description() string {
	return "WGS84 latitude and longitude of the device."
}

package sensors

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/net"
)

// NetworkRate is the host's aggregate network throughput.
type NetworkRate struct {
	Received float64 `json:"received"` // bytes/sec
	Sent     float64 `json:"sent"`     // bytes/sec
}

// NetworkCollector derives throughput from the difference between two
// readings of the interface byte counters.
type NetworkCollector struct {
	Logger zerolog.Logger

	// IOCounters and Now default to gopsutil and the wall clock.
	IOCounters func(pernic bool) ([]net.IOCountersStat, error)
	Now        func() time.Time

	lastIn   uint64
	lastOut  uint64
	lastTime time.Time
}

func (n *NetworkCollector) Name() string {
	return "network"
}

// Sample returns the rate since the previous call. The first call only
// records the counters and reports a zero rate.
func (n *NetworkCollector) Sample() (NetworkRate, error) {
	ioCounters, now := n.IOCounters, n.Now
	if ioCounters == nil {
		ioCounters = net.IOCounters
	}
	if now == nil {
		now = time.Now
	}

	netStats, err := ioCounters(false)
	if err != nil {
		return NetworkRate{}, fmt.Errorf("failed to retrieve network statistics: %w", err)
	}
	if len(netStats) == 0 {
		return NetworkRate{}, errors.New("no network statistics available")
	}

	curr := netStats[0]
	t := now()
	prevIn, prevOut, prevTime := n.lastIn, n.lastOut, n.lastTime
	n.lastIn, n.lastOut, n.lastTime = curr.BytesRecv, curr.BytesSent, t

	if prevTime.IsZero() {
		return NetworkRate{}, nil
	}
	secs := t.Sub(prevTime).Seconds()
	if secs <= 0 {
		return NetworkRate{}, errors.New("no time elapsed since the previous network sample")
	}
	if curr.BytesRecv < prevIn || curr.BytesSent < prevOut {
		return NetworkRate{}, errors.New("network counters were reset")
	}

	rate := NetworkRate{
		Received: float64(curr.BytesRecv-prevIn) / secs,
		Sent:     float64(curr.BytesSent-prevOut) / secs,
	}
	n.Logger.Debug().Float64("network_in", rate.Received).Float64("network_out", rate.Sent).Msg("Network rate collected")
	return rate, nil
}

func (n *NetworkCollector) Unit() string {
	return "B/s"
}

func (n *NetworkCollector) Description() string {
	return "Network receive/send rate in bytes per second."
}

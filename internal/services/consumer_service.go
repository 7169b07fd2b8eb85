package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/telemetry-agent/pkg/observable"
	"github.com/benmeehan/telemetry-agent/pkg/sensor"
)

// ConsumerService runs the consumer loop: it polls every feed on a fixed
// period and hands new readings to the registered outputs. Polling never
// blocks; a feed with nothing new is skipped until the next round.
type ConsumerService struct {
	Interval time.Duration
	Logger   zerolog.Logger

	mu      sync.Mutex
	feeds   []sensor.Feed
	outputs []Output

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewConsumerService initializes a new ConsumerService.
func NewConsumerService(interval time.Duration, feeds []sensor.Feed, logger zerolog.Logger) *ConsumerService {
	return &ConsumerService{
		Interval: interval,
		Logger:   logger,
		feeds:    append([]sensor.Feed(nil), feeds...),
	}
}

// AddOutput registers an output. An output with the same name is replaced.
func (c *ConsumerService) AddOutput(o Output) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, existing := range c.outputs {
		if existing.Name() == o.Name() {
			c.outputs[i] = o
			return
		}
	}
	c.outputs = append(c.outputs, o)
	c.Logger.Info().Str("output", o.Name()).Msg("Output registered")
}

// RemoveOutput unregisters the output called name.
func (c *ConsumerService) RemoveOutput(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, existing := range c.outputs {
		if existing.Name() == name {
			c.outputs = append(c.outputs[:i], c.outputs[i+1:]...)
			c.Logger.Info().Str("output", name).Msg("Output removed")
			return
		}
	}
}

// OutputNames returns the names of the registered outputs.
func (c *ConsumerService) OutputNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.outputs))
	for _, o := range c.outputs {
		names = append(names, o.Name())
	}
	return names
}

// FeedCount returns the number of feeds still being polled.
func (c *ConsumerService) FeedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.feeds)
}

// PollOnce polls every feed once and returns the number of readings
// delivered. Feeds whose sensor is gone are dropped.
func (c *ConsumerService) PollOnce() int {
	c.mu.Lock()
	outputs := append([]Output(nil), c.outputs...)
	var readings []sensor.Reading
	live := c.feeds[:0]
	for _, f := range c.feeds {
		reading, status := f.Poll()
		switch status {
		case observable.Closed:
			c.Logger.Warn().Str("path", f.Path()).Msg("Sensor is gone, dropping feed")
			f.Close()
			continue
		case observable.Ready:
			readings = append(readings, reading)
		}
		live = append(live, f)
	}
	c.feeds = live
	c.mu.Unlock()

	for _, r := range readings {
		c.Logger.Info().Str("path", r.Path).Interface("value", r.Value).Msg("New reading")
		for _, o := range outputs {
			if err := o.Write(r); err != nil {
				c.Logger.Error().Err(err).Str("output", o.Name()).Str("path", r.Path).Msg("Failed to forward reading")
			}
		}
	}
	return len(readings)
}

// Start launches the consumer loop in a separate goroutine.
func (c *ConsumerService) Start() error {
	if c.ctx != nil {
		c.Logger.Warn().Msg("ConsumerService is already running")
		return errors.New("consumer service is already running")
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.runPollLoop()
	}()

	c.Logger.Info().Int("feeds", c.FeedCount()).Dur("poll_interval", c.Interval).Msg("ConsumerService started successfully")
	return nil
}

// Stop gracefully stops the consumer loop.
func (c *ConsumerService) Stop() error {
	if c.ctx == nil {
		c.Logger.Warn().Msg("ConsumerService is not running")
		return errors.New("consumer service is not running")
	}

	c.cancel()
	c.wg.Wait()

	c.ctx = nil
	c.cancel = nil

	c.Logger.Info().Msg("ConsumerService stopped successfully")
	return nil
}

func (c *ConsumerService) runPollLoop() {
	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.PollOnce()
		case <-c.ctx.Done():
			c.Logger.Info().Msg("ConsumerService stopping gracefully")
			return
		}
	}
}

package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Ticker advances every registered sensor by one scheduling step.
type Ticker interface {
	Tick()
}

// SchedulerService runs the producer loop: it ticks the application on a
// fixed period. It is the only goroutine that writes sensor values.
type SchedulerService struct {
	Interval time.Duration
	App      Ticker
	Logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSchedulerService initializes a new SchedulerService.
func NewSchedulerService(interval time.Duration, app Ticker, logger zerolog.Logger) *SchedulerService {
	return &SchedulerService{
		Interval: interval,
		App:      app,
		Logger:   logger,
	}
}

// Start launches the producer loop in a separate goroutine.
func (s *SchedulerService) Start() error {
	if s.ctx != nil {
		s.Logger.Warn().Msg("SchedulerService is already running")
		return errors.New("scheduler service is already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runTickLoop()
	}()

	s.Logger.Info().Dur("tick_interval", s.Interval).Msg("SchedulerService started successfully")
	return nil
}

// Stop gracefully stops the producer loop.
func (s *SchedulerService) Stop() error {
	if s.ctx == nil {
		s.Logger.Warn().Msg("SchedulerService is not running")
		return errors.New("scheduler service is not running")
	}

	s.cancel()
	s.wg.Wait()

	s.ctx = nil
	s.cancel = nil

	s.Logger.Info().Msg("SchedulerService stopped successfully")
	return nil
}

func (s *SchedulerService) runTickLoop() {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.App.Tick()
		case <-s.ctx.Done():
			s.Logger.Info().Msg("SchedulerService stopping gracefully")
			return
		}
	}
}

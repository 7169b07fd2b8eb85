// Package application drives a fixed, ordered set of sensors.
package application

import "github.com/benmeehan/telemetry-agent/pkg/sensor"

// Application owns a heterogeneous collection of sensors and ticks them in
// registration order. It does no timing of its own: the caller invokes Tick
// on a cadence at least as fine as the smallest sensor interval.
type Application struct {
	sensors []sensor.Sensor
}

// New returns an empty application.
func New() *Application {
	return &Application{}
}

// Register appends s and returns the application so registrations can be chained.
func (a *Application) Register(s sensor.Sensor) *Application {
	a.sensors = append(a.sensors, s)
	return a
}

// Tick ticks every registered sensor exactly once, in registration order,
// on the caller's goroutine.
func (a *Application) Tick() {
	for _, s := range a.sensors {
		s.Tick()
	}
}

// Len returns the number of registered sensors.
func (a *Application) Len() int {
	return len(a.sensors)
}

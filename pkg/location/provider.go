// Package location resolves the geographic position of the device, either
// from a serial GPS receiver or from the Google geolocation API.
package location

import "context"

// Position is a WGS84 fix in the shape of a Signal K navigation.position value.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude,omitempty"`
	Accuracy  float64 `json:"-"`
}

// Provider interface defines the methods for position providers
type Provider interface {
	GetPosition(ctx context.Context) (Position, error)
	Close() error
}

package models

import "time"

// Reading is the MQTT payload carrying one sensor value.
type Reading struct {
	ClientID  string    `json:"client_id"`
	Path      string    `json:"path"`
	Value     any       `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

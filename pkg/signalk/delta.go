package signalk

import "time"

// SelfContext addresses the vessel the agent runs on.
const SelfContext = "vessels.self"

// Delta is a Signal K delta message.
type Delta struct {
	Context string   `json:"context,omitempty"`
	Updates []Update `json:"updates"`
}

// Update groups values sampled by one source at one instant.
type Update struct {
	Source    *Source   `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Values    []Value   `json:"values"`
}

// Source labels the producer of an update.
type Source struct {
	Label string `json:"label"`
	Type  string `json:"type,omitempty"`
}

// Value is a single path/value pair.
type Value struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// NewDelta builds a delta carrying one value for the self vessel.
func NewDelta(label, path string, value any, ts time.Time) Delta {
	return Delta{
		Context: SelfContext,
		Updates: []Update{{
			Source:    &Source{Label: label},
			Timestamp: ts.UTC(),
			Values:    []Value{{Path: path, Value: value}},
		}},
	}
}

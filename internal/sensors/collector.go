// Package sensors provides the sample functions behind the agent's built-in
// sensors and assembles them from configuration.
package sensors

// Collector samples one quantity of the host.
type Collector[T any] interface {
	Name() string        // Name of the quantity (e.g., "cpu", "memory")
	Unit() string        // Signal K unit of the value (e.g., "ratio", "s")
	Description() string // Description of the quantity
	Sample() (T, error)  // Take one sample
}

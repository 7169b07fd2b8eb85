package sensor

import (
	"time"

	"github.com/benmeehan/telemetry-agent/pkg/observable"
)

// Reading is a value delivered to a consumer, tagged with the sensor path and
// the time the sensor published it.
type Reading struct {
	Path      string
	Value     any
	Timestamp time.Time
}

// Feed is a type-erased subscriber, letting a consumer poll sensors of
// different value types in one loop.
type Feed interface {
	Path() string
	Poll() (Reading, observable.Status)
	Close()
}

type feed[T any] struct {
	path       string
	subscriber *observable.Subscriber[T]
}

// Watch attaches a new subscriber to s and wraps it as a Feed.
func Watch[T any](s Attachable[T]) Feed {
	return &feed[T]{path: s.Path(), subscriber: s.Attach()}
}

func (f *feed[T]) Path() string {
	return f.path
}

func (f *feed[T]) Poll() (Reading, observable.Status) {
	value, status := f.subscriber.Poll()
	if status != observable.Ready {
		return Reading{Path: f.path}, status
	}
	return Reading{Path: f.path, Value: value, Timestamp: f.subscriber.Timestamp()}, status
}

func (f *feed[T]) Close() {
	f.subscriber.Close()
}

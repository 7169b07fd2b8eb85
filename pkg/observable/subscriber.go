package observable

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
	"weak"
)

// ErrClosed is returned by Next once the cell or the subscriber is closed.
var ErrClosed = errors.New("observable is no longer available")

// Status is the outcome of a Poll.
type Status int

const (
	// NotReady means nothing new was set since the last delivered value.
	NotReady Status = iota
	// Ready means a new value was delivered.
	Ready
	// Closed means the cell is gone; no value will ever be delivered again.
	Closed
)

func (s Status) String() string {
	switch s {
	case NotReady:
		return "not-ready"
	case Ready:
		return "ready"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Subscriber is a non-owning read handle onto a Cell. It holds only a weak
// reference, so it never keeps the cell alive.
//
// A Subscriber belongs to a single reader goroutine; Poll and Next must not be
// called concurrently on the same Subscriber.
type Subscriber[T any] struct {
	id     string
	cell   weak.Pointer[Cell[T]]
	notify chan struct{}
	seen   uint64
	seenAt time.Time
	closed atomic.Bool
}

// Poll returns the latest value if it changed since the previous delivery.
// It never blocks. Values set between two polls are coalesced: only the most
// recent one is returned.
func (s *Subscriber[T]) Poll() (T, Status) {
	var zero T
	if s.closed.Load() {
		return zero, Closed
	}
	c := s.cell.Value()
	if c == nil || c.st.closed.Load() {
		return zero, Closed
	}

	e := c.st.current.Load()
	if e.version == s.seen {
		return zero, NotReady
	}
	s.seen = e.version
	s.seenAt = e.at
	return e.value, Ready
}

// Timestamp returns when the value last delivered by Poll or Next was set.
// It is zero before the first delivery.
func (s *Subscriber[T]) Timestamp() time.Time {
	return s.seenAt
}

// Next blocks until a new value is available, the cell is closed or ctx is done.
func (s *Subscriber[T]) Next(ctx context.Context) (T, error) {
	var zero T
	for {
		value, status := s.Poll()
		switch status {
		case Ready:
			return value, nil
		case Closed:
			return zero, ErrClosed
		}

		select {
		case <-s.notify:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Changed returns a channel that receives after each Set. It is closed when
// the subscriber or its cell is closed. Several Sets may collapse into one
// receive.
func (s *Subscriber[T]) Changed() <-chan struct{} {
	return s.notify
}

// Close unregisters the subscriber. The cell is unaffected.
func (s *Subscriber[T]) Close() {
	if s.closed.Swap(true) {
		return
	}
	if c := s.cell.Value(); c != nil {
		c.st.unsubscribe(s.id)
	}
}

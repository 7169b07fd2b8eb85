// Package observable provides a single-writer value cell that fans its latest
// value out to any number of non-owning subscribers.
//
// A Cell is written by exactly one goroutine (its owner). Subscribers are read
// handles polled from other goroutines; they observe the most recent value
// only, so a slow reader sees intermediate writes coalesced into the last one.
package observable

import (
	"runtime"
	"sync/atomic"
	"time"
	"weak"

	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// entry is an immutable snapshot of the cell contents.
type entry[T any] struct {
	value   T
	version uint64
	at      time.Time
}

// state is the part of a cell shared with the runtime cleanup. It must not
// reference the Cell itself, otherwise the Cell could never be collected.
type state[T any] struct {
	current     atomic.Pointer[entry[T]]
	closed      atomic.Bool
	subscribers cmap.ConcurrentMap[string, chan struct{}]
}

// Cell holds the current value of type T and notifies subscribers on Set.
type Cell[T any] struct {
	st *state[T]
}

// New returns a cell seeded with initial. The seed is version zero and is
// never delivered to subscribers.
func New[T any](initial T) *Cell[T] {
	st := &state[T]{subscribers: cmap.New[chan struct{}]()}
	st.current.Store(&entry[T]{value: initial})

	c := &Cell[T]{st: st}
	runtime.AddCleanup(c, func(st *state[T]) { st.close() }, st)
	return c
}

// Set overwrites the current value, stamped with the current time, and wakes
// every live subscriber.
// Only the owner of the cell may call Set; it is not safe for concurrent writers.
func (c *Cell[T]) Set(value T) {
	if c.st.closed.Load() {
		return
	}
	prev := c.st.current.Load()
	c.st.current.Store(&entry[T]{value: value, version: prev.version + 1, at: time.Now().UTC()})

	c.st.subscribers.IterCb(func(_ string, notify chan struct{}) {
		select {
		case notify <- struct{}{}:
		default:
		}
	})
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	return c.st.current.Load().value
}

// Version returns the number of Set calls applied so far.
func (c *Cell[T]) Version() uint64 {
	return c.st.current.Load().version
}

// Subscribe registers a new subscriber. It observes only values set after
// this call; the current value is not replayed.
func (c *Cell[T]) Subscribe() *Subscriber[T] {
	s := &Subscriber[T]{
		id:     uuid.NewString(),
		cell:   weak.Make(c),
		notify: make(chan struct{}, 1),
		seen:   c.st.current.Load().version,
	}
	if c.st.closed.Load() {
		s.closed.Store(true)
		close(s.notify)
		return s
	}
	c.st.subscribers.Set(s.id, s.notify)
	return s
}

// SubscriberCount returns the number of registered subscribers.
func (c *Cell[T]) SubscriberCount() int {
	return c.st.subscribers.Count()
}

// Close makes every outstanding subscriber report Closed. Further Set calls
// are ignored. Close is called by the owner, like Set.
func (c *Cell[T]) Close() {
	c.st.close()
}

func (st *state[T]) close() {
	if st.closed.Swap(true) {
		return
	}
	for _, id := range st.subscribers.Keys() {
		if notify, ok := st.subscribers.Pop(id); ok {
			close(notify)
		}
	}
}

func (st *state[T]) unsubscribe(id string) bool {
	notify, ok := st.subscribers.Pop(id)
	if ok {
		close(notify)
	}
	return ok
}

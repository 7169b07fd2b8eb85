package observable_test

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/telemetry-agent/pkg/observable"
)

func TestCell_SetNotifiesSubscriber(t *testing.T) {
	cell := observable.New(0)
	sub := cell.Subscribe()

	_, status := sub.Poll()
	assert.Equal(t, observable.NotReady, status)

	cell.Set(7)
	value, status := sub.Poll()
	assert.Equal(t, observable.Ready, status)
	assert.Equal(t, 7, value)

	_, status = sub.Poll()
	assert.Equal(t, observable.NotReady, status, "a value is delivered once")
}

func TestCell_NoReplayForLateSubscriber(t *testing.T) {
	cell := observable.New("seed")
	cell.Set("a")
	cell.Set("b")

	sub := cell.Subscribe()
	_, status := sub.Poll()
	assert.Equal(t, observable.NotReady, status)

	cell.Set("c")
	value, status := sub.Poll()
	assert.Equal(t, observable.Ready, status)
	assert.Equal(t, "c", value)
}

func TestCell_SlowSubscriberSeesLatestOnly(t *testing.T) {
	cell := observable.New(0)
	sub := cell.Subscribe()

	for i := 1; i <= 5; i++ {
		cell.Set(i)
	}

	value, status := sub.Poll()
	assert.Equal(t, observable.Ready, status)
	assert.Equal(t, 5, value)

	_, status = sub.Poll()
	assert.Equal(t, observable.NotReady, status)
}

func TestCell_SubscribersAreIndependent(t *testing.T) {
	cell := observable.New(0)
	first := cell.Subscribe()
	second := cell.Subscribe()
	assert.Equal(t, 2, cell.SubscriberCount())

	cell.Set(1)
	value, status := first.Poll()
	assert.Equal(t, observable.Ready, status)
	assert.Equal(t, 1, value)

	cell.Set(2)
	value, status = second.Poll()
	assert.Equal(t, observable.Ready, status)
	assert.Equal(t, 2, value)

	first.Close()
	assert.Equal(t, 1, cell.SubscriberCount())
	_, status = first.Poll()
	assert.Equal(t, observable.Closed, status)

	cell.Set(3)
	value, status = second.Poll()
	assert.Equal(t, observable.Ready, status)
	assert.Equal(t, 3, value)
}

func TestCell_CloseMakesSubscribersInert(t *testing.T) {
	cell := observable.New(1)
	sub := cell.Subscribe()
	cell.Set(2)

	cell.Close()
	cell.Set(3)

	_, status := sub.Poll()
	assert.Equal(t, observable.Closed, status)
	assert.Equal(t, 2, cell.Get(), "writes after close are ignored")

	_, err := sub.Next(context.Background())
	assert.ErrorIs(t, err, observable.ErrClosed)

	late := cell.Subscribe()
	_, status = late.Poll()
	assert.Equal(t, observable.Closed, status)
	assert.NotPanics(t, late.Close)
}

func TestCell_CollectedCellReportsClosed(t *testing.T) {
	sub := func() *observable.Subscriber[int] {
		cell := observable.New(0)
		return cell.Subscribe()
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		_, status := sub.Poll()
		return status == observable.Closed
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSubscriber_NextWaitsForSet(t *testing.T) {
	cell := observable.New(0)
	sub := cell.Subscribe()

	var wg sync.WaitGroup
	wg.Add(1)
	var got int
	var err error
	go func() {
		defer wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		got, err = sub.Next(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cell.Set(42)
	wg.Wait()

	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestSubscriber_NextHonoursContext(t *testing.T) {
	cell := observable.New(0)
	sub := cell.Subscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := sub.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	runtime.KeepAlive(cell)
}

func TestSubscriber_ConcurrentReaderAndWriter(t *testing.T) {
	cell := observable.New(0)
	sub := cell.Subscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= 1000; i++ {
			cell.Set(i)
		}
	}()

	last := 0
	for {
		value, status := sub.Poll()
		if status == observable.Ready {
			assert.Greater(t, value, last, "values never go backwards")
			last = value
		}
		select {
		case <-done:
			if value, status := sub.Poll(); status == observable.Ready {
				last = value
			}
			assert.Equal(t, 1000, last)
			return
		default:
		}
	}
}

func TestCell_VersionCountsSets(t *testing.T) {
	cell := observable.New("seed")
	assert.Equal(t, uint64(0), cell.Version())

	cell.Set("a")
	cell.Set("b")
	assert.Equal(t, uint64(2), cell.Version())
	assert.Equal(t, "b", cell.Get())

	cell.Close()
	cell.Set("c")
	assert.Equal(t, uint64(2), cell.Version())
}

func TestSubscriber_ChangedSignalsSet(t *testing.T) {
	cell := observable.New(0)
	sub := cell.Subscribe()

	select {
	case <-sub.Changed():
		t.Fatal("no value was set yet")
	default:
	}

	cell.Set(1)
	cell.Set(2)
	select {
	case _, ok := <-sub.Changed():
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("expected a change notification")
	}

	value, status := sub.Poll()
	assert.Equal(t, observable.Ready, status)
	assert.Equal(t, 2, value)

	cell.Close()
	select {
	case _, ok := <-sub.Changed():
		assert.False(t, ok, "the channel is closed with the cell")
	case <-time.After(time.Second):
		t.Fatal("expected the channel to be closed")
	}
}

func TestSubscriber_TimestampIsSetTime(t *testing.T) {
	cell := observable.New(0)
	sub := cell.Subscribe()
	assert.True(t, sub.Timestamp().IsZero())

	before := time.Now()
	cell.Set(1)
	after := time.Now()
	time.Sleep(20 * time.Millisecond)

	_, status := sub.Poll()
	require.Equal(t, observable.Ready, status)
	assert.WithinRange(t, sub.Timestamp(), before.Add(-time.Millisecond), after.Add(time.Millisecond))
}

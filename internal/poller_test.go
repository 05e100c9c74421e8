package gudgeontop

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoller_RejectsBadIntervals(t *testing.T) {
	tests := []struct {
		name     string
		interval Interval
	}{
		{"zero normal", Interval{Normal: 0, Backoff: time.Second}},
		{"backoff equal to normal", Interval{Normal: time.Second, Backoff: time.Second}},
		{"backoff below normal", Interval{Normal: 2 * time.Second, Backoff: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPoller("bad", tt.interval)
			assert.Error(t, err)
		})
	}

	assert.Panics(t, func() { mustPoller("bad", Interval{Normal: time.Second, Backoff: time.Second}) })
}

func TestPoller_Intervals(t *testing.T) {
	for _, interval := range []Interval{CardsInterval, TopInterval, ChartInterval, QueryLogInterval, WatchInterval} {
		_, err := NewPoller("check", interval)
		assert.NoError(t, err)
	}
}

func TestPoller_Delay(t *testing.T) {
	p := mustPoller("delay", ChartInterval)

	assert.Equal(t, ChartInterval.Normal, p.Delay(nil))
	assert.Equal(t, ChartInterval.Backoff, p.Delay(errors.New("connection refused")))
	assert.Equal(t, ChartInterval.Normal, p.Delay(errMalformedResponse("empty body")), "no data is not a failure")
	assert.Greater(t, p.Delay(errStatusNotOK(500)), p.Delay(nil))
}

func TestPoller_FetchAndAccept(t *testing.T) {
	p := mustPoller("fetch", CardsInterval)
	assert.Nil(t, p.Fetch(func(ctx context.Context) (any, error) { return 1, nil }), "stopped pollers do not fetch")

	p.Restart()
	cmd := p.Fetch(func(ctx context.Context) (any, error) { return 42, nil })
	require.NotNil(t, cmd)
	assert.True(t, p.InFlight())
	assert.Nil(t, p.Fetch(func(ctx context.Context) (any, error) { return 0, nil }), "only one request in flight")

	msg, ok := cmd().(pollResultMsg)
	require.True(t, ok)
	assert.Equal(t, 42, msg.value)

	require.True(t, p.Accept(msg))
	assert.False(t, p.InFlight())
	assert.Contains(t, p.Status(), "updated")
}

func TestPoller_IgnoresStaleGeneration(t *testing.T) {
	p := mustPoller("stale", CardsInterval)
	p.Restart()
	cmd := p.Fetch(func(ctx context.Context) (any, error) { return "old", nil })
	require.NotNil(t, cmd)
	msg := cmd().(pollResultMsg)

	p.Stop()
	assert.False(t, p.Accept(msg), "results after stop are ignored")
	assert.False(t, p.Due(pollTickMsg{id: "stale", generation: msg.generation}))

	p.Restart()
	assert.False(t, p.Accept(msg), "results from before a restart are ignored")
	assert.False(t, p.Accept(pollResultMsg{id: "other", generation: p.generation}))
}

func TestPoller_ScheduleUsesBackoffAfterFailure(t *testing.T) {
	p := mustPoller("schedule", QueryLogInterval)
	p.Restart()

	require.NotNil(t, p.Schedule(nil))
	assert.Equal(t, QueryLogInterval.Normal, p.LastDelay())

	cmd := p.Fetch(func(ctx context.Context) (any, error) { return nil, errors.New("boom") })
	msg := cmd().(pollResultMsg)
	require.True(t, p.Accept(msg))
	require.NotNil(t, p.Schedule(msg.err))
	assert.Equal(t, QueryLogInterval.Backoff, p.LastDelay())
	assert.Greater(t, p.LastDelay(), QueryLogInterval.Normal)
	assert.Contains(t, p.Status(), "retrying in 20s")

	p.Stop()
	assert.Nil(t, p.Schedule(nil))
}

func TestPoller_Due(t *testing.T) {
	p := mustPoller("due", TopInterval)
	p.Restart()

	tick := pollTickMsg{id: "due", generation: p.generation}
	assert.True(t, p.Due(tick))
	assert.False(t, p.Due(pollTickMsg{id: "other", generation: p.generation}))

	p.Fetch(func(ctx context.Context) (any, error) { return nil, nil })
	assert.False(t, p.Due(tick), "no tick while a request is in flight")
}

func TestPoller_Run(t *testing.T) {
	p := mustPoller("run", Interval{Normal: 5 * time.Millisecond, Backoff: 50 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	done := make(chan struct{})
	go func() {
		p.Run(ctx, func(ctx context.Context) error {
			if calls.Add(1) >= 3 {
				cancel()
			}
			return nil
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

package gudgeontop

import (
	"context"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// pollTickMsg asks the poller with the given id to issue its next request
type pollTickMsg struct {
	id         string
	generation int
}

// pollResultMsg carries the outcome of one request back to the owning component
type pollResultMsg struct {
	id         string
	generation int
	value      any
	err        error
	at         time.Time
}

// FetchFunc performs one backend request
type FetchFunc func(ctx context.Context) (any, error)

// Poller owns the schedule of a single component: at most one pending tick
// and one request in flight. The next request is only scheduled once the
// previous one has been handled, so results are applied in issue order.
//
// Stop and Restart bump the generation; ticks and results from an older
// generation are ignored, which is how a response arriving after the owner
// went away becomes a no-op.
type Poller struct {
	id         string
	interval   Interval
	generation int
	inFlight   bool
	stopped    bool

	lastDelay   time.Duration
	lastErr     error
	lastSuccess time.Time
}

// NewPoller creates a stopped poller. The backoff must be strictly longer than the normal interval.
func NewPoller(id string, interval Interval) (*Poller, error) {
	if interval.Normal <= 0 {
		return nil, fmt.Errorf("poller %s: normal interval must be positive", id)
	}
	if interval.Backoff <= interval.Normal {
		return nil, fmt.Errorf("poller %s: backoff %s must be greater than normal interval %s", id, interval.Backoff, interval.Normal)
	}
	return &Poller{id: id, interval: interval, stopped: true}, nil
}

func mustPoller(id string, interval Interval) *Poller {
	p, err := NewPoller(id, interval)
	if err != nil {
		panic(err)
	}
	return p
}

// ID returns the owning component id
func (p *Poller) ID() string {
	return p.id
}

// Delay returns the wait before the next request given the last outcome.
// Failures use the single backoff tier; "no data" counts as success.
func (p *Poller) Delay(err error) time.Duration {
	if err != nil && !IsNoData(err) {
		return p.interval.Backoff
	}
	return p.interval.Normal
}

// Restart abandons any pending tick or in-flight request and re-arms the poller
func (p *Poller) Restart() {
	p.generation++
	p.inFlight = false
	p.stopped = false
	p.lastErr = nil
}

// Stop abandons any pending tick or in-flight request
func (p *Poller) Stop() {
	p.generation++
	p.inFlight = false
	p.stopped = true
}

// InFlight reports whether a request is outstanding
func (p *Poller) InFlight() bool {
	return p.inFlight
}

// Fetch marks a request in flight and returns the command performing it.
// It returns nil when stopped or when a request is already outstanding.
func (p *Poller) Fetch(fetch FetchFunc) tea.Cmd {
	if p.stopped || p.inFlight {
		return nil
	}
	p.inFlight = true
	id, generation := p.id, p.generation
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout())
		defer cancel()
		value, err := fetch(ctx)
		return pollResultMsg{id: id, generation: generation, value: value, err: err, at: time.Now()}
	}
}

// Accept claims a result for this poller. False means the result belongs to
// another poller or to an abandoned generation and must not be applied.
func (p *Poller) Accept(msg pollResultMsg) bool {
	if msg.id != p.id || msg.generation != p.generation {
		return false
	}
	p.inFlight = false
	if p.stopped {
		return false
	}
	p.lastErr = msg.err
	if msg.err == nil {
		p.lastSuccess = msg.at
	} else {
		log.Printf("poller %s: request failed: %v", p.id, msg.err)
	}
	return true
}

// Due claims a tick for this poller
func (p *Poller) Due(msg pollTickMsg) bool {
	return msg.id == p.id && msg.generation == p.generation && !p.stopped && !p.inFlight
}

// Schedule returns the tick for the next request after an outcome
func (p *Poller) Schedule(err error) tea.Cmd {
	if p.stopped {
		return nil
	}
	delay := p.Delay(err)
	p.lastDelay = delay
	id, generation := p.id, p.generation
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return pollTickMsg{id: id, generation: generation}
	})
}

// LastDelay is the delay chosen by the most recent Schedule
func (p *Poller) LastDelay() time.Duration {
	return p.lastDelay
}

// Status is a one line description of the poller's health
func (p *Poller) Status() string {
	if p.lastErr != nil && !IsNoData(p.lastErr) {
		return fmt.Sprintf("update failed, retrying in %s", p.lastDelay)
	}
	if p.lastSuccess.IsZero() {
		return "waiting for data..."
	}
	return "updated " + p.lastSuccess.Format("15:04:05")
}

// Run drives fetch from a goroutine until ctx is done. Each request starts
// only after the previous one returned.
func (p *Poller) Run(ctx context.Context, fetch func(ctx context.Context) error) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			reqCtx, cancel := context.WithTimeout(ctx, RequestTimeout())
			err := fetch(reqCtx)
			cancel()

			delay := p.Delay(err)
			if err != nil && ctx.Err() == nil {
				log.Printf("poller %s: request failed, next attempt in %s: %v", p.id, delay, err)
			}
			timer.Reset(delay)
		}
	}
}

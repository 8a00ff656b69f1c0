// internal/countdown/timer.go
//
// Cancellable per-second countdown used for the round clock.
// Semantics:
//   - onTick fires once right away with the full duration, then once per
//     elapsed second with the new remaining value.
//   - When the remaining value would drop below zero, onExpire fires exactly
//     once and the countdown stops. No negative value is ever emitted.
//   - Cancel is idempotent and a no-op on expired handles.
//   - A Timer owns at most one live countdown; Start cancels the previous one.
//   - Remaining time is measured on the clock, so ticks that arrive late or
//     coalesced still emit every second in between.
//
// Callbacks run on the countdown's own goroutine, one at a time, in order.

package countdown

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Timer starts countdowns on a clockwork.Clock, keeping at most one alive.
type Timer struct {
	clock clockwork.Clock

	mu   sync.Mutex
	live *Handle
}

// New returns a Timer driven by clock (the real clock when nil).
func New(clock clockwork.Clock) *Timer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Timer{clock: clock}
}

// Start begins a countdown from seconds, cancelling any live countdown first.
// Negative durations are treated as zero.
func (t *Timer) Start(seconds int, onTick func(remaining int), onExpire func()) *Handle {
	if seconds < 0 {
		seconds = 0
	}
	h := &Handle{done: make(chan struct{})}
	started := t.clock.Now()
	ticker := t.clock.NewTicker(time.Second)

	t.mu.Lock()
	prev := t.live
	t.live = h
	t.mu.Unlock()
	if prev != nil {
		prev.Cancel()
	}

	go h.run(t.clock, ticker, started, seconds, onTick, onExpire)
	return h
}

// Cancel stops the live countdown, if any.
func (t *Timer) Cancel() {
	t.mu.Lock()
	h := t.live
	t.live = nil
	t.mu.Unlock()
	if h != nil {
		h.Cancel()
	}
}

// Handle identifies one countdown.
type Handle struct {
	once    sync.Once
	done    chan struct{}
	expired bool // written before done is closed by the countdown goroutine
}

// Cancel stops the countdown. Safe to call any number of times.
func (h *Handle) Cancel() { h.once.Do(func() { close(h.done) }) }

// Done is closed once the countdown was cancelled or has expired.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Expired reports whether the countdown ran to completion.
// Only meaningful after Done is closed.
func (h *Handle) Expired() bool {
	select {
	case <-h.done:
		return h.expired
	default:
		return false
	}
}

func (h *Handle) stopped() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *Handle) run(clock clockwork.Clock, ticker clockwork.Ticker, started time.Time, seconds int, onTick func(int), onExpire func()) {
	defer ticker.Stop()

	if h.stopped() {
		return
	}
	if onTick != nil {
		onTick(seconds)
	}

	remaining := seconds
	for {
		select {
		case <-h.done:
			return
		case <-ticker.Chan():
			target := seconds - int(clock.Since(started)/time.Second)
			for remaining > target {
				if h.stopped() {
					return
				}
				remaining--
				if remaining < 0 {
					h.once.Do(func() {
						h.expired = true
						close(h.done)
					})
					if h.expired && onExpire != nil {
						onExpire()
					}
					return
				}
				if onTick != nil {
					onTick(remaining)
				}
			}
		}
	}
}

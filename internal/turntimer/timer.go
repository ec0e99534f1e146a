// Package turntimer runs the per-match turn countdown.
package turntimer

import (
	"sort"
	"sync"
	"time"
)

// Callbacks receive countdown events. Both carry the turn number the
// countdown was started for so callers can drop events for turns that were
// already resolved.
type Callbacks struct {
	OnWarning func(turn int, remaining time.Duration)
	OnTimeout func(turn int)
}

// Timer is a restartable turn countdown. At most one countdown runs at a time.
type Timer struct {
	timeout  time.Duration
	warnings []time.Duration
	cb       Callbacks

	mu       sync.Mutex
	gen      uint64
	stop     chan struct{}
	deadline time.Time
}

// New creates a timer. Warnings are remaining-time marks; marks that are not
// below timeout are ignored.
func New(timeout time.Duration, warnings []time.Duration, cb Callbacks) *Timer {
	marks := make([]time.Duration, 0, len(warnings))
	for _, w := range warnings {
		if w > 0 && w < timeout {
			marks = append(marks, w)
		}
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i] > marks[j] })

	return &Timer{timeout: timeout, warnings: marks, cb: cb}
}

// Start arms the countdown for a turn, cancelling any running countdown.
func (t *Timer) Start(turn int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelLocked()
	t.gen++
	stop := make(chan struct{})
	t.stop = stop
	t.deadline = time.Now().Add(t.timeout)

	go t.run(t.gen, turn, t.deadline, stop)
}

// Stop cancels the running countdown, if any.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.gen++
}

// Deadline returns when the current countdown expires, zero if stopped.
func (t *Timer) Deadline() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == nil {
		return time.Time{}
	}
	return t.deadline
}

func (t *Timer) cancelLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

func (t *Timer) current(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen == gen
}

func (t *Timer) run(gen uint64, turn int, deadline time.Time, stop <-chan struct{}) {
	for _, mark := range t.warnings {
		if !wait(time.Until(deadline.Add(-mark)), stop) {
			return
		}
		if t.cb.OnWarning != nil && t.current(gen) {
			t.cb.OnWarning(turn, mark)
		}
	}

	if !wait(time.Until(deadline), stop) {
		return
	}

	t.mu.Lock()
	if t.gen != gen {
		t.mu.Unlock()
		return
	}
	t.stop = nil
	t.mu.Unlock()

	if t.cb.OnTimeout != nil {
		t.cb.OnTimeout(turn)
	}
}

// wait sleeps for d and reports false if stop closed first.
func wait(d time.Duration, stop <-chan struct{}) bool {
	if d <= 0 {
		select {
		case <-stop:
			return false
		default:
			return true
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-stop:
		return false
	}
}

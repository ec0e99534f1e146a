package turntimer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	warnings []time.Duration
	timeouts []int
	done     chan int
}

func newRecorder() *recorder {
	return &recorder{done: make(chan int, 4)}
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnWarning: func(turn int, remaining time.Duration) {
			r.mu.Lock()
			r.warnings = append(r.warnings, remaining)
			r.mu.Unlock()
		},
		OnTimeout: func(turn int) {
			r.mu.Lock()
			r.timeouts = append(r.timeouts, turn)
			r.mu.Unlock()
			r.done <- turn
		},
	}
}

func TestTimerWarnsThenTimesOut(t *testing.T) {
	rec := newRecorder()
	timer := New(120*time.Millisecond, []time.Duration{40 * time.Millisecond, 80 * time.Millisecond, 500 * time.Millisecond}, rec.callbacks())

	timer.Start(3)
	assert.False(t, timer.Deadline().IsZero())

	select {
	case turn := <-rec.done:
		assert.Equal(t, 3, turn)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout callback never fired")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []time.Duration{80 * time.Millisecond, 40 * time.Millisecond}, rec.warnings)
	assert.True(t, timer.Deadline().IsZero())
}

func TestTimerStopCancelsTimeout(t *testing.T) {
	rec := newRecorder()
	timer := New(50*time.Millisecond, nil, rec.callbacks())

	timer.Start(1)
	timer.Stop()

	select {
	case <-rec.done:
		t.Fatal("timeout fired after Stop")
	case <-time.After(150 * time.Millisecond):
	}
	assert.True(t, timer.Deadline().IsZero())
}

func TestTimerRestartSupersedesPreviousTurn(t *testing.T) {
	rec := newRecorder()
	timer := New(60*time.Millisecond, nil, rec.callbacks())

	timer.Start(1)
	time.Sleep(20 * time.Millisecond)
	timer.Start(2)

	select {
	case turn := <-rec.done:
		require.Equal(t, 2, turn)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout callback never fired")
	}

	select {
	case turn := <-rec.done:
		t.Fatalf("unexpected extra timeout for turn %d", turn)
	case <-time.After(100 * time.Millisecond):
	}
}

package cooldown

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dmetrikx/goWrestleBot/internal/game"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestGateCheckAndMark(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	g := NewGate(NewMemoryStore(), WithClock(clock.now))

	require.NoError(t, g.Check(ctx, "u1", game.CommandDaily))
	require.NoError(t, g.Mark(ctx, "u1", game.CommandDaily))

	clock.advance(time.Hour)
	err := g.Check(ctx, "u1", game.CommandDaily)
	var cdErr *Error
	require.True(t, errors.As(err, &cdErr))
	assert.Equal(t, game.CommandDaily, cdErr.Command)
	assert.Equal(t, 23*time.Hour, cdErr.Remaining)

	// Other users and commands are unaffected.
	assert.NoError(t, g.Check(ctx, "u2", game.CommandDaily))
	assert.NoError(t, g.Check(ctx, "u1", game.CommandGive))

	clock.advance(23 * time.Hour)
	assert.NoError(t, g.Check(ctx, "u1", game.CommandDaily))
}

func TestGateUnknownCommand(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	g := NewGate(store)

	require.NoError(t, g.Mark(ctx, "u1", "ping"))
	assert.NoError(t, g.Check(ctx, "u1", "ping"))

	_, ok, _ := store.LastUsed(ctx, "u1", "ping")
	assert.False(t, ok)
}

func TestGateCustomDurations(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(0, 0)}
	g := NewGate(NewMemoryStore(),
		WithClock(clock.now),
		WithDurations(map[string]time.Duration{"x": time.Minute}))

	assert.Equal(t, time.Minute, g.Duration("x"))
	assert.Zero(t, g.Duration(game.CommandDaily))

	require.NoError(t, g.Mark(ctx, "u1", "x"))
	clock.advance(59 * time.Second)
	assert.Error(t, g.Check(ctx, "u1", "x"))
	clock.advance(time.Second)
	assert.NoError(t, g.Check(ctx, "u1", "x"))
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "1s"},
		{1500 * time.Millisecond, "2s"},
		{45 * time.Second, "45s"},
		{90 * time.Second, "1m 30s"},
		{23*time.Hour + 59*time.Minute + 59*time.Second, "23h 59m 59s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRemaining(tt.in), tt.in.String())
	}
}

func TestGateAcquireIsExclusive(t *testing.T) {
	ctx := context.Background()
	g := NewGate(NewMemoryStore())

	release, err := g.Acquire(ctx, "u1", game.CommandDaily)
	require.NoError(t, err)

	_, err = g.Acquire(ctx, "u1", game.CommandDaily)
	var cdErr *Error
	require.True(t, errors.As(err, &cdErr), "a held slot rejects a second caller")

	other, err := g.Acquire(ctx, "u2", game.CommandDaily)
	require.NoError(t, err)
	require.NoError(t, other(true))

	require.NoError(t, release(true))
	_, err = g.Acquire(ctx, "u1", game.CommandDaily)
	assert.True(t, errors.As(err, &cdErr), "a recorded use starts the cooldown")
}

func TestGateAcquireReleaseWithoutUse(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	g := NewGate(store)

	release, err := g.Acquire(ctx, "u1", game.CommandGive)
	require.NoError(t, err)
	require.NoError(t, release(false))

	_, ok, _ := store.LastUsed(ctx, "u1", game.CommandGive)
	assert.False(t, ok)

	again, err := g.Acquire(ctx, "u1", game.CommandGive)
	require.NoError(t, err)
	require.NoError(t, again(false))
}

func TestGateAcquireConcurrent(t *testing.T) {
	ctx := context.Background()
	g := NewGate(NewMemoryStore())

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := g.Acquire(ctx, "u1", game.CommandDaily)
			if err != nil {
				return
			}
			mu.Lock()
			granted++
			mu.Unlock()
			time.Sleep(time.Millisecond)
			release(true)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, granted)
}

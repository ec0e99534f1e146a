// Package cooldown enforces per-user, per-command cooldowns.
package cooldown

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Dmetrikx/goWrestleBot/internal/game"
)

// Store records when a user last ran a command.
// storage.CooldownRepository satisfies it.
type Store interface {
	LastUsed(ctx context.Context, userID, command string) (time.Time, bool, error)
	MarkUsed(ctx context.Context, userID, command string, at time.Time) error
}

// Error is returned by Check while a command is cooling down.
type Error struct {
	Command   string
	Remaining time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("command %s is on cooldown for %s", e.Command, FormatRemaining(e.Remaining))
}

// Gate checks and records command usage.
type Gate struct {
	store     Store
	durations map[string]time.Duration
	now       func() time.Time

	mu       sync.Mutex
	inflight map[slot]bool
}

type slot struct{ userID, command string }

// Option configures a Gate.
type Option func(*Gate)

// WithDurations replaces the default cooldown table.
func WithDurations(d map[string]time.Duration) Option {
	return func(g *Gate) { g.durations = d }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// NewGate creates a Gate using game.CooldownTimes unless overridden.
func NewGate(store Store, opts ...Option) *Gate {
	g := &Gate{
		store:     store,
		durations: game.CooldownTimes,
		now:       time.Now,
		inflight:  make(map[slot]bool),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Duration returns the cooldown for a command, zero when it has none.
func (g *Gate) Duration(command string) time.Duration {
	return g.durations[command]
}

// Check returns *Error if the user must wait before running command.
// Commands without a cooldown always pass.
func (g *Gate) Check(ctx context.Context, userID, command string) error {
	d, ok := g.durations[command]
	if !ok || d <= 0 {
		return nil
	}
	last, ok, err := g.store.LastUsed(ctx, userID, command)
	if err != nil {
		return fmt.Errorf("failed to read cooldown: %w", err)
	}
	if !ok {
		return nil
	}
	if remaining := last.Add(d).Sub(g.now()); remaining > 0 {
		return &Error{Command: command, Remaining: remaining}
	}
	return nil
}

// Acquire reserves command for the user until release is called. A second
// Acquire for the same user and command fails with *Error while the first is
// held. release(true) records the use; release(false) frees the slot without
// starting the cooldown.
func (g *Gate) Acquire(ctx context.Context, userID, command string) (release func(ok bool) error, err error) {
	d, ok := g.durations[command]
	if !ok || d <= 0 {
		return func(bool) error { return nil }, nil
	}

	key := slot{userID, command}
	g.mu.Lock()
	if g.inflight[key] {
		g.mu.Unlock()
		return nil, &Error{Command: command, Remaining: d}
	}
	g.inflight[key] = true
	g.mu.Unlock()

	if err := g.Check(ctx, userID, command); err != nil {
		g.free(key)
		return nil, err
	}

	var once sync.Once
	return func(ok bool) error {
		var err error
		once.Do(func() {
			defer g.free(key)
			if ok {
				err = g.Mark(ctx, userID, command)
			}
		})
		return err
	}, nil
}

func (g *Gate) free(key slot) {
	g.mu.Lock()
	delete(g.inflight, key)
	g.mu.Unlock()
}

// Mark records a successful use of command.
func (g *Gate) Mark(ctx context.Context, userID, command string) error {
	if _, ok := g.durations[command]; !ok {
		return nil
	}
	if err := g.store.MarkUsed(ctx, userID, command, g.now()); err != nil {
		return fmt.Errorf("failed to record cooldown: %w", err)
	}
	return nil
}

// FormatRemaining renders a wait like "1h 5m 3s", rounding up to the second.
func FormatRemaining(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	h, m, s := secs/3600, secs%3600/60, secs%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu   sync.Mutex
	last map[string]map[string]time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{last: make(map[string]map[string]time.Time)}
}

func (s *MemoryStore) LastUsed(_ context.Context, userID, command string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.last[userID][command]
	return t, ok, nil
}

func (s *MemoryStore) MarkUsed(_ context.Context, userID, command string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last[userID] == nil {
		s.last[userID] = make(map[string]time.Time)
	}
	s.last[userID][command] = at
	return nil
}

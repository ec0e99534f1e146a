// Package match implements the turn-based match state machine shared by all
// formats. A Match is not safe for concurrent use; callers serialize access.
package match

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/Dmetrikx/goWrestleBot/internal/game"
	"github.com/Dmetrikx/goWrestleBot/internal/roster"
)

// Reason describes how a participant left the match.
type Reason string

const (
	ReasonPinfall Reason = "pinfall"
	ReasonTimeout Reason = "timeout"
	ReasonForfeit Reason = "forfeit"
)

// Entrant is a user joining a match.
type Entrant struct {
	UserID string
	Name   string
}

// Config describes a match to create. For team formats the first half of
// Entrants forms team 0 and the second half team 1.
type Config struct {
	Format    game.Format
	GuildID   string
	ChannelID string
	Entrants  []Entrant
	Roster    *roster.Roster
	Rand      *rand.Rand
	Now       func() time.Time
}

// Participant is the in-match state of one entrant.
type Participant struct {
	UserID           string
	Name             string
	Wrestler         string
	Team             int
	Health           int
	Momentum         int
	Entered          bool
	Eliminated       bool
	EliminatedBy     Reason
	EliminationOrder int
}

// Action is one resolved turn.
type Action struct {
	Turn       int
	ActorID    string
	TargetID   string
	Move       string
	Category   roster.Category
	Hit        bool
	Damage     int
	Eliminated []string
	Entered    []string
	TimedOut   bool
	At         time.Time
}

// Match is a running match.
type Match struct {
	ID           string
	Format       game.Format
	GuildID      string
	ChannelID    string
	Participants []*Participant
	Turn         int
	History      []Action
	StartedAt    time.Time

	roster       *roster.Roster
	rng          *rand.Rand
	now          func() time.Time
	byUser       map[string]int
	rotation     []int
	queue        []int
	actor        int
	eliminations int
	result       *Result
}

// New validates the entrants and deals wrestlers.
func New(cfg Config) (*Match, error) {
	lo, hi := cfg.Format.ParticipantRange()
	if hi == 0 {
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidParticipants, cfg.Format)
	}
	if n := len(cfg.Entrants); n < lo || n > hi {
		return nil, fmt.Errorf("%w: %s needs %d-%d participants, got %d", ErrInvalidParticipants, cfg.Format, lo, hi, n)
	}
	if cfg.Roster == nil {
		return nil, fmt.Errorf("match requires a roster")
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	wrestlers, err := cfg.Roster.AssignWrestlers(len(cfg.Entrants), rng)
	if err != nil {
		return nil, err
	}

	m := &Match{
		ID:        uuid.NewString(),
		Format:    cfg.Format,
		GuildID:   cfg.GuildID,
		ChannelID: cfg.ChannelID,
		StartedAt: now(),
		roster:    cfg.Roster,
		rng:       rng,
		now:       now,
		byUser:    make(map[string]int, len(cfg.Entrants)),
	}

	half := len(cfg.Entrants) / 2
	for i, e := range cfg.Entrants {
		if _, dup := m.byUser[e.UserID]; dup {
			return nil, fmt.Errorf("%w: %s entered twice", ErrInvalidParticipants, e.UserID)
		}
		team := i
		if cfg.Format.IsTeamFormat() || cfg.Format == game.Format1v1 {
			team = 0
			if i >= half {
				team = 1
			}
		}
		m.byUser[e.UserID] = i
		m.Participants = append(m.Participants, &Participant{
			UserID:   e.UserID,
			Name:     e.Name,
			Wrestler: wrestlers[i],
			Team:     team,
			Health:   game.StartingHealth,
		})
	}

	switch cfg.Format {
	case game.FormatGauntlet, game.FormatRoyalRumble:
		for i := range m.Participants {
			if i < 2 {
				m.enter(i)
			} else {
				m.queue = append(m.queue, i)
			}
		}
	default:
		// Interleave teams so they alternate turns.
		for i := 0; i < half; i++ {
			m.enter(i)
			m.enter(i + half)
		}
	}
	m.actor = m.rotation[0]
	return m, nil
}

func (m *Match) enter(i int) {
	m.Participants[i].Entered = true
	m.rotation = append(m.rotation, i)
}

// Over reports whether the match has finished.
func (m *Match) Over() bool {
	return m.result != nil
}

// Result returns the final result, nil while the match is running.
func (m *Match) Result() *Result {
	return m.result
}

// Participant returns the participant for a user.
func (m *Match) Participant(userID string) (*Participant, bool) {
	i, ok := m.byUser[userID]
	if !ok {
		return nil, false
	}
	return m.Participants[i], true
}

// CurrentActor returns the participant whose turn it is.
func (m *Match) CurrentActor() *Participant {
	return m.Participants[m.actor]
}

// Waiting returns participants still queued to enter.
func (m *Match) Waiting() []*Participant {
	out := make([]*Participant, 0, len(m.queue))
	for _, i := range m.queue {
		out = append(out, m.Participants[i])
	}
	return out
}

// InRing returns entered participants that are still standing.
func (m *Match) InRing() []*Participant {
	var out []*Participant
	for _, i := range m.rotation {
		if p := m.Participants[i]; !p.Eliminated {
			out = append(out, p)
		}
	}
	return out
}

// Submit resolves the current actor's move. An empty targetID picks the next
// opponent in turn order.
func (m *Match) Submit(userID, moveInput, targetID string) (Action, error) {
	if m.Over() {
		return Action{}, ErrMatchOver
	}
	idx, ok := m.byUser[userID]
	if !ok {
		return Action{}, ErrNotParticipant
	}
	if idx != m.actor {
		return Action{}, ErrNotYourTurn
	}

	move, err := m.roster.LookupMove(moveInput)
	if err != nil {
		return Action{}, err
	}

	target, err := m.resolveTarget(idx, targetID)
	if err != nil {
		return Action{}, err
	}

	actor := m.Participants[idx]
	stats := move.Stats
	if move.Category == roster.CategoryFinisher {
		if actor.Momentum < stats.MomentumCost {
			return Action{}, ErrFinisherNotReady
		}
		actor.Momentum -= stats.MomentumCost
	}

	m.Turn++
	act := Action{
		Turn:     m.Turn,
		ActorID:  actor.UserID,
		TargetID: m.Participants[target].UserID,
		Move:     move.Name,
		Category: move.Category,
		At:       m.now(),
	}

	if m.rng.IntN(100) < stats.Accuracy {
		act.Hit = true
		act.Damage = stats.MinDamage + m.rng.IntN(stats.MaxDamage-stats.MinDamage+1)
		actor.Momentum = min(actor.Momentum+stats.Momentum, game.MaxMomentum)

		t := m.Participants[target]
		t.Health = max(t.Health-act.Damage, 0)
		if t.Health == 0 {
			m.eliminate(target, ReasonPinfall)
			act.Eliminated = append(act.Eliminated, t.UserID)
		}
	}

	m.afterTurn(&act, ReasonPinfall, true)
	return act, nil
}

// Timeout counts out the current actor.
func (m *Match) Timeout() (Action, error) {
	if m.Over() {
		return Action{}, ErrMatchOver
	}
	actor := m.Participants[m.actor]
	m.Turn++
	act := Action{
		Turn:       m.Turn,
		ActorID:    actor.UserID,
		TimedOut:   true,
		Eliminated: []string{actor.UserID},
		At:         m.now(),
	}
	m.eliminate(m.actor, ReasonTimeout)
	m.afterTurn(&act, ReasonTimeout, true)
	return act, nil
}

// Forfeit eliminates a participant at their own request.
func (m *Match) Forfeit(userID string) (Action, error) {
	if m.Over() {
		return Action{}, ErrMatchOver
	}
	idx, ok := m.byUser[userID]
	if !ok {
		return Action{}, ErrNotParticipant
	}
	p := m.Participants[idx]
	if p.Eliminated {
		return Action{}, ErrNotParticipant
	}

	// Only a forfeit by the current actor resolves the turn.
	passTurn := idx == m.actor
	if passTurn {
		m.Turn++
	}
	act := Action{
		Turn:       m.Turn,
		ActorID:    userID,
		Eliminated: []string{userID},
		At:         m.now(),
	}
	if !p.Entered {
		m.removeFromQueue(idx)
	}
	m.eliminate(idx, ReasonForfeit)
	m.afterTurn(&act, ReasonForfeit, passTurn)
	return act, nil
}

func (m *Match) removeFromQueue(idx int) {
	for i, q := range m.queue {
		if q == idx {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return
		}
	}
}

func (m *Match) eliminate(idx int, reason Reason) {
	p := m.Participants[idx]
	m.eliminations++
	p.Eliminated = true
	p.EliminatedBy = reason
	p.EliminationOrder = m.eliminations
}

func (m *Match) resolveTarget(actorIdx int, targetID string) (int, error) {
	if targetID != "" {
		idx, ok := m.byUser[targetID]
		if !ok || !m.isOpponent(actorIdx, idx) {
			return 0, ErrInvalidTarget
		}
		return idx, nil
	}
	pos := m.rotationPos(actorIdx)
	for step := 1; step <= len(m.rotation); step++ {
		idx := m.rotation[(pos+step)%len(m.rotation)]
		if m.isOpponent(actorIdx, idx) {
			return idx, nil
		}
	}
	return 0, ErrInvalidTarget
}

func (m *Match) isOpponent(actorIdx, idx int) bool {
	if actorIdx == idx {
		return false
	}
	p := m.Participants[idx]
	if !p.Entered || p.Eliminated {
		return false
	}
	if m.Format.IsTeamFormat() && p.Team == m.Participants[actorIdx].Team {
		return false
	}
	return true
}

func (m *Match) rotationPos(idx int) int {
	for pos, i := range m.rotation {
		if i == idx {
			return pos
		}
	}
	return 0
}

// afterTurn brings in new entrants, checks for a finish and passes the turn.
func (m *Match) afterTurn(act *Action, reason Reason, passTurn bool) {
	m.History = append(m.History, *act)

	switch m.Format {
	case game.FormatGauntlet:
		for len(m.queue) > 0 && len(m.InRing()) < 2 {
			act.Entered = append(act.Entered, m.enterNext())
		}
	case game.FormatRoyalRumble:
		if passTurn && len(m.queue) > 0 && m.Turn%game.RumbleEntryInterval == 0 {
			act.Entered = append(act.Entered, m.enterNext())
		}
		for len(m.queue) > 0 && len(m.InRing()) < 2 {
			act.Entered = append(act.Entered, m.enterNext())
		}
	}
	m.History[len(m.History)-1] = *act

	if m.finished() {
		m.finish(reason)
		return
	}
	if passTurn {
		m.advance()
	}
}

func (m *Match) enterNext() string {
	idx := m.queue[0]
	m.queue = m.queue[1:]
	m.enter(idx)
	return m.Participants[idx].UserID
}

func (m *Match) finished() bool {
	if m.Format.IsTeamFormat() || m.Format == game.Format1v1 {
		alive := map[int]bool{}
		for _, p := range m.Participants {
			if !p.Eliminated {
				alive[p.Team] = true
			}
		}
		return len(alive) <= 1
	}
	return len(m.queue) == 0 && len(m.InRing()) <= 1
}

func (m *Match) advance() {
	pos := m.rotationPos(m.actor)
	for step := 1; step <= len(m.rotation); step++ {
		idx := m.rotation[(pos+step)%len(m.rotation)]
		if !m.Participants[idx].Eliminated {
			m.actor = idx
			return
		}
	}
}

// Package session tracks pending challenges, team formations, rumble lobbies
// and active matches. A user holds at most one pending or active entry per
// format.
package session

import (
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dmetrikx/goWrestleBot/internal/game"
	"github.com/Dmetrikx/goWrestleBot/internal/match"
	"github.com/Dmetrikx/goWrestleBot/internal/turntimer"
)

// Pending is a match waiting for confirmation. Entrants are ordered; for team
// formats the first half is the challenger's team.
type Pending struct {
	ID          string
	Format      game.Format
	GuildID     string
	ChannelID   string
	InitiatorID string
	Entrants    []match.Entrant
	Accepted    map[string]bool
	Lobby       bool
	CreatedAt   time.Time
	ExpiresAt   time.Time

	starting bool
}

// Awaiting returns the entrants that have not accepted yet.
func (p *Pending) Awaiting() []string {
	var out []string
	for _, e := range p.Entrants {
		if !p.Accepted[e.UserID] {
			out = append(out, e.UserID)
		}
	}
	return out
}

// Has reports whether the user is an entrant.
func (p *Pending) Has(userID string) bool {
	return slices.ContainsFunc(p.Entrants, func(e match.Entrant) bool { return e.UserID == userID })
}

func (p *Pending) clone() *Pending {
	c := *p
	c.Entrants = slices.Clone(p.Entrants)
	c.Accepted = make(map[string]bool, len(p.Accepted))
	for k, v := range p.Accepted {
		c.Accepted[k] = v
	}
	return &c
}

// ActiveMatch is a running match with its turn timer. Lock it before touching
// Match or Timer.
type ActiveMatch struct {
	sync.Mutex
	Match     *match.Match
	Timer     *turntimer.Timer
	PendingID string

	// StatusMessageID is the turn prompt the countdown edits.
	StatusMessageID string

	users map[string]bool
}

// Request describes a new pending entry.
type Request struct {
	Format    game.Format
	GuildID   string
	ChannelID string
	Initiator match.Entrant
	// Others are the invited users, in team order after the initiator.
	Others    []match.Entrant
	// Lobby opens a join-anyone lobby instead of a challenge.
	Lobby     bool
}

// Registry holds all pending and active matches.
type Registry struct {
	mu      sync.Mutex
	pending map[string]*Pending
	active  map[string]*ActiveMatch
	now     func() time.Time
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		pending: make(map[string]*Pending),
		active:  make(map[string]*ActiveMatch),
		now:     time.Now,
	}
}

// SetClock overrides the time source.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

// busy reports whether the user holds a pending or active entry of format.
// Caller holds r.mu.
func (r *Registry) busy(userID string, format game.Format) bool {
	for _, p := range r.pending {
		if p.Format == format && p.Has(userID) {
			return true
		}
	}
	for _, a := range r.active {
		if a.Match.Format == format && a.users[userID] {
			return true
		}
	}
	return false
}

// CreatePending registers a challenge or lobby. The initiator is accepted
// immediately.
func (r *Registry) CreatePending(req Request) (*Pending, error) {
	entrants := append([]match.Entrant{req.Initiator}, req.Others...)
	seen := make(map[string]bool, len(entrants))
	for _, e := range entrants {
		if seen[e.UserID] {
			return nil, fmt.Errorf("%w: %s listed twice", match.ErrInvalidParticipants, e.UserID)
		}
		seen[e.UserID] = true
	}
	if !req.Lobby {
		lo, hi := req.Format.ParticipantRange()
		if n := len(entrants); n < lo || n > hi {
			return nil, fmt.Errorf("%w: %s needs %d-%d participants, got %d", match.ErrInvalidParticipants, req.Format, lo, hi, n)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range entrants {
		if r.busy(e.UserID, req.Format) {
			return nil, &BusyError{UserID: e.UserID, Format: req.Format}
		}
	}

	expiry := game.ChallengeExpiry
	if req.Lobby {
		expiry = game.LobbyExpiry
	}
	now := r.now()
	p := &Pending{
		ID:          uuid.NewString(),
		Format:      req.Format,
		GuildID:     req.GuildID,
		ChannelID:   req.ChannelID,
		InitiatorID: req.Initiator.UserID,
		Entrants:    entrants,
		Accepted:    map[string]bool{req.Initiator.UserID: true},
		Lobby:       req.Lobby,
		CreatedAt:   now,
		ExpiresAt:   now.Add(expiry),
	}
	r.pending[p.ID] = p
	return p.clone(), nil
}

// find returns the oldest open pending entry in channel matching fn.
// Caller holds r.mu.
func (r *Registry) find(channelID string, fn func(*Pending) bool) *Pending {
	var found *Pending
	for _, p := range r.pending {
		if p.starting || p.ChannelID != channelID || !fn(p) {
			continue
		}
		if found == nil || p.CreatedAt.Before(found.CreatedAt) {
			found = p
		}
	}
	return found
}

// Accept confirms the user's place in a challenge. ready is true once every
// entrant has accepted; the entry then waits for StartMatch or Cancel.
func (r *Registry) Accept(userID, channelID string) (p *Pending, ready bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := r.find(channelID, func(p *Pending) bool {
		return !p.Lobby && p.Has(userID) && !p.Accepted[userID]
	})
	if found == nil {
		return nil, false, ErrNoPending
	}
	found.Accepted[userID] = true
	if len(found.Awaiting()) == 0 {
		found.starting = true
		ready = true
	}
	return found.clone(), ready, nil
}

// Decline withdraws the user from a challenge, cancelling it.
func (r *Registry) Decline(userID, channelID string) (*Pending, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := r.find(channelID, func(p *Pending) bool {
		return !p.Lobby && p.Has(userID)
	})
	if found == nil {
		return nil, ErrNoPending
	}
	delete(r.pending, found.ID)
	return found.clone(), nil
}

// Join adds the user to the open lobby in channel.
func (r *Registry) Join(entrant match.Entrant, channelID string) (*Pending, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := r.find(channelID, func(p *Pending) bool { return p.Lobby })
	if found == nil {
		return nil, ErrNoPending
	}
	if found.Has(entrant.UserID) {
		return nil, ErrAlreadyJoined
	}
	if _, hi := found.Format.ParticipantRange(); len(found.Entrants) >= hi {
		return nil, ErrLobbyFull
	}
	if r.busy(entrant.UserID, found.Format) {
		return nil, &BusyError{UserID: entrant.UserID, Format: found.Format}
	}
	found.Entrants = append(found.Entrants, entrant)
	found.Accepted[entrant.UserID] = true
	return found.clone(), nil
}

// Leave removes the user from the lobby in channel. When the host leaves the
// lobby is cancelled and cancelled is true.
func (r *Registry) Leave(userID, channelID string) (p *Pending, cancelled bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := r.find(channelID, func(p *Pending) bool { return p.Lobby && p.Has(userID) })
	if found == nil {
		return nil, false, ErrNotInLobby
	}
	if found.InitiatorID == userID {
		delete(r.pending, found.ID)
		return found.clone(), true, nil
	}
	found.Entrants = slices.DeleteFunc(found.Entrants, func(e match.Entrant) bool { return e.UserID == userID })
	delete(found.Accepted, userID)
	return found.clone(), false, nil
}

// StartLobby closes the host's lobby for entries. The entry then waits for
// StartMatch or Cancel.
func (r *Registry) StartLobby(userID, channelID string) (*Pending, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := r.find(channelID, func(p *Pending) bool { return p.Lobby && p.Has(userID) })
	if found == nil {
		return nil, ErrNoPending
	}
	if found.InitiatorID != userID {
		return nil, ErrNotInitiator
	}
	if lo, _ := found.Format.ParticipantRange(); len(found.Entrants) < lo {
		return nil, fmt.Errorf("%w: need at least %d, have %d", ErrNotEnough, lo, len(found.Entrants))
	}
	found.starting = true
	return found.clone(), nil
}

// Cancel drops a pending entry.
func (r *Registry) Cancel(pendingID string) {
	r.mu.Lock()
	delete(r.pending, pendingID)
	r.mu.Unlock()
}

// PendingFor returns the user's open entries in channel, oldest first.
func (r *Registry) PendingFor(userID, channelID string) []*Pending {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Pending
	for _, p := range r.pending {
		if p.ChannelID == channelID && p.Has(userID) {
			out = append(out, p.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Sweep removes and returns open entries that expired before now.
func (r *Registry) Sweep(now time.Time) []*Pending {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Pending
	for id, p := range r.pending {
		if !p.starting && !now.Before(p.ExpiresAt) {
			delete(r.pending, id)
			out = append(out, p.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// StartMatch registers m as active with its turn timer, replacing pending
// entry pendingID (which may be empty). Participants must not hold another
// active match of the same format. The entry is returned locked so the caller
// can announce the match before any other handler sees it.
func (r *Registry) StartMatch(m *match.Match, timer *turntimer.Timer, pendingID string) (*ActiveMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.pending, pendingID)
	for _, p := range m.Participants {
		if r.busy(p.UserID, m.Format) {
			return nil, &BusyError{UserID: p.UserID, Format: m.Format}
		}
	}

	a := &ActiveMatch{
		Match:     m,
		Timer:     timer,
		PendingID: pendingID,
		users:     make(map[string]bool, len(m.Participants)),
	}
	for _, p := range m.Participants {
		a.users[p.UserID] = true
	}
	a.Lock()
	r.active[m.ID] = a
	return a, nil
}

// ActiveFor returns the active matches in channel the user takes part in.
func (r *Registry) ActiveFor(userID, channelID string) []*ActiveMatch {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*ActiveMatch
	for _, a := range r.active {
		if a.Match.ChannelID == channelID && a.users[userID] {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Match.StartedAt.Before(out[j].Match.StartedAt) })
	return out
}

// InChannel returns every active match in channel.
func (r *Registry) InChannel(channelID string) []*ActiveMatch {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*ActiveMatch
	for _, a := range r.active {
		if a.Match.ChannelID == channelID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Match.StartedAt.Before(out[j].Match.StartedAt) })
	return out
}

// Active returns every active match.
func (r *Registry) Active() []*ActiveMatch {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*ActiveMatch, 0, len(r.active))
	for _, a := range r.active {
		out = append(out, a)
	}
	return out
}

// EndMatch unregisters a match. It returns false if the match was already
// ended, so only one caller settles it.
func (r *Registry) EndMatch(matchID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.active[matchID]; !ok {
		return false
	}
	delete(r.active, matchID)
	return true
}

// Counts returns the number of active matches and pending entries.
func (r *Registry) Counts() (active, pending int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active), len(r.pending)
}

package session

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dmetrikx/goWrestleBot/internal/game"
	"github.com/Dmetrikx/goWrestleBot/internal/match"
	"github.com/Dmetrikx/goWrestleBot/internal/roster"
	"github.com/Dmetrikx/goWrestleBot/internal/turntimer"
)

func entrant(id string) match.Entrant {
	return match.Entrant{UserID: id, Name: "user-" + id}
}

func challenge(format game.Format, initiator string, others ...string) Request {
	req := Request{Format: format, GuildID: "g", ChannelID: "c", Initiator: entrant(initiator)}
	for _, o := range others {
		req.Others = append(req.Others, entrant(o))
	}
	return req
}

func newMatch(t *testing.T, p *Pending) *match.Match {
	t.Helper()
	m, err := match.New(match.Config{
		Format:    p.Format,
		GuildID:   p.GuildID,
		ChannelID: p.ChannelID,
		Entrants:  p.Entrants,
		Roster:    roster.MustDefault(),
		Rand:      rand.New(rand.NewPCG(1, 2)),
	})
	require.NoError(t, err)
	return m
}

func TestChallengeAcceptFlow(t *testing.T) {
	r := NewRegistry()

	p, err := r.CreatePending(challenge(game.Format1v1, "a", "b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, p.Awaiting())

	_, _, err = r.Accept("a", "c")
	assert.ErrorIs(t, err, ErrNoPending, "initiator has already accepted")

	_, _, err = r.Accept("b", "other-channel")
	assert.ErrorIs(t, err, ErrNoPending)

	p, ready, err := r.Accept("b", "c")
	require.NoError(t, err)
	assert.True(t, ready)

	timer := turntimer.New(time.Minute, nil, turntimer.Callbacks{})
	a, err := r.StartMatch(newMatch(t, p), timer, p.ID)
	require.NoError(t, err)
	assert.False(t, a.TryLock(), "a started match is handed back locked")
	assert.Same(t, timer, a.Timer)
	a.Unlock()

	active, pending := r.Counts()
	assert.Equal(t, 1, active)
	assert.Zero(t, pending)

	got := r.ActiveFor("b", "c")
	require.Len(t, got, 1)
	assert.Same(t, a, got[0])
	assert.Empty(t, r.ActiveFor("b", "elsewhere"))

	assert.True(t, r.EndMatch(a.Match.ID))
	assert.False(t, r.EndMatch(a.Match.ID))
}

func TestTeamChallengeNeedsEveryone(t *testing.T) {
	r := NewRegistry()

	_, err := r.CreatePending(challenge(game.Format2v2, "a", "b", "c"))
	assert.ErrorIs(t, err, match.ErrInvalidParticipants)

	_, err = r.CreatePending(challenge(game.Format2v2, "a", "b", "b", "c"))
	assert.ErrorIs(t, err, match.ErrInvalidParticipants)

	_, err = r.CreatePending(challenge(game.Format2v2, "a", "b", "c", "d"))
	require.NoError(t, err)

	for _, id := range []string{"b", "c"} {
		_, ready, err := r.Accept(id, "c")
		require.NoError(t, err)
		assert.False(t, ready)
	}
	p, ready, err := r.Accept("d", "c")
	require.NoError(t, err)
	assert.True(t, ready)
	assert.Empty(t, p.Awaiting())
}

func TestOneMatchPerFormat(t *testing.T) {
	r := NewRegistry()

	_, err := r.CreatePending(challenge(game.Format1v1, "a", "b"))
	require.NoError(t, err)

	_, err = r.CreatePending(challenge(game.Format1v1, "c", "a"))
	var busy *BusyError
	require.True(t, errors.As(err, &busy))
	assert.Equal(t, "a", busy.UserID)
	assert.ErrorIs(t, err, ErrBusy)

	// A different format is allowed.
	_, err = r.CreatePending(challenge(game.Format2v2, "a", "c", "d", "e"))
	assert.NoError(t, err)
}

func TestBusyWhileActive(t *testing.T) {
	r := NewRegistry()

	p, err := r.CreatePending(challenge(game.Format1v1, "a", "b"))
	require.NoError(t, err)
	p, _, err = r.Accept("b", "c")
	require.NoError(t, err)
	a, err := r.StartMatch(newMatch(t, p), nil, p.ID)
	require.NoError(t, err)
	a.Unlock()

	_, err = r.CreatePending(challenge(game.Format1v1, "b", "x"))
	assert.ErrorIs(t, err, ErrBusy)

	r.EndMatch(a.Match.ID)
	_, err = r.CreatePending(challenge(game.Format1v1, "b", "x"))
	assert.NoError(t, err)
}

func TestDeclineCancels(t *testing.T) {
	r := NewRegistry()

	p, err := r.CreatePending(challenge(game.Format1v1, "a", "b"))
	require.NoError(t, err)

	got, err := r.Decline("b", "c")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, pending := r.Counts()
	assert.Zero(t, pending)

	_, err = r.Decline("b", "c")
	assert.ErrorIs(t, err, ErrNoPending)
}

func TestLobby(t *testing.T) {
	r := NewRegistry()

	req := challenge(game.FormatRoyalRumble, "host")
	req.Lobby = true
	_, err := r.CreatePending(req)
	require.NoError(t, err)

	_, err = r.StartLobby("host", "c")
	assert.ErrorIs(t, err, ErrNotEnough)

	for _, id := range []string{"b", "c", "d"} {
		_, err := r.Join(entrant(id), "c")
		require.NoError(t, err)
	}
	_, err = r.Join(entrant("b"), "c")
	assert.ErrorIs(t, err, ErrAlreadyJoined)

	_, err = r.StartLobby("b", "c")
	assert.ErrorIs(t, err, ErrNotInitiator)

	p, cancelled, err := r.Leave("d", "c")
	require.NoError(t, err)
	assert.False(t, cancelled)
	assert.Len(t, p.Entrants, 3)

	_, err = r.Join(entrant("d"), "c")
	require.NoError(t, err)

	p, err = r.StartLobby("host", "c")
	require.NoError(t, err)
	assert.Len(t, p.Entrants, 4)

	// Started lobbies no longer accept entrants.
	_, err = r.Join(entrant("e"), "c")
	assert.ErrorIs(t, err, ErrNoPending)
}

func TestLobbyFull(t *testing.T) {
	r := NewRegistry()

	req := challenge(game.FormatGauntlet, "host")
	req.Lobby = true
	_, err := r.CreatePending(req)
	require.NoError(t, err)

	for i := 1; i < game.GauntletMaxParticipants; i++ {
		_, err := r.Join(entrant(string(rune('a'+i))), "c")
		require.NoError(t, err)
	}
	_, err = r.Join(entrant("late"), "c")
	assert.ErrorIs(t, err, ErrLobbyFull)
}

func TestHostLeavingCancelsLobby(t *testing.T) {
	r := NewRegistry()

	req := challenge(game.FormatRoyalRumble, "host")
	req.Lobby = true
	_, err := r.CreatePending(req)
	require.NoError(t, err)

	_, cancelled, err := r.Leave("host", "c")
	require.NoError(t, err)
	assert.True(t, cancelled)

	_, _, err = r.Leave("host", "c")
	assert.ErrorIs(t, err, ErrNotInLobby)
}

func TestSweepExpires(t *testing.T) {
	r := NewRegistry()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.SetClock(func() time.Time { return now })

	_, err := r.CreatePending(challenge(game.Format1v1, "a", "b"))
	require.NoError(t, err)

	req := challenge(game.FormatRoyalRumble, "host")
	req.Lobby = true
	_, err = r.CreatePending(req)
	require.NoError(t, err)

	assert.Empty(t, r.Sweep(now.Add(game.ChallengeExpiry-time.Second)))

	expired := r.Sweep(now.Add(game.ChallengeExpiry))
	require.Len(t, expired, 1)
	assert.Equal(t, game.Format1v1, expired[0].Format)

	expired = r.Sweep(now.Add(game.LobbyExpiry))
	require.Len(t, expired, 1)
	assert.True(t, expired[0].Lobby)
}

func TestSweepSkipsStarting(t *testing.T) {
	r := NewRegistry()
	now := time.Now()
	r.SetClock(func() time.Time { return now })

	_, err := r.CreatePending(challenge(game.Format1v1, "a", "b"))
	require.NoError(t, err)
	_, ready, err := r.Accept("b", "c")
	require.NoError(t, err)
	require.True(t, ready)

	assert.Empty(t, r.Sweep(now.Add(time.Hour)))
}

func TestPendingForReturnsCopies(t *testing.T) {
	r := NewRegistry()

	_, err := r.CreatePending(challenge(game.Format1v1, "a", "b"))
	require.NoError(t, err)

	got := r.PendingFor("b", "c")
	require.Len(t, got, 1)
	got[0].Accepted["b"] = true

	again := r.PendingFor("b", "c")
	assert.False(t, again[0].Accepted["b"])
}

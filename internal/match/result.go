package match

import (
	"sort"
	"time"

	"github.com/Dmetrikx/goWrestleBot/internal/game"
)

// Result is the outcome of a finished match.
type Result struct {
	MatchID    string
	Format     game.Format
	GuildID    string
	ChannelID  string
	Winners    []string
	Losers     []string
	Placements []string
	Reason     Reason
	Turns      int
	StartedAt  time.Time
	EndedAt    time.Time
}

// Duration is the wall-clock length of the match.
func (r *Result) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// Participants returns every user id in placement order.
func (r *Result) Participants() []string {
	return append([]string(nil), r.Placements...)
}

// Roles maps every participant to the reward role they finished with.
func (r *Result) Roles() map[string]game.Role {
	roles := make(map[string]game.Role, len(r.Placements))
	winners := make(map[string]bool, len(r.Winners))
	for _, w := range r.Winners {
		winners[w] = true
	}

	for i, id := range r.Placements {
		switch {
		case winners[id]:
			roles[id] = game.RoleWinner
		case r.Format == game.FormatRoyalRumble && i < 3:
			roles[id] = game.RoleTop3
		case r.Format == game.FormatGauntlet || r.Format == game.FormatRoyalRumble:
			roles[id] = game.RoleParticipant
		default:
			roles[id] = game.RoleLoser
		}
	}
	return roles
}

func (m *Match) finish(reason Reason) {
	res := &Result{
		MatchID:   m.ID,
		Format:    m.Format,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Reason:    reason,
		Turns:     m.Turn,
		StartedAt: m.StartedAt,
		EndedAt:   m.now(),
	}

	winnerTeam := -1
	for _, p := range m.Participants {
		if !p.Eliminated {
			winnerTeam = p.Team
			break
		}
	}

	var winners, losers []*Participant
	for _, p := range m.Participants {
		if p.Team == winnerTeam {
			winners = append(winners, p)
		} else {
			losers = append(losers, p)
		}
	}

	// Standing participants first, then by latest elimination.
	byFinish := func(ps []*Participant) {
		sort.SliceStable(ps, func(i, j int) bool {
			a, b := ps[i], ps[j]
			if a.Eliminated != b.Eliminated {
				return !a.Eliminated
			}
			return a.EliminationOrder > b.EliminationOrder
		})
	}
	byFinish(winners)
	byFinish(losers)

	for _, p := range winners {
		res.Winners = append(res.Winners, p.UserID)
		res.Placements = append(res.Placements, p.UserID)
	}
	for _, p := range losers {
		res.Losers = append(res.Losers, p.UserID)
		res.Placements = append(res.Placements, p.UserID)
	}
	m.result = res
}

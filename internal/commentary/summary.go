package commentary

import (
	"fmt"
	"strings"
	"time"

	"github.com/Dmetrikx/goWrestleBot/internal/game"
	"github.com/Dmetrikx/goWrestleBot/internal/match"
	"github.com/Dmetrikx/goWrestleBot/internal/roster"
)

const maxHighlights = 8

// Competitor is a participant as the commentator sees them.
type Competitor struct {
	Name     string
	Wrestler string
}

// Summary is the material a recap is written from.
type Summary struct {
	MatchID      string
	Format       game.Format
	Winners      []Competitor
	Losers       []Competitor
	Reason       match.Reason
	Turns        int
	Duration     time.Duration
	DecidingMove string
	Highlights   []string
}

// Summarize extracts a Summary from a finished match.
func Summarize(m *match.Match) Summary {
	res := m.Result()
	s := Summary{
		MatchID: m.ID,
		Format:  m.Format,
		Turns:   m.Turn,
	}
	if res == nil {
		return s
	}
	s.Reason = res.Reason
	s.Duration = res.Duration()

	competitor := func(id string) Competitor {
		p, _ := m.Participant(id)
		return Competitor{Name: p.Name, Wrestler: p.Wrestler}
	}
	wrestler := func(id string) string {
		if p, ok := m.Participant(id); ok {
			return p.Wrestler
		}
		return id
	}
	for _, id := range res.Winners {
		s.Winners = append(s.Winners, competitor(id))
	}
	for _, id := range res.Losers {
		s.Losers = append(s.Losers, competitor(id))
	}

	for _, act := range m.History {
		if act.Hit && len(act.Eliminated) > 0 {
			s.DecidingMove = act.Move
		}
		line := highlight(act, wrestler)
		if line == "" {
			continue
		}
		s.Highlights = append(s.Highlights, line)
	}
	if len(s.Highlights) > maxHighlights {
		s.Highlights = s.Highlights[len(s.Highlights)-maxHighlights:]
	}
	return s
}

func highlight(act match.Action, wrestler func(string) string) string {
	switch {
	case act.TimedOut:
		return fmt.Sprintf("%s was counted out", wrestler(act.ActorID))
	case act.Move == "" && len(act.Eliminated) > 0:
		return fmt.Sprintf("%s walked out of the match", wrestler(act.ActorID))
	case act.Hit && len(act.Eliminated) > 0:
		return fmt.Sprintf("%s pinned %s with a %s", wrestler(act.ActorID), wrestler(act.TargetID), act.Move)
	case act.Hit && act.Category == roster.CategoryFinisher:
		return fmt.Sprintf("%s hit the %s on %s for %d", wrestler(act.ActorID), act.Move, wrestler(act.TargetID), act.Damage)
	case act.Hit && act.Damage >= 18:
		return fmt.Sprintf("%s connected with a %s for %d", wrestler(act.ActorID), act.Move, act.Damage)
	}
	return ""
}

// Prompt renders the summary as the user message of an AI request.
func (s Summary) Prompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Format: %s\n", s.Format.DisplayName())
	fmt.Fprintf(&b, "Winner(s): %s\n", names(s.Winners))
	if len(s.Losers) > 0 {
		fmt.Fprintf(&b, "Defeated: %s\n", names(s.Losers))
	}
	fmt.Fprintf(&b, "Finish: %s after %d turns (%s)\n", s.Reason, s.Turns, s.Duration.Round(time.Second))
	if s.DecidingMove != "" {
		fmt.Fprintf(&b, "Deciding move: %s\n", s.DecidingMove)
	}
	if len(s.Highlights) > 0 {
		b.WriteString("Highlights:\n")
		for _, h := range s.Highlights {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}
	return b.String()
}

func names(cs []Competitor) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = fmt.Sprintf("%s (%s)", c.Wrestler, c.Name)
	}
	return strings.Join(parts, ", ")
}

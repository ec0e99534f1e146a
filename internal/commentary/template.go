package commentary

import (
	"context"
	"fmt"
	"strings"

	"github.com/Dmetrikx/goWrestleBot/internal/match"
)

var openers = []string{
	"WHAT A MATCH!",
	"BAH GAWD!",
	"The crowd is on its feet!",
	"You will not see a better contest this year!",
}

// Template writes recaps from fixed phrases. It never fails.
type Template struct{}

// Recap implements Commentator.
func (Template) Recap(_ context.Context, s Summary) (string, error) {
	var b strings.Builder
	b.WriteString(openers[s.Turns%len(openers)])
	b.WriteByte(' ')

	winner := "Nobody"
	if len(s.Winners) > 0 {
		parts := make([]string, len(s.Winners))
		for i, w := range s.Winners {
			parts[i] = w.Wrestler
		}
		winner = strings.Join(parts, " and ")
	}

	win, take := "wins", "takes"
	if len(s.Winners) > 1 {
		win, take = "win", "take"
	}

	switch s.Reason {
	case match.ReasonTimeout:
		fmt.Fprintf(&b, "%s %s it after the opposition was counted out", winner, win)
	case match.ReasonForfeit:
		fmt.Fprintf(&b, "%s %s it after the opposition walked out", winner, take)
	default:
		if s.DecidingMove != "" {
			fmt.Fprintf(&b, "%s %s it with a devastating %s", winner, win, s.DecidingMove)
		} else {
			fmt.Fprintf(&b, "%s %s it", winner, win)
		}
	}
	fmt.Fprintf(&b, " in the %s after %d turns!", s.Format.DisplayName(), s.Turns)

	if n := len(s.Highlights); n > 0 {
		fmt.Fprintf(&b, " Earlier, %s.", s.Highlights[0])
	}
	return b.String(), nil
}

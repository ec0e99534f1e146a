package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Dmetrikx/goWrestleBot/internal/commentary"
	"github.com/Dmetrikx/goWrestleBot/internal/economy"
	"github.com/Dmetrikx/goWrestleBot/internal/game"
	"github.com/Dmetrikx/goWrestleBot/internal/match"
	"github.com/Dmetrikx/goWrestleBot/internal/session"
)

// beginTurn prompts the current actor and arms the countdown. Caller holds a.
func (b *Bot) beginTurn(ctx context.Context, a *session.ActiveMatch) {
	actor := a.Match.CurrentActor()
	prompt := fmt.Sprintf("🎤 <@%s> (**%s**), it's your turn! Use `%smove <move> [@target]`. You have %d seconds.",
		actor.UserID, actor.Wrestler, b.prefixFor(ctx, a.Match.GuildID), int(b.turnTimeout.Seconds()))

	a.StatusMessageID = ""
	if msg := b.send(ctx, a.Match.ChannelID, prompt); msg != nil {
		a.StatusMessageID = msg.ID
	}
	a.Timer.Start(a.Match.Turn)
}

// current reports whether a timer event for turn still applies. Caller holds a.
func current(a *session.ActiveMatch, turn int) bool {
	return !a.Match.Over() && a.Match.Turn == turn
}

func (b *Bot) onTurnWarning(a *session.ActiveMatch, turn int, remaining time.Duration) {
	ctx := context.Background()
	a.Lock()
	defer a.Unlock()
	if !current(a, turn) {
		return
	}

	actor := a.Match.CurrentActor()
	secs := int(remaining.Round(time.Second).Seconds())
	text := fmt.Sprintf("⏳ <@%s> (**%s**) has %d seconds left to make a move!", actor.UserID, actor.Wrestler, secs)

	// The countdown edits the prompt; the last marks also ping.
	if a.StatusMessageID != "" {
		if _, err := b.session.ChannelMessageEdit(a.Match.ChannelID, a.StatusMessageID, text); err != nil {
			b.logger.WarnContext(ctx, "failed to edit countdown", "match_id", a.Match.ID, "error", err)
		}
	}
	if remaining <= b.pingThreshold || a.StatusMessageID == "" {
		b.send(ctx, a.Match.ChannelID, text)
	}
}

func (b *Bot) onTurnTimeout(a *session.ActiveMatch, turn int) {
	ctx := context.Background()
	a.Lock()
	defer a.Unlock()
	if !current(a, turn) {
		return
	}

	act, err := a.Match.Timeout()
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to time out turn", "match_id", a.Match.ID, "error", err)
		return
	}
	b.metrics.TurnTimeouts.Inc()
	b.logger.InfoContext(ctx, "turn timed out",
		"match_id", a.Match.ID,
		"turn", turn,
		"user_id", act.ActorID)

	b.afterAction(ctx, a, act, turn)
}

// afterAction announces an action and moves the match on. Caller holds a.
func (b *Bot) afterAction(ctx context.Context, a *session.ActiveMatch, act match.Action, prevTurn int) {
	b.sendLongResponse(ctx, a.Match.ChannelID, b.renderAction(a.Match, act))

	if a.Match.Over() {
		a.Timer.Stop()
		b.finishMatch(ctx, a)
		return
	}
	if a.Match.Turn != prevTurn {
		b.beginTurn(ctx, a)
	}
}

// activeTurn finds the user's match in channel where it is their turn.
// The returned match is locked.
func (b *Bot) activeTurn(userID, channelID string) (*session.ActiveMatch, error) {
	actives := b.registry.ActiveFor(userID, channelID)
	if len(actives) == 0 {
		return nil, errNoActiveMatch
	}
	for _, a := range actives {
		a.Lock()
		if !a.Match.Over() && a.Match.CurrentActor().UserID == userID {
			return a, nil
		}
		a.Unlock()
	}
	return nil, match.ErrNotYourTurn
}

func (b *Bot) handleMove(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	users, rest := splitMentions(m, args)
	if len(rest) == 0 {
		return usageError(fmt.Sprintf("Usage: `%smove <move> [@target]`. See `%smoves` for the list.",
			b.prefixFor(ctx, m.GuildID), b.prefixFor(ctx, m.GuildID)))
	}
	targetID := ""
	if len(users) > 0 {
		targetID = users[0].ID
	}

	a, err := b.activeTurn(m.Author.ID, m.ChannelID)
	if err != nil {
		return err
	}
	defer a.Unlock()

	prevTurn := a.Match.Turn
	act, err := a.Match.Submit(m.Author.ID, strings.Join(rest, " "), targetID)
	if err != nil {
		return err
	}
	b.afterAction(ctx, a, act, prevTurn)
	return nil
}

func (b *Bot) handleForfeit(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	a, err := b.activeTurn(m.Author.ID, m.ChannelID)
	if err != nil {
		// Not their turn anywhere: leave the first match they are still in.
		a = b.standingIn(m.Author.ID, m.ChannelID)
		if a == nil {
			return errNoActiveMatch
		}
	}
	defer a.Unlock()

	prevTurn := a.Match.Turn
	act, err := a.Match.Forfeit(m.Author.ID)
	if err != nil {
		return err
	}
	b.afterAction(ctx, a, act, prevTurn)
	return nil
}

// standingIn returns, locked, the first match in channel where the user has
// not been eliminated.
func (b *Bot) standingIn(userID, channelID string) *session.ActiveMatch {
	for _, a := range b.registry.ActiveFor(userID, channelID) {
		a.Lock()
		if p, ok := a.Match.Participant(userID); ok && !p.Eliminated && !a.Match.Over() {
			return a
		}
		a.Unlock()
	}
	return nil
}

func (b *Bot) handleStatus(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	actives := b.registry.ActiveFor(m.Author.ID, m.ChannelID)
	if len(actives) == 0 {
		actives = b.registry.InChannel(m.ChannelID)
	}

	var sb strings.Builder
	for _, a := range actives {
		sb.WriteString(b.lockedStatus(a))
		sb.WriteString("\n")
	}
	for _, p := range b.registry.PendingFor(m.Author.ID, m.ChannelID) {
		if p.Lobby {
			fmt.Fprintf(&sb, "🕒 %s lobby hosted by <@%s>: %d entrants.\n", p.Format.DisplayName(), p.InitiatorID, len(p.Entrants))
			continue
		}
		fmt.Fprintf(&sb, "🕒 %s challenge from <@%s>, waiting on %s.\n", p.Format.DisplayName(), p.InitiatorID, mentionList(p.Awaiting()))
	}

	if sb.Len() == 0 {
		b.reply(ctx, m, "No matches running in this channel.")
		return nil
	}
	b.reply(ctx, m, sb.String())
	return nil
}

// finishMatch settles a finished match and posts the results. Caller holds a.
func (b *Bot) finishMatch(ctx context.Context, a *session.ActiveMatch) {
	mt := a.Match
	if !b.registry.EndMatch(mt.ID) {
		return
	}
	res := mt.Result()
	b.metrics.MatchesFinished.WithLabelValues(string(res.Format), string(res.Reason)).Inc()
	b.metrics.SetSessions(b.registry.Counts())

	b.logger.InfoContext(ctx, "match finished",
		"match_id", mt.ID,
		"format", res.Format,
		"reason", res.Reason,
		"turns", res.Turns,
		"winners", res.Winners,
		"duration", res.Duration())

	settlement, err := b.ledger.Settle(ctx, res)
	switch {
	case errors.Is(err, economy.ErrHistoryNotSaved):
		// Coins were paid; only +stats history misses this match.
		b.logger.ErrorContext(ctx, "failed to record match history", "match_id", mt.ID, "error", err)
	case err != nil:
		b.logger.ErrorContext(ctx, "failed to settle match", "match_id", mt.ID, "error", err)
		b.send(ctx, mt.ChannelID, "⚠️ The match is over, but paying out rewards failed. Please tell an admin.")
		return
	}

	var paid int64
	for _, v := range settlement.Payouts {
		paid += v
	}
	b.metrics.CoinsPaid.WithLabelValues("match").Add(float64(paid))

	b.sendLongResponse(ctx, mt.ChannelID, b.renderResult(mt, settlement.Payouts))

	if !b.commentaryEnabled(ctx, mt.GuildID) {
		return
	}
	summary := commentary.Summarize(mt)
	channelID := mt.ChannelID
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		rctx, cancel := context.WithTimeout(context.Background(), CommentaryTimeout)
		defer cancel()
		recap, err := b.commentator.Recap(rctx, summary)
		if err != nil {
			b.logger.WarnContext(rctx, "match recap failed", "match_id", summary.MatchID, "error", err)
			return
		}
		b.sendLongResponse(rctx, channelID, "🎙️ "+recap)
	}()
}

func (b *Bot) renderCard(mt *match.Match) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔔 **%s** is underway!\n", mt.Format.DisplayName())
	if mt.Format.IsTeamFormat() {
		for team := 0; team < 2; team++ {
			fmt.Fprintf(&sb, "**Team %d**\n", team+1)
			for _, p := range mt.Participants {
				if p.Team == team {
					fmt.Fprintf(&sb, "• <@%s> as **%s**\n", p.UserID, p.Wrestler)
				}
			}
		}
	} else {
		for i, p := range mt.Participants {
			fmt.Fprintf(&sb, "%d. <@%s> as **%s**\n", i+1, p.UserID, p.Wrestler)
		}
	}
	if waiting := mt.Waiting(); len(waiting) > 0 {
		fmt.Fprintf(&sb, "%d more wrestlers wait their turn to enter.\n", len(waiting))
	}
	return sb.String()
}

func (b *Bot) renderAction(mt *match.Match, act match.Action) string {
	wrestler := func(id string) string {
		if p, ok := mt.Participant(id); ok {
			return "**" + p.Wrestler + "**"
		}
		return "<@" + id + ">"
	}

	var sb strings.Builder
	switch {
	case act.TimedOut:
		fmt.Fprintf(&sb, "⏰ %s took too long and is counted out!\n", wrestler(act.ActorID))
	case act.Move == "":
		fmt.Fprintf(&sb, "🏳️ %s walks out of the match!\n", wrestler(act.ActorID))
	case act.Hit:
		target, _ := mt.Participant(act.TargetID)
		fmt.Fprintf(&sb, "💥 %s hits %s with a %s for **%d** damage! (%s %s %d HP)\n",
			wrestler(act.ActorID), wrestler(act.TargetID), act.Move, act.Damage,
			target.Wrestler, healthBar(target.Health, game.StartingHealth), target.Health)
	default:
		fmt.Fprintf(&sb, "💨 %s goes for a %s on %s but misses!\n", wrestler(act.ActorID), act.Move, wrestler(act.TargetID))
	}

	for _, id := range act.Eliminated {
		if act.TimedOut || act.Move == "" {
			continue
		}
		fmt.Fprintf(&sb, "🛎️ 1... 2... 3! %s (<@%s>) has been eliminated!\n", wrestler(id), id)
	}
	for _, id := range act.Entered {
		fmt.Fprintf(&sb, "🎺 Here comes %s (<@%s>)!\n", wrestler(id), id)
	}
	return sb.String()
}

func (b *Bot) lockedStatus(a *session.ActiveMatch) string {
	a.Lock()
	defer a.Unlock()
	return b.renderStatus(a)
}

// renderStatus describes a running match. Caller holds a.
func (b *Bot) renderStatus(a *session.ActiveMatch) string {
	mt := a.Match
	var sb strings.Builder
	fmt.Fprintf(&sb, "📺 **%s** turn %d\n", mt.Format.DisplayName(), mt.Turn+1)
	for _, p := range mt.Participants {
		switch {
		case p.Eliminated:
			fmt.Fprintf(&sb, "~~%s~~ (<@%s>) eliminated by %s\n", p.Wrestler, p.UserID, p.EliminatedBy)
		case !p.Entered:
			fmt.Fprintf(&sb, "%s (<@%s>) waiting to enter\n", p.Wrestler, p.UserID)
		default:
			fmt.Fprintf(&sb, "%s (<@%s>) %s %d HP, %d momentum\n",
				p.Wrestler, p.UserID, healthBar(p.Health, game.StartingHealth), p.Health, p.Momentum)
		}
	}
	if !mt.Over() {
		actor := mt.CurrentActor()
		line := fmt.Sprintf("Up next: **%s** (<@%s>)", actor.Wrestler, actor.UserID)
		if a.Timer != nil {
			if deadline := a.Timer.Deadline(); !deadline.IsZero() {
				line += fmt.Sprintf(", %ds left", int(time.Until(deadline).Round(time.Second).Seconds()))
			}
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

func (b *Bot) renderResult(mt *match.Match, payouts map[string]int64) string {
	res := mt.Result()
	var sb strings.Builder

	winners := make([]string, len(res.Winners))
	for i, id := range res.Winners {
		p, _ := mt.Participant(id)
		winners[i] = fmt.Sprintf("**%s** (<@%s>)", p.Wrestler, id)
	}
	fmt.Fprintf(&sb, "🏆 %s %s the %s!\n", joinAnd(winners), winVerb(len(winners)), mt.Format.DisplayName())

	sb.WriteString("**Payouts**\n")
	for i, id := range res.Placements {
		fmt.Fprintf(&sb, "%d. <@%s> +%s\n", i+1, id, formatCoins(payouts[id]))
	}
	return sb.String()
}

func winVerb(n int) string {
	if n == 1 {
		return "wins"
	}
	return "win"
}

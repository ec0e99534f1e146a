package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Dmetrikx/goWrestleBot/internal/game"
	"github.com/Dmetrikx/goWrestleBot/internal/match"
	"github.com/Dmetrikx/goWrestleBot/internal/session"
	"github.com/Dmetrikx/goWrestleBot/internal/turntimer"
)

// handleChallenge opens a challenge for the mention-driven formats.
func (b *Bot) handleChallenge(ctx context.Context, m *discordgo.MessageCreate, args []string, format game.Format) error {
	users, _ := splitMentions(m, args)
	lo, hi := format.ParticipantRange()
	if n := len(users) + 1; n < lo || n > hi {
		return usageError(challengeUsage(format))
	}

	others := make([]match.Entrant, 0, len(users))
	for _, u := range users {
		if u.ID == m.Author.ID {
			return usageError("You can't wrestle yourself.")
		}
		if u.Bot {
			return usageError("Bots don't wrestle.")
		}
		others = append(others, b.entrant(m.GuildID, u))
	}

	p, err := b.registry.CreatePending(session.Request{
		Format:    format,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Initiator: b.entrant(m.GuildID, m.Author),
		Others:    others,
	})
	if err != nil {
		return err
	}
	b.metrics.SetSessions(b.registry.Counts())

	b.logger.InfoContext(ctx, "challenge created",
		"pending_id", p.ID,
		"format", format,
		"initiator", m.Author.ID,
		"participants", len(p.Entrants))

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔔 **%s** challenge from <@%s>!\n", format.DisplayName(), m.Author.ID)
	if format.IsTeamFormat() {
		half := len(p.Entrants) / 2
		fmt.Fprintf(&sb, "**Team 1:** %s\n**Team 2:** %s\n", entrantMentions(p.Entrants[:half]), entrantMentions(p.Entrants[half:]))
	} else {
		fmt.Fprintf(&sb, "**Participants:** %s\n", entrantMentions(p.Entrants))
	}
	fmt.Fprintf(&sb, "%s: type `%saccept` or `%sdecline` within %d seconds.",
		mentionList(p.Awaiting()), b.prefixFor(ctx, m.GuildID), b.prefixFor(ctx, m.GuildID), int(game.ChallengeExpiry.Seconds()))
	b.reply(ctx, m, sb.String())
	return nil
}

func challengeUsage(format game.Format) string {
	switch format {
	case game.Format1v1:
		return "Usage: `chall @opponent`"
	case game.Format2v2:
		return "Usage: `2v2 @partner @opponent @opponent`"
	case game.Format4v4:
		return "Usage: `4v4 @partner @partner @partner @opponent @opponent @opponent @opponent`"
	case game.FormatGauntlet:
		return fmt.Sprintf("Usage: `gauntlet @user @user ...` with %d to %d opponents",
			game.GauntletMinParticipants-1, game.GauntletMaxParticipants-1)
	}
	return "Invalid participants."
}

func entrantMentions(es []match.Entrant) string {
	ids := make([]string, len(es))
	for i, e := range es {
		ids[i] = e.UserID
	}
	return mentionList(ids)
}

func (b *Bot) handleRoyalRumble(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	p, err := b.registry.CreatePending(session.Request{
		Format:    game.FormatRoyalRumble,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Initiator: b.entrant(m.GuildID, m.Author),
		Lobby:     true,
	})
	if err != nil {
		return err
	}
	b.metrics.SetSessions(b.registry.Counts())

	prefix := b.prefixFor(ctx, m.GuildID)
	b.reply(ctx, m, fmt.Sprintf("👑 <@%s> opened a **Royal Rumble** lobby! Type `%sjoin` to enter (%d to %d wrestlers). "+
		"The host starts it with `%sstart`. The lobby closes in %d seconds.",
		p.InitiatorID, prefix, game.RumbleMinParticipants, game.RumbleMaxParticipants, prefix, int(game.LobbyExpiry.Seconds())))
	return nil
}

func (b *Bot) handleJoin(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	p, err := b.registry.Join(b.entrant(m.GuildID, m.Author), m.ChannelID)
	if err != nil {
		return err
	}
	b.reply(ctx, m, fmt.Sprintf("✅ <@%s> enters the Royal Rumble! (%d entrants)", m.Author.ID, len(p.Entrants)))
	return nil
}

func (b *Bot) handleLeave(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	p, cancelled, err := b.registry.Leave(m.Author.ID, m.ChannelID)
	if err != nil {
		return err
	}
	b.metrics.SetSessions(b.registry.Counts())
	if cancelled {
		b.reply(ctx, m, fmt.Sprintf("🚪 The host left, so the %s lobby is closed.", p.Format.DisplayName()))
		return nil
	}
	b.reply(ctx, m, fmt.Sprintf("🚪 <@%s> left the lobby. (%d entrants)", m.Author.ID, len(p.Entrants)))
	return nil
}

func (b *Bot) handleStartLobby(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	p, err := b.registry.StartLobby(m.Author.ID, m.ChannelID)
	if err != nil {
		return err
	}
	return b.startMatch(ctx, p)
}

func (b *Bot) handleAccept(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	p, ready, err := b.registry.Accept(m.Author.ID, m.ChannelID)
	if err != nil {
		return err
	}
	if !ready {
		b.reply(ctx, m, fmt.Sprintf("✅ <@%s> is in! Still waiting on %s.", m.Author.ID, mentionList(p.Awaiting())))
		return nil
	}
	return b.startMatch(ctx, p)
}

func (b *Bot) handleDecline(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	p, err := b.registry.Decline(m.Author.ID, m.ChannelID)
	if err != nil {
		return err
	}
	b.metrics.SetSessions(b.registry.Counts())

	if p.InitiatorID == m.Author.ID {
		b.reply(ctx, m, fmt.Sprintf("↩️ <@%s> withdrew the %s challenge.", m.Author.ID, p.Format.DisplayName()))
		return nil
	}
	b.reply(ctx, m, fmt.Sprintf("❌ <@%s> declined the %s challenge from <@%s>.", m.Author.ID, p.Format.DisplayName(), p.InitiatorID))
	return nil
}

// startMatch turns a confirmed pending entry into a running match.
func (b *Bot) startMatch(ctx context.Context, p *session.Pending) error {
	mt, err := match.New(match.Config{
		Format:    p.Format,
		GuildID:   p.GuildID,
		ChannelID: p.ChannelID,
		Entrants:  p.Entrants,
		Roster:    b.roster,
		Rand:      b.newRand(),
		Now:       b.now,
	})
	if err != nil {
		b.registry.Cancel(p.ID)
		return err
	}

	var a *session.ActiveMatch
	timer := turntimer.New(b.turnTimeout, b.turnWarnings, turntimer.Callbacks{
		OnWarning: func(turn int, remaining time.Duration) { b.onTurnWarning(a, turn, remaining) },
		OnTimeout: func(turn int) { b.onTurnTimeout(a, turn) },
	})
	// The timer only fires after beginTurn, once a is set.
	a, err = b.registry.StartMatch(mt, timer, p.ID)
	if err != nil {
		return err
	}
	defer a.Unlock()

	b.metrics.MatchesStarted.WithLabelValues(string(mt.Format)).Inc()
	b.metrics.SetSessions(b.registry.Counts())

	b.logger.InfoContext(ctx, "match started",
		"match_id", mt.ID,
		"format", mt.Format,
		"guild_id", mt.GuildID,
		"channel_id", mt.ChannelID,
		"participants", len(mt.Participants))

	b.sendLongResponse(ctx, mt.ChannelID, b.renderCard(mt))
	b.beginTurn(ctx, a)
	return nil
}

package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/Dmetrikx/goWrestleBot/internal/game"
)

// targetUser returns the first mentioned user, or the author.
func targetUser(m *discordgo.MessageCreate, args []string) *discordgo.User {
	if users, _ := splitMentions(m, args); len(users) > 0 {
		return users[0]
	}
	return m.Author
}

func (b *Bot) handleBalance(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	u := targetUser(m, args)
	acct, err := b.ledger.Account(ctx, u.ID)
	if err != nil {
		return err
	}
	b.reply(ctx, m, fmt.Sprintf("💰 %s has **%s**.", getDisplayName(b.session, m.GuildID, u), formatCoins(acct.Balance)))
	return nil
}

func (b *Bot) handleDaily(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	balance, err := b.ledger.ClaimDaily(ctx, m.Author.ID)
	if err != nil {
		return err
	}
	b.metrics.CoinsPaid.WithLabelValues("daily").Add(float64(game.DailyReward))
	b.reply(ctx, m, fmt.Sprintf("🎁 <@%s> claimed **%s**! New balance: %s.",
		m.Author.ID, formatCoins(game.DailyReward), formatCoins(balance)))
	return nil
}

func (b *Bot) handleGive(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	users, rest := splitMentions(m, args)
	if len(users) != 1 || len(rest) != 1 {
		return usageError("Usage: `give @user <amount>`")
	}
	if users[0].Bot {
		return usageError("Bots don't need coins.")
	}
	amount, err := parseAmount(rest[0])
	if err != nil {
		return err
	}

	from, to, err := b.ledger.Give(ctx, m.Author.ID, users[0].ID, amount)
	if err != nil {
		return err
	}
	b.logger.InfoContext(ctx, "coins transferred",
		"from", m.Author.ID,
		"to", users[0].ID,
		"amount", amount)
	b.reply(ctx, m, fmt.Sprintf("🤝 <@%s> gave **%s** to <@%s>. Balances: %s / %s.",
		m.Author.ID, formatCoins(amount), users[0].ID, formatCoins(from), formatCoins(to)))
	return nil
}

func (b *Bot) handleLeaderboard(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	top, err := b.ledger.Leaderboard(ctx, LeaderboardSize)
	if err != nil {
		return err
	}
	if len(top) == 0 {
		b.reply(ctx, m, "Nobody has any coins yet.")
		return nil
	}

	var sb strings.Builder
	sb.WriteString("🏆 **Leaderboard**\n")
	for i, a := range top {
		fmt.Fprintf(&sb, "%d. %s: %s (%dW/%dL)\n", i+1, b.nameOf(m.GuildID, a.UserID), formatCoins(a.Balance), a.Wins, a.Losses)
	}
	b.reply(ctx, m, sb.String())
	return nil
}

func (b *Bot) handleStats(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	u := targetUser(m, args)
	acct, err := b.ledger.Account(ctx, u.ID)
	if err != nil {
		return err
	}
	history, err := b.ledger.History(ctx, u.ID, StatsHistorySize)
	if err != nil {
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 **%s**: %d matches, %d wins, %d losses, %s earned in the ring.\n",
		getDisplayName(b.session, m.GuildID, u), acct.MatchesPlayed, acct.Wins, acct.Losses, formatCoins(acct.CoinsEarned))
	for _, rec := range history {
		outcome := "❌"
		for _, w := range rec.Winners {
			if w == u.ID {
				outcome = "✅"
			}
		}
		format := game.Format(rec.Format)
		fmt.Fprintf(&sb, "%s %s, %s, +%s\n", outcome, format.DisplayName(), rec.EndedAt.Format("Jan 2 15:04"), formatCoins(rec.Payouts[u.ID]))
	}
	b.reply(ctx, m, sb.String())
	return nil
}

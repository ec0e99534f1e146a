package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/Dmetrikx/goWrestleBot/internal/storage"
)

const maxPrefixLength = 5

// guildSettings loads the guild's settings, defaulting when none are stored.
func (b *Bot) guildSettings(ctx context.Context, guildID string) (*storage.GuildSettings, error) {
	settings, err := b.guilds.GetGuildSettings(ctx, guildID)
	if errors.Is(err, storage.ErrNotFound) {
		return &storage.GuildSettings{
			GuildID:           guildID,
			Prefix:            b.config.CommandPrefix,
			CommentaryEnabled: true,
		}, nil
	}
	return settings, err
}

func (b *Bot) updateGuildSettings(ctx context.Context, guildID string, fn func(*storage.GuildSettings)) error {
	settings, err := b.guildSettings(ctx, guildID)
	if err != nil {
		return err
	}
	fn(settings)
	settings.UpdatedAt = b.now()
	return b.guilds.SaveGuildSettings(ctx, settings)
}

func (b *Bot) handleSetPrefix(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	if len(args) != 1 || len(args[0]) > maxPrefixLength {
		return usageError(fmt.Sprintf("Usage: `setprefix <prefix>` (at most %d characters, no spaces)", maxPrefixLength))
	}
	prefix := args[0]
	if err := b.updateGuildSettings(ctx, m.GuildID, func(s *storage.GuildSettings) { s.Prefix = prefix }); err != nil {
		return err
	}
	b.logger.InfoContext(ctx, "prefix changed", "guild_id", m.GuildID, "prefix", prefix, "user_id", m.Author.ID)
	b.reply(ctx, m, fmt.Sprintf("🔧 Command prefix is now `%s`.", prefix))
	return nil
}

func (b *Bot) handleCommentary(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	if len(args) != 1 {
		return usageError("Usage: `commentary on|off`")
	}
	var enabled bool
	switch strings.ToLower(args[0]) {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		return usageError("Usage: `commentary on|off`")
	}
	if err := b.updateGuildSettings(ctx, m.GuildID, func(s *storage.GuildSettings) { s.CommentaryEnabled = enabled }); err != nil {
		return err
	}
	state := "off"
	if enabled {
		state = "on"
	}
	b.reply(ctx, m, fmt.Sprintf("🎙️ Match commentary is %s.", state))
	return nil
}

func (b *Bot) adjustCoins(ctx context.Context, m *discordgo.MessageCreate, args []string, sign int64) error {
	users, rest := splitMentions(m, args)
	if len(users) != 1 || len(rest) != 1 {
		return usageError("Usage: `addcoins @user <amount>` or `removecoins @user <amount>`")
	}
	amount, err := parseAmount(rest[0])
	if err != nil {
		return err
	}

	balance, err := b.ledger.AdminAdjust(ctx, users[0].ID, sign*amount)
	if err != nil {
		return err
	}
	b.logger.InfoContext(ctx, "balance adjusted by admin",
		"admin_id", m.Author.ID,
		"user_id", users[0].ID,
		"delta", sign*amount,
		"balance", balance)
	if sign > 0 {
		b.metrics.CoinsPaid.WithLabelValues("admin").Add(float64(amount))
	}
	b.reply(ctx, m, fmt.Sprintf("🔧 <@%s> now has **%s**.", users[0].ID, formatCoins(balance)))
	return nil
}

func (b *Bot) handleAddCoins(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	return b.adjustCoins(ctx, m, args, 1)
}

func (b *Bot) handleRemoveCoins(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	return b.adjustCoins(ctx, m, args, -1)
}

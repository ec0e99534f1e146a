package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/Dmetrikx/goWrestleBot/internal/roster"
)

// handlePing responds with "Pong!"
func (b *Bot) handlePing(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	b.reply(ctx, m, "Pong!")
	return nil
}

func (b *Bot) handleHelp(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	prefix := b.prefixFor(ctx, m.GuildID)
	var sb strings.Builder
	sb.WriteString("🤼 **Commands**\n")
	for _, c := range b.commandList() {
		if c.adminOnly {
			continue
		}
		fmt.Fprintf(&sb, "`%s%s` %s\n", prefix, c.usage, c.help)
	}
	sb.WriteString("**Admin:** ")
	var admin []string
	for _, c := range b.commandList() {
		if c.adminOnly {
			admin = append(admin, "`"+prefix+c.usage+"`")
		}
	}
	sb.WriteString(strings.Join(admin, ", "))
	b.reply(ctx, m, sb.String())
	return nil
}

func (b *Bot) handleMoves(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📖 **Moves** (%d)\n", b.roster.MoveCount())
	for _, c := range roster.Categories {
		stats := b.roster.CategoryStats[c]
		fmt.Fprintf(&sb, "**%s** %d-%d dmg, %d%% accuracy", capitalize(string(c)), stats.MinDamage, stats.MaxDamage, stats.Accuracy)
		if stats.MomentumCost > 0 {
			fmt.Fprintf(&sb, ", needs %d momentum", stats.MomentumCost)
		}
		fmt.Fprintf(&sb, "\n%s\n", strings.Join(b.roster.MovesIn(c), ", "))
	}
	b.reply(ctx, m, sb.String())
	return nil
}

func (b *Bot) handleWrestlers(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
	b.reply(ctx, m, fmt.Sprintf("🌟 **Roster** (%d)\n%s", len(b.roster.Wrestlers), strings.Join(b.roster.Wrestlers, ", ")))
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

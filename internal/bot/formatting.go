package bot

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/Dmetrikx/goWrestleBot/internal/game"
	"github.com/Dmetrikx/goWrestleBot/internal/match"
)

var mentionPattern = regexp.MustCompile(`^<@!?(\d+)>$`)

// sendLongResponse sends long responses in chunks to respect Discord's message length limit
func (b *Bot) sendLongResponse(ctx context.Context, channelID, response string) {
	for i, chunk := range splitMessage(response, MaxDiscordMessageLength) {
		_, err := b.session.ChannelMessageSend(channelID, chunk)
		if err != nil {
			b.logger.ErrorContext(ctx, "failed to send message chunk",
				"channel_id", channelID,
				"chunk_index", i,
				"error", err)
		}
	}
}

// splitMessage cuts s into chunks of at most limit bytes, preferring line
// breaks and never splitting a UTF-8 sequence.
func splitMessage(s string, limit int) []string {
	var chunks []string
	for len(s) > limit {
		cut := strings.LastIndexByte(s[:limit], '\n') + 1
		if cut <= limit/2 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(s[cut]) {
				cut--
			}
		}
		chunks = append(chunks, s[:cut])
		s = s[cut:]
	}
	if s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}

func (b *Bot) reply(ctx context.Context, m *discordgo.MessageCreate, text string) {
	b.sendLongResponse(ctx, m.ChannelID, text)
}

// send posts a single message and returns it, nil on failure.
func (b *Bot) send(ctx context.Context, channelID, text string) *discordgo.Message {
	msg, err := b.session.ChannelMessageSend(channelID, text)
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to send message", "channel_id", channelID, "error", err)
		return nil
	}
	return msg
}

// getDisplayName returns the server nickname of a user, falling back to the
// global display name and then the username
func getDisplayName(session interface {
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
}, guildID string, user *discordgo.User) string {
	if guildID != "" {
		member, err := session.GuildMember(guildID, user.ID)
		if err == nil && member.Nick != "" {
			return member.Nick
		}
	}
	if user.GlobalName != "" {
		return user.GlobalName
	}
	if user.Username != "" {
		return user.Username
	}
	return user.ID
}

func (b *Bot) entrant(guildID string, user *discordgo.User) match.Entrant {
	return match.Entrant{UserID: user.ID, Name: getDisplayName(b.session, guildID, user)}
}

// nameOf resolves a user id to a display name.
func (b *Bot) nameOf(guildID, userID string) string {
	if guildID != "" {
		if member, err := b.session.GuildMember(guildID, userID); err == nil && member.User != nil {
			return getDisplayName(b.session, "", member.User)
		}
	}
	return "<@" + userID + ">"
}

// splitMentions separates mention arguments from the rest, keeping the order
// they were typed in. Users are resolved from the message's mention list.
func splitMentions(m *discordgo.MessageCreate, args []string) (users []*discordgo.User, rest []string) {
	known := make(map[string]*discordgo.User, len(m.Mentions))
	for _, u := range m.Mentions {
		known[u.ID] = u
	}
	for _, arg := range args {
		sub := mentionPattern.FindStringSubmatch(arg)
		if sub == nil {
			rest = append(rest, arg)
			continue
		}
		u, ok := known[sub[1]]
		if !ok {
			u = &discordgo.User{ID: sub[1]}
		}
		users = append(users, u)
	}
	return users, rest
}

func mentionList(ids []string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "<@" + id + ">"
	}
	return joinAnd(parts)
}

func joinAnd(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}

func formatCoins(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String() + " coins"
	}
	return b.String() + " coins"
}

func parseAmount(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	if err != nil || n <= 0 || n > game.MaxAmount {
		return 0, usageError(fmt.Sprintf("`%s` is not a valid amount.", s))
	}
	return n, nil
}

func healthBar(hp, full int) string {
	const width = 10
	filled := 0
	if full > 0 {
		filled = (hp*width + full - 1) / full
	}
	filled = min(max(filled, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

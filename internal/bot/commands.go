package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/Dmetrikx/goWrestleBot/internal/cooldown"
	"github.com/Dmetrikx/goWrestleBot/internal/economy"
	"github.com/Dmetrikx/goWrestleBot/internal/game"
	"github.com/Dmetrikx/goWrestleBot/internal/match"
	"github.com/Dmetrikx/goWrestleBot/internal/roster"
	"github.com/Dmetrikx/goWrestleBot/internal/session"
)

type handlerFunc func(ctx context.Context, m *discordgo.MessageCreate, args []string) error

type command struct {
	name        string
	usage       string
	help        string
	cooldownKey string
	guildOnly   bool
	adminOnly   bool
	run         handlerFunc
}

// usageError is shown to the user verbatim.
type usageError string

func (e usageError) Error() string { return string(e) }

var errNoActiveMatch = errors.New("no active match")

func (b *Bot) commandList() []command {
	challenge := func(f game.Format) handlerFunc {
		return func(ctx context.Context, m *discordgo.MessageCreate, args []string) error {
			return b.handleChallenge(ctx, m, args, f)
		}
	}

	return []command{
		{name: game.CommandChallenge, usage: "chall @opponent", help: "Challenge someone to a singles match", cooldownKey: game.CommandChallenge, guildOnly: true, run: challenge(game.Format1v1)},
		{name: game.Command2v2, usage: "2v2 @partner @opponent @opponent", help: "Start a tag team match", cooldownKey: game.Command2v2, guildOnly: true, run: challenge(game.Format2v2)},
		{name: game.Command4v4, usage: "4v4 @p @p @p @o @o @o @o", help: "Start a 4-on-4 elimination match", cooldownKey: game.Command4v4, guildOnly: true, run: challenge(game.Format4v4)},
		{name: game.CommandGauntlet, usage: "gauntlet @user @user [...]", help: "Run the gauntlet against 2 to 7 opponents", cooldownKey: game.CommandGauntlet, guildOnly: true, run: challenge(game.FormatGauntlet)},
		{name: game.CommandRoyalRumble, usage: "royalrumble", help: "Open a Royal Rumble lobby", cooldownKey: game.CommandRoyalRumble, guildOnly: true, run: b.handleRoyalRumble},
		{name: "join", usage: "join", help: "Join the open Royal Rumble lobby", guildOnly: true, run: b.handleJoin},
		{name: "leave", usage: "leave", help: "Leave the Royal Rumble lobby", guildOnly: true, run: b.handleLeave},
		{name: "start", usage: "start", help: "Start your Royal Rumble", guildOnly: true, run: b.handleStartLobby},
		{name: "accept", usage: "accept", help: "Accept a challenge", guildOnly: true, run: b.handleAccept},
		{name: "decline", usage: "decline", help: "Decline or withdraw a challenge", guildOnly: true, run: b.handleDecline},
		{name: "move", usage: "move <move> [@target]", help: "Make your move", guildOnly: true, run: b.handleMove},
		{name: "forfeit", usage: "forfeit", help: "Walk out of your match", guildOnly: true, run: b.handleForfeit},
		{name: "status", usage: "status", help: "Show the matches in this channel", guildOnly: true, run: b.handleStatus},
		{name: "moves", usage: "moves", help: "List every move by category", run: b.handleMoves},
		{name: "wrestlers", usage: "wrestlers", help: "List the roster", run: b.handleWrestlers},
		{name: "balance", usage: "balance [@user]", help: "Show a coin balance", run: b.handleBalance},
		{name: game.CommandDaily, usage: "daily", help: "Claim your daily coins", cooldownKey: game.CommandDaily, run: b.handleDaily},
		{name: game.CommandGive, usage: "give @user <amount>", help: "Give coins to someone", cooldownKey: game.CommandGive, run: b.handleGive},
		{name: "leaderboard", usage: "leaderboard", help: "Show the richest wrestlers", run: b.handleLeaderboard},
		{name: "stats", usage: "stats [@user]", help: "Show a win/loss record", run: b.handleStats},
		{name: "setprefix", usage: "setprefix <prefix>", help: "Change the command prefix", guildOnly: true, adminOnly: true, run: b.handleSetPrefix},
		{name: "commentary", usage: "commentary on|off", help: "Toggle match recaps", guildOnly: true, adminOnly: true, run: b.handleCommentary},
		{name: "addcoins", usage: "addcoins @user <amount>", help: "Add coins to a balance", guildOnly: true, adminOnly: true, run: b.handleAddCoins},
		{name: "removecoins", usage: "removecoins @user <amount>", help: "Remove coins from a balance", guildOnly: true, adminOnly: true, run: b.handleRemoveCoins},
		{name: "help", usage: "help", help: "Show this message", run: b.handleHelp},
		{name: "ping", usage: "ping", help: "Check the bot is alive", run: b.handlePing},
	}
}

var commandAliases = map[string]string{
	"challenge": game.CommandChallenge,
	"rumble":    game.CommandRoyalRumble,
	"m":         "move",
	"bal":       "balance",
	"lb":        "leaderboard",
}

func (b *Bot) commandTable() map[string]command {
	table := make(map[string]command)
	for _, c := range b.commandList() {
		table[c.name] = c
	}
	for alias, target := range commandAliases {
		table[alias] = table[target]
	}
	return table
}

// describeError maps expected errors to replies.
func (b *Bot) describeError(err error, cmd command) (string, bool) {
	var (
		usage   usageError
		cdErr   *cooldown.Error
		busy    *session.BusyError
		unknown *roster.UnknownMoveError
	)

	switch {
	case errors.As(err, &usage):
		return string(usage), true
	case errors.As(err, &cdErr):
		return fmt.Sprintf("⏳ Slow down! You can use `%s` again in %s.", cdErr.Command, cooldown.FormatRemaining(cdErr.Remaining)), true
	case errors.As(err, &busy):
		return fmt.Sprintf("🚫 <@%s> is already in a %s.", busy.UserID, busy.Format.DisplayName()), true
	case errors.As(err, &unknown):
		msg := fmt.Sprintf("❓ `%s` is not a move I know.", unknown.Input)
		if len(unknown.Suggestions) > 0 {
			msg += " Did you mean: " + strings.Join(unknown.Suggestions, ", ") + "?"
		}
		return msg + " See `moves` for the full list.", true
	case errors.Is(err, errNoActiveMatch):
		return "You are not in a match in this channel.", true
	case errors.Is(err, match.ErrNotYourTurn):
		return "⏸️ It's not your turn.", true
	case errors.Is(err, match.ErrFinisherNotReady):
		return fmt.Sprintf("🔋 You need %d momentum to hit your finisher.", game.MaxMomentum), true
	case errors.Is(err, match.ErrInvalidTarget):
		return "🎯 That's not a valid target. Pick an opponent still in the ring.", true
	case errors.Is(err, match.ErrInvalidParticipants):
		return fmt.Sprintf("Invalid participants. Usage: `%s`", cmd.usage), true
	case errors.Is(err, match.ErrMatchOver), errors.Is(err, match.ErrNotParticipant):
		return "That match is already over for you.", true
	case errors.Is(err, session.ErrNoPending):
		return "There's nothing waiting on you here.", true
	case errors.Is(err, session.ErrNotInitiator):
		return "Only the host can start the lobby.", true
	case errors.Is(err, session.ErrAlreadyJoined):
		return "You're already in the lobby.", true
	case errors.Is(err, session.ErrLobbyFull):
		return "The lobby is full.", true
	case errors.Is(err, session.ErrNotInLobby):
		return "You're not in a lobby here.", true
	case errors.Is(err, session.ErrNotEnough):
		return fmt.Sprintf("Not enough entrants yet, a Royal Rumble needs at least %d.", game.RumbleMinParticipants), true
	case errors.Is(err, economy.ErrInsufficientFunds):
		return "💸 You don't have enough coins.", true
	case errors.Is(err, economy.ErrSelfTransfer):
		return "You can't give coins to yourself.", true
	case errors.Is(err, economy.ErrInvalidAmount):
		return "The amount must be a positive whole number.", true
	}
	return "", false
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cenkalti/backoff/v4"

	"github.com/Dmetrikx/goWrestleBot/internal/commentary"
	"github.com/Dmetrikx/goWrestleBot/internal/config"
	"github.com/Dmetrikx/goWrestleBot/internal/cooldown"
	"github.com/Dmetrikx/goWrestleBot/internal/discord"
	"github.com/Dmetrikx/goWrestleBot/internal/economy"
	"github.com/Dmetrikx/goWrestleBot/internal/game"
	"github.com/Dmetrikx/goWrestleBot/internal/metrics"
	"github.com/Dmetrikx/goWrestleBot/internal/roster"
	"github.com/Dmetrikx/goWrestleBot/internal/session"
	"github.com/Dmetrikx/goWrestleBot/internal/storage"
)

// Bot represents the Discord bot. It owns all application state: the
// session registry, the ledger, the cooldown gate and the repositories.
type Bot struct {
	session     discord.Session
	config      *config.Config
	logger      *slog.Logger
	roster      *roster.Roster
	registry    *session.Registry
	ledger      *economy.Ledger
	cooldowns   *cooldown.Gate
	guilds      storage.GuildRepository
	commentator commentary.Commentator
	metrics     *metrics.Metrics
	commands    map[string]command

	turnTimeout   time.Duration
	turnWarnings  []time.Duration
	pingThreshold time.Duration
	newRand       func() *rand.Rand
	now           func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Deps are the collaborators a Bot is built from.
type Deps struct {
	Session     discord.Session
	Config      *config.Config
	Logger      *slog.Logger
	Store       storage.Store
	Roster      *roster.Roster
	Commentator commentary.Commentator
	Metrics     *metrics.Metrics
}

// NewBot creates a new bot instance connected to Discord with the given token
func NewBot(cfg *config.Config, logger *slog.Logger, store storage.Store, m *metrics.Metrics) (*Bot, error) {
	s, err := discord.NewDiscordSession(cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	r, err := roster.Default()
	if err != nil {
		return nil, fmt.Errorf("error loading roster: %w", err)
	}

	bot := New(Deps{
		Session:     s,
		Config:      cfg,
		Logger:      logger,
		Store:       store,
		Roster:      r,
		Commentator: commentary.New(cfg.CommentaryProvider, cfg.OpenAIAPIKey, cfg.XAIAPIKey, logger),
		Metrics:     m,
	})

	// Register message handler
	s.AddHandler(bot.messageHandler)

	return bot, nil
}

// New assembles a bot from its dependencies without registering handlers.
func New(deps Deps) *Bot {
	b := &Bot{
		session:      deps.Session,
		config:       deps.Config,
		logger:       deps.Logger,
		roster:       deps.Roster,
		registry:     session.NewRegistry(),
		ledger:       economy.NewLedger(deps.Store),
		cooldowns:    cooldown.NewGate(deps.Store),
		guilds:       deps.Store,
		commentator:  deps.Commentator,
		metrics:      deps.Metrics,
		turnTimeout:   game.MatchTimeout,
		turnWarnings:  game.WarningDurations(),
		pingThreshold: PingWarningThreshold,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
		now:  time.Now,
		stop: make(chan struct{}),
	}
	if b.commentator == nil {
		b.commentator = commentary.Template{}
	}
	if b.metrics == nil {
		b.metrics = metrics.New()
	}
	b.commands = b.commandTable()
	return b
}

// Ledger exposes the coin ledger.
func (b *Bot) Ledger() *economy.Ledger {
	return b.ledger
}

// Counts returns the number of active and pending matches.
func (b *Bot) Counts() (active, pending int) {
	return b.registry.Counts()
}

// Start opens the gateway connection and starts background work
func (b *Bot) Start(ctx context.Context) error {
	open := func() error {
		if err := b.session.Open(); err != nil {
			b.logger.WarnContext(ctx, "failed to open Discord connection, retrying", "error", err)
			return err
		}
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), StartupRetries), ctx)
	if err := backoff.Retry(open, policy); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	user, err := b.session.User("@me")
	if err != nil {
		return fmt.Errorf("error obtaining account details: %w", err)
	}

	b.wg.Add(1)
	go b.sweepLoop(ctx)

	b.logger.InfoContext(ctx, "bot started",
		"username", user.Username,
		"user_id", user.ID,
		"default_prefix", b.config.CommandPrefix)

	return nil
}

// Close stops running matches' timers, waits for background work and closes
// the Discord session
func (b *Bot) Close(ctx context.Context) error {
	b.logger.InfoContext(ctx, "closing bot session")
	b.stopOnce.Do(func() { close(b.stop) })

	for _, a := range b.registry.Active() {
		a.Lock()
		if a.Timer != nil {
			a.Timer.Stop()
		}
		a.Unlock()
	}
	b.wg.Wait()

	return b.session.Close()
}

// sweepLoop expires unconfirmed challenges and lobbies.
func (b *Bot) sweepLoop(ctx context.Context) {
	defer b.wg.Done()
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.sweepPending(ctx)
		}
	}
}

func (b *Bot) sweepPending(ctx context.Context) {
	for _, p := range b.registry.Sweep(b.now()) {
		b.logger.InfoContext(ctx, "pending match expired",
			"pending_id", p.ID,
			"format", p.Format,
			"channel_id", p.ChannelID)

		msg := fmt.Sprintf("⌛ The %s challenge from <@%s> expired.", p.Format.DisplayName(), p.InitiatorID)
		if !p.Lobby {
			if waiting := p.Awaiting(); len(waiting) > 0 {
				msg += " No response from " + mentionList(waiting) + "."
			}
		} else {
			msg = fmt.Sprintf("⌛ The %s lobby hosted by <@%s> closed without starting.", p.Format.DisplayName(), p.InitiatorID)
		}
		b.send(ctx, p.ChannelID, msg)
	}
	b.metrics.SetSessions(b.registry.Counts())
}

// messageHandler handles incoming messages
func (b *Bot) messageHandler(s *discordgo.Session, m *discordgo.MessageCreate) {
	b.handleMessage(context.Background(), m)
}

func (b *Bot) handleMessage(ctx context.Context, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if state := b.session.GetState(); state != nil && state.User != nil && m.Author.ID == state.User.ID {
		return
	}

	prefix := b.prefixFor(ctx, m.GuildID)
	if !strings.HasPrefix(m.Content, prefix) {
		return
	}

	parts := strings.Fields(strings.TrimPrefix(m.Content, prefix))
	if len(parts) == 0 {
		return
	}
	name := strings.ToLower(parts[0])
	args := parts[1:]

	cmd, ok := b.commands[name]
	if !ok {
		b.logger.DebugContext(ctx, "unknown command", "command", name)
		return
	}

	b.logger.InfoContext(ctx, "received command",
		"command", cmd.name,
		"user_id", m.Author.ID,
		"username", m.Author.Username,
		"guild_id", m.GuildID,
		"channel_id", m.ChannelID,
		"args_count", len(args))

	if cmd.guildOnly && m.GuildID == "" {
		b.reply(ctx, m, "This command only works in a server channel.")
		return
	}

	if cmd.adminOnly && !b.isAdmin(ctx, m) {
		b.metrics.Commands.WithLabelValues(cmd.name, "denied").Inc()
		b.reply(ctx, m, "🚫 You need the Administrator permission for that.")
		return
	}

	release, err := b.cooldowns.Acquire(ctx, m.Author.ID, cmd.cooldownKey)
	if err != nil {
		b.fail(ctx, m, cmd, err)
		return
	}

	if err := cmd.run(ctx, m, args); err != nil {
		release(false)
		b.fail(ctx, m, cmd, err)
		return
	}

	if err := release(true); err != nil {
		b.logger.ErrorContext(ctx, "failed to record cooldown", "command", cmd.name, "error", err)
	}
	b.metrics.Commands.WithLabelValues(cmd.name, "ok").Inc()
}

// fail reports a command error to the user. Expected errors become friendly
// replies; anything else is logged.
func (b *Bot) fail(ctx context.Context, m *discordgo.MessageCreate, cmd command, err error) {
	if msg, ok := b.describeError(err, cmd); ok {
		b.metrics.Commands.WithLabelValues(cmd.name, "rejected").Inc()
		b.reply(ctx, m, msg)
		return
	}
	b.metrics.Commands.WithLabelValues(cmd.name, "error").Inc()
	b.logger.ErrorContext(ctx, "command failed",
		"command", cmd.name,
		"user_id", m.Author.ID,
		"error", err)
	b.reply(ctx, m, "Something went wrong, please try again later.")
}

func (b *Bot) prefixFor(ctx context.Context, guildID string) string {
	if guildID == "" {
		return b.config.CommandPrefix
	}
	settings, err := b.guilds.GetGuildSettings(ctx, guildID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			b.logger.ErrorContext(ctx, "failed to load guild settings", "guild_id", guildID, "error", err)
		}
		return b.config.CommandPrefix
	}
	if settings.Prefix == "" {
		return b.config.CommandPrefix
	}
	return settings.Prefix
}

func (b *Bot) commentaryEnabled(ctx context.Context, guildID string) bool {
	settings, err := b.guilds.GetGuildSettings(ctx, guildID)
	if err != nil {
		return true
	}
	return settings.CommentaryEnabled
}

func (b *Bot) isAdmin(ctx context.Context, m *discordgo.MessageCreate) bool {
	perms, err := b.session.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil {
		b.logger.WarnContext(ctx, "failed to read permissions", "user_id", m.Author.ID, "error", err)
		return false
	}
	return perms&discordgo.PermissionAdministrator != 0
}

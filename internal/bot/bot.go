// Package bot wires the Discord gateway: it routes prefixed text commands to
// the story library and guild settings, and drives the button paginator for
// multi-page search results.
package bot

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"quotebot/app/internal/guild"
	"quotebot/app/internal/story"
)

const (
	// dmPrefix answers direct messages regardless of guild configuration.
	dmPrefix = "?"

	// quoteColor is the accent colour for quote embeds.
	quoteColor = 0xdb05db

	defaultPaginatorTTL = 10 * time.Minute

	// Guild owners may adjust prefixes once per cooldown window.
	cooldownWindow = 30 * time.Second
)

// CooldownSettings configures the per-user command cooldown.
type CooldownSettings struct {
	Burst  int
	Window time.Duration
	TTL    time.Duration
}

// Options configures the bot wiring.
type Options struct {
	Token           string
	OwnerID         string
	DefaultPrefixes []string
	Library         *story.Library
	Guilds          guild.Repository
	Logger          *logrus.Logger
	SentryHub       *sentry.Hub
	Cooldown        CooldownSettings
	PaginatorTTL    time.Duration
}

// Bot owns the Discord session and its event handlers.
type Bot struct {
	session   *discordgo.Session
	library   *story.Library
	guilds    guild.Repository
	defaults  []string
	ownerID   string
	logger    *logrus.Logger
	sentryHub *sentry.Hub

	cooldowns  *Limiter
	paginators *paginatorRegistry
	emojiStock map[string]*discordgo.Emoji
	connected  atomic.Bool
}

// New constructs the bot and registers its gateway handlers. The session is
// not opened until Start is called.
func New(opts Options) (*Bot, error) {
	if opts.Token == "" {
		return nil, eris.New("discord token is required")
	}
	if opts.Library == nil {
		return nil, eris.New("story library is required")
	}
	if opts.Guilds == nil {
		return nil, eris.New("guild repository is required")
	}

	session, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, eris.Wrap(err, "creating discord session")
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	defaults := opts.DefaultPrefixes
	if len(defaults) == 0 {
		defaults = []string{dmPrefix}
	}

	cooldown := opts.Cooldown
	if cooldown.Burst <= 0 {
		cooldown.Burst = 1
	}
	if cooldown.Window <= 0 {
		cooldown.Window = cooldownWindow
	}
	if cooldown.TTL <= 0 {
		cooldown.TTL = 10 * time.Minute
	}

	paginatorTTL := opts.PaginatorTTL
	if paginatorTTL <= 0 {
		paginatorTTL = defaultPaginatorTTL
	}

	b := &Bot{
		session:    session,
		library:    opts.Library,
		guilds:     opts.Guilds,
		defaults:   defaults,
		ownerID:    opts.OwnerID,
		logger:     opts.Logger,
		sentryHub:  opts.SentryHub,
		cooldowns:  NewLimiter(cooldown.Burst, 1/cooldown.Window.Seconds(), cooldown.TTL),
		paginators: newPaginatorRegistry(paginatorTTL),
		emojiStock: make(map[string]*discordgo.Emoji),
	}

	session.AddHandler(b.onReady)
	session.AddHandler(b.onDisconnect)
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onInteractionCreate)

	return b, nil
}

// Start opens the gateway connection.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return eris.Wrap(err, "opening discord gateway connection")
	}

	b.paginators.startJanitor()
	return nil
}

// Close tears down the background workers and the gateway connection.
func (b *Bot) Close() error {
	b.paginators.stopJanitor()
	b.cooldowns.Close()

	if err := b.session.Close(); err != nil {
		return eris.Wrap(err, "closing discord gateway connection")
	}

	return nil
}

// Connected reports whether the gateway session is up.
func (b *Bot) Connected() bool {
	return b.connected.Load()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.connected.Store(true)
	b.loadEmojiStock(s)

	if b.logger != nil {
		b.logger.WithFields(logrus.Fields{
			"user_id":  r.User.ID,
			"username": r.User.Username,
			"guilds":   len(r.Guilds),
		}).Info("logged in to discord gateway")
	}
}

func (b *Bot) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	b.connected.Store(false)

	if b.logger != nil {
		b.logger.Warn("discord gateway connection lost")
	}
}

// loadEmojiStock caches the custom emoji behind each story's icon so other
// handlers can reference them without walking guild state again.
func (b *Bot) loadEmojiStock(s *discordgo.Session) {
	for _, info := range b.library.Stories() {
		wanted := strconv.FormatInt(info.EmojiID, 10)

		for _, g := range s.State.Guilds {
			for _, emoji := range g.Emojis {
				if emoji.ID == wanted {
					b.emojiStock[info.Acronym] = emoji
				}
			}
		}
	}

	if b.logger != nil {
		b.logger.WithField("emojis", len(b.emojiStock)).Debug("loaded emoji stock")
	}
}

func (b *Bot) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if b.logger != nil {
		entry := b.logger.WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	if b.sentryHub != nil {
		b.sentryHub.CaptureException(err)
	}
}

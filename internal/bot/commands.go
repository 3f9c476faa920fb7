package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"quotebot/app/internal/embed"
	"quotebot/app/internal/guild"
	"quotebot/app/internal/story"
)

// defaultStoryAcronym is the story the search command scans.
const defaultStoryAcronym = "acvr"

const randomQuoteFooter = "Randomly chosen quote from an M J Bradley story."

func (b *Bot) handleRandomText(s *discordgo.Session, m *discordgo.MessageCreate) {
	info, quote, err := b.library.RandomQuote()
	if err != nil {
		if eris.Is(err, story.ErrNoStories) {
			b.reply(s, m.ChannelID, "No stories are loaded right now.")
			return
		}
		b.recordError(nil, err, "picking random quote")
		b.reply(s, m.ChannelID, "Something went wrong picking a quote.")
		return
	}

	page, err := embed.NewStoryQuote(
		embed.WithColor(quoteColor),
		embed.WithStory(info.Metadata()),
		embed.WithPageContent(quote.Content()),
	).SetFooterText(randomQuoteFooter).Build()
	if err != nil {
		b.recordError(logrus.Fields{"story": info.Acronym}, err, "building random quote embed")
		return
	}

	if _, err := s.ChannelMessageSendEmbed(m.ChannelID, page); err != nil {
		b.recordError(logrus.Fields{"channel_id": m.ChannelID}, err, "sending random quote")
	}
}

func (b *Bot) handleSearch(s *discordgo.Session, m *discordgo.MessageCreate, query string) {
	if query == "" {
		b.reply(s, m.ChannelID, "Give me a word or phrase to search for.")
		return
	}

	info, ok := b.library.Info(defaultStoryAcronym)
	if !ok {
		b.reply(s, m.ChannelID, "That story isn't loaded right now.")
		return
	}

	quotes, err := b.library.Search(defaultStoryAcronym, query, true)
	if err != nil {
		b.recordError(logrus.Fields{"query": query}, err, "searching story text")
		b.reply(s, m.ChannelID, "Something went wrong searching the story.")
		return
	}

	if len(quotes) == 0 {
		page, buildErr := embed.NewStoryQuote(
			embed.WithColor(quoteColor),
			embed.WithStory(info.Metadata()),
			embed.WithPageContent(nil),
			embed.WithDescription("No quotes found!"),
		).SetPageFooter(0, 0).Build()
		if buildErr != nil {
			b.recordError(logrus.Fields{"query": query}, buildErr, "building empty search embed")
			return
		}

		if _, sendErr := s.ChannelMessageSendEmbed(m.ChannelID, page); sendErr != nil {
			b.recordError(logrus.Fields{"channel_id": m.ChannelID}, sendErr, "sending empty search result")
		}
		return
	}

	view := newPaginator(m.Author.ID, info, quotes)

	page, err := view.pageEmbed()
	if err != nil {
		b.recordError(logrus.Fields{"query": query}, err, "building search result embed")
		return
	}

	send := &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{page}}
	if len(quotes) > 1 {
		send.Components = view.components()
	}

	message, err := s.ChannelMessageSendComplex(m.ChannelID, send)
	if err != nil {
		b.recordError(logrus.Fields{"channel_id": m.ChannelID}, err, "sending search results")
		return
	}

	if len(quotes) > 1 {
		b.paginators.add(message.ID, view)
	}
}

func (b *Bot) handlePrefixes(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args string) {
	if m.GuildID == "" {
		b.reply(s, m.ChannelID, "Prefixes can only be managed in a server.")
		return
	}

	sub, rest := splitCommand(args)

	switch sub {
	case "":
		b.handlePrefixesList(ctx, s, m)
	case "add":
		b.handlePrefixesEdit(ctx, s, m, rest, b.guilds.AddPrefix)
	case "remove":
		b.handlePrefixesEdit(ctx, s, m, rest, b.guilds.RemovePrefix)
	default:
		b.reply(s, m.ChannelID, "Usage: prefixes [add|remove] <prefix>")
	}
}

func (b *Bot) handlePrefixesList(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	allowed, err := b.channelAllowed(ctx, m.GuildID, m.ChannelID)
	if err != nil {
		b.recordError(logrus.Fields{"guild_id": m.GuildID}, err, "checking allowed channels")
		return
	}
	if !allowed {
		b.reply(s, m.ChannelID, "Only the server or bot owner can do this.")
		return
	}

	prefixes := b.prefixesFor(ctx, m.GuildID)
	b.reply(s, m.ChannelID, "Prefixes:\n"+strings.Join(prefixes, ", "))
}

func (b *Bot) handleAllow(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args string) {
	b.handleChannelEdit(ctx, s, m, args, channelEdit{
		apply:     b.guilds.AllowChannel,
		tolerated: guild.ErrChannelAlreadyAllowed,
		usage:     "Usage: allow [this|all]",
		done:      "Channel(s) allowed.",
	})
}

func (b *Bot) handleDisallow(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args string) {
	b.handleChannelEdit(ctx, s, m, args, channelEdit{
		apply:     b.guilds.DenyChannel,
		tolerated: guild.ErrChannelNotAllowed,
		usage:     "Usage: disallow [this|all]",
		done:      "Channel(s) disallowed.",
	})
}

// channelEdit describes one direction of the allow/disallow pair: the
// repository operation, the error that means the channel was already in the
// requested state, and the reply texts.
type channelEdit struct {
	apply     func(context.Context, string, string) error
	tolerated error
	usage     string
	done      string
}

func (b *Bot) handleChannelEdit(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args string, edit channelEdit) {
	if m.GuildID == "" {
		b.reply(s, m.ChannelID, "Channels can only be managed in a server.")
		return
	}

	scope, ok := channelScope(args)
	if !ok {
		b.reply(s, m.ChannelID, edit.usage)
		return
	}

	if !b.isBotOwner(m.Author.ID) && !b.isGuildOwner(s, m.GuildID, m.Author.ID) {
		b.reply(s, m.ChannelID, "Only the server owner can do this.")
		return
	}

	channels := []string{m.ChannelID}
	if scope == scopeAll {
		var err error
		channels, err = b.guildChannels(s, m.GuildID)
		if err != nil {
			b.recordError(logrus.Fields{"guild_id": m.GuildID}, err, "listing guild channels")
			b.reply(s, m.ChannelID, "Something went wrong looking up the server's channels.")
			return
		}
	}

	if err := b.editChannels(ctx, m.GuildID, channels, edit); err != nil {
		b.recordError(logrus.Fields{"guild_id": m.GuildID}, err, "updating allowed channels")
		b.reply(s, m.ChannelID, "Something went wrong updating the channels.")
		return
	}

	b.reply(s, m.ChannelID, edit.done)
}

const (
	scopeThis = "this"
	scopeAll  = "all"
)

// channelScope normalizes the allow/disallow scope argument. No argument
// means the current channel.
func channelScope(arg string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "", scopeThis:
		return scopeThis, true
	case scopeAll:
		return scopeAll, true
	}

	return "", false
}

// editChannels applies the channel edit to every listed channel. A channel
// already in the requested state is not an error.
func (b *Bot) editChannels(ctx context.Context, guildID string, channelIDs []string, edit channelEdit) error {
	for _, channelID := range channelIDs {
		if err := edit.apply(ctx, guildID, channelID); err != nil && !eris.Is(err, edit.tolerated) {
			return err
		}
	}

	return nil
}

func (b *Bot) handlePrefixesEdit(
	ctx context.Context,
	s *discordgo.Session,
	m *discordgo.MessageCreate,
	prefix string,
	apply func(context.Context, string, string) error,
) {
	if prefix == "" {
		b.reply(s, m.ChannelID, "Usage: prefixes [add|remove] <prefix>")
		return
	}

	if !b.isBotOwner(m.Author.ID) && !b.isGuildOwner(s, m.GuildID, m.Author.ID) {
		b.reply(s, m.ChannelID, "Only the server owner can do this.")
		return
	}

	if !b.cooldowns.Allow(m.Author.ID) {
		b.reply(s, m.ChannelID, "You're changing prefixes too quickly. Try again in a moment.")
		return
	}

	if err := apply(ctx, m.GuildID, prefix); err != nil {
		switch {
		case eris.Is(err, guild.ErrPrefixExists):
			b.reply(s, m.ChannelID, fmt.Sprintf("%q is already a prefix here.", prefix))
		case eris.Is(err, guild.ErrPrefixNotFound):
			b.reply(s, m.ChannelID, fmt.Sprintf("%q isn't a prefix here.", prefix))
		default:
			b.recordError(logrus.Fields{"guild_id": m.GuildID, "prefix": prefix}, err, "updating guild prefixes")
			b.reply(s, m.ChannelID, "Something went wrong updating the prefixes.")
		}
		return
	}

	prefixes := b.prefixesFor(ctx, m.GuildID)
	b.reply(s, m.ChannelID, "Prefixes:\n"+strings.Join(prefixes, ", "))
}

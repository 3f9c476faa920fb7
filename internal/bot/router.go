package bot

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// command routing: messages are matched against the prefixes configured for
// their guild (or the DM prefix), then dispatched by the first word.

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	ctx := context.Background()

	rest, ok := matchPrefix(m.Content, b.prefixesFor(ctx, m.GuildID))
	if !ok {
		return
	}

	name, args := splitCommand(rest)
	if name == "" {
		return
	}

	switch name {
	case "random_text":
		b.handleRandomText(s, m)
	case "search_cadmean", "search":
		b.handleSearch(s, m, args)
	case "prefixes":
		b.handlePrefixes(ctx, s, m, args)
	case "allow":
		b.handleAllow(ctx, s, m, args)
	case "disallow":
		b.handleDisallow(ctx, s, m, args)
	}
}

// prefixesFor resolves the prefixes a message must start with: the guild's
// custom prefixes when it has any, the configured defaults otherwise, and the
// fixed DM prefix outside guilds.
func (b *Bot) prefixesFor(ctx context.Context, guildID string) []string {
	if guildID == "" {
		return []string{dmPrefix}
	}

	prefixes, err := b.guilds.Prefixes(ctx, guildID)
	if err != nil {
		b.recordError(logrus.Fields{"guild_id": guildID}, err, "loading guild prefixes")
		return b.defaults
	}

	if len(prefixes) == 0 {
		return b.defaults
	}

	return prefixes
}

// matchPrefix strips the first matching prefix from the message content.
func matchPrefix(content string, prefixes []string) (string, bool) {
	for _, prefix := range prefixes {
		if prefix == "" {
			continue
		}
		if strings.HasPrefix(content, prefix) {
			return strings.TrimSpace(content[len(prefix):]), true
		}
	}

	return "", false
}

// splitCommand separates the command word from its argument string.
func splitCommand(rest string) (name, args string) {
	parts := strings.SplitN(rest, " ", 2)
	name = strings.ToLower(strings.TrimSpace(parts[0]))

	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}

	return name, args
}

func (b *Bot) reply(s *discordgo.Session, channelID, content string) {
	if _, err := s.ChannelMessageSend(channelID, content); err != nil {
		b.recordError(logrus.Fields{"channel_id": channelID}, err, "sending reply")
	}
}

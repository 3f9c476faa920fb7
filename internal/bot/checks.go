package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// isBotOwner reports whether the user is the configured bot owner.
func (b *Bot) isBotOwner(userID string) bool {
	return b.ownerID != "" && userID == b.ownerID
}

// isGuildOwner reports whether the user owns the guild, consulting cached
// state first and falling back to the API.
func (b *Bot) isGuildOwner(s *discordgo.Session, guildID, userID string) bool {
	g, err := s.State.Guild(guildID)
	if err != nil || g == nil {
		g, err = s.Guild(guildID)
		if err != nil {
			b.recordError(logrus.Fields{"guild_id": guildID}, eris.Wrap(err, "fetching guild"), "resolving guild owner")
			return false
		}
	}

	return g.OwnerID == userID
}

// guildChannels lists the guild's channel identifiers, consulting cached
// state first and falling back to the API.
func (b *Bot) guildChannels(s *discordgo.Session, guildID string) ([]string, error) {
	g, err := s.State.Guild(guildID)
	if err == nil && g != nil && len(g.Channels) > 0 {
		ids := make([]string, 0, len(g.Channels))
		for _, channel := range g.Channels {
			ids = append(ids, channel.ID)
		}
		return ids, nil
	}

	channels, err := s.GuildChannels(guildID)
	if err != nil {
		return nil, eris.Wrapf(err, "listing channels for guild %s", guildID)
	}

	ids := make([]string, 0, len(channels))
	for _, channel := range channels {
		ids = append(ids, channel.ID)
	}

	return ids, nil
}

// channelAllowed reports whether commands may run in the channel. A guild
// with no allowed channels configured permits every channel.
func (b *Bot) channelAllowed(ctx context.Context, guildID, channelID string) (bool, error) {
	channels, err := b.guilds.AllowedChannels(ctx, guildID)
	if err != nil {
		return false, err
	}

	if len(channels) == 0 {
		return true, nil
	}

	for _, allowed := range channels {
		if allowed == channelID {
			return true, nil
		}
	}

	return false, nil
}

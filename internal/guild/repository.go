package guild

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrPrefixExists indicates an attempt to add a prefix a guild already has.
var ErrPrefixExists = eris.New("prefix already registered")

// ErrPrefixNotFound indicates an attempt to remove a prefix a guild does not have.
var ErrPrefixNotFound = eris.New("prefix not registered")

// ErrChannelAlreadyAllowed indicates an attempt to allow a channel twice.
var ErrChannelAlreadyAllowed = eris.New("channel already allowed")

// ErrChannelNotAllowed indicates an attempt to deny a channel that was never allowed.
var ErrChannelNotAllowed = eris.New("channel not allowed")

// Repository defines persistence operations for guild settings.
type Repository interface {
	Prefixes(ctx context.Context, guildID string) ([]string, error)
	AddPrefix(ctx context.Context, guildID, prefix string) error
	RemovePrefix(ctx context.Context, guildID, prefix string) error
	AllowedChannels(ctx context.Context, guildID string) ([]string, error)
	AllowChannel(ctx context.Context, guildID, channelID string) error
	DenyChannel(ctx context.Context, guildID, channelID string) error
	CountGuildsWithPrefixes(ctx context.Context) (int64, error)
}

// GormRepository persists guild settings using a Gorm database connection.
type GormRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewRepository constructs a Gorm-backed repository implementation.
func NewRepository(db *gorm.DB, logger *logrus.Logger) (*GormRepository, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &GormRepository{db: db, logger: logger}, nil
}

var _ Repository = (*GormRepository)(nil)

// Prefixes returns the prefixes registered for the guild, ordered by creation.
func (r *GormRepository) Prefixes(ctx context.Context, guildID string) ([]string, error) {
	trimmed := strings.TrimSpace(guildID)
	if trimmed == "" {
		return nil, eris.New("guild id is required")
	}

	var rows []Prefix
	err := r.db.WithContext(ctx).
		Where("guild_id = ?", trimmed).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		r.logError(logrus.Fields{"guild_id": trimmed}, err, "listing guild prefixes")
		return nil, eris.Wrapf(err, "listing prefixes for guild %s", trimmed)
	}

	prefixes := make([]string, 0, len(rows))
	for _, row := range rows {
		prefixes = append(prefixes, row.Prefix)
	}

	return prefixes, nil
}

// AddPrefix registers a new prefix for the guild.
func (r *GormRepository) AddPrefix(ctx context.Context, guildID, prefix string) error {
	trimmedGuild := strings.TrimSpace(guildID)
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedGuild == "" {
		return eris.New("guild id is required")
	}
	if trimmedPrefix == "" {
		return eris.New("prefix is required")
	}

	existing, err := r.findPrefix(ctx, trimmedGuild, trimmedPrefix)
	if err != nil {
		return err
	}
	if existing != nil {
		return eris.Wrapf(ErrPrefixExists, "prefix %q for guild %s", trimmedPrefix, trimmedGuild)
	}

	row := &Prefix{GuildID: trimmedGuild, Prefix: trimmedPrefix}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		r.logError(logrus.Fields{"guild_id": trimmedGuild, "prefix": trimmedPrefix}, err, "adding guild prefix")
		return eris.Wrapf(err, "adding prefix %q for guild %s", trimmedPrefix, trimmedGuild)
	}

	return nil
}

// RemovePrefix deletes a prefix previously registered for the guild.
func (r *GormRepository) RemovePrefix(ctx context.Context, guildID, prefix string) error {
	trimmedGuild := strings.TrimSpace(guildID)
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedGuild == "" {
		return eris.New("guild id is required")
	}
	if trimmedPrefix == "" {
		return eris.New("prefix is required")
	}

	existing, err := r.findPrefix(ctx, trimmedGuild, trimmedPrefix)
	if err != nil {
		return err
	}
	if existing == nil {
		return eris.Wrapf(ErrPrefixNotFound, "prefix %q for guild %s", trimmedPrefix, trimmedGuild)
	}

	// Hard delete so the unique index does not trip over soft-deleted rows
	// when the prefix is re-added later.
	if err := r.db.WithContext(ctx).Unscoped().Delete(existing).Error; err != nil {
		r.logError(logrus.Fields{"guild_id": trimmedGuild, "prefix": trimmedPrefix}, err, "removing guild prefix")
		return eris.Wrapf(err, "removing prefix %q for guild %s", trimmedPrefix, trimmedGuild)
	}

	return nil
}

// AllowedChannels returns the channels in which the guild permits commands.
func (r *GormRepository) AllowedChannels(ctx context.Context, guildID string) ([]string, error) {
	trimmed := strings.TrimSpace(guildID)
	if trimmed == "" {
		return nil, eris.New("guild id is required")
	}

	var rows []AllowedChannel
	err := r.db.WithContext(ctx).
		Where("guild_id = ?", trimmed).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		r.logError(logrus.Fields{"guild_id": trimmed}, err, "listing allowed channels")
		return nil, eris.Wrapf(err, "listing allowed channels for guild %s", trimmed)
	}

	channels := make([]string, 0, len(rows))
	for _, row := range rows {
		channels = append(channels, row.ChannelID)
	}

	return channels, nil
}

// AllowChannel marks a channel as allowed for bot commands.
func (r *GormRepository) AllowChannel(ctx context.Context, guildID, channelID string) error {
	trimmedGuild := strings.TrimSpace(guildID)
	trimmedChannel := strings.TrimSpace(channelID)
	if trimmedGuild == "" {
		return eris.New("guild id is required")
	}
	if trimmedChannel == "" {
		return eris.New("channel id is required")
	}

	existing, err := r.findChannel(ctx, trimmedGuild, trimmedChannel)
	if err != nil {
		return err
	}
	if existing != nil {
		return eris.Wrapf(ErrChannelAlreadyAllowed, "channel %s for guild %s", trimmedChannel, trimmedGuild)
	}

	row := &AllowedChannel{GuildID: trimmedGuild, ChannelID: trimmedChannel}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		r.logError(logrus.Fields{"guild_id": trimmedGuild, "channel_id": trimmedChannel}, err, "allowing channel")
		return eris.Wrapf(err, "allowing channel %s for guild %s", trimmedChannel, trimmedGuild)
	}

	return nil
}

// DenyChannel removes a channel from the guild's allowed list.
func (r *GormRepository) DenyChannel(ctx context.Context, guildID, channelID string) error {
	trimmedGuild := strings.TrimSpace(guildID)
	trimmedChannel := strings.TrimSpace(channelID)
	if trimmedGuild == "" {
		return eris.New("guild id is required")
	}
	if trimmedChannel == "" {
		return eris.New("channel id is required")
	}

	existing, err := r.findChannel(ctx, trimmedGuild, trimmedChannel)
	if err != nil {
		return err
	}
	if existing == nil {
		return eris.Wrapf(ErrChannelNotAllowed, "channel %s for guild %s", trimmedChannel, trimmedGuild)
	}

	if err := r.db.WithContext(ctx).Unscoped().Delete(existing).Error; err != nil {
		r.logError(logrus.Fields{"guild_id": trimmedGuild, "channel_id": trimmedChannel}, err, "denying channel")
		return eris.Wrapf(err, "denying channel %s for guild %s", trimmedChannel, trimmedGuild)
	}

	return nil
}

// CountGuildsWithPrefixes reports how many guilds carry custom prefixes.
func (r *GormRepository) CountGuildsWithPrefixes(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Prefix{}).
		Distinct("guild_id").
		Count(&count).Error
	if err != nil {
		r.logError(nil, err, "counting guilds with prefixes")
		return 0, eris.Wrap(err, "counting guilds with prefixes")
	}

	return count, nil
}

func (r *GormRepository) findPrefix(ctx context.Context, guildID, prefix string) (*Prefix, error) {
	var row Prefix
	err := r.db.WithContext(ctx).First(&row, "guild_id = ? AND prefix = ?", guildID, prefix).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"guild_id": guildID, "prefix": prefix}, err, "fetching guild prefix")
		return nil, eris.Wrapf(err, "fetching prefix %q for guild %s", prefix, guildID)
	}

	return &row, nil
}

func (r *GormRepository) findChannel(ctx context.Context, guildID, channelID string) (*AllowedChannel, error) {
	var row AllowedChannel
	err := r.db.WithContext(ctx).First(&row, "guild_id = ? AND channel_id = ?", guildID, channelID).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"guild_id": guildID, "channel_id": channelID}, err, "fetching allowed channel")
		return nil, eris.Wrapf(err, "fetching channel %s for guild %s", channelID, guildID)
	}

	return &row, nil
}

func (r *GormRepository) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil {
		return
	}

	entry := r.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

// Package guild persists per-guild bot settings: the command prefixes a
// guild answers to and the channels its members may run commands in.
package guild

import "gorm.io/gorm"

// Prefix is one command prefix registered for a guild.
type Prefix struct {
	gorm.Model
	GuildID string `gorm:"size:32;not null;uniqueIndex:idx_guild_prefixes_guild_prefix"`
	Prefix  string `gorm:"size:64;not null;uniqueIndex:idx_guild_prefixes_guild_prefix"`
}

// TableName defines the table name for the Prefix model.
func (Prefix) TableName() string {
	return "guild_prefixes"
}

// AllowedChannel marks a guild channel in which bot commands are allowed.
type AllowedChannel struct {
	gorm.Model
	GuildID   string `gorm:"size:32;not null;uniqueIndex:idx_allowed_channels_guild_channel"`
	ChannelID string `gorm:"size:32;not null;uniqueIndex:idx_allowed_channels_guild_channel"`
}

// TableName defines the table name for the AllowedChannel model.
func (AllowedChannel) TableName() string {
	return "allowed_channels"
}

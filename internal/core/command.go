package core

import (
	"quaver/internal/history"
	"quaver/internal/music/player"
	"quaver/internal/storage"

	"github.com/bwmarrin/discordgo"
)

type Command interface {
	Name() string
	Description() string
	Run(ctx interface{}) error
}

// SlashProvider - how this command should be registered with Discord
type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// SlashInteractionContext is what the runtime hands a slash command.
type SlashInteractionContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Storage *storage.Storage
	History *history.Store
	Players *player.Registry

	// Voice is how commands reach the caller's voice state without
	// knowing the bot type.
	Voice VoiceLookup
}

// VoiceLookup finds which voice channel a user sits in, if any.
type VoiceLookup interface {
	FindUserVoiceState(guildID, userID string) (*VoiceState, error)
}

type VoiceState struct {
	ChannelID string
	UserID    string
}

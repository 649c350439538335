package core

import (
	"tunesmith/internal/music/player"
	"tunesmith/internal/music/resolver"
)

// BotVoice is the interface the Discord bot provides for voice/music.
type BotVoice interface {
	GetOrCreateSession(guildID string) *player.Session
	RemoveSession(guildID string)
	Resolver() *resolver.Resolver
	FindUserVoiceState(guildID, userID string) (*VoiceState, error)
}

// VoiceState holds minimal voice channel state for a user.
type VoiceState struct {
	ChannelID string
	UserID    string
}

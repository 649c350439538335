package discord

import (
	"context"
	"fmt"

	"tunesmith/internal/core"
	"tunesmith/internal/music/player"
	"tunesmith/internal/music/resolver"
	"tunesmith/internal/music/track"
	"tunesmith/internal/music/voice"
)

// newGuildSession is the registry factory. The gateway session is read
// at dial time, after Run has opened it.
func (b *Bot) newGuildSession(guildID string) *player.Session {
	return player.NewSession(guildID, player.Deps{
		Dial: func(guildID, channelID string) (player.Connection, error) {
			return voice.NewDiscordDialer(b.dg).Dial(guildID, channelID)
		},
		ResolveAudio: func(ctx context.Context, t track.Track) (string, error) {
			return b.api.AudioURL(ctx, t.SourceID)
		},
	})
}

// GetOrCreateSession gets or creates the voice session for a guild.
func (b *Bot) GetOrCreateSession(guildID string) *player.Session {
	return b.registry.GetOrCreate(guildID)
}

// RemoveSession drops the voice session for a guild.
func (b *Bot) RemoveSession(guildID string) {
	b.registry.Remove(guildID)
}

// Resolver returns the track resolver.
func (b *Bot) Resolver() *resolver.Resolver {
	return b.resolver
}

// FindUserVoiceState finds the voice state of a user
func (b *Bot) FindUserVoiceState(guildID, userID string) (*core.VoiceState, error) {
	guild, err := b.dg.State.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving guild: %w", err)
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			return &core.VoiceState{
				ChannelID: vs.ChannelID,
				UserID:    vs.UserID,
			}, nil
		}
	}
	return nil, fmt.Errorf("user not in any voice channel")
}

package music

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tunesmith/internal/core"
	"tunesmith/internal/storage"
	"tunesmith/internal/suno"

	"github.com/bwmarrin/discordgo"
)

type PlayCommand struct{}

func (c *PlayCommand) Name() string        { return "play" }
func (c *PlayCommand) Description() string { return "Play an existing track by its generation ID" }
func (c *PlayCommand) Aliases() []string   { return []string{} }
func (c *PlayCommand) Group() string       { return "music" }
func (c *PlayCommand) Category() string    { return "🎵 Music" }
func (c *PlayCommand) RequireAdmin() bool  { return false }
func (c *PlayCommand) RequireDev() bool    { return false }

func (c *PlayCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "id",
				Description: "Generation ID from a search result or earlier generation",
				Required:    true,
			},
		},
	}
}

func (c *PlayCommand) Run(ctx interface{}) error {
	ic, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return nil
	}

	session := ic.Session
	event := ic.Event
	guildID := event.GuildID
	member := event.Member

	var id string
	for _, opt := range event.ApplicationCommandData().Options {
		if opt.Name == "id" {
			id = opt.StringValue()
		}
	}

	if id == "" {
		return core.RespondEphemeral(session, event, "🎵 Error: id is required")
	}

	voiceState, err := ic.Bot.FindUserVoiceState(guildID, member.User.ID)
	if err != nil {
		return core.RespondEphemeral(session, event, "You need to be in a voice channel to use this command.")
	}

	if err := core.RespondDeferred(session, event); err != nil {
		return fmt.Errorf("failed to send deferred response: %w", err)
	}

	trk, err := ic.Bot.Resolver().ResolvePlay(context.Background(), id)
	if err != nil {
		if errors.Is(err, suno.ErrNotFound) {
			core.Followup(session, event, fmt.Sprintf("🔍 No track found with ID `%s`.", id))
		} else {
			core.Followup(session, event, fmt.Sprintf("❌ Error looking up track: %v", err))
		}
		return nil
	}

	s := ic.Bot.GetOrCreateSession(guildID)
	listenSessionStatus(session, event, s)
	if err := s.Enqueue(trk, member.User.Username, voiceState.ChannelID); err != nil {
		core.Followup(session, event, fmt.Sprintf("❌ Error: %v", err))
		return nil
	}

	if err := ic.Storage.AddTrackToHistory(guildID, storage.TrackHistoryRecord{
		SourceID:    trk.SourceID,
		Title:       trk.Title,
		RequestedBy: member.User.Username,
		PlayedAt:    time.Now(),
	}); err != nil {
		log.Printf("[WARN] Failed to record track history: %v", err)
	}

	core.Followup(session, event, fmt.Sprintf("🎶 Added to queue: %q (ID: `%s`)", trk.Title, trk.SourceID))
	return nil
}

func init() {
	core.RegisterCommand(core.ApplyMiddlewares(
		&PlayCommand{},
		core.WithGuildOnly(),
		core.WithCommandLogger(),
	))
}

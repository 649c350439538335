package music

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tunesmith/internal/core"
	"tunesmith/internal/music/jobs"
	"tunesmith/internal/storage"

	"github.com/bwmarrin/discordgo"
)

type GenerateCommand struct{}

func (c *GenerateCommand) Name() string        { return "generate" }
func (c *GenerateCommand) Description() string { return "Generate a track from a prompt and play it" }
func (c *GenerateCommand) Aliases() []string   { return []string{} }
func (c *GenerateCommand) Group() string       { return "music" }
func (c *GenerateCommand) Category() string    { return "🎵 Music" }
func (c *GenerateCommand) RequireAdmin() bool  { return false }
func (c *GenerateCommand) RequireDev() bool    { return false }

func (c *GenerateCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "prompt",
				Description: "What the track should sound like",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "style",
				Description: "Optional style hint (e.g. jazz, synthwave)",
				Required:    false,
			},
		},
	}
}

func (c *GenerateCommand) Run(ctx interface{}) error {
	ic, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return nil
	}

	session := ic.Session
	event := ic.Event
	guildID := event.GuildID
	member := event.Member

	var prompt, style string
	for _, opt := range event.ApplicationCommandData().Options {
		switch opt.Name {
		case "prompt":
			prompt = opt.StringValue()
		case "style":
			style = opt.StringValue()
		}
	}

	if prompt == "" {
		return core.RespondEphemeral(session, event, "🎵 Error: prompt is required")
	}

	voiceState, err := ic.Bot.FindUserVoiceState(guildID, member.User.ID)
	if err != nil {
		return core.RespondEphemeral(session, event, "You need to be in a voice channel to use this command.")
	}

	if err := core.RespondDeferred(session, event); err != nil {
		return fmt.Errorf("failed to send deferred response: %w", err)
	}
	core.Followup(session, event, fmt.Sprintf("🎵 Generating music based on: %q... This might take a minute.", prompt))

	trk, err := ic.Bot.Resolver().ResolveGenerate(context.Background(), prompt, style)
	if err != nil {
		core.Followup(session, event, generateErrorMessage(err))
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

// generateErrorMessage maps generation failures to user-facing text.
func generateErrorMessage(err error) string {
	var genErr *jobs.GenerationError
	switch {
	case errors.Is(err, jobs.ErrGenerationTimeout):
		return "⌛ Generation timed out. Try again with a shorter prompt."
	case errors.As(err, &genErr):
		return fmt.Sprintf("❌ Generation failed: %s", genErr.Reason)
	default:
		return fmt.Sprintf("❌ Error generating music: %v", err)
	}
}

func init() {
	core.RegisterCommand(core.ApplyMiddlewares(
		&GenerateCommand{},
		core.WithGuildOnly(),
		core.WithCommandLogger(),
	))
}

package music

import (
	"errors"
	"fmt"

	"tunesmith/internal/core"
	"tunesmith/internal/music/player"

	"github.com/bwmarrin/discordgo"
)

type SkipCommand struct{}

func (c *SkipCommand) Name() string        { return "skip" }
func (c *SkipCommand) Description() string { return "Skip the currently playing track" }
func (c *SkipCommand) Aliases() []string   { return []string{} }
func (c *SkipCommand) Group() string       { return "music" }
func (c *SkipCommand) Category() string    { return "🎵 Music" }
func (c *SkipCommand) RequireAdmin() bool  { return false }
func (c *SkipCommand) RequireDev() bool    { return false }

func (c *SkipCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *SkipCommand) Run(ctx interface{}) error {
	ic, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return nil
	}

	session := ic.Session
	event := ic.Event

	s := ic.Bot.GetOrCreateSession(event.GuildID)
	if err := s.Skip(); err != nil {
		if errors.Is(err, player.ErrNothingPlaying) {
			return core.Respond(session, event, "Nothing is playing right now.")
		}
		return core.RespondEphemeral(session, event, fmt.Sprintf("❌ Error skipping track: %v", err))
	}

	return core.Respond(session, event, "⏭ Skipped to the next track.")
}

func init() {
	core.RegisterCommand(core.ApplyMiddlewares(
		&SkipCommand{},
		core.WithGuildOnly(),
		core.WithCommandLogger(),
	))
}

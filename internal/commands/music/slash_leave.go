package music

import (
	"fmt"

	"tunesmith/internal/core"

	"github.com/bwmarrin/discordgo"
)

type LeaveCommand struct{}

func (c *LeaveCommand) Name() string        { return "leave" }
func (c *LeaveCommand) Description() string { return "Leave the voice channel and clear the queue" }
func (c *LeaveCommand) Aliases() []string   { return []string{} }
func (c *LeaveCommand) Group() string       { return "music" }
func (c *LeaveCommand) Category() string    { return "🎵 Music" }
func (c *LeaveCommand) RequireAdmin() bool  { return false }
func (c *LeaveCommand) RequireDev() bool    { return false }

func (c *LeaveCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *LeaveCommand) Run(ctx interface{}) error {
	ic, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return nil
	}

	session := ic.Session
	event := ic.Event

	s := ic.Bot.GetOrCreateSession(event.GuildID)
	if err := s.LeaveNow(); err != nil {
		return core.RespondEphemeral(session, event, fmt.Sprintf("❌ Error leaving voice channel: %v", err))
	}
	ic.Bot.RemoveSession(event.GuildID)

	return core.Respond(session, event, "👋 Left the voice channel.")
}

func init() {
	core.RegisterCommand(core.ApplyMiddlewares(
		&LeaveCommand{},
		core.WithGuildOnly(),
		core.WithCommandLogger(),
	))
}

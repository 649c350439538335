package music

import (
	"fmt"

	"tunesmith/internal/core"

	"github.com/bwmarrin/discordgo"
)

type JoinCommand struct{}

func (c *JoinCommand) Name() string        { return "join" }
func (c *JoinCommand) Description() string { return "Join your voice channel" }
func (c *JoinCommand) Aliases() []string   { return []string{} }
func (c *JoinCommand) Group() string       { return "music" }
func (c *JoinCommand) Category() string    { return "🎵 Music" }
func (c *JoinCommand) RequireAdmin() bool  { return false }
func (c *JoinCommand) RequireDev() bool    { return false }

func (c *JoinCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *JoinCommand) Run(ctx interface{}) error {
	ic, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return nil
	}

	session := ic.Session
	event := ic.Event

	voiceState, err := ic.Bot.FindUserVoiceState(event.GuildID, event.Member.User.ID)
	if err != nil {
		return core.RespondEphemeral(session, event, "You need to be in a voice channel to use this command.")
	}

	s := ic.Bot.GetOrCreateSession(event.GuildID)
	if err := s.Join(voiceState.ChannelID); err != nil {
		return core.RespondEphemeral(session, event, fmt.Sprintf("❌ Error joining voice channel: %v", err))
	}

	return core.Respond(session, event, "🔊 Joined your voice channel.")
}

func init() {
	core.RegisterCommand(core.ApplyMiddlewares(
		&JoinCommand{},
		core.WithGuildOnly(),
		core.WithCommandLogger(),
	))
}

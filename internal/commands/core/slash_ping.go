package core

import (
	"fmt"

	"tunesmith/internal/core"

	"github.com/bwmarrin/discordgo"
)

type PingCommand struct{}

func (c *PingCommand) Name() string        { return "ping" }
func (c *PingCommand) Description() string { return "Check that the bot is alive" }
func (c *PingCommand) Aliases() []string   { return []string{} }
func (c *PingCommand) Group() string       { return "core" }
func (c *PingCommand) Category() string    { return "🕯️ Information" }
func (c *PingCommand) RequireAdmin() bool  { return false }
func (c *PingCommand) RequireDev() bool    { return false }

func (c *PingCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *PingCommand) Run(ctx interface{}) error {
	ic, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return nil
	}
	return core.RespondEphemeral(ic.Session, ic.Event,
		fmt.Sprintf("🏓 Pong! Gateway latency: %v", ic.Session.HeartbeatLatency()))
}

func init() {
	core.RegisterCommand(core.ApplyMiddlewares(
		&PingCommand{},
		core.WithCommandLogger(),
	))
}

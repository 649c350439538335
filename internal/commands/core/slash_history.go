package core

import (
	"fmt"
	"strings"

	"tunesmith/internal/core"

	"github.com/bwmarrin/discordgo"
)

type HistoryCommand struct{}

func (c *HistoryCommand) Name() string        { return "history" }
func (c *HistoryCommand) Description() string { return "Show recently played tracks" }
func (c *HistoryCommand) Aliases() []string   { return []string{} }
func (c *HistoryCommand) Group() string       { return "core" }
func (c *HistoryCommand) Category() string    { return "🕯️ Information" }
func (c *HistoryCommand) RequireAdmin() bool  { return false }
func (c *HistoryCommand) RequireDev() bool    { return false }

func (c *HistoryCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *HistoryCommand) Run(ctx interface{}) error {
	ic, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return nil
	}

	records, err := ic.Storage.GetTracksHistory(ic.Event.GuildID)
	if err != nil {
		return core.RespondEphemeral(ic.Session, ic.Event, fmt.Sprintf("❌ Error reading history: %v", err))
	}

	if len(records) == 0 {
		return core.RespondEphemeral(ic.Session, ic.Event, "No tracks have been played here yet.")
	}

	var b strings.Builder
	// Newest first.
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		fmt.Fprintf(&b, "%s (ID: `%s`) by %s\n", rec.Title, rec.SourceID, rec.RequestedBy)
	}

	return core.RespondEmbedEphemeral(ic.Session, ic.Event, &discordgo.MessageEmbed{
		Title:       "Recently Played",
		Description: b.String(),
		Color:       core.EmbedColor,
	})
}

func init() {
	core.RegisterCommand(core.ApplyMiddlewares(
		&HistoryCommand{},
		core.WithGuildOnly(),
		core.WithCommandLogger(),
	))
}

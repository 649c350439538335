package core

import (
	"fmt"
	"sort"
	"strings"

	"tunesmith/internal/core"

	"github.com/bwmarrin/discordgo"
)

type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Show available commands" }
func (c *HelpCommand) Aliases() []string   { return []string{} }
func (c *HelpCommand) Group() string       { return "core" }
func (c *HelpCommand) Category() string    { return "🕯️ Information" }
func (c *HelpCommand) RequireAdmin() bool  { return false }
func (c *HelpCommand) RequireDev() bool    { return false }

func (c *HelpCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *HelpCommand) Run(ctx interface{}) error {
	ic, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return nil
	}

	byCategory := map[string][]core.Command{}
	for _, cmd := range core.AllCommands() {
		byCategory[cmd.Category()] = append(byCategory[cmd.Category()], cmd)
	}

	categories := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var b strings.Builder
	for _, cat := range categories {
		cmds := byCategory[cat]
		sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name() < cmds[j].Name() })

		fmt.Fprintf(&b, "**%s**\n", cat)
		for _, cmd := range cmds {
			fmt.Fprintf(&b, "`/%s` - %s\n", cmd.Name(), cmd.Description())
		}
		b.WriteString("\n")
	}

	return core.RespondEmbedEphemeral(ic.Session, ic.Event, &discordgo.MessageEmbed{
		Title:       "Commands",
		Description: b.String(),
		Color:       core.EmbedColor,
	})
}

func init() {
	core.RegisterCommand(core.ApplyMiddlewares(
		&HelpCommand{},
		core.WithCommandLogger(),
	))
}

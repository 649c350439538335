package music

import (
	"context"
	"fmt"

	"tunesmith/internal/core"

	"github.com/bwmarrin/discordgo"
)

type SearchCommand struct{}

func (c *SearchCommand) Name() string        { return "search" }
func (c *SearchCommand) Description() string { return "Search the track library" }
func (c *SearchCommand) Aliases() []string   { return []string{} }
func (c *SearchCommand) Group() string       { return "music" }
func (c *SearchCommand) Category() string    { return "🎵 Music" }
func (c *SearchCommand) RequireAdmin() bool  { return false }
func (c *SearchCommand) RequireDev() bool    { return false }

func (c *SearchCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "query",
				Description: "What to search for",
				Required:    true,
			},
		},
	}
}

func (c *SearchCommand) Run(ctx interface{}) error {
	ic, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return nil
	}

	session := ic.Session
	event := ic.Event

	var query string
	for _, opt := range event.ApplicationCommandData().Options {
		if opt.Name == "query" {
			query = opt.StringValue()
		}
	}

	if query == "" {
		return core.RespondEphemeral(session, event, "🔍 Error: query is required")
	}

	if err := core.RespondDeferred(session, event); err != nil {
		return fmt.Errorf("failed to send deferred response: %w", err)
	}

	results, err := ic.Bot.Resolver().ResolveSearch(context.Background(), query)
	if err != nil {
		core.Followup(session, event, fmt.Sprintf("❌ Error searching tracks: %v", err))
		return nil
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Search Results for %q", query),
		Color: core.EmbedColor,
	}

	i := 0
	for trk, ok := results.Next(); ok; trk, ok = results.Next() {
		i++
		title := trk.Title
		if len(title) > 50 {
			title = title[:50] + "..."
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("%d. %s", i, title),
			Value:  fmt.Sprintf("ID: `%s`\nUse `/play %s` to play this track", trk.SourceID, trk.SourceID),
			Inline: false,
		})
	}

	if i == 0 {
		core.Followup(session, event, fmt.Sprintf("No tracks found for %q.", query))
		return nil
	}

	core.FollowupEmbed(session, event, embed)
	return nil
}

func init() {
	core.RegisterCommand(core.ApplyMiddlewares(
		&SearchCommand{},
		core.WithGuildOnly(),
		core.WithCommandLogger(),
	))
}

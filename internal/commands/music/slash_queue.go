package music

import (
	"fmt"
	"strings"

	"tunesmith/internal/core"

	"github.com/bwmarrin/discordgo"
)

type QueueCommand struct{}

func (c *QueueCommand) Name() string        { return "queue" }
func (c *QueueCommand) Description() string { return "Show the current playback queue" }
func (c *QueueCommand) Aliases() []string   { return []string{} }
func (c *QueueCommand) Group() string       { return "music" }
func (c *QueueCommand) Category() string    { return "🎵 Music" }
func (c *QueueCommand) RequireAdmin() bool  { return false }
func (c *QueueCommand) RequireDev() bool    { return false }

func (c *QueueCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *QueueCommand) Run(ctx interface{}) error {
	ic, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return nil
	}

	session := ic.Session
	event := ic.Event

	s := ic.Bot.GetOrCreateSession(event.GuildID)
	snapshot := s.Snapshot()
	current, playing := s.NowPlaying()

	if len(snapshot) == 0 && !playing {
		return core.Respond(session, event, "The queue is empty.")
	}

	var b strings.Builder

	if playing {
		fmt.Fprintf(&b, "**Now Playing:** %s (ID: `%s`) requested by %s\n\n",
			current.Track.Title, current.Track.SourceID, current.RequestedBy)
		// The streaming track is the queue head; the rest is up next.
		if len(snapshot) > 0 {
			snapshot = snapshot[1:]
		}
	}

	if len(snapshot) > 0 {
		b.WriteString("**Up Next:**\n")
		for i, qt := range snapshot {
			fmt.Fprintf(&b, "%d. %s (ID: `%s`) requested by %s\n",
				i+1, qt.Track.Title, qt.Track.SourceID, qt.RequestedBy)
		}
	} else {
		b.WriteString("**Up Next:** Nothing in queue")
	}

	return core.RespondEmbedEphemeral(session, event, &discordgo.MessageEmbed{
		Title:       "Current Queue",
		Description: b.String(),
		Color:       core.EmbedColor,
	})
}

func init() {
	core.RegisterCommand(core.ApplyMiddlewares(
		&QueueCommand{},
		core.WithGuildOnly(),
		core.WithCommandLogger(),
	))
}

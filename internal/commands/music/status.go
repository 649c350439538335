package music

import (
	"fmt"
	"time"

	"tunesmith/internal/core"
	"tunesmith/internal/music/player"

	"github.com/bwmarrin/discordgo"
)

// statusWaitTimeout bounds how long a command waits for its enqueued
// track to be acknowledged. Signals can be consumed by a competing
// listener on the same session, so the wait must not be open-ended.
const statusWaitTimeout = time.Minute

// awaitPlaybackSignal consumes the session status feed until a signal
// worth reporting arrives, a terminal signal or closed feed ends the
// wait, or the timeout expires.
func awaitPlaybackSignal(status <-chan player.Status, timeout time.Duration) (player.Status, bool) {
	deadline := time.After(timeout)
	for {
		select {
		case signal, ok := <-status:
			if !ok {
				return "", false
			}
			switch signal {
			case player.StatusPlaying, player.StatusAdded:
				return signal, true
			case player.StatusAborted, player.StatusLeft:
				return "", false
			}
		case <-deadline:
			return "", false
		}
	}
}

// listenSessionStatus posts a followup once the session reports what
// happened to the freshly enqueued track. One listener per command
// invocation; it exits after the first relevant signal or the timeout.
func listenSessionStatus(session *discordgo.Session, event *discordgo.InteractionCreate, s *player.Session) {
	go func() {
		signal, ok := awaitPlaybackSignal(s.Status(), statusWaitTimeout)
		if !ok {
			return
		}

		switch signal {
		case player.StatusPlaying:
			qt, ok := s.NowPlaying()
			if !ok {
				core.FollowupEmbed(session, event, &discordgo.MessageEmbed{
					Title:       "⚠️ Error",
					Description: "Failed to get current track",
				})
				return
			}

			core.FollowupEmbed(session, event, &discordgo.MessageEmbed{
				Title:       player.StatusPlaying.StringEmoji() + " Now Playing",
				Description: fmt.Sprintf("🎶 %s (ID: `%s`)", qt.Track.Title, qt.Track.SourceID),
				Color:       core.EmbedColor,
			})

		case player.StatusAdded:
			core.FollowupEmbed(session, event, &discordgo.MessageEmbed{
				Title:       player.StatusAdded.StringEmoji() + " Track Added",
				Description: "Added to queue",
				Color:       core.EmbedColor,
			})
		}
	}()
}

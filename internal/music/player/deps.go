package player

import (
	"context"
	"io"

	"tunesmith/internal/music/stream"
	"tunesmith/internal/music/track"
	"tunesmith/internal/music/voice"
)

// Connection is the voice connection handle a session owns.
type Connection = voice.Connection

// Deps are the collaborators a session streams through. Dial and
// ResolveAudio have no defaults; OpenStream and Pump default to the
// ffmpeg/opus pipeline.
type Deps struct {
	// Dial joins a voice channel.
	Dial func(guildID, channelID string) (Connection, error)

	// ResolveAudio fetches the audio locator for a track that reached
	// the queue head without one.
	ResolveAudio func(ctx context.Context, t track.Track) (string, error)

	// OpenStream opens a PCM stream for an audio locator.
	OpenStream func(locator string) (io.ReadCloser, func(), error)

	// Pump pushes the PCM stream to the connection until it ends or
	// stop closes.
	Pump func(pcm io.ReadCloser, stop <-chan struct{}, conn Connection) error
}

func (d *Deps) fillDefaults() {
	if d.OpenStream == nil {
		d.OpenStream = stream.Open
	}
	if d.Pump == nil {
		d.Pump = stream.Pump
	}
}

package player

import (
	"context"
	"fmt"
	"log"
	"time"
)

const (
	// maxConsecutiveFailures forces a disconnect instead of grinding
	// through a queue that can't play.
	maxConsecutiveFailures = 3

	resolveTimeout = 30 * time.Second
)

// startEngineLocked moves a connected session into Streaming and
// launches the engine goroutine. Called with the mutex held.
func (s *Session) startEngineLocked() {
	if len(s.queue) == 0 {
		s.idleSince = time.Now()
		return
	}

	s.state = StateStreaming
	s.stop = make(chan struct{})
	s.idleSince = time.Time{}

	go s.run()
}

// run drives the queue: stream the head, dequeue on completion, repeat
// until the queue drains or the session is torn down. Exactly one run
// goroutine exists while the session is Streaming.
func (s *Session) run() {
	for {
		s.mu.Lock()
		if s.state != StateStreaming {
			// LeaveNow won the race; nothing left to drive.
			s.mu.Unlock()
			return
		}
		if len(s.queue) == 0 {
			s.state = StateConnected
			s.idleSince = time.Now()
			s.stop = nil
			s.emitStatus(StatusIdle)
			log.Printf("[Player] %s: queue drained, going idle", s.guildID)
			s.mu.Unlock()
			return
		}
		qt := s.queue[0]
		stop := s.stop
		conn := s.conn
		s.mu.Unlock()

		err := s.playTrack(qt, stop, conn)

		s.mu.Lock()
		if s.state != StateStreaming {
			s.mu.Unlock()
			return
		}
		s.queue = s.queue[1:]

		if err != nil {
			s.failStreak++
			s.emitStatus(StatusTrackFailed)
			log.Printf("[Player] %s: track %q failed (%d in a row): %v",
				s.guildID, qt.Track.Title, s.failStreak, err)

			if s.failStreak >= maxConsecutiveFailures {
				log.Printf("[Player] %s: %d consecutive stream failures, disconnecting",
					s.guildID, s.failStreak)
				s.emitStatus(StatusAborted)
				s.leaveLocked()
				s.mu.Unlock()
				return
			}
		} else {
			s.failStreak = 0
		}
		s.mu.Unlock()
	}
}

// playTrack resolves the audio locator if needed, opens the PCM stream
// and pumps it to the voice connection. Returns nil on natural
// completion or interruption via stop.
func (s *Session) playTrack(qt QueuedTrack, stop <-chan struct{}, conn Connection) error {
	locator := qt.Track.AudioURL
	if locator == "" {
		if s.deps.ResolveAudio == nil {
			return fmt.Errorf("no audio locator for track %q", qt.Track.Title)
		}
		ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
		defer cancel()

		loc, err := s.deps.ResolveAudio(ctx, qt.Track)
		if err != nil {
			return fmt.Errorf("failed to resolve audio locator: %w", err)
		}
		locator = loc
	}

	pcm, cleanup, err := s.deps.OpenStream(locator)
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	s.mu.Lock()
	s.emitStatus(StatusPlaying)
	s.mu.Unlock()
	log.Printf("[Player] %s: now playing %q", s.guildID, qt.Track.Title)

	if err := s.deps.Pump(pcm, stop, conn); err != nil {
		return fmt.Errorf("stream error: %w", err)
	}
	return nil
}

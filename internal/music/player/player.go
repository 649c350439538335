package player

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"tunesmith/internal/music/track"
)

// VoiceState is the session's position in the voice connection
// lifecycle.
type VoiceState int

const (
	StateDisconnected VoiceState = iota
	StateConnecting
	StateConnected
	StateStreaming
	StateDisconnecting
)

func (s VoiceState) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateStreaming:
		return "Streaming"
	case StateDisconnecting:
		return "Disconnecting"
	}
	return "Unknown"
}

// Status is a playback lifecycle notification emitted on the session's
// status channel.
type Status string

const (
	StatusPlaying     Status = "Playing"
	StatusAdded       Status = "Track Added"
	StatusSkipped     Status = "Track Skipped"
	StatusIdle        Status = "Queue Finished"
	StatusLeft        Status = "Left Voice"
	StatusTrackFailed Status = "Track Failed"
	StatusAborted     Status = "Playback Aborted"
)

func (status Status) StringEmoji() string {
	m := map[Status]string{
		StatusPlaying:     "▶️",
		StatusAdded:       "🎶",
		StatusSkipped:     "⏭",
		StatusIdle:        "💤",
		StatusLeft:        "👋",
		StatusTrackFailed: "⚠️",
		StatusAborted:     "❌",
	}
	return m[status]
}

// ErrNothingPlaying reports a skip with no active stream. It is a
// user-facing condition, not a fault.
var ErrNothingPlaying = errors.New("nothing is playing right now")

// VoiceConnectError wraps a failed voice channel join. The session is
// back in Disconnected when it surfaces.
type VoiceConnectError struct {
	Err error
}

func (e *VoiceConnectError) Error() string {
	return fmt.Sprintf("voice connect failed: %v", e.Err)
}

func (e *VoiceConnectError) Unwrap() error { return e.Err }

// QueuedTrack pairs a queued track with the user who requested it.
type QueuedTrack struct {
	Track       track.Track
	RequestedBy string
}

// Session owns one guild's voice connection and playback queue. Every
// mutation is serialized through the session mutex, so concurrent
// commands on the same guild observe a consistent order of effects.
// Sessions for different guilds are fully independent.
type Session struct {
	mu        sync.Mutex
	guildID   string
	state     VoiceState
	queue     []QueuedTrack
	conn      Connection
	channelID string
	idleSince time.Time

	failStreak int
	stop       chan struct{}

	status chan Status
	deps   Deps
}

// NewSession creates a disconnected session for the guild.
func NewSession(guildID string, deps Deps) *Session {
	deps.fillDefaults()
	return &Session{
		guildID: guildID,
		state:   StateDisconnected,
		queue:   make([]QueuedTrack, 0),
		status:  make(chan Status, 10), // buffered to reduce drops
		deps:    deps,
	}
}

// GuildID returns the session's guild key.
func (s *Session) GuildID() string { return s.guildID }

// Status returns the channel playback notifications are emitted on.
func (s *Session) Status() <-chan Status { return s.status }

// State returns the current voice state.
func (s *Session) State() VoiceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Enqueue appends the track to the queue. If the session is
// disconnected it joins the given voice channel first; if the session
// is connected and idle, streaming starts immediately.
func (s *Session) Enqueue(t track.Track, requestedBy, channelID string) error {
	s.mu.Lock()

	s.queue = append(s.queue, QueuedTrack{Track: t, RequestedBy: requestedBy})
	if channelID != "" {
		s.channelID = channelID
	}
	log.Printf("[Player] %s: queued %q for %s | QueueLen=%d", s.guildID, t.Title, requestedBy, len(s.queue))

	switch s.state {
	case StateDisconnected:
		err := s.connectLocked()
		if err != nil {
			s.mu.Unlock()
			return err
		}
		s.startEngineLocked()
	case StateConnected:
		s.startEngineLocked()
	default:
		// Connecting or already streaming; the engine picks the track
		// up from the queue.
		s.emitStatus(StatusAdded)
	}

	s.mu.Unlock()
	return nil
}

// connectLocked dials the voice channel. Called with the mutex held;
// releases and reacquires it around the blocking join.
func (s *Session) connectLocked() error {
	if s.channelID == "" {
		return &VoiceConnectError{Err: errors.New("no voice channel to join")}
	}

	s.state = StateConnecting
	channelID := s.channelID
	s.mu.Unlock()

	conn, err := s.deps.Dial(s.guildID, channelID)

	s.mu.Lock()
	if s.state != StateConnecting {
		// The session was torn down while we were joining.
		if err == nil {
			conn.Disconnect()
		}
		return &VoiceConnectError{Err: errors.New("session closed during join")}
	}
	if err != nil {
		s.state = StateDisconnected
		log.Printf("[Player] %s: voice join failed: %v", s.guildID, err)
		return &VoiceConnectError{Err: err}
	}

	s.conn = conn
	s.state = StateConnected
	return nil
}

// Join connects to the given voice channel without queueing anything.
// Already-connected sessions are left alone.
func (s *Session) Join(channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if channelID != "" {
		s.channelID = channelID
	}
	if s.state != StateDisconnected {
		return nil
	}

	if err := s.connectLocked(); err != nil {
		return err
	}
	if len(s.queue) > 0 {
		s.startEngineLocked()
	} else {
		s.idleSince = time.Now()
	}
	return nil
}

// Skip stops the current stream and lets the engine advance. Skipping
// with nothing playing is reported, not fatal.
func (s *Session) Skip() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStreaming {
		log.Printf("[Player] %s: skip with nothing playing", s.guildID)
		return ErrNothingPlaying
	}

	close(s.stop)
	s.stop = make(chan struct{})
	s.emitStatus(StatusSkipped)
	log.Printf("[Player] %s: skipping current track", s.guildID)
	return nil
}

// LeaveNow clears the queue, stops streaming and disconnects.
// Idempotent: calling it on a disconnected session is a no-op.
func (s *Session) LeaveNow() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leaveLocked()
}

func (s *Session) leaveLocked() error {
	if s.state == StateDisconnected {
		return nil
	}

	s.state = StateDisconnecting
	s.queue = nil

	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}

	if s.conn != nil {
		if err := s.conn.Disconnect(); err != nil {
			log.Printf("[Player] %s: voice disconnect error: %v", s.guildID, err)
		}
		s.conn = nil
	}

	s.state = StateDisconnected
	s.failStreak = 0
	s.emitStatus(StatusLeft)
	log.Printf("[Player] %s: left voice, queue cleared", s.guildID)
	return nil
}

// Snapshot returns the queue in play order, head first. The head is
// the currently streaming track when the session is streaming.
func (s *Session) Snapshot() []QueuedTrack {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.queue)
}

// NowPlaying returns the streaming track, or ok=false when idle.
func (s *Session) NowPlaying() (QueuedTrack, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateStreaming || len(s.queue) == 0 {
		return QueuedTrack{}, false
	}
	return s.queue[0], true
}

// IdleExceeded reports whether the session has sat connected with an
// empty queue longer than timeout.
func (s *Session) IdleExceeded(timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateConnected && len(s.queue) == 0 &&
		!s.idleSince.IsZero() && time.Since(s.idleSince) > timeout
}

// emitStatus sends without blocking; a full channel drops the signal.
func (s *Session) emitStatus(status Status) {
	select {
	case s.status <- status:
	default:
		log.Printf("[Player] %s: status signal dropped (channel full) - %s", s.guildID, status)
	}
}

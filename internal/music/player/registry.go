package player

import (
	"context"
	"log"
	"sync"
	"time"
)

// Registry owns the process-wide set of guild sessions. Creation and
// removal are serialized per call, so two concurrent GetOrCreate calls
// for the same guild always yield the same session instance.
type Registry struct {
	mu         sync.Mutex
	sessions   map[string]*Session
	newSession func(guildID string) *Session
}

// NewRegistry creates a registry that builds sessions with newSession.
func NewRegistry(newSession func(guildID string) *Session) *Registry {
	return &Registry{
		sessions:   make(map[string]*Session),
		newSession: newSession,
	}
}

// GetOrCreate returns the guild's session, creating it on first use.
func (r *Registry) GetOrCreate(guildID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[guildID]; ok {
		return s
	}

	s := r.newSession(guildID)
	r.sessions[guildID] = s
	log.Printf("[Registry] Created session for guild %s", guildID)
	return s
}

// Remove evicts the guild's session. Removing an absent guild is a
// no-op.
func (r *Registry) Remove(guildID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[guildID]; ok {
		delete(r.sessions, guildID)
		log.Printf("[Registry] Removed session for guild %s", guildID)
	}
}

// Sessions returns a snapshot of all live sessions.
func (r *Registry) Sessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// RunIdleWatcher disconnects and evicts sessions that sit idle in a
// voice channel longer than timeout. Blocks until ctx is done.
func RunIdleWatcher(ctx context.Context, reg *Registry, timeout time.Duration) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, s := range reg.Sessions() {
				if s.IdleExceeded(timeout) {
					log.Printf("[Registry] Guild %s idle for over %v, disconnecting", s.GuildID(), timeout)
					if err := s.LeaveNow(); err != nil {
						log.Printf("[Registry] Idle disconnect for guild %s failed: %v", s.GuildID(), err)
					}
					reg.Remove(s.GuildID())
				}
			}
		}
	}
}

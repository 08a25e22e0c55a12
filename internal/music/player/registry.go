package player

import "sync"

// Factory builds a Session for a guild the first time it is needed.
type Factory func(guildID, guildName string) *Session

// Registry hands out one Session per guild, creating lazily.
type Registry struct {
	mu       sync.Mutex
	factory  Factory
	sessions map[string]*Session
}

func NewRegistry(f Factory) *Registry {
	return &Registry{
		factory:  f,
		sessions: make(map[string]*Session),
	}
}

func (r *Registry) GetOrCreate(guildID, guildName string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[guildID]; ok {
		return s
	}
	s := r.factory(guildID, guildName)
	r.sessions[guildID] = s
	return s
}

func (r *Registry) Get(guildID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[guildID]
	return s, ok
}

// AllIdle reports whether no guild is playing or holds queued tracks.
func (r *Registry) AllIdle() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.IsPlaying() || !s.Queue().IsEmpty() {
			return false
		}
	}
	return true
}

// StopAll tears every session down, for shutdown.
func (r *Registry) StopAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()
	for _, s := range sessions {
		s.Stop()
	}
}

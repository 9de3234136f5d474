package booking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sessions keeps one Form per browser session and evicts idle ones.
type Sessions struct {
	newForm func() *Form
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	form     *Form
	lastSeen time.Time
}

// NewSessions builds a registry; newForm is called for every new session.
func NewSessions(newForm func() *Form, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Sessions{
		newForm:  newForm,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Create registers a new form and returns its id.
func (s *Sessions) Create() (string, *Form) {
	id := uuid.NewString()
	form := s.newForm()

	s.mu.Lock()
	s.sessions[id] = &session{form: form, lastSeen: s.now()}
	s.mu.Unlock()
	return id, form
}

// Get returns the form for id and marks the session as active.
func (s *Sessions) Get(id string) (*Form, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess.form, true
}

// Remove closes and forgets the session.
func (s *Sessions) Remove(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sess.form.Close()
	}
	return ok
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Evict closes sessions idle for longer than the TTL and returns how many were removed.
func (s *Sessions) Evict() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var stale []*Form
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			stale = append(stale, sess.form)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, form := range stale {
		form.Close()
	}
	return len(stale)
}

// Run evicts on every interval until ctx is done, then closes all sessions.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return
		case <-ticker.C:
			s.Evict()
		}
	}
}

func (s *Sessions) closeAll() {
	s.mu.Lock()
	forms := make([]*Form, 0, len(s.sessions))
	for id, sess := range s.sessions {
		forms = append(forms, sess.form)
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	for _, form := range forms {
		form.Close()
	}
}

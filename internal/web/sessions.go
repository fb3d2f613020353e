package web

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zheng/rkhl/internal/lookup"
	"github.com/zheng/rkhl/internal/view"
)

// ErrTooManySessions is returned by Create when the live session limit is reached
var ErrTooManySessions = fmt.Errorf("too many sessions: %w", lookup.ErrUnavailable)

// Session is one browser's set of view state holders
type Session struct {
	ID  string
	App *view.App

	lastSeen time.Time
}

// Sessions keeps the live sessions and expires idle ones
type Sessions struct {
	mu    sync.Mutex
	items map[string]*Session
	ttl   time.Duration
	limit int
	newFn func() *view.App
	now   func() time.Time
	log   *slog.Logger
}

// NewSessions creates a session store holding at most limit live sessions.
// newFn builds the navigator of a new session.
func NewSessions(ttl time.Duration, limit int, newFn func() *view.App, log *slog.Logger) *Sessions {
	return &Sessions{
		items: make(map[string]*Session),
		ttl:   ttl,
		limit: limit,
		newFn: newFn,
		now:   time.Now,
		log:   log,
	}
}

// Create starts a new session. Expired sessions are swept first when the
// store is full.
func (s *Sessions) Create() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) >= s.limit {
		s.sweep()
		if len(s.items) >= s.limit {
			s.log.Warn("会话数已达上限", "limit", s.limit)
			return nil, ErrTooManySessions
		}
	}

	sess := &Session{ID: uuid.NewString(), App: s.newFn(), lastSeen: s.now()}
	s.items[sess.ID] = sess
	s.log.Debug("创建会话", "session", sess.ID, "active", len(s.items))
	return sess, nil
}

// Get returns a live session and marks it as used
func (s *Sessions) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.items[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.Sub(sess.lastSeen) > s.ttl {
		s.drop(sess)
		return nil, false
	}
	sess.lastSeen = now
	return sess, true
}

// Delete closes a session. It reports whether the session existed.
func (s *Sessions) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.items[id]
	if ok {
		s.drop(sess)
	}
	return ok
}

// Sweep closes every session idle for longer than the TTL
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweep()
}

// sweep must be called with s.mu held
func (s *Sessions) sweep() int {
	now := s.now()
	n := 0
	for _, sess := range s.items {
		if now.Sub(sess.lastSeen) > s.ttl {
			s.drop(sess)
			n++
		}
	}
	if n > 0 {
		s.log.Info("清理过期会话", "expired", n, "active", len(s.items))
	}
	return n
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// CloseAll closes every session
func (s *Sessions) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.items {
		s.drop(sess)
	}
}

// drop must be called with s.mu held
func (s *Sessions) drop(sess *Session) {
	delete(s.items, sess.ID)
	sess.App.Close()
}

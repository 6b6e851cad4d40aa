package auth

import (
	"errors"
	"sync"
	"time"
	"vendtrack/models"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Session is a signed-in user. It replaces any process-wide notion of a
// "current user": every request resolves its own session.
type Session struct {
	ID          string      `json:"id"`
	User        models.User `json:"user"`
	CreatedAt   time.Time   `json:"createdAt"`
	RefreshedAt time.Time   `json:"refreshedAt"`
	ExpiresAt   time.Time   `json:"expiresAt"`
}

// SessionEventKind names a session change.
type SessionEventKind string

const (
	SessionSignedIn  SessionEventKind = "signedIn"
	SessionRefreshed SessionEventKind = "refreshed"
	SessionSignedOut SessionEventKind = "signedOut"
)

// SessionEvent is delivered to subscribers. Session is nil on sign-out.
type SessionEvent struct {
	Kind      SessionEventKind
	SessionID string
	UserID    string
	Session   *Session
}

// SessionManager tracks live sessions and notifies subscribers of changes.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time

	subMu   sync.RWMutex
	subs    map[int]func(SessionEvent)
	nextSub int
}

// NewSessionManager creates a manager whose sessions live for ttl after
// their last refresh.
func NewSessionManager(ttl time.Duration) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		subs:     make(map[int]func(SessionEvent)),
	}
}

// Create starts a session for the user.
func (m *SessionManager) Create(user models.User) *Session {
	now := m.now()
	s := &Session{
		ID:          uuid.NewString(),
		User:        user,
		CreatedAt:   now,
		RefreshedAt: now,
		ExpiresAt:   now.Add(m.ttl),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	copied := *s
	m.publish(SessionEvent{Kind: SessionSignedIn, SessionID: s.ID, UserID: user.ID, Session: &copied})
	return &copied
}

// Get returns a copy of a live session.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if !m.now().Before(s.ExpiresAt) {
		m.remove(id)
		return nil, ErrSessionExpired
	}

	copied := *s
	return &copied, nil
}

// Refresh stores a fresh profile snapshot and extends the session.
func (m *SessionManager) Refresh(id string, user models.User) (*Session, error) {
	now := m.now()

	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if !now.Before(s.ExpiresAt) {
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, ErrSessionExpired
	}
	s.User = user
	s.RefreshedAt = now
	s.ExpiresAt = now.Add(m.ttl)
	copied := *s
	m.mu.Unlock()

	m.publish(SessionEvent{Kind: SessionRefreshed, SessionID: id, UserID: user.ID, Session: &copied})
	return &copied, nil
}

// End removes the session and notifies subscribers.
func (m *SessionManager) End(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	m.publish(SessionEvent{Kind: SessionSignedOut, SessionID: id, UserID: s.User.ID})
	return nil
}

// Subscribe registers fn for every session change and returns a function
// that removes the subscription.
func (m *SessionManager) Subscribe(fn func(SessionEvent)) func() {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.subMu.Lock()
			delete(m.subs, id)
			m.subMu.Unlock()
		})
	}
}

// SweepExpired drops expired sessions, reporting each as signed out.
// It returns how many were removed.
func (m *SessionManager) SweepExpired() int {
	now := m.now()

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		m.publish(SessionEvent{Kind: SessionSignedOut, SessionID: s.ID, UserID: s.User.ID})
	}
	return len(expired)
}

// Count returns the number of tracked sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *SessionManager) remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		m.publish(SessionEvent{Kind: SessionSignedOut, SessionID: id, UserID: s.User.ID})
	}
}

func (m *SessionManager) publish(ev SessionEvent) {
	m.subMu.RLock()
	subs := make([]func(SessionEvent), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.subMu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}

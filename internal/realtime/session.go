package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/tasksync/internal/domain/entities"
)

// Session is one push-channel connection. Its identity is empty until join.
type Session struct {
	ID string

	send   chan []byte
	closed bool // guarded by Hub.mu

	// scopes is guarded by Hub.mu
	scopes map[string]struct{}

	mu       sync.RWMutex
	user     *entities.User
	joinedAt time.Time
}

// NewSession creates a session with a send buffer of size buffer.
func NewSession(buffer int) *Session {
	return &Session{
		ID:     uuid.NewString(),
		send:   make(chan []byte, buffer),
		scopes: make(map[string]struct{}),
	}
}

// Send returns the queue of encoded frames for the writer.
func (s *Session) Send() <-chan []byte {
	return s.send
}

func (s *Session) setUser(u *entities.User, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
	if s.joinedAt.IsZero() {
		s.joinedAt = now
	}
}

// Actor returns the identity of the session, or false before join.
func (s *Session) Actor() (entities.Actor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return entities.Actor{}, false
	}
	return entities.ActorFromUser(s.user), true
}

func (s *Session) presence() (PresenceEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return PresenceEntry{}, false
	}
	return PresenceEntry{
		SessionID: s.ID,
		Name:      s.user.Name,
		Role:      s.user.Role,
		IsGuest:   s.user.IsGuest,
		JoinedAt:  s.joinedAt,
	}, true
}

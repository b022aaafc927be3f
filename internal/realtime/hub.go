// Package realtime implements the push channel: a hub that fans delta
// events out to the sessions subscribed to a date, presence tracking, the
// websocket transport and an optional cross-process relay.
package realtime

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/domain/events"
	"github.com/taskmaster/tasksync/internal/infrastructure/logger"
	"github.com/taskmaster/tasksync/internal/infrastructure/metrics"
	"github.com/taskmaster/tasksync/internal/ports"
)

// Forwarder ships locally published frames to other processes.
type Forwarder interface {
	Forward(scope string, frame []byte)
}

// Hub is the session registry. It is safe for concurrent use.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	scopes   map[string]map[string]*Session

	forwarder Forwarder
	logger    *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

var _ ports.Broadcaster = (*Hub)(nil)

func NewHub(logger *logger.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		sessions: make(map[string]*Session),
		scopes:   make(map[string]map[string]*Session),
		logger:   logger.WithComponent("realtime"),
		metrics:  m,
		now:      time.Now,
	}
}

// SetForwarder attaches a relay. Call before serving traffic.
func (h *Hub) SetForwarder(f Forwarder) {
	h.forwarder = f
}

// Register adds a connected session.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()
	h.metrics.SessionOpened()
}

// Unregister removes a session, closes its send queue and, if it had
// joined, broadcasts the new presence set.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s.ID)
	for scope := range s.scopes {
		h.removeFromScope(s, scope)
	}
	s.closed = true
	close(s.send)
	h.mu.Unlock()

	h.metrics.SessionClosed()
	if _, joined := s.presence(); joined {
		h.broadcastPresence()
	}
}

// Join records the identity of a session and broadcasts presence.
func (h *Hub) Join(s *Session, u *entities.User) {
	s.setUser(u, h.now().UTC())
	h.broadcastPresence()
}

func (h *Hub) Subscribe(s *Session, scope string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s.closed {
		return
	}
	members, ok := h.scopes[scope]
	if !ok {
		members = make(map[string]*Session)
		h.scopes[scope] = members
	}
	members[s.ID] = s
	s.scopes[scope] = struct{}{}
}

func (h *Hub) Unsubscribe(s *Session, scope string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromScope(s, scope)
}

func (h *Hub) removeFromScope(s *Session, scope string) {
	delete(s.scopes, scope)
	if members, ok := h.scopes[scope]; ok {
		delete(members, s.ID)
		if len(members) == 0 {
			delete(h.scopes, scope)
		}
	}
}

// Publish encodes ev once, delivers it to the local subscribers of its
// scope and hands it to the relay. It never blocks on a slow session.
func (h *Hub) Publish(_ context.Context, ev events.Event) {
	frame, err := encode(string(ev.Name), ev.Payload, "")
	if err != nil {
		h.logger.Errorw("Failed to encode event", "event", ev.Name, "error", err)
		return
	}
	delivered, dropped := h.Deliver(ev.Scope, frame)
	h.metrics.EventPublished(string(ev.Name), dropped)
	h.logger.LogBroadcast(string(ev.Name), ev.Scope, delivered, dropped)

	if h.forwarder != nil {
		h.forwarder.Forward(ev.Scope, frame)
	}
}

// Deliver queues an encoded frame on every session subscribed to scope.
// Sessions whose queue is full miss the frame.
func (h *Hub) Deliver(scope string, frame []byte) (delivered, dropped int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.scopes[scope] {
		if s.enqueue(frame) {
			delivered++
		} else {
			dropped++
		}
	}
	return delivered, dropped
}

// SendTo queues a frame for one session. Used for replies and errors,
// which never go to anyone else.
func (h *Hub) SendTo(s *Session, frame []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if s.closed {
		return false
	}
	return s.enqueue(frame)
}

// enqueue must be called with Hub.mu held.
func (s *Session) enqueue(frame []byte) bool {
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

// Presence lists the joined sessions, oldest first.
func (h *Hub) Presence() []PresenceEntry {
	h.mu.RLock()
	entries := make([]PresenceEntry, 0, len(h.sessions))
	for _, s := range h.sessions {
		if p, ok := s.presence(); ok {
			entries = append(entries, p)
		}
	}
	h.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].JoinedAt.Equal(entries[j].JoinedAt) {
			return entries[i].SessionID < entries[j].SessionID
		}
		return entries[i].JoinedAt.Before(entries[j].JoinedAt)
	})
	return entries
}

// broadcastPresence sends the full presence set to every session.
func (h *Hub) broadcastPresence() {
	frame, err := encode(MsgActiveUsers, h.Presence(), "")
	if err != nil {
		h.logger.Errorw("Failed to encode presence", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	dropped := 0
	for _, s := range h.sessions {
		if !s.enqueue(frame) {
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warnw("Presence update dropped for slow sessions", "dropped", dropped)
	}
}

// SessionCount reports connected sessions, joined or not.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close disconnects every session. Writers see their queues close.
func (h *Hub) Close() {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()
	for _, s := range sessions {
		h.Unregister(s)
	}
}

package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/domain/events"
	"github.com/taskmaster/tasksync/internal/infrastructure/logger"
)

type received struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"requestId"`
}

// next waits for the next frame queued on s.
func next(t *testing.T, s *Session) received {
	t.Helper()
	select {
	case frame, ok := <-s.Send():
		if !ok {
			t.Fatal("session queue closed")
		}
		var r received
		if err := json.Unmarshal(frame, &r); err != nil {
			t.Fatalf("decode frame %s: %v", frame, err)
		}
		return r
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a frame")
	}
	return received{}
}

func expectNothing(t *testing.T, s *Session) {
	t.Helper()
	select {
	case frame := <-s.Send():
		t.Fatalf("unexpected frame %s", frame)
	default:
	}
}

type forwarded struct {
	mu     sync.Mutex
	scopes []string
}

func (f *forwarded) Forward(scope string, _ []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scopes = append(f.scopes, scope)
}

func newTestHub() *Hub {
	return NewHub(logger.NewNop(), nil)
}

func progressEvent(scope string) events.Event {
	id := uuid.New()
	return events.Event{
		Name:    events.ProgressUpdated,
		Scope:   scope,
		TaskID:  id,
		Payload: events.ProgressPayload{Date: scope, TaskID: id, Progress: 40, Status: entities.TaskStatusOngoing},
	}
}

func TestPublishReachesOnlyTheScope(t *testing.T) {
	hub := newTestHub()
	monday, tuesday := NewSession(8), NewSession(8)
	hub.Register(monday)
	hub.Register(tuesday)
	hub.Subscribe(monday, "2025-03-10")
	hub.Subscribe(tuesday, "2025-03-11")

	hub.Publish(context.Background(), progressEvent("2025-03-10"))

	got := next(t, monday)
	if got.Type != string(events.ProgressUpdated) {
		t.Errorf("type = %s", got.Type)
	}
	var payload events.ProgressPayload
	if err := json.Unmarshal(got.Data, &payload); err != nil || payload.Progress != 40 {
		t.Errorf("payload = %s (%v)", got.Data, err)
	}
	expectNothing(t, tuesday)

	hub.Unsubscribe(monday, "2025-03-10")
	hub.Publish(context.Background(), progressEvent("2025-03-10"))
	expectNothing(t, monday)
}

func TestSlowSessionMissesFrames(t *testing.T) {
	hub := newTestHub()
	slow, fast := NewSession(1), NewSession(8)
	for _, s := range []*Session{slow, fast} {
		hub.Register(s)
		hub.Subscribe(s, "2025-03-10")
	}

	hub.Publish(context.Background(), progressEvent("2025-03-10"))
	delivered, dropped := hub.Deliver("2025-03-10", []byte(`{"type":"x"}`))
	if delivered != 1 || dropped != 1 {
		t.Errorf("delivered=%d dropped=%d, want 1 and 1", delivered, dropped)
	}
	next(t, fast)
	next(t, fast)
	next(t, slow)
	expectNothing(t, slow)
}

func TestPresence(t *testing.T) {
	hub := newTestHub()
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := base
	hub.now = func() time.Time { return clock }

	a, b := NewSession(8), NewSession(8)
	hub.Register(a)
	hub.Register(b)

	hub.Join(a, &entities.User{ID: uuid.New(), Name: "Alex", IsGuest: true})
	clock = clock.Add(time.Minute)
	hub.Join(b, &entities.User{ID: uuid.New(), Name: "Olivia", Role: entities.UserRoleUser})

	entries := hub.Presence()
	if len(entries) != 2 || entries[0].Name != "Alex" || entries[1].Name != "Olivia" {
		t.Fatalf("presence = %+v", entries)
	}
	if !entries[0].IsGuest || !entries[0].JoinedAt.Equal(base) {
		t.Errorf("first entry = %+v", entries[0])
	}

	// every session hears both joins
	for _, s := range []*Session{a, b} {
		if got := next(t, s); got.Type != MsgActiveUsers {
			t.Errorf("type = %s", got.Type)
		}
	}
	last := next(t, a)
	var list []PresenceEntry
	if err := json.Unmarshal(last.Data, &list); err != nil || len(list) != 2 {
		t.Errorf("presence frame = %s", last.Data)
	}
	next(t, b)

	hub.Unregister(b)
	got := next(t, a)
	if err := json.Unmarshal(got.Data, &list); err != nil || len(list) != 1 || list[0].Name != "Alex" {
		t.Errorf("presence after leave = %s", got.Data)
	}
	if hub.SessionCount() != 1 {
		t.Errorf("sessions = %d", hub.SessionCount())
	}
}

func TestUnregisterClosesQueue(t *testing.T) {
	hub := newTestHub()
	s := NewSession(4)
	hub.Register(s)
	hub.Subscribe(s, "2025-03-10")
	hub.Unregister(s)

	if _, ok := <-s.Send(); ok {
		t.Error("queue still open")
	}
	if hub.SendTo(s, []byte("{}")) {
		t.Error("SendTo succeeded on a closed session")
	}
	// publishing to the old scope must not touch the closed queue
	hub.Publish(context.Background(), progressEvent("2025-03-10"))
	hub.Unregister(s)
}

func TestPublishForwards(t *testing.T) {
	hub := newTestHub()
	f := &forwarded{}
	hub.SetForwarder(f)

	hub.Publish(context.Background(), progressEvent("2025-03-12"))

	if len(f.scopes) != 1 || f.scopes[0] != "2025-03-12" {
		t.Errorf("forwarded = %v", f.scopes)
	}
}

func TestRelayIgnoresOwnFrames(t *testing.T) {
	hub := newTestHub()
	s := NewSession(4)
	hub.Register(s)
	hub.Subscribe(s, "2025-03-10")
	relay := NewRelay(nil, "tasksync:events", hub, logger.NewNop(), nil)

	own, _ := json.Marshal(relayMessage{Node: relay.node, Scope: "2025-03-10", Frame: json.RawMessage(`{"type":"own"}`)})
	relay.deliver(string(own))
	expectNothing(t, s)

	remote, _ := json.Marshal(relayMessage{Node: "other-node", Scope: "2025-03-10", Frame: json.RawMessage(`{"type":"remote"}`)})
	relay.deliver(string(remote))
	if got := next(t, s); got.Type != "remote" {
		t.Errorf("type = %s", got.Type)
	}

	relay.deliver("not json")
	expectNothing(t, s)
}

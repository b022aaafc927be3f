package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskmaster/tasksync/internal/adapters/repository/memory"
	"github.com/taskmaster/tasksync/internal/adapters/storage"
	"github.com/taskmaster/tasksync/internal/application/validation"
	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/domain/events"
	"github.com/taskmaster/tasksync/internal/infrastructure/config"
	"github.com/taskmaster/tasksync/internal/infrastructure/logger"
	"github.com/taskmaster/tasksync/internal/infrastructure/metrics"
	"github.com/taskmaster/tasksync/internal/ports"
)

var start = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// recorder is a Broadcaster that keeps every published event.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) names() []events.Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Name, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Name
	}
	return out
}

func (r *recorder) last(t *testing.T) events.Event {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		t.Fatal("no events published")
	}
	return r.events[len(r.events)-1]
}

type harness struct {
	store     *memory.Store
	uploadDir string
	events    *recorder
	clock     time.Time

	settings *SettingsService
	activity *ActivityService
	tasks    *TaskService
	comments *CommentService
	files    *FileService
	shares   *ShareService
	auth     *AuthService
	admin    *AdminService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		store:     memory.NewStore(),
		uploadDir: t.TempDir(),
		events:    &recorder{},
		clock:     start,
	}
	blobs, err := storage.NewLocal(h.uploadDir)
	if err != nil {
		t.Fatalf("NewLocal() = %v", err)
	}
	log := logger.NewNop()
	v := validation.New()
	m := metrics.New()

	h.settings = NewSettingsService(h.store.Settings())
	h.activity = NewActivityService(h.store.ActivityLogs(), h.settings, log)
	quota := NewQuotaGate(h.store.Users(), h.settings, m, log)
	h.tasks = NewTaskService(TaskDeps{
		Tasks:       h.store.Tasks(),
		Comments:    h.store.Comments(),
		Files:       h.store.Files(),
		Storage:     blobs,
		Quota:       quota,
		Activity:    h.activity,
		Broadcaster: h.events,
		Validator:   v,
		Logger:      log,
	})
	h.comments = NewCommentService(h.tasks, h.store.Comments(), quota, h.activity, v)
	h.files = NewFileService(h.tasks, h.store.Files(), h.store.Comments(), blobs, h.settings, h.activity, log)
	h.shares = NewShareService(h.store.ShareLinks(), h.tasks, h.comments, h.files, h.activity, v, log, "http://localhost:3000/")
	h.auth = NewAuthService(h.store.Users(), h.settings, h.activity, v, config.JWTConfig{
		Secret:    "test-secret",
		ExpiresIn: time.Hour,
		Issuer:    "tasksync-test",
	}, bcrypt.MinCost, log)
	h.admin = NewAdminService(AdminDeps{
		Users:     h.store.Users(),
		Tasks:     h.store.Tasks(),
		Comments:  h.store.Comments(),
		Files:     h.store.Files(),
		Logs:      h.store.ActivityLogs(),
		TaskSvc:   h.tasks,
		Settings:  h.settings,
		Activity:  h.activity,
		Validator: v,
		Logger:    log,
	})

	now := func() time.Time { return h.clock }
	h.activity.now = now
	h.tasks.now = now
	h.auth.now = now
	h.admin.now = now
	return h
}

func (h *harness) advance(d time.Duration) { h.clock = h.clock.Add(d) }

// user stores an account and returns its actor.
func (h *harness) user(t *testing.T, name string, role entities.UserRole, guest bool) entities.Actor {
	t.Helper()
	u := &entities.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     name + "@example.com",
		Role:      role,
		IsActive:  true,
		IsGuest:   guest,
		CreatedAt: h.clock,
		UpdatedAt: h.clock,
	}
	if err := h.store.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return entities.ActorFromUser(u)
}

func (h *harness) task(t *testing.T, owner entities.Actor, text string) *ports.TaskDetails {
	t.Helper()
	created, err := h.tasks.Create(context.Background(), owner, ports.CreateTaskRequest{Text: text, Date: "2025-03-10"})
	if err != nil {
		t.Fatalf("Create(%q) = %v", text, err)
	}
	return created
}

func (h *harness) logs(t *testing.T, action entities.ActivityAction) int64 {
	t.Helper()
	n, err := h.store.ActivityLogs().Count(context.Background(), ports.ActivityFilter{Action: &action})
	if err != nil {
		t.Fatalf("count logs: %v", err)
	}
	return n
}

func wantKind(t *testing.T, err error, kind entities.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := entities.KindOf(err); got != kind {
		t.Fatalf("error kind = %s (%v), want %s", got, err, kind)
	}
}

func wantErr(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}

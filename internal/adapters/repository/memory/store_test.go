package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/ports"
)

var now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func guest(t *testing.T, s *Store) *entities.User {
	t.Helper()
	u := &entities.User{ID: uuid.New(), Name: "Alex", Email: "guest_1_abcd1234@temporary.com", IsGuest: true, IsActive: true}
	if err := s.Users().Create(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

func TestUserEmailIsUnique(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	first := &entities.User{ID: uuid.New(), Email: "olivia@example.com"}
	if err := s.Users().Create(ctx, first); err != nil {
		t.Fatal(err)
	}

	err := s.Users().Create(ctx, &entities.User{ID: uuid.New(), Email: "OLIVIA@example.com"})
	if err != entities.ErrEmailTaken {
		t.Errorf("Create() = %v, want ErrEmailTaken", err)
	}

	got, err := s.Users().GetByID(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	// returned records are copies
	got.Email = "changed@example.com"
	again, _ := s.Users().GetByID(ctx, first.ID)
	if again.Email != "olivia@example.com" {
		t.Errorf("store mutated through a returned pointer")
	}
}

func TestReserveGuestQuotaIsAtomic(t *testing.T) {
	s := NewStore()
	u := guest(t, s)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.Users().ReserveGuestQuota(ctx, u.ID, ports.QuotaTasks, 3)
			if err != nil {
				t.Error(err)
				return
			}
			if ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if granted != 3 {
		t.Fatalf("granted %d reservations, want 3", granted)
	}
	if err := s.Users().ReleaseGuestQuota(ctx, u.ID, ports.QuotaTasks); err != nil {
		t.Fatal(err)
	}
	stored, _ := s.Users().GetByID(ctx, u.ID)
	if stored.TasksCreated != 2 || stored.CommentsPosted != 0 {
		t.Errorf("counters = %d/%d", stored.TasksCreated, stored.CommentsPosted)
	}

	if _, err := s.Users().ReserveGuestQuota(ctx, uuid.New(), ports.QuotaComments, 1); err != entities.ErrUserNotFound {
		t.Errorf("unknown user = %v", err)
	}
}

func TestOneActiveShareLinkPerTask(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	taskID := uuid.New()

	first := &entities.ShareLink{ID: uuid.New(), TaskID: taskID, Token: "first", IsActive: true}
	if err := s.ShareLinks().Create(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := &entities.ShareLink{ID: uuid.New(), TaskID: taskID, Token: "second", IsActive: true}
	if err := s.ShareLinks().Create(ctx, second); entities.KindOf(err) != entities.KindConflict {
		t.Fatalf("second active link = %v", err)
	}

	first.IsActive = false
	if err := s.ShareLinks().Update(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := s.ShareLinks().Create(ctx, second); err != nil {
		t.Fatalf("after deactivation = %v", err)
	}
	active, err := s.ShareLinks().GetActiveByTask(ctx, taskID)
	if err != nil || active.Token != "second" {
		t.Errorf("active = %+v (%v)", active, err)
	}
}

func TestRecordAccessEnforcesLimits(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	limit := 1
	expires := now.Add(time.Hour)
	link := &entities.ShareLink{ID: uuid.New(), TaskID: uuid.New(), Token: "tok", IsActive: true, MaxAccess: &limit, ExpiresAt: &expires}
	if err := s.ShareLinks().Create(ctx, link); err != nil {
		t.Fatal(err)
	}

	got, err := s.ShareLinks().RecordAccess(ctx, "tok", entities.ShareAccess{GuestName: "Anonymous", AccessedAt: now}, now)
	if err != nil || got.AccessCount != 1 || len(got.AccessLog) != 1 {
		t.Fatalf("first access = %+v (%v)", got, err)
	}
	if _, err := s.ShareLinks().RecordAccess(ctx, "tok", entities.ShareAccess{}, now); err != entities.ErrShareLinkInvalid {
		t.Errorf("over limit = %v", err)
	}
	if _, err := s.ShareLinks().RecordAccess(ctx, "missing", entities.ShareAccess{}, now); err != entities.ErrShareLinkNotFound {
		t.Errorf("unknown token = %v", err)
	}

	// Update keeps the counters the store owns
	link.MaxAccess = nil
	if err := s.ShareLinks().Update(ctx, link); err != nil {
		t.Fatal(err)
	}
	stored, _ := s.ShareLinks().GetByToken(ctx, "tok")
	if stored.AccessCount != 1 {
		t.Errorf("access count reset to %d", stored.AccessCount)
	}
}

func TestActivityFilterAndPurge(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	olivia := uuid.New()
	entries := []*entities.ActivityLog{
		{ID: uuid.New(), UserID: &olivia, Action: entities.ActionTaskCreated, CreatedAt: now.Add(-72 * time.Hour)},
		{ID: uuid.New(), UserID: &olivia, Action: entities.ActionUserLogin, CreatedAt: now.Add(-time.Hour)},
		{ID: uuid.New(), Action: entities.ActionTaskCreated, CreatedAt: now},
	}
	for _, e := range entries {
		if err := s.ActivityLogs().Create(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	created := entities.ActionTaskCreated
	since := now.Add(-2 * time.Hour)
	tests := []struct {
		name   string
		filter ports.ActivityFilter
		want   int64
	}{
		{"all", ports.ActivityFilter{}, 3},
		{"by user", ports.ActivityFilter{UserID: &olivia}, 2},
		{"by action", ports.ActivityFilter{Action: &created}, 2},
		{"since", ports.ActivityFilter{StartDate: &since}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := s.ActivityLogs().Count(ctx, tt.filter)
			if err != nil || n != tt.want {
				t.Errorf("Count() = %d (%v), want %d", n, err, tt.want)
			}
		})
	}

	page, _ := s.ActivityLogs().List(ctx, ports.ActivityFilter{Limit: 1})
	if len(page) != 1 || !page[0].CreatedAt.Equal(now) {
		t.Errorf("newest first: %+v", page)
	}

	removed, err := s.ActivityLogs().DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	if err != nil || removed != 1 {
		t.Errorf("DeleteOlderThan() = %d (%v)", removed, err)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	settings, err := s.Settings().Get(ctx)
	if err != nil || settings != nil {
		t.Fatalf("empty store = %+v (%v)", settings, err)
	}

	settings = entities.DefaultAppSettings()
	settings.AppTitle = "Renamed"
	if err := s.Settings().Save(ctx, settings); err != nil {
		t.Fatal(err)
	}
	settings.AppTitle = "mutated after save"

	again, _ := s.Settings().Get(ctx)
	if again == nil || again.AppTitle != "Renamed" {
		t.Errorf("stored = %+v", again)
	}
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/ports"
)

func TestAdminCannotModifySelf(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.user(t, "Ada", entities.UserRoleAdmin, false)

	_, err := h.admin.ChangeRole(ctx, admin, admin.ID, ports.ChangeRoleRequest{Role: entities.UserRoleUser})
	wantErr(t, err, entities.ErrSelfModification)
	_, err = h.admin.Suspend(ctx, admin, admin.ID)
	wantErr(t, err, entities.ErrSelfModification)
}

func TestAdminManagesUsers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.user(t, "Ada", entities.UserRoleAdmin, false)
	bob := h.user(t, "Bob", entities.UserRoleUser, false)

	promoted, err := h.admin.ChangeRole(ctx, admin, bob.ID, ports.ChangeRoleRequest{Role: entities.UserRoleAdmin})
	if err != nil {
		t.Fatalf("ChangeRole() = %v", err)
	}
	if promoted.Role != entities.UserRoleAdmin {
		t.Errorf("role = %s", promoted.Role)
	}

	_, err = h.admin.ChangeRole(ctx, admin, bob.ID, ports.ChangeRoleRequest{Role: "owner"})
	wantKind(t, err, entities.KindValidation)

	suspended, err := h.admin.Suspend(ctx, admin, bob.ID)
	if err != nil || !suspended.IsSuspended {
		t.Fatalf("Suspend() = %v", err)
	}
	activated, err := h.admin.Activate(ctx, admin, bob.ID)
	if err != nil || activated.IsSuspended || !activated.IsActive {
		t.Fatalf("Activate() = %v, %+v", err, activated)
	}

	if h.logs(t, entities.ActionRoleChanged) != 1 || h.logs(t, entities.ActionUserSuspended) != 1 {
		t.Error("admin actions not logged")
	}

	page, err := h.admin.ListUsers(ctx, ports.UserFilter{}, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 2 {
		t.Errorf("total users = %d, want 2", page.Total)
	}
}

func TestUpdateSettings(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.user(t, "Ada", entities.UserRoleAdmin, false)

	title := "Team Board"
	maintenance := entities.MaintenanceSettings{Enabled: true, Message: "Back soon"}
	settings, err := h.admin.UpdateSettings(ctx, admin, ports.UpdateSettingsRequest{AppTitle: &title, Maintenance: &maintenance})
	if err != nil {
		t.Fatalf("UpdateSettings() = %v", err)
	}
	if settings.AppTitle != title || !settings.Maintenance.Enabled {
		t.Errorf("settings = %+v", settings)
	}
	if settings.UpdatedBy == nil || *settings.UpdatedBy != admin.ID {
		t.Errorf("updatedBy = %v", settings.UpdatedBy)
	}

	public, err := h.settings.Public(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if public.AppTitle != title || public.Maintenance.Message != "Back soon" {
		t.Errorf("public settings = %+v", public)
	}

	features := entities.DefaultAppSettings().Features
	features.GuestTaskLimit = -1
	_, err = h.admin.UpdateSettings(ctx, admin, ports.UpdateSettingsRequest{Features: &features})
	wantKind(t, err, entities.KindValidation)
}

func TestActivityLogsCanBeDisabled(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.user(t, "Ada", entities.UserRoleAdmin, false)

	features := entities.DefaultAppSettings().Features
	features.EnableActivityLogs = false
	if _, err := h.admin.UpdateSettings(ctx, admin, ports.UpdateSettingsRequest{Features: &features}); err != nil {
		t.Fatal(err)
	}

	h.task(t, admin, "quiet")
	if n := h.logs(t, entities.ActionTaskCreated); n != 0 {
		t.Errorf("%d entries written while logging is off", n)
	}
}

func TestGuestLimitFollowsSettings(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.user(t, "Ada", entities.UserRoleAdmin, false)
	guest := h.user(t, "Alex", entities.UserRoleUser, true)

	features := entities.DefaultAppSettings().Features
	features.GuestTaskLimit = 3
	if _, err := h.admin.UpdateSettings(ctx, admin, ports.UpdateSettingsRequest{Features: &features}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		h.task(t, guest, "allowed")
	}
	_, err := h.tasks.Create(ctx, guest, ports.CreateTaskRequest{Text: "one too many", Date: "2025-03-10"})
	wantKind(t, err, entities.KindQuotaExceeded)
}

func TestStatsAndPurge(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, "Olivia", entities.UserRoleUser, false)
	created := h.task(t, owner, "Counted")
	if _, err := h.comments.Add(ctx, owner, created.ID, ports.CommentRequest{Text: "hi"}); err != nil {
		t.Fatal(err)
	}

	stats, err := h.admin.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() = %v", err)
	}
	if stats.Content.Comments != 1 || stats.Activity.Last24Hours != 2 {
		t.Errorf("stats = %+v", stats)
	}

	h.advance(48 * time.Hour)
	removed, err := h.activity.Purge(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Purge() = %v", err)
	}
	if removed != 2 {
		t.Errorf("purged %d entries, want 2", removed)
	}
}

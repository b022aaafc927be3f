package services

import (
	"context"
	"strings"
	"testing"

	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/domain/events"
	"github.com/taskmaster/tasksync/internal/ports"
)

func TestShareLinkIsReused(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, "Olivia", entities.UserRoleUser, false)
	created := h.task(t, owner, "Share me")

	first, err := h.shares.CreateOrUpdate(ctx, owner, ports.ShareLinkRequest{TaskID: created.ID})
	if err != nil {
		t.Fatalf("CreateOrUpdate() = %v", err)
	}
	if !strings.HasPrefix(first.ShareURL, "http://localhost:3000/shared/") {
		t.Errorf("share url = %q", first.ShareURL)
	}
	if first.Permissions != entities.DefaultSharePermissions() {
		t.Errorf("permissions = %+v, want defaults", first.Permissions)
	}

	days := 7
	second, err := h.shares.CreateOrUpdate(ctx, owner, ports.ShareLinkRequest{TaskID: created.ID, ExpiresIn: &days})
	if err != nil {
		t.Fatal(err)
	}
	if second.ShareToken != first.ShareToken {
		t.Error("a second request created another link")
	}
	if second.ExpiresAt == nil || !second.ExpiresAt.Equal(start.AddDate(0, 0, 7)) {
		t.Errorf("expiresAt = %v", second.ExpiresAt)
	}

	other := h.user(t, "Bob", entities.UserRoleUser, false)
	_, err = h.shares.CreateOrUpdate(ctx, other, ports.ShareLinkRequest{TaskID: created.ID})
	wantKind(t, err, entities.KindForbidden)
}

func TestShareAccessCounting(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, "Olivia", entities.UserRoleUser, false)
	created := h.task(t, owner, "Limited")

	limit := 2
	link, err := h.shares.CreateOrUpdate(ctx, owner, ports.ShareLinkRequest{TaskID: created.ID, MaxAccess: &limit})
	if err != nil {
		t.Fatal(err)
	}

	view, err := h.shares.Access(ctx, owner, link.ShareToken)
	if err != nil {
		t.Fatalf("Access() = %v", err)
	}
	if !view.IsOwner || view.Task.ID != created.ID {
		t.Errorf("view = owner %v task %s", view.IsOwner, view.Task.ID)
	}
	view, err = h.shares.Access(ctx, entities.Actor{}, link.ShareToken)
	if err != nil {
		t.Fatalf("anonymous Access() = %v", err)
	}
	if view.IsOwner {
		t.Error("anonymous visitor reported as owner")
	}

	_, err = h.shares.Access(ctx, entities.Actor{}, link.ShareToken)
	wantErr(t, err, entities.ErrShareLinkInvalid)

	stored, _ := h.store.ShareLinks().GetByToken(ctx, link.ShareToken)
	if stored.AccessCount != 2 || len(stored.AccessLog) != 2 {
		t.Errorf("access count = %d, log = %d; want 2, 2", stored.AccessCount, len(stored.AccessLog))
	}
	if stored.AccessLog[1].GuestName != anonymousName {
		t.Errorf("anonymous visit recorded as %q", stored.AccessLog[1].GuestName)
	}
}

func TestSharedOperationsFollowPermissions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, "Olivia", entities.UserRoleUser, false)
	created := h.task(t, owner, "Collaborate")

	link, err := h.shares.CreateOrUpdate(ctx, owner, ports.ShareLinkRequest{TaskID: created.ID})
	if err != nil {
		t.Fatal(err)
	}
	visitor := entities.Actor{}

	comment, err := h.shares.Comment(ctx, visitor, link.ShareToken, ports.CommentRequest{Text: "looks good", Name: "Visitor"})
	if err != nil {
		t.Fatalf("Comment() = %v", err)
	}
	if comment.AuthorName != "Visitor" || comment.AuthorID != nil {
		t.Errorf("comment author = %q %v", comment.AuthorName, comment.AuthorID)
	}
	if ev := h.events.last(t); ev.Name != events.CommentAdded {
		t.Errorf("last event = %s", ev.Name)
	}

	// progress is not granted by default
	_, err = h.shares.UpdateProgress(ctx, visitor, link.ShareToken, 50)
	wantKind(t, err, entities.KindForbidden)

	perms := entities.DefaultSharePermissions()
	perms.CanUpdateProgress = true
	if _, err := h.shares.CreateOrUpdate(ctx, owner, ports.ShareLinkRequest{TaskID: created.ID, Permissions: &perms}); err != nil {
		t.Fatal(err)
	}
	task, err := h.shares.UpdateProgress(ctx, visitor, link.ShareToken, 50)
	if err != nil {
		t.Fatalf("UpdateProgress() = %v", err)
	}
	if task.Progress != 50 {
		t.Errorf("progress = %d", task.Progress)
	}
}

func TestDeactivatedLinkStopsWorking(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, "Olivia", entities.UserRoleUser, false)
	created := h.task(t, owner, "Temporary")

	link, err := h.shares.CreateOrUpdate(ctx, owner, ports.ShareLinkRequest{TaskID: created.ID})
	if err != nil {
		t.Fatal(err)
	}

	other := h.user(t, "Bob", entities.UserRoleUser, false)
	wantKind(t, h.shares.Deactivate(ctx, other, link.ShareToken), entities.KindForbidden)

	if err := h.shares.Deactivate(ctx, owner, link.ShareToken); err != nil {
		t.Fatalf("Deactivate() = %v", err)
	}
	_, err = h.shares.Access(ctx, entities.Actor{}, link.ShareToken)
	wantErr(t, err, entities.ErrShareLinkInvalid)
	_, err = h.shares.Comment(ctx, entities.Actor{}, link.ShareToken, ports.CommentRequest{Text: "hi"})
	wantErr(t, err, entities.ErrShareLinkInvalid)

	// a new request issues a fresh token
	fresh, err := h.shares.CreateOrUpdate(ctx, owner, ports.ShareLinkRequest{TaskID: created.ID})
	if err != nil {
		t.Fatal(err)
	}
	if fresh.ShareToken == link.ShareToken {
		t.Error("deactivated token was reused")
	}
}

func TestInviteDeduplicates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, "Olivia", entities.UserRoleUser, false)
	created := h.task(t, owner, "Invite")

	req := ports.InviteRequest{TaskID: created.ID, Emails: []string{"Bob@Example.com", "carol@example.com"}}
	if _, err := h.shares.Invite(ctx, owner, req); err != nil {
		t.Fatalf("Invite() = %v", err)
	}
	view, err := h.shares.Invite(ctx, owner, ports.InviteRequest{TaskID: created.ID, Emails: []string{"bob@example.com"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(view.InvitedUsers) != 2 {
		t.Errorf("invited = %+v, want 2 entries", view.InvitedUsers)
	}

	_, err = h.shares.Invite(ctx, owner, ports.InviteRequest{TaskID: created.ID, Emails: []string{"not-an-email"}})
	wantKind(t, err, entities.KindValidation)
}

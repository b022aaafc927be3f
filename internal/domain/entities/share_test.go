package entities

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestShareLinkIsValid(t *testing.T) {
	past := t0.Add(-time.Minute)
	future := t0.Add(time.Hour)
	two := 2

	tests := []struct {
		name string
		link ShareLink
		want bool
	}{
		{"active", ShareLink{IsActive: true}, true},
		{"inactive", ShareLink{IsActive: false}, false},
		{"expired", ShareLink{IsActive: true, ExpiresAt: &past}, false},
		{"expires exactly now", ShareLink{IsActive: true, ExpiresAt: &t0}, false},
		{"not yet expired", ShareLink{IsActive: true, ExpiresAt: &future}, true},
		{"under access limit", ShareLink{IsActive: true, MaxAccess: &two, AccessCount: 1}, true},
		{"at access limit", ShareLink{IsActive: true, MaxAccess: &two, AccessCount: 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.link.IsValid(t0); got != tt.want {
				t.Errorf("IsValid = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShareLinkInviteSkipsDuplicates(t *testing.T) {
	link := &ShareLink{}
	if n := link.Invite([]string{"a@x.io", "b@x.io", "a@x.io"}, t0); n != 2 {
		t.Errorf("first invite added %d, want 2", n)
	}
	if n := link.Invite([]string{"b@x.io", "c@x.io"}, t0); n != 1 {
		t.Errorf("second invite added %d, want 1", n)
	}
	if len(link.InvitedUsers) != 3 {
		t.Errorf("invited = %d, want 3", len(link.InvitedUsers))
	}
}

func TestShareLinkIsManagedBy(t *testing.T) {
	creator := Actor{ID: uuid.New(), Role: UserRoleUser}
	owner := Actor{ID: uuid.New(), Role: UserRoleUser}
	stranger := Actor{ID: uuid.New(), Role: UserRoleUser}
	admin := Actor{ID: uuid.New(), Role: UserRoleAdmin}
	link := &ShareLink{CreatedBy: creator.ID}

	tests := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"creator", creator, true},
		{"task owner", owner, true},
		{"admin", admin, true},
		{"stranger", stranger, false},
		{"anonymous", Actor{Name: "visitor"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := link.IsManagedBy(tt.actor, owner.ID); got != tt.want {
				t.Errorf("IsManagedBy = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSharePermissionsAllows(t *testing.T) {
	p := DefaultSharePermissions()
	if !p.Allows(PermissionView) || !p.Allows(PermissionComment) {
		t.Error("defaults must allow view and comment")
	}
	for _, perm := range []Permission{PermissionEdit, PermissionUpdateProgress, PermissionAddSubTasks, PermissionUploadFiles, "bogus"} {
		if p.Allows(perm) {
			t.Errorf("defaults allow %s", perm)
		}
	}
}

func TestNewShareToken(t *testing.T) {
	a, err := NewShareToken()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewShareToken()
	if len(a) != 32 || a == b {
		t.Errorf("tokens %q and %q", a, b)
	}
}

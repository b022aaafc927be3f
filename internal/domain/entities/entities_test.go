package entities

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
)

func TestUserCheckAccess(t *testing.T) {
	tests := []struct {
		name string
		user User
		want error
	}{
		{"active", User{IsActive: true}, nil},
		{"suspended", User{IsActive: true, IsSuspended: true}, ErrAccountSuspended},
		{"inactive", User{IsActive: false}, ErrAccountInactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.user.CheckAccess(); !errors.Is(err, tt.want) {
				t.Errorf("CheckAccess = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDomainErrorIs(t *testing.T) {
	copied := *ErrTaskNotFound
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"same sentinel", ErrTaskNotFound, ErrTaskNotFound, true},
		{"copy of a sentinel", &copied, ErrTaskNotFound, true},
		{"wrapped", fmt.Errorf("load: %w", ErrTaskNotFound), ErrTaskNotFound, true},
		{"kind target", ErrSubTaskNotFound, &DomainError{Kind: KindNotFound}, true},
		{"wrapped kind target", fmt.Errorf("x: %w", ErrGuestTaskQuota), &DomainError{Kind: KindQuotaExceeded}, true},
		{"same kind other message", ErrInvalidCredentials, ErrUnauthenticated, false},
		{"other kind", ErrForbidden, &DomainError{Kind: KindNotFound}, false},
		{"plain error", errors.New("Task not found"), ErrTaskNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.want)
			}
		})
	}
}

func TestConvertGuest(t *testing.T) {
	u := &User{ID: uuid.New(), IsGuest: true, GuestLimits: GuestLimits{TasksCreated: 2}}
	if err := u.ConvertGuest("alex@example.com", "hash", t0); err != nil {
		t.Fatal(err)
	}
	if u.IsGuest || u.GuestConvertedAt == nil || u.Email != "alex@example.com" {
		t.Errorf("conversion not applied: %+v", u)
	}
	if u.TasksCreated != 2 {
		t.Error("conversion reset guest counters")
	}
	if err := u.ConvertGuest("x@example.com", "hash", t0); !errors.Is(err, ErrNotGuest) {
		t.Errorf("second conversion = %v", err)
	}
}

func TestActor(t *testing.T) {
	anon := Actor{Name: "visitor"}
	if !anon.IsAnonymous() || anon.Ref() != nil {
		t.Error("zero-ID actor must be anonymous")
	}
	u := &User{ID: uuid.New(), Name: "Dana", Role: UserRoleAdmin}
	a := ActorFromUser(u)
	if a.IsAnonymous() || !a.IsAdmin() || *a.Ref() != u.ID {
		t.Errorf("actor = %+v", a)
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("loading: %w", ErrTaskNotFound)
	if KindOf(err) != KindNotFound {
		t.Errorf("KindOf = %q", KindOf(err))
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("plain errors have no kind")
	}
}

func TestNewActivityLogChecksDetails(t *testing.T) {
	id := uuid.New()
	if _, err := NewActivityLog(alice, ActionTaskCreated, TargetTask, &id, TaskCreatedDetails{Text: "x"}, t0); err != nil {
		t.Errorf("matching details rejected: %v", err)
	}
	if _, err := NewActivityLog(alice, ActionTaskCreated, TargetTask, &id, CommentDetails{}, t0); err == nil {
		t.Error("mismatched details accepted")
	}
	if _, err := NewActivityLog(alice, ActionTaskArchived, TargetTask, &id, nil, t0); err != nil {
		t.Errorf("nil details for task_archived rejected: %v", err)
	}
	if _, err := NewActivityLog(alice, "task_exploded", TargetTask, &id, nil, t0); err == nil {
		t.Error("unknown action accepted")
	}
}

func TestDecodeActivityDetails(t *testing.T) {
	d, err := DecodeActivityDetails(ActionProgressUpdated, []byte(`{"oldProgress":10,"newProgress":40}`))
	if err != nil {
		t.Fatal(err)
	}
	p, ok := d.(*ProgressUpdatedDetails)
	if !ok || p.NewProgress != 40 {
		t.Errorf("decoded %#v", d)
	}
}

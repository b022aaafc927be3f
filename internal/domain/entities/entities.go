package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Field limits shared by both mutation entry points.
const (
	MaxTaskTextLength        = 200
	MaxTaskDescriptionLength = 1000
	MaxCommentLength         = 500
	MaxCategoryLength        = 50
	MaxTagLength             = 30
	MaxSubTaskTextLength     = 200
	MaxExtensionReasonLength = 500
	// MaxExtensionAmount caps one extension in either unit.
	MaxExtensionAmount = 8760
	MinUserNameLength        = 2
	MaxUserNameLength        = 50
)

// Enums and types
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type TaskStatus string

const (
	TaskStatusOngoing   TaskStatus = "ongoing"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusDelayed   TaskStatus = "delayed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// GuestLimits counts what a guest has consumed. Counters only grow.
type GuestLimits struct {
	TasksCreated   int `json:"tasksCreated" db:"guest_tasks_created"`
	CommentsPosted int `json:"commentsPosted" db:"guest_comments_posted"`
}

// User represents a registered, guest or admin identity
type User struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	Name             string     `json:"name" db:"name"`
	Email            string     `json:"email" db:"email"`
	PasswordHash     string     `json:"-" db:"password_hash"`
	Role             UserRole   `json:"role" db:"role"`
	IsActive         bool       `json:"isActive" db:"is_active"`
	IsSuspended      bool       `json:"isSuspended" db:"is_suspended"`
	IsGuest          bool       `json:"isGuest" db:"is_guest"`
	GuestConvertedAt *time.Time `json:"guestConvertedAt,omitempty" db:"guest_converted_at"`

	GuestLimits `json:"guestLimits"`

	LastLogin *time.Time `json:"lastLogin,omitempty" db:"last_login"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
}

// Comment is a note attached to a task. AuthorID is nil for anonymous share-link visitors.
type Comment struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	TaskID     uuid.UUID  `json:"taskId" db:"task_id"`
	Text       string     `json:"text" db:"text"`
	AuthorID   *uuid.UUID `json:"authorId,omitempty" db:"author_id"`
	AuthorName string     `json:"author" db:"author_name"`
	CreatedAt  time.Time  `json:"timestamp" db:"created_at"`
}

// File is the metadata record of an uploaded attachment
type File struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	OriginalName   string     `json:"originalName" db:"original_name"`
	StoredName     string     `json:"filename" db:"stored_name"`
	MimeType       string     `json:"mimetype" db:"mime_type"`
	Size           int64      `json:"size" db:"size"`
	UploadedBy     *uuid.UUID `json:"uploadedById,omitempty" db:"uploaded_by"`
	UploadedByName string     `json:"uploadedBy" db:"uploaded_by_name"`
	TaskID         uuid.UUID  `json:"taskId" db:"task_id"`
	CommentID      *uuid.UUID `json:"commentId,omitempty" db:"comment_id"`
	IsImage        bool       `json:"isImage" db:"is_image"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
}

// Actor is whoever performs a mutation. A zero ID means an anonymous share-link visitor.
type Actor struct {
	ID      uuid.UUID
	Name    string
	Role    UserRole
	IsGuest bool
}

// ActorFromUser builds the actor view of an authenticated user.
func ActorFromUser(u *User) Actor {
	return Actor{ID: u.ID, Name: u.Name, Role: u.Role, IsGuest: u.IsGuest}
}

func (a Actor) IsAnonymous() bool {
	return a.ID == uuid.Nil
}

func (a Actor) IsAdmin() bool {
	return a.Role == UserRoleAdmin
}

// Ref returns a pointer to the actor ID, or nil for anonymous actors.
func (a Actor) Ref() *uuid.UUID {
	if a.IsAnonymous() {
		return nil
	}
	id := a.ID
	return &id
}

// CheckAccess reports why an account may not act, if it may not.
func (u *User) CheckAccess() error {
	if u.IsSuspended {
		return ErrAccountSuspended
	}
	if !u.IsActive {
		return ErrAccountInactive
	}
	return nil
}

// ConvertGuest turns a guest into a registered user in place.
func (u *User) ConvertGuest(email, passwordHash string, now time.Time) error {
	if !u.IsGuest {
		return ErrNotGuest
	}
	u.Email = email
	u.PasswordHash = passwordHash
	u.IsGuest = false
	u.GuestConvertedAt = &now
	return nil
}

// Utility methods
func (ur UserRole) IsValid() bool {
	switch ur {
	case UserRoleUser, UserRoleAdmin:
		return true
	default:
		return false
	}
}

func (ts TaskStatus) IsValid() bool {
	switch ts {
	case TaskStatusOngoing, TaskStatusCompleted, TaskStatusDelayed, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// IsClosed reports whether the deadline rule no longer applies.
func (ts TaskStatus) IsClosed() bool {
	return ts == TaskStatusCompleted || ts == TaskStatusCancelled
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// Rank orders priorities from low to urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	default:
		return -1
	}
}

// JSON column helpers

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func jsonScan(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
}

// StringList is a JSON-encoded list of strings.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return jsonValue([]string(l))
}

func (l *StringList) Scan(src any) error { return jsonScan(src, l) }

// UUIDList is a JSON-encoded list of user ids.
type UUIDList []uuid.UUID

func (l UUIDList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return jsonValue([]uuid.UUID(l))
}

func (l *UUIDList) Scan(src any) error { return jsonScan(src, l) }

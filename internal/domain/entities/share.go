package entities

import (
	"crypto/rand"
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Permission names one capability a share link can grant
type Permission string

const (
	PermissionView           Permission = "canView"
	PermissionComment        Permission = "canComment"
	PermissionEdit           Permission = "canEdit"
	PermissionUpdateProgress Permission = "canUpdateProgress"
	PermissionAddSubTasks    Permission = "canAddSubTasks"
	PermissionUploadFiles    Permission = "canUploadFiles"
)

// SharePermissions is the permission set a share link grants.
type SharePermissions struct {
	CanView           bool `json:"canView"`
	CanComment        bool `json:"canComment"`
	CanEdit           bool `json:"canEdit"`
	CanUpdateProgress bool `json:"canUpdateProgress"`
	CanAddSubTasks    bool `json:"canAddSubTasks"`
	CanUploadFiles    bool `json:"canUploadFiles"`
}

// DefaultSharePermissions is what a link grants when the creator names nothing.
func DefaultSharePermissions() SharePermissions {
	return SharePermissions{CanView: true, CanComment: true}
}

// Allows reports whether the set grants p.
func (p SharePermissions) Allows(perm Permission) bool {
	switch perm {
	case PermissionView:
		return p.CanView
	case PermissionComment:
		return p.CanComment
	case PermissionEdit:
		return p.CanEdit
	case PermissionUpdateProgress:
		return p.CanUpdateProgress
	case PermissionAddSubTasks:
		return p.CanAddSubTasks
	case PermissionUploadFiles:
		return p.CanUploadFiles
	default:
		return false
	}
}

func (p SharePermissions) Value() (driver.Value, error) { return jsonValue(p) }

func (p *SharePermissions) Scan(src any) error { return jsonScan(src, p) }

// InvitedUser is an email invited to a shared task
type InvitedUser struct {
	Email      string     `json:"email"`
	Name       *string    `json:"name,omitempty"`
	InvitedAt  time.Time  `json:"invitedAt"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`
	UserID     *uuid.UUID `json:"userId,omitempty"`
}

// ShareAccess is one recorded visit through a share link
type ShareAccess struct {
	UserID     *uuid.UUID `json:"userId,omitempty"`
	GuestName  string     `json:"guestName"`
	AccessedAt time.Time  `json:"accessedAt"`
	IPAddress  string     `json:"ipAddress"`
}

type InvitedUserList []InvitedUser

func (l InvitedUserList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return jsonValue([]InvitedUser(l))
}

func (l *InvitedUserList) Scan(src any) error { return jsonScan(src, l) }

type ShareAccessList []ShareAccess

func (l ShareAccessList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return jsonValue([]ShareAccess(l))
}

func (l *ShareAccessList) Scan(src any) error { return jsonScan(src, l) }

// ShareLink grants token-based access to one task
type ShareLink struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	TaskID       uuid.UUID        `json:"taskId" db:"task_id"`
	Token        string           `json:"shareToken" db:"token"`
	CreatedBy    uuid.UUID        `json:"createdBy" db:"created_by"`
	Permissions  SharePermissions `json:"permissions" db:"permissions"`
	InvitedUsers InvitedUserList  `json:"invitedUsers" db:"invited_users"`
	AccessLog    ShareAccessList  `json:"-" db:"access_log"`
	AccessCount  int              `json:"accessCount" db:"access_count"`
	ExpiresAt    *time.Time       `json:"expiresAt,omitempty" db:"expires_at"`
	MaxAccess    *int             `json:"maxAccess,omitempty" db:"max_access"`
	IsActive     bool             `json:"isActive" db:"is_active"`
	CreatedAt    time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time        `json:"updatedAt" db:"updated_at"`
}

// NewShareToken returns 16 random bytes, hex encoded.
func NewShareToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate share token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// IsValid reports whether the link can still be used at now.
func (s *ShareLink) IsValid(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	if s.ExpiresAt != nil && !now.Before(*s.ExpiresAt) {
		return false
	}
	if s.MaxAccess != nil && s.AccessCount >= *s.MaxAccess {
		return false
	}
	return true
}

// ShareURL builds the public URL of the link.
func (s *ShareLink) ShareURL(baseURL string) string {
	return baseURL + "/shared/" + s.Token
}

// Invite adds emails not already invited. Emails must already be normalized.
func (s *ShareLink) Invite(emails []string, now time.Time) int {
	seen := make(map[string]bool, len(s.InvitedUsers))
	for _, u := range s.InvitedUsers {
		seen[u.Email] = true
	}
	added := 0
	for _, email := range emails {
		if seen[email] {
			continue
		}
		seen[email] = true
		s.InvitedUsers = append(s.InvitedUsers, InvitedUser{Email: email, InvitedAt: now})
		added++
	}
	return added
}

// IsManagedBy reports whether actor may manage the link for a task owned by taskOwner.
func (s *ShareLink) IsManagedBy(actor Actor, taskOwner uuid.UUID) bool {
	if actor.IsAdmin() {
		return true
	}
	if actor.IsAnonymous() {
		return false
	}
	return actor.ID == s.CreatedBy || actor.ID == taskOwner
}

package ports

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/domain/events"
)

// Broadcaster delivers delta events to the sessions subscribed to a scope.
// Publish must not block on slow subscribers.
type Broadcaster interface {
	Publish(ctx context.Context, event events.Event)
}

// FileStorage keeps uploaded blobs
type FileStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (int64, error)
	Open(ctx context.Context, name string) (io.ReadSeekCloser, error)
	// Remove deletes a blob. Removing a missing blob is not an error.
	Remove(ctx context.Context, name string) error
}

// RequestMeta is the client context recorded in audit entries.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

type requestMetaKey struct{}

// WithRequestMeta attaches meta to ctx for the audit trail.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFrom returns the meta attached to ctx, if any.
func RequestMetaFrom(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}

// Request/Response Types

// Auth related types
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,password"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type GuestRequest struct {
	Name string `json:"name" validate:"omitempty,min=2,max=50"`
}

type ConvertGuestRequest struct {
	Name     string `json:"name" validate:"omitempty,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,password"`
}

type AuthResponse struct {
	Token     string         `json:"token"`
	ExpiresIn int64          `json:"expiresIn"`
	User      *entities.User `json:"user"`
}

// Task related types
type CreateTaskRequest struct {
	Text        string             `json:"text" validate:"required,max=200"`
	Date        string             `json:"date" validate:"required,calendar_date"`
	Description *string            `json:"description" validate:"omitempty,max=1000"`
	Deadline    *time.Time         `json:"deadline"`
	Category    *string            `json:"category" validate:"omitempty,max=50"`
	Priority    *entities.Priority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Tags        []string           `json:"tags" validate:"omitempty,dive,max=30"`
	AssignedTo  []uuid.UUID        `json:"assignedTo"`
}

type UpdateTaskRequest struct {
	Text        *string            `json:"text" validate:"omitempty,min=1,max=200"`
	Description *string            `json:"description" validate:"omitempty,max=1000"`
	Deadline    *time.Time         `json:"deadline"`
	Category    *string            `json:"category" validate:"omitempty,max=50"`
	Priority    *entities.Priority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Tags        []string           `json:"tags" validate:"omitempty,dive,max=30"`
	AssignedTo  []uuid.UUID        `json:"assignedTo"`
}

type ProgressRequest struct {
	Progress *int `json:"progress" validate:"required"`
}

type StatusRequest struct {
	Status entities.TaskStatus `json:"status" validate:"required"`
}

type ExtendDeadlineRequest struct {
	Amount int                    `json:"extensionAmount" validate:"required,min=1,max=8760"`
	Unit   entities.ExtensionUnit `json:"extensionUnit" validate:"required,oneof=hours days"`
	Reason *string                `json:"reason" validate:"omitempty,max=500"`
}

type SubTaskRequest struct {
	Text string `json:"text" validate:"required,max=200"`
}

type CommentRequest struct {
	Text string `json:"text" validate:"required,max=500"`
	// Name identifies anonymous share-link visitors.
	Name string `json:"name" validate:"omitempty,max=50"`
}

// TaskDetails is the read model of a task returned by both transports.
type TaskDetails struct {
	*entities.Task
	IsOverdue bool                `json:"isOverdue"`
	Comments  []*entities.Comment `json:"comments"`
	Files     []*entities.File    `json:"files"`
}

// Share link related types
type ShareLinkRequest struct {
	TaskID      uuid.UUID                  `json:"taskId" validate:"required"`
	Permissions *entities.SharePermissions `json:"permissions"`
	ExpiresIn   *int                       `json:"expiresIn" validate:"omitempty,min=1"`
	MaxAccess   *int                       `json:"maxAccess" validate:"omitempty,min=1"`
}

type InviteRequest struct {
	TaskID      uuid.UUID                  `json:"taskId" validate:"required"`
	Emails      []string                   `json:"emails" validate:"required,min=1,dive,email"`
	Permissions *entities.SharePermissions `json:"permissions"`
}

type ShareLinkView struct {
	ShareURL     string                    `json:"shareUrl"`
	ShareToken   string                    `json:"shareToken"`
	Permissions  entities.SharePermissions `json:"permissions"`
	InvitedUsers []entities.InvitedUser    `json:"invitedUsers,omitempty"`
	AccessCount  int                       `json:"accessCount"`
	ExpiresAt    *time.Time                `json:"expiresAt,omitempty"`
	MaxAccess    *int                      `json:"maxAccess,omitempty"`
	CreatedAt    time.Time                 `json:"createdAt"`
}

type SharedTaskView struct {
	Task        *TaskDetails              `json:"task"`
	Permissions entities.SharePermissions `json:"permissions"`
	IsOwner     bool                      `json:"isOwner"`
}

// Admin related types
type ChangeRoleRequest struct {
	Role entities.UserRole `json:"role" validate:"required,oneof=user admin"`
}

type UpdateSettingsRequest struct {
	AppTitle       *string                       `json:"appTitle" validate:"omitempty,max=100"`
	WelcomeMessage *string                       `json:"welcomeMessage" validate:"omitempty,max=500"`
	HeroTitle      *string                       `json:"heroTitle" validate:"omitempty,max=100"`
	HeroTagline    *string                       `json:"heroTagline" validate:"omitempty,max=500"`
	Theme          *entities.ThemeSettings       `json:"theme"`
	Features       *entities.FeatureSettings     `json:"features"`
	Maintenance    *entities.MaintenanceSettings `json:"maintenance"`
}

type Page[T any] struct {
	Items       []T   `json:"items"`
	Total       int64 `json:"total"`
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
}

// NewPage computes paging metadata for a result slice.
func NewPage[T any](items []T, total int64, page, limit int) Page[T] {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, CurrentPage: page, TotalPages: pages}
}

type DashboardStats struct {
	Users   UserStats `json:"users"`
	Tasks   TaskStats `json:"tasks"`
	Content struct {
		Comments int64 `json:"comments"`
		Files    int64 `json:"files"`
	} `json:"content"`
	Activity struct {
		Last24Hours int64 `json:"last24Hours"`
	} `json:"activity"`
}

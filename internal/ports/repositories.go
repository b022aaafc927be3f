package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/tasksync/internal/domain/entities"
)

// QuotaKind names a guest creation allowance
type QuotaKind string

const (
	QuotaTasks    QuotaKind = "tasks"
	QuotaComments QuotaKind = "comments"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	List(ctx context.Context, filter UserFilter) ([]*entities.User, error)
	Count(ctx context.Context, filter UserFilter) (int64, error)
	// ReserveGuestQuota atomically increments the guest counter of kind if it
	// is below limit. It reports false when the limit is already reached.
	ReserveGuestQuota(ctx context.Context, userID uuid.UUID, kind QuotaKind, limit int) (bool, error)
	// ReleaseGuestQuota undoes a reservation whose creation failed.
	ReleaseGuestQuota(ctx context.Context, userID uuid.UUID, kind QuotaKind) error
	Stats(ctx context.Context) (*UserStats, error)
}

// TaskRepository defines the interface for task data operations
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error
	// DeleteCascade removes the task with its comments and file records in one
	// transaction and reports how many dependents went with it.
	DeleteCascade(ctx context.Context, id uuid.UUID) (comments int, files int, err error)
	List(ctx context.Context, filter TaskFilter) ([]*entities.Task, error)
	Count(ctx context.Context, filter TaskFilter) (int64, error)
	Categories(ctx context.Context) ([]string, error)
	// PastDeadline lists non-archived, not closed tasks whose deadline is before now.
	PastDeadline(ctx context.Context, now time.Time) ([]*entities.Task, error)
	Stats(ctx context.Context) (*TaskStats, error)
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *entities.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Comment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByTasks returns comments oldest first, grouped by task.
	ListByTasks(ctx context.Context, taskIDs []uuid.UUID) (map[uuid.UUID][]*entities.Comment, error)
	Count(ctx context.Context) (int64, error)
}

// FileRepository defines the interface for file metadata operations
type FileRepository interface {
	Create(ctx context.Context, file *entities.File) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.File, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByTasks returns files newest first, grouped by task.
	ListByTasks(ctx context.Context, taskIDs []uuid.UUID) (map[uuid.UUID][]*entities.File, error)
	Count(ctx context.Context) (int64, error)
}

// ShareLinkRepository defines the interface for share link operations
type ShareLinkRepository interface {
	Create(ctx context.Context, link *entities.ShareLink) error
	GetByToken(ctx context.Context, token string) (*entities.ShareLink, error)
	// GetActiveByTask returns the active link of a task, or ErrShareLinkNotFound.
	GetActiveByTask(ctx context.Context, taskID uuid.UUID) (*entities.ShareLink, error)
	Update(ctx context.Context, link *entities.ShareLink) error
	// RecordAccess atomically checks validity, increments the access count and
	// appends entry. It returns ErrShareLinkInvalid when the link cannot be used.
	RecordAccess(ctx context.Context, token string, entry entities.ShareAccess, now time.Time) (*entities.ShareLink, error)
}

// ActivityLogRepository defines the interface for the audit trail
type ActivityLogRepository interface {
	Create(ctx context.Context, log *entities.ActivityLog) error
	List(ctx context.Context, filter ActivityFilter) ([]*entities.ActivityLog, error)
	Count(ctx context.Context, filter ActivityFilter) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// SettingsRepository stores the AppSettings singleton
type SettingsRepository interface {
	// Get returns the stored settings, or (nil, nil) when none were saved yet.
	Get(ctx context.Context) (*entities.AppSettings, error)
	Save(ctx context.Context, settings *entities.AppSettings) error
}

// Filter types for repository queries
type UserFilter struct {
	Role   *entities.UserRole
	Status string
	Search *string
	Limit  int
	Offset int
}

// TaskSortFields are the columns a task listing can be ordered by.
var TaskSortFields = map[string]string{
	"createdAt": "created_at",
	"deadline":  "deadline",
	"priority":  "priority",
	"progress":  "progress",
	"text":      "text",
	"date":      "date",
}

type TaskFilter struct {
	Date            *string
	Status          *entities.TaskStatus
	Category        *string
	Priority        *entities.Priority
	CreatedBy       *uuid.UUID
	Search          *string
	IncludeArchived bool
	Limit           int
	Offset          int
	SortBy          string
	SortOrder       string
}

type ActivityFilter struct {
	UserID    *uuid.UUID
	Action    *entities.ActivityAction
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

type UserStats struct {
	Total  int64 `json:"total" db:"total"`
	Active int64 `json:"active" db:"active"`
	Guests int64 `json:"guests" db:"guests"`
	Admins int64 `json:"admins" db:"admins"`
}

type TaskStats struct {
	Total     int64 `json:"total" db:"total"`
	Archived  int64 `json:"archived" db:"archived"`
	Completed int64 `json:"completed" db:"completed"`
}

package entities

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActivityRetention is how long audit entries are kept before purge.
const ActivityRetention = 90 * 24 * time.Hour

type ActivityAction string

const (
	ActionUserRegistered  ActivityAction = "user_registered"
	ActionUserLogin       ActivityAction = "user_login"
	ActionUserLogout      ActivityAction = "user_logout"
	ActionGuestJoined     ActivityAction = "guest_joined"
	ActionGuestConverted  ActivityAction = "guest_converted"
	ActionTaskCreated     ActivityAction = "task_created"
	ActionTaskUpdated     ActivityAction = "task_updated"
	ActionTaskDeleted     ActivityAction = "task_deleted"
	ActionTaskArchived    ActivityAction = "task_archived"
	ActionCommentCreated  ActivityAction = "comment_created"
	ActionCommentDeleted  ActivityAction = "comment_deleted"
	ActionFileUploaded    ActivityAction = "file_uploaded"
	ActionFileDeleted     ActivityAction = "file_deleted"
	ActionProgressUpdated ActivityAction = "progress_updated"
	ActionUserSuspended   ActivityAction = "user_suspended"
	ActionUserActivated   ActivityAction = "user_activated"
	ActionRoleChanged     ActivityAction = "role_changed"
	ActionSettingsUpdated ActivityAction = "settings_updated"
)

func (a ActivityAction) IsValid() bool {
	switch a {
	case ActionUserRegistered, ActionUserLogin, ActionUserLogout, ActionGuestJoined,
		ActionGuestConverted, ActionTaskCreated, ActionTaskUpdated, ActionTaskDeleted,
		ActionTaskArchived, ActionCommentCreated, ActionCommentDeleted, ActionFileUploaded,
		ActionFileDeleted, ActionProgressUpdated, ActionUserSuspended, ActionUserActivated,
		ActionRoleChanged, ActionSettingsUpdated:
		return true
	default:
		return false
	}
}

type TargetType string

const (
	TargetTask        TargetType = "Task"
	TargetComment     TargetType = "Comment"
	TargetFile        TargetType = "File"
	TargetUser        TargetType = "User"
	TargetAppSettings TargetType = "AppSettings"
)

// ActivityDetails is the per-action payload of an audit entry. Each action
// accepts exactly one variant, or none.
type ActivityDetails interface {
	isActivityDetails()
}

// AccountDetails: user_registered, guest_joined, guest_converted.
type AccountDetails struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// TaskCreatedDetails: task_created.
type TaskCreatedDetails struct {
	Text     string  `json:"text"`
	Date     string  `json:"date"`
	Category *string `json:"category,omitempty"`
}

// TaskChange names what a task_updated entry changed.
type TaskChange string

const (
	ChangeFields               TaskChange = "fields"
	ChangeStatus               TaskChange = "status"
	ChangeDeadlineExtended     TaskChange = "deadline_extended"
	ChangeSubTaskAdded         TaskChange = "subtask_added"
	ChangeSubTaskCompleted     TaskChange = "subtask_completed"
	ChangeShareLinkCreated     TaskChange = "share_link_created"
	ChangeShareLinkDeactivated TaskChange = "share_link_deactivated"
	ChangeUsersInvited         TaskChange = "users_invited"
)

// TaskUpdatedDetails: task_updated.
type TaskUpdatedDetails struct {
	Change    TaskChange     `json:"action"`
	Fields    []string       `json:"fields,omitempty"`
	OldStatus TaskStatus     `json:"oldStatus,omitempty"`
	NewStatus TaskStatus     `json:"newStatus,omitempty"`
	Extension *TimeExtension `json:"extension,omitempty"`
	SubTaskID *uuid.UUID     `json:"subtaskId,omitempty"`
	Text      string         `json:"text,omitempty"`
	Emails    []string       `json:"emails,omitempty"`
}

// TaskDeletedDetails: task_deleted.
type TaskDeletedDetails struct {
	Text     string `json:"text"`
	Date     string `json:"date"`
	Comments int    `json:"comments"`
	Files    int    `json:"files"`
}

// CommentDetails: comment_created, comment_deleted.
type CommentDetails struct {
	TaskID uuid.UUID `json:"taskId"`
}

// FileDetails: file_uploaded, file_deleted.
type FileDetails struct {
	TaskID    uuid.UUID  `json:"taskId"`
	CommentID *uuid.UUID `json:"commentId,omitempty"`
	Filename  string     `json:"filename"`
}

// ProgressUpdatedDetails: progress_updated.
type ProgressUpdatedDetails struct {
	OldProgress int `json:"oldProgress"`
	NewProgress int `json:"newProgress"`
}

// RoleChangedDetails: role_changed.
type RoleChangedDetails struct {
	OldRole UserRole `json:"oldRole"`
	NewRole UserRole `json:"newRole"`
}

// SettingsUpdatedDetails: settings_updated.
type SettingsUpdatedDetails struct {
	Sections []string `json:"sections"`
}

func (AccountDetails) isActivityDetails()         {}
func (TaskCreatedDetails) isActivityDetails()     {}
func (TaskUpdatedDetails) isActivityDetails()     {}
func (TaskDeletedDetails) isActivityDetails()     {}
func (CommentDetails) isActivityDetails()         {}
func (FileDetails) isActivityDetails()            {}
func (ProgressUpdatedDetails) isActivityDetails() {}
func (RoleChangedDetails) isActivityDetails()     {}
func (SettingsUpdatedDetails) isActivityDetails() {}

// newDetails returns an empty variant for action, or nil when the action carries none.
func newDetails(action ActivityAction) ActivityDetails {
	switch action {
	case ActionUserRegistered, ActionGuestJoined, ActionGuestConverted:
		return &AccountDetails{}
	case ActionTaskCreated:
		return &TaskCreatedDetails{}
	case ActionTaskUpdated:
		return &TaskUpdatedDetails{}
	case ActionTaskDeleted:
		return &TaskDeletedDetails{}
	case ActionCommentCreated, ActionCommentDeleted:
		return &CommentDetails{}
	case ActionFileUploaded, ActionFileDeleted:
		return &FileDetails{}
	case ActionProgressUpdated:
		return &ProgressUpdatedDetails{}
	case ActionRoleChanged:
		return &RoleChangedDetails{}
	case ActionSettingsUpdated:
		return &SettingsUpdatedDetails{}
	default:
		return nil
	}
}

// Accepts reports whether d is the variant action carries.
func (a ActivityAction) Accepts(d ActivityDetails) bool {
	want := newDetails(a)
	if d == nil || want == nil {
		return d == nil && want == nil
	}
	switch d.(type) {
	case AccountDetails, *AccountDetails:
		_, ok := want.(*AccountDetails)
		return ok
	case TaskCreatedDetails, *TaskCreatedDetails:
		_, ok := want.(*TaskCreatedDetails)
		return ok
	case TaskUpdatedDetails, *TaskUpdatedDetails:
		_, ok := want.(*TaskUpdatedDetails)
		return ok
	case TaskDeletedDetails, *TaskDeletedDetails:
		_, ok := want.(*TaskDeletedDetails)
		return ok
	case CommentDetails, *CommentDetails:
		_, ok := want.(*CommentDetails)
		return ok
	case FileDetails, *FileDetails:
		_, ok := want.(*FileDetails)
		return ok
	case ProgressUpdatedDetails, *ProgressUpdatedDetails:
		_, ok := want.(*ProgressUpdatedDetails)
		return ok
	case RoleChangedDetails, *RoleChangedDetails:
		_, ok := want.(*RoleChangedDetails)
		return ok
	case SettingsUpdatedDetails, *SettingsUpdatedDetails:
		_, ok := want.(*SettingsUpdatedDetails)
		return ok
	}
	return false
}

// DecodeActivityDetails decodes a stored payload into the variant of action.
func DecodeActivityDetails(action ActivityAction, raw []byte) (ActivityDetails, error) {
	d := newDetails(action)
	if d == nil || len(raw) == 0 || string(raw) == "null" {
		return d, nil
	}
	if err := json.Unmarshal(raw, d); err != nil {
		return nil, fmt.Errorf("failed to decode %s details: %w", action, err)
	}
	return d, nil
}

// ActivityLog is one append-only audit entry
type ActivityLog struct {
	ID         uuid.UUID       `json:"id"`
	UserID     *uuid.UUID      `json:"userId,omitempty"`
	UserName   string          `json:"userName,omitempty"`
	Action     ActivityAction  `json:"action"`
	TargetType TargetType      `json:"targetType"`
	TargetID   *uuid.UUID      `json:"targetId,omitempty"`
	Details    ActivityDetails `json:"details,omitempty"`
	IPAddress  string          `json:"ipAddress,omitempty"`
	UserAgent  string          `json:"userAgent,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// NewActivityLog builds an entry, rejecting details that do not match the action.
func NewActivityLog(actor Actor, action ActivityAction, target TargetType, targetID *uuid.UUID, details ActivityDetails, now time.Time) (*ActivityLog, error) {
	if !action.IsValid() {
		return nil, fmt.Errorf("unknown activity action %q", action)
	}
	if !action.Accepts(details) {
		return nil, fmt.Errorf("details %T do not match action %s", details, action)
	}
	return &ActivityLog{
		ID:         uuid.New(),
		UserID:     actor.Ref(),
		UserName:   actor.Name,
		Action:     action,
		TargetType: target,
		TargetID:   targetID,
		Details:    details,
		CreatedAt:  now,
	}, nil
}

// Package events defines the delta events published after task mutations.
// Payloads carry the changed fields plus the task id and date scope so a
// subscriber can patch its local copy without re-fetching.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/tasksync/internal/domain/entities"
)

// Name is the wire name of an event.
type Name string

const (
	TaskAdded        Name = "taskAdded"
	TaskUpdated      Name = "taskUpdated"
	ProgressUpdated  Name = "progressUpdated"
	StatusChanged    Name = "statusChanged"
	SubTaskAdded     Name = "subtaskAdded"
	SubTaskCompleted Name = "subtaskCompleted"
	DeadlineExtended Name = "deadlineExtended"
	CommentAdded     Name = "commentAdded"
	CommentDeleted   Name = "commentDeleted"
	FileAdded        Name = "fileAdded"
	FileDeleted      Name = "fileDeleted"
	TaskDeleted      Name = "taskDeleted"
	ActiveUsers      Name = "activeUsers"
)

// Event is one delta addressed to a date scope.
type Event struct {
	Name    Name      `json:"type"`
	Scope   string    `json:"scope"`
	TaskID  uuid.UUID `json:"taskId"`
	Payload any       `json:"data"`
}

type TaskAddedPayload struct {
	Date string         `json:"date"`
	Task *entities.Task `json:"task"`
}

type TaskUpdatedPayload struct {
	Date string         `json:"date"`
	Task *entities.Task `json:"task"`
}

// ProgressPayload always carries progress and status together so a
// subscriber never sees one without the other. Timestamps are sent as null
// once cleared so a reopened task drops its completedAt downstream.
type ProgressPayload struct {
	Date            string              `json:"date"`
	TaskID          uuid.UUID           `json:"taskId"`
	Progress        int                 `json:"progress"`
	Status          entities.TaskStatus `json:"status"`
	StatusChangedAt *time.Time          `json:"statusChangedAt"`
	StatusChangedBy *uuid.UUID          `json:"statusChangedBy"`
	CompletedAt     *time.Time          `json:"completedAt"`
}

// StatusPayload also carries the sub-task list, which completing or
// reopening a task rewrites.
type StatusPayload struct {
	Date            string               `json:"date"`
	TaskID          uuid.UUID            `json:"taskId"`
	Status          entities.TaskStatus  `json:"status"`
	Progress        int                  `json:"progress"`
	StatusChangedAt *time.Time           `json:"statusChangedAt"`
	StatusChangedBy *uuid.UUID           `json:"statusChangedBy"`
	CompletedAt     *time.Time           `json:"completedAt"`
	HasSubTasks     bool                 `json:"hasSubTasks"`
	SubTasks        entities.SubTaskList `json:"subTasks"`
}

type SubTaskPayload struct {
	Date        string               `json:"date"`
	TaskID      uuid.UUID            `json:"taskId"`
	SubTask     entities.SubTask     `json:"subTask"`
	HasSubTasks bool                 `json:"hasSubTasks"`
	Progress    int                  `json:"progress"`
	Status      entities.TaskStatus  `json:"status"`
	SubTasks    entities.SubTaskList `json:"subTasks"`
}

type DeadlinePayload struct {
	Date             string                 `json:"date"`
	TaskID           uuid.UUID              `json:"taskId"`
	Deadline         *time.Time             `json:"deadline"`
	OriginalDeadline *time.Time             `json:"originalDeadline"`
	Extension        entities.TimeExtension `json:"extension"`
	Status           entities.TaskStatus    `json:"status"`
	StatusChangedAt  *time.Time             `json:"statusChangedAt"`
	StatusChangedBy  *uuid.UUID             `json:"statusChangedBy"`
}

type CommentPayload struct {
	Date    string            `json:"date"`
	TaskID  uuid.UUID         `json:"taskId"`
	Comment *entities.Comment `json:"comment"`
}

type CommentDeletedPayload struct {
	Date      string    `json:"date"`
	TaskID    uuid.UUID `json:"taskId"`
	CommentID uuid.UUID `json:"commentId"`
}

type FilePayload struct {
	Date   string         `json:"date"`
	TaskID uuid.UUID      `json:"taskId"`
	File   *entities.File `json:"file"`
}

type FileDeletedPayload struct {
	Date   string    `json:"date"`
	TaskID uuid.UUID `json:"taskId"`
	FileID uuid.UUID `json:"fileId"`
}

type TaskDeletedPayload struct {
	Date   string    `json:"date"`
	TaskID uuid.UUID `json:"taskId"`
}

// ForStatus picks the event for a status or progress change. Both names
// carry the full progress/status pair.
func ForStatus(t *entities.Task) Event {
	return Event{
		Name:   StatusChanged,
		Scope:  t.Date,
		TaskID: t.ID,
		Payload: StatusPayload{
			Date:            t.Date,
			TaskID:          t.ID,
			Status:          t.Status,
			Progress:        t.Progress,
			StatusChangedAt: t.StatusChangedAt,
			StatusChangedBy: t.StatusChangedBy,
			CompletedAt:     t.CompletedAt,
			HasSubTasks:     t.HasSubTasks,
			SubTasks:        t.SubTasks,
		},
	}
}

func ForProgress(t *entities.Task) Event {
	return Event{
		Name:   ProgressUpdated,
		Scope:  t.Date,
		TaskID: t.ID,
		Payload: ProgressPayload{
			Date:            t.Date,
			TaskID:          t.ID,
			Progress:        t.Progress,
			Status:          t.Status,
			StatusChangedAt: t.StatusChangedAt,
			StatusChangedBy: t.StatusChangedBy,
			CompletedAt:     t.CompletedAt,
		},
	}
}

func ForTask(name Name, t *entities.Task) Event {
	var payload any
	if name == TaskAdded {
		payload = TaskAddedPayload{Date: t.Date, Task: t}
	} else {
		payload = TaskUpdatedPayload{Date: t.Date, Task: t}
	}
	return Event{Name: name, Scope: t.Date, TaskID: t.ID, Payload: payload}
}

func ForSubTask(name Name, t *entities.Task, st entities.SubTask) Event {
	return Event{
		Name:   name,
		Scope:  t.Date,
		TaskID: t.ID,
		Payload: SubTaskPayload{
			Date:        t.Date,
			TaskID:      t.ID,
			SubTask:     st,
			HasSubTasks: t.HasSubTasks,
			Progress:    t.Progress,
			Status:      t.Status,
			SubTasks:    t.SubTasks,
		},
	}
}

func ForDeadline(t *entities.Task, ext entities.TimeExtension) Event {
	return Event{
		Name:   DeadlineExtended,
		Scope:  t.Date,
		TaskID: t.ID,
		Payload: DeadlinePayload{
			Date:             t.Date,
			TaskID:           t.ID,
			Deadline:         t.Deadline,
			OriginalDeadline: t.OriginalDeadline,
			Extension:        ext,
			Status:           t.Status,
			StatusChangedAt:  t.StatusChangedAt,
			StatusChangedBy:  t.StatusChangedBy,
		},
	}
}

func ForComment(t *entities.Task, c *entities.Comment) Event {
	return Event{
		Name:    CommentAdded,
		Scope:   t.Date,
		TaskID:  t.ID,
		Payload: CommentPayload{Date: t.Date, TaskID: t.ID, Comment: c},
	}
}

func ForCommentDeleted(t *entities.Task, commentID uuid.UUID) Event {
	return Event{
		Name:    CommentDeleted,
		Scope:   t.Date,
		TaskID:  t.ID,
		Payload: CommentDeletedPayload{Date: t.Date, TaskID: t.ID, CommentID: commentID},
	}
}

func ForFile(t *entities.Task, f *entities.File) Event {
	return Event{
		Name:    FileAdded,
		Scope:   t.Date,
		TaskID:  t.ID,
		Payload: FilePayload{Date: t.Date, TaskID: t.ID, File: f},
	}
}

func ForFileDeleted(t *entities.Task, fileID uuid.UUID) Event {
	return Event{
		Name:    FileDeleted,
		Scope:   t.Date,
		TaskID:  t.ID,
		Payload: FileDeletedPayload{Date: t.Date, TaskID: t.ID, FileID: fileID},
	}
}

func ForTaskDeleted(t *entities.Task) Event {
	return Event{
		Name:    TaskDeleted,
		Scope:   t.Date,
		TaskID:  t.ID,
		Payload: TaskDeletedPayload{Date: t.Date, TaskID: t.ID},
	}
}

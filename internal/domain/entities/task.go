package entities

import (
	"database/sql/driver"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ExtensionUnit is the unit of a deadline extension amount
type ExtensionUnit string

const (
	ExtensionUnitHours ExtensionUnit = "hours"
	ExtensionUnitDays  ExtensionUnit = "days"
)

func (u ExtensionUnit) IsValid() bool {
	return u == ExtensionUnitHours || u == ExtensionUnitDays
}

// Duration converts amount units into a time.Duration.
func (u ExtensionUnit) Duration(amount int) time.Duration {
	if u == ExtensionUnitDays {
		return time.Duration(amount) * 24 * time.Hour
	}
	return time.Duration(amount) * time.Hour
}

// SubTask is a checklist item embedded in a task
type SubTask struct {
	ID          uuid.UUID  `json:"id"`
	Text        string     `json:"text"`
	IsCompleted bool       `json:"isCompleted"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CompletedBy *uuid.UUID `json:"completedBy,omitempty"`
	CreatedBy   *uuid.UUID `json:"createdBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// TimeExtension records one deadline extension. Entries are never edited.
type TimeExtension struct {
	Amount           int           `json:"extensionAmount"`
	Unit             ExtensionUnit `json:"extensionUnit"`
	Reason           *string       `json:"reason,omitempty"`
	RequestedBy      *uuid.UUID    `json:"requestedBy,omitempty"`
	PreviousDeadline time.Time     `json:"previousDeadline"`
	NewDeadline      time.Time     `json:"newDeadline"`
	RequestedAt      time.Time     `json:"requestedAt"`
}

type SubTaskList []SubTask

func (l SubTaskList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return jsonValue([]SubTask(l))
}

func (l *SubTaskList) Scan(src any) error { return jsonScan(src, l) }

type TimeExtensionList []TimeExtension

func (l TimeExtensionList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return jsonValue([]TimeExtension(l))
}

func (l *TimeExtensionList) Scan(src any) error { return jsonScan(src, l) }

// Task represents a task scoped to one calendar day
type Task struct {
	ID               uuid.UUID         `json:"id" db:"id"`
	Text             string            `json:"text" db:"text"`
	Description      *string           `json:"description,omitempty" db:"description"`
	Date             string            `json:"date" db:"date"`
	Deadline         *time.Time        `json:"deadline,omitempty" db:"deadline"`
	HasDeadline      bool              `json:"hasDeadline" db:"has_deadline"`
	OriginalDeadline *time.Time        `json:"originalDeadline,omitempty" db:"original_deadline"`
	TimeExtensions   TimeExtensionList `json:"timeExtensions" db:"time_extensions"`
	Progress         int               `json:"progress" db:"progress"`
	Status           TaskStatus        `json:"status" db:"status"`
	Category         *string           `json:"category,omitempty" db:"category"`
	Tags             StringList        `json:"tags" db:"tags"`
	Priority         Priority          `json:"priority" db:"priority"`
	SubTasks         SubTaskList       `json:"subTasks" db:"sub_tasks"`
	HasSubTasks      bool              `json:"hasSubTasks" db:"has_sub_tasks"`
	CreatedBy        uuid.UUID         `json:"createdById" db:"created_by"`
	CreatedByName    string            `json:"createdBy" db:"created_by_name"`
	AssignedTo       UUIDList          `json:"assignedTo" db:"assigned_to"`
	IsArchived       bool              `json:"isArchived" db:"is_archived"`
	ArchivedAt       *time.Time        `json:"archivedAt,omitempty" db:"archived_at"`
	ArchivedBy       *uuid.UUID        `json:"archivedBy,omitempty" db:"archived_by"`
	CompletedAt      *time.Time        `json:"completedAt,omitempty" db:"completed_at"`
	StatusChangedAt  *time.Time        `json:"statusChangedAt,omitempty" db:"status_changed_at"`
	StatusChangedBy  *uuid.UUID        `json:"statusChangedBy,omitempty" db:"status_changed_by"`
	CreatedAt        time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time         `json:"updatedAt" db:"updated_at"`
}

// NewTask builds an ongoing task owned by actor.
func NewTask(text, date string, actor Actor, now time.Time) *Task {
	return &Task{
		ID:             uuid.New(),
		Text:           strings.TrimSpace(text),
		Date:           date,
		Status:         TaskStatusOngoing,
		Priority:       PriorityMedium,
		Tags:           StringList{},
		SubTasks:       SubTaskList{},
		TimeExtensions: TimeExtensionList{},
		AssignedTo:     UUIDList{},
		CreatedBy:      actor.ID,
		CreatedByName:  actor.Name,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// SetDeadline sets or replaces the deadline without recording an extension.
func (t *Task) SetDeadline(deadline time.Time) {
	d := deadline.UTC()
	t.Deadline = &d
	t.HasDeadline = true
}

// Validate checks field limits and enum values.
func (t *Task) Validate() error {
	var fields []FieldError
	if n := utf8.RuneCountInString(strings.TrimSpace(t.Text)); n < 1 || n > MaxTaskTextLength {
		fields = append(fields, FieldError{Field: "text", Message: "Task text must be between 1 and 200 characters"})
	}
	if !IsCalendarDate(t.Date) {
		fields = append(fields, FieldError{Field: "date", Message: "Date must be a calendar day (YYYY-MM-DD)"})
	}
	if t.Description != nil && utf8.RuneCountInString(*t.Description) > MaxTaskDescriptionLength {
		fields = append(fields, FieldError{Field: "description", Message: "Description must be at most 1000 characters"})
	}
	if t.Category != nil && utf8.RuneCountInString(*t.Category) > MaxCategoryLength {
		fields = append(fields, FieldError{Field: "category", Message: "Category must be at most 50 characters"})
	}
	for _, tag := range t.Tags {
		if utf8.RuneCountInString(tag) > MaxTagLength {
			fields = append(fields, FieldError{Field: "tags", Message: "Tags must be at most 30 characters"})
			break
		}
	}
	if !t.Priority.IsValid() {
		fields = append(fields, FieldError{Field: "priority", Message: "Priority must be one of low, medium, high, urgent"})
	}
	if len(fields) > 0 {
		return NewValidationError("Validation failed", fields...)
	}
	return nil
}

// IsCalendarDate reports whether s is a YYYY-MM-DD day key.
func IsCalendarDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

// Business logic methods for Task

func (t *Task) pastDeadline(now time.Time) bool {
	return t.HasDeadline && t.Deadline != nil && now.After(*t.Deadline)
}

// IsOverdue is the read-only deadline predicate used by read paths.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.pastDeadline(now) && !t.Status.IsClosed()
}

// DerivedProgress is round(100 * completed / total), or the stored progress without sub-tasks.
func (t *Task) DerivedProgress() int {
	if len(t.SubTasks) == 0 {
		return t.Progress
	}
	done := 0
	for _, st := range t.SubTasks {
		if st.IsCompleted {
			done++
		}
	}
	return int(math.Round(100 * float64(done) / float64(len(t.SubTasks))))
}

func (t *Task) stampStatus(status TaskStatus, by *uuid.UUID, now time.Time) {
	t.Status = status
	t.StatusChangedAt = &now
	t.StatusChangedBy = by
}

// Reconcile applies the deadline rule: ongoing becomes delayed once the
// deadline passes, delayed returns to ongoing when it no longer has.
// Completed and cancelled tasks are left alone. Reports whether status changed.
func (t *Task) Reconcile(now time.Time) bool {
	switch {
	case t.Status == TaskStatusOngoing && t.pastDeadline(now):
		t.stampStatus(TaskStatusDelayed, nil, now)
		return true
	case t.Status == TaskStatusDelayed && !t.pastDeadline(now):
		t.stampStatus(TaskStatusOngoing, nil, now)
		return true
	}
	return false
}

// Reconciled returns a reconciled copy without touching t.
func (t Task) Reconciled(now time.Time) Task {
	t.Reconcile(now)
	return t
}

// reopen prepares a completed task for any other status.
func (t *Task) reopen() error {
	if t.HasSubTasks {
		p := t.DerivedProgress()
		if p == 100 {
			return ErrNoOpenSubTasks
		}
		t.Progress = p
	} else {
		t.Progress = 0
	}
	t.CompletedAt = nil
	return nil
}

// ChangeStatus moves the task to status. Completing forces progress to 100
// and closes any open sub-tasks; leaving completed lowers progress again.
func (t *Task) ChangeStatus(status TaskStatus, actor Actor, now time.Time) error {
	if !status.IsValid() {
		return ErrInvalidStatus
	}
	if status == TaskStatusDelayed && !t.pastDeadline(now) {
		return ErrNotOverdue
	}
	if t.Status == TaskStatusCompleted && status != TaskStatusCompleted {
		if err := t.reopen(); err != nil {
			return err
		}
	}

	t.stampStatus(status, actor.Ref(), now)
	if status == TaskStatusCompleted {
		t.CompletedAt = &now
		t.Progress = 100
		for i := range t.SubTasks {
			if !t.SubTasks[i].IsCompleted {
				t.SubTasks[i].markCompleted(actor, now)
			}
		}
	}
	t.Reconcile(now)
	t.UpdatedAt = now
	return nil
}

// UpdateProgress sets manual progress on a task without sub-tasks. Reaching
// 100 completes the task; dropping below 100 reopens a completed one.
func (t *Task) UpdateProgress(value int, actor Actor, now time.Time) error {
	if t.HasSubTasks {
		return ErrProgressDerived
	}
	value = max(0, min(100, value))

	if value == 100 {
		if t.Status == TaskStatusCompleted {
			return nil
		}
		return t.ChangeStatus(TaskStatusCompleted, actor, now)
	}

	if t.Status == TaskStatusCompleted {
		t.CompletedAt = nil
		t.stampStatus(TaskStatusOngoing, actor.Ref(), now)
	}
	t.Progress = value
	t.Reconcile(now)
	t.UpdatedAt = now
	return nil
}

// AddSubTask appends an open sub-task. Progress is left as is.
func (t *Task) AddSubTask(text string, actor Actor, now time.Time) (SubTask, error) {
	text = strings.TrimSpace(text)
	if n := utf8.RuneCountInString(text); n < 1 || n > MaxSubTaskTextLength {
		return SubTask{}, NewValidationError("Validation failed",
			FieldError{Field: "text", Message: "Sub-task text must be between 1 and 200 characters"})
	}

	st := SubTask{
		ID:        uuid.New(),
		Text:      text,
		CreatedBy: actor.Ref(),
		CreatedAt: now,
	}
	t.SubTasks = append(t.SubTasks, st)
	t.HasSubTasks = true
	t.Reconcile(now)
	t.UpdatedAt = now
	return st, nil
}

func (st *SubTask) markCompleted(actor Actor, now time.Time) {
	st.IsCompleted = true
	st.CompletedAt = &now
	st.CompletedBy = actor.Ref()
}

// CompleteSubTask closes one sub-task and recomputes progress from the
// checklist. Completing the last open item completes the task.
func (t *Task) CompleteSubTask(id uuid.UUID, actor Actor, now time.Time) (SubTask, error) {
	idx := -1
	for i := range t.SubTasks {
		if t.SubTasks[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return SubTask{}, ErrSubTaskNotFound
	}

	st := &t.SubTasks[idx]
	if st.IsCompleted {
		return *st, nil
	}
	st.markCompleted(actor, now)

	switch progress := t.DerivedProgress(); {
	case t.Status == TaskStatusCompleted:
		// stays at 100
	case progress == 100:
		if err := t.ChangeStatus(TaskStatusCompleted, actor, now); err != nil {
			return SubTask{}, err
		}
	default:
		t.Progress = progress
	}
	t.Reconcile(now)
	t.UpdatedAt = now
	return t.SubTasks[idx], nil
}

// ExtendDeadline pushes the deadline forward and records the extension.
// The first extension remembers the original deadline.
func (t *Task) ExtendDeadline(amount int, unit ExtensionUnit, reason *string, actor Actor, now time.Time) (TimeExtension, error) {
	if !t.HasDeadline || t.Deadline == nil {
		return TimeExtension{}, ErrNoDeadline
	}
	var fields []FieldError
	if amount < 1 || amount > MaxExtensionAmount {
		fields = append(fields, FieldError{Field: "extensionAmount", Message: "Extension amount must be between 1 and 8760"})
	}
	if !unit.IsValid() {
		fields = append(fields, FieldError{Field: "extensionUnit", Message: "Extension unit must be hours or days"})
	}
	if reason != nil && utf8.RuneCountInString(*reason) > MaxExtensionReasonLength {
		fields = append(fields, FieldError{Field: "reason", Message: "Reason must be at most 500 characters"})
	}
	if len(fields) > 0 {
		return TimeExtension{}, NewValidationError("Validation failed", fields...)
	}

	previous := *t.Deadline
	next := previous.Add(unit.Duration(amount))
	if !next.After(previous) {
		return TimeExtension{}, NewValidationError("Validation failed",
			FieldError{Field: "extensionAmount", Message: "Extension must move the deadline forward"})
	}
	if t.OriginalDeadline == nil {
		t.OriginalDeadline = &previous
	}

	ext := TimeExtension{
		Amount:           amount,
		Unit:             unit,
		Reason:           reason,
		RequestedBy:      actor.Ref(),
		PreviousDeadline: previous,
		NewDeadline:      next,
		RequestedAt:      now,
	}
	t.TimeExtensions = append(t.TimeExtensions, ext)
	t.Deadline = &next

	if t.Status == TaskStatusDelayed && next.After(now) {
		t.stampStatus(TaskStatusOngoing, actor.Ref(), now)
	}
	t.Reconcile(now)
	t.UpdatedAt = now
	return ext, nil
}

// Archive hides the task from default listings.
func (t *Task) Archive(actor Actor, now time.Time) {
	t.IsArchived = true
	t.ArchivedAt = &now
	t.ArchivedBy = actor.Ref()
	t.UpdatedAt = now
}

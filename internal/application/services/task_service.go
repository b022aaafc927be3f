package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/tasksync/internal/application/validation"
	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/domain/events"
	"github.com/taskmaster/tasksync/internal/infrastructure/logger"
	"github.com/taskmaster/tasksync/internal/ports"
)

const lockStripes = 64

// TaskService runs the task lifecycle for both transports. Mutations of one
// task are serialized so their events leave in commit order.
type TaskService struct {
	tasks       ports.TaskRepository
	comments    ports.CommentRepository
	files       ports.FileRepository
	storage     ports.FileStorage
	quota       *QuotaGate
	activity    *ActivityService
	broadcaster ports.Broadcaster
	validator   *validation.Validator
	logger      *logger.Logger
	now         func() time.Time

	locks [lockStripes]sync.Mutex
}

// TaskDeps groups the collaborators of TaskService.
type TaskDeps struct {
	Tasks       ports.TaskRepository
	Comments    ports.CommentRepository
	Files       ports.FileRepository
	Storage     ports.FileStorage
	Quota       *QuotaGate
	Activity    *ActivityService
	Broadcaster ports.Broadcaster
	Validator   *validation.Validator
	Logger      *logger.Logger
}

// NewTaskService creates a new task service
func NewTaskService(deps TaskDeps) *TaskService {
	return &TaskService{
		tasks:       deps.Tasks,
		comments:    deps.Comments,
		files:       deps.Files,
		storage:     deps.Storage,
		quota:       deps.Quota,
		activity:    deps.Activity,
		broadcaster: deps.Broadcaster,
		validator:   deps.Validator,
		logger:      deps.Logger.WithComponent("tasks"),
		now:         time.Now,
	}
}

func (s *TaskService) lock(id uuid.UUID) *sync.Mutex {
	return &s.locks[int(id[15])%lockStripes]
}

func (s *TaskService) publish(ctx context.Context, ev events.Event) {
	if s.broadcaster != nil {
		s.broadcaster.Publish(ctx, ev)
	}
}

func taskRef(t *entities.Task) *uuid.UUID {
	id := t.ID
	return &id
}

// mutate loads the task under its lock, authorizes, reconciles, applies fn,
// saves and publishes the event fn returns.
func (s *TaskService) mutate(ctx context.Context, id uuid.UUID, actor entities.Actor, authz authorizer, fn func(t *entities.Task, now time.Time) (events.Event, error)) (*entities.Task, error) {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz(actor, task); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	task.Reconcile(now)
	ev, err := fn(task, now)
	if err != nil {
		return nil, err
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}
	s.publish(ctx, ev)
	return task, nil
}

// Create creates a task for the actor, consuming guest quota.
func (s *TaskService) Create(ctx context.Context, actor entities.Actor, req ports.CreateTaskRequest) (*ports.TaskDetails, error) {
	if actor.IsAnonymous() {
		return nil, entities.ErrUnauthenticated
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	task := entities.NewTask(req.Text, req.Date, actor, now)
	task.Description = req.Description
	task.Category = req.Category
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.Tags != nil {
		task.Tags = entities.StringList(req.Tags)
	}
	if req.AssignedTo != nil {
		task.AssignedTo = entities.UUIDList(req.AssignedTo)
	}
	if req.Deadline != nil {
		task.SetDeadline(*req.Deadline)
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	task.Reconcile(now)

	release, err := s.quota.Reserve(ctx, actor, ports.QuotaTasks)
	if err != nil {
		return nil, err
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		release()
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.publish(ctx, events.ForTask(events.TaskAdded, task))
	s.activity.Record(ctx, actor, entities.ActionTaskCreated, entities.TargetTask, taskRef(task),
		entities.TaskCreatedDetails{Text: task.Text, Date: task.Date, Category: task.Category})
	s.logger.Infow("Task created", "task_id", task.ID, "date", task.Date, "user_id", actor.ID)

	return s.view(task, now, nil, nil), nil
}

// List returns a page of tasks with their comments and files.
func (s *TaskService) List(ctx context.Context, filter ports.TaskFilter, page, limit int) (ports.Page[*ports.TaskDetails], error) {
	if page < 1 {
		page = 1
	}
	filter.Limit = limit
	filter.Offset = (page - 1) * max(limit, 0)

	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return ports.Page[*ports.TaskDetails]{}, fmt.Errorf("failed to list tasks: %w", err)
	}
	total, err := s.tasks.Count(ctx, filter)
	if err != nil {
		return ports.Page[*ports.TaskDetails]{}, fmt.Errorf("failed to count tasks: %w", err)
	}
	details, err := s.details(ctx, tasks)
	if err != nil {
		return ports.Page[*ports.TaskDetails]{}, err
	}
	return ports.NewPage(details, total, page, limit), nil
}

// ForDate returns every non-archived task of a calendar day.
func (s *TaskService) ForDate(ctx context.Context, date string) ([]*ports.TaskDetails, error) {
	if !entities.IsCalendarDate(date) {
		return nil, entities.NewValidationError("Date must be a calendar day (YYYY-MM-DD)")
	}
	page, err := s.List(ctx, ports.TaskFilter{Date: &date, SortBy: "createdAt", SortOrder: "desc"}, 1, 0)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// DateOf returns the date scope of a task.
func (s *TaskService) DateOf(ctx context.Context, id uuid.UUID) (string, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return task.Date, nil
}

func (s *TaskService) Get(ctx context.Context, id uuid.UUID) (*ports.TaskDetails, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	details, err := s.details(ctx, []*entities.Task{task})
	if err != nil {
		return nil, err
	}
	return details[0], nil
}

func (s *TaskService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.tasks.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Overdue lists open tasks whose deadline has passed.
func (s *TaskService) Overdue(ctx context.Context) ([]*ports.TaskDetails, error) {
	tasks, err := s.tasks.PastDeadline(ctx, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue tasks: %w", err)
	}
	return s.details(ctx, tasks)
}

// details builds read models. Tasks are reconciled in the copy only.
func (s *TaskService) details(ctx context.Context, tasks []*entities.Task) ([]*ports.TaskDetails, error) {
	ids := make([]uuid.UUID, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	comments, err := s.comments.ListByTasks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}
	files, err := s.files.ListByTasks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load files: %w", err)
	}

	now := s.now().UTC()
	out := make([]*ports.TaskDetails, len(tasks))
	for i, t := range tasks {
		out[i] = s.view(t, now, comments[t.ID], files[t.ID])
	}
	return out, nil
}

func (s *TaskService) view(t *entities.Task, now time.Time, comments []*entities.Comment, files []*entities.File) *ports.TaskDetails {
	reconciled := t.Reconciled(now)
	if comments == nil {
		comments = []*entities.Comment{}
	}
	if files == nil {
		files = []*entities.File{}
	}
	return &ports.TaskDetails{
		Task:      &reconciled,
		IsOverdue: reconciled.IsOverdue(now),
		Comments:  comments,
		Files:     files,
	}
}

// Update patches task fields. Owner or admin.
func (s *TaskService) Update(ctx context.Context, actor entities.Actor, id uuid.UUID, req ports.UpdateTaskRequest) (*entities.Task, error) {
	return s.update(ctx, actor, id, req, ownerOrAdmin)
}

func (s *TaskService) update(ctx context.Context, actor entities.Actor, id uuid.UUID, req ports.UpdateTaskRequest, authz authorizer) (*entities.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	var changed []string
	task, err := s.mutate(ctx, id, actor, authz, func(t *entities.Task, now time.Time) (events.Event, error) {
		if req.Text != nil {
			t.Text = strings.TrimSpace(*req.Text)
			changed = append(changed, "text")
		}
		if req.Description != nil {
			t.Description = req.Description
			changed = append(changed, "description")
		}
		if req.Deadline != nil {
			t.SetDeadline(*req.Deadline)
			changed = append(changed, "deadline")
		}
		if req.Category != nil {
			t.Category = req.Category
			changed = append(changed, "category")
		}
		if req.Priority != nil {
			t.Priority = *req.Priority
			changed = append(changed, "priority")
		}
		if req.Tags != nil {
			t.Tags = entities.StringList(req.Tags)
			changed = append(changed, "tags")
		}
		if req.AssignedTo != nil {
			t.AssignedTo = entities.UUIDList(req.AssignedTo)
			changed = append(changed, "assignedTo")
		}
		if err := t.Validate(); err != nil {
			return events.Event{}, err
		}
		t.Reconcile(now)
		t.UpdatedAt = now
		return events.ForTask(events.TaskUpdated, t), nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actor, entities.ActionTaskUpdated, entities.TargetTask, taskRef(task),
		entities.TaskUpdatedDetails{Change: entities.ChangeFields, Fields: changed})
	return task, nil
}

// UpdateProgress sets manual progress. Owner or admin.
func (s *TaskService) UpdateProgress(ctx context.Context, actor entities.Actor, id uuid.UUID, progress int) (*entities.Task, error) {
	return s.updateProgress(ctx, actor, id, progress, ownerOrAdmin)
}

func (s *TaskService) updateProgress(ctx context.Context, actor entities.Actor, id uuid.UUID, progress int, authz authorizer) (*entities.Task, error) {
	var old int
	task, err := s.mutate(ctx, id, actor, authz, func(t *entities.Task, now time.Time) (events.Event, error) {
		old = t.Progress
		if err := t.UpdateProgress(progress, actor, now); err != nil {
			return events.Event{}, err
		}
		return events.ForProgress(t), nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actor, entities.ActionProgressUpdated, entities.TargetTask, taskRef(task),
		entities.ProgressUpdatedDetails{OldProgress: old, NewProgress: task.Progress})
	return task, nil
}

// ChangeStatus moves a task to status. Owner or admin.
func (s *TaskService) ChangeStatus(ctx context.Context, actor entities.Actor, id uuid.UUID, status entities.TaskStatus) (*entities.Task, error) {
	var old entities.TaskStatus
	task, err := s.mutate(ctx, id, actor, ownerOrAdmin, func(t *entities.Task, now time.Time) (events.Event, error) {
		old = t.Status
		if err := t.ChangeStatus(status, actor, now); err != nil {
			return events.Event{}, err
		}
		return events.ForStatus(t), nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actor, entities.ActionTaskUpdated, entities.TargetTask, taskRef(task),
		entities.TaskUpdatedDetails{Change: entities.ChangeStatus, OldStatus: old, NewStatus: task.Status})
	return task, nil
}

// AddSubTask appends a checklist item. Owner or admin.
func (s *TaskService) AddSubTask(ctx context.Context, actor entities.Actor, id uuid.UUID, text string) (*entities.Task, entities.SubTask, error) {
	return s.addSubTask(ctx, actor, id, text, ownerOrAdmin)
}

func (s *TaskService) addSubTask(ctx context.Context, actor entities.Actor, id uuid.UUID, text string, authz authorizer) (*entities.Task, entities.SubTask, error) {
	var st entities.SubTask
	task, err := s.mutate(ctx, id, actor, authz, func(t *entities.Task, now time.Time) (events.Event, error) {
		var err error
		st, err = t.AddSubTask(text, actor, now)
		if err != nil {
			return events.Event{}, err
		}
		return events.ForSubTask(events.SubTaskAdded, t, st), nil
	})
	if err != nil {
		return nil, entities.SubTask{}, err
	}

	s.activity.Record(ctx, actor, entities.ActionTaskUpdated, entities.TargetTask, taskRef(task),
		entities.TaskUpdatedDetails{Change: entities.ChangeSubTaskAdded, SubTaskID: &st.ID, Text: st.Text})
	return task, st, nil
}

// CompleteSubTask closes a checklist item. Owner or admin.
func (s *TaskService) CompleteSubTask(ctx context.Context, actor entities.Actor, id, subTaskID uuid.UUID) (*entities.Task, entities.SubTask, error) {
	return s.completeSubTask(ctx, actor, id, subTaskID, ownerOrAdmin)
}

func (s *TaskService) completeSubTask(ctx context.Context, actor entities.Actor, id, subTaskID uuid.UUID, authz authorizer) (*entities.Task, entities.SubTask, error) {
	var st entities.SubTask
	task, err := s.mutate(ctx, id, actor, authz, func(t *entities.Task, now time.Time) (events.Event, error) {
		var err error
		st, err = t.CompleteSubTask(subTaskID, actor, now)
		if err != nil {
			return events.Event{}, err
		}
		return events.ForSubTask(events.SubTaskCompleted, t, st), nil
	})
	if err != nil {
		return nil, entities.SubTask{}, err
	}

	s.activity.Record(ctx, actor, entities.ActionTaskUpdated, entities.TargetTask, taskRef(task),
		entities.TaskUpdatedDetails{Change: entities.ChangeSubTaskCompleted, SubTaskID: &st.ID, Text: st.Text})
	return task, st, nil
}

// ExtendDeadline pushes the deadline forward. Owner or admin.
func (s *TaskService) ExtendDeadline(ctx context.Context, actor entities.Actor, id uuid.UUID, req ports.ExtendDeadlineRequest) (*entities.Task, entities.TimeExtension, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, entities.TimeExtension{}, err
	}

	var ext entities.TimeExtension
	task, err := s.mutate(ctx, id, actor, ownerOrAdmin, func(t *entities.Task, now time.Time) (events.Event, error) {
		var err error
		ext, err = t.ExtendDeadline(req.Amount, req.Unit, req.Reason, actor, now)
		if err != nil {
			return events.Event{}, err
		}
		return events.ForDeadline(t, ext), nil
	})
	if err != nil {
		return nil, entities.TimeExtension{}, err
	}

	s.activity.Record(ctx, actor, entities.ActionTaskUpdated, entities.TargetTask, taskRef(task),
		entities.TaskUpdatedDetails{Change: entities.ChangeDeadlineExtended, Extension: &ext})
	return task, ext, nil
}

// Archive hides a task from default listings. Admin only.
func (s *TaskService) Archive(ctx context.Context, actor entities.Actor, id uuid.UUID) (*entities.Task, error) {
	task, err := s.mutate(ctx, id, actor, adminOnly, func(t *entities.Task, now time.Time) (events.Event, error) {
		t.Archive(actor, now)
		return events.ForTask(events.TaskUpdated, t), nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actor, entities.ActionTaskArchived, entities.TargetTask, taskRef(task), nil)
	return task, nil
}

// Delete removes a task with its comments and files. Owner or admin.
// Blobs are removed after the records; a blob that fails to go is logged.
func (s *TaskService) Delete(ctx context.Context, actor entities.Actor, id uuid.UUID) error {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := ownerOrAdmin(actor, task); err != nil {
		return err
	}

	files, err := s.files.ListByTasks(ctx, []uuid.UUID{id})
	if err != nil {
		return fmt.Errorf("failed to load files: %w", err)
	}
	comments, fileCount, err := s.tasks.DeleteCascade(ctx, id)
	if err != nil {
		return err
	}
	for _, f := range files[id] {
		if err := s.storage.Remove(ctx, f.StoredName); err != nil {
			s.logger.Warnw("Failed to remove blob of deleted task", "task_id", id, "file", f.StoredName, "error", err)
		}
	}

	s.publish(ctx, events.ForTaskDeleted(task))
	s.activity.Record(ctx, actor, entities.ActionTaskDeleted, entities.TargetTask, taskRef(task),
		entities.TaskDeletedDetails{Text: task.Text, Date: task.Date, Comments: comments, Files: fileCount})
	s.logger.Infow("Task deleted", "task_id", id, "comments", comments, "files", fileCount, "user_id", actor.ID)
	return nil
}

// SweepDeadlines persists the deadline rule for overdue tasks and publishes
// a statusChanged event for each task it moved.
func (s *TaskService) SweepDeadlines(ctx context.Context) (int, error) {
	candidates, err := s.tasks.PastDeadline(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue tasks: %w", err)
	}

	moved := 0
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return moved, err
		}
		changed, err := s.reconcileStored(ctx, c.ID)
		if err != nil {
			s.logger.Warnw("Failed to reconcile task", "task_id", c.ID, "error", err)
			continue
		}
		if changed {
			moved++
		}
	}
	return moved, nil
}

func (s *TaskService) reconcileStored(ctx context.Context, id uuid.UUID) (bool, error) {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	now := s.now().UTC()
	if !task.Reconcile(now) {
		return false, nil
	}
	task.UpdatedAt = now
	if err := s.tasks.Update(ctx, task); err != nil {
		return false, fmt.Errorf("failed to save task: %w", err)
	}
	s.publish(ctx, events.ForStatus(task))
	return true, nil
}

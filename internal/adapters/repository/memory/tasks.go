package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/ports"
)

type TaskRepository struct {
	s *Store
}

var _ ports.TaskRepository = (*TaskRepository)(nil)

func (r *TaskRepository) Create(_ context.Context, task *entities.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.tasks[task.ID] = cloneTask(task)
	return nil
}

func (r *TaskRepository) GetByID(_ context.Context, id uuid.UUID) (*entities.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	return cloneTask(t), nil
}

func (r *TaskRepository) Update(_ context.Context, task *entities.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[task.ID]; !ok {
		return entities.ErrTaskNotFound
	}
	r.s.tasks[task.ID] = cloneTask(task)
	return nil
}

func (r *TaskRepository) DeleteCascade(_ context.Context, id uuid.UUID) (int, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[id]; !ok {
		return 0, 0, entities.ErrTaskNotFound
	}

	files := 0
	for fid, f := range r.s.files {
		if f.TaskID == id {
			delete(r.s.files, fid)
			files++
		}
	}
	comments := 0
	for cid, c := range r.s.comments {
		if c.TaskID == id {
			delete(r.s.comments, cid)
			comments++
		}
	}
	delete(r.s.tasks, id)
	return comments, files, nil
}

func matchesTask(t *entities.Task, filter ports.TaskFilter) bool {
	switch {
	case !filter.IncludeArchived && t.IsArchived:
		return false
	case filter.Date != nil && t.Date != *filter.Date:
		return false
	case filter.Status != nil && t.Status != *filter.Status:
		return false
	case filter.Category != nil && (t.Category == nil || *t.Category != *filter.Category):
		return false
	case filter.Priority != nil && t.Priority != *filter.Priority:
		return false
	case filter.CreatedBy != nil && t.CreatedBy != *filter.CreatedBy:
		return false
	}
	if filter.Search != nil && *filter.Search != "" {
		q := strings.ToLower(*filter.Search)
		inText := strings.Contains(strings.ToLower(t.Text), q)
		inDesc := t.Description != nil && strings.Contains(strings.ToLower(*t.Description), q)
		if !inText && !inDesc {
			return false
		}
	}
	return true
}

// less orders a before b ascending on the named sort key.
func less(a, b *entities.Task, key string) bool {
	switch key {
	case "deadline":
		switch {
		case a.Deadline == nil:
			return false
		case b.Deadline == nil:
			return true
		default:
			return a.Deadline.Before(*b.Deadline)
		}
	case "priority":
		return a.Priority.Rank() < b.Priority.Rank()
	case "progress":
		return a.Progress < b.Progress
	case "text":
		return a.Text < b.Text
	case "date":
		return a.Date < b.Date
	default:
		return a.CreatedAt.Before(b.CreatedAt)
	}
}

func (r *TaskRepository) filter(filter ports.TaskFilter) []*entities.Task {
	var out []*entities.Task
	for _, t := range r.s.tasks {
		if matchesTask(t, filter) {
			out = append(out, cloneTask(t))
		}
	}

	key := filter.SortBy
	if _, ok := ports.TaskSortFields[key]; !ok {
		key = "createdAt"
	}
	asc := strings.EqualFold(filter.SortOrder, "asc")
	sort.SliceStable(out, func(i, j int) bool {
		if asc {
			return less(out[i], out[j], key)
		}
		return less(out[j], out[i], key)
	})
	return out
}

func (r *TaskRepository) List(_ context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return window(r.filter(filter), filter.Limit, filter.Offset), nil
}

func (r *TaskRepository) Count(_ context.Context, filter ports.TaskFilter) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.filter(filter))), nil
}

func (r *TaskRepository) Categories(_ context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, t := range r.s.tasks {
		if t.IsArchived || t.Category == nil || *t.Category == "" || seen[*t.Category] {
			continue
		}
		seen[*t.Category] = true
		out = append(out, *t.Category)
	}
	sort.Strings(out)
	return out, nil
}

func (r *TaskRepository) PastDeadline(_ context.Context, now time.Time) ([]*entities.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*entities.Task
	for _, t := range r.s.tasks {
		if !t.IsArchived && t.IsOverdue(now) {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(*out[j].Deadline) })
	return out, nil
}

func (r *TaskRepository) Stats(_ context.Context) (*ports.TaskStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var stats ports.TaskStats
	for _, t := range r.s.tasks {
		stats.Total++
		if t.IsArchived {
			stats.Archived++
		}
		if t.Status == entities.TaskStatusCompleted {
			stats.Completed++
		}
	}
	return &stats, nil
}

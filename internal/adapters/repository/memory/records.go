package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/ports"
)

type CommentRepository struct {
	s *Store
}

var _ ports.CommentRepository = (*CommentRepository)(nil)

func (r *CommentRepository) Create(_ context.Context, comment *entities.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[comment.TaskID]; !ok {
		return entities.ErrTaskNotFound
	}
	r.s.comments[comment.ID] = cloneComment(comment)
	return nil
}

func (r *CommentRepository) GetByID(_ context.Context, id uuid.UUID) (*entities.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.comments[id]
	if !ok {
		return nil, entities.ErrCommentNotFound
	}
	return cloneComment(c), nil
}

func (r *CommentRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.comments[id]; !ok {
		return entities.ErrCommentNotFound
	}
	delete(r.s.comments, id)
	for _, f := range r.s.files {
		if f.CommentID != nil && *f.CommentID == id {
			f.CommentID = nil
		}
	}
	return nil
}

func (r *CommentRepository) ListByTasks(_ context.Context, taskIDs []uuid.UUID) (map[uuid.UUID][]*entities.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	wanted := make(map[uuid.UUID]bool, len(taskIDs))
	for _, id := range taskIDs {
		wanted[id] = true
	}
	grouped := make(map[uuid.UUID][]*entities.Comment, len(taskIDs))
	for _, c := range r.s.comments {
		if wanted[c.TaskID] {
			grouped[c.TaskID] = append(grouped[c.TaskID], cloneComment(c))
		}
	}
	for _, list := range grouped {
		sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	}
	return grouped, nil
}

func (r *CommentRepository) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.comments)), nil
}

type FileRepository struct {
	s *Store
}

var _ ports.FileRepository = (*FileRepository)(nil)

func (r *FileRepository) Create(_ context.Context, file *entities.File) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[file.TaskID]; !ok {
		return entities.ErrTaskNotFound
	}
	r.s.files[file.ID] = cloneFile(file)
	return nil
}

func (r *FileRepository) GetByID(_ context.Context, id uuid.UUID) (*entities.File, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	f, ok := r.s.files[id]
	if !ok {
		return nil, entities.ErrFileNotFound
	}
	return cloneFile(f), nil
}

func (r *FileRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.files[id]; !ok {
		return entities.ErrFileNotFound
	}
	delete(r.s.files, id)
	return nil
}

func (r *FileRepository) ListByTasks(_ context.Context, taskIDs []uuid.UUID) (map[uuid.UUID][]*entities.File, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	wanted := make(map[uuid.UUID]bool, len(taskIDs))
	for _, id := range taskIDs {
		wanted[id] = true
	}
	grouped := make(map[uuid.UUID][]*entities.File, len(taskIDs))
	for _, f := range r.s.files {
		if wanted[f.TaskID] {
			grouped[f.TaskID] = append(grouped[f.TaskID], cloneFile(f))
		}
	}
	for _, list := range grouped {
		sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	}
	return grouped, nil
}

func (r *FileRepository) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.files)), nil
}

type ShareLinkRepository struct {
	s *Store
}

var _ ports.ShareLinkRepository = (*ShareLinkRepository)(nil)

func (r *ShareLinkRepository) activeFor(taskID, except uuid.UUID) *entities.ShareLink {
	for _, l := range r.s.links {
		if l.TaskID == taskID && l.IsActive && l.ID != except {
			return l
		}
	}
	return nil
}

func (r *ShareLinkRepository) Create(_ context.Context, link *entities.ShareLink) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if link.IsActive && r.activeFor(link.TaskID, link.ID) != nil {
		return &entities.DomainError{Kind: entities.KindConflict, Message: "Task already has an active share link"}
	}
	r.s.links[link.ID] = cloneLink(link)
	return nil
}

func (r *ShareLinkRepository) byToken(token string) *entities.ShareLink {
	for _, l := range r.s.links {
		if l.Token == token {
			return l
		}
	}
	return nil
}

func (r *ShareLinkRepository) GetByToken(_ context.Context, token string) (*entities.ShareLink, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l := r.byToken(token)
	if l == nil {
		return nil, entities.ErrShareLinkNotFound
	}
	return cloneLink(l), nil
}

func (r *ShareLinkRepository) GetActiveByTask(_ context.Context, taskID uuid.UUID) (*entities.ShareLink, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l := r.activeFor(taskID, uuid.Nil)
	if l == nil {
		return nil, entities.ErrShareLinkNotFound
	}
	return cloneLink(l), nil
}

func (r *ShareLinkRepository) Update(_ context.Context, link *entities.ShareLink) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.links[link.ID]
	if !ok {
		return entities.ErrShareLinkNotFound
	}
	if link.IsActive && r.activeFor(link.TaskID, link.ID) != nil {
		return &entities.DomainError{Kind: entities.KindConflict, Message: "Task already has an active share link"}
	}
	c := cloneLink(link)
	c.AccessCount = stored.AccessCount
	c.AccessLog = stored.AccessLog
	r.s.links[link.ID] = c
	return nil
}

func (r *ShareLinkRepository) RecordAccess(_ context.Context, token string, entry entities.ShareAccess, now time.Time) (*entities.ShareLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l := r.byToken(token)
	if l == nil {
		return nil, entities.ErrShareLinkNotFound
	}
	if !l.IsValid(now) {
		return nil, entities.ErrShareLinkInvalid
	}
	l.AccessCount++
	l.AccessLog = append(l.AccessLog, entry)
	l.UpdatedAt = now
	return cloneLink(l), nil
}

type ActivityLogRepository struct {
	s *Store
}

var _ ports.ActivityLogRepository = (*ActivityLogRepository)(nil)

func (r *ActivityLogRepository) Create(_ context.Context, log *entities.ActivityLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *log
	r.s.logs = append(r.s.logs, &c)
	return nil
}

func matchesActivity(l *entities.ActivityLog, filter ports.ActivityFilter) bool {
	switch {
	case filter.UserID != nil && (l.UserID == nil || *l.UserID != *filter.UserID):
		return false
	case filter.Action != nil && l.Action != *filter.Action:
		return false
	case filter.StartDate != nil && l.CreatedAt.Before(*filter.StartDate):
		return false
	case filter.EndDate != nil && l.CreatedAt.After(*filter.EndDate):
		return false
	}
	return true
}

func (r *ActivityLogRepository) filter(filter ports.ActivityFilter) []*entities.ActivityLog {
	var out []*entities.ActivityLog
	for _, l := range r.s.logs {
		if matchesActivity(l, filter) {
			c := *l
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *ActivityLogRepository) List(_ context.Context, filter ports.ActivityFilter) ([]*entities.ActivityLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return window(r.filter(filter), filter.Limit, filter.Offset), nil
}

func (r *ActivityLogRepository) Count(_ context.Context, filter ports.ActivityFilter) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.filter(filter))), nil
}

func (r *ActivityLogRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	kept := r.s.logs[:0]
	var removed int64
	for _, l := range r.s.logs {
		if l.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	r.s.logs = kept
	return removed, nil
}

type SettingsRepository struct {
	s *Store
}

var _ ports.SettingsRepository = (*SettingsRepository)(nil)

func (r *SettingsRepository) Get(_ context.Context) (*entities.AppSettings, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if r.s.settings == nil {
		return nil, nil
	}
	return cloneSettings(r.s.settings), nil
}

func (r *SettingsRepository) Save(_ context.Context, settings *entities.AppSettings) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.settings = cloneSettings(settings)
	return nil
}

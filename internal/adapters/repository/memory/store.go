// Package memory implements every repository port on in-process maps. It
// backs the test suites and the serve --memory development mode.
package memory

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/taskmaster/tasksync/internal/domain/entities"
)

// Store holds all collections behind one lock.
type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*entities.User
	tasks    map[uuid.UUID]*entities.Task
	comments map[uuid.UUID]*entities.Comment
	files    map[uuid.UUID]*entities.File
	links    map[uuid.UUID]*entities.ShareLink
	logs     []*entities.ActivityLog
	settings *entities.AppSettings
}

func NewStore() *Store {
	return &Store{
		users:    make(map[uuid.UUID]*entities.User),
		tasks:    make(map[uuid.UUID]*entities.Task),
		comments: make(map[uuid.UUID]*entities.Comment),
		files:    make(map[uuid.UUID]*entities.File),
		links:    make(map[uuid.UUID]*entities.ShareLink),
	}
}

func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }
func (s *Store) Tasks() *TaskRepository { return &TaskRepository{s: s} }
func (s *Store) Comments() *CommentRepository { return &CommentRepository{s: s} }
func (s *Store) Files() *FileRepository { return &FileRepository{s: s} }
func (s *Store) ShareLinks() *ShareLinkRepository { return &ShareLinkRepository{s: s} }
func (s *Store) ActivityLogs() *ActivityLogRepository { return &ActivityLogRepository{s: s} }
func (s *Store) Settings() *SettingsRepository { return &SettingsRepository{s: s} }

func cloneUser(u *entities.User) *entities.User {
	c := *u
	return &c
}

func cloneTask(t *entities.Task) *entities.Task {
	c := *t
	c.TimeExtensions = slices.Clone(t.TimeExtensions)
	c.Tags = slices.Clone(t.Tags)
	c.SubTasks = slices.Clone(t.SubTasks)
	c.AssignedTo = slices.Clone(t.AssignedTo)
	return &c
}

func cloneComment(cm *entities.Comment) *entities.Comment {
	c := *cm
	return &c
}

func cloneFile(f *entities.File) *entities.File {
	c := *f
	return &c
}

func cloneLink(l *entities.ShareLink) *entities.ShareLink {
	c := *l
	c.InvitedUsers = slices.Clone(l.InvitedUsers)
	c.AccessLog = slices.Clone(l.AccessLog)
	return &c
}

func cloneSettings(st *entities.AppSettings) *entities.AppSettings {
	c := *st
	c.Features.AllowedFileTypes = slices.Clone(st.Features.AllowedFileTypes)
	return &c
}

// window applies limit/offset to a sorted result.
func window[T any](items []T, limit, offset int) []T {
	if offset > len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

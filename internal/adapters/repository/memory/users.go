package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/ports"
)

type UserRepository struct {
	s *Store
}

var _ ports.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) emailTaken(email string, except uuid.UUID) bool {
	for _, u := range r.s.users {
		if u.ID != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *UserRepository) Create(_ context.Context, user *entities.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if r.emailTaken(user.Email, user.ID) {
		return entities.ErrEmailTaken
	}
	r.s.users[user.ID] = cloneUser(user)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*entities.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entities.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (r *UserRepository) Update(_ context.Context, user *entities.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[user.ID]
	if !ok {
		return entities.ErrUserNotFound
	}
	if r.emailTaken(user.Email, user.ID) {
		return entities.ErrEmailTaken
	}
	c := cloneUser(user)
	c.GuestLimits = stored.GuestLimits
	r.s.users[user.ID] = c
	return nil
}

func matchesUser(u *entities.User, filter ports.UserFilter) bool {
	if filter.Role != nil && u.Role != *filter.Role {
		return false
	}
	switch filter.Status {
	case "active":
		if !u.IsActive || u.IsSuspended {
			return false
		}
	case "suspended":
		if !u.IsSuspended {
			return false
		}
	case "inactive":
		if u.IsActive {
			return false
		}
	}
	if filter.Search != nil && *filter.Search != "" {
		q := strings.ToLower(*filter.Search)
		if !strings.Contains(strings.ToLower(u.Name), q) && !strings.Contains(strings.ToLower(u.Email), q) {
			return false
		}
	}
	return true
}

func (r *UserRepository) filter(filter ports.UserFilter) []*entities.User {
	var out []*entities.User
	for _, u := range r.s.users {
		if matchesUser(u, filter) {
			out = append(out, cloneUser(u))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *UserRepository) List(_ context.Context, filter ports.UserFilter) ([]*entities.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return window(r.filter(filter), filter.Limit, filter.Offset), nil
}

func (r *UserRepository) Count(_ context.Context, filter ports.UserFilter) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.filter(filter))), nil
}

func counter(u *entities.User, kind ports.QuotaKind) (*int, error) {
	switch kind {
	case ports.QuotaTasks:
		return &u.TasksCreated, nil
	case ports.QuotaComments:
		return &u.CommentsPosted, nil
	default:
		return nil, fmt.Errorf("unknown quota kind %q", kind)
	}
}

func (r *UserRepository) ReserveGuestQuota(_ context.Context, userID uuid.UUID, kind ports.QuotaKind, limit int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return false, entities.ErrUserNotFound
	}
	n, err := counter(u, kind)
	if err != nil {
		return false, err
	}
	if *n >= limit {
		return false, nil
	}
	*n++
	return true, nil
}

func (r *UserRepository) ReleaseGuestQuota(_ context.Context, userID uuid.UUID, kind ports.QuotaKind) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return entities.ErrUserNotFound
	}
	n, err := counter(u, kind)
	if err != nil {
		return err
	}
	if *n > 0 {
		*n--
	}
	return nil
}

func (r *UserRepository) Stats(_ context.Context) (*ports.UserStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var stats ports.UserStats
	for _, u := range r.s.users {
		stats.Total++
		if u.IsActive && !u.IsSuspended {
			stats.Active++
		}
		if u.IsGuest {
			stats.Guests++
		}
		if u.Role == entities.UserRoleAdmin {
			stats.Admins++
		}
	}
	return &stats, nil
}

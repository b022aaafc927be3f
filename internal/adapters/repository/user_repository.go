package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/infrastructure/database"
	"github.com/taskmaster/tasksync/internal/ports"
)

const userColumns = `id, name, email, password_hash, role, is_active, is_suspended, is_guest,
	guest_converted_at, guest_tasks_created, guest_comments_posted, last_login, created_at, updated_at`

// UserRepositoryImpl implements the UserRepository interface
type UserRepositoryImpl struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) ports.UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *entities.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (:id, :name, :email, :password_hash, :role, :is_active, :is_suspended, :is_guest,
			:guest_converted_at, :guest_tasks_created, :guest_comments_posted, :last_login, :created_at, :updated_at)`

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		if isUniqueViolation(err) {
			return entities.ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *UserRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user entities.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return &user, nil
}

func (r *UserRepositoryImpl) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user entities.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

// Update writes profile and account fields. Guest counters are only changed
// through the quota methods.
func (r *UserRepositoryImpl) Update(ctx context.Context, user *entities.User) error {
	query := `
		UPDATE users
		SET name = :name, email = :email, password_hash = :password_hash, role = :role,
			is_active = :is_active, is_suspended = :is_suspended, is_guest = :is_guest,
			guest_converted_at = :guest_converted_at, last_login = :last_login, updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		if isUniqueViolation(err) {
			return entities.ErrEmailTaken
		}
		return fmt.Errorf("update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrUserNotFound
	}

	return nil
}

func userWhere(filter ports.UserFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.Role != nil {
		w.add("role = $%d", *filter.Role)
	}
	switch filter.Status {
	case "active":
		w.raw("is_active AND NOT is_suspended")
	case "suspended":
		w.raw("is_suspended")
	case "inactive":
		w.raw("NOT is_active")
	}
	if filter.Search != nil && *filter.Search != "" {
		w.add("(name ILIKE $%[1]d OR email ILIKE $%[1]d)", likePattern(*filter.Search))
	}
	return w
}

func (r *UserRepositoryImpl) List(ctx context.Context, filter ports.UserFilter) ([]*entities.User, error) {
	w := userWhere(filter)
	query := fmt.Sprintf(`SELECT %s FROM users %s ORDER BY created_at DESC %s`,
		userColumns, w.clause(), w.page(filter.Limit, filter.Offset))

	var users []*entities.User
	if err := r.db.SelectContext(ctx, &users, query, w.args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

func (r *UserRepositoryImpl) Count(ctx context.Context, filter ports.UserFilter) (int64, error) {
	w := userWhere(filter)
	query := `SELECT COUNT(*) FROM users ` + w.clause()

	var count int64
	if err := r.db.GetContext(ctx, &count, query, w.args...); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}

	return count, nil
}

func quotaColumn(kind ports.QuotaKind) (string, error) {
	switch kind {
	case ports.QuotaTasks:
		return "guest_tasks_created", nil
	case ports.QuotaComments:
		return "guest_comments_posted", nil
	default:
		return "", fmt.Errorf("unknown quota kind %q", kind)
	}
}

// ReserveGuestQuota increments the counter only while it is below limit, so
// two concurrent creates by the same guest cannot both pass.
func (r *UserRepositoryImpl) ReserveGuestQuota(ctx context.Context, userID uuid.UUID, kind ports.QuotaKind, limit int) (bool, error) {
	column, err := quotaColumn(kind)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf(`
		UPDATE users SET %[1]s = %[1]s + 1, updated_at = NOW()
		WHERE id = $1 AND %[1]s < $2`, column)

	result, err := r.db.ExecContext(ctx, query, userID, limit)
	if err != nil {
		return false, fmt.Errorf("reserve guest quota: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

func (r *UserRepositoryImpl) ReleaseGuestQuota(ctx context.Context, userID uuid.UUID, kind ports.QuotaKind) error {
	column, err := quotaColumn(kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE users SET %[1]s = GREATEST(%[1]s - 1, 0) WHERE id = $1`, column)
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("release guest quota: %w", err)
	}

	return nil
}

func (r *UserRepositoryImpl) Stats(ctx context.Context) (*ports.UserStats, error) {
	query := `
		SELECT COUNT(*) AS total,
			COUNT(*) FILTER (WHERE is_active AND NOT is_suspended) AS active,
			COUNT(*) FILTER (WHERE is_guest) AS guests,
			COUNT(*) FILTER (WHERE role = 'admin') AS admins
		FROM users`

	var stats ports.UserStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}

	return &stats, nil
}

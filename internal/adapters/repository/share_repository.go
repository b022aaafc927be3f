package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/infrastructure/database"
)

const shareColumns = `id, task_id, token, created_by, permissions, invited_users, access_log,
	access_count, expires_at, max_access, is_active, created_at, updated_at`

var errActiveLinkExists = &entities.DomainError{Kind: entities.KindConflict, Message: "Task already has an active share link"}

// ShareLinkRepository stores share links
type ShareLinkRepository struct {
	db *database.DB
}

func NewShareLinkRepository(db *database.DB) *ShareLinkRepository {
	return &ShareLinkRepository{db: db}
}

func (r *ShareLinkRepository) Create(ctx context.Context, link *entities.ShareLink) error {
	query := `
		INSERT INTO share_links (` + shareColumns + `)
		VALUES (:id, :task_id, :token, :created_by, :permissions, :invited_users, :access_log,
			:access_count, :expires_at, :max_access, :is_active, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, query, link); err != nil {
		if isUniqueViolation(err) {
			return errActiveLinkExists
		}
		return fmt.Errorf("failed to create share link: %w", err)
	}
	return nil
}

func (r *ShareLinkRepository) get(ctx context.Context, where string, arg interface{}) (*entities.ShareLink, error) {
	var link entities.ShareLink
	if err := r.db.GetContext(ctx, &link, `SELECT `+shareColumns+` FROM share_links WHERE `+where, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrShareLinkNotFound
		}
		return nil, fmt.Errorf("failed to get share link: %w", err)
	}
	return &link, nil
}

func (r *ShareLinkRepository) GetByToken(ctx context.Context, token string) (*entities.ShareLink, error) {
	return r.get(ctx, "token = $1", token)
}

func (r *ShareLinkRepository) GetActiveByTask(ctx context.Context, taskID uuid.UUID) (*entities.ShareLink, error) {
	return r.get(ctx, "task_id = $1 AND is_active", taskID)
}

// Update writes the mutable settings of a link. The access log and count are
// owned by RecordAccess and left untouched.
func (r *ShareLinkRepository) Update(ctx context.Context, link *entities.ShareLink) error {
	query := `
		UPDATE share_links
		SET permissions = :permissions, invited_users = :invited_users, expires_at = :expires_at,
			max_access = :max_access, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, link)
	if err != nil {
		if isUniqueViolation(err) {
			return errActiveLinkExists
		}
		return fmt.Errorf("failed to update share link: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrShareLinkNotFound
	}
	return nil
}

// RecordAccess validates and counts a visit in one statement.
func (r *ShareLinkRepository) RecordAccess(ctx context.Context, token string, entry entities.ShareAccess, now time.Time) (*entities.ShareLink, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode access entry: %w", err)
	}

	query := `
		UPDATE share_links
		SET access_count = access_count + 1,
			access_log = access_log || jsonb_build_array($2::jsonb),
			updated_at = $3
		WHERE token = $1 AND is_active
			AND (expires_at IS NULL OR expires_at > $3)
			AND (max_access IS NULL OR access_count < max_access)
		RETURNING ` + shareColumns

	var link entities.ShareLink
	err = r.db.GetContext(ctx, &link, query, token, string(payload), now)
	if err == nil {
		return &link, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to record share access: %w", err)
	}

	if _, err := r.GetByToken(ctx, token); err != nil {
		return nil, err
	}
	return nil, entities.ErrShareLinkInvalid
}

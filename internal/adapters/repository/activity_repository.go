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
	"github.com/taskmaster/tasksync/internal/ports"
)

const activityColumns = `id, user_id, user_name, action, target_type, target_id, details, ip_address, user_agent, created_at`

// activityRow is the storage shape of an audit entry; details stay raw
// until the action tells us which variant to decode.
type activityRow struct {
	ID         uuid.UUID               `db:"id"`
	UserID     *uuid.UUID              `db:"user_id"`
	UserName   sql.NullString          `db:"user_name"`
	Action     entities.ActivityAction `db:"action"`
	TargetType entities.TargetType     `db:"target_type"`
	TargetID   *uuid.UUID              `db:"target_id"`
	Details    []byte                  `db:"details"`
	IPAddress  sql.NullString          `db:"ip_address"`
	UserAgent  sql.NullString          `db:"user_agent"`
	CreatedAt  time.Time               `db:"created_at"`
}

func (row *activityRow) toEntity() (*entities.ActivityLog, error) {
	details, err := entities.DecodeActivityDetails(row.Action, row.Details)
	if err != nil {
		return nil, err
	}
	return &entities.ActivityLog{
		ID:         row.ID,
		UserID:     row.UserID,
		UserName:   row.UserName.String,
		Action:     row.Action,
		TargetType: row.TargetType,
		TargetID:   row.TargetID,
		Details:    details,
		IPAddress:  row.IPAddress.String,
		UserAgent:  row.UserAgent.String,
		CreatedAt:  row.CreatedAt,
	}, nil
}

// ActivityLogRepository stores the audit trail
type ActivityLogRepository struct {
	db *database.DB
}

func NewActivityLogRepository(db *database.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

func (r *ActivityLogRepository) Create(ctx context.Context, log *entities.ActivityLog) error {
	var details []byte
	if log.Details != nil {
		var err error
		if details, err = json.Marshal(log.Details); err != nil {
			return fmt.Errorf("failed to encode activity details: %w", err)
		}
	}

	query := `INSERT INTO activity_logs (` + activityColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		log.ID, log.UserID, log.UserName, log.Action, log.TargetType, log.TargetID,
		details, log.IPAddress, log.UserAgent, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity log: %w", err)
	}
	return nil
}

func activityWhere(filter ports.ActivityFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.UserID != nil {
		w.add("user_id = $%d", *filter.UserID)
	}
	if filter.Action != nil {
		w.add("action = $%d", *filter.Action)
	}
	if filter.StartDate != nil {
		w.add("created_at >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		w.add("created_at <= $%d", *filter.EndDate)
	}
	return w
}

func (r *ActivityLogRepository) List(ctx context.Context, filter ports.ActivityFilter) ([]*entities.ActivityLog, error) {
	w := activityWhere(filter)
	query := fmt.Sprintf(`SELECT %s FROM activity_logs %s ORDER BY created_at DESC %s`,
		activityColumns, w.clause(), w.page(filter.Limit, filter.Offset))

	var rows []activityRow
	if err := r.db.SelectContext(ctx, &rows, query, w.args...); err != nil {
		return nil, fmt.Errorf("failed to list activity logs: %w", err)
	}

	logs := make([]*entities.ActivityLog, 0, len(rows))
	for i := range rows {
		entry, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, nil
}

func (r *ActivityLogRepository) Count(ctx context.Context, filter ports.ActivityFilter) (int64, error) {
	w := activityWhere(filter)

	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM activity_logs `+w.clause(), w.args...); err != nil {
		return 0, fmt.Errorf("failed to count activity logs: %w", err)
	}
	return count, nil
}

func (r *ActivityLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM activity_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge activity logs: %w", err)
	}
	return result.RowsAffected()
}

// SettingsRepository stores the AppSettings singleton row
type SettingsRepository struct {
	db *database.DB
}

func NewSettingsRepository(db *database.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

const settingsColumns = `id, app_title, welcome_message, hero_title, hero_tagline, theme, features, maintenance, updated_by, updated_at`

func (r *SettingsRepository) Get(ctx context.Context) (*entities.AppSettings, error) {
	var settings entities.AppSettings
	if err := r.db.GetContext(ctx, &settings, `SELECT `+settingsColumns+` FROM app_settings WHERE id = 1`); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return &settings, nil
}

func (r *SettingsRepository) Save(ctx context.Context, settings *entities.AppSettings) error {
	settings.ID = 1
	query := `
		INSERT INTO app_settings (` + settingsColumns + `)
		VALUES (:id, :app_title, :welcome_message, :hero_title, :hero_tagline, :theme, :features, :maintenance, :updated_by, :updated_at)
		ON CONFLICT (id) DO UPDATE
		SET app_title = EXCLUDED.app_title, welcome_message = EXCLUDED.welcome_message,
			hero_title = EXCLUDED.hero_title, hero_tagline = EXCLUDED.hero_tagline,
			theme = EXCLUDED.theme, features = EXCLUDED.features, maintenance = EXCLUDED.maintenance,
			updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`

	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

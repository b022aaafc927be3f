package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/infrastructure/database"
	"github.com/taskmaster/tasksync/internal/ports"
)

const taskColumns = `id, text, description, date, deadline, has_deadline, original_deadline, time_extensions,
	progress, status, category, tags, priority, sub_tasks, has_sub_tasks, created_by, created_by_name,
	assigned_to, is_archived, archived_at, archived_by, completed_at, status_changed_at, status_changed_by,
	created_at, updated_at`

// TaskRepository implements ports.TaskRepository on postgres
type TaskRepository struct {
	db *database.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *database.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create creates a new task
func (r *TaskRepository) Create(ctx context.Context, task *entities.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (:id, :text, :description, :date, :deadline, :has_deadline, :original_deadline, :time_extensions,
			:progress, :status, :category, :tags, :priority, :sub_tasks, :has_sub_tasks, :created_by, :created_by_name,
			:assigned_to, :is_archived, :archived_at, :archived_by, :completed_at, :status_changed_at, :status_changed_by,
			:created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetByID retrieves a task by ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	var task entities.Task
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return &task, nil
}

// Update writes every mutable column of the task
func (r *TaskRepository) Update(ctx context.Context, task *entities.Task) error {
	query := `
		UPDATE tasks
		SET text = :text, description = :description, deadline = :deadline, has_deadline = :has_deadline,
			original_deadline = :original_deadline, time_extensions = :time_extensions, progress = :progress,
			status = :status, category = :category, tags = :tags, priority = :priority, sub_tasks = :sub_tasks,
			has_sub_tasks = :has_sub_tasks, assigned_to = :assigned_to, is_archived = :is_archived,
			archived_at = :archived_at, archived_by = :archived_by, completed_at = :completed_at,
			status_changed_at = :status_changed_at, status_changed_by = :status_changed_by, updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, task)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrTaskNotFound
	}

	return nil
}

// DeleteCascade deletes a task together with its files and comments
func (r *TaskRepository) DeleteCascade(ctx context.Context, id uuid.UUID) (int, int, error) {
	var comments, files int64

	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM files WHERE task_id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete task files: %w", err)
		}
		if files, err = result.RowsAffected(); err != nil {
			return err
		}

		result, err = tx.ExecContext(ctx, `DELETE FROM comments WHERE task_id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete task comments: %w", err)
		}
		if comments, err = result.RowsAffected(); err != nil {
			return err
		}

		result, err = tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		deleted, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if deleted == 0 {
			return entities.ErrTaskNotFound
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	return int(comments), int(files), nil
}

func taskWhere(filter ports.TaskFilter) *whereBuilder {
	w := &whereBuilder{}
	if !filter.IncludeArchived {
		w.raw("NOT is_archived")
	}
	if filter.Date != nil {
		w.add("date = $%d", *filter.Date)
	}
	if filter.Status != nil {
		w.add("status = $%d", *filter.Status)
	}
	if filter.Category != nil {
		w.add("category = $%d", *filter.Category)
	}
	if filter.Priority != nil {
		w.add("priority = $%d", *filter.Priority)
	}
	if filter.CreatedBy != nil {
		w.add("created_by = $%d", *filter.CreatedBy)
	}
	if filter.Search != nil && *filter.Search != "" {
		w.add("(text ILIKE $%[1]d OR description ILIKE $%[1]d)", likePattern(*filter.Search))
	}
	return w
}

func taskOrder(filter ports.TaskFilter) string {
	column, ok := ports.TaskSortFields[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	if column == "priority" {
		column = "CASE priority WHEN 'low' THEN 0 WHEN 'medium' THEN 1 WHEN 'high' THEN 2 ELSE 3 END"
	}

	order := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		order = "ASC"
	}
	return fmt.Sprintf("ORDER BY %s %s NULLS LAST, id", column, order)
}

// List retrieves tasks with filtering and pagination
func (r *TaskRepository) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	w := taskWhere(filter)
	query := fmt.Sprintf(`SELECT %s FROM tasks %s %s %s`,
		taskColumns, w.clause(), taskOrder(filter), w.page(filter.Limit, filter.Offset))

	var tasks []*entities.Task
	if err := r.db.SelectContext(ctx, &tasks, query, w.args...); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepository) Count(ctx context.Context, filter ports.TaskFilter) (int64, error) {
	w := taskWhere(filter)

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM tasks `+w.clause(), w.args...); err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	return total, nil
}

func (r *TaskRepository) Categories(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT category FROM tasks
		WHERE category IS NOT NULL AND category <> '' AND NOT is_archived
		ORDER BY category`

	var categories []string
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	return categories, nil
}

func (r *TaskRepository) PastDeadline(ctx context.Context, now time.Time) ([]*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE has_deadline AND NOT is_archived AND status IN ('ongoing', 'delayed') AND deadline < $1
		ORDER BY deadline`

	var tasks []*entities.Task
	if err := r.db.SelectContext(ctx, &tasks, query, now); err != nil {
		return nil, fmt.Errorf("failed to list overdue tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepository) Stats(ctx context.Context) (*ports.TaskStats, error) {
	query := `
		SELECT COUNT(*) AS total,
			COUNT(*) FILTER (WHERE is_archived) AS archived,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed
		FROM tasks`

	var stats ports.TaskStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to get task stats: %w", err)
	}

	return &stats, nil
}

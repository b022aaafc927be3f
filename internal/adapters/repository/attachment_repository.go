package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/infrastructure/database"
)

const (
	commentColumns = `id, task_id, text, author_id, author_name, created_at`
	fileColumns    = `id, original_name, stored_name, mime_type, size, uploaded_by, uploaded_by_name,
		task_id, comment_id, is_image, created_at`
)

// CommentRepository stores task comments
type CommentRepository struct {
	db *database.DB
}

func NewCommentRepository(db *database.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, comment *entities.Comment) error {
	query := `
		INSERT INTO comments (` + commentColumns + `)
		VALUES (:id, :task_id, :text, :author_id, :author_name, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, comment); err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Comment, error) {
	var comment entities.Comment
	err := r.db.GetContext(ctx, &comment, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &comment, nil
}

func (r *CommentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrCommentNotFound
	}
	return nil
}

func (r *CommentRepository) ListByTasks(ctx context.Context, taskIDs []uuid.UUID) (map[uuid.UUID][]*entities.Comment, error) {
	grouped := make(map[uuid.UUID][]*entities.Comment, len(taskIDs))
	if len(taskIDs) == 0 {
		return grouped, nil
	}

	query := `SELECT ` + commentColumns + ` FROM comments
		WHERE task_id = ANY($1::uuid[]) ORDER BY created_at, id`

	var comments []*entities.Comment
	if err := r.db.SelectContext(ctx, &comments, query, idArray(taskIDs)); err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	for _, c := range comments {
		grouped[c.TaskID] = append(grouped[c.TaskID], c)
	}
	return grouped, nil
}

func (r *CommentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM comments`); err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}

// FileRepository stores upload metadata
type FileRepository struct {
	db *database.DB
}

func NewFileRepository(db *database.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(ctx context.Context, file *entities.File) error {
	query := `
		INSERT INTO files (` + fileColumns + `)
		VALUES (:id, :original_name, :stored_name, :mime_type, :size, :uploaded_by, :uploaded_by_name,
			:task_id, :comment_id, :is_image, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, file); err != nil {
		return fmt.Errorf("failed to create file record: %w", err)
	}
	return nil
}

func (r *FileRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.File, error) {
	var file entities.File
	err := r.db.GetContext(ctx, &file, `SELECT `+fileColumns+` FROM files WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return &file, nil
}

func (r *FileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrFileNotFound
	}
	return nil
}

func (r *FileRepository) ListByTasks(ctx context.Context, taskIDs []uuid.UUID) (map[uuid.UUID][]*entities.File, error) {
	grouped := make(map[uuid.UUID][]*entities.File, len(taskIDs))
	if len(taskIDs) == 0 {
		return grouped, nil
	}

	query := `SELECT ` + fileColumns + ` FROM files
		WHERE task_id = ANY($1::uuid[]) ORDER BY created_at DESC, id`

	var files []*entities.File
	if err := r.db.SelectContext(ctx, &files, query, idArray(taskIDs)); err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	for _, f := range files {
		grouped[f.TaskID] = append(grouped[f.TaskID], f)
	}
	return grouped, nil
}

func (r *FileRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM files`); err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return count, nil
}

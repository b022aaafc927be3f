package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/domain/events"
	"github.com/taskmaster/tasksync/internal/infrastructure/logger"
	"github.com/taskmaster/tasksync/internal/ports"
)

// sniffLen is how much of an upload is read to detect its type.
const sniffLen = 3072

// Upload describes one incoming attachment.
type Upload struct {
	TaskID    uuid.UUID
	CommentID *uuid.UUID
	Name      string
	Size      int64
	Content   io.Reader
}

// FileService manages task attachments and their blobs.
type FileService struct {
	tasks    *TaskService
	files    ports.FileRepository
	comments ports.CommentRepository
	storage  ports.FileStorage
	settings *SettingsService
	activity *ActivityService
	logger   *logger.Logger
}

func NewFileService(tasks *TaskService, files ports.FileRepository, comments ports.CommentRepository, storage ports.FileStorage, settings *SettingsService, activity *ActivityService, logger *logger.Logger) *FileService {
	return &FileService{
		tasks:    tasks,
		files:    files,
		comments: comments,
		storage:  storage,
		settings: settings,
		activity: activity,
		logger:   logger.WithComponent("files"),
	}
}

// Upload stores an attachment for any signed-in user.
func (s *FileService) Upload(ctx context.Context, actor entities.Actor, up Upload) (*entities.File, error) {
	return s.upload(ctx, actor, up, authenticated)
}

func (s *FileService) upload(ctx context.Context, actor entities.Actor, up Upload, authz authorizer) (*entities.File, error) {
	features, err := s.settings.Features(ctx)
	if err != nil {
		return nil, err
	}
	if !features.AllowFileUploads {
		return nil, entities.ErrUploadsDisabled
	}
	limit := features.MaxFileSize
	if limit <= 0 {
		limit = entities.DefaultMaxFileSize
	}
	if up.Size > limit {
		return nil, entities.ErrFileTooLarge
	}

	task, err := s.tasks.tasks.GetByID(ctx, up.TaskID)
	if err != nil {
		return nil, err
	}
	if err := authz(actor, task); err != nil {
		return nil, err
	}
	if up.CommentID != nil {
		comment, err := s.comments.GetByID(ctx, *up.CommentID)
		if err != nil {
			return nil, err
		}
		if comment.TaskID != up.TaskID {
			return nil, entities.ErrCommentTaskMismatch
		}
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(up.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]

	detected := mimetype.Detect(head)
	mimeType := ""
	for _, allowed := range features.AllowedFileTypes {
		if detected.Is(allowed) {
			mimeType = allowed
			break
		}
	}
	if mimeType == "" {
		return nil, entities.ErrFileTypeNotAllowed
	}

	ext := detected.Extension()
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(up.Name))
	}
	storedName := uuid.NewString() + ext

	content := io.LimitReader(io.MultiReader(bytes.NewReader(head), up.Content), limit+1)
	written, err := s.storage.Save(ctx, storedName, content)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	if written > limit {
		s.removeBlob(ctx, storedName)
		return nil, entities.ErrFileTooLarge
	}

	uploader := actor.Name
	if uploader == "" {
		uploader = anonymousName
	}
	file := &entities.File{
		ID:             uuid.New(),
		OriginalName:   filepath.Base(up.Name),
		StoredName:     storedName,
		MimeType:       mimeType,
		Size:           written,
		UploadedBy:     actor.Ref(),
		UploadedByName: uploader,
		TaskID:         up.TaskID,
		CommentID:      up.CommentID,
		IsImage:        strings.HasPrefix(mimeType, "image/"),
		CreatedAt:      s.tasks.now().UTC(),
	}

	mu := s.tasks.lock(up.TaskID)
	mu.Lock()
	defer mu.Unlock()

	// the task may have been deleted while the blob was written
	if task, err = s.tasks.tasks.GetByID(ctx, up.TaskID); err != nil {
		s.removeBlob(ctx, storedName)
		return nil, err
	}
	if err := s.files.Create(ctx, file); err != nil {
		s.removeBlob(ctx, storedName)
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	s.tasks.publish(ctx, events.ForFile(task, file))
	s.activity.Record(ctx, actor, entities.ActionFileUploaded, entities.TargetFile, &file.ID,
		entities.FileDetails{TaskID: file.TaskID, CommentID: file.CommentID, Filename: file.OriginalName})
	s.logger.Infow("File uploaded", "file_id", file.ID, "task_id", file.TaskID, "size", file.Size, "mimetype", file.MimeType)
	return file, nil
}

func (s *FileService) removeBlob(ctx context.Context, name string) {
	if err := s.storage.Remove(context.WithoutCancel(ctx), name); err != nil {
		s.logger.Warnw("Failed to remove blob", "file", name, "error", err)
	}
}

// Download opens the blob of a file record.
func (s *FileService) Download(ctx context.Context, id uuid.UUID) (*entities.File, io.ReadSeekCloser, error) {
	file, err := s.files.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	blob, err := s.storage.Open(ctx, file.StoredName)
	if err != nil {
		return nil, nil, err
	}
	return file, blob, nil
}

// ListForTask returns the files of a task, newest first.
func (s *FileService) ListForTask(ctx context.Context, taskID uuid.UUID) ([]*entities.File, error) {
	if _, err := s.tasks.tasks.GetByID(ctx, taskID); err != nil {
		return nil, err
	}
	files, err := s.files.ListByTasks(ctx, []uuid.UUID{taskID})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	if files[taskID] == nil {
		return []*entities.File{}, nil
	}
	return files[taskID], nil
}

// Delete removes the blob, then the record. If the blob cannot be removed
// the record is kept.
func (s *FileService) Delete(ctx context.Context, actor entities.Actor, id uuid.UUID) error {
	file, err := s.files.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := canDeleteFile(actor, file); err != nil {
		return err
	}

	mu := s.tasks.lock(file.TaskID)
	mu.Lock()
	defer mu.Unlock()

	task, err := s.tasks.tasks.GetByID(ctx, file.TaskID)
	if err != nil {
		return err
	}
	if err := s.storage.Remove(ctx, file.StoredName); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if err := s.files.Delete(ctx, id); err != nil {
		return err
	}

	s.tasks.publish(ctx, events.ForFileDeleted(task, id))
	s.activity.Record(ctx, actor, entities.ActionFileDeleted, entities.TargetFile, &id,
		entities.FileDetails{TaskID: file.TaskID, CommentID: file.CommentID, Filename: file.OriginalName})
	return nil
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/taskmaster/tasksync/internal/application/validation"
	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/domain/events"
	"github.com/taskmaster/tasksync/internal/ports"
)

const anonymousName = "Anonymous"

// CommentService adds and removes task comments. It shares the task locks so
// comment events are ordered with the other events of the task.
type CommentService struct {
	tasks     *TaskService
	comments  ports.CommentRepository
	quota     *QuotaGate
	activity  *ActivityService
	validator *validation.Validator
}

func NewCommentService(tasks *TaskService, comments ports.CommentRepository, quota *QuotaGate, activity *ActivityService, v *validation.Validator) *CommentService {
	return &CommentService{
		tasks:     tasks,
		comments:  comments,
		quota:     quota,
		activity:  activity,
		validator: v,
	}
}

// Add posts a comment as any signed-in user.
func (s *CommentService) Add(ctx context.Context, actor entities.Actor, taskID uuid.UUID, req ports.CommentRequest) (*entities.Comment, error) {
	return s.add(ctx, actor, taskID, req, authenticated)
}

func (s *CommentService) add(ctx context.Context, actor entities.Actor, taskID uuid.UUID, req ports.CommentRequest, authz authorizer) (*entities.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, entities.NewValidationError("Validation failed",
			entities.FieldError{Field: "text", Message: "Comment text is required"})
	}

	mu := s.tasks.lock(taskID)
	mu.Lock()
	defer mu.Unlock()

	task, err := s.tasks.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authz(actor, task); err != nil {
		return nil, err
	}

	release, err := s.quota.Reserve(ctx, actor, ports.QuotaComments)
	if err != nil {
		return nil, err
	}

	author := actor.Name
	if actor.IsAnonymous() {
		author = strings.TrimSpace(req.Name)
		if author == "" {
			author = anonymousName
		}
	}
	comment := &entities.Comment{
		ID:         uuid.New(),
		TaskID:     taskID,
		Text:       text,
		AuthorID:   actor.Ref(),
		AuthorName: author,
		CreatedAt:  s.tasks.now().UTC(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		release()
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.tasks.publish(ctx, events.ForComment(task, comment))
	s.activity.Record(ctx, actor, entities.ActionCommentCreated, entities.TargetComment, &comment.ID,
		entities.CommentDetails{TaskID: taskID})
	return comment, nil
}

// Delete removes a comment. Only its author or an admin may do so.
func (s *CommentService) Delete(ctx context.Context, actor entities.Actor, taskID, commentID uuid.UUID) error {
	mu := s.tasks.lock(taskID)
	mu.Lock()
	defer mu.Unlock()

	task, err := s.tasks.tasks.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.TaskID != taskID {
		return entities.ErrCommentTaskMismatch
	}
	if err := canDeleteComment(actor, comment); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return err
	}

	s.tasks.publish(ctx, events.ForCommentDeleted(task, commentID))
	s.activity.Record(ctx, actor, entities.ActionCommentDeleted, entities.TargetComment, &commentID,
		entities.CommentDetails{TaskID: taskID})
	return nil
}

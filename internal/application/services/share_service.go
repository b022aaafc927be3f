package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/tasksync/internal/application/validation"
	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/infrastructure/logger"
	"github.com/taskmaster/tasksync/internal/ports"
)

// ShareService manages share links and runs the operations they grant.
type ShareService struct {
	links     ports.ShareLinkRepository
	tasks     *TaskService
	comments  *CommentService
	files     *FileService
	activity  *ActivityService
	validator *validation.Validator
	logger    *logger.Logger
	baseURL   string
}

func NewShareService(links ports.ShareLinkRepository, tasks *TaskService, comments *CommentService, files *FileService, activity *ActivityService, v *validation.Validator, logger *logger.Logger, baseURL string) *ShareService {
	return &ShareService{
		links:     links,
		tasks:     tasks,
		comments:  comments,
		files:     files,
		activity:  activity,
		validator: v,
		logger:    logger.WithComponent("share"),
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

func (s *ShareService) view(link *entities.ShareLink) *ports.ShareLinkView {
	return &ports.ShareLinkView{
		ShareURL:     link.ShareURL(s.baseURL),
		ShareToken:   link.Token,
		Permissions:  link.Permissions,
		InvitedUsers: link.InvitedUsers,
		AccessCount:  link.AccessCount,
		ExpiresAt:    link.ExpiresAt,
		MaxAccess:    link.MaxAccess,
		CreatedAt:    link.CreatedAt,
	}
}

// ownedTask loads a task the actor may share.
func (s *ShareService) ownedTask(ctx context.Context, actor entities.Actor, taskID uuid.UUID) (*entities.Task, error) {
	task, err := s.tasks.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := ownerOrAdmin(actor, task); err != nil {
		return nil, err
	}
	return task, nil
}

// activeLink returns the active link of a task, creating one if there is none.
func (s *ShareService) activeLink(ctx context.Context, actor entities.Actor, taskID uuid.UUID) (*entities.ShareLink, bool, error) {
	link, err := s.links.GetActiveByTask(ctx, taskID)
	if err == nil {
		return link, false, nil
	}
	if entities.KindOf(err) != entities.KindNotFound {
		return nil, false, err
	}

	token, err := entities.NewShareToken()
	if err != nil {
		return nil, false, err
	}
	now := s.tasks.now().UTC()
	link = &entities.ShareLink{
		ID:           uuid.New(),
		TaskID:       taskID,
		Token:        token,
		CreatedBy:    actor.ID,
		Permissions:  entities.DefaultSharePermissions(),
		InvitedUsers: entities.InvitedUserList{},
		AccessLog:    entities.ShareAccessList{},
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.links.Create(ctx, link); err != nil {
		if entities.KindOf(err) == entities.KindConflict {
			// a concurrent request created the link first
			existing, getErr := s.links.GetActiveByTask(ctx, taskID)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create share link: %w", err)
	}
	return link, true, nil
}

// CreateOrUpdate returns the active link of a task with the requested
// settings applied. Owner or admin.
func (s *ShareService) CreateOrUpdate(ctx context.Context, actor entities.Actor, req ports.ShareLinkRequest) (*ports.ShareLinkView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	task, err := s.ownedTask(ctx, actor, req.TaskID)
	if err != nil {
		return nil, err
	}

	link, created, err := s.activeLink(ctx, actor, task.ID)
	if err != nil {
		return nil, err
	}

	now := s.tasks.now().UTC()
	if req.Permissions != nil {
		link.Permissions = *req.Permissions
	}
	if req.ExpiresIn != nil {
		expires := now.Add(time.Duration(*req.ExpiresIn) * 24 * time.Hour)
		link.ExpiresAt = &expires
	}
	if req.MaxAccess != nil {
		link.MaxAccess = req.MaxAccess
	}
	link.UpdatedAt = now
	if err := s.links.Update(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to update share link: %w", err)
	}

	if created {
		s.activity.Record(ctx, actor, entities.ActionTaskUpdated, entities.TargetTask, taskRef(task),
			entities.TaskUpdatedDetails{Change: entities.ChangeShareLinkCreated})
	}
	return s.view(link), nil
}

// Invite adds emails to the active link of a task. No mail is sent.
func (s *ShareService) Invite(ctx context.Context, actor entities.Actor, req ports.InviteRequest) (*ports.ShareLinkView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	task, err := s.ownedTask(ctx, actor, req.TaskID)
	if err != nil {
		return nil, err
	}
	link, _, err := s.activeLink(ctx, actor, task.ID)
	if err != nil {
		return nil, err
	}

	emails := make([]string, len(req.Emails))
	for i, e := range req.Emails {
		emails[i] = strings.ToLower(strings.TrimSpace(e))
	}
	now := s.tasks.now().UTC()
	link.Invite(emails, now)
	if req.Permissions != nil {
		link.Permissions = *req.Permissions
	}
	link.UpdatedAt = now
	if err := s.links.Update(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to update share link: %w", err)
	}

	s.activity.Record(ctx, actor, entities.ActionTaskUpdated, entities.TargetTask, taskRef(task),
		entities.TaskUpdatedDetails{Change: entities.ChangeUsersInvited, Emails: emails})
	return s.view(link), nil
}

// GetForTask returns the active link of a task. Owner or admin.
func (s *ShareService) GetForTask(ctx context.Context, actor entities.Actor, taskID uuid.UUID) (*ports.ShareLinkView, error) {
	if _, err := s.ownedTask(ctx, actor, taskID); err != nil {
		return nil, err
	}
	link, err := s.links.GetActiveByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return s.view(link), nil
}

// Deactivate turns a link off. Its creator, the task owner or an admin.
func (s *ShareService) Deactivate(ctx context.Context, actor entities.Actor, token string) error {
	link, err := s.links.GetByToken(ctx, token)
	if err != nil {
		return err
	}
	owner := uuid.Nil
	task, err := s.tasks.tasks.GetByID(ctx, link.TaskID)
	switch {
	case err == nil:
		owner = task.CreatedBy
	case entities.KindOf(err) != entities.KindNotFound:
		return err
	}
	if !link.IsManagedBy(actor, owner) {
		return entities.ErrForbidden
	}

	link.IsActive = false
	link.UpdatedAt = s.tasks.now().UTC()
	if err := s.links.Update(ctx, link); err != nil {
		return fmt.Errorf("failed to deactivate share link: %w", err)
	}

	s.activity.Record(ctx, actor, entities.ActionTaskUpdated, entities.TargetTask, &link.TaskID,
		entities.TaskUpdatedDetails{Change: entities.ChangeShareLinkDeactivated})
	return nil
}

// Access records a visit through the link and returns the shared task.
func (s *ShareService) Access(ctx context.Context, viewer entities.Actor, token string) (*ports.SharedTaskView, error) {
	link, err := s.links.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !link.Permissions.CanView {
		return nil, entities.ErrForbidden
	}

	now := s.tasks.now().UTC()
	guestName := viewer.Name
	if guestName == "" {
		guestName = anonymousName
	}
	link, err = s.links.RecordAccess(ctx, token, entities.ShareAccess{
		UserID:     viewer.Ref(),
		GuestName:  guestName,
		AccessedAt: now,
		IPAddress:  ports.RequestMetaFrom(ctx).IPAddress,
	}, now)
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.Get(ctx, link.TaskID)
	if err != nil {
		return nil, err
	}
	return &ports.SharedTaskView{
		Task:        task,
		Permissions: link.Permissions,
		IsOwner:     !viewer.IsAnonymous() && viewer.ID == task.CreatedBy,
	}, nil
}

// authorize checks that token is usable and grants perm. It does not count
// as an access.
func (s *ShareService) authorize(ctx context.Context, token string, perm entities.Permission) (*entities.ShareLink, error) {
	link, err := s.links.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !link.IsValid(s.tasks.now().UTC()) {
		return nil, entities.ErrShareLinkInvalid
	}
	if !link.Permissions.Allows(perm) {
		return nil, entities.ErrForbidden
	}
	return link, nil
}

func (s *ShareService) Comment(ctx context.Context, actor entities.Actor, token string, req ports.CommentRequest) (*entities.Comment, error) {
	link, err := s.authorize(ctx, token, entities.PermissionComment)
	if err != nil {
		return nil, err
	}
	return s.comments.add(ctx, actor, link.TaskID, req, anyone)
}

func (s *ShareService) UpdateProgress(ctx context.Context, actor entities.Actor, token string, progress int) (*entities.Task, error) {
	link, err := s.authorize(ctx, token, entities.PermissionUpdateProgress)
	if err != nil {
		return nil, err
	}
	return s.tasks.updateProgress(ctx, actor, link.TaskID, progress, anyone)
}

func (s *ShareService) Edit(ctx context.Context, actor entities.Actor, token string, req ports.UpdateTaskRequest) (*entities.Task, error) {
	link, err := s.authorize(ctx, token, entities.PermissionEdit)
	if err != nil {
		return nil, err
	}
	return s.tasks.update(ctx, actor, link.TaskID, req, anyone)
}

func (s *ShareService) AddSubTask(ctx context.Context, actor entities.Actor, token, text string) (*entities.Task, entities.SubTask, error) {
	link, err := s.authorize(ctx, token, entities.PermissionAddSubTasks)
	if err != nil {
		return nil, entities.SubTask{}, err
	}
	return s.tasks.addSubTask(ctx, actor, link.TaskID, text, anyone)
}

// CompleteSubTask is granted by the same flag that allows adding sub-tasks.
func (s *ShareService) CompleteSubTask(ctx context.Context, actor entities.Actor, token string, subTaskID uuid.UUID) (*entities.Task, entities.SubTask, error) {
	link, err := s.authorize(ctx, token, entities.PermissionAddSubTasks)
	if err != nil {
		return nil, entities.SubTask{}, err
	}
	return s.tasks.completeSubTask(ctx, actor, link.TaskID, subTaskID, anyone)
}

func (s *ShareService) UploadFile(ctx context.Context, actor entities.Actor, token string, up Upload) (*entities.File, error) {
	link, err := s.authorize(ctx, token, entities.PermissionUploadFiles)
	if err != nil {
		return nil, err
	}
	up.TaskID = link.TaskID
	return s.files.upload(ctx, actor, up, anyone)
}

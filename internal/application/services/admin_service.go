package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/tasksync/internal/application/validation"
	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/infrastructure/logger"
	"github.com/taskmaster/tasksync/internal/ports"
)

// AdminService backs the admin dashboard. Callers must already be admins;
// the HTTP layer enforces the role.
type AdminService struct {
	users     ports.UserRepository
	tasks     ports.TaskRepository
	comments  ports.CommentRepository
	files     ports.FileRepository
	logs      ports.ActivityLogRepository
	taskSvc   *TaskService
	settings  *SettingsService
	activity  *ActivityService
	validator *validation.Validator
	logger    *logger.Logger
	now       func() time.Time
}

// AdminDeps groups the collaborators of AdminService.
type AdminDeps struct {
	Users     ports.UserRepository
	Tasks     ports.TaskRepository
	Comments  ports.CommentRepository
	Files     ports.FileRepository
	Logs      ports.ActivityLogRepository
	TaskSvc   *TaskService
	Settings  *SettingsService
	Activity  *ActivityService
	Validator *validation.Validator
	Logger    *logger.Logger
}

func NewAdminService(deps AdminDeps) *AdminService {
	return &AdminService{
		users:     deps.Users,
		tasks:     deps.Tasks,
		comments:  deps.Comments,
		files:     deps.Files,
		logs:      deps.Logs,
		taskSvc:   deps.TaskSvc,
		settings:  deps.Settings,
		activity:  deps.Activity,
		validator: deps.Validator,
		logger:    deps.Logger.WithComponent("admin"),
		now:       time.Now,
	}
}

// ListUsers returns a page of users.
func (s *AdminService) ListUsers(ctx context.Context, filter ports.UserFilter, page, limit int) (ports.Page[*entities.User], error) {
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	users, err := s.users.List(ctx, filter)
	if err != nil {
		return ports.Page[*entities.User]{}, fmt.Errorf("failed to list users: %w", err)
	}
	total, err := s.users.Count(ctx, filter)
	if err != nil {
		return ports.Page[*entities.User]{}, fmt.Errorf("failed to count users: %w", err)
	}
	return ports.NewPage(users, total, page, limit), nil
}

// target loads a user other than the acting admin.
func (s *AdminService) target(ctx context.Context, actor entities.Actor, id uuid.UUID) (*entities.User, error) {
	if id == actor.ID {
		return nil, entities.ErrSelfModification
	}
	return s.users.GetByID(ctx, id)
}

func (s *AdminService) ChangeRole(ctx context.Context, actor entities.Actor, id uuid.UUID, req ports.ChangeRoleRequest) (*entities.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	user, err := s.target(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	old := user.Role
	user.Role = req.Role
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Infow("User role changed", "user_id", id, "old_role", old, "new_role", req.Role, "by", actor.ID)
	s.activity.Record(ctx, actor, entities.ActionRoleChanged, entities.TargetUser, &user.ID,
		entities.RoleChangedDetails{OldRole: old, NewRole: req.Role})
	return user, nil
}

func (s *AdminService) Suspend(ctx context.Context, actor entities.Actor, id uuid.UUID) (*entities.User, error) {
	user, err := s.target(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.setSuspended(ctx, actor, user, true)
}

func (s *AdminService) Activate(ctx context.Context, actor entities.Actor, id uuid.UUID) (*entities.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.setSuspended(ctx, actor, user, false)
}

func (s *AdminService) setSuspended(ctx context.Context, actor entities.Actor, user *entities.User, suspended bool) (*entities.User, error) {
	user.IsSuspended = suspended
	if !suspended {
		user.IsActive = true
	}
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	action := entities.ActionUserActivated
	if suspended {
		action = entities.ActionUserSuspended
	}
	s.logger.LogSecurityEvent(string(action), user.ID.String(), ports.RequestMetaFrom(ctx).IPAddress,
		map[string]interface{}{"by": actor.ID.String()})
	s.activity.Record(ctx, actor, action, entities.TargetUser, &user.ID, nil)
	return user, nil
}

// ListTasks lists every task, archived ones included on request.
func (s *AdminService) ListTasks(ctx context.Context, filter ports.TaskFilter, page, limit int) (ports.Page[*ports.TaskDetails], error) {
	return s.taskSvc.List(ctx, filter, page, limit)
}

func (s *AdminService) ArchiveTask(ctx context.Context, actor entities.Actor, id uuid.UUID) (*entities.Task, error) {
	return s.taskSvc.Archive(ctx, actor, id)
}

func (s *AdminService) ListActivity(ctx context.Context, filter ports.ActivityFilter, page, limit int) (ports.Page[*entities.ActivityLog], error) {
	return s.activity.List(ctx, filter, page, limit)
}

func (s *AdminService) GetSettings(ctx context.Context) (*entities.AppSettings, error) {
	return s.settings.Get(ctx)
}

// UpdateSettings applies the sections present in req.
func (s *AdminService) UpdateSettings(ctx context.Context, actor entities.Actor, req ports.UpdateSettingsRequest) (*entities.AppSettings, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	var sections []string
	if req.AppTitle != nil {
		settings.AppTitle = *req.AppTitle
		sections = append(sections, "appTitle")
	}
	if req.WelcomeMessage != nil {
		settings.WelcomeMessage = *req.WelcomeMessage
		sections = append(sections, "welcomeMessage")
	}
	if req.HeroTitle != nil {
		settings.HeroTitle = *req.HeroTitle
		sections = append(sections, "heroTitle")
	}
	if req.HeroTagline != nil {
		settings.HeroTagline = *req.HeroTagline
		sections = append(sections, "heroTagline")
	}
	if req.Theme != nil {
		settings.Theme = *req.Theme
		sections = append(sections, "theme")
	}
	if req.Features != nil {
		f := *req.Features
		if f.MaxFileSize <= 0 || f.GuestTaskLimit < 0 || f.GuestCommentLimit < 0 {
			return nil, entities.NewValidationError("Validation failed",
				entities.FieldError{Field: "features", Message: "Limits must not be negative and maxFileSize must be positive"})
		}
		settings.Features = f
		sections = append(sections, "features")
	}
	if req.Maintenance != nil {
		settings.Maintenance = *req.Maintenance
		sections = append(sections, "maintenance")
	}

	settings.UpdatedBy = actor.Ref()
	settings.UpdatedAt = s.now().UTC()
	if err := s.settings.Save(ctx, settings); err != nil {
		return nil, err
	}

	s.logger.Infow("Settings updated", "sections", sections, "by", actor.ID)
	s.activity.Record(ctx, actor, entities.ActionSettingsUpdated, entities.TargetAppSettings, nil,
		entities.SettingsUpdatedDetails{Sections: sections})
	return settings, nil
}

// Stats summarizes the dashboard counters.
func (s *AdminService) Stats(ctx context.Context) (*ports.DashboardStats, error) {
	users, err := s.users.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load user stats: %w", err)
	}
	tasks, err := s.tasks.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load task stats: %w", err)
	}
	comments, err := s.comments.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}
	files, err := s.files.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count files: %w", err)
	}
	since := s.now().UTC().Add(-24 * time.Hour)
	recent, err := s.logs.Count(ctx, ports.ActivityFilter{StartDate: &since})
	if err != nil {
		return nil, fmt.Errorf("failed to count activity: %w", err)
	}

	stats := &ports.DashboardStats{Users: *users, Tasks: *tasks}
	stats.Content.Comments = comments
	stats.Content.Files = files
	stats.Activity.Last24Hours = recent
	return stats, nil
}

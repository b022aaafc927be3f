package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/infrastructure/logger"
	"github.com/taskmaster/tasksync/internal/ports"
)

// ActivityService writes and reads the audit trail.
type ActivityService struct {
	repo     ports.ActivityLogRepository
	settings *SettingsService
	logger   *logger.Logger
	now      func() time.Time
}

func NewActivityService(repo ports.ActivityLogRepository, settings *SettingsService, logger *logger.Logger) *ActivityService {
	return &ActivityService{
		repo:     repo,
		settings: settings,
		logger:   logger.WithComponent("activity"),
		now:      time.Now,
	}
}

// Record appends an audit entry. Failures are logged and never surface to
// the caller, and nothing is written while activity logs are disabled.
func (s *ActivityService) Record(ctx context.Context, actor entities.Actor, action entities.ActivityAction, target entities.TargetType, targetID *uuid.UUID, details entities.ActivityDetails) {
	features, err := s.settings.Features(ctx)
	if err != nil {
		s.logger.Warnw("Failed to read settings for activity log", "action", action, "error", err)
		return
	}
	if !features.EnableActivityLogs {
		return
	}

	entry, err := entities.NewActivityLog(actor, action, target, targetID, details, s.now().UTC())
	if err != nil {
		s.logger.Errorw("Rejected activity entry", "action", action, "error", err)
		return
	}
	meta := ports.RequestMetaFrom(ctx)
	entry.IPAddress = meta.IPAddress
	entry.UserAgent = meta.UserAgent

	if err := s.repo.Create(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.WithError(err).Warnw("Failed to record activity", "action", action)
		return
	}
	s.logger.LogUserAction(actor.ID.String(), string(action), map[string]interface{}{
		"target_type": target,
		"ip":          meta.IPAddress,
	})
}

// List returns a page of entries, newest first.
func (s *ActivityService) List(ctx context.Context, filter ports.ActivityFilter, page, limit int) (ports.Page[*entities.ActivityLog], error) {
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		return ports.Page[*entities.ActivityLog]{}, fmt.Errorf("failed to list activity logs: %w", err)
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return ports.Page[*entities.ActivityLog]{}, fmt.Errorf("failed to count activity logs: %w", err)
	}
	return ports.NewPage(logs, total, page, limit), nil
}

// Purge deletes entries older than retention.
func (s *ActivityService) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-retention)
	removed, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge activity logs: %w", err)
	}
	if removed > 0 {
		s.logger.Infow("Purged activity logs", "removed", removed, "cutoff", cutoff)
	}
	return removed, nil
}

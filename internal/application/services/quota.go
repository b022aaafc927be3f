package services

import (
	"context"
	"fmt"

	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/infrastructure/logger"
	"github.com/taskmaster/tasksync/internal/infrastructure/metrics"
	"github.com/taskmaster/tasksync/internal/ports"
)

// QuotaGate reserves guest creation allowances before a create runs.
type QuotaGate struct {
	users    ports.UserRepository
	settings *SettingsService
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

func NewQuotaGate(users ports.UserRepository, settings *SettingsService, m *metrics.Metrics, log *logger.Logger) *QuotaGate {
	return &QuotaGate{users: users, settings: settings, metrics: m, logger: log.WithComponent("quota")}
}

// Reserve consumes one unit of kind for a guest actor. The returned release
// func gives the unit back and must be called if the creation then fails.
// Non-guest and anonymous actors are never limited.
func (g *QuotaGate) Reserve(ctx context.Context, actor entities.Actor, kind ports.QuotaKind) (func(), error) {
	noop := func() {}
	if !actor.IsGuest || actor.IsAnonymous() {
		return noop, nil
	}

	features, err := g.settings.Features(ctx)
	if err != nil {
		return noop, err
	}
	limit := features.GuestTaskLimit
	quotaErr := entities.ErrGuestTaskQuota
	if kind == ports.QuotaComments {
		limit = features.GuestCommentLimit
		quotaErr = entities.ErrGuestCommentQuota
	}

	ok, err := g.users.ReserveGuestQuota(ctx, actor.ID, kind, limit)
	if err != nil {
		return noop, fmt.Errorf("failed to reserve guest quota: %w", err)
	}
	if !ok {
		g.metrics.QuotaRejected(string(kind))
		return noop, quotaErr
	}

	return func() {
		if err := g.users.ReleaseGuestQuota(context.WithoutCancel(ctx), actor.ID, kind); err != nil {
			// the guest keeps paying for a create that never happened
			g.logger.WithUserID(actor.ID.String()).WithError(err).Errorw("Failed to release guest quota", "kind", kind)
		}
	}, nil
}

// Package notify exposes an owner's notifications. Notifications are created by the
// recurring scheduler and the budget evaluator; delivery is handled elsewhere.
package notify

import (
	"context"
	"log/slog"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// DefaultLimit caps List when no limit is given.
const DefaultLimit = 50

// Service lists and marks notifications.
type Service struct {
	store service.Store
}

// New creates a notification service.
func New(store service.Store) *Service {
	return &Service{store: store}
}

// List returns owner's notifications, newest first.
func (s *Service) List(ctx context.Context, ownerID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, common.Validationf("limit cannot be negative")
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	return s.store.ListNotifications(ctx, ownerID, unreadOnly, limit)
}

// MarkRead marks one notification as read.
func (s *Service) MarkRead(ctx context.Context, ownerID string, id int64) error {
	if err := common.RequireOwner(ownerID); err != nil {
		return err
	}
	return s.store.MarkNotificationRead(ctx, ownerID, id)
}

// MarkAllRead marks every unread notification of owner as read and returns how
// many changed.
func (s *Service) MarkAllRead(ctx context.Context, ownerID string) (int, error) {
	if err := common.RequireOwner(ownerID); err != nil {
		return 0, err
	}

	n, err := s.store.MarkAllNotificationsRead(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	slog.Debug("Marked notifications read", "owner", ownerID, "count", n)
	return n, nil
}

package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// InsertNotification stores a notification for its owner.
func (q *queries) InsertNotification(ctx context.Context, notification *model.Notification) error {
	if err := validateNotNil(ctx, notification, "notification"); err != nil {
		return err
	}
	if err := common.RequireOwner(notification.OwnerID); err != nil {
		return err
	}

	now := time.Now().UTC()
	res, err := q.q.ExecContext(ctx, `
		INSERT INTO notifications (owner_id, title, message, type, action_url, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		notification.OwnerID, notification.Title, notification.Message, notification.Type,
		notification.ActionURL, notification.IsRead, now)
	if err != nil {
		return dbError("insert notification", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return dbError("get notification id", err)
	}

	notification.ID = id
	notification.CreatedAt = now

	slog.Debug("created notification", "id", id, "owner", notification.OwnerID, "type", notification.Type)
	return nil
}

// ListNotifications returns an owner's notifications, newest first.
func (q *queries) ListNotifications(ctx context.Context, ownerID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	if err := validateOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	query := `SELECT id, owner_id, title, message, type, action_url, is_read, created_at
		FROM notifications WHERE owner_id = ?`
	args := []any{ownerID}
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("query notifications", err)
	}
	defer func() { _ = rows.Close() }()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Message, &n.Type,
			&n.ActionURL, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, dbError("scan notification", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterate notifications", err)
	}
	return notifications, nil
}

// MarkNotificationRead marks one of an owner's notifications as read.
func (q *queries) MarkNotificationRead(ctx context.Context, ownerID string, id int64) error {
	if err := validateOwner(ctx, ownerID); err != nil {
		return err
	}

	res, err := q.q.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return dbError("mark notification read", err)
	}
	return expectOne("mark notification read", res, common.NotFoundf("notification %d", id))
}

// MarkAllNotificationsRead marks every unread notification of an owner as read and
// returns how many changed.
func (q *queries) MarkAllNotificationsRead(ctx context.Context, ownerID string) (int, error) {
	if err := validateOwner(ctx, ownerID); err != nil {
		return 0, err
	}

	res, err := q.q.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE owner_id = ? AND is_read = 0`, ownerID)
	if err != nil {
		return 0, dbError("mark notifications read", err)
	}
	n, err := rowsAffected("mark notifications read", res)
	return int(n), err
}

// InsertBudgetAlert records an alert for a budget window. It returns false, with no
// error, when the same (budget, kind, window) alert already exists.
func (q *queries) InsertBudgetAlert(ctx context.Context, alert *model.BudgetAlert) (bool, error) {
	if err := validateNotNil(ctx, alert, "budget alert"); err != nil {
		return false, err
	}
	if err := common.RequireOwner(alert.OwnerID); err != nil {
		return false, err
	}

	now := time.Now().UTC()
	var notificationID any
	if alert.NotificationID != 0 {
		notificationID = alert.NotificationID
	}

	res, err := q.q.ExecContext(ctx, `
		INSERT OR IGNORE INTO budget_alerts (owner_id, budget_id, kind, window_start, notification_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		alert.OwnerID, alert.BudgetID, alert.Kind, model.Day(alert.WindowStart), notificationID, now)
	if err != nil {
		return false, dbError("insert budget alert", err)
	}

	n, err := rowsAffected("insert budget alert", res)
	if err != nil {
		return false, err
	}
	if n == 0 {
		slog.Debug("budget alert already raised", "key", alert.Key())
		return false, nil
	}

	alert.CreatedAt = now
	return true, nil
}

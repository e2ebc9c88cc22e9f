package sqlite

import (
	"context"
	"fmt"
	"time"

	"teamtask/entity"
)

const notificationColumns = `id, user_id, type, title, message, notifiable_type, notifiable_id, read, created_at, updated_at`

func (s *Store) CreateNotification(ctx context.Context, n *entity.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	n.UpdatedAt = n.CreatedAt

	res, err := s.q.ExecContext(ctx, `
		INSERT INTO notifications (
			user_id, type, title, message, notifiable_type, notifiable_id, read, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.UserID, string(n.Type), n.Title, n.Message, n.NotifiableType, n.NotifiableID,
		n.Read, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting notification for user %d: %w", n.UserID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading notification id: %w", err)
	}
	n.ID = id
	return nil
}

// ListNotifications returns one page of a user's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID int64, limit, offset int) ([]entity.Notification, int, error) {
	var total int
	if err := s.q.GetContext(ctx, &total, "SELECT COUNT(*) FROM notifications WHERE user_id = ?", userID); err != nil {
		return nil, 0, fmt.Errorf("counting notifications: %w", err)
	}

	notifications := []entity.Notification{}
	err := s.q.SelectContext(ctx, &notifications, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("querying notifications: %w", err)
	}
	return notifications, total, nil
}

func (s *Store) ListUnreadNotifications(ctx context.Context, userID int64, limit int) ([]entity.Notification, error) {
	notifications := []entity.Notification{}
	err := s.q.SelectContext(ctx, &notifications, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = ? AND read = 0
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying unread notifications: %w", err)
	}
	return notifications, nil
}

func (s *Store) CountUnreadNotifications(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.q.GetContext(ctx, &n, "SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = 0", userID)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return n, nil
}

// MarkNotificationRead reports whether userID owns a notification with id.
func (s *Store) MarkNotificationRead(ctx context.Context, id, userID int64) (bool, error) {
	res, err := s.q.ExecContext(ctx,
		"UPDATE notifications SET read = 1, updated_at = ? WHERE id = ? AND user_id = ?",
		time.Now().UTC(), id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("marking notification %d as read: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}
	return n > 0, nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error) {
	res, err := s.q.ExecContext(ctx,
		"UPDATE notifications SET read = 1, updated_at = ? WHERE user_id = ? AND read = 0",
		time.Now().UTC(), userID,
	)
	if err != nil {
		return 0, fmt.Errorf("marking notifications of user %d as read: %w", userID, err)
	}
	return res.RowsAffected()
}

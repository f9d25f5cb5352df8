package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/casaflow/casaflow/internal/common"
	"github.com/casaflow/casaflow/internal/model"
)

// CreateNotification inserts a notification addressed to one team member.
func (s *SQLiteStorage) CreateNotification(ctx context.Context, notification *model.Notification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := notification.Validate(); err != nil {
		return err
	}

	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (team_id, user_id, title, body, type, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		notification.TeamID, notification.UserID, notification.Title,
		notification.Body, string(notification.Type), notification.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get notification ID: %w", err)
	}

	notification.ID = id
	return nil
}

// ListNotifications returns a member's notifications, newest first.
func (s *SQLiteStorage) ListNotifications(ctx context.Context, teamID, userID string, unreadOnly bool) ([]model.Notification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateTeamID(teamID); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, team_id, user_id, title, body, type, is_read, created_at
		FROM notifications
		WHERE team_id = ? AND user_id = ?`
	if unreadOnly {
		query += " AND is_read = 0"
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, teamID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		var typ string
		if err := rows.Scan(&n.ID, &n.TeamID, &n.UserID, &n.Title, &n.Body,
			&typ, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Type = model.NotificationType(typ)
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead marks one notification as read, scoped to the team.
func (s *SQLiteStorage) MarkNotificationRead(ctx context.Context, teamID string, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTeamID(teamID); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = 1
		WHERE id = ? AND team_id = ?`, id, teamID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// HasRecentAlert reports whether the team received an alert whose title
// contains titleSubstring since the given time. Used to de-duplicate
// budget-threshold alerts.
func (s *SQLiteStorage) HasRecentAlert(ctx context.Context, teamID, titleSubstring string, since time.Time) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateTeamID(teamID); err != nil {
		return false, err
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE team_id = ? AND type = ? AND title LIKE ? AND created_at >= ?
		)`,
		teamID, string(model.NotificationAlert), "%"+titleSubstring+"%", since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check recent alerts: %w", err)
	}
	return exists, nil
}

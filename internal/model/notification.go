package model

import (
	"fmt"
	"strings"
	"time"
)

// NotificationType distinguishes informational notices from alerts.
type NotificationType string

// Notification type constants.
const (
	NotificationInfo  NotificationType = "info"
	NotificationAlert NotificationType = "alert"
)

// Valid reports whether n is a known notification type.
func (n NotificationType) Valid() bool {
	switch n {
	case NotificationInfo, NotificationAlert:
		return true
	}
	return false
}

// Notification is a message delivered to one team member. Team-wide
// broadcasts are fanned out to every active member at creation time, so a
// persisted notification always names its recipient.
type Notification struct {
	CreatedAt time.Time
	TeamID    string
	UserID    string
	Title     string
	Body      string
	Type      NotificationType
	ID        int64
	Read      bool
}

// Validate checks that the notification carries everything required to persist it.
func (n *Notification) Validate() error {
	if n.TeamID == "" {
		return fmt.Errorf("%w: missing team ID", ErrInvalidNotification)
	}
	if n.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidNotification)
	}
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidNotification)
	}
	if !n.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidNotification, n.Type)
	}
	return nil
}

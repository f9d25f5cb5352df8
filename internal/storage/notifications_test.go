package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casaflow/casaflow/internal/common"
	"github.com/casaflow/casaflow/internal/model"
)

func seedNotification(t *testing.T, store *SQLiteStorage, teamID, userID, title string, typ model.NotificationType, createdAt time.Time) *model.Notification {
	t.Helper()
	notification := &model.Notification{
		TeamID:    teamID,
		UserID:    userID,
		Title:     title,
		Body:      "body",
		Type:      typ,
		CreatedAt: createdAt,
	}
	require.NoError(t, store.CreateNotification(context.Background(), notification))
	return notification
}

func TestListNotificationsNewestFirst(t *testing.T) {
	store, teamID := newTestStorage(t)
	ctx := context.Background()

	base := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
	seedNotification(t, store, teamID, "alice", "older", model.NotificationInfo, base)
	seedNotification(t, store, teamID, "alice", "newer", model.NotificationInfo, base.Add(time.Hour))
	seedNotification(t, store, teamID, "bob", "not mine", model.NotificationInfo, base)

	notifications, err := store.ListNotifications(ctx, teamID, "alice", false)
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	assert.Equal(t, "newer", notifications[0].Title)
	assert.Equal(t, "older", notifications[1].Title)
}

func TestListNotificationsUnreadOnly(t *testing.T) {
	store, teamID := newTestStorage(t)
	ctx := context.Background()

	now := time.Now().UTC()
	read := seedNotification(t, store, teamID, "alice", "seen", model.NotificationInfo, now)
	seedNotification(t, store, teamID, "alice", "fresh", model.NotificationAlert, now)

	require.NoError(t, store.MarkNotificationRead(ctx, teamID, read.ID))

	unread, err := store.ListNotifications(ctx, teamID, "alice", true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "fresh", unread[0].Title)
}

func TestMarkNotificationReadScoped(t *testing.T) {
	store, teamID := newTestStorage(t)
	otherTeam := seedSecondTeam(t, store)
	ctx := context.Background()

	notification := seedNotification(t, store, teamID, "alice", "mine", model.NotificationInfo, time.Now().UTC())

	err := store.MarkNotificationRead(ctx, otherTeam, notification.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, store.MarkNotificationRead(ctx, teamID, notification.ID))
}

func TestHasRecentAlert(t *testing.T) {
	store, teamID := newTestStorage(t)
	ctx := context.Background()

	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	seedNotification(t, store, teamID, "alice", "Budget exceeded: Groceries", model.NotificationAlert, now.Add(-time.Hour))
	seedNotification(t, store, teamID, "alice", "Budget warning: Dining", model.NotificationAlert, now.Add(-48*time.Hour))
	seedNotification(t, store, teamID, "alice", "Groceries chatter", model.NotificationInfo, now.Add(-time.Hour))

	since := now.Add(-24 * time.Hour)

	// Matches on a title substring within the window.
	seen, err := store.HasRecentAlert(ctx, teamID, "Groceries", since)
	require.NoError(t, err)
	assert.True(t, seen)

	// The Dining alert is outside the window.
	seen, err = store.HasRecentAlert(ctx, teamID, "Dining", since)
	require.NoError(t, err)
	assert.False(t, seen)

	// Info notices never count as alerts.
	seen, err = store.HasRecentAlert(ctx, teamID, "chatter", since)
	require.NoError(t, err)
	assert.False(t, seen)
}

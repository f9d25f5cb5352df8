package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casaflow/casaflow/internal/analytics"
	"github.com/casaflow/casaflow/internal/model"
	"github.com/casaflow/casaflow/internal/testutil"
)

var fixedNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func setupDispatcher(t *testing.T) (*Dispatcher, *testutil.TestDB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	clock := func() time.Time { return fixedNow }
	analyzer := analytics.NewAnalyzer(db.Storage).WithClock(clock)
	dispatcher := NewDispatcher(db.Storage, analyzer).WithClock(clock)
	return dispatcher, db
}

func day(dayOfMonth int) time.Time {
	return time.Date(2026, time.March, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

// seedBaseline inserts count transactions of the given amount inside the
// anomaly window.
func seedBaseline(db *testutil.TestDB, count int, amount float64) {
	for i := 0; i < count; i++ {
		db.SeedTransaction("baseline", amount, day(1+i), nil)
	}
}

func userNotifications(t *testing.T, db *testutil.TestDB, userID string) []model.Notification {
	t.Helper()
	notifications, err := db.Storage.ListNotifications(context.Background(), db.Team.ID, userID, false)
	require.NoError(t, err)
	return notifications
}

func titlesOf(notifications []model.Notification) []string {
	titles := make([]string, 0, len(notifications))
	for _, n := range notifications {
		titles = append(titles, n.Title)
	}
	return titles
}

func TestAnomalyAlert(t *testing.T) {
	dispatcher, db := setupDispatcher(t)
	seedBaseline(db, 6, 50)

	txn := db.SeedTransaction("new television", 200, day(14), nil)
	dispatcher.TransactionWritten(context.Background(), *txn)

	notifications := userNotifications(t, db, db.UserID)
	require.Len(t, notifications, 1)
	assert.Equal(t, "Unusual expense detected", notifications[0].Title)
	assert.Equal(t, model.NotificationAlert, notifications[0].Type)
	assert.False(t, notifications[0].Read)
}

func TestAnomalyExcludesTriggeringTransaction(t *testing.T) {
	dispatcher, db := setupDispatcher(t)
	seedBaseline(db, 6, 50)

	// Saved before the check runs; its own amount must not raise the mean
	// it is compared against.
	txn := db.SeedTransaction("new television", 200, day(14), nil)
	dispatcher.TransactionWritten(context.Background(), *txn)

	notifications := userNotifications(t, db, db.UserID)
	assert.Contains(t, titlesOf(notifications), "Unusual expense detected")
}

func TestAnomalyRequiresEnoughHistory(t *testing.T) {
	dispatcher, db := setupDispatcher(t)
	seedBaseline(db, 5, 50)

	txn := db.SeedTransaction("new television", 500, day(14), nil)
	dispatcher.TransactionWritten(context.Background(), *txn)

	assert.Empty(t, userNotifications(t, db, db.UserID))
}

func TestAnomalyFloor(t *testing.T) {
	dispatcher, db := setupDispatcher(t)
	seedBaseline(db, 6, 10)

	// 90 is nine times the mean but under the absolute floor.
	txn := db.SeedTransaction("board game", 90, day(14), nil)
	dispatcher.TransactionWritten(context.Background(), *txn)

	assert.Empty(t, userNotifications(t, db, db.UserID))
}

func TestAnomalyBelowFactor(t *testing.T) {
	dispatcher, db := setupDispatcher(t)
	seedBaseline(db, 6, 50)

	// 149 is above the floor but below three times the mean of 50.
	txn := db.SeedTransaction("groceries", 149, day(14), nil)
	dispatcher.TransactionWritten(context.Background(), *txn)

	assert.Empty(t, userNotifications(t, db, db.UserID))
}

func TestHighValueAlert(t *testing.T) {
	dispatcher, db := setupDispatcher(t)

	txn := db.SeedTransaction("new laptop", 1500, day(14), nil)
	dispatcher.TransactionWritten(context.Background(), *txn)

	notifications := userNotifications(t, db, db.UserID)
	require.Len(t, notifications, 1)
	assert.Equal(t, "High-value expense", notifications[0].Title)
}

func TestHighValueBoundary(t *testing.T) {
	dispatcher, db := setupDispatcher(t)

	// Exactly at the floor does not alert; the threshold is strict.
	txn := db.SeedTransaction("rent", 1000, day(14), nil)
	dispatcher.TransactionWritten(context.Background(), *txn)

	assert.Empty(t, userNotifications(t, db, db.UserID))
}

func TestAutoCategorizedNotice(t *testing.T) {
	dispatcher, db := setupDispatcher(t)
	category := db.SeedCategory("Streaming")
	other := db.SeedMember()

	txn := db.SeedTransaction("netflix", 15.99, day(14), &category.ID)
	txn.AISuggested = true
	dispatcher.TransactionWritten(context.Background(), *txn)

	// Only the recording user is told about the categorization.
	mine := userNotifications(t, db, db.UserID)
	require.Len(t, mine, 1)
	assert.Equal(t, "Transaction auto-categorized", mine[0].Title)
	assert.Equal(t, model.NotificationInfo, mine[0].Type)
	assert.Contains(t, mine[0].Body, "Streaming")

	assert.Empty(t, userNotifications(t, db, other))
}

func TestBudgetAlertBroadcastAndDedup(t *testing.T) {
	dispatcher, db := setupDispatcher(t)
	category := db.SeedCategory("Groceries")
	other := db.SeedMember()

	require.NoError(t, db.Storage.CreateBudget(context.Background(), &model.Budget{
		TeamID:     db.Team.ID,
		CategoryID: category.ID,
		Amount:     100,
		Period:     model.PeriodMonthly,
		StartDate:  day(1),
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
	}))
	db.SeedTransaction("big shop", 150, day(10), &category.ID)

	dispatcher.CheckBudgets(context.Background(), db.Team.ID)

	mine := userNotifications(t, db, db.UserID)
	require.Len(t, mine, 1)
	assert.Equal(t, "Budget exceeded: Groceries", mine[0].Title)

	theirs := userNotifications(t, db, other)
	require.Len(t, theirs, 1)
	assert.Equal(t, "Budget exceeded: Groceries", theirs[0].Title)

	// A second pass inside the dedup window stays quiet.
	dispatcher.CheckBudgets(context.Background(), db.Team.ID)
	assert.Len(t, userNotifications(t, db, db.UserID), 1)
	assert.Len(t, userNotifications(t, db, other), 1)
}

func TestBudgetWarningAlert(t *testing.T) {
	dispatcher, db := setupDispatcher(t)
	category := db.SeedCategory("Dining")

	require.NoError(t, db.Storage.CreateBudget(context.Background(), &model.Budget{
		TeamID:     db.Team.ID,
		CategoryID: category.ID,
		Amount:     100,
		Period:     model.PeriodMonthly,
		StartDate:  day(1),
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
	}))
	db.SeedTransaction("dinner", 85, day(10), &category.ID)

	dispatcher.CheckBudgets(context.Background(), db.Team.ID)

	notifications := userNotifications(t, db, db.UserID)
	require.Len(t, notifications, 1)
	assert.Equal(t, "Budget warning: Dining", notifications[0].Title)
}

func TestBroadcastSkipsInactiveMembers(t *testing.T) {
	dispatcher, db := setupDispatcher(t)
	former := db.SeedMember()
	require.NoError(t, db.Storage.RemoveMember(context.Background(), db.Team.ID, former))

	dispatcher.TeamActivity(context.Background(), db.Team.ID, "Team renamed", "New name.")

	assert.Len(t, userNotifications(t, db, db.UserID), 1)
	assert.Empty(t, userNotifications(t, db, former))
}

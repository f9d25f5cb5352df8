package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/casaflow/casaflow/internal/model"
)

// newTestStorage returns a migrated in-memory store with one seeded team.
func newTestStorage(t *testing.T) (*SQLiteStorage, string) {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	teamID := uuid.NewString()
	require.NoError(t, store.CreateTeam(ctx, &model.Team{
		ID:         teamID,
		Name:       "Test Household",
		InviteCode: "testcode",
	}))

	return store, teamID
}

func seedSecondTeam(t *testing.T, store *SQLiteStorage) string {
	t.Helper()
	teamID := uuid.NewString()
	require.NoError(t, store.CreateTeam(context.Background(), &model.Team{
		ID:         teamID,
		Name:       "Other Household",
		InviteCode: "othercode",
	}))
	return teamID
}

func seedCategory(t *testing.T, store *SQLiteStorage, teamID, name string) *model.Category {
	t.Helper()
	category := &model.Category{
		TeamID:   teamID,
		Name:     name,
		IsActive: true,
	}
	require.NoError(t, store.CreateCategory(context.Background(), category))
	return category
}

func testDate(year int, month time.Month, dayOfMonth int) time.Time {
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

func newTxn(teamID, description string, amount float64, date time.Time) *model.Transaction {
	now := time.Now().UTC()
	return &model.Transaction{
		ID:          uuid.NewString(),
		TeamID:      teamID,
		UserID:      "user-1",
		Description: description,
		Amount:      amount,
		Date:        date,
		Status:      model.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func seedTxn(t *testing.T, store *SQLiteStorage, txn *model.Transaction) *model.Transaction {
	t.Helper()
	require.NoError(t, store.CreateTransaction(context.Background(), txn))
	return txn
}

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casaflow/casaflow/internal/model"
)

func TestBudgetEndDateRoundTrip(t *testing.T) {
	store, teamID := newTestStorage(t)
	ctx := context.Background()
	category := seedCategory(t, store, teamID, "Vacation")

	end := testDate(2026, time.June, 30)
	bounded := &model.Budget{
		TeamID:     teamID,
		CategoryID: category.ID,
		Amount:     2000,
		Period:     model.PeriodCustom,
		StartDate:  testDate(2026, time.June, 1),
		EndDate:    &end,
		IsActive:   true,
	}
	require.NoError(t, store.CreateBudget(ctx, bounded))

	open := &model.Budget{
		TeamID:     teamID,
		CategoryID: category.ID,
		Amount:     500,
		Period:     model.PeriodMonthly,
		StartDate:  testDate(2026, time.January, 1),
		IsActive:   true,
	}
	require.NoError(t, store.CreateBudget(ctx, open))

	got, err := store.GetBudget(ctx, teamID, bounded.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EndDate)
	assert.True(t, got.EndDate.Equal(end))

	got, err = store.GetBudget(ctx, teamID, open.ID)
	require.NoError(t, err)
	assert.Nil(t, got.EndDate)
}

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casaflow/casaflow/internal/alerts"
	"github.com/casaflow/casaflow/internal/analytics"
	"github.com/casaflow/casaflow/internal/common"
	"github.com/casaflow/casaflow/internal/model"
	"github.com/casaflow/casaflow/internal/rules"
	"github.com/casaflow/casaflow/internal/service"
	"github.com/casaflow/casaflow/internal/testutil"
)

var fixedNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func setupEngine(t *testing.T) (*Engine, *testutil.TestDB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	clock := func() time.Time { return fixedNow }
	analyzer := analytics.NewAnalyzer(db.Storage).WithClock(clock)
	dispatcher := alerts.NewDispatcher(db.Storage, analyzer).WithClock(clock)
	eng := New(db.Storage, rules.NewClassifier(), analyzer, dispatcher).WithClock(clock)
	return eng, db
}

func day(dayOfMonth int) time.Time {
	return time.Date(2026, time.March, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

func TestCreateTransactionAutoCategorizes(t *testing.T) {
	eng, db := setupEngine(t)
	ctx := context.Background()
	category := db.SeedCategory("Streaming")

	_, err := eng.CreateRule(ctx, db.Team.ID, "netflix", model.FieldDescription, "netflix", category.ID)
	require.NoError(t, err)

	txn, err := eng.CreateTransaction(ctx, db.Team.ID, db.UserID, CreateTransactionInput{
		Description: "NETFLIX.COM",
		Amount:      15.99,
		Date:        day(14),
	})
	require.NoError(t, err)

	require.NotNil(t, txn.CategoryID)
	assert.Equal(t, category.ID, *txn.CategoryID)
	assert.True(t, txn.AISuggested)
	assert.Equal(t, model.StatusActive, txn.Status)
}

func TestCreateTransactionExplicitCategoryWins(t *testing.T) {
	eng, db := setupEngine(t)
	ctx := context.Background()
	streaming := db.SeedCategory("Streaming")
	entertainment := db.SeedCategory("Entertainment")

	_, err := eng.CreateRule(ctx, db.Team.ID, "netflix", model.FieldDescription, "netflix", streaming.ID)
	require.NoError(t, err)

	txn, err := eng.CreateTransaction(ctx, db.Team.ID, db.UserID, CreateTransactionInput{
		Description: "NETFLIX.COM",
		Amount:      15.99,
		Date:        day(14),
		CategoryID:  &entertainment.ID,
	})
	require.NoError(t, err)

	// The caller disagreed with the rule, so their choice stands and the
	// transaction is not flagged as auto-suggested.
	require.NotNil(t, txn.CategoryID)
	assert.Equal(t, entertainment.ID, *txn.CategoryID)
	assert.False(t, txn.AISuggested)
}

func TestCreateTransactionNormalizesAmount(t *testing.T) {
	eng, db := setupEngine(t)

	txn, err := eng.CreateTransaction(context.Background(), db.Team.ID, db.UserID, CreateTransactionInput{
		Description: "refund reversal",
		Amount:      -42.50,
		Date:        day(3),
	})
	require.NoError(t, err)
	assert.Equal(t, 42.50, txn.Amount)
}

func TestCreateTransactionValidation(t *testing.T) {
	eng, db := setupEngine(t)

	_, err := eng.CreateTransaction(context.Background(), db.Team.ID, db.UserID, CreateTransactionInput{
		Description: "   ",
		Amount:      10,
		Date:        day(1),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestCreateTransactionUnknownCategory(t *testing.T) {
	eng, db := setupEngine(t)

	missing := int64(9999)
	_, err := eng.CreateTransaction(context.Background(), db.Team.ID, db.UserID, CreateTransactionInput{
		Description: "groceries",
		Amount:      10,
		Date:        day(1),
		CategoryID:  &missing,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDependency)
}

func TestAuditTrailRoundTrip(t *testing.T) {
	eng, db := setupEngine(t)
	ctx := context.Background()
	groceries := db.SeedCategory("Groceries")

	txn, err := eng.CreateTransaction(ctx, db.Team.ID, db.UserID, CreateTransactionInput{
		Description: "corner shop",
		Amount:      20,
		Date:        day(5),
	})
	require.NoError(t, err)

	newAmount := 25.0
	_, err = eng.UpdateTransaction(ctx, db.Team.ID, db.UserID, txn.ID, TransactionUpdate{
		Amount: &newAmount,
	})
	require.NoError(t, err)

	_, err = eng.CreateRule(ctx, db.Team.ID, "shops", model.FieldDescription, "shop", groceries.ID)
	require.NoError(t, err)
	result, err := eng.ApplyRules(ctx, db.Team.ID, db.UserID, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.CategorizedCount)

	deleted, err := eng.DeleteTransaction(ctx, db.Team.ID, db.UserID, txn.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	entries, err := eng.GetTransactionAuditLog(ctx, txn.ID)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	// Newest first.
	assert.Equal(t, model.ChangeDeleted, entries[0].ChangeType)
	assert.Equal(t, model.ChangeCategoryChanged, entries[1].ChangeType)
	assert.Equal(t, model.ChangeUpdated, entries[2].ChangeType)
	assert.Equal(t, model.ChangeCreated, entries[3].ChangeType)

	// Each snapshot reconstructs the state after its change.
	created, err := model.DecodeSnapshot(entries[3].NewValue)
	require.NoError(t, err)
	assert.Equal(t, 20.0, created.Amount)
	assert.Nil(t, created.CategoryID)

	updated, err := model.DecodeSnapshot(entries[2].NewValue)
	require.NoError(t, err)
	assert.Equal(t, 25.0, updated.Amount)

	recategorized, err := model.DecodeSnapshot(entries[1].NewValue)
	require.NoError(t, err)
	require.NotNil(t, recategorized.CategoryID)
	assert.Equal(t, groceries.ID, *recategorized.CategoryID)
	assert.Equal(t, "shops", recategorized.RuleName)
	require.NotNil(t, recategorized.RuleID)

	final, err := model.DecodeSnapshot(entries[0].NewValue)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeleted, final.Status)

	// Every entry names the actor.
	for _, entry := range entries {
		assert.Equal(t, db.UserID, entry.UserID)
	}
}

func TestDeleteTransactionIsSoftAndIdempotent(t *testing.T) {
	eng, db := setupEngine(t)
	ctx := context.Background()

	txn, err := eng.CreateTransaction(ctx, db.Team.ID, db.UserID, CreateTransactionInput{
		Description: "mistake",
		Amount:      10,
		Date:        day(2),
	})
	require.NoError(t, err)

	deleted, err := eng.DeleteTransaction(ctx, db.Team.ID, db.UserID, txn.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	// The row survives with deleted status and stays readable.
	got, err := eng.GetTransaction(ctx, db.Team.ID, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeleted, got.Status)

	// Deleting again reports not found.
	_, err = eng.DeleteTransaction(ctx, db.Team.ID, db.UserID, txn.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	// The audit history is still retrievable after deletion.
	entries, err := eng.GetTransactionAuditLog(ctx, txn.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestApplyRulesConverges(t *testing.T) {
	eng, db := setupEngine(t)
	ctx := context.Background()
	groceries := db.SeedCategory("Groceries")
	transport := db.SeedCategory("Transport")

	_, err := eng.CreateRule(ctx, db.Team.ID, "markets", model.FieldDescription, "market", groceries.ID)
	require.NoError(t, err)
	_, err = eng.CreateRule(ctx, db.Team.ID, "fuel", model.FieldDescription, "gas", transport.ID)
	require.NoError(t, err)

	db.SeedTransaction("FARMERS MARKET", 30, day(3), nil)
	db.SeedTransaction("GAS STATION", 45, day(4), nil)
	db.SeedTransaction("unrelated purchase", 12, day(5), nil)

	result, err := eng.ApplyRules(ctx, db.Team.ID, db.UserID, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 2, result.CategorizedCount)
	assert.Len(t, result.Details, 2)

	// A second run finds nothing left to change.
	again, err := eng.ApplyRules(ctx, db.Team.ID, db.UserID, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, again.CategorizedCount)
	assert.Equal(t, 3, again.TotalProcessed)
}

func TestApplyRulesNotifiesEvenWithoutChanges(t *testing.T) {
	eng, db := setupEngine(t)
	ctx := context.Background()

	db.SeedTransaction("already fine", 10, day(2), nil)

	result, err := eng.ApplyRules(ctx, db.Team.ID, db.UserID, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.CategorizedCount)

	// The batch run itself is team activity, even when nothing changed.
	notifications, err := eng.ListNotifications(ctx, db.Team.ID, db.UserID, false)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "Rules applied", notifications[0].Title)
	assert.Contains(t, notifications[0].Body, "0 of 1")
}

func TestApplyRulesReportsProgress(t *testing.T) {
	eng, db := setupEngine(t)
	ctx := context.Background()

	db.SeedTransaction("one", 10, day(1), nil)
	db.SeedTransaction("two", 20, day(2), nil)

	var calls int
	var lastDone, lastTotal int
	_, err := eng.ApplyRules(ctx, db.Team.ID, db.UserID, func(done, total int) {
		calls++
		lastDone, lastTotal = done, total
	})
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, lastDone)
	assert.Equal(t, 2, lastTotal)
}

func TestTeamIsolation(t *testing.T) {
	eng, db := setupEngine(t)
	ctx := context.Background()

	otherTeam, err := eng.CreateTeam(ctx, "Other Household", "other-owner")
	require.NoError(t, err)

	txn, err := eng.CreateTransaction(ctx, db.Team.ID, db.UserID, CreateTransactionInput{
		Description: "private purchase",
		Amount:      50,
		Date:        day(8),
	})
	require.NoError(t, err)

	// The other team cannot see, edit, or delete it; it looks like it does
	// not exist.
	_, err = eng.GetTransaction(ctx, otherTeam.ID, txn.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	amount := 1.0
	_, err = eng.UpdateTransaction(ctx, otherTeam.ID, "other-owner", txn.ID, TransactionUpdate{Amount: &amount})
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = eng.DeleteTransaction(ctx, otherTeam.ID, "other-owner", txn.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	listed, err := eng.ListTransactions(ctx, otherTeam.ID, service.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestDeleteCategoryBlockedByReferences(t *testing.T) {
	eng, db := setupEngine(t)
	ctx := context.Background()
	category := db.SeedCategory("Groceries")

	db.SeedTransaction("weekly shop", 60, day(6), &category.ID)

	err := eng.DeleteCategory(ctx, db.Team.ID, category.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrConflict)

	// Once the referencing transaction is gone the category can go too.
	listed, err := eng.ListTransactions(ctx, db.Team.ID, service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	_, err = eng.DeleteTransaction(ctx, db.Team.ID, db.UserID, listed[0].ID)
	require.NoError(t, err)

	require.NoError(t, eng.DeleteCategory(ctx, db.Team.ID, category.ID))

	// Inactive categories stay readable but drop out of listings.
	got, err := eng.GetCategory(ctx, db.Team.ID, category.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	active, err := eng.ListCategories(ctx, db.Team.ID)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestCreateRuleUnknownCategory(t *testing.T) {
	eng, db := setupEngine(t)

	_, err := eng.CreateRule(context.Background(), db.Team.ID, "orphan", model.FieldDescription, "text", 9999)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDependency)
}

func TestCreateRuleInvalidField(t *testing.T) {
	eng, db := setupEngine(t)
	category := db.SeedCategory("Misc")

	_, err := eng.CreateRule(context.Background(), db.Team.ID, "bad", model.RuleField("memo"), "text", category.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestUpdateTransactionClearCategory(t *testing.T) {
	eng, db := setupEngine(t)
	ctx := context.Background()
	category := db.SeedCategory("Groceries")

	txn, err := eng.CreateTransaction(ctx, db.Team.ID, db.UserID, CreateTransactionInput{
		Description: "shop",
		Amount:      10,
		Date:        day(1),
		CategoryID:  &category.ID,
	})
	require.NoError(t, err)

	updated, err := eng.UpdateTransaction(ctx, db.Team.ID, db.UserID, txn.ID, TransactionUpdate{
		ClearCategory: true,
	})
	require.NoError(t, err)
	assert.Nil(t, updated.CategoryID)
	assert.False(t, updated.AISuggested)
}

func TestUpdateCategorizedTransaction(t *testing.T) {
	eng, db := setupEngine(t)
	ctx := context.Background()
	groceries := db.SeedCategory("Groceries")
	dining := db.SeedCategory("Dining")

	txn, err := eng.CreateTransaction(ctx, db.Team.ID, db.UserID, CreateTransactionInput{
		Description: "corner shop",
		Amount:      10,
		Date:        day(1),
		CategoryID:  &groceries.ID,
	})
	require.NoError(t, err)

	// A plain amount edit must leave the existing category untouched.
	newAmount := 12.50
	updated, err := eng.UpdateTransaction(ctx, db.Team.ID, db.UserID, txn.ID, TransactionUpdate{
		Amount: &newAmount,
	})
	require.NoError(t, err)
	assert.Equal(t, 12.50, updated.Amount)
	require.NotNil(t, updated.CategoryID)
	assert.Equal(t, groceries.ID, *updated.CategoryID)

	updated, err = eng.UpdateTransaction(ctx, db.Team.ID, db.UserID, txn.ID, TransactionUpdate{
		CategoryID: &dining.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.CategoryID)
	assert.Equal(t, dining.ID, *updated.CategoryID)
	assert.False(t, updated.AISuggested)
}

func TestUpdateTransactionUnknownCategory(t *testing.T) {
	eng, db := setupEngine(t)
	ctx := context.Background()

	txn, err := eng.CreateTransaction(ctx, db.Team.ID, db.UserID, CreateTransactionInput{
		Description: "shop",
		Amount:      10,
		Date:        day(1),
	})
	require.NoError(t, err)

	missing := int64(9999)
	_, err = eng.UpdateTransaction(ctx, db.Team.ID, db.UserID, txn.ID, TransactionUpdate{
		CategoryID: &missing,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDependency)

	// The rejected edit left the transaction untouched.
	got, err := eng.GetTransaction(ctx, db.Team.ID, txn.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
}

func TestTeamLifecycle(t *testing.T) {
	eng, _ := setupEngine(t)
	ctx := context.Background()

	team, err := eng.CreateTeam(ctx, "The Flat", "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, team.InviteCode)

	members, err := eng.ListMembers(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, model.RoleOwner, members[0].Role)

	require.NoError(t, eng.AddMember(ctx, team.ID, "bob", ""))
	require.NoError(t, eng.ChangeMemberRole(ctx, team.ID, "bob", model.RoleOwner))
	require.NoError(t, eng.RemoveMember(ctx, team.ID, "bob"))

	members, err = eng.ListMembers(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	// Re-adding a removed member reactivates them.
	require.NoError(t, eng.AddMember(ctx, team.ID, "bob", ""))
	members, err = eng.ListMembers(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	for _, member := range members {
		assert.True(t, member.IsActive)
	}

	oldCode := team.InviteCode
	newCode, err := eng.RegenerateInviteCode(ctx, team.ID)
	require.NoError(t, err)
	assert.NotEqual(t, oldCode, newCode)
}

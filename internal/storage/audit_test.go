package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casaflow/casaflow/internal/model"
)

func TestAuditHistoryNewestFirst(t *testing.T) {
	store, teamID := newTestStorage(t)
	ctx := context.Background()

	txn := seedTxn(t, store, newTxn(teamID, "shop", 20, testDate(2026, time.March, 5)))

	base := time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC)
	changes := []model.ChangeType{model.ChangeCreated, model.ChangeUpdated, model.ChangeDeleted}
	for i, changeType := range changes {
		require.NoError(t, store.AppendAudit(ctx, &model.AuditEntry{
			TransactionID: txn.ID,
			UserID:        "user-1",
			ChangeType:    changeType,
			NewValue:      model.Snapshot(txn).Encode(),
			ChangedAt:     base.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := store.AuditHistory(ctx, txn.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, model.ChangeDeleted, entries[0].ChangeType)
	assert.Equal(t, model.ChangeUpdated, entries[1].ChangeType)
	assert.Equal(t, model.ChangeCreated, entries[2].ChangeType)
}

func TestAuditHistoryTiebreaksOnInsertionOrder(t *testing.T) {
	store, teamID := newTestStorage(t)
	ctx := context.Background()

	txn := seedTxn(t, store, newTxn(teamID, "shop", 20, testDate(2026, time.March, 5)))

	// Identical timestamps: later inserts still sort first.
	at := time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.AppendAudit(ctx, &model.AuditEntry{
		TransactionID: txn.ID, UserID: "user-1",
		ChangeType: model.ChangeCreated, NewValue: "{}", ChangedAt: at,
	}))
	require.NoError(t, store.AppendAudit(ctx, &model.AuditEntry{
		TransactionID: txn.ID, UserID: "user-1",
		ChangeType: model.ChangeUpdated, NewValue: "{}", ChangedAt: at,
	}))

	entries, err := store.AuditHistory(ctx, txn.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.ChangeUpdated, entries[0].ChangeType)
}

func TestAuditSurvivesTransactionDeletion(t *testing.T) {
	store, teamID := newTestStorage(t)
	ctx := context.Background()

	txn := seedTxn(t, store, newTxn(teamID, "shop", 20, testDate(2026, time.March, 5)))
	require.NoError(t, store.AppendAudit(ctx, &model.AuditEntry{
		TransactionID: txn.ID,
		UserID:        "user-1",
		ChangeType:    model.ChangeCreated,
		NewValue:      model.Snapshot(txn).Encode(),
	}))
	require.NoError(t, store.MarkTransactionDeleted(ctx, teamID, txn.ID))

	entries, err := store.AuditHistory(ctx, txn.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	snapshot, err := model.DecodeSnapshot(entries[0].NewValue)
	require.NoError(t, err)
	assert.Equal(t, "shop", snapshot.Description)
	assert.Equal(t, 20.0, snapshot.Amount)
}

func TestAppendAuditInTx(t *testing.T) {
	store, teamID := newTestStorage(t)
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)

	txn := newTxn(teamID, "atomic", 33, testDate(2026, time.March, 7))
	require.NoError(t, tx.CreateTransaction(ctx, txn))
	require.NoError(t, tx.AppendAudit(ctx, &model.AuditEntry{
		TransactionID: txn.ID,
		UserID:        "user-1",
		ChangeType:    model.ChangeCreated,
		NewValue:      model.Snapshot(txn).Encode(),
	}))
	require.NoError(t, tx.Commit())

	got, err := store.GetTransaction(ctx, teamID, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "atomic", got.Description)

	entries, err := store.AuditHistory(ctx, txn.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRollbackDiscardsWriteAndAudit(t *testing.T) {
	store, teamID := newTestStorage(t)
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)

	txn := newTxn(teamID, "phantom", 10, testDate(2026, time.March, 8))
	require.NoError(t, tx.CreateTransaction(ctx, txn))
	require.NoError(t, tx.AppendAudit(ctx, &model.AuditEntry{
		TransactionID: txn.ID,
		UserID:        "user-1",
		ChangeType:    model.ChangeCreated,
		NewValue:      "{}",
	}))
	require.NoError(t, tx.Rollback())

	// Neither the row nor the audit entry survived.
	_, err = store.GetTransaction(ctx, teamID, txn.ID)
	require.Error(t, err)

	entries, err := store.AuditHistory(ctx, txn.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

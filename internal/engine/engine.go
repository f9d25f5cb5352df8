// Package engine orchestrates transaction writes: classification, audit
// logging, budget recomputation and alerting are invoked as explicit steps
// around the storage layer.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/casaflow/casaflow/internal/alerts"
	"github.com/casaflow/casaflow/internal/analytics"
	"github.com/casaflow/casaflow/internal/common"
	"github.com/casaflow/casaflow/internal/model"
	"github.com/casaflow/casaflow/internal/rules"
	"github.com/casaflow/casaflow/internal/service"
)

// Engine exposes the core operations consumed by the surrounding transports
// (web pages, file ingestion, chat agent). Each write commits the ledger row
// and its audit entry in one database transaction, then runs the alerting
// pass best-effort.
type Engine struct {
	store      service.Storage
	classifier *rules.Classifier
	analyzer   *analytics.Analyzer
	dispatcher *alerts.Dispatcher
	now        func() time.Time
}

// New creates an engine from its collaborators.
func New(store service.Storage, classifier *rules.Classifier, analyzer *analytics.Analyzer, dispatcher *alerts.Dispatcher) *Engine {
	return &Engine{
		store:      store,
		classifier: classifier,
		analyzer:   analyzer,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// WithClock overrides the engine's clock. Intended for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// CreateTransactionInput carries the caller-supplied fields of a new
// transaction.
type CreateTransactionInput struct {
	Description string
	Bank        string
	Date        time.Time
	CategoryID  *int64
	Amount      float64
	Status      model.TransactionStatus
}

// CreateTransaction records a new expense for the team. The rule engine is
// consulted once: when a rule matches and the caller's category is absent or
// indistinguishable from the rule's suggestion, the rule's category is
// applied and the transaction is tagged as auto-suggested.
func (e *Engine) CreateTransaction(ctx context.Context, teamID, userID string, input CreateTransactionInput) (*model.Transaction, error) {
	status := input.Status
	if status == "" {
		status = model.StatusActive
	}

	now := e.now().UTC()
	txn := &model.Transaction{
		ID:          uuid.NewString(),
		TeamID:      teamID,
		UserID:      userID,
		Description: input.Description,
		Amount:      input.Amount,
		Date:        input.Date,
		CategoryID:  input.CategoryID,
		Bank:        input.Bank,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	txn.Normalize()

	if err := txn.Validate(); err != nil {
		return nil, common.NewValidationError(err)
	}
	if err := e.requireCategory(ctx, teamID, txn.CategoryID); err != nil {
		return nil, err
	}

	activeRules, err := e.store.ListRules(ctx, teamID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	if match := e.classifier.FirstMatch(*txn, activeRules); match != nil {
		if txn.CategoryID == nil || *txn.CategoryID == match.CategoryID {
			categoryID := match.CategoryID
			txn.CategoryID = &categoryID
			txn.AISuggested = true
		}
	}

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	if err := tx.AppendAudit(ctx, &model.AuditEntry{
		TransactionID: txn.ID,
		UserID:        userID,
		ChangeType:    model.ChangeCreated,
		NewValue:      model.Snapshot(txn).Encode(),
		ChangedAt:     now,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	e.dispatcher.TransactionWritten(ctx, *txn)
	return txn, nil
}

// TransactionUpdate is a partial update of a transaction. Nil fields are
// left unchanged; ClearCategory removes the category assignment.
type TransactionUpdate struct {
	Description   *string
	Bank          *string
	Date          *time.Time
	Amount        *float64
	CategoryID    *int64
	Status        *model.TransactionStatus
	ClearCategory bool
}

// UpdateTransaction applies a partial edit to a transaction of the team.
func (e *Engine) UpdateTransaction(ctx context.Context, teamID, userID, id string, update TransactionUpdate) (*model.Transaction, error) {
	// The pool holds a single connection, so a category lookup through the
	// store would block behind the open write transaction. Resolve it first.
	if !update.ClearCategory && update.CategoryID != nil {
		if err := e.requireCategory(ctx, teamID, update.CategoryID); err != nil {
			return nil, err
		}
	}

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	txn, err := tx.GetTransaction(ctx, teamID, id)
	if err != nil {
		return nil, err
	}

	before := model.Snapshot(txn)

	if update.Description != nil {
		txn.Description = *update.Description
	}
	if update.Bank != nil {
		txn.Bank = *update.Bank
	}
	if update.Date != nil {
		txn.Date = *update.Date
	}
	if update.Amount != nil {
		txn.Amount = *update.Amount
	}
	switch {
	case update.ClearCategory:
		txn.CategoryID = nil
		txn.AISuggested = false
	case update.CategoryID != nil:
		txn.CategoryID = update.CategoryID
		// An explicit assignment supersedes whatever a rule suggested.
		txn.AISuggested = false
	}
	if update.Status != nil {
		txn.Status = *update.Status
	}

	txn.Normalize()
	txn.UpdatedAt = e.now().UTC()

	if err := txn.Validate(); err != nil {
		return nil, common.NewValidationError(err)
	}

	if err := tx.UpdateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	if err := tx.AppendAudit(ctx, &model.AuditEntry{
		TransactionID: txn.ID,
		UserID:        userID,
		ChangeType:    model.ChangeUpdated,
		OldValue:      before.Encode(),
		NewValue:      model.Snapshot(txn).Encode(),
		ChangedAt:     txn.UpdatedAt,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	e.dispatcher.TransactionWritten(ctx, *txn)
	return txn, nil
}

// DeleteTransaction soft-deletes a transaction of the team. Deleting an
// already-deleted transaction reports not found; the row and its audit
// history remain retrievable.
func (e *Engine) DeleteTransaction(ctx context.Context, teamID, userID, id string) (bool, error) {
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	txn, err := tx.GetTransaction(ctx, teamID, id)
	if err != nil {
		return false, err
	}
	if txn.Status == model.StatusDeleted {
		return false, common.ErrNotFound
	}

	before := model.Snapshot(txn)

	if err := tx.MarkTransactionDeleted(ctx, teamID, id); err != nil {
		return false, err
	}

	txn.Status = model.StatusDeleted
	if err := tx.AppendAudit(ctx, &model.AuditEntry{
		TransactionID: txn.ID,
		UserID:        userID,
		ChangeType:    model.ChangeDeleted,
		OldValue:      before.Encode(),
		NewValue:      model.Snapshot(txn).Encode(),
		ChangedAt:     e.now().UTC(),
	}); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	// A removed expense can clear a budget breach but cannot introduce an
	// anomaly, so only the budget pass runs here.
	e.dispatcher.CheckBudgets(ctx, teamID)
	return true, nil
}

// ListTransactions returns the team's transactions matching the filter.
func (e *Engine) ListTransactions(ctx context.Context, teamID string, filter service.TransactionFilter) ([]model.Transaction, error) {
	return e.store.ListTransactions(ctx, teamID, filter)
}

// GetTransaction returns one transaction of the team.
func (e *Engine) GetTransaction(ctx context.Context, teamID, id string) (*model.Transaction, error) {
	return e.store.GetTransaction(ctx, teamID, id)
}

// GetTransactionAuditLog returns the transaction's audit history, newest
// first.
func (e *Engine) GetTransactionAuditLog(ctx context.Context, transactionID string) ([]model.AuditEntry, error) {
	return e.store.AuditHistory(ctx, transactionID)
}

// GetBudgetAnalytics computes the status of every active budget of the
// team. A zero month or year selects the current calendar month.
func (e *Engine) GetBudgetAnalytics(ctx context.Context, teamID string, month time.Month, year int) ([]service.BudgetStatus, error) {
	return e.analyzer.Analyze(ctx, teamID, month, year)
}

// requireCategory verifies that a referenced category exists in the team.
func (e *Engine) requireCategory(ctx context.Context, teamID string, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}
	if _, err := e.store.GetCategory(ctx, teamID, *categoryID); err != nil {
		return common.NewDependencyError("category %d does not exist", *categoryID)
	}
	return nil
}

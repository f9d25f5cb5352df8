package engine

import (
	"context"
	"fmt"

	"github.com/casaflow/casaflow/internal/model"
	"github.com/casaflow/casaflow/internal/service"
)

// ApplyRules re-evaluates the team's active rules over its active
// transactions and recategorizes every transaction whose first matching rule
// points at a different category. Each recategorization is audited as a
// category change carrying the rule's id and name, so the history shows what
// acted, not just what changed.
//
// The optional progress callback is invoked after each transaction with the
// number processed so far and the total.
func (e *Engine) ApplyRules(ctx context.Context, teamID, userID string, progress func(done, total int)) (*service.RuleApplicationResult, error) {
	activeRules, err := e.store.ListRules(ctx, teamID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	transactions, err := e.store.ListTransactions(ctx, teamID, service.TransactionFilter{
		Status: model.StatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	result := &service.RuleApplicationResult{
		TotalProcessed: len(transactions),
	}

	for i := range transactions {
		txn := transactions[i]

		match := e.classifier.FirstMatch(txn, activeRules)
		if match == nil || (txn.CategoryID != nil && *txn.CategoryID == match.CategoryID) {
			if progress != nil {
				progress(i+1, len(transactions))
			}
			continue
		}

		oldCategoryID := txn.CategoryID
		if err := e.recategorize(ctx, &txn, match, userID); err != nil {
			return nil, err
		}

		result.CategorizedCount++
		result.Details = append(result.Details, service.RuleMatch{
			TransactionID: txn.ID,
			Description:   txn.Description,
			RuleID:        match.ID,
			RuleName:      match.Name,
			OldCategoryID: oldCategoryID,
			NewCategoryID: match.CategoryID,
		})

		if progress != nil {
			progress(i+1, len(transactions))
		}
	}

	e.dispatcher.TeamActivity(ctx, teamID,
		"Rules applied",
		fmt.Sprintf("%d of %d transactions were recategorized.",
			result.CategorizedCount, result.TotalProcessed))
	if result.CategorizedCount > 0 {
		// Spend only moves between categories when something changed.
		e.dispatcher.CheckBudgets(ctx, teamID)
	}

	return result, nil
}

// recategorize commits one rule-driven category change and its audit entry in
// a single database transaction.
func (e *Engine) recategorize(ctx context.Context, txn *model.Transaction, rule *model.Rule, userID string) error {
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	before := model.Snapshot(txn)

	categoryID := rule.CategoryID
	txn.CategoryID = &categoryID
	txn.AISuggested = true
	txn.UpdatedAt = e.now().UTC()

	if err := tx.UpdateTransaction(ctx, txn); err != nil {
		return err
	}

	after := model.Snapshot(txn)
	ruleID := rule.ID
	after.RuleID = &ruleID
	after.RuleName = rule.Name

	if err := tx.AppendAudit(ctx, &model.AuditEntry{
		TransactionID: txn.ID,
		UserID:        userID,
		ChangeType:    model.ChangeCategoryChanged,
		OldValue:      before.Encode(),
		NewValue:      after.Encode(),
		ChangedAt:     txn.UpdatedAt,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

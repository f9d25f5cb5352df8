package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/casaflow/casaflow/internal/common"
	"github.com/casaflow/casaflow/internal/model"
	"github.com/casaflow/casaflow/internal/service"
)

// CreateTransaction inserts a new transaction row.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := txn.Validate(); err != nil {
		return err
	}
	return s.createTransactionTx(ctx, s.db, txn)
}

func (s *SQLiteStorage) createTransactionTx(ctx context.Context, q queryable, txn *model.Transaction) error {
	query := `
		INSERT INTO transactions (
			id, team_id, user_id, description, amount, date,
			category_id, bank, status, ai_suggested, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := q.ExecContext(ctx, query,
		txn.ID,
		txn.TeamID,
		txn.UserID,
		txn.Description,
		txn.Amount,
		txn.Date.Format(model.DateLayout),
		txn.CategoryID,
		txn.Bank,
		string(txn.Status),
		txn.AISuggested,
		txn.CreatedAt,
		txn.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
	}

	slog.Debug("created transaction", "id", txn.ID, "team", txn.TeamID)
	return nil
}

// GetTransaction retrieves one transaction by id, scoped to the team. An id
// owned by another team returns common.ErrNotFound.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, teamID, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateTeamID(teamID); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getTransactionTx(ctx, s.db, teamID, id)
}

func (s *SQLiteStorage) getTransactionTx(ctx context.Context, q queryable, teamID, id string) (*model.Transaction, error) {
	query := `
		SELECT id, team_id, user_id, description, amount, date,
		       category_id, bank, status, ai_suggested, created_at, updated_at
		FROM transactions
		WHERE id = ? AND team_id = ?`

	txn, err := scanTransaction(q.QueryRowContext(ctx, query, id, teamID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	return txn, nil
}

// UpdateTransaction persists all mutable fields of the transaction, scoped
// to its team.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := txn.Validate(); err != nil {
		return err
	}
	return s.updateTransactionTx(ctx, s.db, txn)
}

func (s *SQLiteStorage) updateTransactionTx(ctx context.Context, q queryable, txn *model.Transaction) error {
	query := `
		UPDATE transactions
		SET description = ?, amount = ?, date = ?, category_id = ?,
		    bank = ?, status = ?, ai_suggested = ?, updated_at = ?
		WHERE id = ? AND team_id = ?`

	result, err := q.ExecContext(ctx, query,
		txn.Description,
		txn.Amount,
		txn.Date.Format(model.DateLayout),
		txn.CategoryID,
		txn.Bank,
		string(txn.Status),
		txn.AISuggested,
		txn.UpdatedAt,
		txn.ID,
		txn.TeamID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", txn.ID, err)
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

// MarkTransactionDeleted soft-deletes a transaction. Deleting a transaction
// that is already deleted, unknown, or owned by another team returns
// common.ErrNotFound.
func (s *SQLiteStorage) MarkTransactionDeleted(ctx context.Context, teamID, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTeamID(teamID); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return s.markTransactionDeletedTx(ctx, s.db, teamID, id)
}

func (s *SQLiteStorage) markTransactionDeletedTx(ctx context.Context, q queryable, teamID, id string) error {
	query := `
		UPDATE transactions
		SET status = ?, updated_at = ?
		WHERE id = ? AND team_id = ? AND status != ?`

	result, err := q.ExecContext(ctx, query,
		string(model.StatusDeleted), time.Now().UTC(), id, teamID, string(model.StatusDeleted))
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
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

// ListTransactions returns the team's transactions matching the filter,
// newest date first. An empty filter status selects active transactions.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, teamID string, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateTeamID(teamID); err != nil {
		return nil, err
	}

	status := filter.Status
	if status == "" {
		status = model.StatusActive
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT id, team_id, user_id, description, amount, date,
		       category_id, bank, status, ai_suggested, created_at, updated_at
		FROM transactions
		WHERE team_id = ? AND status = ?`)
	args := []any{teamID, string(status)}

	if filter.CategoryID != nil {
		sb.WriteString(" AND category_id = ?")
		args = append(args, *filter.CategoryID)
	}
	if filter.StartDate != nil {
		sb.WriteString(" AND date >= ?")
		args = append(args, filter.StartDate.Format(model.DateLayout))
	}
	if filter.EndDate != nil {
		sb.WriteString(" AND date <= ?")
		args = append(args, filter.EndDate.Format(model.DateLayout))
	}
	if filter.Search != "" {
		sb.WriteString(" AND description LIKE ?")
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Bank != "" {
		sb.WriteString(" AND bank = ?")
		args = append(args, filter.Bank)
	}

	sb.WriteString(" ORDER BY date DESC, created_at DESC")

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		sb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, filter.PageSize, (page-1)*filter.PageSize)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectTransactions(rows)
}

// RecentTransactions returns up to limit active transactions dated on or
// after since, newest first.
func (s *SQLiteStorage) RecentTransactions(ctx context.Context, teamID string, since time.Time, limit int) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateTeamID(teamID); err != nil {
		return nil, err
	}

	query := `
		SELECT id, team_id, user_id, description, amount, date,
		       category_id, bank, status, ai_suggested, created_at, updated_at
		FROM transactions
		WHERE team_id = ? AND status = ? AND date >= ?
		ORDER BY date DESC, created_at DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query,
		teamID, string(model.StatusActive), since.Format(model.DateLayout), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectTransactions(rows)
}

// SumExpensesByCategory sums the amounts of the team's active transactions in
// the category between start and end, both inclusive. A nil end leaves the
// window open-ended.
func (s *SQLiteStorage) SumExpensesByCategory(ctx context.Context, teamID string, categoryID int64, start time.Time, end *time.Time) (float64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateTeamID(teamID); err != nil {
		return 0, err
	}

	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE team_id = ? AND status = ? AND category_id = ? AND date >= ?`
	args := []any{teamID, string(model.StatusActive), categoryID, start.Format(model.DateLayout)}

	if end != nil {
		query += " AND date <= ?"
		args = append(args, end.Format(model.DateLayout))
	}

	var total float64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum expenses: %w", err)
	}
	return total, nil
}

// CountActiveByCategory counts the team's active transactions referencing
// the category.
func (s *SQLiteStorage) CountActiveByCategory(ctx context.Context, teamID string, categoryID int64) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateTeamID(teamID); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE team_id = ? AND status = ? AND category_id = ?`,
		teamID, string(model.StatusActive), categoryID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var categoryID sql.NullInt64
	var bank sql.NullString
	var status string

	err := row.Scan(
		&txn.ID,
		&txn.TeamID,
		&txn.UserID,
		&txn.Description,
		&txn.Amount,
		&txn.Date,
		&categoryID,
		&bank,
		&status,
		&txn.AISuggested,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if categoryID.Valid {
		txn.CategoryID = &categoryID.Int64
	}
	if bank.Valid {
		txn.Bank = bank.String
	}
	txn.Status = model.TransactionStatus(status)
	return &txn, nil
}

func collectTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}
